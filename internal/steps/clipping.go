package steps

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"

	"relpack/internal/logging"
	"relpack/internal/services"
)

const (
	ffmpegBinary  = "ffmpeg"
	ffprobeBinary = "ffprobe"

	// clipTargetDB is the level clipped audio is normalized down to.
	clipTargetDB = -1.0

	// Peaks at or above clipThresholdDB count as hard clipping; peaks above
	// clipWarnDB are flagged as near-clipping. -0.1 dB corresponds to the
	// 0.99 amplitude threshold, -0.45 dB to 0.95.
	clipThresholdDB = -0.1
	clipWarnDB      = -0.45
)

var maxVolumePattern = regexp.MustCompile(`max_volume:\s*(-?\d+(?:\.\d+)?)\s*dB`)

// DetectPeakLevel measures the peak level of an audio file in dBFS using
// ffmpeg's volumedetect filter.
func DetectPeakLevel(ctx context.Context, path string) (float64, error) {
	if _, err := exec.LookPath(ffmpegBinary); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "clipping", "locate ffmpeg",
			"ffmpeg not found on PATH", err)
	}

	cmd := exec.CommandContext(ctx, ffmpegBinary,
		"-i", path,
		"-af", "volumedetect",
		"-f", "null", "-")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "clipping", "measure peak level",
			firstLine(stderr.String()), err)
	}
	return ParsePeakLevel(stderr.String())
}

// ParsePeakLevel extracts the max_volume reading from volumedetect output.
func ParsePeakLevel(output string) (float64, error) {
	match := maxVolumePattern.FindStringSubmatch(output)
	if match == nil {
		return 0, services.Wrap(services.ErrExternalTool, "clipping", "parse peak level",
			"volumedetect output missing max_volume", nil)
	}
	level, err := strconv.ParseFloat(match[1], 64)
	if err != nil {
		return 0, services.Wrap(services.ErrExternalTool, "clipping", "parse peak level", match[1], err)
	}
	return level, nil
}

// FixClipping rewrites the audio file in place with its volume reduced to
// the clip target. ffmpeg writes to a temp sibling which then replaces the
// original, so a failed run leaves the file untouched.
func FixClipping(ctx context.Context, logger *slog.Logger, path string) error {
	if _, err := exec.LookPath(ffmpegBinary); err != nil {
		return services.Wrap(services.ErrExternalTool, "clipping", "locate ffmpeg",
			"ffmpeg not found on PATH", err)
	}

	temp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".fix"+filepath.Ext(path))
	cmd := exec.CommandContext(ctx, ffmpegBinary,
		"-i", path,
		"-af", fmt.Sprintf("volume=%gdB", clipTargetDB),
		"-y",
		"-loglevel", "error",
		temp)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		os.Remove(temp)
		return services.Wrap(services.ErrExternalTool, "clipping", "normalize audio",
			firstLine(stderr.String()), err)
	}
	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return services.Wrap(nil, "clipping", "replace audio file", filepath.Base(path), err)
	}

	logger.Info("normalized clipped audio",
		logging.String("file", filepath.Base(path)),
		logging.String("target_db", fmt.Sprintf("%g", clipTargetDB)))
	return nil
}

func firstLine(s string) string {
	for i, r := range s {
		if r == '\n' {
			return s[:i]
		}
	}
	return s
}
