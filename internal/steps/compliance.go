package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"relpack/internal/config"
	"relpack/internal/logging"
	"relpack/internal/pipeline"
	"relpack/internal/services"
)

const (
	maxAudioBytes   = 500 * 1024 * 1024
	minAudioSeconds = 1.0
	maxAudioSeconds = 7200.0
)

var (
	validAudioFormats      = map[string]bool{".wav": true, ".mp3": true, ".flac": true, ".m4a": true}
	recommendedSampleRates = map[int]bool{44100: true, 48000: true}
)

// AudioReport lists compliance findings for one audio file.
type AudioReport struct {
	Path             string
	Bytes            int64
	Duration         time.Duration
	SampleRate       int
	Channels         int
	BitDepth         int
	ClippingDetected bool
	Errors           []string
	Warnings         []string
}

// Valid reports whether the audio passed every hard requirement.
func (r *AudioReport) Valid() bool { return len(r.Errors) == 0 }

// ValidateCompliance runs the distribution compliance checks over the
// primary audio file, the cover art, and the release metadata. When clipping
// is detected and auto-fix is enabled, the audio is normalized and checked
// again.
func ValidateCompliance(logger *slog.Logger) pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:    "compliance",
		Enabled: func(cfg *config.ReleaseConfig) bool { return cfg.ValidateCompliance },
		Run: func(ctx context.Context, release *pipeline.Release) error {
			log := logging.WithContext(ctx, logger)

			audio := primaryAudioFile(release)
			if audio == "" {
				log.Warn("cannot run compliance check, audio file not found",
					logging.String("audio_dir", audioDir(release)))
				return nil
			}

			report := InspectAudio(ctx, audio)
			if report.ClippingDetected && release.Config.AutoFixClipping {
				log.Info("clipping detected, normalizing audio",
					logging.String("file", filepath.Base(audio)))
				if err := FixClipping(ctx, log, audio); err != nil {
					return err
				}
				report = InspectAudio(ctx, audio)
			}

			var failures []string
			failures = append(failures, prefixAll("audio", report.Errors)...)
			logFindings(log, "audio", report.Errors, report.Warnings)

			if cover := coverForCompliance(release); cover != "" {
				coverReport, err := InspectCover(cover)
				if err != nil {
					return err
				}
				failures = append(failures, prefixAll("cover", coverReport.Errors)...)
				logFindings(log, "cover", coverReport.Errors, coverReport.Warnings)
			}

			metaErrors, metaWarnings := checkMetadata(release)
			failures = append(failures, prefixAll("metadata", metaErrors)...)
			logFindings(log, "metadata", metaErrors, metaWarnings)

			if len(failures) > 0 {
				return services.Wrap(services.ErrValidation, "compliance", "compliance check",
					strings.Join(failures, "; "), nil)
			}
			log.Info("all compliance checks passed",
				logging.String("audio", filepath.Base(audio)))
			return nil
		},
	}
}

// InspectAudio checks one audio file against distribution requirements. It
// never fails outright; unreadable properties become findings on the report.
func InspectAudio(ctx context.Context, path string) *AudioReport {
	report := &AudioReport{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("audio file not found: %s", path))
		return report
	}
	report.Bytes = info.Size()

	ext := strings.ToLower(filepath.Ext(path))
	if !validAudioFormats[ext] {
		report.Errors = append(report.Errors,
			fmt.Sprintf("invalid format %s, must be WAV, MP3, FLAC, or M4A", ext))
	}
	if report.Bytes > maxAudioBytes {
		report.Errors = append(report.Errors,
			fmt.Sprintf("file too large: %.2fMB (max %dMB)", float64(report.Bytes)/(1024*1024), maxAudioBytes/(1024*1024)))
	}

	if ext == ".wav" {
		if wav, wavErr := ReadWAVInfo(path); wavErr == nil {
			report.Duration = wav.Duration
			report.SampleRate = wav.SampleRate
			report.Channels = wav.Channels
			report.BitDepth = wav.BitDepth
			if wav.BitDepth != 16 && wav.BitDepth != 24 {
				report.Warnings = append(report.Warnings,
					fmt.Sprintf("bit depth %d-bit (recommended: 16-bit or 24-bit)", wav.BitDepth))
			}
		} else {
			report.Errors = append(report.Errors, fmt.Sprintf("error reading audio file: %v", wavErr))
		}
	} else if probe, probeErr := probeAudio(ctx, path); probeErr == nil {
		report.Duration = probe.Duration
		report.SampleRate = probe.SampleRate
		report.Channels = probe.Channels
	} else {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("could not read audio properties: %v", probeErr))
	}

	if report.Channels != 0 && report.Channels != 2 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("channels: %d (recommended: 2 for stereo)", report.Channels))
	}
	if seconds := report.Duration.Seconds(); seconds > 0 {
		if seconds < minAudioSeconds {
			report.Errors = append(report.Errors,
				fmt.Sprintf("duration too short: %.2fs (min %gs)", seconds, minAudioSeconds))
		} else if seconds > maxAudioSeconds {
			report.Errors = append(report.Errors,
				fmt.Sprintf("duration too long: %.2fmin (max %gh)", seconds/60, maxAudioSeconds/3600))
		}
	}
	if report.SampleRate != 0 && !recommendedSampleRates[report.SampleRate] {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("sample rate %dHz (recommended: 44.1kHz or 48kHz)", report.SampleRate))
	}

	if peak, peakErr := DetectPeakLevel(ctx, path); peakErr == nil {
		if peak >= clipThresholdDB {
			report.ClippingDetected = true
			report.Errors = append(report.Errors,
				fmt.Sprintf("audio clipping detected (peak %.2f dBFS)", peak))
		} else if peak >= clipWarnDB {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("audio near clipping (peak %.2f dBFS)", peak))
		}
	} else if errors.Is(peakErr, services.ErrExternalTool) {
		report.Warnings = append(report.Warnings, "clipping check skipped (install ffmpeg)")
	}

	return report
}

type probeResult struct {
	Duration   time.Duration
	SampleRate int
	Channels   int
}

type ffprobeDocument struct {
	Streams []struct {
		Channels   int    `json:"channels"`
		SampleRate string `json:"sample_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// probeAudio reads stream properties of non-WAV audio via ffprobe.
func probeAudio(ctx context.Context, path string) (probeResult, error) {
	if _, err := exec.LookPath(ffprobeBinary); err != nil {
		return probeResult{}, fmt.Errorf("ffprobe not found on PATH")
	}

	cmd := exec.CommandContext(ctx, ffprobeBinary,
		"-v", "error",
		"-select_streams", "a:0",
		"-show_entries", "stream=channels,sample_rate:format=duration",
		"-of", "json",
		path)
	output, err := cmd.Output()
	if err != nil {
		return probeResult{}, fmt.Errorf("ffprobe: %w", err)
	}

	var doc ffprobeDocument
	if err := json.Unmarshal(output, &doc); err != nil {
		return probeResult{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var result probeResult
	if len(doc.Streams) > 0 {
		result.Channels = doc.Streams[0].Channels
		if rate, convErr := strconv.Atoi(doc.Streams[0].SampleRate); convErr == nil {
			result.SampleRate = rate
		}
	}
	if seconds, convErr := strconv.ParseFloat(doc.Format.Duration, 64); convErr == nil {
		result.Duration = time.Duration(seconds * float64(time.Second))
	}
	return result, nil
}

// primaryAudioFile picks the file compliance runs against: the renamed MP3
// if one exists, otherwise the first renamed file, otherwise a scan of the
// Audio directory.
func primaryAudioFile(release *pipeline.Release) string {
	preferred := filepath.Join(audioDir(release), release.BaseName()+".mp3")
	if _, err := os.Stat(preferred); err == nil {
		return preferred
	}
	if len(release.AudioFiles) > 0 {
		return release.AudioFiles[0]
	}
	files, err := globAudioFiles(audioDir(release))
	if err != nil || len(files) == 0 {
		return ""
	}
	return files[0]
}

func coverForCompliance(release *pipeline.Release) string {
	if release.CoverPath != "" {
		return release.CoverPath
	}
	return canonicalCover(coverDir(release), release)
}

func checkMetadata(release *pipeline.Release) (errs, warnings []string) {
	if release.Config.Title == "" {
		errs = append(errs, "title is required")
	} else if len([]rune(release.Config.Title)) > 200 {
		errs = append(errs, "title too long (max 200 characters)")
	}
	if release.Config.Artist == "" {
		errs = append(errs, "artist is required")
	} else if len([]rune(release.Config.Artist)) > 200 {
		errs = append(errs, "artist too long (max 200 characters)")
	}
	if release.Config.Genre == "" {
		warnings = append(warnings, "genre recommended but not required")
	}
	return errs, warnings
}

func prefixAll(category string, findings []string) []string {
	out := make([]string, 0, len(findings))
	for _, finding := range findings {
		out = append(out, category+": "+finding)
	}
	return out
}

func logFindings(log *slog.Logger, category string, errs, warnings []string) {
	for _, finding := range errs {
		log.Error("compliance check failed",
			logging.String("category", category),
			logging.String("finding", finding))
	}
	for _, finding := range warnings {
		log.Warn("compliance warning",
			logging.String("category", category),
			logging.String("finding", finding))
	}
}
