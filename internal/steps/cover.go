package steps

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"relpack/internal/config"
	"relpack/internal/logging"
	"relpack/internal/pipeline"
	"relpack/internal/services"
)

const (
	requiredCoverEdge   = 3000
	maxCoverBytes       = 5 * 1024 * 1024
	coverWarnBytes      = 3 * 1024 * 1024
	coverEmbedMaxPixels = 1500
)

var coverPatterns = []string{"*.jpg", "*.jpeg", "*.png"}

// CoverReport lists validation findings for one cover art file.
type CoverReport struct {
	Path     string
	Width    int
	Height   int
	Bytes    int64
	Errors   []string
	Warnings []string
}

// Valid reports whether the cover passed every hard requirement.
func (r *CoverReport) Valid() bool { return len(r.Errors) == 0 }

// ValidateCover locates the cover art in the release's Cover subdirectory,
// renames a loosely named image to the canonical name, and checks it against
// distribution requirements: square 3000x3000 JPG or PNG under 5 MiB.
func ValidateCover(logger *slog.Logger) pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:    "cover",
		Enabled: func(cfg *config.ReleaseConfig) bool { return cfg.ValidateCover },
		Run: func(ctx context.Context, release *pipeline.Release) error {
			log := logging.WithContext(ctx, logger)

			dir := coverDir(release)
			cover, err := adoptCover(log, dir, release)
			if err != nil {
				return err
			}
			if cover == "" {
				log.Warn("cover art not found",
					logging.String("cover_dir", dir),
					logging.String(logging.FieldErrorHint,
						"place any .jpg or .png file in the Cover directory and it will be renamed automatically"))
				return nil
			}

			report, err := InspectCover(cover)
			if err != nil {
				return err
			}
			for _, warning := range report.Warnings {
				log.Warn(warning, logging.String("cover", filepath.Base(cover)))
			}
			if !report.Valid() {
				return services.Wrap(services.ErrValidation, "cover", "validate cover art",
					strings.Join(report.Errors, "; "), nil)
			}

			release.CoverPath = cover
			log.Info("cover art validated",
				logging.String("cover", filepath.Base(cover)),
				logging.Int("width", report.Width),
				logging.Int("height", report.Height))
			return nil
		},
	}
}

// InspectCover checks one image file against cover art requirements.
func InspectCover(path string) (*CoverReport, error) {
	report := &CoverReport{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		return nil, services.Wrap(services.ErrNotFound, "cover", "stat cover art", path, err)
	}
	report.Bytes = info.Size()

	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".jpg" && ext != ".jpeg" && ext != ".png" {
		report.Errors = append(report.Errors, "format must be JPG or PNG")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, services.Wrap(nil, "cover", "open cover art", path, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("error reading image: %v", err))
		return report, nil
	}
	report.Width, report.Height = cfg.Width, cfg.Height

	if cfg.Width != requiredCoverEdge || cfg.Height != requiredCoverEdge {
		report.Errors = append(report.Errors,
			fmt.Sprintf("dimensions must be %dx%d, got %dx%d", requiredCoverEdge, requiredCoverEdge, cfg.Width, cfg.Height))
	}
	if cfg.Width != cfg.Height {
		report.Errors = append(report.Errors, "must be square (1:1)")
	}

	switch {
	case report.Bytes > maxCoverBytes:
		report.Errors = append(report.Errors,
			fmt.Sprintf("file too large: %.2fMB (max %dMB)", float64(report.Bytes)/(1024*1024), maxCoverBytes/(1024*1024)))
	case report.Bytes > coverWarnBytes:
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("file size %.2fMB is close to the %dMB limit", float64(report.Bytes)/(1024*1024), maxCoverBytes/(1024*1024)))
	}

	return report, nil
}

// adoptCover returns the canonical cover path, renaming the first loose
// image in the Cover directory when no canonically named file exists.
func adoptCover(log *slog.Logger, dir string, release *pipeline.Release) (string, error) {
	if existing := canonicalCover(dir, release); existing != "" {
		return existing, nil
	}

	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", services.Wrap(nil, "cover", "scan cover directory", dir, err)
	}

	var candidates []string
	for _, pattern := range coverPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return "", services.Wrap(nil, "cover", "scan cover directory", dir, err)
		}
		candidates = append(candidates, matches...)
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Strings(candidates)
	found := candidates[0]

	ext := ".png"
	if lower := strings.ToLower(filepath.Ext(found)); lower == ".jpg" || lower == ".jpeg" {
		ext = ".jpg"
	}
	target := filepath.Join(dir, release.BaseName()+" - Cover"+ext)
	if err := os.Rename(found, target); err != nil {
		log.Warn("could not rename cover art, using original name",
			logging.String("cover", filepath.Base(found)),
			logging.Error(err))
		return found, nil
	}
	log.Info("renamed cover art",
		logging.String("source", filepath.Base(found)),
		logging.String("destination", filepath.Base(target)))
	return target, nil
}

// canonicalCover returns the canonically named cover file if one exists,
// preferring JPG over PNG.
func canonicalCover(dir string, release *pipeline.Release) string {
	for _, ext := range []string{".jpg", ".png"} {
		candidate := filepath.Join(dir, release.BaseName()+" - Cover"+ext)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}
