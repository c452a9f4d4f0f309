package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"relpack/internal/config"
	"relpack/internal/fileops"
	"relpack/internal/logging"
	"relpack/internal/pipeline"
	"relpack/internal/services"
)

// expectedStems is the canonical stem set, in output order.
var expectedStems = []string{"Vocals", "Drums", "Bass", "Harmony", "Lead", "FX"}

type stemEntry struct {
	Name     string `json:"name"`
	File     string `json:"file"`
	Duration string `json:"duration"`
}

type stemsManifest struct {
	Track      string      `json:"track"`
	Artist     string      `json:"artist"`
	ExportDate string      `json:"export_date"`
	Stems      []stemEntry `json:"stems"`
}

// OrganizeStems copies recognized stem files into the release's Stems
// subdirectory and writes a JSON manifest describing what was found.
func OrganizeStems(logger *slog.Logger) pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:      "stems",
		Enabled:   func(cfg *config.ReleaseConfig) bool { return cfg.OrganizeStems },
		Retryable: true,
		Run: func(ctx context.Context, release *pipeline.Release) error {
			log := logging.WithContext(ctx, logger)

			source := release.Config.SourceStemsDir
			if _, err := os.Stat(source); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return services.Wrap(services.ErrNotFound, "stems", "locate source stems",
						"source directory not found: "+source, nil)
				}
				return services.Wrap(nil, "stems", "locate source stems", source, err)
			}

			dest := stemsDir(release)
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return services.Wrap(nil, "stems", "create stems directory", dest, err)
			}

			manifest := stemsManifest{
				Track:      release.Title,
				Artist:     release.Artist,
				ExportDate: time.Now().UTC().Format(time.RFC3339),
			}

			for _, stem := range expectedStems {
				match, err := findStemFile(source, stem)
				if err != nil {
					return services.Wrap(nil, "stems", "scan source stems", stem, err)
				}
				if match == "" {
					continue
				}

				target := filepath.Join(dest, fmt.Sprintf("%s - %s.wav", release.BaseName(), stem))
				if err := fileops.CopyInto(match, target, release.Config.OverwriteExisting); err != nil {
					return services.Wrap(nil, "stems", "copy stem", stem, err)
				}
				release.StemFiles = append(release.StemFiles, target)

				manifest.Stems = append(manifest.Stems, stemEntry{
					Name:     stem,
					File:     filepath.Base(target),
					Duration: stemDuration(log, target),
				})
				log.Info("organized stem",
					logging.String("stem", stem),
					logging.String("source", filepath.Base(match)),
					logging.String("destination", filepath.Base(target)))
			}

			manifestPath := filepath.Join(dest, release.BaseName()+" - Stems_Metadata.json")
			data, err := json.MarshalIndent(manifest, "", "  ")
			if err != nil {
				return services.Wrap(nil, "stems", "encode stems manifest", "", err)
			}
			if err := fileops.WriteFile(manifestPath, data); err != nil {
				return services.Wrap(nil, "stems", "write stems manifest", manifestPath, err)
			}
			log.Info("wrote stems manifest",
				logging.String("manifest", filepath.Base(manifestPath)),
				logging.Int("stems", len(manifest.Stems)))
			return nil
		},
	}
}

// findStemFile returns the first file in dir whose name contains the stem
// label. Multiple matches pick the lexicographically first.
func findStemFile(dir, stem string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+stem+"*"))
	if err != nil {
		return "", err
	}
	files := matches[:0]
	for _, match := range matches {
		if info, statErr := os.Stat(match); statErr == nil && info.Mode().IsRegular() {
			files = append(files, match)
		}
	}
	if len(files) == 0 {
		return "", nil
	}
	sort.Strings(files)
	return files[0], nil
}

func stemDuration(log *slog.Logger, path string) string {
	info, err := ReadWAVInfo(path)
	if err != nil || info.Duration <= 0 {
		log.Warn("could not read stem duration",
			logging.String("file", filepath.Base(path)),
			logging.Error(err))
		return "N/A"
	}
	total := int(info.Duration.Round(time.Second).Seconds())
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}
