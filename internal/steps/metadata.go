package steps

import (
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"time"

	"relpack/internal/config"
	"relpack/internal/fileops"
	"relpack/internal/logging"
	"relpack/internal/pipeline"
	"relpack/internal/services"
)

type releaseMetadata struct {
	Artist        string   `json:"artist"`
	Title         string   `json:"title"`
	Genre         string   `json:"genre"`
	BPM           int      `json:"bpm,omitempty"`
	Key           string   `json:"key,omitempty"`
	Mood          string   `json:"mood,omitempty"`
	Explicit      bool     `json:"explicit"`
	Language      string   `json:"language"`
	TargetRegions []string `json:"target_regions,omitempty"`
	ISRC          string   `json:"isrc,omitempty"`
	UPC           string   `json:"upc,omitempty"`
	Version       string   `json:"generator_version,omitempty"`
	BuildID       string   `json:"generator_build_id,omitempty"`
	GeneratedAt   string   `json:"generated_at"`
}

// SaveMetadata writes the release metadata document into the release
// directory. It runs on every configuration and always last, so the export
// reflects whatever the earlier steps resolved.
func SaveMetadata(logger *slog.Logger) pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:    "metadata",
		Enabled: func(*config.ReleaseConfig) bool { return true },
		Run: func(ctx context.Context, release *pipeline.Release) error {
			log := logging.WithContext(ctx, logger)

			cfg := release.Config
			doc := releaseMetadata{
				Artist:        cfg.Artist,
				Title:         cfg.Title,
				Genre:         cfg.Genre,
				BPM:           cfg.BPM,
				Key:           cfg.Key,
				Mood:          cfg.Mood,
				Explicit:      cfg.Explicit,
				Language:      cfg.Language,
				TargetRegions: cfg.TargetRegions,
				ISRC:          cfg.ISRC,
				UPC:           cfg.UPC,
				Version:       release.Version,
				BuildID:       release.BuildID,
				GeneratedAt:   time.Now().UTC().Format(time.RFC3339),
			}

			data, err := json.MarshalIndent(doc, "", "  ")
			if err != nil {
				return services.Wrap(nil, "metadata", "encode release metadata", "", err)
			}

			path := filepath.Join(release.ReleaseDir, release.BaseName()+" - Metadata.json")
			if err := fileops.WriteFile(path, data); err != nil {
				return services.Wrap(nil, "metadata", "write release metadata", path, err)
			}
			log.Info("saved release metadata", logging.String("file", filepath.Base(path)))
			return nil
		},
	}
}
