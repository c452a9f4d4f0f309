package steps

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	"relpack/internal/config"
	"relpack/internal/fileops"
	"relpack/internal/logging"
	"relpack/internal/pipeline"
	"relpack/internal/services"
)

var audioPatterns = []string{"*.wav", "*.mp3"}

// RenameAudio copies every master audio file from the source directory into
// the release's Audio subdirectory under the "Artist - Title" naming scheme.
func RenameAudio(logger *slog.Logger) pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:      "rename",
		Enabled:   func(cfg *config.ReleaseConfig) bool { return cfg.RenameAudio },
		Retryable: true,
		Run: func(ctx context.Context, release *pipeline.Release) error {
			log := logging.WithContext(ctx, logger)

			source := release.Config.SourceAudioDir
			if _, err := os.Stat(source); err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return services.Wrap(services.ErrNotFound, "rename", "locate source audio",
						"source directory not found: "+source, nil)
				}
				return services.Wrap(nil, "rename", "locate source audio", source, err)
			}

			files, err := globAudioFiles(source)
			if err != nil {
				return services.Wrap(nil, "rename", "scan source audio", source, err)
			}
			if len(files) == 0 {
				log.Warn("no audio files found in source directory",
					logging.String("source_dir", source))
				return nil
			}

			dest := audioDir(release)
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return services.Wrap(nil, "rename", "create audio directory", dest, err)
			}

			for _, file := range files {
				target := filepath.Join(dest, release.BaseName()+filepath.Ext(file))
				if err := fileops.CopyInto(file, target, release.Config.OverwriteExisting); err != nil {
					return services.Wrap(nil, "rename", "copy audio file", filepath.Base(file), err)
				}
				release.AudioFiles = append(release.AudioFiles, target)
				log.Info("renamed audio file",
					logging.String("source", filepath.Base(file)),
					logging.String("destination", filepath.Base(target)))
			}
			return nil
		},
	}
}

func globAudioFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range audioPatterns {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}
