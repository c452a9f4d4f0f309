package steps

import (
	"log/slog"
	"path/filepath"

	"relpack/internal/pipeline"
)

// Subdirectory names inside the release directory.
const (
	AudioDirName = "Audio"
	StemsDirName = "Stems"
	CoverDirName = "Cover"
)

// Defaults returns the full workflow step list in execution order. Each
// step gates itself on the resolved configuration.
func Defaults(logger *slog.Logger) []pipeline.Descriptor {
	return []pipeline.Descriptor{
		ExtractVersion(logger),
		RenameAudio(logger),
		OrganizeStems(logger),
		TagStems(logger),
		TagAudio(logger),
		ValidateCover(logger),
		ValidateCompliance(logger),
		SaveMetadata(logger),
	}
}

func audioDir(release *pipeline.Release) string {
	return filepath.Join(release.ReleaseDir, AudioDirName)
}

func stemsDir(release *pipeline.Release) string {
	return filepath.Join(release.ReleaseDir, StemsDirName)
}

func coverDir(release *pipeline.Release) string {
	return filepath.Join(release.ReleaseDir, CoverDirName)
}
