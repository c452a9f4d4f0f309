package steps

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"relpack/internal/config"
	"relpack/internal/logging"
	"relpack/internal/pipeline"
	"relpack/internal/services"
)

var trackIDPattern = regexp.MustCompile(`/song/([a-zA-Z0-9_-]+)`)

// VersionInfo is what the generator exposes about a track: the track id from
// the URL path plus version and build id query parameters.
type VersionInfo struct {
	TrackID string
	Version string
	BuildID string
}

// ParseTrackURL extracts generator version details from a track URL.
func ParseTrackURL(raw string) (VersionInfo, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return VersionInfo{}, services.Wrap(services.ErrValidation, "version", "parse track url", raw, err)
	}
	info := VersionInfo{
		Version: parsed.Query().Get("v"),
		BuildID: parsed.Query().Get("build"),
	}
	if match := trackIDPattern.FindStringSubmatch(parsed.Path); match != nil {
		info.TrackID = match[1]
	}
	return info, nil
}

type trackMetadataDocument struct {
	Version      string `json:"version"`
	BuildID      string `json:"build_id"`
	ID           string `json:"id"`
	CreatedAt    string `json:"created_at"`
	ModelVersion string `json:"model_version"`
}

// ReadTrackMetadata extracts version details from a saved generator metadata
// document. The build id falls back to the document id when absent.
func ReadTrackMetadata(path string) (VersionInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return VersionInfo{}, services.Wrap(services.ErrNotFound, "version", "read track metadata", path, err)
	}
	var doc trackMetadataDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return VersionInfo{}, services.Wrap(services.ErrValidation, "version", "parse track metadata", path, err)
	}
	info := VersionInfo{Version: doc.Version, BuildID: doc.BuildID}
	if info.BuildID == "" {
		info.BuildID = doc.ID
	}
	return info, nil
}

// ExtractVersion resolves generator version information from the track URL
// or, failing that, the saved metadata document, and publishes it on the
// release for the tagging and metadata steps.
func ExtractVersion(logger *slog.Logger) pipeline.Descriptor {
	return pipeline.Descriptor{
		Name: "version",
		Enabled: func(cfg *config.ReleaseConfig) bool {
			return strings.TrimSpace(cfg.TrackURL) != "" || strings.TrimSpace(cfg.TrackMetadataFile) != ""
		},
		Run: func(ctx context.Context, release *pipeline.Release) error {
			log := logging.WithContext(ctx, logger)

			var info VersionInfo
			var err error
			switch {
			case strings.TrimSpace(release.Config.TrackURL) != "":
				info, err = ParseTrackURL(release.Config.TrackURL)
			default:
				info, err = ReadTrackMetadata(release.Config.TrackMetadataFile)
			}
			if err != nil {
				return err
			}

			release.Version = info.Version
			release.BuildID = info.BuildID
			log.Info("extracted generator version",
				logging.String("track_id", info.TrackID),
				logging.String("version", info.Version),
				logging.String("build_id", info.BuildID))
			return nil
		},
	}
}
