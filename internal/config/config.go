package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"relpack/internal/services"
)

//go:embed sample_release.toml
var sampleRelease string

// ID3Metadata is the nested tag block of a release document.
type ID3Metadata struct {
	Album       string `toml:"album"`
	Year        string `toml:"year"`
	Composer    string `toml:"composer"`
	Publisher   string `toml:"publisher"`
	TrackNumber string `toml:"tracknumber"`
	Comment     string `toml:"comment"`
	Copyright   string `toml:"copyright"`
}

// ReleaseConfig is the resolved, validated per-run configuration. It is
// created once by Load and treated as immutable for the rest of the run.
type ReleaseConfig struct {
	Artist string `toml:"artist"`
	Title  string `toml:"title"`

	ReleaseDir        string `toml:"release_dir"`
	SourceAudioDir    string `toml:"source_audio_dir"`
	SourceStemsDir    string `toml:"source_stems_dir"`
	TrackURL          string `toml:"track_url"`
	TrackMetadataFile string `toml:"track_metadata_file"`

	Genre         string   `toml:"genre"`
	BPM           int      `toml:"bpm"`
	Key           string   `toml:"key"`
	Mood          string   `toml:"mood"`
	Language      string   `toml:"language"`
	Explicit      bool     `toml:"explicit"`
	ISRC          string   `toml:"isrc"`
	UPC           string   `toml:"upc"`
	TargetRegions []string `toml:"target_regions"`

	RenameAudio        bool `toml:"rename_audio"`
	OrganizeStems      bool `toml:"organize_stems"`
	TagStems           bool `toml:"tag_stems"`
	TagAudio           bool `toml:"tag_audio"`
	ValidateCover      bool `toml:"validate_cover"`
	ValidateCompliance bool `toml:"validate_compliance"`
	AutoFixClipping    bool `toml:"auto_fix_clipping"`

	OverwriteExisting bool `toml:"overwrite_existing"`
	StrictMode        bool `toml:"strict_mode"`
	StrictValidation  bool `toml:"strict_validation"`
	Debug             bool `toml:"debug"`
	MaxRetries        int  `toml:"max_retries"`

	ID3 ID3Metadata `toml:"id3_metadata"`
}

// releasePresence records which fields the release document actually set.
// The resolved config decodes over Default(), so a field whose explicit
// value equals the built-in default is indistinguishable from an absent one
// without this second pass.
type releasePresence struct {
	Language *string `toml:"language"`
}

// Defaults is the optional artist defaults document. Its fields only feed
// the merge; none of them appear on the resolved ReleaseConfig directly.
type Defaults struct {
	Artist            string `toml:"default_artist"`
	Publisher         string `toml:"default_publisher"`
	ComposerTemplate  string `toml:"default_composer_template"`
	CopyrightTemplate string `toml:"default_copyright_template"`
	TrackNumber       string `toml:"default_track_number"`
	TotalTracks       string `toml:"default_total_tracks"`
	Language          string `toml:"default_language"`
}

// Load reads, merges, and normalizes the defaults and release documents.
// defaultsPath may be empty or point at a missing file; releasePath must
// exist. The result is not yet validated: callers choose strict or lenient
// validation via Validate.
func Load(defaultsPath, releasePath string) (*ReleaseConfig, error) {
	defaults, err := loadDefaults(defaultsPath)
	if err != nil {
		return nil, err
	}

	cfg := Default()
	if err := decodeInto(releasePath, &cfg, true); err != nil {
		return nil, err
	}

	var presence releasePresence
	if err := decodeInto(releasePath, &presence, true); err != nil {
		return nil, err
	}

	mergeDefaults(&cfg, defaults, presence)

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func loadDefaults(path string) (Defaults, error) {
	var defaults Defaults
	if strings.TrimSpace(path) == "" {
		return defaults, nil
	}
	expanded, err := ExpandPath(path)
	if err != nil {
		return defaults, err
	}
	if _, statErr := os.Stat(expanded); statErr != nil {
		if errors.Is(statErr, fs.ErrNotExist) {
			return defaults, nil
		}
		return defaults, fmt.Errorf("stat defaults document: %w", statErr)
	}
	if err := decodeInto(expanded, &defaults, false); err != nil {
		return Defaults{}, err
	}
	return defaults, nil
}

func decodeInto(path string, target any, required bool) error {
	file, err := os.Open(path)
	if err != nil {
		if required {
			return services.Wrap(services.ErrConfiguration, "", "open config", path, err)
		}
		return fmt.Errorf("open config %s: %w", path, err)
	}
	defer file.Close()

	if err := toml.NewDecoder(file).Decode(target); err != nil {
		var decodeErr *toml.DecodeError
		if errors.As(err, &decodeErr) {
			row, col := decodeErr.Position()
			return services.Wrap(services.ErrConfiguration, "", "parse config",
				fmt.Sprintf("%s:%d:%d: %s", path, row, col, decodeErr.Error()), nil)
		}
		return services.Wrap(services.ErrConfiguration, "", "parse config", path, err)
	}
	return nil
}

func (c *ReleaseConfig) normalize() error {
	c.Artist = strings.TrimSpace(c.Artist)
	c.Title = strings.TrimSpace(c.Title)

	for name, field := range map[string]*string{
		"release_dir":      &c.ReleaseDir,
		"source_audio_dir": &c.SourceAudioDir,
		"source_stems_dir": &c.SourceStemsDir,
	} {
		value := strings.TrimSpace(*field)
		if value == "" {
			continue
		}
		if containsTraversal(value) {
			return services.Wrap(services.ErrConfiguration, "", "normalize",
				fmt.Sprintf("%s: path traversal not allowed: %s", name, value), nil)
		}
		expanded, err := ExpandPath(value)
		if err != nil {
			return services.Wrap(services.ErrConfiguration, "", "normalize", name, err)
		}
		*field = expanded
	}
	return nil
}

func containsTraversal(path string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == ".." {
			return true
		}
	}
	return false
}

// ExpandPath resolves a leading ~ and returns a cleaned absolute path.
func ExpandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	absolute, err := filepath.Abs(filepath.Clean(pathValue))
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", pathValue, err)
	}
	return absolute, nil
}

// ResolvedReleaseDir returns the configured release directory or the default
// location derived from the sanitized title.
func (c *ReleaseConfig) ResolvedReleaseDir(sanitizedTitle string) string {
	if strings.TrimSpace(c.ReleaseDir) != "" {
		return c.ReleaseDir
	}
	return filepath.Join("runtime", "output", sanitizedTitle)
}

// CreateSample writes a sample release document to path.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleRelease), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
