package config

const (
	defaultSourceAudioDir = "runtime/input"
	defaultSourceStemsDir = "runtime/input/stems"
	defaultMaxRetries     = 3
	defaultLanguage       = "English"
)

// Default returns a ReleaseConfig populated with repository defaults. The
// release document decodes over this, so only fields it mentions change.
func Default() ReleaseConfig {
	return ReleaseConfig{
		SourceAudioDir:     defaultSourceAudioDir,
		SourceStemsDir:     defaultSourceStemsDir,
		Language:           defaultLanguage,
		RenameAudio:        true,
		TagAudio:           true,
		ValidateCover:      true,
		ValidateCompliance: true,
		StrictValidation:   true,
		MaxRetries:         defaultMaxRetries,
	}
}
