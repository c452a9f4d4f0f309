package config

import "strings"

// artistPlaceholder is the token template fields substitute with the
// resolved artist name.
const artistPlaceholder = "{artist}"

// mergeDefaults applies the defaults document underneath the release
// document. Release fields always win; templates expand against the artist
// that survives the merge.
func mergeDefaults(cfg *ReleaseConfig, defaults Defaults, presence releasePresence) {
	if strings.TrimSpace(cfg.Artist) == "" {
		cfg.Artist = strings.TrimSpace(defaults.Artist)
	}
	releaseLanguage := presence.Language != nil && strings.TrimSpace(*presence.Language) != ""
	if !releaseLanguage {
		if lang := strings.TrimSpace(defaults.Language); lang != "" {
			cfg.Language = lang
		} else if strings.TrimSpace(cfg.Language) == "" {
			cfg.Language = defaultLanguage
		}
	}
	if strings.TrimSpace(cfg.ID3.Publisher) == "" {
		cfg.ID3.Publisher = strings.TrimSpace(defaults.Publisher)
	}
	if strings.TrimSpace(cfg.ID3.Composer) == "" {
		cfg.ID3.Composer = expandTemplate(defaults.ComposerTemplate, cfg.Artist)
	}
	if strings.TrimSpace(cfg.ID3.Copyright) == "" {
		cfg.ID3.Copyright = expandTemplate(defaults.CopyrightTemplate, cfg.Artist)
	}
	if strings.TrimSpace(cfg.ID3.TrackNumber) == "" {
		cfg.ID3.TrackNumber = defaultTrackNumber(defaults)
	}
}

func expandTemplate(template, artist string) string {
	template = strings.TrimSpace(template)
	if template == "" {
		return ""
	}
	return strings.ReplaceAll(template, artistPlaceholder, artist)
}

// defaultTrackNumber renders "N" for singles and "N/M" for multi-track
// defaults.
func defaultTrackNumber(defaults Defaults) string {
	track := strings.TrimSpace(defaults.TrackNumber)
	total := strings.TrimSpace(defaults.TotalTracks)
	if track == "" {
		return ""
	}
	if total == "" || total == "1" {
		return track
	}
	return track + "/" + total
}
