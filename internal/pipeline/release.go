package pipeline

import (
	"relpack/internal/config"
)

// Release is the mutable run state handed to every step. The runner fills
// the identity fields before the first step executes; steps publish the
// artifacts they produce so later steps can consume them.
type Release struct {
	Config *config.ReleaseConfig

	// RunID identifies this workflow invocation in logs and history.
	RunID string

	// Artist and Title are the sanitized forms used for every produced
	// file name. The raw values stay on Config.
	Artist string
	Title  string

	// ReleaseDir is the absolute output directory for this release.
	ReleaseDir string

	// Version and BuildID are extracted from the track URL when present.
	Version string
	BuildID string

	// AudioFiles lists renamed master audio files, StemFiles the organized
	// stems, both as absolute destination paths.
	AudioFiles []string
	StemFiles  []string

	// CoverPath is the validated cover art destination, empty until the
	// cover step runs.
	CoverPath string
}

// BaseName returns the "Artist - Title" stem shared by every produced file.
func (r *Release) BaseName() string {
	return r.Artist + " - " + r.Title
}
