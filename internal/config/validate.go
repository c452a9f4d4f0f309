package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"relpack/internal/services"
)

const (
	minBPM = 1
	maxBPM = 300
)

var trackNumberPattern = regexp.MustCompile(`^(\d+)(?:/(\d+))?$`)

// Violation is one schema check failure.
type Violation struct {
	Field   string
	Message string
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s", v.Field, v.Message)
}

// ValidationError aggregates every violation found in one pass so users fix
// them in one round trip.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		parts = append(parts, v.String())
	}
	return "configuration validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool { return target == services.ErrConfiguration }

// Validate checks the resolved configuration against the release schema and
// returns a *ValidationError listing every violation, or nil when clean.
// Callers in lenient mode log the violations instead of aborting.
func (c *ReleaseConfig) Validate() error {
	var violations []Violation
	add := func(field, format string, args ...any) {
		violations = append(violations, Violation{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Artist) == "" {
		add("artist", "required field is missing or empty")
	}
	if strings.TrimSpace(c.Title) == "" {
		add("title", "required field is missing or empty")
	}

	if c.BPM != 0 && (c.BPM < minBPM || c.BPM > maxBPM) {
		add("bpm", "must be between %d and %d, got %d", minBPM, maxBPM, c.BPM)
	}
	if c.MaxRetries < 1 {
		add("max_retries", "must be at least 1, got %d", c.MaxRetries)
	}

	if track := strings.TrimSpace(c.ID3.TrackNumber); track != "" {
		if err := validateTrackNumber(track); err != nil {
			add("id3_metadata.tracknumber", "%s", err)
		}
	}

	return asValidationError(violations)
}

// Warnings reports non-fatal findings: characters the sanitizer will rewrite
// and a missing source directory falling back to the default.
func (c *ReleaseConfig) Warnings() []string {
	var warnings []string
	for field, value := range map[string]string{"artist": c.Artist, "title": c.Title} {
		if strings.ContainsAny(value, `<>:"/\|?*`) {
			warnings = append(warnings,
				fmt.Sprintf("%s contains characters that will be replaced with '_'", field))
		}
	}
	return warnings
}

func validateTrackNumber(value string) error {
	match := trackNumberPattern.FindStringSubmatch(value)
	if match == nil {
		return fmt.Errorf("must be 'N' or 'N/M', got %q", value)
	}
	n, err := strconv.Atoi(match[1])
	if err != nil || n < 1 {
		return fmt.Errorf("track number must be at least 1, got %q", value)
	}
	if match[2] != "" {
		m, err := strconv.Atoi(match[2])
		if err != nil || m < n {
			return fmt.Errorf("total tracks must be at least the track number, got %q", value)
		}
	}
	return nil
}

func asValidationError(violations []Violation) error {
	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
