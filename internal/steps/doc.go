// Package steps implements the release-preparation steps executed by the
// pipeline runner: version extraction, audio renaming, stem organization,
// ID3 tagging, cover and compliance validation, and metadata export.
package steps
