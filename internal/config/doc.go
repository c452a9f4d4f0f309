// Package config resolves the per-run release configuration from two layered
// TOML documents: an optional artist defaults document and the release
// document given on the command line. Release fields always win; a small set
// of default-only template fields are expanded against the resolved artist.
// The resolved configuration is validated once and never mutated afterwards.
package config
