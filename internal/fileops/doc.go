// Package fileops performs the filesystem mutations of a release workflow
// with per-file atomicity.
//
// Every destination is written to a temporary sibling in its final directory
// and then promoted with a single rename, so no observer ever sees a
// partially written file. Multi-file plans promote files independently; an
// earlier success is not rolled back when a later move fails (the typed plan
// error reports how far the plan got).
package fileops
