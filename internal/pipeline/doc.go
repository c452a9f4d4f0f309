// Package pipeline runs ordered release-preparation steps with policy-based
// failure handling and a workflow lock around the release directory.
package pipeline
