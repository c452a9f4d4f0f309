// Package services defines shared helpers consumed by the pipeline runner and
// the step collaborators.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that tag failures for
//     consistent classification (fatal vs retryable vs overwrite-guard).
//   - Context helpers that stamp run IDs and step names for logging.
//
// Use these helpers when wiring new step logic so operational behaviour
// (error handling, retry eligibility, observability) stays uniform across the
// pipeline.
package services
