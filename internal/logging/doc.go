// Package logging builds the slog loggers used across relpack and provides
// attribute helpers plus context-aware derivation so step and run identity
// stays attached to every record.
package logging
