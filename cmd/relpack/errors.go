package main

import (
	"strings"
)

// formatError renders a command failure for the terminal. Debug mode expands
// the wrap chain one cause per line; otherwise only the outermost message is
// shown, with a hint for getting the rest.
func formatError(err error, debug bool) string {
	if !debug {
		return "Error: " + conciseMessage(err) + "\nRun with --debug for the full error chain."
	}

	var b strings.Builder
	b.WriteString("Error: ")
	b.WriteString(err.Error())
	for current := deepestCause(err); current != nil; current = deepestCause(current) {
		b.WriteString("\n  caused by: ")
		b.WriteString(current.Error())
	}
	return b.String()
}

// conciseMessage strips the underlying cause text from a wrapped error,
// leaving the classification and operation detail.
func conciseMessage(err error) string {
	msg := err.Error()
	if cause := deepestCause(err); cause != nil {
		msg = strings.TrimSuffix(msg, ": "+cause.Error())
	}
	return msg
}

// deepestCause returns the underlying cause of err, following both single
// and joined wrap forms. Joined errors keep the classification marker first
// and the real cause last.
func deepestCause(err error) error {
	switch v := err.(type) {
	case interface{ Unwrap() []error }:
		causes := v.Unwrap()
		if len(causes) == 0 {
			return nil
		}
		return causes[len(causes)-1]
	case interface{ Unwrap() error }:
		return v.Unwrap()
	}
	return nil
}
