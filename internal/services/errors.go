package services

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrValidation    = errors.New("validation error")
	ErrLockHeld      = errors.New("lock held")
	ErrExists        = errors.New("destination exists")
	ErrTransient     = errors.New("transient failure")
	ErrExternalTool  = errors.New("external tool error")
	ErrNotFound      = errors.New("not found")
)

// Wrap builds an error message that includes step context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, step, operation, message string, err error) error {
	detail := buildDetail(step, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsTransient reports whether err should be handed to the retry policy.
// Marker-tagged transient failures qualify, as do raw filesystem errors that
// typically clear on their own. Validation and configuration failures never
// qualify, even when a syscall error sits somewhere in the chain.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrValidation) || errors.Is(err, ErrConfiguration) ||
		errors.Is(err, ErrLockHeld) || errors.Is(err, ErrExists) {
		return false
	}
	if errors.Is(err, ErrTransient) {
		return true
	}
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		switch {
		case errors.Is(pathErr.Err, syscall.EAGAIN),
			errors.Is(pathErr.Err, syscall.EBUSY),
			errors.Is(pathErr.Err, syscall.EINTR),
			errors.Is(pathErr.Err, syscall.EIO):
			return true
		}
	}
	return false
}

// IsFatal reports whether err must abort the run before or regardless of the
// per-step policy: configuration and lock contention failures.
func IsFatal(err error) bool {
	return errors.Is(err, ErrConfiguration) || errors.Is(err, ErrLockHeld)
}

func buildDetail(step, operation, message string) string {
	parts := make([]string, 0, 3)
	if step = strings.TrimSpace(step); step != "" {
		parts = append(parts, step)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
