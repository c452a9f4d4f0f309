package worklock

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"relpack/internal/services"
)

// MarkerName is the lock marker file created inside the guarded directory.
const MarkerName = ".workflow.lock"

// StaleAfter is the age past which a marker is presumed abandoned.
const StaleAfter = time.Hour

// Handle represents exclusive ownership of an output directory. It must be
// released exactly once per acquisition; Release is safe to call again.
type Handle struct {
	dir        string
	path       string
	pid        int
	acquiredAt time.Time
	released   bool
}

// Dir returns the guarded directory.
func (h *Handle) Dir() string { return h.dir }

// Path returns the marker file path.
func (h *Handle) Path() string { return h.path }

// AcquiredAt returns the acquisition timestamp.
func (h *Handle) AcquiredAt() time.Time { return h.acquiredAt }

// HeldError reports that another run owns the directory.
type HeldError struct {
	Dir        string
	MarkerPath string
	OwnerPID   int
	AcquiredAt time.Time
}

func (e *HeldError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "workflow already in progress for %s", e.Dir)
	if e.OwnerPID > 0 {
		fmt.Fprintf(&b, " (pid %d", e.OwnerPID)
		if !e.AcquiredAt.IsZero() {
			fmt.Fprintf(&b, ", since %s", e.AcquiredAt.Format(time.RFC3339))
		}
		b.WriteString(")")
	}
	fmt.Fprintf(&b, "; if no run is active, remove %s", e.MarkerPath)
	return b.String()
}

func (e *HeldError) Is(target error) bool { return target == services.ErrLockHeld }

// Acquire takes the workflow lock for dir, creating the directory if needed.
// A fresh marker fails with *HeldError; a marker older than StaleAfter is
// removed and acquisition retried exactly once.
func Acquire(dir string) (*Handle, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory %q: %w", dir, err)
	}
	markerPath := filepath.Join(dir, MarkerName)

	handle, err := tryCreate(dir, markerPath)
	if err == nil {
		return handle, nil
	}
	if !errors.Is(err, fs.ErrExist) {
		return nil, fmt.Errorf("create lock marker: %w", err)
	}

	info, statErr := os.Stat(markerPath)
	if statErr == nil && time.Since(info.ModTime()) > StaleAfter {
		// Removal can still race with another reclaimer; the retried O_EXCL
		// create below decides the winner.
		_ = os.Remove(markerPath)
		handle, err = tryCreate(dir, markerPath)
		if err == nil {
			return handle, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return nil, fmt.Errorf("create lock marker: %w", err)
		}
	}

	held := &HeldError{Dir: dir, MarkerPath: markerPath}
	held.OwnerPID, held.AcquiredAt = readMarker(markerPath)
	return nil, held
}

// Release removes the lock marker. It is idempotent and ignores an already
// missing marker so crash-cleanup paths can call it unconditionally.
func (h *Handle) Release() error {
	if h == nil || h.released {
		return nil
	}
	h.released = true
	if err := os.Remove(h.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove lock marker: %w", err)
	}
	return nil
}

func tryCreate(dir, markerPath string) (*Handle, error) {
	file, err := os.OpenFile(markerPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	pid := os.Getpid()
	_, writeErr := fmt.Fprintf(file, "pid=%d\nacquired=%s\n", pid, now.Format(time.RFC3339))
	closeErr := file.Close()
	if writeErr != nil || closeErr != nil {
		_ = os.Remove(markerPath)
		if writeErr != nil {
			return nil, fmt.Errorf("write lock marker: %w", writeErr)
		}
		return nil, fmt.Errorf("close lock marker: %w", closeErr)
	}
	return &Handle{dir: dir, path: markerPath, pid: pid, acquiredAt: now}, nil
}

func readMarker(path string) (pid int, acquired time.Time) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, time.Time{}
	}
	for _, line := range strings.Split(string(data), "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		switch key {
		case "pid":
			if v, err := strconv.Atoi(value); err == nil {
				pid = v
			}
		case "acquired":
			if v, err := time.Parse(time.RFC3339, value); err == nil {
				acquired = v
			}
		}
	}
	return pid, acquired
}
