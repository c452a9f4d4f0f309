package worklock_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"relpack/internal/services"
	"relpack/internal/worklock"
)

func TestAcquireCreatesMarkerWithOwnerInfo(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "release")

	handle, err := worklock.Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	defer handle.Release()

	data, err := os.ReadFile(filepath.Join(dir, worklock.MarkerName))
	if err != nil {
		t.Fatalf("read marker: %v", err)
	}
	if !strings.Contains(string(data), "pid=") || !strings.Contains(string(data), "acquired=") {
		t.Fatalf("marker missing owner info: %q", data)
	}
	if handle.Dir() != dir {
		t.Fatalf("unexpected handle dir %q", handle.Dir())
	}
}

func TestAcquireFreshMarkerFails(t *testing.T) {
	dir := t.TempDir()

	first, err := worklock.Acquire(dir)
	if err != nil {
		t.Fatalf("first Acquire: %v", err)
	}
	defer first.Release()

	_, err = worklock.Acquire(dir)
	if err == nil {
		t.Fatal("expected second Acquire to fail")
	}
	var held *worklock.HeldError
	if !errors.As(err, &held) {
		t.Fatalf("expected HeldError, got %T: %v", err, err)
	}
	if !errors.Is(err, services.ErrLockHeld) {
		t.Fatalf("expected lock-held classification, got %v", err)
	}
	if held.Dir != dir {
		t.Fatalf("expected dir %q in error, got %q", dir, held.Dir)
	}
	if held.OwnerPID != os.Getpid() {
		t.Fatalf("expected owner pid %d, got %d", os.Getpid(), held.OwnerPID)
	}
	if !strings.Contains(err.Error(), worklock.MarkerName) {
		t.Fatalf("expected stale-marker hint in %q", err.Error())
	}
}

func TestAcquireReclaimsStaleMarker(t *testing.T) {
	dir := t.TempDir()
	marker := filepath.Join(dir, worklock.MarkerName)
	if err := os.WriteFile(marker, []byte("pid=99999\nacquired=2020-01-01T00:00:00Z\n"), 0o644); err != nil {
		t.Fatalf("write marker: %v", err)
	}
	old := time.Now().Add(-2 * time.Hour)
	if err := os.Chtimes(marker, old, old); err != nil {
		t.Fatalf("age marker: %v", err)
	}

	handle, err := worklock.Acquire(dir)
	if err != nil {
		t.Fatalf("expected stale marker to be reclaimed: %v", err)
	}
	defer handle.Release()

	data, err := os.ReadFile(marker)
	if err != nil {
		t.Fatalf("read replaced marker: %v", err)
	}
	if strings.Contains(string(data), "pid=99999") {
		t.Fatal("expected marker to be replaced with new owner")
	}
}

func TestReleaseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	handle, err := worklock.Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire: %v", err)
	}
	if err := handle.Release(); err != nil {
		t.Fatalf("first Release: %v", err)
	}
	if err := handle.Release(); err != nil {
		t.Fatalf("second Release: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, worklock.MarkerName)); !os.IsNotExist(err) {
		t.Fatal("expected marker removed")
	}

	// Released directory can be acquired again.
	again, err := worklock.Acquire(dir)
	if err != nil {
		t.Fatalf("re-Acquire: %v", err)
	}
	defer again.Release()
}

func TestConcurrentAcquireExactlyOneWins(t *testing.T) {
	dir := t.TempDir()

	const contenders = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	var winners []*worklock.Handle
	var losses int

	for i := 0; i < contenders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			handle, err := worklock.Acquire(dir)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !errors.Is(err, services.ErrLockHeld) {
					t.Errorf("unexpected acquire error: %v", err)
				}
				losses++
				return
			}
			winners = append(winners, handle)
		}()
	}
	wg.Wait()

	if len(winners) != 1 {
		t.Fatalf("expected exactly one winner, got %d (losses %d)", len(winners), losses)
	}
	if losses != contenders-1 {
		t.Fatalf("expected %d losers, got %d", contenders-1, losses)
	}
	if err := winners[0].Release(); err != nil {
		t.Fatalf("Release: %v", err)
	}
}
