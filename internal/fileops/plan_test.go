package fileops_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"relpack/internal/fileops"
)

func TestPlanAppliesAllMoves(t *testing.T) {
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.wav")
	srcB := filepath.Join(dir, "b.wav")
	writeFixture(t, srcA, "aaa")
	writeFixture(t, srcB, "bbb")

	plan := &fileops.Plan{Moves: []fileops.Move{
		{Src: srcA, Dst: filepath.Join(dir, "out", "a.wav")},
		{Src: srcB, Dst: filepath.Join(dir, "out", "b.wav")},
	}}
	if err := plan.Apply(); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	for _, name := range []string{"a.wav", "b.wav"} {
		if _, err := os.Stat(filepath.Join(dir, "out", name)); err != nil {
			t.Fatalf("expected %s promoted: %v", name, err)
		}
	}
}

func TestPlanPartialFailureKeepsPriorPromotions(t *testing.T) {
	dir := t.TempDir()
	srcA := filepath.Join(dir, "a.wav")
	writeFixture(t, srcA, "aaa")

	plan := &fileops.Plan{Moves: []fileops.Move{
		{Src: srcA, Dst: filepath.Join(dir, "out", "a.wav")},
		{Src: filepath.Join(dir, "missing.wav"), Dst: filepath.Join(dir, "out", "b.wav")},
	}}

	err := plan.Apply()
	if err == nil {
		t.Fatal("expected plan failure")
	}
	var planErr *fileops.PlanError
	if !errors.As(err, &planErr) {
		t.Fatalf("expected PlanError, got %T: %v", err, err)
	}
	if planErr.Promoted != 1 || planErr.Total != 2 {
		t.Fatalf("expected 1/2 promoted, got %d/%d", planErr.Promoted, planErr.Total)
	}

	// Earlier promotion survives, failed destination never materializes.
	if _, statErr := os.Stat(filepath.Join(dir, "out", "a.wav")); statErr != nil {
		t.Fatalf("expected first move kept: %v", statErr)
	}
	if _, statErr := os.Stat(filepath.Join(dir, "out", "b.wav")); !os.IsNotExist(statErr) {
		t.Fatal("expected failed destination absent")
	}
}

func TestPlanStopsAtOverwriteGuard(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wav")
	dst := filepath.Join(dir, "out", "a.wav")
	writeFixture(t, src, "new")
	writeFixture(t, dst, "old")

	plan := &fileops.Plan{Moves: []fileops.Move{{Src: src, Dst: dst}}}
	err := plan.Apply()
	var exists *fileops.DestinationExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected DestinationExistsError through plan, got %v", err)
	}
	got, _ := os.ReadFile(dst)
	if string(got) != "old" {
		t.Fatalf("destination modified: %q", got)
	}
}
