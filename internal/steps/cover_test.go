package steps_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relpack/internal/logging"
	"relpack/internal/services"
	"relpack/internal/steps"
)

func TestValidateCoverPassesCanonicalFile(t *testing.T) {
	release := testRelease(t)
	cover := filepath.Join(release.ReleaseDir, steps.CoverDirName, "Test Artist - Deep Dive - Cover.png")
	writePNG(t, cover, 3000, 3000)

	if err := steps.ValidateCover(logging.NewNop()).Run(context.Background(), release); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if release.CoverPath != cover {
		t.Fatalf("expected cover path recorded, got %q", release.CoverPath)
	}
}

func TestValidateCoverAdoptsLooseImage(t *testing.T) {
	release := testRelease(t)
	loose := filepath.Join(release.ReleaseDir, steps.CoverDirName, "artwork_final.png")
	writePNG(t, loose, 3000, 3000)

	if err := steps.ValidateCover(logging.NewNop()).Run(context.Background(), release); err != nil {
		t.Fatalf("Run: %v", err)
	}

	canonical := filepath.Join(release.ReleaseDir, steps.CoverDirName, "Test Artist - Deep Dive - Cover.png")
	if _, err := os.Stat(canonical); err != nil {
		t.Fatalf("expected loose image renamed to canonical name: %v", err)
	}
	if _, err := os.Stat(loose); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("loose file should be gone, stat: %v", err)
	}
	if release.CoverPath != canonical {
		t.Fatalf("expected canonical cover path, got %q", release.CoverPath)
	}
}

func TestValidateCoverWrongDimensions(t *testing.T) {
	release := testRelease(t)
	writePNG(t, filepath.Join(release.ReleaseDir, steps.CoverDirName, "Test Artist - Deep Dive - Cover.png"), 1000, 1000)

	err := steps.ValidateCover(logging.NewNop()).Run(context.Background(), release)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if !strings.Contains(err.Error(), "3000x3000") {
		t.Fatalf("expected dimension detail in %q", err.Error())
	}
}

func TestValidateCoverMissingIsWarning(t *testing.T) {
	release := testRelease(t)
	if err := steps.ValidateCover(logging.NewNop()).Run(context.Background(), release); err != nil {
		t.Fatalf("missing cover should only warn: %v", err)
	}
	if release.CoverPath != "" {
		t.Fatalf("no cover path expected, got %q", release.CoverPath)
	}
}

func TestInspectCoverRejectsNonSquare(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	writePNG(t, path, 3000, 2000)

	report, err := steps.InspectCover(path)
	if err != nil {
		t.Fatalf("InspectCover: %v", err)
	}
	if report.Valid() {
		t.Fatalf("non-square cover must fail, report %+v", report)
	}
	joined := strings.Join(report.Errors, "; ")
	if !strings.Contains(joined, "square") {
		t.Fatalf("expected square finding in %q", joined)
	}
}
