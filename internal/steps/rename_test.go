package steps_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"relpack/internal/logging"
	"relpack/internal/services"
	"relpack/internal/steps"
)

func TestRenameAudioCopiesAndRenames(t *testing.T) {
	release := testRelease(t)
	writeWAV(t, filepath.Join(release.Config.SourceAudioDir, "export_01.wav"), 2, 44100, 16, 1)
	if err := os.WriteFile(filepath.Join(release.Config.SourceAudioDir, "mixdown.mp3"), []byte("mp3data"), 0o644); err != nil {
		t.Fatal(err)
	}

	step := steps.RenameAudio(logging.NewNop())
	if err := step.Run(context.Background(), release); err != nil {
		t.Fatalf("Run: %v", err)
	}

	audioDir := filepath.Join(release.ReleaseDir, steps.AudioDirName)
	for _, name := range []string{"Test Artist - Deep Dive.wav", "Test Artist - Deep Dive.mp3"} {
		if _, err := os.Stat(filepath.Join(audioDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if len(release.AudioFiles) != 2 {
		t.Fatalf("expected 2 audio files recorded, got %v", release.AudioFiles)
	}
}

func TestRenameAudioExistingDestination(t *testing.T) {
	release := testRelease(t)
	if err := os.WriteFile(filepath.Join(release.Config.SourceAudioDir, "track.mp3"), []byte("new"), 0o644); err != nil {
		t.Fatal(err)
	}
	audioDir := filepath.Join(release.ReleaseDir, steps.AudioDirName)
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		t.Fatal(err)
	}
	existing := filepath.Join(audioDir, "Test Artist - Deep Dive.mp3")
	if err := os.WriteFile(existing, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	step := steps.RenameAudio(logging.NewNop())
	err := step.Run(context.Background(), release)
	if !errors.Is(err, services.ErrExists) {
		t.Fatalf("expected exists error, got %v", err)
	}
	data, readErr := os.ReadFile(existing)
	if readErr != nil || string(data) != "old" {
		t.Fatalf("existing file must be untouched, got %q (%v)", data, readErr)
	}

	release.Config.OverwriteExisting = true
	if err := step.Run(context.Background(), release); err != nil {
		t.Fatalf("overwrite run: %v", err)
	}
	data, readErr = os.ReadFile(existing)
	if readErr != nil || string(data) != "new" {
		t.Fatalf("expected overwritten content, got %q (%v)", data, readErr)
	}
}

func TestRenameAudioMissingSourceDir(t *testing.T) {
	release := testRelease(t)
	release.Config.SourceAudioDir = filepath.Join(t.TempDir(), "absent")

	err := steps.RenameAudio(logging.NewNop()).Run(context.Background(), release)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestRenameAudioEmptySourceIsWarning(t *testing.T) {
	release := testRelease(t)
	if err := steps.RenameAudio(logging.NewNop()).Run(context.Background(), release); err != nil {
		t.Fatalf("empty source should only warn: %v", err)
	}
	if len(release.AudioFiles) != 0 {
		t.Fatalf("no audio files expected, got %v", release.AudioFiles)
	}
}
