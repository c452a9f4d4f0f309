package steps_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"relpack/internal/logging"
	"relpack/internal/steps"
)

func TestOrganizeStems(t *testing.T) {
	release := testRelease(t)
	release.Config.OrganizeStems = true
	writeWAV(t, filepath.Join(release.Config.SourceStemsDir, "mix_Vocals_take3.wav"), 2, 44100, 16, 2)
	writeWAV(t, filepath.Join(release.Config.SourceStemsDir, "Drums final.wav"), 2, 44100, 16, 65)
	if err := os.WriteFile(filepath.Join(release.Config.SourceStemsDir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	step := steps.OrganizeStems(logging.NewNop())
	if !step.Enabled(release.Config) {
		t.Fatal("step should be enabled")
	}
	if err := step.Run(context.Background(), release); err != nil {
		t.Fatalf("Run: %v", err)
	}

	stemsDir := filepath.Join(release.ReleaseDir, steps.StemsDirName)
	for _, name := range []string{
		"Test Artist - Deep Dive - Vocals.wav",
		"Test Artist - Deep Dive - Drums.wav",
	} {
		if _, err := os.Stat(filepath.Join(stemsDir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	if len(release.StemFiles) != 2 {
		t.Fatalf("expected 2 stems recorded, got %v", release.StemFiles)
	}

	manifestPath := filepath.Join(stemsDir, "Test Artist - Deep Dive - Stems_Metadata.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var manifest struct {
		Track  string `json:"track"`
		Artist string `json:"artist"`
		Stems  []struct {
			Name     string `json:"name"`
			File     string `json:"file"`
			Duration string `json:"duration"`
		} `json:"stems"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatalf("parse manifest: %v", err)
	}
	if manifest.Track != "Deep Dive" || manifest.Artist != "Test Artist" {
		t.Fatalf("unexpected manifest identity %+v", manifest)
	}
	if len(manifest.Stems) != 2 {
		t.Fatalf("expected 2 manifest entries, got %+v", manifest.Stems)
	}
	if manifest.Stems[0].Name != "Vocals" || manifest.Stems[0].Duration != "0:02" {
		t.Fatalf("unexpected vocals entry %+v", manifest.Stems[0])
	}
	if manifest.Stems[1].Name != "Drums" || manifest.Stems[1].Duration != "1:05" {
		t.Fatalf("unexpected drums entry %+v", manifest.Stems[1])
	}
}

func TestOrganizeStemsNoMatches(t *testing.T) {
	release := testRelease(t)
	release.Config.OrganizeStems = true

	if err := steps.OrganizeStems(logging.NewNop()).Run(context.Background(), release); err != nil {
		t.Fatalf("Run: %v", err)
	}

	manifestPath := filepath.Join(release.ReleaseDir, steps.StemsDirName, "Test Artist - Deep Dive - Stems_Metadata.json")
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		t.Fatalf("manifest should exist even without stems: %v", err)
	}
	var manifest struct {
		Stems []any `json:"stems"`
	}
	if err := json.Unmarshal(data, &manifest); err != nil {
		t.Fatal(err)
	}
	if len(manifest.Stems) != 0 {
		t.Fatalf("expected empty stems list, got %v", manifest.Stems)
	}
}

func TestOrganizeStemsDisabledByDefault(t *testing.T) {
	release := testRelease(t)
	if steps.OrganizeStems(logging.NewNop()).Enabled(release.Config) {
		t.Fatal("stems step must be opt-in")
	}
}
