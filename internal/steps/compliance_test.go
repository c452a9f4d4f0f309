package steps_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relpack/internal/logging"
	"relpack/internal/steps"
)

func TestInspectAudioValidWAV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.wav")
	writeWAV(t, path, 2, 44100, 16, 2)

	report := steps.InspectAudio(context.Background(), path)
	if !report.Valid() {
		t.Fatalf("expected valid report, errors: %v", report.Errors)
	}
	if report.Channels != 2 || report.SampleRate != 44100 || report.BitDepth != 16 {
		t.Fatalf("unexpected format %+v", report)
	}
}

func TestInspectAudioTooShort(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blip.wav")
	writeWAV(t, path, 2, 44100, 16, 0.4)

	report := steps.InspectAudio(context.Background(), path)
	if report.Valid() {
		t.Fatal("sub-second audio must fail")
	}
	if !strings.Contains(strings.Join(report.Errors, "; "), "duration too short") {
		t.Fatalf("expected duration finding, got %v", report.Errors)
	}
}

func TestInspectAudioUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "track.ogg")
	if err := os.WriteFile(path, []byte("oggdata"), 0o644); err != nil {
		t.Fatal(err)
	}

	report := steps.InspectAudio(context.Background(), path)
	if report.Valid() {
		t.Fatal("unsupported format must fail")
	}
	if !strings.Contains(strings.Join(report.Errors, "; "), "invalid format") {
		t.Fatalf("expected format finding, got %v", report.Errors)
	}
}

func TestInspectAudioOddFormatsWarn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mono.wav")
	writeWAV(t, path, 1, 22050, 8, 2)

	report := steps.InspectAudio(context.Background(), path)
	joined := strings.Join(report.Warnings, "; ")
	for _, want := range []string{"channels: 1", "bit depth 8-bit", "sample rate 22050Hz"} {
		if !strings.Contains(joined, want) {
			t.Errorf("expected warning %q in %q", want, joined)
		}
	}
}

func TestInspectAudioMissingFile(t *testing.T) {
	report := steps.InspectAudio(context.Background(), filepath.Join(t.TempDir(), "absent.wav"))
	if report.Valid() {
		t.Fatal("missing file must fail")
	}
}

func TestParsePeakLevel(t *testing.T) {
	output := `[Parsed_volumedetect_0 @ 0x55] n_samples: 176400
[Parsed_volumedetect_0 @ 0x55] mean_volume: -23.4 dB
[Parsed_volumedetect_0 @ 0x55] max_volume: -0.1 dB
`
	level, err := steps.ParsePeakLevel(output)
	if err != nil {
		t.Fatalf("ParsePeakLevel: %v", err)
	}
	if level != -0.1 {
		t.Fatalf("expected -0.1, got %g", level)
	}

	if _, err := steps.ParsePeakLevel("no volume info here"); err == nil {
		t.Fatal("expected error for missing max_volume")
	}
}

func TestValidateComplianceMissingAudioIsWarning(t *testing.T) {
	release := testRelease(t)
	if err := steps.ValidateCompliance(logging.NewNop()).Run(context.Background(), release); err != nil {
		t.Fatalf("missing audio should only warn: %v", err)
	}
}

func TestValidateComplianceGoodRelease(t *testing.T) {
	release := testRelease(t)
	release.Config.Genre = "Deep House"
	audioDir := filepath.Join(release.ReleaseDir, steps.AudioDirName)
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		t.Fatal(err)
	}
	writeWAV(t, filepath.Join(audioDir, "Test Artist - Deep Dive.wav"), 2, 44100, 16, 2)

	if err := steps.ValidateCompliance(logging.NewNop()).Run(context.Background(), release); err != nil {
		t.Fatalf("Run: %v", err)
	}
}
