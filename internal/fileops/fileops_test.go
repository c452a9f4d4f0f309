package fileops_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"relpack/internal/fileops"
	"relpack/internal/services"
)

func writeFixture(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
}

func TestCopyIntoCopiesAndPromotes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in", "track.wav")
	dst := filepath.Join(dir, "out", "Artist - Title.wav")
	writeFixture(t, src, "audio-bytes")

	if err := fileops.CopyInto(src, dst, false); err != nil {
		t.Fatalf("CopyInto: %v", err)
	}

	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != "audio-bytes" {
		t.Fatalf("unexpected content %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(dst))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	for _, entry := range entries {
		if strings.Contains(entry.Name(), ".tmp") {
			t.Fatalf("temp file left behind: %s", entry.Name())
		}
	}
}

func TestCopyIntoOverwriteGuard(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.wav")
	dst := filepath.Join(dir, "dst.wav")
	writeFixture(t, src, "new content")
	writeFixture(t, dst, "original content")

	err := fileops.CopyInto(src, dst, false)
	if err == nil {
		t.Fatal("expected overwrite guard to trip")
	}
	var exists *fileops.DestinationExistsError
	if !errors.As(err, &exists) {
		t.Fatalf("expected DestinationExistsError, got %T: %v", err, err)
	}
	if !errors.Is(err, services.ErrExists) {
		t.Fatalf("expected exists classification, got %v", err)
	}
	if exists.Path != dst {
		t.Fatalf("expected path %q, got %q", dst, exists.Path)
	}

	got, readErr := os.ReadFile(dst)
	if readErr != nil {
		t.Fatalf("read destination: %v", readErr)
	}
	if !bytes.Equal(got, []byte("original content")) {
		t.Fatalf("destination modified: %q", got)
	}
}

func TestCopyIntoOverwriteReplaces(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.wav")
	dst := filepath.Join(dir, "dst.wav")
	writeFixture(t, src, "new content")
	writeFixture(t, dst, "original content")

	if err := fileops.CopyInto(src, dst, true); err != nil {
		t.Fatalf("CopyInto overwrite: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read destination: %v", err)
	}
	if string(got) != "new content" {
		t.Fatalf("expected replaced content, got %q", got)
	}
}

func TestCopyIntoMissingSourceLeavesDestinationAbsent(t *testing.T) {
	dir := t.TempDir()
	dst := filepath.Join(dir, "dst.wav")

	err := fileops.CopyInto(filepath.Join(dir, "missing.wav"), dst, false)
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, statErr := os.Stat(dst); !os.IsNotExist(statErr) {
		t.Fatal("expected destination to stay absent")
	}
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Metadata", "release.json")

	if err := fileops.WriteFile(path, []byte(`{"artist":"A"}`)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(got) != `{"artist":"A"}` {
		t.Fatalf("unexpected content %q", got)
	}
	// Rewrite replaces in place.
	if err := fileops.WriteFile(path, []byte(`{"artist":"B"}`)); err != nil {
		t.Fatalf("rewrite: %v", err)
	}
	got, _ = os.ReadFile(path)
	if string(got) != `{"artist":"B"}` {
		t.Fatalf("unexpected rewritten content %q", got)
	}
}
