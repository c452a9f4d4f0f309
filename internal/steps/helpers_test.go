package steps_test

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"relpack/internal/config"
	"relpack/internal/pipeline"
)

func testRelease(t *testing.T) *pipeline.Release {
	t.Helper()
	cfg := config.Default()
	cfg.Artist = "Test Artist"
	cfg.Title = "Deep Dive"
	cfg.SourceAudioDir = t.TempDir()
	cfg.SourceStemsDir = t.TempDir()
	return &pipeline.Release{
		Config:     &cfg,
		RunID:      "test-run",
		Artist:     "Test Artist",
		Title:      "Deep Dive",
		ReleaseDir: t.TempDir(),
	}
}

// writeWAV writes a PCM WAV file of silence with the given format.
func writeWAV(t *testing.T, path string, channels, sampleRate, bitDepth int, seconds float64) {
	t.Helper()
	blockAlign := channels * bitDepth / 8
	byteRate := sampleRate * blockAlign
	dataBytes := int(float64(byteRate) * seconds)

	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+dataBytes))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitDepth))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataBytes))
	buf.Write(make([]byte, dataBytes))

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write wav %s: %v", path, err)
	}
}

// writePNG writes a uniform-color PNG of the given dimensions.
func writePNG(t *testing.T, path string, width, height int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = 0x7f
	}
	img.Set(0, 0, color.RGBA{R: 0xff, A: 0xff})

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create png %s: %v", path, err)
	}
	defer file.Close()
	if err := png.Encode(file, img); err != nil {
		t.Fatalf("encode png %s: %v", path, err)
	}
}
