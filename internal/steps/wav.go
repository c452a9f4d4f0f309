package steps

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"relpack/internal/services"
)

// WAVInfo holds the format fields read from a RIFF/WAVE header.
type WAVInfo struct {
	Channels   int
	SampleRate int
	BitDepth   int
	DataBytes  int64
	Duration   time.Duration
}

// ReadWAVInfo parses the RIFF header of a WAV file without decoding audio.
// It walks the chunk list until both the fmt and data chunks are seen.
func ReadWAVInfo(path string) (WAVInfo, error) {
	file, err := os.Open(path)
	if err != nil {
		return WAVInfo{}, services.Wrap(services.ErrNotFound, "", "open wav file", path, err)
	}
	defer file.Close()

	info, err := parseWAVHeader(file)
	if err != nil {
		return WAVInfo{}, services.Wrap(services.ErrValidation, "", "parse wav header", path, err)
	}
	return info, nil
}

func parseWAVHeader(r io.Reader) (WAVInfo, error) {
	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return WAVInfo{}, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return WAVInfo{}, errors.New("not a RIFF/WAVE file")
	}

	var info WAVInfo
	var haveFmt, haveData bool
	byteRate := int64(0)

	for !(haveFmt && haveData) {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				break
			}
			return WAVInfo{}, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))

		switch id {
		case "fmt ":
			var body [16]byte
			if _, err := io.ReadFull(r, body[:]); err != nil {
				return WAVInfo{}, fmt.Errorf("read fmt chunk: %w", err)
			}
			info.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			info.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			byteRate = int64(binary.LittleEndian.Uint32(body[8:12]))
			info.BitDepth = int(binary.LittleEndian.Uint16(body[14:16]))
			if rest := size - 16; rest > 0 {
				if err := skipBytes(r, rest+rest%2); err != nil {
					return WAVInfo{}, err
				}
			}
			haveFmt = true
		case "data":
			info.DataBytes = size
			haveData = true
			// Truncated data chunks still yield usable format info.
			_ = skipBytes(r, size+size%2)
		default:
			if err := skipBytes(r, size+size%2); err != nil {
				return WAVInfo{}, err
			}
		}
	}

	if !haveFmt {
		return WAVInfo{}, errors.New("missing fmt chunk")
	}
	if byteRate > 0 && info.DataBytes > 0 {
		seconds := float64(info.DataBytes) / float64(byteRate)
		info.Duration = time.Duration(seconds * float64(time.Second))
	}
	return info, nil
}

func skipBytes(r io.Reader, n int64) error {
	if n <= 0 {
		return nil
	}
	_, err := io.CopyN(io.Discard, r, n)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("skip chunk: %w", err)
	}
	return nil
}
