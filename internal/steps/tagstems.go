package steps

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"

	"relpack/internal/config"
	"relpack/internal/logging"
	"relpack/internal/pipeline"
	"relpack/internal/services"
)

// TagStems writes ID3v2 metadata into every stem WAV in the release's
// Stems subdirectory. WAV carries the tag in a RIFF "id3 " chunk, so the
// container is rewritten through a temp sibling rather than tagged in
// place.
func TagStems(logger *slog.Logger) pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:    "tag-stems",
		Enabled: func(cfg *config.ReleaseConfig) bool { return cfg.TagStems },
		Run: func(ctx context.Context, release *pipeline.Release) error {
			log := logging.WithContext(ctx, logger)

			dir := stemsDir(release)
			files, err := filepath.Glob(filepath.Join(dir, "*.wav"))
			if err != nil {
				return services.Wrap(nil, "tag-stems", "scan stems directory", dir, err)
			}
			if len(files) == 0 {
				log.Warn("no stem WAV files to tag", logging.String("stems_dir", dir))
				return nil
			}

			for _, file := range files {
				stemType := stemTypeFromName(file)
				if err := writeStemTags(release, file, stemType); err != nil {
					return err
				}
				log.Info("tagged stem",
					logging.String("file", filepath.Base(file)),
					logging.String("stem", stemType))
			}
			return nil
		},
	}
}

// stemTypeFromName pulls the stem label from a "Artist - Title - Stem.wav"
// file name. Anything that does not follow the pattern reads as Unknown.
func stemTypeFromName(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	parts := strings.Split(base, " - ")
	if len(parts) >= 3 {
		return parts[len(parts)-1]
	}
	return "Unknown"
}

func writeStemTags(release *pipeline.Release, path, stemType string) error {
	tag := id3v2.NewEmptyTag()
	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	tag.SetTitle(release.Config.Title + " - " + stemType)
	tag.SetArtist(release.Config.Artist)
	setTextFrame(tag, "TALB", release.Config.Title)
	tag.SetGenre("Stem")
	tag.AddCommentFrame(id3v2.CommentFrame{
		Encoding: id3v2.EncodingUTF8,
		Language: "eng",
		Text:     "Stem type: " + stemType,
	})

	var buf bytes.Buffer
	if _, err := tag.WriteTo(&buf); err != nil {
		return services.Wrap(nil, "tag-stems", "render stem tag", filepath.Base(path), err)
	}
	if err := embedWAVTag(path, buf.Bytes()); err != nil {
		return services.Wrap(nil, "tag-stems", "write stem tag", filepath.Base(path), err)
	}
	return nil
}

// embedWAVTag rewrites the RIFF container at path with tagData as its
// trailing "id3 " chunk, replacing any tag chunk already present. The
// rewrite goes through a temp sibling promoted by atomic rename.
func embedWAVTag(path string, tagData []byte) error {
	src, err := os.Open(path)
	if err != nil {
		return err
	}
	defer src.Close()

	var riff [12]byte
	if _, err := io.ReadFull(src, riff[:]); err != nil {
		return fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return errors.New("not a RIFF/WAVE file")
	}

	dir := filepath.Dir(path)
	base := filepath.Base(path)
	temp := filepath.Join(dir, "."+strings.TrimSuffix(base, filepath.Ext(base))+".tag"+filepath.Ext(base))

	out, err := os.OpenFile(temp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	cleanup := func() {
		out.Close()
		os.Remove(temp)
	}

	if _, err := out.Write(riff[:]); err != nil {
		cleanup()
		return fmt.Errorf("write riff header: %w", err)
	}

	if err := copyChunksExceptTag(out, src); err != nil {
		cleanup()
		return err
	}
	if err := writeChunk(out, "id3 ", tagData); err != nil {
		cleanup()
		return err
	}

	end, err := out.Seek(0, io.SeekCurrent)
	if err != nil {
		cleanup()
		return err
	}
	if _, err := out.Seek(4, io.SeekStart); err != nil {
		cleanup()
		return err
	}
	if err := binary.Write(out, binary.LittleEndian, uint32(end-8)); err != nil {
		cleanup()
		return fmt.Errorf("update riff size: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(temp)
		return err
	}

	if err := os.Rename(temp, path); err != nil {
		os.Remove(temp)
		return err
	}
	return nil
}

func copyChunksExceptTag(out io.Writer, src io.Reader) error {
	for {
		var header [8]byte
		if _, err := io.ReadFull(src, header[:]); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				return nil
			}
			return fmt.Errorf("read chunk header: %w", err)
		}
		id := string(header[0:4])
		size := int64(binary.LittleEndian.Uint32(header[4:8]))
		padded := size + size%2

		if strings.EqualFold(strings.TrimSpace(id), "id3") {
			if err := skipBytes(src, padded); err != nil {
				return err
			}
			continue
		}

		if _, err := out.Write(header[:]); err != nil {
			return fmt.Errorf("write chunk header: %w", err)
		}
		if _, err := io.CopyN(out, src, padded); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("copy chunk %q: %w", id, err)
		}
	}
}

func writeChunk(out io.Writer, id string, data []byte) error {
	var header [8]byte
	copy(header[0:4], id)
	binary.LittleEndian.PutUint32(header[4:8], uint32(len(data)))
	if _, err := out.Write(header[:]); err != nil {
		return fmt.Errorf("write %q chunk header: %w", id, err)
	}
	if _, err := out.Write(data); err != nil {
		return fmt.Errorf("write %q chunk: %w", id, err)
	}
	if len(data)%2 == 1 {
		if _, err := out.Write([]byte{0}); err != nil {
			return fmt.Errorf("pad %q chunk: %w", id, err)
		}
	}
	return nil
}
