package steps

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bogem/id3v2"
	"golang.org/x/image/draw"

	"relpack/internal/config"
	"relpack/internal/logging"
	"relpack/internal/pipeline"
	"relpack/internal/services"
)

// TagAudio applies ID3v2 tags to every MP3 in the release's Audio
// subdirectory and embeds the cover art when one is present.
func TagAudio(logger *slog.Logger) pipeline.Descriptor {
	return pipeline.Descriptor{
		Name:    "tag",
		Enabled: func(cfg *config.ReleaseConfig) bool { return cfg.TagAudio },
		Run: func(ctx context.Context, release *pipeline.Release) error {
			log := logging.WithContext(ctx, logger)

			files, err := filepath.Glob(filepath.Join(audioDir(release), "*.mp3"))
			if err != nil {
				return services.Wrap(nil, "tag", "scan audio directory", audioDir(release), err)
			}
			if len(files) == 0 {
				log.Warn("no MP3 files to tag",
					logging.String("audio_dir", audioDir(release)))
				return nil
			}

			artwork, err := loadArtwork(log, release)
			if err != nil {
				return err
			}

			for _, file := range files {
				if err := writeTags(release, file, artwork); err != nil {
					return err
				}
				log.Info("applied ID3 tags", logging.String("file", filepath.Base(file)))
			}
			return nil
		},
	}
}

func writeTags(release *pipeline.Release, path string, artwork []byte) error {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return services.Wrap(nil, "tag", "open audio file", filepath.Base(path), err)
	}
	defer tag.Close()

	tag.SetDefaultEncoding(id3v2.EncodingUTF8)
	cfg := release.Config
	meta := cfg.ID3

	tag.SetTitle(cfg.Title)
	tag.SetArtist(cfg.Artist)
	setTextFrame(tag, "TPE2", cfg.Artist)
	if cfg.Genre != "" {
		tag.SetGenre(cfg.Genre)
	}
	setTextFrame(tag, "TALB", meta.Album)
	setTextFrame(tag, "TYER", meta.Year)
	setTextFrame(tag, "TRCK", meta.TrackNumber)
	setTextFrame(tag, "TCOM", meta.Composer)
	setTextFrame(tag, "TPUB", meta.Publisher)

	copyright := meta.Copyright
	if copyright == "" && meta.Year != "" {
		copyright = fmt.Sprintf("© %s %s", meta.Year, cfg.Artist)
	}
	setTextFrame(tag, "TCOP", copyright)

	if cfg.BPM > 0 {
		setTextFrame(tag, "TBPM", fmt.Sprintf("%d", cfg.BPM))
	}
	setTextFrame(tag, "TSRC", cfg.ISRC)
	setTextFrame(tag, "TLAN", languageCode(cfg.Language))

	// Stale generator comments from earlier runs must not survive.
	tag.DeleteFrames("COMM")
	if comment := buildComment(release); comment != "" {
		tag.AddCommentFrame(id3v2.CommentFrame{
			Encoding: id3v2.EncodingUTF8,
			Language: "eng",
			Text:     comment,
		})
	}

	if artwork != nil {
		tag.DeleteFrames(tag.CommonID("Attached picture"))
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    "image/jpeg",
			PictureType: id3v2.PTFrontCover,
			Description: "Cover",
			Picture:     artwork,
		})
	}

	if err := tag.Save(); err != nil {
		return services.Wrap(nil, "tag", "save tags", filepath.Base(path), err)
	}
	return nil
}

func setTextFrame(tag *id3v2.Tag, id, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	tag.AddTextFrame(id, id3v2.EncodingUTF8, value)
}

// buildComment combines the configured comment with generator version
// details extracted earlier in the run.
func buildComment(release *pipeline.Release) string {
	parts := make([]string, 0, 2)
	if c := strings.TrimSpace(release.Config.ID3.Comment); c != "" {
		parts = append(parts, c)
	}
	if release.Version != "" || release.BuildID != "" {
		generated := "AI-generated"
		if release.Version != "" {
			generated += ", v" + release.Version
		}
		if release.BuildID != "" {
			generated += ", Build " + release.BuildID
		}
		parts = append(parts, generated)
	}
	return strings.Join(parts, " | ")
}

// languageCode reduces a language name to a three-letter lowercase code for
// the TLAN frame.
func languageCode(language string) string {
	language = strings.TrimSpace(strings.ToLower(language))
	if language == "" {
		return ""
	}
	if runes := []rune(language); len(runes) > 3 {
		return string(runes[:3])
	}
	return language
}

// loadArtwork reads the release cover and downscales it for embedding. A
// missing cover is not an error; tagging proceeds without artwork.
func loadArtwork(log *slog.Logger, release *pipeline.Release) ([]byte, error) {
	cover := release.CoverPath
	if cover == "" {
		cover = canonicalCover(coverDir(release), release)
	}
	if cover == "" {
		log.Warn("no cover art to embed",
			logging.String("cover_dir", coverDir(release)))
		return nil, nil
	}

	data, err := os.ReadFile(cover)
	if err != nil {
		return nil, services.Wrap(nil, "tag", "read cover art", filepath.Base(cover), err)
	}
	resized, err := resizeForEmbedding(data, coverEmbedMaxPixels)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "tag", "prepare cover art", filepath.Base(cover), err)
	}
	return resized, nil
}

// resizeForEmbedding scales the image down to fit maxEdge and re-encodes it
// as JPEG. Embedded art has no reason to carry full 3000px masters.
func resizeForEmbedding(data []byte, maxEdge int) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width > maxEdge || height > maxEdge {
		ratio := float64(width) / float64(height)
		if ratio >= 1 {
			width, height = maxEdge, int(float64(maxEdge)/ratio)
		} else {
			width, height = int(float64(maxEdge)*ratio), maxEdge
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
