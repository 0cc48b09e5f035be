// Package capabilities records which codecs, pixel formats and filters the
// installed ffmpeg build provides.
package capabilities

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Kind selects a codec family.
type Kind string

const (
	KindVideo    Kind = "video"
	KindAudio    Kind = "audio"
	KindSubtitle Kind = "subtitle"
)

// Catalog is a read-only snapshot of engine capabilities. New and Load
// keep name lists sorted and deduplicated.
type Catalog struct {
	Timestamp      string   `toml:"timestamp" json:"timestamp"`
	FFmpegVersion  string   `toml:"ffmpeg_version" json:"ffmpeg_version"`
	VideoCodecs    []string `toml:"video_codecs" json:"video_codecs"`
	AudioCodecs    []string `toml:"audio_codecs" json:"audio_codecs"`
	SubtitleCodecs []string `toml:"subtitle_codecs" json:"subtitle_codecs"`
	PixelFormats   []string `toml:"pixel_formats" json:"pixel_formats"`
	Filters        []string `toml:"filters" json:"filters"`
}

// New builds a catalog from name lists.
func New(videoCodecs, audioCodecs, pixelFormats, filters []string) *Catalog {
	c := &Catalog{
		VideoCodecs:  videoCodecs,
		AudioCodecs:  audioCodecs,
		PixelFormats: pixelFormats,
		Filters:      filters,
	}
	c.normalize()
	return c
}

// Codecs returns the codec names of a kind.
func (c *Catalog) Codecs(kind Kind) []string {
	switch kind {
	case KindVideo:
		return c.VideoCodecs
	case KindAudio:
		return c.AudioCodecs
	case KindSubtitle:
		return c.SubtitleCodecs
	}
	return nil
}

// HasCodec reports whether a codec of the given kind is available.
func (c *Catalog) HasCodec(kind Kind, name string) bool {
	return contains(c.Codecs(kind), name)
}

// HasPixelFormat reports whether a pixel format is available.
func (c *Catalog) HasPixelFormat(name string) bool {
	return contains(c.PixelFormats, name)
}

// HasFilter reports whether a filter is available.
func (c *Catalog) HasFilter(name string) bool {
	return contains(c.Filters, name)
}

// Load reads a catalog snapshot written by Save.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read capabilities snapshot: %w", err)
	}

	var c Catalog
	if unmarshalErr := toml.Unmarshal(data, &c); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse capabilities snapshot: %w", unmarshalErr)
	}
	c.normalize()
	return &c, nil
}

// Save writes the catalog as TOML, creating parent directories as needed.
func (c *Catalog) Save(path string) error {
	if c.Timestamp == "" {
		c.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal capabilities snapshot: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if mkErr := os.MkdirAll(dir, 0o755); mkErr != nil {
			return fmt.Errorf("failed to create snapshot directory: %w", mkErr)
		}
	}

	if writeErr := os.WriteFile(path, data, 0o644); writeErr != nil {
		return fmt.Errorf("failed to write capabilities snapshot: %w", writeErr)
	}
	return nil
}

func (c *Catalog) normalize() {
	c.VideoCodecs = sortedUnique(c.VideoCodecs)
	c.AudioCodecs = sortedUnique(c.AudioCodecs)
	c.SubtitleCodecs = sortedUnique(c.SubtitleCodecs)
	c.PixelFormats = sortedUnique(c.PixelFormats)
	c.Filters = sortedUnique(c.Filters)
}

func sortedUnique(names []string) []string {
	if len(names) == 0 {
		return nil
	}
	out := slices.Clone(names)
	slices.Sort(out)
	return slices.Compact(out)
}

func contains(names []string, name string) bool {
	return name != "" && slices.Contains(names, name)
}
