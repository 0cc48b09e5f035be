package format

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

// Profile is a format described in TOML. Applying it goes through the same
// setters, and the same validation, as building the format in code.
//
//	direction = "output"
//
//	[restrictions]
//	video_codecs = ["libx264", "copy"]
//
//	[video]
//	codec = "h264"
//	preset = "hd720"
//	rotation = "auto"
//
//	[video.streams."v:1"]
//	bitrate = "500k"
type Profile struct {
	Version      int          `toml:"version" json:"version,omitempty"`
	Direction    string       `toml:"direction,omitempty" json:"direction,omitempty"`
	Restrictions Restrictions `toml:"restrictions" json:"restrictions,omitempty"`
	Audio        AudioProfile `toml:"audio" json:"audio,omitempty"`
	Video        VideoProfile `toml:"video" json:"video,omitempty"`
}

// AudioStream holds the stream scoped audio options.
type AudioStream struct {
	Codec           string `toml:"codec,omitempty" json:"codec,omitempty"`
	Bitrate         string `toml:"bitrate,omitempty" json:"bitrate,omitempty"`
	SampleFrequency int    `toml:"sample_frequency,omitempty" json:"sample_frequency,omitempty"`
	Channels        int    `toml:"channels,omitempty" json:"channels,omitempty"`
}

// AudioProfile holds the default audio options and per-stream overrides
// keyed by stream specifier.
type AudioProfile struct {
	AudioStream
	Disable bool                   `toml:"disable,omitempty" json:"disable,omitempty"`
	Streams map[string]AudioStream `toml:"streams,omitempty" json:"streams,omitempty"`
}

// VideoStream holds the stream scoped video options. Preset takes
// precedence over Width and Height.
type VideoStream struct {
	Codec       string `toml:"codec,omitempty" json:"codec,omitempty"`
	Quality     *int   `toml:"quality,omitempty" json:"quality,omitempty"`
	Preset      string `toml:"preset,omitempty" json:"preset,omitempty"`
	Width       int    `toml:"width,omitempty" json:"width,omitempty"`
	Height      int    `toml:"height,omitempty" json:"height,omitempty"`
	AspectRatio string `toml:"aspect_ratio,omitempty" json:"aspect_ratio,omitempty"`
	FrameRate   string `toml:"frame_rate,omitempty" json:"frame_rate,omitempty"`
	Bitrate     string `toml:"bitrate,omitempty" json:"bitrate,omitempty"`
	PixelFormat string `toml:"pixel_format,omitempty" json:"pixel_format,omitempty"`
}

// Size is a width and height pair.
type Size struct {
	Width  int `toml:"width" json:"width"`
	Height int `toml:"height" json:"height"`
}

// PaddingProfile describes a pad filter. Width and Height are the content
// size and may be left out.
type PaddingProfile struct {
	Top    int    `toml:"top" json:"top,omitempty"`
	Right  int    `toml:"right" json:"right,omitempty"`
	Bottom int    `toml:"bottom" json:"bottom,omitempty"`
	Left   int    `toml:"left" json:"left,omitempty"`
	Width  int    `toml:"width,omitempty" json:"width,omitempty"`
	Height int    `toml:"height,omitempty" json:"height,omitempty"`
	Colour string `toml:"colour,omitempty" json:"colour,omitempty"`
}

// VideoProfile holds the default video options, the options that are not
// stream scoped, and per-stream overrides keyed by stream specifier.
type VideoProfile struct {
	VideoStream
	Disable        bool                   `toml:"disable,omitempty" json:"disable,omitempty"`
	Scale          *Size                  `toml:"scale,omitempty" json:"scale,omitempty"`
	Padding        *PaddingProfile        `toml:"padding,omitempty" json:"padding,omitempty"`
	Rotation       string                 `toml:"rotation,omitempty" json:"rotation,omitempty"` // "auto" or degrees
	FlipHorizontal bool                   `toml:"flip_horizontal,omitempty" json:"flip_horizontal,omitempty"`
	FlipVertical   bool                   `toml:"flip_vertical,omitempty" json:"flip_vertical,omitempty"`
	MaxFrames      int                    `toml:"max_frames,omitempty" json:"max_frames,omitempty"`
	Filters        []string               `toml:"filters,omitempty" json:"filters,omitempty"`
	Streams        map[string]VideoStream `toml:"streams,omitempty" json:"streams,omitempty"`
}

// ParseProfile decodes a TOML profile.
func ParseProfile(data []byte) (*Profile, error) {
	var p Profile
	if err := toml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if p.Version == 0 {
		p.Version = 1
	}
	return &p, nil
}

// LoadProfile reads a TOML profile from path.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return ParseProfile(data)
}

// Save writes p to path, creating the directory if needed.
func (p *Profile) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create profile directory: %w", err)
	}
	if p.Version == 0 {
		p.Version = 1
	}

	data, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write profile: %w", err)
	}
	return nil
}

// ParseDirection converts "input" or "output" to a Direction. Empty means
// output.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(s) {
	case "", "output":
		return Output, nil
	case "input":
		return Input, nil
	}
	return Output, fmt.Errorf("unknown direction %q", s)
}

// NewFormat builds a video format with the profile's direction and
// restrictions and applies its options.
func (p *Profile) NewFormat(catalog Catalog, opts ...Option) (*VideoFormat, error) {
	dir, err := ParseDirection(p.Direction)
	if err != nil {
		return nil, err
	}
	opts = append([]Option{WithRestrictions(p.Restrictions)}, opts...)
	v := NewVideo(dir, catalog, opts...)
	if err := p.Apply(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Apply sets every option of p on v. Default values are applied before
// stream overrides, which go in specifier order. The first failure is
// returned with the profile field that caused it.
func (p *Profile) Apply(v *VideoFormat) error {
	if err := p.applyAudio(&v.Format); err != nil {
		return err
	}
	return p.applyVideo(v)
}

func (p *Profile) applyAudio(f *Format) error {
	if p.Audio.Disable {
		if err := f.DisableAudio(); err != nil {
			return fieldError("audio.disable", err)
		}
	}
	if err := applyAudioStream(f, p.Audio.AudioStream, "", "audio"); err != nil {
		return err
	}
	for _, spec := range sortedKeys(p.Audio.Streams) {
		if err := applyAudioStream(f, p.Audio.Streams[spec], spec, "audio.streams."+strconv.Quote(spec)); err != nil {
			return err
		}
	}
	return nil
}

func applyAudioStream(f *Format, s AudioStream, spec, field string) error {
	if s.Codec != "" {
		if err := f.SetAudioCodec(s.Codec, spec); err != nil {
			return fieldError(field+".codec", err)
		}
	}
	if s.Bitrate != "" {
		if err := f.SetAudioBitrate(s.Bitrate, spec); err != nil {
			return fieldError(field+".bitrate", err)
		}
	}
	if s.SampleFrequency != 0 {
		if err := f.SetAudioSampleFrequency(s.SampleFrequency, spec); err != nil {
			return fieldError(field+".sample_frequency", err)
		}
	}
	if s.Channels != 0 {
		if err := f.SetAudioChannels(s.Channels, spec); err != nil {
			return fieldError(field+".channels", err)
		}
	}
	return nil
}

func (p *Profile) applyVideo(v *VideoFormat) error {
	vp := p.Video
	if vp.Disable {
		if err := v.DisableVideo(); err != nil {
			return fieldError("video.disable", err)
		}
	}
	if err := applyVideoStream(v, vp.VideoStream, "", "video"); err != nil {
		return err
	}

	if vp.Scale != nil {
		if err := v.SetVideoScale(vp.Scale.Width, vp.Scale.Height); err != nil {
			return fieldError("video.scale", err)
		}
	}
	if pad := vp.Padding; pad != nil {
		insets := Insets{Top: pad.Top, Right: pad.Right, Bottom: pad.Bottom, Left: pad.Left}
		if err := v.SetVideoPadding(insets, pad.Width, pad.Height, pad.Colour); err != nil {
			return fieldError("video.padding", err)
		}
	}
	if vp.Rotation != "" {
		if err := applyRotation(v, vp.Rotation); err != nil {
			return fieldError("video.rotation", err)
		}
	}
	if vp.FlipHorizontal {
		if err := v.SetVideoFlipHorizontal(true); err != nil {
			return fieldError("video.flip_horizontal", err)
		}
	}
	if vp.FlipVertical {
		if err := v.SetVideoFlipVertical(true); err != nil {
			return fieldError("video.flip_vertical", err)
		}
	}
	if vp.MaxFrames != 0 {
		if err := v.SetVideoMaxFrames(vp.MaxFrames); err != nil {
			return fieldError("video.max_frames", err)
		}
	}
	for i, fragment := range vp.Filters {
		if err := v.AddVideoFilter(fragment); err != nil {
			return fieldError(fmt.Sprintf("video.filters[%d]", i), err)
		}
	}

	for _, spec := range sortedKeys(vp.Streams) {
		if err := applyVideoStream(v, vp.Streams[spec], spec, "video.streams."+strconv.Quote(spec)); err != nil {
			return err
		}
	}
	return nil
}

func applyVideoStream(v *VideoFormat, s VideoStream, spec, field string) error {
	if s.Codec != "" {
		if err := v.SetVideoCodec(s.Codec, spec); err != nil {
			return fieldError(field+".codec", err)
		}
	}
	if s.Quality != nil {
		if err := v.SetVideoQuality(*s.Quality, spec); err != nil {
			return fieldError(field+".quality", err)
		}
	}
	switch {
	case s.Preset != "":
		d, err := ParseDimension(s.Preset)
		if err != nil {
			return fieldError(field+".preset", err)
		}
		if err := v.SetVideoDimensionPreset(d, spec); err != nil {
			return fieldError(field+".preset", err)
		}
	case s.Width != 0 || s.Height != 0:
		if err := v.SetVideoDimensions(s.Width, s.Height, spec); err != nil {
			return fieldError(field+".width", err)
		}
	}
	if s.AspectRatio != "" {
		if err := v.SetVideoAspectRatio(s.AspectRatio, spec); err != nil {
			return fieldError(field+".aspect_ratio", err)
		}
	}
	if s.FrameRate != "" {
		if err := v.SetVideoFrameRate(s.FrameRate, spec); err != nil {
			return fieldError(field+".frame_rate", err)
		}
	}
	if s.Bitrate != "" {
		if err := v.SetVideoBitrate(s.Bitrate, spec); err != nil {
			return fieldError(field+".bitrate", err)
		}
	}
	if s.PixelFormat != "" {
		if err := v.SetVideoPixelFormat(s.PixelFormat, spec); err != nil {
			return fieldError(field+".pixel_format", err)
		}
	}
	return nil
}

// applyRotation accepts "auto" or an angle in degrees.
func applyRotation(v *VideoFormat, rotation string) error {
	if strings.EqualFold(rotation, "auto") {
		return v.SetVideoAutoRotation()
	}
	degrees, err := strconv.Atoi(rotation)
	if err != nil {
		return fmt.Errorf("%w: rotation %q is neither auto nor an angle", ErrInvalidOptionValue, rotation)
	}
	return v.SetVideoRotation(degrees)
}

func fieldError(field string, err error) error {
	return fmt.Errorf("profile %s: %w", field, err)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
