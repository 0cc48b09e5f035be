package ffmpeg

import (
	"fmt"
	"strings"
)

// OptionType represents a strongly typed format option.
type OptionType string

// Option keys in declaration order. Audio options come from the base
// schema, video options extend it.
const (
	OptionDisableAudio         OptionType = "disable_audio"
	OptionAudioCodec           OptionType = "audio_codec"
	OptionAudioBitrate         OptionType = "audio_bitrate"
	OptionAudioSampleFrequency OptionType = "audio_sample_frequency"
	OptionAudioChannels        OptionType = "audio_channels"

	OptionDisableVideo        OptionType = "disable_video"
	OptionVideoCodec          OptionType = "video_codec"
	OptionVideoQuality        OptionType = "video_quality"
	OptionVideoDimensions     OptionType = "video_dimensions"
	OptionVideoScale          OptionType = "video_scale"
	OptionVideoPadding        OptionType = "video_padding"
	OptionVideoAspectRatio    OptionType = "video_aspect_ratio"
	OptionVideoFrameRate      OptionType = "video_frame_rate"
	OptionVideoBitrate        OptionType = "video_bitrate"
	OptionVideoPixelFormat    OptionType = "video_pixel_format"
	OptionVideoRotation       OptionType = "video_rotation"
	OptionVideoFlipHorizontal OptionType = "video_flip_horizontal"
	OptionVideoFlipVertical   OptionType = "video_flip_vertical"
	OptionVideoMaxFrames      OptionType = "video_max_frames"
	OptionVideoFilters        OptionType = "video_filters"
)

// OptionCategory represents option categories
type OptionCategory string

const (
	CategoryAudio OptionCategory = "Audio"
	CategoryVideo OptionCategory = "Video"
)

// Option describes one format option and how it behaves during validation
// and synthesis.
type Option struct {
	Key         OptionType     `json:"key"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Category    OptionCategory `json:"category"`

	// StreamScoped options hold one value per stream specifier.
	StreamScoped bool `json:"stream_scoped"`
	// Filter options contribute a fragment to the single -vf chain instead
	// of emitting their own flag.
	Filter bool `json:"filter"`
	// OutputOnly options are encoding directives and cannot be set on an
	// input format.
	OutputOnly bool `json:"output_only"`

	ConflictsWith []OptionType `json:"conflicts_with,omitempty"`
}

// AllOptions lists every option in synthesis order.
var AllOptions = []Option{
	{
		Key:         OptionDisableAudio,
		Name:        "Disable Audio",
		Description: "Drop all audio streams",
		Category:    CategoryAudio,
		OutputOnly:  true,
	},
	{
		Key:          OptionAudioCodec,
		Name:         "Audio Codec",
		Description:  "Audio encoder, or decoder when set on an input",
		Category:     CategoryAudio,
		StreamScoped: true,
	},
	{
		Key:          OptionAudioBitrate,
		Name:         "Audio Bitrate",
		Description:  "Target audio bitrate",
		Category:     CategoryAudio,
		StreamScoped: true,
		OutputOnly:   true,
	},
	{
		Key:          OptionAudioSampleFrequency,
		Name:         "Audio Sample Frequency",
		Description:  "Audio sample rate in Hz",
		Category:     CategoryAudio,
		StreamScoped: true,
	},
	{
		Key:          OptionAudioChannels,
		Name:         "Audio Channels",
		Description:  "Number of audio channels",
		Category:     CategoryAudio,
		StreamScoped: true,
	},
	{
		Key:         OptionDisableVideo,
		Name:        "Disable Video",
		Description: "Drop all video streams",
		Category:    CategoryVideo,
		OutputOnly:  true,
	},
	{
		Key:          OptionVideoCodec,
		Name:         "Video Codec",
		Description:  "Video encoder",
		Category:     CategoryVideo,
		StreamScoped: true,
		OutputOnly:   true,
	},
	{
		Key:          OptionVideoQuality,
		Name:         "Video Quality",
		Description:  "Fixed quality scale, 1 (best) to 31 (worst)",
		Category:     CategoryVideo,
		StreamScoped: true,
		OutputOnly:   true,
	},
	{
		Key:           OptionVideoDimensions,
		Name:          "Video Dimensions",
		Description:   "Frame size",
		Category:      CategoryVideo,
		StreamScoped:  true,
		ConflictsWith: []OptionType{OptionVideoPadding},
	},
	{
		Key:         OptionVideoScale,
		Name:        "Video Scale",
		Description: "Scale filter",
		Category:    CategoryVideo,
		Filter:      true,
		OutputOnly:  true,
	},
	{
		Key:           OptionVideoPadding,
		Name:          "Video Padding",
		Description:   "Pad filter with insets and colour",
		Category:      CategoryVideo,
		Filter:        true,
		OutputOnly:    true,
		ConflictsWith: []OptionType{OptionVideoDimensions},
	},
	{
		Key:          OptionVideoAspectRatio,
		Name:         "Video Aspect Ratio",
		Description:  "Display aspect ratio",
		Category:     CategoryVideo,
		StreamScoped: true,
		OutputOnly:   true,
	},
	{
		Key:          OptionVideoFrameRate,
		Name:         "Video Frame Rate",
		Description:  "Frames per second",
		Category:     CategoryVideo,
		StreamScoped: true,
	},
	{
		Key:          OptionVideoBitrate,
		Name:         "Video Bitrate",
		Description:  "Target video bitrate",
		Category:     CategoryVideo,
		StreamScoped: true,
		OutputOnly:   true,
	},
	{
		Key:          OptionVideoPixelFormat,
		Name:         "Video Pixel Format",
		Description:  "Pixel format",
		Category:     CategoryVideo,
		StreamScoped: true,
	},
	{
		Key:         OptionVideoRotation,
		Name:        "Video Rotation",
		Description: "Transpose filter for quarter turns",
		Category:    CategoryVideo,
		Filter:      true,
		OutputOnly:  true,
	},
	{
		Key:         OptionVideoFlipHorizontal,
		Name:        "Flip Horizontal",
		Description: "Mirror the frame left to right",
		Category:    CategoryVideo,
		Filter:      true,
		OutputOnly:  true,
	},
	{
		Key:         OptionVideoFlipVertical,
		Name:        "Flip Vertical",
		Description: "Mirror the frame top to bottom",
		Category:    CategoryVideo,
		Filter:      true,
		OutputOnly:  true,
	},
	{
		Key:         OptionVideoMaxFrames,
		Name:        "Max Frames",
		Description: "Stop after this many video frames",
		Category:    CategoryVideo,
		OutputOnly:  true,
	},
	{
		Key:         OptionVideoFilters,
		Name:        "Video Filters",
		Description: "Additional filter fragments appended to the chain",
		Category:    CategoryVideo,
		Filter:      true,
		OutputOnly:  true,
	},
}

// GetOptionByKey returns an option by its key
func GetOptionByKey(key OptionType) *Option {
	for i := range AllOptions {
		if AllOptions[i].Key == key {
			return &AllOptions[i]
		}
	}
	return nil
}

// GetOptionsByCategory returns options grouped by category
func GetOptionsByCategory() map[OptionCategory][]Option {
	categories := make(map[OptionCategory][]Option)
	for _, option := range AllOptions {
		categories[option.Category] = append(categories[option.Category], option)
	}
	return categories
}

// ValidateOptions checks a set of populated options for conflicts.
func ValidateOptions(selectedOptions []OptionType) error {
	selectedSet := make(map[OptionType]bool)
	for _, opt := range selectedOptions {
		if GetOptionByKey(opt) == nil {
			return fmt.Errorf("unknown option %q", opt)
		}
		selectedSet[opt] = true
	}

	for _, optionKey := range selectedOptions {
		option := GetOptionByKey(optionKey)
		for _, conflictOpt := range option.ConflictsWith {
			if selectedSet[conflictOpt] {
				conflictName := string(conflictOpt)
				if conflictOption := GetOptionByKey(conflictOpt); conflictOption != nil {
					conflictName = conflictOption.Name
				}
				return fmt.Errorf("option '%s' conflicts with '%s'", option.Name, conflictName)
			}
		}
	}

	return nil
}

// FilterOptions returns the keys of all filter-producing options in chain order.
func FilterOptions() []OptionType {
	var keys []OptionType
	for _, option := range AllOptions {
		if option.Filter {
			keys = append(keys, option.Key)
		}
	}
	return keys
}

// IsHardwareEncoder checks if the given codec name represents a hardware
// encoder. Hardware encoders ignore the -q:v quality scale.
func IsHardwareEncoder(codec string) bool {
	hardwareCodecs := []string{
		"nvenc", "amf", "vaapi", "qsv", "videotoolbox", "rkmpp", "v4l2m2m",
	}

	for _, hwCodec := range hardwareCodecs {
		if strings.Contains(codec, hwCodec) {
			return true
		}
	}
	return false
}
