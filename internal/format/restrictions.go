package format

import "slices"

// Restrictions narrows otherwise valid option values. A nil list leaves the
// option unrestricted; an empty list allows nothing.
type Restrictions struct {
	VideoCodecs   []string `toml:"video_codecs,omitempty" json:"video_codecs,omitempty"`
	PixelFormats  []string `toml:"pixel_formats,omitempty" json:"pixel_formats,omitempty"`
	VideoBitrates []string `toml:"video_bitrates,omitempty" json:"video_bitrates,omitempty"`
	FrameRates    []string `toml:"frame_rates,omitempty" json:"frame_rates,omitempty"`

	AudioCodecs       []string `toml:"audio_codecs,omitempty" json:"audio_codecs,omitempty"`
	AudioBitrates     []string `toml:"audio_bitrates,omitempty" json:"audio_bitrates,omitempty"`
	SampleFrequencies []int    `toml:"sample_frequencies,omitempty" json:"sample_frequencies,omitempty"`
}

func (r Restrictions) clone() Restrictions {
	return Restrictions{
		VideoCodecs:       slices.Clone(r.VideoCodecs),
		PixelFormats:      slices.Clone(r.PixelFormats),
		VideoBitrates:     slices.Clone(r.VideoBitrates),
		FrameRates:        slices.Clone(r.FrameRates),
		AudioCodecs:       slices.Clone(r.AudioCodecs),
		AudioBitrates:     slices.Clone(r.AudioBitrates),
		SampleFrequencies: slices.Clone(r.SampleFrequencies),
	}
}

func allowed[T comparable](list []T, v T) bool {
	return list == nil || slices.Contains(list, v)
}
