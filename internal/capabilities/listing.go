package capabilities

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
)

// EncoderType represents the type of encoder (video, audio, subtitle)
type EncoderType string

const (
	VideoEncoder    EncoderType = "V"
	AudioEncoder    EncoderType = "A"
	SubtitleEncoder EncoderType = "S"
	Unknown         EncoderType = "?"
)

// Encoder represents an FFmpeg encoder
type Encoder struct {
	Type        EncoderType `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	HWAccel     bool        `json:"hwaccel"`
}

// EncoderList holds a categorized list of encoders
type EncoderList struct {
	VideoEncoders    []Encoder `json:"video_encoders"`
	AudioEncoders    []Encoder `json:"audio_encoders"`
	SubtitleEncoders []Encoder `json:"subtitle_encoders"`
	OtherEncoders    []Encoder `json:"other_encoders"`
}

// Names returns the encoder names of one type.
func (l *EncoderList) Names(t EncoderType) []string {
	var src []Encoder
	switch t {
	case VideoEncoder:
		src = l.VideoEncoders
	case AudioEncoder:
		src = l.AudioEncoders
	case SubtitleEncoder:
		src = l.SubtitleEncoders
	default:
		src = l.OtherEncoders
	}
	names := make([]string, 0, len(src))
	for _, e := range src {
		names = append(names, e.Name)
	}
	return names
}

var (
	encoderRegex     = regexp.MustCompile(`^\s*([VASFXBD\.]{6})\s+(\S+)\s+(.+)$`)
	hwaccelRegex     = regexp.MustCompile(`(?i)(nvenc|qsv|amf|vaapi|videotoolbox|vdpau|cuda|dxva2|d3d11va|opencl|vulkan|rkmpp|v4l2m2m)`)
	pixelFormatRegex = regexp.MustCompile(`^([IOHPB\.]{5})\s+(\S+)\s+\d+\s+\d+`)
	filterRegex      = regexp.MustCompile(`^\s*([TSC\.]{2,3})\s+(\S+)\s+(\S+->\S+)\s+(.*)$`)
	versionRegex     = regexp.MustCompile(`^ffmpeg version (\S+)`)
)

// ParseEncoders processes the output of ffmpeg -encoders command
func ParseEncoders(output string) (*EncoderList, error) {
	result := &EncoderList{
		VideoEncoders:    []Encoder{},
		AudioEncoders:    []Encoder{},
		SubtitleEncoders: []Encoder{},
		OtherEncoders:    []Encoder{},
	}

	scanner := bufio.NewScanner(strings.NewReader(output))

	// Skip the legend until the separator line
	encodersStarted := false

	for scanner.Scan() {
		line := scanner.Text()

		if !encodersStarted {
			if strings.HasPrefix(strings.TrimSpace(line), "------") {
				encodersStarted = true
			}
			continue
		}

		if len(strings.TrimSpace(line)) == 0 {
			continue
		}

		matches := encoderRegex.FindStringSubmatch(line)
		if len(matches) != 4 {
			continue
		}
		typeFlags := matches[1]
		name := matches[2]
		description := matches[3]

		var encoderType EncoderType
		switch typeFlags[0] {
		case 'V':
			encoderType = VideoEncoder
		case 'A':
			encoderType = AudioEncoder
		case 'S':
			encoderType = SubtitleEncoder
		default:
			encoderType = Unknown
		}

		encoder := Encoder{
			Type:        encoderType,
			Name:        name,
			Description: description,
			HWAccel:     hwaccelRegex.MatchString(name) || hwaccelRegex.MatchString(description),
		}

		switch encoderType {
		case VideoEncoder:
			result.VideoEncoders = append(result.VideoEncoders, encoder)
		case AudioEncoder:
			result.AudioEncoders = append(result.AudioEncoders, encoder)
		case SubtitleEncoder:
			result.SubtitleEncoders = append(result.SubtitleEncoders, encoder)
		default:
			result.OtherEncoders = append(result.OtherEncoders, encoder)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading encoder list: %w", err)
	}

	return result, nil
}

// ParsePixelFormats processes the output of ffmpeg -pix_fmts and returns
// the formats usable as conversion output.
func ParsePixelFormats(output string) ([]string, error) {
	var formats []string
	started := false

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		if !started {
			if strings.HasPrefix(strings.TrimSpace(line), "-----") {
				started = true
			}
			continue
		}

		matches := pixelFormatRegex.FindStringSubmatch(line)
		if len(matches) != 3 {
			continue
		}
		// Second flag column is 'O' when the format can be written.
		if matches[1][1] != 'O' {
			continue
		}
		formats = append(formats, matches[2])
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading pixel format list: %w", err)
	}
	return formats, nil
}

// ParseFilters processes the output of ffmpeg -filters.
func ParseFilters(output string) ([]string, error) {
	var filters []string

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		matches := filterRegex.FindStringSubmatch(scanner.Text())
		if len(matches) != 5 {
			continue
		}
		filters = append(filters, matches[2])
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading filter list: %w", err)
	}
	return filters, nil
}

// ParseVersion extracts the release string from ffmpeg -version output.
func ParseVersion(output string) string {
	firstLine, _, _ := strings.Cut(output, "\n")
	if m := versionRegex.FindStringSubmatch(strings.TrimSpace(firstLine)); m != nil {
		return m[1]
	}
	return ""
}
