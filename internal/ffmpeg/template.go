package ffmpeg

import (
	"errors"
	"fmt"
	"strings"
)

// Placeholder names a value slot inside a Template.
type Placeholder string

const (
	PlaceholderSetting         Placeholder = "setting"
	PlaceholderWidth           Placeholder = "width"
	PlaceholderHeight          Placeholder = "height"
	PlaceholderRatio           Placeholder = "ratio"
	PlaceholderX               Placeholder = "x"
	PlaceholderY               Placeholder = "y"
	PlaceholderColour          Placeholder = "colour"
	PlaceholderStreamSpecifier Placeholder = "stream_specifier"
)

// optionalSpecifier is replaced by ":<specifier>" for scoped values and
// dropped for the default specifier.
const optionalSpecifier = "(:<stream_specifier>)"

var knownPlaceholders = map[Placeholder]bool{
	PlaceholderSetting:         true,
	PlaceholderWidth:           true,
	PlaceholderHeight:          true,
	PlaceholderRatio:           true,
	PlaceholderX:               true,
	PlaceholderY:               true,
	PlaceholderColour:          true,
	PlaceholderStreamSpecifier: true,
}

var (
	ErrUnknownPlaceholder = errors.New("unknown template placeholder")
	ErrMissingValue       = errors.New("missing template value")
)

// Template is a space separated argument pattern such as
// "-codec:v(:<stream_specifier>) <setting>". Filter templates hold a single
// filter fragment such as "scale=<width>:<height>".
type Template string

// Values maps placeholders to the strings substituted for them.
type Values map[Placeholder]string

// Table maps each option to its template.
type Table map[OptionType]Template

// DefaultTable returns the command templates for current ffmpeg releases.
func DefaultTable() Table {
	return Table{
		OptionDisableAudio:         "-an",
		OptionAudioCodec:           "-codec:a(:<stream_specifier>) <setting>",
		OptionAudioBitrate:         "-b:a(:<stream_specifier>) <setting>",
		OptionAudioSampleFrequency: "-ar(:<stream_specifier>) <setting>",
		OptionAudioChannels:        "-ac(:<stream_specifier>) <setting>",

		OptionDisableVideo:        "-vn",
		OptionVideoCodec:          "-codec:v(:<stream_specifier>) <setting>",
		OptionVideoQuality:        "-q:v(:<stream_specifier>) <setting>",
		OptionVideoDimensions:     "-s(:<stream_specifier>) <width>x<height>",
		OptionVideoScale:          "scale=<width>:<height>",
		OptionVideoPadding:        "pad=<width>:<height>:<x>:<y>:<colour>",
		OptionVideoAspectRatio:    "-aspect(:<stream_specifier>) <ratio>",
		OptionVideoFrameRate:      "-r(:<stream_specifier>) <setting>",
		OptionVideoBitrate:        "-b:v(:<stream_specifier>) <setting>",
		OptionVideoPixelFormat:    "-pix_fmt(:<stream_specifier>) <setting>",
		OptionVideoRotation:       "transpose=<setting>",
		OptionVideoFlipHorizontal: "hflip",
		OptionVideoFlipVertical:   "vflip",
		OptionVideoMaxFrames:      "-vframes <setting>",
		OptionVideoFilters:        "<setting>",
	}
}

// Expand substitutes values into t and returns the resulting argument
// tokens. The template is split on spaces before substitution so values
// containing spaces stay within a single token. specifier is the rendered
// stream specifier, empty for the default one.
func Expand(t Template, specifier string, values Values) ([]string, error) {
	fields := strings.Fields(string(t))
	tokens := make([]string, 0, len(fields))

	for _, field := range fields {
		if specifier != "" {
			field = strings.ReplaceAll(field, optionalSpecifier, ":"+specifier)
		} else {
			field = strings.ReplaceAll(field, optionalSpecifier, "")
		}

		token, err := expandToken(field, specifier, values)
		if err != nil {
			return nil, fmt.Errorf("expand %q: %w", t, err)
		}
		tokens = append(tokens, token)
	}

	return tokens, nil
}

func expandToken(field, specifier string, values Values) (string, error) {
	var b strings.Builder
	rest := field

	for {
		start := strings.IndexByte(rest, '<')
		if start < 0 {
			break
		}
		end := strings.IndexByte(rest[start:], '>')
		if end < 0 {
			break
		}
		end += start

		name := Placeholder(rest[start+1 : end])
		if !knownPlaceholders[name] {
			return "", fmt.Errorf("%w: <%s>", ErrUnknownPlaceholder, name)
		}

		var value string
		if name == PlaceholderStreamSpecifier {
			value = specifier
		} else {
			v, ok := values[name]
			if !ok {
				return "", fmt.Errorf("%w: <%s>", ErrMissingValue, name)
			}
			value = v
		}

		b.WriteString(rest[:start])
		b.WriteString(value)
		rest = rest[end+1:]
	}

	b.WriteString(rest)
	return b.String(), nil
}
