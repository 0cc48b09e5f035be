package format

import (
	"fmt"

	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/streamspec"
)

// Entry is one configured value of an option.
type Entry struct {
	Specifier streamspec.Specifier
	Values    ffmpeg.Values
}

// Model is the read side of a format consumed by Synthesize.
type Model interface {
	Entries(option ffmpeg.OptionType) []Entry
	ExtraArgs() []string
}

var disableOptions = map[ffmpeg.OptionCategory]ffmpeg.OptionType{
	ffmpeg.CategoryAudio: ffmpeg.OptionDisableAudio,
	ffmpeg.CategoryVideo: ffmpeg.OptionDisableVideo,
}

// Synthesize expands every populated option of m through table, in option
// declaration order. Filter options are joined into a single -vf argument
// placed where the first filter option is declared. A disabled stream kind
// emits only its disable flag. Literal arguments from AddCommand come last.
func Synthesize(m Model, table ffmpeg.Table) ([]string, error) {
	disabled := make(map[ffmpeg.OptionCategory]bool)
	for category, option := range disableOptions {
		disabled[category] = len(m.Entries(option)) > 0
	}

	var chain ffmpeg.FilterChain
	for _, option := range ffmpeg.AllOptions {
		if !option.Filter || disabled[option.Category] {
			continue
		}
		for _, entry := range m.Entries(option.Key) {
			tokens, err := expand(table, option.Key, entry)
			if err != nil {
				return nil, err
			}
			chain.Add(tokens...)
		}
	}

	var args []string
	chainEmitted := false
	for _, option := range ffmpeg.AllOptions {
		if disabled[option.Category] && option.Key != disableOptions[option.Category] {
			continue
		}
		if option.Filter {
			if !chainEmitted {
				args = append(args, chain.Args()...)
				chainEmitted = true
			}
			continue
		}
		for _, entry := range m.Entries(option.Key) {
			tokens, err := expand(table, option.Key, entry)
			if err != nil {
				return nil, err
			}
			args = append(args, tokens...)
		}
	}

	return append(args, m.ExtraArgs()...), nil
}

func expand(table ffmpeg.Table, option ffmpeg.OptionType, entry Entry) ([]string, error) {
	template, ok := table[option]
	if !ok {
		return nil, fmt.Errorf("no command template for option %q", option)
	}
	return ffmpeg.Expand(template, entry.Specifier.String(), entry.Values)
}
