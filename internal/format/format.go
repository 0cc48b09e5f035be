// Package format holds the option model for one ffmpeg input or output:
// validated setters, the finalize pass that reconciles interacting options
// against probed source facts, and synthesis into an argument list.
//
// A Format is owned by a single caller and is not safe for concurrent use.
package format

import (
	"regexp"
	"strconv"

	"github.com/smazurov/videoformat/internal/capabilities"
	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/logging"
	"github.com/smazurov/videoformat/internal/metrics"
	"github.com/smazurov/videoformat/internal/streamspec"
)

// Direction tells whether a format describes an ffmpeg input or output.
type Direction int

const (
	Output Direction = iota
	Input
)

func (d Direction) String() string {
	if d == Input {
		return "input"
	}
	return "output"
}

// Catalog reports what the installed ffmpeg supports.
// *capabilities.Catalog implements it.
type Catalog interface {
	HasCodec(kind capabilities.Kind, name string) bool
	HasPixelFormat(name string) bool
	HasFilter(name string) bool
}

// CommandAppender accepts literal arguments outside the option model.
type CommandAppender interface {
	AddCommand(flag, value string)
}

// SourceDimensions looks up the size of the source media. ok is false when
// the size is unknown.
type SourceDimensions func() (width, height int, ok bool)

type emptyCatalog struct{}

func (emptyCatalog) HasCodec(capabilities.Kind, string) bool { return false }
func (emptyCatalog) HasPixelFormat(string) bool              { return false }
func (emptyCatalog) HasFilter(string) bool                   { return false }

// Option configures a Format at construction.
type Option func(*Format)

// WithRestrictions sets the allow-lists the format enforces. The lists are
// copied and cannot be widened later.
func WithRestrictions(r Restrictions) Option {
	return func(f *Format) {
		f.restrictions = r.clone()
	}
}

// WithSourceDimensions sets the lookup used when padding needs the source size.
func WithSourceDimensions(lookup SourceDimensions) Option {
	return func(f *Format) {
		f.sourceDimensions = lookup
	}
}

// WithLogger replaces the module logger.
func WithLogger(l logging.Logger) Option {
	return func(f *Format) {
		if l != nil {
			f.logger = l
		}
	}
}

// Format is the audio option model shared by every format.
type Format struct {
	direction        Direction
	catalog          Catalog
	restrictions     Restrictions
	sourceDimensions SourceDimensions
	logger           logging.Logger

	disableAudio         bool
	audioCodec           scoped[string]
	audioBitrate         scoped[string]
	audioSampleFrequency scoped[int]
	audioChannels        scoped[int]

	extra []string
}

// NewAudio returns a format with only the audio options. A nil catalog
// supports nothing.
func NewAudio(dir Direction, catalog Catalog, opts ...Option) *Format {
	f := &Format{}
	f.init(dir, catalog, opts)
	return f
}

func (f *Format) init(dir Direction, catalog Catalog, opts []Option) {
	f.direction = dir
	f.catalog = catalog
	if f.catalog == nil {
		f.catalog = emptyCatalog{}
	}
	f.logger = logging.GetLogger("format")
	for _, opt := range opts {
		opt(f)
	}
}

// Direction returns whether f describes an input or an output.
func (f *Format) Direction() Direction {
	return f.direction
}

// Restrictions returns a copy of the active restrictions.
func (f *Format) Restrictions() Restrictions {
	return f.restrictions.clone()
}

// guard refuses output-only options on input formats.
func (f *Format) guard(option ffmpeg.OptionType) error {
	if f.direction != Input {
		return nil
	}
	if opt := ffmpeg.GetOptionByKey(option); opt != nil && opt.OutputOnly {
		return f.reject(option, nil, ErrInvalidOperation, "cannot be set on an input format")
	}
	return nil
}

func (f *Format) specifier(option ffmpeg.OptionType, raw string) (streamspec.Specifier, error) {
	spec, err := streamspec.Parse(raw)
	if err != nil {
		return spec, f.reject(option, raw, ErrInvalidStreamSpecifier, "")
	}
	return spec, nil
}

// DisableAudio drops all audio streams from the output.
func (f *Format) DisableAudio() error {
	if err := f.guard(ffmpeg.OptionDisableAudio); err != nil {
		return err
	}
	f.disableAudio = true
	return nil
}

// EnableAudio undoes DisableAudio.
func (f *Format) EnableAudio() {
	f.disableAudio = false
}

var audioCodecAliases = [][2]string{
	{"libmp3lame", "mp3"},
	{"libvorbis", "vorbis"},
	{"libopus", "opus"},
}

// SetAudioCodec sets the audio codec for spec. An empty codec clears it.
func (f *Format) SetAudioCodec(codec, spec string) error {
	s, err := f.specifier(ffmpeg.OptionAudioCodec, spec)
	if err != nil {
		return err
	}
	if codec == "" {
		f.audioCodec.clear(s)
		return nil
	}
	if err := f.guard(ffmpeg.OptionAudioCodec); err != nil {
		return err
	}

	codec = f.normalizeCodec(capabilities.KindAudio, codec, audioCodecAliases)
	if codec != "copy" && !f.catalog.HasCodec(capabilities.KindAudio, codec) {
		return f.reject(ffmpeg.OptionAudioCodec, codec, ErrUnsupportedByEngine, "codec not available")
	}
	if !allowed(f.restrictions.AudioCodecs, codec) {
		return f.reject(ffmpeg.OptionAudioCodec, codec, ErrRestrictedValue, "codec not in allowed list")
	}

	f.audioCodec.set(s, codec)
	return nil
}

// SetAudioBitrate sets the audio bitrate, such as "128k", for spec. An
// empty rate clears it.
func (f *Format) SetAudioBitrate(rate, spec string) error {
	s, err := f.specifier(ffmpeg.OptionAudioBitrate, spec)
	if err != nil {
		return err
	}
	if rate == "" {
		f.audioBitrate.clear(s)
		return nil
	}
	if err := f.guard(ffmpeg.OptionAudioBitrate); err != nil {
		return err
	}
	if !bitratePattern.MatchString(rate) {
		return f.reject(ffmpeg.OptionAudioBitrate, rate, ErrInvalidOptionValue, "expected a number with optional k or M suffix")
	}
	if !allowed(f.restrictions.AudioBitrates, rate) {
		return f.reject(ffmpeg.OptionAudioBitrate, rate, ErrRestrictedValue, "bitrate not in allowed list")
	}

	f.audioBitrate.set(s, rate)
	return nil
}

// SetAudioSampleFrequency sets the sample rate in Hz for spec. Zero clears it.
func (f *Format) SetAudioSampleFrequency(hz int, spec string) error {
	s, err := f.specifier(ffmpeg.OptionAudioSampleFrequency, spec)
	if err != nil {
		return err
	}
	if hz == 0 {
		f.audioSampleFrequency.clear(s)
		return nil
	}
	if hz < 0 {
		return f.reject(ffmpeg.OptionAudioSampleFrequency, hz, ErrInvalidOptionValue, "must be positive")
	}
	if !allowed(f.restrictions.SampleFrequencies, hz) {
		return f.reject(ffmpeg.OptionAudioSampleFrequency, hz, ErrRestrictedValue, "sample frequency not in allowed list")
	}

	f.audioSampleFrequency.set(s, hz)
	return nil
}

// SetAudioChannels sets the channel count for spec. Zero clears it.
func (f *Format) SetAudioChannels(channels int, spec string) error {
	s, err := f.specifier(ffmpeg.OptionAudioChannels, spec)
	if err != nil {
		return err
	}
	if channels == 0 {
		f.audioChannels.clear(s)
		return nil
	}
	if channels < 0 {
		return f.reject(ffmpeg.OptionAudioChannels, channels, ErrInvalidOptionValue, "must be positive")
	}

	f.audioChannels.set(s, channels)
	return nil
}

// AudioCodec returns the codec set for spec.
func (f *Format) AudioCodec(spec string) (string, bool) {
	s, err := streamspec.Parse(spec)
	if err != nil {
		return "", false
	}
	return f.audioCodec.get(s)
}

// AudioSampleFrequency returns the sample rate set for spec.
func (f *Format) AudioSampleFrequency(spec string) (int, bool) {
	s, err := streamspec.Parse(spec)
	if err != nil {
		return 0, false
	}
	return f.audioSampleFrequency.get(s)
}

// AudioDisabled reports whether audio is dropped.
func (f *Format) AudioDisabled() bool {
	return f.disableAudio
}

// AddCommand appends a literal flag and optional value after all option
// arguments.
func (f *Format) AddCommand(flag, value string) {
	if flag == "" {
		return
	}
	f.extra = append(f.extra, flag)
	if value != "" {
		f.extra = append(f.extra, value)
	}
}

// ExtraArgs returns the literal arguments added with AddCommand.
func (f *Format) ExtraArgs() []string {
	return append([]string(nil), f.extra...)
}

// Clear removes option for spec, or entirely when spec is empty. Options
// that are not stream scoped ignore spec.
func (f *Format) Clear(option ffmpeg.OptionType, spec string) error {
	s, err := f.specifier(option, spec)
	if err != nil {
		return err
	}
	switch option {
	case ffmpeg.OptionDisableAudio:
		f.disableAudio = false
	case ffmpeg.OptionAudioCodec:
		f.audioCodec.clear(s)
	case ffmpeg.OptionAudioBitrate:
		f.audioBitrate.clear(s)
	case ffmpeg.OptionAudioSampleFrequency:
		f.audioSampleFrequency.clear(s)
	case ffmpeg.OptionAudioChannels:
		f.audioChannels.clear(s)
	default:
		return f.reject(option, nil, ErrInvalidOperation, "not an audio option")
	}
	return nil
}

// Entries returns the configured values of an audio option.
func (f *Format) Entries(option ffmpeg.OptionType) []Entry {
	switch option {
	case ffmpeg.OptionDisableAudio:
		if f.disableAudio {
			return []Entry{{}}
		}
	case ffmpeg.OptionAudioCodec:
		return settingEntries(&f.audioCodec, identity)
	case ffmpeg.OptionAudioBitrate:
		return settingEntries(&f.audioBitrate, identity)
	case ffmpeg.OptionAudioSampleFrequency:
		return settingEntries(&f.audioSampleFrequency, strconv.Itoa)
	case ffmpeg.OptionAudioChannels:
		return settingEntries(&f.audioChannels, strconv.Itoa)
	}
	return nil
}

// Args synthesizes the audio arguments of f with the default templates.
func (f *Format) Args() ([]string, error) {
	args, err := Synthesize(f, ffmpeg.DefaultTable())
	if err != nil {
		return nil, err
	}
	metrics.RecordSynthesis(len(args))
	return args, nil
}

// normalizeCodec maps alternate codec names to the one the catalog knows,
// preferring the first name of each pair.
func (f *Format) normalizeCodec(kind capabilities.Kind, codec string, aliases [][2]string) string {
	for _, pair := range aliases {
		if codec != pair[0] && codec != pair[1] {
			continue
		}
		if f.catalog.HasCodec(kind, pair[0]) {
			return pair[0]
		}
		return pair[1]
	}
	return codec
}

var bitratePattern = regexp.MustCompile(`^[0-9]+(\.[0-9]+)?[kKmM]?$`)

func identity(s string) string { return s }

func settingEntries[T any](s *scoped[T], format func(T) string) []Entry {
	var entries []Entry
	s.each(func(spec streamspec.Specifier, v T) {
		entries = append(entries, Entry{
			Specifier: spec,
			Values:    ffmpeg.Values{ffmpeg.PlaceholderSetting: format(v)},
		})
	})
	return entries
}
