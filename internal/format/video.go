package format

import (
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/smazurov/videoformat/internal/capabilities"
	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/metrics"
	"github.com/smazurov/videoformat/internal/streamspec"
)

// Dimensions is a frame size. The zero value stands for the source size.
type Dimensions struct {
	Width  int
	Height int
}

func (d Dimensions) isZero() bool {
	return d.Width == 0 && d.Height == 0
}

// Insets are the pad widths added on each side of the frame.
type Insets struct {
	Top    int
	Right  int
	Bottom int
	Left   int
}

// Padding is a configured pad filter. Width and Height are the padded
// frame size and stay zero until the content size is known.
type Padding struct {
	Insets
	Width  int
	Height int
	Colour string

	// requested content size, zero when it was left for resolution
	contentWidth  int
	contentHeight int
}

// Resolved reports whether the padded size is known.
func (p Padding) Resolved() bool {
	return p.Width > 0 && p.Height > 0
}

// X is the horizontal offset of the content inside the padded frame.
func (p Padding) X() int { return p.Left }

// Y is the vertical offset of the content inside the padded frame.
func (p Padding) Y() int { return p.Top }

// Rotation is a configured quarter turn.
type Rotation int

const (
	RotationNone Rotation = iota
	// RotationAuto resolves the angle from source metadata at finalize.
	RotationAuto
	RotationClockwise
	RotationCounterClockwise
)

func (r Rotation) String() string {
	switch r {
	case RotationAuto:
		return "auto"
	case RotationClockwise:
		return "clockwise"
	case RotationCounterClockwise:
		return "counterclockwise"
	}
	return "none"
}

// transpose returns the transpose filter argument for r.
func (r Rotation) transpose() string {
	switch r {
	case RotationClockwise:
		return "1"
	case RotationCounterClockwise:
		return "2"
	}
	return ""
}

var videoCodecAliases = [][2]string{
	{"libx264", "h264"},
	{"libtheora", "theora"},
	{"libvpx", "vp8"},
}

var (
	aspectPattern         = regexp.MustCompile(`^[0-9]+[.:][0-9]+$`)
	frameRateRatioPattern = regexp.MustCompile(`^([0-9]+)/([0-9]+)$`)
)

const defaultPadColour = "black"

// VideoFormat extends the audio options of Format with video options.
type VideoFormat struct {
	Format

	disableVideo bool
	videoCodec   scoped[string]
	quality      scoped[int]
	dimensions   scoped[Dimensions]
	scale        *Dimensions
	padding      *Padding
	aspectRatio  scoped[string]
	frameRate    scoped[string]
	bitrate      scoped[string]
	pixelFormat  scoped[string]
	rotation     Rotation
	flipH        bool
	flipV        bool
	maxFrames    int
	filters      []string
}

// NewVideo returns an empty video format. A nil catalog supports nothing.
func NewVideo(dir Direction, catalog Catalog, opts ...Option) *VideoFormat {
	v := &VideoFormat{}
	v.init(dir, catalog, opts)
	return v
}

// DisableVideo drops all video streams from the output.
func (v *VideoFormat) DisableVideo() error {
	if err := v.guard(ffmpeg.OptionDisableVideo); err != nil {
		return err
	}
	v.disableVideo = true
	return nil
}

// EnableVideo undoes DisableVideo.
func (v *VideoFormat) EnableVideo() {
	v.disableVideo = false
}

// VideoDisabled reports whether video is dropped.
func (v *VideoFormat) VideoDisabled() bool {
	return v.disableVideo
}

// SetVideoCodec sets the video codec for spec. An empty codec clears it.
// Alternate names such as h264 and libx264 resolve to whichever the
// catalog provides.
func (v *VideoFormat) SetVideoCodec(codec, spec string) error {
	s, err := v.specifier(ffmpeg.OptionVideoCodec, spec)
	if err != nil {
		return err
	}
	if codec == "" {
		v.videoCodec.clear(s)
		return nil
	}
	if err := v.guard(ffmpeg.OptionVideoCodec); err != nil {
		return err
	}

	codec = v.normalizeCodec(capabilities.KindVideo, codec, videoCodecAliases)
	if codec != "copy" && !v.catalog.HasCodec(capabilities.KindVideo, codec) {
		return v.reject(ffmpeg.OptionVideoCodec, codec, ErrUnsupportedByEngine, "codec not available")
	}
	if !allowed(v.restrictions.VideoCodecs, codec) {
		return v.reject(ffmpeg.OptionVideoCodec, codec, ErrRestrictedValue, "codec not in allowed list: "+strings.Join(v.restrictions.VideoCodecs, ", "))
	}

	v.videoCodec.set(s, codec)
	return nil
}

// SetVideoDimensions sets the frame size for spec. Zero width and height
// clear it.
func (v *VideoFormat) SetVideoDimensions(width, height int, spec string) error {
	s, err := v.specifier(ffmpeg.OptionVideoDimensions, spec)
	if err != nil {
		return err
	}
	if width == 0 && height == 0 {
		v.dimensions.clear(s)
		return nil
	}
	if err := v.guard(ffmpeg.OptionVideoDimensions); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return v.reject(ffmpeg.OptionVideoDimensions, strconv.Itoa(width)+"x"+strconv.Itoa(height), ErrInvalidOptionValue, "width and height must be positive")
	}

	v.dimensions.set(s, Dimensions{Width: width, Height: height})
	return nil
}

// SetVideoDimensionPreset sets the frame size for spec from a preset.
// DimensionSameAsSource keeps the source size and emits no flag.
func (v *VideoFormat) SetVideoDimensionPreset(d Dimension, spec string) error {
	s, err := v.specifier(ffmpeg.OptionVideoDimensions, spec)
	if err != nil {
		return err
	}
	if err := v.guard(ffmpeg.OptionVideoDimensions); err != nil {
		return err
	}
	if !d.valid() {
		return v.reject(ffmpeg.OptionVideoDimensions, d, ErrInvalidOptionValue, "unknown preset")
	}

	w, h, _ := d.Resolve()
	v.dimensions.set(s, Dimensions{Width: w, Height: h})
	return nil
}

// VideoDimensions returns the frame size set for spec. A zero value with
// ok set means the source size.
func (v *VideoFormat) VideoDimensions(spec string) (Dimensions, bool) {
	s, err := streamspec.Parse(spec)
	if err != nil {
		return Dimensions{}, false
	}
	return v.dimensions.get(s)
}

// SetVideoScale adds a scale filter. Zero width and height clear it.
func (v *VideoFormat) SetVideoScale(width, height int) error {
	if width == 0 && height == 0 {
		v.scale = nil
		return nil
	}
	if err := v.guard(ffmpeg.OptionVideoScale); err != nil {
		return err
	}
	if width <= 0 || height <= 0 {
		return v.reject(ffmpeg.OptionVideoScale, strconv.Itoa(width)+"x"+strconv.Itoa(height), ErrInvalidOptionValue, "width and height must be positive")
	}

	v.scale = &Dimensions{Width: width, Height: height}
	return nil
}

// VideoScale returns the scale filter size.
func (v *VideoFormat) VideoScale() (Dimensions, bool) {
	if v.scale == nil {
		return Dimensions{}, false
	}
	return *v.scale, true
}

// SetVideoPadding pads the frame by insets. width and height give the
// content size; when zero they come from the default dimensions option or
// the source size. Once the content size is known the dimensions option
// is replaced by an equivalent scale filter, since ffmpeg applies -s after
// the filter chain. An empty colour means black.
func (v *VideoFormat) SetVideoPadding(insets Insets, width, height int, colour string) error {
	if err := v.guard(ffmpeg.OptionVideoPadding); err != nil {
		return err
	}
	if insets.Top < 0 || insets.Right < 0 || insets.Bottom < 0 || insets.Left < 0 {
		return v.reject(ffmpeg.OptionVideoPadding, insets, ErrInvalidOptionValue, "insets must not be negative")
	}
	if width < 0 || height < 0 {
		return v.reject(ffmpeg.OptionVideoPadding, strconv.Itoa(width)+"x"+strconv.Itoa(height), ErrInvalidOptionValue, "content size must not be negative")
	}
	if colour == "" {
		colour = defaultPadColour
	}
	if strings.ContainsAny(colour, ":, \t") {
		return v.reject(ffmpeg.OptionVideoPadding, colour, ErrInvalidOptionValue, "colour must be a single filter argument")
	}

	v.applyPadding(Padding{
		Insets:        insets,
		Colour:        colour,
		contentWidth:  width,
		contentHeight: height,
	})
	return nil
}

// applyPadding resolves the content size of p and installs it.
func (v *VideoFormat) applyPadding(p Padding) {
	width, height := p.contentWidth, p.contentHeight
	if width == 0 || height == 0 {
		if d, ok := v.dimensions.get(streamspec.DefaultSpecifier()); ok && !d.isZero() {
			if width == 0 {
				width = d.Width
			}
			if height == 0 {
				height = d.Height
			}
		} else if v.sourceDimensions != nil {
			if sw, sh, ok := v.sourceDimensions(); ok {
				if width == 0 {
					width = sw
				}
				if height == 0 {
					height = sh
				}
			}
		}
	}

	p.Width, p.Height = 0, 0
	if width > 0 && height > 0 {
		p.Width = width + p.Left + p.Right
		p.Height = height + p.Top + p.Bottom
	}
	v.padding = &p

	if p.Resolved() {
		v.dimensions.clear(streamspec.DefaultSpecifier())
		v.scale = &Dimensions{Width: width, Height: height}
	}
}

// VideoPadding returns the configured padding.
func (v *VideoFormat) VideoPadding() (Padding, bool) {
	if v.padding == nil {
		return Padding{}, false
	}
	return *v.padding, true
}

// SetVideoAspectRatio sets the display aspect ratio, "16:9" or "1.78", for
// spec. An empty ratio clears it.
func (v *VideoFormat) SetVideoAspectRatio(ratio, spec string) error {
	s, err := v.specifier(ffmpeg.OptionVideoAspectRatio, spec)
	if err != nil {
		return err
	}
	if ratio == "" {
		v.aspectRatio.clear(s)
		return nil
	}
	if err := v.guard(ffmpeg.OptionVideoAspectRatio); err != nil {
		return err
	}
	if !aspectPattern.MatchString(ratio) {
		return v.reject(ffmpeg.OptionVideoAspectRatio, ratio, ErrInvalidOptionValue, "expected W:H or a decimal")
	}

	v.aspectRatio.set(s, ratio)
	return nil
}

// VideoAspectRatio returns the aspect ratio set for spec.
func (v *VideoFormat) VideoAspectRatio(spec string) (string, bool) {
	s, err := streamspec.Parse(spec)
	if err != nil {
		return "", false
	}
	return v.aspectRatio.get(s)
}

// SetVideoFrameRate sets the frame rate for spec: an integer, a decimal or
// an "n/d" fraction, at least 1 frame per second unless given as a
// fraction. An empty rate clears it.
func (v *VideoFormat) SetVideoFrameRate(rate, spec string) error {
	s, err := v.specifier(ffmpeg.OptionVideoFrameRate, spec)
	if err != nil {
		return err
	}
	if rate == "" {
		v.frameRate.clear(s)
		return nil
	}
	if err := v.guard(ffmpeg.OptionVideoFrameRate); err != nil {
		return err
	}
	if !validFrameRate(rate) {
		return v.reject(ffmpeg.OptionVideoFrameRate, rate, ErrInvalidOptionValue, "expected a rate of at least 1 or an n/d fraction")
	}
	if !allowed(v.restrictions.FrameRates, rate) {
		return v.reject(ffmpeg.OptionVideoFrameRate, rate, ErrRestrictedValue, "frame rate not in allowed list")
	}

	v.frameRate.set(s, rate)
	return nil
}

func validFrameRate(rate string) bool {
	if m := frameRateRatioPattern.FindStringSubmatch(rate); m != nil {
		n, errN := strconv.Atoi(m[1])
		d, errD := strconv.Atoi(m[2])
		return errN == nil && errD == nil && n > 0 && d > 0
	}
	if strings.ContainsAny(rate, "eEx+-") {
		return false
	}
	f, err := strconv.ParseFloat(rate, 64)
	return err == nil && f >= 1
}

// SetVideoBitrate sets the video bitrate, such as "2M", for spec. An empty
// rate clears it.
func (v *VideoFormat) SetVideoBitrate(rate, spec string) error {
	s, err := v.specifier(ffmpeg.OptionVideoBitrate, spec)
	if err != nil {
		return err
	}
	if rate == "" {
		v.bitrate.clear(s)
		return nil
	}
	if err := v.guard(ffmpeg.OptionVideoBitrate); err != nil {
		return err
	}
	if !bitratePattern.MatchString(rate) {
		return v.reject(ffmpeg.OptionVideoBitrate, rate, ErrInvalidOptionValue, "expected a number with optional k or M suffix")
	}
	if !allowed(v.restrictions.VideoBitrates, rate) {
		return v.reject(ffmpeg.OptionVideoBitrate, rate, ErrRestrictedValue, "bitrate not in allowed list")
	}

	v.bitrate.set(s, rate)
	return nil
}

// SetVideoPixelFormat sets the pixel format for spec. An empty format
// clears it.
func (v *VideoFormat) SetVideoPixelFormat(pixelFormat, spec string) error {
	s, err := v.specifier(ffmpeg.OptionVideoPixelFormat, spec)
	if err != nil {
		return err
	}
	if pixelFormat == "" {
		v.pixelFormat.clear(s)
		return nil
	}
	if err := v.guard(ffmpeg.OptionVideoPixelFormat); err != nil {
		return err
	}
	if !v.catalog.HasPixelFormat(pixelFormat) {
		return v.reject(ffmpeg.OptionVideoPixelFormat, pixelFormat, ErrUnsupportedByEngine, "pixel format not available")
	}
	if !allowed(v.restrictions.PixelFormats, pixelFormat) {
		return v.reject(ffmpeg.OptionVideoPixelFormat, pixelFormat, ErrRestrictedValue, "pixel format not in allowed list")
	}

	v.pixelFormat.set(s, pixelFormat)
	return nil
}

// SetVideoQuality sets the quality for spec on a 0 (worst) to 100 (best)
// scale. It is stored on ffmpeg's inverted 1 to 31 qscale.
func (v *VideoFormat) SetVideoQuality(quality int, spec string) error {
	s, err := v.specifier(ffmpeg.OptionVideoQuality, spec)
	if err != nil {
		return err
	}
	if err := v.guard(ffmpeg.OptionVideoQuality); err != nil {
		return err
	}
	q, ok := qscale(quality)
	if !ok {
		return v.reject(ffmpeg.OptionVideoQuality, quality, ErrInvalidOptionValue, "quality must be between 0 and 100")
	}

	v.quality.set(s, q)
	return nil
}

// qscale maps a 0-100 quality to ffmpeg's 1-31 scale.
func qscale(quality int) (int, bool) {
	if quality < 0 || quality > 100 {
		return 0, false
	}
	q := 31 - int(float64(quality)/100*31+0.5)
	q = max(q, 1)
	return q, q <= 31
}

// VideoQuality returns the qscale value set for spec.
func (v *VideoFormat) VideoQuality(spec string) (int, bool) {
	s, err := streamspec.Parse(spec)
	if err != nil {
		return 0, false
	}
	return v.quality.get(s)
}

// SetVideoRotation rotates the frame by degrees: 0, ±90, ±180 or ±270.
// Quarter turns use the transpose filter; half turns become a horizontal
// plus vertical flip. 0 clears the rotation and both flips.
func (v *VideoFormat) SetVideoRotation(degrees int) error {
	if err := v.requireTranspose(); err != nil {
		return err
	}

	switch degrees {
	case 0:
		v.rotation = RotationNone
		v.flipH = false
		v.flipV = false
	case 90, -270:
		v.rotation = RotationClockwise
	case 270, -90:
		v.rotation = RotationCounterClockwise
	case 180, -180:
		v.rotation = RotationNone
		v.flipH = true
		v.flipV = true
	default:
		return v.reject(ffmpeg.OptionVideoRotation, degrees, ErrInvalidOptionValue, "expected 0, ±90, ±180 or ±270")
	}
	return nil
}

// SetVideoAutoRotation defers the rotation to finalize time, where it is
// taken from the source's rotate metadata.
func (v *VideoFormat) SetVideoAutoRotation() error {
	if err := v.requireTranspose(); err != nil {
		return err
	}
	v.rotation = RotationAuto
	return nil
}

func (v *VideoFormat) requireTranspose() error {
	if err := v.guard(ffmpeg.OptionVideoRotation); err != nil {
		return err
	}
	if !v.catalog.HasFilter("transpose") {
		return v.reject(ffmpeg.OptionVideoRotation, nil, ErrUnsupportedByEngine, "transpose filter not available")
	}
	return nil
}

// VideoRotation returns the configured rotation.
func (v *VideoFormat) VideoRotation() Rotation {
	return v.rotation
}

// SetVideoFlipHorizontal mirrors the frame left to right.
func (v *VideoFormat) SetVideoFlipHorizontal(on bool) error {
	if err := v.guard(ffmpeg.OptionVideoFlipHorizontal); err != nil {
		return err
	}
	v.flipH = on
	return nil
}

// SetVideoFlipVertical mirrors the frame top to bottom.
func (v *VideoFormat) SetVideoFlipVertical(on bool) error {
	if err := v.guard(ffmpeg.OptionVideoFlipVertical); err != nil {
		return err
	}
	v.flipV = on
	return nil
}

// VideoFlips returns the horizontal and vertical flip flags.
func (v *VideoFormat) VideoFlips() (horizontal, vertical bool) {
	return v.flipH, v.flipV
}

// SetVideoMaxFrames stops encoding after n video frames. Zero clears it.
func (v *VideoFormat) SetVideoMaxFrames(n int) error {
	if n == 0 {
		v.maxFrames = 0
		return nil
	}
	if err := v.guard(ffmpeg.OptionVideoMaxFrames); err != nil {
		return err
	}
	if n < 0 {
		return v.reject(ffmpeg.OptionVideoMaxFrames, n, ErrInvalidOptionValue, "must be positive")
	}
	v.maxFrames = n
	return nil
}

// AddVideoFilter appends a raw filter fragment, such as "eq=gamma=1.2",
// after the built-in filters.
func (v *VideoFormat) AddVideoFilter(fragment string) error {
	if err := v.guard(ffmpeg.OptionVideoFilters); err != nil {
		return err
	}
	fragment = strings.TrimSpace(fragment)
	name := ffmpeg.FilterName(fragment)
	if name == "" || strings.Contains(fragment, ",") {
		return v.reject(ffmpeg.OptionVideoFilters, fragment, ErrInvalidOptionValue, "expected a single filter")
	}
	if !v.catalog.HasFilter(name) {
		return v.reject(ffmpeg.OptionVideoFilters, fragment, ErrUnsupportedByEngine, "filter "+name+" not available")
	}
	v.filters = append(v.filters, fragment)
	return nil
}

// VideoFilters returns the raw filter fragments.
func (v *VideoFormat) VideoFilters() []string {
	return slices.Clone(v.filters)
}

// Clear removes option for spec, or entirely when spec is empty. Options
// that are not stream scoped ignore spec.
func (v *VideoFormat) Clear(option ffmpeg.OptionType, spec string) error {
	s, err := v.specifier(option, spec)
	if err != nil {
		return err
	}
	switch option {
	case ffmpeg.OptionDisableVideo:
		v.disableVideo = false
	case ffmpeg.OptionVideoCodec:
		v.videoCodec.clear(s)
	case ffmpeg.OptionVideoQuality:
		v.quality.clear(s)
	case ffmpeg.OptionVideoDimensions:
		v.dimensions.clear(s)
	case ffmpeg.OptionVideoScale:
		v.scale = nil
	case ffmpeg.OptionVideoPadding:
		v.padding = nil
	case ffmpeg.OptionVideoAspectRatio:
		v.aspectRatio.clear(s)
	case ffmpeg.OptionVideoFrameRate:
		v.frameRate.clear(s)
	case ffmpeg.OptionVideoBitrate:
		v.bitrate.clear(s)
	case ffmpeg.OptionVideoPixelFormat:
		v.pixelFormat.clear(s)
	case ffmpeg.OptionVideoRotation:
		v.rotation = RotationNone
	case ffmpeg.OptionVideoFlipHorizontal:
		v.flipH = false
	case ffmpeg.OptionVideoFlipVertical:
		v.flipV = false
	case ffmpeg.OptionVideoMaxFrames:
		v.maxFrames = 0
	case ffmpeg.OptionVideoFilters:
		v.filters = nil
	default:
		return v.Format.Clear(option, spec)
	}
	return nil
}

// Entries returns the configured values of option.
func (v *VideoFormat) Entries(option ffmpeg.OptionType) []Entry {
	switch option {
	case ffmpeg.OptionDisableVideo:
		return flagEntries(v.disableVideo)
	case ffmpeg.OptionVideoCodec:
		return settingEntries(&v.videoCodec, identity)
	case ffmpeg.OptionVideoQuality:
		return settingEntries(&v.quality, strconv.Itoa)
	case ffmpeg.OptionVideoDimensions:
		var entries []Entry
		v.dimensions.each(func(spec streamspec.Specifier, d Dimensions) {
			if d.isZero() {
				return
			}
			entries = append(entries, Entry{Specifier: spec, Values: sizeValues(d.Width, d.Height)})
		})
		return entries
	case ffmpeg.OptionVideoScale:
		if v.scale != nil {
			return []Entry{{Values: sizeValues(v.scale.Width, v.scale.Height)}}
		}
	case ffmpeg.OptionVideoPadding:
		if v.padding != nil {
			return []Entry{{Values: v.padding.values()}}
		}
	case ffmpeg.OptionVideoAspectRatio:
		var entries []Entry
		v.aspectRatio.each(func(spec streamspec.Specifier, ratio string) {
			entries = append(entries, Entry{Specifier: spec, Values: ffmpeg.Values{ffmpeg.PlaceholderRatio: ratio}})
		})
		return entries
	case ffmpeg.OptionVideoFrameRate:
		return settingEntries(&v.frameRate, identity)
	case ffmpeg.OptionVideoBitrate:
		return settingEntries(&v.bitrate, identity)
	case ffmpeg.OptionVideoPixelFormat:
		return settingEntries(&v.pixelFormat, identity)
	case ffmpeg.OptionVideoRotation:
		if t := v.rotation.transpose(); t != "" {
			return []Entry{{Values: ffmpeg.Values{ffmpeg.PlaceholderSetting: t}}}
		}
	case ffmpeg.OptionVideoFlipHorizontal:
		return flagEntries(v.flipH)
	case ffmpeg.OptionVideoFlipVertical:
		return flagEntries(v.flipV)
	case ffmpeg.OptionVideoMaxFrames:
		if v.maxFrames > 0 {
			return []Entry{{Values: ffmpeg.Values{ffmpeg.PlaceholderSetting: strconv.Itoa(v.maxFrames)}}}
		}
	case ffmpeg.OptionVideoFilters:
		entries := make([]Entry, 0, len(v.filters))
		for _, fragment := range v.filters {
			entries = append(entries, Entry{Values: ffmpeg.Values{ffmpeg.PlaceholderSetting: fragment}})
		}
		return entries
	default:
		return v.Format.Entries(option)
	}
	return nil
}

// Args synthesizes the arguments of v with the default templates.
func (v *VideoFormat) Args() ([]string, error) {
	args, err := Synthesize(v, ffmpeg.DefaultTable())
	if err != nil {
		return nil, err
	}
	metrics.RecordSynthesis(len(args))
	return args, nil
}

func (p *Padding) values() ffmpeg.Values {
	width := strconv.Itoa(p.Width)
	height := strconv.Itoa(p.Height)
	if !p.Resolved() {
		// Left to ffmpeg when the content size never became known.
		width = "iw+" + strconv.Itoa(p.Left+p.Right)
		height = "ih+" + strconv.Itoa(p.Top+p.Bottom)
	}
	return ffmpeg.Values{
		ffmpeg.PlaceholderWidth:  width,
		ffmpeg.PlaceholderHeight: height,
		ffmpeg.PlaceholderX:      strconv.Itoa(p.X()),
		ffmpeg.PlaceholderY:      strconv.Itoa(p.Y()),
		ffmpeg.PlaceholderColour: p.Colour,
	}
}

func sizeValues(width, height int) ffmpeg.Values {
	return ffmpeg.Values{
		ffmpeg.PlaceholderWidth:  strconv.Itoa(width),
		ffmpeg.PlaceholderHeight: strconv.Itoa(height),
	}
}

func flagEntries(on bool) []Entry {
	if on {
		return []Entry{{}}
	}
	return nil
}
