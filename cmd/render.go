package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/videoformat/internal/capabilities"
	"github.com/smazurov/videoformat/internal/config"
	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/format"
	"github.com/smazurov/videoformat/internal/logging"
	"github.com/smazurov/videoformat/internal/metrics"
	"github.com/smazurov/videoformat/internal/probe"
)

const defaultProbeTimeout = 10 * time.Second

// RenderOptions configure the render command. Tagged fields may also come
// from the config file or VIDEOFORMAT_* environment variables.
type RenderOptions struct {
	Config string

	FFmpegPath       string `toml:"ffmpeg.path" env:"FFMPEG_PATH" flag:"ffmpeg"`
	FFprobePath      string `toml:"ffmpeg.ffprobe_path" env:"FFPROBE_PATH" flag:"ffprobe"`
	CapabilitiesFile string `toml:"capabilities.file" env:"CAPABILITIES_FILE" flag:"capabilities"`
	ProfileFile      string `toml:"render.profile" env:"PROFILE" flag:"profile"`
	ProbeTimeout     string `toml:"render.probe_timeout" env:"PROBE_TIMEOUT"`
	MetricsFile      string `toml:"metrics.textfile" env:"METRICS_TEXTFILE" flag:"metrics-file"`
	LoggingLevel     string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `toml:"logging.format" env:"LOGGING_FORMAT"`

	Input       string
	SaveProfile string
	Stats       bool
	Watch       bool
	Direction   string

	VideoCodec   string
	Quality      int
	Size         string
	Scale        string
	AspectRatio  string
	FrameRate    string
	VideoBitrate string
	PixelFormat  string
	Rotation     string
	Pad          string
	PadColour    string
	FlipH        bool
	FlipV        bool
	MaxFrames    int
	Filters      []string
	NoVideo      bool

	AudioCodec   string
	AudioBitrate string
	SampleRate   int
	Channels     int
	NoAudio      bool
}

// CreateRenderCmd creates the render command.
func CreateRenderCmd() *cobra.Command {
	opts := &RenderOptions{}

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print the ffmpeg arguments for a format",
		Long: `Builds a format from a TOML profile and command line overrides, finalizes it ` +
			`against the probed input and prints the resulting ffmpeg arguments to stdout.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts, cmd); err != nil {
				return err
			}
			initLogging(opts.Config, opts.LoggingLevel, opts.LoggingFormat)
			cmd.SilenceUsage = true
			return runRender(cmd.Context(), opts, cmd.Flags().Changed, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Config, "config", "c", "videoformat.toml", "Path to configuration file")
	f.StringVar(&opts.FFmpegPath, "ffmpeg", "ffmpeg", "ffmpeg binary used for capability discovery")
	f.StringVar(&opts.FFprobePath, "ffprobe", "ffprobe", "ffprobe binary used to inspect the input")
	f.StringVar(&opts.CapabilitiesFile, "capabilities", "", "Capability snapshot (written on first discovery)")
	f.StringVarP(&opts.ProfileFile, "profile", "p", "", "Format profile (TOML)")
	f.StringVar(&opts.ProbeTimeout, "probe-timeout", defaultProbeTimeout.String(), "Timeout for probing the input")
	f.StringVar(&opts.MetricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after rendering")
	f.StringVar(&opts.LoggingLevel, "logging-level", "", "Global logging level (debug, info, warn, error)")
	f.StringVar(&opts.LoggingFormat, "logging-format", "", "Logging format (text, json)")

	f.StringVarP(&opts.Input, "input", "i", "", "Source file to probe before finalizing")
	f.StringVar(&opts.SaveProfile, "save-profile", "", "Write the merged profile to this path")
	f.BoolVar(&opts.Stats, "stats", false, "Log option and rule statistics after rendering")
	f.BoolVarP(&opts.Watch, "watch", "w", false, "Re-render whenever the profile file changes")
	f.StringVar(&opts.Direction, "direction", "output", "Format direction (input, output)")

	f.StringVar(&opts.VideoCodec, "video-codec", "", "Video codec")
	f.IntVar(&opts.Quality, "quality", 0, "Video quality, 0-100")
	f.StringVar(&opts.Size, "size", "", "Frame size as WIDTHxHEIGHT or a preset name (vga, hd720, ...)")
	f.StringVar(&opts.Scale, "scale", "", "Scale filter size as WIDTHxHEIGHT")
	f.StringVar(&opts.AspectRatio, "aspect", "", "Display aspect ratio (16:9 or 1.778)")
	f.StringVar(&opts.FrameRate, "frame-rate", "", "Frame rate (25 or 30000/1001)")
	f.StringVar(&opts.VideoBitrate, "video-bitrate", "", "Video bitrate (800k, 2M)")
	f.StringVar(&opts.PixelFormat, "pixel-format", "", "Pixel format")
	f.StringVar(&opts.Rotation, "rotate", "", "Rotation in degrees, or auto")
	f.StringVar(&opts.Pad, "pad", "", "Padding insets as TOP:RIGHT:BOTTOM:LEFT")
	f.StringVar(&opts.PadColour, "pad-colour", "", "Padding colour")
	f.BoolVar(&opts.FlipH, "hflip", false, "Flip horizontally")
	f.BoolVar(&opts.FlipV, "vflip", false, "Flip vertically")
	f.IntVar(&opts.MaxFrames, "max-frames", 0, "Stop after this many video frames")
	f.StringArrayVar(&opts.Filters, "filter", nil, "Additional video filter (repeatable)")
	f.BoolVar(&opts.NoVideo, "no-video", false, "Disable video")

	f.StringVar(&opts.AudioCodec, "audio-codec", "", "Audio codec")
	f.StringVar(&opts.AudioBitrate, "audio-bitrate", "", "Audio bitrate")
	f.IntVar(&opts.SampleRate, "sample-rate", 0, "Audio sample frequency in Hz")
	f.IntVar(&opts.Channels, "channels", 0, "Audio channel count")
	f.BoolVar(&opts.NoAudio, "no-audio", false, "Disable audio")

	return cmd
}

func runRender(ctx context.Context, opts *RenderOptions, changed func(string) bool, out io.Writer) error {
	logger := logging.GetLogger("cli")

	if opts.Watch && opts.ProfileFile == "" {
		return errors.New("--watch requires --profile")
	}

	catalog, err := loadCatalog(ctx, opts.CapabilitiesFile, opts.FFmpegPath)
	if err != nil {
		return err
	}

	var src probe.SourceInfo
	if opts.Input != "" {
		if src, err = probeInput(ctx, opts); err != nil {
			return err
		}
	}

	profile := &format.Profile{}
	if opts.ProfileFile != "" {
		if profile, err = format.LoadProfile(opts.ProfileFile); err != nil {
			return err
		}
		logger.Debug("Loaded profile", "path", opts.ProfileFile)
	}
	if err := renderProfile(opts, profile, catalog, src, changed, out); err != nil {
		return err
	}
	if !opts.Watch {
		return nil
	}

	// Each change re-renders; a broken profile is reported and the watch goes on.
	watcher := config.NewWatcher(opts.ProfileFile, format.LoadProfile)
	return watcher.Run(ctx, func(p *format.Profile, loadErr error) {
		if loadErr != nil {
			return
		}
		if err := renderProfile(opts, p, catalog, src, changed, out); err != nil {
			logger.Error("Failed to render profile", "path", opts.ProfileFile, "error", err)
		}
	})
}

func probeInput(ctx context.Context, opts *RenderOptions) (probe.SourceInfo, error) {
	timeout := defaultProbeTimeout
	if opts.ProbeTimeout != "" {
		var err error
		if timeout, err = time.ParseDuration(opts.ProbeTimeout); err != nil {
			return probe.SourceInfo{}, fmt.Errorf("invalid probe timeout %q: %w", opts.ProbeTimeout, err)
		}
	}
	probeCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	src, err := probe.Probe(probeCtx, opts.FFprobePath, opts.Input)
	if err != nil {
		return probe.SourceInfo{}, fmt.Errorf("failed to probe input: %w", err)
	}
	logging.GetLogger("cli").Debug("Probed input", "input", opts.Input, "width", src.Width, "height", src.Height,
		"rotation", src.Rotation, "aspect", src.DisplayAspectRatio)
	return src, nil
}

// renderProfile overlays the changed flags on profile, builds and finalizes
// the format and prints its arguments.
func renderProfile(opts *RenderOptions, profile *format.Profile, catalog format.Catalog,
	src probe.SourceInfo, changed func(string) bool, out io.Writer,
) error {
	logger := logging.GetLogger("cli")

	if err := opts.overlay(profile, changed); err != nil {
		return err
	}
	v, err := profile.NewFormat(catalog)
	if err != nil {
		return err
	}
	if err := v.Finalize(src, nil); err != nil {
		return err
	}
	args, err := v.Args()
	if err != nil {
		return err
	}

	if opts.SaveProfile != "" {
		if err := profile.Save(opts.SaveProfile); err != nil {
			return err
		}
		logger.Info("Saved profile", "path", opts.SaveProfile)
	}

	if _, err := fmt.Fprintln(out, ffmpeg.ShellJoin(args)); err != nil {
		return err
	}

	if opts.Stats {
		stats := metrics.GetFormatStats()
		logger.Info("Format statistics",
			"synthesized", stats.Synthesized,
			"rules", stats.Rules,
			"rejections", stats.Rejections)
	}
	if opts.MetricsFile != "" {
		if err := metrics.WriteTextfile(opts.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics", "path", opts.MetricsFile, "error", err)
		}
	}
	return nil
}

// overlay copies the flags that were set on the command line into p,
// replacing profile values.
func (o *RenderOptions) overlay(p *format.Profile, changed func(string) bool) error {
	if changed("direction") {
		p.Direction = o.Direction
	}

	a := &p.Audio
	if changed("no-audio") {
		a.Disable = o.NoAudio
	}
	if changed("audio-codec") {
		a.Codec = o.AudioCodec
	}
	if changed("audio-bitrate") {
		a.Bitrate = o.AudioBitrate
	}
	if changed("sample-rate") {
		a.SampleFrequency = o.SampleRate
	}
	if changed("channels") {
		a.Channels = o.Channels
	}

	v := &p.Video
	if changed("no-video") {
		v.Disable = o.NoVideo
	}
	if changed("video-codec") {
		v.Codec = o.VideoCodec
	}
	if changed("quality") {
		q := o.Quality
		v.Quality = &q
	}
	if changed("size") {
		if w, h, err := parseSize(o.Size); err == nil {
			v.Preset, v.Width, v.Height = "", w, h
		} else {
			v.Preset, v.Width, v.Height = o.Size, 0, 0
		}
	}
	if changed("scale") {
		w, h, err := parseSize(o.Scale)
		if err != nil {
			return fmt.Errorf("--scale: %w", err)
		}
		v.Scale = &format.Size{Width: w, Height: h}
	}
	if changed("aspect") {
		v.AspectRatio = o.AspectRatio
	}
	if changed("frame-rate") {
		v.FrameRate = o.FrameRate
	}
	if changed("video-bitrate") {
		v.Bitrate = o.VideoBitrate
	}
	if changed("pixel-format") {
		v.PixelFormat = o.PixelFormat
	}
	if changed("rotate") {
		v.Rotation = o.Rotation
	}
	if changed("pad") {
		pad, err := parseInsets(o.Pad)
		if err != nil {
			return fmt.Errorf("--pad: %w", err)
		}
		if v.Padding != nil {
			pad.Width, pad.Height, pad.Colour = v.Padding.Width, v.Padding.Height, v.Padding.Colour
		}
		v.Padding = pad
	}
	if changed("pad-colour") {
		if v.Padding == nil {
			return errors.New("--pad-colour requires --pad or a profile with padding")
		}
		v.Padding.Colour = o.PadColour
	}
	if changed("hflip") {
		v.FlipHorizontal = o.FlipH
	}
	if changed("vflip") {
		v.FlipVertical = o.FlipV
	}
	if changed("max-frames") {
		v.MaxFrames = o.MaxFrames
	}
	if changed("filter") {
		v.Filters = append(v.Filters, o.Filters...)
	}
	return nil
}

// parseSize parses WIDTHxHEIGHT.
func parseSize(s string) (int, int, error) {
	ws, hs, ok := strings.Cut(strings.ToLower(s), "x")
	if !ok {
		return 0, 0, fmt.Errorf("size %q is not WIDTHxHEIGHT", s)
	}
	w, err := strconv.Atoi(ws)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: bad width: %w", s, err)
	}
	h, err := strconv.Atoi(hs)
	if err != nil {
		return 0, 0, fmt.Errorf("size %q: bad height: %w", s, err)
	}
	return w, h, nil
}

// parseInsets parses TOP:RIGHT:BOTTOM:LEFT.
func parseInsets(s string) (*format.PaddingProfile, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 4 {
		return nil, fmt.Errorf("insets %q are not TOP:RIGHT:BOTTOM:LEFT", s)
	}
	var values [4]int
	for i, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("insets %q: %w", s, err)
		}
		values[i] = n
	}
	return &format.PaddingProfile{Top: values[0], Right: values[1], Bottom: values[2], Left: values[3]}, nil
}

// loadCatalog reads the capability snapshot at path, discovering and
// writing it first when the file does not exist. An empty path always
// discovers.
func loadCatalog(ctx context.Context, path, ffmpegPath string) (*capabilities.Catalog, error) {
	logger := logging.GetLogger("cli")

	if path != "" {
		catalog, err := capabilities.Load(path)
		if err == nil {
			return catalog, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		logger.Info("Capability snapshot missing, discovering", "path", path)
	}

	catalog, err := capabilities.Discover(ctx, ffmpegPath)
	if err != nil {
		return nil, fmt.Errorf("failed to discover ffmpeg capabilities: %w", err)
	}
	if path != "" {
		if err := catalog.Save(path); err != nil {
			logger.Warn("Failed to write capability snapshot", "path", path, "error", err)
		}
	}
	return catalog, nil
}

// initLogging applies the config file's [logging] table with command line
// level and format on top.
func initLogging(configPath, level, format string) {
	cfg := config.LoadLoggingConfig(configPath)
	if level != "" {
		cfg.Level = level
	}
	if format != "" {
		cfg.Format = format
	}
	logging.Initialize(cfg)
}
