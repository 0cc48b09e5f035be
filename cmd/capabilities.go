package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/smazurov/videoformat/internal/capabilities"
	"github.com/smazurov/videoformat/internal/config"
	"github.com/smazurov/videoformat/internal/logging"
)

// CapabilitiesOptions configure the capabilities command.
type CapabilitiesOptions struct {
	Config string

	FFmpegPath    string `toml:"ffmpeg.path" env:"FFMPEG_PATH" flag:"ffmpeg"`
	Output        string `toml:"capabilities.file" env:"CAPABILITIES_FILE"`
	LoggingLevel  string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat string `toml:"logging.format" env:"LOGGING_FORMAT"`

	List    string
	Timeout time.Duration
}

// CreateCapabilitiesCmd creates the capabilities command.
func CreateCapabilitiesCmd() *cobra.Command {
	opts := &CapabilitiesOptions{}

	cmd := &cobra.Command{
		Use:   "capabilities",
		Short: "Discover ffmpeg codecs, pixel formats and filters",
		Long: `Queries the ffmpeg binary for its encoders, pixel formats and filters and writes ` +
			`a TOML snapshot that render uses to validate option values.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts, cmd); err != nil {
				return err
			}
			initLogging(opts.Config, opts.LoggingLevel, opts.LoggingFormat)
			cmd.SilenceUsage = true

			ctx, cancel := context.WithTimeout(cmd.Context(), opts.Timeout)
			defer cancel()
			catalog, err := capabilities.Discover(ctx, opts.FFmpegPath)
			if err != nil {
				return err
			}
			return writeCapabilities(catalog, opts, cmd.OutOrStdout())
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Config, "config", "c", "videoformat.toml", "Path to configuration file")
	f.StringVar(&opts.FFmpegPath, "ffmpeg", "ffmpeg", "ffmpeg binary to query")
	f.StringVarP(&opts.Output, "output", "o", "capabilities.toml", "Snapshot file to write, empty to skip")
	f.StringVar(&opts.LoggingLevel, "logging-level", "", "Global logging level (debug, info, warn, error)")
	f.StringVar(&opts.LoggingFormat, "logging-format", "", "Logging format (text, json)")
	f.StringVar(&opts.List, "list", "", "Print the codec names of a kind (video, audio, subtitle)")
	f.DurationVar(&opts.Timeout, "timeout", 30*time.Second, "Timeout for all ffmpeg queries")

	return cmd
}

func writeCapabilities(catalog *capabilities.Catalog, opts *CapabilitiesOptions, out io.Writer) error {
	logger := logging.GetLogger("cli")

	if opts.Output != "" {
		if err := catalog.Save(opts.Output); err != nil {
			return err
		}
		logger.Info("Wrote capability snapshot", "path", opts.Output, "version", catalog.FFmpegVersion)
	}

	if opts.List != "" {
		kind := capabilities.Kind(opts.List)
		switch kind {
		case capabilities.KindVideo, capabilities.KindAudio, capabilities.KindSubtitle:
		default:
			return fmt.Errorf("unknown codec kind %q", opts.List)
		}
		for _, name := range catalog.Codecs(kind) {
			fmt.Fprintln(out, name)
		}
		return nil
	}

	fmt.Fprintf(out, "ffmpeg %s: %d video codecs, %d audio codecs, %d pixel formats, %d filters\n",
		catalog.FFmpegVersion, len(catalog.VideoCodecs), len(catalog.AudioCodecs),
		len(catalog.PixelFormats), len(catalog.Filters))
	return nil
}
