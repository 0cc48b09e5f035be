package cmd

import (
	"github.com/spf13/cobra"

	"github.com/smazurov/videoformat/internal/api"
	"github.com/smazurov/videoformat/internal/config"
	"github.com/smazurov/videoformat/internal/metrics"
)

// ServeOptions configure the serve command.
type ServeOptions struct {
	Config string

	Addr             string `toml:"server.addr" env:"SERVER_ADDR"`
	FFmpegPath       string `toml:"ffmpeg.path" env:"FFMPEG_PATH" flag:"ffmpeg"`
	CapabilitiesFile string `toml:"capabilities.file" env:"CAPABILITIES_FILE" flag:"capabilities"`
	NoMetrics        bool   `toml:"metrics.disable" env:"METRICS_DISABLE"`
	LoggingLevel     string `toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `toml:"logging.format" env:"LOGGING_FORMAT"`
}

// CreateServeCmd creates the serve command.
func CreateServeCmd() *cobra.Command {
	opts := &ServeOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve profile rendering over HTTP",
		Long: `Starts an HTTP API that renders JSON format profiles into ffmpeg arguments. ` +
			`OpenAPI documentation is served at /docs and Prometheus metrics at /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := config.LoadConfig(opts, cmd); err != nil {
				return err
			}
			initLogging(opts.Config, opts.LoggingLevel, opts.LoggingFormat)
			cmd.SilenceUsage = true

			catalog, err := loadCatalog(cmd.Context(), opts.CapabilitiesFile, opts.FFmpegPath)
			if err != nil {
				return err
			}

			serverOpts := &api.Options{Catalog: catalog}
			if !opts.NoMetrics {
				serverOpts.PrometheusHandler = metrics.Handler()
			}
			return api.NewServer(serverOpts).Run(cmd.Context(), opts.Addr)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.Config, "config", "c", "videoformat.toml", "Path to configuration file")
	f.StringVarP(&opts.Addr, "addr", "a", ":8090", "Address to listen on")
	f.StringVar(&opts.FFmpegPath, "ffmpeg", "ffmpeg", "ffmpeg binary used for capability discovery")
	f.StringVar(&opts.CapabilitiesFile, "capabilities", "capabilities.toml", "Capability snapshot, discovered when missing")
	f.BoolVar(&opts.NoMetrics, "no-metrics", false, "Do not expose /metrics")
	f.StringVar(&opts.LoggingLevel, "logging-level", "", "Global logging level (debug, info, warn, error)")
	f.StringVar(&opts.LoggingFormat, "logging-format", "", "Logging format (text, json)")

	return cmd
}
