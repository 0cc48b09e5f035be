package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/smazurov/videoformat/cmd"
	"github.com/smazurov/videoformat/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:     "videoformat",
		Short:   "Validate ffmpeg format options and synthesize command arguments",
		Version: version.String(),
	}
	root.AddCommand(cmd.CreateRenderCmd())
	root.AddCommand(cmd.CreateCapabilitiesCmd())
	root.AddCommand(cmd.CreateServeCmd())

	// Interrupt stops serve and render --watch, and aborts running ffmpeg/ffprobe queries.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
