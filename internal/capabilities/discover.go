package capabilities

import (
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/logging"
)

// IsFFmpegInstalled checks if ffmpeg is installed and available
func IsFFmpegInstalled(binary string) bool {
	if binary == "" {
		binary = ffmpeg.DefaultFFmpeg
	}
	_, err := exec.LookPath(binary)
	return err == nil
}

// Discover queries an ffmpeg binary for its encoders, pixel formats and
// filters. An empty binary means "ffmpeg" from PATH.
func Discover(ctx context.Context, binary string) (*Catalog, error) {
	logger := logging.GetLogger("capabilities")

	if binary == "" {
		binary = ffmpeg.DefaultFFmpeg
	}
	if !IsFFmpegInstalled(binary) {
		return nil, fmt.Errorf("%s is not installed or not in PATH", binary)
	}

	versionOut, err := run(ctx, binary, "-hide_banner", "-version")
	if err != nil {
		return nil, err
	}

	encodersOut, err := run(ctx, binary, ffmpeg.EncodersListArgs()...)
	if err != nil {
		return nil, err
	}
	encoders, err := ParseEncoders(encodersOut)
	if err != nil {
		return nil, err
	}

	pixOut, err := run(ctx, binary, ffmpeg.PixelFormatsListArgs()...)
	if err != nil {
		return nil, err
	}
	pixelFormats, err := ParsePixelFormats(pixOut)
	if err != nil {
		return nil, err
	}

	filtersOut, err := run(ctx, binary, ffmpeg.FiltersListArgs()...)
	if err != nil {
		return nil, err
	}
	filters, err := ParseFilters(filtersOut)
	if err != nil {
		return nil, err
	}

	catalog := New(
		encoders.Names(VideoEncoder),
		encoders.Names(AudioEncoder),
		pixelFormats,
		filters,
	)
	catalog.SubtitleCodecs = sortedUnique(encoders.Names(SubtitleEncoder))
	catalog.FFmpegVersion = ParseVersion(versionOut)
	catalog.Timestamp = time.Now().UTC().Format(time.RFC3339)

	logger.Debug("Discovered ffmpeg capabilities",
		"version", catalog.FFmpegVersion,
		"video_codecs", len(catalog.VideoCodecs),
		"audio_codecs", len(catalog.AudioCodecs),
		"pixel_formats", len(catalog.PixelFormats),
		"filters", len(catalog.Filters))

	return catalog, nil
}

func run(ctx context.Context, binary string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to execute %s %v: %w", binary, args, err)
	}
	return string(output), nil
}
