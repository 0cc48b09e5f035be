package cmd

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/smazurov/videoformat/internal/capabilities"
)

func TestWriteCapabilities(t *testing.T) {
	catalog := capabilities.New(
		[]string{"mpeg4", "libx264"},
		[]string{"aac"},
		[]string{"yuv420p"},
		[]string{"scale"},
	)
	catalog.FFmpegVersion = "6.1.1"

	tests := []struct {
		name    string
		list    string
		want    string
		wantErr bool
	}{
		{name: "summary", want: "ffmpeg 6.1.1: 2 video codecs, 1 audio codecs, 1 pixel formats, 1 filters"},
		{name: "video list", list: "video", want: "libx264\nmpeg4"},
		{name: "unknown kind", list: "pixel", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := &CapabilitiesOptions{
				Output: filepath.Join(t.TempDir(), "caps", "capabilities.toml"),
				List:   tt.list,
			}
			var out bytes.Buffer
			err := writeCapabilities(catalog, opts, &out)
			if tt.wantErr {
				if err == nil {
					t.Error("writeCapabilities() expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("writeCapabilities() unexpected error: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}

			saved, err := capabilities.Load(opts.Output)
			if err != nil {
				t.Fatalf("Load() unexpected error: %v", err)
			}
			if !saved.HasCodec(capabilities.KindVideo, "mpeg4") {
				t.Error("saved snapshot is missing mpeg4")
			}
		})
	}
}
