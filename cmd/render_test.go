package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/smazurov/videoformat/internal/capabilities"
	"github.com/smazurov/videoformat/internal/format"
)

func writeCatalog(t *testing.T) string {
	t.Helper()
	catalog := capabilities.New(
		[]string{"libx264", "mpeg4"},
		[]string{"aac", "libmp3lame"},
		[]string{"yuv420p", "nv12"},
		[]string{"scale", "pad", "transpose", "hflip", "vflip", "eq"},
	)
	path := filepath.Join(t.TempDir(), "capabilities.toml")
	if err := catalog.Save(path); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	return path
}

func changedSet(names ...string) func(string) bool {
	set := make(map[string]bool, len(names))
	for _, n := range names {
		set[n] = true
	}
	return func(name string) bool { return set[name] }
}

func TestRunRender(t *testing.T) {
	tests := []struct {
		name    string
		opts    RenderOptions
		changed []string
		want    string
	}{
		{
			name: "codecs preset and quality",
			opts: RenderOptions{
				VideoCodec: "libx264",
				Quality:    100,
				Size:       "hd720",
				AudioCodec: "aac",
			},
			changed: []string{"video-codec", "quality", "size", "audio-codec"},
			want:    "-codec:a aac -ar 22050 -codec:v libx264 -q:v 1 -s 1280x720",
		},
		{
			name: "explicit size and filters",
			opts: RenderOptions{
				Size:    "320x240",
				FlipH:   true,
				Filters: []string{"eq=gamma=1.2"},
				NoAudio: true,
			},
			changed: []string{"size", "hflip", "filter", "no-audio"},
			want:    "-an -s 320x240 -vf hflip,eq=gamma=1.2",
		},
		{
			name: "unresolved padding",
			opts: RenderOptions{
				Pad:       "8:0:8:0",
				PadColour: "white",
			},
			changed: []string{"pad", "pad-colour"},
			want:    "-vf pad=iw+0:ih+16:0:8:white",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.CapabilitiesFile = writeCatalog(t)

			var out bytes.Buffer
			if err := runRender(context.Background(), &opts, changedSet(tt.changed...), &out); err != nil {
				t.Fatalf("runRender() unexpected error: %v", err)
			}
			if got := strings.TrimSpace(out.String()); got != tt.want {
				t.Errorf("output = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRunRenderRejectsUnknownCodec(t *testing.T) {
	opts := RenderOptions{CapabilitiesFile: writeCatalog(t), VideoCodec: "prores"}
	err := runRender(context.Background(), &opts, changedSet("video-codec"), &bytes.Buffer{})
	if err == nil || !strings.Contains(err.Error(), "video.codec") {
		t.Errorf("runRender() error = %v, want a video.codec field error", err)
	}
}

func TestRunRenderProfileOverlayAndSave(t *testing.T) {
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "base.toml")
	base := &format.Profile{
		Audio: format.AudioProfile{AudioStream: format.AudioStream{Codec: "libmp3lame", Bitrate: "128k"}},
		Video: format.VideoProfile{VideoStream: format.VideoStream{Codec: "mpeg4", FrameRate: "25"}},
	}
	if err := base.Save(profilePath); err != nil {
		t.Fatal(err)
	}

	opts := RenderOptions{
		CapabilitiesFile: writeCatalog(t),
		ProfileFile:      profilePath,
		SaveProfile:      filepath.Join(dir, "merged.toml"),
		MetricsFile:      filepath.Join(dir, "metrics", "videoformat.prom"),
		VideoCodec:       "libx264",
		Stats:            true,
	}
	var out bytes.Buffer
	if err := runRender(context.Background(), &opts, changedSet("video-codec"), &out); err != nil {
		t.Fatalf("runRender() unexpected error: %v", err)
	}

	want := "-codec:a libmp3lame -b:a 128k -codec:v libx264 -r 25"
	if got := strings.TrimSpace(out.String()); got != want {
		t.Errorf("output = %q, want %q", got, want)
	}

	if _, err := os.Stat(opts.MetricsFile); err != nil {
		t.Errorf("metrics textfile not written: %v", err)
	}

	merged, err := format.LoadProfile(opts.SaveProfile)
	if err != nil {
		t.Fatalf("LoadProfile() unexpected error: %v", err)
	}
	if merged.Video.Codec != "libx264" || merged.Audio.Codec != "libmp3lame" {
		t.Errorf("merged profile codecs = %q/%q, want libx264/libmp3lame", merged.Video.Codec, merged.Audio.Codec)
	}
}

func TestOverlayErrors(t *testing.T) {
	tests := []struct {
		name    string
		opts    RenderOptions
		changed []string
	}{
		{name: "bad scale", opts: RenderOptions{Scale: "wide"}, changed: []string{"scale"}},
		{name: "bad pad", opts: RenderOptions{Pad: "1:2:3"}, changed: []string{"pad"}},
		{name: "non numeric pad", opts: RenderOptions{Pad: "1:a:3:4"}, changed: []string{"pad"}},
		{name: "colour without pad", opts: RenderOptions{PadColour: "red"}, changed: []string{"pad-colour"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.opts.overlay(&format.Profile{}, changedSet(tt.changed...)); err == nil {
				t.Error("overlay() expected error but got none")
			}
		})
	}
}

func TestOverlayKeepsProfilePaddingSize(t *testing.T) {
	p := &format.Profile{Video: format.VideoProfile{
		Padding: &format.PaddingProfile{Top: 1, Width: 640, Height: 480, Colour: "blue"},
	}}
	opts := RenderOptions{Pad: "2:4:2:4", Size: "vga"}
	if err := opts.overlay(p, changedSet("pad", "size")); err != nil {
		t.Fatal(err)
	}

	want := &format.PaddingProfile{Top: 2, Right: 4, Bottom: 2, Left: 4, Width: 640, Height: 480, Colour: "blue"}
	if diff := cmp.Diff(want, p.Video.Padding); diff != "" {
		t.Errorf("padding mismatch (-want +got):\n%s", diff)
	}
	if p.Video.Preset != "vga" || p.Video.Width != 0 {
		t.Errorf("size overlay = preset %q width %d, want preset vga", p.Video.Preset, p.Video.Width)
	}
}

func TestLoadCatalog(t *testing.T) {
	path := writeCatalog(t)
	catalog, err := loadCatalog(context.Background(), path, "ffmpeg")
	if err != nil {
		t.Fatalf("loadCatalog() unexpected error: %v", err)
	}
	if !catalog.HasCodec(capabilities.KindVideo, "libx264") {
		t.Error("loaded catalog is missing libx264")
	}

	missing := filepath.Join(t.TempDir(), "missing.toml")
	if _, err := loadCatalog(context.Background(), missing, "/nonexistent/ffmpeg"); err == nil {
		t.Error("loadCatalog() without snapshot or ffmpeg expected error but got none")
	}
}

func TestRenderCommand(t *testing.T) {
	cmd := CreateRenderCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--config", filepath.Join(t.TempDir(), "none.toml"),
		"--capabilities", writeCatalog(t),
		"--video-codec", "libx264",
		"--pixel-format", "nv12",
	})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("Execute() unexpected error: %v", err)
	}
	if got, want := strings.TrimSpace(out.String()), "-codec:v libx264 -pix_fmt nv12"; got != want {
		t.Errorf("output = %q, want %q", got, want)
	}
}

func TestRunRenderWatchNeedsProfile(t *testing.T) {
	opts := RenderOptions{CapabilitiesFile: writeCatalog(t), Watch: true}
	if err := runRender(context.Background(), &opts, changedSet(), &bytes.Buffer{}); err == nil {
		t.Error("runRender() with --watch and no profile expected error but got none")
	}
}

func TestRunRenderWatch(t *testing.T) {
	dir := t.TempDir()
	profilePath := filepath.Join(dir, "watched.toml")
	if err := os.WriteFile(profilePath, []byte("[video]\ncodec = \"mpeg4\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	out := &syncBuffer{}
	opts := RenderOptions{CapabilitiesFile: writeCatalog(t), ProfileFile: profilePath, Watch: true}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- runRender(ctx, &opts, changedSet(), out) }()

	waitFor := func(want string) {
		t.Helper()
		deadline := time.Now().Add(3 * time.Second)
		for time.Now().Before(deadline) {
			if strings.Contains(out.String(), want) {
				return
			}
			time.Sleep(20 * time.Millisecond)
		}
		t.Fatalf("output %q never contained %q", out.String(), want)
	}

	waitFor("-codec:v mpeg4")
	// Let the watch install before changing the profile
	time.Sleep(150 * time.Millisecond)
	if err := os.WriteFile(profilePath, []byte("[video]\ncodec = \"libx264\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitFor("-codec:v libx264")

	cancel()
	if err := <-done; err != nil {
		t.Errorf("runRender() unexpected error after cancel: %v", err)
	}
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
