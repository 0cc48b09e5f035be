package format

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/probe"
)

func TestSynthesizeOrder(t *testing.T) {
	v := newOutput(t)
	steps := []error{
		v.SetAudioCodec("aac", ""),
		v.SetAudioBitrate("128k", ""),
		v.SetVideoCodec("libx264", ""),
		v.SetVideoCodec("mpeg4", "1"),
		v.SetVideoQuality(100, ""),
		v.SetVideoDimensions(1280, 720, ""),
		v.SetVideoFrameRate("30000/1001", ""),
		v.SetVideoBitrate("2M", ""),
		v.SetVideoBitrate("800k", "m:language:eng"),
		v.SetVideoPixelFormat("yuv420p", ""),
		v.SetVideoRotation(90),
		v.SetVideoFlipHorizontal(true),
		v.SetVideoMaxFrames(100),
		v.AddVideoFilter("eq=gamma=1.2"),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d unexpected error: %v", i, err)
		}
	}
	v.AddCommand("-movflags", "+faststart")

	want := []string{
		"-codec:a", "aac",
		"-b:a", "128k",
		"-codec:v", "libx264",
		"-codec:v:1", "mpeg4",
		"-q:v", "1",
		"-s", "1280x720",
		"-vf", "transpose=1,hflip,eq=gamma=1.2",
		"-r", "30000/1001",
		"-b:v", "2M",
		"-b:v:m:language:eng", "800k",
		"-pix_fmt", "yuv420p",
		"-vframes", "100",
		"-movflags", "+faststart",
	}
	if diff := cmp.Diff(want, mustArgs(t, v)); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeFilterChainOrder(t *testing.T) {
	v := newOutput(t)
	if err := v.AddVideoFilter("eq=contrast=1.1"); err != nil {
		t.Fatal(err)
	}
	if err := v.SetVideoFlipVertical(true); err != nil {
		t.Fatal(err)
	}
	if err := v.SetVideoRotation(270); err != nil {
		t.Fatal(err)
	}
	if err := v.SetVideoFlipHorizontal(true); err != nil {
		t.Fatal(err)
	}
	if err := v.SetVideoPadding(Insets{Top: 2, Bottom: 2}, 100, 100, ""); err != nil {
		t.Fatal(err)
	}

	want := []string{"-vf", "scale=100:100,pad=100:104:0:2:black,transpose=2,hflip,vflip,eq=contrast=1.1"}
	if diff := cmp.Diff(want, mustArgs(t, v)); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeSpecifierOrder(t *testing.T) {
	v := newOutput(t)
	for _, step := range []struct{ rate, spec string }{
		{"25", "v:1"},
		{"50", ""},
		{"30", "0"},
	} {
		if err := v.SetVideoFrameRate(step.rate, step.spec); err != nil {
			t.Fatal(err)
		}
	}

	want := []string{"-r", "50", "-r:v:1", "25", "-r:0", "30"}
	if diff := cmp.Diff(want, mustArgs(t, v)); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeUnresolvedPadding(t *testing.T) {
	v := newOutput(t)
	if err := v.SetVideoPadding(Insets{Top: 10, Right: 5, Bottom: 10, Left: 5}, 0, 0, ""); err != nil {
		t.Fatal(err)
	}
	if p, _ := v.VideoPadding(); p.Resolved() {
		t.Fatalf("padding unexpectedly resolved: %+v", p)
	}

	want := []string{"-vf", "pad=iw+10:ih+20:5:10:black"}
	if diff := cmp.Diff(want, mustArgs(t, v)); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeDisableAudio(t *testing.T) {
	v := newOutput(t)
	if err := v.SetAudioCodec("aac", ""); err != nil {
		t.Fatal(err)
	}
	if err := v.SetAudioChannels(2, ""); err != nil {
		t.Fatal(err)
	}
	if err := v.SetVideoCodec("libx264", ""); err != nil {
		t.Fatal(err)
	}
	if err := v.DisableAudio(); err != nil {
		t.Fatal(err)
	}

	want := []string{"-an", "-codec:v", "libx264"}
	if diff := cmp.Diff(want, mustArgs(t, v)); diff != "" {
		t.Errorf("Args() mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeMissingTemplate(t *testing.T) {
	v := newOutput(t)
	if err := v.SetVideoCodec("libx264", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := Synthesize(v, ffmpeg.Table{}); err == nil {
		t.Error("Synthesize() with an empty table expected error but got none")
	}

	table := ffmpeg.DefaultTable()
	table[ffmpeg.OptionVideoCodec] = "-c:v <codec>"
	if _, err := Synthesize(v, table); !errors.Is(err, ffmpeg.ErrUnknownPlaceholder) {
		t.Errorf("Synthesize() error = %v, want ErrUnknownPlaceholder", err)
	}
}

func TestSynthesizeCustomTable(t *testing.T) {
	v := newOutput(t)
	if err := v.SetVideoQuality(100, "0"); err != nil {
		t.Fatal(err)
	}

	// Older ffmpeg releases only know -qscale without a stream specifier.
	table := ffmpeg.DefaultTable()
	table[ffmpeg.OptionVideoQuality] = "-qscale:v <setting>"

	got, err := Synthesize(v, table)
	if err != nil {
		t.Fatalf("Synthesize() unexpected error: %v", err)
	}
	if diff := cmp.Diff([]string{"-qscale:v", "1"}, got); diff != "" {
		t.Errorf("Synthesize() mismatch (-want +got):\n%s", diff)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	build := func() []string {
		v := newOutput(t)
		steps := []error{
			v.SetAudioCodec("aac", ""),
			v.SetVideoCodec("h264", ""),
			v.SetVideoBitrate("1M", "v:0"),
			v.SetVideoBitrate("2M", "v:1"),
			v.SetVideoFrameRate("25", "1"),
			v.SetVideoFrameRate("50", "0"),
			v.SetVideoAutoRotation(),
			v.SetVideoPadding(Insets{Top: 4, Bottom: 4}, 0, 0, ""),
		}
		for i, err := range steps {
			if err != nil {
				t.Fatalf("step %d unexpected error: %v", i, err)
			}
		}
		src := probe.SourceInfo{Width: 1920, Height: 1080, Rotation: 90, HasRotation: true, DisplayAspectRatio: "16:9"}
		if err := v.Finalize(src, nil); err != nil {
			t.Fatalf("Finalize() unexpected error: %v", err)
		}
		return mustArgs(t, v)
	}

	first, second := build(), build()
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("synthesis is not deterministic (-first +second):\n%s", diff)
	}
}
