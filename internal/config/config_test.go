package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/cobra"
)

// TestConfig mirrors the shape of the render command options.
type TestConfig struct {
	Config string

	FFmpegPath  string   `toml:"ffmpeg.path" env:"FFMPEG_PATH" flag:"ffmpeg"`
	Probe       bool     `toml:"render.probe" env:"PROBE"`
	MaxFrames   int      `toml:"render.max_frames" env:"MAX_FRAMES"`
	Quality     float64  `toml:"render.quality" env:"QUALITY"`
	VideoCodecs []string `toml:"restrictions.video_codecs" env:"VIDEO_CODECS"`

	Profile string `toml:"render.profile" env:"PROFILE"`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "videoformat.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func TestLoadConfigFromTOML(t *testing.T) {
	path := writeConfig(t, `
[ffmpeg]
path = "/opt/ffmpeg/bin/ffmpeg"

[render]
probe = true
max_frames = 250
quality = 75
profile = "mobile.toml"

[restrictions]
video_codecs = ["libx264", "copy"]
`)

	config := &TestConfig{Config: path}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := &TestConfig{
		Config:      path,
		FFmpegPath:  "/opt/ffmpeg/bin/ffmpeg",
		Probe:       true,
		MaxFrames:   250,
		Quality:     75,
		VideoCodecs: []string{"libx264", "copy"},
		Profile:     "mobile.toml",
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigFromEnvVars(t *testing.T) {
	t.Setenv("VIDEOFORMAT_FFMPEG_PATH", "/usr/local/bin/ffmpeg")
	t.Setenv("VIDEOFORMAT_PROBE", "true")
	t.Setenv("VIDEOFORMAT_MAX_FRAMES", "10")
	t.Setenv("VIDEOFORMAT_QUALITY", "62.5")
	t.Setenv("VIDEOFORMAT_VIDEO_CODECS", " libx264 , mpeg4 ")

	config := &TestConfig{}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := &TestConfig{
		FFmpegPath:  "/usr/local/bin/ffmpeg",
		Probe:       true,
		MaxFrames:   10,
		Quality:     62.5,
		VideoCodecs: []string{"libx264", "mpeg4"},
	}
	if diff := cmp.Diff(want, config); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := writeConfig(t, `
[ffmpeg]
path = "/toml/ffmpeg"

[render]
max_frames = 100
profile = "toml.toml"
`)
	t.Setenv("VIDEOFORMAT_MAX_FRAMES", "200")
	t.Setenv("VIDEOFORMAT_FFMPEG_PATH", "/env/ffmpeg")

	cmd := &cobra.Command{Use: "render"}
	config := &TestConfig{Config: path}
	cmd.Flags().StringVar(&config.FFmpegPath, "ffmpeg", "ffmpeg", "")
	cmd.Flags().IntVar(&config.MaxFrames, "max-frames", 0, "")
	if err := cmd.Flags().Set("ffmpeg", "/cli/ffmpeg"); err != nil {
		t.Fatal(err)
	}

	if err := LoadConfig(config, cmd); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	tests := []struct {
		field string
		got   any
		want  any
	}{
		{"FFmpegPath (cli wins)", config.FFmpegPath, "/cli/ffmpeg"},
		{"MaxFrames (env over toml)", config.MaxFrames, 200},
		{"Profile (toml only)", config.Profile, "toml.toml"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.field, tt.got, tt.want)
		}
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
	}{
		{name: "invalid toml", content: "[render\ninvalid toml syntax\n"},
		{name: "wrong toml type", content: "[render]\nmax_frames = \"many\"\n"},
		{name: "wrong array element", content: "[restrictions]\nvideo_codecs = [1, 2]\n"},
		{name: "bad env int", content: "", env: map[string]string{"VIDEOFORMAT_MAX_FRAMES": "ten"}},
		{name: "bad env bool", content: "", env: map[string]string{"VIDEOFORMAT_PROBE": "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			config := &TestConfig{Config: writeConfig(t, tt.content)}
			if err := LoadConfig(config, nil); err == nil {
				t.Error("LoadConfig() expected error but got none")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	config := &TestConfig{Config: filepath.Join(t.TempDir(), "nonexistent.toml")}
	if err := LoadConfig(config, nil); err != nil {
		t.Fatalf("LoadConfig should not fail for missing file: %v", err)
	}
}

func TestGetNestedValue(t *testing.T) {
	data := map[string]any{
		"render": map[string]any{
			"video": map[string]any{
				"codec": "libx264",
			},
			"probe": true,
		},
		"root": "root_value",
	}

	tests := []struct {
		path     string
		expected any
	}{
		{"root", "root_value"},
		{"render.probe", true},
		{"render.video.codec", "libx264"},
		{"nonexistent", nil},
		{"render.nonexistent", nil},
		{"root.child", nil},
	}

	for _, test := range tests {
		if result := getNestedValue(data, test.path); result != test.expected {
			t.Errorf("getNestedValue(%q) = %v, expected %v", test.path, result, test.expected)
		}
	}
}

func TestSetFieldValueFromStringSlice(t *testing.T) {
	type TestStruct struct {
		SliceField []string
	}
	s := &TestStruct{}
	v := reflect.ValueOf(s).Elem()

	if err := setFieldValueFromString(v.FieldByName("SliceField"), "x,y,z"); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"x", "y", "z"}, s.SliceField); diff != "" {
		t.Errorf("SliceField mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldNameToFlag(t *testing.T) {
	for in, want := range map[string]string{
		"LoggingLevel": "logging-level",
		"Probe":        "probe",
		"MaxFrames":    "max-frames",
	} {
		if got := fieldNameToFlag(in); got != want {
			t.Errorf("fieldNameToFlag(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLoadLoggingConfig(t *testing.T) {
	path := writeConfig(t, `
[logging]
level = "warn"
format = "json"
probe = "debug"

[logging.modules]
format = "debug"
capabilities = "error"
`)

	got := LoadLoggingConfig(path)
	want := map[string]string{"probe": "debug", "format": "debug", "capabilities": "error"}
	if got.Level != "warn" || got.Format != "json" {
		t.Errorf("level/format = %q/%q, want warn/json", got.Level, got.Format)
	}
	if diff := cmp.Diff(want, got.Modules); diff != "" {
		t.Errorf("modules mismatch (-want +got):\n%s", diff)
	}

	defaults := LoadLoggingConfig(filepath.Join(t.TempDir(), "missing.toml"))
	if defaults.Level != "info" || defaults.Format != "text" || len(defaults.Modules) != 0 {
		t.Errorf("LoadLoggingConfig(missing) = %+v, want defaults", defaults)
	}
}
