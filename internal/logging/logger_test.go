package logging

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func resetState(t *testing.T) {
	t.Helper()
	reg.mu.Lock()
	reg.modules = make(map[string]*moduleLogger)
	reg.initialized = false
	reg.config = Config{}
	reg.mu.Unlock()
	t.Cleanup(func() { SetOutput(os.Stderr) })
}

func TestModuleLevelOverride(t *testing.T) {
	resetState(t)

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"format": "debug",
			"probe":  "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"format", true, true, true},
		{"probe", false, false, true},
		{"other", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()
			ctx := context.Background()

			if got := handler.Enabled(ctx, slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(ctx, slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(ctx, slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestOutputRedirect(t *testing.T) {
	resetState(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	Initialize(Config{Level: "debug", Format: "text"})

	GetLogger("format").Debug("option rejected", "option", "video_codec")

	output := buf.String()
	if !strings.Contains(output, "option rejected") {
		t.Errorf("debug message not written. Output: %s", output)
	}
	if !strings.Contains(output, "module=format") {
		t.Errorf("module attribute missing. Output: %s", output)
	}
	if !strings.Contains(output, "level=DEBUG") {
		t.Errorf("debug level missing. Output: %s", output)
	}
}

func TestJSONFormat(t *testing.T) {
	resetState(t)

	var buf bytes.Buffer
	SetOutput(&buf)
	Initialize(Config{Level: "info", Format: "json"})

	GetLogger("capabilities").Info("catalog loaded", "codecs", 3)

	if !strings.Contains(buf.String(), `"module":"capabilities"`) {
		t.Errorf("JSON output missing module field: %s", buf.String())
	}
}

func TestFanoutDebugOutput(t *testing.T) {
	var buf bytes.Buffer

	debugHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	infoHandler := slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})

	logger := slog.New(fanout{debugHandler, infoHandler}).With("module", "test")

	logger.Debug("debug only message")

	output := buf.String()
	if count := strings.Count(output, "debug only message"); count != 1 {
		t.Errorf("Expected 1 debug message, got %d. Output: %s", count, output)
	}
}

func TestGetLoggerBeforeInitialize(t *testing.T) {
	resetState(t)

	loggerBefore := GetLogger("format")
	if loggerBefore.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Logger created before Initialize should NOT have debug enabled")
	}

	var buf bytes.Buffer
	SetOutput(&buf)
	Initialize(Config{
		Level:   "info",
		Format:  "text",
		Modules: map[string]string{"format": "debug"},
	})

	loggerAfter := GetLogger("format")
	if loggerBefore != loggerAfter {
		t.Error("Logger should be cached - same pointer before and after Initialize")
	}

	loggerBefore.Debug("after initialize")
	if !strings.Contains(buf.String(), "after initialize") {
		t.Errorf("logger obtained before Initialize did not pick up the new output: %q", buf.String())
	}
}

func TestParseLevelValues(t *testing.T) {
	tests := []struct {
		input  string
		want   slog.Level
		wantOK bool
	}{
		{"debug", slog.LevelDebug, true},
		{"DEBUG", slog.LevelDebug, true},
		{"info", slog.LevelInfo, true},
		{"warn", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"invalid", 0, false},
		{"", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseLevel(tt.input)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("parseLevel(%q) = %v, %v; want %v, %v", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAddAttrToFields(t *testing.T) {
	fields := make(map[string]string)
	addAttrToFields(fields, "", slog.Group("probe", slog.Int("width", 640), slog.Bool("rotated", true)))
	addAttrToFields(fields, "REJECT_", slog.String("option", "video_codec"))
	addAttrToFields(fields, "", slog.Float64("ratio", 1.5))
	addAttrToFields(fields, "", slog.String("remote.addr", "127.0.0.1"))
	addAttrToFields(fields, "", slog.Attr{})

	want := map[string]string{
		"PROBE_WIDTH":   "640",
		"PROBE_ROTATED": "true",
		"REJECT_OPTION": "video_codec",
		"RATIO":         "1.5",
		"REMOTE_ADDR":   "127.0.0.1",
	}
	if diff := cmp.Diff(want, fields); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestJournalHandlerGroups(t *testing.T) {
	h := newJournalHandler(slog.LevelInfo).
		WithAttrs([]slog.Attr{slog.String("module", "format")}).
		WithGroup("rule").(*journalHandler)

	if h.prefix != "RULE_" {
		t.Errorf("prefix = %q, want RULE_", h.prefix)
	}
	if h.fields["MODULE"] != "format" {
		t.Errorf("fields = %v, want MODULE=format", h.fields)
	}
	if h.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("debug should be disabled at info level")
	}
}
