package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
)

// Logger is a duck-typed interface satisfied by *slog.Logger.
// Use this interface instead of *slog.Logger to decouple from the concrete type.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Config represents logging configuration.
type Config struct {
	Level   string            `toml:"level"`
	Format  string            `toml:"format"`
	Modules map[string]string `toml:"modules"`
}

type moduleLogger struct {
	logger *slog.Logger
	level  slog.LevelVar
}

// registry owns every module logger. Pointers handed out by GetLogger stay
// valid across Initialize calls; their contents are swapped in place.
type registry struct {
	mu          sync.Mutex
	config      Config
	initialized bool
	out         io.Writer
	modules     map[string]*moduleLogger
}

// Synthesized arguments go to stdout, so diagnostics stay on stderr.
var reg = &registry{out: os.Stderr, modules: make(map[string]*moduleLogger)}

// Initialize applies config to all existing and future module loggers and
// installs the slog default.
func Initialize(config Config) {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	reg.config = config
	reg.initialized = true
	for name, m := range reg.modules {
		reg.rebuild(name, m)
	}

	var level slog.LevelVar
	level.Set(reg.levelFor(""))
	slog.SetDefault(slog.New(reg.handler(&level)))
}

// SetOutput redirects the console handler. Loggers created afterwards, or
// refreshed by Initialize, write to w.
func SetOutput(w io.Writer) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	reg.out = w
}

// GetLogger returns the logger for module, creating it on first use.
func GetLogger(module string) *slog.Logger {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	if m, ok := reg.modules[module]; ok {
		return m.logger
	}
	m := &moduleLogger{logger: new(slog.Logger)}
	reg.rebuild(module, m)
	reg.modules[module] = m
	return m.logger
}

// rebuild refreshes m for the current config. Caller must hold mu.
func (r *registry) rebuild(module string, m *moduleLogger) {
	m.level.Set(r.levelFor(module))
	*m.logger = *slog.New(r.handler(&m.level)).With("module", module)
}

// levelFor resolves the module override, then the global level, then info.
// Caller must hold mu.
func (r *registry) levelFor(module string) slog.Level {
	if !r.initialized {
		return slog.LevelInfo
	}
	if override, ok := r.config.Modules[module]; ok && module != "" {
		if level, ok := parseLevel(override); ok {
			return level
		}
	}
	if level, ok := parseLevel(r.config.Level); ok {
		return level
	}
	return slog.LevelInfo
}

// handler builds the console handler on r.out and adds the journal when
// available. Caller must hold mu.
func (r *registry) handler(level slog.Leveler) slog.Handler {
	opts := &slog.HandlerOptions{Level: level}

	var console slog.Handler
	if r.config.Format == "json" {
		console = slog.NewJSONHandler(r.out, opts)
	} else {
		console = slog.NewTextHandler(r.out, opts)
	}

	var handlers fanout
	if writable(r.out) {
		handlers = append(handlers, console)
	}
	if journalAvailable() {
		handlers = append(handlers, newJournalHandler(level.Level()))
	}

	switch len(handlers) {
	case 0:
		return console
	case 1:
		return handlers[0]
	default:
		return handlers
	}
}

// writable reports whether w leads somewhere a reader can see: a terminal,
// pipe, socket or regular file. /dev/null is a device and does not count.
// Writers that are not files always count.
func writable(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return true
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	mode := fi.Mode()
	return mode&(os.ModeCharDevice|os.ModeNamedPipe|os.ModeSocket) != 0 || mode.IsRegular()
}

func parseLevel(level string) (slog.Level, bool) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, true
	case "info":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	}
	return 0, false
}
