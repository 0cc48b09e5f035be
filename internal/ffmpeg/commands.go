package ffmpeg

import (
	"fmt"
	"strings"
)

// Binary names used when no explicit path is configured.
const (
	DefaultFFmpeg  = "ffmpeg"
	DefaultFFprobe = "ffprobe"
)

// EncodersListArgs returns the arguments listing compiled-in encoders.
func EncodersListArgs() []string {
	return []string{"-hide_banner", "-encoders"}
}

// PixelFormatsListArgs returns the arguments listing supported pixel formats.
func PixelFormatsListArgs() []string {
	return []string{"-hide_banner", "-pix_fmts"}
}

// FiltersListArgs returns the arguments listing available filters.
func FiltersListArgs() []string {
	return []string{"-hide_banner", "-filters"}
}

// ProbeArgs returns ffprobe arguments printing stream metadata for path as JSON.
func ProbeArgs(path string) ([]string, error) {
	if path == "" {
		return nil, fmt.Errorf("input path is required")
	}
	return []string{
		"-hide_banner",
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		"-select_streams", "V",
		path,
	}, nil
}

// ShellJoin joins args for a POSIX shell, single-quoting tokens that need it.
func ShellJoin(args []string) string {
	quoted := make([]string, len(args))
	for i, arg := range args {
		if arg != "" && strings.IndexFunc(arg, unsafeShellRune) < 0 {
			quoted[i] = arg
			continue
		}
		quoted[i] = "'" + strings.ReplaceAll(arg, "'", `'\''`) + "'"
	}
	return strings.Join(quoted, " ")
}

func unsafeShellRune(r rune) bool {
	switch {
	case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
		return false
	}
	return !strings.ContainsRune("-_.,:/=+@%", r)
}
