package format

import (
	"fmt"
	"strings"
)

// Dimension is a named frame size.
type Dimension int

const (
	DimensionSameAsSource Dimension = iota
	DimensionSQCIF
	DimensionQCIF
	DimensionCIF
	Dimension4CIF
	DimensionQQVGA
	DimensionQVGA
	DimensionVGA
	DimensionSVGA
	DimensionXGA
	DimensionUXGA
	DimensionQXGA
	DimensionSXGA
	DimensionQSXGA
	DimensionHSXGA
	DimensionWVGA
	DimensionWXGA
	DimensionWSXGA
	DimensionWUXGA
	DimensionWOXGA
	DimensionWQSXGA
	DimensionWQUXGA
	DimensionWHSXGA
	DimensionWHUXGA
	DimensionCGA
	DimensionEGA
	DimensionHD480
	DimensionHD720
	DimensionHD1080
)

type preset struct {
	name          string
	width, height int
}

var presets = map[Dimension]preset{
	DimensionSameAsSource: {"sas", 0, 0},
	DimensionSQCIF:        {"sqcif", 128, 96},
	DimensionQCIF:         {"qcif", 176, 144},
	DimensionCIF:          {"cif", 352, 288},
	Dimension4CIF:         {"4cif", 704, 576},
	DimensionQQVGA:        {"qqvga", 160, 120},
	DimensionQVGA:         {"qvga", 320, 240},
	DimensionVGA:          {"vga", 640, 480},
	DimensionSVGA:         {"svga", 800, 600},
	DimensionXGA:          {"xga", 1024, 768},
	DimensionUXGA:         {"uxga", 1600, 1200},
	DimensionQXGA:         {"qxga", 2048, 1536},
	DimensionSXGA:         {"sxga", 1280, 1024},
	DimensionQSXGA:        {"qsxga", 2560, 2048},
	DimensionHSXGA:        {"hsxga", 5120, 4096},
	DimensionWVGA:         {"wvga", 852, 480},
	DimensionWXGA:         {"wxga", 1366, 768},
	DimensionWSXGA:        {"wsxga", 1600, 1024},
	DimensionWUXGA:        {"wuxga", 1920, 1200},
	DimensionWOXGA:        {"woxga", 2560, 1600},
	DimensionWQSXGA:       {"wqsxga", 3200, 2048},
	DimensionWQUXGA:       {"wquxga", 3840, 2400},
	DimensionWHSXGA:       {"whsxga", 6400, 4096},
	DimensionWHUXGA:       {"whuxga", 7680, 4800},
	DimensionCGA:          {"cga", 320, 200},
	DimensionEGA:          {"ega", 640, 350},
	DimensionHD480:        {"hd480", 852, 480},
	DimensionHD720:        {"hd720", 1280, 720},
	DimensionHD1080:       {"hd1080", 1920, 1080},
}

// Resolve returns the frame size of d. ok is false for DimensionSameAsSource
// and for values outside the preset set.
func (d Dimension) Resolve() (width, height int, ok bool) {
	p, found := presets[d]
	if !found || d == DimensionSameAsSource {
		return 0, 0, false
	}
	return p.width, p.height, true
}

func (d Dimension) String() string {
	if p, ok := presets[d]; ok {
		return p.name
	}
	return fmt.Sprintf("Dimension(%d)", int(d))
}

func (d Dimension) valid() bool {
	_, ok := presets[d]
	return ok
}

// ParseDimension looks up a preset by name, case-insensitively. Both "sas"
// and "same_as_source" name DimensionSameAsSource.
func ParseDimension(name string) (Dimension, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "same_as_source" {
		return DimensionSameAsSource, nil
	}
	for d, p := range presets {
		if p.name == name {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown dimension preset %q", ErrInvalidOptionValue, name)
}
