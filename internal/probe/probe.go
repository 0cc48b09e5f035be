// Package probe extracts the source facts the format finalizer needs from
// ffprobe's JSON output.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strconv"
	"strings"

	"github.com/smazurov/videoformat/internal/ffmpeg"
)

// ErrNoVideoStream is returned when the probed source has no video stream.
var ErrNoVideoStream = errors.New("no video stream")

// SourceInfo holds the source media facts consumed once by Finalize.
type SourceInfo struct {
	Width  int `json:"width,omitempty"`
	Height int `json:"height,omitempty"`

	// AspectRatioFixed is set when a non-square sample aspect ratio forced
	// Width to the display width.
	AspectRatioFixed bool `json:"aspect_ratio_fixed,omitempty"`

	// Rotation is the rotate metadata in degrees, normalised to [0, 360).
	Rotation    int  `json:"rotation,omitempty"`
	HasRotation bool `json:"has_rotation,omitempty"`

	// DisplayAspectRatio as reported, either "W:H" or a decimal.
	DisplayAspectRatio string `json:"display_aspect_ratio,omitempty"`
}

// NormalizedRotation returns Rotation folded into [0, 360).
func (s SourceInfo) NormalizedRotation() int {
	return normalizeDegrees(s.Rotation)
}

// Dimensions returns the source size, ok is false when unknown.
func (s SourceInfo) Dimensions() (width, height int, ok bool) {
	if s.Width <= 0 || s.Height <= 0 {
		return 0, 0, false
	}
	return s.Width, s.Height, true
}

// Probe runs ffprobe against path and parses the first video stream.
func Probe(ctx context.Context, binary, path string) (SourceInfo, error) {
	if binary == "" {
		binary = ffmpeg.DefaultFFprobe
	}
	args, err := ffmpeg.ProbeArgs(path)
	if err != nil {
		return SourceInfo{}, err
	}

	out, err := exec.CommandContext(ctx, binary, args...).Output()
	if err != nil {
		return SourceInfo{}, fmt.Errorf("ffprobe %q: %w", path, err)
	}
	return ParseJSON(out)
}

// ParseJSON converts raw ffprobe JSON output into a SourceInfo.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (SourceInfo, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return SourceInfo{}, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		if s.CodecType == "video" && s.Disposition["attached_pic"] == 0 {
			return convertVideo(s), nil
		}
	}
	return SourceInfo{}, ErrNoVideoStream
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeStream struct {
	Index              int               `json:"index"`
	CodecType          string            `json:"codec_type"`
	Width              int               `json:"width"`
	Height             int               `json:"height"`
	SampleAspectRatio  string            `json:"sample_aspect_ratio"`
	DisplayAspectRatio string            `json:"display_aspect_ratio"`
	Disposition        map[string]int    `json:"disposition"`
	Tags               map[string]string `json:"tags"`
	SideDataList       []ffprobeSideData `json:"side_data_list"`
}

type ffprobeSideData struct {
	SideDataType string  `json:"side_data_type"`
	Rotation     float64 `json:"rotation"`
}

func convertVideo(s *ffprobeStream) SourceInfo {
	info := SourceInfo{
		Width:              s.Width,
		Height:             s.Height,
		DisplayAspectRatio: s.DisplayAspectRatio,
	}

	if rotate, ok := s.Tags["rotate"]; ok {
		if deg, err := strconv.Atoi(strings.TrimSpace(rotate)); err == nil {
			info.Rotation = normalizeDegrees(deg)
			info.HasRotation = info.Rotation != 0
		}
	}
	if !info.HasRotation {
		for _, sd := range s.SideDataList {
			if sd.SideDataType != "Display Matrix" {
				continue
			}
			// The display matrix turns the opposite way to the rotate tag.
			info.Rotation = normalizeDegrees(-int(math.Round(sd.Rotation)))
			info.HasRotation = info.Rotation != 0
			break
		}
	}

	if displayWidth, ok := fixedWidth(s); ok {
		info.Width = displayWidth
		info.AspectRatioFixed = true
	}

	return info
}

// fixedWidth returns the display width implied by a non-square sample
// aspect ratio.
func fixedWidth(s *ffprobeStream) (int, bool) {
	sarW, sarH, ok := parseRatio(s.SampleAspectRatio)
	if !ok || sarW == sarH || s.Width <= 0 || s.Height <= 0 {
		return 0, false
	}
	width := int(math.Round(float64(s.Width) * float64(sarW) / float64(sarH)))
	// Encoders need even dimensions.
	if width%2 != 0 {
		width++
	}
	if width == s.Width {
		return 0, false
	}
	return width, true
}

func parseRatio(v string) (int, int, bool) {
	a, b, found := strings.Cut(v, ":")
	if !found {
		return 0, 0, false
	}
	num, err := strconv.Atoi(a)
	if err != nil || num <= 0 {
		return 0, 0, false
	}
	den, err := strconv.Atoi(b)
	if err != nil || den <= 0 {
		return 0, 0, false
	}
	return num, den, true
}

func normalizeDegrees(deg int) int {
	return ((deg % 360) + 360) % 360
}
