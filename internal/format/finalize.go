package format

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/metrics"
	"github.com/smazurov/videoformat/internal/probe"
	"github.com/smazurov/videoformat/internal/streamspec"
)

// Finalize rule names, as logged and counted.
const (
	RuleAACSampleRate     = "aac_sample_rate"
	RuleFixedDimensions   = "fixed_dimensions"
	RuleAutoRotation      = "auto_rotation"
	RuleRotatedAspect     = "rotated_aspect_ratio"
	RulePaddingResolution = "padding_resolution"
)

const aacSampleFrequency = 22050

var (
	decimalRatioPattern = regexp.MustCompile(`^[0-9]+\.[0-9]+$`)
	pairRatioPattern    = regexp.MustCompile(`^([0-9]+):([0-9]+)$`)
)

// Finalize reconciles options that depend on each other or on the source,
// once, before synthesis. The rules run in a fixed order because later
// ones read what earlier ones wrote:
//
//  1. an AAC codec without a sample rate gets 22050 Hz
//  2. a size forced by a non-square source sample aspect ratio becomes the
//     dimensions option
//  3. automatic rotation takes the negated source rotation and asks sink to
//     strip the rotate tag, or is dropped when the source has none
//  4. a quarter turn without an explicit aspect ratio inverts the source's
//     display aspect ratio
//  5. padding left unresolved, or overtaken by new dimensions, is resolved
//     again
//
// A nil sink appends to v itself. Without WithSourceDimensions, src serves
// padding lookups for this call only.
func (v *VideoFormat) Finalize(src probe.SourceInfo, sink CommandAppender) error {
	if sink == nil {
		sink = v
	}
	if v.sourceDimensions == nil {
		v.sourceDimensions = src.Dimensions
		defer func() { v.sourceDimensions = nil }()
	}

	if err := v.finalizeAudio(); err != nil {
		return err
	}

	if src.AspectRatioFixed {
		if err := v.SetVideoDimensions(src.Width, src.Height, ""); err != nil {
			return err
		}
		v.applied(RuleFixedDimensions, "width", src.Width, "height", src.Height)
	}

	if v.rotation == RotationAuto {
		if err := v.resolveAutoRotation(src, sink); err != nil {
			return err
		}
	}

	if (v.rotation == RotationClockwise || v.rotation == RotationCounterClockwise) && !v.aspectRatio.isSet() {
		if ratio, ok := invertAspectRatio(src.DisplayAspectRatio); ok {
			if err := v.SetVideoAspectRatio(ratio, ""); err != nil {
				return err
			}
			v.applied(RuleRotatedAspect, "source", src.DisplayAspectRatio, "ratio", ratio)
		}
	}

	if v.padding != nil {
		d, hasDimensions := v.dimensions.get(streamspec.DefaultSpecifier())
		if !v.padding.Resolved() || (hasDimensions && !d.isZero()) {
			v.applyPadding(*v.padding)
			v.applied(RulePaddingResolution, "width", v.padding.Width, "height", v.padding.Height)
		}
	}

	if codec, ok := v.videoCodec.get(streamspec.DefaultSpecifier()); ok && v.quality.isSet() && ffmpeg.IsHardwareEncoder(codec) {
		v.logger.Warn("Hardware encoder ignores the quality scale", "codec", codec)
	}

	return v.checkConflicts()
}

// Finalize applies the audio rules of the finalize pass.
func (f *Format) Finalize() error {
	return f.finalizeAudio()
}

func (f *Format) finalizeAudio() error {
	codec, ok := f.audioCodec.get(streamspec.DefaultSpecifier())
	if !ok || (codec != "aac" && codec != "libfdk_aac") || f.audioSampleFrequency.isSet() {
		return nil
	}
	if err := f.SetAudioSampleFrequency(aacSampleFrequency, ""); err != nil {
		return err
	}
	f.applied(RuleAACSampleRate, "codec", codec, "sample_frequency", aacSampleFrequency)
	return nil
}

func (v *VideoFormat) resolveAutoRotation(src probe.SourceInfo, sink CommandAppender) error {
	v.rotation = RotationNone
	if !src.HasRotation {
		v.logger.Debug("No rotation metadata, automatic rotation dropped")
		return nil
	}

	degrees := -src.NormalizedRotation()
	if degrees == 0 {
		v.logger.Debug("Source rotation is a full turn, automatic rotation dropped", "rotation", src.Rotation)
		return nil
	}
	if degrees%90 != 0 {
		v.logger.Warn("Source rotation is not a quarter turn, automatic rotation dropped", "rotation", src.Rotation)
		return nil
	}
	if err := v.SetVideoRotation(degrees); err != nil {
		return err
	}
	sink.AddCommand("-metadata:s:v", "rotate=")
	v.applied(RuleAutoRotation, "source", src.Rotation, "rotation", degrees)
	return nil
}

// invertAspectRatio swaps a display aspect ratio for a frame turned by 90
// degrees: "16:9" becomes "9:16" and "1.78" becomes 1/1.78.
func invertAspectRatio(ratio string) (string, bool) {
	if decimalRatioPattern.MatchString(ratio) {
		r, err := strconv.ParseFloat(ratio, 64)
		if err != nil || r == 0 {
			return "", false
		}
		inverted := strconv.FormatFloat(1/r, 'f', -1, 64)
		if !strings.Contains(inverted, ".") {
			inverted += ".0"
		}
		return inverted, true
	}
	if m := pairRatioPattern.FindStringSubmatch(ratio); m != nil {
		if strings.Trim(m[1], "0") == "" || strings.Trim(m[2], "0") == "" {
			return "", false
		}
		return m[2] + ":" + m[1], true
	}
	return "", false
}

// checkConflicts rejects option combinations ffmpeg cannot honour together.
func (v *VideoFormat) checkConflicts() error {
	var populated []ffmpeg.OptionType
	for _, option := range ffmpeg.AllOptions {
		if len(v.Entries(option.Key)) > 0 {
			populated = append(populated, option.Key)
		}
	}
	if err := ffmpeg.ValidateOptions(populated); err != nil {
		return v.reject(ffmpeg.OptionVideoDimensions, nil, ErrInvalidOperation, err.Error())
	}
	return nil
}

func (f *Format) applied(rule string, args ...any) {
	f.logger.Debug("Finalize rule applied", append([]any{"rule", rule}, args...)...)
	metrics.RecordFinalizeRule(rule)
}
