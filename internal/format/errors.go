package format

import (
	"errors"
	"fmt"

	"github.com/smazurov/videoformat/internal/ffmpeg"
	"github.com/smazurov/videoformat/internal/metrics"
	"github.com/smazurov/videoformat/internal/streamspec"
)

var (
	// ErrInvalidStreamSpecifier is returned for a malformed stream selector.
	ErrInvalidStreamSpecifier = streamspec.ErrInvalid
	// ErrInvalidOptionValue is returned for a value outside the option's domain.
	ErrInvalidOptionValue = errors.New("invalid option value")
	// ErrUnsupportedByEngine is returned when the capability catalog lacks a
	// codec, pixel format or filter.
	ErrUnsupportedByEngine = errors.New("unsupported by engine")
	// ErrRestrictedValue is returned when a value is excluded by the format's
	// restrictions.
	ErrRestrictedValue = errors.New("restricted value")
	// ErrInvalidOperation is returned for output-only changes on an input
	// format and for conflicting options.
	ErrInvalidOperation = errors.New("invalid operation")
)

// OptionError describes a rejected setter call.
type OptionError struct {
	Option ffmpeg.OptionType
	Value  string
	Reason string
	Err    error
}

func (e *OptionError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Option, e.Err)
	if e.Value != "" {
		msg = fmt.Sprintf("%s %q: %v", e.Option, e.Value, e.Err)
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *OptionError) Unwrap() error {
	return e.Err
}

// reasonLabel maps a sentinel to the metrics label used for rejections.
func reasonLabel(err error) string {
	switch {
	case errors.Is(err, ErrInvalidStreamSpecifier):
		return "invalid_specifier"
	case errors.Is(err, ErrUnsupportedByEngine):
		return "unsupported"
	case errors.Is(err, ErrRestrictedValue):
		return "restricted"
	case errors.Is(err, ErrInvalidOperation):
		return "invalid_operation"
	default:
		return "invalid_value"
	}
}

// reject builds the error for a failed setter, logs it and counts it.
func (f *Format) reject(option ffmpeg.OptionType, value any, err error, reason string) error {
	oe := &OptionError{
		Option: option,
		Value:  fmt.Sprint(value),
		Reason: reason,
		Err:    err,
	}
	if value == nil {
		oe.Value = ""
	}
	f.logger.Debug("Option rejected", "option", option, "value", oe.Value, "error", err, "reason", reason)
	metrics.RecordRejection(string(option), reasonLabel(err))
	return oe
}
