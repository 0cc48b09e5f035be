// Package streamspec parses the stream selectors ffmpeg accepts after a
// per-stream option, as in "-codec:v:1" or "-b:a:m:language:eng".
package streamspec

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned for any token that is not a recognised stream specifier.
var ErrInvalid = errors.New("invalid stream specifier")

// Kind identifies which form of selector a Specifier holds.
type Kind int

const (
	Default Kind = iota
	Index
	TypeIndex
	Program
	StreamID
	Metadata
)

func (k Kind) String() string {
	switch k {
	case Default:
		return "default"
	case Index:
		return "index"
	case TypeIndex:
		return "type"
	case Program:
		return "program"
	case StreamID:
		return "id"
	case Metadata:
		return "metadata"
	}
	return "unknown"
}

// StreamType is the short ffmpeg name of a stream type.
type StreamType string

const (
	Video           StreamType = "v"
	VideoNoPictures StreamType = "V"
	Audio           StreamType = "a"
	Subtitle        StreamType = "s"
	Data            StreamType = "d"
	Attachment      StreamType = "t"
)

var streamTypes = map[string]StreamType{
	"v":          Video,
	"video":      Video,
	"V":          VideoNoPictures,
	"a":          Audio,
	"audio":      Audio,
	"s":          Subtitle,
	"subtitle":   Subtitle,
	"d":          Data,
	"data":       Data,
	"t":          Attachment,
	"attachment": Attachment,
}

// Specifier is a parsed stream selector. The zero value is the Default
// specifier, which applies an option to every stream of its kind.
type Specifier struct {
	Kind Kind

	Type    StreamType // TypeIndex
	Program int        // Program
	ID      string     // StreamID, decimal or 0x-prefixed hex
	Key     string     // Metadata
	Value   string     // Metadata, valid when HasValue

	Index    int // Index, and the optional trailing index of TypeIndex/Program
	HasIndex bool
	HasValue bool
}

// DefaultSpecifier returns the Default specifier.
func DefaultSpecifier() Specifier {
	return Specifier{}
}

// IsDefault reports whether s applies to all streams.
func (s Specifier) IsDefault() bool {
	return s.Kind == Default
}

// String renders s in the canonical form ffmpeg expects after the option
// name and a colon. Default renders as the empty string.
func (s Specifier) String() string {
	switch s.Kind {
	case Index:
		return strconv.Itoa(s.Index)
	case TypeIndex:
		if s.HasIndex {
			return string(s.Type) + ":" + strconv.Itoa(s.Index)
		}
		return string(s.Type)
	case Program:
		if s.HasIndex {
			return fmt.Sprintf("p:%d:%d", s.Program, s.Index)
		}
		return "p:" + strconv.Itoa(s.Program)
	case StreamID:
		return "#" + s.ID
	case Metadata:
		if s.HasValue {
			return "m:" + s.Key + ":" + s.Value
		}
		return "m:" + s.Key
	}
	return ""
}

// Parse validates raw and returns the selector it denotes. An empty string
// parses to the Default specifier. Accepted forms:
//
//	1            stream index
//	v, v:1       stream type, optionally with an index within that type
//	p:1, p:1:0   program, optionally with a stream index
//	#3, i:0x1f   stream id
//	m:key[:val]  metadata key, optionally with a value
func Parse(raw string) (Specifier, error) {
	if raw == "" {
		return Specifier{}, nil
	}

	if n, ok := nonNegative(raw); ok {
		return Specifier{Kind: Index, Index: n}, nil
	}

	if id, ok := strings.CutPrefix(raw, "#"); ok {
		return parseID(raw, id)
	}

	head, rest, hasRest := strings.Cut(raw, ":")
	switch head {
	case "i":
		if !hasRest {
			return Specifier{}, invalid(raw)
		}
		return parseID(raw, rest)
	case "p":
		return parseProgram(raw, rest, hasRest)
	case "m":
		if !hasRest {
			return Specifier{}, invalid(raw)
		}
		key, value, hasValue := strings.Cut(rest, ":")
		if key == "" {
			return Specifier{}, invalid(raw)
		}
		return Specifier{Kind: Metadata, Key: key, Value: value, HasValue: hasValue}, nil
	}

	st, ok := streamTypes[head]
	if !ok {
		return Specifier{}, invalid(raw)
	}
	spec := Specifier{Kind: TypeIndex, Type: st}
	if hasRest {
		n, ok := nonNegative(rest)
		if !ok {
			return Specifier{}, invalid(raw)
		}
		spec.Index = n
		spec.HasIndex = true
	}
	return spec, nil
}

// MustParse is like Parse but panics on error. Intended for static values.
func MustParse(raw string) Specifier {
	s, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return s
}

func parseProgram(raw, rest string, hasRest bool) (Specifier, error) {
	if !hasRest {
		return Specifier{}, invalid(raw)
	}
	prog, idx, hasIdx := strings.Cut(rest, ":")
	p, ok := nonNegative(prog)
	if !ok {
		return Specifier{}, invalid(raw)
	}
	spec := Specifier{Kind: Program, Program: p}
	if hasIdx {
		n, ok := nonNegative(idx)
		if !ok {
			return Specifier{}, invalid(raw)
		}
		spec.Index = n
		spec.HasIndex = true
	}
	return spec, nil
}

func parseID(raw, id string) (Specifier, error) {
	if hex, ok := strings.CutPrefix(strings.ToLower(id), "0x"); ok {
		if hex == "" {
			return Specifier{}, invalid(raw)
		}
		if _, err := strconv.ParseUint(hex, 16, 64); err != nil {
			return Specifier{}, invalid(raw)
		}
		return Specifier{Kind: StreamID, ID: id}, nil
	}
	if _, ok := nonNegative(id); !ok {
		return Specifier{}, invalid(raw)
	}
	return Specifier{Kind: StreamID, ID: id}, nil
}

func nonNegative(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func invalid(raw string) error {
	return fmt.Errorf("%w: %q", ErrInvalid, raw)
}
