package format

import "github.com/smazurov/videoformat/internal/streamspec"

type scopedEntry[T any] struct {
	spec  streamspec.Specifier
	value T
}

// scoped holds one value per stream specifier. A specific specifier never
// changes the Default value; clearing Default clears every specifier.
type scoped[T any] struct {
	entries []scopedEntry[T]
}

func (s *scoped[T]) set(spec streamspec.Specifier, v T) {
	key := spec.String()
	for i := range s.entries {
		if s.entries[i].spec.IsDefault() == spec.IsDefault() && s.entries[i].spec.String() == key {
			s.entries[i].value = v
			return
		}
	}
	s.entries = append(s.entries, scopedEntry[T]{spec: spec, value: v})
}

func (s *scoped[T]) clear(spec streamspec.Specifier) {
	if spec.IsDefault() {
		s.entries = nil
		return
	}
	key := spec.String()
	for i := range s.entries {
		if !s.entries[i].spec.IsDefault() && s.entries[i].spec.String() == key {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			return
		}
	}
}

func (s *scoped[T]) get(spec streamspec.Specifier) (T, bool) {
	key := spec.String()
	for _, e := range s.entries {
		if e.spec.IsDefault() == spec.IsDefault() && e.spec.String() == key {
			return e.value, true
		}
	}
	var zero T
	return zero, false
}

func (s *scoped[T]) isSet() bool {
	return len(s.entries) > 0
}

// each visits the Default value first, then specific specifiers in the
// order they were first set.
func (s *scoped[T]) each(fn func(streamspec.Specifier, T)) {
	for _, e := range s.entries {
		if e.spec.IsDefault() {
			fn(e.spec, e.value)
		}
	}
	for _, e := range s.entries {
		if !e.spec.IsDefault() {
			fn(e.spec, e.value)
		}
	}
}
