package params

import (
	"fmt"
	"strconv"
	"strings"
)

// Entry is a single named parameter after type coercion.
type Entry struct {
	// Key is the parameter name, lower-cased.
	Key string
	// Raw is the textual value as written, trimmed, before coercion.
	Raw string
	// Tag is the type applied during coercion.
	Tag Tag
	// Value holds the coerced value: string, float64, int64, bool, or
	// nil for TagNone.
	Value interface{}
	// Line is the 1-based line number the entry came from, 0 when the
	// entry was built in memory.
	Line int
	// Tagged reports whether the tag was written in the file. False
	// means it was resolved from the schema (legacy format) or the
	// entry fell through as a plain string.
	Tagged bool
}

// NewEntry builds an entry from a raw textual value, applying the same
// coercion rules the loader uses. The key is lower-cased.
func NewEntry(key, raw string, tag Tag) (Entry, error) {
	e := Entry{
		Key: strings.ToLower(strings.TrimSpace(key)),
		Raw: strings.TrimSpace(raw),
		Tag: tag,
	}
	if e.Key == "" {
		return Entry{}, fmt.Errorf("parameter key must not be empty")
	}

	value, err := coerce(e.Raw, tag)
	if err != nil {
		return Entry{}, &CoercionError{Key: e.Key, Raw: e.Raw, Tag: tag, Err: err}
	}
	e.Value = value

	return e, nil
}

// IsNone reports whether the entry carries the explicit "disabled"
// marker.
func (e Entry) IsNone() bool { return e.Tag == TagNone }

// coerce applies a type tag to a raw textual value.
func coerce(raw string, tag Tag) (interface{}, error) {
	switch tag {
	case TagString:
		return raw, nil
	case TagFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing float: %w", err)
		}
		return f, nil
	case TagInt:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing integer: %w", err)
		}
		return i, nil
	case TagBool:
		// Only true/false are accepted; 1/0/yes/no are rejected so a
		// typo cannot silently flip a simulation switch.
		if strings.EqualFold(raw, "true") {
			return true, nil
		}
		if strings.EqualFold(raw, "false") {
			return false, nil
		}
		return nil, fmt.Errorf("want true or false, got %q", raw)
	case TagNone:
		// The literal is conventionally "None" but any text maps to
		// the absent marker.
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid type tag")
	}
}

// Set is an ordered collection of entries scoped to one named section
// of a parameter file. Duplicate keys overwrite in place, keeping the
// position of the first occurrence. A Set is not modified after the
// loader returns it.
type Set struct {
	section string
	order   []string
	entries map[string]Entry
}

// NewSet builds a Set in memory, e.g. from schema defaults or from
// interactive prompts. Entries with duplicate keys overwrite earlier
// ones, mirroring file semantics.
func NewSet(section string, entries []Entry) *Set {
	s := &Set{
		section: section,
		entries: make(map[string]Entry, len(entries)),
	}
	for _, e := range entries {
		s.put(e)
	}
	return s
}

func (s *Set) put(e Entry) {
	if _, seen := s.entries[e.Key]; !seen {
		s.order = append(s.order, e.Key)
	}
	s.entries[e.Key] = e
}

// Section returns the section name the set was loaded from.
func (s *Set) Section() string { return s.section }

// Len returns the number of distinct keys.
func (s *Set) Len() int { return len(s.order) }

// Keys returns the keys in file order.
func (s *Set) Keys() []string {
	keys := make([]string, len(s.order))
	copy(keys, s.order)
	return keys
}

// Has reports whether key is present. Lookup is case-insensitive.
func (s *Set) Has(key string) bool {
	_, ok := s.entries[strings.ToLower(key)]
	return ok
}

// Lookup returns the entry for key.
func (s *Set) Lookup(key string) (Entry, bool) {
	e, ok := s.entries[strings.ToLower(key)]
	return e, ok
}

// IsNone reports whether key is present and carries the disabled
// marker.
func (s *Set) IsNone(key string) bool {
	e, ok := s.Lookup(key)
	return ok && e.IsNone()
}

// String returns the string value of key. It fails if the key is
// missing or typed differently.
func (s *Set) String(key string) (string, error) {
	e, err := s.typed(key, TagString)
	if err != nil {
		return "", err
	}
	return e.Value.(string), nil
}

// Float returns the float value of key. Integer-tagged values widen to
// float64, matching how the engine consumes numeric parameters.
func (s *Set) Float(key string) (float64, error) {
	e, ok := s.Lookup(key)
	if !ok {
		return 0, fmt.Errorf("parameter %q not found in section [%s]", strings.ToLower(key), s.section)
	}
	switch e.Tag {
	case TagFloat:
		return e.Value.(float64), nil
	case TagInt:
		return float64(e.Value.(int64)), nil
	default:
		return 0, fmt.Errorf("parameter %q is %s, not float", e.Key, e.Tag.Name())
	}
}

// Int returns the integer value of key. Floats are not narrowed.
func (s *Set) Int(key string) (int, error) {
	e, err := s.typed(key, TagInt)
	if err != nil {
		return 0, err
	}
	return int(e.Value.(int64)), nil
}

// Bool returns the boolean value of key.
func (s *Set) Bool(key string) (bool, error) {
	e, err := s.typed(key, TagBool)
	if err != nil {
		return false, err
	}
	return e.Value.(bool), nil
}

func (s *Set) typed(key string, want Tag) (Entry, error) {
	e, ok := s.Lookup(key)
	if !ok {
		return Entry{}, fmt.Errorf("parameter %q not found in section [%s]", strings.ToLower(key), s.section)
	}
	if e.Tag != want {
		return Entry{}, fmt.Errorf("parameter %q is %s, not %s", e.Key, e.Tag.Name(), want.Name())
	}
	return e, nil
}

// File holds every section of a parameter file in file order.
type File struct {
	sections []*Set
}

// Sections returns the sections in file order.
func (f *File) Sections() []*Set {
	out := make([]*Set, len(f.sections))
	copy(out, f.sections)
	return out
}

// Section returns the named section.
func (f *File) Section(name string) (*Set, bool) {
	for _, s := range f.sections {
		if s.section == name {
			return s, true
		}
	}
	return nil, false
}
