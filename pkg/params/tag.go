package params

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Tag identifies how the textual value of a parameter is coerced.
// The single-letter form is what appears at the end of a tagged
// parameter line, e.g. `nside_out = 512 I`.
type Tag int

const (
	tagInvalid Tag = iota
	// TagString passes the value through as a trimmed string.
	TagString
	// TagFloat parses the value as a 64-bit float.
	TagFloat
	// TagInt parses the value as a base-10 integer.
	TagInt
	// TagBool accepts true/false, case-insensitive, nothing else.
	TagBool
	// TagNone marks a parameter as explicitly disabled; the literal
	// text (conventionally "None") is ignored.
	TagNone
)

// ParseTag recognizes a single-letter type tag token. Only the exact
// upper-case letters used in parameter files are accepted.
func ParseTag(s string) (Tag, bool) {
	switch s {
	case "S":
		return TagString, true
	case "F":
		return TagFloat, true
	case "I":
		return TagInt, true
	case "B":
		return TagBool, true
	case "N":
		return TagNone, true
	default:
		return tagInvalid, false
	}
}

// String returns the single-letter form written in parameter files.
func (t Tag) String() string {
	switch t {
	case TagString:
		return "S"
	case TagFloat:
		return "F"
	case TagInt:
		return "I"
	case TagBool:
		return "B"
	case TagNone:
		return "N"
	default:
		return "?"
	}
}

// Name returns a human-readable name for the tag, used in diagnostics
// and in schema files.
func (t Tag) Name() string {
	switch t {
	case TagString:
		return "string"
	case TagFloat:
		return "float"
	case TagInt:
		return "integer"
	case TagBool:
		return "boolean"
	case TagNone:
		return "none"
	default:
		return "unknown"
	}
}

// MarshalYAML writes the tag in its single-letter form.
func (t Tag) MarshalYAML() (interface{}, error) {
	if t == tagInvalid {
		return nil, fmt.Errorf("cannot marshal invalid tag")
	}
	return t.String(), nil
}

// UnmarshalYAML accepts either the single-letter form ("F") or the
// long name ("float"), so hand-edited schema files stay forgiving.
func (t *Tag) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}

	if tag, ok := ParseTag(s); ok {
		*t = tag
		return nil
	}

	switch s {
	case "string":
		*t = TagString
	case "float":
		*t = TagFloat
	case "integer", "int":
		*t = TagInt
	case "boolean", "bool":
		*t = TagBool
	case "none":
		*t = TagNone
	default:
		return fmt.Errorf("unknown type tag %q (want one of S, F, I, B, N)", s)
	}

	return nil
}
