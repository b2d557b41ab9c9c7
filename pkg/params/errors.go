package params

import "fmt"

// ParseError reports a structurally malformed line: a parameter line
// with no '=', an empty key, a broken section header, or content
// appearing before the first section header.
type ParseError struct {
	Path   string
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return fmt.Sprintf("%s:%d: %s: %q", e.Path, e.Line, e.Reason, e.Text)
}

// CoercionError reports a value that does not satisfy its declared or
// schema-resolved type tag.
type CoercionError struct {
	Key  string
	Raw  string
	Tag  Tag
	Line int
	Err  error
}

func (e *CoercionError) Error() string {
	return fmt.Sprintf("line %d: %s = %q is not a valid %s value", e.Line, e.Key, e.Raw, e.Tag.Name())
}

func (e *CoercionError) Unwrap() error { return e.Err }

// UnknownKeyError reports an untagged key that is absent from the
// schema. It is returned only when strict loading is requested;
// lenient loading keeps the value as a string.
type UnknownKeyError struct {
	Key  string
	Line int
}

func (e *UnknownKeyError) Error() string {
	return fmt.Sprintf("line %d: unknown parameter %q (not in schema, no type tag)", e.Line, e.Key)
}
