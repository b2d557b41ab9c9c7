package params

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// DefaultSection is the section the simulation engines read their
// parameters from.
const DefaultSection = "s4cmb"

// Options controls how a parameter file is interpreted. The zero value
// selects the [s4cmb] section, the built-in schema, and lenient
// handling of unknown untagged keys.
type Options struct {
	// Section names the section Load returns. Empty means
	// DefaultSection.
	Section string
	// Schema resolves the types of untagged (legacy) keys. Nil means
	// DefaultSchema.
	Schema *Schema
	// Strict rejects untagged keys that are not in the schema instead
	// of falling back to string values.
	Strict bool
}

func (o Options) section() string {
	if o.Section == "" {
		return DefaultSection
	}
	return o.Section
}

func (o Options) schema() *Schema {
	if o.Schema == nil {
		return DefaultSchema()
	}
	return o.Schema
}

// Load reads a parameter file and returns the configured section.
func Load(path string, opts Options) (*Set, error) {
	file, err := LoadFile(path, opts)
	if err != nil {
		return nil, err
	}
	set, ok := file.Section(opts.section())
	if !ok {
		return nil, fmt.Errorf("section [%s] not found in %s", opts.section(), path)
	}
	return set, nil
}

// LoadFile reads every section of a parameter file.
func LoadFile(path string, opts Options) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parameter file: %w", err)
	}
	defer f.Close()
	return parse(f, path, opts)
}

// Parse reads a parameter file from r.
func Parse(r io.Reader, opts Options) (*File, error) {
	return parse(r, "", opts)
}

func parse(r io.Reader, path string, opts Options) (*File, error) {
	var (
		file    = &File{}
		current *Set
		errs    []error
	)

	scanner := bufio.NewScanner(r)
	for line := 1; scanner.Scan(); line++ {
		text := strings.TrimSpace(scanner.Text())

		// Blank lines and full-line comments carry no content. A '#'
		// later in a line belongs to the value.
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		if strings.HasPrefix(text, "[") {
			name, err := sectionName(text)
			if err != nil {
				return nil, &ParseError{Path: path, Line: line, Text: text, Reason: err.Error()}
			}
			current = &Set{section: name, entries: make(map[string]Entry)}
			file.sections = append(file.sections, current)
			continue
		}

		if current == nil {
			return nil, &ParseError{Path: path, Line: line, Text: text, Reason: "parameter before any [section] header"}
		}

		key, value, ok := strings.Cut(text, "=")
		if !ok {
			return nil, &ParseError{Path: path, Line: line, Text: text, Reason: "expected key = value"}
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if key == "" {
			return nil, &ParseError{Path: path, Line: line, Text: text, Reason: "empty parameter name"}
		}
		value = strings.TrimSpace(value)

		raw, tag, tagged := splitTag(value)
		if !tagged {
			// Legacy format: the schema knows the type. Unknown keys
			// pass through as strings unless strict mode is on.
			if field, ok := opts.schema().Field(key); ok {
				tag = field.Tag
				if field.AllowNone && strings.EqualFold(raw, "none") {
					tag = TagNone
				}
			} else if opts.Strict {
				errs = append(errs, &UnknownKeyError{Key: key, Line: line})
				continue
			} else {
				tag = TagString
			}
		}

		coerced, err := coerce(raw, tag)
		if err != nil {
			errs = append(errs, &CoercionError{Key: key, Raw: raw, Tag: tag, Line: line, Err: err})
			continue
		}

		current.put(Entry{
			Key:    key,
			Raw:    raw,
			Tag:    tag,
			Value:  coerced,
			Line:   line,
			Tagged: tagged,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read parameter file: %w", err)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return file, nil
}

// sectionName extracts the name from a [section] header line.
func sectionName(text string) (string, error) {
	if !strings.HasSuffix(text, "]") {
		return "", errors.New("unterminated section header")
	}
	name := strings.TrimSpace(text[1 : len(text)-1])
	if name == "" {
		return "", errors.New("empty section name")
	}
	return name, nil
}

// splitTag takes the trimmed text after '=' and separates the value
// from a trailing type tag. The tag must be preceded by a value, so a
// lone letter stays a value ("parity = S" is the string "S", not an
// empty string tagged S). Interior whitespace survives, which is what
// keeps "start_date = 2013/1/1 00:00:00 S" intact.
func splitTag(value string) (string, Tag, bool) {
	fields := strings.Fields(value)
	if len(fields) < 2 {
		return value, tagInvalid, false
	}
	last := fields[len(fields)-1]
	tag, ok := ParseTag(last)
	if !ok {
		return value, tagInvalid, false
	}
	raw := strings.TrimSpace(value[:len(value)-len(last)])
	return raw, tag, true
}
