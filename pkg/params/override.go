package params

import (
	"fmt"
	"strings"

	"github.com/cmbsims/scanpar/pkg/logger"
)

// ParseAssignment parses a single "key = value" assignment with the
// same rules as a file line, including trailing type tags and schema
// resolution. Command line overrides go through here.
func ParseAssignment(text string, opts Options) (Entry, error) {
	key, value, ok := strings.Cut(text, "=")
	if !ok {
		return Entry{}, fmt.Errorf("invalid assignment %q: expected key = value", text)
	}
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return Entry{}, fmt.Errorf("invalid assignment %q: empty parameter name", text)
	}
	value = strings.TrimSpace(value)

	raw, tag, tagged := splitTag(value)
	if !tagged {
		if field, ok := opts.schema().Field(key); ok {
			tag = field.Tag
			if field.AllowNone && strings.EqualFold(raw, "none") {
				tag = TagNone
			}
		} else if opts.Strict {
			return Entry{}, &UnknownKeyError{Key: key}
		} else {
			tag = TagString
		}
	}

	coerced, err := coerce(raw, tag)
	if err != nil {
		return Entry{}, &CoercionError{Key: key, Raw: raw, Tag: tag, Err: err}
	}

	return Entry{Key: key, Raw: raw, Tag: tag, Value: coerced, Tagged: tagged}, nil
}

// Merge returns a copy of base with overrides applied on top. An
// override carrying the None marker never displaces an existing typed
// value, so optional flags can be passed through unconditionally.
// Every displaced value is logged.
func Merge(base *Set, overrides []Entry) *Set {
	merged := &Set{
		section: base.section,
		order:   make([]string, len(base.order)),
		entries: make(map[string]Entry, len(base.entries)),
	}
	copy(merged.order, base.order)
	for k, v := range base.entries {
		merged.entries[k] = v
	}

	for _, o := range overrides {
		if old, ok := merged.entries[o.Key]; ok {
			if o.Tag == TagNone && old.Tag != TagNone {
				continue
			}
			logger.Infof("Overwriting %s with new value: %s -> %s", o.Key, display(old), display(o))
		}
		merged.put(o)
	}

	return merged
}

func display(e Entry) string {
	if e.Tag == TagNone {
		return "None"
	}
	return e.Raw
}
