package export

import (
	"fmt"
	"io"

	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/params"
)

// IniEncoder writes the ini format the simulation engines read. The
// default output carries a type tag on every line; Legacy reproduces
// the older untagged format.
type IniEncoder struct {
	// Legacy omits type tags. Readers then depend on a schema.
	Legacy bool
	// Schema, when set, groups the output with comment banners.
	Schema *params.Schema
}

func (e *IniEncoder) Name() string {
	if e.Legacy {
		return "legacy-ini"
	}
	return "ini"
}

func (e *IniEncoder) Encode(w io.Writer, set *params.Set) error {
	if _, err := fmt.Fprintf(w, "[%s]\n", set.Section()); err != nil {
		return fmt.Errorf("failed to write section header: %w", err)
	}

	schema := e.Schema
	if schema == nil && e.Legacy {
		schema = params.DefaultSchema()
	}

	seenGroups := make(map[string]bool)
	for _, key := range set.Keys() {
		entry, _ := set.Lookup(key)

		if e.Schema != nil {
			if field, ok := e.Schema.Field(key); ok && field.Group != "" && !seenGroups[field.Group] {
				seenGroups[field.Group] = true
				if _, err := fmt.Fprintf(w, "\n# %s parameters\n", field.Group); err != nil {
					return fmt.Errorf("failed to write group banner: %w", err)
				}
			}
		}

		if err := e.writeEntry(w, schema, entry); err != nil {
			return err
		}
	}

	return nil
}

func (e *IniEncoder) writeEntry(w io.Writer, schema *params.Schema, entry params.Entry) error {
	value := entry.Raw
	if entry.Tag == params.TagNone {
		value = "None"
	}

	var err error
	if e.Legacy {
		// Untagged values round-trip only through a schema. Anything
		// the schema does not know will reload as a plain string.
		if _, known := schema.Field(entry.Key); !known {
			logger.Warnf("legacy format cannot type %s; it will reload as a string", entry.Key)
		}
		_, err = fmt.Fprintf(w, "%s = %s\n", entry.Key, value)
	} else {
		_, err = fmt.Fprintf(w, "%s = %s %s\n", entry.Key, value, entry.Tag)
	}
	if err != nil {
		return fmt.Errorf("failed to write parameter %s: %w", entry.Key, err)
	}

	return nil
}
