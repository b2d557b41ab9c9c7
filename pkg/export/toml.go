package export

import (
	"fmt"
	"io"

	"github.com/BurntSushi/toml"

	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/params"
)

// TomlEncoder writes a parameter set as a TOML table named after the
// section. TOML has no null, so None parameters are omitted with a
// warning; readers treat a missing key as disabled.
type TomlEncoder struct{}

func (e *TomlEncoder) Name() string { return "toml" }

func (e *TomlEncoder) Encode(w io.Writer, set *params.Set) error {
	values := make(map[string]interface{}, set.Len())
	for _, key := range set.Keys() {
		entry, _ := set.Lookup(key)
		if entry.Tag == params.TagNone {
			logger.Warnf("toml has no null: omitting %s", key)
			continue
		}
		values[key] = entry.Value
	}

	doc := map[string]interface{}{set.Section(): values}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return fmt.Errorf("failed to write toml: %w", err)
	}
	return nil
}
