package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cmbsims/scanpar/pkg/params"
)

// JsonEncoder writes a parameter set as a JSON object keyed by the
// section name. The None marker becomes null. Keys are sorted.
type JsonEncoder struct{}

func (e *JsonEncoder) Name() string { return "json" }

func (e *JsonEncoder) Encode(w io.Writer, set *params.Set) error {
	values := make(map[string]interface{}, set.Len())
	for _, key := range set.Keys() {
		entry, _ := set.Lookup(key)
		values[key] = entry.Value
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(map[string]interface{}{set.Section(): values}); err != nil {
		return fmt.Errorf("failed to write json: %w", err)
	}
	return nil
}
