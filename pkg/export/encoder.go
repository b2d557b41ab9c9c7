// Package export converts parameter sets between the ini format the
// simulation engines read and formats other tooling consumes.
package export

import (
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/cmbsims/scanpar/pkg/params"
)

// Encoder writes a parameter set in one output format
type Encoder interface {
	// Name returns the format name used to select the encoder
	Name() string
	// Encode writes the set to w
	Encode(w io.Writer, set *params.Set) error
}

// Registry manages the available output formats
type Registry struct {
	mu       sync.RWMutex
	encoders map[string]Encoder
}

// NewRegistry creates an empty encoder registry
func NewRegistry() *Registry {
	return &Registry{
		encoders: make(map[string]Encoder),
	}
}

// Register adds an encoder to the registry
func (r *Registry) Register(e Encoder) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.encoders[e.Name()]; exists {
		return fmt.Errorf("format %s already registered", e.Name())
	}

	r.encoders[e.Name()] = e
	return nil
}

// Get returns the encoder for a format name
func (r *Registry) Get(name string) (Encoder, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.encoders[name]
	if !exists {
		return nil, fmt.Errorf("unknown output format %q (available: %v)", name, r.list())
	}

	return e, nil
}

// List returns the registered format names, sorted
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.list()
}

func (r *Registry) list() []string {
	names := make([]string, 0, len(r.encoders))
	for name := range r.encoders {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultRegistry is the global encoder registry
var DefaultRegistry = NewRegistry()

func init() {
	for _, e := range []Encoder{
		&IniEncoder{},
		&IniEncoder{Legacy: true},
		&YamlEncoder{},
		&TomlEncoder{},
		&JsonEncoder{},
	} {
		if err := DefaultRegistry.Register(e); err != nil {
			panic(err)
		}
	}
}

// Encode writes set to w in the named format using the default
// registry
func Encode(w io.Writer, name string, set *params.Set) error {
	e, err := DefaultRegistry.Get(name)
	if err != nil {
		return err
	}
	return e.Encode(w, set)
}
