package params

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Field describes one parameter in a schema: its type, where it
// belongs, and the constraints a valid value satisfies.
type Field struct {
	// Key is the parameter name, lower-cased.
	Key string `yaml:"key"`
	// Tag is the parameter type.
	Tag Tag `yaml:"type"`
	// Group names the instrument subsystem the parameter configures
	// (sky, instrument, scan, output).
	Group string `yaml:"group,omitempty"`
	// Description is a one-line summary shown by prompts and listings.
	Description string `yaml:"description,omitempty"`
	// Required marks parameters a run cannot start without.
	Required bool `yaml:"required,omitempty"`
	// AllowNone permits the explicit disabled marker in place of a
	// typed value.
	AllowNone bool `yaml:"allow_none,omitempty"`
	// Default is the textual default offered when generating files.
	Default string `yaml:"default,omitempty"`
	// Options restricts string parameters to a fixed set of values.
	Options []string `yaml:"options,omitempty"`
	// Min and Max bound numeric parameters when set.
	Min *float64 `yaml:"min,omitempty"`
	Max *float64 `yaml:"max,omitempty"`
}

// Schema is the ordered set of parameters a simulation engine
// understands. It types untagged legacy files and validates values.
type Schema struct {
	name        string
	description string
	fields      []Field
	index       map[string]int
}

// NewSchema builds a schema from an ordered field list. Later
// duplicates overwrite earlier ones.
func NewSchema(name, description string, fields []Field) *Schema {
	s := &Schema{
		name:        name,
		description: description,
		index:       make(map[string]int, len(fields)),
	}
	for _, f := range fields {
		f.Key = strings.ToLower(f.Key)
		if i, seen := s.index[f.Key]; seen {
			s.fields[i] = f
			continue
		}
		s.index[f.Key] = len(s.fields)
		s.fields = append(s.fields, f)
	}
	return s
}

// Name returns the schema name, normally the engine section name.
func (s *Schema) Name() string { return s.name }

// Description returns the schema description.
func (s *Schema) Description() string { return s.description }

// Len returns the number of fields.
func (s *Schema) Len() int { return len(s.fields) }

// Fields returns the fields in declaration order.
func (s *Schema) Fields() []Field {
	out := make([]Field, len(s.fields))
	copy(out, s.fields)
	return out
}

// Field returns the schema entry for key.
func (s *Schema) Field(key string) (Field, bool) {
	i, ok := s.index[strings.ToLower(key)]
	if !ok {
		return Field{}, false
	}
	return s.fields[i], true
}

// Groups returns the distinct group names in declaration order.
func (s *Schema) Groups() []string {
	var groups []string
	seen := make(map[string]bool)
	for _, f := range s.fields {
		if !seen[f.Group] {
			seen[f.Group] = true
			groups = append(groups, f.Group)
		}
	}
	return groups
}

// Group returns the fields belonging to the named group, in order.
func (s *Schema) Group(name string) []Field {
	var out []Field
	for _, f := range s.fields {
		if f.Group == name {
			out = append(out, f)
		}
	}
	return out
}

// schemaDoc is the on-disk YAML layout of a schema.
type schemaDoc struct {
	Name        string  `yaml:"name"`
	Description string  `yaml:"description,omitempty"`
	Parameters  []Field `yaml:"parameters"`
}

// LoadSchema reads a schema definition from a YAML file.
func LoadSchema(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema file: %w", err)
	}

	var doc schemaDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse schema file: %w", err)
	}
	if len(doc.Parameters) == 0 {
		return nil, fmt.Errorf("schema file %s defines no parameters", path)
	}
	for _, f := range doc.Parameters {
		if f.Key == "" {
			return nil, fmt.Errorf("schema file %s has a parameter without a key", path)
		}
	}

	return NewSchema(doc.Name, doc.Description, doc.Parameters), nil
}

// Save writes the schema as YAML, creating parent directories as
// needed.
func (s *Schema) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create schema directory: %w", err)
		}
	}

	data, err := yaml.Marshal(schemaDoc{
		Name:        s.name,
		Description: s.description,
		Parameters:  s.Fields(),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write schema file: %w", err)
	}

	return nil
}

// Problem describes one way a parameter set fails its schema.
type Problem struct {
	Key     string
	Line    int
	Message string
}

func (p Problem) String() string {
	if p.Line > 0 {
		return fmt.Sprintf("line %d: %s: %s", p.Line, p.Key, p.Message)
	}
	return fmt.Sprintf("%s: %s", p.Key, p.Message)
}

// Validate checks a parameter set against the schema and returns every
// problem found, in set order. An empty result means the set is valid.
func (s *Schema) Validate(set *Set) []Problem {
	var problems []Problem

	for _, f := range s.fields {
		if f.Required && !set.Has(f.Key) {
			problems = append(problems, Problem{Key: f.Key, Message: "required parameter missing"})
		}
	}

	for _, key := range set.Keys() {
		e, _ := set.Lookup(key)
		f, ok := s.Field(key)
		if !ok {
			problems = append(problems, Problem{Key: key, Line: e.Line, Message: "unknown parameter (not in schema)"})
			continue
		}

		if e.Tag == TagNone {
			if !f.AllowNone {
				problems = append(problems, Problem{
					Key:     key,
					Line:    e.Line,
					Message: fmt.Sprintf("does not accept None, want %s", f.Tag.Name()),
				})
			}
			continue
		}
		if e.Tag != f.Tag {
			problems = append(problems, Problem{
				Key:     key,
				Line:    e.Line,
				Message: fmt.Sprintf("has type %s, want %s", e.Tag.Name(), f.Tag.Name()),
			})
			continue
		}

		switch e.Tag {
		case TagString:
			if len(f.Options) > 0 && !contains(f.Options, e.Value.(string)) {
				problems = append(problems, Problem{
					Key:     key,
					Line:    e.Line,
					Message: fmt.Sprintf("must be one of %s, got %q", strings.Join(f.Options, ", "), e.Value),
				})
			}
		case TagInt, TagFloat:
			v := toFloat(e)
			if f.Min != nil && v < *f.Min {
				problems = append(problems, Problem{
					Key:     key,
					Line:    e.Line,
					Message: fmt.Sprintf("must be >= %g, got %s", *f.Min, e.Raw),
				})
			}
			if f.Max != nil && v > *f.Max {
				problems = append(problems, Problem{
					Key:     key,
					Line:    e.Line,
					Message: fmt.Sprintf("must be <= %g, got %s", *f.Max, e.Raw),
				})
			}
		}
	}

	return problems
}

func toFloat(e Entry) float64 {
	if e.Tag == TagInt {
		return float64(e.Value.(int64))
	}
	return e.Value.(float64)
}

func contains(options []string, v string) bool {
	for _, o := range options {
		if o == v {
			return true
		}
	}
	return false
}

func f64(v float64) *float64 { return &v }

// DefaultSchema returns the parameter schema of the s4cmb scan
// simulation engine. It is the authority on types for legacy files
// written before tags were added to the format.
func DefaultSchema() *Schema {
	return NewSchema("s4cmb", "Parameters of the s4cmb scan simulation engine.", []Field{
		// Input sky.
		{Key: "input_filename", Tag: TagString, Group: "sky", Required: true,
			Description: "Path to the input CAMB lensed Cls file or healpix map",
			Default:     "s4cmb/data/test_data_set_lensedCls.dat"},
		{Key: "do_pol", Tag: TagBool, Group: "sky", Required: true,
			Description: "Simulate polarisation (Q/U) in addition to intensity",
			Default:     "True"},
		{Key: "fwhm_in", Tag: TagFloat, Group: "sky", Required: true, Min: f64(0),
			Description: "Beam FWHM already applied to the input map [arcmin]",
			Default:     "3.5"},
		{Key: "nside_in", Tag: TagInt, Group: "sky", Required: true, Min: f64(1),
			Description: "Healpix resolution of the input map",
			Default:     "512"},
		{Key: "map_seed", Tag: TagInt, Group: "sky", Required: true,
			Description: "Seed used to generate the input map from Cls",
			Default:     "5843787"},
		{Key: "no_ileak", Tag: TagBool, Group: "sky", Required: true,
			Description: "Zero the intensity map to isolate leakage effects",
			Default:     "False"},
		{Key: "no_quleak", Tag: TagBool, Group: "sky", Required: true,
			Description: "Zero the polarisation maps to isolate leakage effects",
			Default:     "False"},

		// Instrument.
		{Key: "ncrate", Tag: TagInt, Group: "instrument", Required: true, Min: f64(1),
			Description: "Number of readout crates",
			Default:     "1"},
		{Key: "ndfmux_per_crate", Tag: TagInt, Group: "instrument", Required: true, Min: f64(1),
			Description: "Number of DfMux boards per crate",
			Default:     "1"},
		{Key: "nsquid_per_mux", Tag: TagInt, Group: "instrument", Required: true, Min: f64(1),
			Description: "Number of SQUIDs per DfMux board",
			Default:     "1"},
		{Key: "npair_per_squid", Tag: TagInt, Group: "instrument", Required: true, Min: f64(1),
			Description: "Number of detector pairs per SQUID",
			Default:     "4"},
		{Key: "fp_size", Tag: TagFloat, Group: "instrument", Required: true, Min: f64(0),
			Description: "Physical focal plane size [cm]",
			Default:     "60.0"},
		{Key: "fwhm", Tag: TagFloat, Group: "instrument", Required: true, Min: f64(0),
			Description: "Beam FWHM of the detectors [arcmin]",
			Default:     "3.5"},
		{Key: "beam_seed", Tag: TagInt, Group: "instrument", Required: true,
			Description: "Seed used to generate beam imperfections",
			Default:     "58347"},
		{Key: "projected_fp_size", Tag: TagFloat, Group: "instrument", Required: true, Min: f64(0),
			Description: "Focal plane size projected on the sky [degrees]",
			Default:     "3.0"},
		{Key: "pm_name", Tag: TagString, Group: "instrument", Required: true,
			Description: "Pointing model used to convert encoder data to sky coordinates",
			Default:     "5params", Options: []string{"5params"}},
		{Key: "type_hwp", Tag: TagString, Group: "instrument", Required: true,
			Description: "Half-wave plate operation mode",
			Default:     "CRHWP", Options: []string{"CRHWP", "stepped"}},
		{Key: "freq_hwp", Tag: TagFloat, Group: "instrument", Required: true, Min: f64(0),
			Description: "Half-wave plate rotation frequency [Hz]",
			Default:     "2.0"},
		{Key: "angle_hwp", Tag: TagFloat, Group: "instrument", Required: true,
			Description: "Starting angle of the half-wave plate [degrees]",
			Default:     "0.0"},
		{Key: "name_instrument", Tag: TagString, Group: "instrument", Required: true,
			Description: "Instrument name used in output file names",
			Default:     "so_deep"},

		// Scanning strategy.
		{Key: "nces", Tag: TagInt, Group: "scan", Required: true, Min: f64(1),
			Description: "Number of constant elevation scans",
			Default:     "12"},
		{Key: "start_date", Tag: TagString, Group: "scan", Required: true,
			Description: "Starting date of observations (YYYY/M/D HH:MM:SS, UTC)",
			Default:     "2013/1/1 00:00:00"},
		{Key: "telescope_longitude", Tag: TagString, Group: "scan", Required: true,
			Description: "Telescope longitude (sexagesimal, West negative)",
			Default:     "-67:46.816"},
		{Key: "telescope_latitude", Tag: TagString, Group: "scan", Required: true,
			Description: "Telescope latitude (sexagesimal, South negative)",
			Default:     "-22:56.396"},
		{Key: "telescope_elevation", Tag: TagFloat, Group: "scan", Required: true, Min: f64(0),
			Description: "Telescope elevation above sea level [m]",
			Default:     "5200.0"},
		{Key: "name_strategy", Tag: TagString, Group: "scan", Required: true,
			Description: "Predefined scanning strategy",
			Default:     "deep_patch", Options: []string{"deep_patch"}},
		{Key: "sampling_freq", Tag: TagFloat, Group: "scan", Required: true, Min: f64(0),
			Description: "Detector sampling frequency [Hz]",
			Default:     "15.0"},
		{Key: "sky_speed", Tag: TagFloat, Group: "scan", Required: true, Min: f64(0),
			Description: "Azimuth scan speed projected on the sky [deg/s]",
			Default:     "0.4"},
		{Key: "ut1utc_fn", Tag: TagString, Group: "scan", Required: true,
			Description: "Path to the UT1-UTC correction ephemerides",
			Default:     "s4cmb/data/ut1utc.ephem"},
		{Key: "language", Tag: TagString, Group: "scan",
			Description: "Implementation computing the pointing (older files omit this)",
			Default:     "python", Options: []string{"python", "C", "fortran"}},

		// Output maps.
		{Key: "projection", Tag: TagString, Group: "output", Required: true,
			Description: "Sky projection of the output maps",
			Default:     "flat", Options: []string{"healpix", "flat"}},
		{Key: "nside_out", Tag: TagInt, Group: "output", Required: true, Min: f64(1),
			Description: "Healpix resolution of the output maps",
			Default:     "512"},
		{Key: "pixel_size", Tag: TagFloat, Group: "output", Required: true, Min: f64(0),
			Description: "Pixel size of flat output maps [arcmin]",
			Default:     "0.5"},
		{Key: "width", Tag: TagFloat, Group: "output", Required: true, Min: f64(0),
			Description: "Width of flat output maps [degrees]",
			Default:     "140.0"},
		{Key: "array_noise_level", Tag: TagFloat, Group: "output", Required: true, AllowNone: true, Min: f64(0),
			Description: "White noise level of the array [uK.sqrt(s)], None to disable",
			Default:     "None"},
		{Key: "array_noise_seed", Tag: TagInt, Group: "output", Required: true,
			Description: "Seed used to generate the noise timestreams",
			Default:     "487587"},
		{Key: "folder_out", Tag: TagString, Group: "output", Required: true,
			Description: "Directory receiving the output maps",
			Default:     "s4cmb_output"},
		{Key: "sim_number", Tag: TagInt, Group: "output", Required: true, Min: f64(0),
			Description: "Index of the simulation within a Monte Carlo batch",
			Default:     "0"},
		{Key: "tag", Tag: TagString, Group: "output", Required: true,
			Description: "Tag identifying the run in output file names",
			Default:     "run_0"},
		{Key: "verbose", Tag: TagBool, Group: "output", Required: true,
			Description: "Print progress information during the run",
			Default:     "False"},
	})
}
