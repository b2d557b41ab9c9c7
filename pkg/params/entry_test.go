package params

import (
	"strings"
	"testing"
)

func TestNewEntry(t *testing.T) {
	tests := []struct {
		name   string
		key    string
		raw    string
		tag    Tag
		want   interface{}
		hasErr bool
	}{
		{name: "string", key: "tag", raw: "run_0", tag: TagString, want: "run_0"},
		{name: "float", key: "fwhm", raw: "3.5", tag: TagFloat, want: 3.5},
		{name: "int", key: "nces", raw: "12", tag: TagInt, want: int64(12)},
		{name: "bool", key: "do_pol", raw: "True", tag: TagBool, want: true},
		{name: "none", key: "array_noise_level", raw: "None", tag: TagNone, want: nil},
		{name: "key lowered", key: "NCES", raw: "12", tag: TagInt, want: int64(12)},
		{name: "bad float", key: "fwhm", raw: "wide", tag: TagFloat, hasErr: true},
		{name: "float is not int", key: "nces", raw: "12.5", tag: TagInt, hasErr: true},
		{name: "bad bool", key: "do_pol", raw: "1", tag: TagBool, hasErr: true},
		{name: "empty key", key: "  ", raw: "1", tag: TagInt, hasErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEntry(tt.key, tt.raw, tt.tag)
			if tt.hasErr {
				if err == nil {
					t.Errorf("Expected error for %q %s, got none", tt.raw, tt.tag)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if e.Value != tt.want {
				t.Errorf("Expected value %v (%T), got %v (%T)", tt.want, tt.want, e.Value, e.Value)
			}
			if e.Key != strings.ToLower(strings.TrimSpace(tt.key)) {
				t.Errorf("Expected lowered key, got %q", e.Key)
			}
		})
	}
}

func TestSetAccessorTypes(t *testing.T) {
	set := mustNewSet(t, []Entry{
		mustEntry(t, "nces", "12", TagInt),
		mustEntry(t, "fwhm", "3.5", TagFloat),
		mustEntry(t, "tag", "run_0", TagString),
		mustEntry(t, "do_pol", "True", TagBool),
		mustEntry(t, "array_noise_level", "None", TagNone),
	})

	// Integers widen to float for consumers that only care about the
	// numeric value.
	if v, err := set.Float("nces"); err != nil || v != 12.0 {
		t.Errorf("Expected integer to widen to 12.0, got %f (err: %v)", v, err)
	}

	// Floats never narrow to int.
	if _, err := set.Int("fwhm"); err == nil {
		t.Errorf("Expected Int on a float parameter to fail")
	}

	if _, err := set.String("nces"); err == nil {
		t.Errorf("Expected String on an integer parameter to fail")
	}
	if _, err := set.Bool("tag"); err == nil {
		t.Errorf("Expected Bool on a string parameter to fail")
	}

	if _, err := set.Int("missing"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("Expected not-found error, got: %v", err)
	}

	// None is not readable through the typed accessors.
	if _, err := set.Float("array_noise_level"); err == nil {
		t.Errorf("Expected Float on a None parameter to fail")
	}
	if !set.IsNone("array_noise_level") {
		t.Errorf("Expected IsNone to report the marker")
	}
	if set.IsNone("fwhm") {
		t.Errorf("Expected IsNone to be false for typed values")
	}
	if set.IsNone("missing") {
		t.Errorf("Expected IsNone to be false for missing keys")
	}
}

func TestSetOrderAndLookup(t *testing.T) {
	set := mustNewSet(t, []Entry{
		mustEntry(t, "b_key", "2", TagInt),
		mustEntry(t, "a_key", "1", TagInt),
		mustEntry(t, "c_key", "3", TagInt),
	})

	keys := set.Keys()
	if len(keys) != 3 || keys[0] != "b_key" || keys[1] != "a_key" || keys[2] != "c_key" {
		t.Errorf("Expected insertion order to be kept, got %v", keys)
	}
	if set.Section() != "s4cmb" {
		t.Errorf("Expected section 's4cmb', got %q", set.Section())
	}
	if e, ok := set.Lookup("A_KEY"); !ok || e.Key != "a_key" {
		t.Errorf("Expected case-insensitive lookup, got %v %v", e, ok)
	}
}

func mustEntry(t *testing.T, key, raw string, tag Tag) Entry {
	t.Helper()
	e, err := NewEntry(key, raw, tag)
	if err != nil {
		t.Fatalf("Failed to build entry %s: %v", key, err)
	}
	return e
}

func mustNewSet(t *testing.T, entries []Entry) *Set {
	t.Helper()
	return NewSet("s4cmb", entries)
}
