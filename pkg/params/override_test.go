package params

import (
	"strings"
	"testing"
)

func TestParseAssignment(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		key    string
		want   interface{}
		hasErr bool
	}{
		{name: "tagged", text: "nside_out = 1024 I", key: "nside_out", want: int64(1024)},
		{name: "schema resolved", text: "sampling_freq = 60.0", key: "sampling_freq", want: 60.0},
		{name: "unknown stays string", text: "mystery = 7", key: "mystery", want: "7"},
		{name: "none through schema", text: "array_noise_level = None", key: "array_noise_level", want: nil},
		{name: "spaces kept", text: "start_date = 2014/3/1 10:00:00", key: "start_date", want: "2014/3/1 10:00:00"},
		{name: "missing equals", text: "nside_out 1024", hasErr: true},
		{name: "empty key", text: "= 12", hasErr: true},
		{name: "bad value", text: "nside_out = big I", hasErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := ParseAssignment(tt.text, Options{})
			if tt.hasErr {
				if err == nil {
					t.Errorf("Expected error for %q, got none", tt.text)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if e.Key != tt.key {
				t.Errorf("Expected key %q, got %q", tt.key, e.Key)
			}
			if e.Value != tt.want {
				t.Errorf("Expected value %v (%T), got %v (%T)", tt.want, tt.want, e.Value, e.Value)
			}
		})
	}

	if _, err := ParseAssignment("mystery = 7", Options{Strict: true}); err == nil {
		t.Errorf("Expected strict mode to reject unknown assignment keys")
	}
}

func TestMerge(t *testing.T) {
	base := NewSet("s4cmb", []Entry{
		mustEntry(t, "tag", "run_0", TagString),
		mustEntry(t, "nces", "12", TagInt),
		mustEntry(t, "array_noise_level", "4200.0", TagFloat),
	})

	merged := Merge(base, []Entry{
		mustEntry(t, "tag", "run_5", TagString),
		// None must not displace the existing noise level.
		mustEntry(t, "array_noise_level", "None", TagNone),
		mustEntry(t, "sim_number", "5", TagInt),
	})

	if v, _ := merged.String("tag"); v != "run_5" {
		t.Errorf("Expected override to replace tag, got %q", v)
	}
	if v, err := merged.Float("array_noise_level"); err != nil || v != 4200.0 {
		t.Errorf("Expected None override to be ignored, got %f (err: %v)", v, err)
	}
	if v, _ := merged.Int("sim_number"); v != 5 {
		t.Errorf("Expected new key to be added, got %d", v)
	}

	// The original set stays untouched.
	if v, _ := base.String("tag"); v != "run_0" {
		t.Errorf("Expected base set to be unchanged, got tag %q", v)
	}
	if base.Has("sim_number") {
		t.Errorf("Expected base set not to gain keys")
	}

	keys := merged.Keys()
	if keys[0] != "tag" || keys[1] != "nces" || keys[2] != "array_noise_level" {
		t.Errorf("Expected overridden keys to keep their position, got %v", keys)
	}
	if keys[3] != "sim_number" {
		t.Errorf("Expected appended key at the end, got %v", keys)
	}
}

func TestMergeNoneOverNone(t *testing.T) {
	base := NewSet("s4cmb", []Entry{
		mustEntry(t, "array_noise_level", "None", TagNone),
	})
	merged := Merge(base, []Entry{
		mustEntry(t, "array_noise_level", "None", TagNone),
	})
	if !merged.IsNone("array_noise_level") {
		t.Errorf("Expected None over None to stay None")
	}

	// A typed override always displaces None.
	merged = Merge(base, []Entry{
		mustEntry(t, "array_noise_level", "100.0", TagFloat),
	})
	if v, err := merged.Float("array_noise_level"); err != nil || v != 100.0 {
		t.Errorf("Expected typed value to displace None, got %f (err: %v)", v, err)
	}
}

func TestMergeFromAssignments(t *testing.T) {
	base := NewSet("s4cmb", []Entry{
		mustEntry(t, "nside_out", "512", TagInt),
	})

	e, err := ParseAssignment("nside_out=1024", Options{})
	if err != nil {
		t.Fatalf("Failed to parse assignment: %v", err)
	}
	merged := Merge(base, []Entry{e})
	if v, _ := merged.Int("nside_out"); v != 1024 {
		t.Errorf("Expected assignment override to apply, got %d", v)
	}
	if !strings.Contains(e.Raw, "1024") {
		t.Errorf("Expected raw text to be preserved, got %q", e.Raw)
	}
}
