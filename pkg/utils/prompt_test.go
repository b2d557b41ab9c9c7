package utils

import (
	"strings"
	"testing"

	"github.com/cmbsims/scanpar/pkg/params"
)

func TestPromptSkippedUsesDefaults(t *testing.T) {
	t.Setenv("SCANPAR_SKIP_PROMPTS", "true")

	schema := params.DefaultSchema()
	entries, err := PromptForParameters(schema)
	if err != nil {
		t.Fatalf("Failed to resolve parameters: %v", err)
	}
	if len(entries) != schema.Len() {
		t.Fatalf("Expected %d entries, got %d", schema.Len(), len(entries))
	}

	set := params.NewSet("s4cmb", entries)
	if problems := schema.Validate(set); len(problems) != 0 {
		t.Errorf("Expected defaults to validate, got: %v", problems)
	}
	if v, err := set.Int("nces"); err != nil || v != 12 {
		t.Errorf("Expected nces 12, got %d (err: %v)", v, err)
	}
	if !set.IsNone("array_noise_level") {
		t.Errorf("Expected array_noise_level to default to None")
	}
}

func TestPromptEnvironmentOverride(t *testing.T) {
	t.Setenv("SCANPAR_SKIP_PROMPTS", "true")
	t.Setenv("SCANPAR_NCES", "24")
	t.Setenv("SCANPAR_ARRAY_NOISE_LEVEL", "10.0")

	entries, err := PromptForParameters(params.DefaultSchema())
	if err != nil {
		t.Fatalf("Failed to resolve parameters: %v", err)
	}

	set := params.NewSet("s4cmb", entries)
	if v, _ := set.Int("nces"); v != 24 {
		t.Errorf("Expected environment to override nces, got %d", v)
	}
	if v, err := set.Float("array_noise_level"); err != nil || v != 10.0 {
		t.Errorf("Expected array_noise_level 10.0, got %f (err: %v)", v, err)
	}
}

func TestPromptForFieldNonInteractive(t *testing.T) {
	tests := []struct {
		name   string
		field  params.Field
		env    string
		want   interface{}
		hasErr bool
	}{
		{
			name:  "default value",
			field: params.Field{Key: "nces", Tag: params.TagInt, Default: "12", Required: true},
			want:  int64(12),
		},
		{
			name:  "environment wins",
			field: params.Field{Key: "nces", Tag: params.TagInt, Default: "12", Required: true},
			env:   "7",
			want:  int64(7),
		},
		{
			name:  "none on a float field",
			field: params.Field{Key: "array_noise_level", Tag: params.TagFloat, Default: "None", AllowNone: true, Required: true},
			want:  nil,
		},
		{
			name:   "required without default",
			field:  params.Field{Key: "tag", Tag: params.TagString, Required: true},
			hasErr: true,
		},
		{
			name:  "optional without default",
			field: params.Field{Key: "language", Tag: params.TagString},
			want:  "",
		},
		{
			name:   "unparsable environment value",
			field:  params.Field{Key: "nces", Tag: params.TagInt, Default: "12", Required: true},
			env:    "lots",
			hasErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv(envKey(tt.field.Key), tt.env)
			}

			entry, err := promptForField(tt.field, false)
			if tt.hasErr {
				if err == nil {
					t.Fatalf("Expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Failed to resolve field: %v", err)
			}
			if entry.Value != tt.want {
				t.Errorf("Expected value %v, got %v", tt.want, entry.Value)
			}
		})
	}
}

func TestNumberValidator(t *testing.T) {
	min, max := 1.0, 100.0
	field := params.Field{Key: "nces", Tag: params.TagInt, Min: &min, Max: &max}

	validate := numberValidator(field)
	if err := validate("12"); err != nil {
		t.Errorf("Expected 12 to pass, got %v", err)
	}
	if err := validate("0"); err == nil {
		t.Errorf("Expected 0 to fail the minimum")
	}
	if err := validate("101"); err == nil {
		t.Errorf("Expected 101 to fail the maximum")
	}
	if err := validate("twelve"); err == nil {
		t.Errorf("Expected a non-number to fail")
	}
	if err := validate("1.5"); err == nil {
		t.Errorf("Expected a float to fail an integer field")
	}

	field.AllowNone = true
	if err := numberValidator(field)("None"); err != nil {
		t.Errorf("Expected None to pass when allowed, got %v", err)
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("array_noise_level"); got != "SCANPAR_ARRAY_NOISE_LEVEL" {
		t.Errorf("Expected SCANPAR_ARRAY_NOISE_LEVEL, got %s", got)
	}
	if !strings.HasPrefix(envKey("nces"), "SCANPAR_") {
		t.Errorf("Expected the SCANPAR_ prefix")
	}
}
