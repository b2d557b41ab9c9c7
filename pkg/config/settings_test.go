package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
)

func TestLoadDefaults(t *testing.T) {
	settings, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Engine != "s4cmb" {
		t.Errorf("Expected default engine 's4cmb', got %q", settings.Engine)
	}
	if settings.Section != "s4cmb" {
		t.Errorf("Expected default section 's4cmb', got %q", settings.Section)
	}
	if settings.LogLevel != "info" {
		t.Errorf("Expected default log level 'info', got %q", settings.LogLevel)
	}
	if settings.Strict {
		t.Errorf("Expected lenient mode by default")
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	t.Setenv("SCANPAR_ENGINE", "/opt/cmb/bin/s4cmb")
	t.Setenv("SCANPAR_LOG_LEVEL", "debug")
	t.Setenv("SCANPAR_STRICT", "true")

	settings, err := Load(nil)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Engine != "/opt/cmb/bin/s4cmb" {
		t.Errorf("Expected engine from environment, got %q", settings.Engine)
	}
	if settings.LogLevel != "debug" {
		t.Errorf("Expected log level from environment, got %q", settings.LogLevel)
	}
	if !settings.Strict {
		t.Errorf("Expected strict mode from environment")
	}
	// Untouched fields keep their defaults.
	if settings.Section != "s4cmb" {
		t.Errorf("Expected default section to survive, got %q", settings.Section)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "engine: /usr/bin/s4cmb\nsection: systematics\nlog_level: warn\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	settings, err := Load(v)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Engine != "/usr/bin/s4cmb" {
		t.Errorf("Expected engine from file, got %q", settings.Engine)
	}
	if settings.Section != "systematics" {
		t.Errorf("Expected section from file, got %q", settings.Section)
	}
	if settings.LogLevel != "warn" {
		t.Errorf("Expected log level from file, got %q", settings.LogLevel)
	}
}

func TestLoadPrecedence(t *testing.T) {
	// Environment beats the config file.
	t.Setenv("SCANPAR_ENGINE", "/env/bin/s4cmb")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "engine: /file/bin/s4cmb\nlog_level: error\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		t.Fatalf("Failed to read config file: %v", err)
	}

	settings, err := Load(v)
	if err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	if settings.Engine != "/env/bin/s4cmb" {
		t.Errorf("Expected environment to win over file, got %q", settings.Engine)
	}
	if settings.LogLevel != "error" {
		t.Errorf("Expected file value where environment is silent, got %q", settings.LogLevel)
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *Settings)
		hasErr bool
	}{
		{name: "defaults valid", mutate: func(s *Settings) {}},
		{name: "empty engine", mutate: func(s *Settings) { s.Engine = "" }, hasErr: true},
		{name: "empty section", mutate: func(s *Settings) { s.Section = "" }, hasErr: true},
		{name: "bad log level", mutate: func(s *Settings) { s.LogLevel = "verbose" }, hasErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := GetDefaultSettings()
			tt.mutate(s)
			err := s.Validate()
			if tt.hasErr && err == nil {
				t.Errorf("Expected validation error for %s", tt.name)
			}
			if !tt.hasErr && err != nil {
				t.Errorf("Unexpected validation error: %v", err)
			}
		})
	}
}
