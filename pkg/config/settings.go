package config

import (
	"fmt"

	"dario.cat/mergo"
	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable the tool
// reads, e.g. SCANPAR_ENGINE.
const EnvPrefix = "SCANPAR_"

// Settings holds tool-level configuration. Run parameters live in
// parameter files; settings describe how the tool itself behaves.
type Settings struct {
	// Engine is the simulation engine executable launched by runs.
	Engine string `yaml:"engine" mapstructure:"engine" env:"ENGINE"`

	// EngineArgs are extra arguments passed to the engine before the
	// parameter file flags.
	EngineArgs []string `yaml:"engine_args,omitempty" mapstructure:"engine_args" env:"ENGINE_ARGS"`

	// Section is the parameter file section read by default.
	Section string `yaml:"section" mapstructure:"section" env:"SECTION"`

	// Schema points to a YAML schema file overriding the built-in one.
	Schema string `yaml:"schema,omitempty" mapstructure:"schema" env:"SCHEMA"`

	// Strict rejects unknown untagged parameters.
	Strict bool `yaml:"strict,omitempty" mapstructure:"strict" env:"STRICT"`

	// SitesFile overrides the site registry location.
	SitesFile string `yaml:"sites_file,omitempty" mapstructure:"sites_file" env:"SITES_FILE"`

	// LogLevel is one of debug, info, warn, error, fatal.
	LogLevel string `yaml:"log_level" mapstructure:"log_level" env:"LOG_LEVEL"`

	// NoColor disables colored output.
	NoColor bool `yaml:"no_color,omitempty" mapstructure:"no_color" env:"NO_COLOR"`
}

// GetDefaultSettings returns the settings used when nothing is
// configured.
func GetDefaultSettings() *Settings {
	return &Settings{
		Engine:   "s4cmb",
		Section:  "s4cmb",
		LogLevel: "info",
	}
}

// Load assembles settings from, in order of precedence, SCANPAR_*
// environment variables, the config file read by v, and the defaults.
// v may be nil when no config file is in play.
func Load(v *viper.Viper) (*Settings, error) {
	sources := make([]*Settings, 0, 3)

	envSettings := &Settings{}
	if err := env.ParseWithOptions(envSettings, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to parse environment settings: %w", err)
	}
	sources = append(sources, envSettings)

	if v != nil && v.ConfigFileUsed() != "" {
		fileSettings := &Settings{}
		if err := v.Unmarshal(fileSettings); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", v.ConfigFileUsed(), err)
		}
		sources = append(sources, fileSettings)
	}

	sources = append(sources, GetDefaultSettings())

	// Earlier sources win: merging never displaces a value that is
	// already set.
	settings := &Settings{}
	for _, src := range sources {
		if err := mergo.Merge(settings, src); err != nil {
			return nil, fmt.Errorf("failed to merge settings: %w", err)
		}
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return settings, nil
}

// Validate checks the assembled settings
func (s *Settings) Validate() error {
	if s.Engine == "" {
		return fmt.Errorf("engine executable is required")
	}

	if s.Section == "" {
		return fmt.Errorf("parameter section is required")
	}

	switch s.LogLevel {
	case "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("unknown log level %q", s.LogLevel)
	}

	return nil
}
