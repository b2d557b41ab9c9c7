package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmbsims/scanpar/pkg/config"
	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/params"
)

var (
	cfgFile     string
	sectionName string
	schemaFile  string
	strictMode  bool
	logLevel    string
	noColor     bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scanpar",
	Short: "CMB scan simulation parameter tool",
	Long: `scanpar manages the parameter files driving CMB scan simulations:
it validates, converts and generates the sectioned ini files the engine
reads, launches Monte Carlo batches locally, and writes the batch
scripts used on shared clusters.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.scanpar/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&sectionName, "section", "", "parameter file section to read (default s4cmb)")
	rootCmd.PersistentFlags().StringVar(&schemaFile, "schema", "", "YAML schema overriding the built-in parameter schema")
	rootCmd.PersistentFlags().BoolVar(&strictMode, "strict", false, "reject unknown untagged parameters")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add commands
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(sitesCmd)
	rootCmd.AddCommand(schemaCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	// Configure logger based on flags
	logger.SetLevel(logger.ParseLevel(logLevel))
	logger.SetNoColor(noColor)

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory
		viper.AddConfigPath("$HOME/.scanpar")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in
	_ = viper.ReadInConfig()
}

// loadSettings assembles tool settings and applies the global flags
// on top of them.
func loadSettings() (*config.Settings, error) {
	settings, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	if sectionName != "" {
		settings.Section = sectionName
	}
	if schemaFile != "" {
		settings.Schema = schemaFile
	}
	if strictMode {
		settings.Strict = true
	}

	return settings, nil
}

// loadSchema returns the schema named by the settings, or the
// built-in one.
func loadSchema(settings *config.Settings) (*params.Schema, error) {
	if settings.Schema == "" {
		return params.DefaultSchema(), nil
	}

	schema, err := params.LoadSchema(settings.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to load schema %s: %w", settings.Schema, err)
	}
	return schema, nil
}

// loaderOptions builds the parameter loader options for the settings
func loaderOptions(settings *config.Settings, schema *params.Schema) params.Options {
	return params.Options{
		Section: settings.Section,
		Schema:  schema,
		Strict:  settings.Strict,
	}
}

// loadSites reads the site registry named by the settings
func loadSites(settings *config.Settings) (*config.SiteRegistry, error) {
	if settings.SitesFile != "" {
		return config.LoadSitesFromFile(settings.SitesFile)
	}
	return config.LoadSites()
}

// saveSites writes the site registry back where it was read from
func saveSites(settings *config.Settings, registry *config.SiteRegistry) error {
	if settings.SitesFile != "" {
		return config.SaveSitesToFile(registry, settings.SitesFile)
	}
	return config.SaveSites(registry)
}
