package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cmbsims/scanpar/pkg/export"
	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/params"
	"github.com/cmbsims/scanpar/pkg/utils"
)

var initCmd = &cobra.Command{
	Use:   "init <file>",
	Short: "Create a parameter file",
	Long: `Create a parameter file by answering one prompt per schema field.
With --defaults the file is written straight from the schema defaults
and any SCANPAR_<KEY> environment overrides.`,
	Args: cobra.ExactArgs(1),
	RunE: initParameterFile,
}

func init() {
	initCmd.Flags().Bool("defaults", false, "skip prompts and use the schema defaults")
	initCmd.Flags().Bool("force", false, "overwrite an existing file")
}

func initParameterFile(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	path := args[0]
	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	defaults, _ := cmd.Flags().GetBool("defaults")

	var entries []params.Entry
	if defaults {
		entries, err = utils.DefaultEntries(schema)
	} else {
		logger.LogSection(fmt.Sprintf("New [%s] parameter file", settings.Section))
		entries, err = utils.PromptForParameters(schema)
	}
	if err != nil {
		return fmt.Errorf("failed to collect parameters: %w", err)
	}

	set := params.NewSet(settings.Section, entries)
	if problems := schema.Validate(set); len(problems) != 0 {
		for _, p := range problems {
			logger.Errorf("%s", p)
		}
		return fmt.Errorf("collected parameters do not validate")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer f.Close()

	encoder := &export.IniEncoder{Schema: schema}
	if err := encoder.Encode(f, set); err != nil {
		return err
	}

	logger.Successf("wrote %s (%d parameters)", path, set.Len())
	return nil
}
