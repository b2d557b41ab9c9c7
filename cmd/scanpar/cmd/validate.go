package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/models"
	"github.com/cmbsims/scanpar/pkg/params"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Validate a parameter file",
	Long: `Validate a parameter file against the schema and the engine's
consistency rules. Legacy files without type tags are resolved through
the schema before checking.`,
	Args: cobra.ExactArgs(1),
	RunE: validateFile,
}

func validateFile(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	path := args[0]
	set, err := params.Load(path, loaderOptions(settings, schema))
	if err != nil {
		logger.Failf("%s does not parse", path)
		return err
	}

	failed := false
	if problems := schema.Validate(set); len(problems) != 0 {
		failed = true
		for _, p := range problems {
			logger.Errorf("%s", p)
		}
	}

	// The typed view applies the cross-parameter rules the schema
	// cannot express.
	if !failed {
		parameters, err := models.FromSet(set)
		if err != nil {
			logger.Failf("%s does not validate", path)
			return err
		}
		if err := parameters.Validate(); err != nil {
			logger.Failf("%s does not validate", path)
			return err
		}
	}

	if failed {
		logger.Failf("%s does not validate", path)
		return fmt.Errorf("%s has invalid parameters", path)
	}

	logger.Successf("%s is a valid parameter file (%d parameters)", path, set.Len())
	return nil
}
