package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cmbsims/scanpar/pkg/logger"
)

var schemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Inspect the parameter schema",
	Long: `Inspect the schema used to type legacy parameter files and to
validate tagged ones`,
}

var schemaShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the schema fields",
	RunE:  showSchema,
}

var schemaExportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Write the schema to a YAML file",
	Long: `Write the schema to a YAML file. The exported file can be edited
and passed back with --schema to type site-specific parameters.`,
	Args: cobra.ExactArgs(1),
	RunE: exportSchema,
}

func init() {
	schemaCmd.AddCommand(schemaShowCmd)
	schemaCmd.AddCommand(schemaExportCmd)
}

func showSchema(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	logger.LogSection(fmt.Sprintf("%s: %s", schema.Name(), schema.Description()))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PARAMETER\tTYPE\tGROUP\tDEFAULT\tDESCRIPTION")
	_, _ = fmt.Fprintln(w, "---------\t----\t-----\t-------\t-----------")

	for _, field := range schema.Fields() {
		typeName := field.Tag.Name()
		if field.AllowNone {
			typeName += " or None"
		}
		if len(field.Options) != 0 {
			typeName = strings.Join(field.Options, "|")
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			field.Key,
			typeName,
			field.Group,
			field.Default,
			field.Description,
		)
	}

	return w.Flush()
}

func exportSchema(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	if err := schema.Save(args[0]); err != nil {
		return fmt.Errorf("failed to export schema: %w", err)
	}

	logger.Successf("wrote %s (%d fields)", args[0], schema.Len())
	return nil
}
