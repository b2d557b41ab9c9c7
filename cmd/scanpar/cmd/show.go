package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/models"
	"github.com/cmbsims/scanpar/pkg/params"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Show the parameters of a file",
	Long: `Show the typed parameters of a file, one line per parameter,
with the values a legacy file resolves to through the schema.`,
	Args: cobra.ExactArgs(1),
	RunE: showFile,
}

func init() {
	showCmd.Flags().Bool("derived", false, "also print derived quantities")
}

func showFile(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	set, err := params.Load(args[0], loaderOptions(settings, schema))
	if err != nil {
		return err
	}

	logger.LogSection(fmt.Sprintf("[%s] %s", set.Section(), args[0]))

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PARAMETER\tVALUE\tTYPE\tSOURCE")
	_, _ = fmt.Fprintln(w, "---------\t-----\t----\t------")

	for _, key := range set.Keys() {
		entry, _ := set.Lookup(key)

		value := entry.Raw
		if entry.IsNone() {
			value = "None"
		}
		source := "schema"
		if entry.Tagged {
			source = "tag"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", entry.Key, value, entry.Tag.Name(), source)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	derived, _ := cmd.Flags().GetBool("derived")
	if !derived {
		return nil
	}

	parameters, err := models.FromSet(set)
	if err != nil {
		return err
	}

	fmt.Println()
	logger.LogKeyValue("detectors", fmt.Sprintf("%d", parameters.NumDetectors()))
	logger.LogKeyValue("output name", parameters.OutputName())
	if t, err := parameters.StartTime(); err == nil {
		logger.LogKeyValue("first scan", t.UTC().Format("2006-01-02 15:04:05 UTC"))
	}

	return nil
}
