package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cmbsims/scanpar/pkg/utils"
)

var listCmd = &cobra.Command{
	Use:   "list [directory]",
	Short: "List parameter files",
	Long:  `List the parameter files under a directory with their format and size`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  listParameterFiles,
}

func listParameterFiles(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	infos, err := utils.DiscoverParameterFiles(dir, loaderOptions(settings, schema))
	if err != nil {
		return fmt.Errorf("failed to list parameter files: %w", err)
	}

	if len(infos) == 0 {
		fmt.Println("No parameter files found")
		return nil
	}

	// Create tabwriter for formatted output
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "PATH\tFORMAT\tKEYS\tSECTIONS")
	_, _ = fmt.Fprintln(w, "----\t------\t----\t--------")

	for _, info := range infos {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			info.Path,
			info.Format,
			info.Keys,
			strings.Join(info.Sections, ", "),
		)
	}

	return w.Flush()
}
