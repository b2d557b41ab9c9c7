package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cmbsims/scanpar/pkg/export"
	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/params"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a parameter file to another format",
	Long: `Convert a parameter file between formats. Converting a legacy file
to the tagged ini format makes it self-describing; yaml, toml and json
are for feeding other tools.`,
	Args: cobra.ExactArgs(1),
	RunE: convertFile,
}

func init() {
	convertCmd.Flags().StringP("to", "t", "ini", "target format: "+strings.Join(export.DefaultRegistry.List(), ", "))
	convertCmd.Flags().StringP("output", "o", "", "output file (default stdout)")
}

func convertFile(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("to")
	output, _ := cmd.Flags().GetString("output")

	set, err := params.Load(args[0], loaderOptions(settings, schema))
	if err != nil {
		return err
	}

	encoder, err := export.DefaultRegistry.Get(format)
	if err != nil {
		return err
	}

	if output == "" {
		return encoder.Encode(os.Stdout, set)
	}

	if err := os.MkdirAll(filepath.Dir(output), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", output, err)
	}
	defer f.Close()

	if err := encoder.Encode(f, set); err != nil {
		return err
	}

	logger.Successf("wrote %s (%s)", output, format)
	return nil
}
