package cmd

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/cmbsims/scanpar/pkg/config"
	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/models"
	"github.com/cmbsims/scanpar/pkg/params"
	"github.com/cmbsims/scanpar/pkg/submit"
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Write a batch script for a cluster site",
	Long: `Write the batch script that runs the engine on a configured
cluster site. The script goes to stdout unless --output is given;
submitting it is left to the scheduler's own tools.`,
	Args: cobra.ExactArgs(1),
	RunE: submitJob,
}

func init() {
	submitCmd.Flags().String("site", "", "site to submit to (default the selected site)")
	submitCmd.Flags().StringP("output", "o", "", "write the script to a file")
	submitCmd.Flags().StringP("tag", "t", "", "run tag overriding the file's")
	submitCmd.Flags().String("workdir", "", "directory the job changes to before running")
}

func submitJob(cmd *cobra.Command, args []string) error {
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
	parameters, err := models.FromSet(set)
	if err != nil {
		return err
	}
	if err := parameters.Validate(); err != nil {
		return err
	}

	site, err := selectSite(cmd, settings)
	if err != nil {
		return err
	}

	tag, _ := cmd.Flags().GetString("tag")
	if tag == "" {
		tag = parameters.Output.Tag
	}
	workdir, _ := cmd.Flags().GetString("workdir")

	job := &submit.Job{
		Name:       parameters.OutputName(),
		Site:       site,
		Engine:     settings.Engine,
		EngineArgs: settings.EngineArgs,
		IniFile:    args[0],
		Tag:        tag,
		Workdir:    workdir,
	}

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		script, err := job.Render()
		if err != nil {
			return err
		}
		fmt.Print(script)
		return nil
	}

	if err := job.WriteFile(output); err != nil {
		return err
	}
	logger.Successf("wrote %s for %s (%d tasks)", output, site.Name, site.Tasks())
	logger.LogKeyValue("submit with", fmt.Sprintf("sbatch %s", output))
	return nil
}

// selectSite resolves the target site from the flag, the registry
// selection, or an interactive prompt.
func selectSite(cmd *cobra.Command, settings *config.Settings) (config.Site, error) {
	registry, err := loadSites(settings)
	if err != nil {
		return config.Site{}, fmt.Errorf("failed to load sites: %w", err)
	}

	if name, _ := cmd.Flags().GetString("site"); name != "" {
		site, ok := registry.Get(name)
		if !ok {
			return config.Site{}, fmt.Errorf("site %s not found", name)
		}
		return site, nil
	}

	if registry.Selected != "" {
		if site, ok := registry.Get(registry.Selected); ok {
			return site, nil
		}
	}

	if len(registry.Sites) == 0 {
		return config.Site{}, fmt.Errorf("no sites configured (add one with: scanpar sites add)")
	}
	if len(registry.Sites) == 1 {
		return registry.Sites[0], nil
	}

	names := make([]string, len(registry.Sites))
	for i, site := range registry.Sites {
		names[i] = site.Name
	}

	var selected string
	prompt := &survey.Select{
		Message: "Select site:",
		Options: names,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return config.Site{}, err
	}

	site, _ := registry.Get(selected)
	return site, nil
}
