package cmd

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/cmbsims/scanpar/pkg/config"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "Manage cluster sites",
	Long:  `Manage the cluster sites batch scripts are written for`,
}

var sitesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured sites",
	RunE:  listSites,
}

var sitesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a new site",
	RunE:  addSite,
}

var sitesRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove a site",
	RunE:  removeSite,
}

var sitesSelectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select the default site",
	RunE:  selectDefaultSite,
}

func init() {
	sitesCmd.AddCommand(sitesListCmd)
	sitesCmd.AddCommand(sitesAddCmd)
	sitesCmd.AddCommand(sitesRemoveCmd)
	sitesCmd.AddCommand(sitesSelectCmd)
}

func listSites(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	registry, err := loadSites(settings)
	if err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}

	if len(registry.Sites) == 0 {
		fmt.Println("No sites configured")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "NAME\tPARTITION\tNODES\tTASKS\tTIME LIMIT\tSELECTED")
	_, _ = fmt.Fprintln(w, "----\t---------\t-----\t-----\t----------\t--------")

	for _, site := range registry.Sites {
		selected := ""
		if site.Name == registry.Selected {
			selected = "*"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			site.Name,
			site.Partition,
			site.Nodes,
			site.Tasks(),
			site.TimeLimit,
			selected,
		)
	}

	return w.Flush()
}

func addSite(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	registry, err := loadSites(settings)
	if err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}

	var site config.Site
	site.Scheduler = "slurm"

	namePrompt := &survey.Input{
		Message: "Site name:",
	}
	if err := survey.AskOne(namePrompt, &site.Name, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	// Check if name already exists
	if _, exists := registry.Get(site.Name); exists {
		return fmt.Errorf("site %s already exists", site.Name)
	}

	partitionPrompt := &survey.Input{
		Message: "Partition:",
		Default: "debug",
	}
	if err := survey.AskOne(partitionPrompt, &site.Partition, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	constraintPrompt := &survey.Input{
		Message: "Constraint (empty for none):",
		Help:    "Passed as #SBATCH -C, e.g. haswell or knl",
	}
	if err := survey.AskOne(constraintPrompt, &site.Constraint); err != nil {
		return err
	}

	accountPrompt := &survey.Input{
		Message: "Account (empty for none):",
	}
	if err := survey.AskOne(accountPrompt, &site.Account); err != nil {
		return err
	}

	if site.Nodes, err = promptInt("Nodes:", 9); err != nil {
		return err
	}
	if site.TasksPerNode, err = promptInt("Tasks per node:", 32); err != nil {
		return err
	}

	timePrompt := &survey.Input{
		Message: "Time limit (HH:MM:SS):",
		Default: "00:30:00",
	}
	if err := survey.AskOne(timePrompt, &site.TimeLimit, survey.WithValidator(survey.Required)); err != nil {
		return err
	}

	launcherPrompt := &survey.Select{
		Message: "Launcher:",
		Options: []string{"srun", "mpirun"},
		Default: "srun",
	}
	if err := survey.AskOne(launcherPrompt, &site.Launcher); err != nil {
		return err
	}

	modulesPrompt := &survey.Input{
		Message: "Modules to load (comma separated, empty for none):",
	}
	var modules string
	if err := survey.AskOne(modulesPrompt, &modules); err != nil {
		return err
	}
	for _, m := range strings.Split(modules, ",") {
		if m = strings.TrimSpace(m); m != "" {
			site.Modules = append(site.Modules, m)
		}
	}

	if err := site.Validate(); err != nil {
		return err
	}

	registry.Add(site)
	if err := saveSites(settings, registry); err != nil {
		return fmt.Errorf("failed to save sites: %w", err)
	}

	fmt.Printf("Site %s added successfully\n", site.Name)
	return nil
}

func removeSite(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	registry, err := loadSites(settings)
	if err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}

	if len(registry.Sites) == 0 {
		fmt.Println("No sites to remove")
		return nil
	}

	selected, err := pickSite(registry, "Select site to remove:")
	if err != nil {
		return err
	}

	var confirm bool
	confirmPrompt := &survey.Confirm{
		Message: fmt.Sprintf("Are you sure you want to remove %s?", selected),
		Default: false,
	}
	if err := survey.AskOne(confirmPrompt, &confirm); err != nil {
		return err
	}

	if !confirm {
		fmt.Println("Removal cancelled")
		return nil
	}

	registry.Remove(selected)
	if err := saveSites(settings, registry); err != nil {
		return fmt.Errorf("failed to save sites: %w", err)
	}

	fmt.Printf("Site %s removed successfully\n", selected)
	return nil
}

func selectDefaultSite(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	registry, err := loadSites(settings)
	if err != nil {
		return fmt.Errorf("failed to load sites: %w", err)
	}

	if len(registry.Sites) == 0 {
		fmt.Println("No sites configured")
		return nil
	}

	selected, err := pickSite(registry, "Select default site:")
	if err != nil {
		return err
	}

	registry.Selected = selected
	if err := saveSites(settings, registry); err != nil {
		return fmt.Errorf("failed to save sites: %w", err)
	}

	fmt.Printf("Site %s selected\n", selected)
	return nil
}

func pickSite(registry *config.SiteRegistry, message string) (string, error) {
	names := make([]string, len(registry.Sites))
	for i, site := range registry.Sites {
		names[i] = site.Name
	}

	var selected string
	prompt := &survey.Select{
		Message: message,
		Options: names,
	}
	if err := survey.AskOne(prompt, &selected); err != nil {
		return "", err
	}
	return selected, nil
}

func promptInt(message string, def int) (int, error) {
	prompt := &survey.Input{
		Message: message,
		Default: strconv.Itoa(def),
	}

	var result string
	if err := survey.AskOne(prompt, &result, survey.WithValidator(func(val interface{}) error {
		str, ok := val.(string)
		if !ok {
			return fmt.Errorf("expected a text answer")
		}
		if _, err := strconv.Atoi(str); err != nil {
			return fmt.Errorf("invalid integer")
		}
		return nil
	})); err != nil {
		return 0, err
	}

	return strconv.Atoi(result)
}
