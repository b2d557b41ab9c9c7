package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/models"
	"github.com/cmbsims/scanpar/pkg/params"
	"github.com/cmbsims/scanpar/pkg/runner"
)

var runCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run simulations with the local engine",
	Long: `Run the engine on a parameter file. With --sims greater than one,
a Monte Carlo batch is launched: every simulation gets its own
parameter file, simulation number and tag.`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulations,
}

func init() {
	runCmd.Flags().IntP("sims", "s", 1, "number of Monte Carlo simulations")
	runCmd.Flags().Int("first-sim", -1, "first simulation number (default from the file)")
	runCmd.Flags().IntP("parallel", "j", 1, "simulations running at once")
	runCmd.Flags().StringP("tag", "t", "", "run tag overriding the file's (empty generates one)")
	runCmd.Flags().StringArray("set", nil, "override a parameter, e.g. --set 'nces = 24 I'")
	runCmd.Flags().Bool("dry-run", false, "print the engine commands without running them")
	runCmd.Flags().BoolP("verbose", "v", false, "relay engine output instead of a progress bar")
}

func runSimulations(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}
	schema, err := loadSchema(settings)
	if err != nil {
		return err
	}

	opts := loaderOptions(settings, schema)
	set, err := params.Load(args[0], opts)
	if err != nil {
		return err
	}

	// Command line overrides beat the file, except that a None value
	// never displaces a real one.
	assignments, _ := cmd.Flags().GetStringArray("set")
	if len(assignments) != 0 {
		overrides := make([]params.Entry, 0, len(assignments))
		for _, text := range assignments {
			entry, err := params.ParseAssignment(text, opts)
			if err != nil {
				return fmt.Errorf("bad --set %q: %w", text, err)
			}
			overrides = append(overrides, entry)
		}
		set = params.Merge(set, overrides)
	}

	if problems := schema.Validate(set); len(problems) != 0 {
		for _, p := range problems {
			logger.Errorf("%s", p)
		}
		return fmt.Errorf("%s has invalid parameters", args[0])
	}
	parameters, err := models.FromSet(set)
	if err != nil {
		return err
	}
	if err := parameters.Validate(); err != nil {
		return err
	}

	sims, _ := cmd.Flags().GetInt("sims")
	firstSim, _ := cmd.Flags().GetInt("first-sim")
	parallel, _ := cmd.Flags().GetInt("parallel")
	tag, _ := cmd.Flags().GetString("tag")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")

	if tag == "" {
		tag = parameters.Output.Tag
	}

	r := &runner.Runner{
		Settings: settings,
		Set:      set,
		IniFile:  args[0],
		Tag:      tag,
		Sims:     sims,
		FirstSim: firstSim,
		Parallel: parallel,
		Verbose:  verbose,
		DryRun:   dryRun,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		<-sigChan
		logger.Warn("received interrupt, stopping simulations...")
		cancel()
	}()

	logger.LogSection(fmt.Sprintf("Running %s", parameters.OutputName()))
	return r.Execute(ctx)
}
