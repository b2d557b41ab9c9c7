// Package runner launches the simulation engine locally, one process
// per simulation of a Monte Carlo batch.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/kballard/go-shellquote"
	"golang.org/x/sync/errgroup"

	"github.com/cmbsims/scanpar/pkg/config"
	"github.com/cmbsims/scanpar/pkg/export"
	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/params"
)

// Runner executes a batch of simulations with the local engine
type Runner struct {
	// Settings supplies the engine executable and its fixed arguments
	Settings *config.Settings

	// Set is the loaded and validated parameter set
	Set *params.Set

	// IniFile is the parameter file the set was loaded from
	IniFile string

	// Tag is the base run identifier. Empty generates one.
	Tag string

	// Sims is the number of Monte Carlo simulations (default 1)
	Sims int

	// FirstSim is the starting simulation number. Negative takes the
	// sim_number parameter, or 0.
	FirstSim int

	// Parallel bounds concurrent engine processes (default 1)
	Parallel int

	// Verbose relays engine output instead of a progress bar
	Verbose bool

	// DryRun prints the commands without launching anything
	DryRun bool
}

// Run is one planned engine invocation
type Run struct {
	// Sim is the simulation number of this run
	Sim int

	// Tag identifies the run
	Tag string

	// IniFile is the parameter file passed to the engine
	IniFile string

	// Overrides are applied to the base set before writing IniFile.
	// Empty means the original file is used as-is.
	Overrides []params.Entry
}

// Args returns the full engine argument vector for the run
func (r *Run) Args(settings *config.Settings) []string {
	args := make([]string, 0, len(settings.EngineArgs)+4)
	args = append(args, settings.EngineArgs...)
	args = append(args, "-inifile", r.IniFile, "-tag", r.Tag)
	return args
}

// Plan resolves the batch into concrete engine invocations
func (r *Runner) Plan() ([]Run, error) {
	if r.Settings == nil || r.Set == nil {
		return nil, fmt.Errorf("runner needs settings and a parameter set")
	}

	sims := r.Sims
	if sims <= 0 {
		sims = 1
	}

	base := r.Tag
	if base == "" {
		base = "run-" + uuid.NewString()[:8]
		logger.Infof("no tag given, using %s", base)
	}

	// A single run reuses the original file untouched.
	if sims == 1 {
		return []Run{{Sim: r.firstSim(), Tag: base, IniFile: r.IniFile}}, nil
	}

	first := r.firstSim()
	runs := make([]Run, 0, sims)
	for i := 0; i < sims; i++ {
		sim := first + i
		tag := fmt.Sprintf("%s_sim%03d", base, sim)

		simEntry, err := params.NewEntry("sim_number", strconv.Itoa(sim), params.TagInt)
		if err != nil {
			return nil, err
		}
		tagEntry, err := params.NewEntry("tag", tag, params.TagString)
		if err != nil {
			return nil, err
		}

		runs = append(runs, Run{
			Sim:       sim,
			Tag:       tag,
			IniFile:   filepath.Join(r.paramsDir(), tag+".ini"),
			Overrides: []params.Entry{simEntry, tagEntry},
		})
	}

	return runs, nil
}

// Prepare writes the per-simulation parameter files
func (r *Runner) Prepare(runs []Run) error {
	enc := &export.IniEncoder{}

	for _, run := range runs {
		if len(run.Overrides) == 0 {
			continue
		}

		merged := params.Merge(r.Set, run.Overrides)

		if err := os.MkdirAll(filepath.Dir(run.IniFile), 0755); err != nil {
			return fmt.Errorf("failed to create parameter directory: %w", err)
		}
		f, err := os.Create(run.IniFile)
		if err != nil {
			return fmt.Errorf("failed to create parameter file: %w", err)
		}
		if err := enc.Encode(f, merged); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return fmt.Errorf("failed to write parameter file: %w", err)
		}
	}

	return nil
}

// Execute plans and runs the batch
func (r *Runner) Execute(ctx context.Context) error {
	runs, err := r.Plan()
	if err != nil {
		return err
	}

	if r.DryRun {
		for _, run := range runs {
			argv := append([]string{r.Settings.Engine}, run.Args(r.Settings)...)
			logger.Infof("would run: %s", shellquote.Join(argv...))
		}
		return nil
	}

	// The engine assumes its output folder exists.
	if folder, err := r.Set.String("folder_out"); err == nil && folder != "" {
		if err := os.MkdirAll(folder, 0755); err != nil {
			return fmt.Errorf("failed to create output folder: %w", err)
		}
	}

	if err := r.Prepare(runs); err != nil {
		return err
	}

	var bar *logger.ProgressBar
	if !r.Verbose {
		bar = logger.NewProgressBar(len(runs), "simulations")
	}

	parallel := r.Parallel
	if parallel <= 0 {
		parallel = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)

	for _, run := range runs {
		run := run
		g.Go(func() error {
			if err := r.launch(ctx, run); err != nil {
				return fmt.Errorf("simulation %d (%s) failed: %w", run.Sim, run.Tag, err)
			}
			if bar != nil {
				bar.Increment()
			}
			return nil
		})
	}

	err = g.Wait()
	if bar != nil {
		bar.Finish()
	}
	if err != nil {
		return err
	}

	logger.Successf("%d simulation(s) completed", len(runs))
	return nil
}

func (r *Runner) launch(ctx context.Context, run Run) error {
	cmd := exec.CommandContext(ctx, r.Settings.Engine, run.Args(r.Settings)...)

	if r.Verbose {
		lw := &logWriter{log: logger.WithPrefix(run.Tag)}
		cmd.Stdout = lw
		cmd.Stderr = lw
	}

	logger.Debugf("starting engine: %s %s", r.Settings.Engine, shellquote.Join(run.Args(r.Settings)...))
	return cmd.Run()
}

// logWriter forwards engine output lines through a prefixed logger.
// stdout and stderr of one process share a writer.
type logWriter struct {
	mu  sync.Mutex
	log logger.Logger
	buf []byte
}

func (w *logWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.log.Info(string(w.buf[:i]))
		w.buf = w.buf[i+1:]
	}
	return len(p), nil
}

func (r *Runner) firstSim() int {
	if r.FirstSim >= 0 {
		return r.FirstSim
	}
	if sim, err := r.Set.Int("sim_number"); err == nil {
		return sim
	}
	return 0
}

func (r *Runner) paramsDir() string {
	if folder, err := r.Set.String("folder_out"); err == nil && folder != "" {
		return filepath.Join(folder, "params")
	}
	return "scanpar_runs"
}
