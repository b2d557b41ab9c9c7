package runner

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cmbsims/scanpar/pkg/config"
	"github.com/cmbsims/scanpar/pkg/params"
)

func testSet(t *testing.T, folderOut string) *params.Set {
	t.Helper()
	input := `[s4cmb]
nces = 12 I
sim_number = 0 I
tag = run_0 S
folder_out = ` + folderOut + ` S
`
	file, err := params.Parse(strings.NewReader(input), params.Options{})
	if err != nil {
		t.Fatalf("Failed to parse test set: %v", err)
	}
	set, _ := file.Section("s4cmb")
	return set
}

func testRunner(t *testing.T, sims int) *Runner {
	t.Helper()
	return &Runner{
		Settings: &config.Settings{
			Engine:     "s4cmb",
			EngineArgs: []string{"-quiet"},
			Section:    "s4cmb",
			LogLevel:   "info",
		},
		Set:      testSet(t, filepath.Join(t.TempDir(), "out")),
		IniFile:  "examples/so_deep.ini",
		Tag:      "run_0",
		Sims:     sims,
		FirstSim: -1,
	}
}

func TestPlanSingleRun(t *testing.T) {
	r := testRunner(t, 1)

	runs, err := r.Plan()
	if err != nil {
		t.Fatalf("Failed to plan: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("Expected a single run, got %d", len(runs))
	}

	run := runs[0]
	if run.IniFile != "examples/so_deep.ini" {
		t.Errorf("Expected the original file to be reused, got %q", run.IniFile)
	}
	if run.Tag != "run_0" {
		t.Errorf("Expected tag run_0, got %q", run.Tag)
	}
	if len(run.Overrides) != 0 {
		t.Errorf("Expected no overrides for a single run")
	}

	args := run.Args(r.Settings)
	want := []string{"-quiet", "-inifile", "examples/so_deep.ini", "-tag", "run_0"}
	if len(args) != len(want) {
		t.Fatalf("Expected args %v, got %v", want, args)
	}
	for i := range want {
		if args[i] != want[i] {
			t.Fatalf("Expected args %v, got %v", want, args)
		}
	}
}

func TestPlanGeneratesTag(t *testing.T) {
	r := testRunner(t, 1)
	r.Tag = ""

	runs, err := r.Plan()
	if err != nil {
		t.Fatalf("Failed to plan: %v", err)
	}
	if !strings.HasPrefix(runs[0].Tag, "run-") || len(runs[0].Tag) != len("run-")+8 {
		t.Errorf("Expected a generated run-xxxxxxxx tag, got %q", runs[0].Tag)
	}
}

func TestPlanBatch(t *testing.T) {
	r := testRunner(t, 3)
	r.FirstSim = 5

	runs, err := r.Plan()
	if err != nil {
		t.Fatalf("Failed to plan: %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("Expected 3 runs, got %d", len(runs))
	}

	for i, run := range runs {
		if run.Sim != 5+i {
			t.Errorf("Expected sim %d, got %d", 5+i, run.Sim)
		}
		wantTag := []string{"run_0_sim005", "run_0_sim006", "run_0_sim007"}[i]
		if run.Tag != wantTag {
			t.Errorf("Expected tag %s, got %s", wantTag, run.Tag)
		}
		if filepath.Base(run.IniFile) != wantTag+".ini" {
			t.Errorf("Expected per-sim parameter file, got %q", run.IniFile)
		}
		if len(run.Overrides) != 2 {
			t.Errorf("Expected sim_number and tag overrides, got %v", run.Overrides)
		}
	}
}

func TestPlanFirstSimFromSet(t *testing.T) {
	r := testRunner(t, 2)
	// FirstSim < 0 takes sim_number from the parameter set (0 here).
	runs, err := r.Plan()
	if err != nil {
		t.Fatalf("Failed to plan: %v", err)
	}
	if runs[0].Sim != 0 || runs[1].Sim != 1 {
		t.Errorf("Expected sims 0 and 1, got %d and %d", runs[0].Sim, runs[1].Sim)
	}
}

func TestPrepareWritesPerSimFiles(t *testing.T) {
	r := testRunner(t, 2)

	runs, err := r.Plan()
	if err != nil {
		t.Fatalf("Failed to plan: %v", err)
	}
	if err := r.Prepare(runs); err != nil {
		t.Fatalf("Failed to prepare: %v", err)
	}

	for _, run := range runs {
		set, err := params.Load(run.IniFile, params.Options{})
		if err != nil {
			t.Fatalf("Failed to reload %s: %v", run.IniFile, err)
		}
		if v, _ := set.Int("sim_number"); v != run.Sim {
			t.Errorf("Expected sim_number %d in %s, got %d", run.Sim, run.IniFile, v)
		}
		if v, _ := set.String("tag"); v != run.Tag {
			t.Errorf("Expected tag %s in %s, got %q", run.Tag, run.IniFile, v)
		}
		// Untouched parameters survive.
		if v, _ := set.Int("nces"); v != 12 {
			t.Errorf("Expected nces 12 in %s, got %d", run.IniFile, v)
		}
	}
}

func TestExecuteDryRun(t *testing.T) {
	r := testRunner(t, 2)
	r.DryRun = true

	if err := r.Execute(context.Background()); err != nil {
		t.Fatalf("Dry run must not fail: %v", err)
	}

	// A dry run writes nothing.
	runs, err := r.Plan()
	if err != nil {
		t.Fatalf("Failed to plan: %v", err)
	}
	for _, run := range runs {
		if _, err := params.Load(run.IniFile, params.Options{}); err == nil {
			t.Errorf("Expected dry run not to write %s", run.IniFile)
		}
	}
}

func TestPlanRequiresState(t *testing.T) {
	r := &Runner{}
	if _, err := r.Plan(); err == nil {
		t.Errorf("Expected plan without settings to fail")
	}
}
