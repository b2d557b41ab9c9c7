// Package submit renders batch scripts that launch the simulation
// engine on a cluster.
package submit

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"

	"github.com/kballard/go-shellquote"

	"github.com/cmbsims/scanpar/pkg/config"
)

// Job describes one batch submission of the simulation engine
type Job struct {
	// Name is the scheduler job name
	Name string

	// Site selects the batch system and its geometry
	Site config.Site

	// Engine is the simulation engine executable
	Engine string

	// EngineArgs are extra engine arguments placed before the
	// parameter flags
	EngineArgs []string

	// IniFile is the parameter file passed via -inifile
	IniFile string

	// Tag is the run identifier passed via -tag
	Tag string

	// Workdir is an optional directory to change into before launch
	Workdir string

	// Output is an optional scheduler output file pattern
	Output string
}

const scriptTemplate = `#!/bin/bash -l
#SBATCH -p {{.Site.Partition}}
#SBATCH -N {{.Site.Nodes}}
#SBATCH -t {{.Site.TimeLimit}}
#SBATCH -J {{.JobName}}
{{- if .Site.Constraint}}
#SBATCH -C {{.Site.Constraint}}
{{- end}}
{{- if .Site.Account}}
#SBATCH -A {{.Site.Account}}
{{- end}}
{{- if .Output}}
#SBATCH -o {{.Output}}
{{- end}}
{{- range .Modules}}
module load {{.}}
{{- end}}
{{- if .Workdir}}

cd {{.Workdir}}
{{- end}}

{{.LaunchLine}}
`

// view is the template payload, with the parts that need quoting or
// arithmetic precomputed.
type view struct {
	Site       config.Site
	JobName    string
	Output     string
	Modules    []string
	Workdir    string
	LaunchLine string
}

// Validate checks that the job can be rendered
func (j *Job) Validate() error {
	if err := j.Site.Validate(); err != nil {
		return err
	}
	if j.Engine == "" {
		return fmt.Errorf("engine executable is required")
	}
	if j.IniFile == "" {
		return fmt.Errorf("parameter file is required")
	}
	if j.Tag == "" {
		return fmt.Errorf("run tag is required")
	}
	return nil
}

// Render produces the batch script text
func (j *Job) Render() (string, error) {
	if err := j.Validate(); err != nil {
		return "", fmt.Errorf("failed to render batch script: %w", err)
	}

	tmpl, err := template.New("batch").Parse(scriptTemplate)
	if err != nil {
		return "", fmt.Errorf("failed to parse batch template: %w", err)
	}

	v := view{
		Site:       j.Site,
		JobName:    j.jobName(),
		Output:     j.Output,
		Modules:    j.Site.Modules,
		Workdir:    j.Workdir,
		LaunchLine: j.launchLine(),
	}

	var sb strings.Builder
	if err := tmpl.Execute(&sb, v); err != nil {
		return "", fmt.Errorf("failed to render batch script: %w", err)
	}

	return sb.String(), nil
}

// WriteFile renders the script and writes it executable
func (j *Job) WriteFile(path string) error {
	script, err := j.Render()
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create script directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		return fmt.Errorf("failed to write batch script: %w", err)
	}

	return nil
}

func (j *Job) jobName() string {
	if j.Name != "" {
		return j.Name
	}
	return j.Tag
}

// launchLine assembles the MPI launch command. The engine keeps its
// historical single-dash flags.
func (j *Job) launchLine() string {
	args := make([]string, 0, len(j.EngineArgs)+6)

	switch j.Site.Launcher {
	case "mpirun":
		args = append(args, "mpirun", "-np", fmt.Sprint(j.Site.Tasks()))
	default:
		args = append(args, "srun", "-n", fmt.Sprint(j.Site.Tasks()))
	}

	args = append(args, j.Engine)
	args = append(args, j.EngineArgs...)
	args = append(args, "-inifile", j.IniFile, "-tag", j.Tag)

	return shellquote.Join(args...)
}
