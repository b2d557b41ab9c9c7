package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Site describes a batch system a simulation can be submitted to
type Site struct {
	Name         string   `yaml:"name"`
	Scheduler    string   `yaml:"scheduler"`
	Partition    string   `yaml:"partition,omitempty"`
	Constraint   string   `yaml:"constraint,omitempty"`
	Account      string   `yaml:"account,omitempty"`
	Nodes        int      `yaml:"nodes"`
	TasksPerNode int      `yaml:"tasks_per_node"`
	TimeLimit    string   `yaml:"time_limit"`
	Modules      []string `yaml:"modules,omitempty"`
	Launcher     string   `yaml:"launcher"`
}

// Tasks returns the total number of MPI tasks the site runs
func (s Site) Tasks() int {
	return s.Nodes * s.TasksPerNode
}

// Validate checks a site definition
func (s Site) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("site name is required")
	}
	if s.Scheduler != "slurm" {
		return fmt.Errorf("unsupported scheduler %q for site %s", s.Scheduler, s.Name)
	}
	if s.Nodes <= 0 {
		return fmt.Errorf("site %s must have a positive node count", s.Name)
	}
	if s.TasksPerNode <= 0 {
		return fmt.Errorf("site %s must have a positive tasks-per-node count", s.Name)
	}
	if s.TimeLimit == "" {
		return fmt.Errorf("site %s must have a time limit", s.Name)
	}
	switch s.Launcher {
	case "srun", "mpirun":
	default:
		return fmt.Errorf("unsupported launcher %q for site %s", s.Launcher, s.Name)
	}
	return nil
}

// SiteRegistry holds the configured submission sites
type SiteRegistry struct {
	Sites    []Site `yaml:"sites"`
	Selected string `yaml:"selected,omitempty"`
}

// LoadSites loads the site registry from the default location
func LoadSites() (*SiteRegistry, error) {
	path, err := DefaultSitesPath()
	if err != nil {
		return nil, err
	}
	return LoadSitesFromFile(path)
}

// LoadSitesFromFile loads the site registry from a specific file
func LoadSitesFromFile(path string) (*SiteRegistry, error) {
	// If the file doesn't exist, return the default registry
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return getDefaultRegistry(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sites file: %w", err)
	}

	var registry SiteRegistry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse sites file: %w", err)
	}

	for _, site := range registry.Sites {
		if err := site.Validate(); err != nil {
			return nil, fmt.Errorf("invalid sites file: %w", err)
		}
	}

	return &registry, nil
}

// SaveSites saves the site registry to the default location
func SaveSites(registry *SiteRegistry) error {
	path, err := DefaultSitesPath()
	if err != nil {
		return err
	}
	return SaveSitesToFile(registry, path)
}

// SaveSitesToFile saves the site registry to a specific file
func SaveSitesToFile(registry *SiteRegistry, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(registry)
	if err != nil {
		return fmt.Errorf("failed to marshal sites: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write sites file: %w", err)
	}

	return nil
}

// DefaultSitesPath returns ~/.scanpar/sites.yaml
func DefaultSitesPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".scanpar", "sites.yaml"), nil
}

// Get returns the named site
func (r *SiteRegistry) Get(name string) (Site, bool) {
	for _, s := range r.Sites {
		if s.Name == name {
			return s, true
		}
	}
	return Site{}, false
}

// Default returns the selected site, or the first one
func (r *SiteRegistry) Default() (Site, bool) {
	if r.Selected != "" {
		if s, ok := r.Get(r.Selected); ok {
			return s, true
		}
	}
	if len(r.Sites) > 0 {
		return r.Sites[0], true
	}
	return Site{}, false
}

// Add inserts a site, replacing any existing one with the same name
func (r *SiteRegistry) Add(site Site) {
	for i, s := range r.Sites {
		if s.Name == site.Name {
			r.Sites[i] = site
			return
		}
	}
	r.Sites = append(r.Sites, site)
}

// Remove deletes the named site and reports whether it existed
func (r *SiteRegistry) Remove(name string) bool {
	for i, s := range r.Sites {
		if s.Name == name {
			r.Sites = append(r.Sites[:i], r.Sites[i+1:]...)
			if r.Selected == name {
				r.Selected = ""
			}
			return true
		}
	}
	return false
}

// getDefaultRegistry returns the registry used before any site is
// configured
func getDefaultRegistry() *SiteRegistry {
	return &SiteRegistry{
		Sites: []Site{
			{
				Name:         "cori-debug",
				Scheduler:    "slurm",
				Partition:    "debug",
				Constraint:   "haswell",
				Nodes:        9,
				TasksPerNode: 32,
				TimeLimit:    "00:30:00",
				Launcher:     "srun",
			},
			{
				Name:         "cori-regular",
				Scheduler:    "slurm",
				Partition:    "regular",
				Constraint:   "haswell",
				Nodes:        32,
				TasksPerNode: 32,
				TimeLimit:    "04:00:00",
				Launcher:     "srun",
			},
		},
		Selected: "cori-debug",
	}
}
