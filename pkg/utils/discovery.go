package utils

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cmbsims/scanpar/pkg/logger"
	"github.com/cmbsims/scanpar/pkg/params"
)

// Format classifications for discovered parameter files.
const (
	FormatTagged = "tagged"
	FormatLegacy = "legacy"
	FormatMixed  = "mixed"
)

// ParameterFileInfo describes a discovered parameter file
type ParameterFileInfo struct {
	// Path of the file, relative to the scanned directory
	Path string

	// Sections found in the file
	Sections []string

	// Keys counts the parameters of the requested section
	Keys int

	// Format is tagged, legacy or mixed, from the line format counts
	Format string
}

// DiscoverParameterFiles scans a directory tree for .ini parameter
// files. Files that fail to parse are reported and skipped.
func DiscoverParameterFiles(dir string, opts params.Options) ([]ParameterFileInfo, error) {
	var infos []ParameterFileInfo

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".ini") {
			return nil
		}

		info, err := inspectParameterFile(path, dir, opts)
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			return nil
		}
		infos = append(infos, *info)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan for parameter files: %w", err)
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Path < infos[j].Path })
	return infos, nil
}

func inspectParameterFile(path, dir string, opts params.Options) (*ParameterFileInfo, error) {
	// Unknown keys are expected while scanning foreign files.
	opts.Strict = false

	file, err := params.LoadFile(path, opts)
	if err != nil {
		return nil, err
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		rel = path
	}

	info := &ParameterFileInfo{Path: rel}
	for _, set := range file.Sections() {
		info.Sections = append(info.Sections, set.Section())
	}

	section := opts.Section
	if section == "" {
		section = params.DefaultSection
	}
	set, ok := file.Section(section)
	if !ok {
		sets := file.Sections()
		if len(sets) == 0 {
			return nil, fmt.Errorf("no sections in %s", path)
		}
		set = sets[0]
	}

	info.Keys = set.Len()
	info.Format = detectFormat(set)
	return info, nil
}

// detectFormat reports how the section's values were written. A file
// produced by hand can mix tagged and untagged lines.
func detectFormat(set *params.Set) string {
	tagged := 0
	for _, key := range set.Keys() {
		if e, ok := set.Lookup(key); ok && e.Tagged {
			tagged++
		}
	}

	switch {
	case tagged == 0:
		return FormatLegacy
	case tagged == set.Len():
		return FormatTagged
	default:
		return FormatMixed
	}
}

// FindProjectFile resolves a path against the working directory and,
// failing that, against the directory of the executable. Batch jobs
// often run far from the checkout that holds the parameter files.
func FindProjectFile(path string) (string, error) {
	if filepath.IsAbs(path) {
		return path, nil
	}
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	exe, err := os.Executable()
	if err != nil {
		return path, nil
	}
	candidate := filepath.Join(filepath.Dir(exe), path)
	if _, err := os.Stat(candidate); err == nil {
		return candidate, nil
	}

	return "", fmt.Errorf("could not find %s", path)
}
