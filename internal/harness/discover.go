package harness

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// LockNotFoundError is returned when a scenario references a lock file
// that doesn't exist.
type LockNotFoundError struct {
	Scenario     string
	ResolvedPath string
}

// Error implements the error interface.
func (e *LockNotFoundError) Error() string {
	return fmt.Sprintf("scenario %q references lock %s which does not exist", e.Scenario, e.ResolvedPath)
}

// FindScenarios returns every .yaml/.yml file under dir, sorted. Files
// under a "golden" directory are skipped. When filter is non-empty only
// files whose base name (without extension) matches the glob are kept.
func FindScenarios(dir, filter string) ([]string, error) {
	if filter != "" {
		if _, err := filepath.Match(filter, ""); err != nil {
			return nil, fmt.Errorf("invalid filter pattern: %w", err)
		}
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == goldenDir && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}
		if filter != "" {
			name := strings.TrimSuffix(filepath.Base(path), ext)
			if matched, _ := filepath.Match(filter, name); !matched {
				return nil
			}
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}
