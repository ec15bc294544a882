package batch

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrDataDirMissing is returned when the data directory does not exist.
var ErrDataDirMissing = errors.New("data directory does not exist")

// CollectTargets resolves the files to clean. Named files are looked up
// under dataDir; missing or non-CSV names are skipped with a warning.
// Without names every *.csv file in dataDir is returned, sorted.
func CollectTargets(dataDir string, names []string) (targets, warnings []string, err error) {
	abs, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, nil, err
	}
	if info, err := os.Stat(abs); err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s", ErrDataDirMissing, abs)
	}

	if len(names) == 0 {
		matches, err := filepath.Glob(filepath.Join(abs, "*.csv"))
		if err != nil {
			return nil, nil, err
		}
		sort.Strings(matches)
		return matches, nil, nil
	}

	for _, name := range names {
		candidate := filepath.Join(abs, name)
		if _, err := os.Stat(candidate); err != nil {
			warnings = append(warnings, fmt.Sprintf("Skipping %q: file not found under %s.", name, abs))
			continue
		}
		if strings.ToLower(filepath.Ext(candidate)) != ".csv" {
			warnings = append(warnings, fmt.Sprintf("Skipping %s: not a CSV file.", filepath.Base(candidate)))
			continue
		}
		targets = append(targets, candidate)
	}
	return targets, warnings, nil
}
