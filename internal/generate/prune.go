package generate

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// runStampLayout prefixes every generation run directory name.
const runStampLayout = "20060102-150405"

func gensDir(workDir string) string {
	return filepath.Join(workDir, ".atelier", "gens")
}

// RetentionPolicy controls generation run cleanup.
type RetentionPolicy struct {
	KeepLast int
	KeepDays int
}

// PruneResult summarizes a prune operation.
type PruneResult struct {
	Considered int
	Kept       int
	Deleted    int
	Skipped    int
}

// PruneRuns deletes generation run directories falling outside the retention
// policy. Entries whose names do not carry a run timestamp are skipped. A zero
// policy keeps everything.
func PruneRuns(workDir string, policy RetentionPolicy, dryRun bool) (PruneResult, error) {
	if policy.KeepLast <= 0 && policy.KeepDays <= 0 {
		return PruneResult{}, nil
	}
	cutoff := time.Time{}
	if policy.KeepDays > 0 {
		cutoff = time.Now().UTC().Add(-time.Duration(policy.KeepDays) * 24 * time.Hour)
	}

	dir := gensDir(workDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return PruneResult{}, nil
		}
		return PruneResult{}, fmt.Errorf("list generation runs: %w", err)
	}

	type runDir struct {
		name    string
		started time.Time
	}
	var (
		runs    []runDir
		skipped int
	)
	for _, entry := range entries {
		if !entry.IsDir() {
			skipped++
			continue
		}
		name := entry.Name()
		if len(name) < len(runStampLayout) {
			skipped++
			continue
		}
		started, parseErr := time.Parse(runStampLayout, name[:len(runStampLayout)])
		if parseErr != nil {
			skipped++
			continue
		}
		runs = append(runs, runDir{name: name, started: started})
	}
	// Timestamped names sort chronologically; newest first.
	slices.SortFunc(runs, func(a, b runDir) int {
		if a.name == b.name {
			return 0
		}
		if a.name > b.name {
			return -1
		}
		return 1
	})

	res := PruneResult{Considered: len(runs), Skipped: skipped}
	for idx, run := range runs {
		keep := false
		if policy.KeepLast > 0 && idx < policy.KeepLast {
			keep = true
		}
		if !keep && policy.KeepDays > 0 && run.started.After(cutoff) {
			keep = true
		}
		if keep {
			res.Kept++
			continue
		}
		if dryRun {
			res.Deleted++
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, run.name)); err != nil && !os.IsNotExist(err) {
			res.Skipped++
			continue
		}
		res.Deleted++
	}
	return res, nil
}
