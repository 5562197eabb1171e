package generate

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func seedRunDir(t *testing.T, workDir string, started time.Time, sfx string) string {
	t.Helper()
	name := started.UTC().Format(runStampLayout) + "-" + sfx
	dir := filepath.Join(gensDir(workDir), name)
	if err := os.MkdirAll(filepath.Join(dir, "logs"), 0o755); err != nil {
		t.Fatalf("mkdir run dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "input.json"), []byte("{}"), 0o644); err != nil {
		t.Fatalf("seed run dir: %v", err)
	}
	return dir
}

func TestPruneRunsKeepLast(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	now := time.Now()
	oldest := seedRunDir(t, workDir, now.Add(-3*time.Hour), "aaa")
	middle := seedRunDir(t, workDir, now.Add(-2*time.Hour), "bbb")
	newest := seedRunDir(t, workDir, now.Add(-time.Hour), "ccc")

	// Not a run dir; pruning must leave it alone.
	keepOut := filepath.Join(gensDir(workDir), "notes")
	if err := os.MkdirAll(keepOut, 0o755); err != nil {
		t.Fatalf("mkdir notes: %v", err)
	}

	res, err := PruneRuns(workDir, RetentionPolicy{KeepLast: 1}, false)
	if err != nil {
		t.Fatalf("PruneRuns() error = %v", err)
	}
	if res.Considered != 3 || res.Kept != 1 || res.Deleted != 2 || res.Skipped != 1 {
		t.Fatalf("prune result = %+v", res)
	}

	for _, gone := range []string{oldest, middle} {
		if _, err := os.Stat(gone); !os.IsNotExist(err) {
			t.Fatalf("expected %s removed, stat err=%v", gone, err)
		}
	}
	if _, err := os.Stat(newest); err != nil {
		t.Fatalf("newest run should survive: %v", err)
	}
	if _, err := os.Stat(keepOut); err != nil {
		t.Fatalf("non-run entry should survive: %v", err)
	}
}

func TestPruneRunsKeepDays(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	now := time.Now()
	stale := seedRunDir(t, workDir, now.Add(-10*24*time.Hour), "old")
	fresh := seedRunDir(t, workDir, now.Add(-time.Hour), "new")

	res, err := PruneRuns(workDir, RetentionPolicy{KeepDays: 7}, false)
	if err != nil {
		t.Fatalf("PruneRuns() error = %v", err)
	}
	if res.Kept != 1 || res.Deleted != 1 {
		t.Fatalf("prune result = %+v", res)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Fatalf("stale run should be removed, stat err=%v", err)
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Fatalf("fresh run should survive: %v", err)
	}
}

func TestPruneRunsDryRun(t *testing.T) {
	t.Parallel()

	workDir := t.TempDir()
	now := time.Now()
	seedRunDir(t, workDir, now.Add(-2*time.Hour), "aaa")
	seedRunDir(t, workDir, now.Add(-time.Hour), "bbb")

	res, err := PruneRuns(workDir, RetentionPolicy{KeepLast: 1}, true)
	if err != nil {
		t.Fatalf("PruneRuns() error = %v", err)
	}
	if res.Deleted != 1 {
		t.Fatalf("dry run reported %d deletions, want 1", res.Deleted)
	}
	entries, err := os.ReadDir(gensDir(workDir))
	if err != nil {
		t.Fatalf("read gens dir: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("dry run removed directories: %d left, want 2", len(entries))
	}

	res, err = PruneRuns(workDir, RetentionPolicy{}, false)
	if err != nil {
		t.Fatalf("PruneRuns(zero policy) error = %v", err)
	}
	if res != (PruneResult{}) {
		t.Fatalf("zero policy result = %+v, want empty", res)
	}
}
