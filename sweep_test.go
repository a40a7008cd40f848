package provision

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAged(t *testing.T, path string, age time.Duration) {
	t.Helper()
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	if age > 0 {
		old := time.Now().Add(-age)
		if err := os.Chtimes(path, old, old); err != nil {
			t.Fatalf("aging %s: %v", path, err)
		}
	}
}

func TestFindTempFiles(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "v1_0")
	os.MkdirAll(sub, 0o755)

	writeAged(t, filepath.Join(dir, "a.tmp"), 0)
	writeAged(t, filepath.Join(sub, "b.bak"), 0)
	writeAged(t, filepath.Join(sub, "c.old"), 0)
	writeAged(t, filepath.Join(sub, "d.download"), 0)
	writeAged(t, filepath.Join(sub, "model.pth"), 0)
	writeAged(t, filepath.Join(dir, "config.json"), 0)

	found, err := FindTempFiles(dir)
	if err != nil {
		t.Fatalf("FindTempFiles: %v", err)
	}
	if len(found) != 4 {
		t.Fatalf("expected 4 temp files, got %d: %+v", len(found), found)
	}
	for _, f := range found {
		name := filepath.Base(f.Path)
		if name == "model.pth" || name == "config.json" {
			t.Errorf("real file matched as temp: %s", name)
		}
	}
}

func TestFindTempFilesMissingDir(t *testing.T) {
	found, err := FindTempFiles(filepath.Join(t.TempDir(), "absent"))
	if err != nil {
		t.Fatalf("expected nil error for missing dir, got %v", err)
	}
	if len(found) != 0 {
		t.Errorf("expected no files, got %d", len(found))
	}
}

func TestSweepTempFiles(t *testing.T) {
	t.Run("age cutoff", func(t *testing.T) {
		dir := t.TempDir()
		writeAged(t, filepath.Join(dir, "stale.tmp"), 48*time.Hour)
		writeAged(t, filepath.Join(dir, "fresh.tmp"), 0)
		writeAged(t, filepath.Join(dir, "model.pth"), 48*time.Hour)

		removed, freed, err := SweepTempFiles(dir, 24*time.Hour)
		if err != nil {
			t.Fatalf("SweepTempFiles: %v", err)
		}
		if removed != 1 {
			t.Errorf("removed = %d, want 1", removed)
		}
		if freed != 1 {
			t.Errorf("freed = %d, want 1", freed)
		}

		if _, err := os.Stat(filepath.Join(dir, "stale.tmp")); !os.IsNotExist(err) {
			t.Error("stale.tmp survived the sweep")
		}
		if _, err := os.Stat(filepath.Join(dir, "fresh.tmp")); err != nil {
			t.Error("fresh.tmp removed despite being younger than max age")
		}
		if _, err := os.Stat(filepath.Join(dir, "model.pth")); err != nil {
			t.Error("model.pth removed despite not matching temp patterns")
		}
	})

	t.Run("zero max age removes everything matching", func(t *testing.T) {
		dir := t.TempDir()
		writeAged(t, filepath.Join(dir, "a.tmp"), 0)
		writeAged(t, filepath.Join(dir, "b.bak"), 0)

		removed, _, err := SweepTempFiles(dir, 0)
		if err != nil {
			t.Fatalf("SweepTempFiles: %v", err)
		}
		if removed != 2 {
			t.Errorf("removed = %d, want 2", removed)
		}
	})
}

func TestSweeperLifecycle(t *testing.T) {
	dir := t.TempDir()
	writeAged(t, filepath.Join(dir, "stale.tmp"), 48*time.Hour)

	s := &Sweeper{
		Dir:      dir,
		Interval: 10 * time.Millisecond,
		MaxAge:   time.Hour,
	}
	s.Start(context.Background())
	defer s.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(filepath.Join(dir, "stale.tmp")); os.IsNotExist(err) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if _, err := os.Stat(filepath.Join(dir, "stale.tmp")); !os.IsNotExist(err) {
		t.Error("sweeper never removed the stale artifact")
	}

	// Stop twice must be safe.
	s.Stop()
	s.Stop()
}

func TestSweeperStartTwice(t *testing.T) {
	s := &Sweeper{Dir: t.TempDir(), Interval: time.Hour}
	ctx := context.Background()
	s.Start(ctx)
	s.Start(ctx)
	s.Stop()
}
