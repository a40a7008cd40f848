package provision

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// tempPatterns name the transient artifacts a sweep removes.
var tempPatterns = []string{"*.tmp", "*.bak", "*.old", "*.download"}

// DefaultSweepInterval is how often a running Sweeper scans the working
// directory.
const DefaultSweepInterval = time.Hour

// DefaultSweepMaxAge is how old a temp artifact must be before a periodic
// sweep removes it. Artifacts younger than this may belong to an
// in-flight download.
const DefaultSweepMaxAge = 24 * time.Hour

// TempFile describes one sweepable artifact found under a directory.
type TempFile struct {
	// Path is the absolute file path.
	Path string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the file's last modification time.
	ModTime time.Time
}

// FindTempFiles walks dir recursively and returns every file matching the
// temporary/backup artifact patterns, oldest first is not guaranteed.
func FindTempFiles(dir string) ([]TempFile, error) {
	var found []TempFile

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}

		for _, pattern := range tempPatterns {
			if ok, _ := filepath.Match(pattern, d.Name()); ok {
				info, err := d.Info()
				if err != nil {
					return nil
				}
				found = append(found, TempFile{Path: path, Size: info.Size(), ModTime: info.ModTime()})
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return found, nil
}

// SweepTempFiles removes temporary/backup artifacts under dir that are
// older than maxAge. A maxAge of zero removes everything matching.
// Returns the number of files removed and the bytes freed. Individual
// removal errors are skipped; the sweep is best-effort.
func SweepTempFiles(dir string, maxAge time.Duration) (removed int, freed int64, err error) {
	files, err := FindTempFiles(dir)
	if err != nil {
		return 0, 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	for _, f := range files {
		if maxAge > 0 && f.ModTime.After(cutoff) {
			continue
		}
		if os.Remove(f.Path) == nil {
			removed++
			freed += f.Size
		}
	}

	return removed, freed, nil
}

// Sweeper periodically removes stale temp artifacts from a working
// directory on an independent timer.
type Sweeper struct {
	// Dir is the directory to sweep.
	Dir string

	// Interval is the time between sweeps. Zero means
	// DefaultSweepInterval.
	Interval time.Duration

	// MaxAge is the minimum artifact age for removal. Zero means
	// DefaultSweepMaxAge.
	MaxAge time.Duration

	// Logger receives sweep reports. May be nil.
	Logger Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Start launches the sweep loop. It returns immediately; the loop runs
// until Stop is called or ctx is cancelled. Starting a running Sweeper is
// a no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return
	}

	interval := s.Interval
	if interval == 0 {
		interval = DefaultSweepInterval
	}
	maxAge := s.MaxAge
	if maxAge == 0 {
		maxAge = DefaultSweepMaxAge
	}

	ctx, s.cancel = context.WithCancel(ctx)
	s.running = true
	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				removed, freed, err := SweepTempFiles(s.Dir, maxAge)
				if err != nil {
					if s.Logger != nil {
						s.Logger.Warn("temp sweep failed", "dir", s.Dir, "error", err)
					}
					continue
				}
				if removed > 0 && s.Logger != nil {
					s.Logger.Info("swept temp files", "dir", s.Dir, "removed", removed, "freed", freed)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop halts the sweep loop and waits for it to exit. Safe to call
// multiple times.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	cancel := s.cancel
	s.mu.Unlock()

	cancel()
	s.wg.Wait()
}
