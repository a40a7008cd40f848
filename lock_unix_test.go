//go:build !windows

package provision

import (
	"path/filepath"
	"testing"
	"time"
)

func TestFileLockContention(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".download.lock")

	holder, err := newFileLock(path, time.Second)
	if err != nil {
		t.Fatalf("newFileLock: %v", err)
	}
	if err := holder.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	defer holder.Unlock()

	// A second open file description on the same path must time out.
	waiter, err := newFileLock(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("newFileLock: %v", err)
	}
	if err := waiter.Lock(); err == nil {
		t.Fatal("expected lock contention timeout")
	}

	// The failure path releases the handle so the lock file is not held
	// open by a lock that was never acquired.
	if err := waiter.Unlock(); err != nil {
		t.Errorf("Unlock after failed Lock: %v", err)
	}
	if waiter.file != nil {
		t.Error("lock file handle still open after failed acquisition")
	}
}

func TestFileLockUnlockTwice(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".download.lock")

	l, err := newFileLock(path, time.Second)
	if err != nil {
		t.Fatalf("newFileLock: %v", err)
	}
	if err := l.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if err := l.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
	if err := l.Unlock(); err != nil {
		t.Errorf("second Unlock: %v", err)
	}

	// The path is free again after release.
	again, err := newFileLock(path, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("newFileLock: %v", err)
	}
	if err := again.Lock(); err != nil {
		t.Errorf("relock after release: %v", err)
	}
	again.Unlock()
}
