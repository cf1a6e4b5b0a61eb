package session

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestFileLock_LockUnlock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "current.toml.lock")
	fl := NewFileLock(path)

	if err := fl.Lock(); err != nil {
		t.Fatalf("Lock: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("lock file should exist: %v", err)
	}
	if err := fl.Unlock(); err != nil {
		t.Fatalf("Unlock: %v", err)
	}
}

func TestFileLock_UnlockWithoutLock(t *testing.T) {
	fl := NewFileLock(filepath.Join(t.TempDir(), "x.lock"))
	if err := fl.Unlock(); err != nil {
		t.Fatalf("Unlock without Lock should not error: %v", err)
	}
}

func TestFileLock_Exclusive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.lock")

	held := NewFileLock(path)
	if err := held.Lock(); err != nil {
		t.Fatal(err)
	}

	// flock locks belong to the open file description, so a second open in
	// the same process contends like another process would.
	other := NewFileLock(path)
	acquired, err := other.TryLock()
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if acquired {
		_ = other.Unlock()
		t.Fatal("TryLock should fail while the lock is held")
	}

	done := make(chan error, 1)
	go func() {
		done <- other.Lock()
	}()

	select {
	case <-done:
		t.Fatal("Lock should block while the lock is held")
	case <-time.After(50 * time.Millisecond):
	}

	if err := held.Unlock(); err != nil {
		t.Fatal(err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Lock: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Lock did not acquire after release")
	}
	_ = other.Unlock()
}

func TestStore_Lock(t *testing.T) {
	s := newTestStore(t)

	fl, err := s.Lock()
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}
	defer fl.Unlock()

	if fl.Path() != s.Path()+".lock" {
		t.Errorf("lock path = %q, want %q", fl.Path(), s.Path()+".lock")
	}
}
