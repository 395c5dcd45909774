package filelock

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewFileLock(t *testing.T) {
	tmpDir := t.TempDir()
	lockPath := filepath.Join(tmpDir, "test.lock")

	lock := NewFileLock(lockPath)
	if lock == nil {
		t.Fatal("NewFileLock should not return nil")
	}
	if lock.path != lockPath {
		t.Errorf("Expected lock path %s, got %s", lockPath, lock.path)
	}
}

func TestLockUnlock(t *testing.T) {
	tmpDir := t.TempDir()
	lock := NewFileLock(filepath.Join(tmpDir, "test.lock"))

	if err := lock.Lock(); err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Unlock(); err != nil {
		t.Fatalf("Failed to release lock: %v", err)
	}
}

func TestAcquireBuildLock(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".suzuka-build")

	lock, err := AcquireBuildLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireBuildLock() error = %v", err)
	}
	defer lock.Unlock()

	// The state directory and lock file are created on demand
	if _, err := os.Stat(filepath.Join(stateDir, BuildLockFile)); err != nil {
		t.Errorf("lock file should exist: %v", err)
	}
}

func TestAcquireBuildLockContention(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".suzuka-build")

	first, err := AcquireBuildLock(stateDir)
	if err != nil {
		t.Fatalf("first AcquireBuildLock() error = %v", err)
	}
	defer first.Unlock()

	// A second acquisition against the same workspace must fail fast
	if _, err := AcquireBuildLock(stateDir); err == nil {
		t.Error("second AcquireBuildLock() should fail while the lock is held")
	}
}

func TestAcquireBuildLockReleasedAndReacquired(t *testing.T) {
	stateDir := filepath.Join(t.TempDir(), ".suzuka-build")

	first, err := AcquireBuildLock(stateDir)
	if err != nil {
		t.Fatalf("first AcquireBuildLock() error = %v", err)
	}
	if err := first.Unlock(); err != nil {
		t.Fatalf("Unlock() error = %v", err)
	}

	second, err := AcquireBuildLock(stateDir)
	if err != nil {
		t.Fatalf("AcquireBuildLock() after release error = %v", err)
	}
	second.Unlock()
}

func TestAtomicWrite(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "report", "out.html")

	data := []byte("<html>report</html>")
	if err := AtomicWrite(path, data); err != nil {
		t.Fatalf("AtomicWrite() error = %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written file: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("content = %q, want %q", got, data)
	}

	// No temp files left behind
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("failed to list directory: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("expected only the target file, found %d entries", len(entries))
	}
}

func TestAtomicWriteOverwrites(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "out.txt")

	if err := AtomicWrite(path, []byte("first")); err != nil {
		t.Fatalf("first AtomicWrite() error = %v", err)
	}
	if err := AtomicWrite(path, []byte("second")); err != nil {
		t.Fatalf("second AtomicWrite() error = %v", err)
	}

	got, _ := os.ReadFile(path)
	if string(got) != "second" {
		t.Errorf("content = %q, want %q", got, "second")
	}
}
