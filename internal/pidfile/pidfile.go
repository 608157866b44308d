// Package pidfile guards against running two panel services against the
// same project at once.
package pidfile

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"
)

const FileName = ".panelctl.pid"

// Path returns the PID file location for a project directory.
func Path(dir string) string {
	return filepath.Join(dir, FileName)
}

// Acquire writes the current PID for the project directory. It fails when a
// live process already holds the file; a stale file left by a dead process
// is taken over.
func Acquire(dir string) error {
	if pid, err := Read(dir); err == nil && IsRunning(pid) {
		return fmt.Errorf("another instance is already running (pid %d)", pid)
	}

	data := fmt.Sprintf("%d\n", os.Getpid())
	if err := os.WriteFile(Path(dir), []byte(data), 0600); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// Read returns the PID recorded for the project directory.
func Read(dir string) (int, error) {
	data, err := os.ReadFile(Path(dir))
	if err != nil {
		return 0, err
	}

	var pid int
	if _, err := fmt.Sscanf(string(data), "%d", &pid); err != nil {
		return 0, err
	}
	return pid, nil
}

// IsRunning reports whether a process with the given PID exists.
func IsRunning(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 probes for existence without delivering anything.
	return process.Signal(syscall.Signal(0)) == nil
}

// Release removes the PID file. A missing file is not an error.
func Release(dir string) error {
	if err := os.Remove(Path(dir)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
