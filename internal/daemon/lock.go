// Package daemon keeps long running watch mode to a single instance.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/hemma/internal/constants"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

var ErrAlreadyRunning = errors.New("hemma watch is already running")

// Lock is a pid lockfile of the form "pid|started-at".
type Lock struct {
	path string
	pid  int
}

// Acquire takes the lockfile at path. A lockfile left by a process that is
// no longer running (or is not hemma) is replaced.
func Acquire(path string) (*Lock, error) {
	if pid, ok := Running(path); ok {
		return nil, fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	pid := getpidFunc()
	content := fmt.Sprintf("%d|%s", pid, time.Now().UTC().Format(time.RFC3339))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, []byte(content), 0600); err != nil {
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	return &Lock{path: path, pid: pid}, nil
}

// Release removes the lockfile if it still belongs to this process.
func (l *Lock) Release() error {
	pid, _, err := readLockfile(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if pid != l.pid {
		return nil
	}
	return os.Remove(l.path)
}

// Running reports the pid of a live watch process holding path.
func Running(path string) (int, bool) {
	pid, _, err := readLockfile(path)
	if err != nil {
		return 0, false
	}
	if pid == getpidFunc() {
		return 0, false
	}
	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return 0, false
	}
	if !strings.HasPrefix(process.Executable(), constants.AppName) {
		return 0, false
	}
	return pid, true
}

func readLockfile(path string) (int, time.Time, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, time.Time{}, err
	}
	parts := strings.Split(strings.TrimSpace(string(content)), "|")
	if len(parts) != 2 {
		return 0, time.Time{}, errors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, time.Time{}, errors.New("invalid process ID in lockfile")
	}
	started, err := time.Parse(time.RFC3339, parts[1])
	if err != nil {
		return 0, time.Time{}, errors.New("invalid start time in lockfile")
	}
	return pid, started, nil
}
