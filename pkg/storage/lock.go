package storage

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/go-faster/errors"
)

const lockFile = ".lock"

// ErrSessionBusy — сессию уже использует другой запущенный процесс.
var ErrSessionBusy = errors.New("session is already in use")

// SessionLock — файл-блокировка каталога сессии: одной сессией владеет один процесс.
type SessionLock struct {
	path string
}

// LockSession захватывает каталог сессии. Блокировка, оставшаяся от
// завершившегося процесса, перехватывается.
func LockSession(dir string) (*SessionLock, error) {
	path := filepath.Join(dir, lockFile)
	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			_, werr := f.WriteString(strconv.Itoa(os.Getpid()))
			if cerr := f.Close(); werr == nil {
				werr = cerr
			}
			if werr != nil {
				_ = os.Remove(path)
				return nil, persistence(werr, "write session lock")
			}
			return &SessionLock{path: path}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, persistence(err, "create session lock")
		}
		if pid, alive := lockOwner(path); alive {
			return nil, errors.Wrapf(ErrSessionBusy, "pid %d", pid)
		}
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, persistence(err, "remove stale session lock")
		}
	}
	return nil, ErrSessionBusy
}

// Unlock освобождает сессию.
func (l *SessionLock) Unlock() error {
	if err := os.Remove(l.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return persistence(err, "remove session lock")
	}
	return nil
}

// lockOwner читает PID владельца и проверяет, жив ли процесс.
func lockOwner(path string) (int, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, false
	}
	if pid == os.Getpid() {
		return pid, true
	}
	p, err := os.FindProcess(pid)
	if err != nil {
		return pid, false
	}
	return pid, p.Signal(syscall.Signal(0)) == nil
}
