package storage

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// ErrPersistence помечает ошибки записи на диск. Для цикла комментирования
// это фатально в пределах текущего аккаунта, но не для процесса.
var ErrPersistence = errors.New("persistence failure")

type persistenceError struct {
	err error
}

func (e *persistenceError) Error() string { return e.err.Error() }
func (e *persistenceError) Unwrap() error { return e.err }
func (e *persistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// persistence оборачивает ошибку записи так, чтобы errors.Is(err, ErrPersistence) срабатывал.
func persistence(err error, msg string) error {
	if err == nil {
		return nil
	}
	return &persistenceError{err: errors.Wrap(err, msg)}
}

// writeFileAtomic перезаписывает файл целиком: пишем во временный файл
// рядом и переименовываем, чтобы падение процесса не оставило половину списка.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "create dir")
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "write temp file")
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.Wrap(err, "sync temp file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.Wrap(err, "rename temp file")
	}
	return nil
}

// readLines читает файл построчно, отбрасывая пробелы по краям и пустые строки.
// Отсутствующий файл возвращает пустой список и os.ErrNotExist.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	return lines, nil
}

func joinLines(lines []string) []byte {
	var b strings.Builder
	for _, l := range lines {
		b.WriteString(l)
		b.WriteByte('\n')
	}
	return []byte(b.String())
}

// CountLines возвращает количество непустых строк файла; отсутствующий файл — 0.
func CountLines(path string) (int, error) {
	lines, err := readLines(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(lines), nil
}
