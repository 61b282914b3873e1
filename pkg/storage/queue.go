package storage

import (
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

// FollowingsQueue — очередь подписок на обработку, одна на контролируемый аккаунт.
// Файл хранит по одному имени пользователя в строке, порядок значим:
// первым обрабатывается верхний аккаунт, обработанный уходит в конец.
type FollowingsQueue struct {
	path    string
	handles []string
	exists  bool
}

// FollowingsPath возвращает путь к файлу очереди для указанного аккаунта.
func FollowingsPath(logsDir, username string) string {
	return filepath.Join(logsDir, username+"_followings.txt")
}

// OpenFollowingsQueue загружает очередь из файла. Отсутствие файла не ошибка:
// он будет создан при первом Merge.
func OpenFollowingsQueue(path string) (*FollowingsQueue, error) {
	q := &FollowingsQueue{path: path}
	lines, err := readLines(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return q, nil
	case err != nil:
		return nil, errors.Wrap(err, "load followings queue")
	}
	q.exists = true
	q.handles = dedupe(lines)
	return q, nil
}

// ReadQueueFile возвращает содержимое файла очереди без открытия очереди на запись.
func ReadQueueFile(path string) ([]string, error) {
	lines, err := readLines(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return dedupe(lines), nil
}

// Path возвращает путь к файлу очереди.
func (q *FollowingsQueue) Path() string { return q.path }

// Len возвращает количество аккаунтов в очереди.
func (q *FollowingsQueue) Len() int { return len(q.handles) }

// Head возвращает аккаунт, который нужно обработать следующим.
func (q *FollowingsQueue) Head() (string, bool) {
	if len(q.handles) == 0 {
		return "", false
	}
	return q.handles[0], true
}

// Handles возвращает копию текущего порядка.
func (q *FollowingsQueue) Handles() []string {
	out := make([]string, len(q.handles))
	copy(out, q.handles)
	return out
}

// Merge вливает свежий список подписок в очередь.
// При первом запуске файл создаётся в порядке снимка. Дальше новые подписки
// ставятся в начало (их обработаем раньше всех), существующий порядок не меняется,
// ни один аккаунт не теряется и не дублируется.
func (q *FollowingsQueue) Merge(follows []string) (int, error) {
	follows = dedupe(follows)
	if !q.exists {
		q.handles = follows
		if err := q.flush(); err != nil {
			return 0, err
		}
		q.exists = true
		return len(follows), nil
	}

	known := make(map[string]struct{}, len(q.handles))
	for _, h := range q.handles {
		known[h] = struct{}{}
	}
	var fresh []string
	for _, h := range follows {
		if _, ok := known[h]; !ok {
			fresh = append(fresh, h)
		}
	}
	if len(fresh) == 0 {
		return 0, nil
	}
	q.handles = append(fresh, q.handles...)
	return len(fresh), q.flush()
}

// MoveToTail переносит аккаунт в конец очереди и сразу сохраняет файл.
// Порядок в памяти меняется даже при ошибке записи, чтобы цикл не застрял на одном аккаунте.
func (q *FollowingsQueue) MoveToTail(handle string) error {
	rest := q.handles[:0:0]
	for _, h := range q.handles {
		if h != handle {
			rest = append(rest, h)
		}
	}
	q.handles = append(rest, handle)
	return q.flush()
}

func (q *FollowingsQueue) flush() error {
	return persistence(writeFileAtomic(q.path, joinLines(q.handles)), "write followings queue")
}

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, h := range in {
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	return out
}
