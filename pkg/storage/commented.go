package storage

import (
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
)

// CommentedLog — журнал ID постов, под которыми уже оставлен комментарий.
// Файл только дописывается; порядок строк значения не имеет.
type CommentedLog struct {
	path string
	ids  map[string]struct{}
}

// OpenCommentedLog создаёт файл журнала при необходимости и загружает его в память.
func OpenCommentedLog(path string) (*CommentedLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "create commented log dir")
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDONLY, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open commented log")
	}
	f.Close()

	lines, err := readLines(path)
	if err != nil {
		return nil, errors.Wrap(err, "load commented log")
	}
	l := &CommentedLog{path: path, ids: make(map[string]struct{}, len(lines))}
	for _, id := range lines {
		l.ids[id] = struct{}{}
	}
	return l, nil
}

// Contains сообщает, был ли пост уже прокомментирован (или была попытка).
func (l *CommentedLog) Contains(postID string) bool {
	_, ok := l.ids[postID]
	return ok
}

// Len возвращает количество записей журнала.
func (l *CommentedLog) Len() int { return len(l.ids) }

// Append дописывает ID поста и синхронизирует файл с диском.
// Повторная запись того же ID ничего не делает.
func (l *CommentedLog) Append(postID string) error {
	if l.Contains(postID) {
		return nil
	}
	f, err := os.OpenFile(l.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return persistence(err, "open commented log")
	}
	if _, err := f.WriteString(postID + "\n"); err != nil {
		f.Close()
		return persistence(err, "append commented log")
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return persistence(err, "sync commented log")
	}
	if err := f.Close(); err != nil {
		return persistence(err, "close commented log")
	}
	l.ids[postID] = struct{}{}
	return nil
}
