package storage

import (
	"context"
	"os"

	"github.com/go-faster/errors"
	"github.com/gotd/td/session"
)

// SessionBlob хранит сериализованную сессию платформы в файле session.json.
// Содержимое непрозрачно: его производит и читает только клиент платформы.
// Файл существует не больше чем в одном экземпляре и пишется только после успешного входа.
type SessionBlob struct {
	path  string
	store *session.FileStorage
}

var _ session.Storage = (*SessionBlob)(nil)

// NewSessionBlob возвращает хранилище сессии по указанному пути.
func NewSessionBlob(path string) *SessionBlob {
	return &SessionBlob{path: path, store: &session.FileStorage{Path: path}}
}

// LoadSession реализует session.Storage: отсутствие файла — session.ErrNotFound.
func (b *SessionBlob) LoadSession(ctx context.Context) ([]byte, error) {
	data, err := b.store.LoadSession(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, session.ErrNotFound
	}
	return data, nil
}

// StoreSession реализует session.Storage.
func (b *SessionBlob) StoreSession(ctx context.Context, data []byte) error {
	if err := b.store.StoreSession(ctx, data); err != nil {
		return persistence(err, "store session blob")
	}
	return nil
}

// Load возвращает сохранённую сессию; ok=false, если её нет.
func (b *SessionBlob) Load(ctx context.Context) ([]byte, bool, error) {
	data, err := b.LoadSession(ctx)
	if errors.Is(err, session.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, errors.Wrap(err, "load session blob")
	}
	return data, true, nil
}

// Exists сообщает, есть ли файл сессии на диске.
func (b *SessionBlob) Exists() bool {
	_, err := os.Stat(b.path)
	return err == nil
}

// Delete удаляет файл сессии; отсутствие файла не ошибка.
func (b *SessionBlob) Delete() error {
	if err := os.Remove(b.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return persistence(err, "delete session blob")
	}
	return nil
}
