package instagram

import (
	"context"

	"github.com/limmweb/instagram-ai-commentator/models"
)

// Client — операции платформы, которые нужны циклу комментирования.
// Любой вызов может вернуть *Error с классом ошибки.
type Client interface {
	Login(ctx context.Context, creds models.Credentials) error
	Logout(ctx context.Context) error

	// LoadSettings подставляет ранее сохранённую сессию, DumpSettings сериализует текущую,
	// ResetSettings очищает состояние клиента в памяти.
	LoadSettings(blob []byte) error
	DumpSettings() ([]byte, error)
	ResetSettings()

	// UserID возвращает ID аккаунта, под которым выполнен вход.
	UserID() string
	UserInfoByUsername(ctx context.Context, username string) (models.Profile, error)
	UserIDFromUsername(ctx context.Context, username string) (string, error)
	UserFollowing(ctx context.Context, userID string) ([]string, error)
	UserMedias(ctx context.Context, userID string, amount int) ([]models.Post, error)
	MediaComment(ctx context.Context, mediaID, text string) error
	MediaLike(ctx context.Context, mediaID string) error
}
