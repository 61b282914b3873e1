package notify

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const (
	// maxMessageRunes — ограничение Telegram на длину текста сообщения.
	maxMessageRunes = 4096
	// sendTimeout — предел одного запроса к Bot API.
	sendTimeout = 20 * time.Second
)

// Notifier доставляет сообщение оператору.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Send отправляет уведомление и только журналирует ошибку: уведомления
// не повторяются и никогда не прерывают работу.
func Send(ctx context.Context, n Notifier, log *zap.Logger, text string) {
	if n == nil {
		return
	}
	if err := n.Notify(ctx, text); err != nil {
		log.Error("[NOTIFY] не удалось отправить уведомление", zap.Error(err))
	}
}

// Nop ничего не отправляет.
type Nop struct{}

func (Nop) Notify(context.Context, string) error { return nil }

// Telegram отправляет уведомления в чат через Bot API.
type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegram подключается к Bot API (запрос getMe) и возвращает отправителя.
// endpoint пустой — используется api.telegram.org; client nil — клиент с таймаутом sendTimeout.
func NewTelegram(token string, chatID int64, endpoint string, client *http.Client) (*Telegram, error) {
	if token == "" || chatID == 0 {
		return nil, errors.New("telegram token and chat id are required")
	}
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if client == nil {
		client = &http.Client{Timeout: sendTimeout}
	}
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, errors.Wrap(err, "init telegram bot")
	}
	return &Telegram{bot: bot, chatID: chatID}, nil
}

// Notify возвращается не позже отмены ctx; сам запрос ограничен таймаутом клиента.
func (t *Telegram) Notify(ctx context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, truncate(text, maxMessageRunes))
	msg.DisableWebPagePreview = true

	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "telegram send")
	case err := <-done:
		if err != nil {
			return errors.Wrap(err, "telegram send")
		}
		return nil
	}
}

func truncate(s string, limit int) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit-1]) + "…"
}
