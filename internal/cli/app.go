package cli

import (
	"os"
	"path/filepath"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/internal/common"
	"github.com/limmweb/instagram-ai-commentator/internal/config"
	"github.com/limmweb/instagram-ai-commentator/internal/operator"
	"github.com/limmweb/instagram-ai-commentator/internal/retry"
	"github.com/limmweb/instagram-ai-commentator/internal/session"
	"github.com/limmweb/instagram-ai-commentator/pkg/instagram"
	"github.com/limmweb/instagram-ai-commentator/pkg/notify"
	"github.com/limmweb/instagram-ai-commentator/pkg/storage"
)

// app — общие зависимости команд.
type app struct {
	cfg      *config.Config
	log      *zap.Logger
	closeLog func()
	notifier notify.Notifier
}

func newApp(opts *RootOptions) (*app, error) {
	path := opts.ConfigPath
	if path == "" {
		path = config.Path()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if opts.LogLevel != "" {
		cfg.LogLevel = opts.LogLevel
	}
	log, closeLog, err := common.NewLogger(cfg.LogsDir, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	if cfg.EnvFileErr != nil {
		log.Warn("[CONFIG] не удалось прочитать .env, используются переменные окружения", zap.Error(cfg.EnvFileErr))
	}

	var n notify.Notifier = notify.Nop{}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != 0 {
		tg, err := notify.NewTelegram(cfg.TelegramToken, cfg.TelegramChatID, "", nil)
		if err != nil {
			log.Warn("[NOTIFY] Telegram недоступен, уведомления отключены", zap.Error(err))
		} else {
			n = tg
		}
	} else {
		log.Warn("[NOTIFY] токен или чат Telegram не заданы, уведомления отключены")
	}
	return &app{cfg: cfg, log: log, closeLog: closeLog, notifier: n}, nil
}

// sessionManager собирает клиента платформы, политику повторов и менеджер сессии.
func (a *app) sessionManager(store *storage.IdentityStore) (*session.Manager, *retry.Policy, instagram.Client) {
	client := instagram.NewGateway(a.cfg.GatewayURL)
	policy := &retry.Policy{
		Intervals: a.cfg.SleepIntervals(),
		Cooldown:  a.cfg.Cooldown(),
		Operator:  operator.NewConsole(os.Stdin, os.Stdout, a.notifier, a.log),
		Notifier:  a.notifier,
		Log:       a.log,
	}
	mgr := session.NewManager(client, store, policy, a.notifier, a.log)
	policy.Recover = mgr.Recreate
	return mgr, policy, client
}

func (a *app) identity(name string) *storage.IdentityStore {
	return storage.NewIdentityStore(filepath.Join(a.cfg.SessionsDir, name))
}

// fatal журналирует ошибку запуска и возвращает её для кода выхода 1.
func (a *app) fatal(msg string, err error) error {
	a.log.Error("[FATAL] "+msg, zap.Error(err))
	return errors.Wrap(err, msg)
}
