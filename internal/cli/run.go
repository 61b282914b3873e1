package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/internal/comments"
	"github.com/limmweb/instagram-ai-commentator/internal/status"
	"github.com/limmweb/instagram-ai-commentator/pkg/ai"
	"github.com/limmweb/instagram-ai-commentator/pkg/storage"
)

// RunOptions — флаги команды run.
type RunOptions struct {
	*RootOptions
	Session string
}

// NewRunCommand создаёт команду run.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Запустить цикл комментирования",
		Long: `Выбирает сессию из каталога Sessions, входит в аккаунт и бесконечно
обходит подписки, комментируя свежие посты. Останавливается по Ctrl+C.

Пример:
  commenter run --session main`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLoop(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Session, "session", "s", "", "имя сессии (каталог в sessions_dir)")
	return cmd
}

func runLoop(parent context.Context, opts *RunOptions, in io.Reader, out io.Writer) error {
	a, err := newApp(opts.RootOptions)
	if err != nil {
		return err
	}
	defer a.closeLog()

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	name := opts.Session
	if name == "" {
		names, err := storage.ListIdentities(a.cfg.SessionsDir)
		if err != nil {
			return a.fatal("не удалось прочитать список сессий", err)
		}
		if name, err = selectSession(in, out, names); err != nil {
			return a.fatal("сессия не выбрана", err)
		}
	}

	store := a.identity(name)
	if _, err := store.Load(); err != nil {
		return a.fatal("не удалось загрузить конфигурацию сессии", err)
	}
	lock, err := storage.LockSession(store.Dir)
	if err != nil {
		return a.fatal("сессия занята", err)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			a.log.Warn("[SESSION] не удалось снять блокировку", zap.Error(err))
		}
	}()

	mgr, policy, client := a.sessionManager(store)
	if err := mgr.Start(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return a.fatal("не удалось войти в аккаунт", err)
	}
	username := mgr.Username()
	log := a.log.With(zap.String("session", name), zap.String("username", username))
	log.Info("[SESSION] вход выполнен")

	queue, err := storage.OpenFollowingsQueue(storage.FollowingsPath(a.cfg.LogsDir, username))
	if err != nil {
		return a.fatal("не удалось открыть очередь подписок", err)
	}
	commented, err := storage.OpenCommentedLog(a.cfg.CommentedLog)
	if err != nil {
		return a.fatal("не удалось открыть журнал комментариев", err)
	}

	if a.cfg.StatusAddr != "" {
		gin.SetMode(gin.ReleaseMode)
		src := status.Source{Session: name, Identity: store, LogsDir: a.cfg.LogsDir, CommentedPath: a.cfg.CommentedLog}
		router := status.NewRouter(src, a.cfg.StatusToken, log)
		go func() {
			if err := status.Serve(ctx, a.cfg.StatusAddr, router, log); err != nil {
				log.Error("[STATUS] статус-API остановлен с ошибкой", zap.Error(err))
			}
		}()
	}

	handler := &comments.Handler{
		Client:    client,
		Policy:    policy,
		Queue:     queue,
		Commented: commented,
		Filter: comments.Filter{
			AllowedTypes:     a.cfg.MediaTypes(),
			MinCaptionLength: a.cfg.MinCaptionLength,
		},
		Pipeline: &comments.Pipeline{AI: ai.New(a.cfg.AI()), Ledger: store, Log: log},
		Notifier: a.notifier,
		Log:      log,
		Config: comments.Config{
			PostsPerAccount:      a.cfg.PostsPerAccount,
			PostCutoff:           a.cfg.PostCutoff(),
			DelayBetweenUsers:    a.cfg.DelayBetweenUsers(),
			DelayBetweenComments: a.cfg.DelayBetweenComments(),
			RateLimitSleep:       a.cfg.RateLimitSleep(),
		},
	}

	err = handler.Run(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("[COMMENTS] остановлено оператором")
		fmt.Fprintln(out, "Остановлено.")
		return nil
	}
	return err
}
