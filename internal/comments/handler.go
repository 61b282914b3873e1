package comments

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/internal/common"
	"github.com/limmweb/instagram-ai-commentator/internal/retry"
	"github.com/limmweb/instagram-ai-commentator/models"
	"github.com/limmweb/instagram-ai-commentator/pkg/instagram"
	"github.com/limmweb/instagram-ai-commentator/pkg/notify"
	"github.com/limmweb/instagram-ai-commentator/pkg/storage"
)

// emptyQueueWait — пауза, если подписок пока нет.
const emptyQueueWait = 10 * time.Minute

// Config — параметры цикла комментирования.
type Config struct {
	PostsPerAccount      int
	PostCutoff           time.Duration
	DelayBetweenUsers    [2]time.Duration
	DelayBetweenComments [2]time.Duration
	RateLimitSleep       time.Duration
}

// Outcome — итог обработки одного аккаунта.
type Outcome struct {
	Account   string
	Fetched   int
	Eligible  int
	Commented int
}

// Handler обходит подписки по кругу и комментирует свежие посты.
type Handler struct {
	Client    instagram.Client
	Policy    *retry.Policy
	Queue     *storage.FollowingsQueue
	Commented *storage.CommentedLog
	Filter    Filter
	Pipeline  *Pipeline
	Notifier  notify.Notifier
	Log       *zap.Logger
	Config    Config

	Now   func() time.Time
	Sleep common.SleepFunc
}

// Run работает до отмены контекста. В начале каждого круга список подписок обновляется.
func (h *Handler) Run(ctx context.Context) error {
	for {
		if err := h.RunCycle(ctx); err != nil {
			return err
		}
	}
}

// RunCycle обновляет очередь и обрабатывает каждый аккаунт ровно один раз.
// Возвращает ошибку только при отмене контекста.
func (h *Handler) RunCycle(ctx context.Context) error {
	if err := h.Prepare(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		h.fail(ctx, fmt.Sprintf("[COMMENTS] не удалось обновить список подписок: %v", err), err)
	}

	n := h.Queue.Len()
	if n == 0 {
		h.logger().Warn("[COMMENTS] очередь подписок пуста, ждём", zap.Duration("wait", emptyQueueWait))
		return h.sleep(ctx, emptyQueueWait)
	}
	h.logger().Info("[COMMENTS] начинаем круг", zap.Int("accounts", n))

	for i := 0; i < n; i++ {
		handle, ok := h.Queue.Head()
		if !ok {
			break
		}
		if err := h.step(ctx, handle); err != nil {
			return err
		}
	}
	return nil
}

// Prepare получает список подписок и вливает его в очередь.
func (h *Handler) Prepare(ctx context.Context) error {
	var follows []string
	err := h.Policy.Do(ctx, "user_following", retry.ModeFetch, func(ctx context.Context) error {
		var err error
		follows, err = h.Client.UserFollowing(ctx, h.Client.UserID())
		return err
	})
	if err != nil {
		return errors.Wrap(err, "fetch following")
	}
	added, err := h.Queue.Merge(follows)
	if err != nil {
		return err
	}
	h.logger().Info("[QUEUE] список подписок обновлён",
		zap.Int("following", len(follows)), zap.Int("added", added), zap.Int("queue", h.Queue.Len()))
	return nil
}

// step обрабатывает аккаунт и при любом исходе переносит его в конец очереди.
func (h *Handler) step(ctx context.Context, handle string) error {
	log := h.logger().With(zap.String("account", handle))
	out, err := h.ProcessAccount(ctx, handle)
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if err != nil {
		h.fail(ctx, fmt.Sprintf("[COMMENTS] ошибка обработки %s: %v", handle, err), err)
		// Policy.Do ждёт лимиты сам; класс RateLimited приходит сюда только из Recover.
		if instagram.IsKind(err, instagram.KindRateLimited) {
			log.Warn("[COMMENTS] лимит запросов, длинная пауза", zap.Duration("sleep", h.Config.RateLimitSleep))
			if err := h.sleep(ctx, h.Config.RateLimitSleep); err != nil {
				return err
			}
		}
	} else {
		log.Info("[COMMENTS] аккаунт обработан",
			zap.Int("fetched", out.Fetched), zap.Int("eligible", out.Eligible), zap.Int("commented", out.Commented))
	}

	if err := h.Queue.MoveToTail(handle); err != nil {
		h.fail(ctx, fmt.Sprintf("[QUEUE] не удалось сохранить очередь после %s: %v", handle, err), err)
	} else {
		log.Debug("[QUEUE] аккаунт перенесён в конец очереди")
	}

	_, err = common.WaitWithCancellation(ctx, h.Sleep, h.Config.DelayBetweenUsers)
	return err
}

// ProcessAccount загружает последние посты аккаунта и комментирует подходящие.
func (h *Handler) ProcessAccount(ctx context.Context, handle string) (Outcome, error) {
	out := Outcome{Account: handle}
	log := h.logger().With(zap.String("account", handle))

	var posts []models.Post
	err := h.Policy.Do(ctx, "user_medias", retry.ModeFetch, func(ctx context.Context) error {
		userID, err := h.Client.UserIDFromUsername(ctx, handle)
		if err != nil {
			return err
		}
		posts, err = h.Client.UserMedias(ctx, userID, h.Config.PostsPerAccount)
		return err
	})
	if err != nil {
		return out, errors.Wrap(err, "fetch posts")
	}
	out.Fetched = len(posts)
	log.Info("[COMMENTS] получены посты", zap.Int("posts", len(posts)))

	for _, post := range posts {
		if !Fresh(post, h.now(), h.Config.PostCutoff) {
			log.Debug("[COMMENTS] пост старше порога, пропускаем", zap.String("post", post.ID))
			continue
		}
		if !h.Filter.Eligible(post) {
			log.Debug("[COMMENTS] пост не подходит по типу или длине подписи", zap.String("post", post.ID))
			continue
		}
		out.Eligible++
		if h.Commented.Contains(post.ID) {
			log.Debug("[COMMENTS] пост уже комментировали", zap.String("post", post.ID))
			continue
		}

		ok, err := h.commentPost(ctx, handle, post)
		if err != nil {
			return out, err
		}
		if !ok {
			continue
		}
		out.Commented++
		delay, err := common.WaitWithCancellation(ctx, h.Sleep, h.Config.DelayBetweenComments)
		if err != nil {
			return out, err
		}
		log.Debug("[COMMENTS] пауза между комментариями", zap.Duration("delay", delay))
	}
	return out, nil
}

// commentPost генерирует и публикует комментарий. ID поста пишется в журнал
// до публикации: лучше пропустить пост, чем прокомментировать его дважды.
func (h *Handler) commentPost(ctx context.Context, handle string, post models.Post) (bool, error) {
	log := h.logger().With(zap.String("account", handle), zap.String("post", post.ID))

	gen, err := h.Pipeline.Generate(ctx, post)
	if errors.Is(err, ErrContentRejected) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if gen.Comment == "" {
		log.Info("[COMMENTS] комментарий не получен, пропускаем пост")
		return false, nil
	}

	if err := h.Commented.Append(post.ID); err != nil {
		return false, err
	}

	err = h.Policy.Do(ctx, "media_comment", retry.ModeWrite, func(ctx context.Context) error {
		return h.Client.MediaComment(ctx, post.ID, gen.Comment)
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, storage.ErrPersistence) {
			return false, err
		}
		h.fail(ctx, fmt.Sprintf("[COMMENTS] не удалось опубликовать комментарий к %s: %v", post.URL(), err), err)
		return false, nil
	}
	err = h.Policy.Do(ctx, "media_like", retry.ModeWrite, func(ctx context.Context) error {
		return h.Client.MediaLike(ctx, post.ID)
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, storage.ErrPersistence) {
			return false, err
		}
		log.Warn("[COMMENTS] не удалось поставить лайк", zap.Error(err))
	}

	log.Info("[COMMENTS] комментарий опубликован", zap.String("url", post.URL()))
	notify.Send(ctx, h.Notifier, h.logger(), report(handle, post, gen))
	return true, nil
}

// report — полное уведомление об опубликованном комментарии.
func report(handle string, post models.Post, gen Generation) string {
	return fmt.Sprintf("Комментирование подписок\n\n"+
		"User: %s\n\n"+
		"Post: %s\n\n"+
		"Caption: %s\n\n"+
		"Image desc: %s\n\n"+
		"-----------------------------------------\n\n"+
		"Comment: %s\n\n"+
		"Tokens used: %d, cost=%.8f\n",
		handle, post.URL(), post.CaptionText, gen.Description, gen.Comment, gen.Usage.Total(), gen.Usage.Cost)
}

func (h *Handler) fail(ctx context.Context, msg string, err error) {
	h.logger().Error(msg, zap.Error(err))
	notify.Send(ctx, h.Notifier, h.logger(), msg)
}

func (h *Handler) sleep(ctx context.Context, d time.Duration) error {
	if h.Sleep == nil {
		return common.Sleep(ctx, d)
	}
	return h.Sleep(ctx, d)
}

func (h *Handler) now() time.Time {
	if h.Now == nil {
		return time.Now()
	}
	return h.Now()
}

func (h *Handler) logger() *zap.Logger {
	if h.Log == nil {
		return zap.NewNop()
	}
	return h.Log
}
