package status

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/internal/httputil"
	"github.com/limmweb/instagram-ai-commentator/models"
	"github.com/limmweb/instagram-ai-commentator/pkg/storage"
)

// Source — файлы, из которых собирается сводка. Цикл комментирования их пишет,
// статус-API только читает.
type Source struct {
	Session       string
	Identity      *storage.IdentityStore
	LogsDir       string
	CommentedPath string
}

// Collect читает запись конфигурации, очередь подписок и журнал комментариев.
func Collect(src Source) (models.Statistics, error) {
	id, err := src.Identity.Load()
	if err != nil {
		return models.Statistics{}, errors.Wrap(err, "load identity")
	}
	stat := models.Statistics{
		Session:  src.Session,
		Username: id.Instagram.Username,
		Usage:    id.OpenAI,
	}
	if stat.Username == "" {
		stat.Username = id.Instagram.Login
	}

	queue, err := storage.ReadQueueFile(storage.FollowingsPath(src.LogsDir, stat.Username))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return models.Statistics{}, errors.Wrap(err, "read queue")
	}
	stat.QueueLength = len(queue)
	if len(queue) > 0 {
		stat.QueueHead = queue[0]
	}

	if stat.CommentedPosts, err = storage.CountLines(src.CommentedPath); err != nil {
		return models.Statistics{}, errors.Wrap(err, "read commented log")
	}
	return stat, nil
}

// Handler обслуживает запросы статуса.
type Handler struct {
	Source Source
	Log    *zap.Logger
}

// NewHandler создаёт обработчик статуса.
func NewHandler(src Source, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{Source: src, Log: log}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Status возвращает сводку по текущей сессии.
func (h *Handler) Status(c *gin.Context) {
	stat, err := Collect(h.Source)
	if err != nil {
		h.Log.Error("[STATUS] не удалось собрать сводку", zap.Error(err))
		httputil.RespondError(c, http.StatusInternalServerError, "не удалось собрать сводку")
		return
	}
	c.JSON(http.StatusOK, stat)
}
