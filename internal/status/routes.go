package status

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/internal/middleware"
)

func SetupRoutes(r *gin.RouterGroup, src Source, log *zap.Logger) {
	handler := NewHandler(src, log)
	r.GET("/health", handler.Health)
	r.GET("/status", handler.Status)

	handler.Log.Info("[ROUTER] маршруты статуса зарегистрированы")
}

// NewRouter собирает gin-движок статус-API.
func NewRouter(src Source, token string, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	SetupRoutes(r.Group("/", middleware.AuthRequired(token)), src, log)
	return r
}

// Serve запускает статус-API и останавливает его при отмене контекста.
func Serve(ctx context.Context, addr string, r http.Handler, log *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info("[STATUS] статус-API запущен", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "status server")
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
