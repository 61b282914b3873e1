package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-faster/errors"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/internal/common"
	"github.com/limmweb/instagram-ai-commentator/internal/operator"
	"github.com/limmweb/instagram-ai-commentator/pkg/instagram"
	"github.com/limmweb/instagram-ai-commentator/pkg/notify"
)

// DefaultCooldown — пауза после сигнала «подождите несколько минут».
const DefaultCooldown = 3 * time.Minute

// Mode определяет, что делать с неклассифицированной ошибкой.
type Mode int

const (
	// ModeLogin — вход: неизвестная ошибка пережидается по нарастающим паузам.
	ModeLogin Mode = iota
	// ModeFetch — чтение данных: неизвестная ошибка ведёт к пересозданию сессии и повтору.
	ModeFetch
	// ModeWrite — комментарий или лайк: после неизвестной ошибки сессия пересоздаётся,
	// но вызов не повторяется, чтобы не оставить комментарий дважды.
	ModeWrite
)

func (m Mode) String() string {
	switch m {
	case ModeLogin:
		return "login"
	case ModeFetch:
		return "fetch"
	case ModeWrite:
		return "write"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Policy повторяет вызовы платформы до успеха или отмены контекста.
// Ограничения на число попыток нет.
type Policy struct {
	Intervals []time.Duration
	Cooldown  time.Duration
	Operator  operator.Operator
	Notifier  notify.Notifier
	Log       *zap.Logger
	Sleep     common.SleepFunc

	// Recover пересоздаёт сессию; задаётся после создания менеджера сессии.
	Recover func(ctx context.Context) error
}

// Do выполняет fn, применяя стратегию ожидания по классу ошибки.
func (p *Policy) Do(ctx context.Context, name string, mode Mode, fn func(ctx context.Context) error) error {
	sched := backoff.WithContext(NewSchedule(p.Intervals), ctx)
	log := p.logger().With(zap.String("call", name), zap.Stringer("mode", mode))

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				log.Info("[RETRY] вызов выполнен после повторов", zap.Int("attempt", attempt))
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		kind := instagram.KindOf(err)
		log.Warn("[RETRY] ошибка вызова", zap.Int("attempt", attempt), zap.Stringer("kind", kind), zap.Error(err))
		if attempt > 1 {
			notify.Send(ctx, p.Notifier, log, fmt.Sprintf("[RETRY] %s: %s (попытка %d): %v", name, kind, attempt, err))
		}

		switch kind {
		case instagram.KindRateLimited:
			if err := p.wait(ctx, log, sched.NextBackOff(), "лимит запросов"); err != nil {
				return err
			}
		case instagram.KindShortCooldown:
			if err := p.wait(ctx, log, p.cooldown(), "просьба подождать"); err != nil {
				return err
			}
		case instagram.KindChallengeRequired, instagram.KindTwoFactorRequired:
			if err := p.awaitOperator(ctx, fmt.Sprintf("%s: %s", name, kind)); err != nil {
				return err
			}
		default:
			if mode == ModeLogin || p.Recover == nil {
				if err := p.wait(ctx, log, sched.NextBackOff(), "неизвестная ошибка"); err != nil {
					return err
				}
				continue
			}
			log.Error("[RETRY] неизвестная ошибка, пересоздаём сессию", zap.Error(err))
			if recErr := p.Recover(ctx); recErr != nil {
				return errors.Wrapf(recErr, "%s: recover session", name)
			}
			if mode == ModeWrite {
				return errors.Wrapf(err, "%s", name)
			}
		}
	}
}

func (p *Policy) wait(ctx context.Context, log *zap.Logger, d time.Duration, reason string) error {
	if d == backoff.Stop {
		return ctx.Err()
	}
	log.Info("[RETRY] пауза перед повтором", zap.String("reason", reason), zap.Duration("sleep", d))
	sleep := p.Sleep
	if sleep == nil {
		sleep = common.Sleep
	}
	return sleep(ctx, d)
}

func (p *Policy) awaitOperator(ctx context.Context, reason string) error {
	if p.Operator == nil {
		return errors.Errorf("operator required: %s", reason)
	}
	return p.Operator.AwaitResume(ctx, reason)
}

func (p *Policy) cooldown() time.Duration {
	if p.Cooldown > 0 {
		return p.Cooldown
	}
	return DefaultCooldown
}

func (p *Policy) logger() *zap.Logger {
	if p.Log == nil {
		return zap.NewNop()
	}
	return p.Log
}
