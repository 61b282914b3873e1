package operator

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/pkg/notify"
)

// Operator — точка ручного вмешательства: 2FA, challenge, неудачный logout.
// AwaitResume блокируется, пока оператор не разрешит продолжить или не отменён контекст.
type Operator interface {
	AwaitResume(ctx context.Context, reason string) error
}

// Console просит оператора нажать Enter в терминале.
type Console struct {
	lines    chan struct{}
	out      io.Writer
	notifier notify.Notifier
	log      *zap.Logger
}

// NewConsole запускает чтение строк из in. Ожидание снимает только строка,
// введённая после приглашения.
func NewConsole(in io.Reader, out io.Writer, n notify.Notifier, log *zap.Logger) *Console {
	c := &Console{lines: make(chan struct{}), out: out, notifier: n, log: log}
	go func() {
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			c.lines <- struct{}{}
		}
		close(c.lines)
	}()
	return c
}

func (c *Console) AwaitResume(ctx context.Context, reason string) error {
	c.drain()
	c.log.Warn("[OPERATOR] требуется вмешательство оператора", zap.String("reason", reason))
	notify.Send(ctx, c.notifier, c.log, reason+"\nНажмите Enter в консоли, чтобы продолжить.")
	fmt.Fprintf(c.out, "[WARNING] %s\nНажмите Enter, чтобы продолжить (или Ctrl+C для выхода)...\n", reason)

	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-c.lines:
		if !ok {
			return io.EOF
		}
		return nil
	}
}

// drain отбрасывает строки, введённые до показа приглашения.
func (c *Console) drain() {
	for {
		select {
		case _, ok := <-c.lines:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
