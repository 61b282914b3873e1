package operator

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/limmweb/instagram-ai-commentator/pkg/notify"
)

// promptWriter сообщает о первом выводе приглашения.
type promptWriter struct {
	mu    sync.Mutex
	buf   bytes.Buffer
	shown chan struct{}
	once  sync.Once
}

func (w *promptWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	defer w.once.Do(func() { close(w.shown) })
	return w.buf.Write(p)
}

func (w *promptWriter) String() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.buf.String()
}

func TestConsole_ResumesOnLine(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	out := &promptWriter{shown: make(chan struct{})}
	c := NewConsole(pr, out, notify.Nop{}, zap.NewNop())

	done := make(chan error, 1)
	go func() { done <- c.AwaitResume(context.Background(), "2FA") }()

	<-out.shown
	assert.Contains(t, out.String(), "2FA")
	_, err := pw.Write([]byte("\n"))
	assert.NoError(t, err)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ожидание не снято вводом строки")
	}
}

func TestConsole_CancelledContext(t *testing.T) {
	c := NewConsole(strings.NewReader(""), io.Discard, notify.Nop{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := c.AwaitResume(ctx, "challenge")
	assert.Error(t, err)
}

func TestConsole_IgnoresLineBeforePrompt(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()
	c := NewConsole(pr, io.Discard, notify.Nop{}, zap.NewNop())

	_, err := pw.Write([]byte("\n"))
	assert.NoError(t, err)
	time.Sleep(100 * time.Millisecond)

	done := make(chan error, 1)
	go func() { done <- c.AwaitResume(context.Background(), "challenge") }()

	select {
	case <-done:
		t.Fatal("ожидание снято строкой, введённой до приглашения")
	case <-time.After(300 * time.Millisecond):
	}

	_, err = pw.Write([]byte("\n"))
	assert.NoError(t, err)
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("ожидание не снято вводом строки")
	}
}
