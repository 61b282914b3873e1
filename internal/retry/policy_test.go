package retry

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/limmweb/instagram-ai-commentator/pkg/instagram"
)

type recorder struct {
	mu       sync.Mutex
	sleeps   []time.Duration
	notes    []string
	resumes  []string
	recovers int
}

func (r *recorder) sleep(_ context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sleeps = append(r.sleeps, d)
	return nil
}

func (r *recorder) Notify(_ context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, text)
	return nil
}

func (r *recorder) AwaitResume(_ context.Context, reason string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumes = append(r.resumes, reason)
	return nil
}

func newPolicy(r *recorder) *Policy {
	return &Policy{
		Operator: r,
		Notifier: r,
		Sleep:    r.sleep,
		Recover: func(context.Context) error {
			r.recovers++
			return nil
		},
	}
}

// failing возвращает функцию, которая отдаёт ошибки по порядку, а затем успех.
func failing(errs ...error) (func(context.Context) error, *int) {
	calls := 0
	return func(context.Context) error {
		calls++
		if calls <= len(errs) {
			return errs[calls-1]
		}
		return nil
	}, &calls
}

func kindErr(k instagram.Kind) error {
	return &instagram.Error{Kind: k, Op: "test"}
}

func TestSchedule_EscalatesAndSticks(t *testing.T) {
	s := NewSchedule(nil)
	var got []time.Duration
	for i := 0; i < 8; i++ {
		got = append(got, s.NextBackOff())
	}
	want := append(append([]time.Duration{}, DefaultIntervals...), 300*time.Minute, 300*time.Minute)
	assert.Equal(t, want, got)

	s.Reset()
	assert.Equal(t, 5*time.Minute, s.NextBackOff())
}

func TestPolicy_RateLimitUsesEscalatingSchedule(t *testing.T) {
	r := &recorder{}
	p := newPolicy(r)
	rl := kindErr(instagram.KindRateLimited)
	fn, calls := failing(rl, rl, rl)

	require.NoError(t, p.Do(context.Background(), "user_medias", ModeFetch, fn))
	assert.Equal(t, 4, *calls)
	assert.Equal(t, []time.Duration{5 * time.Minute, 10 * time.Minute, 20 * time.Minute}, r.sleeps)
	// первая неудача без уведомления
	assert.Len(t, r.notes, 2)
}

func TestPolicy_ScheduleRestartsPerCall(t *testing.T) {
	r := &recorder{}
	p := newPolicy(r)
	rl := kindErr(instagram.KindRateLimited)

	fn, _ := failing(rl, rl)
	require.NoError(t, p.Do(context.Background(), "a", ModeFetch, fn))
	fn, _ = failing(rl)
	require.NoError(t, p.Do(context.Background(), "b", ModeFetch, fn))

	assert.Equal(t, []time.Duration{5 * time.Minute, 10 * time.Minute, 5 * time.Minute}, r.sleeps)
}

func TestPolicy_ShortCooldown(t *testing.T) {
	r := &recorder{}
	p := newPolicy(r)
	fn, calls := failing(kindErr(instagram.KindShortCooldown))

	require.NoError(t, p.Do(context.Background(), "media_comment", ModeWrite, fn))
	assert.Equal(t, 2, *calls)
	assert.Equal(t, []time.Duration{DefaultCooldown}, r.sleeps)
}

func TestPolicy_ChallengeWaitsForOperator(t *testing.T) {
	r := &recorder{}
	p := newPolicy(r)
	fn, calls := failing(kindErr(instagram.KindChallengeRequired), kindErr(instagram.KindTwoFactorRequired))

	require.NoError(t, p.Do(context.Background(), "login", ModeLogin, fn))
	assert.Equal(t, 3, *calls)
	assert.Len(t, r.resumes, 2)
	assert.Empty(t, r.sleeps)
}

func TestPolicy_UnclassifiedByMode(t *testing.T) {
	plain := errors.New("connection reset")

	t.Run("вход ждёт по расписанию", func(t *testing.T) {
		r := &recorder{}
		p := newPolicy(r)
		fn, calls := failing(plain, kindErr(instagram.KindAuthenticationFailed))
		require.NoError(t, p.Do(context.Background(), "login", ModeLogin, fn))
		assert.Equal(t, 3, *calls)
		assert.Equal(t, []time.Duration{5 * time.Minute, 10 * time.Minute}, r.sleeps)
		assert.Zero(t, r.recovers)
	})

	t.Run("чтение пересоздаёт сессию и повторяет", func(t *testing.T) {
		r := &recorder{}
		p := newPolicy(r)
		fn, calls := failing(plain)
		require.NoError(t, p.Do(context.Background(), "user_following", ModeFetch, fn))
		assert.Equal(t, 2, *calls)
		assert.Equal(t, 1, r.recovers)
	})

	t.Run("запись пересоздаёт сессию без повтора", func(t *testing.T) {
		r := &recorder{}
		p := newPolicy(r)
		fn, calls := failing(plain)
		err := p.Do(context.Background(), "media_comment", ModeWrite, fn)
		require.Error(t, err)
		assert.ErrorIs(t, err, plain)
		assert.Equal(t, 1, *calls)
		assert.Equal(t, 1, r.recovers)
	})
}

func TestPolicy_RecoverFailureIsReturned(t *testing.T) {
	r := &recorder{}
	p := newPolicy(r)
	boom := errors.New("disk full")
	p.Recover = func(context.Context) error { return boom }
	fn, _ := failing(errors.New("oops"))

	err := p.Do(context.Background(), "user_medias", ModeFetch, fn)
	assert.ErrorIs(t, err, boom)
}

func TestPolicy_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := &Policy{Sleep: func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}}
	fn, calls := failing(kindErr(instagram.KindRateLimited), kindErr(instagram.KindRateLimited))

	err := p.Do(ctx, "user_medias", ModeFetch, fn)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, *calls)
}
