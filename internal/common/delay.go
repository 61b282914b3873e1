package common

import (
	"context"
	"math/rand"
	"time"
)

// sleepStep — шаг ожидания, после которого проверяется отмена контекста.
const sleepStep = 5 * time.Second

// SleepFunc — ожидание с учётом отмены. Подменяется в тестах.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep ждёт d, проверяя контекст каждые пять секунд, чтобы долгие паузы
// (три часа после лимита) можно было прервать по Ctrl+C.
func Sleep(ctx context.Context, d time.Duration) error {
	for remaining := d; remaining > 0; {
		step := sleepStep
		if remaining < step {
			step = remaining
		}
		timer := time.NewTimer(step)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		remaining -= step
	}
	return ctx.Err()
}

// RandomDuration возвращает случайную длительность в диапазоне [min, max].
func RandomDuration(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int63n(int64(max-min)+1))
}

// WaitWithCancellation выполняет ожидание в случайном диапазоне с помощью sleep.
// Возвращает выбранную задержку, чтобы её можно было записать в журнал.
func WaitWithCancellation(ctx context.Context, sleep SleepFunc, delayRange [2]time.Duration) (time.Duration, error) {
	if sleep == nil {
		sleep = Sleep
	}
	delay := RandomDuration(delayRange[0], delayRange[1])
	return delay, sleep(ctx, delay)
}
