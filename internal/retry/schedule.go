package retry

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

// DefaultIntervals — нарастающие паузы при лимите запросов.
var DefaultIntervals = []time.Duration{
	5 * time.Minute,
	10 * time.Minute,
	20 * time.Minute,
	60 * time.Minute,
	120 * time.Minute,
	300 * time.Minute,
}

// Schedule выдаёт паузы из фиксированной последовательности по очереди.
// После последней паузы повторяет её; Reset начинает последовательность сначала.
type Schedule struct {
	intervals []time.Duration
	next      int
}

var _ backoff.BackOff = (*Schedule)(nil)

// NewSchedule создаёт последовательность пауз.
func NewSchedule(intervals []time.Duration) *Schedule {
	if len(intervals) == 0 {
		intervals = DefaultIntervals
	}
	return &Schedule{intervals: intervals}
}

func (s *Schedule) NextBackOff() time.Duration {
	i := s.next
	if i >= len(s.intervals) {
		i = len(s.intervals) - 1
	} else {
		s.next++
	}
	return s.intervals[i]
}

func (s *Schedule) Reset() { s.next = 0 }
