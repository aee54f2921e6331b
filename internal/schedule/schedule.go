package schedule

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Scheduler runs a job once a day at a fixed local time.
type Scheduler struct {
	hour   int
	minute int
	job    func(ctx context.Context)
}

// New creates a scheduler for the given HH:MM local time.
func New(sendTime string, job func(ctx context.Context)) (*Scheduler, error) {
	t, err := time.Parse("15:04", sendTime)
	if err != nil {
		return nil, fmt.Errorf("invalid send time %q (want HH:MM): %w", sendTime, err)
	}
	return &Scheduler{hour: t.Hour(), minute: t.Minute(), job: job}, nil
}

// NextRun returns the next scheduled instant strictly after now.
func (s *Scheduler) NextRun(now time.Time) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), s.hour, s.minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start blocks, running the job daily until the context is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	for {
		next := s.NextRun(time.Now())
		log.Printf("Next run scheduled for %s", next.Format("2006-01-02 15:04"))

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.job(ctx)
		}
	}
}
