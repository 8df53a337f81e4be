package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/mind-engage/mindengage-quiz/internal/quiz"
)

// ExpiredLister finds in-progress attempts whose deadline has passed.
type ExpiredLister interface {
	ListExpiredAttempts(ctx context.Context, now time.Time) ([]string, error)
}

// Completer closes an attempt and writes its score.
type Completer interface {
	Complete(ctx context.Context, attemptID string) (quiz.Attempt, error)
}

// Sweeper periodically completes timed attempts that ran out of time.
type Sweeper struct {
	scheduler *gocron.Scheduler
	lister    ExpiredLister
	completer Completer
	interval  time.Duration
	timeout   time.Duration
	now       func() time.Time
}

func New(lister ExpiredLister, completer Completer, interval time.Duration) *Sweeper {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Sweeper{
		scheduler: s,
		lister:    lister,
		completer: completer,
		interval:  interval,
		timeout:   30 * time.Second,
		now:       time.Now,
	}
}

// Start schedules the sweep and returns immediately.
func (s *Sweeper) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("sweeper: interval must be positive, got %s", s.interval)
	}
	if _, err := s.scheduler.Every(s.interval).Do(s.tick); err != nil {
		return fmt.Errorf("sweeper: schedule: %w", err)
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Sweeper) Stop() {
	s.scheduler.Stop()
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if n, err := s.RunOnce(ctx); err != nil {
		log.Printf("[sweeper] run failed after %d attempts: %v", n, err)
	} else if n > 0 {
		log.Printf("[sweeper] completed %d expired attempts", n)
	}
}

// RunOnce completes every expired attempt and reports how many it closed.
// A failure on one attempt does not stop the others; the first error is returned.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	ids, err := s.lister.ListExpiredAttempts(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("list expired attempts: %w", err)
	}
	var (
		done     int
		firstErr error
	)
	for _, id := range ids {
		if _, err := s.completer.Complete(ctx, id); err != nil {
			log.Printf("[sweeper] complete %s: %v", id, err)
			if firstErr == nil {
				firstErr = fmt.Errorf("complete %s: %w", id, err)
			}
			continue
		}
		done++
	}
	return done, firstErr
}
