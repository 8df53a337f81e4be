package sweeper_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mind-engage/mindengage-quiz/internal/grading"
	"github.com/mind-engage/mindengage-quiz/internal/quiz"
	"github.com/mind-engage/mindengage-quiz/internal/scoring"
	"github.com/mind-engage/mindengage-quiz/internal/sweeper"
)

func TestRunOnce_CompletesExpiredAttempts(t *testing.T) {
	ctx := context.Background()
	store := quiz.NewInMemoryStore()
	svc := scoring.NewService(store, grading.NewGrader())

	expired, err := store.NewAttempt(ctx, "quiz-1", "u1", time.Nanosecond)
	if err != nil {
		t.Fatal(err)
	}
	open, err := store.NewAttempt(ctx, "quiz-1", "u2", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	untimed, err := store.NewAttempt(ctx, "quiz-1", "u3", 0)
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(2 * time.Millisecond)

	n, err := sweeper.New(store, svc, time.Minute).RunOnce(ctx)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if n != 1 {
		t.Fatalf("completed %d, want 1", n)
	}
	for id, want := range map[string]quiz.AttemptStatus{
		expired.ID: quiz.StatusCompleted,
		open.ID:    quiz.StatusInProgress,
		untimed.ID: quiz.StatusInProgress,
	} {
		a, _ := store.GetAttempt(ctx, id)
		if a.Status != want {
			t.Errorf("attempt %s status = %s, want %s", id, a.Status, want)
		}
	}

	// A second sweep finds nothing left to do.
	if n, err := sweeper.New(store, svc, time.Minute).RunOnce(ctx); err != nil || n != 0 {
		t.Fatalf("second run = %d, %v", n, err)
	}
}

type fakeLister struct{ ids []string }

func (f fakeLister) ListExpiredAttempts(context.Context, time.Time) ([]string, error) {
	return f.ids, nil
}

type flakyCompleter struct{ calls []string }

func (f *flakyCompleter) Complete(_ context.Context, id string) (quiz.Attempt, error) {
	f.calls = append(f.calls, id)
	if id == "bad" {
		return quiz.Attempt{}, errors.New("boom")
	}
	return quiz.Attempt{ID: id, Status: quiz.StatusCompleted}, nil
}

func TestRunOnce_ContinuesPastFailures(t *testing.T) {
	c := &flakyCompleter{}
	n, err := sweeper.New(fakeLister{ids: []string{"a", "bad", "b"}}, c, time.Minute).RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 2 || len(c.calls) != 3 {
		t.Fatalf("done=%d calls=%v", n, c.calls)
	}
}

func TestStart_RejectsNonPositiveInterval(t *testing.T) {
	s := sweeper.New(fakeLister{}, &flakyCompleter{}, 0)
	if err := s.Start(); err == nil {
		s.Stop()
		t.Fatal("expected error")
	}
}
