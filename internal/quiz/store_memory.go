package quiz

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memoryStore struct {
	mu        sync.RWMutex
	questions map[string]Question
	attempts  map[string]Attempt
	responses map[string]Response
	byAnswer  map[answerKey]string // (attempt, question) -> response id
}

type answerKey struct{ attemptID, questionID string }

// NewInMemoryStore returns a Store kept in process memory. All writes are
// serialized by one mutex, which gives FinalizeAttempt its snapshot.
func NewInMemoryStore() Store {
	return &memoryStore{
		questions: map[string]Question{},
		attempts:  map[string]Attempt{},
		responses: map[string]Response{},
		byAnswer:  map[answerKey]string{},
	}
}

func (m *memoryStore) PutQuestion(_ context.Context, q Question) (Question, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	if prev, ok := m.questions[q.ID]; ok {
		q.Version = prev.Version + 1
		q.CreatedAt = prev.CreatedAt
	} else {
		q.Version = 1
		q.CreatedAt = now
	}
	q.UpdatedAt = now
	m.questions[q.ID] = q
	return q, nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, notFound("question", id)
	}
	return q, nil
}

func (m *memoryStore) NewAttempt(_ context.Context, quizID, userID string, timeLimit time.Duration) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	a := Attempt{ID: uuid.NewString(), QuizID: quizID, UserID: userID, Status: StatusInProgress, StartedAt: now}
	if timeLimit > 0 {
		exp := now.Add(timeLimit)
		a.ExpiresAt = &exp
	}
	m.attempts[a.ID] = a
	return a, nil
}

func (m *memoryStore) GetAttempt(_ context.Context, id string) (Attempt, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	a, ok := m.attempts[id]
	if !ok {
		return Attempt{}, notFound("attempt", id)
	}
	return a, nil
}

func (m *memoryStore) ListExpiredAttempts(_ context.Context, now time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var ids []string
	for _, a := range m.attempts {
		if a.Expired(now) {
			ids = append(ids, a.ID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *memoryStore) InsertResponse(_ context.Context, r Response, policy ResubmitPolicy) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[r.AttemptID]
	if !ok {
		return Response{}, notFound("attempt", r.AttemptID)
	}
	if a.Status != StatusInProgress || a.Expired(r.SubmittedAt) {
		return Response{}, ErrAttemptClosed
	}
	if _, ok := m.questions[r.QuestionID]; !ok {
		return Response{}, notFound("question", r.QuestionID)
	}
	k := answerKey{r.AttemptID, r.QuestionID}
	if id, dup := m.byAnswer[k]; dup {
		if policy != ResubmitReplace {
			return Response{}, ErrAlreadyAnswered
		}
		r.ID = id
	}
	m.responses[r.ID] = r
	m.byAnswer[k] = r.ID
	return r, nil
}

func (m *memoryStore) GetResponse(_ context.Context, id string) (Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.responses[id]
	if !ok {
		return Response{}, notFound("response", id)
	}
	return r, nil
}

func (m *memoryStore) ListResponses(_ context.Context, attemptID string) ([]Response, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.attempts[attemptID]; !ok {
		return nil, notFound("attempt", attemptID)
	}
	return m.responsesFor(attemptID), nil
}

// responsesFor expects m.mu to be held.
func (m *memoryStore) responsesFor(attemptID string) []Response {
	out := []Response{}
	for _, r := range m.responses {
		if r.AttemptID == attemptID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (m *memoryStore) UpdateResponseGrade(_ context.Context, id string, g GradeUpdate) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.responses[id]
	if !ok {
		return Response{}, notFound("response", id)
	}
	gradedAt := g.GradedAt
	r.PointsEarned = g.PointsEarned
	r.PointsPossible = g.PointsPossible
	r.Correct = g.Correct
	r.GradingDetails = g.GradingDetails
	r.GradedAt = &gradedAt
	r.ScorePercentage = g.ScorePercentage
	m.responses[id] = r
	return r, nil
}

func (m *memoryStore) FinalizeAttempt(_ context.Context, attemptID string, at time.Time, fn FinalizeFunc) (Attempt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.attempts[attemptID]
	if !ok {
		return Attempt{}, notFound("attempt", attemptID)
	}
	if a.Status == StatusCompleted {
		return a, nil
	}
	score := fn(a, m.responsesFor(attemptID))
	a.Status = StatusCompleted
	a.CompletedAt = &at
	a.TotalScore = score.Total
	a.MaxPossibleScore = score.Max
	a.ScorePercentage = score.Percentage
	m.attempts[attemptID] = a
	return a, nil
}
