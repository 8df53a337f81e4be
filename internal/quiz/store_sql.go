package quiz

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/mind-engage/mindengage-quiz/internal/db"
)

type SQLStore struct {
	dbx    *sqlx.DB
	driver db.Driver
}

func NewSQLStore(dbx *sqlx.DB, driver db.Driver) *SQLStore {
	return &SQLStore{dbx: dbx, driver: driver}
}

type questionRow struct {
	ID        string          `db:"id"`
	QuizID    string          `db:"quiz_id"`
	Type      string          `db:"question_type"`
	Prompt    string          `db:"prompt"`
	Points    decimal.Decimal `db:"points"`
	Content   string          `db:"content"`
	Version   int             `db:"version"`
	CreatedAt int64           `db:"created_at"`
	UpdatedAt int64           `db:"updated_at"`
}

func (r questionRow) question() Question {
	return Question{
		ID:        r.ID,
		QuizID:    r.QuizID,
		Type:      Type(r.Type),
		Prompt:    r.Prompt,
		Points:    r.Points,
		Content:   json.RawMessage(r.Content),
		Version:   r.Version,
		CreatedAt: fromMS(r.CreatedAt),
		UpdatedAt: fromMS(r.UpdatedAt),
	}
}

type attemptRow struct {
	ID               string              `db:"id"`
	QuizID           string              `db:"quiz_id"`
	UserID           string              `db:"user_id"`
	Status           string              `db:"status"`
	StartedAt        int64               `db:"started_at"`
	CompletedAt      sql.NullInt64       `db:"completed_at"`
	ExpiresAt        sql.NullInt64       `db:"expires_at"`
	TotalScore       decimal.Decimal     `db:"total_score"`
	MaxPossibleScore decimal.Decimal     `db:"max_possible_score"`
	ScorePercentage  decimal.NullDecimal `db:"score_percentage"`
}

func (r attemptRow) attempt() Attempt {
	return Attempt{
		ID:               r.ID,
		QuizID:           r.QuizID,
		UserID:           r.UserID,
		Status:           AttemptStatus(r.Status),
		StartedAt:        fromMS(r.StartedAt),
		CompletedAt:      nullTime(r.CompletedAt),
		ExpiresAt:        nullTime(r.ExpiresAt),
		TotalScore:       r.TotalScore,
		MaxPossibleScore: r.MaxPossibleScore,
		ScorePercentage:  decPtr(r.ScorePercentage),
	}
}

type responseRow struct {
	ID              string              `db:"id"`
	AttemptID       string              `db:"attempt_id"`
	QuestionID      string              `db:"question_id"`
	Answer          string              `db:"answer_payload"`
	SubmittedAt     int64               `db:"submitted_at"`
	PointsPossible  decimal.Decimal     `db:"points_possible"`
	PointsEarned    decimal.Decimal     `db:"points_earned"`
	Correct         sql.NullBool        `db:"is_correct"`
	GradingDetails  sql.NullString      `db:"grading_details"`
	GradedAt        sql.NullInt64       `db:"graded_at"`
	ScorePercentage decimal.NullDecimal `db:"score_percentage"`
}

func (r responseRow) response() Response {
	out := Response{
		ID:              r.ID,
		AttemptID:       r.AttemptID,
		QuestionID:      r.QuestionID,
		Answer:          json.RawMessage(r.Answer),
		SubmittedAt:     fromMS(r.SubmittedAt),
		PointsPossible:  r.PointsPossible,
		PointsEarned:    r.PointsEarned,
		GradedAt:        nullTime(r.GradedAt),
		ScorePercentage: decPtr(r.ScorePercentage),
	}
	if r.Correct.Valid {
		c := r.Correct.Bool
		out.Correct = &c
	}
	if r.GradingDetails.Valid {
		out.GradingDetails = json.RawMessage(r.GradingDetails.String)
	}
	return out
}

const (
	questionCols = `id, quiz_id, question_type, prompt, points, content, version, created_at, updated_at`
	attemptCols  = `id, quiz_id, user_id, status, started_at, completed_at, expires_at, total_score, max_possible_score, score_percentage`
	responseCols = `id, attempt_id, question_id, answer_payload, submitted_at, points_possible, points_earned, is_correct, grading_details, graded_at, score_percentage`
)

func (s *SQLStore) PutQuestion(ctx context.Context, q Question) (Question, error) {
	now := time.Now().UTC().UnixMilli()
	_, err := s.dbx.ExecContext(ctx, s.dbx.Rebind(`INSERT INTO questions (`+questionCols+`)
		VALUES (?,?,?,?,?,?,1,?,?)
		ON CONFLICT (id) DO UPDATE SET quiz_id=excluded.quiz_id, question_type=excluded.question_type,
		  prompt=excluded.prompt, points=excluded.points, content=excluded.content,
		  version=questions.version+1, updated_at=excluded.updated_at`),
		q.ID, q.QuizID, string(q.Type), q.Prompt, q.Points, string(q.Content), now, now)
	if err != nil {
		return Question{}, fmt.Errorf("put question %q: %w", q.ID, err)
	}
	return s.GetQuestion(ctx, q.ID)
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	var row questionRow
	err := s.dbx.GetContext(ctx, &row, s.dbx.Rebind(`SELECT `+questionCols+` FROM questions WHERE id=?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, notFound("question", id)
		}
		return Question{}, fmt.Errorf("get question %q: %w", id, err)
	}
	return row.question(), nil
}

func (s *SQLStore) NewAttempt(ctx context.Context, quizID, userID string, timeLimit time.Duration) (Attempt, error) {
	now := time.Now().UTC()
	var expires sql.NullInt64
	if timeLimit > 0 {
		expires = sql.NullInt64{Int64: now.Add(timeLimit).UnixMilli(), Valid: true}
	}
	id := uuid.NewString()
	_, err := s.dbx.ExecContext(ctx, s.dbx.Rebind(`INSERT INTO attempts (id, quiz_id, user_id, status, started_at, expires_at)
		VALUES (?,?,?,?,?,?)`), id, quizID, userID, string(StatusInProgress), now.UnixMilli(), expires)
	if err != nil {
		return Attempt{}, fmt.Errorf("new attempt: %w", err)
	}
	return s.GetAttempt(ctx, id)
}

func (s *SQLStore) GetAttempt(ctx context.Context, id string) (Attempt, error) {
	return s.getAttempt(ctx, s.dbx, id, "")
}

func (s *SQLStore) getAttempt(ctx context.Context, q sqlx.QueryerContext, id, lock string) (Attempt, error) {
	var row attemptRow
	err := sqlx.GetContext(ctx, q, &row, s.dbx.Rebind(`SELECT `+attemptCols+` FROM attempts WHERE id=?`+lock), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Attempt{}, notFound("attempt", id)
		}
		return Attempt{}, fmt.Errorf("get attempt %q: %w", id, err)
	}
	return row.attempt(), nil
}

func (s *SQLStore) ListExpiredAttempts(ctx context.Context, now time.Time) ([]string, error) {
	var ids []string
	err := s.dbx.SelectContext(ctx, &ids, s.dbx.Rebind(`SELECT id FROM attempts
		WHERE status=? AND expires_at IS NOT NULL AND expires_at <= ? ORDER BY id`),
		string(StatusInProgress), now.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("list expired attempts: %w", err)
	}
	return ids, nil
}

func (s *SQLStore) InsertResponse(ctx context.Context, r Response, policy ResubmitPolicy) (Response, error) {
	var out Response
	err := db.WithTx(ctx, s.dbx, func(tx *sqlx.Tx) error {
		// share lock: a concurrent FinalizeAttempt must wait for this insert
		a, err := s.getAttempt(ctx, tx, r.AttemptID, s.lock(" FOR SHARE"))
		if err != nil {
			return err
		}
		if a.Status != StatusInProgress || a.Expired(r.SubmittedAt) {
			return ErrAttemptClosed
		}

		stmt := `INSERT INTO responses (` + responseCols + `) VALUES (?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT (attempt_id, question_id) DO NOTHING`
		if policy == ResubmitReplace {
			stmt = `INSERT INTO responses (` + responseCols + `) VALUES (?,?,?,?,?,?,?,?,?,?,?)
			ON CONFLICT (attempt_id, question_id) DO UPDATE SET answer_payload=excluded.answer_payload,
			  submitted_at=excluded.submitted_at, points_possible=excluded.points_possible,
			  points_earned=excluded.points_earned, is_correct=excluded.is_correct,
			  grading_details=excluded.grading_details, graded_at=excluded.graded_at,
			  score_percentage=excluded.score_percentage`
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(stmt),
			r.ID, r.AttemptID, r.QuestionID, string(r.Answer), r.SubmittedAt.UnixMilli(),
			r.PointsPossible, r.PointsEarned, nullBool(r.Correct), nullJSON(r.GradingDetails),
			nullMS(r.GradedAt), nullDec(r.ScorePercentage))
		if err != nil {
			return fmt.Errorf("insert response: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return ErrAlreadyAnswered
		}

		var row responseRow
		if err := tx.GetContext(ctx, &row, tx.Rebind(`SELECT `+responseCols+` FROM responses
			WHERE attempt_id=? AND question_id=?`), r.AttemptID, r.QuestionID); err != nil {
			return fmt.Errorf("read back response: %w", err)
		}
		out = row.response()
		return nil
	})
	return out, err
}

func (s *SQLStore) GetResponse(ctx context.Context, id string) (Response, error) {
	var row responseRow
	err := s.dbx.GetContext(ctx, &row, s.dbx.Rebind(`SELECT `+responseCols+` FROM responses WHERE id=?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Response{}, notFound("response", id)
		}
		return Response{}, fmt.Errorf("get response %q: %w", id, err)
	}
	return row.response(), nil
}

func (s *SQLStore) ListResponses(ctx context.Context, attemptID string) ([]Response, error) {
	if _, err := s.GetAttempt(ctx, attemptID); err != nil {
		return nil, err
	}
	return s.listResponses(ctx, s.dbx, attemptID)
}

func (s *SQLStore) listResponses(ctx context.Context, q sqlx.QueryerContext, attemptID string) ([]Response, error) {
	var rows []responseRow
	err := sqlx.SelectContext(ctx, q, &rows, s.dbx.Rebind(`SELECT `+responseCols+` FROM responses
		WHERE attempt_id=? ORDER BY submitted_at, id`), attemptID)
	if err != nil {
		return nil, fmt.Errorf("list responses for %q: %w", attemptID, err)
	}
	out := make([]Response, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.response())
	}
	return out, nil
}

func (s *SQLStore) UpdateResponseGrade(ctx context.Context, id string, g GradeUpdate) (Response, error) {
	res, err := s.dbx.ExecContext(ctx, s.dbx.Rebind(`UPDATE responses
		SET points_earned=?, points_possible=?, is_correct=?, grading_details=?, graded_at=?, score_percentage=?
		WHERE id=?`),
		g.PointsEarned, g.PointsPossible, nullBool(g.Correct), nullJSON(g.GradingDetails),
		g.GradedAt.UnixMilli(), nullDec(g.ScorePercentage), id)
	if err != nil {
		return Response{}, fmt.Errorf("grade response %q: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return Response{}, notFound("response", id)
	}
	return s.GetResponse(ctx, id)
}

func (s *SQLStore) FinalizeAttempt(ctx context.Context, attemptID string, at time.Time, fn FinalizeFunc) (Attempt, error) {
	var out Attempt
	err := db.WithTx(ctx, s.dbx, func(tx *sqlx.Tx) error {
		a, err := s.getAttempt(ctx, tx, attemptID, s.lock(" FOR UPDATE"))
		if err != nil {
			return err
		}
		if a.Status == StatusCompleted {
			out = a
			return nil
		}
		rs, err := s.listResponses(ctx, tx, attemptID)
		if err != nil {
			return err
		}
		score := fn(a, rs)
		_, err = tx.ExecContext(ctx, tx.Rebind(`UPDATE attempts
			SET status=?, completed_at=?, total_score=?, max_possible_score=?, score_percentage=?
			WHERE id=?`),
			string(StatusCompleted), at.UnixMilli(), score.Total, score.Max, nullDec(score.Percentage), attemptID)
		if err != nil {
			return fmt.Errorf("complete attempt %q: %w", attemptID, err)
		}
		out, err = s.getAttempt(ctx, tx, attemptID, "")
		return err
	})
	return out, err
}

// lock returns clause on postgres. sqlite runs on a single connection, so
// transactions there are already serialized.
func (s *SQLStore) lock(clause string) string {
	if s.driver == db.DriverPostgres {
		return clause
	}
	return ""
}

func fromMS(v int64) time.Time { return time.UnixMilli(v).UTC() }

func nullTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMS(v.Int64)
	return &t
}

func nullMS(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.UnixMilli(), Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}

func nullJSON(raw json.RawMessage) sql.NullString {
	if len(raw) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(raw), Valid: true}
}

func nullDec(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

func decPtr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}
