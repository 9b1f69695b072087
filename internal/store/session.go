package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Session is one recorded workout.
type Session struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"started_at"`
	EndedAt        *time.Time `json:"ended_at,omitempty"`
	Reps           int        `json:"reps"`
	ElapsedSeconds int        `json:"elapsed_seconds"`
	Rate           float64    `json:"rate"`
	NewBest        bool       `json:"new_best"`
}

// Finished reports whether the session has been stopped.
func (s *Session) Finished() bool {
	return s.EndedAt != nil
}

// SessionRepository provides history operations for sessions.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

// Create inserts an unfinished session. An empty ID is filled with a new UUID.
func (r *SessionRepository) Create(ctx context.Context, sess *Session) error {
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.StartedAt.IsZero() {
		sess.StartedAt = time.Now()
	}
	sess.StartedAt = sess.StartedAt.UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (id, started_at) VALUES (?, ?)`,
		sess.ID, sess.StartedAt,
	)
	return err
}

// Finish records the final numbers of a session.
func (r *SessionRepository) Finish(ctx context.Context, sess *Session) error {
	endedAt := time.Now().UTC()
	if sess.EndedAt != nil {
		endedAt = sess.EndedAt.UTC()
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE sessions SET ended_at = ?, reps = ?, elapsed_seconds = ?, rate = ?, new_best = ?
		 WHERE id = ?`,
		endedAt, sess.Reps, sess.ElapsedSeconds, sess.Rate, sess.NewBest, sess.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	sess.EndedAt = &endedAt
	return nil
}

// Get retrieves a session by its ID.
func (r *SessionRepository) Get(ctx context.Context, id string) (*Session, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, started_at, ended_at, reps, elapsed_seconds, rate, new_best
		 FROM sessions WHERE id = ?`,
		id,
	)

	sess, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return sess, nil
}

// List returns the most recent sessions first. A limit <= 0 returns all.
func (r *SessionRepository) List(ctx context.Context, limit int) ([]*Session, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, started_at, ended_at, reps, elapsed_seconds, rate, new_best
		 FROM sessions ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, sess)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return sessions, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*Session, error) {
	sess := &Session{}
	var endedAt sql.NullTime
	var newBest int

	err := row.Scan(&sess.ID, &sess.StartedAt, &endedAt, &sess.Reps, &sess.ElapsedSeconds, &sess.Rate, &newBest)
	if err != nil {
		return nil, err
	}

	if endedAt.Valid {
		t := endedAt.Time
		sess.EndedAt = &t
	}
	sess.NewBest = newBest != 0
	return sess, nil
}
