package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/tracklist/internal/models"
	"github.com/desertthunder/tracklist/internal/shared"
)

// SessionRepository persists the login session in the sessions table.
type SessionRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db, now: time.Now}
}

// Save replaces the live session with s. The previous row is soft-deleted in the same transaction.
func (r *SessionRepository) Save(ctx context.Context, s models.Session) error {
	if s.Token == "" {
		return fmt.Errorf("%w: session has no token", shared.ErrInvalidInput)
	}

	var user models.UserSummary
	if s.User != nil {
		user = *s.User
	}

	createdAt := s.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}

	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := softDeleteLive(ctx, tx, "sessions", r.now()); err != nil {
			return err
		}

		query := `
			INSERT INTO sessions (id, user_id, username, email, token, created_at) VALUES (?, ?, ?, ?, ?, ?)
		`
		_, err := tx.ExecContext(ctx, query, shared.GenerateID(), user.ID, user.Username, user.Email, s.Token, createdAt)
		if err != nil {
			return fmt.Errorf("failed to insert session: %w", err)
		}
		return nil
	})
}

// Load returns the most recent live session, or [shared.ErrNoSession] when none is stored.
func (r *SessionRepository) Load(ctx context.Context) (*models.Session, error) {
	query := `
		SELECT user_id, username, email, token, created_at
		FROM sessions
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
		LIMIT 1
	`

	var (
		user      models.UserSummary
		token     string
		createdAt time.Time
	)

	err := r.db.QueryRowContext(ctx, query).Scan(&user.ID, &user.Username, &user.Email, &token, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, shared.ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query session: %w", err)
	}

	return &models.Session{User: &user, Token: token, CreatedAt: createdAt}, nil
}

// Clear soft-deletes the live session. Clearing when nothing is stored is not an error.
func (r *SessionRepository) Clear(ctx context.Context) error {
	_, err := softDeleteLive(ctx, r.db, "sessions", r.now())
	return err
}

// Purge hard-deletes soft-deleted rows and returns how many were removed.
func (r *SessionRepository) Purge(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, "DELETE FROM sessions WHERE deleted_at IS NOT NULL")
	if err != nil {
		return 0, fmt.Errorf("failed to purge sessions: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}
	return rows, nil
}
