package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrSessionInvalid means the token matches no live session: missing,
// expired, or revoked. Distinct from an infrastructure failure, which is
// returned as-is so callers can tell "not authorized" from "cannot verify".
var ErrSessionInvalid = errors.New("session invalid or expired")

// Session is a backend-persisted admin session.
type Session struct {
	Token     string
	AdminID   string
	ExpiresAt time.Time
}

// Sessions persists admin sessions in Postgres. User sessions have no
// backend record; see token.go.
type Sessions struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessions creates the session store. ttl defaults to 24 hours.
func NewSessions(db *sql.DB, ttl time.Duration) *Sessions {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Sessions{db: db, ttl: ttl}
}

// Create persists a new session for the admin and returns it. If the insert
// fails the login fails with it; no client-only session is ever issued.
func (s *Sessions) Create(ctx context.Context, adminID string) (Session, error) {
	sess := Session{
		Token:     uuid.NewString(),
		AdminID:   adminID,
		ExpiresAt: time.Now().UTC().Add(s.ttl),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO admin_sessions (session_id, admin_id, expires_at)
		VALUES ($1, $2, $3)
	`, sess.Token, sess.AdminID, sess.ExpiresAt)
	if err != nil {
		return Session{}, err
	}
	return sess, nil
}

// Validate resolves a token to its admin identity, requiring a non-expired
// session joined with the identity. Returns ErrSessionInvalid when nothing
// matches; any other error is an infrastructure failure.
func (s *Sessions) Validate(ctx context.Context, token string) (*Admin, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT u.id, u.username, u.created_at
		FROM admin_sessions se
		JOIN admin_users u ON u.id = se.admin_id
		WHERE se.session_id = $1 AND se.expires_at > NOW()
	`, token)
	var a Admin
	if err := row.Scan(&a.ID, &a.Username, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSessionInvalid
		}
		return nil, err
	}
	return &a, nil
}

// Delete removes a session on logout. Deleting an unknown token is not an
// error: logout always succeeds.
func (s *Sessions) Delete(ctx context.Context, token string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE session_id = $1`, token)
	return err
}

// DeleteExpired prunes sessions past expiry and reports how many went.
func (s *Sessions) DeleteExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM admin_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
