package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Admin is a backend-held administrator identity.
type Admin struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// Verifier checks login credentials against the admin_users table.
type Verifier struct {
	db *sql.DB
}

// NewVerifier creates a verifier.
func NewVerifier(db *sql.DB) *Verifier {
	return &Verifier{db: db}
}

// VerifyAdmin looks up an admin by exact username and password match.
// No match is a negative result, not an error: the caller routes those
// credentials to the user path. Only infrastructure failures return an error.
func (v *Verifier) VerifyAdmin(ctx context.Context, loginID, password string) (*Admin, error) {
	row := v.db.QueryRowContext(ctx, `
		SELECT id, username, created_at
		FROM admin_users
		WHERE username = $1 AND password_hash = $2
	`, loginID, password)
	var a Admin
	if err := row.Scan(&a.ID, &a.Username, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}
