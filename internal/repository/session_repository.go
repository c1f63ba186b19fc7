package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/iliyamo/client-portal/internal/model"
)

// SessionRepo persists client portal sessions.  Rows are never updated;
// they are inserted on authentication and deleted on revocation.
type SessionRepo struct{ DB *sql.DB }

func NewSessionRepo(db *sql.DB) *SessionRepo { return &SessionRepo{DB: db} }

// Insert stores a new session row.
func (r *SessionRepo) Insert(ctx context.Context, s model.ClientSession) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO client_sessions (session_id, project_id, client_email, ip_address, created_at, expires_at)
		 VALUES (?,?,?,?,?,?)`,
		s.SessionID, s.ProjectID, s.ClientEmail, s.IPAddress, s.CreatedAt.UTC(), s.ExpiresAt.UTC())
	return err
}

// FindLive returns the session only if it exists and expires after now.
func (r *SessionRepo) FindLive(ctx context.Context, sessionID string, now time.Time) (model.ClientSession, error) {
	var s model.ClientSession
	err := r.DB.QueryRowContext(ctx,
		`SELECT session_id, project_id, client_email, ip_address, created_at, expires_at
		 FROM client_sessions WHERE session_id = ? AND expires_at > ? LIMIT 1`,
		sessionID, now.UTC()).Scan(&s.SessionID, &s.ProjectID, &s.ClientEmail, &s.IPAddress, &s.CreatedAt, &s.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.ClientSession{}, ErrNotFound
	}
	return s, err
}

// ListLive returns the unexpired sessions of a project, newest first.
func (r *SessionRepo) ListLive(ctx context.Context, projectID string, now time.Time) ([]model.ClientSession, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT session_id, project_id, client_email, ip_address, created_at, expires_at
		 FROM client_sessions WHERE project_id = ? AND expires_at > ? ORDER BY created_at DESC`,
		projectID, now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.ClientSession{}
	for rows.Next() {
		var s model.ClientSession
		if err := rows.Scan(&s.SessionID, &s.ProjectID, &s.ClientEmail, &s.IPAddress, &s.CreatedAt, &s.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Delete removes one session.  It returns ErrNotFound when no row matched.
func (r *SessionRepo) Delete(ctx context.Context, sessionID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM client_sessions WHERE session_id = ?`, sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteByProject removes every session of a project and returns the count.
func (r *SessionRepo) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM client_sessions WHERE project_id = ?`, projectID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PurgeExpired deletes rows whose expiry is at or before now.  Validation
// never relies on this; it only keeps the table small.
func (r *SessionRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM client_sessions WHERE expires_at <= ?`, now.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
