package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/iliyamo/client-portal/internal/model"
)

// ProjectRepo reads projects and applies guarded status transitions.
type ProjectRepo struct{ DB *sql.DB }

func NewProjectRepo(db *sql.DB) *ProjectRepo { return &ProjectRepo{DB: db} }

const selectProject = `SELECT id, project_id, title, access_code, client_email, status, allow_approval, created_at, updated_at
FROM projects WHERE project_id = ? LIMIT 1`

// Create inserts a project row and returns its internal ID.  Admin tooling
// owns project creation; the portal only reads and transitions.
func (r *ProjectRepo) Create(ctx context.Context, p model.Project) (uint64, error) {
	now := time.Now().UTC().Truncate(time.Second)
	if p.Status == "" {
		p.Status = model.StatusDraft
	}
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO projects (project_id, title, access_code, client_email, status, allow_approval, created_at, updated_at)
		 VALUES (?,?,?,?,?,?,?,?)`,
		p.ProjectID, p.Title, p.AccessCode, p.ClientEmail, string(p.Status), p.Settings.AllowApproval, now, now)
	if err != nil {
		msg := strings.ToLower(err.Error())
		if strings.Contains(msg, "1062") || strings.Contains(msg, "unique") {
			return 0, ErrConflict
		}
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint64(id), nil
}

// FindByProjectID loads a project and its full status history, oldest first.
func (r *ProjectRepo) FindByProjectID(ctx context.Context, projectID string) (model.Project, error) {
	var (
		p      model.Project
		status string
	)
	err := r.DB.QueryRowContext(ctx, selectProject, projectID).Scan(
		&p.ID, &p.ProjectID, &p.Title, &p.AccessCode, &p.ClientEmail, &status,
		&p.Settings.AllowApproval, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, ErrNotFound
	}
	if err != nil {
		return model.Project{}, err
	}
	p.Status = model.Status(status)
	p.StatusHistory, err = r.History(ctx, projectID)
	if err != nil {
		return model.Project{}, err
	}
	return p, nil
}

// History returns the status history rows of a project in insertion order.
func (r *ProjectRepo) History(ctx context.Context, projectID string) ([]model.StatusEntry, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT status, changed_at, changed_by, note FROM project_status_history
		 WHERE project_id = ? ORDER BY id ASC`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.StatusEntry{}
	for rows.Next() {
		var (
			e      model.StatusEntry
			status string
			note   sql.NullString
		)
		if err := rows.Scan(&status, &e.ChangedAt, &e.ChangedBy, &note); err != nil {
			return nil, err
		}
		e.Status = model.Status(status)
		if note.Valid {
			n := note.String
			e.Note = &n
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// ApplyTransition sets the project's status to entry.Status only if its
// current status is one of from, and appends entry to the history in the
// same transaction.  The UPDATE is the compare-and-set: when several callers
// race, the row lock serializes them and only those whose guard still
// matches append a history row.  It reports whether the transition applied.
func (r *ProjectRepo) ApplyTransition(ctx context.Context, projectID string, from []model.Status, entry model.StatusEntry) (bool, error) {
	if len(from) == 0 {
		return false, nil
	}
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()

	args := make([]interface{}, 0, len(from)+3)
	args = append(args, string(entry.Status), entry.ChangedAt, projectID)
	for _, s := range from {
		args = append(args, string(s))
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(from)), ",")
	res, err := tx.ExecContext(ctx,
		`UPDATE projects SET status = ?, updated_at = ? WHERE project_id = ? AND status IN (`+placeholders+`)`,
		args...)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	var note interface{}
	if entry.Note != nil {
		note = *entry.Note
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO project_status_history (project_id, status, changed_at, changed_by, note) VALUES (?,?,?,?,?)`,
		projectID, string(entry.Status), entry.ChangedAt, entry.ChangedBy, note); err != nil {
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
