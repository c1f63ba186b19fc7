package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/client-portal/internal/database"
	"github.com/iliyamo/client-portal/internal/model"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))
	return db
}

func TestProjectCreateAndFind(t *testing.T) {
	repo := NewProjectRepo(newTestDB(t))
	ctx := context.Background()

	id, err := repo.Create(ctx, model.Project{
		ProjectID:   "p1",
		Title:       "Lookbook",
		AccessCode:  "1234",
		ClientEmail: "c@example.com",
		Status:      model.StatusSent,
		Settings:    model.ProjectSettings{AllowApproval: true},
	})
	require.NoError(t, err)
	require.NotZero(t, id)

	p, err := repo.FindByProjectID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, id, p.ID)
	require.Equal(t, "Lookbook", p.Title)
	require.Equal(t, "1234", p.AccessCode)
	require.Equal(t, model.StatusSent, p.Status)
	require.True(t, p.Settings.AllowApproval)
	require.Empty(t, p.StatusHistory)

	_, err = repo.Create(ctx, model.Project{ProjectID: "p1", AccessCode: "x"})
	require.ErrorIs(t, err, ErrConflict)

	_, err = repo.FindByProjectID(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestApplyTransitionGuard(t *testing.T) {
	repo := NewProjectRepo(newTestDB(t))
	ctx := context.Background()
	_, err := repo.Create(ctx, model.Project{ProjectID: "p1", AccessCode: "1234", Status: model.StatusSent})
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Second)
	viewed := model.StatusEntry{Status: model.StatusViewed, ChangedAt: now, ChangedBy: "client"}

	ok, err := repo.ApplyTransition(ctx, "p1", []model.Status{model.StatusSent}, viewed)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ApplyTransition(ctx, "p1", []model.Status{model.StatusSent}, viewed)
	require.NoError(t, err)
	require.False(t, ok)

	note := "ship it"
	ok, err = repo.ApplyTransition(ctx, "p1", []model.Status{model.StatusViewed},
		model.StatusEntry{Status: model.StatusApproved, ChangedAt: now.Add(time.Second), ChangedBy: "c@example.com", Note: &note})
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.ApplyTransition(ctx, "missing", []model.Status{model.StatusSent}, viewed)
	require.NoError(t, err)
	require.False(t, ok)

	p, err := repo.FindByProjectID(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, p.Status)
	require.Len(t, p.StatusHistory, 2)
	require.Equal(t, model.StatusViewed, p.StatusHistory[0].Status)
	require.Nil(t, p.StatusHistory[0].Note)
	require.Equal(t, model.StatusApproved, p.StatusHistory[1].Status)
	require.Equal(t, "ship it", *p.StatusHistory[1].Note)
	require.True(t, p.StatusHistory[0].ChangedAt.Equal(now))
}

func TestSessionRepoLiveness(t *testing.T) {
	repo := NewSessionRepo(newTestDB(t))
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)

	live := model.ClientSession{SessionID: "s1", ProjectID: "p1", IPAddress: "1.2.3.4", CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	dead := model.ClientSession{SessionID: "s2", ProjectID: "p1", CreatedAt: now.Add(-2 * time.Hour), ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Insert(ctx, live))
	require.NoError(t, repo.Insert(ctx, dead))

	got, err := repo.FindLive(ctx, "s1", now)
	require.NoError(t, err)
	require.Equal(t, "p1", got.ProjectID)
	require.True(t, got.ExpiresAt.Equal(live.ExpiresAt))

	_, err = repo.FindLive(ctx, "s2", now)
	require.ErrorIs(t, err, ErrNotFound)
	_, err = repo.FindLive(ctx, "s1", now.Add(time.Hour))
	require.ErrorIs(t, err, ErrNotFound)

	list, err := repo.ListLive(ctx, "p1", now)
	require.NoError(t, err)
	require.Len(t, list, 1)

	n, err := repo.PurgeExpired(ctx, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, n)

	require.NoError(t, repo.Delete(ctx, "s1"))
	require.ErrorIs(t, repo.Delete(ctx, "s1"), ErrNotFound)

	n, err = repo.DeleteByProject(ctx, "p1")
	require.NoError(t, err)
	require.Zero(t, n)
}
