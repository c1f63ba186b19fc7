package service

import (
	"context"
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/client-portal/internal/database"
	"github.com/iliyamo/client-portal/internal/model"
	"github.com/iliyamo/client-portal/internal/queue"
	"github.com/iliyamo/client-portal/internal/repository"
)

type testEnv struct {
	db       *sql.DB
	projects *repository.ProjectRepo
	sessions *repository.SessionRepo
	svc      *PortalService
	clock    *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingAnalytics struct {
	events chan queue.PortalViewedEvent
	err    error
	block  chan struct{}
}

func (a *recordingAnalytics) NotifyPortalViewed(_ context.Context, ev queue.PortalViewedEvent) error {
	if a.block != nil {
		<-a.block
	}
	a.events <- ev
	return a.err
}

func newTestEnv(t *testing.T, analytics Analytics) *testEnv {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "portal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(context.Background(), db, database.DriverSQLite))

	clock := &fakeClock{now: time.Now().UTC().Truncate(time.Second)}
	projects := repository.NewProjectRepo(db)
	sessions := repository.NewSessionRepo(db)
	ss := NewSessionService([]byte("test-secret"), sessions)
	ss.Now = clock.Now
	return &testEnv{
		db:       db,
		projects: projects,
		sessions: sessions,
		svc:      NewPortalService(projects, ss, analytics, nil),
		clock:    clock,
	}
}

func (e *testEnv) createProject(t *testing.T, p model.Project) {
	t.Helper()
	_, err := e.projects.Create(context.Background(), p)
	require.NoError(t, err)
}

func (e *testEnv) countRows(t *testing.T, query string, args ...interface{}) int {
	t.Helper()
	var n int
	require.NoError(t, e.db.QueryRow(query, args...).Scan(&n))
	return n
}
