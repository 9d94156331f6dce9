package service

import (
	"context"
	"testing"
	"time"

	"worktrack/internal/database"
	"worktrack/internal/models"
	"worktrack/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceFixture struct {
	svc      *SessionService
	users    *repository.UserRepository
	sessions *repository.SessionRepository
	logs     *repository.ActivityLogRepository
	now      *time.Time
}

func newFixture(t *testing.T) *serviceFixture {
	t.Helper()
	db, err := database.New(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &serviceFixture{
		users:    repository.NewUserRepository(db.DB),
		sessions: repository.NewSessionRepository(db.DB),
		logs:     repository.NewActivityLogRepository(db.DB),
	}
	f.svc = NewSessionService(f.sessions, f.logs, zap.NewNop())

	now := time.Date(2025, time.May, 1, 9, 0, 0, 0, time.UTC)
	f.now = &now
	f.svc.now = func() time.Time { return *f.now }
	return f
}

func (f *serviceFixture) user(t *testing.T, username string) *models.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), username, "hash", "Test", models.RoleUser)
	require.NoError(t, err)
	return u
}

func TestSessionService_StartCreatesOpenSessionWithSeedLog(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "alice")
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, sess.Open())
	assert.True(t, sess.StartTime.Equal(*f.now))

	logs, err := f.logs.GetBySessionID(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "Session started", logs[0].Message)
	assert.Equal(t, "info", logs[0].Type)
}

func TestSessionService_StartWhileOpenRejected(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "alice")
	ctx := context.Background()

	_, err := f.svc.Start(ctx, user.ID)
	require.NoError(t, err)

	_, err = f.svc.Start(ctx, user.ID)
	assert.ErrorIs(t, err, repository.ErrOpenSessionExists)
}

func TestSessionService_EndComputesDurations(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "alice")
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, user.ID)
	require.NoError(t, err)

	// 10 minutes pass; the client reports 450 active seconds.
	*f.now = f.now.Add(10 * time.Minute)
	final, err := f.svc.End(ctx, user.ID, sess.ID, 450)
	require.NoError(t, err)

	require.NotNil(t, final.EndTime)
	assert.EqualValues(t, 600, final.TotalDuration)
	assert.EqualValues(t, 450, final.ActiveDuration)
	assert.EqualValues(t, 150, final.IdleDuration)

	logs, err := f.logs.GetBySessionID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Session ended", logs[len(logs)-1].Message)
}

func TestSessionService_EndClampsActiveDuration(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "alice")
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, user.ID)
	require.NoError(t, err)

	// Reported active time exceeds wall time: clamp so active <= total.
	*f.now = f.now.Add(60 * time.Second)
	final, err := f.svc.End(ctx, user.ID, sess.ID, 9999)
	require.NoError(t, err)
	assert.EqualValues(t, 60, final.TotalDuration)
	assert.EqualValues(t, 60, final.ActiveDuration)
	assert.EqualValues(t, 0, final.IdleDuration)
}

func TestSessionService_EndClampsNegativeActive(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "alice")
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, user.ID)
	require.NoError(t, err)

	*f.now = f.now.Add(30 * time.Second)
	final, err := f.svc.End(ctx, user.ID, sess.ID, -5)
	require.NoError(t, err)
	assert.EqualValues(t, 0, final.ActiveDuration)
	assert.EqualValues(t, 30, final.IdleDuration)
}

func TestSessionService_EndTwiceRejected(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "alice")
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, user.ID)
	require.NoError(t, err)

	*f.now = f.now.Add(time.Minute)
	_, err = f.svc.End(ctx, user.ID, sess.ID, 60)
	require.NoError(t, err)

	_, err = f.svc.End(ctx, user.ID, sess.ID, 60)
	assert.ErrorIs(t, err, repository.ErrSessionEnded)
}

func TestSessionService_OwnershipChecks(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, alice.ID)
	require.NoError(t, err)

	// Someone else's session is indistinguishable from a missing one.
	_, err = f.svc.Get(ctx, bob.ID, sess.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.svc.End(ctx, bob.ID, sess.ID, 10)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.svc.LogActivity(ctx, bob.ID, sess.ID, "snoop", "info")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = f.svc.ActivityLogs(ctx, bob.ID, sess.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSessionService_LogActivityAppends(t *testing.T) {
	f := newFixture(t)
	user := f.user(t, "alice")
	ctx := context.Background()

	sess, err := f.svc.Start(ctx, user.ID)
	require.NoError(t, err)

	entry, err := f.svc.LogActivity(ctx, user.ID, sess.ID, "Idle state detected - timer paused", "warning")
	require.NoError(t, err)
	assert.Equal(t, "warning", entry.Type)

	logs, err := f.svc.ActivityLogs(ctx, user.ID, sess.ID)
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.Equal(t, "Idle state detected - timer paused", logs[1].Message)
}

func TestAnalyticsService_Summary(t *testing.T) {
	f := newFixture(t)
	alice := f.user(t, "alice")
	bob := f.user(t, "bob")
	ctx := context.Background()

	s1, err := f.svc.Start(ctx, alice.ID)
	require.NoError(t, err)
	*f.now = f.now.Add(time.Hour)
	_, err = f.svc.End(ctx, alice.ID, s1.ID, 3000)
	require.NoError(t, err)
	_, err = f.svc.Start(ctx, bob.ID)
	require.NoError(t, err)

	analytics := NewAnalyticsService(f.users, f.sessions, zap.NewNop())
	summary, err := analytics.Summary(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, summary.UserCount)
	assert.EqualValues(t, 2, summary.SessionCount)
	assert.EqualValues(t, 1, summary.ActiveUsers)
	assert.EqualValues(t, 3000, summary.TotalActiveTime)
}
