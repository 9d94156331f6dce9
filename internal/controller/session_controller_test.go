package controller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"worktrack/internal/models"
	"worktrack/internal/queue"
	"worktrack/internal/tracker"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type loggedEntry struct {
	SessionID int64
	Message   string
	Type      string
}

type fakeAPI struct {
	mu sync.Mutex

	startErr error
	endErr   error
	logErr   error

	nextID       int64
	startEntered chan struct{} // closed once StartSession is reached, if set
	startBlock   chan struct{} // StartSession waits on this, if set

	started []int64
	ended   map[int64]int64 // session ID -> reported active duration
	logs    []loggedEntry
	list    []*models.Session
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{nextID: 1, ended: make(map[int64]int64)}
}

func (f *fakeAPI) StartSession(ctx context.Context) (*models.Session, error) {
	f.mu.Lock()
	entered := f.startEntered
	block := f.startBlock
	f.mu.Unlock()
	if entered != nil {
		close(entered)
	}
	if block != nil {
		<-block
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return nil, f.startErr
	}
	id := f.nextID
	f.nextID++
	f.started = append(f.started, id)
	return &models.Session{ID: id, UserID: 1, StartTime: time.Now().UTC()}, nil
}

func (f *fakeAPI) EndSession(ctx context.Context, sessionID, activeDuration int64) (*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.endErr != nil {
		return nil, f.endErr
	}
	f.ended[sessionID] = activeDuration
	now := time.Now().UTC()
	return &models.Session{
		ID:             sessionID,
		UserID:         1,
		EndTime:        &now,
		ActiveDuration: activeDuration,
	}, nil
}

func (f *fakeAPI) LogActivity(ctx context.Context, sessionID int64, message, logType string) (*models.ActivityLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.logErr != nil {
		return nil, f.logErr
	}
	f.logs = append(f.logs, loggedEntry{SessionID: sessionID, Message: message, Type: logType})
	return &models.ActivityLog{ID: int64(len(f.logs)), SessionID: sessionID, Message: message}, nil
}

func (f *fakeAPI) ListSessions(ctx context.Context, limit, offset int) ([]*models.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.list, nil
}

func (f *fakeAPI) endedDuration(t *testing.T, sessionID int64) int64 {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.ended[sessionID]
	require.True(t, ok, "session %d was never ended", sessionID)
	return d
}

// newTestController wires a controller around a tracker whose timers never
// fire on their own, so tests stay deterministic.
func newTestController(t *testing.T, api API) *SessionController {
	t.Helper()
	tr := tracker.NewActivityTracker(nil, time.Hour, time.Hour, zap.NewNop())
	c := NewSessionController(api, tr, nil, zap.NewNop())
	t.Cleanup(tr.Stop)
	return c
}

func TestStartSessionSuccess(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(t, api)

	session, err := c.StartSession(context.Background())
	require.NoError(t, err)
	require.NotNil(t, session)

	assert.Equal(t, tracker.StateActive, c.Tracker().State())
	require.NotNil(t, c.CurrentSession())
	assert.Equal(t, session.ID, c.CurrentSession().ID)
	assert.Equal(t, session.ID, c.SelectedSession().ID)
}

func TestStartSessionBackendFailureLeavesTrackerStopped(t *testing.T) {
	api := newFakeAPI()
	api.startErr = errors.New("boom")
	c := newTestController(t, api)

	_, err := c.StartSession(context.Background())
	require.Error(t, err)

	assert.Equal(t, tracker.StateStopped, c.Tracker().State())
	assert.Nil(t, c.CurrentSession())
}

func TestStartSessionRejectedWhileActive(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(t, api)

	_, err := c.StartSession(context.Background())
	require.NoError(t, err)

	_, err = c.StartSession(context.Background())
	assert.ErrorIs(t, err, ErrSessionActive)
}

func TestEndSessionBackendFailureKeepsTracking(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(t, api)

	session, err := c.StartSession(context.Background())
	require.NoError(t, err)

	api.mu.Lock()
	api.endErr = errors.New("backend down")
	api.mu.Unlock()

	_, err = c.EndSession(context.Background())
	require.Error(t, err)

	// The failed end must not stop the tracker or discard the session.
	assert.Equal(t, tracker.StateActive, c.Tracker().State())
	require.NotNil(t, c.CurrentSession())
	assert.Equal(t, session.ID, c.CurrentSession().ID)

	// A retry succeeds and finalizes.
	api.mu.Lock()
	api.endErr = nil
	api.mu.Unlock()

	finalized, err := c.EndSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.ID, finalized.ID)
	assert.Equal(t, tracker.StateStopped, c.Tracker().State())
	assert.Nil(t, c.CurrentSession())
}

func TestEndSessionRetryReportsAccruedTime(t *testing.T) {
	api := newFakeAPI()
	tr := tracker.NewActivityTracker(nil, 5*time.Millisecond, time.Hour, zap.NewNop())
	c := NewSessionController(api, tr, nil, zap.NewNop())
	t.Cleanup(tr.Stop)

	_, err := c.StartSession(context.Background())
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)
	firstAttempt := tr.ActiveSeconds()

	api.mu.Lock()
	api.endErr = errors.New("backend down")
	api.mu.Unlock()
	_, err = c.EndSession(context.Background())
	require.Error(t, err)

	time.Sleep(50 * time.Millisecond)

	api.mu.Lock()
	api.endErr = nil
	api.mu.Unlock()
	finalized, err := c.EndSession(context.Background())
	require.NoError(t, err)

	// Time kept accruing between the failed attempt and the retry.
	assert.GreaterOrEqual(t, api.endedDuration(t, finalized.ID), firstAttempt)
}

func TestEndSessionWithoutActiveSession(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(t, api)

	_, err := c.EndSession(context.Background())
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestEndDuringInFlightStartSupersedesIt(t *testing.T) {
	api := newFakeAPI()
	api.startEntered = make(chan struct{})
	api.startBlock = make(chan struct{})
	c := newTestController(t, api)

	startErr := make(chan error, 1)
	go func() {
		_, err := c.StartSession(context.Background())
		startErr <- err
	}()

	<-api.startEntered

	// The user hits stop while the start request is still on the wire.
	_, err := c.EndSession(context.Background())
	assert.ErrorIs(t, err, ErrRequestInFlight)

	close(api.startBlock)
	require.ErrorIs(t, <-startErr, ErrStartSuperseded)

	// The orphaned server session was closed with zero active time, and
	// the tracker never started.
	assert.Equal(t, int64(0), api.endedDuration(t, 1))
	assert.Equal(t, tracker.StateStopped, c.Tracker().State())
	assert.Nil(t, c.CurrentSession())
}

func TestSelectSession(t *testing.T) {
	api := newFakeAPI()
	api.list = []*models.Session{
		{ID: 3, UserID: 1},
		{ID: 2, UserID: 1},
	}
	c := newTestController(t, api)

	_, err := c.StartSession(context.Background())
	require.NoError(t, err)
	current := c.CurrentSession()

	selected := c.SelectSession(2)
	require.NotNil(t, selected)
	assert.Equal(t, int64(2), selected.ID)

	// Unknown IDs keep the current selection.
	selected = c.SelectSession(99)
	assert.Equal(t, int64(2), selected.ID)

	// Selecting the live session is allowed.
	selected = c.SelectSession(current.ID)
	assert.Equal(t, current.ID, selected.ID)

	// Zero clears the selection.
	assert.Nil(t, c.SelectSession(0))
	assert.Nil(t, c.SelectedSession())
}

func TestRefreshSessionsAfterStartAndEnd(t *testing.T) {
	api := newFakeAPI()
	api.list = []*models.Session{{ID: 9, UserID: 1}}
	c := newTestController(t, api)

	_, err := c.StartSession(context.Background())
	require.NoError(t, err)
	require.Len(t, c.RecentSessions(), 1)
	assert.Equal(t, int64(9), c.RecentSessions()[0].ID)
}

func TestStateChangePushedAsActivityLog(t *testing.T) {
	api := newFakeAPI()
	c := newTestController(t, api)

	_, err := c.StartSession(context.Background())
	require.NoError(t, err)

	c.onTrackerState(tracker.StateIdle)
	c.onTrackerState(tracker.StateActive)

	require.Eventually(t, func() bool {
		api.mu.Lock()
		defer api.mu.Unlock()
		return len(api.logs) == 2
	}, time.Second, 10*time.Millisecond)

	api.mu.Lock()
	defer api.mu.Unlock()
	messages := []string{api.logs[0].Message, api.logs[1].Message}
	assert.Contains(t, messages, "Idle state detected - timer paused")
	assert.Contains(t, messages, "Activity resumed")
}

func TestFailedStatePushLandsInQueue(t *testing.T) {
	api := newFakeAPI()
	api.logErr = errors.New("offline")

	uploads, err := queue.NewUploadQueue(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { uploads.Close() })

	tr := tracker.NewActivityTracker(nil, time.Hour, time.Hour, zap.NewNop())
	c := NewSessionController(api, tr, uploads, zap.NewNop())
	t.Cleanup(tr.Stop)

	_, err = c.StartSession(context.Background())
	require.NoError(t, err)

	c.onTrackerState(tracker.StateIdle)

	require.Eventually(t, func() bool {
		count, countErr := uploads.Count()
		return countErr == nil && count == 1
	}, time.Second, 10*time.Millisecond)
}

func TestQueuedUploadsRetriedOnNextStart(t *testing.T) {
	api := newFakeAPI()

	uploads, err := queue.NewUploadQueue(":memory:", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { uploads.Close() })
	require.NoError(t, uploads.Enqueue(5, "Idle state detected - timer paused", "warning"))

	tr := tracker.NewActivityTracker(nil, time.Hour, time.Hour, zap.NewNop())
	c := NewSessionController(api, tr, uploads, zap.NewNop())
	t.Cleanup(tr.Stop)

	_, err = c.StartSession(context.Background())
	require.NoError(t, err)

	count, err := uploads.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	api.mu.Lock()
	defer api.mu.Unlock()
	require.NotEmpty(t, api.logs)
	assert.Equal(t, int64(5), api.logs[len(api.logs)-1].SessionID)
}
