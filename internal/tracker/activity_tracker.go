package tracker

import (
	"errors"
	"sync"
	"time"

	"worktrack/internal/input"

	"go.uber.org/zap"
)

// State represents the tracker's lifecycle state. Idle is only reachable
// from Active, and only while tracking is running.
type State string

const (
	StateStopped State = "stopped"
	StateActive  State = "active"
	StateIdle    State = "idle"
)

const (
	DefaultTickInterval  = time.Second
	DefaultIdleThreshold = 5 * time.Minute

	// The activity log is a diagnostic aid, not a durable record; oldest
	// entries are dropped past this cap.
	maxLogEntries = 500
)

// ErrAlreadyRunning is returned by Start when tracking is already running.
var ErrAlreadyRunning = errors.New("activity tracker already running")

// LogEntry is one append-only activity log record.
type LogEntry struct {
	Timestamp time.Time
	Message   string
}

// Snapshot is a consistent copy of the tracker's counters and state.
type Snapshot struct {
	State         State
	ActiveSeconds int64
	IdleSeconds   int64
}

// ActivityTracker converts a stream of qualifying-input events into an
// idle/active signal and a monotonically increasing active-seconds counter.
// It performs no network I/O; its only side effects are the two timers it
// owns and the input capture registration, all of which Stop cancels
// unconditionally.
type ActivityTracker struct {
	source        input.Source // may be nil; RecordInput is the raw entry point
	tickInterval  time.Duration
	idleThreshold time.Duration
	logger        *zap.Logger
	onStateChange func(State)
	now           func() time.Time

	mu            sync.Mutex
	state         State
	activeSeconds int64
	idleSeconds   int64
	lastInput     time.Time
	log           []LogEntry

	ticker    *time.Ticker
	idleTimer *time.Timer
	stopChan  chan struct{}
	wg        sync.WaitGroup
}

// NewActivityTracker creates a stopped tracker. A zero tickInterval or
// idleThreshold selects the defaults (1s tick, 5 minute idle threshold).
// source may be nil when the caller feeds RecordInput directly.
func NewActivityTracker(
	source input.Source,
	tickInterval time.Duration,
	idleThreshold time.Duration,
	logger *zap.Logger,
) *ActivityTracker {
	if tickInterval <= 0 {
		tickInterval = DefaultTickInterval
	}
	if idleThreshold <= 0 {
		idleThreshold = DefaultIdleThreshold
	}
	return &ActivityTracker{
		source:        source,
		tickInterval:  tickInterval,
		idleThreshold: idleThreshold,
		logger:        logger,
		now:           time.Now,
		state:         StateStopped,
	}
}

// Start transitions Stopped -> Active: resets both counters, re-seeds the
// activity log, arms the tick counter and the idle watchdog, and begins
// consuming input events. onStateChange (optional) fires on every
// Active<->Idle transition.
func (t *ActivityTracker) Start(onStateChange func(State)) error {
	t.mu.Lock()
	if t.state != StateStopped {
		t.mu.Unlock()
		return ErrAlreadyRunning
	}
	t.mu.Unlock()

	if t.source != nil {
		if err := t.source.StartCapture(func(input.Event) { t.RecordInput() }); err != nil {
			return err
		}
	}

	t.mu.Lock()
	now := t.now()
	t.state = StateActive
	t.activeSeconds = 0
	t.idleSeconds = 0
	t.lastInput = now
	t.onStateChange = onStateChange
	t.log = []LogEntry{{Timestamp: now, Message: "Session tracking initialized"}}
	t.appendLogLocked("Tracking started")
	t.ticker = time.NewTicker(t.tickInterval)
	t.idleTimer = time.NewTimer(t.idleThreshold)
	t.stopChan = make(chan struct{})
	t.mu.Unlock()

	t.wg.Add(1)
	go t.run()

	t.logger.Info("Activity tracking started",
		zap.Duration("tick_interval", t.tickInterval),
		zap.Duration("idle_threshold", t.idleThreshold),
	)
	return nil
}

// Stop transitions Active|Idle -> Stopped, cancelling both timers and the
// input capture. Counters keep their final values until the next Start.
// Calling Stop on a stopped tracker is a no-op.
func (t *ActivityTracker) Stop() {
	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		return
	}
	t.state = StateStopped
	t.appendLogLocked("Tracking stopped")
	stopChan := t.stopChan
	active, idle := t.activeSeconds, t.idleSeconds
	t.mu.Unlock()

	close(stopChan)
	t.wg.Wait()
	if t.source != nil {
		t.source.StopCapture()
	}
	t.ticker.Stop()
	t.idleTimer.Stop()

	t.logger.Info("Activity tracking stopped",
		zap.Int64("active_seconds", active),
		zap.Int64("idle_seconds", idle),
	)
}

// RecordInput registers a qualifying-input event: the idle watchdog is
// re-armed, and an idle tracker resumes activity. Events on a stopped
// tracker are ignored.
func (t *ActivityTracker) RecordInput() {
	t.mu.Lock()
	if t.state == StateStopped {
		t.mu.Unlock()
		return
	}
	t.lastInput = t.now()
	resumed := t.state == StateIdle
	if resumed {
		t.state = StateActive
		t.appendLogLocked("Activity resumed")
	}
	timer := t.idleTimer
	cb := t.onStateChange
	t.mu.Unlock()

	timer.Reset(t.idleThreshold)
	if resumed {
		t.logger.Info("Activity resumed after idle")
		if cb != nil {
			cb(StateActive)
		}
	}
}

func (t *ActivityTracker) run() {
	defer t.wg.Done()
	for {
		select {
		case <-t.ticker.C:
			t.tick()
		case <-t.idleTimer.C:
			t.idleTimeout()
		case <-t.stopChan:
			return
		}
	}
}

// tick advances whichever counter matches the current state. Idle seconds
// are informational; they never feed the active counter.
func (t *ActivityTracker) tick() {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch t.state {
	case StateActive:
		t.activeSeconds++
	case StateIdle:
		t.idleSeconds++
	}
}

// idleTimeout fires when the watchdog sees no qualifying input for the full
// idle threshold.
func (t *ActivityTracker) idleTimeout() {
	t.mu.Lock()
	if t.state != StateActive {
		t.mu.Unlock()
		return
	}
	t.state = StateIdle
	t.idleSeconds = 0
	t.appendLogLocked("Idle state detected - timer paused")
	cb := t.onStateChange
	t.mu.Unlock()

	t.logger.Info("Idle state detected", zap.Duration("idle_threshold", t.idleThreshold))
	if cb != nil {
		cb(StateIdle)
	}
}

// State returns the current lifecycle state.
func (t *ActivityTracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// ActiveSeconds returns the seconds accrued while active.
func (t *ActivityTracker) ActiveSeconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.activeSeconds
}

// IdleSeconds returns the seconds accrued in the current idle period.
func (t *ActivityTracker) IdleSeconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.idleSeconds
}

// LastInput returns the timestamp of the last qualifying input.
func (t *ActivityTracker) LastInput() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastInput
}

// GetSnapshot returns a consistent copy of state and counters.
func (t *ActivityTracker) GetSnapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{State: t.state, ActiveSeconds: t.activeSeconds, IdleSeconds: t.idleSeconds}
}

// Log returns a copy of the activity log in insertion order.
func (t *ActivityTracker) Log() []LogEntry {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]LogEntry, len(t.log))
	copy(out, t.log)
	return out
}

func (t *ActivityTracker) appendLogLocked(message string) {
	t.log = append(t.log, LogEntry{Timestamp: t.now(), Message: message})
	if len(t.log) > maxLogEntries {
		t.log = t.log[len(t.log)-maxLogEntries:]
	}
}
