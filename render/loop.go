package render

import (
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
)

// FrameScheduler abstracts the host's display-refresh callback. Schedule
// arranges for fn to run once at the next refresh and returns a cancel.
type FrameScheduler interface {
	Schedule(fn func()) (cancel func())
}

// TickerScheduler drives frames from a fixed interval for hosts without a
// native refresh callback.
type TickerScheduler struct {
	Interval time.Duration
}

// Schedule runs fn once after the interval
func (s TickerScheduler) Schedule(fn func()) (cancel func()) {
	interval := s.Interval
	if interval <= 0 {
		interval = 16 * time.Millisecond
	}
	t := time.AfterFunc(interval, fn)
	return func() { t.Stop() }
}

// Loop is the perpetual reconciliation pass: one step per display refresh,
// rescheduled after each step so passes never overlap. It runs until Stop,
// which is called exactly once, on unmount.
type Loop struct {
	logger hclog.Logger
	sched  FrameScheduler
	step   func()

	mu      sync.Mutex
	running bool
	cancel  func()
}

// NewLoop creates a loop invoking step once per scheduled frame
func NewLoop(sched FrameScheduler, step func(), logger hclog.Logger) *Loop {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Loop{
		logger: logger.Named("render-loop"),
		sched:  sched,
		step:   step,
	}
}

// Start begins scheduling frames. No-op if already running.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running {
		return
	}
	l.running = true
	l.cancel = l.sched.Schedule(l.frame)
	l.logger.Debug("render loop started")
}

// Stop cancels the pending frame and halts rescheduling
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		return
	}
	l.running = false
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.logger.Debug("render loop stopped")
}

// Running reports whether the loop is active
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) frame() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.mu.Unlock()

	l.step()

	l.mu.Lock()
	if l.running {
		l.cancel = l.sched.Schedule(l.frame)
	}
	l.mu.Unlock()
}
