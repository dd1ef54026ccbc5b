package server

import (
	"sync"
	"time"
)

// Lifecycle shuts the server down once no request has been in flight for the idle timeout.
// The idle window starts when the last in-flight request ends, so a slow compile never
// counts as idle time. A zero timeout disables idle shutdown.
type Lifecycle struct {
	mu           sync.Mutex
	timer        *time.Timer
	startTime    time.Time
	lastActivity time.Time
	timeout      time.Duration
	inFlight     int
	done         chan struct{}
	doneOnce     sync.Once
}

// NewLifecycle creates a lifecycle that shuts down after timeout of inactivity.
func NewLifecycle(timeout time.Duration) *Lifecycle {
	now := time.Now()
	l := &Lifecycle{
		startTime:    now,
		lastActivity: now,
		timeout:      timeout,
		done:         make(chan struct{}),
	}
	if timeout > 0 {
		l.timer = time.AfterFunc(timeout, l.close)
	}
	return l
}

// Begin marks the start of a request and pauses the idle timer.
// The returned function ends the request; calling it more than once has no further effect.
func (l *Lifecycle) Begin() (end func()) {
	l.mu.Lock()
	l.inFlight++
	l.lastActivity = time.Now()
	if l.timer != nil {
		l.timer.Stop()
	}
	l.mu.Unlock()

	var once sync.Once
	return func() { once.Do(l.end) }
}

func (l *Lifecycle) end() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.inFlight--
	l.lastActivity = time.Now()
	if l.inFlight == 0 && l.timer != nil {
		l.timer.Reset(l.timeout)
	}
}

// InFlight returns the number of requests that have begun and not ended.
func (l *Lifecycle) InFlight() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.inFlight
}

// IdleRemaining returns the duration until idle shutdown.
// It is zero when idle shutdown is disabled, and the full timeout while a request is in flight.
func (l *Lifecycle) IdleRemaining() time.Duration {
	if l.timeout <= 0 {
		return 0
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.inFlight > 0 {
		return l.timeout
	}
	return max(l.timeout-time.Since(l.lastActivity), 0)
}

// Uptime returns how long the server has been running.
func (l *Lifecycle) Uptime() time.Duration {
	return time.Since(l.startTime)
}

// LastActivity returns the time a request last began or ended.
func (l *Lifecycle) LastActivity() time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastActivity
}

// Done returns a channel that closes when shutdown is triggered.
func (l *Lifecycle) Done() <-chan struct{} {
	return l.done
}

func (l *Lifecycle) close() {
	l.doneOnce.Do(func() {
		close(l.done)
	})
}

// Shutdown stops the idle timer and triggers shutdown.
func (l *Lifecycle) Shutdown() {
	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
	}
	l.mu.Unlock()
	l.close()
}
