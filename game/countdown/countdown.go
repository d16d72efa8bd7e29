// Package countdown owns the per-session vote countdowns.
//
// Each session has at most one countdown, modeled as a small state machine:
// not started, running, ended (terminal). A tick fires once per second,
// decrementing the remaining count and reporting it through the OnTick
// callback; when the count reaches zero the OnEnd callback fires exactly
// once, the timer resource is released and the session stays flagged ended.
// A start request against an ended session replays only the terminal signal,
// so late joiners converge on the terminal state instead of restarting the
// clock.
package countdown

import (
	"sync"
	"time"
)

// Manager tracks the countdown state machines for all sessions.
type Manager struct {
	mu     sync.Mutex
	timers map[string]*timer

	onTick func(sessionID string, remaining int)
	onEnd  func(sessionID string)

	// interval between ticks; one second in production, shrunk in tests.
	interval time.Duration
}

type timer struct {
	remaining int
	ended     bool
}

// NewManager creates a countdown manager with a one-second tick. The
// callbacks deliver tick and terminal broadcasts; they run outside the
// manager's lock.
func NewManager(onTick func(sessionID string, remaining int), onEnd func(sessionID string)) *Manager {
	return NewManagerWithInterval(onTick, onEnd, time.Second)
}

// NewManagerWithInterval is NewManager with a custom tick interval.
func NewManagerWithInterval(onTick func(sessionID string, remaining int), onEnd func(sessionID string), interval time.Duration) *Manager {
	if interval <= 0 {
		interval = time.Second
	}
	return &Manager{
		timers:   make(map[string]*timer),
		onTick:   onTick,
		onEnd:    onEnd,
		interval: interval,
	}
}

// GetOrStart starts a countdown of initialSeconds for the session, or
// attaches to the one already there: a running countdown makes the call a
// no-op, an ended one replays the terminal signal without restarting.
func (m *Manager) GetOrStart(sessionID string, initialSeconds int) {
	m.mu.Lock()
	if t, ok := m.timers[sessionID]; ok {
		ended := t.ended
		m.mu.Unlock()
		if ended {
			m.onEnd(sessionID)
		}
		return
	}

	t := &timer{remaining: initialSeconds}
	m.timers[sessionID] = t
	if initialSeconds <= 0 {
		t.ended = true
		m.mu.Unlock()
		m.onEnd(sessionID)
		return
	}
	m.mu.Unlock()

	go m.run(sessionID, t)
}

// run drives one countdown to its terminal state, then returns, releasing
// the ticker.
func (m *Manager) run(sessionID string, t *timer) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for range ticker.C {
		m.mu.Lock()
		t.remaining--
		remaining := t.remaining
		if remaining <= 0 {
			t.ended = true
		}
		m.mu.Unlock()

		m.onTick(sessionID, remaining)
		if remaining <= 0 {
			m.onEnd(sessionID)
			return
		}
	}
}

// Ended reports whether the session's countdown reached its terminal state.
func (m *Manager) Ended(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[sessionID]
	return ok && t.ended
}

// Running reports whether a countdown is currently ticking for the session.
func (m *Manager) Running(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.timers[sessionID]
	return ok && !t.ended
}
