// Package session tracks browser sessions and the upload view each one owns.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/diversityiq/backend/internal/client"
	"github.com/diversityiq/backend/internal/upload"
	"github.com/google/uuid"
)

// DefaultMaxSessions limits concurrent sessions when none is configured.
const DefaultMaxSessions = 100

// Manager owns the upload view of every browser session.
type Manager struct {
	sessions    map[string]*State
	mu          sync.RWMutex
	analyzer    client.Analyzer
	maxSessions int
}

// State holds a session's view and its bookkeeping.
type State struct {
	View         *upload.View
	CreatedAt    time.Time
	LastAccessed time.Time
}

// NewManager creates a session manager whose views upload through analyzer.
func NewManager(analyzer client.Analyzer, maxSessions int) *Manager {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	return &Manager{
		sessions:    make(map[string]*State),
		analyzer:    analyzer,
		maxSessions: maxSessions,
	}
}

// Create starts a new session in the idle state.
func (m *Manager) Create() *upload.View {
	id := uuid.New().String()
	now := time.Now()
	view := upload.NewView(id, m.analyzer)

	m.mu.Lock()
	m.evictIfNeededLocked()
	m.sessions[id] = &State{View: view, CreatedAt: now, LastAccessed: now}
	m.mu.Unlock()

	fmt.Printf("[Session] Created %s\n", id[:8])
	return view
}

// Get returns the view of a session and marks it as accessed.
func (m *Manager) Get(id string) (*upload.View, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	state, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	state.LastAccessed = time.Now()
	return state.View, true
}

// Touch marks a session as accessed.
func (m *Manager) Touch(id string) bool {
	_, ok := m.Get(id)
	return ok
}

// Delete removes a session. An in-flight upload finishes on its own.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false
	}
	delete(m.sessions, id)
	return true
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions removes sessions not accessed within maxAge. Sessions
// with an upload in flight or a connected stream are kept.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for id, state := range m.sessions {
		if inUse(state.View) || !state.LastAccessed.Before(cutoff) {
			continue
		}
		delete(m.sessions, id)
		removed++
		fmt.Printf("[Session] Cleaned up aged session %s (last accessed: %s ago)\n",
			id[:8], time.Since(state.LastAccessed).Round(time.Second))
	}
	return removed
}

// evictIfNeededLocked drops the least recently used session that is not in
// use when the manager is full.
func (m *Manager) evictIfNeededLocked() {
	if len(m.sessions) < m.maxSessions {
		return
	}

	var oldestID string
	var oldest time.Time
	for id, state := range m.sessions {
		if inUse(state.View) {
			continue
		}
		if oldestID == "" || state.LastAccessed.Before(oldest) {
			oldestID, oldest = id, state.LastAccessed
		}
	}
	if oldestID != "" {
		delete(m.sessions, oldestID)
		fmt.Printf("[Session] Evicted %s to stay under %d sessions\n", oldestID[:8], m.maxSessions)
	}
}

// inUse reports whether a session is uploading or followed by an open page.
func inUse(view *upload.View) bool {
	return view.Uploading() || view.Subscribers() > 0
}
