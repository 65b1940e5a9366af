package session

import (
	"context"
	"testing"
	"time"

	"github.com/diversityiq/backend/internal/client"
	"github.com/diversityiq/backend/internal/models"
	"github.com/diversityiq/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T, max int) (*Manager, *testutil.MockAnalysisService) {
	t.Helper()
	svc := testutil.NewMockAnalysisService()
	t.Cleanup(svc.Close)
	return NewManager(client.New(client.Options{Endpoint: svc.URL(), Timeout: 5 * time.Second}), max), svc
}

func TestSessionManager(t *testing.T) {
	m, svc := newTestManager(t, 10)

	view := m.Create()
	assert.Equal(t, 1, m.Count())

	got, ok := m.Get(view.ID())
	require.True(t, ok)
	assert.Same(t, view, got)

	got.Select("people.csv", []byte("x"))
	snap, err := got.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateDisplaying, snap.State)
	assert.Equal(t, 1, svc.Calls())

	assert.True(t, m.Delete(view.ID()))
	assert.False(t, m.Delete(view.ID()))
	_, ok = m.Get(view.ID())
	assert.False(t, ok)
}

func TestSessionManager_SessionsAreIsolated(t *testing.T) {
	m, _ := newTestManager(t, 10)

	a := m.Create()
	b := m.Create()
	require.NotEqual(t, a.ID(), b.ID())

	a.Select("a.csv", []byte("a"))
	assert.Equal(t, models.StateFileSelected, a.Snapshot().State)
	assert.Equal(t, models.StateIdle, b.Snapshot().State)
}

func TestSessionManager_CleanupOldSessions(t *testing.T) {
	m, svc := newTestManager(t, 10)

	stale := m.Create()
	busy := m.Create()

	svc.Hold()
	busy.Select("b.csv", []byte("b"))
	done := make(chan struct{})
	go func() {
		busy.Submit(context.Background())
		close(done)
	}()
	require.Eventually(t, busy.Uploading, 2*time.Second, 5*time.Millisecond)

	time.Sleep(5 * time.Millisecond)
	fresh := m.Create()

	removed := m.CleanupOldSessions(3 * time.Millisecond)
	assert.Equal(t, 1, removed)

	_, ok := m.Get(stale.ID())
	assert.False(t, ok)
	_, ok = m.Get(busy.ID())
	assert.True(t, ok, "uploading sessions are kept")
	_, ok = m.Get(fresh.ID())
	assert.True(t, ok)

	svc.Release()
	<-done
}

func TestSessionManager_EvictsOldest(t *testing.T) {
	m, _ := newTestManager(t, 2)

	first := m.Create()
	time.Sleep(2 * time.Millisecond)
	second := m.Create()
	time.Sleep(2 * time.Millisecond)
	m.Touch(first.ID())

	third := m.Create()
	assert.Equal(t, 2, m.Count())

	_, ok := m.Get(second.ID())
	assert.False(t, ok, "least recently used session is evicted")
	assert.True(t, m.Touch(first.ID()))
	assert.True(t, m.Touch(third.ID()))
}

func TestSessionManager_CleanupKeepsFollowedSessions(t *testing.T) {
	m, _ := newTestManager(t, 10)

	followed := m.Create()
	cancel := followed.Subscribe(func(models.Snapshot) {})
	time.Sleep(5 * time.Millisecond)

	assert.Equal(t, 0, m.CleanupOldSessions(time.Millisecond))
	_, ok := m.Get(followed.ID())
	assert.True(t, ok, "sessions with a connected stream are kept")

	cancel()
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, 1, m.CleanupOldSessions(time.Millisecond))
	_, ok = m.Get(followed.ID())
	assert.False(t, ok)
}

func TestSessionManager_EvictionSkipsFollowedSessions(t *testing.T) {
	m, _ := newTestManager(t, 2)

	followed := m.Create()
	cancel := followed.Subscribe(func(models.Snapshot) {})
	defer cancel()
	time.Sleep(2 * time.Millisecond)
	idle := m.Create()
	time.Sleep(2 * time.Millisecond)

	m.Create()
	_, ok := m.Get(followed.ID())
	assert.True(t, ok)
	_, ok = m.Get(idle.ID())
	assert.False(t, ok)
}
