package upload

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/diversityiq/backend/internal/client"
	"github.com/diversityiq/backend/internal/models"
	"github.com/diversityiq/backend/internal/report"
	"github.com/diversityiq/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// analyzerFunc adapts a function to client.Analyzer.
type analyzerFunc func(ctx context.Context, name string, content []byte) (*models.AnalysisReport, error)

func (f analyzerFunc) Analyze(ctx context.Context, name string, content []byte) (*models.AnalysisReport, error) {
	return f(ctx, name, content)
}

func newMockView(t *testing.T) (*View, *testutil.MockAnalysisService) {
	t.Helper()
	svc := testutil.NewMockAnalysisService()
	t.Cleanup(svc.Close)
	c := client.New(client.Options{Endpoint: svc.URL(), Timeout: 5 * time.Second})
	return NewView("session-under-test", c), svc
}

func TestView_InitialState(t *testing.T) {
	v, _ := newMockView(t)

	snap := v.Snapshot()
	assert.Equal(t, models.StateIdle, snap.State)
	assert.False(t, snap.Loading)
	assert.False(t, snap.HasReport)
	assert.Nil(t, snap.Notice)
	assert.Equal(t, "session-under-test", snap.SessionID)
}

func TestView_SubmitWithoutFile(t *testing.T) {
	v, svc := newMockView(t)

	snap, err := v.Submit(context.Background())

	assert.ErrorIs(t, err, ErrNoFileSelected)
	assert.Equal(t, 0, svc.Calls())
	assert.Equal(t, models.StateIdle, snap.State)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, models.NoticeNoFileSelected, snap.Notice.Kind)
	assert.False(t, snap.Loading)
}

func TestView_SubmitSuccess(t *testing.T) {
	v, svc := newMockView(t)

	v.Select("people.csv", []byte("a,b\n"))
	snap, err := v.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.StateDisplaying, snap.State)
	assert.False(t, snap.Loading)
	assert.True(t, snap.HasReport)
	assert.Nil(t, snap.Notice)
	assert.Equal(t, 1, svc.Calls())

	r, ok := v.Report()
	require.True(t, ok)
	cs := report.DeriveChartSeries(r)
	assert.Equal(t, []string{"male", "female"}, cs.Gender.Labels)
	assert.Equal(t, []float64{5, 7}, cs.Gender.Values)
	assert.Equal(t, "balanced", cs.Gender.Caption)
	assert.Equal(t, []string{"A", "B"}, cs.Ethnicity.Labels)
	assert.Equal(t, []float64{3, 4}, cs.Ethnicity.Values)
	assert.Equal(t, "diverse", cs.Ethnicity.Caption)
}

func TestView_SubmitRejected(t *testing.T) {
	v, svc := newMockView(t)
	svc.Respond(http.StatusInternalServerError, `{"error":"boom"}`)

	v.Select("people.csv", []byte("a,b\n"))
	snap, err := v.Submit(context.Background())

	assert.ErrorIs(t, err, ErrUploadRejected)
	assert.NotEqual(t, models.StateDisplaying, snap.State)
	assert.Equal(t, models.StateFailed, snap.State)
	assert.False(t, snap.Loading)
	assert.False(t, snap.HasReport)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, models.NoticeUploadRejected, snap.Notice.Kind)
	assert.Equal(t, "people.csv", snap.FileName)
}

func TestView_SubmitMalformedResponse(t *testing.T) {
	v, svc := newMockView(t)
	svc.Respond(http.StatusOK, `not json at all`)

	v.Select("people.csv", []byte("a,b\n"))
	snap, err := v.Submit(context.Background())

	assert.ErrorIs(t, err, ErrUploadError)
	assert.ErrorIs(t, err, client.ErrMalformedResponse)
	assert.Equal(t, models.StateFailed, snap.State)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, models.NoticeUploadError, snap.Notice.Kind)
	assert.False(t, snap.Loading)
}

func TestView_SubmitTransportError(t *testing.T) {
	v := NewView("s", analyzerFunc(func(context.Context, string, []byte) (*models.AnalysisReport, error) {
		return nil, errors.New("connection refused")
	}))

	v.Select("people.csv", []byte("x"))
	snap, err := v.Submit(context.Background())

	assert.ErrorIs(t, err, ErrUploadError)
	require.NotNil(t, snap.Notice)
	assert.Equal(t, models.NoticeUploadError, snap.Notice.Kind)
	assert.False(t, snap.Loading)
	assert.Equal(t, "people.csv", snap.FileName)
}

func TestView_FailureKeepsPreviousReport(t *testing.T) {
	v, svc := newMockView(t)

	v.Select("first.csv", []byte("1"))
	_, err := v.Submit(context.Background())
	require.NoError(t, err)

	svc.Respond(http.StatusBadGateway, "")
	v.Select("second.csv", []byte("2"))
	snap := v.Snapshot()
	assert.True(t, snap.HasReport, "selecting a file must not clear the report")
	assert.Equal(t, models.StateFileSelected, snap.State)

	snap, err = v.Submit(context.Background())
	assert.ErrorIs(t, err, ErrUploadRejected)
	assert.True(t, snap.HasReport)
}

func TestView_SecondSelectWins(t *testing.T) {
	v, svc := newMockView(t)

	v.Select("first.csv", []byte("first"))
	v.Select("second.csv", []byte("second"))
	_, err := v.Submit(context.Background())
	require.NoError(t, err)

	f, ok := svc.LastFile()
	require.True(t, ok)
	assert.Equal(t, "second.csv", f.Name)
	assert.Equal(t, "second", string(f.Content))
	assert.Equal(t, 1, svc.Calls())
}

func TestView_RejectsConcurrentSubmit(t *testing.T) {
	v, svc := newMockView(t)
	svc.Hold()

	v.Select("people.csv", []byte("x"))

	done := make(chan error, 1)
	go func() {
		_, err := v.Submit(context.Background())
		done <- err
	}()

	require.Eventually(t, v.Uploading, 2*time.Second, 5*time.Millisecond)
	assert.True(t, v.Snapshot().Loading)

	snap, err := v.Submit(context.Background())
	assert.ErrorIs(t, err, ErrUploadInProgress)
	assert.Equal(t, models.StateUploading, snap.State)

	// Selecting during an upload is allowed and keeps the uploading state.
	snap = v.Select("other.csv", []byte("y"))
	assert.Equal(t, models.StateUploading, snap.State)

	svc.Release()
	require.NoError(t, <-done)

	assert.Equal(t, 1, svc.Calls())
	f, _ := svc.LastFile()
	assert.Equal(t, "people.csv", f.Name)

	snap = v.Snapshot()
	assert.Equal(t, models.StateDisplaying, snap.State)
	assert.Equal(t, "other.csv", snap.FileName)
	assert.False(t, snap.Loading)
}

func TestView_RetryAfterFailure(t *testing.T) {
	v, svc := newMockView(t)
	svc.Respond(http.StatusInternalServerError, "")

	v.Select("people.csv", []byte("x"))
	_, err := v.Submit(context.Background())
	require.Error(t, err)

	svc.Respond(http.StatusOK, testutil.SampleReport)
	snap, err := v.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.StateDisplaying, snap.State)
	assert.Equal(t, 2, svc.Calls())
}

func TestView_PanickingAnalyzerClearsLoading(t *testing.T) {
	v := NewView("s", analyzerFunc(func(context.Context, string, []byte) (*models.AnalysisReport, error) {
		panic("analyzer exploded")
	}))
	v.Select("people.csv", []byte("x"))

	assert.Panics(t, func() { v.Submit(context.Background()) })

	snap := v.Snapshot()
	assert.False(t, snap.Loading)
	assert.Equal(t, models.StateFailed, snap.State)

	// The guard was released, so a new submit reaches the analyzer again.
	assert.Panics(t, func() { v.Submit(context.Background()) })
}

func TestView_Subscribe(t *testing.T) {
	v, _ := newMockView(t)

	var mu sync.Mutex
	var states []models.State
	cancel := v.Subscribe(func(s models.Snapshot) {
		mu.Lock()
		states = append(states, s.State)
		mu.Unlock()
	})

	v.Select("people.csv", []byte("x"))
	_, err := v.Submit(context.Background())
	require.NoError(t, err)

	cancel()
	v.Select("again.csv", []byte("y"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []models.State{
		models.StateFileSelected,
		models.StateUploading,
		models.StateDisplaying,
	}, states)
}
