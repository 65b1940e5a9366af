// Package upload implements the per-session upload lifecycle: file selection,
// a single guarded in-flight analysis request, and the resulting report.
package upload

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/diversityiq/backend/internal/client"
	"github.com/diversityiq/backend/internal/models"
	"golang.org/x/sync/semaphore"
)

// View is the upload state machine of one session. All methods are safe for
// concurrent use.
type View struct {
	id       string
	analyzer client.Analyzer
	inflight *semaphore.Weighted

	mu        sync.RWMutex
	state     models.State
	file      *models.SelectedFile
	report    *models.AnalysisReport
	notice    *models.Notice
	updatedAt time.Time

	subsMu  sync.Mutex
	subs    map[int]func(models.Snapshot)
	nextSub int
}

// NewView creates a view in the idle state.
func NewView(id string, analyzer client.Analyzer) *View {
	return &View{
		id:        id,
		analyzer:  analyzer,
		inflight:  semaphore.NewWeighted(1),
		state:     models.StateIdle,
		updatedAt: time.Now(),
		subs:      make(map[int]func(models.Snapshot)),
	}
}

// ID returns the session id the view belongs to.
func (v *View) ID() string {
	return v.id
}

// Select records a file, replacing any earlier one. The current report stays
// until a new upload succeeds. An in-flight upload keeps the file it started
// with.
func (v *View) Select(name string, content []byte) models.Snapshot {
	v.mu.Lock()
	v.file = &models.SelectedFile{
		Name:       name,
		Content:    content,
		SelectedAt: time.Now(),
	}
	if v.state != models.StateUploading {
		v.state = models.StateFileSelected
	}
	snap := v.touchLocked()
	v.mu.Unlock()

	v.publish(snap)
	return snap
}

// Submit sends the selected file to the analysis service and blocks until the
// call finishes. It returns ErrNoFileSelected or ErrUploadInProgress without
// touching the network. Loading is always cleared on return.
func (v *View) Submit(ctx context.Context) (models.Snapshot, error) {
	v.mu.Lock()
	if v.file == nil {
		v.notice = newNotice(models.NoticeNoFileSelected, msgNoFileSelected)
		snap := v.touchLocked()
		v.mu.Unlock()
		v.publish(snap)
		return snap, ErrNoFileSelected
	}
	if !v.inflight.TryAcquire(1) {
		snap := v.snapshotLocked()
		v.mu.Unlock()
		return snap, ErrUploadInProgress
	}
	file := *v.file
	v.state = models.StateUploading
	v.notice = nil
	snap := v.touchLocked()
	v.mu.Unlock()
	v.publish(snap)

	fmt.Printf("[Upload %s] Sending %s (%d bytes)\n", shortID(v.id), file.Name, file.Size())
	start := time.Now()

	settled := false
	defer func() {
		if !settled {
			v.settle(nil, fmt.Errorf("%w: upload aborted", ErrUploadError))
		}
		v.inflight.Release(1)
	}()

	r, err := v.analyzer.Analyze(ctx, file.Name, file.Content)
	snap, err = v.settle(r, err)
	settled = true

	if err == nil {
		fmt.Printf("[Upload %s] Report received in %v\n", shortID(v.id), time.Since(start).Round(time.Millisecond))
	}
	return snap, err
}

// settle leaves the uploading state according to the analysis outcome.
func (v *View) settle(r *models.AnalysisReport, err error) (models.Snapshot, error) {
	var statusErr *client.StatusError

	v.mu.Lock()
	switch {
	case err == nil && r != nil:
		v.report = r
		v.state = models.StateDisplaying
	case err == nil:
		err = fmt.Errorf("%w: empty report", ErrUploadError)
		v.failLocked(models.NoticeUploadError, msgUploadError)
	case errors.As(err, &statusErr):
		err = fmt.Errorf("%w: %w", ErrUploadRejected, err)
		v.failLocked(models.NoticeUploadRejected, msgUploadRejected)
	case errors.Is(err, ErrUploadError):
		v.failLocked(models.NoticeUploadError, msgUploadError)
	default:
		err = fmt.Errorf("%w: %w", ErrUploadError, err)
		v.failLocked(models.NoticeUploadError, msgUploadError)
	}
	snap := v.touchLocked()
	v.mu.Unlock()

	if err != nil {
		fmt.Printf("[Upload %s] Error uploading file: %v\n", shortID(v.id), err)
	}
	v.publish(snap)
	return snap, err
}

func (v *View) failLocked(kind models.NoticeKind, msg string) {
	v.state = models.StateFailed
	v.notice = newNotice(kind, msg)
}

// Snapshot returns the current state of the view.
func (v *View) Snapshot() models.Snapshot {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.snapshotLocked()
}

// Report returns the last successful report, if any.
func (v *View) Report() (*models.AnalysisReport, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.report, v.report != nil
}

// Uploading reports whether a request is in flight.
func (v *View) Uploading() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state == models.StateUploading
}

// Subscribe registers fn to be called with a snapshot after every change.
// The returned function removes the subscription.
func (v *View) Subscribe(fn func(models.Snapshot)) (cancel func()) {
	v.subsMu.Lock()
	id := v.nextSub
	v.nextSub++
	v.subs[id] = fn
	v.subsMu.Unlock()

	return func() {
		v.subsMu.Lock()
		delete(v.subs, id)
		v.subsMu.Unlock()
	}
}

// Subscribers returns the number of live subscriptions.
func (v *View) Subscribers() int {
	v.subsMu.Lock()
	defer v.subsMu.Unlock()
	return len(v.subs)
}

func (v *View) publish(snap models.Snapshot) {
	v.subsMu.Lock()
	fns := make([]func(models.Snapshot), 0, len(v.subs))
	for _, fn := range v.subs {
		fns = append(fns, fn)
	}
	v.subsMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (v *View) touchLocked() models.Snapshot {
	v.updatedAt = time.Now()
	return v.snapshotLocked()
}

func (v *View) snapshotLocked() models.Snapshot {
	snap := models.Snapshot{
		SessionID: v.id,
		State:     v.state,
		Loading:   v.state == models.StateUploading,
		HasReport: v.report != nil,
		Report:    v.report,
		UpdatedAt: v.updatedAt,
	}
	if v.file != nil {
		snap.FileName = v.file.Name
		snap.FileSize = v.file.Size()
	}
	if v.notice != nil {
		n := *v.notice
		snap.Notice = &n
	}
	return snap
}

func newNotice(kind models.NoticeKind, msg string) *models.Notice {
	return &models.Notice{Kind: kind, Message: msg, RaisedAt: time.Now()}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
