// mock_analysis.go - In-process analysis service for tests
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"
)

// SampleReport is a well-formed analysis response body.
const SampleReport = `{"gender": {"male": 5, "female": 7, "comment": "balanced"}, "ethnicity": {"A": 3, "B": 4}, "ethnicityComment": "diverse"}`

// ReceivedFile is one file the mock service was sent.
type ReceivedFile struct {
	Field   string
	Name    string
	Content []byte
}

// MockAnalysisService is an httptest server that records every upload and
// answers with a configurable status and body.
type MockAnalysisService struct {
	Server *httptest.Server

	mu       sync.Mutex
	status   int
	body     string
	delay    time.Duration
	release  chan struct{}
	received []ReceivedFile
}

// NewMockAnalysisService starts a mock service answering 200 with SampleReport.
func NewMockAnalysisService() *MockAnalysisService {
	m := &MockAnalysisService{
		status: http.StatusOK,
		body:   SampleReport,
	}
	m.Server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

// URL returns the upload endpoint of the mock.
func (m *MockAnalysisService) URL() string {
	return m.Server.URL + "/upload"
}

// Close shuts the server down.
func (m *MockAnalysisService) Close() {
	m.mu.Lock()
	if m.release != nil {
		close(m.release)
		m.release = nil
	}
	m.mu.Unlock()
	m.Server.Close()
}

// Respond sets the status and body of subsequent responses.
func (m *MockAnalysisService) Respond(status int, body string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
	m.body = body
}

// SetDelay makes every response wait d before answering.
func (m *MockAnalysisService) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// Hold blocks responses until Release is called.
func (m *MockAnalysisService) Hold() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.release = make(chan struct{})
}

// Release unblocks responses held by Hold.
func (m *MockAnalysisService) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.release != nil {
		close(m.release)
		m.release = nil
	}
}

// Calls returns the number of uploads received.
func (m *MockAnalysisService) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.received)
}

// LastFile returns the most recent upload.
func (m *MockAnalysisService) LastFile() (ReceivedFile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.received) == 0 {
		return ReceivedFile{}, false
	}
	return m.received[len(m.received)-1], true
}

func (m *MockAnalysisService) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	for field, headers := range r.MultipartForm.File {
		for _, fh := range headers {
			f, err := fh.Open()
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			data, _ := io.ReadAll(f)
			f.Close()

			m.mu.Lock()
			m.received = append(m.received, ReceivedFile{Field: field, Name: fh.Filename, Content: data})
			m.mu.Unlock()
		}
	}

	m.mu.Lock()
	status, body, delay, release := m.status, m.body, m.delay, m.release
	m.mu.Unlock()

	if release != nil {
		<-release
	}
	if delay > 0 {
		time.Sleep(delay)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}
