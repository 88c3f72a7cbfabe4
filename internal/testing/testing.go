// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"

	"github.com/desertthunder/colorize/internal/models"
	"github.com/desertthunder/colorize/internal/services"
)

var _ services.Colorizer = (*MockColorizer)(nil)

// MockColorizer is a test double for [services.Colorizer].
//
// ColorizeFunc, when set, replaces the canned Result/Err behaviour.
type MockColorizer struct {
	Base         string
	Result       *models.ColorizeResult
	Err          error
	Progress     [][2]int64 // (sent, total) pairs replayed before returning
	Status       *models.HealthStatus
	DownloadBody string
	ColorizeFunc func(ctx context.Context, file *models.SelectedFile, onProgress services.ProgressFunc) (*models.ColorizeResult, error)

	mu    sync.Mutex
	calls []string
}

func (m *MockColorizer) Colorize(ctx context.Context, file *models.SelectedFile, onProgress services.ProgressFunc) (*models.ColorizeResult, error) {
	m.mu.Lock()
	m.calls = append(m.calls, file.Name)
	m.mu.Unlock()

	if m.ColorizeFunc != nil {
		return m.ColorizeFunc(ctx, file, onProgress)
	}
	for _, p := range m.Progress {
		if onProgress != nil {
			onProgress(p[0], p[1])
		}
	}
	return m.Result, m.Err
}

func (m *MockColorizer) Health(ctx context.Context) (*models.HealthStatus, error) {
	if m.Status == nil {
		return nil, m.Err
	}
	return m.Status, nil
}

func (m *MockColorizer) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	if m.Err != nil {
		return 0, m.Err
	}
	n, err := io.WriteString(w, m.DownloadBody)
	return int64(n), err
}

func (m *MockColorizer) BaseURL() string {
	if m.Base == "" {
		return "http://localhost:8000"
	}
	return m.Base
}

// Calls returns the names of files passed to Colorize, in order.
func (m *MockColorizer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

// PNG returns a minimal valid 1x1 PNG.
func PNG(t *testing.T) []byte {
	t.Helper()
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
		0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
		0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0xf8, 0xcf, 0xc0, 0xf0,
		0x1f, 0x00, 0x05, 0x00, 0x01, 0xff, 0x89, 0x99, 0x3d, 0x1d, 0x00, 0x00,
		0x00, 0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
	}
}
