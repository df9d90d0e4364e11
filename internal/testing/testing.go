// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/services"
	"github.com/desertthunder/mimo/internal/shared"
)

// MockProvider is a test double for [services.Provider].
//
// Errs sets per-call failures in call order (a nil entry succeeds); Err applies to every call after that.
type MockProvider struct {
	SourceValue    models.Source
	Tracks         []models.Track
	TrendingTracks []models.Track // defaults to Tracks
	Err            error
	Errs           []error
	Delay          time.Duration

	mu      sync.Mutex
	calls   int
	queries []string
}

// NewMockProvider creates a MockProvider that returns tracks for source.
func NewMockProvider(source models.Source, tracks []models.Track) *MockProvider {
	return &MockProvider{SourceValue: source, Tracks: tracks}
}

func (m *MockProvider) Name() string { return "mock-" + string(m.SourceValue) }

func (m *MockProvider) Source() models.Source { return m.SourceValue }

func (m *MockProvider) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if err := m.begin(ctx, query); err != nil {
		return nil, err
	}
	return limitTracks(m.Tracks, limit), nil
}

func (m *MockProvider) Trending(ctx context.Context, limit int) ([]models.Track, error) {
	if err := m.begin(ctx, ""); err != nil {
		return nil, err
	}
	tracks := m.TrendingTracks
	if tracks == nil {
		tracks = m.Tracks
	}
	return limitTracks(tracks, limit), nil
}

// Calls returns the number of Search and Trending calls made.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Queries returns the queries passed to Search.
func (m *MockProvider) Queries() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queries...)
}

func (m *MockProvider) begin(ctx context.Context, query string) error {
	m.mu.Lock()
	m.calls++
	n := m.calls
	if query != "" {
		m.queries = append(m.queries, query)
	}
	m.mu.Unlock()

	if m.Delay > 0 {
		select {
		case <-ctx.Done():
			return services.NewProviderError(m.SourceValue, "mock", 0, fmt.Errorf("%w: %w", shared.ErrTimeout, ctx.Err()))
		case <-time.After(m.Delay):
		}
	}

	if n <= len(m.Errs) {
		return m.Errs[n-1]
	}
	return m.Err
}

func limitTracks(tracks []models.Track, limit int) []models.Track {
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return append([]models.Track{}, tracks...)
}

// MockTracks returns n valid tracks for source with ids <source>_1 through <source>_n.
func MockTracks(source models.Source, n int) []models.Track {
	tracks := make([]models.Track, n)
	for i := range tracks {
		id := strconv.Itoa(i + 1)
		tracks[i] = models.Track{
			ID:              models.TrackID(source, id),
			Title:           fmt.Sprintf("%s track %s", source, id),
			Artist:          fmt.Sprintf("%s artist %d", source, i%3),
			DurationSeconds: 180 + i,
			AudioURL:        fmt.Sprintf("https://cdn.example.com/%s/%s.mp3", source, id),
			Source:          source,
		}
	}
	return tracks
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

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
