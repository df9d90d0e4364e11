package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/desertthunder/mimo/internal/models"
	"github.com/desertthunder/mimo/internal/shared"
)

const (
	DefaultLimit   = 20
	MaxLimit       = 50
	DefaultTimeout = 10 * time.Second
)

// Provider defines the interface for upstream music catalogs.
type Provider interface {
	// Search returns up to limit tracks matching query, in provider order.
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)

	// Trending returns up to limit currently popular tracks.
	Trending(ctx context.Context, limit int) ([]models.Track, error)

	// Source returns the catalog this provider serves.
	Source() models.Source

	// Name returns a human readable name (e.g., "Deezer", "Jamendo").
	Name() string
}

// NormalizeLimit maps non-positive limits to [DefaultLimit] and caps at [MaxLimit].
func NormalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// ProviderError describes a failed provider call.
type ProviderError struct {
	Source         models.Source
	Op             string
	UpstreamStatus int // 0 when no response was received
	Err            error
}

func (e *ProviderError) Error() string {
	if e.UpstreamStatus != 0 {
		return fmt.Sprintf("%s %s (status %d): %v", e.Source, e.Op, e.UpstreamStatus, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Source, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Retryable reports whether repeating the call may succeed: timeouts, transport failures, 429 and 5xx.
func (e *ProviderError) Retryable() bool {
	if errors.Is(e.Err, context.Canceled) {
		return false
	}
	if errors.Is(e.Err, shared.ErrTimeout) {
		return true
	}
	switch {
	case e.UpstreamStatus == http.StatusTooManyRequests:
		return true
	case e.UpstreamStatus >= 500:
		return true
	case e.UpstreamStatus == 0:
		return errors.Is(e.Err, shared.ErrAPIRequest)
	}
	return false
}

// NewProviderError creates a [ProviderError].
func NewProviderError(source models.Source, op string, status int, err error) *ProviderError {
	return &ProviderError{Source: source, Op: op, UpstreamStatus: status, Err: err}
}

// newHTTPClient returns client, or a client with the given timeout when client is nil.
func newHTTPClient(client *http.Client, timeout time.Duration) *http.Client {
	if client != nil {
		return client
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{Timeout: timeout}
}

// doRequest performs req and decodes a 2xx JSON body into result.
// Failures are returned as [*ProviderError].
func doRequest(client *http.Client, req *http.Request, source models.Source, op string, result any) error {
	resp, err := client.Do(req)
	if err != nil {
		return NewProviderError(source, op, 0, classifyTransport(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return NewProviderError(source, op, resp.StatusCode,
			fmt.Errorf("%w: unexpected status %d", shared.ErrAPIRequest, resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		if isTimeout(err) {
			return NewProviderError(source, op, resp.StatusCode, fmt.Errorf("%w: %w", shared.ErrTimeout, err))
		}
		return NewProviderError(source, op, resp.StatusCode, fmt.Errorf("%w: %w", shared.ErrDecode, err))
	}

	return nil
}

func classifyTransport(err error) error {
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", shared.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", shared.ErrAPIRequest, err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
