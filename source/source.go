// Package source loads raw video records from CSV exports, the YouTube
// Data API and YouTube channel feeds.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/robertmeta/vidcat/model"
)

// ErrUnavailable is returned, wrapped, when a source cannot deliver a batch
// because of a transport or decoding failure.
var ErrUnavailable = errors.New("source: unavailable")

// Source delivers raw records in batches. An empty token asks for the first
// batch; the returned Batch.NextToken continues from there.
type Source interface {
	Fetch(ctx context.Context, token string) (model.Batch, error)
}

// HTTPClient is the interface for performing HTTP requests.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	userAgent   = "vidcat/1.0"
	maxBodySize = 10 * 1024 * 1024
)

// unavailable wraps err so that it matches both ErrUnavailable and err.
func unavailable(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUnavailable, op, err)
}

// get downloads url and returns the response body.
func get(ctx context.Context, client HTTPClient, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := client.Do(req)
	if err != nil {
		return nil, unavailable("http get", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, unavailable("read body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return body, &statusError{code: resp.StatusCode}
	}
	return body, nil
}

type statusError struct {
	code int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d", e.code)
}

func (e *statusError) Unwrap() error { return ErrUnavailable }
