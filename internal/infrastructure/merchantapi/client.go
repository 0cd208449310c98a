// Package merchantapi performs detail lookups against the merchant REST API.
package merchantapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/garyjia/merchant-webhook/internal/application/port"
	"github.com/garyjia/merchant-webhook/internal/domain/event"
)

// DefaultTimeout bounds a single detail request
const DefaultTimeout = 10 * time.Second

// maxBodySize caps how much of a detail response is read
const maxBodySize = 10 << 20

// ErrBodyTooLarge is returned when a detail response exceeds the read limit
var ErrBodyTooLarge = errors.New("detail response exceeds size limit")

// Client fetches detail payloads over HTTP
type Client struct {
	httpClient  *http.Client
	maxBodySize int64
	logger      *zap.Logger
}

// NewClient creates a client with the given request timeout
func NewClient(timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewClientWithHTTP(&http.Client{Timeout: timeout}, logger)
}

// NewClientWithHTTP creates a client around an existing http.Client
func NewClientWithHTTP(httpClient *http.Client, logger *zap.Logger) *Client {
	return &Client{httpClient: httpClient, maxBodySize: maxBodySize, logger: logger}
}

// Fetch issues a GET with Accept: application/json and returns the body.
// Transport errors, non-2xx statuses and oversized bodies are returned as
// *event.DetailFetchError. The wrapped cause never repeats the request URL.
func (c *Client) Fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &event.DetailFetchError{URL: target, Err: fmt.Errorf("failed to create request: %w", stripURL(err))}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &event.DetailFetchError{URL: target, Err: stripURL(err)}
	}
	defer resp.Body.Close()

	c.logger.Debug("Detail response received", zap.Int("status", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, c.maxBodySize))
		return nil, &event.DetailFetchError{URL: target, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBodySize+1))
	if err != nil {
		return nil, &event.DetailFetchError{URL: target, Err: fmt.Errorf("failed to read response body: %w", stripURL(err))}
	}
	if int64(len(body)) > c.maxBodySize {
		return nil, &event.DetailFetchError{URL: target, Err: fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBodySize)}
	}

	return body, nil
}

// stripURL drops the *url.Error wrapper, whose message carries the full
// URL including the access token
func stripURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

var _ port.DetailFetcher = (*Client)(nil)
