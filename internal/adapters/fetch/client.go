// Package fetch implements the Fetcher port over HTTP.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/zerr"
)

const (
	httpClientTimeout = 30 * time.Second
	maxBodySize       = 64 << 20
	userAgent         = "jsbook"
)

// Client implements ports.Fetcher with an HTTP client.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a Client with the default timeout.
func NewClient() *Client {
	return NewClientWith(&http.Client{Timeout: httpClientTimeout})
}

// NewClientWith creates a Client that sends requests through httpClient.
func NewClientWith(httpClient *http.Client) *Client {
	return &Client{httpClient: httpClient}
}

// FetchText downloads url, following redirects.
// FinalURL is the URL of the response that was actually read.
func (c *Client) FetchText(ctx context.Context, url string) (ports.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return ports.FetchResult{}, zerr.With(zerr.Wrap(err, domain.ErrNetworkFailure.Error()), "url", url)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ports.FetchResult{}, zerr.With(zerr.Wrap(err, domain.ErrNetworkFailure.Error()), "url", url)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		statusErr := zerr.With(
			zerr.Wrap(errors.New("unexpected status "+resp.Status), domain.ErrNetworkFailure.Error()),
			"status_code", resp.StatusCode,
		)
		return ports.FetchResult{}, zerr.With(statusErr, "url", url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return ports.FetchResult{}, zerr.With(zerr.Wrap(err, domain.ErrNetworkFailure.Error()), "url", url)
	}

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return ports.FetchResult{Body: string(body), FinalURL: finalURL}, nil
}
