package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

const userAgent = "feedgest/1.0"

// Client fetches feed documents and linked pages over HTTP.
type Client struct {
	httpClient *http.Client
	maxBytes   int64
	stats      *FetchStats
}

func NewClient(timeout time.Duration, maxBytes int64, stats *FetchStats) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if maxBytes <= 0 {
		maxBytes = 10 << 20
	}
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxBytes: maxBytes,
		stats:    stats,
	}
}

// Body is a fetched response stream capped at the client's byte limit.
// Close must be called to release the underlying connection.
type Body struct {
	io.Reader
	rc          io.ReadCloser
	ContentType string
}

func (b *Body) Close() error {
	return b.rc.Close()
}

// Open issues a GET and returns the response body as a capped stream,
// suitable for handing straight to a streaming parser. The time to first
// byte is recorded in the client's stats.
func (c *Client) Open(ctx context.Context, url string) (*Body, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("User-Agent", userAgent)
	httpReq.Header.Set("Accept", "application/rss+xml, application/xml, text/xml, */*")

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if c.stats != nil {
		c.stats.Record(time.Since(start).Milliseconds())
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, string(respBody))
	}
	return &Body{
		Reader:      io.LimitReader(resp.Body, c.maxBytes),
		rc:          resp.Body,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Download fetches a linked document fully into memory, capped at the
// client's byte limit. It returns the body and the Content-Type header.
func (c *Client) Download(ctx context.Context, url string) ([]byte, string, error) {
	body, err := c.Open(ctx, url)
	if err != nil {
		return nil, "", err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", url, err)
	}
	return data, body.ContentType, nil
}

// Stats returns the client's latency tracker, which may be nil.
func (c *Client) Stats() *FetchStats {
	return c.stats
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}
