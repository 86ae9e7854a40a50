package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TransferRequest describes one network transfer.
type TransferRequest struct {
	URL          string
	Timeout      time.Duration
	HighPriority bool
}

// Transport performs an HTTP GET. The context carries the deadline derived
// from TransferRequest.Timeout.
type Transport interface {
	Get(ctx context.Context, req TransferRequest) (status int, body []byte, err error)
}

// DefaultMaxBodyBytes caps the size of a downloaded image.
const DefaultMaxBodyBytes = 25 << 20

// HTTPTransport is a Transport over net/http.
type HTTPTransport struct {
	Client       *http.Client
	UserAgent    string
	MaxBodyBytes int64
}

// NewHTTPTransport returns a transport with a pooled client.
func NewHTTPTransport(userAgent string) *HTTPTransport {
	return &HTTPTransport{
		Client: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        32,
				MaxIdleConnsPerHost: 8,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
			},
		},
		UserAgent:    userAgent,
		MaxBodyBytes: DefaultMaxBodyBytes,
	}
}

// Get implements Transport.
func (t *HTTPTransport) Get(ctx context.Context, req TransferRequest) (int, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.URL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	if t.UserAgent != "" {
		httpReq.Header.Set("User-Agent", t.UserAgent)
	}
	httpReq.Header.Set("Accept", "image/webp,image/png,image/jpeg,image/*;q=0.8")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return 0, nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return resp.StatusCode, nil, nil
	}

	limit := t.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return resp.StatusCode, nil, err
	}
	if int64(len(body)) > limit {
		return resp.StatusCode, nil, fmt.Errorf("response body exceeds %d bytes", limit)
	}
	return resp.StatusCode, body, nil
}
