package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Options tunes the resty transport.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	// MaxBodyBytes caps how much of a response body is kept; zero keeps all.
	MaxBodyBytes int
}

// RestyClient adapts resty.Client to the httpclient.Client interface.
type RestyClient struct {
	client  *resty.Client
	maxBody int
}

// NewRestyClient creates a RestyClient with the given timeout and defaults.
func NewRestyClient(timeout time.Duration) *RestyClient {
	return NewRestyClientWithOptions(Options{Timeout: timeout})
}

// NewRestyClientWithOptions creates a RestyClient from opts.
func NewRestyClientWithOptions(opts Options) *RestyClient {
	c := NewRestyHTTPClient(opts.Timeout)
	if ua := strings.TrimSpace(opts.UserAgent); ua != "" {
		c.SetHeader("User-Agent", ua)
	}
	return &RestyClient{client: c, maxBody: opts.MaxBodyBytes}
}

// NewRestyHTTPClient exposes a configured resty.Client for callers needing custom verbs.
func NewRestyHTTPClient(timeout time.Duration) *resty.Client {
	c := resty.New()
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	c.SetRedirectPolicy(resty.FlexibleRedirectPolicy(10))
	return c
}

// Get performs an HTTP GET request with the specified context, URL, and headers.
// With MaxBodyBytes set, the body is streamed and reading stops at the cap.
func (r *RestyClient) Get(ctx context.Context, url string, headers map[string]string) (Response, error) {
	req := r.client.R().SetContext(ctx)
	if len(headers) > 0 {
		req.SetHeaders(headers)
	}
	if r.maxBody <= 0 {
		resp, err := req.Get(url)
		if err != nil {
			return nil, err
		}
		return &restyResponseAdapter{body: resp.Body(), status: resp.StatusCode()}, nil
	}

	resp, err := req.SetDoNotParseResponse(true).Get(url)
	if err != nil {
		return nil, err
	}
	raw := resp.RawBody()
	defer raw.Close()

	body, err := io.ReadAll(io.LimitReader(raw, int64(r.maxBody)))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return &restyResponseAdapter{body: body, status: resp.StatusCode()}, nil
}

// restyResponseAdapter adapts resty.Response to the httpclient.Response interface.
type restyResponseAdapter struct {
	body   []byte
	status int
}

func (r *restyResponseAdapter) Body() []byte    { return r.body }
func (r *restyResponseAdapter) StatusCode() int { return r.status }

// StatusError reports a non-2xx response. An empty Method reads as GET.
type StatusError struct {
	Method  string
	URL     string
	Code    int
	Snippet string
}

func (e *StatusError) Error() string {
	method := e.Method
	if method == "" {
		method = http.MethodGet
	}
	if e.Snippet == "" {
		return fmt.Sprintf("%s %s: status %d", method, e.URL, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d body: %s", method, e.URL, e.Code, e.Snippet)
}

// CheckStatus returns a *StatusError for responses outside 2xx.
func CheckStatus(url string, resp Response) error {
	code := resp.StatusCode()
	if code >= http.StatusOK && code < http.StatusMultipleChoices {
		return nil
	}
	return &StatusError{URL: url, Code: code, Snippet: Snippet(resp.Body(), 512)}
}

// Snippet trims body to at most limit bytes for error messages.
func Snippet(body []byte, limit int) string {
	s := strings.TrimSpace(string(body))
	if limit > 0 && len(s) > limit {
		return s[:limit] + "..."
	}
	return s
}
