// Package relay posts contact form data to a third-party form relay
// (formsubmit.co and similar services) and implements guard.Sender.
//
// The default client uses the default HTTP transport. Under js/wasm that
// transport is backed by the browser's fetch API, so the request carries the
// page's origin exactly as a plain form post would.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dalemusser/formguard/guard"
	"go.uber.org/zap"
)

// Encoding selects the request body format.
type Encoding int

const (
	// Multipart sends multipart/form-data, as a browser FormData body does.
	// It is the default.
	Multipart Encoding = iota
	// FormURLEncoded sends application/x-www-form-urlencoded.
	FormURLEncoded
)

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	StatusCode int
	Status     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("relay: unexpected status %s", e.Status)
}

// maxDrainBytes bounds how much of a response body is read before closing,
// so keep-alive connections can be reused.
const maxDrainBytes = 64 << 10

// Client sends form entries to a relay endpoint.
type Client struct {
	http     *http.Client
	encoding Encoding
	logger   *zap.Logger
	header   http.Header
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) {
		if c != nil {
			cl.http = c
		}
	}
}

// WithTimeout bounds the whole request. Zero means no timeout, which is the
// default.
func WithTimeout(d time.Duration) Option {
	return func(cl *Client) {
		cp := *cl.http
		cp.Timeout = d
		cl.http = &cp
	}
}

// WithMultipart sends multipart/form-data bodies.
func WithMultipart() Option {
	return func(cl *Client) { cl.encoding = Multipart }
}

// WithURLEncoded sends application/x-www-form-urlencoded bodies.
func WithURLEncoded() Option {
	return func(cl *Client) { cl.encoding = FormURLEncoded }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(cl *Client) {
		if l != nil {
			cl.logger = l
		}
	}
}

// WithHeader adds a header to every request.
func WithHeader(key, value string) Option {
	return func(cl *Client) { cl.header.Add(key, value) }
}

// New creates a Client.
func New(opts ...Option) *Client {
	c := &Client{
		http:   &http.Client{},
		logger: zap.NewNop(),
		header: http.Header{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ guard.Sender = (*Client)(nil)

// Send posts entries to action. It returns nil for any 2xx response, a
// *StatusError for other statuses, and a wrapped error when the request
// itself fails.
func (c *Client) Send(ctx context.Context, action string, entries []guard.Entry) error {
	if _, err := url.Parse(action); err != nil || strings.TrimSpace(action) == "" {
		return fmt.Errorf("relay: invalid action %q", action)
	}

	body, contentType, err := Encode(c.encoding, entries)
	if err != nil {
		return fmt.Errorf("relay: encode form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, action, body)
	if err != nil {
		return fmt.Errorf("relay: build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("relay request failed", zap.String("action", action), zap.Error(err))
		return fmt.Errorf("relay: post %s: %w", action, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxDrainBytes))

	c.logger.Debug("relay response",
		zap.String("action", action),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	}
	return nil
}

// Encode renders entries as a request body in the given encoding and
// returns the matching Content-Type.
func Encode(enc Encoding, entries []guard.Entry) (io.Reader, string, error) {
	switch enc {
	case FormURLEncoded:
		return strings.NewReader(encodeURL(entries)), "application/x-www-form-urlencoded", nil
	default:
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		for _, e := range entries {
			if err := w.WriteField(e.Name, e.Value); err != nil {
				return nil, "", err
			}
		}
		if err := w.Close(); err != nil {
			return nil, "", err
		}
		return &buf, w.FormDataContentType(), nil
	}
}

// encodeURL keeps entry order and repeated names, unlike url.Values.Encode.
func encodeURL(entries []guard.Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(e.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(e.Value))
	}
	return b.String()
}
