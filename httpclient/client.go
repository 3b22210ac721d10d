package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/speakerkit/resilience"
	"github.com/kbukum/speakerkit/version"
)

// Client sends requests to one peer, or to arbitrary absolute URLs when
// BaseURL is empty.
type Client struct {
	cfg     Config
	http    *http.Client
	breaker *resilience.CircuitBreaker
}

// New validates cfg and builds the client and its transport.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	if tlsCfg != nil {
		transport.TLSClientConfig = tlsCfg
	}

	c := &Client{
		cfg:  cfg,
		http: &http.Client{Transport: transport, Timeout: cfg.Timeout},
	}
	if cfg.CircuitBreaker != nil {
		c.breaker = resilience.NewCircuitBreaker(*cfg.CircuitBreaker)
	}
	return c, nil
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string { return c.cfg.BaseURL }

// Available reports whether the breaker would admit a call. Clients
// without a breaker are always available.
func (c *Client) Available() bool {
	return c.breaker == nil || c.breaker.Allows()
}

// CircuitState returns the breaker state, closed when there is none.
func (c *Client) CircuitState() resilience.State {
	if c.breaker == nil {
		return resilience.StateClosed
	}
	return c.breaker.State()
}

// Do sends req under the configured retry and breaker policies. A non-2xx
// reply returns both the Response and an *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	if c.cfg.Retry == nil {
		return c.attempt(ctx, req)
	}
	return resilience.Retry(ctx, *c.cfg.Retry, func() (*Response, error) {
		return c.attempt(ctx, req)
	})
}

func (c *Client) attempt(ctx context.Context, req Request) (resp *Response, err error) {
	if c.breaker == nil {
		return c.send(ctx, req)
	}
	err = c.breaker.Execute(func() error {
		resp, err = c.send(ctx, req)
		return err
	})
	return resp, err
}

func (c *Client) send(ctx context.Context, req Request) (*Response, error) {
	httpReq, err := c.newRequest(ctx, req)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Err: err}
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, transportError(ctx, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := c.readBody(httpResp)
	if err != nil {
		return nil, err
	}
	resp := &Response{StatusCode: httpResp.StatusCode, Header: httpResp.Header, Body: body}
	if !resp.OK() {
		return resp, statusError(httpResp, body, time.Now())
	}
	return resp, nil
}

func (c *Client) readBody(resp *http.Response) ([]byte, error) {
	limit := c.cfg.MaxResponseBytes
	if limit <= 0 {
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, &Error{Kind: KindConnection, Status: resp.StatusCode, Err: err}
		}
		return body, nil
	}

	tooLarge := &Error{Kind: KindTooLarge, Status: resp.StatusCode, Size: resp.ContentLength}
	if resp.ContentLength > limit {
		return nil, tooLarge
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, &Error{Kind: KindConnection, Status: resp.StatusCode, Err: err}
	}
	if int64(len(body)) > limit {
		return nil, tooLarge
	}
	return body, nil
}

func transportError(ctx context.Context, err error) *Error {
	var te interface{ Timeout() bool }
	if ctx.Err() != nil || (errors.As(err, &te) && te.Timeout()) {
		return &Error{Kind: KindTimeout, Err: err}
	}
	return &Error{Kind: KindConnection, Err: err}
}

func (c *Client) newRequest(ctx context.Context, req Request) (*http.Request, error) {
	url := req.Path
	if c.cfg.BaseURL != "" && !absoluteURL(req.Path) {
		url = strings.TrimRight(c.cfg.BaseURL, "/") + "/" + strings.TrimLeft(req.Path, "/")
	}
	body, contentType, err := encodeBody(req.Body)
	if err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, url, body)
	if err != nil {
		return nil, err
	}

	h := httpReq.Header
	h.Set("User-Agent", version.UserAgent())
	if contentType != "" {
		h.Set("Content-Type", contentType)
	}
	if c.cfg.BearerToken != "" {
		h.Set("Authorization", "Bearer "+c.cfg.BearerToken)
	}
	for k, v := range c.cfg.Headers {
		h.Set(k, v)
	}
	for k, vs := range req.Header {
		h[http.CanonicalHeaderKey(k)] = vs
	}
	return httpReq, nil
}

func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	case string:
		return strings.NewReader(v), "text/plain; charset=utf-8", nil
	}
	data, err := json.Marshal(body)
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}
