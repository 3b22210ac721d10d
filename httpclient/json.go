package httpclient

import (
	"context"
	"encoding/json"
	"net/http"
)

// JSON sends req and decodes a 2xx reply body into T. An empty body leaves
// the zero value. Decode failures are not retried.
func JSON[T any](ctx context.Context, c *Client, req Request) (T, error) {
	var out T
	resp, err := c.Do(ctx, req)
	if err != nil {
		return out, err
	}
	if len(resp.Body) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(resp.Body, &out); err != nil {
		return out, &Error{Kind: KindDecode, Status: resp.StatusCode, Body: resp.Body, Err: err}
	}
	return out, nil
}

// GetJSON is JSON for a GET of path.
func GetJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	return JSON[T](ctx, c, Request{Method: http.MethodGet, Path: path})
}

// PostJSON is JSON for a POST of body to path.
func PostJSON[T any](ctx context.Context, c *Client, path string, body any) (T, error) {
	return JSON[T](ctx, c, Request{Method: http.MethodPost, Path: path, Body: body})
}
