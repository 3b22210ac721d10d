package redis

import (
	"context"
	"errors"

	"github.com/kbukum/speakerkit/observability"
)

var errClientClosed = errors.New("client closed")

// CheckHealth pings the server and reports the result as a component health.
func (c *Client) CheckHealth(ctx context.Context) observability.Health {
	h := observability.Probe(ctx, "redis", func(ctx context.Context) error {
		c.mu.Lock()
		closed := c.closed
		c.mu.Unlock()
		if closed {
			return errClientClosed
		}
		return c.Ping(ctx)
	})
	h.Details = map[string]string{"addr": c.cfg.Addr}
	return h
}
