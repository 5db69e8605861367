// Package client talks to a RESP server over a single connection.
package client

import (
	"context"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/eternalApril/moonwire/internal/resp"
)

var ErrNoCommand = errors.New("client: empty command")

// Client sends one command at a time and waits for its reply.
// It is safe for concurrent use; calls are serialized
type Client struct {
	nc   net.Conn
	conn *resp.Conn
	mu   sync.Mutex
}

// Dial connects to addr
func Dial(ctx context.Context, addr string, opts ...resp.ConnOption) (*Client, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, err
	}

	return &Client{
		nc:   nc,
		conn: resp.NewConn(nc, opts...),
	}, nil
}

// Do sends args as a command and returns the reply. Error replies from the
// server are returned as values, not as errors.
// A deadline on ctx bounds the whole round trip
func (c *Client) Do(ctx context.Context, args ...string) (resp.Value, error) {
	if len(args) == 0 {
		return resp.Value{}, ErrNoCommand
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	deadline, _ := ctx.Deadline()
	if err := c.nc.SetDeadline(deadline); err != nil {
		return resp.Value{}, err
	}

	stop := context.AfterFunc(ctx, func() {
		// unblock a pending read or write
		c.nc.SetDeadline(time.Now()) //nolint:errcheck
	})
	defer stop()

	if err := c.conn.Send(resp.MakeCommandStrings(args[0], args[1:]...)); err != nil {
		return resp.Value{}, c.ctxErr(ctx, err)
	}

	v, err := c.conn.ReadValue()
	if err != nil {
		return resp.Value{}, c.ctxErr(ctx, err)
	}

	return v, nil
}

// ctxErr prefers the context error over the deadline error it caused
func (c *Client) ctxErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Close closes the connection
func (c *Client) Close() error {
	return c.conn.Close()
}
