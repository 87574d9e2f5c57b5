package transport

import (
	"context"
	"fmt"

	"github.com/mabhi256/livetree/internal/protocol"
	"go.uber.org/zap"
)

// Client is the viewer side. Events are acknowledged as they arrive, so the
// server never waits on the viewer's own processing.
type Client struct {
	ep        *Endpoint
	sessionID string
}

func NewClient(link Link, bufferSize int, sessionID string) *Client {
	return &Client{
		ep:        NewEndpoint(link, bufferSize, true),
		sessionID: sessionID,
	}
}

// Hello completes the handshake. The server replies with its version and any queued events.
func (c *Client) Hello(ctx context.Context) error {
	return c.Send(ctx, protocol.Command(protocol.CmdHello, 0))
}

// Send issues a command and returns once the server handled it
func (c *Client) Send(ctx context.Context, m protocol.Message) error {
	if err := c.ep.Send(ctx, m); err != nil {
		return fmt.Errorf("%s: %w", m.Code, err)
	}
	log.Debug("command sent", zap.String("session", c.sessionID), zap.Stringer("code", m.Code), zap.Int32("wparam", m.WParam))
	return nil
}

// Next returns the next event
func (c *Client) Next(ctx context.Context) (protocol.Message, error) {
	select {
	case req, ok := <-c.ep.Incoming():
		if !ok {
			if err := c.ep.Err(); err != nil {
				return protocol.Message{}, err
			}
			return protocol.Message{}, ErrClosed
		}
		return req.Message, nil
	case <-ctx.Done():
		return protocol.Message{}, ctx.Err()
	}
}

func (c *Client) SessionID() string {
	return c.sessionID
}

func (c *Client) Close() error {
	return c.ep.Close()
}
