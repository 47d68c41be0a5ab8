package reload

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/vk/themegrid/internal/ctxlog"
	"github.com/zishang520/engine.io-client-go/transports"
	"github.com/zishang520/engine.io/v2/types"
	"github.com/zishang520/socket.io-client-go/socket"
)

// ConnectTimeout bounds the initial connection of a Client.
const ConnectTimeout = 15 * time.Second

// Client receives notifications from a running dev server.
type Client struct {
	io *socket.Socket
}

// Dial connects to the socket.io endpoint of a dev server, e.g.
// "http://localhost:3000/socket.io/".
func Dial(ctx context.Context, rawURL string) (*Client, error) {
	logger := ctxlog.FromContext(ctx).With("url", rawURL)

	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}

	opts := socket.DefaultOptions()
	opts.SetPath(parsedURL.Path)
	opts.SetTransports(types.NewSet(transports.WebSocket))

	connectChan := make(chan error, 1)
	baseURL := fmt.Sprintf("%s://%s", parsedURL.Scheme, parsedURL.Host)
	manager := socket.NewManager(baseURL, opts)
	io := manager.Socket("/", opts)

	io.Once(types.EventName("connect"), func(...any) {
		logger.Debug("Connected to reload channel.", "sid", io.Id())
		connectChan <- nil
	})
	io.Once(types.EventName("connect_error"), func(errs ...any) {
		var err error = fmt.Errorf("connect error")
		if len(errs) > 0 {
			if e, ok := errs[0].(error); ok {
				err = e
			}
		}
		connectChan <- err
	})
	io.Connect()

	select {
	case err := <-connectChan:
		if err != nil {
			io.Disconnect()
			return nil, fmt.Errorf("socket.io connection failed: %w", err)
		}
		return &Client{io: io}, nil
	case <-ctx.Done():
		io.Disconnect()
		return nil, ctx.Err()
	case <-time.After(ConnectTimeout):
		io.Disconnect()
		return nil, fmt.Errorf("timed out after %s waiting for socket.io connection", ConnectTimeout)
	}
}

// OnNotification registers fn for every reload notification.
func (c *Client) OnNotification(fn func(Notification)) {
	c.io.On(types.EventName(EventReload), func(data ...any) {
		var n Notification
		if len(data) > 0 && decode(data[0], &n) == nil {
			fn(n)
		}
	})
}

// OnReport registers fn for every cycle summary.
func (c *Client) OnReport(fn func(Summary)) {
	c.io.On(types.EventName(EventReport), func(data ...any) {
		var s Summary
		if len(data) > 0 && decode(data[0], &s) == nil {
			fn(s)
		}
	})
}

// Close disconnects the client.
func (c *Client) Close() {
	c.io.Disconnect()
}

// decode converts a generic socket.io payload into a typed value.
func decode(data any, v any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}
