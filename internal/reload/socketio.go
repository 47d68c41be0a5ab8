package reload

import (
	"context"
	"net/http"
	"sync/atomic"

	"github.com/vk/themegrid/internal/ctxlog"
	sio "github.com/zishang520/socket.io/v2/socket"
)

// Socket.io event names.
const (
	EventReload = "themegrid:reload"
	EventReport = "themegrid:report"
)

// SocketIO broadcasts notifications to socket.io clients.
type SocketIO struct {
	server  *sio.Server
	handler http.Handler
	clients atomic.Int64
}

// NewSocketIO creates a socket.io server. Mount Handler under /socket.io/.
func NewSocketIO(ctx context.Context) *SocketIO {
	logger := ctxlog.FromContext(ctx).With("component", "socketio")

	opts := sio.DefaultServerOptions()
	opts.SetServeClient(false)
	server := sio.NewServer(nil, opts)
	s := &SocketIO{server: server}

	server.On("connection", func(clients ...any) {
		client := clients[0].(*sio.Socket)
		s.clients.Add(1)
		logger.Debug("Reload client connected.", "sid", client.Id())
		client.On("disconnect", func(...any) {
			s.clients.Add(-1)
			logger.Debug("Reload client disconnected.", "sid", client.Id())
		})
	})

	s.handler = server.ServeHandler(opts)
	return s
}

// Handler serves the socket.io protocol.
func (s *SocketIO) Handler() http.Handler {
	return s.handler
}

// Clients returns the number of connected clients.
func (s *SocketIO) Clients() int {
	return int(s.clients.Load())
}

// Notify emits EventReload.
func (s *SocketIO) Notify(ctx context.Context, n Notification) {
	errs := make([]any, 0, len(n.Errors))
	for _, e := range n.Errors {
		errs = append(errs, e)
	}
	payload := map[string]any{"group": n.Group, "status": n.Status, "errors": errs}
	if err := s.server.Emit(EventReload, payload); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to emit reload event.", "error", err)
	}
}

// Report emits EventReport.
func (s *SocketIO) Report(ctx context.Context, sum Summary) {
	changed := make([]any, 0, len(sum.Changed))
	for _, c := range sum.Changed {
		changed = append(changed, c)
	}
	payload := map[string]any{
		"succeeded": sum.Succeeded,
		"skipped":   sum.Skipped,
		"failed":    sum.Failed,
		"changed":   changed,
	}
	if err := s.server.Emit(EventReport, payload); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to emit report event.", "error", err)
	}
}

// Close disconnects every client.
func (s *SocketIO) Close() {
	s.server.Close(nil)
}
