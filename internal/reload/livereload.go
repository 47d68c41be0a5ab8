package reload

import (
	"context"
	"net/http"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/vk/themegrid/internal/ctxlog"
)

const (
	wsReadBufferSize  = 1024
	wsWriteBufferSize = 1024
	wsWriteTimeout    = 10 * time.Second
)

// LiveReloadProtocol is the protocol announced in the hello handshake.
const LiveReloadProtocol = "http://livereload.com/protocols/official-7"

// Command is a LiveReload protocol message.
type Command struct {
	Command    string   `json:"command"`
	Protocols  []string `json:"protocols,omitempty"`
	ServerName string   `json:"serverName,omitempty"`
	Path       string   `json:"path,omitempty"`
	LiveCSS    bool     `json:"liveCSS,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// LiveReload speaks the LiveReload websocket protocol. Stylesheet-only
// changes are sent with liveCSS so browsers can swap them in place.
type LiveReload struct {
	upgrader websocket.Upgrader

	mu    sync.Mutex
	conns map[*websocket.Conn]*sync.Mutex
	// outputs maps a group to a representative output path.
	outputs map[string]string
}

// NewLiveReload creates the endpoint. outputs maps a group id to the path,
// relative to the served root, that a reload of that group refers to.
func NewLiveReload(outputs map[string]string) *LiveReload {
	return &LiveReload{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  wsReadBufferSize,
			WriteBufferSize: wsWriteBufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		conns:   make(map[*websocket.Conn]*sync.Mutex),
		outputs: outputs,
	}
}

// ServeHTTP upgrades the connection and keeps it until the client leaves.
func (l *LiveReload) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := ctxlog.FromContext(r.Context())
	conn, err := l.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("LiveReload upgrade failed.", "error", err)
		return
	}
	writeMu := &sync.Mutex{}

	l.mu.Lock()
	l.conns[conn] = writeMu
	l.mu.Unlock()
	defer func() {
		l.mu.Lock()
		delete(l.conns, conn)
		l.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		var cmd Command
		if err := conn.ReadJSON(&cmd); err != nil {
			return
		}
		if cmd.Command == "hello" {
			hello := Command{Command: "hello", Protocols: []string{LiveReloadProtocol}, ServerName: "themegrid"}
			if err := write(conn, writeMu, hello); err != nil {
				return
			}
		}
	}
}

// Clients returns the number of open connections.
func (l *LiveReload) Clients() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.conns)
}

// Notify sends a reload command for a succeeded task and an alert for a
// failed one.
func (l *LiveReload) Notify(ctx context.Context, n Notification) {
	var cmd Command
	if n.Failed() {
		cmd = Command{Command: "alert", Message: n.Group + ": " + strings.Join(n.Errors, "; ")}
	} else {
		p := l.outputs[n.Group]
		if p == "" {
			p = n.Group
		}
		cmd = Command{Command: "reload", Path: p, LiveCSS: strings.EqualFold(path.Ext(p), ".css")}
	}
	l.broadcast(ctx, cmd)
}

// Report is a no-op; LiveReload has no summary message.
func (l *LiveReload) Report(ctx context.Context, s Summary) {}

func (l *LiveReload) broadcast(ctx context.Context, cmd Command) {
	l.mu.Lock()
	targets := make(map[*websocket.Conn]*sync.Mutex, len(l.conns))
	for c, m := range l.conns {
		targets[c] = m
	}
	l.mu.Unlock()

	for conn, writeMu := range targets {
		if err := write(conn, writeMu, cmd); err != nil {
			ctxlog.FromContext(ctx).Debug("LiveReload write failed.", "error", err)
			_ = conn.Close()
		}
	}
}

func write(conn *websocket.Conn, mu *sync.Mutex, v any) error {
	mu.Lock()
	defer mu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}
