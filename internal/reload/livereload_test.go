package reload

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialLiveReload(t *testing.T, lr *LiveReload) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(lr)
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteJSON(Command{Command: "hello", Protocols: []string{LiveReloadProtocol}}))
	var hello Command
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&hello))
	assert.Equal(t, "hello", hello.Command)
	assert.Equal(t, []string{LiveReloadProtocol}, hello.Protocols)
	return conn
}

func TestLiveReload(t *testing.T) {
	// Arrange
	lr := NewLiveReload(map[string]string{"styles": "css/style.min.css"})
	conn := dialLiveReload(t, lr)
	require.Eventually(t, func() bool { return lr.Clients() == 1 }, 2*time.Second, 10*time.Millisecond)

	testCases := []struct {
		name string
		note Notification
		want Command
	}{
		{
			name: "stylesheet",
			note: Notification{Group: "styles", Status: "succeeded"},
			want: Command{Command: "reload", Path: "css/style.min.css", LiveCSS: true},
		},
		{
			name: "unknown group reloads the page",
			note: Notification{Group: "html", Status: "succeeded"},
			want: Command{Command: "reload", Path: "html"},
		},
		{
			name: "failure raises an alert",
			note: Notification{Group: "html", Status: "failed", Errors: []string{"boom"}},
			want: Command{Command: "alert", Message: "html: boom"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Act
			lr.Notify(testCtx(), tc.note)

			// Assert
			var got Command
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			require.NoError(t, conn.ReadJSON(&got))
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestScriptHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	ScriptHandler().ServeHTTP(rec, httptest.NewRequest("GET", ScriptPath, nil))

	assert.Equal(t, "application/javascript; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "/livereload")
}
