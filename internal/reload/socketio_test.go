package reload

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketIO_RoundTrip(t *testing.T) {
	// Arrange
	ctx := testCtx()
	server := NewSocketIO(ctx)
	t.Cleanup(server.Close)

	mux := http.NewServeMux()
	mux.Handle("/socket.io/", server.Handler())
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	client, err := Dial(ctx, srv.URL+"/socket.io/")
	require.NoError(t, err)
	t.Cleanup(client.Close)

	notes := make(chan Notification, 4)
	summaries := make(chan Summary, 4)
	client.OnNotification(func(n Notification) { notes <- n })
	client.OnReport(func(s Summary) { summaries <- s })
	require.Eventually(t, func() bool { return server.Clients() == 1 }, 5*time.Second, 10*time.Millisecond)

	// Act
	hub := NewHub(server)
	hub.PublishReport(ctx, sampleReport(), []string{"/src/a.scss"})

	// Assert
	select {
	case n := <-notes:
		assert.Equal(t, Notification{Group: "styles", Status: "succeeded", Errors: []string{}}, n)
	case <-time.After(5 * time.Second):
		t.Fatal("no notification received")
	}
	select {
	case s := <-summaries:
		assert.Equal(t, 1, s.Failed)
		assert.Equal(t, []string{"/src/a.scss"}, s.Changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no summary received")
	}
}
