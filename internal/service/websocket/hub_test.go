package websocket

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartpole/internal/logger"
)

func newTestHub(t *testing.T) (*HubService, *httptest.Server, context.CancelFunc) {
	t.Helper()
	log, err := logger.New(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { log.Close() })

	hub := NewHubService(log)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		if !hub.Register(conn) {
			return
		}
		defer hub.Unregister(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(server.Close)
	t.Cleanup(cancel)
	return hub, server, cancel
}

func dial(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestHub_BroadcastReachesViewers(t *testing.T) {
	hub, server, _ := newTestHub(t)

	a := dial(t, server)
	b := dial(t, server)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	require.True(t, hub.Broadcast([]byte(`{"type":"accident"}`)))

	for _, conn := range []*websocket.Conn{a, b} {
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		_, msg, err := conn.ReadMessage()
		require.NoError(t, err)
		assert.JSONEq(t, `{"type":"accident"}`, string(msg))
	}
}

func TestHub_UnregisterOnDisconnect(t *testing.T) {
	hub, server, _ := newTestHub(t)

	conn := dial(t, server)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	assert.Eventually(t, func() bool { return hub.GetClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_StopsOnCancel(t *testing.T) {
	hub, server, cancel := newTestHub(t)

	conn := dial(t, server)
	require.Eventually(t, func() bool { return hub.GetClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	<-hub.done

	assert.Equal(t, 0, hub.GetClientCount())
	assert.False(t, hub.Broadcast([]byte("late")))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
