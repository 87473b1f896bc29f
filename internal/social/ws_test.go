package social

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dialHub(t *testing.T, h *hub) *websocket.Conn {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		assert.NoError(t, err)
		h.register(ws)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func TestBroadcastDeliversEvent(t *testing.T) {
	h := newHub()
	conn := dialHub(t, h)

	h.broadcast(wsEvent{Type: "message_new", Data: map[string]string{"message": "salut"}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var evt wsEvent
	require.NoError(t, json.Unmarshal(payload, &evt))
	assert.Equal(t, "message_new", evt.Type)
}

func TestBroadcastFromConcurrentSenders(t *testing.T) {
	h := newHub()
	conn := dialHub(t, h)

	// Many handlers may broadcast at once; writes to one connection must
	// be serialized or gorilla panics.
	const senders = 20
	var wg sync.WaitGroup
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			h.broadcast(wsEvent{Type: "message_new", Data: n})
		}(i)
	}

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for i := 0; i < senders; i++ {
		_, _, err := conn.ReadMessage()
		require.NoError(t, err)
	}
	wg.Wait()
}
