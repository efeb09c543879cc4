package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.ParseInt(r.URL.Query().Get("user"), 10, 64)
		_ = hub.Serve(w, r, id)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID int64) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + strconv.FormatInt(userID, 10)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func TestHub_PushReachesEveryConnectionOfUser(t *testing.T) {
	hub := NewHub(HubConfig{}, zap.NewNop())
	defer hub.Close()
	srv := newTestServer(t, hub)

	tab1 := dial(t, srv, 20)
	tab2 := dial(t, srv, 20)
	other := dial(t, srv, 30)

	require.Eventually(t, func() bool { return hub.Connections(20) == 2 && hub.Connections(30) == 1 },
		2*time.Second, 10*time.Millisecond)

	require.NoError(t, hub.Push(context.Background(), 20, "ReceiveNotification", map[string]interface{}{"title": "hello"}))

	for _, conn := range []*websocket.Conn{tab1, tab2} {
		env := readEnvelope(t, conn)
		assert.Equal(t, "ReceiveNotification", env["event"])
		assert.Equal(t, "hello", env["data"].(map[string]interface{})["title"])
	}

	require.NoError(t, other.SetReadDeadline(time.Now().Add(100*time.Millisecond)))
	_, _, err := other.ReadMessage()
	assert.Error(t, err, "other users receive nothing")
}

func TestHub_PushWithoutConnections(t *testing.T) {
	hub := NewHub(HubConfig{}, zap.NewNop())
	assert.NoError(t, hub.Push(context.Background(), 99, "ReceiveNotification", "x"))
}

func TestHub_UnregistersOnDisconnect(t *testing.T) {
	hub := NewHub(HubConfig{}, zap.NewNop())
	defer hub.Close()
	srv := newTestServer(t, hub)

	conn := dial(t, srv, 7)
	require.Eventually(t, func() bool { return hub.Connections(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return hub.Connections(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHub_RejectsUnknownOrigin(t *testing.T) {
	hub := NewHub(HubConfig{AllowedOrigins: []string{"https://app.example.com"}}, zap.NewNop())
	defer hub.Close()
	srv := newTestServer(t, hub)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=1"
	header := http.Header{"Origin": []string{"https://evil.example.com"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}
