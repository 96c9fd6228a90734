package realtime

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, user string) *websocket.Conn {
	t.Helper()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + user
	c, _, err := websocket.DefaultDialer.Dial(u, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func waitOnline(t *testing.T, h *Hub, user string) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Online(user) }, 2*time.Second, 10*time.Millisecond)
}

func TestHubPush(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	c := dial(t, srv, "u1")
	waitOnline(t, h, "u1")

	h.Push("u1", "chat.message", map[string]string{"body": "namaste"})
	h.Push("nobody", "chat.message", nil) // offline users are skipped

	var got struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, c.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, c.ReadJSON(&got))
	assert.Equal(t, "chat.message", got.Event)
	assert.Equal(t, "namaste", got.Data["body"])
}

func TestHubReplacesOlderConnection(t *testing.T) {
	h := NewHub(nil)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, r.URL.Query().Get("user"))
	}))
	defer srv.Close()

	first := dial(t, srv, "u1")
	waitOnline(t, h, "u1")
	second := dial(t, srv, "u1")

	require.NoError(t, first.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := first.ReadMessage()
	require.Error(t, err, "the older connection is closed")

	h.Push("u1", "ping", "x")
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := second.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(msg), `"event":"ping"`)
}

func TestHubChecksOrigin(t *testing.T) {
	h := NewHub(func(origin string) bool { return origin == "https://craftmandu.app" })
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Serve(w, r, r.URL.Query().Get("user"))
	}))
	defer srv.Close()
	u := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=u1"

	_, res, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {"https://evil.example"}})
	require.Error(t, err)
	require.NotNil(t, res)
	assert.Equal(t, http.StatusForbidden, res.StatusCode)
	assert.False(t, h.Online("u1"))

	c, _, err := websocket.DefaultDialer.Dial(u, http.Header{"Origin": {"https://craftmandu.app"}})
	require.NoError(t, err)
	defer c.Close()
	waitOnline(t, h, "u1")
}
