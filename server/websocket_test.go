package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swipecli/swipecli/controller"
	"github.com/swipecli/swipecli/gesture"
)

func connectWebSocket(t *testing.T, s *Server, url string) *websocket.Conn {
	wsURL := "ws" + strings.TrimPrefix(url, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "should connect to WebSocket")
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return s.Hub().Clients() > 0 }, 2*time.Second, 10*time.Millisecond)
	return conn
}

func readNotification(t *testing.T, conn *websocket.Conn) GestureNotification {
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var notification GestureNotification
	require.NoError(t, conn.ReadJSON(&notification))
	return notification
}

func TestWebSocket_StreamsGestures(t *testing.T) {
	s, ts := newTestServer(t, Options{HistorySize: 4})
	conn := connectWebSocket(t, s, ts.URL)

	r := record(4, gesture.RightDown)
	r.Results = []controller.ActionResult{{Command: "workspace next"}}
	s.Observe(r)
	s.Observe(record(3, gesture.Up))

	first := readNotification(t, conn)
	assert.Equal(t, "2.0", first.JSONRPC)
	assert.Equal(t, "gesture", first.Method)
	assert.Equal(t, "four-finger-swipe-right-down", first.Params.Name)
	assert.Equal(t, gesture.Event{Fingers: 4, Direction: gesture.RightDown}, first.Params.Event)
	require.Len(t, first.Params.Results, 1)
	assert.Equal(t, "workspace next", first.Params.Results[0].Command)

	second := readNotification(t, conn)
	assert.Equal(t, "three-finger-swipe-up", second.Params.Name)
}

func TestWebSocket_Request(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	conn := connectWebSocket(t, s, ts.URL)

	require.NoError(t, conn.WriteJSON(JSONRPCRequest{JSONRPC: "2.0", Method: "status", ID: 1}))

	var resp JSONRPCResponse
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&resp))

	assert.Equal(t, "2.0", resp.JSONRPC)
	assert.Equal(t, 1, int(resp.ID.(float64)))
	assert.Nil(t, resp.Error)
	assert.Equal(t, float64(1), resp.Result.(map[string]interface{})["clients"])
}

func TestWebSocket_InvalidRequests(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	conn := connectWebSocket(t, s, ts.URL)

	tests := []struct {
		name     string
		message  string
		wantCode int
	}{
		{"malformed", `{"jsonrpc":`, ErrCodeParseError},
		{"wrong version", `{"jsonrpc":"1.0","method":"status","id":1}`, ErrCodeInvalidRequest},
		{"missing id", `{"jsonrpc":"2.0","method":"status"}`, ErrCodeInvalidRequest},
		{"missing method", `{"jsonrpc":"2.0","id":1}`, ErrCodeInvalidRequest},
		{"unknown method", `{"jsonrpc":"2.0","method":"devices","id":1}`, ErrCodeMethodNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(tt.message)))

			var resp JSONRPCResponse
			require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
			require.NoError(t, conn.ReadJSON(&resp))

			require.NotNil(t, resp.Error)
			errorMap := resp.Error.(map[string]interface{})
			assert.Equal(t, float64(tt.wantCode), errorMap["code"])
		})
	}
}

func TestWebSocket_BinaryRejected(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	conn := connectWebSocket(t, s, ts.URL)

	require.NoError(t, conn.WriteMessage(websocket.BinaryMessage, []byte{1, 2, 3}))

	var resp JSONRPCResponse
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&resp))
	assert.Equal(t, float64(ErrCodeInvalidRequest), resp.Error.(map[string]interface{})["code"])
}

func TestWebSocket_DisconnectUnregisters(t *testing.T) {
	s, ts := newTestServer(t, Options{})
	conn := connectWebSocket(t, s, ts.URL)

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return s.Hub().Clients() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestWebSocket_RejectsCrossOrigin(t *testing.T) {
	_, ts := newTestServer(t, Options{})

	header := http.Header{}
	header.Set("Origin", "http://evil.example.com")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestWebSocket_CORSAllowsAnyOrigin(t *testing.T) {
	_, ts := newTestServer(t, Options{EnableCORS: true})

	header := http.Header{}
	header.Set("Origin", "http://localhost:3000")
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	require.NoError(t, err)
	conn.Close()
}

func TestIsSameOrigin(t *testing.T) {
	tests := []struct {
		origin string
		host   string
		want   bool
	}{
		{"", "localhost:12300", true},
		{"http://localhost:12300", "localhost:12300", true},
		{"http://localhost:3000", "localhost:12300", false},
		{"://bad", "localhost:12300", false},
	}

	for _, tt := range tests {
		r, err := http.NewRequest(http.MethodGet, "http://"+tt.host+"/ws", nil)
		require.NoError(t, err)
		if tt.origin != "" {
			r.Header.Set("Origin", tt.origin)
		}
		assert.Equal(t, tt.want, isSameOrigin(r), tt.origin)
	}
}

func TestGestureNotificationEncoding(t *testing.T) {
	data, err := json.Marshal(GestureNotification{JSONRPC: "2.0", Method: "gesture", Params: record(3, gesture.LeftUp)})
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "gesture", decoded["method"])
	params := decoded["params"].(map[string]interface{})
	assert.Equal(t, "three-finger-swipe-left-up", params["name"])
	assert.Equal(t, "left-up", params["event"].(map[string]interface{})["direction"])
}
