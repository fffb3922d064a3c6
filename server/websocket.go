package server

import (
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/swipecli/swipecli/utils"
)

const writeWait = 10 * time.Second

type wsConnection struct {
	conn    *websocket.Conn
	remote  string
	send    chan []byte
	writeMu sync.Mutex
}

func newUpgrader(enableCORS bool) *websocket.Upgrader {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}

	if enableCORS {
		upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	} else {
		upgrader.CheckOrigin = isSameOrigin
	}

	return &upgrader
}

// handleWebSocket streams gesture notifications to the client. The client
// may also send JSON-RPC requests, answered on the same connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := newUpgrader(s.opts.EnableCORS).Upgrade(w, r, nil)
	if err != nil {
		utils.Verbose("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	wsConn := &wsConnection{
		conn:   conn,
		remote: r.RemoteAddr,
		send:   make(chan []byte, clientBuffer),
	}

	s.hub.register(wsConn)
	defer s.hub.unregister(wsConn)
	utils.Verbose("Stream client %s connected", wsConn.remote)

	go wsConn.writeNotifications()

	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			// connection closed or error
			utils.Verbose("Stream client %s disconnected: %v", wsConn.remote, err)
			break
		}

		if messageType != websocket.TextMessage {
			_ = wsConn.sendJSON(newResponse(nil, nil, invalidRequest("only text messages accepted for requests")))
			continue
		}

		s.handleWSMessage(wsConn, message)
	}
}

func isSameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	return originURL.Host == r.Host
}

func (s *Server) handleWSMessage(wsConn *wsConnection, message []byte) {
	var req JSONRPCRequest
	if err := json.Unmarshal(message, &req); err != nil {
		_ = wsConn.sendJSON(newResponse(nil, nil, errParse))
		return
	}

	result, rpcErr := s.call(req)
	_ = wsConn.sendJSON(newResponse(req.ID, result, rpcErr))
}

// writeNotifications forwards queued notifications until the hub closes the
// queue, then closes the connection so the read loop ends too.
func (wsc *wsConnection) writeNotifications() {
	defer wsc.conn.Close()

	for payload := range wsc.send {
		if err := wsc.write(websocket.TextMessage, payload); err != nil {
			utils.Verbose("Failed to write to stream client %s: %v", wsc.remote, err)
			return
		}
	}

	_ = wsc.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

func (wsc *wsConnection) write(messageType int, data []byte) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	_ = wsc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return wsc.conn.WriteMessage(messageType, data)
}

func (wsc *wsConnection) sendJSON(v interface{}) error {
	wsc.writeMu.Lock()
	defer wsc.writeMu.Unlock()
	_ = wsc.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return wsc.conn.WriteJSON(v)
}
