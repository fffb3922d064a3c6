package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/swipecli/swipecli/controller"
	"github.com/swipecli/swipecli/utils"
)

// HandlerFunc is the signature for JSON-RPC method handlers
type HandlerFunc func(params json.RawMessage) (interface{}, error)

// StatusResponse is the result of the status method
type StatusResponse struct {
	Version       string           `json:"version"`
	StartedAt     time.Time        `json:"started_at"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Clients       int              `json:"clients"`
	Actions       string           `json:"actions"`
	Stats         controller.Stats `json:"stats"`
}

// RecentParams are the optional parameters of the recent method
type RecentParams struct {
	Limit int `json:"limit,omitempty"`
}

// methodRegistry returns a map of method names to handler functions, shared
// by the HTTP and WebSocket endpoints
func (s *Server) methodRegistry() map[string]HandlerFunc {
	return map[string]HandlerFunc{
		"status":          s.handleStatus,
		"recent":          s.handleRecent,
		"server.shutdown": s.handleShutdown,
	}
}

// rpcError is the error member of a JSON-RPC response
type rpcError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// errInvalidParams marks handler errors caused by the request parameters
var errInvalidParams = errors.New("invalid params")

func invalidParams(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", errInvalidParams, fmt.Sprintf(format, args...))
}

var errParse = &rpcError{Code: ErrCodeParseError, Message: "Parse error", Data: "expecting jsonrpc payload"}

func invalidRequest(reason string) *rpcError {
	return &rpcError{Code: ErrCodeInvalidRequest, Message: "Invalid Request", Data: reason}
}

func newResponse(id interface{}, result interface{}, rpcErr *rpcError) JSONRPCResponse {
	response := JSONRPCResponse{JSONRPC: "2.0", ID: id}
	if rpcErr != nil {
		response.Error = rpcErr
	} else {
		response.Result = result
	}
	return response
}

// call validates a request and runs its method. HTTP and websocket
// requests both go through here.
func (s *Server) call(req JSONRPCRequest) (interface{}, *rpcError) {
	switch {
	case req.JSONRPC != "2.0":
		return nil, invalidRequest("'jsonrpc' must be '2.0'")
	case req.ID == nil:
		return nil, invalidRequest("'id' field is required")
	case req.Method == "":
		return nil, invalidRequest("'method' is required")
	}

	utils.Verbose("Request ID: %v, Method: %s, Params: %s", req.ID, req.Method, string(req.Params))

	handler, exists := s.methods[req.Method]
	if !exists {
		return nil, &rpcError{
			Code:    ErrCodeMethodNotFound,
			Message: "Method not found",
			Data:    fmt.Sprintf("Method '%s' not found", req.Method),
		}
	}

	result, err := handler(req.Params)
	if err != nil {
		if errors.Is(err, errInvalidParams) {
			return nil, &rpcError{Code: ErrCodeInvalidParams, Message: "Invalid params", Data: err.Error()}
		}
		utils.Warn("Error executing method %s: %v", req.Method, err)
		return nil, &rpcError{Code: ErrCodeServerError, Message: "Server error", Data: err.Error()}
	}
	return result, nil
}

func (s *Server) handleStatus(params json.RawMessage) (interface{}, error) {
	status := StatusResponse{
		Version:       s.opts.Version,
		StartedAt:     s.started,
		UptimeSeconds: int64(time.Since(s.started).Seconds()),
		Clients:       s.hub.Clients(),
	}

	if s.opts.Listener != nil {
		status.Actions = s.opts.Listener.Summary()
		status.Stats = s.opts.Listener.Stats()
	}

	return status, nil
}

func (s *Server) handleRecent(params json.RawMessage) (interface{}, error) {
	var recentParams RecentParams
	if len(params) > 0 {
		if err := json.Unmarshal(params, &recentParams); err != nil {
			return nil, invalidParams("%v", err)
		}
	}

	if recentParams.Limit < 0 {
		return nil, invalidParams("limit must not be negative")
	}

	return s.hub.Recent(recentParams.Limit), nil
}

func (s *Server) handleShutdown(params json.RawMessage) (interface{}, error) {
	if s.opts.OnShutdown == nil {
		return nil, fmt.Errorf("shutdown is not available")
	}

	// respond before the listener unwinds
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.opts.OnShutdown()
	}()

	return okResponse, nil
}
