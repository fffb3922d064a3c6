package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/swipecli/swipecli/controller"
	"github.com/swipecli/swipecli/utils"
)

const (
	// Parse error: Invalid JSON was received by the server
	ErrCodeParseError = -32700

	// Invalid Request: The JSON sent is not a valid Request object
	ErrCodeInvalidRequest = -32600

	// Method not found: The method does not exist / is not available
	ErrCodeMethodNotFound = -32601

	// Server error: Internal JSON-RPC error
	ErrCodeServerError = -32000

	// Invalid params: Invalid method parameters
	ErrCodeInvalidParams = -32602
)

// Server timeouts
const (
	ReadTimeout  = 10 * time.Second
	WriteTimeout = 10 * time.Second
	IdleTimeout  = 120 * time.Second
)

// DefaultAddress is where clients look for the event stream when no address is given
const DefaultAddress = "localhost:12300"

var okResponse = map[string]interface{}{"status": "ok"}

type JSONRPCRequest struct {
	// these fields are all omitempty, so we can report back to client if they are missing
	JSONRPC string          `json:"jsonrpc,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	ID      interface{}     `json:"id,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC response
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   interface{} `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Listener is the part of the gesture controller the server reports on
type Listener interface {
	Stats() controller.Stats
	Summary() string
}

type Options struct {
	Addr        string
	EnableCORS  bool
	HistorySize int
	Version     string

	// Listener is reported by the status method, may be nil
	Listener Listener

	// OnShutdown is called by the server.shutdown method
	OnShutdown func()
}

// Server exposes the gesture stream and a small JSON-RPC interface
type Server struct {
	opts    Options
	hub     *Hub
	methods map[string]HandlerFunc
	started time.Time

	httpServer *http.Server
	listener   net.Listener
}

func New(opts Options) (*Server, error) {
	hub, err := NewHub(opts.HistorySize)
	if err != nil {
		return nil, fmt.Errorf("failed to create gesture history: %w", err)
	}

	s := &Server{
		opts:    opts,
		hub:     hub,
		started: time.Now(),
	}
	s.methods = s.methodRegistry()

	return s, nil
}

// Observe implements controller.Observer
func (s *Server) Observe(record controller.Record) {
	s.hub.Observe(record)
}

func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the HTTP handler with all routes installed
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/", sendBanner)
	mux.HandleFunc("/rpc", s.handleJSONRPC)
	mux.HandleFunc("/ws", s.handleWebSocket)

	var handler http.Handler = mux
	if s.opts.EnableCORS {
		handler = corsMiddleware(mux)
	}
	return handler
}

// NormalizeAddress turns a bare port into ":port"
func NormalizeAddress(addr string) (string, error) {
	// if host is missing, default to all interfaces
	if !strings.Contains(addr, ":") {
		port, err := strconv.Atoi(addr)
		if err != nil {
			return "", fmt.Errorf("invalid port: %v", err)
		}

		addr = fmt.Sprintf(":%d", port)
	}
	return addr, nil
}

// Start binds the listening socket and serves in the background
func (s *Server) Start() error {
	addr, err := NormalizeAddress(s.opts.Addr)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.Handler(),
		ReadTimeout:  ReadTimeout,
		WriteTimeout: WriteTimeout,
		IdleTimeout:  IdleTimeout,
	}

	utils.Info("Starting event stream on http://%s...", listener.Addr())

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Error("Event stream server failed: %v", err)
		}
	}()

	return nil
}

// Addr returns the bound address, empty before Start
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Shutdown disconnects stream clients and stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.closeAll()
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// corsMiddleware handles CORS preflight requests and adds CORS headers to responses.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleJSONRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONRPCResponse(w, newResponse(nil, nil, errParse))
		return
	}

	result, rpcErr := s.call(req)
	sendJSONRPCResponse(w, newResponse(req.ID, result, rpcErr))
}

func sendJSONRPCResponse(w http.ResponseWriter, response JSONRPCResponse) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(response)
}

func sendBanner(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(okResponse)
}
