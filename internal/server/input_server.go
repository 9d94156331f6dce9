package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"worktrack/internal/input"

	"go.uber.org/zap"
)

// InputPingRequest represents a keystroke ping from the browser extension.
// Key identity is deliberately absent; any keystroke qualifies.
type InputPingRequest struct {
	Timestamp int64 `json:"timestamp"` // Unix timestamp in milliseconds, optional
}

// InputServer handles HTTP requests from the browser extension, turning
// keystroke pings into qualifying-input events. It implements input.Source;
// the HTTP listener itself is owned by the caller.
type InputServer struct {
	mu      sync.Mutex
	handler func(input.Event)
	logger  *zap.Logger
}

// NewInputServer creates a new input server.
func NewInputServer(logger *zap.Logger) *InputServer {
	return &InputServer{logger: logger}
}

// StartCapture registers the handler that receives ping events.
func (s *InputServer) StartCapture(handler func(input.Event)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = handler
	return nil
}

// StopCapture deregisters the handler; subsequent pings are dropped.
func (s *InputServer) StopCapture() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
}

// ServeHTTP implements http.Handler
func (s *InputServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Enable CORS for extension
	s.setCORSHeaders(w)

	// Handle preflight requests
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.URL.Path {
	case "/api/v1/input":
		if r.Method == http.MethodPost {
			s.handleInputPing(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	case "/api/v1/health":
		if r.Method == http.MethodGet {
			s.handleHealth(w, r)
		} else {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	default:
		http.NotFound(w, r)
	}
}

// setCORSHeaders sets CORS headers for extension communication
func (s *InputServer) setCORSHeaders(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*") // Extension origin
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Access-Control-Max-Age", "3600")
}

// handleInputPing forwards a keystroke ping to the registered handler.
func (s *InputServer) handleInputPing(w http.ResponseWriter, r *http.Request) {
	var req InputPingRequest
	if r.Body != nil {
		// Body is optional; a bare POST still counts as input.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	ts := time.Now()
	if req.Timestamp > 0 {
		ts = time.UnixMilli(req.Timestamp)
	}

	s.mu.Lock()
	handler := s.handler
	s.mu.Unlock()

	if handler == nil {
		// Tracking is not running; ping is accepted but discarded.
		w.WriteHeader(http.StatusAccepted)
		return
	}

	handler(input.Event{Timestamp: ts})

	s.logger.Debug("Input ping received", zap.Time("timestamp", ts))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}

// handleHealth provides a health check endpoint
func (s *InputServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().Unix(),
	})
}
