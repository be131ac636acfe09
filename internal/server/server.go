package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ironsheep/color-variations/internal/imaging"
	"github.com/ironsheep/color-variations/internal/variation"
)

// Version is reported in serverInfo.
const Version = "0.2.0"

// Server handles MCP protocol communication
type Server struct {
	cache  *imaging.ImageCache
	runner *variation.Runner
	log    *zap.Logger

	in  io.Reader
	out io.Writer

	// mu guards enc; responses and notifications from run forwarders share it.
	mu  sync.Mutex
	enc *json.Encoder

	ctx     context.Context
	stop    context.CancelFunc
	pending sync.WaitGroup
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// MCPNotification represents an outgoing notification (no ID)
type MCPNotification struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// New creates a server that reads stdin and writes stdout.
func New(log *zap.Logger) *Server {
	return NewWithIO(log, os.Stdin, os.Stdout)
}

// NewWithIO creates a server on the given streams.
func NewWithIO(log *zap.Logger, in io.Reader, out io.Writer) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	ctx, stop := context.WithCancel(context.Background())
	return &Server{
		cache:  imaging.NewImageCache(),
		runner: variation.NewRunner(log.Named("runner")),
		log:    log,
		in:     in,
		out:    out,
		enc:    json.NewEncoder(out),
		ctx:    ctx,
		stop:   stop,
	}
}

// Run serves requests until the input is closed. An active generation run is
// then cancelled and its remaining notifications are flushed before Run
// returns.
func (s *Server) Run() error {
	defer s.shutdown()

	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Warn("Failed to parse request", zap.Error(err))
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			s.send(resp)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

func (s *Server) shutdown() {
	if s.runner.Cancel() {
		s.log.Info("Input closed, cancelling active run")
	}
	s.stop()
	s.pending.Wait()
	s.cache.Clear()
}

// wait blocks until every run forwarder has delivered its terminal
// notification.
func (s *Server) wait() {
	s.pending.Wait()
}

// send encodes one message to the output.
func (s *Server) send(v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(v); err != nil {
		s.log.Error("Failed to encode message", zap.Error(err))
	}
}

// notify sends a JSON-RPC notification.
func (s *Server) notify(method string, params interface{}) {
	s.send(&MCPNotification{JSONRPC: "2.0", Method: method, Params: params})
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools":   map[string]interface{}{},
				"logging": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "color-variations-mcp",
				"version": Version,
			},
		},
	}
}
