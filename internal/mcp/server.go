package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/arturoeanton/go-code-similarity-ollama/internal/service"
)

// Server implements the Model Context Protocol (MCP) server.
// It exposes tools for external AI agents to query the element index.
type Server struct {
	similarity *service.SimilarityService
	port       string
}

// NewServer creates a new MCP server.
func NewServer(similarity *service.SimilarityService, port string) *Server {
	return &Server{similarity: similarity, port: port}
}

// Tool represents an MCP tool definition.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"inputSchema"`
}

// JSONRPCRequest represents a JSON-RPC 2.0 request.
type JSONRPCRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// JSONRPCResponse represents a JSON-RPC 2.0 response.
type JSONRPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

// RPCError represents a JSON-RPC error.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Start begins the MCP server on the configured port.
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/mcp", s.handleRPC)
	mux.HandleFunc("/mcp/sse", s.handleSSE)

	slog.Info("MCP server starting", "port", s.port)
	return http.ListenAndServe(":"+s.port, mux)
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req JSONRPCRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, nil, -32700, "parse error")
		return
	}

	var result interface{}
	var err error

	switch req.Method {
	case "tools/list":
		result = s.listTools()
	case "tools/call":
		result, err = s.callTool(r.Context(), req.Params)
	case "initialize":
		result = map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]string{
				"name":    "codeecho",
				"version": "1.0.0",
			},
			"capabilities": map[string]interface{}{
				"tools": map[string]bool{"listChanged": false},
			},
		}
	default:
		writeError(w, req.ID, -32601, "method not found")
		return
	}

	if err != nil {
		writeError(w, req.ID, -32603, err.Error())
		return
	}

	writeResult(w, req.ID, result)
}

func (s *Server) handleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// Send initial endpoint message
	fmt.Fprintf(w, "event: endpoint\ndata: /mcp\n\n")
	w.(http.Flusher).Flush()

	// Keep connection alive
	<-r.Context().Done()
}

func (s *Server) listTools() map[string]interface{} {
	tools := []Tool{
		{
			Name:        "search_code",
			Description: "Search indexed code elements by semantic similarity to a free-text query",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"query": {"type": "string", "description": "Search query"},
					"threshold": {"type": "number", "description": "Minimum similarity (default 0.5)"},
					"limit": {"type": "integer", "description": "Maximum results (default 10)"}
				},
				"required": ["query"]
			}`),
		},
		{
			Name:        "find_duplicates",
			Description: "Find the most similar pairs of indexed code elements (near-duplicate candidates)",
			InputSchema: json.RawMessage(`{
				"type": "object",
				"properties": {
					"threshold": {"type": "number", "description": "Minimum similarity (default 0.8)"},
					"limit": {"type": "integer", "description": "Maximum pairs (default 10)"}
				}
			}`),
		},
	}
	return map[string]interface{}{"tools": tools}
}

func (s *Server) callTool(ctx context.Context, params json.RawMessage) (interface{}, error) {
	var req struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	switch req.Name {
	case "search_code":
		var args struct {
			Query     string   `json:"query"`
			Threshold *float64 `json:"threshold"`
			Limit     *int     `json:"limit"`
		}
		json.Unmarshal(req.Arguments, &args)
		// Pointers distinguish an omitted argument from an explicit zero.
		threshold, limit := 0.5, 10
		if args.Threshold != nil {
			threshold = *args.Threshold
		}
		if args.Limit != nil {
			limit = *args.Limit
		}

		results, err := s.similarity.SearchText(ctx, args.Query, threshold, limit)
		if err != nil {
			return nil, err
		}

		text := fmt.Sprintf("%d matching elements", len(results))
		for _, res := range results {
			text += fmt.Sprintf("\n%s:%d %s (similarity %.2f)",
				res.Element.Metadata.FilePath, res.Element.Metadata.LineNumber,
				res.Element.Metadata.ElementName, res.Similarity)
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": text},
			},
			"results": results,
		}, nil

	case "find_duplicates":
		var args struct {
			Threshold *float64 `json:"threshold"`
			Limit     *int     `json:"limit"`
		}
		json.Unmarshal(req.Arguments, &args)
		threshold, limit := 0.8, 10
		if args.Threshold != nil {
			threshold = *args.Threshold
		}
		if args.Limit != nil {
			limit = *args.Limit
		}

		pairs, err := s.similarity.FindMostSimilarPairs(ctx, threshold, limit)
		if err != nil {
			return nil, err
		}

		text := fmt.Sprintf("%d near-duplicate pairs", len(pairs))
		for _, p := range pairs {
			text += fmt.Sprintf("\n%s:%d %s <-> %s:%d %s (similarity %.2f)",
				p.Element1.Metadata.FilePath, p.Element1.Metadata.LineNumber, p.Element1.Metadata.ElementName,
				p.Element2.Metadata.FilePath, p.Element2.Metadata.LineNumber, p.Element2.Metadata.ElementName,
				p.Similarity)
		}
		return map[string]interface{}{
			"content": []map[string]interface{}{
				{"type": "text", "text": text},
			},
			"pairs": pairs,
		}, nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", req.Name)
	}
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Result: result}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := JSONRPCResponse{JSONRPC: "2.0", ID: id, Error: &RPCError{Code: code, Message: message}}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
