// Package mcpserver exposes a tool registry over the Model Context Protocol.
package mcpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	stdlog "log"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/hyperifyio/ddgsearch/internal/llmtools"
)

// Dispatcher answers tool invocations; *llmtools.Registry implements it.
type Dispatcher interface {
	Specs() []llmtools.ToolSpec
	Get(name string) (llmtools.ToolDefinition, bool)
	Dispatch(ctx context.Context, name string, args json.RawMessage) llmtools.Payload
}

// Server is an MCP server whose tool calls never fail at the protocol level.
// Calls naming a tool outside the catalog are answered by the dispatcher
// with an error-flagged result instead of a JSON-RPC error.
type Server struct {
	*server.MCPServer
	d Dispatcher
}

// New builds an MCP server advertising every tool of d. Tool calls are
// forwarded to d.Dispatch.
func New(d Dispatcher, name, version string) (*Server, error) {
	if d == nil {
		return nil, errors.New("mcpserver: dispatcher is nil")
	}
	s := server.NewMCPServer(name, version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)
	for _, spec := range d.Specs() {
		tool := mcp.NewToolWithRawSchema(spec.Name, spec.Description, spec.JSONSchema)
		s.AddTool(tool, handlerFor(d))
	}
	return &Server{MCPServer: s, d: d}, nil
}

// HandleMessage answers one JSON-RPC message.
func (s *Server) HandleMessage(ctx context.Context, raw json.RawMessage) mcp.JSONRPCMessage {
	if resp, ok := s.unknownToolCall(ctx, raw); ok {
		return resp
	}
	return s.MCPServer.HandleMessage(ctx, raw)
}

type toolCallMessage struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"params"`
}

// unknownToolCall reports whether raw is a tools/call request for a name the
// dispatcher does not know, and if so returns the response for it.
func (s *Server) unknownToolCall(ctx context.Context, raw []byte) (mcp.JSONRPCMessage, bool) {
	var msg toolCallMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, false
	}
	if msg.Method != string(mcp.MethodToolsCall) || len(msg.ID) == 0 {
		return nil, false
	}
	if _, known := s.d.Get(msg.Params.Name); known {
		return nil, false
	}
	var id mcp.RequestId
	if err := json.Unmarshal(msg.ID, &id); err != nil {
		return nil, false
	}
	p := s.d.Dispatch(ctx, msg.Params.Name, msg.Params.Arguments)
	return mcp.JSONRPCResponse{JSONRPC: mcp.JSONRPC_VERSION, ID: id, Result: toResult(p)}, true
}

func handlerFor(d Dispatcher) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := rawArguments(req.Params.Arguments)
		if err != nil {
			return mcp.NewToolResultError(llmtools.ErrorPayload(err).Text), nil
		}
		return toResult(d.Dispatch(ctx, req.Params.Name, args)), nil
	}
}

// rawArguments re-encodes the decoded argument value. A nil value yields a
// nil message so the dispatcher can tell "no payload" apart from "{}".
func rawArguments(v any) (json.RawMessage, error) {
	if v == nil {
		return nil, nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		return raw, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", llmtools.ErrInvalidArguments, err)
	}
	return b, nil
}

func toResult(p llmtools.Payload) *mcp.CallToolResult {
	if p.IsError {
		return mcp.NewToolResultError(p.Text)
	}
	return mcp.NewToolResultText(p.Text)
}

// ServeStdio runs the line-delimited JSON-RPC transport on in/out until the
// input closes or ctx is cancelled. A cancelled context is not an error.
func ServeStdio(ctx context.Context, s *Server, in io.Reader, out io.Writer) error {
	w := &syncWriter{w: out}
	stdio := server.NewStdioServer(s.MCPServer)
	errLogger := log.With().Str("component", "mcp").Logger()
	stdio.SetErrorLogger(stdlog.New(errLogger, "", 0))

	pr, pw := io.Pipe()
	go s.filter(ctx, in, pw, w)

	log.Info().Msg("serving MCP on stdio")
	err := stdio.Listen(ctx, pr, w)
	_ = pr.Close()
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
		return fmt.Errorf("stdio transport: %w", err)
	}
	return nil
}

// filter answers unknown tool calls itself and passes every other line on to
// the stdio server.
func (s *Server) filter(ctx context.Context, in io.Reader, pass *io.PipeWriter, out io.Writer) {
	r := bufio.NewReader(in)
	for {
		line, err := r.ReadBytes('\n')
		if len(line) > 0 {
			if resp, ok := s.unknownToolCall(ctx, line); ok {
				if werr := writeMessage(out, resp); werr != nil {
					_ = pass.CloseWithError(werr)
					return
				}
			} else if _, werr := pass.Write(line); werr != nil {
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				_ = pass.Close()
			} else {
				_ = pass.CloseWithError(err)
			}
			return
		}
	}
}

func writeMessage(w io.Writer, msg mcp.JSONRPCMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// syncWriter serializes whole-line writes from the filter and the stdio server.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (w *syncWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.w.Write(p)
}
