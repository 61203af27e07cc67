// Package mcpserver exposes the calculator to MCP clients over stdio.
package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/charlie0129/calc/pkg/engine"
	"github.com/charlie0129/calc/pkg/version"
)

// Calculator is the part of the daemon client the tools need.
type Calculator interface {
	Press(keys string) (*engine.State, error)
	Clear() (*engine.State, error)
	GetState() (*engine.State, error)
}

// MCPServer wraps a calculator to provide MCP tool access.
type MCPServer struct {
	calc   Calculator
	server *server.MCPServer
}

// New creates a new MCP server backed by calc.
func New(calc Calculator) *MCPServer {
	s := &MCPServer{
		calc: calc,
	}

	mcpServer := server.NewMCPServer(
		"calc",
		version.Version,
		server.WithToolCapabilities(true),
	)

	s.registerTools(mcpServer)

	s.server = mcpServer
	return s
}

func (s *MCPServer) registerTools(mcpServer *server.MCPServer) {
	mcpServer.AddTool(
		mcp.NewTool("press",
			mcp.WithDescription("Press calculator keys and return the display. Keys are digits, the decimal separator, + - * / =, or one named key such as Enter, Backspace, Escape or F9."),
			mcp.WithString("keys",
				mcp.Required(),
				mcp.Description("Key sequence (e.g., '12+3,5=', 'Backspace')"),
			),
		),
		s.handlePress,
	)

	mcpServer.AddTool(
		mcp.NewTool("clear",
			mcp.WithDescription("Clear the calculator. This is the only way out of the error state."),
		),
		s.handleClear,
	)

	mcpServer.AddTool(
		mcp.NewTool("display",
			mcp.WithDescription("Show what the calculator display reads right now."),
		),
		s.handleDisplay,
	)
}

func (s *MCPServer) handlePress(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	keys := request.GetString("keys", "")
	if keys == "" {
		return mcp.NewToolResultError("keys parameter is required"), nil
	}

	st, err := s.calc.Press(keys)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("press failed: %v", err)), nil
	}
	return result(st), nil
}

func (s *MCPServer) handleClear(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.calc.Clear()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("clear failed: %v", err)), nil
	}
	return result(st), nil
}

func (s *MCPServer) handleDisplay(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := s.calc.GetState()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("get display failed: %v", err)), nil
	}
	return result(st), nil
}

func result(st *engine.State) *mcp.CallToolResult {
	if st.Error {
		return mcp.NewToolResultText(fmt.Sprintf("%s (the last computation failed, clear to continue)", st.Display))
	}
	if st.Operation != engine.OpNone && st.WaitingForOperand {
		return mcp.NewToolResultText(fmt.Sprintf("%s %s", st.Display, st.Operation.Symbol()))
	}
	return mcp.NewToolResultText(st.Display)
}

// ServeStdio starts the MCP server on stdio.
func (s *MCPServer) ServeStdio() error {
	return server.ServeStdio(s.server)
}
