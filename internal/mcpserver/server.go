// Package mcpserver exposes the session tools of one SkillBridge session over
// the Model Context Protocol, so an external MCP client can read resumes,
// inspect and edit session state, and export the plan.
package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/skillbridge/skillbridge/internal/state"
	"github.com/skillbridge/skillbridge/internal/tool"
)

// StateURI is the resource holding a JSON snapshot of the session.
const StateURI = "skillbridge://state"

// Server wraps an MCP server bound to one session.
// MCP requests may arrive concurrently; every tool call and state read holds mu
// because state.Session is not goroutine-safe.
type Server struct {
	mu        sync.Mutex
	sess      *state.Session
	registry  *tool.Registry
	mcpServer *server.MCPServer
}

// New registers every tool in reg (which must be bound to sess) plus the
// state resource.
func New(sess *state.Session, reg *tool.Registry, version string) *Server {
	s := &Server{
		sess:      sess,
		registry:  reg,
		mcpServer: server.NewMCPServer("skillbridge", version, server.WithToolCapabilities(false)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// MCPServer returns the underlying server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcpServer
}

// ServeStdio initialises the tools and serves on stdin/stdout until the
// client disconnects.
func (s *Server) ServeStdio(ctx context.Context) error {
	if err := s.registry.InitAll(ctx); err != nil {
		return err
	}
	defer func() {
		if err := s.registry.CloseAll(); err != nil {
			log.Printf("[MCP] %v", err)
		}
	}()

	log.Printf("[MCP] Serving %d tools on stdio (session %s)", len(s.registry.Names()), s.sess.ID)
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) registerTools() {
	for _, t := range s.registry.List() {
		s.mcpServer.AddTool(
			mcp.NewToolWithRawSchema(t.Name(), t.Description(), t.InputSchema()),
			s.handlerFor(t),
		)
	}
}

func (s *Server) handlerFor(t tool.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args, err := json.Marshal(request.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid arguments: %v", err)), nil
		}

		s.mu.Lock()
		res, err := t.Execute(ctx, args)
		s.mu.Unlock()

		if err != nil {
			log.Printf("[MCP] %s failed: %v", t.Name(), err)
			return mcp.NewToolResultError(err.Error()), nil
		}
		if res.Error != "" {
			return mcp.NewToolResultError(res.Output), nil
		}
		return mcp.NewToolResultText(res.Output), nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(StateURI, "Session state",
		mcp.WithResourceDescription("Every key written during this session, in string form"),
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		data, err := s.snapshotJSON()
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      StateURI,
				MIMEType: "application/json",
				Text:     string(data),
			},
		}, nil
	})
}

func (s *Server) snapshotJSON() ([]byte, error) {
	s.mu.Lock()
	snap := s.sess.Snapshot()
	s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	return data, nil
}
