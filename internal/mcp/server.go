package mcp

import (
	"fmt"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog"

	"github.com/adx-tools/adx/internal/codec"
	"github.com/adx-tools/adx/internal/query"
	"github.com/adx-tools/adx/pkg/types"
)

const (
	// ServerName is the MCP server name
	ServerName = "adx"
	// ServerVersion is the current server version
	ServerVersion = "1.0.0"
)

// Server exposes one interchange document over MCP so agents and editors
// can inspect analysis data without a disassembler.
type Server struct {
	mcp   *server.MCPServer
	model *types.RecordModel
	index *query.Index
	path  string
	log   zerolog.Logger
}

// NewServer loads an interchange file and builds the MCP server around it.
func NewServer(path string, mode codec.Mode, log zerolog.Logger) (*Server, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	model, err := codec.Decode(data, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}

	s := &Server{
		mcp:   server.NewMCPServer(ServerName, ServerVersion),
		model: model,
		index: query.NewIndex(model),
		path:  path,
		log:   log,
	}
	s.registerTools()
	return s, nil
}

// Serve runs the MCP server on stdio and blocks until the client hangs up.
// Stdout carries the protocol; all logging goes to the configured logger.
func (s *Server) Serve() error {
	s.log.Info().
		Str("file", s.path).
		Int("addresses", s.index.Len()).
		Msg("serving interchange document over MCP")
	return server.ServeStdio(s.mcp)
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(queryAddressTool(), s.handleQueryAddress)
	s.mcp.AddTool(listFunctionsTool(), s.handleListFunctions)
	s.mcp.AddTool(getMetadataTool(), s.handleGetMetadata)
}
