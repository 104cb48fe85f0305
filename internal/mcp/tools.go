package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/adx-tools/adx/internal/query"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
)

// handleQueryAddress handles the query_address tool invocation
func (s *Server) handleQueryAddress(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}

	addrStr, ok := args["address"].(string)
	if !ok || addrStr == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "address parameter is required", map[string]interface{}{
			"param":  "address",
			"reason": "missing or empty",
		})
	}
	addr, err := query.ParseAddress(addrStr)
	if err != nil {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid address", map[string]interface{}{
			"param":  "address",
			"reason": err.Error(),
		})
	}

	before := getIntDefault(args, "before", 1)
	after := getIntDefault(args, "after", 1)
	if before < 0 || after < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "before/after must be non-negative", nil)
	}

	result := s.index.Context(addr, before, after)

	response := map[string]interface{}{
		"address": query.FormatAddress(result.Address),
		"before":  entriesToJSON(result.Before),
		"current": entryToJSON(result.Current),
		"after":   entriesToJSON(result.After),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListFunctions handles the list_functions tool invocation
func (s *Server) handleListFunctions(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, _ := request.Params.Arguments.(map[string]interface{})

	limit := getIntDefault(args, "limit", 100)
	if limit < 1 || limit > 1000 {
		return nil, newMCPError(ErrorCodeInvalidParams, "limit must be between 1 and 1000", map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}
	namedOnly := getBoolDefault(args, "named_only", false)

	functions := make([]map[string]interface{}, 0, limit)
	truncated := false
	for _, addr := range s.model.Functions {
		name := s.model.Names[addr]
		if namedOnly && name == "" {
			continue
		}
		if len(functions) >= limit {
			truncated = true
			break
		}
		entry := map[string]interface{}{
			"address": query.FormatAddress(addr),
		}
		if name != "" {
			entry["name"] = name
		}
		functions = append(functions, entry)
	}

	response := map[string]interface{}{
		"functions": functions,
		"truncated": truncated,
		"total":     len(s.model.Functions),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetMetadata handles the get_metadata tool invocation
func (s *Server) handleGetMetadata(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := map[string]interface{}{
		"file":              s.path,
		"schema_version":    s.model.SchemaVersion,
		"binary_identifier": s.model.BinaryID,
		"base_address":      query.FormatAddress(s.model.BaseAddress),
		"counts": map[string]interface{}{
			"functions":  len(s.model.Functions),
			"names":      len(s.model.Names),
			"comments":   len(s.model.Comments),
			"structures": len(s.model.Structures),
		},
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

func entryToJSON(e query.Entry) map[string]interface{} {
	payload := map[string]interface{}{
		"address": query.FormatAddress(e.Address),
	}
	if e.Name != "" {
		payload["name"] = e.Name
	}
	if e.Function {
		payload["function"] = true
	}
	if e.Comment != "" {
		payload["comment"] = e.Comment
	}
	if e.IsEmpty() {
		payload["no_entry"] = true
	}
	return payload
}

func entriesToJSON(entries []query.Entry) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryToJSON(e))
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
