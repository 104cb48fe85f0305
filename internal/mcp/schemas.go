package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// queryAddressTool returns the tool definition for query_address
func queryAddressTool() mcp.Tool {
	return mcp.Tool{
		Name:        "query_address",
		Description: "Look up analysis data (name, function flag, comment) at and around an address",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"address": map[string]interface{}{
					"type":        "string",
					"description": "Address to query, hex (0x...) or decimal",
				},
				"before": map[string]interface{}{
					"type":        "integer",
					"description": "Number of preceding entries to include",
					"default":     1,
					"minimum":     0,
				},
				"after": map[string]interface{}{
					"type":        "integer",
					"description": "Number of following entries to include",
					"default":     1,
					"minimum":     0,
				},
			},
			Required: []string{"address"},
		},
	}
}

// listFunctionsTool returns the tool definition for list_functions
func listFunctionsTool() mcp.Tool {
	return mcp.Tool{
		Name:        "list_functions",
		Description: "List recognized function starts with their names, if any",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of functions to return (1-1000)",
					"default":     100,
					"minimum":     1,
					"maximum":     1000,
				},
				"named_only": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, only return functions that have a name",
					"default":     false,
				},
			},
		},
	}
}

// getMetadataTool returns the tool definition for get_metadata
func getMetadataTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_metadata",
		Description: "Return document metadata and per-category counts",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
