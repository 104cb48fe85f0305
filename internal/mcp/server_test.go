package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adx-tools/adx/internal/codec"
	"github.com/adx-tools/adx/pkg/types"
)

func serverForTest(t *testing.T) *Server {
	t.Helper()

	m := types.NewRecordModel("bin", 0)
	m.AddFunction(0x1000)
	m.AddFunction(0x1200)
	m.Names[0x1000] = "main"
	m.Comments[0x1200] = "dispatch loop"

	data, err := codec.Encode(m)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "analysis.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	srv, err := NewServer(path, codec.Strict, zerolog.Nop())
	require.NoError(t, err)
	return srv
}

func callRequest(args map[string]interface{}) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, result *mcp.CallToolResult) map[string]interface{} {
	t.Helper()
	require.Len(t, result.Content, 1)
	text, ok := mcp.AsTextContent(result.Content[0])
	require.True(t, ok)

	var payload map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(text.Text), &payload))
	return payload
}

func TestNewServerRejectsMalformedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"functions": []}`), 0o644))

	_, err := NewServer(path, codec.Strict, zerolog.Nop())
	require.Error(t, err)

	var schemaErr *types.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
}

func TestHandleQueryAddress(t *testing.T) {
	srv := serverForTest(t)

	result, err := srv.handleQueryAddress(context.Background(),
		callRequest(map[string]interface{}{"address": "0x1000"}))
	require.NoError(t, err)

	payload := resultText(t, result)
	current := payload["current"].(map[string]interface{})
	assert.Equal(t, "0x1000", current["address"])
	assert.Equal(t, "main", current["name"])
	assert.Equal(t, true, current["function"])
}

func TestHandleQueryAddressInvalid(t *testing.T) {
	srv := serverForTest(t)

	_, err := srv.handleQueryAddress(context.Background(),
		callRequest(map[string]interface{}{"address": "not-an-address"}))
	require.Error(t, err)

	var mcpErr *MCPError
	require.ErrorAs(t, err, &mcpErr)
	assert.Equal(t, ErrorCodeInvalidParams, mcpErr.Code)
}

func TestHandleListFunctions(t *testing.T) {
	srv := serverForTest(t)

	result, err := srv.handleListFunctions(context.Background(),
		callRequest(map[string]interface{}{"named_only": true}))
	require.NoError(t, err)

	payload := resultText(t, result)
	functions := payload["functions"].([]interface{})
	require.Len(t, functions, 1)
	entry := functions[0].(map[string]interface{})
	assert.Equal(t, "main", entry["name"])
	assert.Equal(t, float64(2), payload["total"])
}

func TestHandleGetMetadata(t *testing.T) {
	srv := serverForTest(t)

	result, err := srv.handleGetMetadata(context.Background(), mcp.CallToolRequest{})
	require.NoError(t, err)

	payload := resultText(t, result)
	assert.Equal(t, "bin", payload["binary_identifier"])
	counts := payload["counts"].(map[string]interface{})
	assert.Equal(t, float64(2), counts["functions"])
	assert.Equal(t, float64(1), counts["comments"])
}
