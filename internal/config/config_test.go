package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adx-tools/adx/pkg/types"
)

func TestLoadMissingDefaultPath(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), false)
	require.NoError(t, err)
	assert.Equal(t, types.PolicyReport, cfg.Policy)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestLoadMissingExplicitPathFails(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), true)
	assert.Error(t, err)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy: skip\nconcat_comments: true\nlog_level: debug\n"), 0o644))

	cfg, err := Load(path, true)
	require.NoError(t, err)
	assert.Equal(t, types.PolicySkip, cfg.Policy)
	assert.True(t, cfg.ConcatComments)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadRejectsBadPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("policy: clobber\n"), 0o644))

	_, err := Load(path, true)
	assert.Error(t, err)
}
