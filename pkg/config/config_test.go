package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_AppliesDefaultsWhenSectionsOmitted(t *testing.T) {
	path := writeTempConfig(t, `tracing:
  enabled: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Tracing.Enabled)
	require.Equal(t, "traces", cfg.Tracing.Dir)
	require.NotZero(t, cfg.Setup.ProgressThrottle)
}

func TestLoad_ExpandsEnvironmentVariables(t *testing.T) {
	t.Setenv("TRACE_DIR", "/var/log/traces")
	path := writeTempConfig(t, `tracing:
  dir: ${TRACE_DIR}
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/var/log/traces", cfg.Tracing.Dir)
}

func TestLoad_MissingFileErrors(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
}

func TestLoad_RejectsDuplicateIdempotencyRule(t *testing.T) {
	path := writeTempConfig(t, `idempotency:
  rules:
    - intent_type: workspace:delete
    - intent_type: workspace:delete
`)
	_, err := Load(path)
	require.Error(t, err)
}
