package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "colgrid.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
backend: arrow
column_types:
  meta: dict
  id: ObjectId
  count: Int64
logging:
  level: debug
  encoding: console
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendArrow, cfg.Backend)
	assert.Equal(t, "dict", cfg.ColumnTypes["meta"])
	assert.Equal(t, "ObjectId", cfg.ColumnTypes["id"])
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadDefaults(t *testing.T) {
	path := writeConfig(t, `column_types: {}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, BackendNative, cfg.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Partitioned)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate())

	cfg.Backend = "duckdb"
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Partitioned = true
	cfg.Backend = BackendArrow
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Partitioned = true
	assert.NoError(t, cfg.Validate())

	cfg = Default()
	cfg.Logging.Level = ""
	assert.Error(t, cfg.Validate())
}
