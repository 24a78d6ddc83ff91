package core

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigDir(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, contents := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(contents), 0644))
	}
	return dir
}

func TestNewConfig(t *testing.T) {
	tests := []struct {
		name        string
		files       map[string]string
		expectError bool
	}{
		{
			name: "loads listed files",
			files: map[string]string{
				"meta.yaml": "files:\n  - base.yaml\n  - development.yaml\n",
				"base.yaml": "service:\n  name: brlsp\n",
			},
		},
		{
			name:        "missing meta file",
			files:       map[string]string{},
			expectError: true,
		},
		{
			name: "meta without files list",
			files: map[string]string{
				"meta.yaml": "files: brlsp\n",
			},
			expectError: true,
		},
		{
			name: "no listed file exists",
			files: map[string]string{
				"meta.yaml": "files:\n  - base.yaml\n",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(_envConfigDir, writeConfigDir(t, tt.files))

			provider, err := NewConfig()
			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, provider)
				return
			}

			require.NoError(t, err)
			cfg := provider.(Config)
			assert.Equal(t, "config", cfg.Name())
			assert.Equal(t, "brlsp", cfg.Get("service.name").String())
		})
	}
}

func TestConfigFilePriority(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"meta.yaml":        "files:\n  - base.yaml\n  - development.yaml\n  - local.yaml\n",
		"base.yaml":        "service:\n  name: base-service\nlogging:\n  level: info\n",
		"development.yaml": "service:\n  name: dev-service\nlogging:\n  level: debug\n",
		"local.yaml":       "logging:\n  level: warn\n",
	})
	t.Setenv(_envConfigDir, dir)

	provider, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "dev-service", provider.Get("service.name").String())
	assert.Equal(t, "warn", provider.Get("logging.level").String())
}

func TestConfigWithEnvironmentVariables(t *testing.T) {
	dir := writeConfigDir(t, map[string]string{
		"meta.yaml": "files:\n  - base.yaml\n",
		"base.yaml": "jsonrpc:\n  address: \"127.0.0.1:${BRLSP_PORT:27883}\"\nbuildRunner:\n  dartExecutable: ${BRLSP_DART:dart}\n",
	})
	t.Setenv(_envConfigDir, dir)
	t.Setenv("BRLSP_PORT", "9000")

	provider, err := NewConfig()
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", provider.Get("jsonrpc.address").String())
	assert.Equal(t, "dart", provider.Get("buildRunner.dartExecutable").String())
}

func TestGetConfigDir(t *testing.T) {
	t.Run("returns environment variable when set", func(t *testing.T) {
		t.Setenv(_envConfigDir, "/custom/config/path")
		assert.Equal(t, "/custom/config/path", getConfigDir())
	})

	t.Run("returns default path when environment variable not set", func(t *testing.T) {
		t.Setenv(_envConfigDir, "")
		assert.Equal(t, _defaultConfigDir, getConfigDir())
	})
}
