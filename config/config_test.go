package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dqflow.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	require.Equal(t, Default(), c)
	require.NoError(t, c.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[execution]
mode = "debug"
performance = true

[log]
format = "json"

[output]
path = "out.xlsx"
sheet = "Orders"
`)
	c, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "debug", c.Execution.Mode)
	require.True(t, c.Execution.Performance)
	require.False(t, c.Execution.Parallel)
	require.Equal(t, "warn", c.Log.Level)
	require.Equal(t, "json", c.Log.Format)
	require.Equal(t, "table", c.Output.Format)
	require.Equal(t, "Orders", c.Output.Sheet)
}

func TestLoadRejects(t *testing.T) {
	for name, content := range map[string]string{
		"mode":        "[execution]\nmode = \"fast\"\n",
		"level":       "[log]\nlevel = \"loud\"\n",
		"log format":  "[log]\nformat = \"xml\"\n",
		"output":      "[output]\nformat = \"yaml\"\n",
		"unknown key": "[execution]\nthreads = 4\n",
		"syntax":      "[execution\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			require.Error(t, err)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := Log{Level: "info", Format: "json"}.NewLogger(zapcore.AddSync(&buf))
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("shown")
	require.NoError(t, logger.Sync())
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"msg":"shown"`)
}
