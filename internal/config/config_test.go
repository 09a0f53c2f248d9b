package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "gatesim.yaml")
	require.NoError(t, os.WriteFile(fn, []byte(`
simulation:
  iteration_limit: 50
  parallelism: 4
log:
  format: json
metrics:
  addr: ":9090"
`), 0o644))

	t.Setenv(EnvLogLevel, "debug")
	c, err := Load(fn)
	require.NoError(t, err)
	assert.Equal(t, 50, c.Simulation.IterationLimit)
	assert.Equal(t, 1, c.Simulation.Workers, "default kept")
	assert.Equal(t, 4, c.Simulation.Parallelism)
	assert.Equal(t, "json", c.Log.Format)
	assert.Equal(t, "debug", c.Log.Level)
	assert.Equal(t, ":9090", c.Metrics.Addr)
	assert.False(t, c.Tracing.Enabled)
}

func TestLoad_defaults(t *testing.T) {
	t.Setenv(EnvLogLevel, "")
	t.Setenv(EnvLogFormat, "")
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_errors(t *testing.T) {
	dir := t.TempDir()
	td := map[string]string{
		"unknown_key": "simulation:\n  iterations: 5\n",
		"bad_level":   "log:\n  level: loud\n",
		"bad_format":  "log:\n  format: xml\n",
		"negative":    "simulation:\n  iteration_limit: -1\n",
		"exporter":    "tracing:\n  enabled: true\n  exporter: otlp\n",
		"syntax":      "log: [\n",
	}
	for name, src := range td {
		t.Run(name, func(t *testing.T) {
			fn := filepath.Join(dir, name+".yaml")
			require.NoError(t, os.WriteFile(fn, []byte(src), 0o644))
			_, err := Load(fn)
			require.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
}

func TestParse_empty(t *testing.T) {
	c := Default()
	require.NoError(t, Parse(nil, c))
	assert.Equal(t, Default(), c)
}
