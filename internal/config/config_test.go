package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.NotEqual(t, cfg.Particles.SleepOffset, cfg.Particles.WakeOffset)
}

func TestParseOverridesDefaults(t *testing.T) {
	data := []byte(`
world:
  seed: 42
  load_batch: 8
  zones:
    screen_width: 320
simulation:
  parallel: true
  workers: 2
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, int64(42), cfg.World.Seed)
	assert.Equal(t, 8, cfg.World.LoadBatch)
	assert.Equal(t, 320, cfg.World.Zones.ScreenWidth)
	// Не указанные поля остаются по умолчанию
	assert.Equal(t, 480, cfg.World.Zones.ScreenHeight)
	assert.True(t, cfg.Simulation.Parallel)
	assert.Equal(t, 2, cfg.Simulation.Workers)
}

func TestValidateRejectsSameSleepWakeOffset(t *testing.T) {
	cfg := Default()
	cfg.Particles.SleepInterval = 10
	cfg.Particles.SleepOffset = 3
	cfg.Particles.WakeOffset = 13

	assert.Error(t, cfg.Validate())
}

func TestParseTelemetryAndLogging(t *testing.T) {
	data := []byte(`
telemetry:
  enabled: true
  endpoint: collector:4318
  sample_ratio: 0.05
logging:
  level: warn
  components:
    particle: debug
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "pixelsim", cfg.Telemetry.ServiceName)
	assert.Equal(t, "collector:4318", cfg.Telemetry.Endpoint)
	assert.InDelta(t, 0.05, cfg.Telemetry.SampleRatio, 1e-9)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, map[string]string{"particle": "debug"}, cfg.Logging.Components)

	_, err = Parse([]byte("telemetry:\n  sample_ratio: 1.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sample_ratio")
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := Default()
	cfg.World.LoadBatch = 0
	cfg.Server.TPS = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load_batch")
	assert.Contains(t, err.Error(), "tps")
}

func TestLoadFromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sim.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  seed: 7\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.World.Seed)

	t.Setenv("PIXELSIM_CONFIG", path)
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, int64(7), cfg.World.Seed)
}

func TestMetricsPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("PIXELSIM_METRICS_PORT", "9100")
	assert.Equal(t, 9100, s.GetMetricsPort())

	s.MetricsPort = 9200
	assert.Equal(t, 9200, s.GetMetricsPort())
}
