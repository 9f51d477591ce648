package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpromonet/ishotdog/internal/tensor"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 4, cfg.Threads)
	assert.Equal(t, float32(0.5), cfg.Threshold)
	assert.Equal(t, "deepHotDog_quant.tflite", cfg.Model)
	assert.Equal(t, tensor.Nearest, cfg.Encoder().Interpolation)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ishotdog.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine: onnx
model: deepHotDog.onnx
threads: 2
interpolation: bilinear
single_flight: true
onnx:
  library: /usr/lib/libonnxruntime.so
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, EngineONNX, cfg.Engine)
	assert.Equal(t, "deepHotDog.onnx", cfg.Model)
	assert.Equal(t, 2, cfg.Threads)
	assert.True(t, cfg.SingleFlight)
	assert.Equal(t, tensor.Bilinear, cfg.Encoder().Interpolation)
	assert.Equal(t, "/usr/lib/libonnxruntime.so", cfg.ONNX.Library)
	assert.Equal(t, "models", cfg.ModelDir)
	assert.Equal(t, float32(0.5), cfg.Threshold)
}

func TestLoadEmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine: ["), 0o644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	for _, mutate := range []func(*Config){
		func(c *Config) { c.Engine = "torch" },
		func(c *Config) { c.Model = "" },
		func(c *Config) { c.Threads = 0 },
		func(c *Config) { c.Threshold = 0 },
		func(c *Config) { c.Threshold = 1.5 },
		func(c *Config) { c.Interpolation = "cubic" },
	} {
		cfg := Default()
		mutate(&cfg)
		assert.Error(t, cfg.Validate())
	}
}
