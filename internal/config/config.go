/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package config holds the runtime settings, read from an optional YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/inference"
	"github.com/mpromonet/ishotdog/internal/tensor"
)

const (
	EngineTFLite = "tflite"
	EngineONNX   = "onnx"
)

// ONNX settings are only used by the onnx engine.
type ONNX struct {
	Library string `yaml:"library"`
	Input   string `yaml:"input"`
	Output  string `yaml:"output"`
}

type Config struct {
	Engine        string  `yaml:"engine"`
	ModelDir      string  `yaml:"model_dir"`
	Model         string  `yaml:"model"`
	Threads       int     `yaml:"threads"`
	Threshold     float32 `yaml:"threshold"`
	Interpolation string  `yaml:"interpolation"`
	Addr          string  `yaml:"addr"`
	StaticDir     string  `yaml:"static_dir"`
	SingleFlight  bool    `yaml:"single_flight"`
	Verbose       int     `yaml:"verbose"`
	ONNX          ONNX    `yaml:"onnx"`
}

func Default() Config {
	return Config{
		Engine:        EngineTFLite,
		ModelDir:      "models",
		Model:         inference.DefaultModel,
		Threads:       backend.DefaultThreads,
		Threshold:     inference.DefaultThreshold,
		Interpolation: string(tensor.Nearest),
		Addr:          ":8080",
		StaticDir:     "static",
		ONNX:          ONNX{Input: "input", Output: "output"},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	switch c.Engine {
	case EngineTFLite, EngineONNX:
	default:
		return fmt.Errorf("unknown engine %q", c.Engine)
	}
	if c.Model == "" {
		return fmt.Errorf("model name is required")
	}
	if c.Threads <= 0 {
		return fmt.Errorf("threads must be positive, got %d", c.Threads)
	}
	if c.Threshold <= 0 || c.Threshold > 1 {
		return fmt.Errorf("threshold must be in (0,1], got %v", c.Threshold)
	}
	if _, err := tensor.ParseInterpolation(c.Interpolation); err != nil {
		return err
	}
	return nil
}

// Encoder returns the tensor encoder for the configured interpolation.
func (c Config) Encoder() tensor.Encoder {
	interp, err := tensor.ParseInterpolation(c.Interpolation)
	if err != nil {
		interp = tensor.Nearest
	}
	return tensor.Encoder{Interpolation: interp}
}
