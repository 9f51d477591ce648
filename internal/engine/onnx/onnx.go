/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package onnx runs an ONNX export of the model with onnxruntime.
package onnx

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/inference"
	"github.com/mpromonet/ishotdog/internal/tensor"
)

var (
	envOnce sync.Once
	envErr  error
)

func initEnvironment(libraryPath string) error {
	envOnce.Do(func() {
		if libraryPath != "" {
			ort.SetSharedLibraryPath(libraryPath)
		}
		if err := ort.InitializeEnvironment(); err != nil {
			envErr = fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	})
	return envErr
}

// Engine maps the accelerator to TensorRT, the GPU to CUDA and the second
// delegate to CoreML.
type Engine struct {
	LibraryPath string
	InputName   string
	OutputName  string
}

type session struct {
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

func (e Engine) names() ([]string, []string) {
	in, out := e.InputName, e.OutputName
	if in == "" {
		in = "input"
	}
	if out == "" {
		out = "output"
	}
	return []string{in}, []string{out}
}

func appendProvider(options *ort.SessionOptions, b backend.Backend) error {
	switch b {
	case backend.Accelerator:
		trt, err := ort.NewTensorRTProviderOptions()
		if err != nil {
			return err
		}
		defer trt.Destroy()
		return options.AppendExecutionProviderTensorRT(trt)
	case backend.GPU:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return err
		}
		defer cuda.Destroy()
		return options.AppendExecutionProviderCUDA(cuda)
	case backend.Delegate:
		return options.AppendExecutionProviderCoreML(0)
	}
	return fmt.Errorf("unknown backend %s", b)
}

func (e Engine) Load(data []byte, cfg backend.RuntimeConfig) (inference.Session, error) {
	if err := initEnvironment(e.LibraryPath); err != nil {
		return nil, inference.Wrap(inference.BackendInitError, err)
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, inference.Wrap(inference.BackendInitError, err)
	}
	defer options.Destroy()

	if err := options.SetIntraOpNumThreads(cfg.Threads()); err != nil {
		return nil, inference.Wrap(inference.BackendInitError, err)
	}
	for _, b := range cfg.Backends() {
		if err := appendProvider(options, b); err != nil {
			return nil, inference.Wrap(inference.BackendInitError, fmt.Errorf("%s provider: %w", b, err))
		}
	}

	shape := tensor.Shape()
	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(int64(shape[0]), int64(shape[1]), int64(shape[2]), int64(shape[3])))
	if err != nil {
		return nil, inference.Wrap(inference.BackendInitError, fmt.Errorf("failed to create input tensor: %w", err))
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 1))
	if err != nil {
		inputTensor.Destroy()
		return nil, inference.Wrap(inference.BackendInitError, fmt.Errorf("failed to create output tensor: %w", err))
	}

	inputs, outputs := e.names()
	s, err := ort.NewAdvancedSessionWithONNXData(data, inputs, outputs,
		[]ort.ArbitraryTensor{inputTensor}, []ort.ArbitraryTensor{outputTensor},
		options)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, inference.Wrap(inference.ModelLoadError, fmt.Errorf("failed to create ONNX session: %w", err))
	}

	return &session{session: s, inputTensor: inputTensor, outputTensor: outputTensor}, nil
}

func (s *session) Invoke(v []float32) ([]float32, error) {
	in := s.inputTensor.GetData()
	if len(in) != len(v) {
		return nil, fmt.Errorf("input tensor expects %d values, got %d", len(in), len(v))
	}
	copy(in, v)

	if err := s.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	out := s.outputTensor.GetData()
	loc := make([]float32, len(out))
	copy(loc, out)
	return loc, nil
}

func (s *session) Close() {
	if s.inputTensor != nil {
		s.inputTensor.Destroy()
	}
	if s.outputTensor != nil {
		s.outputTensor.Destroy()
	}
	if s.session != nil {
		s.session.Destroy()
	}
}
