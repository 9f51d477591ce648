/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package tflite runs the model with the TensorFlow Lite C API.
package tflite

import (
	"log"

	"github.com/mattn/go-tflite"
	"github.com/mattn/go-tflite/delegates"
	"github.com/mattn/go-tflite/delegates/edgetpu"
	"github.com/mattn/go-tflite/delegates/gpu/cl"
	"github.com/mattn/go-tflite/delegates/xnnpack"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/inference"
)

// Engine creates one interpreter per Load.
type Engine struct {
	Verbose int
}

type session struct {
	model     *tflite.Model
	interp    *tflite.Interpreter
	delegates []delegates.Delegater
	verbose   int
}

func newDelegate(b backend.Backend, cfg backend.RuntimeConfig) (delegates.Delegater, error) {
	switch b {
	case backend.Accelerator:
		devices, err := edgetpu.DeviceList()
		if err != nil {
			return nil, inference.Errorf(inference.BackendInitError, "could not get EdgeTPU devices: %v", err)
		}
		if len(devices) == 0 {
			return nil, inference.Errorf(inference.BackendInitError, "no edge TPU devices found")
		}
		d := edgetpu.New(devices[0])
		if d == nil {
			return nil, inference.Errorf(inference.BackendInitError, "cannot create EdgeTPU delegate")
		}
		return d, nil
	case backend.Delegate:
		d := xnnpack.New(xnnpack.DelegateOptions{NumThreads: int32(cfg.Threads())})
		if d == nil {
			return nil, inference.Errorf(inference.BackendInitError, "cannot create XNNPACK delegate")
		}
		return d, nil
	case backend.GPU:
		// nil options: OpenCL delegate defaults
		d := cl.New(nil)
		if d == nil {
			return nil, inference.Errorf(inference.BackendInitError, "cannot create GPU delegate")
		}
		return d, nil
	}
	return nil, inference.Errorf(inference.BackendInitError, "unknown backend %s", b)
}

func deleteAll(ds []delegates.Delegater) {
	for _, d := range ds {
		d.Delete()
	}
}

func (e Engine) Load(data []byte, cfg backend.RuntimeConfig) (inference.Session, error) {
	model := tflite.NewModel(data)
	if model == nil {
		return nil, inference.Errorf(inference.ModelLoadError, "cannot load model")
	}

	options := tflite.NewInterpreterOptions()
	defer options.Delete()

	options.SetNumThread(cfg.Threads())
	options.SetErrorReporter(func(msg string, _ interface{}) {
		log.Printf("tflite: %s", msg)
	}, nil)

	var ds []delegates.Delegater
	for _, b := range cfg.Backends() {
		d, err := newDelegate(b, cfg)
		if err != nil {
			deleteAll(ds)
			model.Delete()
			return nil, err
		}
		options.AddDelegate(d)
		ds = append(ds, d)
	}

	interpreter := tflite.NewInterpreter(model, options)
	if interpreter == nil {
		deleteAll(ds)
		model.Delete()
		if len(ds) > 0 {
			return nil, inference.Errorf(inference.BackendInitError, "cannot create interpreter with %v", cfg.Backends())
		}
		return nil, inference.Errorf(inference.ModelLoadError, "cannot create interpreter")
	}

	s := &session{model: model, interp: interpreter, delegates: ds, verbose: e.Verbose}
	if status := interpreter.AllocateTensors(); status != tflite.OK {
		s.Close()
		return nil, inference.Errorf(inference.BackendInitError, "allocate failed: %v", status)
	}
	return s, nil
}

func getTensorShape(tensor *tflite.Tensor) []int {
	shape := []int{}
	for idx := 0; idx < tensor.NumDims(); idx++ {
		shape = append(shape, tensor.Dim(idx))
	}
	return shape
}

func tensorLen(tensor *tflite.Tensor) int {
	n := 1
	for _, d := range getTensorShape(tensor) {
		n *= d
	}
	return n
}

func fillInput(input *tflite.Tensor, v []float32) error {
	if n := tensorLen(input); n != len(v) {
		return inference.Errorf(inference.InferenceExecutionError, "input tensor %v expects %d values, got %d", getTensorShape(input), n, len(v))
	}
	switch input.Type() {
	case tflite.UInt8:
		q := input.QuantizationParams()
		return input.SetUint8s(inference.Quantize(v, q.Scale, q.ZeroPoint))
	case tflite.Float32:
		return input.SetFloat32s(v)
	}
	return inference.Errorf(inference.InferenceExecutionError, "unsupported input type %v", input.Type())
}

func extractOutput(output *tflite.Tensor) ([]float32, error) {
	switch output.Type() {
	case tflite.UInt8:
		q := output.QuantizationParams()
		return inference.Dequantize(output.UInt8s(), q.Scale, q.ZeroPoint), nil
	case tflite.Float32:
		f := output.Float32s()
		loc := make([]float32, len(f))
		copy(loc, f)
		return loc, nil
	}
	return nil, inference.Errorf(inference.InferenceExecutionError, "unsupported output type %v", output.Type())
}

func (s *session) Invoke(v []float32) ([]float32, error) {
	input := s.interp.GetInputTensor(0)
	if input == nil {
		return nil, inference.Errorf(inference.InferenceExecutionError, "model has no input tensor")
	}
	if s.verbose > 0 {
		log.Println("input shape:", input.Name(), getTensorShape(input), input.Type(), input.QuantizationParams())
	}
	if err := fillInput(input, v); err != nil {
		return nil, inference.Wrap(inference.InferenceExecutionError, err)
	}

	status := s.interp.Invoke()
	if status != tflite.OK {
		return nil, inference.Errorf(inference.InferenceExecutionError, "invoke failed: %v", status)
	}

	if s.interp.GetOutputTensorCount() == 0 {
		return nil, inference.Errorf(inference.InferenceExecutionError, "model has no output tensor")
	}
	output := s.interp.GetOutputTensor(0)
	if s.verbose > 0 {
		log.Println("output:", output.Name(), getTensorShape(output), output.Type(), output.QuantizationParams())
	}
	return extractOutput(output)
}

func (s *session) Close() {
	if s.interp != nil {
		s.interp.Delete()
		s.interp = nil
	}
	deleteAll(s.delegates)
	s.delegates = nil
	if s.model != nil {
		s.model.Delete()
		s.model = nil
	}
}
