//go:build onnx

package onnx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/inference"
	"github.com/mpromonet/ishotdog/internal/tensor"
)

// go test -tags onnx ./internal/engine/onnx with ONNXRUNTIME_LIB set to the
// shared library and ISHOTDOG_ONNX_MODEL to an ONNX export of the model.
func engine() Engine {
	return Engine{LibraryPath: os.Getenv("ONNXRUNTIME_LIB")}
}

func TestLoadGarbage(t *testing.T) {
	_, err := engine().Load([]byte("not a protobuf"), backend.Selector{}.Build(backend.Flags{}))
	require.Error(t, err)
	assert.Contains(t, []inference.Kind{inference.ModelLoadError, inference.BackendInitError}, inference.KindOf(err))
}

func TestRunOnCPU(t *testing.T) {
	path := os.Getenv("ISHOTDOG_ONNX_MODEL")
	if path == "" {
		t.Skip("ISHOTDOG_ONNX_MODEL not set")
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	res, err := inference.Runner{Engine: engine()}.Run(data, make(tensor.Buffer, tensor.Len), backend.Selector{}.Build(backend.Flags{}))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Score, float32(0))
	assert.LessOrEqual(t, res.Score, float32(1))
}
