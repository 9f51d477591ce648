//go:build tflite

package tflite

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/inference"
	"github.com/mpromonet/ishotdog/internal/tensor"
)

// go test -tags tflite ./internal/engine/tflite with ISHOTDOG_TFLITE_MODEL
// pointing at deepHotDog_quant.tflite.
func modelBytes(t *testing.T) []byte {
	path := os.Getenv("ISHOTDOG_TFLITE_MODEL")
	if path == "" {
		t.Skip("ISHOTDOG_TFLITE_MODEL not set")
	}
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

func TestLoadGarbage(t *testing.T) {
	_, err := Engine{}.Load([]byte("not a flatbuffer"), backend.Selector{}.Build(backend.Flags{}))
	require.Error(t, err)
	assert.Equal(t, inference.ModelLoadError, inference.KindOf(err))
}

func TestRunOnCPU(t *testing.T) {
	data := modelBytes(t)
	input, err := tensor.Encoder{}.Encode(tensor.NewUniform(224, 224, 0xffff0000))
	require.NoError(t, err)

	res, err := inference.Runner{Engine: Engine{}}.Run(data, input, backend.Selector{}.Build(backend.Flags{}))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Score, float32(0))
	assert.LessOrEqual(t, res.Score, float32(1))
}

func TestDelegatesLoadOrReportBackendError(t *testing.T) {
	data := modelBytes(t)
	for _, f := range []backend.Flags{{Accelerator: true}, {GPU: true}, {Delegate: true}} {
		s, err := Engine{}.Load(data, backend.Selector{}.Build(f))
		if err != nil {
			assert.Equal(t, inference.BackendInitError, inference.KindOf(err), f.String())
			continue
		}
		s.Close()
	}
}
