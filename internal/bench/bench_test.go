package bench

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/inference"
	"github.com/mpromonet/ishotdog/internal/model"
)

type constSession struct{}

func (constSession) Invoke([]float32) ([]float32, error) { return []float32{0.3}, nil }
func (constSession) Close()                              {}

// gpu is not available on this fake device
var fakeEngine = inference.EngineFunc(func(_ []byte, cfg backend.RuntimeConfig) (inference.Session, error) {
	if cfg.HasGPU() {
		return nil, inference.Errorf(inference.BackendInitError, "gpu delegate not available")
	}
	return constSession{}, nil
})

func writePlan(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "workloads.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadPlanDefaults(t *testing.T) {
	plan, err := LoadPlan(writePlan(t, `
workloads:
  - model: models/deepHotDog_quant.tflite
`))
	require.NoError(t, err)
	assert.Equal(t, DefaultOutputFile, plan.Global.OutputFile)
	w := plan.Workloads[0]
	assert.Equal(t, "deepHotDog_quant.tflite", w.Name)
	assert.Equal(t, []int{4}, w.Threads)
	assert.Equal(t, []backend.Backend{backend.CPU}, w.Options)
	assert.Equal(t, DefaultLoops, w.Loops)
}

func TestLoadPlanErrors(t *testing.T) {
	_, err := LoadPlan(writePlan(t, "global:\n  outputfile: out.json\n"))
	assert.Error(t, err)

	_, err = LoadPlan(writePlan(t, "workloads:\n  - name: nomodel\n"))
	assert.Error(t, err)

	_, err = LoadPlan(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	plan, err := LoadPlan(writePlan(t, `
global:
  outputfile: out.json
workloads:
  - name: hotdog
    model: deepHotDog_quant.tflite
    threads: [1, 4]
    options: [cpu, gpu, npu]
    loops: 3
  - name: missing
    model: nope.tflite
`))
	require.NoError(t, err)

	b := Bench{
		Models: model.Bytes{"deepHotDog_quant.tflite": []byte("TFL3")},
		Runner: inference.Runner{Engine: fakeEngine},
	}
	report := b.Run(plan)

	runs := report.Workloads["hotdog"]
	require.Len(t, runs, 2)
	assert.Equal(t, "cpu_1Threads", runs[0].Type)
	assert.Equal(t, "cpu_4Threads", runs[1].Type)
	assert.Equal(t, 3, runs[0].Loops)
	assert.Equal(t, float32(0.3), runs[0].Score)
	assert.Empty(t, report.Workloads["missing"])

	out := filepath.Join(t.TempDir(), plan.Global.OutputFile)
	require.NoError(t, report.WriteFile(out))
	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "host")
	assert.Contains(t, decoded, "workloads")
}

func TestRandomInput(t *testing.T) {
	a, b := RandomInput(7), RandomInput(7)
	assert.Equal(t, a, b)
	for _, v := range a {
		if v < -1 || v > 1 {
			t.Fatalf("value %v out of range", v)
		}
	}
}

func TestHostInfo(t *testing.T) {
	h := HostInfo()
	assert.GreaterOrEqual(t, h.LogicalCores, 0)
}

func TestRunModelPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "deepHotDog_quant.tflite"), []byte("TFL3"), 0o644))
	plan, err := LoadPlan(writePlan(t, `
workloads:
  - model: models/deepHotDog_quant.tflite
    loops: 2
`))
	require.NoError(t, err)

	report := Bench{Models: model.Store{Dir: dir}, Runner: inference.Runner{Engine: fakeEngine}}.Run(plan)
	runs := report.Workloads["deepHotDog_quant.tflite"]
	require.Len(t, runs, 1)
	assert.Equal(t, "cpu_4Threads", runs[0].Type)
	assert.Equal(t, 2, runs[0].Loops)
}
