package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func allFlags() []Flags {
	var out []Flags
	for i := 0; i < 8; i++ {
		out = append(out, Flags{Accelerator: i&1 != 0, GPU: i&2 != 0, Delegate: i&4 != 0})
	}
	return out
}

func TestBuildAllCombinations(t *testing.T) {
	for _, f := range allFlags() {
		cfg := Selector{}.Build(f)
		assert.Equal(t, DefaultThreads, cfg.Threads(), f.String())
		assert.Equal(t, f.GPU, cfg.HasGPU(), f.String())
		assert.Equal(t, f.Delegate, cfg.HasDelegate(), f.String())
		if f.Accelerator {
			assert.Equal(t, Accelerator, cfg.Primary())
		} else {
			assert.Equal(t, CPU, cfg.Primary())
		}
	}
}

func TestBuildIsPure(t *testing.T) {
	s := Selector{Threads: 2}
	for _, f := range allFlags() {
		assert.Equal(t, s.Build(f), s.Build(f))
		assert.Equal(t, s.Build(f).Backends(), s.Build(f).Backends())
	}
}

func TestBackendsOrder(t *testing.T) {
	cfg := Selector{}.Build(Flags{Accelerator: true, GPU: true, Delegate: true})
	assert.Equal(t, []Backend{Accelerator, GPU, Delegate}, cfg.Backends())
	assert.Empty(t, Selector{}.Build(Flags{}).Backends())
	assert.Equal(t, "threads=4 primary=cpu backends=[gpu]", Selector{}.Build(Flags{GPU: true}).String())
}

func TestSelectorThreads(t *testing.T) {
	assert.Equal(t, 1, Selector{Threads: 1}.Build(Flags{}).Threads())
	assert.Equal(t, DefaultThreads, Selector{Threads: -3}.Build(Flags{}).Threads())
}

func TestFlagsFor(t *testing.T) {
	f, err := FlagsFor(GPU)
	require.NoError(t, err)
	assert.Equal(t, Flags{GPU: true}, f)
	assert.Equal(t, "gpu", f.String())

	f, err = FlagsFor(CPU)
	require.NoError(t, err)
	assert.Equal(t, "cpu", f.String())

	_, err = FlagsFor("npu")
	assert.Error(t, err)
}
