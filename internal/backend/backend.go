/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package backend builds the interpreter execution configuration from the
// user selected acceleration switches.
package backend

import (
	"fmt"
	"strings"
)

// DefaultThreads is the CPU thread count of the baseline execution path.
const DefaultThreads = 4

// Backend identifies an execution path of the interpreter.
type Backend string

const (
	CPU         Backend = "cpu"
	Accelerator Backend = "accelerator"
	GPU         Backend = "gpu"
	Delegate    Backend = "delegate"
)

// Flags are the three independent acceleration switches. Every combination
// is accepted, including ones that make no sense together.
type Flags struct {
	Accelerator bool `json:"accelerator" yaml:"accelerator"`
	GPU         bool `json:"gpu" yaml:"gpu"`
	Delegate    bool `json:"delegate" yaml:"delegate"`
}

func (f Flags) String() string {
	var on []string
	if f.Accelerator {
		on = append(on, string(Accelerator))
	}
	if f.GPU {
		on = append(on, string(GPU))
	}
	if f.Delegate {
		on = append(on, string(Delegate))
	}
	if len(on) == 0 {
		return string(CPU)
	}
	return strings.Join(on, "+")
}

// FlagsFor maps a single backend name to the switch enabling it.
func FlagsFor(b Backend) (Flags, error) {
	switch b {
	case CPU:
		return Flags{}, nil
	case Accelerator:
		return Flags{Accelerator: true}, nil
	case GPU:
		return Flags{GPU: true}, nil
	case Delegate:
		return Flags{Delegate: true}, nil
	}
	return Flags{}, fmt.Errorf("unknown backend %q", b)
}

// RuntimeConfig is the immutable result of Selector.Build.
type RuntimeConfig struct {
	threads   int
	primary   Backend
	delegates [2]bool // gpu, delegate
}

// Threads is the CPU thread count, always set.
func (c RuntimeConfig) Threads() int {
	return c.threads
}

// Primary is CPU unless the accelerator was requested.
func (c RuntimeConfig) Primary() Backend {
	return c.primary
}

func (c RuntimeConfig) HasGPU() bool {
	return c.delegates[0]
}

func (c RuntimeConfig) HasDelegate() bool {
	return c.delegates[1]
}

// Backends lists the non-CPU backends to attach, accelerator first.
func (c RuntimeConfig) Backends() []Backend {
	var out []Backend
	if c.primary == Accelerator {
		out = append(out, Accelerator)
	}
	if c.HasGPU() {
		out = append(out, GPU)
	}
	if c.HasDelegate() {
		out = append(out, Delegate)
	}
	return out
}

func (c RuntimeConfig) String() string {
	return fmt.Sprintf("threads=%d primary=%s backends=%v", c.threads, c.primary, c.Backends())
}

// Selector builds runtime configurations. The zero value uses DefaultThreads.
type Selector struct {
	Threads int
}

// Build never fails: mutually exclusive switches are passed through as is.
func (s Selector) Build(flags Flags) RuntimeConfig {
	threads := s.Threads
	if threads <= 0 {
		threads = DefaultThreads
	}
	cfg := RuntimeConfig{threads: threads, primary: CPU}
	if flags.Accelerator {
		cfg.primary = Accelerator
	}
	cfg.delegates[0] = flags.GPU
	cfg.delegates[1] = flags.Delegate
	return cfg
}
