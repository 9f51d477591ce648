/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package inference runs the hot dog model on an encoded tensor and turns
// its score into a label.
package inference

import (
	"errors"
	"log"
	"time"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/tensor"
)

// Result is the scalar model output of one forward pass.
type Result struct {
	Score   float32
	Elapsed time.Duration
}

// Profile summarizes repeated forward passes on one loaded interpreter.
type Profile struct {
	Loops int
	Mean  time.Duration
	Min   time.Duration
	Max   time.Duration
	Score float32
}

// Runner loads a model with a runtime configuration and executes it.
type Runner struct {
	Engine  Engine
	Verbose int
}

func (r Runner) load(model []byte, input tensor.Buffer, cfg backend.RuntimeConfig) (Session, error) {
	if r.Engine == nil {
		return nil, Errorf(BackendInitError, "no inference engine")
	}
	if len(model) == 0 {
		return nil, Errorf(ModelLoadError, "empty model")
	}
	if len(input) != tensor.Len {
		return nil, Errorf(InferenceExecutionError, "input has %d values, expected %d", len(input), tensor.Len)
	}
	if r.Verbose > 0 {
		log.Printf("creating interpreter %v", cfg)
	}
	session, err := r.Engine.Load(model, cfg)
	if err != nil {
		return nil, Wrap(ModelLoadError, err)
	}
	if session == nil {
		return nil, Errorf(ModelLoadError, "cannot create interpreter")
	}
	return session, nil
}

func invoke(session Session, input tensor.Buffer) (float32, time.Duration, error) {
	start := time.Now()
	output, err := session.Invoke(input)
	elapsed := time.Since(start)
	if err != nil {
		return 0, elapsed, Wrap(InferenceExecutionError, err)
	}
	if len(output) == 0 {
		return 0, elapsed, Wrap(InferenceExecutionError, errors.New("empty output tensor"))
	}
	return output[0], elapsed, nil
}

// Run executes exactly one forward pass and returns output[0][0].
func (r Runner) Run(model []byte, input tensor.Buffer, cfg backend.RuntimeConfig) (Result, error) {
	session, err := r.load(model, input, cfg)
	if err != nil {
		return Result{}, err
	}
	defer session.Close()

	score, elapsed, err := invoke(session, input)
	if err != nil {
		return Result{}, err
	}
	if r.Verbose > 0 {
		log.Printf("inference: score=%v time=%v", score, elapsed)
	}
	return Result{Score: score, Elapsed: elapsed}, nil
}

// Profile loads the model once and runs loops forward passes.
func (r Runner) Profile(model []byte, input tensor.Buffer, cfg backend.RuntimeConfig, loops int) (Profile, error) {
	if loops <= 0 {
		loops = 1
	}
	session, err := r.load(model, input, cfg)
	if err != nil {
		return Profile{}, err
	}
	defer session.Close()

	p := Profile{Loops: loops}
	var total time.Duration
	for i := 0; i < loops; i++ {
		score, elapsed, err := invoke(session, input)
		if err != nil {
			return Profile{}, err
		}
		total += elapsed
		if i == 0 || elapsed < p.Min {
			p.Min = elapsed
		}
		if elapsed > p.Max {
			p.Max = elapsed
		}
		p.Score = score
	}
	p.Mean = total / time.Duration(loops)
	if r.Verbose > 0 {
		log.Printf("mean time to inference: %v over %d runs", p.Mean, loops)
	}
	return p, nil
}
