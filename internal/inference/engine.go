/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package inference

import (
	"github.com/mpromonet/ishotdog/internal/backend"
)

// Engine builds interpreter sessions. Load should tag its failures with
// ModelLoadError or BackendInitError.
type Engine interface {
	Load(model []byte, cfg backend.RuntimeConfig) (Session, error)
}

// Session is one loaded interpreter. It is not safe for concurrent use.
type Session interface {
	// Invoke runs one forward pass and returns a copy of the first output tensor.
	Invoke(input []float32) ([]float32, error)
	Close()
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(model []byte, cfg backend.RuntimeConfig) (Session, error)

func (f EngineFunc) Load(model []byte, cfg backend.RuntimeConfig) (Session, error) {
	return f(model, cfg)
}
