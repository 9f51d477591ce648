package inference

import (
	"errors"
	"sync"

	"github.com/mpromonet/ishotdog/internal/backend"
)

type fakeSession struct {
	engine *fakeEngine
}

func (s *fakeSession) Invoke(input []float32) ([]float32, error) {
	s.engine.mu.Lock()
	defer s.engine.mu.Unlock()
	s.engine.invokes++
	if s.engine.invokeErr != nil {
		return nil, s.engine.invokeErr
	}
	return append([]float32(nil), s.engine.output...), nil
}

func (s *fakeSession) Close() {
	s.engine.mu.Lock()
	s.engine.closed++
	s.engine.mu.Unlock()
}

type fakeEngine struct {
	mu        sync.Mutex
	output    []float32
	loadErr   error
	invokeErr error
	configs   []backend.RuntimeConfig
	models    [][]byte
	invokes   int
	closed    int
}

func (e *fakeEngine) Load(model []byte, cfg backend.RuntimeConfig) (Session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.configs = append(e.configs, cfg)
	e.models = append(e.models, model)
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	return &fakeSession{engine: e}, nil
}

var errBoom = errors.New("boom")
