/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package model opens named, read-only model artifacts.
package model

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("model not found")

// Source opens model artifacts by name.
type Source interface {
	Open(name string) (*Artifact, error)
}

// Artifact is an immutable view on model bytes. The slice must not be
// written to and is invalid after Close.
type Artifact struct {
	name    string
	data    []byte
	once    sync.Once
	release func() error
	err     error
}

func (a *Artifact) Name() string {
	return a.name
}

func (a *Artifact) Bytes() []byte {
	return a.data
}

func (a *Artifact) Size() int {
	return len(a.data)
}

// Close unmaps the artifact. It is safe to call more than once.
func (a *Artifact) Close() error {
	a.once.Do(func() {
		if a.release != nil {
			a.err = a.release()
		}
		a.data = nil
	})
	return a.err
}

// Store serves artifacts from a directory. Each Open maps the file again;
// nothing is cached between requests.
type Store struct {
	Dir string
}

func (s Store) Open(name string) (*Artifact, error) {
	if name == "" || strings.ContainsRune(name, os.PathSeparator) || name == ".." {
		return nil, fmt.Errorf("%w: invalid name %q", ErrNotFound, name)
	}
	path := filepath.Join(s.Dir, name)
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.Size() == 0 {
		return nil, fmt.Errorf("empty model file %s", path)
	}
	data, release, err := mapFile(f, int(info.Size()))
	if err != nil {
		return nil, fmt.Errorf("failed to map %s: %w", path, err)
	}
	return &Artifact{name: name, data: data, release: release}, nil
}

// Bytes is an in-memory Source, used for embedded models and tests.
type Bytes map[string][]byte

func (b Bytes) Open(name string) (*Artifact, error) {
	data, ok := b[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return &Artifact{name: name, data: data}, nil
}
