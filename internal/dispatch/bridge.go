/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

// Package dispatch runs classification requests off the caller goroutine
// and hands their result back through a sink.
package dispatch

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/mpromonet/ishotdog/internal/backend"
	"github.com/mpromonet/ishotdog/internal/inference"
	"github.com/mpromonet/ishotdog/internal/tensor"
)

// State of a request. Transitions are
// Idle -> Dispatched -> Running -> Completed|Failed -> Delivered.
type State int32

const (
	Idle State = iota
	Dispatched
	Running
	Completed
	Failed
	Delivered
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Dispatched:
		return "Dispatched"
	case Running:
		return "Running"
	case Completed:
		return "Completed"
	case Failed:
		return "Failed"
	case Delivered:
		return "Delivered"
	}
	return "Unknown"
}

// Request tracks one dispatched classification. It cannot be cancelled.
type Request struct {
	ID    uint64
	state int32
	done  chan struct{}
}

func (r *Request) State() State {
	return State(atomic.LoadInt32(&r.state))
}

func (r *Request) set(s State) {
	atomic.StoreInt32(&r.state, int32(s))
}

// Done is closed once the terminal message has been delivered.
func (r *Request) Done() <-chan struct{} {
	return r.done
}

// Classifier is implemented by *inference.Pipeline.
type Classifier interface {
	Classify(img *tensor.Bitmap, flags backend.Flags) (inference.Prediction, error)
}

// Bridge starts one goroutine per request, without pooling or queueing.
// With SingleFlight set, a request for the same bitmap and flags as one
// already running shares its prediction instead of starting a second
// interpreter; any other request runs on its own.
type Bridge struct {
	Classifier   Classifier
	SingleFlight bool
	Verbose      int

	guard singleflight.Group
	seq   uint64
	wg    sync.WaitGroup
}

// Dispatch shows the placeholder on sink, starts the request and returns
// without waiting for it.
func (b *Bridge) Dispatch(img *tensor.Bitmap, flags backend.Flags, sink Sink) *Request {
	req := &Request{ID: atomic.AddUint64(&b.seq, 1), done: make(chan struct{})}
	req.set(Dispatched)
	sink.Pending(Message{ID: req.ID, Text: LabelProcessing})

	b.wg.Add(1)
	go b.work(req, img, flags, sink)
	return req
}

// Wait blocks until every dispatched request has been delivered.
func (b *Bridge) Wait() {
	b.wg.Wait()
}

func (b *Bridge) work(req *Request, img *tensor.Bitmap, flags backend.Flags, sink Sink) {
	defer b.wg.Done()
	defer close(req.done)

	req.set(Running)
	if b.Verbose > 0 {
		log.Printf("request %d: running with %v", req.ID, flags)
	}
	pred, err := b.classify(img, flags)

	msg := Message{ID: req.ID}
	if err != nil {
		req.set(Failed)
		msg.Text = LabelError
		msg.Kind = inference.KindOf(err)
		msg.Err = err
		log.Printf("request %d failed (%v): %v", req.ID, msg.Kind, err)
	} else {
		req.set(Completed)
		msg.Text = pred.Label
		msg.Score = pred.Score
		if b.Verbose > 0 {
			log.Printf("request %d: score=%v %q in %v", req.ID, pred.Score, pred.Label, pred.Elapsed)
		}
	}
	sink.Deliver(msg)
	req.set(Delivered)
}

func (b *Bridge) classify(img *tensor.Bitmap, flags backend.Flags) (pred inference.Prediction, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = inference.Errorf(inference.InferenceExecutionError, "panic: %v", r)
		}
	}()
	if b.Classifier == nil {
		return pred, inference.Errorf(inference.ModelLoadError, "no classifier")
	}
	if !b.SingleFlight {
		return b.Classifier.Classify(img, flags)
	}
	// same picture, same backends: nothing else may share a prediction
	key := fmt.Sprintf("%p/%s", img, flags)
	v, err, shared := b.guard.Do(key, func() (interface{}, error) {
		return b.Classifier.Classify(img, flags)
	})
	if shared && b.Verbose > 0 {
		log.Println("sharing result of the request in flight")
	}
	if err != nil {
		return pred, err
	}
	return v.(inference.Prediction), nil
}
