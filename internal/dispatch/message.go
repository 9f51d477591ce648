/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package dispatch

import (
	"github.com/mpromonet/ishotdog/internal/inference"
)

const (
	LabelProcessing = "Processing..."
	LabelError      = "Error opening label file OR tflite"
)

// Message is what the presentation layer shows for a request. Text is one of
// the fixed labels; Kind and Err keep the failure detail for logging.
type Message struct {
	ID    uint64         `json:"id"`
	Text  string         `json:"text"`
	Score float32        `json:"score"`
	Kind  inference.Kind `json:"-"`
	Err   error          `json:"-"`
}

func (m Message) Failed() bool {
	return m.Err != nil
}

// Sink receives the placeholder of a request synchronously from Dispatch,
// then its single terminal message from the worker goroutine.
type Sink interface {
	Pending(Message)
	Deliver(Message)
}

// SinkFunc shows both placeholder and terminal messages with one function.
type SinkFunc func(Message)

func (f SinkFunc) Pending(m Message) { f(m) }
func (f SinkFunc) Deliver(m Message) { f(m) }

type oneShot chan Message

func (o oneShot) Pending(Message) {}

func (o oneShot) Deliver(m Message) {
	o <- m
	close(o)
}

// OneShot returns a sink that ignores the placeholder and hands the terminal
// message over a buffered channel, closed afterwards.
func OneShot() (Sink, <-chan Message) {
	c := make(chan Message, 1)
	return oneShot(c), c
}

type multi []Sink

func (m multi) Pending(msg Message) {
	for _, s := range m {
		s.Pending(msg)
	}
}

func (m multi) Deliver(msg Message) {
	for _, s := range m {
		s.Deliver(msg)
	}
}

// Multi fans messages out to every sink, in order.
func Multi(sinks ...Sink) Sink {
	return multi(sinks)
}
