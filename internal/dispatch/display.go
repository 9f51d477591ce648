/* ---------------------------------------------------------------------------
** This software is in the public domain, furnished "as is", without technical
** support, and with no warranty, express or implied, as to its usefulness for
** any purpose.
** -------------------------------------------------------------------------*/

package dispatch

import (
	"log"
	"sync"
	"sync/atomic"
)

// Display is the single text slot of the presentation layer. Only its own
// goroutine writes the slot. Pending and Deliver never block: messages posted
// faster than the slot is updated coalesce to the latest one, so the last
// delivered message wins. Messages posted after Close are dropped.
type Display struct {
	verbose int
	mu      sync.Mutex
	queued  *Message
	closed  bool
	wake    chan struct{}
	done    chan struct{}
	text    atomic.Value
}

func NewDisplay(verbose int) *Display {
	d := &Display{
		verbose: verbose,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	d.text.Store("")
	go d.loop()
	return d
}

func (d *Display) take() *Message {
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.queued
	d.queued = nil
	return m
}

func (d *Display) show(m *Message) {
	if m == nil {
		return
	}
	d.text.Store(m.Text)
	if d.verbose > 0 {
		log.Printf("display: request %d: %s", m.ID, m.Text)
	}
}

func (d *Display) loop() {
	defer close(d.done)
	for range d.wake {
		d.show(d.take())
	}
	d.show(d.take())
}

func (d *Display) post(m Message) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.queued = &m
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Display) Pending(m Message) {
	d.post(m)
}

func (d *Display) Deliver(m Message) {
	d.post(m)
}

// Text returns the currently shown text.
func (d *Display) Text() string {
	return d.text.Load().(string)
}

// Close shows the last posted message and stops the display.
func (d *Display) Close() {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.wake)
	}
	d.mu.Unlock()
	<-d.done
}
