package protocol

import (
	"sync"
	"sync/atomic"
)

// Outbox holds at most one message waiting to be sent. A Put before the
// previous message was taken replaces it.
type Outbox struct {
	mu      sync.Mutex
	ch      chan []byte
	dropped atomic.Uint64
}

// NewOutbox returns an empty outbox.
func NewOutbox() *Outbox {
	return &Outbox{ch: make(chan []byte, 1)}
}

// Put stores msg and reports whether an unsent message was replaced.
func (o *Outbox) Put(msg []byte) (replaced bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	select {
	case <-o.ch:
		replaced = true
		o.dropped.Add(1)
	default:
	}
	// Consumers only receive, so the slot is free here.
	o.ch <- msg
	return replaced
}

// Take returns the pending message without blocking.
func (o *Outbox) Take() ([]byte, bool) {
	select {
	case msg := <-o.ch:
		return msg, true
	default:
		return nil, false
	}
}

// C is the channel for consumers that want to block until a message is queued.
func (o *Outbox) C() <-chan []byte {
	return o.ch
}

// Dropped counts messages that were replaced before being sent.
func (o *Outbox) Dropped() uint64 {
	return o.dropped.Load()
}
