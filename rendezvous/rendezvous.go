// Package rendezvous implements a bounded, multi-producer, single-consumer
// queue of byte chunks that reports when the other side has gone away.
//
// A plain Go channel cannot tell a sender that nobody will ever receive, nor
// can it be closed safely while several goroutines may still send. The
// Sender and Receiver handles here add that: senders are reference counted
// and the receiver observes ErrDisconnected once the last one is closed,
// while every sender observes ErrDisconnected once the receiver is closed.
package rendezvous

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

var (
	// ErrDisconnected is returned when the other side of the channel is gone.
	ErrDisconnected = errors.New("rendezvous: channel disconnected")
	// ErrFull is returned by TrySend when no receiver or free slot is ready.
	ErrFull = errors.New("rendezvous: channel full")
	// ErrEmpty is returned by TryRecv when no chunk is ready.
	ErrEmpty = errors.New("rendezvous: channel empty")
	// ErrClosed is returned when a handle is used after its own Close.
	ErrClosed = errors.New("rendezvous: use of closed handle")
)

type channel struct {
	chunks chan []byte

	senders     atomic.Int64
	sendersGone chan struct{}
	sendersOnce sync.Once

	receiverGone chan struct{}
	receiverOnce sync.Once
}

// New creates a channel holding up to capacity chunks. A capacity of zero or
// less gives a pure rendezvous: a send completes only when a receiver takes it.
//
// With a positive capacity a completed send only means the chunk was queued.
// Chunks still queued when the receiver closes are discarded, and a send
// racing that Close may report success for such a chunk.
func New(capacity int) (*Sender, *Receiver) {
	c := &channel{
		chunks:       make(chan []byte, max(capacity, 0)),
		sendersGone:  make(chan struct{}),
		receiverGone: make(chan struct{}),
	}
	c.senders.Store(1)
	return &Sender{c: c}, &Receiver{c: c}
}

func (c *channel) releaseSender() {
	if c.senders.Add(-1) == 0 {
		c.sendersOnce.Do(func() { close(c.sendersGone) })
	}
}

func (c *channel) receiverClosed() bool {
	select {
	case <-c.receiverGone:
		return true
	default:
		return false
	}
}

// Sender is the sending half of a channel. A Sender must not be used by
// more than one goroutine at a time; Clone it instead.
type Sender struct {
	c      *channel
	closed atomic.Bool
}

// Send hands chunk to the receiver, blocking until it is taken or queued.
// The receiver owns chunk once Send returns nil.
func (s *Sender) Send(chunk []byte) error {
	return s.SendContext(context.Background(), chunk)
}

// SendContext is like Send but gives up when ctx is done.
func (s *Sender) SendContext(ctx context.Context, chunk []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.c.receiverClosed() {
		return ErrDisconnected
	}
	select {
	case s.c.chunks <- chunk:
		return nil
	case <-s.c.receiverGone:
		return ErrDisconnected
	case <-ctx.Done():
		return ctx.Err()
	}
}

// TrySend hands chunk over only if that can be done without blocking.
// It returns nil when the chunk was accepted, ErrFull when nobody was ready
// and ErrDisconnected when the receiver is gone. On error the caller still
// owns chunk.
func (s *Sender) TrySend(chunk []byte) error {
	if s.closed.Load() {
		return ErrClosed
	}
	if s.c.receiverClosed() {
		return ErrDisconnected
	}
	select {
	case s.c.chunks <- chunk:
		return nil
	default:
		return ErrFull
	}
}

// Disconnected reports whether the receiver has been closed.
func (s *Sender) Disconnected() bool {
	return s.c.receiverClosed()
}

// Clone returns a new handle on the same channel. The receiver sees
// ErrDisconnected only after every handle has been closed. Cloning a
// closed handle returns a closed handle.
func (s *Sender) Clone() *Sender {
	clone := &Sender{c: s.c}
	if s.closed.Load() {
		clone.closed.Store(true)
		return clone
	}
	s.c.senders.Add(1)
	return clone
}

// Close releases the handle. It is safe to call more than once.
func (s *Sender) Close() error {
	if s.closed.CompareAndSwap(false, true) {
		s.c.releaseSender()
	}
	return nil
}

// Receiver is the receiving half of a channel.
type Receiver struct {
	c      *channel
	closed atomic.Bool
}

// Recv blocks until a chunk arrives or every sender is closed.
func (r *Receiver) Recv() ([]byte, error) {
	return r.RecvContext(context.Background())
}

// RecvContext is like Recv but gives up when ctx is done.
func (r *Receiver) RecvContext(ctx context.Context) ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	select {
	case chunk := <-r.c.chunks:
		return chunk, nil
	case <-r.c.sendersGone:
		return r.drain()
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// TryRecv returns a chunk only if one is ready, ErrEmpty otherwise.
func (r *Receiver) TryRecv() ([]byte, error) {
	if r.closed.Load() {
		return nil, ErrClosed
	}
	select {
	case chunk := <-r.c.chunks:
		return chunk, nil
	case <-r.c.sendersGone:
		return r.drain()
	default:
		return nil, ErrEmpty
	}
}

// drain prefers chunks still queued over the disconnect signal.
func (r *Receiver) drain() ([]byte, error) {
	select {
	case chunk := <-r.c.chunks:
		return chunk, nil
	default:
		return nil, ErrDisconnected
	}
}

// Close releases the receiver; pending and future sends fail with
// ErrDisconnected. It is safe to call more than once.
func (r *Receiver) Close() error {
	if r.closed.CompareAndSwap(false, true) {
		r.c.receiverOnce.Do(func() { close(r.c.receiverGone) })
	}
	return nil
}
