package syncpipe

import (
	"errors"
	"fmt"
	"io"

	"github.com/jacoelho/syncpipe/rendezvous"
)

// Reader is the read half of a pipe. It keeps the last received chunk and
// hands it out across as many Read calls as it takes to drain it.
type Reader struct {
	rx    *rendezvous.Receiver
	chunk []byte
	off   int
	eof   bool
}

func newReader(rx *rendezvous.Receiver) *Reader {
	return &Reader{rx: rx}
}

// Read implements io.Reader. It copies at most the remainder of one chunk,
// so a read may return fewer bytes than len(p) even while more are on the way.
// It returns io.EOF once every writer has been closed.
func (r *Reader) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	buf, err := r.Fill()
	if err != nil {
		return 0, err
	}
	n := copy(p, buf)
	r.off += n
	return n, nil
}

// Fill returns the unread part of the current chunk without consuming it,
// blocking for the next chunk when the current one is exhausted.
// At end of stream it returns io.EOF.
func (r *Reader) Fill() ([]byte, error) {
	if r.rx == nil {
		return nil, io.ErrClosedPipe
	}
	for r.off == len(r.chunk) {
		if r.eof {
			return nil, io.EOF
		}
		chunk, err := r.rx.Recv()
		switch {
		case errors.Is(err, rendezvous.ErrDisconnected):
			r.chunk, r.off, r.eof = nil, 0, true
			return nil, io.EOF
		case errors.Is(err, rendezvous.ErrClosed):
			return nil, io.ErrClosedPipe
		case err != nil:
			return nil, err
		}
		r.chunk, r.off = chunk, 0
	}
	return r.chunk[r.off:], nil
}

// Consume marks n bytes returned by Fill as read.
// It panics if n is negative or larger than what Fill returned.
func (r *Reader) Consume(n int) {
	if n < 0 || n > len(r.chunk)-r.off {
		panic(fmt.Sprintf("syncpipe: consume %d bytes with %d buffered", n, len(r.chunk)-r.off))
	}
	r.off += n
}

// Buffered returns the number of bytes that can be read without blocking.
func (r *Reader) Buffered() int {
	return len(r.chunk) - r.off
}

// WriteTo implements io.WriterTo by writing every received chunk to w
// until end of stream or an error occurs.
func (r *Reader) WriteTo(w io.Writer) (n int64, err error) {
	for {
		buf, err := r.Fill()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		wn, err := w.Write(buf)
		if wn < 0 || wn > len(buf) {
			wn = 0
			if err == nil {
				err = io.ErrShortWrite
			}
		}
		r.off += wn
		n += int64(wn)
		if err != nil {
			return n, err
		}
		if wn != len(buf) {
			return n, io.ErrShortWrite
		}
	}
}

// Close closes the reader side of the pipe. Writers blocked on the pipe,
// and every later write, fail with ErrBrokenPipe.
func (r *Reader) Close() error {
	if r.rx == nil {
		return nil
	}
	err := r.rx.Close()
	r.rx = nil
	r.chunk, r.off = nil, 0
	return err
}

// IntoInner detaches the underlying receiver together with the bytes that
// were received but not yet read. The Reader cannot be used afterwards.
func (r *Reader) IntoInner() (*rendezvous.Receiver, []byte) {
	rx, rest := r.rx, r.chunk[r.off:]
	r.rx = nil
	r.chunk, r.off = nil, 0
	return rx, rest
}
