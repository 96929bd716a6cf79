package syncpipe

import (
	"errors"
	"io"
	"log/slog"

	"github.com/jacoelho/syncpipe/rendezvous"
)

// maxEmptyReads bounds consecutive empty reads in ReadFrom.
const maxEmptyReads = 100

// BufferedWriter is a write half of a pipe that stages small writes and
// sends them as larger chunks. Whenever the reader is already waiting the
// staged bytes are handed over straight away, so buffering adds no latency
// to a consumer that keeps up.
//
// Bytes staged in a BufferedWriter only reach the reader through Flush,
// a full buffer, an opportunistic send or Close.
type BufferedWriter struct {
	tx     *rendezvous.Sender
	buf    []byte
	size   int
	logger *slog.Logger
}

func newBufferedWriter(tx *rendezvous.Sender, size int, logger *slog.Logger) *BufferedWriter {
	return &BufferedWriter{
		tx:     tx,
		buf:    make([]byte, 0, size),
		size:   size,
		logger: logger,
	}
}

// WriteSome stages as much of p as fits and returns how many bytes it took,
// which may be less than len(p). Input larger than the buffer size is taken
// whole and sent at once as a single chunk, after anything already staged.
//
// If the buffer fills up it is flushed, blocking until the reader accepts
// it. Otherwise the staged bytes are offered to the reader without blocking
// and kept if nobody is ready. When that offer finds the reader closed the
// bytes taken from p are dropped again and ErrBrokenPipe is returned.
func (b *BufferedWriter) WriteSome(p []byte) (int, error) {
	if b.tx == nil {
		return 0, io.ErrClosedPipe
	}
	if len(p) == 0 {
		if b.tx.Disconnected() {
			return 0, ErrBrokenPipe
		}
		return 0, nil
	}

	staged := len(b.buf)
	n := len(p)
	if n <= b.size {
		n = min(n, max(b.size-staged, 0))
	}
	b.buf = append(b.buf, p[:n]...)

	if len(b.buf) >= b.size {
		if err := b.Flush(); err != nil {
			return n, err
		}
		return n, nil
	}

	switch err := b.tx.TrySend(b.buf); {
	case err == nil:
		b.buf = make([]byte, 0, b.size)
	case errors.Is(err, rendezvous.ErrFull):
	default:
		b.buf = b.buf[:staged]
		return 0, sendError(err)
	}
	return n, nil
}

// Write implements io.Writer. It keeps calling WriteSome until all of p is
// staged or sent, so it blocks only when the buffer has to be flushed.
func (b *BufferedWriter) Write(p []byte) (int, error) {
	var written int
	for len(p) > 0 {
		n, err := b.WriteSome(p)
		written += n
		if err != nil {
			return written, err
		}
		p = p[n:]
	}
	return written, nil
}

// Flush sends the staged bytes as one chunk and waits for the reader to
// accept it. On failure the bytes stay staged and can be recovered through
// Buffered or IntoInner.
func (b *BufferedWriter) Flush() error {
	if b.tx == nil {
		return io.ErrClosedPipe
	}
	if len(b.buf) == 0 {
		return nil
	}
	if err := b.tx.Send(b.buf); err != nil {
		return sendError(err)
	}
	b.buf = make([]byte, 0, b.size)
	return nil
}

// ReadFrom implements io.ReaderFrom by reading r straight into the buffer.
func (b *BufferedWriter) ReadFrom(r io.Reader) (n int64, err error) {
	if b.tx == nil {
		return 0, io.ErrClosedPipe
	}
	for empty := 0; ; {
		if len(b.buf) >= b.size {
			if err := b.Flush(); err != nil {
				return n, err
			}
		}
		if cap(b.buf) < b.size {
			b.buf = append(make([]byte, 0, b.size), b.buf...)
		}
		m, rErr := r.Read(b.buf[len(b.buf):b.size])
		b.buf = b.buf[:len(b.buf)+m]
		n += int64(m)
		if rErr == io.EOF {
			break
		}
		if rErr != nil {
			return n, rErr
		}
		if m > 0 {
			empty = 0
		} else if empty++; empty >= maxEmptyReads {
			return n, io.ErrNoProgress
		}
	}
	if len(b.buf) == 0 {
		return n, nil
	}
	switch err := b.tx.TrySend(b.buf); {
	case err == nil:
		b.buf = make([]byte, 0, b.size)
	case errors.Is(err, rendezvous.ErrFull):
	default:
		return n, sendError(err)
	}
	return n, nil
}

// Buffered returns the bytes staged but not yet sent. The slice aliases the
// internal buffer and is only valid until the next call on b.
func (b *BufferedWriter) Buffered() []byte {
	return b.buf
}

// Available returns how many more bytes can be staged before a flush.
func (b *BufferedWriter) Available() int {
	return max(b.size-len(b.buf), 0)
}

// Size returns the buffer size.
func (b *BufferedWriter) Size() int {
	return b.size
}

// Clone returns another writer on the same pipe with an empty buffer of the
// same size. Bytes staged in b stay with b.
func (b *BufferedWriter) Clone() *BufferedWriter {
	if b.tx == nil {
		return &BufferedWriter{size: b.size, logger: b.logger}
	}
	return newBufferedWriter(b.tx.Clone(), b.size, b.logger)
}

// Close makes one blocking attempt to send the staged bytes and then
// releases the writer. A failed final send is logged and otherwise ignored,
// so Close always returns nil; call Flush first to observe that failure.
func (b *BufferedWriter) Close() error {
	if b.tx == nil {
		return nil
	}
	if err := b.Flush(); err != nil {
		b.logger.Debug("syncpipe: discarding unsent bytes on close",
			"bytes", len(b.buf),
			"error", err)
	}
	_ = b.tx.Close()
	b.tx = nil
	b.buf = nil
	return nil
}

// IntoInner detaches the underlying sender and the bytes not yet sent,
// without flushing. The BufferedWriter cannot be used afterwards.
func (b *BufferedWriter) IntoInner() (*rendezvous.Sender, []byte) {
	tx, buf := b.tx, b.buf
	b.tx = nil
	b.buf = nil
	return tx, buf
}
