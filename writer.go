package syncpipe

import (
	"bytes"
	"io"

	"github.com/jacoelho/syncpipe/rendezvous"
)

// Writer is the unbuffered write half of a pipe. A Writer must not be used
// from several goroutines at once; give each goroutine its own Clone.
type Writer struct {
	tx *rendezvous.Sender
}

// Write sends a copy of p to the reader as a single chunk, blocking until the
// reader takes it. Either all of p is delivered or none of it is.
func (w *Writer) Write(p []byte) (int, error) {
	if w.tx == nil {
		return 0, io.ErrClosedPipe
	}
	if len(p) == 0 {
		if w.tx.Disconnected() {
			return 0, ErrBrokenPipe
		}
		return 0, nil
	}
	if err := w.tx.Send(bytes.Clone(p)); err != nil {
		return 0, sendError(err)
	}
	return len(p), nil
}

// Flush is a no-op: a Writer holds no data between calls.
func (w *Writer) Flush() error {
	if w.tx == nil {
		return io.ErrClosedPipe
	}
	return nil
}

// ReadFrom implements io.ReaderFrom, sending each read from r as one chunk.
func (w *Writer) ReadFrom(r io.Reader) (int64, error) {
	if w.tx == nil {
		return 0, io.ErrClosedPipe
	}
	return readChunks(r, 32*1024, func(chunk []byte) error {
		return sendError(w.tx.Send(chunk))
	})
}

// Clone returns another writer on the same pipe. The reader sees end of
// stream only once every clone has been closed.
func (w *Writer) Clone() *Writer {
	if w.tx == nil {
		return &Writer{}
	}
	return &Writer{tx: w.tx.Clone()}
}

// Close closes this writer.
func (w *Writer) Close() error {
	if w.tx == nil {
		return nil
	}
	err := w.tx.Close()
	w.tx = nil
	return err
}

// IntoInner detaches the underlying sender. The Writer cannot be used
// afterwards; closing the sender is up to the caller.
func (w *Writer) IntoInner() *rendezvous.Sender {
	tx := w.tx
	w.tx = nil
	return tx
}
