package syncpipe

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/jacoelho/syncpipe/rendezvous"
)

// DefaultBufferSize is the capacity used by PipeBuffered when size <= 0.
const DefaultBufferSize = 8192

// ErrBrokenPipe is returned by writes and flushes once the reader is closed.
// It matches io.ErrClosedPipe under errors.Is.
var ErrBrokenPipe = fmt.Errorf("syncpipe: pipe reader has been closed: %w", io.ErrClosedPipe)

var (
	_ io.Reader     = (*Reader)(nil)
	_ io.WriterTo   = (*Reader)(nil)
	_ io.Closer     = (*Reader)(nil)
	_ io.Writer     = (*Writer)(nil)
	_ io.ReaderFrom = (*Writer)(nil)
	_ io.Closer     = (*Writer)(nil)
	_ io.Writer     = (*BufferedWriter)(nil)
	_ io.ReaderFrom = (*BufferedWriter)(nil)
	_ io.Closer     = (*BufferedWriter)(nil)
)

// Pipe creates a synchronous in-memory pipe. Every Write blocks until the
// reader takes the chunk.
func Pipe() (*Reader, *Writer) {
	tx, rx := rendezvous.New(0)
	return newReader(rx), &Writer{tx: tx}
}

// PipeBuffered creates a pipe whose writer coalesces writes into chunks of
// up to size bytes.
func PipeBuffered(size int, opts ...Option) (*Reader, *BufferedWriter) {
	if size <= 0 {
		size = DefaultBufferSize
	}
	o := newOptions(opts)
	tx, rx := rendezvous.New(0)
	return newReader(rx), newBufferedWriter(tx, size, o.logger)
}

// Option configures a buffered writer.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report errors that Close has to swallow.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// sendError maps channel errors to the errors writers report.
func sendError(err error) error {
	switch {
	case errors.Is(err, rendezvous.ErrDisconnected):
		return ErrBrokenPipe
	case errors.Is(err, rendezvous.ErrClosed):
		return io.ErrClosedPipe
	default:
		return err
	}
}

// readChunks reads r into freshly allocated chunks of up to size bytes and
// passes each non-empty one to send, which takes ownership of it.
func readChunks(r io.Reader, size int, send func([]byte) error) (int64, error) {
	var (
		total int64
		chunk []byte
	)
	for {
		if chunk == nil {
			chunk = make([]byte, size)
		}
		n, rErr := r.Read(chunk)
		if n > 0 {
			if err := send(chunk[:n:n]); err != nil {
				return total, err
			}
			total += int64(n)
			chunk = nil
		}
		if rErr != nil {
			if rErr != io.EOF {
				return total, rErr
			}
			return total, nil
		}
	}
}
