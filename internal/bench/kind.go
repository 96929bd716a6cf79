package bench

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/jacoelho/syncpipe"
)

// Kind names a pipe implementation under test.
type Kind string

const (
	KindSyncpipe         Kind = "syncpipe"
	KindSyncpipeBuffered Kind = "syncpipe-buffered"
	KindSyncpipeBufio    Kind = "syncpipe-bufio"
	KindIOPipe           Kind = "io-pipe"
	KindOSPipe           Kind = "os-pipe"
)

// Writer is the producer side of a pipe under test.
type Writer interface {
	io.WriteCloser
	Flush() error
}

// Opener creates a fresh, connected reader and writer.
type Opener func() (io.ReadCloser, Writer, error)

var openers = map[Kind]Opener{
	KindSyncpipe: func() (io.ReadCloser, Writer, error) {
		r, w := syncpipe.Pipe()
		return r, w, nil
	},
	KindSyncpipeBuffered: func() (io.ReadCloser, Writer, error) {
		r, w := syncpipe.PipeBuffered(syncpipe.DefaultBufferSize)
		return r, w, nil
	},
	KindSyncpipeBufio: func() (io.ReadCloser, Writer, error) {
		r, w := syncpipe.Pipe()
		return r, &bufioWriter{Writer: bufio.NewWriterSize(w, syncpipe.DefaultBufferSize), c: w}, nil
	},
	KindIOPipe: func() (io.ReadCloser, Writer, error) {
		r, w := io.Pipe()
		return r, nopFlusher{w}, nil
	},
	KindOSPipe: func() (io.ReadCloser, Writer, error) {
		r, w, err := os.Pipe()
		if err != nil {
			return nil, nil, fmt.Errorf("bench: os pipe: %w", err)
		}
		return r, nopFlusher{w}, nil
	},
}

// Kinds returns every known kind in a stable order.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(openers))
	for k := range openers {
		kinds = append(kinds, k)
	}
	slices.Sort(kinds)
	return kinds
}

// Open returns the opener registered for kind.
func Open(kind Kind) (Opener, error) {
	open, ok := openers[kind]
	if !ok {
		return nil, fmt.Errorf("bench: unknown kind %q (available: %v)", kind, Kinds())
	}
	return open, nil
}

type nopFlusher struct {
	io.WriteCloser
}

func (nopFlusher) Flush() error { return nil }

// bufioWriter flushes before closing the pipe it wraps.
type bufioWriter struct {
	*bufio.Writer
	c io.Closer
}

func (w *bufioWriter) Close() error {
	err := w.Flush()
	if cerr := w.c.Close(); err == nil {
		err = cerr
	}
	return err
}
