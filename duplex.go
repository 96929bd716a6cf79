package syncpipe

import (
	"errors"
	"io"
)

var _ io.ReadWriteCloser = (*Duplex)(nil)

type flushWriteCloser interface {
	io.WriteCloser
	Flush() error
}

// Duplex is one end of a bidirectional pipe: it reads what the other end
// writes and writes what the other end reads.
type Duplex struct {
	r *Reader
	w flushWriteCloser
}

// Bipipe creates two connected Duplex ends over unbuffered pipes.
func Bipipe() (*Duplex, *Duplex) {
	r1, w1 := Pipe()
	r2, w2 := Pipe()
	return &Duplex{r: r1, w: w2}, &Duplex{r: r2, w: w1}
}

// BipipeBuffered creates two connected Duplex ends whose writers buffer up
// to size bytes.
func BipipeBuffered(size int, opts ...Option) (*Duplex, *Duplex) {
	r1, w1 := PipeBuffered(size, opts...)
	r2, w2 := PipeBuffered(size, opts...)
	return &Duplex{r: r1, w: w2}, &Duplex{r: r2, w: w1}
}

// Read implements io.Reader.
func (d *Duplex) Read(p []byte) (int, error) {
	return d.r.Read(p)
}

// Write implements io.Writer.
func (d *Duplex) Write(p []byte) (int, error) {
	return d.w.Write(p)
}

// Flush flushes the write side.
func (d *Duplex) Flush() error {
	return d.w.Flush()
}

// Close closes the write side, then the read side.
func (d *Duplex) Close() error {
	return errors.Join(d.w.Close(), d.r.Close())
}

// Reader returns the read side.
func (d *Duplex) Reader() *Reader {
	return d.r
}

// Writer returns the write side, either a *Writer or a *BufferedWriter.
func (d *Duplex) Writer() io.Writer {
	return d.w
}
