// Package syncpipe provides a synchronous in-memory pipe built on a
// rendezvous channel of byte chunks. Each Write on the unbuffered writer
// becomes one chunk handed directly to the reader; the buffered writer
// coalesces small writes and forwards them early whenever the reader is
// already waiting. Closing every writer ends the stream for the reader, and
// closing the reader makes writes fail with ErrBrokenPipe.
package syncpipe
