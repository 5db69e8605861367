package resp

import (
	"errors"
	"io"
	"slices"
	"time"
)

// DefaultReadBufferSize is the initial size of the accumulation buffer and the size of each read
const DefaultReadBufferSize = 4 * 1024

// maxEmptyReads bounds consecutive (0, nil) reads before giving up, like bufio does
const maxEmptyReads = 100

type deadliner interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// ConnOption configures a Conn
type ConnOption func(*Conn)

// WithDecoder replaces the default decoder limits
func WithDecoder(d *Decoder) ConnOption {
	return func(c *Conn) {
		c.dec = d
	}
}

// WithReadBufferSize sets the initial buffer capacity and the per-read chunk size
func WithReadBufferSize(n int) ConnOption {
	return func(c *Conn) {
		if n > 0 {
			c.readSize = n
		}
	}
}

// WithIdleTimeout sets a read deadline before every blocking read.
// It has no effect when the stream does not support deadlines
func WithIdleTimeout(d time.Duration) ConnOption {
	return func(c *Conn) {
		c.idleTimeout = d
	}
}

// WithWriteTimeout sets a write deadline before every flush
func WithWriteTimeout(d time.Duration) ConnOption {
	return func(c *Conn) {
		c.writeTimeout = d
	}
}

// WithObserver reports read and written byte counts to o
func WithObserver(o Observer) ConnOption {
	return func(c *Conn) {
		c.obs = o
	}
}

// Conn frames a byte stream as a sequence of RESP values.
// It owns one accumulation buffer; bytes arrive in arbitrary chunks and are
// decoded once a whole frame is buffered. Conn is not safe for concurrent reads
type Conn struct {
	rwc io.ReadWriteCloser
	dec *Decoder
	enc *Encoder

	buf  []byte // buf[r:] is received but not yet decoded
	r    int
	need int // buffered length required before decoding is retried

	readSize     int
	idleTimeout  time.Duration
	writeTimeout time.Duration
	obs          Observer
}

var _ Stream = (*Conn)(nil)

// NewConn wraps rwc
func NewConn(rwc io.ReadWriteCloser, opts ...ConnOption) *Conn {
	c := &Conn{
		rwc:      rwc,
		dec:      defaultDecoder,
		readSize: DefaultReadBufferSize,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.buf = make([]byte, 0, c.readSize)
	c.enc = NewEncoder(&countingWriter{w: rwc, obs: c.obs})

	return c
}

// ReadValue returns the next value from the stream.
//
// It returns io.EOF when the peer closed the stream between frames, ErrConnReset
// when it closed in the middle of one and a *ProtocolError for malformed input.
// After a protocol error the stream can't be resynchronized
func (c *Conn) ReadValue() (Value, error) {
	for {
		if pending := len(c.buf) - c.r; pending > 0 && pending >= c.need {
			v, n, err := c.dec.Decode(c.buf[c.r:])
			switch {
			case err == nil:
				c.r += n
				c.need = 0
				if c.r == len(c.buf) {
					c.buf = c.buf[:0]
					c.r = 0
				}
				return v, nil
			case errors.Is(err, ErrIncomplete):
				c.need = n
			default:
				return Value{}, err
			}
		}

		if err := c.fill(); err != nil {
			return Value{}, err
		}
	}
}

// fill drops consumed bytes and reads at least once into the buffer
func (c *Conn) fill() error {
	if c.r > 0 {
		c.buf = c.buf[:copy(c.buf, c.buf[c.r:])]
		c.r = 0
	}
	c.buf = slices.Grow(c.buf, c.readSize)

	if c.idleTimeout > 0 {
		if d, ok := c.rwc.(deadliner); ok {
			if err := d.SetReadDeadline(time.Now().Add(c.idleTimeout)); err != nil {
				return err
			}
		}
	}

	for i := 0; i < maxEmptyReads; i++ {
		n, err := c.rwc.Read(c.buf[len(c.buf):cap(c.buf)])
		c.buf = c.buf[:len(c.buf)+n]

		if n > 0 {
			if c.obs != nil {
				c.obs.BytesRead(n)
			}
			// an error that came along with data shows up again on the next read
			return nil
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				if len(c.buf) > 0 {
					return ErrConnReset
				}
				return io.EOF
			}
			return err
		}
	}

	return io.ErrNoProgress
}

// Buffered returns the number of received bytes that have not been decoded yet
func (c *Conn) Buffered() int {
	return len(c.buf) - c.r
}

// WriteValue encodes v into the output buffer
func (c *Conn) WriteValue(v Value) error {
	return c.enc.Write(v)
}

// Flush sends the buffered output
func (c *Conn) Flush() error {
	if c.writeTimeout > 0 {
		if d, ok := c.rwc.(deadliner); ok {
			if err := d.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
				return err
			}
		}
	}
	return c.enc.Flush()
}

// Send writes v and flushes it
func (c *Conn) Send(v Value) error {
	if err := c.WriteValue(v); err != nil {
		return err
	}
	return c.Flush()
}

// Close closes the underlying stream. Unflushed output is discarded
func (c *Conn) Close() error {
	return c.rwc.Close()
}

type countingWriter struct {
	w   io.Writer
	obs Observer
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	if n > 0 && cw.obs != nil {
		cw.obs.BytesWritten(n)
	}
	return n, err
}
