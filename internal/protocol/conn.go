package protocol

import (
	"bufio"
	"errors"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// readBufSize bounds a single read; anything longer is rejected as invalid.
const readBufSize = 1000

// Result is the outcome of the most recent Send or Receive.
type Result int32

const (
	Success Result = iota
	EOFOrError
	InvalidMessage
)

func (r Result) String() string {
	switch r {
	case Success:
		return "success"
	case EOFOrError:
		return "eof-or-error"
	case InvalidMessage:
		return "invalid-message"
	default:
		return "unknown result " + strconv.Itoa(int(r))
	}
}

// Conn wraps one TCP connection with line framing.
//
// Send and Receive are meant to be driven by a single goroutine. Close may be
// called from any goroutine and any number of times.
type Conn struct {
	nc           net.Conn
	r            *bufio.Reader
	writeTimeout time.Duration

	last      atomic.Int32
	closed    atomic.Bool
	closeOnce sync.Once
	closeErr  error
}

// NewConn wraps an already established connection.
func NewConn(nc net.Conn) *Conn {
	return &Conn{
		nc: nc,
		r:  bufio.NewReaderSize(nc, readBufSize),
	}
}

// Dial connects to host:port over TCP.
func Dial(host string, port int) (*Conn, error) {
	nc, err := net.Dial("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return nil, err
	}
	return NewConn(nc), nil
}

// SetWriteTimeout bounds every subsequent Send. Zero disables the deadline.
func (c *Conn) SetWriteTimeout(d time.Duration) {
	c.writeTimeout = d
}

// IsOpen reports whether Close has not been called yet.
func (c *Conn) IsOpen() bool {
	return !c.closed.Load()
}

// LastResult returns the outcome of the most recent Send or Receive.
func (c *Conn) LastResult() Result {
	return Result(c.last.Load())
}

func (c *Conn) setResult(r Result) {
	c.last.Store(int32(r))
}

// RemoteAddr returns the peer address.
func (c *Conn) RemoteAddr() net.Addr {
	return c.nc.RemoteAddr()
}

// Send writes exactly one encoded line.
func (c *Conn) Send(m Message) bool {
	if !c.IsOpen() {
		c.setResult(EOFOrError)
		return false
	}
	if c.writeTimeout > 0 {
		c.nc.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	data := m.Encode()
	n, err := c.nc.Write(data)
	if err != nil || n != len(data) {
		c.setResult(EOFOrError)
		return false
	}
	c.setResult(Success)
	return true
}

// Receive reads one line into m. On failure m is left untouched and
// LastResult tells a broken stream apart from a malformed line.
func (c *Conn) Receive(m *Message) bool {
	if !c.IsOpen() {
		c.setResult(EOFOrError)
		return false
	}
	line, err := c.r.ReadSlice('\n')
	if len(line) == 0 {
		c.setResult(EOFOrError)
		return false
	}
	if err != nil && !errors.Is(err, bufio.ErrBufferFull) && !errors.Is(err, io.EOF) {
		c.setResult(EOFOrError)
		return false
	}
	// A full buffer or a trailing fragment at EOF has no terminator, so
	// Decode rejects it.
	decoded, derr := Decode(line)
	if derr != nil {
		c.setResult(InvalidMessage)
		return false
	}
	*m = decoded
	c.setResult(Success)
	return true
}

// Close releases the socket. Only the first call has any effect.
func (c *Conn) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		c.closeErr = c.nc.Close()
	})
	return c.closeErr
}
