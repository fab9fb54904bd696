package connection

import (
	"net"
	"time"

	"github.com/pkg/errors"
)

// TCPConnection is a pass-through transport to a serial port attached
// to a remote host running Bridge (see bridge.go). It presents the
// same short-read/ordered-write semantics as SerialConnection so the
// protocol layer above it is unaware of the difference.
type TCPConnection struct {
	addr        string
	dialTimeout time.Duration
	readTimeout time.Duration

	conn net.Conn
}

// Open dials the bridge's listener.
func (t *TCPConnection) Open() error {
	timeout := t.dialTimeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	conn, err := net.DialTimeout("tcp", t.addr, timeout)
	if err != nil {
		return newPortError(t.addr, errors.Wrap(ErrPortUnavailable, err.Error()))
	}
	t.conn = conn
	if t.readTimeout == 0 {
		t.readTimeout = 10 * time.Millisecond
	}
	return nil
}

// Close is idempotent.
func (t *TCPConnection) Close() error {
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	return err
}

// IsOpen reports whether the socket is live.
func (t *TCPConnection) IsOpen() bool {
	return t.conn != nil
}

// Read returns up to n bytes that arrive before the short read
// timeout elapses; a timeout with zero bytes read is not an error.
func (t *TCPConnection) Read(n int) ([]byte, error) {
	if t.conn == nil {
		return nil, newPortError(t.addr, errors.Wrap(ErrPortUnavailable, "read on closed connection"))
	}
	if err := t.conn.SetReadDeadline(time.Now().Add(t.readTimeout)); err != nil {
		return nil, errors.Wrap(err, "setting read deadline")
	}
	buf := make([]byte, n)
	read, err := t.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return buf[:read], nil
		}
		return nil, newPortError(t.addr, errors.Wrap(err, "tcp read"))
	}
	return buf[:read], nil
}

// Write blocks until all of data has been written to the socket.
func (t *TCPConnection) Write(data []byte) error {
	if t.conn == nil {
		return newPortError(t.addr, errors.Wrap(ErrPortUnavailable, "write on closed connection"))
	}
	total := 0
	for total < len(data) {
		n, err := t.conn.Write(data[total:])
		if err != nil {
			return newPortError(t.addr, errors.Wrap(err, "tcp write"))
		}
		total += n
	}
	return nil
}
