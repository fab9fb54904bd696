// Package connection provides the byte-level transports an Uploader
// can run over: a local serial port, or a TCP pass-through to one
// attached to a remote host.
package connection

import (
	"fmt"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// State is the connection lifecycle from AN-724's point of view:
// Closed -> Open (transport acquired) -> Handshaken (device identified,
// flash-mode confirmed) -> Open (after Run/Reset) -> Closed.
// Handshaken is sticky within a single upload session and is dropped
// whenever Run/Reset succeeds.
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHandshaken
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHandshaken:
		return "handshaken"
	default:
		return "unknown"
	}
}

// Sentinel causes a PortError can wrap.
var (
	ErrPortBusy        = errors.New("port busy")
	ErrPortUnavailable = errors.New("port unavailable")
)

// PortError marks any transport-level failure: the port can't be
// opened, is already claimed by another process, or disconnects
// mid-session. Port is the spec/address a caller passed to New.
type PortError struct {
	Port  string
	cause error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("port %q: %s", e.Port, e.cause)
}
func (e *PortError) Unwrap() error { return e.cause }

func newPortError(port string, cause error) error {
	return &PortError{Port: port, cause: cause}
}

// Connection is the byte-level transport the protocol layer drives.
// Read returns whatever arrived within the configured short timeout —
// 0..n bytes is not itself an error; the caller decides what a short
// read means. Close is idempotent and a closed Connection may be
// reopened.
type Connection interface {
	Open() error
	Close() error
	IsOpen() bool

	// Read returns up to n bytes received within the short read
	// timeout. It never blocks past that timeout.
	Read(n int) ([]byte, error)

	// Write blocks until all of data has left the driver's send buffer.
	Write(data []byte) error
}

// New builds the appropriate Connection for a port spec: a TCP
// transport if the spec contains a colon (host:port, matching a
// go.bug.st/serial-style TCP bridge target), otherwise a local serial
// port.
func New(portSpec string, baud, dataBits int, parity string, stopBits int, xonXoff, rtsCts bool, readTimeout time.Duration) Connection {
	if strings.Contains(portSpec, ":") {
		return &TCPConnection{addr: portSpec, dialTimeout: 10 * time.Second, readTimeout: readTimeout}
	}
	return &SerialConnection{
		name:        portSpec,
		baud:        baud,
		dataBits:    dataBits,
		parity:      parity,
		stopBits:    stopBits,
		xonXoff:     xonXoff,
		rtsCts:      rtsCts,
		readTimeout: readTimeout,
	}
}
