package connection

import (
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"
)

// SerialConnection drives a UART with go.bug.st/serial — the library
// every serial-flashing tool in this family uses.
type SerialConnection struct {
	name        string
	baud        int
	dataBits    int
	parity      string
	stopBits    int
	xonXoff     bool
	rtsCts      bool
	readTimeout time.Duration

	port serial.Port
}

func parityMode(p string) serial.Parity {
	switch p {
	case "E":
		return serial.EvenParity
	case "O":
		return serial.OddParity
	case "M":
		return serial.MarkParity
	case "S":
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

func stopBitsMode(n int) serial.StopBits {
	switch n {
	case 2:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}

// Open acquires the serial port with the configured baud rate, data
// bits, parity, stop bits and read timeout. XON/XOFF and RTS/CTS flow
// control are not enabled; if either flag is set, the RTS line is set
// to the value of rtsCts.
func (s *SerialConnection) Open() error {
	if s.name == "" {
		return newPortError(s.name, ErrPortUnavailable)
	}

	mode := &serial.Mode{
		BaudRate: s.baud,
		DataBits: s.dataBits,
		Parity:   parityMode(s.parity),
		StopBits: stopBitsMode(s.stopBits),
	}

	port, err := serial.Open(s.name, mode)
	if err != nil {
		return newPortError(s.name, errors.Wrap(ErrPortBusy, err.Error()))
	}

	if s.xonXoff || s.rtsCts {
		if err := port.SetRTS(s.rtsCts); err != nil {
			port.Close()
			return errors.Wrap(err, "setting flow control")
		}
	}

	if err := port.SetReadTimeout(s.readTimeout); err != nil {
		port.Close()
		return errors.Wrap(err, "setting read timeout")
	}

	s.port = port
	return nil
}

// Close is idempotent: closing an already-closed or never-opened
// connection succeeds.
func (s *SerialConnection) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}

// IsOpen reports whether the underlying port handle is live.
func (s *SerialConnection) IsOpen() bool {
	return s.port != nil
}

// Read returns up to n bytes that arrived within the configured short
// timeout; it does not block waiting for all n.
func (s *SerialConnection) Read(n int) ([]byte, error) {
	if s.port == nil {
		return nil, newPortError(s.name, errors.Wrap(ErrPortUnavailable, "read on closed connection"))
	}
	buf := make([]byte, n)
	read, err := s.port.Read(buf)
	if err != nil {
		return nil, errors.Wrap(err, "serial read")
	}
	return buf[:read], nil
}

// Write blocks until every byte of data has left the driver's buffer.
func (s *SerialConnection) Write(data []byte) error {
	if s.port == nil {
		return newPortError(s.name, errors.Wrap(ErrPortUnavailable, "write on closed connection"))
	}
	total := 0
	for total < len(data) {
		n, err := s.port.Write(data[total:])
		if err != nil {
			return newPortError(s.name, errors.Wrap(err, "serial write"))
		}
		if n == 0 {
			return newPortError(s.name, errors.Wrap(ErrPortUnavailable, "serial write stalled"))
		}
		total += n
	}
	return nil
}
