package connection

import (
	"io"
	"net"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"go.bug.st/serial"
)

// Bridge relays raw bytes between a single TCP client and a local
// serial port, for flashing a board attached to a headless remote
// host. It does not parse the framing above it: at most one command is
// ever in flight on this protocol, so one client's byte stream can be
// piped straight through without interleaving logic.
type Bridge struct {
	ListenAddr string
	SerialPort string
	Baud       int

	Logger logrus.FieldLogger
}

func (b *Bridge) logger() logrus.FieldLogger {
	if b.Logger != nil {
		return b.Logger
	}
	return logrus.StandardLogger()
}

// Listen accepts exactly one TCP client at a time and relays bytes
// to/from the serial port until that client disconnects, then waits
// for the next one.
func (b *Bridge) Listen() error {
	listener, err := net.Listen("tcp", b.ListenAddr)
	if err != nil {
		return errors.Wrapf(err, "listening on %s", b.ListenAddr)
	}
	defer listener.Close()

	log := b.logger()
	log.WithFields(logrus.Fields{"listen": b.ListenAddr, "serial": b.SerialPort}).Info("bridge listening")

	for {
		conn, err := listener.Accept()
		if err != nil {
			return errors.Wrap(err, "accepting connection")
		}
		b.handle(conn)
	}
}

func (b *Bridge) handle(tcpConn net.Conn) {
	defer tcpConn.Close()
	log := b.logger().WithField("client", tcpConn.RemoteAddr().String())
	log.Info("client connected")

	port, err := serial.Open(b.SerialPort, &serial.Mode{BaudRate: b.Baud})
	if err != nil {
		log.WithError(err).Error("opening serial port")
		return
	}
	defer port.Close()

	done := make(chan struct{})
	go func() {
		io.Copy(port, tcpConn)
		close(done)
	}()
	io.Copy(tcpConn, port)
	<-done
	log.Info("client disconnected")
}
