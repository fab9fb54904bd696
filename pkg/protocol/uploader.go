package protocol

import (
	"context"
	"fmt"

	"github.com/aduc70x/aducupload/pkg/config"
	"github.com/aduc70x/aducupload/pkg/connection"
	"github.com/aduc70x/aducupload/pkg/status"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Uploader is the core handle: constructed with a transport and line
// parameters, it drives the handshake, the packet/command layer, and
// reports status/progress through a status.Reporter.
type Uploader struct {
	conn     connection.Connection
	cfg      config.Config
	reporter status.Reporter
	log      logrus.FieldLogger

	state connection.State
}

// New builds an Uploader over an already-constructed Connection. The
// Connection is not opened here — Handshake (or the orchestrator)
// opens it as needed, consistent with the Closed->Open->Handshaken
// lifecycle.
func New(conn connection.Connection, cfg config.Config, reporter status.Reporter) *Uploader {
	if reporter == nil {
		reporter = status.Noop{}
	}
	return &Uploader{
		conn:     conn,
		cfg:      cfg,
		reporter: reporter,
		log:      logrus.StandardLogger(),
		state:    connection.StateClosed,
	}
}

// SetLogger attaches a structured logger used for per-frame debug
// tracing, generalizing the package-level SetDebugLogger pattern seen
// in sibling bootloader clients to a per-instance, structured logger.
func (u *Uploader) SetLogger(log logrus.FieldLogger) {
	u.log = log
}

// State reports the current connection lifecycle state.
func (u *Uploader) State() connection.State {
	return u.state
}

// Reporter returns the status.Reporter this Uploader reports through,
// letting an orchestrator built on top emit its own phases (PostStep,
// Done) to the same observer.
func (u *Uploader) Reporter() status.Reporter {
	return u.reporter
}

func (u *Uploader) ensureOpen() error {
	if u.conn.IsOpen() {
		if u.state == connection.StateClosed {
			u.state = connection.StateOpen
		}
		return nil
	}
	u.reporter.StatusChanged(status.Connecting)
	if err := u.conn.Open(); err != nil {
		return errors.Wrap(err, "opening connection")
	}
	u.state = connection.StateOpen
	return nil
}

// Close releases the transport. It is idempotent.
func (u *Uploader) Close() error {
	err := u.conn.Close()
	u.state = connection.StateClosed
	return err
}

// drain discards whatever is immediately readable, removing response
// bytes left over from an earlier aborted attempt so they cannot be
// misread as this command's response.
func (u *Uploader) drain() {
	for {
		b, err := u.conn.Read(1)
		if err != nil || len(b) == 0 {
			return
		}
	}
}

// transfer frames command/address/data, drains stale input, sends the
// frame, and blocks for exactly one response byte. At most one command
// is ever in flight: transfer does not return until this command's
// response has been observed.
func (u *Uploader) transfer(command byte, address uint32, data []byte) (bool, error) {
	frame, err := encodePacket(command, address, data)
	if err != nil {
		return false, &ConfigurationError{cause: err}
	}

	if err := u.ensureOpen(); err != nil {
		return false, err
	}

	u.drain()

	if err := u.conn.Write(frame); err != nil {
		return false, errors.Wrap(err, "writing command frame")
	}

	u.log.WithFields(logrus.Fields{
		"command": string(command),
		"address": address,
		"data":    fmt.Sprintf("% X", data),
	}).Debug("sent command frame")

	var resp []byte
	for len(resp) == 0 {
		b, err := u.conn.Read(1)
		if err != nil {
			return false, errors.Wrap(err, "reading response byte")
		}
		resp = b
	}

	switch resp[0] {
	case respAck:
		return true, nil
	case respNak:
		return false, nil
	default:
		return false, &ProtocolError{Got: resp[0]}
	}
}

// Handshake probes the device with backspaces until it identifies
// itself. It is idempotent: if the connection is already Handshaken,
// it returns immediately. ctx bounds an otherwise indefinite probe
// loop — a caller with no deadline requirements can pass
// context.Background().
func (u *Uploader) Handshake(ctx context.Context) error {
	if u.state == connection.StateHandshaken {
		return nil
	}
	if err := u.ensureOpen(); err != nil {
		return err
	}

	u.reporter.StatusChanged(status.WaitingForDevice)
	u.reporter.ProgressChanged(0)

	reportedNotInFlashMode := false
	for {
		select {
		case <-ctx.Done():
			return &HandshakeError{cause: ctx.Err()}
		default:
		}

		if err := u.conn.Write([]byte{handshakeProbe}); err != nil {
			return errors.Wrap(err, "sending handshake probe")
		}
		resp, err := u.conn.Read(24)
		if err != nil {
			return errors.Wrap(err, "reading handshake response")
		}
		if len(resp) == 0 {
			continue
		}
		if resp[0] == 0x07 || resp[0] == 0x80 {
			if !reportedNotInFlashMode {
				u.reporter.StatusChanged(status.NotInFlashMode)
				reportedNotInFlashMode = true
			}
			continue
		}

		u.log.WithField("id", string(resp)).Debug("device identified")
		u.reporter.StatusChanged(status.DeviceFound)
		u.state = connection.StateHandshaken
		return nil
	}
}
