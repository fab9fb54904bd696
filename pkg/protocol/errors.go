package protocol

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigurationError marks a host-side programming error: bad erase
// page count, an oversized packet, an empty image. These are never
// retried and never sent to the device.
type ConfigurationError struct {
	cause error
}

func (e *ConfigurationError) Error() string { return e.cause.Error() }
func (e *ConfigurationError) Unwrap() error { return e.cause }

func newConfigurationError(format string, args ...interface{}) error {
	return &ConfigurationError{cause: errors.Errorf(format, args...)}
}

// HandshakeError marks a failure waiting for the device to identify
// itself, typically because a caller-supplied context deadline
// expired while probing.
type HandshakeError struct {
	cause error
}

func (e *HandshakeError) Error() string { return fmt.Sprintf("handshake: %s", e.cause) }
func (e *HandshakeError) Unwrap() error { return e.cause }

// ProtocolError marks a response byte that is neither ACK (0x06) nor
// NAK (0x07).
type ProtocolError struct {
	Got byte
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("unexpected response byte: 0x%02X", e.Got)
}

// PacketTooLarge marks a framed packet whose length byte would exceed
// 255 (5 header bytes + up to 250 data bytes).
type PacketTooLarge struct {
	DataLen int
}

func (e *PacketTooLarge) Error() string {
	return fmt.Sprintf("packet too large: %d data bytes (max %d)", e.DataLen, maxDataLength)
}

// CommandFailed marks a command that NAK'd across every retry
// attempt. Verify failures are reported as VerifyMismatch, which
// embeds this type with Command == 'V'.
type CommandFailed struct {
	Command  byte
	Address  uint32
	Attempts int
}

func (e *CommandFailed) Error() string {
	return fmt.Sprintf("command %q at 0x%08X failed after %d attempt(s)", e.Command, e.Address, e.Attempts)
}

// VerifyMismatch marks a Verify command that NAK'd after retries: the
// device's flash contents did not match what the host sent.
type VerifyMismatch struct {
	CommandFailed
}

func newVerifyMismatch(address uint32, attempts int) error {
	return &VerifyMismatch{CommandFailed{Command: cmdVerify, Address: address, Attempts: attempts}}
}

func newCommandFailed(command byte, address uint32, attempts int) error {
	if command == cmdVerify {
		return newVerifyMismatch(address, attempts)
	}
	return &CommandFailed{Command: command, Address: address, Attempts: attempts}
}

// PostStepError marks a nonzero exit from the optional post-upload
// shell command.
type PostStepError struct {
	ExitCode int
	Cause    error
}

func (e *PostStepError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("post-run step exited %d: %s", e.ExitCode, e.Cause)
	}
	return fmt.Sprintf("post-run step exited %d", e.ExitCode)
}
func (e *PostStepError) Unwrap() error { return e.Cause }

// NewPostStepError builds a PostStepError for a failed post-run
// command invocation.
func NewPostStepError(exitCode int, cause error) error {
	return &PostStepError{ExitCode: exitCode, Cause: cause}
}
