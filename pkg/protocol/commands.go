package protocol

import (
	"github.com/aduc70x/aducupload/pkg/connection"
	"github.com/aduc70x/aducupload/pkg/status"
)

// Erase erases nPages consecutive flash pages starting at addr. Erase
// is never retried: a NAK here is reported immediately as a
// CommandFailed with Attempts == 1.
func (u *Uploader) Erase(addr uint32, nPages int) error {
	if nPages < minErasePages || nPages > maxErasePages {
		return newConfigurationError("erase page count must be %d..%d, got %d", minErasePages, maxErasePages, nPages)
	}

	u.reporter.StatusChanged(status.Erasing)
	ok, err := u.transfer(cmdErase, addr, []byte{byte(nPages)})
	if err != nil {
		u.reporter.StatusChanged(status.EraseFailed)
		return err
	}
	if !ok {
		u.reporter.StatusChanged(status.EraseFailed)
		return newCommandFailed(cmdErase, addr, 1)
	}
	u.reporter.StatusChanged(status.EraseSucceeded)
	return nil
}

// MassErase erases the entire flash array. It is expressed as Erase
// with a zero page count, the AN-724 convention for "erase all".
func (u *Uploader) MassErase() error {
	u.reporter.StatusChanged(status.Erasing)
	ok, err := u.transfer(cmdErase, 0, []byte{0})
	if err != nil {
		u.reporter.StatusChanged(status.EraseFailed)
		return err
	}
	if !ok {
		u.reporter.StatusChanged(status.EraseFailed)
		return newCommandFailed(cmdErase, 0, 1)
	}
	u.reporter.StatusChanged(status.EraseSucceeded)
	return nil
}

// Write sends one chunk of flash data, retrying up to cfg.NumTries
// times on NAK before giving up.
func (u *Uploader) Write(addr uint32, data []byte) error {
	u.reporter.StatusChanged(status.Writing)
	if err := u.retry(cmdWrite, addr, data); err != nil {
		u.reporter.StatusChanged(status.WriteFailed)
		return err
	}
	u.reporter.StatusChanged(status.WriteSucceeded)
	return nil
}

// Verify sends one chunk of shifted data for the device to compare
// against flash contents, retrying up to cfg.NumTries times. data must
// already be the unshifted bytes; verifyShift is applied internally.
func (u *Uploader) Verify(addr uint32, data []byte) error {
	u.reporter.StatusChanged(status.Verifying)
	shifted := verifyShift(data)
	if err := u.retry(cmdVerify, addr, shifted); err != nil {
		u.reporter.StatusChanged(status.VerifyFailed)
		return err
	}
	u.reporter.StatusChanged(status.VerifySucceeded)
	return nil
}

// Run sends the Run command with an empty payload and the mode encoded
// in the address field (0: jump to the application's start), retrying
// on NAK. A successful Run drops the connection back to Open: the
// device has left the bootloader and Handshaken no longer holds.
func (u *Uploader) Run() error {
	u.reporter.StatusChanged(status.Running)
	if err := u.retry(cmdRun, RunModeJump, nil); err != nil {
		u.reporter.StatusChanged(status.RunFailed)
		return err
	}
	u.state = connection.StateOpen
	u.reporter.StatusChanged(status.RunSucceeded)
	return nil
}

// Reset sends the Run command with mode 1 (force reset) encoded in the
// address field, retrying on NAK. A successful Reset drops the
// connection back to Open for the same reason as Run.
func (u *Uploader) Reset() error {
	u.reporter.StatusChanged(status.Resetting)
	if err := u.retry(cmdRun, RunModeReset, nil); err != nil {
		u.reporter.StatusChanged(status.ResetFailed)
		return err
	}
	u.state = connection.StateOpen
	u.reporter.StatusChanged(status.ResetSucceeded)
	return nil
}

// retry runs transfer up to cfg.NumTries times, returning nil on the
// first ACK and a CommandFailed/VerifyMismatch once every attempt has
// NAK'd. A non-nil transfer error (I/O or protocol-level) aborts
// immediately without consuming further attempts.
func (u *Uploader) retry(command byte, address uint32, data []byte) error {
	attempts := 0
	for attempts < u.cfg.NumTries {
		attempts++
		ok, err := u.transfer(command, address, data)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return newCommandFailed(command, address, attempts)
}
