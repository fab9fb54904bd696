// Package protocol implements the ADuC70xx AN-724 serial bootloader
// wire protocol: packet framing, the handshake, the command layer and
// the address/verify transforms it depends on.
package protocol

// Wire-level constants, bit-exact per AN-724.
const (
	magicHi = 0x07
	magicLo = 0x0E

	respAck = 0x06
	respNak = 0x07

	handshakeProbe = 0x08

	// mirrorThreshold is the datasheet's mirror-window boundary
	// (0x00800000); see DESIGN.md for why this differs from an
	// off-by-one-zero threshold seen in some older AN-724 tooling.
	mirrorThreshold = 0x00800000

	maxPacketLength = 255
	maxDataLength   = maxPacketLength - 5

	minErasePages = 1
	maxErasePages = 124
)

// Command bytes, sent as the fourth frame field (ASCII).
const (
	cmdErase  = 'E'
	cmdWrite  = 'W'
	cmdVerify = 'V'
	cmdRun    = 'R'
)

// Run-command address field values.
const (
	RunModeJump  = 0
	RunModeReset = 1
)
