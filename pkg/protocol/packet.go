package protocol

import "encoding/binary"

// packet is the ephemeral on-wire frame for one command:
//
//	offset  size  value
//	0       2     magic = 0x07 0x0E
//	2       1     length = 5 + len(data)
//	3       1     command (ASCII)
//	4       4     address, big-endian, after mirror remap
//	8       N     data (0..250 bytes)
//	8+N     1     checksum
func encodePacket(command byte, address uint32, data []byte) ([]byte, error) {
	if len(data) > maxDataLength {
		return nil, &PacketTooLarge{DataLen: len(data)}
	}

	length := byte(5 + len(data))

	body := make([]byte, 0, 5+len(data))
	body = append(body, length, command)
	addrBytes := make([]byte, 4)
	binary.BigEndian.PutUint32(addrBytes, remapAddress(address))
	body = append(body, addrBytes...)
	body = append(body, data...)

	cs := checksum(body)

	frame := make([]byte, 0, 2+len(body)+1)
	frame = append(frame, magicHi, magicLo)
	frame = append(frame, body...)
	frame = append(frame, cs)
	return frame, nil
}
