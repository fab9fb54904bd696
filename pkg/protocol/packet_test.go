package protocol

import (
	"bytes"
	"testing"
)

func TestEncodePacketWriteFrameLayout(t *testing.T) {
	// Write(addr=0x00000010, data=[0xAA,0xBB]) emits
	// 07 0E 07 57 00 00 00 10 AA BB CS, where CS is the two's-complement
	// checksum over [length, command, address, data]. Summing those
	// bytes (7+0x57+0+0+0+0x10+0xAA+0xBB = 467) and negating mod 256
	// gives 0x2D.
	frame, err := encodePacket(cmdWrite, 0x00000010, []byte{0xAA, 0xBB})
	if err != nil {
		t.Fatalf("encodePacket: %v", err)
	}

	want := []byte{0x07, 0x0E, 0x07, 0x57, 0x00, 0x00, 0x00, 0x10, 0xAA, 0xBB, 0x2D}
	if !bytes.Equal(frame, want) {
		t.Errorf("encodePacket() = % X, want % X", frame, want)
	}
}

func TestEncodePacketLengthByteInvariant(t *testing.T) {
	for _, n := range []int{0, 1, 16, 100, 250} {
		data := make([]byte, n)
		frame, err := encodePacket(cmdWrite, 0x1000, data)
		if err != nil {
			t.Fatalf("encodePacket with %d data bytes: %v", n, err)
		}
		gotLength := int(frame[2])
		if gotLength != 5+n {
			t.Errorf("length byte = %d, want %d", gotLength, 5+n)
		}
	}
}

func TestEncodePacketRejectsOversizedData(t *testing.T) {
	data := make([]byte, maxDataLength+1)
	_, err := encodePacket(cmdWrite, 0, data)
	if err == nil {
		t.Fatal("expected PacketTooLarge error, got nil")
	}
	if _, ok := err.(*PacketTooLarge); !ok {
		t.Errorf("expected *PacketTooLarge, got %T", err)
	}
}

func TestEncodePacketRemapsAddress(t *testing.T) {
	frame, err := encodePacket(cmdErase, 0x00800100, []byte{1})
	if err != nil {
		t.Fatalf("encodePacket: %v", err)
	}
	gotAddr := uint32(frame[4])<<24 | uint32(frame[5])<<16 | uint32(frame[6])<<8 | uint32(frame[7])
	if gotAddr != 0x00000100 {
		t.Errorf("address on wire = 0x%08X, want 0x00000100", gotAddr)
	}
}
