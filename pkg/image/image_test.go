package image

import (
	"strings"
	"testing"
)

func TestSniffIntelHex(t *testing.T) {
	data := []byte(":10000000214601360121470136007EFE09D2190140\n:00000001FF\n")
	kind, err := Sniff(data)
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if kind != KindIntelHex {
		t.Errorf("Sniff() = %v, want KindIntelHex", kind)
	}
}

func TestSniffELF(t *testing.T) {
	data := append([]byte{0x7F, 'E', 'L', 'F'}, make([]byte, 16)...)
	kind, err := Sniff(data)
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if kind != KindELF {
		t.Errorf("Sniff() = %v, want KindELF", kind)
	}
}

func TestSniffRawBinary(t *testing.T) {
	data := []byte{0x00, 0x01, 0x02, 0x03, 0xAA, 0xBB}
	kind, err := Sniff(data)
	if err != nil {
		t.Fatalf("Sniff: %v", err)
	}
	if kind != KindRawBinary {
		t.Errorf("Sniff() = %v, want KindRawBinary", kind)
	}
}

func TestFromBytesDefaultsToSingleSegment(t *testing.T) {
	segs := FromBytes(0x1000, []byte{1, 2, 3})
	if len(segs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(segs))
	}
	if segs[0].Start != 0x1000 || len(segs[0].Bytes) != 3 {
		t.Errorf("unexpected segment: %+v", segs[0])
	}
	if segs[0].End() != 0x1003 {
		t.Errorf("End() = 0x%X, want 0x1003", segs[0].End())
	}
}

func TestFromIntelHexParsesDataRecords(t *testing.T) {
	// Two data records at consecutive addresses, followed by EOF.
	hex := ":04000000DEADBEEFC4\n:0400040012345678E4\n:00000001FF\n"
	segs, err := FromIntelHex(strings.NewReader(hex))
	if err != nil {
		t.Fatalf("FromIntelHex: %v", err)
	}
	if len(segs) == 0 {
		t.Fatal("expected at least one segment")
	}
	var total int
	for _, s := range segs {
		total += len(s.Bytes)
	}
	if total != 8 {
		t.Errorf("total bytes = %d, want 8", total)
	}
}

func TestLoadDispatchesByKind(t *testing.T) {
	raw := []byte{0xAA, 0xBB, 0xCC}
	segs, err := Load(raw, 0x2000)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(segs) != 1 || segs[0].Start != 0x2000 {
		t.Errorf("unexpected segments for raw binary: %+v", segs)
	}

	elf := append([]byte{0x7F, 'E', 'L', 'F'}, make([]byte, 16)...)
	_, err = Load(elf, 0)
	if err != ErrNeedsPreconversion {
		t.Errorf("Load(ELF) error = %v, want ErrNeedsPreconversion", err)
	}
}

func TestValidateRejectsOverlap(t *testing.T) {
	segs := []Segment{
		{Start: 0x1000, Bytes: []byte{1, 2, 3, 4}},
		{Start: 0x1002, Bytes: []byte{5, 6}},
	}
	if err := Validate(segs); err == nil {
		t.Error("expected an error for overlapping segments")
	}
}

func TestValidateRejectsEmptyImage(t *testing.T) {
	if err := Validate(nil); err == nil {
		t.Error("expected an error for an empty image")
	}
}

func TestValidateAcceptsDisjointAscending(t *testing.T) {
	segs := []Segment{
		{Start: 0x1000, Bytes: []byte{1, 2}},
		{Start: 0x2000, Bytes: []byte{3, 4}},
	}
	if err := Validate(segs); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
