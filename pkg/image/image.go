// Package image loads a firmware image into the disjoint,
// address-tagged byte segments the uploader writes to flash: a plain
// value the orchestrator can chunk and replay, rather than a
// callback-driven format adapter.
package image

import (
	"bytes"
	"io"
	"regexp"
	"sort"

	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
)

// Segment is one contiguous run of bytes destined for a starting flash
// address. A firmware image is an ordered list of disjoint segments.
type Segment struct {
	Start uint32
	Bytes []byte
}

// End returns the address one past the segment's last byte.
func (s Segment) End() uint32 {
	return s.Start + uint32(len(s.Bytes))
}

// Kind identifies the format Sniff recognized.
type Kind int

const (
	KindUnknown Kind = iota
	KindIntelHex
	KindRawBinary
	KindELF
)

func (k Kind) String() string {
	switch k {
	case KindIntelHex:
		return "intel-hex"
	case KindRawBinary:
		return "raw-binary"
	case KindELF:
		return "elf"
	default:
		return "unknown"
	}
}

// ErrNeedsPreconversion is returned by Load when the input is an ELF
// object: converting it to a flat image is an external collaborator's
// job (e.g. `objcopy -O ihex`), not this package's.
var ErrNeedsPreconversion = errors.New("ELF input needs external conversion to Intel HEX or raw binary first")

// intelHexLinePattern uses \s* between the byte-count and address
// fields, not \s+: real Intel HEX records never put whitespace there
// (start-code, byte-count, address and type run together with no
// separator), so \s+ would fail to sniff a well-formed file.
var intelHexLinePattern = regexp.MustCompile(`(?m)^:[0-9A-Fa-f]{2}\s*[0-9A-Fa-f]{4,}`)

// Sniff classifies a buffer's format by its leading bytes, without
// assuming a file extension: an ELF magic (0x7F 'E' 'L' 'F') identifies
// KindELF; a line matching the Intel HEX start-code/byte-count/address
// shape identifies KindIntelHex; anything else is treated as
// KindRawBinary.
func Sniff(data []byte) (Kind, error) {
	if len(data) >= 4 && data[0] == 0x7F && bytes.Equal(data[1:4], []byte("ELF")) {
		return KindELF, nil
	}
	if intelHexLinePattern.Match(data) {
		return KindIntelHex, nil
	}
	return KindRawBinary, nil
}

// Load sniffs data's format and returns its segments. baseAddr supplies
// the load address when data turns out to be raw binary; it is ignored
// for Intel HEX, which carries its own addresses.
func Load(data []byte, baseAddr uint32) ([]Segment, error) {
	kind, err := Sniff(data)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindELF:
		return nil, ErrNeedsPreconversion
	case KindIntelHex:
		return FromIntelHex(bytes.NewReader(data))
	default:
		return FromBytes(baseAddr, data), nil
	}
}

// FromIntelHex parses r as an Intel HEX file via gohex and returns its
// data segments in ascending address order.
func FromIntelHex(r io.Reader) ([]Segment, error) {
	mem := gohex.NewMemory()
	if err := mem.ParseIntelHex(r); err != nil {
		return nil, errors.Wrap(err, "parsing Intel HEX image")
	}

	raw := mem.GetDataSegments()
	segments := make([]Segment, 0, len(raw))
	for _, s := range raw {
		segments = append(segments, Segment{Start: s.Address, Bytes: s.Data})
	}
	sort.Slice(segments, func(i, j int) bool { return segments[i].Start < segments[j].Start })
	return segments, nil
}

// FromBytes wraps a raw buffer as a single segment starting at addr.
// Callers pass 0 for an extensionless raw image with no inherent
// load address.
func FromBytes(addr uint32, data []byte) []Segment {
	return []Segment{{Start: addr, Bytes: data}}
}

// Validate checks that segments are internally sound: non-empty, in
// ascending address order, and pairwise disjoint. A malformed image is
// a configuration error, not a device-side failure.
func Validate(segments []Segment) error {
	if len(segments) == 0 {
		return errors.New("image contains no segments")
	}
	for i, s := range segments {
		if len(s.Bytes) == 0 {
			return errors.Errorf("segment %d at 0x%08X is empty", i, s.Start)
		}
		if i > 0 && s.Start < segments[i-1].End() {
			return errors.Errorf("segment %d at 0x%08X overlaps the previous segment ending at 0x%08X",
				i, s.Start, segments[i-1].End())
		}
	}
	return nil
}
