package protocol

import "testing"

func TestChecksum(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		expected byte
	}{
		{
			name:     "checksum matches the known worked example",
			data:     []byte{0x05, 0x52, 0x00, 0x00, 0x00, 0x01},
			expected: 0xA8,
		},
		{
			name:     "empty sums to zero negated",
			data:     []byte{},
			expected: 0x00,
		},
		{
			name:     "single byte",
			data:     []byte{0x01},
			expected: 0xFF,
		},
		{
			name:     "wraps at 256",
			data:     []byte{0xFF, 0xFF},
			expected: 0x02,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := checksum(tt.data)
			if got != tt.expected {
				t.Errorf("checksum(%v) = 0x%02X, want 0x%02X", tt.data, got, tt.expected)
			}
		})
	}
}

func TestChecksumMakesSumAMultipleOf256(t *testing.T) {
	vectors := [][]byte{
		{},
		{0x01},
		{0x05, 0x57, 0x00, 0x00, 0x00, 0x10, 0xAA, 0xBB},
		{0xFF, 0xFF, 0xFF, 0xFF},
	}
	for _, d := range vectors {
		cs := checksum(d)
		sum := int(cs)
		for _, b := range d {
			sum += int(b)
		}
		if sum%256 != 0 {
			t.Errorf("checksum(%v) = 0x%02X does not make the sum a multiple of 256 (got %d)", d, cs, sum)
		}
	}
}
