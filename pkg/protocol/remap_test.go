package protocol

import "testing"

func TestRemapAddress(t *testing.T) {
	tests := []struct {
		name string
		addr uint32
		want uint32
	}{
		{"S3: mirrored address folds down", 0x00800100, 0x00000100},
		{"S3: unmirrored address is unchanged", 0x00000100, 0x00000100},
		{"exact threshold maps to zero", 0x00800000, 0x00000000},
		{"just below threshold is unchanged", 0x007FFFFF, 0x007FFFFF},
		{"far above the mirror window", 0x00900000, 0x00100000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := remapAddress(tt.addr); got != tt.want {
				t.Errorf("remapAddress(0x%X) = 0x%X, want 0x%X", tt.addr, got, tt.want)
			}
		})
	}
}

func TestRemapAddressInvariant(t *testing.T) {
	// Within the single mirrored window [threshold, 2*threshold), a
	// mirrored address always folds back below the threshold.
	addrs := []uint32{0, 1, 0x007FFFFF, 0x00800000, 0x00FFFFFF, 0x00800100}
	for _, a := range addrs {
		r := remapAddress(a)
		if a >= mirrorThreshold && r >= mirrorThreshold {
			t.Errorf("remapAddress(0x%X) = 0x%X did not fold below the mirror threshold", a, r)
		}
		if a < mirrorThreshold && r != a {
			t.Errorf("remapAddress(0x%X) = 0x%X, want unchanged", a, r)
		}
	}
}
