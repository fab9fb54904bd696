package protocol

import "testing"

func TestVerifyShift(t *testing.T) {
	in := []byte{0x01, 0x02, 0x04, 0x08, 0x10, 0x20, 0x40, 0x80}
	want := []byte{0x08, 0x10, 0x20, 0x40, 0x80, 0x01, 0x02, 0x04}

	got := verifyShift(in)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("verifyShift(%#v)[%d] = 0x%02X, want 0x%02X", in, i, got[i], want[i])
		}
	}
}

func TestVerifyShiftPowerOfTwoRotation(t *testing.T) {
	for k := 0; k < 8; k++ {
		b := byte(1 << uint(k))
		got := verifyShift([]byte{b})[0]
		want := byte(1 << uint((k+3)%8))
		if got != want {
			t.Errorf("verifyShift(0x%02X) = 0x%02X, want 0x%02X", b, got, want)
		}
	}
}
