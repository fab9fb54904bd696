package cmd

import "testing"

func TestParseHexAddress(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    uint32
		wantErr bool
	}{
		{"bare", "1234", 0x1234, false},
		{"0x prefix", "0x1234", 0x1234, false},
		{"0X prefix", "0X1234", 0x1234, false},
		{"$ prefix", "$1234", 0x1234, false},
		{"lowercase digits", "abcd", 0xABCD, false},
		{"24-bit", "800000", 0x800000, false},
		{"zero", "0", 0, false},
		{"not hex", "xyz", 0, true},
		{"empty", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseHexAddress(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseHexAddress(%q): expected error, got nil", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseHexAddress(%q): unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("parseHexAddress(%q) = 0x%X, want 0x%X", tt.input, got, tt.want)
			}
		})
	}
}
