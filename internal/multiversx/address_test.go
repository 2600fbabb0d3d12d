package multiversx

import (
	"strings"
	"testing"
)

func TestIsValidAddress(t *testing.T) {
	valid := "erd1" + strings.Repeat("q", 58)

	tests := []struct {
		name string
		addr string
		want bool
	}{
		{"valid lowercase", valid, true},
		{"valid mixed case", "ERD1" + strings.Repeat("Q", 58), true},
		{"too short", "erd1" + strings.Repeat("q", 57), false},
		{"too long", "erd1" + strings.Repeat("q", 59), false},
		{"wrong prefix", "ord1" + strings.Repeat("q", 58), false},
		{"illegal character", "erd1" + strings.Repeat("q", 57) + "!", false},
		{"empty", "", false},
		{"embedded address", "x" + valid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidAddress(tt.addr); got != tt.want {
				t.Errorf("IsValidAddress(%q) = %v, want %v", tt.addr, got, tt.want)
			}
		})
	}
}
