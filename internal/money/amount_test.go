package money

import (
	"testing"
)

func TestFromMajor(t *testing.T) {
	tests := []struct {
		name       string
		major      string
		wantAtomic string
		wantErr    bool
	}{
		{"half", "0.5", "500000000000000000", false},
		{"one", "1", "1000000000000000000", false},
		{"large", "1234.25", "1234250000000000000000", false},
		{"smallest unit", "0.000000000000000001", "1", false},
		{"no leading zero", ".5", "500000000000000000", false},
		{"negative", "-5.25", "-5250000000000000000", false},
		{"zero", "0", "0", false},

		{"empty", "", "", true},
		{"two points", "10.50.30", "", true},
		{"letters", "abc", "", true},
		{"too many decimals", "0.0000000000000000001", "", true},
		{"bare point", ".", "", true},
		{"embedded space", "1 0", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromMajor(tt.major)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromMajor(%q) error = %v, wantErr %v", tt.major, err, tt.wantErr)
			}
			if !tt.wantErr && got.Atomic().String() != tt.wantAtomic {
				t.Errorf("FromMajor(%q) atomic = %s, want %s", tt.major, got.Atomic(), tt.wantAtomic)
			}
		})
	}
}

func TestParsePositive(t *testing.T) {
	if _, err := ParsePositive("0"); err == nil {
		t.Error("ParsePositive(0) should fail")
	}
	if _, err := ParsePositive("-1"); err == nil {
		t.Error("ParsePositive(-1) should fail")
	}
	if _, err := ParsePositive("0.25"); err != nil {
		t.Errorf("ParsePositive(0.25) unexpected error: %v", err)
	}
}

func TestWithFee(t *testing.T) {
	tests := []struct {
		name   string
		major  string
		feeBps int64
		want   string
	}{
		{"0.1% of 0.5", "0.5", 10, "0.5005"},
		{"0.1% of 1", "1", 10, "1.001"},
		{"no fee", "2.5", 0, "2.5"},
		{"1% of 100", "100", 100, "101"},
		{"fee on smallest unit truncates", "0.000000000000000001", 10, "0.000000000000000001"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amt, err := FromMajor(tt.major)
			if err != nil {
				t.Fatalf("FromMajor(%q): %v", tt.major, err)
			}
			if got := amt.WithFee(tt.feeBps).ToMajor(); got != tt.want {
				t.Errorf("WithFee(%d) on %q = %q, want %q", tt.feeBps, tt.major, got, tt.want)
			}
		})
	}
}

func TestToMajor(t *testing.T) {
	tests := []struct {
		major string
		want  string
	}{
		{"0.5", "0.5"},
		{"0.500", "0.5"},
		{"10", "10"},
		{"10.010", "10.01"},
		{"-0.5005", "-0.5005"},
	}

	for _, tt := range tests {
		amt, err := FromMajor(tt.major)
		if err != nil {
			t.Fatalf("FromMajor(%q): %v", tt.major, err)
		}
		if got := amt.ToMajor(); got != tt.want {
			t.Errorf("ToMajor of %q = %q, want %q", tt.major, got, tt.want)
		}
	}
}

func TestRoundTripAddCmp(t *testing.T) {
	a, _ := FromMajor("0.3")
	b, _ := FromMajor("0.2")
	sum := a.Add(b)
	if sum.ToMajor() != "0.5" {
		t.Errorf("0.3 + 0.2 = %s, want 0.5", sum)
	}
	if sum.Cmp(a) != 1 || a.Cmp(sum) != -1 || a.Cmp(a) != 0 {
		t.Error("Cmp ordering incorrect")
	}
	if !Zero().IsZero() || sum.IsZero() {
		t.Error("IsZero incorrect")
	}
}
