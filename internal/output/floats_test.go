package output

import "testing"

func TestRoundFloat(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.1234567, 0.123457},
		{0.1234564, 0.123456},
		{1.0, 1.0},
		{0, 0},
		{-0.9999995, -1.0},
	}
	for _, tt := range tests {
		if got := RoundFloat(tt.in); got != tt.want {
			t.Errorf("RoundFloat(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.5, "0.5"},
		{0.123456789, "0.123457"},
		{3, "3"},
		{2.10, "2.1"},
		{0, "0"},
	}
	for _, tt := range tests {
		if got := FormatFloat(tt.in); got != tt.want {
			t.Errorf("FormatFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
