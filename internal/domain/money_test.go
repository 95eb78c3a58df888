package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestNotional(t *testing.T) {
	tests := []struct {
		name  string
		size  string
		price string
		want  string
	}{
		{"whole", "10", "150", "1500"},
		{"fractional price", "3", "12.25", "36.75"},
		{"fractional size", "0.5", "100", "50"},
		{"high precision", "0.00000001", "0.00000001", "0.0000000000000001"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Notional(decimal.RequireFromString(tt.size), decimal.RequireFromString(tt.price))
			if !got.Equal(decimal.RequireFromString(tt.want)) {
				t.Errorf("Notional(%s, %s) = %s, want %s", tt.size, tt.price, got, tt.want)
			}
		})
	}
}

func TestWithinScale(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"0", true},
		{"150", true},
		{"148.50", true},
		{"0.00000001", true},
		{"0.000000001", false},
		{"1.123456789", false},
	}
	for _, tt := range tests {
		if got := WithinScale(decimal.RequireFromString(tt.in)); got != tt.want {
			t.Errorf("WithinScale(%s) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
