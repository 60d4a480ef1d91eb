package domain

import "testing"

func TestToMinorUnits(t *testing.T) {
	tests := []struct {
		name   string
		amount float64
		want   int64
	}{
		{name: "whole", amount: 1500, want: 150000},
		{name: "fractional", amount: 250.5, want: 25050},
		{name: "smallest", amount: 0.01, want: 1},
		{name: "half paisa", amount: 10.005, want: 1000},
		{name: "repeating binary", amount: 0.1, want: 10},
		{name: "large", amount: 99999.99, want: 9999999},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToMinorUnits(tt.amount); got != tt.want {
				t.Fatalf("ToMinorUnits(%v) = %d, want %d", tt.amount, got, tt.want)
			}
		})
	}
}
