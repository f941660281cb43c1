package filter

import "testing"

func TestCompareAgainstNaN(t *testing.T) {
	tests := []struct {
		op       Op
		isNaN    bool
		expected bool
	}{
		{EQ, true, true},
		{EQ, false, false},
		{NE, true, false},
		{NE, false, true},
		{GT, true, false},
		{GT, false, false},
		{GE, true, true},
		{GE, false, false},
		{LT, true, false},
		{LT, false, true},
		{LE, true, true},
		{LE, false, true},
	}

	for _, tt := range tests {
		v := 1.0
		if tt.isNaN {
			v = nan()
		}
		got := CompareAgainstNaN(tt.op, v)
		if got != tt.expected {
			t.Errorf("CompareAgainstNaN(%s, isNaN=%v) = %v, want %v", tt.op, tt.isNaN, got, tt.expected)
		}
	}
}

func nan() float64 {
	var zero float64
	return zero / zero
}
