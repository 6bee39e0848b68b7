package tollzone

import (
	"math"
	"testing"
)

func TestFormatHalfUp(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		correct  string
	}{
		{0.625, 2, "0.63"},
		{1.005, 2, "1.01"},
		{3600.25, 1, "3600.3"},
		{0.25, 1, "0.3"},
		{0.24, 1, "0.2"},
		{9.995, 2, "10.00"},
		{99.96, 1, "100.0"},
		{1.5, 2, "1.50"},
		{2, 1, "2.0"},
		{0, 2, "0.00"},
		{-0.625, 2, "-0.63"},
		{2.5, 0, "3"},
		{1e21, 1, "1000000000000000000000.0"},
	}
	for _, test := range tests {
		if got := formatHalfUp(test.v, test.decimals); got != test.correct {
			t.Errorf("%v with %d decimals must be '%s', but got '%s'", test.v, test.decimals, test.correct, got)
		}
	}
}

func TestFormatDouble(t *testing.T) {
	tests := []struct {
		v       float64
		correct string
	}{
		{21900, "21900.0"},
		{-0.25, "-0.25"},
		{0.001, "0.001"},
		{-0.0001, "-1.0E-4"},
		{1.25e-5, "1.25E-5"},
		{9999999.5, "9999999.5"},
		{1e7, "1.0E7"},
		{-12345678.9, "-1.23456789E7"},
		{0, "0.0"},
		{math.Inf(1), "Infinity"},
		{math.Inf(-1), "-Infinity"},
		{math.NaN(), "NaN"},
	}
	for _, test := range tests {
		if got := formatDouble(test.v); got != test.correct {
			t.Errorf("Double %v must be printed as '%s', but got '%s'", test.v, test.correct, got)
		}
	}
}
