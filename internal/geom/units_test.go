package geom

import (
	"math"
	"testing"
)

func TestInchesToPoints(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{name: "one inch", in: 1, want: 72},
		{name: "sheet width", in: 22, want: 1584},
		{name: "margin", in: 0.125, want: 9},
		{name: "zero", in: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InchesToPoints(tt.in); got != tt.want {
				t.Errorf("InchesToPoints(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPixelsToPoints(t *testing.T) {
	tests := []struct {
		name string
		px   float64
		dpi  float64
		want float64
	}{
		{name: "300dpi square inch", px: 300, dpi: 300, want: 72},
		{name: "300dpi four inches", px: 1200, dpi: 300, want: 288},
		{name: "96dpi css inch", px: 96, dpi: 96, want: 72},
		{name: "zero dpi falls back to default", px: 600, dpi: 0, want: 144},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PixelsToPoints(tt.px, tt.dpi); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("PixelsToPoints(%v, %v) = %v, want %v", tt.px, tt.dpi, got, tt.want)
			}
		})
	}
}

func TestCeilToWholeInches(t *testing.T) {
	tests := []struct {
		name string
		pts  float64
		want float64
	}{
		{name: "exact inch stays", pts: 144, want: 144},
		{name: "fraction rounds up", pts: 144.01, want: 216},
		{name: "just under inch", pts: 71.99, want: 72},
		{name: "zero", pts: 0, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CeilToWholeInches(tt.pts); got != tt.want {
				t.Errorf("CeilToWholeInches(%v) = %v, want %v", tt.pts, got, tt.want)
			}
		})
	}

	// Monotonicity: rounding never shrinks a measurement.
	for _, pts := range []float64{1, 35.5, 71.9, 72, 100, 719.4, 14400} {
		if got := CeilToWholeInches(pts); got < pts {
			t.Errorf("CeilToWholeInches(%v) = %v, less than input", pts, got)
		}
	}
}

func TestWholeInches(t *testing.T) {
	if got := WholeInches(2664); got != 37 {
		t.Errorf("WholeInches(2664) = %v, want 37", got)
	}
	if got := WholeInches(14400); got != 200 {
		t.Errorf("WholeInches(14400) = %v, want 200", got)
	}
}
