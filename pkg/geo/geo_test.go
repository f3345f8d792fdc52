package geo

import (
	"math"
	"testing"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name             string
		a, b             Coordinate
		wantMeters       float64
		tolerancePercent float64
	}{
		{
			name:             "Raffles Place to Changi Airport",
			a:                Coordinate{Lat: 1.2830, Lon: 103.8513},
			b:                Coordinate{Lat: 1.3644, Lon: 103.9915},
			wantMeters:       18_023,
			tolerancePercent: 1,
		},
		{
			name:       "same point",
			a:          Coordinate{Lat: 1.3521, Lon: 103.8198},
			b:          Coordinate{Lat: 1.3521, Lon: 103.8198},
			wantMeters: 0,
		},
		{
			name:             "London to Paris",
			a:                Coordinate{Lat: 51.5074, Lon: -0.1278},
			b:                Coordinate{Lat: 48.8566, Lon: 2.3522},
			wantMeters:       343_500,
			tolerancePercent: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b)
			if tt.wantMeters == 0 {
				if got != 0 {
					t.Errorf("Distance = %f, want 0", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantMeters) / tt.wantMeters * 100
			if diff > tt.tolerancePercent {
				t.Errorf("Distance = %f m, want ~%f m (diff %.1f%%)", got, tt.wantMeters, diff)
			}
		})
	}
}

func TestBearing(t *testing.T) {
	tests := []struct {
		name string
		a, b Coordinate
		want float64
	}{
		{"due north", Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 1, Lon: 0}, 0},
		{"due east at equator", Coordinate{Lat: 0, Lon: 0}, Coordinate{Lat: 0, Lon: 1}, 90},
		{"due south", Coordinate{Lat: 1, Lon: 0}, Coordinate{Lat: 0, Lon: 0}, 180},
		{"due west at equator", Coordinate{Lat: 0, Lon: 1}, Coordinate{Lat: 0, Lon: 0}, 270},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Bearing(tt.a, tt.b)
			if got < 0 || got >= 360 {
				t.Fatalf("Bearing = %f, out of [0, 360)", got)
			}
			diff := math.Abs(got - tt.want)
			if diff > 0.5 && 360-diff > 0.5 {
				t.Errorf("Bearing = %f, want ~%f", got, tt.want)
			}
		})
	}
}

func TestBearingCoincidentPoints(t *testing.T) {
	p := Coordinate{Lat: 12.3, Lon: 45.6}
	if got := Bearing(p, p); got != 0 {
		t.Errorf("Bearing(p, p) = %f, want 0", got)
	}
}

func TestAngleDiff(t *testing.T) {
	tests := []struct {
		a, b float64
		want float64
	}{
		{0, 90, 90},
		{350, 10, 20},
		{10, 350, 20},
		{0, 180, 180},
		{0, 360, 0},
		{45, 45, 0},
	}
	for _, tt := range tests {
		if got := AngleDiff(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("AngleDiff(%f, %f) = %f, want %f", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestAngleDiffRange(t *testing.T) {
	for a := 0.0; a < 360; a += 17 {
		for b := 0.0; b < 360; b += 23 {
			d := AngleDiff(a, b)
			if d < 0 || d > 180 {
				t.Fatalf("AngleDiff(%f, %f) = %f, out of [0, 180]", a, b, d)
			}
		}
	}
}

func TestCoordinateValidate(t *testing.T) {
	if err := (Coordinate{Lat: 91, Lon: 0}).Validate(); err == nil {
		t.Error("expected error for lat=91")
	}
	if err := (Coordinate{Lat: -91, Lon: 0}).Validate(); err == nil {
		t.Error("expected error for lat=-91")
	}
	if err := (Coordinate{Lat: 45, Lon: 200}).Validate(); err != nil {
		t.Errorf("unexpected error for lon=200: %v", err)
	}
	if err := (Coordinate{Lat: math.NaN(), Lon: 0}).Validate(); err == nil {
		t.Error("expected error for NaN lat")
	}
}
