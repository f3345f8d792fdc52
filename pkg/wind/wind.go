// Package wind implements the wind-effort cost model: a scalar effort value
// that amplifies or reduces a junction edge's physical length based on how
// a rider's heading relates to the wind direction.
package wind

import (
	"fmt"
	"math"

	"windloop/pkg/geo"
)

// Kappa is the wind coefficient: how strongly wind amplifies or reduces
// perceived effort at the reference speed.
const Kappa = 0.6

// RefSpeedMS is the reference wind speed, in metres per second, at which
// Kappa's effect is fully realised.
const RefSpeedMS = 10.0

// Vector is a wind observation: speed and the meteorological direction the
// wind blows from, in degrees clockwise from true north.
type Vector struct {
	SpeedMS    float64
	BearingDeg float64
}

// Validate reports whether the vector's fields are within their contract:
// non-negative speed, bearing in [0, 360).
func (v Vector) Validate() error {
	if v.SpeedMS < 0 {
		return fmt.Errorf("wind: speed %f is negative", v.SpeedMS)
	}
	if v.BearingDeg < 0 || v.BearingDeg >= 360 {
		return fmt.Errorf("wind: bearing %f out of [0, 360)", v.BearingDeg)
	}
	return nil
}

// Reversed returns the vector as if blowing from the opposite direction:
// same speed, bearing rotated by 180°.
func (v Vector) Reversed() Vector {
	return Vector{SpeedMS: v.SpeedMS, BearingDeg: math.Mod(v.BearingDeg+180, 360)}
}

// clip clamps x to [-1, 1].
func clip(x float64) float64 {
	if x < -1 {
		return -1
	}
	if x > 1 {
		return 1
	}
	return x
}

// Effort returns the wind-adjusted effort of travelling an edge of the
// given length along the given initial travel bearing, under wind vector w.
//
// The signed wind component along the travel direction is
// c = -w.SpeedMS * cos(AngleDiff(travelBearingDeg, w.BearingDeg)); a
// tailwind (wind blowing the same way the rider travels) yields c > 0, a
// headwind c < 0. Effort equals length when c == 0, is at most 1.6*length
// in full headwind at RefSpeedMS, and at least 0.4*length in full tailwind
// at RefSpeedMS.
func Effort(lengthM, travelBearingDeg float64, w Vector) float64 {
	delta := geo.AngleDiff(travelBearingDeg, w.BearingDeg)
	c := -w.SpeedMS * math.Cos(delta*math.Pi/180)
	return lengthM * (1 + Kappa*clip(-c/RefSpeedMS))
}
