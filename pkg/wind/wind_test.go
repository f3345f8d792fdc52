package wind

import "testing"

func TestEffortNoWind(t *testing.T) {
	got := Effort(1000, 90, Vector{SpeedMS: 0, BearingDeg: 0})
	if got != 1000 {
		t.Errorf("Effort with zero wind = %f, want 1000", got)
	}
}

func TestEffortFullHeadwind(t *testing.T) {
	// Travelling due east (90) into a wind blowing from due east (90) is a
	// pure headwind: delta = 0.
	got := Effort(1000, 90, Vector{SpeedMS: RefSpeedMS, BearingDeg: 90})
	want := 1000 * 1.6
	if diff := got - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("Effort full headwind = %f, want %f", got, want)
	}
}

func TestEffortFullTailwind(t *testing.T) {
	// Travelling due east (90) with wind blowing from due west (270) is a
	// pure tailwind: delta = 180.
	got := Effort(1000, 90, Vector{SpeedMS: RefSpeedMS, BearingDeg: 270})
	want := 1000 * 0.4
	if diff := got - want; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("Effort full tailwind = %f, want %f", got, want)
	}
}

func TestEffortBounds(t *testing.T) {
	for speed := 0.0; speed <= 40; speed += 5 {
		for bearing := 0.0; bearing < 360; bearing += 15 {
			for travel := 0.0; travel < 360; travel += 15 {
				e := Effort(1000, travel, Vector{SpeedMS: speed, BearingDeg: bearing})
				if speed <= RefSpeedMS {
					if e < 400 || e > 1600 {
						t.Fatalf("Effort(1000, %f, {%f, %f}) = %f, out of [400, 1600]", travel, speed, bearing, e)
					}
				}
			}
		}
	}
}

func TestEffortMonotoneInWindComponent(t *testing.T) {
	// Rotating the wind from a full tailwind towards a full headwind should
	// monotonically increase effort.
	travel := 0.0
	prev := Effort(1000, travel, Vector{SpeedMS: 5, BearingDeg: 180})
	for delta := 10.0; delta <= 180; delta += 10 {
		bearing := 180 - delta
		if bearing < 0 {
			bearing += 360
		}
		e := Effort(1000, travel, Vector{SpeedMS: 5, BearingDeg: bearing})
		if e < prev-1e-9 {
			t.Fatalf("effort not monotone: prev=%f e=%f at delta=%f", prev, e, delta)
		}
		prev = e
	}
}

func TestVectorValidate(t *testing.T) {
	if err := (Vector{SpeedMS: -1, BearingDeg: 0}).Validate(); err == nil {
		t.Error("expected error for negative speed")
	}
	if err := (Vector{SpeedMS: 0, BearingDeg: 360}).Validate(); err == nil {
		t.Error("expected error for bearing == 360")
	}
	if err := (Vector{SpeedMS: 3, BearingDeg: 90}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestVectorReversed(t *testing.T) {
	v := Vector{SpeedMS: 5, BearingDeg: 30}
	r := v.Reversed()
	if r.BearingDeg != 210 {
		t.Errorf("Reversed().BearingDeg = %f, want 210", r.BearingDeg)
	}
	if r.SpeedMS != v.SpeedMS {
		t.Errorf("Reversed().SpeedMS = %f, want %f", r.SpeedMS, v.SpeedMS)
	}
}
