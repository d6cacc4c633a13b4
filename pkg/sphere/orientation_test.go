package sphere

import (
	"math"
	"testing"
)

func TestOrientationIsZero(t *testing.T) {
	t.Parallel()

	if !(Orientation{}).IsZero() {
		t.Error("zero orientation should be identity")
	}

	if (Orientation{Yaw: 1}).IsZero() {
		t.Error("non-zero yaw should not be identity")
	}
}

func TestIdentityOrientation(t *testing.T) {
	t.Parallel()

	v := FromAngles(1.2, -0.4)
	if got := (Orientation{}).Apply(v); got != v {
		t.Errorf("identity changed the vector: got %+v, want %+v", got, v)
	}
}

func TestApplySingleAxis(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		orient Orientation
		in     Vec3
		want   Vec3
	}{
		{"yaw 90 turns forward to left", Orientation{Yaw: 90}, Vec3{1, 0, 0}, Vec3{0, 1, 0}},
		{"yaw -90 turns forward to right", Orientation{Yaw: -90}, Vec3{1, 0, 0}, Vec3{0, -1, 0}},
		{"yaw leaves up alone", Orientation{Yaw: 37}, Vec3{0, 0, 1}, Vec3{0, 0, 1}},
		{"pitch 90 turns forward to down", Orientation{Pitch: 90}, Vec3{1, 0, 0}, Vec3{0, 0, -1}},
		{"pitch 90 turns up to forward", Orientation{Pitch: 90}, Vec3{0, 0, 1}, Vec3{1, 0, 0}},
		{"roll 90 turns left to up", Orientation{Roll: 90}, Vec3{0, 1, 0}, Vec3{0, 0, 1}},
		{"roll leaves forward alone", Orientation{Roll: 63}, Vec3{1, 0, 0}, Vec3{1, 0, 0}},
		{"full turn is identity", Orientation{Yaw: 360}, Vec3{1, 0, 0}, Vec3{1, 0, 0}},
	}

	for _, tableTest := range tests {
		tableTest := tableTest
		t.Run(tableTest.name, func(t *testing.T) {
			t.Parallel()

			verifyVec(t, tableTest.orient.Apply(tableTest.in), tableTest.want)
		})
	}
}

// TestApplyOrder distinguishes yaw-then-pitch from pitch-then-yaw.
func TestApplyOrder(t *testing.T) {
	t.Parallel()

	o := Orientation{Yaw: 90, Pitch: 90}

	// Yaw first: forward goes to +y, which the pitch about +y leaves alone.
	verifyVec(t, o.Apply(Vec3{1, 0, 0}), Vec3{0, 1, 0})

	// Pitch applied first would have produced (0, 0, -1) instead.
	got := o.Apply(Vec3{1, 0, 0})
	if math.Abs(got.Z-(-1)) < 1e-9 {
		t.Error("rotation order looks like pitch before yaw")
	}
}

func TestApplyPreservesLength(t *testing.T) {
	t.Parallel()

	o := Orientation{Yaw: 31, Pitch: -47, Roll: 112}

	for azStep := 0; azStep < 8; azStep++ {
		v := FromAngles(float64(azStep)*math.Pi/4, 0.3)
		r := o.Apply(v)

		norm := math.Sqrt(r.Dot(r))
		if math.Abs(norm-1) > 1e-12 {
			t.Errorf("rotation changed vector length: %v", norm)
		}
	}
}
