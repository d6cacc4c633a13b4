package sphere

import "math"

// Orientation is a rotation from the world frame into the data-view frame,
// expressed as yaw, pitch, and roll in degrees. Yaw rotates about +z, pitch
// about +y, roll about +x; Apply performs them in that order.
type Orientation struct {
	Yaw   float64
	Pitch float64
	Roll  float64
}

// IsZero reports whether the orientation is the identity rotation.
func (o Orientation) IsZero() bool {
	return o.Yaw == 0 && o.Pitch == 0 && o.Roll == 0
}

// Apply rotates a world-frame direction into the data-view frame.
func (o Orientation) Apply(v Vec3) Vec3 {
	if o.IsZero() {
		return v
	}

	v = rotateZ(v, radians(o.Yaw))
	v = rotateY(v, radians(o.Pitch))
	v = rotateX(v, radians(o.Roll))

	return v
}

func rotateZ(v Vec3, angle float64) Vec3 {
	s, c := math.Sincos(angle)

	return Vec3{
		X: c*v.X - s*v.Y,
		Y: s*v.X + c*v.Y,
		Z: v.Z,
	}
}

func rotateY(v Vec3, angle float64) Vec3 {
	s, c := math.Sincos(angle)

	return Vec3{
		X: c*v.X + s*v.Z,
		Y: v.Y,
		Z: -s*v.X + c*v.Z,
	}
}

func rotateX(v Vec3, angle float64) Vec3 {
	s, c := math.Sincos(angle)

	return Vec3{
		X: v.X,
		Y: c*v.Y - s*v.Z,
		Z: s*v.Y + c*v.Z,
	}
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
