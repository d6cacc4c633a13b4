// Package sphere provides direction math on the unit sphere: spherical to
// Cartesian conversion, great-circle angles, and the yaw/pitch/roll
// orientation transform that maps world-frame directions into a data-view
// frame.
package sphere

import "math"

// Vec3 is a direction in right-handed Cartesian coordinates: +x forward
// (azimuth 0, elevation 0), +y left (azimuth pi/2), +z up.
type Vec3 struct {
	X, Y, Z float64
}

// FromAngles returns the unit vector for an azimuth/elevation pair in
// radians. Azimuth is measured counterclockwise about +z starting at +x;
// elevation is measured from the xy-plane toward +z.
func FromAngles(azimuth, elevation float64) Vec3 {
	ce := math.Cos(elevation)

	return Vec3{
		X: ce * math.Cos(azimuth),
		Y: ce * math.Sin(azimuth),
		Z: math.Sin(elevation),
	}
}

// Angles returns the azimuth in [0, 2pi) and elevation in [-pi/2, pi/2] of
// v. v need not be normalized; the zero vector maps to (0, 0).
func (v Vec3) Angles() (azimuth, elevation float64) {
	azimuth = math.Atan2(v.Y, v.X)
	if azimuth < 0 {
		azimuth += 2 * math.Pi
	}

	norm := math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
	if norm == 0 {
		return 0, 0
	}

	return azimuth, math.Asin(clamp(v.Z/norm, -1, 1))
}

// Dot returns the dot product of v and w.
func (v Vec3) Dot(w Vec3) float64 {
	return v.X*w.X + v.Y*w.Y + v.Z*w.Z
}

// AngleBetween returns the great-circle angle between two unit vectors in
// radians, in [0, pi].
func AngleBetween(a, b Vec3) float64 {
	return math.Acos(clamp(a.Dot(b), -1, 1))
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}

	if x > hi {
		return hi
	}

	return x
}
