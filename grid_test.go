package daff_test

import (
	"errors"
	"math"
	"testing"

	"github.com/MeKo-Tech/godaff"
	"github.com/MeKo-Tech/godaff/internal/dafftest"
)

// nearest resolves a query direction and fails the test on error.
func nearest(t *testing.T, r *daff.Reader, phi, theta float64) int {
	t.Helper()

	index, err := r.NearestNeighbour(phi, theta)
	if err != nil {
		t.Fatalf("NearestNeighbour(%v, %v) failed: %v", phi, theta, err)
	}

	return index
}

// rad converts test angles written in degrees to the radians the API takes.
func rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// TestNearestNeighbourEquatorRing tests lookups on a 36-record ring with
// 10 degree spacing.
func TestNearestNeighbourEquatorRing(t *testing.T) {
	r := openImage(t, dafftest.NewIRFile(36, 1, 8).Bytes())

	if got := nearest(t, r, 0, 0); got != 0 {
		t.Errorf("query (0, 0): got record %d, want 0", got)
	}

	// Exact grid directions map to their own record.
	for k := 0; k < 36; k++ {
		if got := nearest(t, r, float64(k)*2*math.Pi/36, 0); got != k {
			t.Errorf("query at record %d direction: got record %d", k, got)
		}
	}

	// Off-grid directions snap to the closest ring record.
	if got := nearest(t, r, rad(14), 0); got != 1 {
		t.Errorf("query (14 deg, 0): got record %d, want 1", got)
	}

	if got := nearest(t, r, rad(16), 0); got != 2 {
		t.Errorf("query (16 deg, 0): got record %d, want 2", got)
	}

	if got := nearest(t, r, rad(359), 0); got != 0 {
		t.Errorf("query (359 deg, 0): got record %d, want 0", got)
	}

	// Elevation offsets do not change the winner on an equator ring.
	if got := nearest(t, r, rad(72), rad(25)); got != 7 {
		t.Errorf("query (72 deg, 25 deg): got record %d, want 7", got)
	}
}

// TestNearestNeighbourSpectrumRing tests the ring lookup on a magnitude
// spectrum file; the grid path is shared by every content type.
func TestNearestNeighbourSpectrumRing(t *testing.T) {
	r := openImage(t, dafftest.NewMSFile(36, 2, []float32{125, 250, 500}).Bytes())

	got := nearest(t, r, 0, 0)
	if got != 0 {
		t.Errorf("query (0, 0): got record %d, want 0", got)
	}

	alpha, beta, err := r.RecordCoords(got)
	if err != nil {
		t.Fatalf("RecordCoords failed: %v", err)
	}

	if alpha != 0 || beta != 0 {
		t.Errorf("record %d: got (%v, %v), want (0, 0)", got, alpha, beta)
	}
}

// TestNearestNeighbourTies tests that equidistant records resolve to the
// lowest index.
func TestNearestNeighbourTies(t *testing.T) {
	r := openImage(t, dafftest.NewIRFile(36, 1, 8).Bytes())

	// Halfway between records 0 and 1.
	if got := nearest(t, r, rad(5), 0); got != 0 {
		t.Errorf("query (5 deg, 0): got record %d, want 0", got)
	}

	// Halfway between records 17 and 18.
	if got := nearest(t, r, rad(175), 0); got != 17 {
		t.Errorf("query (175 deg, 0): got record %d, want 17", got)
	}

	// Duplicate directions always resolve to the first occurrence.
	file := dafftest.NewIRFile(3, 1, 8)
	file.Coords = [][2]float64{{math.Pi / 2, 0}, {math.Pi / 2, 0}, {3 * math.Pi / 2, 0}}

	r = openImage(t, file.Bytes())

	if got := nearest(t, r, math.Pi/2, 0); got != 0 {
		t.Errorf("duplicate records: got %d, want 0", got)
	}
}

// TestNearestNeighbourPoles tests queries near the poles, where azimuth
// degenerates.
func TestNearestNeighbourPoles(t *testing.T) {
	file := dafftest.NewIRFile(6, 1, 8)
	file.Coords = [][2]float64{
		{0, 0}, {math.Pi / 2, 0}, {math.Pi, 0}, {3 * math.Pi / 2, 0},
		{0, math.Pi / 2},  // north pole
		{0, -math.Pi / 2}, // south pole
	}

	r := openImage(t, file.Bytes())

	// Any azimuth near the pole resolves to the pole record.
	if got := nearest(t, r, rad(123), rad(80)); got != 4 {
		t.Errorf("query (123 deg, 80 deg): got record %d, want 4", got)
	}

	if got := nearest(t, r, rad(301), rad(-75)); got != 5 {
		t.Errorf("query (301 deg, -75 deg): got record %d, want 5", got)
	}

	if got := nearest(t, r, rad(180), rad(20)); got != 2 {
		t.Errorf("query (180 deg, 20 deg): got record %d, want 2", got)
	}
}

// TestNearestNeighbourSingleRecord tests that one record wins every query.
func TestNearestNeighbourSingleRecord(t *testing.T) {
	file := dafftest.NewIRFile(1, 1, 8)
	file.Coords = [][2]float64{{3 * math.Pi / 4, -math.Pi / 4}}

	r := openImage(t, file.Bytes())

	for _, q := range [][2]float64{{0, 0}, {3 * math.Pi / 4, -math.Pi / 4}, {7 * math.Pi / 4, math.Pi / 4}, {math.Pi / 2, math.Pi / 2}} {
		if got := nearest(t, r, q[0], q[1]); got != 0 {
			t.Errorf("query (%v, %v): got record %d, want 0", q[0], q[1], got)
		}
	}
}

// TestNearestNeighbourWithOrientation tests that queries are rotated into
// the grid frame before matching.
func TestNearestNeighbourWithOrientation(t *testing.T) {
	file := dafftest.NewIRFile(4, 1, 8)
	file.HasOrientation = true
	file.Yaw = 90

	r := openImage(t, file.Bytes())

	// A yaw of 90 degrees turns the forward query into grid azimuth pi/2.
	if got := nearest(t, r, 0, 0); got != 1 {
		t.Errorf("yawed query (0, 0): got record %d, want 1", got)
	}

	if got := nearest(t, r, 3*math.Pi/2, 0); got != 0 {
		t.Errorf("yawed query (270 deg, 0): got record %d, want 0", got)
	}

	// Pitching by 90 degrees sends the forward query direction to the
	// south pole of the grid frame.
	poles := dafftest.NewIRFile(3, 1, 8)
	poles.Coords = [][2]float64{{0, 0}, {0, math.Pi / 2}, {0, -math.Pi / 2}}
	poles.HasOrientation = true
	poles.Pitch = 90

	r = openImage(t, poles.Bytes())

	if got := nearest(t, r, 0, 0); got != 2 {
		t.Errorf("pitched query (0, 0): got record %d, want 2", got)
	}
}

// TestRecordCoords tests coordinate reporting and its index bounds.
func TestRecordCoords(t *testing.T) {
	file := dafftest.NewIRFile(36, 1, 8)

	r := openImage(t, file.Bytes())

	alpha, beta, err := r.RecordCoords(7)
	if err != nil {
		t.Fatalf("RecordCoords failed: %v", err)
	}

	if alpha != file.Coords[7][0] || beta != 0 {
		t.Errorf("record 7: got (%v, %v), want (%v, 0)", alpha, beta, file.Coords[7][0])
	}

	if _, _, err := r.RecordCoords(-1); !errors.Is(err, daff.ErrIndexOutOfRange) {
		t.Errorf("index -1: expected ErrIndexOutOfRange, got %v", err)
	}

	if _, _, err := r.RecordCoords(36); !errors.Is(err, daff.ErrIndexOutOfRange) {
		t.Errorf("index 36: expected ErrIndexOutOfRange, got %v", err)
	}
}
