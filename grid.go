package daff

import (
	"fmt"

	"github.com/MeKo-Tech/godaff/pkg/sphere"
)

// nnTieEpsilon is the dot-product margin a candidate must win by before it
// replaces the current nearest record. Directions closer than this count as
// equidistant and the lower record index is kept.
const nnTieEpsilon = 1e-12

// gridCoord is the stored direction of one record in radians.
type gridCoord struct {
	alpha float64 // azimuth, [0, 2pi)
	beta  float64 // elevation, [-pi/2, +pi/2]
}

// grid holds the sampled directions of an open file and answers angular
// nearest-neighbour queries. Maximizing the dot product of unit vectors is
// equivalent to minimizing the great-circle angle.
type grid struct {
	coords  []gridCoord
	vectors []sphere.Vec3 // unit vectors in the grid frame, one per record
	orient  sphere.Orientation
}

func newGrid(coords []gridCoord, orient sphere.Orientation) *grid {
	g := &grid{
		coords:  coords,
		vectors: make([]sphere.Vec3, len(coords)),
		orient:  orient,
	}
	for i, c := range coords {
		g.vectors[i] = sphere.FromAngles(c.alpha, c.beta)
	}

	return g
}

// nearestNeighbour returns the index of the record whose direction is
// angularly closest to the query direction (phi, theta) in radians. The query
// is rotated by the file orientation into the grid frame first. Equidistant
// candidates resolve to the lowest record index.
func (g *grid) nearestNeighbour(phi, theta float64) int {
	q := g.orient.Apply(sphere.FromAngles(phi, theta))

	best := 0
	bestDot := g.vectors[0].Dot(q)

	for i := 1; i < len(g.vectors); i++ {
		if d := g.vectors[i].Dot(q); d > bestDot+nnTieEpsilon {
			best = i
			bestDot = d
		}
	}

	return best
}

// recordCoords returns the stored direction of a record in radians.
func (g *grid) recordCoords(index int) (alpha, beta float64, err error) {
	if index < 0 || index >= len(g.coords) {
		return 0, 0, fmt.Errorf("%w: record %d of %d", ErrIndexOutOfRange, index, len(g.coords))
	}

	c := g.coords[index]

	return c.alpha, c.beta, nil
}
