// Package pointindex deduplicates streamed surface points against a minimum
// 3D spacing.
package pointindex

import (
	"math"

	"github.com/aukilabs/jord/models"
)

// The grid cell is four times the merge distance, so every point within merge
// distance of a candidate lies in the candidate's cell or one of its 26
// neighbors. The 3x3x3 probe below is therefore exhaustive.
const cellSizeFactor = 4

type cellKey struct {
	X int
	Y int
	Z int
}

// Index is a uniform-grid point index enforcing a minimum spacing between
// accepted points. Insertion order decides ties: the first point seen wins and
// later candidates within merge distance are rejected.
//
// Index is not safe for concurrent use.
type Index struct {
	mergeDistance   float64
	mergeDistanceSq float64
	cellSize        float64

	cells  map[cellKey][]*models.Vertex
	points []*models.Vertex
}

func New(mergeDistance float64) *Index {
	return &Index{
		mergeDistance:   mergeDistance,
		mergeDistanceSq: mergeDistance * mergeDistance,
		cellSize:        cellSizeFactor * mergeDistance,
		cells:           make(map[cellKey][]*models.Vertex),
	}
}

// NewFromPoints bulk-loads an index from points that are already known to
// satisfy the spacing rule, skipping distance checks.
func NewFromPoints(mergeDistance float64, points []*models.Vertex) *Index {
	ix := New(mergeDistance)
	for _, p := range points {
		ix.insert(p)
	}
	return ix
}

// TryAdd accepts v iff no previously accepted point lies within the merge
// distance.
func (ix *Index) TryAdd(v *models.Vertex) bool {
	center := ix.cell(v.Position)

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			for dz := -1; dz <= 1; dz++ {
				key := cellKey{center.X + dx, center.Y + dy, center.Z + dz}
				for _, p := range ix.cells[key] {
					if p.Position.DistanceSquared(v.Position) < ix.mergeDistanceSq {
						return false
					}
				}
			}
		}
	}

	ix.insert(v)
	return true
}

// AddRange runs TryAdd over the batch in order and returns the number of
// accepted points.
func (ix *Index) AddRange(batch []*models.Vertex) int {
	accepted := 0
	for _, v := range batch {
		if ix.TryAdd(v) {
			accepted++
		}
	}
	return accepted
}

// Points returns the accepted points in insertion order. The returned slice
// is the index's backing store and must not be mutated.
func (ix *Index) Points() []*models.Vertex {
	return ix.points
}

func (ix *Index) Len() int {
	return len(ix.points)
}

func (ix *Index) insert(v *models.Vertex) {
	key := ix.cell(v.Position)
	ix.cells[key] = append(ix.cells[key], v)
	ix.points = append(ix.points, v)
}

func (ix *Index) cell(p models.Vec3) cellKey {
	return cellKey{
		X: int(math.Floor(p.X / ix.cellSize)),
		Y: int(math.Floor(p.Y / ix.cellSize)),
		Z: int(math.Floor(p.Z / ix.cellSize)),
	}
}
