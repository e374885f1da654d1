package mesher

import (
	"sync/atomic"

	"github.com/aukilabs/jord/models"
)

// Triangle is a face of the reconstructed surface. Neighbors[i] is the
// triangle sharing the edge opposite vertex i (0: BC, 1: CA, 2: AB); nil marks
// a boundary edge.
//
// Adjacency and the scratch flag are owned by the triangulator for the
// duration of a build. The deleted flag is the only field written afterwards,
// by the carver, and is safe to set from multiple goroutines.
type Triangle struct {
	A *models.Vertex
	B *models.Vertex
	C *models.Vertex

	Centroid models.Vec3
	Bounds   models.Bounds

	Neighbors [3]*Triangle

	bad     bool
	deleted atomic.Bool
}

func NewTriangle(a, b, c *models.Vertex) *Triangle {
	sum := a.Position.Add(b.Position).Add(c.Position)

	return &Triangle{
		A:        a,
		B:        b,
		C:        c,
		Centroid: sum.Mul(1.0 / 3.0),
		Bounds:   models.BoundsOf(a.Position, b.Position, c.Position),
	}
}

// MarkDeleted flags the triangle as carved away. It reports whether this call
// was the one that deleted it, so concurrent carvers count each triangle once.
func (t *Triangle) MarkDeleted() bool {
	return t.deleted.CompareAndSwap(false, true)
}

func (t *Triangle) Deleted() bool {
	return t.deleted.Load()
}

// edge returns the two vertices of the edge opposite vertex i, in the
// canonical order matching the neighbor-index convention.
func (t *Triangle) edge(i int) (*models.Vertex, *models.Vertex) {
	switch i {
	case 0:
		return t.B, t.C
	case 1:
		return t.C, t.A
	default:
		return t.A, t.B
	}
}

func (t *Triangle) hasVertex(v *models.Vertex) bool {
	return t.A == v || t.B == v || t.C == v
}
