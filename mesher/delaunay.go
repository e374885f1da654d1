// Package mesher triangulates accumulated surface points into a terrain mesh.
//
// The triangulation is 2.5D: faces are built over the XZ projection with
// incremental Bowyer-Watson, and Y rides along as an attribute. Overhangs and
// vertical surfaces cannot be represented; callers wanting those must slice
// the world and mesh each slice separately.
package mesher

import (
	"math"
	"sort"

	"github.com/aukilabs/jord/models"
)

const (
	// pre-pass dedup cell size and hash constants
	dedupCellSize = 0.01
	dedupHashK1   = 73856093
	dedupHashK2   = 19349663

	maxWalkHops = 5000

	degenerateEpsilon   = 1e-9
	circumcircleEpsilon = 1e-10
)

type config struct {
	exactDedup bool
}

// Option configures a triangulation run.
type Option func(*config)

// WithExactDedup replaces the XOR-combined dedup hash with a collision-free
// cell map. The default hash can drop distinct points whose cells collide.
func WithExactDedup() Option {
	return func(c *config) {
		c.exactDedup = true
	}
}

// Triangulate builds the Delaunay triangulation of the given points in the XZ
// plane. Points are deduplicated by a 1 cm XZ cell before insertion; the
// first point per cell wins. Output order is deterministic for a fixed input.
func Triangulate(points []*models.Vertex, opts ...Option) []*Triangle {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}

	survivors := dedup(points, cfg.exactDedup)
	if len(survivors) < 3 {
		return nil
	}

	sort.SliceStable(survivors, func(i, j int) bool {
		return survivors[i].Position.X < survivors[j].Position.X
	})

	tr := newTriangulator(survivors)
	for _, p := range survivors {
		tr.insert(p)
	}
	return tr.finish()
}

func dedup(points []*models.Vertex, exact bool) []*models.Vertex {
	survivors := make([]*models.Vertex, 0, len(points))

	if exact {
		seen := make(map[[2]int64]struct{}, len(points))
		for _, p := range points {
			key := [2]int64{
				int64(math.Floor(p.Position.X / dedupCellSize)),
				int64(math.Floor(p.Position.Z / dedupCellSize)),
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			survivors = append(survivors, p)
		}
		return survivors
	}

	seen := make(map[int64]struct{}, len(points))
	for _, p := range points {
		key := int64(math.Floor(p.Position.X/dedupCellSize))*dedupHashK1 ^
			int64(math.Floor(p.Position.Z/dedupCellSize))*dedupHashK2
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		survivors = append(survivors, p)
	}
	return survivors
}

type triangulator struct {
	triangles []*Triangle
	seed      *Triangle

	superA *models.Vertex
	superB *models.Vertex
	superC *models.Vertex
}

func newTriangulator(points []*models.Vertex) *triangulator {
	bbox := models.BoundsOf(points[0].Position)
	for _, p := range points[1:] {
		bbox = bbox.Encapsulate(p.Position)
	}

	mid := bbox.Midpoint()
	m := math.Max(bbox.Max.X-bbox.Min.X, bbox.Max.Z-bbox.Min.Z)

	tr := &triangulator{
		superA: models.NewVertex(models.NewVec3(mid.X-20*m, 0, mid.Z-m), models.Vec3{}),
		superB: models.NewVertex(models.NewVec3(mid.X, 0, mid.Z+20*m), models.Vec3{}),
		superC: models.NewVertex(models.NewVec3(mid.X+20*m, 0, mid.Z-m), models.Vec3{}),
	}

	super := NewTriangle(tr.superA, tr.superB, tr.superC)
	tr.triangles = append(tr.triangles, super)
	tr.seed = super
	return tr
}

func (tr *triangulator) insert(p *models.Vertex) {
	start := tr.locate(p.Position)
	if start == nil || !circumcircleContains(start, p.Position) {
		start = tr.scan(p.Position)
	}
	if start == nil {
		// numerically hopeless point, leave it out
		return
	}

	cavity := tr.growCavity(start, p.Position)
	edges := boundaryEdges(cavity)

	newTriangles := make([]*Triangle, 0, len(edges))
	for _, e := range edges {
		nt := NewTriangle(e.u, e.v, p)
		nt.Neighbors[2] = e.outer
		if e.outer != nil {
			for k := 0; k < 3; k++ {
				if e.outer.Neighbors[k] == e.old {
					e.outer.Neighbors[k] = nt
					break
				}
			}
		}
		newTriangles = append(newTriangles, nt)
	}

	// stitch the fan: the edge p-v shared by two new triangles shows up as
	// B on one and A on the other
	for _, n1 := range newTriangles {
		for _, n2 := range newTriangles {
			if n1 != n2 && n1.B == n2.A {
				n1.Neighbors[0] = n2
				n2.Neighbors[1] = n1
			}
		}
	}

	tr.triangles = append(tr.triangles, newTriangles...)
	if len(newTriangles) > 0 {
		tr.seed = newTriangles[0]
	}
}

// locate walks from the most recent insertion toward p, crossing the edge p
// is strictly to the right of. It returns nil when the walk exceeds the hop
// cap.
func (tr *triangulator) locate(p models.Vec3) *Triangle {
	t := tr.seed

	for hop := 0; hop < maxWalkHops; hop++ {
		var next *Triangle

		switch {
		case rightOf(t.B, t.C, p):
			next = t.Neighbors[0]
		case rightOf(t.C, t.A, p):
			next = t.Neighbors[1]
		case rightOf(t.A, t.B, p):
			next = t.Neighbors[2]
		default:
			return t
		}

		if next == nil {
			return t
		}
		t = next
	}

	return nil
}

// scan is the fallback point location: a linear pass over all live triangles
// for any circumcircle containing p.
func (tr *triangulator) scan(p models.Vec3) *Triangle {
	for _, t := range tr.triangles {
		if !t.bad && circumcircleContains(t, p) {
			return t
		}
	}
	return nil
}

func (tr *triangulator) growCavity(start *Triangle, p models.Vec3) []*Triangle {
	start.bad = true
	cavity := []*Triangle{start}

	for i := 0; i < len(cavity); i++ {
		for _, n := range cavity[i].Neighbors {
			if n == nil || n.bad {
				continue
			}
			if circumcircleContains(n, p) {
				n.bad = true
				cavity = append(cavity, n)
			}
		}
	}

	return cavity
}

type boundaryEdge struct {
	u     *models.Vertex
	v     *models.Vertex
	outer *Triangle
	old   *Triangle
}

func boundaryEdges(cavity []*Triangle) []boundaryEdge {
	var edges []boundaryEdge
	for _, t := range cavity {
		for i := 0; i < 3; i++ {
			n := t.Neighbors[i]
			if n == nil || !n.bad {
				u, v := t.edge(i)
				edges = append(edges, boundaryEdge{u: u, v: v, outer: n, old: t})
			}
		}
	}
	return edges
}

func (tr *triangulator) finish() []*Triangle {
	out := make([]*Triangle, 0, len(tr.triangles))
	kept := make(map[*Triangle]struct{}, len(tr.triangles))
	for _, t := range tr.triangles {
		if t.bad {
			continue
		}
		if t.hasVertex(tr.superA) || t.hasVertex(tr.superB) || t.hasVertex(tr.superC) {
			continue
		}
		out = append(out, t)
		kept[t] = struct{}{}
	}

	// edges that faced a discarded triangle are boundary edges now
	for _, t := range out {
		for i, n := range t.Neighbors {
			if n == nil {
				continue
			}
			if _, ok := kept[n]; !ok {
				t.Neighbors[i] = nil
			}
		}
	}
	return out
}

// rightOf reports whether p lies strictly to the right of the directed edge
// a-b in the XZ plane.
func rightOf(a, b *models.Vertex, p models.Vec3) bool {
	return (b.Position.X-a.Position.X)*(p.Z-a.Position.Z)-
		(b.Position.Z-a.Position.Z)*(p.X-a.Position.X) > 0
}

// circumcircleContains reports whether p lies strictly inside the XZ
// circumcircle of t. Degenerate (collinear) triangles contain nothing.
func circumcircleContains(t *Triangle, p models.Vec3) bool {
	ax, az := t.A.Position.X, t.A.Position.Z
	bx, bz := t.B.Position.X, t.B.Position.Z
	cx, cz := t.C.Position.X, t.C.Position.Z

	d := 2 * (ax*(bz-cz) + bx*(cz-az) + cx*(az-bz))
	if math.Abs(d) < degenerateEpsilon {
		return false
	}

	a2 := ax*ax + az*az
	b2 := bx*bx + bz*bz
	c2 := cx*cx + cz*cz

	ux := (a2*(bz-cz) + b2*(cz-az) + c2*(az-bz)) / d
	uz := (a2*(cx-bx) + b2*(ax-cx) + c2*(bx-ax)) / d

	r2 := (ux-ax)*(ux-ax) + (uz-az)*(uz-az)
	d2 := (ux-p.X)*(ux-p.X) + (uz-p.Z)*(uz-p.Z)

	return d2 < r2-circumcircleEpsilon
}
