// Package carver prunes mesh triangles contradicted by miss rays: a ray known
// to pass through empty space cannot cross a real surface.
package carver

import (
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/aukilabs/jord/mesher"
	"github.com/aukilabs/jord/mesher/quadtree"
	"github.com/aukilabs/jord/models"
)

// endBuffer excludes 5 cm at both ends of a ray so the geometry the ray
// endpoints sit on survives.
const endBuffer = 0.05

// Carve marks every triangle crossed by a miss ray as deleted and returns the
// number of deleted triangles. Rays are processed in parallel; a triangle
// targeted by several rays concurrently is counted once.
func Carve(tree *quadtree.Node, rays []models.Ray) int {
	if len(rays) == 0 {
		return 0
	}

	var deleted atomic.Int64

	workers := runtime.NumCPU()
	if workers > len(rays) {
		workers = len(rays)
	}

	work := make(chan models.Ray)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for ray := range work {
				carveRay(tree, ray, &deleted)
			}
		}()
	}

	for _, ray := range rays {
		work <- ray
	}
	close(work)
	wg.Wait()

	return int(deleted.Load())
}

func carveRay(tree *quadtree.Node, ray models.Ray, deleted *atomic.Int64) {
	length := ray.Length()
	if length <= 2*endBuffer {
		// too short to have an interior
		return
	}

	dir := ray.Direction()

	for _, t := range tree.Query(ray.Bounds()) {
		if t.Deleted() {
			continue
		}

		hit, ok := models.IntersectRayTriangle(ray.Start, dir, t.A.Position, t.B.Position, t.C.Position)
		if !ok || hit <= endBuffer || hit >= length-endBuffer {
			continue
		}

		if t.MarkDeleted() {
			deleted.Add(1)
			instrumentCarvedTriangle()
		}
	}
}

// Surviving filters out deleted triangles.
func Surviving(triangles []*mesher.Triangle) []*mesher.Triangle {
	out := make([]*mesher.Triangle, 0, len(triangles))
	for _, t := range triangles {
		if !t.Deleted() {
			out = append(out, t)
		}
	}
	return out
}
