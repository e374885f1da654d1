// Package quadtree indexes triangle bounds in the XZ plane for fast ray
// candidate lookup during carving.
package quadtree

import (
	"sync"

	"github.com/aukilabs/jord/mesher"
	"github.com/aukilabs/jord/models"
)

const (
	maxDepth   = 8
	leafTarget = 50

	// node construction fans out one goroutine per child above this depth
	parallelDepth = 3
)

// Node is a quadtree node over the XZ plane. Internal nodes have exactly four
// children (SW, SE, NW, NE) splitting at the node's XZ midpoint and covering
// the full Y range; leaves carry the triangles whose bounds intersect them. A
// triangle straddling a split line appears in every leaf it touches.
type Node struct {
	bounds    models.Bounds
	children  [4]*Node
	triangles []*mesher.Triangle
	leaf      bool
}

// Build constructs the tree for the given triangles over bounds. The top
// levels build in parallel, one goroutine per child.
func Build(triangles []*mesher.Triangle, bounds models.Bounds) *Node {
	return build(triangles, bounds, 0)
}

// BoundsOf computes the overall bounds of a triangle list, the usual input to
// Build.
func BoundsOf(triangles []*mesher.Triangle) models.Bounds {
	if len(triangles) == 0 {
		return models.Bounds{}
	}

	b := triangles[0].Bounds
	for _, t := range triangles[1:] {
		b = b.Encapsulate(t.Bounds.Min)
		b = b.Encapsulate(t.Bounds.Max)
	}
	return b
}

func build(triangles []*mesher.Triangle, bounds models.Bounds, depth int) *Node {
	n := &Node{bounds: bounds}

	if len(triangles) <= leafTarget || depth >= maxDepth {
		n.leaf = true
		n.triangles = triangles
		return n
	}

	mid := bounds.Midpoint()
	childBounds := [4]models.Bounds{
		{Min: models.NewVec3(bounds.Min.X, bounds.Min.Y, bounds.Min.Z), Max: models.NewVec3(mid.X, bounds.Max.Y, mid.Z)},         // SW
		{Min: models.NewVec3(mid.X, bounds.Min.Y, bounds.Min.Z), Max: models.NewVec3(bounds.Max.X, bounds.Max.Y, mid.Z)},         // SE
		{Min: models.NewVec3(bounds.Min.X, bounds.Min.Y, mid.Z), Max: models.NewVec3(mid.X, bounds.Max.Y, bounds.Max.Z)},         // NW
		{Min: models.NewVec3(mid.X, bounds.Min.Y, mid.Z), Max: models.NewVec3(bounds.Max.X, bounds.Max.Y, bounds.Max.Z)},         // NE
	}

	var childTriangles [4][]*mesher.Triangle
	for _, t := range triangles {
		for i := range childBounds {
			if t.Bounds.Intersects(childBounds[i]) {
				childTriangles[i] = append(childTriangles[i], t)
			}
		}
	}

	if depth < parallelDepth {
		var wg sync.WaitGroup
		for i := range n.children {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				n.children[i] = build(childTriangles[i], childBounds[i], depth+1)
			}(i)
		}
		wg.Wait()
	} else {
		for i := range n.children {
			n.children[i] = build(childTriangles[i], childBounds[i], depth+1)
		}
	}

	return n
}

// Query collects every triangle whose bounds intersect the query bounds. The
// result is deduplicated: a triangle stored in several leaves is returned
// once.
func (n *Node) Query(bounds models.Bounds) []*mesher.Triangle {
	var result []*mesher.Triangle
	seen := make(map[*mesher.Triangle]struct{})

	stack := []*Node{n}
	for len(stack) > 0 {
		node := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if !node.bounds.Intersects(bounds) {
			continue
		}

		if node.leaf {
			for _, t := range node.triangles {
				if !t.Bounds.Intersects(bounds) {
					continue
				}
				if _, ok := seen[t]; ok {
					continue
				}
				seen[t] = struct{}{}
				result = append(result, t)
			}
			continue
		}

		for _, c := range node.children {
			stack = append(stack, c)
		}
	}

	return result
}
