package quadtree

import (
	"math/rand"
	"testing"

	"github.com/aukilabs/jord/mesher"
	"github.com/aukilabs/jord/models"
	"github.com/stretchr/testify/require"
)

func triangleAt(x, z float64) *mesher.Triangle {
	return mesher.NewTriangle(
		models.NewVertex(models.NewVec3(x, 0, z), models.Vec3{}),
		models.NewVertex(models.NewVec3(x+1, 0, z), models.Vec3{}),
		models.NewVertex(models.NewVec3(x, 1, z+1), models.Vec3{}),
	)
}

func TestQuadtreeQuerySmallList(t *testing.T) {
	// below the leaf target the tree is a single leaf
	tris := []*mesher.Triangle{
		triangleAt(0, 0),
		triangleAt(10, 10),
	}

	tree := Build(tris, BoundsOf(tris))

	hits := tree.Query(models.NewBounds(models.NewVec3(-1, -1, -1), models.NewVec3(2, 2, 2)))
	require.Len(t, hits, 1)
	require.Equal(t, tris[0], hits[0])

	hits = tree.Query(models.NewBounds(models.NewVec3(50, 0, 50), models.NewVec3(60, 1, 60)))
	require.Empty(t, hits)
}

func TestQuadtreeSubdividesAndFindsEverything(t *testing.T) {
	rng := rand.New(rand.NewSource(3))

	tris := make([]*mesher.Triangle, 500)
	for i := range tris {
		tris[i] = triangleAt(rng.Float64()*200-100, rng.Float64()*200-100)
	}

	tree := Build(tris, BoundsOf(tris))
	require.False(t, tree.leaf)

	// a query covering everything returns each triangle exactly once
	hits := tree.Query(BoundsOf(tris))
	require.Len(t, hits, len(tris))

	// spot queries agree with a brute-force scan
	for trial := 0; trial < 20; trial++ {
		min := models.NewVec3(rng.Float64()*200-100, -1, rng.Float64()*200-100)
		query := models.NewBounds(min, min.Add(models.NewVec3(15, 3, 15)))

		var want int
		for _, tri := range tris {
			if tri.Bounds.Intersects(query) {
				want++
			}
		}

		require.Len(t, tree.Query(query), want)
	}
}

func TestQuadtreeStraddlingTriangleDeduplicated(t *testing.T) {
	// many triangles force a split; one of them sits on the split line
	tris := make([]*mesher.Triangle, 0, 101)
	for i := 0; i < 50; i++ {
		tris = append(tris, triangleAt(float64(-i)*2-5, float64(-i)*2-5))
		tris = append(tris, triangleAt(float64(i)*2+5, float64(i)*2+5))
	}
	straddler := triangleAt(-0.5, -0.5)
	tris = append(tris, straddler)

	tree := Build(tris, BoundsOf(tris))

	hits := tree.Query(straddler.Bounds)
	count := 0
	for _, h := range hits {
		if h == straddler {
			count++
		}
	}
	require.Equal(t, 1, count)
}

func TestQuadtreeYRangePassThrough(t *testing.T) {
	tris := []*mesher.Triangle{triangleAt(0, 0)}
	tree := Build(tris, BoundsOf(tris))

	// the query is disjoint in Y
	hits := tree.Query(models.NewBounds(models.NewVec3(0, 5, 0), models.NewVec3(1, 6, 1)))
	require.Empty(t, hits)
}
