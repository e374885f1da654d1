package pointindex

import (
	"math/rand"
	"testing"

	"github.com/aukilabs/jord/models"
	"github.com/stretchr/testify/require"
)

func TestIndexTryAdd(t *testing.T) {
	ix := New(0.01)

	require.True(t, ix.TryAdd(models.NewVertex(models.NewVec3(0, 0, 0), models.Vec3{})))
	require.False(t, ix.TryAdd(models.NewVertex(models.NewVec3(0.005, 0, 0), models.Vec3{})))
	require.True(t, ix.TryAdd(models.NewVertex(models.NewVec3(1, 0, 0), models.Vec3{})))
	require.Equal(t, 2, ix.Len())
}

func TestIndexFirstSeenWins(t *testing.T) {
	ix := New(0.5)

	first := models.NewVertex(models.NewVec3(0, 0, 0), models.Vec3{})
	second := models.NewVertex(models.NewVec3(0.1, 0.1, 0.1), models.Vec3{})

	require.True(t, ix.TryAdd(first))
	require.False(t, ix.TryAdd(second))
	require.Equal(t, []*models.Vertex{first}, ix.Points())
}

func TestIndexRejectsAcrossCellBoundary(t *testing.T) {
	// two points in different grid cells but closer than the merge distance
	ix := New(1.0)

	require.True(t, ix.TryAdd(models.NewVertex(models.NewVec3(3.99, 0, 0), models.Vec3{})))
	require.False(t, ix.TryAdd(models.NewVertex(models.NewVec3(4.01, 0, 0), models.Vec3{})))
}

func TestIndexSpacingInvariant(t *testing.T) {
	const mergeDistance = 0.25

	ix := New(mergeDistance)
	rng := rand.New(rand.NewSource(7))

	batch := make([]*models.Vertex, 500)
	for i := range batch {
		batch[i] = models.NewVertex(models.NewVec3(
			rng.Float64()*4-2,
			rng.Float64()*4-2,
			rng.Float64()*4-2,
		), models.Vec3{})
	}
	ix.AddRange(batch)

	points := ix.Points()
	require.NotEmpty(t, points)

	for i := range points {
		for j := i + 1; j < len(points); j++ {
			d := points[i].Position.Distance(points[j].Position)
			require.GreaterOrEqual(t, d, mergeDistance,
				"points %d and %d are too close", i, j)
		}
	}
}

func TestIndexOrderIndependenceForWellSpacedPoints(t *testing.T) {
	const mergeDistance = 0.1

	// all pairwise distances >= 2*mergeDistance, so every insertion order
	// accepts every point
	var points []*models.Vertex
	for x := 0; x < 5; x++ {
		for z := 0; z < 5; z++ {
			points = append(points, models.NewVertex(
				models.NewVec3(float64(x)*0.2, 0, float64(z)*0.2), models.Vec3{}))
		}
	}

	for trial := 0; trial < 10; trial++ {
		rng := rand.New(rand.NewSource(int64(trial)))
		shuffled := append([]*models.Vertex(nil), points...)
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		ix := New(mergeDistance)
		require.Equal(t, len(points), ix.AddRange(shuffled))
	}
}

func TestNewFromPointsSkipsChecks(t *testing.T) {
	// bulk construction trusts the input, even when it violates spacing
	points := []*models.Vertex{
		models.NewVertex(models.NewVec3(0, 0, 0), models.Vec3{}),
		models.NewVertex(models.NewVec3(0.001, 0, 0), models.Vec3{}),
	}

	ix := NewFromPoints(0.01, points)
	require.Equal(t, 2, ix.Len())

	// new candidates still respect the spacing against the loaded points
	require.False(t, ix.TryAdd(models.NewVertex(models.NewVec3(0.002, 0, 0), models.Vec3{})))
}
