package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBoundsOf(t *testing.T) {
	b := BoundsOf(
		NewVec3(1, 5, -2),
		NewVec3(-3, 2, 4),
		NewVec3(0, 8, 0),
	)

	require.Equal(t, Vec3{-3, 2, -2}, b.Min)
	require.Equal(t, Vec3{1, 8, 4}, b.Max)
}

func TestBoundsContains(t *testing.T) {
	b := NewBounds(NewVec3(0, 0, 0), NewVec3(2, 2, 2))

	require.True(t, b.Contains(NewVec3(1, 1, 1)))
	require.True(t, b.Contains(NewVec3(0, 0, 0)))
	require.True(t, b.Contains(NewVec3(2, 2, 2)))
	require.False(t, b.Contains(NewVec3(2.1, 1, 1)))
	require.False(t, b.Contains(NewVec3(1, -0.1, 1)))
}

func TestBoundsIntersects(t *testing.T) {
	a := NewBounds(NewVec3(0, 0, 0), NewVec3(2, 2, 2))

	t.Run("overlapping boxes intersect", func(t *testing.T) {
		require.True(t, a.Intersects(NewBounds(NewVec3(1, 1, 1), NewVec3(3, 3, 3))))
	})

	t.Run("touching boxes intersect", func(t *testing.T) {
		require.True(t, a.Intersects(NewBounds(NewVec3(2, 0, 0), NewVec3(4, 2, 2))))
	})

	t.Run("disjoint boxes do not intersect", func(t *testing.T) {
		require.False(t, a.Intersects(NewBounds(NewVec3(2.5, 0, 0), NewVec3(4, 2, 2))))
	})
}

func TestBoundsEncapsulate(t *testing.T) {
	b := NewBounds(NewVec3(0, 0, 0), NewVec3(1, 1, 1))
	b = b.Encapsulate(NewVec3(-1, 0.5, 3))

	require.Equal(t, Vec3{-1, 0, 0}, b.Min)
	require.Equal(t, Vec3{1, 1, 3}, b.Max)
}

func TestBoundsExpand(t *testing.T) {
	b := NewBounds(NewVec3(0, 0, 0), NewVec3(1, 1, 1)).Expand(0.5)

	require.Equal(t, Vec3{-0.5, -0.5, -0.5}, b.Min)
	require.Equal(t, Vec3{1.5, 1.5, 1.5}, b.Max)
}

func TestBoundsMidpoint(t *testing.T) {
	b := NewBounds(NewVec3(0, 0, 0), NewVec3(4, 2, 8))
	require.Equal(t, Vec3{2, 1, 4}, b.Midpoint())
}
