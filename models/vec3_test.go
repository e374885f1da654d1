package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestVec3Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(-4, 0.5, 2)

	require.Equal(t, Vec3{-3, 2.5, 5}, a.Add(b))
	require.Equal(t, Vec3{5, 1.5, 1}, a.Sub(b))
	require.Equal(t, Vec3{2, 4, 6}, a.Mul(2))
	require.Equal(t, float64(3), a.Dot(b))
}

func TestVec3Cross(t *testing.T) {
	x := NewVec3(1, 0, 0)
	y := NewVec3(0, 1, 0)

	require.Equal(t, Vec3{0, 0, 1}, x.Cross(y))
	require.Equal(t, Vec3{0, 0, -1}, y.Cross(x))
}

func TestVec3Normalized(t *testing.T) {
	t.Run("regular vector is scaled to unit length", func(t *testing.T) {
		v := NewVec3(3, 0, 4).Normalized()
		require.InDelta(t, 1.0, v.Length(), 1e-12)
		require.InDelta(t, 0.6, v.X, 1e-12)
		require.InDelta(t, 0.8, v.Z, 1e-12)
	})

	t.Run("near zero vector normalizes to zero", func(t *testing.T) {
		v := NewVec3(1e-10, 0, 0).Normalized()
		require.Equal(t, Vec3{}, v)
	})
}

func TestVec3Distance(t *testing.T) {
	a := NewVec3(0, 0, 0)
	b := NewVec3(0, 3, 4)

	require.Equal(t, 25.0, a.DistanceSquared(b))
	require.Equal(t, 5.0, a.Distance(b))
}
