package record

import (
	"testing"

	"github.com/aukilabs/jord/models"
	"github.com/stretchr/testify/require"
)

func TestParseHit(t *testing.T) {
	t.Run("hit with space after colon", func(t *testing.T) {
		rec, ok := Parse("HIT|P: 12.345,-6.7,8.9|N: 0.0,1.0,0.0")
		require.True(t, ok)
		require.NotNil(t, rec.Hit)
		require.Nil(t, rec.Miss)
		require.Equal(t, models.NewVec3(12.345, -6.7, 8.9), rec.Hit.Position)
		require.Equal(t, models.NewVec3(0, 1, 0), rec.Hit.Normal)
	})

	t.Run("hit without space after colon", func(t *testing.T) {
		rec, ok := Parse("HIT|P:1,2,3|N:0,1,0")
		require.True(t, ok)
		require.Equal(t, models.NewVec3(1, 2, 3), rec.Hit.Position)
	})

	t.Run("fraction only floats", func(t *testing.T) {
		rec, ok := Parse("HIT|P: .5,-.25,+.75|N: 0,1,0")
		require.True(t, ok)
		require.Equal(t, models.NewVec3(0.5, -0.25, 0.75), rec.Hit.Position)
	})
}

func TestParseMiss(t *testing.T) {
	rec, ok := Parse("MISS|S: 0.0,0.0,0.0|E: 10.0,0.0,0.0")
	require.True(t, ok)
	require.NotNil(t, rec.Miss)
	require.Nil(t, rec.Hit)
	require.Equal(t, models.NewVec3(0, 0, 0), rec.Miss.Start)
	require.Equal(t, models.NewVec3(10, 0, 0), rec.Miss.End)
}

func TestParseRejects(t *testing.T) {
	lines := []string{
		"",
		"garbage",
		"hit|P: 1,2,3|N: 0,1,0",
		"HIT|P: 1,2|N: 0,1,0",
		"HIT|P: 1,2,3|N: 0,1",
		"HIT|P: 1e3,2,3|N: 0,1,0",
		"HIT|P: 1,2,3|N: 0,1,0 ",
		"MISS|S: 1,2,3|N: 4,5,6",
		FragmentPrefix + "HIT|P: 1,2,3|N: 0,1,0",
	}

	for _, line := range lines {
		_, ok := Parse(line)
		require.False(t, ok, "line %q should not parse", line)
	}
}
