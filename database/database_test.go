package database

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/aukilabs/jord/models"
	"github.com/stretchr/testify/require"
)

func TestDatabaseRoundTrip(t *testing.T) {
	db := &Database{
		Points: []*models.Vertex{
			models.NewVertex(models.NewVec3(12.345, -6.7, 8.9), models.NewVec3(0, 1, 0)),
			models.NewVertex(models.NewVec3(-0.001, 2.5e3, 0), models.NewVec3(0.5, 0.5, 0.707)),
		},
		Rays: []models.Ray{
			models.NewRay(models.NewVec3(0, 0, 0), models.NewVec3(10, 0, 0)),
		},
	}

	path := filepath.Join(t.TempDir(), "terrain.db")
	require.NoError(t, db.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Points, 2)
	require.Len(t, loaded.Rays, 1)

	for i, p := range db.Points {
		require.Equal(t, p.Position, loaded.Points[i].Position)
		require.Equal(t, p.Normal, loaded.Points[i].Normal)
	}
	require.Equal(t, db.Rays, loaded.Rays)
}

func TestDatabaseLoadMissingFile(t *testing.T) {
	db, err := Load(filepath.Join(t.TempDir(), "does-not-exist.db"))
	require.NoError(t, err)
	require.Empty(t, db.Points)
	require.Empty(t, db.Rays)
}

func TestDatabaseLoadBadVersion(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(99)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(0)))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, int32(0)))

	path := filepath.Join(t.TempDir(), "terrain.db")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0644))

	_, err := Load(path)
	require.Error(t, err)
}

func TestDatabaseWireLayout(t *testing.T) {
	db := &Database{
		Points: []*models.Vertex{
			models.NewVertex(models.NewVec3(1, 2, 3), models.NewVec3(0, 1, 0)),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, db.Write(&buf))

	// version + pointCount + 6 doubles + rayCount
	require.Equal(t, 4+4+48+4, buf.Len())

	raw := buf.Bytes()
	require.Equal(t, int32(1), int32(binary.LittleEndian.Uint32(raw[0:4])))
	require.Equal(t, int32(1), int32(binary.LittleEndian.Uint32(raw[4:8])))
	require.Equal(t, int32(0), int32(binary.LittleEndian.Uint32(raw[56:60])))
}

func TestDatabaseSaveReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "terrain.db")

	first := &Database{Rays: []models.Ray{
		models.NewRay(models.NewVec3(0, 0, 0), models.NewVec3(1, 0, 0)),
	}}
	require.NoError(t, first.Save(path))

	second := &Database{Rays: []models.Ray{
		models.NewRay(models.NewVec3(0, 0, 0), models.NewVec3(2, 0, 0)),
		models.NewRay(models.NewVec3(0, 1, 0), models.NewVec3(2, 1, 0)),
	}}
	require.NoError(t, second.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Len(t, loaded.Rays, 2)

	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}
