// Package database persists accumulated terrain samples as a compact binary
// file.
//
// Layout, little-endian: int32 version, int32 point count, then per point six
// float64 (position, normal); int32 ray count, then per ray six float64
// (start, end).
package database

import (
	"bufio"
	"encoding/binary"
	"io"
	"os"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/jord/models"
)

// Version is the only supported database format version.
const Version = 1

// ErrTypeBadVersion tags load failures caused by an unknown format version.
const ErrTypeBadVersion = "database_bad_version"

// Database is the persisted sample state: deduplicated surface points and the
// miss rays used for carving.
type Database struct {
	Points []*models.Vertex
	Rays   []models.Ray
}

// Load reads the database at path. A missing file is not an error and yields
// an empty database.
func Load(path string) (*Database, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Database{}, nil
		}
		return nil, errors.New("opening database failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	db, err := Read(bufio.NewReader(f))
	if err != nil {
		return nil, errors.New("reading database failed").
			WithTag("path", path).
			Wrap(err)
	}
	return db, nil
}

// Read decodes a database from r.
func Read(r io.Reader) (*Database, error) {
	var version int32
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, errors.New("reading version failed").Wrap(err)
	}
	if version != Version {
		return nil, errors.New("unknown database version").
			WithType(ErrTypeBadVersion).
			WithTag("version", version)
	}

	var pointCount int32
	if err := binary.Read(r, binary.LittleEndian, &pointCount); err != nil {
		return nil, errors.New("reading point count failed").Wrap(err)
	}

	db := &Database{}
	for i := int32(0); i < pointCount; i++ {
		var rec [6]float64
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, errors.New("reading point failed").
				WithTag("index", i).
				Wrap(err)
		}
		db.Points = append(db.Points, models.NewVertex(
			models.NewVec3(rec[0], rec[1], rec[2]),
			models.NewVec3(rec[3], rec[4], rec[5]),
		))
	}

	var rayCount int32
	if err := binary.Read(r, binary.LittleEndian, &rayCount); err != nil {
		return nil, errors.New("reading ray count failed").Wrap(err)
	}

	for i := int32(0); i < rayCount; i++ {
		var rec [6]float64
		if err := binary.Read(r, binary.LittleEndian, &rec); err != nil {
			return nil, errors.New("reading ray failed").
				WithTag("index", i).
				Wrap(err)
		}
		db.Rays = append(db.Rays, models.NewRay(
			models.NewVec3(rec[0], rec[1], rec[2]),
			models.NewVec3(rec[3], rec[4], rec[5]),
		))
	}

	return db, nil
}

// Write encodes the database to w.
func (db *Database) Write(w io.Writer) error {
	if err := binary.Write(w, binary.LittleEndian, int32(Version)); err != nil {
		return errors.New("writing version failed").Wrap(err)
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(db.Points))); err != nil {
		return errors.New("writing point count failed").Wrap(err)
	}
	for _, p := range db.Points {
		rec := [6]float64{
			p.Position.X, p.Position.Y, p.Position.Z,
			p.Normal.X, p.Normal.Y, p.Normal.Z,
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return errors.New("writing point failed").Wrap(err)
		}
	}

	if err := binary.Write(w, binary.LittleEndian, int32(len(db.Rays))); err != nil {
		return errors.New("writing ray count failed").Wrap(err)
	}
	for _, r := range db.Rays {
		rec := [6]float64{
			r.Start.X, r.Start.Y, r.Start.Z,
			r.End.X, r.End.Y, r.End.Z,
		}
		if err := binary.Write(w, binary.LittleEndian, rec); err != nil {
			return errors.New("writing ray failed").Wrap(err)
		}
	}

	return nil
}

// Save atomically writes the database to path. The content is written to a
// temporary sibling first and moved over the target in a single rename. When
// the rename is refused (some filesystems refuse to replace an existing file)
// it falls back to deleting the target and renaming again.
func (db *Database) Save(path string) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return errors.New("creating temporary database failed").
			WithTag("path", tmp).
			Wrap(err)
	}

	w := bufio.NewWriter(f)
	if err := db.Write(w); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.New("writing database failed").
			WithTag("path", tmp).
			Wrap(err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.New("flushing database failed").
			WithTag("path", tmp).
			Wrap(err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.New("closing temporary database failed").
			WithTag("path", tmp).
			Wrap(err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(path)
		if err := os.Rename(tmp, path); err != nil {
			os.Remove(tmp)
			return errors.New("replacing database failed").
				WithTag("path", path).
				Wrap(err)
		}
	}

	return nil
}
