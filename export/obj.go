// Package export writes reconstructed meshes as Wavefront OBJ or glTF binary.
package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/jord/mesher"
	"github.com/aukilabs/jord/models"
)

// Save writes the mesh to path. The .glb extension selects glTF binary, any
// other extension selects OBJ.
func Save(path string, triangles []*mesher.Triangle) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.New("creating mesh file failed").
			WithTag("path", path).
			Wrap(err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)

	if strings.EqualFold(filepath.Ext(path), ".glb") {
		err = WriteGLB(w, triangles)
	} else {
		err = WriteOBJ(w, triangles)
	}
	if err != nil {
		return errors.New("writing mesh failed").
			WithTag("path", path).
			Wrap(err)
	}

	if err := w.Flush(); err != nil {
		return errors.New("flushing mesh file failed").
			WithTag("path", path).
			Wrap(err)
	}
	return nil
}

// WriteOBJ writes the triangles as a Wavefront OBJ with per-vertex normals.
// Vertex IDs are assigned lazily on first use; OBJ indices are 1-based.
func WriteOBJ(w io.Writer, triangles []*mesher.Triangle) error {
	nextID := 1

	writeVertex := func(v *models.Vertex) error {
		if v.ID != 0 {
			return nil
		}
		v.ID = nextID
		nextID++

		if _, err := fmt.Fprintf(w, "v %g %g %g\n", v.Position.X, v.Position.Y, v.Position.Z); err != nil {
			return err
		}
		_, err := fmt.Fprintf(w, "vn %g %g %g\n", v.Normal.X, v.Normal.Y, v.Normal.Z)
		return err
	}

	for _, t := range triangles {
		if err := writeVertex(t.A); err != nil {
			return err
		}
		if err := writeVertex(t.B); err != nil {
			return err
		}
		if err := writeVertex(t.C); err != nil {
			return err
		}
	}

	for _, t := range triangles {
		if _, err := fmt.Fprintf(w, "f %d//%d %d//%d %d//%d\n",
			t.A.ID, t.A.ID, t.B.ID, t.B.ID, t.C.ID, t.C.ID); err != nil {
			return err
		}
	}

	return nil
}
