package export

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"

	"github.com/aukilabs/jord/mesher"
	"github.com/aukilabs/jord/models"
	"github.com/segmentio/encoding/json"
)

const (
	glbMagic        = 0x46546C67 // "glTF"
	glbVersion      = 2
	glbChunkTypeJSON = 0x4E4F534A // "JSON"
	glbChunkTypeBIN  = 0x004E4942 // "BIN\0"

	glComponentFloat  = 5126
	glComponentUint32 = 5125

	glTargetArrayBuffer        = 34962
	glTargetElementArrayBuffer = 34963

	glModeTriangles = 4
)

type gltfDocument struct {
	Asset       gltfAsset        `json:"asset"`
	Scene       int              `json:"scene"`
	Scenes      []gltfScene      `json:"scenes"`
	Nodes       []gltfNode       `json:"nodes"`
	Meshes      []gltfMesh       `json:"meshes"`
	Buffers     []gltfBuffer     `json:"buffers"`
	BufferViews []gltfBufferView `json:"bufferViews"`
	Accessors   []gltfAccessor   `json:"accessors"`
}

type gltfAsset struct {
	Version   string `json:"version"`
	Generator string `json:"generator"`
}

type gltfScene struct {
	Nodes []int `json:"nodes"`
}

type gltfNode struct {
	Mesh int `json:"mesh"`
}

type gltfMesh struct {
	Primitives []gltfPrimitive `json:"primitives"`
}

type gltfPrimitive struct {
	Attributes map[string]int `json:"attributes"`
	Indices    int            `json:"indices"`
	Mode       int            `json:"mode"`
}

type gltfBuffer struct {
	ByteLength int `json:"byteLength"`
}

type gltfBufferView struct {
	Buffer     int `json:"buffer"`
	ByteOffset int `json:"byteOffset"`
	ByteLength int `json:"byteLength"`
	Target     int `json:"target,omitempty"`
}

type gltfAccessor struct {
	BufferView    int       `json:"bufferView"`
	ComponentType int       `json:"componentType"`
	Count         int       `json:"count"`
	Type          string    `json:"type"`
	Min           []float64 `json:"min,omitempty"`
	Max           []float64 `json:"max,omitempty"`
}

// WriteGLB writes the triangles as a single-mesh glTF binary container.
// Vertices shared by several triangles are written once and referenced by
// index.
func WriteGLB(w io.Writer, triangles []*mesher.Triangle) error {
	var vertices []*models.Vertex
	indexOf := make(map[*models.Vertex]uint32)
	indices := make([]uint32, 0, len(triangles)*3)

	for _, t := range triangles {
		for _, v := range [3]*models.Vertex{t.A, t.B, t.C} {
			i, ok := indexOf[v]
			if !ok {
				i = uint32(len(vertices))
				indexOf[v] = i
				vertices = append(vertices, v)
			}
			indices = append(indices, i)
		}
	}

	var bin bytes.Buffer

	min := []float64{math.Inf(1), math.Inf(1), math.Inf(1)}
	max := []float64{math.Inf(-1), math.Inf(-1), math.Inf(-1)}
	for _, v := range vertices {
		p := [3]float32{float32(v.Position.X), float32(v.Position.Y), float32(v.Position.Z)}
		binary.Write(&bin, binary.LittleEndian, p)

		for i, c := range []float64{float64(p[0]), float64(p[1]), float64(p[2])} {
			if c < min[i] {
				min[i] = c
			}
			if c > max[i] {
				max[i] = c
			}
		}
	}
	positionsLength := bin.Len()

	for _, v := range vertices {
		n := [3]float32{float32(v.Normal.X), float32(v.Normal.Y), float32(v.Normal.Z)}
		binary.Write(&bin, binary.LittleEndian, n)
	}
	normalsLength := bin.Len() - positionsLength

	binary.Write(&bin, binary.LittleEndian, indices)
	indicesLength := bin.Len() - positionsLength - normalsLength

	if len(vertices) == 0 {
		min = nil
		max = nil
	}

	doc := gltfDocument{
		Asset:  gltfAsset{Version: "2.0", Generator: "jord"},
		Scene:  0,
		Scenes: []gltfScene{{Nodes: []int{0}}},
		Nodes:  []gltfNode{{Mesh: 0}},
		Meshes: []gltfMesh{{
			Primitives: []gltfPrimitive{{
				Attributes: map[string]int{
					"POSITION": 0,
					"NORMAL":   1,
				},
				Indices: 2,
				Mode:    glModeTriangles,
			}},
		}},
		Buffers: []gltfBuffer{{ByteLength: bin.Len()}},
		BufferViews: []gltfBufferView{
			{Buffer: 0, ByteOffset: 0, ByteLength: positionsLength, Target: glTargetArrayBuffer},
			{Buffer: 0, ByteOffset: positionsLength, ByteLength: normalsLength, Target: glTargetArrayBuffer},
			{Buffer: 0, ByteOffset: positionsLength + normalsLength, ByteLength: indicesLength, Target: glTargetElementArrayBuffer},
		},
		Accessors: []gltfAccessor{
			{BufferView: 0, ComponentType: glComponentFloat, Count: len(vertices), Type: "VEC3", Min: min, Max: max},
			{BufferView: 1, ComponentType: glComponentFloat, Count: len(vertices), Type: "VEC3"},
			{BufferView: 2, ComponentType: glComponentUint32, Count: len(indices), Type: "SCALAR"},
		},
	}

	jsonChunk, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	jsonChunk = pad(jsonChunk, ' ')
	binChunk := pad(bin.Bytes(), 0)

	// header + two chunk headers + both payloads
	total := 12 + 8 + len(jsonChunk) + 8 + len(binChunk)

	header := [3]uint32{glbMagic, glbVersion, uint32(total)}
	if err := binary.Write(w, binary.LittleEndian, header); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, [2]uint32{uint32(len(jsonChunk)), glbChunkTypeJSON}); err != nil {
		return err
	}
	if _, err := w.Write(jsonChunk); err != nil {
		return err
	}

	if err := binary.Write(w, binary.LittleEndian, [2]uint32{uint32(len(binChunk)), glbChunkTypeBIN}); err != nil {
		return err
	}
	if _, err := w.Write(binChunk); err != nil {
		return err
	}

	return nil
}

// pad aligns b to a 4-byte boundary with the given filler.
func pad(b []byte, filler byte) []byte {
	for len(b)%4 != 0 {
		b = append(b, filler)
	}
	return b
}
