package encode

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// MeshData is a triangulated mesh ready for export.
type MeshData struct {
	Name     string
	Vertices [][3]float32
	UVs      [][2]float32 // optional; must match Vertices in length when set
	Indices  []uint32
}

// Document builds a single-mesh glTF document from m.
func Document(m MeshData) (*gltf.Document, error) {
	if len(m.Vertices) == 0 {
		return nil, fmt.Errorf("encode: glb: mesh %q has no vertices", m.Name)
	}
	if len(m.Indices)%3 != 0 {
		return nil, fmt.Errorf("encode: glb: index count %d is not a multiple of 3", len(m.Indices))
	}
	for _, i := range m.Indices {
		if int(i) >= len(m.Vertices) {
			return nil, fmt.Errorf("encode: glb: index %d out of range", i)
		}
	}

	doc := gltf.NewDocument()
	attrs := map[string]int{
		gltf.POSITION: modeler.WritePosition(doc, m.Vertices),
	}
	if len(m.UVs) == len(m.Vertices) {
		attrs[gltf.TEXCOORD_0] = modeler.WriteTextureCoord(doc, m.UVs)
	}
	prim := &gltf.Primitive{Attributes: attrs, Mode: gltf.PrimitiveTriangles}
	if len(m.Indices) > 0 {
		prim.Indices = gltf.Index(modeler.WriteIndices(doc, m.Indices))
	}

	doc.Meshes = []*gltf.Mesh{{Name: m.Name, Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: m.Name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, 0)
	return doc, nil
}

// WriteGLB encodes m as binary glTF to w.
func WriteGLB(w io.Writer, m MeshData) error {
	doc, err := Document(m)
	if err != nil {
		return err
	}
	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: glb: %w", err)
	}
	return nil
}

// WriteGLBFile writes m as a .glb file, creating parent directories.
func WriteGLBFile(path string, m MeshData) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteGLB(out, m); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
