// Package mesh holds the base humanoid mesh: positions, polygon faces,
// per-face group labels and per-vertex UVs.
package mesh

// Buffer is a vertex position array. Shaped and posed vertex buffers are
// both Buffers; they carry no faces and index into the base Mesh topology.
type Buffer [][3]float32

// Coords exposes the positions to consumers that only need coordinates
// (joint fitting, skinning).
func (b Buffer) Coords() [][3]float32 { return b }

// Clone returns an independent copy.
func (b Buffer) Clone() Buffer {
	out := make(Buffer, len(b))
	copy(out, b)
	return out
}

// Mesh holds parsed geometry. Faces are 0-based vertex index lists of
// length 3 or 4 (longer polygons are kept as read).
type Mesh struct {
	Vertices Buffer
	Faces    [][]int
	Groups   []string     // group label per face, "default" before any g line
	UVs      [][2]float32 // one per vertex, zero when never referenced
}

// Coords returns the rest positions.
func (m *Mesh) Coords() [][3]float32 { return m.Vertices }

// Copy returns a deep copy of the mesh.
func (m *Mesh) Copy() *Mesh {
	c := &Mesh{
		Vertices: m.Vertices.Clone(),
		Faces:    make([][]int, len(m.Faces)),
		Groups:   append([]string(nil), m.Groups...),
		UVs:      append([][2]float32(nil), m.UVs...),
	}
	for i, f := range m.Faces {
		c.Faces[i] = append([]int(nil), f...)
	}
	return c
}
