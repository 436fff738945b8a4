package mesh

import "strings"

// Group labels used by the rasterizer. GroupGenitals is the label the
// MakeHuman base mesh gives its genital proxy; config can override it.
const (
	GroupBody     = "body"
	GroupGenitals = "helper-genital"
)

// RenderGroups is the allow-list of face groups drawn by default. Hair,
// clothing helpers and joint cubes are never drawn.
var RenderGroups = []string{
	GroupBody,
	"helper-r-eye",
	"helper-l-eye",
	"helper-upper-teeth",
	"helper-lower-teeth",
	"helper-tongue",
}

// SelectFaces returns the faces whose trimmed group label is in allow, in
// mesh order. The result depends only on the mesh and allow-list.
func (m *Mesh) SelectFaces(allow []string) [][]int {
	set := make(map[string]struct{}, len(allow))
	for _, g := range allow {
		set[g] = struct{}{}
	}
	var out [][]int
	for i, g := range m.Groups {
		if i >= len(m.Faces) {
			break
		}
		if _, ok := set[strings.TrimSpace(g)]; ok {
			out = append(out, m.Faces[i])
		}
	}
	return out
}

// Triangulate flattens faces into a triangle index list. Quads become
// [v0,v1,v2] and [v0,v2,v3]; longer polygons are fanned the same way.
// Faces with fewer than three vertices are dropped.
func Triangulate(faces [][]int) []uint32 {
	out := make([]uint32, 0, len(faces)*6)
	for _, f := range faces {
		for k := 1; k+1 < len(f); k++ {
			out = append(out, uint32(f[0]), uint32(f[k]), uint32(f[k+1]))
		}
	}
	return out
}
