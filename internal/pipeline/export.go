package pipeline

import (
	"fmt"

	"mh-pose-renderer/internal/encode"
	"mh-pose-renderer/internal/mesh"
	"mh-pose-renderer/internal/targets"
)

// BoneInfo describes a fitted bone for client-side skinning.
type BoneInfo struct {
	Name       string      `json:"name"`
	Head       [3]float64  `json:"headPos"`
	Tail       [3]float64  `json:"tailPos"`
	Parent     *string     `json:"parent"`
	Length     float64     `json:"length"`
	RestMatrix [16]float64 `json:"matrix"` // row-major
}

// WeightInfo is one bone's vertex influence list.
type WeightInfo struct {
	Indices []int     `json:"indices"`
	Weights []float32 `json:"weights"`
}

// Payload is the shaped, fitted, unposed mesh with its rig. Clients pose
// and skin it themselves.
type Payload struct {
	Vertices []float32             `json:"vertices"` // x,y,z per vertex
	UVs      []float32             `json:"uvs"`      // u,v per vertex
	Indices  []uint32              `json:"indices"`
	Bones    []BoneInfo            `json:"bones"`
	Weights  map[string]WeightInfo `json:"weights"`
}

// Export shapes the base mesh for s and fits the rig to it. Triangles cover
// the same faces Generate would render.
func (c *Context) Export(s targets.Sliders) (*Payload, error) {
	data, err := c.Data()
	if err != nil {
		return nil, err
	}
	factors := targets.CalculateFactors(data.Library, s)
	shaped := targets.SolveMesh(data.Mesh.Vertices, data.Library, factors)

	skel, err := data.Skeleton.Copy()
	if err != nil {
		return nil, fmt.Errorf("pipeline: export: %w", err)
	}
	skel.UpdateJointPositions(shaped)

	p := &Payload{
		Vertices: make([]float32, 0, len(shaped)*3),
		UVs:      make([]float32, 0, len(data.Mesh.UVs)*2),
		Indices:  mesh.Triangulate(data.Mesh.SelectFaces(c.renderGroups(s.Gender))),
		Bones:    make([]BoneInfo, 0, len(skel.Bones)),
		Weights:  make(map[string]WeightInfo, len(skel.Weights)),
	}
	for _, v := range shaped {
		p.Vertices = append(p.Vertices, v[0], v[1], v[2])
	}
	for _, uv := range data.Mesh.UVs {
		p.UVs = append(p.UVs, uv[0], uv[1])
	}
	for i := range skel.Bones {
		b := &skel.Bones[i]
		info := BoneInfo{
			Name:       b.Name,
			Head:       b.Head,
			Tail:       b.Tail,
			Length:     b.Length(),
			RestMatrix: b.RestGlobal,
		}
		if b.Parent >= 0 {
			parent := skel.ParentName(b)
			info.Parent = &parent
		}
		p.Bones = append(p.Bones, info)
	}
	for _, w := range skel.Weights {
		p.Weights[w.Bone] = WeightInfo{Indices: w.Indices, Weights: w.Weights}
	}
	return p, nil
}

// MeshData returns frame i as a triangulated mesh for GLB export.
func (r *Result) MeshData(i int) encode.MeshData {
	fr := r.Frames[i]
	return encode.MeshData{
		Name:     fmt.Sprintf("pose_%03d", fr.Index),
		Vertices: fr.Vertices,
		UVs:      r.UVs,
		Indices:  mesh.Triangulate(r.Faces),
	}
}
