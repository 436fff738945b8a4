package skeleton

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// rigFile mirrors the .mhskel JSON layout.
type rigFile struct {
	Name  string `json:"name"`
	Bones map[string]struct {
		Head   string  `json:"head"`
		Tail   string  `json:"tail"`
		Parent *string `json:"parent"`
		Roll   float64 `json:"roll"`
	} `json:"bones"`
	Joints      map[string][]int `json:"joints"`
	WeightsFile string           `json:"weights_file"`
}

// weightsFile mirrors the .mhw JSON layout: bone → [[vertex, weight], ...].
type weightsFile struct {
	Weights map[string][][2]float64 `json:"weights"`
}

// Load reads a rig file and its weights file (resolved relative to the rig)
// and fits the result to mesh. A rig without a weights file loads with an
// empty weight table.
func Load(rigPath string, mesh VertexSource) (*Skeleton, error) {
	raw, err := os.ReadFile(rigPath)
	if err != nil {
		return nil, fmt.Errorf("skeleton: read %s: %w", rigPath, err)
	}
	var rf rigFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("skeleton: parse %s: %w", rigPath, err)
	}

	defs := make([]BoneDef, 0, len(rf.Bones))
	for name, b := range rf.Bones {
		d := BoneDef{Name: name, Head: b.Head, Tail: b.Tail, Roll: b.Roll}
		if b.Parent != nil {
			d.Parent = *b.Parent
		}
		defs = append(defs, d)
	}

	var weights map[string]BoneWeights
	if rf.WeightsFile != "" {
		wp := rf.WeightsFile
		if !filepath.IsAbs(wp) {
			wp = filepath.Join(filepath.Dir(rigPath), wp)
		}
		weights, err = LoadWeights(wp)
		if err != nil {
			return nil, err
		}
	}

	name := rf.Name
	if name == "" {
		name = filepath.Base(rigPath)
	}
	return Build(name, defs, rf.Joints, weights, mesh)
}

// LoadWeights reads a .mhw vertex weight file.
func LoadWeights(path string) (map[string]BoneWeights, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("skeleton: read weights %s: %w", path, err)
	}
	var wf weightsFile
	if err := json.Unmarshal(raw, &wf); err != nil {
		return nil, fmt.Errorf("skeleton: parse weights %s: %w", path, err)
	}

	out := make(map[string]BoneWeights, len(wf.Weights))
	for bone, pairs := range wf.Weights {
		bw := BoneWeights{
			Bone:    bone,
			Indices: make([]int, len(pairs)),
			Weights: make([]float32, len(pairs)),
		}
		for i, p := range pairs {
			bw.Indices[i] = int(p[0])
			bw.Weights[i] = float32(p[1])
		}
		out[bone] = bw
	}
	return out, nil
}
