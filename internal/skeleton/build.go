package skeleton

import (
	"fmt"
	"sort"

	"github.com/tiendc/go-deepcopy"

	"mh-pose-renderer/internal/mathutil"
)

// BoneDef describes a bone by the joints its head and tail sit on.
type BoneDef struct {
	Name   string
	Parent string
	Head   string
	Tail   string
	Roll   float64
}

// Build assembles a skeleton from bone definitions, joint vertex groups and
// per-bone weights, then fits it to src. Bones are ordered breadth-first
// with siblings sorted by name. Weights for unknown bones are dropped.
func Build(name string, defs []BoneDef, joints map[string][]int, weights map[string]BoneWeights, src VertexSource) (*Skeleton, error) {
	byName := make(map[string]BoneDef, len(defs))
	children := map[string][]string{}
	var roots []string
	for _, d := range defs {
		if _, dup := byName[d.Name]; dup {
			return nil, fmt.Errorf("skeleton: duplicate bone %q", d.Name)
		}
		byName[d.Name] = d
	}
	for _, d := range defs {
		if d.Parent == "" {
			roots = append(roots, d.Name)
			continue
		}
		if _, ok := byName[d.Parent]; !ok {
			return nil, fmt.Errorf("skeleton: bone %q has unknown parent %q", d.Name, d.Parent)
		}
		children[d.Parent] = append(children[d.Parent], d.Name)
	}
	if len(defs) > 0 && len(roots) == 0 {
		return nil, fmt.Errorf("skeleton: no root bone")
	}
	sort.Strings(roots)

	s := &Skeleton{Name: name, Joints: joints}
	if s.Joints == nil {
		s.Joints = map[string][]int{}
	}

	queue := append([]string(nil), roots...)
	parentIdx := map[string]int{}
	for _, r := range roots {
		parentIdx[r] = -1
	}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		d := byName[n]
		idx := len(s.Bones)
		p := parentIdx[n]
		s.Bones = append(s.Bones, Bone{
			Name:      d.Name,
			Parent:    p,
			HeadJoint: d.Head,
			TailJoint: d.Tail,
			Roll:      d.Roll,
			MatPose:   mathutil.Mat4Identity(),
		})
		if p >= 0 {
			s.Bones[p].Children = append(s.Bones[p].Children, idx)
		}
		kids := children[n]
		sort.Strings(kids)
		for _, k := range kids {
			parentIdx[k] = idx
		}
		queue = append(queue, kids...)
	}
	if len(s.Bones) != len(defs) {
		return nil, fmt.Errorf("skeleton: bone hierarchy has a cycle")
	}
	s.reindex()

	for _, b := range s.Bones {
		w, ok := weights[b.Name]
		if !ok {
			continue
		}
		if len(w.Indices) != len(w.Weights) {
			return nil, fmt.Errorf("skeleton: bone %q has %d indices but %d weights", b.Name, len(w.Indices), len(w.Weights))
		}
		w.Bone = b.Name
		s.Weights = append(s.Weights, w)
	}

	if src != nil {
		s.UpdateJointPositions(src)
	} else {
		s.rebuildRest()
	}
	s.Update()
	return s, nil
}

// Copy returns an independent working copy: bone tree, matrices, joints and
// weights are all duplicated, so fitting and posing never touch s.
func (s *Skeleton) Copy() (*Skeleton, error) {
	var c Skeleton
	if err := deepcopy.Copy(&c, *s); err != nil {
		return nil, fmt.Errorf("skeleton: copy: %w", err)
	}
	c.State = Unfit
	c.reindex()
	return &c, nil
}
