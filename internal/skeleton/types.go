// Package skeleton implements the bone rig: rest geometry fitted to the
// shaped mesh, per-bone pose rotations and forward kinematics.
package skeleton

import (
	"mh-pose-renderer/internal/mathutil"
)

// VertexSource is anything that can hand out vertex coordinates. Both the
// base mesh and shaped vertex buffers satisfy it.
type VertexSource interface {
	Coords() [][3]float32
}

// State tracks where a skeleton copy is in the fit → pose → update cycle.
type State int

const (
	Unfit State = iota
	Fitted
	Posed
	Updated
)

func (s State) String() string {
	switch s {
	case Unfit:
		return "unfit"
	case Fitted:
		return "fitted"
	case Posed:
		return "posed"
	case Updated:
		return "updated"
	}
	return "unknown"
}

// Bone is one node of the hierarchy. Parent is an index into the owning
// skeleton's Bones (-1 for a root), never an owning reference.
type Bone struct {
	Name      string
	Parent    int
	Children  []int
	HeadJoint string
	TailJoint string
	Roll      float64

	Head mathutil.Vec3
	Tail mathutil.Vec3

	RestGlobal   mathutil.Mat4 // bind pose, mesh space
	RestRelative mathutil.Mat4 // inv(parent.RestGlobal) × RestGlobal
	InvRest      mathutil.Mat4 // inverse bind matrix
	MatPose      mathutil.Mat4 // requested rotation in bone space, identity by default
	PoseGlobal   mathutil.Mat4
	Skinning     mathutil.Mat4 // PoseGlobal × InvRest
}

// Length returns the rest-pose head-to-tail distance.
func (b *Bone) Length() float64 {
	return b.Tail.Sub(b.Head).Len()
}

// Local is the bone's transform relative to its parent's pose frame.
func (b *Bone) Local() mathutil.Mat4 {
	return mathutil.Mat4Mul(b.RestRelative, b.MatPose)
}

// BoneWeights lists the vertices one bone influences. Indices and Weights
// have equal length.
type BoneWeights struct {
	Bone    string
	Indices []int
	Weights []float32
}

// Skeleton owns the bone tree and the vertex weight table. Bones are stored
// breadth-first so every parent precedes its children.
type Skeleton struct {
	Name    string
	Bones   []Bone
	Joints  map[string][]int
	Weights []BoneWeights
	State   State

	index map[string]int
}

// GetBone looks a bone up by name.
func (s *Skeleton) GetBone(name string) (*Bone, bool) {
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return &s.Bones[i], true
}

// ParentName returns the name of b's parent, or "" for a root.
func (s *Skeleton) ParentName(b *Bone) string {
	if b.Parent < 0 || b.Parent >= len(s.Bones) {
		return ""
	}
	return s.Bones[b.Parent].Name
}

// HasWeights reports whether any bone carries vertex weights.
func (s *Skeleton) HasWeights() bool {
	for _, w := range s.Weights {
		if len(w.Indices) > 0 {
			return true
		}
	}
	return false
}

func (s *Skeleton) reindex() {
	s.index = make(map[string]int, len(s.Bones))
	for i := range s.Bones {
		s.index[s.Bones[i].Name] = i
	}
}
