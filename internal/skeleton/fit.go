package skeleton

import (
	"mh-pose-renderer/internal/mathutil"
)

// JointPosition returns the mean of the joint's vertex group in src.
// ok is false when the joint is unknown or none of its indices are valid.
func (s *Skeleton) JointPosition(joint string, coords [][3]float32) (mathutil.Vec3, bool) {
	var sum mathutil.Vec3
	n := 0
	for _, vi := range s.Joints[joint] {
		if vi < 0 || vi >= len(coords) {
			continue
		}
		sum = sum.Add(mathutil.V3(coords[vi]))
		n++
	}
	if n == 0 {
		return mathutil.Vec3{}, false
	}
	return sum.Scale(1 / float64(n)), true
}

// UpdateJointPositions re-targets every bone's head and tail onto src and
// rebuilds the rest matrices. Must run after morphing and before posing:
// the inverse bind matrices used in skinning come from this fit. Joints
// that cannot be located keep their previous position.
func (s *Skeleton) UpdateJointPositions(src VertexSource) {
	coords := src.Coords()
	for i := range s.Bones {
		b := &s.Bones[i]
		if p, ok := s.JointPosition(b.HeadJoint, coords); ok {
			b.Head = p
		}
		if p, ok := s.JointPosition(b.TailJoint, coords); ok {
			b.Tail = p
		}
	}
	s.rebuildRest()
	s.State = Fitted
}

// rebuildRest recomputes rest global, rest relative and inverse bind
// matrices from head, tail and roll. Parents are visited first.
func (s *Skeleton) rebuildRest() {
	for i := range s.Bones {
		b := &s.Bones[i]
		b.RestGlobal = RestMatrix(b.Head, b.Tail, b.Roll)
		b.InvRest = b.RestGlobal.Inverse()
		if b.Parent >= 0 {
			b.RestRelative = mathutil.Mat4Mul(s.Bones[b.Parent].InvRest, b.RestGlobal)
		} else {
			b.RestRelative = b.RestGlobal
		}
	}
}

// RestMatrix builds a bone frame whose Y axis points from head to tail,
// rolled by roll radians about that axis and translated to head. A
// zero-length bone keeps the world Y axis.
func RestMatrix(head, tail mathutil.Vec3, roll float64) mathutil.Mat4 {
	up := mathutil.Vec3{0, 1, 0}
	dir := tail.Sub(head)
	if dir.Len() < 1e-8 {
		dir = up
	}
	r := mathutil.QuatToMat3(mathutil.QuatFromTo(up, dir.Normalize()))
	if roll != 0 {
		r = mathutil.Mat3Mul(r, mathutil.RotY(roll))
	}
	return mathutil.FromMat3Translation(r, head)
}
