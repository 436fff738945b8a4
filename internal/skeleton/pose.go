package skeleton

import (
	"mh-pose-renderer/internal/mathutil"
)

// SetPose resets every bone to identity and then assigns
// Rz(rz)·Ry(ry)·Rx(rx) (degrees) to each named bone. Names with no matching
// bone are returned and otherwise ignored.
func (s *Skeleton) SetPose(rotations map[string][3]float64) (unknown []string) {
	for i := range s.Bones {
		s.Bones[i].MatPose = mathutil.Mat4Identity()
	}
	for name, r := range rotations {
		b, ok := s.GetBone(name)
		if !ok {
			unknown = append(unknown, name)
			continue
		}
		b.MatPose = mathutil.FromMat3Translation(mathutil.EulerDeg(r[0], r[1], r[2]), mathutil.Vec3{})
	}
	s.State = Posed
	return unknown
}

// Update runs forward kinematics. Bones are visited in storage order,
// which is breadth-first, so a parent's PoseGlobal is final before any
// child reads it.
func (s *Skeleton) Update() {
	for i := range s.Bones {
		b := &s.Bones[i]
		local := b.Local()
		if b.Parent >= 0 {
			b.PoseGlobal = mathutil.Mat4Mul(s.Bones[b.Parent].PoseGlobal, local)
		} else {
			b.PoseGlobal = local
		}
		b.Skinning = mathutil.Mat4Mul(b.PoseGlobal, b.InvRest)
	}
	s.State = Updated
}
