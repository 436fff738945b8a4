// Package skin deforms shaped vertices by the posed skeleton using linear
// blend skinning, and applies whole-body model rotation.
package skin

import (
	"go.uber.org/zap"

	"mh-pose-renderer/internal/mathutil"
	"mh-pose-renderer/internal/skeleton"
)

// Report summarizes one skinning pass.
type Report struct {
	PassThrough  bool // no weights: output is a copy of the input
	Unreferenced int  // vertices no bone touches, left at the origin
	OutOfRange   int  // weight entries pointing past the vertex buffer
}

// Apply returns posed = Σ weight × (Skinning × v) for every vertex. The
// accumulation starts from zero and weights are not renormalized, so a
// vertex nobody references stays at the origin. With an empty weight
// table the input is copied through unchanged and a warning is logged.
func Apply(shaped [][3]float32, skel *skeleton.Skeleton, log *zap.Logger) ([][3]float32, Report) {
	if log == nil {
		log = zap.NewNop()
	}
	var rep Report
	if skel == nil || !skel.HasWeights() {
		rep.PassThrough = true
		log.Warn("skinning skipped: skeleton has no vertex weights", zap.Int("vertices", len(shaped)))
		out := make([][3]float32, len(shaped))
		copy(out, shaped)
		return out, rep
	}

	acc := make([]mathutil.Vec3, len(shaped))
	touched := make([]bool, len(shaped))
	for _, bw := range skel.Weights {
		b, ok := skel.GetBone(bw.Bone)
		if !ok {
			continue
		}
		m := b.Skinning
		for k, vi := range bw.Indices {
			if vi < 0 || vi >= len(shaped) {
				rep.OutOfRange++
				continue
			}
			p := m.MulPoint(mathutil.V3(shaped[vi]))
			acc[vi] = acc[vi].Add(p.Scale(float64(bw.Weights[k])))
			touched[vi] = true
		}
	}

	out := make([][3]float32, len(shaped))
	for i, v := range acc {
		if !touched[i] {
			rep.Unreferenced++
		}
		out[i] = v.F32()
	}
	if rep.Unreferenced > 0 || rep.OutOfRange > 0 {
		log.Debug("degenerate skinning input",
			zap.Int("unreferenced", rep.Unreferenced),
			zap.Int("out_of_range", rep.OutOfRange))
	}
	return out, rep
}

// RotateModel rotates verts in place about their centroid by Rz·Ry·Rx of
// rot (degrees). Rotations within 0.01° on every axis are ignored.
func RotateModel(verts [][3]float32, rot [3]float64) bool {
	if !significant(rot) || len(verts) == 0 {
		return false
	}
	r := mathutil.EulerDeg(rot[0], rot[1], rot[2])
	c := mathutil.Centroid(verts)
	for i, v := range verts {
		p := r.MulVec3(mathutil.V3(v).Sub(c)).Add(c)
		verts[i] = p.F32()
	}
	return true
}

func significant(rot [3]float64) bool {
	for _, a := range rot {
		if a > 0.01 || a < -0.01 {
			return true
		}
	}
	return false
}
