package mathutil

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

const tol = 1e-9

func assertVec(t *testing.T, want, got Vec3) {
	t.Helper()
	for i := 0; i < 3; i++ {
		assert.InDelta(t, want[i], got[i], tol, "component %d of %v", i, got)
	}
}

func TestRotY90(t *testing.T) {
	// (1,0,0) rotated 90° about Y lands on -Z.
	got := RotY(math.Pi / 2).MulVec3(Vec3{1, 0, 0})
	assertVec(t, Vec3{0, 0, -1}, got)
}

func TestEulerDegOrder(t *testing.T) {
	rx, ry, rz := 30.0, -45.0, 60.0
	want := Mat3Mul(RotZ(Deg2Rad(rz)), Mat3Mul(RotY(Deg2Rad(ry)), RotX(Deg2Rad(rx))))
	got := EulerDeg(rx, ry, rz)
	for i := range want {
		assert.InDelta(t, want[i], got[i], tol)
	}

	// X is applied first: rotating +Y by 90° about X gives +Z, then 90° about Z leaves it.
	v := EulerDeg(90, 0, 90).MulVec3(Vec3{0, 1, 0})
	assertVec(t, Vec3{0, 0, 1}, v)
}

func TestMat4MulIdentity(t *testing.T) {
	m := FromMat3Translation(RotZ(0.3), Vec3{1, 2, 3})
	assert.Equal(t, m, Mat4Mul(m, Mat4Identity()))
	assert.Equal(t, m, Mat4Mul(Mat4Identity(), m))
}

func TestMat4Inverse(t *testing.T) {
	m := FromMat3Translation(Mat3Mul(RotX(0.4), RotY(-1.1)), Vec3{3, -2, 5})
	m[0] *= 2 // non-rigid on purpose

	p := Vec3{0.5, 1.5, -2}
	back := m.Inverse().MulPoint(m.MulPoint(p))
	assertVec(t, p, back)
	assert.True(t, Mat4Mul(m, m.Inverse()).IsIdentity())
}

func TestMat4InverseSingular(t *testing.T) {
	var zero Mat4
	assert.Equal(t, Mat4Identity(), zero.Inverse())
}

func TestQuatFromTo(t *testing.T) {
	cases := []struct {
		name     string
		from, to Vec3
	}{
		{"same", Vec3{0, 1, 0}, Vec3{0, 1, 0}},
		{"orthogonal", Vec3{0, 1, 0}, Vec3{1, 0, 0}},
		{"opposite", Vec3{0, 1, 0}, Vec3{0, -1, 0}},
		{"oblique", Vec3{0, 1, 0}, Vec3{1, 1, 1}.Normalize()},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := QuatToMat3(QuatFromTo(tc.from, tc.to))
			assertVec(t, tc.to, r.MulVec3(tc.from))
			assert.InDelta(t, 1.0, r.Det(), 1e-9)
		})
	}
}

func TestCentroid(t *testing.T) {
	assert.Equal(t, Vec3{}, Centroid(nil))
	c := Centroid([][3]float32{{0, 0, 0}, {2, 4, -6}})
	assertVec(t, Vec3{1, 2, -3}, c)
}
