package mathutil

import "math"

// Quat represents a quaternion (x, y, z, w).
type Quat [4]float64

// QuatAxisAngle returns the rotation of angle radians about a unit axis.
func QuatAxisAngle(axis Vec3, angle float64) Quat {
	s, c := math.Sin(angle*0.5), math.Cos(angle*0.5)
	return Quat{axis[0] * s, axis[1] * s, axis[2] * s, c}
}

// QuatFromTo returns the shortest rotation taking unit vector from onto unit vector to.
func QuatFromTo(from, to Vec3) Quat {
	d := from.Dot(to)
	if d > 1-1e-12 {
		return Quat{0, 0, 0, 1}
	}
	if d < -1+1e-12 {
		// Antiparallel: any axis orthogonal to from.
		axis := Vec3{1, 0, 0}.Cross(from)
		if axis.Len() < 1e-6 {
			axis = Vec3{0, 0, 1}.Cross(from)
		}
		return QuatAxisAngle(axis.Normalize(), math.Pi)
	}
	c := from.Cross(to)
	q := Quat{c[0], c[1], c[2], 1 + d}
	n := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	return Quat{q[0] / n, q[1] / n, q[2] / n, q[3] / n}
}

// QuatToMat3 converts a quaternion to a 3×3 rotation matrix.
func QuatToMat3(q Quat) Mat3 {
	x, y, z, w := q[0], q[1], q[2], q[3]
	xx, yy, zz := x*x, y*y, z*z
	xy, xz, yz := x*y, x*z, y*z
	wx, wy, wz := w*x, w*y, w*z

	return Mat3{
		1 - 2*(yy+zz), 2 * (xy - wz), 2 * (xz + wy),
		2 * (xy + wz), 1 - 2*(xx+zz), 2 * (yz - wx),
		2 * (xz - wy), 2 * (yz + wx), 1 - 2*(xx+yy),
	}
}
