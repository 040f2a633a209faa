package spatialmath

// The rotor metrics treat their arguments as points on the unit 3-sphere and so are sensitive
// to sign: q and -q are a full diameter apart. The rotation metrics first replace q with
// whichever of q and -q is closer to p, so they are guaranteed to give the same answer for
// q and -q.

// RotorChordalDistance returns |p - q|, the straight-line distance between p and q.
func RotorChordalDistance(p, q Quaternion) float64 {
	return p.Sub(q).Norm()
}

// RotorIntrinsicDistance returns 2·|log(p⁻¹·q)|, the geodesic distance between p and q on the
// 3-sphere scaled to rotation angle.
func RotorIntrinsicDistance(p, q Quaternion) float64 {
	if p == q {
		return 0
	}
	return 2 * p.Inverse().Mul(q).Log().Norm()
}

// RotationChordalDistance returns min(|p - q|, |p + q|).
func RotationChordalDistance(p, q Quaternion) float64 {
	return RotorChordalDistance(p, CloserRepresentative(p, q))
}

// RotationIntrinsicDistance returns the angle of the rotation taking p to q, in [0, π].
func RotationIntrinsicDistance(p, q Quaternion) float64 {
	q = CloserRepresentative(p, q)
	if p == q {
		return 0
	}
	return 2 * p.Inverse().Mul(q).Log().Norm()
}

// DistanceMetric is any of the four distance functions.
type DistanceMetric func(p, q Quaternion) float64
