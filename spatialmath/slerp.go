package spatialmath

import (
	"context"
	"math"

	"go.viam.com/quaternion/utils"
)

// When the cosine of the angle between two rotors exceeds this, slerp falls back to normalized
// linear interpolation. At this cutoff the angle is about 1.4e-4 radians and the lerp error is
// below 1e-12.
const slerpLinearThreshold = 1 - 1e-8

// slerpPlan holds everything about a pair of rotors that does not depend on the interpolation
// parameter, so a batch of parameters only pays for the trigonometry once.
type slerpPlan struct {
	q0, q1   Quaternion
	theta    float64
	sinTheta float64
	linear   bool
}

func newSlerpPlan(q0, q1 Quaternion) slerpPlan {
	q1 = CloserRepresentative(q0, q1)
	cosTheta := q0.Dot(q1)
	if cosTheta > slerpLinearThreshold {
		return slerpPlan{q0: q0, q1: q1, linear: true}
	}
	theta := math.Acos(cosTheta)
	return slerpPlan{q0: q0, q1: q1, theta: theta, sinTheta: math.Sin(theta)}
}

func (sp slerpPlan) at(t float64) Quaternion {
	if sp.linear {
		return sp.q0.Scale(1 - t).Add(sp.q1.Scale(t)).Normalize()
	}
	a := math.Sin((1-t)*sp.theta) / sp.sinTheta
	b := math.Sin(t*sp.theta) / sp.sinTheta
	return sp.q0.Scale(a).Add(sp.q1.Scale(b))
}

// Slerp returns the rotor a fraction t of the way from q0 to q1 along the shorter great arc.
// If q1 is on the far hemisphere from q0 it is negated first, so Slerp(q0, q1, 1) may equal -q1,
// which represents the same rotation. Values of t outside [0, 1] extrapolate along the same arc.
func Slerp(q0, q1 Quaternion, t float64) Quaternion {
	return newSlerpPlan(q0, q1).at(t)
}

// SlerpEvaluate returns Slerp(q0, q1, t) for every t in taus.
func SlerpEvaluate(q0, q1 Quaternion, taus []float64) []Quaternion {
	plan := newSlerpPlan(q0, q1)
	out := make([]Quaternion, len(taus))
	mustForEach(len(taus), func(i int) {
		out[i] = plan.at(taus[i])
	})
	return out
}

// mustForEach runs f over [0, n) on the batch worker pool. The kernels run by it cannot fail,
// so a panic inside a worker is re-raised on the calling goroutine.
func mustForEach(n int, f func(i int)) {
	if err := utils.ParallelForEach(context.Background(), n, f); err != nil {
		panic(err)
	}
}
