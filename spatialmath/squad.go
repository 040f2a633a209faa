package spatialmath

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"

	"go.viam.com/quaternion/utils"
)

const (
	// MinSquadKeyframes is the fewest keyframes Squad will interpolate.
	MinSquadKeyframes = 4
	// MinSquadLoopKeyframes is the fewest keyframes SquadLoop will interpolate.
	MinSquadLoopKeyframes = 3
)

// controlPoint returns cur·exp(-¼(wPrev·log(cur⁻¹·prev) + wNext·log(cur⁻¹·next))). The weights
// rescale the neighbouring segments to the length of the segment being interpolated; with both
// weights 1 this is Shoemake's intermediate rotor, which makes the squad path C¹ at cur.
func controlPoint(prev, cur, next Quaternion, wPrev, wNext float64) Quaternion {
	inv := cur.Inverse()
	prev = CloserRepresentative(cur, prev)
	next = CloserRepresentative(cur, next)
	tangent := inv.Mul(prev).Log().Scale(wPrev).Add(inv.Mul(next).Log().Scale(wNext))
	// Only the vector part of the tangent is a direction on the sphere; the scalar part is the
	// log of a norm and is zero for unit keyframes.
	tangent.Real = 0
	return cur.Mul(tangent.Scale(-0.25).Exp())
}

// SquadControlPoint returns the intermediate rotor placed near cur from its neighbours prev and
// next, for uniformly spaced keyframes.
func SquadControlPoint(prev, cur, next Quaternion) Quaternion {
	return controlPoint(prev, cur, next, 1, 1)
}

// squadSpan is one keyframe segment together with its two control rotors.
type squadSpan struct {
	start, a, b, end Quaternion
	constant         bool
}

func newSquadSpan(start, a, b, end Quaternion) squadSpan {
	if start.Dot(end) < 0 {
		end = end.Neg()
		b = b.Neg()
	}
	return squadSpan{start: start, a: a, b: b, end: end, constant: start == end}
}

func (s squadSpan) at(t float64) Quaternion {
	if s.constant {
		return s.start
	}
	return Slerp(Slerp(s.start, s.end, t), Slerp(s.a, s.b, t), 2*t*(1-t))
}

// SquadEvaluate interpolates between q1 and q2 with q0 and q3 as the neighbouring keyframes,
// evaluating slerp(slerp(q1, q2, t), slerp(a, b, t), 2t(1-t)) for every t in taus, where a and b
// are the control rotors at q1 and q2. t = 0 gives q1 and t = 1 gives q2 (up to sign).
func SquadEvaluate(q0, q1, q2, q3 Quaternion, taus []float64) []Quaternion {
	q2 = CloserRepresentative(q1, q2)
	span := newSquadSpan(q1, SquadControlPoint(q0, q1, q2), SquadControlPoint(q1, q2, q3), q2)
	out := make([]Quaternion, len(taus))
	mustForEach(len(taus), func(i int) {
		out[i] = span.at(taus[i])
	})
	return out
}

// Squad interpolates keyframes, which are reached at the strictly increasing times, at each of
// the sample times. Every sample must lie within [times[0], times[len(times)-1]]. Control rotors
// account for unequal keyframe spacing; the first and last keyframes use themselves as control
// rotors, as if the keyframes were reflected past each end.
func Squad(keyframes []Quaternion, times, samples []float64) ([]Quaternion, error) {
	if err := validateKeyframes(keyframes, times, MinSquadKeyframes); err != nil {
		return nil, err
	}
	lo, hi := times[0], times[len(times)-1]
	for _, s := range samples {
		if !(s >= lo && s <= hi) {
			return nil, utils.NewOutOfRangeError("sample", s, lo, hi)
		}
	}

	n := len(keyframes)
	q := Unflip(keyframes)
	dt := make([]float64, n-1)
	for i := range dt {
		dt[i] = times[i+1] - times[i]
	}
	spans := make([]squadSpan, n-1)
	for i := range spans {
		a := q[i]
		if i > 0 {
			a = controlPoint(q[i-1], q[i], q[i+1], dt[i]/dt[i-1], 1)
		}
		b := q[i+1]
		if i < n-2 {
			b = controlPoint(q[i], q[i+1], q[i+2], 1, dt[i]/dt[i+1])
		}
		spans[i] = newSquadSpan(q[i], a, b, q[i+1])
	}

	out := make([]Quaternion, len(samples))
	err := utils.ParallelForEach(context.Background(), len(samples), func(j int) {
		i := spanIndex(times, samples[j])
		out[j] = spans[i].at((samples[j] - times[i]) / dt[i])
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to evaluate squad samples")
	}
	return out, nil
}

// SquadLoop interpolates a closed path through keyframes, which are reached at the strictly
// increasing times, with keyframes[0] reached again at times[0]+period. Samples may be any
// time; they are wrapped into [times[0], times[0]+period). Control rotors at the first and last
// keyframes use the wrapped neighbours.
func SquadLoop(keyframes []Quaternion, times []float64, period float64, samples []float64) ([]Quaternion, error) {
	if err := validateKeyframes(keyframes, times, MinSquadLoopKeyframes); err != nil {
		return nil, err
	}
	n := len(keyframes)
	if span := times[n-1] - times[0]; !(period > span) || math.IsInf(period, 0) {
		return nil, errors.Errorf("loop period %v must be finite and greater than the keyframe span %v", period, span)
	}
	for _, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			return nil, errors.Errorf("sample %v is not finite", s)
		}
	}

	q := Unflip(keyframes)
	dt := make([]float64, n)
	for i := 0; i < n-1; i++ {
		dt[i] = times[i+1] - times[i]
	}
	dt[n-1] = times[0] + period - times[n-1]

	spans := make([]squadSpan, n)
	for i := range spans {
		prev, next, nextNext := (i+n-1)%n, (i+1)%n, (i+2)%n
		a := controlPoint(q[prev], q[i], q[next], dt[i]/dt[prev], 1)
		b := controlPoint(q[i], q[next], q[nextNext], 1, dt[i]/dt[next])
		spans[i] = newSquadSpan(q[i], a, b, q[next])
	}

	out := make([]Quaternion, len(samples))
	err := utils.ParallelForEach(context.Background(), len(samples), func(j int) {
		s := utils.WrapToPeriod(samples[j], times[0], period)
		i := sort.Search(n, func(k int) bool { return times[k] > s }) - 1
		out[j] = spans[i].at((s - times[i]) / dt[i])
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to evaluate squad loop samples")
	}
	return out, nil
}

// spanIndex returns the index i of the segment [times[i], times[i+1]] containing s, which must
// lie within the keyframe times. The final keyframe time belongs to the last segment.
func spanIndex(times []float64, s float64) int {
	i := sort.Search(len(times), func(k int) bool { return times[k] > s }) - 1
	if i > len(times)-2 {
		i = len(times) - 2
	}
	return i
}

func validateKeyframes(keyframes []Quaternion, times []float64, minimum int) error {
	if len(keyframes) < minimum {
		return utils.NewTooFewElementsError("keyframes", minimum, len(keyframes))
	}
	if len(times) != len(keyframes) {
		return utils.NewLengthMismatchError("times", len(keyframes), len(times))
	}
	return utils.ValidateIncreasing("times", times)
}
