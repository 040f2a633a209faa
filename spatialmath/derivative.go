package spatialmath

import (
	"context"

	"github.com/pkg/errors"

	"go.viam.com/quaternion/utils"
)

// MinDerivativeSamples is the fewest samples Derivative will differentiate.
const MinDerivativeSamples = 2

// Unflip returns a copy of qs in which each element is replaced by whichever of q and -q is
// closer to the (already corrected) element before it. The result represents the same sequence
// of rotations with no sign jumps. This is a single sequential scan.
func Unflip(qs []Quaternion) []Quaternion {
	out := make([]Quaternion, len(qs))
	for i, q := range qs {
		if i > 0 {
			q = CloserRepresentative(out[i-1], q)
		}
		out[i] = q
	}
	return out
}

// Derivative estimates the body-frame angular velocity of the rotor sequence qs, sampled at the
// strictly increasing times, at every sample. Each gap between samples has the rate
// 2·log(q_i⁻¹·q_{i+1})/(t_{i+1} - t_i); the endpoints use the rate of their only gap and
// interior points combine the rates of both neighbouring gaps, weighted for second-order
// accuracy on uneven spacing. The sequence is unflipped first so sign changes between stored
// samples do not show up as half turns.
func Derivative(qs []Quaternion, times []float64) ([]AngularVelocity, error) {
	if len(qs) < MinDerivativeSamples {
		return nil, utils.NewTooFewElementsError("quaternions", MinDerivativeSamples, len(qs))
	}
	if len(times) != len(qs) {
		return nil, utils.NewLengthMismatchError("times", len(qs), len(times))
	}
	if err := utils.ValidateIncreasing("times", times); err != nil {
		return nil, err
	}

	// The unwrap must see every previous element, so it completes before any parallel work.
	q := Unflip(qs)
	n := len(q)

	dt := make([]float64, n-1)
	gaps := make([]AngularVelocity, n-1)
	if err := utils.ParallelForEach(context.Background(), n-1, func(i int) {
		dt[i] = times[i+1] - times[i]
		gaps[i] = QuatToAngVel(q[i].Inverse().Mul(q[i+1]), dt[i])
	}); err != nil {
		return nil, errors.Wrap(err, "failed to differentiate gaps")
	}

	rates := make([]AngularVelocity, n)
	if err := utils.ParallelForEach(context.Background(), n, func(i int) {
		switch i {
		case 0:
			rates[i] = gaps[0]
		case n - 1:
			rates[i] = gaps[n-2]
		default:
			hPrev, hNext := dt[i-1], dt[i]
			combined := gaps[i-1].Vector().Mul(hNext).Add(gaps[i].Vector().Mul(hPrev))
			rates[i] = R3ToAngVel(combined.Mul(1 / (hPrev + hNext)))
		}
	}); err != nil {
		return nil, errors.Wrap(err, "failed to combine gap rates")
	}
	return rates, nil
}

// DerivativeQuaternions is Derivative with each rate returned as a pure quaternion.
func DerivativeQuaternions(qs []Quaternion, times []float64) ([]Quaternion, error) {
	rates, err := Derivative(qs, times)
	if err != nil {
		return nil, err
	}
	out := make([]Quaternion, len(rates))
	for i, r := range rates {
		out[i] = r.Quaternion()
	}
	return out, nil
}
