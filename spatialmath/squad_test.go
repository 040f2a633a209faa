package spatialmath

import (
	"math"
	"math/rand"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/floats"
)

// keyframesAbout returns rotors about a fixed axis at the given angles.
func keyframesAbout(axis r3.Vector, angles ...float64) []Quaternion {
	out := make([]Quaternion, 0, len(angles))
	for _, a := range angles {
		out = append(out, FromAxisAngle(axis.Normalize().Mul(a)))
	}
	return out
}

func randomKeyframes(rng *rand.Rand, n int) []Quaternion {
	// random walk so neighbouring keyframes are well under a half turn apart
	out := make([]Quaternion, n)
	out[0] = randomRotor(rng)
	for i := 1; i < n; i++ {
		step := r3.Vector{X: rng.NormFloat64(), Y: rng.NormFloat64(), Z: rng.NormFloat64()}.Normalize().Mul(rng.Float64())
		out[i] = out[i-1].Mul(FromAxisAngle(step))
	}
	return out
}

func TestSquadControlPoint(t *testing.T) {
	// keyframes evenly spaced about one axis have no curvature, so the control rotor is the keyframe
	q := keyframesAbout(r3.Vector{Z: 1}, 0.1, 0.4, 0.7)
	quatShouldAlmostEqual(t, SquadControlPoint(q[0], q[1], q[2]), q[1], 1e-12)

	// a sign flipped neighbour is the same rotation and gives the same control rotor
	quatShouldAlmostEqual(t, SquadControlPoint(q[0].Neg(), q[1], q[2]), SquadControlPoint(q[0], q[1], q[2]), 1e-12)
}

func TestSquadEvaluate(t *testing.T) {
	rng := rand.New(rand.NewSource(30))
	taus := make([]float64, 33)
	floats.Span(taus, 0, 1)
	for i := 0; i < 20; i++ {
		q := randomKeyframes(rng, 4)
		out := SquadEvaluate(q[0], q[1], q[2], q[3], taus)
		test.That(t, out, test.ShouldHaveLength, len(taus))
		quatShouldAlmostEqual(t, out[0], q[1], 1e-12)
		rotationShouldAlmostEqual(t, out[len(out)-1], q[2], 1e-12)
		for _, s := range out {
			test.That(t, s.Norm(), test.ShouldAlmostEqual, 1., 1e-10)
		}
	}
}

func TestSquadEvaluateSingleAxisMatchesSlerp(t *testing.T) {
	q := keyframesAbout(r3.Vector{X: 1, Y: 1}, 0, 0.5, 1, 1.5)
	taus := []float64{0, 0.25, 0.5, 0.75, 1}
	out := SquadEvaluate(q[0], q[1], q[2], q[3], taus)
	for i, tau := range taus {
		quatShouldAlmostEqual(t, out[i], Slerp(q[1], q[2], tau), 1e-10)
	}
}

func TestSquadEvaluateDuplicateKeyframes(t *testing.T) {
	q := keyframesAbout(r3.Vector{Y: 1}, 0.3, 0.3, 0.3, 0.3)
	out := SquadEvaluate(q[0], q[1], q[2], q[3], []float64{0, 0.5, 1})
	for _, s := range out {
		test.That(t, s.IsNaN(), test.ShouldBeFalse)
		quatShouldAlmostEqual(t, s, q[1], 1e-12)
	}

	q = keyframesAbout(r3.Vector{Y: 1}, 0, 0.3, 0.3, 0.9)
	out = SquadEvaluate(q[0], q[1], q[2], q[3], []float64{0, 0.5, 1})
	for _, s := range out {
		test.That(t, s.IsNaN(), test.ShouldBeFalse)
		quatShouldAlmostEqual(t, s, q[1], 1e-12)
	}
}

func TestSquad(t *testing.T) {
	rng := rand.New(rand.NewSource(31))
	q := randomKeyframes(rng, 7)
	times := []float64{0, 0.5, 1.5, 2, 3.5, 4, 5}

	t.Run("passes through keyframes", func(t *testing.T) {
		out, err := Squad(q, times, times)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldHaveLength, len(times))
		for i := range times {
			rotationShouldAlmostEqual(t, out[i], q[i], 1e-10)
		}
	})

	t.Run("unit norm", func(t *testing.T) {
		samples := make([]float64, 1001)
		floats.Span(samples, times[0], times[len(times)-1])
		out, err := Squad(q, times, samples)
		test.That(t, err, test.ShouldBeNil)
		for _, s := range out {
			test.That(t, s.Norm(), test.ShouldAlmostEqual, 1., 1e-10)
		}
	})

	t.Run("continuous", func(t *testing.T) {
		samples := make([]float64, 2001)
		floats.Span(samples, times[0], times[len(times)-1])
		out, err := Squad(q, times, samples)
		test.That(t, err, test.ShouldBeNil)
		for i := 1; i < len(out); i++ {
			test.That(t, RotationIntrinsicDistance(out[i-1], out[i]), test.ShouldBeLessThan, 0.05)
		}
	})

	t.Run("unsorted samples", func(t *testing.T) {
		samples := []float64{4.5, 0.25, 3, 0.25}
		out, err := Squad(q, times, samples)
		test.That(t, err, test.ShouldBeNil)
		single, err := Squad(q, times, []float64{0.25})
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out[1], test.ShouldResemble, single[0])
		test.That(t, out[3], test.ShouldResemble, single[0])
	})

	t.Run("sign flipped keyframes", func(t *testing.T) {
		flipped := make([]Quaternion, len(q))
		for i := range q {
			flipped[i] = q[i]
			if i%2 == 1 {
				flipped[i] = q[i].Neg()
			}
		}
		samples := []float64{0.1, 0.7, 1.9, 2.5, 4.9}
		expected, err := Squad(q, times, samples)
		test.That(t, err, test.ShouldBeNil)
		actual, err := Squad(flipped, times, samples)
		test.That(t, err, test.ShouldBeNil)
		for i := range samples {
			rotationShouldAlmostEqual(t, actual[i], expected[i], 1e-10)
		}
	})

	t.Run("empty samples", func(t *testing.T) {
		out, err := Squad(q, times, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, out, test.ShouldHaveLength, 0)
	})
}

func TestSquadUniformSpacingMatchesSquadEvaluate(t *testing.T) {
	rng := rand.New(rand.NewSource(32))
	q := randomKeyframes(rng, 5)
	times := []float64{0, 1, 2, 3, 4}
	taus := []float64{0.1, 0.5, 0.8}
	samples := []float64{1.1, 1.5, 1.8}
	out, err := Squad(q, times, samples)
	test.That(t, err, test.ShouldBeNil)
	expected := SquadEvaluate(q[0], q[1], q[2], q[3], taus)
	for i := range samples {
		rotationShouldAlmostEqual(t, out[i], expected[i], 1e-10)
	}
}

func TestSquadDuplicateKeyframes(t *testing.T) {
	q := keyframesAbout(r3.Vector{Z: 1}, 0, 0.5, 0.5, 1, 1.5)
	times := []float64{0, 1, 2, 3, 4}
	samples := make([]float64, 41)
	floats.Span(samples, 0, 4)
	out, err := Squad(q, times, samples)
	test.That(t, err, test.ShouldBeNil)
	for i, s := range out {
		test.That(t, s.IsNaN(), test.ShouldBeFalse)
		if samples[i] >= 1 && samples[i] <= 2 {
			quatShouldAlmostEqual(t, s, q[1], 1e-12)
		}
	}
}

func TestSquadErrors(t *testing.T) {
	q := keyframesAbout(r3.Vector{Z: 1}, 0, 0.5, 1, 1.5)

	_, err := Squad(q[:3], []float64{0, 1, 2}, []float64{0.5})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at least 4")

	_, err = Squad(q, []float64{0, 1, 2}, []float64{0.5})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "length 3 but expected length 4")

	_, err = Squad(q, []float64{0, 1, 1, 2}, []float64{0.5})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "strictly increasing")

	_, err = Squad(q, []float64{0, 1, 2, 3}, []float64{3.5})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "outside of the range")

	_, err = Squad(q, []float64{0, 1, 2, 3}, []float64{math.NaN()})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestSquadLoop(t *testing.T) {
	rng := rand.New(rand.NewSource(33))
	q := randomKeyframes(rng, 5)
	times := []float64{0, 1, 2.5, 3, 4}
	period := 5.

	t.Run("passes through keyframes", func(t *testing.T) {
		out, err := SquadLoop(q, times, period, times)
		test.That(t, err, test.ShouldBeNil)
		for i := range times {
			rotationShouldAlmostEqual(t, out[i], q[i], 1e-10)
		}
	})

	t.Run("periodic", func(t *testing.T) {
		samples := []float64{0.3, 2.7, 4.6}
		base, err := SquadLoop(q, times, period, samples)
		test.That(t, err, test.ShouldBeNil)
		for _, shift := range []float64{-2 * period, -period, period, 3 * period} {
			shifted := make([]float64, len(samples))
			for i, s := range samples {
				shifted[i] = s + shift
			}
			out, err := SquadLoop(q, times, period, shifted)
			test.That(t, err, test.ShouldBeNil)
			for i := range samples {
				rotationShouldAlmostEqual(t, out[i], base[i], 1e-9)
			}
		}
	})

	t.Run("closes smoothly", func(t *testing.T) {
		// the closing segment runs from the last keyframe back to the first
		out, err := SquadLoop(q, times, period, []float64{4, 4.5, period - 1e-9, period})
		test.That(t, err, test.ShouldBeNil)
		rotationShouldAlmostEqual(t, out[0], q[4], 1e-10)
		rotationShouldAlmostEqual(t, out[2], q[0], 1e-7)
		rotationShouldAlmostEqual(t, out[3], q[0], 1e-10)
		test.That(t, out[1].Norm(), test.ShouldAlmostEqual, 1., 1e-10)
	})

	t.Run("continuous across the wrap", func(t *testing.T) {
		samples := make([]float64, 4001)
		floats.Span(samples, -period, period)
		out, err := SquadLoop(q, times, period, samples)
		test.That(t, err, test.ShouldBeNil)
		for i := 1; i < len(out); i++ {
			test.That(t, RotationIntrinsicDistance(out[i-1], out[i]), test.ShouldBeLessThan, 0.05)
		}
	})

	t.Run("three keyframes", func(t *testing.T) {
		out, err := SquadLoop(q[:3], times[:3], 3, []float64{0, 1, 2, 2.5})
		test.That(t, err, test.ShouldBeNil)
		rotationShouldAlmostEqual(t, out[0], q[0], 1e-10)
		rotationShouldAlmostEqual(t, out[1], q[1], 1e-10)
		test.That(t, out[3].Norm(), test.ShouldAlmostEqual, 1., 1e-10)
	})
}

func TestSquadLoopErrors(t *testing.T) {
	q := keyframesAbout(r3.Vector{Z: 1}, 0, 0.5, 1, 1.5)

	_, err := SquadLoop(q[:2], []float64{0, 1}, 2, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "at least 3")

	_, err = SquadLoop(q, []float64{0, 1, 2, 3}, 3, nil)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "period")

	_, err = SquadLoop(q, []float64{0, 1, 2, 3}, math.Inf(1), nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = SquadLoop(q, []float64{0, 2, 1, 3}, 4, nil)
	test.That(t, err, test.ShouldNotBeNil)

	_, err = SquadLoop(q, []float64{0, 1, 2, 3}, 4, []float64{math.NaN()})
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "not finite")
}

// oneSidedRates returns the angular velocity of path just before and just after s.
func oneSidedRates(t *testing.T, path func(s []float64) ([]Quaternion, error), s, h float64) (AngularVelocity, AngularVelocity) {
	t.Helper()
	out, err := path([]float64{s - h, s, s + h})
	test.That(t, err, test.ShouldBeNil)
	return OrientationToAngularVel(out[0], out[1], h), OrientationToAngularVel(out[1], out[2], h)
}

func TestSquadSmoothAtKeyframes(t *testing.T) {
	const h = 1e-6
	rng := rand.New(rand.NewSource(34))
	q := randomKeyframes(rng, 7)

	for _, tc := range []struct {
		name  string
		times []float64
	}{
		{"uniform", []float64{0, 1, 2, 3, 4, 5, 6}},
		{"non-uniform", []float64{0, 0.5, 1.5, 2, 3.5, 4, 5}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			path := func(s []float64) ([]Quaternion, error) { return Squad(q, tc.times, s) }
			for i := 1; i < len(tc.times)-1; i++ {
				left, right := oneSidedRates(t, path, tc.times[i], h)
				test.That(t, left.Vector().Sub(right.Vector()).Norm(), test.ShouldBeLessThan, 200*h)
				// the rate is not trivially zero
				test.That(t, left.Norm(), test.ShouldBeGreaterThan, 1e-3)
			}
		})
	}
}

func TestSquadLoopSmoothAtKeyframes(t *testing.T) {
	const h = 1e-6
	rng := rand.New(rand.NewSource(35))
	q := randomKeyframes(rng, 5)
	times := []float64{0, 1, 2.5, 3, 4}
	period := 5.5
	path := func(s []float64) ([]Quaternion, error) { return SquadLoop(q, times, period, s) }

	keyTimes := append([]float64{}, times...)
	keyTimes = append(keyTimes, times[0]+period)
	for _, s := range keyTimes {
		left, right := oneSidedRates(t, path, s, h)
		test.That(t, left.Vector().Sub(right.Vector()).Norm(), test.ShouldBeLessThan, 200*h)
	}
}
