package utils

import (
	"math"

	"gonum.org/v1/gonum/floats/scalar"
)

// DegToRad converts degrees to radians.
func DegToRad(degrees float64) float64 {
	return degrees * math.Pi / 180
}

// RadToDeg converts radians to degrees.
func RadToDeg(radians float64) float64 {
	return radians * 180 / math.Pi
}

// Square returns n*n. Math.pow( x, 2 ) is slow, this is faster.
func Square(n float64) float64 {
	return n * n
}

// Float64AlmostEqual compares two float64s and returns if the difference between them is less than epsilon.
func Float64AlmostEqual(a, b, epsilon float64) bool {
	return scalar.EqualWithinAbs(a, b, epsilon)
}

// StrictlyIncreasing returns the first index i such that values[i] <= values[i-1], or -1 if
// every element is greater than the one before it.
func StrictlyIncreasing(values []float64) int {
	for i := 1; i < len(values); i++ {
		if !(values[i] > values[i-1]) {
			return i
		}
	}
	return -1
}

// ValidateIncreasing returns an error naming the offending element if values is not strictly increasing.
func ValidateIncreasing(name string, values []float64) error {
	if i := StrictlyIncreasing(values); i >= 0 {
		return NewNotIncreasingError(name, i, values[i-1], values[i])
	}
	return nil
}

// WrapToPeriod maps v into [start, start+period).
func WrapToPeriod(v, start, period float64) float64 {
	r := math.Mod(v-start, period)
	if r < 0 {
		r += period
	}
	if r >= period {
		r = 0
	}
	return start + r
}
