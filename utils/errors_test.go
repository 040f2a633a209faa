package utils

import (
	"testing"

	"go.viam.com/test"
)

func TestNewUnexpectedTypeError(t *testing.T) {
	err := NewUnexpectedTypeError([]float64{}, "foo")
	test.That(t, err.Error(), test.ShouldEqual, "expected []float64 but got string")
}

func TestShapeErrors(t *testing.T) {
	for _, tc := range []struct {
		name   string
		err    error
		errStr string
	}{
		{"length mismatch", NewLengthMismatchError("times", 4, 3), "times has length 3 but expected length 4"},
		{"too few", NewTooFewElementsError("keyframes", 4, 2), "keyframes needs at least 4 elements but got 2"},
		{"not increasing", NewNotIncreasingError("times", 2, 1.5, 1.5), "element 2 (1.5) follows 1.5"},
		{"out of range", NewOutOfRangeError("sample", 3, 0, 2), "sample 3 is outside of the range [0, 2]"},
		{"not divisible", NewNotDivisibleError("buffer", 7, 4), "buffer has length 7 which is not divisible by 4"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			test.That(t, tc.err, test.ShouldNotBeNil)
			test.That(t, tc.err.Error(), test.ShouldContainSubstring, tc.errStr)
		})
	}
}
