package utils

import (
	"github.com/pkg/errors"
)

// NewUnexpectedTypeError is used when there is a type mismatch.
func NewUnexpectedTypeError(expected interface{}, actual interface{}) error {
	return errors.Errorf("expected %T but got %T", expected, actual)
}

// NewLengthMismatchError is used when two sequences that must be parallel have different lengths.
func NewLengthMismatchError(name string, expected, actual int) error {
	return errors.Errorf("%s has length %d but expected length %d", name, actual, expected)
}

// NewTooFewElementsError is used when a sequence is shorter than an operation requires.
func NewTooFewElementsError(name string, minimum, actual int) error {
	return errors.Errorf("%s needs at least %d elements but got %d", name, minimum, actual)
}

// NewNotIncreasingError is used when a parameter sequence is not strictly increasing at index.
func NewNotIncreasingError(name string, index int, prev, cur float64) error {
	return errors.Errorf("%s must be strictly increasing but element %d (%v) follows %v", name, index, cur, prev)
}

// NewOutOfRangeError is used when a value falls outside the closed interval [lo, hi].
func NewOutOfRangeError(name string, value, lo, hi float64) error {
	return errors.Errorf("%s %v is outside of the range [%v, %v]", name, value, lo, hi)
}

// NewNotDivisibleError is used when a buffer length cannot be split evenly into elements of a given width.
func NewNotDivisibleError(name string, length, width int) error {
	return errors.Errorf("%s has length %d which is not divisible by %d", name, length, width)
}
