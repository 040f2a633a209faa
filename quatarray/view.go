// Package quatarray exposes slices of quaternions as flat float buffers and back without
// copying, and provides the elementwise kernels a host array library dispatches to.
package quatarray

import (
	"unsafe"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/quaternion/spatialmath"
	"go.viam.com/quaternion/utils"
)

// Width is the number of float64 components in a quaternion.
const Width = 4

// AsQuatArray returns a view of a as len(a)/4 quaternions in (w, x, y, z) order. No data is
// copied: writes through either slice are visible through the other.
func AsQuatArray(a []float64) ([]spatialmath.Quaternion, error) {
	if len(a)%Width != 0 {
		return nil, utils.NewNotDivisibleError("float buffer", len(a), Width)
	}
	if len(a) == 0 {
		return []spatialmath.Quaternion{}, nil
	}
	return unsafe.Slice((*spatialmath.Quaternion)(unsafe.Pointer(&a[0])), len(a)/Width), nil
}

// AsFloatArray returns a view of qs as 4·len(qs) float64s in (w, x, y, z) order. No data is
// copied.
func AsFloatArray(qs []spatialmath.Quaternion) []float64 {
	if len(qs) == 0 {
		return []float64{}
	}
	return unsafe.Slice((*float64)(unsafe.Pointer(&qs[0])), len(qs)*Width)
}

// AsDense returns qs as a len(qs)×4 gonum matrix sharing storage with qs.
func AsDense(qs []spatialmath.Quaternion) (*mat.Dense, error) {
	if len(qs) == 0 {
		return nil, errors.New("cannot view an empty quaternion slice as a matrix")
	}
	return mat.NewDense(len(qs), Width, AsFloatArray(qs)), nil
}

// FromDense returns the rows of an N×4 matrix as quaternions. When the matrix rows are
// contiguous the result shares storage with m; otherwise the rows are copied.
func FromDense(m mat.Matrix) ([]spatialmath.Quaternion, error) {
	rows, cols := m.Dims()
	if cols != Width {
		return nil, errors.Errorf("matrix has %d columns but quaternions need %d", cols, Width)
	}
	if raw, ok := m.(mat.RawMatrixer); ok {
		if rm := raw.RawMatrix(); rm.Stride == Width {
			return AsQuatArray(rm.Data[:rows*Width])
		}
	}
	out := make([]spatialmath.Quaternion, rows)
	for i := range out {
		out[i] = spatialmath.NewQuaternion(m.At(i, 0), m.At(i, 1), m.At(i, 2), m.At(i, 3))
	}
	return out, nil
}

// Spinor is the two-complex representation of a quaternion: (w + i·z, y + i·x).
type Spinor [2]complex128

// AsSpinorArray returns qs in the two-complex representation. Unlike the other views this copies.
func AsSpinorArray(qs []spatialmath.Quaternion) []Spinor {
	out := make([]Spinor, len(qs))
	for i, q := range qs {
		out[i] = Spinor{complex(q.Real, q.Kmag), complex(q.Jmag, q.Imag)}
	}
	return out
}

// FromSpinorArray is the inverse of AsSpinorArray.
func FromSpinorArray(ss []Spinor) []spatialmath.Quaternion {
	out := make([]spatialmath.Quaternion, len(ss))
	for i, s := range ss {
		out[i] = spatialmath.NewQuaternion(real(s[0]), imag(s[1]), real(s[1]), imag(s[0]))
	}
	return out
}

// FromAny converts supported array-like values into a quaternion slice, sharing storage where
// the input's layout allows it. Supported inputs are a Quaternion, []Quaternion, []float64,
// [][4]float64, and gonum matrices with four columns.
func FromAny(v interface{}) ([]spatialmath.Quaternion, error) {
	switch a := v.(type) {
	case spatialmath.Quaternion:
		return []spatialmath.Quaternion{a}, nil
	case []spatialmath.Quaternion:
		return a, nil
	case []float64:
		return AsQuatArray(a)
	case [][4]float64:
		out := make([]spatialmath.Quaternion, len(a))
		for i, c := range a {
			out[i] = spatialmath.NewQuaternion(c[0], c[1], c[2], c[3])
		}
		return out, nil
	case mat.Matrix:
		return FromDense(a)
	default:
		return nil, utils.NewUnexpectedTypeError([]spatialmath.Quaternion{}, v)
	}
}
