// Package spatialmath defines quaternion algebra along with the rotation-aware metrics,
// interpolation and differentiation built on top of it.
package spatialmath

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// If the vector part of a quaternion is smaller than this fraction of its scalar part, Log treats
// the vector part as exactly zero.
const logEpsilon = 1e-14

// Quaternion is the value w + x·i + y·j + z·k, stored as gonum's (Real, Imag, Jmag, Kmag).
// A slice of Quaternions has the same memory layout as a slice of float64 four times as long.
type Quaternion quat.Number

var (
	// Zero is the additive identity.
	Zero = Quaternion{}
	// One is the multiplicative identity, i.e. the rotation by zero radians.
	One = Quaternion{Real: 1}
	// X is the basis quaternion i.
	X = Quaternion{Imag: 1}
	// Y is the basis quaternion j.
	Y = Quaternion{Jmag: 1}
	// Z is the basis quaternion k.
	Z = Quaternion{Kmag: 1}
)

// NewQuaternion returns the quaternion w + x·i + y·j + z·k.
func NewQuaternion(w, x, y, z float64) Quaternion {
	return Quaternion{Real: w, Imag: x, Jmag: y, Kmag: z}
}

// NewPureQuaternion returns the quaternion with zero scalar part and vector part v.
func NewPureQuaternion(v r3.Vector) Quaternion {
	return Quaternion{Imag: v.X, Jmag: v.Y, Kmag: v.Z}
}

// Number returns q as a gonum quaternion.
func (q Quaternion) Number() quat.Number {
	return quat.Number(q)
}

// Components returns (w, x, y, z).
func (q Quaternion) Components() [4]float64 {
	return [4]float64{q.Real, q.Imag, q.Jmag, q.Kmag}
}

// Vector returns the vector (imaginary) part of q.
func (q Quaternion) Vector() r3.Vector {
	return r3.Vector{X: q.Imag, Y: q.Jmag, Z: q.Kmag}
}

// Add returns q + p.
func (q Quaternion) Add(p Quaternion) Quaternion {
	return Quaternion(quat.Add(quat.Number(q), quat.Number(p)))
}

// Sub returns q - p.
func (q Quaternion) Sub(p Quaternion) Quaternion {
	return Quaternion(quat.Sub(quat.Number(q), quat.Number(p)))
}

// Mul returns the Hamilton product q·p. Note that this is not commutative.
func (q Quaternion) Mul(p Quaternion) Quaternion {
	return Quaternion(quat.Mul(quat.Number(q), quat.Number(p)))
}

// Div returns q·p⁻¹.
func (q Quaternion) Div(p Quaternion) Quaternion {
	return q.Mul(p.Inverse())
}

// Scale returns f·q.
func (q Quaternion) Scale(f float64) Quaternion {
	return Quaternion(quat.Scale(f, quat.Number(q)))
}

// Neg returns -q, which represents the same rotation as q.
func (q Quaternion) Neg() Quaternion {
	return Quaternion{-q.Real, -q.Imag, -q.Jmag, -q.Kmag}
}

// Conj returns the conjugate of q, i.e. q with its vector part negated.
func (q Quaternion) Conj() Quaternion {
	return Quaternion(quat.Conj(quat.Number(q)))
}

// Dot returns the four dimensional dot product of q and p.
func (q Quaternion) Dot(p Quaternion) float64 {
	return q.Real*p.Real + q.Imag*p.Imag + q.Jmag*p.Jmag + q.Kmag*p.Kmag
}

// Norm2 returns the squared Euclidean norm over all four components.
func (q Quaternion) Norm2() float64 {
	return q.Dot(q)
}

// Norm returns the Euclidean norm over all four components.
func (q Quaternion) Norm() float64 {
	return quat.Abs(quat.Number(q))
}

// Normalize returns q scaled to unit norm. The zero quaternion yields NaN components.
func (q Quaternion) Normalize() Quaternion {
	return q.Scale(1 / q.Norm())
}

// Inverse returns the conjugate of q divided by its squared norm. The zero quaternion yields
// infinite or NaN components.
func (q Quaternion) Inverse() Quaternion {
	return q.Conj().Scale(1 / q.Norm2())
}

// IsZero reports whether every component of q is exactly zero.
func (q Quaternion) IsZero() bool {
	return q == Zero
}

// IsNaN reports whether any component of q is NaN.
func (q Quaternion) IsNaN() bool {
	return quat.IsNaN(quat.Number(q))
}

// Exp returns e^w (cos|v| + v/|v| sin|v|) for q = w + v; this reduces to e^w when v is zero.
func (q Quaternion) Exp() Quaternion {
	return Quaternion(quat.Exp(quat.Number(q)))
}

// Log returns the natural logarithm of q. The vector part of the result has magnitude in [0, π].
// When the vector part of q vanishes, the vector part of the result is zero for positive w, and
// π about the x axis for negative w (the logarithm is not unique there).
func (q Quaternion) Log() Quaternion {
	b := q.Vector().Norm()
	if b <= logEpsilon*math.Abs(q.Real) {
		if q.Real < 0 {
			return Quaternion{Real: math.Log(-q.Real), Imag: math.Pi}
		}
		return Quaternion{Real: math.Log(q.Real)}
	}
	f := math.Atan2(b, q.Real) / b
	return Quaternion{
		Real: math.Log(q.Real*q.Real+b*b) / 2,
		Imag: f * q.Imag,
		Jmag: f * q.Jmag,
		Kmag: f * q.Kmag,
	}
}

// Pow returns q raised to the real power t, i.e. exp(t·log(q)).
func (q Quaternion) Pow(t float64) Quaternion {
	return q.Log().Scale(t).Exp()
}

// AlmostEqual reports whether every component of q is within tol of the same component of p.
func (q Quaternion) AlmostEqual(p Quaternion, tol float64) bool {
	return math.Abs(q.Real-p.Real) <= tol &&
		math.Abs(q.Imag-p.Imag) <= tol &&
		math.Abs(q.Jmag-p.Jmag) <= tol &&
		math.Abs(q.Kmag-p.Kmag) <= tol
}

// RotationAlmostEqual reports whether q and p represent the same rotation within tol, treating
// q and -q as equal.
func (q Quaternion) RotationAlmostEqual(p Quaternion, tol float64) bool {
	return q.AlmostEqual(CloserRepresentative(q, p), tol)
}

// CloserRepresentative returns whichever of q and -q lies closer to ref on the 3-sphere, i.e.
// the one whose dot product with ref is non-negative. Both represent the same rotation.
func CloserRepresentative(ref, q Quaternion) Quaternion {
	if ref.Dot(q) < 0 {
		return q.Neg()
	}
	return q
}

// String returns q formatted as "quaternion(w, x, y, z)".
func (q Quaternion) String() string {
	return fmt.Sprintf("quaternion(%g, %g, %g, %g)", q.Real, q.Imag, q.Jmag, q.Kmag)
}

// FromSphericalCoords returns the rotor that takes the z axis to the point with polar angle theta
// and azimuthal angle phi, i.e. exp(phi·z/2)·exp(theta·y/2).
func FromSphericalCoords(theta, phi float64) Quaternion {
	st, ct := math.Sincos(theta / 2)
	sp, cp := math.Sincos(phi / 2)
	return Quaternion{
		Real: cp * ct,
		Imag: -sp * st,
		Jmag: cp * st,
		Kmag: sp * ct,
	}
}

// FromEulerAngles returns the rotor for the z-y-z Euler angles (alpha, beta, gamma), i.e.
// exp(alpha·z/2)·exp(beta·y/2)·exp(gamma·z/2).
func FromEulerAngles(alpha, beta, gamma float64) Quaternion {
	sb, cb := math.Sincos(beta / 2)
	sSum, cSum := math.Sincos((alpha + gamma) / 2)
	sDiff, cDiff := math.Sincos((alpha - gamma) / 2)
	return Quaternion{
		Real: cb * cSum,
		Imag: -sb * sDiff,
		Jmag: sb * cDiff,
		Kmag: cb * sSum,
	}
}

// FromAxisAngle returns the rotor for a rotation about aa by |aa| radians.
func FromAxisAngle(aa r3.Vector) Quaternion {
	return NewPureQuaternion(aa.Mul(0.5)).Exp()
}

// AxisAngle returns the rotation vector of a unit quaternion: the axis of rotation scaled by
// the rotation angle, which lies in [0, 2π].
func (q Quaternion) AxisAngle() r3.Vector {
	return q.Log().Vector().Mul(2)
}

// FromRotationMatrix returns the unit quaternion for a 3x3 rotation matrix.
func FromRotationMatrix(m mgl64.Mat3) Quaternion {
	mq := mgl64.Mat4ToQuat(m.Mat4())
	return Quaternion{Real: mq.W, Imag: mq.V[0], Jmag: mq.V[1], Kmag: mq.V[2]}.Normalize()
}

func (q Quaternion) mgl() mgl64.Quat {
	return mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}
}

// RotationMatrix returns the 3x3 rotation matrix for a unit quaternion.
func (q Quaternion) RotationMatrix() mgl64.Mat3 {
	return q.mgl().Mat4().Mat3()
}

// Rotate returns v rotated by a unit quaternion, i.e. the vector part of q·v·q⁻¹.
func (q Quaternion) Rotate(v r3.Vector) r3.Vector {
	rotated := q.mgl().Rotate(mgl64.Vec3{v.X, v.Y, v.Z})
	return r3.Vector{X: rotated[0], Y: rotated[1], Z: rotated[2]}
}
