package spatialmath

import (
	"github.com/golang/geo/r3"
)

// AngularVelocity contains angular velocity in radians per unit of the differentiation
// parameter across x/y/z axes.
type AngularVelocity r3.Vector

// R3ToAngVel converts an r3 vector into an AngularVelocity.
func R3ToAngVel(vec r3.Vector) AngularVelocity {
	return AngularVelocity{X: vec.X, Y: vec.Y, Z: vec.Z}
}

// Vector returns av as an r3 vector.
func (av AngularVelocity) Vector() r3.Vector {
	return r3.Vector(av)
}

// Quaternion returns av as a pure quaternion (zero scalar part).
func (av AngularVelocity) Quaternion() Quaternion {
	return NewPureQuaternion(av.Vector())
}

// Norm returns the angular speed.
func (av AngularVelocity) Norm() float64 {
	return av.Vector().Norm()
}

// QuatToAngVel calculates the body-frame angular velocity that turns a rotor by diffQ over a
// parameter difference dt, i.e. 2·log(diffQ)/dt.
func QuatToAngVel(diffQ Quaternion, dt float64) AngularVelocity {
	return R3ToAngVel(diffQ.Log().Vector().Mul(2 / dt))
}

// OrientationToAngularVel calculates the body-frame angular velocity that turns the rotor from
// into the rotor to over dt. The shorter of the two possible turns is used.
func OrientationToAngularVel(from, to Quaternion, dt float64) AngularVelocity {
	return QuatToAngVel(from.Inverse().Mul(CloserRepresentative(from, to)), dt)
}
