package spatialmath

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// AngularVelocity contains angular velocity in rad/s across x/y/z axes.
type AngularVelocity r3.Vector

// OrientationToAngularVel calculates an angular velocity based on an orientation change over a time difference.
// The orientation change is expressed as the relative rotation carrying the earlier orientation onto the later one.
func OrientationToAngularVel(diff quat.Number, dt float64) AngularVelocity {
	// Renormalize before extracting the axis angle; consecutive mocap frames
	// accumulate enough floating point drift to matter.
	aa := QuatToR3AA(Normalize(diff))
	return AngularVelocity{
		X: aa.X / dt,
		Y: aa.Y / dt,
		Z: aa.Z / dt,
	}
}

// AngularVelocityBetween calculates the angular velocity carrying orientation q0 to q1 over dt.
func AngularVelocityBetween(q0, q1 quat.Number, dt float64) AngularVelocity {
	return OrientationToAngularVel(QuatDiff(q0, q1), dt)
}
