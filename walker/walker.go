// Package walker defines the capability surface of the kinematic model the
// preprocessing pipeline replays poses through. The concrete model (a physics
// engine binding, a serialized biomechanical model, a fake) is plugged in
// behind this interface; core code never assumes a particular implementation.
package walker

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Limit represents the valid range of motion of a joint, in radians.
type Limit struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Joint describes one tracked joint of the model.
type Joint struct {
	Name  string `json:"name"`
	Limit Limit  `json:"limit"`
}

// A Walker is an articulated body with a 7-DoF freejoint root. Setting a pose
// recomputes its forward kinematics; the read-back methods report the derived
// quantities for the most recently set pose.
type Walker interface {
	// Joints returns the tracked joints in qpos order.
	Joints() []Joint

	// SetPose sets the freejoint and joint angles from a generalized position
	// vector [x y z qw qx qy qz joints...] and a generalized velocity vector
	// [vx vy vz wx wy wz joint rates...].
	SetPose(qpos, qvel []float64) error

	// ShiftPose applies an additional rigid translation and/or rotation to the
	// current pose. If rotateVelocity is set, the linear velocity is rotated
	// along with the body.
	ShiftPose(position *r3.Vector, rotation *quat.Number, rotateVelocity bool) error

	// RootPosition returns the world position of the freejoint.
	RootPosition() r3.Vector

	// RootOrientation returns the world orientation of the freejoint.
	RootOrientation() quat.Number

	// JointAngles returns the current joint angles in qpos order.
	JointAngles() []float64

	// CenterOfMass returns the subtree center of mass of the whole body.
	CenterOfMass() r3.Vector

	// EndEffectors returns the world positions of the designated end effectors.
	EndEffectors() []r3.Vector

	// Appendages returns the world positions of the appendage sites, or
	// ok=false if the model does not define appendages.
	Appendages() (positions []r3.Vector, ok bool)

	// BodyNames returns the names of the mocap tracking bodies, in a fixed order.
	BodyNames() []string

	// BodyPositions returns the world positions of the tracking bodies, in
	// BodyNames order.
	BodyPositions() []r3.Vector

	// BodyOrientations returns the world orientations of the tracking bodies,
	// in BodyNames order.
	BodyOrientations() []quat.Number
}

// DoF returns the generalized position width of a walker: 7 freejoint
// components plus one angle per joint.
func DoF(w Walker) int {
	return 7 + len(w.Joints())
}
