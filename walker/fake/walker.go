// Package fake implements a deterministic kinematic walker for testing and
// for running the pipeline without a physics engine attached.
package fake

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/robprom/virtual-rodent/spatialmath"
	"github.com/robprom/virtual-rodent/walker"
)

// Body describes one tracking body of the fake walker as a rigid offset from
// the root frame.
type Body struct {
	Name   string
	Offset r3.Vector
}

// A Walker poses a rigid body cloud. Every tracked point is a fixed offset
// from the freejoint frame, so forward kinematics is a single rotate+translate
// per point and the same pose always reads back the same quantities.
type Walker struct {
	JointDefs          []walker.Joint
	BodyDefs           []Body
	EndEffectorOffsets []r3.Vector
	AppendageOffsets   []r3.Vector
	COMOffset          r3.Vector

	qpos []float64
	qvel []float64
}

// NewWalker returns a fake walker with the given joints and bodies and no end
// effectors, posed at the origin.
func NewWalker(joints []walker.Joint, bodies []Body) *Walker {
	w := &Walker{JointDefs: joints, BodyDefs: bodies}
	w.qpos = make([]float64, 7+len(joints))
	w.qpos[3] = 1 // identity orientation
	w.qvel = make([]float64, 6+len(joints))
	return w
}

// NewRatWalker returns a fake walker shaped like the rodent model the
// pipeline was built around: a handful of limited joints, foot and hand
// tracking bodies, and four end effectors.
func NewRatWalker() *Walker {
	joints := []walker.Joint{
		{Name: "vertebra_1", Limit: walker.Limit{Min: -0.5, Max: 0.5}},
		{Name: "vertebra_2", Limit: walker.Limit{Min: -0.5, Max: 0.5}},
		{Name: "hip_L", Limit: walker.Limit{Min: -1.2, Max: 1.2}},
		{Name: "hip_R", Limit: walker.Limit{Min: -1.2, Max: 1.2}},
		{Name: "knee_L", Limit: walker.Limit{Min: -2.0, Max: 0.1}},
		{Name: "knee_R", Limit: walker.Limit{Min: -2.0, Max: 0.1}},
		{Name: "shoulder_L", Limit: walker.Limit{Min: -1.5, Max: 1.5}},
		{Name: "shoulder_R", Limit: walker.Limit{Min: -1.5, Max: 1.5}},
	}
	bodies := []Body{
		{Name: "torso", Offset: r3.Vector{Z: 0.02}},
		{Name: "head", Offset: r3.Vector{X: 0.05, Z: 0.03}},
		{Name: "pelvis", Offset: r3.Vector{X: -0.04, Z: 0.015}},
		{Name: "foot_L", Offset: r3.Vector{X: -0.03, Y: 0.02, Z: -0.01}},
		{Name: "foot_R", Offset: r3.Vector{X: -0.03, Y: -0.02, Z: -0.01}},
		{Name: "hand_L", Offset: r3.Vector{X: 0.04, Y: 0.02, Z: -0.005}},
		{Name: "hand_R", Offset: r3.Vector{X: 0.04, Y: -0.02, Z: -0.005}},
	}
	w := NewWalker(joints, bodies)
	w.EndEffectorOffsets = []r3.Vector{
		{X: -0.03, Y: 0.02, Z: -0.01},
		{X: -0.03, Y: -0.02, Z: -0.01},
		{X: 0.04, Y: 0.02, Z: -0.005},
		{X: 0.04, Y: -0.02, Z: -0.005},
	}
	w.AppendageOffsets = append(append([]r3.Vector{}, w.EndEffectorOffsets...), r3.Vector{X: 0.05, Z: 0.03})
	w.COMOffset = r3.Vector{Z: 0.01}
	return w
}

// Joints returns the tracked joints in qpos order.
func (w *Walker) Joints() []walker.Joint {
	return w.JointDefs
}

// SetPose sets the generalized position and velocity of the walker.
func (w *Walker) SetPose(qpos, qvel []float64) error {
	if len(qpos) != 7+len(w.JointDefs) {
		return walker.NewPoseWidthError(len(qpos), 7+len(w.JointDefs))
	}
	if len(qvel) != 6+len(w.JointDefs) {
		return walker.NewVelocityWidthError(len(qvel), 6+len(w.JointDefs))
	}
	copy(w.qpos, qpos)
	copy(w.qvel, qvel)
	return nil
}

// ShiftPose applies a rigid shift to the current pose.
func (w *Walker) ShiftPose(position *r3.Vector, rotation *quat.Number, rotateVelocity bool) error {
	if rotation != nil {
		q := quat.Mul(*rotation, w.RootOrientation())
		w.qpos[3], w.qpos[4], w.qpos[5], w.qpos[6] = q.Real, q.Imag, q.Jmag, q.Kmag
		if rotateVelocity {
			v := spatialmath.Rotate(*rotation, r3.Vector{X: w.qvel[0], Y: w.qvel[1], Z: w.qvel[2]})
			w.qvel[0], w.qvel[1], w.qvel[2] = v.X, v.Y, v.Z
		}
	}
	if position != nil {
		w.qpos[0] += position.X
		w.qpos[1] += position.Y
		w.qpos[2] += position.Z
	}
	return nil
}

// RootPosition returns the world position of the freejoint.
func (w *Walker) RootPosition() r3.Vector {
	return r3.Vector{X: w.qpos[0], Y: w.qpos[1], Z: w.qpos[2]}
}

// RootOrientation returns the world orientation of the freejoint.
func (w *Walker) RootOrientation() quat.Number {
	return quat.Number{Real: w.qpos[3], Imag: w.qpos[4], Jmag: w.qpos[5], Kmag: w.qpos[6]}
}

// JointAngles returns the current joint angles.
func (w *Walker) JointAngles() []float64 {
	return append([]float64{}, w.qpos[7:]...)
}

// CenterOfMass returns the body's center of mass for the current pose.
func (w *Walker) CenterOfMass() r3.Vector {
	return w.toWorld(w.COMOffset)
}

// EndEffectors returns the world positions of the end effectors.
func (w *Walker) EndEffectors() []r3.Vector {
	return w.pointsToWorld(w.EndEffectorOffsets)
}

// Appendages returns the world positions of the appendage sites, or ok=false
// if the walker defines none.
func (w *Walker) Appendages() ([]r3.Vector, bool) {
	if w.AppendageOffsets == nil {
		return nil, false
	}
	return w.pointsToWorld(w.AppendageOffsets), true
}

// BodyNames returns the names of the tracking bodies.
func (w *Walker) BodyNames() []string {
	names := make([]string, len(w.BodyDefs))
	for i, b := range w.BodyDefs {
		names[i] = b.Name
	}
	return names
}

// BodyPositions returns the world positions of the tracking bodies.
func (w *Walker) BodyPositions() []r3.Vector {
	offsets := make([]r3.Vector, len(w.BodyDefs))
	for i, b := range w.BodyDefs {
		offsets[i] = b.Offset
	}
	return w.pointsToWorld(offsets)
}

// BodyOrientations returns the world orientations of the tracking bodies.
// Bodies of the fake are rigidly attached, so all of them share the root
// orientation.
func (w *Walker) BodyOrientations() []quat.Number {
	quats := make([]quat.Number, len(w.BodyDefs))
	root := w.RootOrientation()
	for i := range quats {
		quats[i] = root
	}
	return quats
}

func (w *Walker) toWorld(offset r3.Vector) r3.Vector {
	return w.RootPosition().Add(spatialmath.Rotate(w.RootOrientation(), offset))
}

func (w *Walker) pointsToWorld(offsets []r3.Vector) []r3.Vector {
	world := make([]r3.Vector, len(offsets))
	for i, off := range offsets {
		world[i] = w.toWorld(off)
	}
	return world
}
