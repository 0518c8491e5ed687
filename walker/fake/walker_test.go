package fake

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
	"gonum.org/v1/gonum/num/quat"

	"github.com/robprom/virtual-rodent/walker"
)

func ratPose(w *Walker) ([]float64, []float64) {
	qpos := make([]float64, walker.DoF(w))
	qpos[0], qpos[1], qpos[2] = 0.1, -0.2, 0.05
	qpos[3] = 1
	for j := range w.Joints() {
		qpos[7+j] = 0.01 * float64(j)
	}
	qvel := make([]float64, walker.DoF(w)-1)
	return qpos, qvel
}

func TestSetPoseIdempotent(t *testing.T) {
	w := NewRatWalker()
	qpos, qvel := ratPose(w)

	test.That(t, w.SetPose(qpos, qvel), test.ShouldBeNil)
	firstPos := w.RootPosition()
	firstQuat := w.RootOrientation()
	firstCOM := w.CenterOfMass()

	test.That(t, w.SetPose(qpos, qvel), test.ShouldBeNil)
	test.That(t, w.RootPosition(), test.ShouldResemble, firstPos)
	test.That(t, w.RootOrientation(), test.ShouldResemble, firstQuat)
	test.That(t, w.CenterOfMass(), test.ShouldResemble, firstCOM)
}

func TestSetPoseWidthErrors(t *testing.T) {
	w := NewRatWalker()
	qpos, qvel := ratPose(w)
	test.That(t, w.SetPose(qpos[:5], qvel), test.ShouldNotBeNil)
	test.That(t, w.SetPose(qpos, qvel[:3]), test.ShouldNotBeNil)
}

func TestForwardKinematics(t *testing.T) {
	w := NewRatWalker()
	qpos, qvel := ratPose(w)
	test.That(t, w.SetPose(qpos, qvel), test.ShouldBeNil)

	bodies := w.BodyNames()
	positions := w.BodyPositions()
	test.That(t, positions, test.ShouldHaveLength, len(bodies))
	// identity orientation: world position is root plus the local offset
	for i, b := range w.BodyDefs {
		test.That(t, positions[i].X, test.ShouldAlmostEqual, qpos[0]+b.Offset.X)
		test.That(t, positions[i].Y, test.ShouldAlmostEqual, qpos[1]+b.Offset.Y)
		test.That(t, positions[i].Z, test.ShouldAlmostEqual, qpos[2]+b.Offset.Z)
	}
	test.That(t, w.JointAngles(), test.ShouldResemble, qpos[7:])

	appendages, ok := w.Appendages()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, appendages, test.ShouldHaveLength, len(w.EndEffectors())+1)
}

func TestAppendagesAbsent(t *testing.T) {
	w := NewRatWalker()
	w.AppendageOffsets = nil
	_, ok := w.Appendages()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestShiftPose(t *testing.T) {
	w := NewRatWalker()
	qpos, qvel := ratPose(w)
	qvel[0] = 1 // forward velocity to be rotated with the body
	test.That(t, w.SetPose(qpos, qvel), test.ShouldBeNil)

	shift := r3.Vector{X: 1, Y: 2, Z: 3}
	yaw90 := quat.Number{Real: math.Cos(math.Pi / 4), Kmag: math.Sin(math.Pi / 4)}
	test.That(t, w.ShiftPose(&shift, &yaw90, true), test.ShouldBeNil)

	pos := w.RootPosition()
	test.That(t, pos.X, test.ShouldAlmostEqual, qpos[0]+1)
	test.That(t, pos.Y, test.ShouldAlmostEqual, qpos[1]+2)
	test.That(t, pos.Z, test.ShouldAlmostEqual, qpos[2]+3)

	// the +x velocity now points along +y
	test.That(t, w.qvel[0], test.ShouldAlmostEqual, 0)
	test.That(t, w.qvel[1], test.ShouldAlmostEqual, 1)
}
