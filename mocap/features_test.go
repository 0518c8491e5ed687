package mocap

import (
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"

	"github.com/robprom/virtual-rodent/walker"
	"github.com/robprom/virtual-rodent/walker/fake"
)

func ratRow(z float64) []float64 {
	row := make([]float64, 15)
	row[2] = z
	row[3] = 1
	return row
}

func ratRows(n int, z float64) [][]float64 {
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = ratRow(z)
	}
	return rows
}

func extractOpts() ExtractOptions {
	return ExtractOptions{MaxQVel: 20, DT: dt}
}

func TestExtractFeaturesShapes(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewRatWalker()
	traj, err := NewTrajectoryFromRows(ratRows(7, 0.05))
	test.That(t, err, test.ShouldBeNil)

	feats, err := ExtractFeatures(traj, w, extractOpts(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, feats.Len(), test.ShouldEqual, 7)

	rows, cols := feats.Position.Dims()
	test.That(t, rows, test.ShouldEqual, 7)
	test.That(t, cols, test.ShouldEqual, 3)
	_, cols = feats.Quaternion.Dims()
	test.That(t, cols, test.ShouldEqual, 4)
	_, cols = feats.Joints.Dims()
	test.That(t, cols, test.ShouldEqual, 8)
	rows, cols = feats.Velocity.Dims()
	test.That(t, rows, test.ShouldEqual, 7)
	test.That(t, cols, test.ShouldEqual, 3)
	_, cols = feats.JointsVelocity.Dims()
	test.That(t, cols, test.ShouldEqual, 8)
	test.That(t, feats.EndEffectors[0], test.ShouldHaveLength, 4)
	test.That(t, feats.BodyPositions[0], test.ShouldHaveLength, 7)
	test.That(t, feats.BodyQuaternions[0], test.ShouldHaveLength, 7)

	// static trajectory: all velocities are zero, including the padded tail
	for i := 0; i < 7; i++ {
		test.That(t, feats.Velocity.At(i, 2), test.ShouldAlmostEqual, 0)
		test.That(t, feats.AngularVelocity.At(i, 2), test.ShouldAlmostEqual, 0)
	}
}

func TestExtractFeaturesWidthMismatch(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewRatWalker()
	rows := [][]float64{make([]float64, 12)}
	rows[0][3] = 1
	traj, err := NewTrajectoryFromRows(rows)
	test.That(t, err, test.ShouldBeNil)

	_, err = ExtractFeatures(traj, w, extractOpts(), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAngleClippingBoundary(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewRatWalker() // joint 0 range is [-0.5, 0.5]
	rows := ratRows(4, 0)
	rows[1][7] = 0.5 // exactly at the boundary: untouched
	rows[2][7] = 0.7 // beyond by 0.2: clipped and reported

	traj, err := NewTrajectoryFromRows(rows)
	test.That(t, err, test.ShouldBeNil)

	opts := extractOpts()
	opts.MaxQVel = 1000 // keep the induced velocity step out of the diagnostics
	opts.Verbatim = true
	feats, err := ExtractFeatures(traj, w, opts, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, feats.Joints.At(1, 0), test.ShouldAlmostEqual, 0.5)
	test.That(t, feats.Joints.At(2, 0), test.ShouldAlmostEqual, 0.5)
	test.That(t, feats.Events, test.ShouldHaveLength, 1)
	test.That(t, feats.Events[0].Frame, test.ShouldEqual, 2)
	test.That(t, feats.Events[0].Joint, test.ShouldEqual, "vertebra_1")
	test.That(t, feats.Events[0].Kind, test.ShouldEqual, ClipAngle)
	test.That(t, feats.Events[0].From, test.ShouldAlmostEqual, 0.7)
	test.That(t, feats.Events[0].To, test.ShouldAlmostEqual, 0.5)

	// the input trajectory is never mutated
	test.That(t, traj.Pose(2)[7], test.ShouldAlmostEqual, 0.7)
}

func TestAngleClippingSilentWithoutVerbatim(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewRatWalker()
	rows := ratRows(4, 0)
	rows[2][7] = 0.7

	traj, err := NewTrajectoryFromRows(rows)
	test.That(t, err, test.ShouldBeNil)

	opts := extractOpts()
	opts.MaxQVel = 1000
	feats, err := ExtractFeatures(traj, w, opts, logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, feats.Events, test.ShouldHaveLength, 0)
	test.That(t, feats.Joints.At(2, 0), test.ShouldAlmostEqual, 0.5)
}

func TestVelocityClipping(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewRatWalker()
	rows := ratRows(4, 0)
	// one in-range step of 0.5 rad over dt = 25 rad/s, beyond max_qvel=20
	rows[0][7], rows[1][7] = -0.25, -0.25
	rows[2][7], rows[3][7] = 0.25, 0.25

	traj, err := NewTrajectoryFromRows(rows)
	test.That(t, err, test.ShouldBeNil)

	opts := extractOpts()
	opts.Verbatim = true
	feats, err := ExtractFeatures(traj, w, opts, logger)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, feats.Events, test.ShouldHaveLength, 1)
	test.That(t, feats.Events[0].Kind, test.ShouldEqual, ClipVelocity)
	test.That(t, feats.Events[0].Frame, test.ShouldEqual, 1)
	test.That(t, feats.Events[0].From, test.ShouldAlmostEqual, 25)
	test.That(t, feats.Events[0].To, test.ShouldAlmostEqual, 20)
	test.That(t, feats.JointsVelocity.At(1, 0), test.ShouldAlmostEqual, 20)
}

func TestZOffsetAdjustment(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewRatWalker() // foot offsets sit 0.01 below the root
	// five frames with feet exactly on the floor, five elevated by 1
	rows := append(ratRows(5, 0.01), ratRows(5, 1.01)...)
	traj, err := NewTrajectoryFromRows(rows)
	test.That(t, err, test.ShouldBeNil)

	opts := extractOpts()
	opts.AdjustZOffset = 1.0
	feats, err := ExtractFeatures(traj, w, opts, logger)
	test.That(t, err, test.ShouldBeNil)

	// lowest ten foot heights average 0; offset = 0 - 0.006 = -0.006, so
	// every position-like quantity moves up by 0.006
	test.That(t, feats.Position.At(0, 2), test.ShouldAlmostEqual, 0.01+0.006)
	test.That(t, feats.Position.At(7, 2), test.ShouldAlmostEqual, 1.01+0.006)
	test.That(t, feats.CenterOfMass.At(0, 2), test.ShouldAlmostEqual, 0.01+0.01+0.006)
	footIdx := -1
	for i, name := range w.BodyNames() {
		if name == "foot_L" {
			footIdx = i
		}
	}
	test.That(t, footIdx, test.ShouldNotEqual, -1)
	test.That(t, feats.BodyPositions[0][footIdx].Z, test.ShouldAlmostEqual, 0.006)
}

func TestZOffsetRequiresFootBodies(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewWalker(
		[]walker.Joint{{Name: "hinge", Limit: walker.Limit{Min: -1, Max: 1}}},
		[]fake.Body{{Name: "torso"}},
	)
	rows := [][]float64{make([]float64, 8)}
	rows[0][3] = 1
	traj, err := NewTrajectoryFromRows(rows)
	test.That(t, err, test.ShouldBeNil)

	opts := extractOpts()
	opts.AdjustZOffset = 1.0
	_, err = ExtractFeatures(traj, w, opts, logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestAppendageFallback(t *testing.T) {
	logger := golog.NewTestLogger(t)
	w := fake.NewRatWalker()
	w.AppendageOffsets = nil
	traj, err := NewTrajectoryFromRows(ratRows(3, 0.05))
	test.That(t, err, test.ShouldBeNil)

	feats, err := ExtractFeatures(traj, w, extractOpts(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, feats.Appendages[0], test.ShouldResemble, feats.EndEffectors[0])
}
