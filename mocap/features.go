package mocap

import (
	"math"
	"sort"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/robprom/virtual-rodent/walker"
)

const (
	footLeftBody  = "foot_L"
	footRightBody = "foot_R"

	// footGeomThickness compensates for the thickness of the foot geometry
	// when aligning a clip with the ground plane.
	footGeomThickness = 0.006

	// lowestFeetSamples is how many of the lowest recorded foot heights are
	// averaged to estimate the ground offset.
	lowestFeetSamples = 10

	// clipReportThreshold is the deviation, in radians or rad/s, above which a
	// clipped value is reported when running verbatim.
	clipReportThreshold = 0.1
)

// ClipKind distinguishes which quantity a clipping diagnostic refers to.
type ClipKind string

// The two clipped quantities.
const (
	ClipAngle    ClipKind = "angle"
	ClipVelocity ClipKind = "velocity"
)

// A ClipEvent records one out-of-range value that was clipped during feature
// extraction. Clipping is routine and never fatal; events exist so verbatim
// runs can audit how far the reference deviated from the model's limits.
type ClipEvent struct {
	Frame int
	Joint string
	Kind  ClipKind
	From  float64
	To    float64
}

// ExtractOptions configure a feature extraction pass.
type ExtractOptions struct {
	// MaxQVel clips joint velocities to [-MaxQVel, MaxQVel].
	MaxQVel float64
	// DT is the time step between poses, in seconds.
	DT float64
	// AdjustZOffset, when nonzero, enables the ground-alignment heuristic.
	AdjustZOffset float64
	// Verbatim records and logs a diagnostic for every clipped value whose
	// deviation exceeds the report threshold.
	Verbatim bool
	// NullXYR, PositionShift and RotationShift are forwarded to SetWalker.
	NullXYR       bool
	PositionShift *r3.Vector
	RotationShift *quat.Number
}

// Features holds the derived quantities of one clip, one row (or one entry of
// the outer slice) per frame. Every quantity spans the same number of frames.
type Features struct {
	Position        *mat.Dense      // T x 3
	Quaternion      *mat.Dense      // T x 4
	Joints          *mat.Dense      // T x J
	CenterOfMass    *mat.Dense      // T x 3
	EndEffectors    [][]r3.Vector   // T x E
	Appendages      [][]r3.Vector   // T x A
	BodyPositions   [][]r3.Vector   // T x B
	BodyQuaternions [][]quat.Number // T x B
	Velocity        *mat.Dense      // T x 3
	AngularVelocity *mat.Dense      // T x 3
	JointsVelocity  *mat.Dense      // T x J

	// Events are the clipping diagnostics recorded during extraction
	// (verbatim runs only).
	Events []ClipEvent
}

// Len returns the number of frames.
func (f *Features) Len() int {
	rows, _ := f.CenterOfMass.Dims()
	return rows
}

// ExtractFeatures replays a trajectory through the walker frame by frame and
// accumulates the derived kinematic quantities. The input trajectory is never
// mutated; joint angles are clipped to the walker's limits on a working copy
// before any feature is derived.
func ExtractFeatures(traj *Trajectory, w walker.Walker, opts ExtractOptions, logger golog.Logger) (*Features, error) {
	if traj.Width() != walker.DoF(w) {
		return nil, errors.Wrap(
			walker.NewPoseWidthError(traj.Width(), walker.DoF(w)),
			"trajectory does not match walker",
		)
	}

	bodyNames := w.BodyNames()
	footLeft, footRight := -1, -1
	if opts.AdjustZOffset != 0 {
		for i, name := range bodyNames {
			switch name {
			case footLeftBody:
				footLeft = i
			case footRightBody:
				footRight = i
			}
		}
		if footLeft < 0 {
			return nil, errors.Wrap(walker.NewMissingBodyError(footLeftBody), "z-offset adjustment")
		}
		if footRight < 0 {
			return nil, errors.Wrap(walker.NewMissingBodyError(footRightBody), "z-offset adjustment")
		}
	}

	work := traj.Clone()
	events := clipJointAngles(work, w.Joints(), opts.Verbatim)
	for _, ev := range events {
		logClipEvent(logger, ev)
	}

	// Padding for the velocity corner case: the last real frame differences
	// against a repeat of itself rather than reading past the end.
	padded := work.PadLast()
	numFrames := padded.Len() - 1
	numJoints := padded.NumJoints()
	zeroQvel := make([]float64, 6+numJoints)

	feats := &Features{
		Position:        mat.NewDense(numFrames, 3, nil),
		Quaternion:      mat.NewDense(numFrames, 4, nil),
		Joints:          mat.NewDense(numFrames, numJoints, nil),
		CenterOfMass:    mat.NewDense(numFrames, 3, nil),
		EndEffectors:    make([][]r3.Vector, numFrames),
		Appendages:      make([][]r3.Vector, numFrames),
		BodyPositions:   make([][]r3.Vector, numFrames),
		BodyQuaternions: make([][]quat.Number, numFrames),
	}
	applyOpts := &ApplyOptions{
		NullXYR:       opts.NullXYR,
		PositionShift: opts.PositionShift,
		RotationShift: opts.RotationShift,
	}

	var feetHeight []float64
	for i := 0; i < numFrames; i++ {
		if err := SetWalker(w, padded.Pose(i), zeroQvel, applyOpts); err != nil {
			return nil, errors.Wrapf(err, "applying frame %d", i)
		}
		rootPos := w.RootPosition()
		feats.Position.SetRow(i, []float64{rootPos.X, rootPos.Y, rootPos.Z})
		rootQuat := w.RootOrientation()
		feats.Quaternion.SetRow(i, []float64{rootQuat.Real, rootQuat.Imag, rootQuat.Jmag, rootQuat.Kmag})
		feats.Joints.SetRow(i, w.JointAngles())
		com := w.CenterOfMass()
		feats.CenterOfMass.SetRow(i, []float64{com.X, com.Y, com.Z})
		feats.EndEffectors[i] = w.EndEffectors()
		if appendages, ok := w.Appendages(); ok {
			feats.Appendages[i] = appendages
		} else {
			feats.Appendages[i] = append([]r3.Vector{}, feats.EndEffectors[i]...)
		}
		feats.BodyPositions[i] = w.BodyPositions()
		feats.BodyQuaternions[i] = w.BodyOrientations()
		if opts.AdjustZOffset != 0 {
			feetHeight = append(feetHeight, feats.BodyPositions[i][footLeft].Z, feats.BodyPositions[i][footRight].Z)
		}
	}

	// Offset the trajectory and every position-like feature vertically so the
	// clip is aligned with the floor. The heuristic averages the lowest
	// recorded foot heights and compensates for the foot geometry thickness.
	zOffset := 0.0
	if opts.AdjustZOffset != 0 {
		sort.Float64s(feetHeight)
		lowest := feetHeight
		if len(lowest) > lowestFeetSamples {
			lowest = lowest[:lowestFeetSamples]
		}
		sum := 0.0
		for _, h := range lowest {
			sum += h
		}
		zOffset = sum/float64(len(lowest)) - footGeomThickness
	}
	padded.ShiftZ(-zOffset)
	shiftColumn(feats.Position, 2, -zOffset)
	shiftColumn(feats.CenterOfMass, 2, -zOffset)
	for _, frame := range feats.BodyPositions {
		for b := range frame {
			frame[b].Z -= zOffset
		}
	}

	qvel := ComputeVelocityFromKinematics(padded, opts.DT)
	velEvents := clipJointVelocities(qvel, w.Joints(), opts.MaxQVel, opts.Verbatim)
	for _, ev := range velEvents {
		logClipEvent(logger, ev)
	}
	events = append(events, velEvents...)

	feats.Velocity = extractColumns(qvel, 0, 3)
	feats.AngularVelocity = extractColumns(qvel, 3, 6)
	feats.JointsVelocity = extractColumns(qvel, 6, 6+numJoints)
	feats.Events = events
	return feats, nil
}

// clipJointAngles clips the joint-angle columns of the working trajectory to
// the declared per-joint range, in place. With verbatim set, every clipped
// value deviating by at least the report threshold yields an event.
func clipJointAngles(t *Trajectory, joints []walker.Joint, verbatim bool) []ClipEvent {
	var events []ClipEvent
	for i := 0; i < t.Len(); i++ {
		pose := t.Pose(i)
		for j, joint := range joints {
			angle := pose[freejointDoF+j]
			clipped := clamp(angle, joint.Limit.Min, joint.Limit.Max)
			if clipped == angle {
				continue
			}
			pose[freejointDoF+j] = clipped
			if verbatim && math.Abs(angle-clipped) >= clipReportThreshold {
				events = append(events, ClipEvent{Frame: i, Joint: joint.Name, Kind: ClipAngle, From: angle, To: clipped})
			}
		}
	}
	return events
}

// clipJointVelocities clips the joint-velocity columns of a qvel trajectory to
// [-maxQVel, maxQVel], in place, with the same diagnostic policy as the angle
// pass.
func clipJointVelocities(qvel *mat.Dense, joints []walker.Joint, maxQVel float64, verbatim bool) []ClipEvent {
	var events []ClipEvent
	rows, _ := qvel.Dims()
	for i := 0; i < rows; i++ {
		for j, joint := range joints {
			vel := qvel.At(i, 6+j)
			clipped := clamp(vel, -maxQVel, maxQVel)
			if clipped == vel {
				continue
			}
			qvel.Set(i, 6+j, clipped)
			if verbatim && math.Abs(vel-clipped) >= clipReportThreshold {
				events = append(events, ClipEvent{Frame: i, Joint: joint.Name, Kind: ClipVelocity, From: vel, To: clipped})
			}
		}
	}
	return events
}

func logClipEvent(logger golog.Logger, ev ClipEvent) {
	logger.Warnf("step %d %s of %s clipped from %g to %g", ev.Frame, ev.Kind, ev.Joint, ev.From, ev.To)
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func shiftColumn(m *mat.Dense, col int, delta float64) {
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		m.Set(i, col, m.At(i, col)+delta)
	}
}

func extractColumns(m *mat.Dense, from, to int) *mat.Dense {
	rows, _ := m.Dims()
	return mat.DenseCopyOf(m.Slice(0, rows, from, to))
}
