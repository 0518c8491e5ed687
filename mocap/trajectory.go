// Package mocap converts joint-angle trajectories fitted to a biomechanical
// model into the kinematic reference features used for imitation training.
package mocap

import (
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/robprom/virtual-rodent/walker"
)

// freejointDoF is the width of the root freejoint portion of a pose vector:
// xyz translation plus a wxyz orientation quaternion.
const freejointDoF = 7

// A Trajectory is an ordered sequence of poses, each laid out as
// [position(3), quaternion(4), joint angles(J)]. All poses share one layout.
type Trajectory struct {
	data *mat.Dense
}

// NewTrajectory wraps an N x (7+J) pose matrix.
func NewTrajectory(data *mat.Dense) (*Trajectory, error) {
	rows, cols := data.Dims()
	if rows == 0 {
		return nil, errEmptyTrajectory
	}
	if cols < freejointDoF+1 {
		return nil, walker.NewPoseWidthError(cols, freejointDoF+1)
	}
	return &Trajectory{data: data}, nil
}

// NewTrajectoryFromRows builds a trajectory from per-frame pose slices.
// Useful for tests and synthetic trajectories.
func NewTrajectoryFromRows(rows [][]float64) (*Trajectory, error) {
	if len(rows) == 0 {
		return nil, errEmptyTrajectory
	}
	data := mat.NewDense(len(rows), len(rows[0]), nil)
	for i, row := range rows {
		data.SetRow(i, row)
	}
	return NewTrajectory(data)
}

// Len returns the number of poses.
func (t *Trajectory) Len() int {
	rows, _ := t.data.Dims()
	return rows
}

// Width returns the pose vector width, 7+J.
func (t *Trajectory) Width() int {
	_, cols := t.data.Dims()
	return cols
}

// NumJoints returns the number of joint angles per pose.
func (t *Trajectory) NumJoints() int {
	return t.Width() - freejointDoF
}

// Pose returns a view of frame i. Mutating the returned slice mutates the
// trajectory.
func (t *Trajectory) Pose(i int) []float64 {
	return t.data.RawRowView(i)
}

// RootQuat returns the root orientation quaternion of frame i.
func (t *Trajectory) RootQuat(i int) quat.Number {
	pose := t.Pose(i)
	return quat.Number{Real: pose[3], Imag: pose[4], Jmag: pose[5], Kmag: pose[6]}
}

// Clone returns a deep copy, decoupling a mutable working trajectory from the
// caller's data.
func (t *Trajectory) Clone() *Trajectory {
	return &Trajectory{data: mat.DenseCopyOf(t.data)}
}

// Window returns a view of frames [start, end). The view shares storage with
// the parent; clone it before mutating.
func (t *Trajectory) Window(start, end int) *Trajectory {
	sub := t.data.Slice(start, end, 0, t.Width()).(*mat.Dense)
	return &Trajectory{data: sub}
}

// PadLast returns a copy of the trajectory with the final pose repeated once,
// so that finite differencing still yields a value for the last real frame.
func (t *Trajectory) PadLast() *Trajectory {
	rows, cols := t.data.Dims()
	padded := mat.NewDense(rows+1, cols, nil)
	padded.Slice(0, rows, 0, cols).(*mat.Dense).Copy(t.data)
	padded.SetRow(rows, t.data.RawRowView(rows-1))
	return &Trajectory{data: padded}
}

// ShiftZ adds dz to the z component of every pose in place.
func (t *Trajectory) ShiftZ(dz float64) {
	rows, _ := t.data.Dims()
	for i := 0; i < rows; i++ {
		t.data.Set(i, 2, t.data.At(i, 2)+dz)
	}
}
