package mocap

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"

	"github.com/robprom/virtual-rodent/spatialmath"
	"github.com/robprom/virtual-rodent/walker"
)

// ApplyOptions modify how a pose is pushed into a walker.
type ApplyOptions struct {
	// Offset is added to the root position before applying.
	Offset r3.Vector
	// NullXYR zeroes the root x/y translation and the yaw component of the
	// root orientation, leaving pitch and roll intact. Used to derive
	// orientation-invariant features.
	NullXYR bool
	// PositionShift and RotationShift apply an additional rigid shift to the
	// whole pose after it is set, rotating velocities along with it. Used to
	// align multiple walkers or clips into a shared reference frame.
	PositionShift *r3.Vector
	RotationShift *quat.Number
}

// SetWalker sets the walker's freejoint and joint angles and velocities from
// a generalized position and velocity vector. The caller's qpos is not
// mutated; the walker's forward kinematics reflect the applied pose once
// SetWalker returns.
func SetWalker(w walker.Walker, qpos, qvel []float64, opts *ApplyOptions) error {
	if opts == nil {
		opts = &ApplyOptions{}
	}
	pose := append([]float64(nil), qpos...)
	if opts.NullXYR {
		pose[0], pose[1] = 0, 0
		ea := spatialmath.QuatToEulerAngles(quat.Number{Real: pose[3], Imag: pose[4], Jmag: pose[5], Kmag: pose[6]})
		ea.Yaw = 0
		q := ea.Quaternion()
		pose[3], pose[4], pose[5], pose[6] = q.Real, q.Imag, q.Jmag, q.Kmag
	}
	pose[0] += opts.Offset.X
	pose[1] += opts.Offset.Y
	pose[2] += opts.Offset.Z
	if err := w.SetPose(pose, qvel); err != nil {
		return err
	}
	if opts.PositionShift != nil || opts.RotationShift != nil {
		return w.ShiftPose(opts.PositionShift, opts.RotationShift, true)
	}
	return nil
}
