package mocap

import (
	"gonum.org/v1/gonum/mat"

	"github.com/robprom/virtual-rodent/spatialmath"
)

// ComputeVelocityFromKinematics differentiates a padded pose trajectory of
// length N+1 into an N x (6+J) velocity trajectory: linear root velocity,
// angular root velocity, then per-joint velocities.
//
// Linear and joint velocities are plain forward differences. The angular
// velocity is derived from the relative rotation between consecutive root
// quaternions, converted to a scaled axis angle; a component-wise quaternion
// difference would not respect the double cover of rotations.
func ComputeVelocityFromKinematics(padded *Trajectory, dt float64) *mat.Dense {
	n := padded.Len() - 1
	numJoints := padded.NumJoints()
	qvel := mat.NewDense(n, 6+numJoints, nil)
	for t := 0; t < n; t++ {
		cur := padded.Pose(t)
		next := padded.Pose(t + 1)
		for c := 0; c < 3; c++ {
			qvel.Set(t, c, (next[c]-cur[c])/dt)
		}
		gyro := spatialmath.AngularVelocityBetween(padded.RootQuat(t), padded.RootQuat(t+1), dt)
		qvel.Set(t, 3, gyro.X)
		qvel.Set(t, 4, gyro.Y)
		qvel.Set(t, 5, gyro.Z)
		for j := 0; j < numJoints; j++ {
			qvel.Set(t, 6+j, (next[freejointDoF+j]-cur[freejointDoF+j])/dt)
		}
	}
	return qvel
}
