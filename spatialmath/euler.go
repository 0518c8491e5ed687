package spatialmath

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"gonum.org/v1/gonum/num/quat"
)

// EulerAngles are the euler angles of an orientation under the intrinsic ZYX
// (yaw, then pitch, then roll) convention, in radians.
type EulerAngles struct {
	Roll  float64 `json:"roll"`
	Pitch float64 `json:"pitch"`
	Yaw   float64 `json:"yaw"`
}

// NewEulerAngles creates an empty EulerAngles struct.
func NewEulerAngles() *EulerAngles {
	return &EulerAngles{Roll: 0, Pitch: 0, Yaw: 0}
}

// QuatToEulerAngles converts a rotation unit quaternion to ZYX euler angles.
// See the following wikipedia page for the formulas used here:
// https://en.wikipedia.org/wiki/Conversion_between_quaternions_and_Euler_angles#Quaternion_to_Euler_angles_conversion
func QuatToEulerAngles(q quat.Number) *EulerAngles {
	w := q.Real
	x := q.Imag
	y := q.Jmag
	z := q.Kmag

	sinPitch := 2 * (w*y - x*z)
	// Clamp for the gimbal-lock case, where floating point error can push
	// the argument of asin just outside [-1, 1].
	if sinPitch > 1 {
		sinPitch = 1
	}
	if sinPitch < -1 {
		sinPitch = -1
	}

	return &EulerAngles{
		Roll:  math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y)),
		Pitch: math.Asin(sinPitch),
		Yaw:   math.Atan2(2*(w*z+y*x), 1-2*(y*y+z*z)),
	}
}

// Quaternion reconstructs the rotation quaternion from the euler angles.
func (ea *EulerAngles) Quaternion() quat.Number {
	mq := mgl64.AnglesToQuat(ea.Yaw, ea.Pitch, ea.Roll, mgl64.ZYX)
	return quat.Number{Real: mq.W, Imag: mq.X(), Jmag: mq.Y(), Kmag: mq.Z()}
}
