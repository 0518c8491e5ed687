package preprocess

import (
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"

	"github.com/robprom/virtual-rodent/dataset"
	"github.com/robprom/virtual-rodent/mocap"
)

// saveFeatures writes one clip group: frame-count and time-step attributes,
// the walker's feature arrays under walkers/walker_0 and an empty props
// group. Arrays are stored with time as the trailing axis: T x E x C
// quantities flatten to (E*C) x T, T x C quantities transpose to C x T.
func saveFeatures(out *dataset.File, clipName string, feats *mocap.Features, dt float64) error {
	clip, err := out.CreateGroup(clipName)
	if err != nil {
		return err
	}
	clip.SetIntAttr("num_steps", feats.Len())
	clip.SetFloatAttr("dt", dt)
	if _, err := out.CreateGroup(clipName + "/walkers"); err != nil {
		return err
	}
	if _, err := out.CreateGroup(clipName + "/props"); err != nil {
		return err
	}
	walkerGroup, err := out.CreateGroup(clipName + "/walkers/walker_0")
	if err != nil {
		return err
	}

	planar := map[string]*mat.Dense{
		"position":         feats.Position,
		"quaternion":       feats.Quaternion,
		"joints":           feats.Joints,
		"center_of_mass":   feats.CenterOfMass,
		"velocity":         feats.Velocity,
		"angular_velocity": feats.AngularVelocity,
		"joints_velocity":  feats.JointsVelocity,
	}
	for name, m := range planar {
		if err := walkerGroup.PutMatrix(name, timeTrailing(m)); err != nil {
			return err
		}
	}

	if err := putVectorFrames(walkerGroup, "end_effectors", feats.EndEffectors); err != nil {
		return err
	}
	if err := putVectorFrames(walkerGroup, "appendages", feats.Appendages); err != nil {
		return err
	}
	if err := putVectorFrames(walkerGroup, "body_positions", feats.BodyPositions); err != nil {
		return err
	}
	if err := putQuatFrames(walkerGroup, "body_quaternions", feats.BodyQuaternions); err != nil {
		return err
	}

	// Multi-entity placeholders, empty in current scope.
	if err := walkerGroup.PutVector("scaling", nil); err != nil {
		return err
	}
	return walkerGroup.PutVector("markers", nil)
}

func timeTrailing(m *mat.Dense) *mat.Dense {
	return mat.DenseCopyOf(m.T())
}

func putVectorFrames(g *dataset.Group, name string, frames [][]r3.Vector) error {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return g.PutVector(name, nil)
	}
	numFrames := len(frames)
	numEntities := len(frames[0])
	flat := mat.NewDense(numEntities*3, numFrames, nil)
	for t, frame := range frames {
		for e, v := range frame {
			flat.Set(e*3+0, t, v.X)
			flat.Set(e*3+1, t, v.Y)
			flat.Set(e*3+2, t, v.Z)
		}
	}
	return g.PutMatrix(name, flat)
}

func putQuatFrames(g *dataset.Group, name string, frames [][]quat.Number) error {
	if len(frames) == 0 || len(frames[0]) == 0 {
		return g.PutVector(name, nil)
	}
	numFrames := len(frames)
	numEntities := len(frames[0])
	flat := mat.NewDense(numEntities*4, numFrames, nil)
	for t, frame := range frames {
		for e, q := range frame {
			flat.Set(e*4+0, t, q.Real)
			flat.Set(e*4+1, t, q.Imag)
			flat.Set(e*4+2, t, q.Jmag)
			flat.Set(e*4+3, t, q.Kmag)
		}
	}
	return g.PutMatrix(name, flat)
}
