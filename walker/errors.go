package walker

import "github.com/pkg/errors"

// NewMissingBodyError returns an error for a tracking body the model was
// expected to declare but does not.
func NewMissingBodyError(name string) error {
	return errors.Errorf("walker does not declare a body named %q", name)
}

// NewPoseWidthError returns an error for a generalized position vector whose
// width does not match the model.
func NewPoseWidthError(got, want int) error {
	return errors.Errorf("qpos width mismatch: got %d, walker expects %d", got, want)
}

// NewVelocityWidthError returns an error for a generalized velocity vector
// whose width does not match the model.
func NewVelocityWidthError(got, want int) error {
	return errors.Errorf("qvel width mismatch: got %d, walker expects %d", got, want)
}
