package mocap

import "github.com/pkg/errors"

var errEmptyTrajectory = errors.New("trajectory has no poses")
