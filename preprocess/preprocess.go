package preprocess

import (
	"fmt"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/robprom/virtual-rodent/dataset"
	"github.com/robprom/virtual-rodent/mocap"
	"github.com/robprom/virtual-rodent/walker"
)

// singleClipName is the clip name every single-window job writes. Parallel
// jobs are disambiguated by their output file names and renamed by Merge.
const singleClipName = "clip_0"

// A Preprocessor extracts reference features from one stac trajectory and
// writes them into a clip dataset. It owns its walker for its lifetime.
type Preprocessor struct {
	cfg      Config
	saveFile string
	walker   walker.Walker
	traj     *mocap.Trajectory
	logger   golog.Logger
}

// New loads the reference trajectory under the "qpos" key of the stac
// container and prepares a preprocessor writing to saveFile.
func New(stacPath, saveFile string, cfg Config, w walker.Walker, logger golog.Logger) (*Preprocessor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	traj, err := loadReference(stacPath)
	if err != nil {
		return nil, err
	}
	if traj.Width() != walker.DoF(w) {
		return nil, errors.Wrapf(
			walker.NewPoseWidthError(traj.Width(), walker.DoF(w)),
			"reference trajectory %s", stacPath,
		)
	}
	return &Preprocessor{
		cfg:      cfg,
		saveFile: saveFile,
		walker:   w,
		traj:     traj,
		logger:   logger,
	}, nil
}

func loadReference(stacPath string) (_ *mocap.Trajectory, err error) {
	stac, err := dataset.Open(stacPath)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = multierr.Combine(err, stac.Close())
	}()
	qpos, err := stac.Matrix("qpos")
	if err != nil {
		return nil, errors.Wrapf(err, "reference trajectory %s", stacPath)
	}
	return mocap.NewTrajectory(qpos)
}

// NumSteps returns the length of the loaded reference trajectory.
func (p *Preprocessor) NumSteps() int {
	return p.traj.Len()
}

// ExtractAll splits the whole trajectory into consecutive clips of
// ClipLength frames, each extended by the lookahead margin and clamped to the
// trajectory end, and writes one named group per clip.
func (p *Preprocessor) ExtractAll() (err error) {
	out, err := dataset.Create(p.saveFile)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, out.Close())
	}()

	numSteps := p.traj.Len()
	lookahead := p.cfg.lookahead()
	for start := 0; start < numSteps; start += p.cfg.ClipLength {
		p.logger.Infof("extracting clip at step %d", start)
		end := minInt(start+p.cfg.ClipLength+lookahead, numSteps)
		feats, err := mocap.ExtractFeatures(p.traj.Window(start, end), p.walker, p.extractOptions(), p.logger)
		if err != nil {
			return errors.Wrapf(err, "clip at step %d", start)
		}
		if err := saveFeatures(out, fmt.Sprintf("clip_%d", start), feats, p.cfg.DT); err != nil {
			return errors.Wrapf(err, "clip at step %d", start)
		}
	}
	return nil
}

// ExtractSingle processes exactly one window starting at StartStep, writing
// it under the fixed single-clip name. Designed for one-clip-per-job fan-out;
// Merge derives the final clip identity from the output file name.
func (p *Preprocessor) ExtractSingle() (err error) {
	out, err := dataset.Create(p.saveFile)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, out.Close())
	}()

	numSteps := p.traj.Len()
	start := p.cfg.StartStep
	if start >= numSteps {
		return errors.Errorf("start_step %d is beyond the trajectory end %d", start, numSteps)
	}
	end := minInt(start+p.cfg.ClipLength+p.cfg.lookahead(), numSteps)
	p.logger.Infof("extracting clip at step %d", start)
	feats, err := mocap.ExtractFeatures(p.traj.Window(start, end), p.walker, p.extractOptions(), p.logger)
	if err != nil {
		return errors.Wrapf(err, "clip at step %d", start)
	}
	return saveFeatures(out, singleClipName, feats, p.cfg.DT)
}

func (p *Preprocessor) extractOptions() mocap.ExtractOptions {
	return mocap.ExtractOptions{
		MaxQVel:       p.cfg.MaxQVel,
		DT:            p.cfg.DT,
		AdjustZOffset: p.cfg.AdjustZOffset,
		Verbatim:      p.cfg.Verbatim,
	}
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
