package preprocess

import (
	"os"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"

	"github.com/robprom/virtual-rodent/walker"
)

// JobArgs are the arguments of one batch job: the reference trajectory, the
// output file, and any configuration overrides. Unset options inherit the
// defaults.
type JobArgs struct {
	StacPath string `json:"stac_path"`
	SaveFile string `json:"save_file"`
	Config
}

// LoadBatchArgs reads a batch-args file: a json5 list of per-job argument
// objects.
func LoadBatchArgs(path string) ([]JobArgs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading batch args")
	}
	var jobs []JobArgs
	if err := json5.Unmarshal(data, &jobs); err != nil {
		return nil, errors.Wrapf(err, "parsing batch args %s", path)
	}
	for i := range jobs {
		if jobs[i].StacPath == "" {
			return nil, errors.Errorf("batch entry %d is missing stac_path", i)
		}
		if jobs[i].SaveFile == "" {
			return nil, errors.Errorf("batch entry %d is missing save_file", i)
		}
		jobs[i].applyDefaults()
	}
	return jobs, nil
}

// RunBatch processes every job of a batch-args file in order, one window per
// job. newWalker supplies a fresh walker per job, since a preprocessor owns
// its walker exclusively.
func RunBatch(batchArgsPath string, newWalker func() walker.Walker, logger golog.Logger) error {
	jobs, err := LoadBatchArgs(batchArgsPath)
	if err != nil {
		return err
	}
	for i, job := range jobs {
		logger.Infof("preprocessing batch %d of %d", i, len(jobs))
		p, err := New(job.StacPath, job.SaveFile, job.Config, newWalker(), logger)
		if err != nil {
			return errors.Wrapf(err, "batch entry %d", i)
		}
		if err := p.ExtractSingle(); err != nil {
			return errors.Wrapf(err, "batch entry %d", i)
		}
	}
	return nil
}
