package preprocess

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"github.com/robprom/virtual-rodent/dataset"
)

// mergedStem is the file stem of the consolidated dataset; existing merge
// output in the directory is never treated as a chunk.
const mergedStem = "total"

type mergeChunk struct {
	path string
	id   int
}

// Merge consolidates the per-job chunk files of a directory into a single
// dataset. Chunk files must have purely numeric stems; they are processed in
// ascending numeric order and their single clip group is renamed to
// clip_<stem>. Jobs that never produced a file are simply absent.
func Merge(dir string, logger golog.Logger) (err error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*"+dataset.FileExt))
	if err != nil {
		return errors.Wrap(err, "listing chunk files")
	}
	var chunks []mergeChunk
	for _, path := range paths {
		stem := strings.TrimSuffix(filepath.Base(path), dataset.FileExt)
		if stem == mergedStem {
			continue
		}
		id, err := strconv.Atoi(stem)
		if err != nil {
			return errors.Errorf("chunk file %q does not have a numeric stem", filepath.Base(path))
		}
		chunks = append(chunks, mergeChunk{path: path, id: id})
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].id < chunks[j].id })

	out, err := dataset.Create(filepath.Join(dir, mergedStem+dataset.FileExt))
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, out.Close())
	}()

	for _, chunk := range chunks {
		logger.Infof("merging %s", filepath.Base(chunk.path))
		if err := mergeChunkInto(out, chunk); err != nil {
			return err
		}
	}
	return nil
}

func mergeChunkInto(out *dataset.File, chunk mergeChunk) (err error) {
	in, err := dataset.Open(chunk.path)
	if err != nil {
		return err
	}
	defer func() {
		err = multierr.Combine(err, in.Close())
	}()
	return errors.Wrapf(
		dataset.CopyGroup(out, in, singleClipName, fmt.Sprintf("clip_%d", chunk.id)),
		"merging %s", chunk.path,
	)
}
