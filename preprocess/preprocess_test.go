package preprocess

import (
	"path/filepath"
	"testing"

	"github.com/edaniels/golog"
	"go.viam.com/test"
	"gonum.org/v1/gonum/mat"

	"github.com/robprom/virtual-rodent/dataset"
	"github.com/robprom/virtual-rodent/walker/fake"
)

// writeStac writes a reference container holding an n-frame qpos trajectory
// sized for the fake rat walker.
func writeStac(t *testing.T, dir string, n int) string {
	t.Helper()
	w := fake.NewRatWalker()
	width := 7 + len(w.Joints())
	data := make([]float64, n*width)
	for i := 0; i < n; i++ {
		data[i*width+2] = 0.05
		data[i*width+3] = 1 // identity quaternion
		data[i*width+7] = 0.001 * float64(i)
	}

	path := filepath.Join(dir, "stac"+dataset.FileExt)
	f, err := dataset.Create(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.PutMatrix("qpos", mat.NewDense(n, width, data)), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)
	return path
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.ClipLength = 4
	cfg.RefSteps = []int{1, 2}
	return cfg
}

func TestNewRejectsBadConfig(t *testing.T) {
	logger := golog.NewTestLogger(t)
	dir := t.TempDir()
	stac := writeStac(t, dir, 10)

	cfg := testConfig()
	cfg.DT = 0
	_, err := New(stac, filepath.Join(dir, "out"+dataset.FileExt), cfg, fake.NewRatWalker(), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestNewRejectsWidthMismatch(t *testing.T) {
	logger := golog.NewTestLogger(t)
	dir := t.TempDir()

	path := filepath.Join(dir, "stac"+dataset.FileExt)
	f, err := dataset.Create(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.PutMatrix("qpos", mat.NewDense(3, 9, nil)), test.ShouldBeNil)
	test.That(t, f.Close(), test.ShouldBeNil)

	_, err = New(path, filepath.Join(dir, "out"+dataset.FileExt), testConfig(), fake.NewRatWalker(), logger)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestExtractAllChunking(t *testing.T) {
	logger := golog.NewTestLogger(t)
	dir := t.TempDir()
	stac := writeStac(t, dir, 10)
	out := filepath.Join(dir, "out"+dataset.FileExt)

	// clip_length=4 with ref_steps [1,2] means 3 frames of lookahead
	p, err := New(stac, out, testConfig(), fake.NewRatWalker(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.NumSteps(), test.ShouldEqual, 10)
	test.That(t, p.ExtractAll(), test.ShouldBeNil)

	f, err := dataset.Open(out)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, f.Close(), test.ShouldBeNil)
	}()

	test.That(t, f.Groups(), test.ShouldResemble, []string{"clip_0", "clip_4", "clip_8"})
	for clip, wantSteps := range map[string]int{"clip_0": 7, "clip_4": 6, "clip_8": 2} {
		numSteps, err := f.IntAttr(clip, "num_steps")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, numSteps, test.ShouldEqual, wantSteps)
		dt, err := f.FloatAttr(clip, "dt")
		test.That(t, err, test.ShouldBeNil)
		test.That(t, dt, test.ShouldAlmostEqual, 0.02)

		pos, err := f.Matrix(clip + "/walkers/walker_0/position")
		test.That(t, err, test.ShouldBeNil)
		rows, cols := pos.Dims()
		test.That(t, rows, test.ShouldEqual, 3)
		test.That(t, cols, test.ShouldEqual, wantSteps)
	}
}

func TestExtractSingle(t *testing.T) {
	logger := golog.NewTestLogger(t)
	dir := t.TempDir()
	stac := writeStac(t, dir, 10)
	out := filepath.Join(dir, "4"+dataset.FileExt)

	cfg := testConfig()
	cfg.StartStep = 4
	p, err := New(stac, out, cfg, fake.NewRatWalker(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.ExtractSingle(), test.ShouldBeNil)

	f, err := dataset.Open(out)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, f.Close(), test.ShouldBeNil)
	}()

	// single-window jobs always write clip_0 regardless of the start step
	test.That(t, f.Groups(), test.ShouldResemble, []string{"clip_0"})
	numSteps, err := f.IntAttr("clip_0", "num_steps")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, numSteps, test.ShouldEqual, 6)
}

func TestExtractSingleStartBeyondEnd(t *testing.T) {
	logger := golog.NewTestLogger(t)
	dir := t.TempDir()
	stac := writeStac(t, dir, 10)

	cfg := testConfig()
	cfg.StartStep = 10
	p, err := New(stac, filepath.Join(dir, "out"+dataset.FileExt), cfg, fake.NewRatWalker(), logger)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.ExtractSingle(), test.ShouldNotBeNil)
}
