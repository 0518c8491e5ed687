// Package main preprocesses a batch of single-window jobs described by a
// batch-args file, one output file per job.
package main

import (
	"context"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/robprom/virtual-rodent/preprocess"
	"github.com/robprom/virtual-rodent/walker"
	"github.com/robprom/virtual-rodent/walker/fake"
)

var logger = golog.NewDevelopmentLogger("batch")

// Arguments for the command.
type Arguments struct {
	BatchArgsPath string `flag:"0,required,usage=path to the json5 list of per-job arguments"`
}

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	newWalker := func() walker.Walker { return fake.NewRatWalker() }
	return preprocess.RunBatch(argsParsed.BatchArgsPath, newWalker, logger)
}
