// Package main merges the per-job chunk files of a directory into one
// consolidated clip dataset.
package main

import (
	"context"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/robprom/virtual-rodent/preprocess"
)

var logger = golog.NewDevelopmentLogger("merge")

// Arguments for the command.
type Arguments struct {
	DataDir string `flag:"0,required,usage=directory containing the per-job chunk files"`
}

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	return preprocess.Merge(argsParsed.DataDir, logger)
}
