// Package main preprocesses a single stac reference file into a clip dataset.
package main

import (
	"context"

	"github.com/edaniels/golog"
	"go.viam.com/utils"

	"github.com/robprom/virtual-rodent/preprocess"
	"github.com/robprom/virtual-rodent/walker/fake"
)

var logger = golog.NewDevelopmentLogger("extract")

// Arguments for the command.
type Arguments struct {
	StacPath string `flag:"0,required,usage=path to stac data containing the reference trajectory"`
	SaveFile string `flag:"1,required,usage=path to the clip dataset to write"`
}

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	var argsParsed Arguments
	if err := utils.ParseFlags(args, &argsParsed); err != nil {
		return err
	}
	p, err := preprocess.New(
		argsParsed.StacPath,
		argsParsed.SaveFile,
		preprocess.DefaultConfig(),
		fake.NewRatWalker(),
		logger,
	)
	if err != nil {
		return err
	}
	return p.ExtractAll()
}
