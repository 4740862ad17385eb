package commands

import (
	"context"

	"github.com/sendarcade/alphapack/pack/tooling"
)

type BuildCmd struct {
	Target string `help:"Only build the named target." default:""`
}

func (b *BuildCmd) Run(ctx context.Context, globals *Globals) error {
	dir, targets, err := globals.plan()
	if err != nil {
		return err
	}
	if b.Target != "" {
		if targets, err = selectTarget(targets, b.Target); err != nil {
			return err
		}
	}

	_, err = tooling.NewBuilder(dir, globals.logger()).Build(ctx, targets)
	return err
}
