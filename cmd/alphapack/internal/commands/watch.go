package commands

import (
	"context"
	"errors"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/sendarcade/alphapack/pack/tooling"
)

type WatchCmd struct {
	Debounce time.Duration `help:"Quiet period before a rebuild." default:"100ms"`
}

func (w *WatchCmd) Run(ctx context.Context, globals *Globals) error {
	log := globals.logger()

	dir, targets, err := globals.plan()
	if err != nil {
		return err
	}
	builder := tooling.NewBuilder(dir, log)
	if _, err := builder.Build(ctx, targets); err != nil {
		log.Error("build failed", "error", err)
		log.Info("Waiting for file changes to retry build...")
	}

	outDirs := make([]string, 0, len(targets))
	for _, t := range targets {
		outDirs = append(outDirs, t.Output.Path)
	}
	watcher, err := tooling.NewWatcher(dir, outDirs, log)
	if err != nil {
		return err
	}
	defer watcher.Close()
	if err := watcher.AddDefaultDirs(); err != nil {
		return err
	}
	log.Info("watching for changes", "dirs", tooling.WatchDirs)

	err = watcher.Run(ctx, w.Debounce, func(events []fsnotify.Event) {
		log.Info("change detected", "files", len(events), "first", events[0].Name)

		_, targets, err := globals.plan()
		if err != nil {
			log.Error("plan failed", "error", err)
			return
		}
		if _, err := builder.Build(ctx, targets); err != nil {
			log.Error("build failed", "error", err)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
