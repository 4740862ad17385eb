// Package tooling runs derived targets: bundling through esbuild, asset
// copying, and rebuilding on file changes.
package tooling

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"time"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"golang.org/x/sync/errgroup"

	"github.com/sendarcade/alphapack/kit/colorlog"
	"github.com/sendarcade/alphapack/kit/esbuildutil"
	"github.com/sendarcade/alphapack/pack/internal/copier"
	"github.com/sendarcade/alphapack/pack/internal/esbuildplan"
	"github.com/sendarcade/alphapack/pack/internal/plan"
	"github.com/sendarcade/alphapack/pack/internal/selection"
)

// Builder builds targets for one project. It is safe to reuse across builds.
type Builder struct {
	projectDir string
	log        *slog.Logger
	selection  *selection.Policy
}

// Report describes one finished target.
type Report struct {
	Target   string
	Outputs  []string
	Inputs   int
	Copy     copier.Result
	Duration time.Duration
}

// NewBuilder creates a Builder. projectDir must be absolute.
func NewBuilder(projectDir string, log *slog.Logger) *Builder {
	if log == nil {
		log = colorlog.New("alphapack")
	}
	return &Builder{
		projectDir: projectDir,
		log:        log,
		selection:  selection.NewPolicy(projectDir),
	}
}

// Build builds all targets concurrently and returns their reports in
// target order.
func (b *Builder) Build(ctx context.Context, targets []plan.Descriptor) ([]Report, error) {
	start := time.Now()
	b.log.Info("START build", "targets", len(targets))

	reports := make([]Report, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range targets {
		g.Go(func() error {
			r, err := b.buildTarget(gctx, d)
			if err != nil {
				return fmt.Errorf("target %s: %w", d.Name, err)
			}
			reports[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	b.log.Info("DONE build", "total", time.Since(start))
	return reports, nil
}

func (b *Builder) buildTarget(ctx context.Context, d plan.Descriptor) (Report, error) {
	start := time.Now()
	level := slog.LevelDebug
	if d.Progress {
		level = slog.LevelInfo
	}
	log := b.log.With("target", d.Name)

	if err := ctx.Err(); err != nil {
		return Report{}, err
	}

	opts, err := esbuildplan.Options(esbuildplan.Input{
		Target:     d,
		ProjectDir: b.projectDir,
		Selection:  b.selection,
	})
	if err != nil {
		return Report{}, err
	}

	log.Log(ctx, level, "bundling", "entries", len(d.Entry), "out", d.Output.Path)
	result := esbuild.Build(opts)
	for _, w := range result.Warnings {
		log.Debug("esbuild warning", "msg", esbuildutil.FormatMessage(w))
	}
	if err := esbuildutil.CollectErrors(result); err != nil {
		return Report{}, err
	}

	var metafile esbuildutil.ESBuildMetafileSubset
	if err := json.Unmarshal([]byte(result.Metafile), &metafile); err != nil {
		return Report{}, fmt.Errorf("parse metafile: %w", err)
	}
	outputs := make([]string, 0, len(metafile.Outputs))
	for p := range metafile.Outputs {
		outputs = append(outputs, p)
	}
	slices.Sort(outputs)

	log.Log(ctx, level, "copying assets", "rules", len(d.AssetCopyRules))
	copied, err := copier.Run(ctx, d.AssetCopyRules, b.projectDir, d.Output.Path, log)
	if err != nil {
		return Report{}, err
	}

	r := Report{
		Target:   d.Name,
		Outputs:  outputs,
		Inputs:   len(metafile.Inputs),
		Copy:     copied,
		Duration: time.Since(start),
	}
	log.Log(ctx, level, "DONE target",
		"outputs", len(r.Outputs),
		"inputs", r.Inputs,
		"copied", copied.Copied,
		"duration", r.Duration,
	)
	return r, nil
}
