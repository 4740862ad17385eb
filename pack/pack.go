// Package pack derives the build targets of the Alpha GUI from an
// environment snapshot.
//
//	env, _ := pack.LoadEnv(".env")
//	targets, err := pack.Plan(env, pack.Options{ProjectDir: "."})
//
// The returned descriptors are plain data. They can be serialized, inspected,
// or handed to tooling.Builder.
package pack

import (
	"fmt"
	"path/filepath"

	"github.com/sendarcade/alphapack/pack/internal/compose"
	"github.com/sendarcade/alphapack/pack/internal/envcfg"
	"github.com/sendarcade/alphapack/pack/internal/plan"
	"github.com/sendarcade/alphapack/pack/internal/resolution"
	"github.com/sendarcade/alphapack/pack/internal/selection"
	"github.com/sendarcade/alphapack/pack/internal/targets"
)

type (
	Target                = plan.Descriptor
	Env                   = envcfg.Env
	Config                = envcfg.Config
	ConfigValidationError = envcfg.ConfigValidationError
)

// Target names, in the order Plan returns them.
const (
	Playground = targets.Playground
	Library    = targets.Library
)

type Options struct {
	// ProjectDir is the application root. Relative paths are made absolute.
	ProjectDir string
	// AppName overrides the product name passed to templates.
	AppName string
}

// Plan resolves env and derives the target list: the playground, then the
// library when building for production or distribution.
func Plan(env Env, opts Options) ([]Target, error) {
	cfg, err := envcfg.Resolve(env)
	if err != nil {
		return nil, err
	}
	return PlanConfig(cfg, opts)
}

// PlanConfig is Plan for an already resolved configuration.
func PlanConfig(cfg *Config, opts Options) ([]Target, error) {
	dir, err := filepath.Abs(opts.ProjectDir)
	if err != nil {
		return nil, fmt.Errorf("project dir: %w", err)
	}

	base := compose.Base(cfg,
		resolution.NewPolicy(dir),
		selection.NewPolicy(dir),
		compose.Options{ProjectDir: dir, AppName: opts.AppName},
	)
	return targets.Derive(cfg, base, dir)
}

// ResolveConfig validates env without deriving targets.
func ResolveConfig(env Env) (*Config, error) {
	return envcfg.Resolve(env)
}

// LoadEnv returns the process environment layered over the optional
// dotenv file at path. Process values win.
func LoadEnv(path string) (Env, error) {
	file, err := envcfg.LoadDotenv(path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return envcfg.Overlay(file, envcfg.FromOS()), nil
}
