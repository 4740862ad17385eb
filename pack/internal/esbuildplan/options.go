// Package esbuildplan translates a target descriptor into esbuild build
// options. Descriptor features esbuild has no direct knob for are carried
// by the plugins in this package.
package esbuildplan

import (
	"errors"
	"fmt"
	"maps"
	"path/filepath"
	"slices"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/sendarcade/alphapack/pack/internal/plan"
	"github.com/sendarcade/alphapack/pack/internal/selection"
)

// Input is everything needed to build one target.
type Input struct {
	Target plan.Descriptor
	// ProjectDir is the absolute project root.
	ProjectDir string
	Selection  *selection.Policy
}

// Language level and engines used for syntax lowering and CSS prefixing.
var (
	Target  = esbuild.ES2017
	Engines = []esbuild.Engine{
		{Name: esbuild.EngineChrome, Version: "70"},
		{Name: esbuild.EngineFirefox, Version: "68"},
		{Name: esbuild.EngineSafari, Version: "12"},
		{Name: esbuild.EngineEdge, Version: "79"},
	}
)

const umd = "umd"

// Library targets exposed as a single global variable.
var globalTargets = []string{"var", "window", "self", "global", "this"}

// Options returns the build options for in.Target.
func Options(in Input) (esbuild.BuildOptions, error) {
	d := in.Target
	if in.ProjectDir == "" || !filepath.IsAbs(in.ProjectDir) {
		return esbuild.BuildOptions{}, fmt.Errorf("esbuildplan: project dir must be absolute, got %q", in.ProjectDir)
	}
	if in.Selection == nil {
		return esbuild.BuildOptions{}, errors.New("esbuildplan: nil selection policy")
	}
	if len(d.Entry) == 0 {
		return esbuild.BuildOptions{}, fmt.Errorf("esbuildplan: target %q has no entries", d.Name)
	}
	if d.Output.Path == "" {
		return esbuild.BuildOptions{}, fmt.Errorf("esbuildplan: target %q has no output path", d.Name)
	}

	production := d.Mode == "production"
	opts := esbuild.BuildOptions{
		EntryPointsAdvanced: entryPoints(d.Entry, in.ProjectDir),
		AbsWorkingDir:       in.ProjectDir,
		Outdir:              d.Output.Path,
		EntryNames:          namePattern(d.Output.Filename),
		ChunkNames:          namePattern(d.Output.ChunkFilename),
		PublicPath:          d.Output.PublicPath,
		Bundle:              true,
		Write:               true,
		Metafile:            true,
		Platform:            esbuild.PlatformBrowser,
		Target:              Target,
		Engines:             Engines,
		Sourcemap:           SourceMap(d.SourceMap),
		MinifyWhitespace:    production,
		MinifyIdentifiers:   production,
		MinifySyntax:        production,
		Define:              maps.Clone(d.Define),
		MainFields:          slices.Clone(d.Resolve.MainFields),
		PreserveSymlinks:    !d.Resolve.Symlinks,
		Loader: map[string]esbuild.Loader{
			".js":  esbuild.LoaderJSX,
			".jsx": esbuild.LoaderJSX,
		},
		LogLevel: esbuild.LogLevelSilent,
	}

	switch {
	case d.Output.LibraryTarget == umd:
		banner, footer, err := umdWrapper(d.Output.Library, d.Externals)
		if err != nil {
			return esbuild.BuildOptions{}, fmt.Errorf("target %q: %w", d.Name, err)
		}
		opts.Format = esbuild.FormatCommonJS
		opts.Banner = map[string]string{"js": banner}
		opts.Footer = map[string]string{"js": footer}
	case slices.Contains(globalTargets, d.Output.LibraryTarget):
		opts.Format = esbuild.FormatIIFE
		opts.GlobalName = d.Output.Library
	case d.Optimization != nil && d.Optimization.SplitChunks != nil:
		opts.Format = esbuild.FormatESModule
		opts.Splitting = true
	default:
		opts.Format = esbuild.FormatIIFE
	}

	if opts.Format != esbuild.FormatIIFE {
		opts.External = slices.Sorted(maps.Keys(d.Externals))
	}

	plugins := []esbuild.Plugin{
		aliasPlugin(d.Resolve.Alias, in.ProjectDir),
		emptyModulesPlugin(d.Resolve.EmptyModules),
		selectionPlugin(in.Selection),
	}
	if len(d.Provide) > 0 {
		plugins = append(plugins, providePlugin(d.Provide, in.ProjectDir))
		opts.Inject = []string{provideModule}
	}
	if opts.Format == esbuild.FormatIIFE && len(d.Externals) > 0 {
		plugins = append(plugins, externalGlobalsPlugin(d.Externals))
	}
	for _, rule := range d.ModuleRules {
		switch rule.Loader {
		case plan.LoaderStyle:
			if rule.Style != nil {
				plugins = append(plugins, stylePlugin(rule))
			}
		case plan.LoaderAsset:
			if rule.Asset != nil {
				plugins = append(plugins, assetPlugin(rule, d.Output))
				for _, ext := range rule.Test {
					opts.Loader[ext] = esbuild.LoaderFile
				}
			}
		}
	}
	opts.Plugins = plugins

	return opts, nil
}

func entryPoints(entry map[string]string, projectDir string) []esbuild.EntryPoint {
	names := slices.Sorted(maps.Keys(entry))
	out := make([]esbuild.EntryPoint, 0, len(names))
	for _, name := range names {
		src := entry[name]
		if !filepath.IsAbs(src) {
			src = filepath.Join(projectDir, filepath.FromSlash(src))
		}
		out = append(out, esbuild.EntryPoint{InputPath: src, OutputPath: name})
	}
	return out
}

// namePattern turns "js/[name].[contenthash].js" into the esbuild template
// "js/[name].[hash]". esbuild appends the extension itself.
func namePattern(filename string) string {
	if filename == "" {
		return ""
	}
	p := strings.TrimSuffix(filename, ".js")
	p = strings.ReplaceAll(p, "[contenthash]", "[hash]")
	p = strings.ReplaceAll(p, "[chunkhash]", "[hash]")
	return p
}

// SourceMap maps a devtool policy name onto esbuild's source map modes.
func SourceMap(policy string) esbuild.SourceMap {
	p := strings.ToLower(strings.TrimSpace(policy))
	switch {
	case p == "" || p == "false" || p == "none":
		return esbuild.SourceMapNone
	case strings.HasPrefix(p, "eval") || strings.Contains(p, "inline"):
		return esbuild.SourceMapInline
	case strings.Contains(p, "hidden") || strings.Contains(p, "nosources"):
		return esbuild.SourceMapExternal
	default:
		return esbuild.SourceMapLinked
	}
}
