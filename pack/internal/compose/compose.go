// Package compose builds the base descriptor every target derives from.
package compose

import (
	"fmt"
	"maps"
	"path/filepath"

	"github.com/sendarcade/alphapack/internal/brand"
	"github.com/sendarcade/alphapack/pack/internal/envcfg"
	"github.com/sendarcade/alphapack/pack/internal/plan"
	"github.com/sendarcade/alphapack/pack/internal/resolution"
	"github.com/sendarcade/alphapack/pack/internal/selection"
)

// LibraryName is the global the bundles export under.
const LibraryName = "GUI"

// Style chain
const (
	ProcessorImport     = "postcss-import"
	ProcessorSimpleVars = "postcss-simple-vars"
	ProcessorPrefixer   = "autoprefixer"
	LocalIdentName      = "[name]_[local]_[hash:base64:5]"
)

// Options carries inputs that do not come from the environment.
type Options struct {
	// ProjectDir is the absolute path of the application source tree.
	ProjectDir string
	// AppName defaults to brand.AppName.
	AppName string
}

// Base merges the environment, resolution policy and transform selection
// policy into the shared base descriptor.
func Base(cfg *envcfg.Config, res resolution.Policy, sel *selection.Policy, opts Options) plan.Descriptor {
	appName := opts.AppName
	if appName == "" {
		appName = brand.AppName
	}

	rules := sel.Rules()
	rules = append(rules, StyleRule())

	provide := make(map[string]plan.ProvidedName, len(res.Provide))
	for name, p := range res.Provide {
		provide[name] = plan.ProvidedName{Module: p.Module, Export: p.Export}
	}

	return plan.Descriptor{
		Mode: string(cfg.Mode),
		Output: plan.Output{
			Library:       LibraryName,
			Filename:      Filename(cfg),
			ChunkFilename: Filename(cfg),
			PublicPath:    cfg.RootPrefix,
		},
		Resolve: plan.Resolve{
			Alias:        res.Aliases.Clone(),
			MainFields:   append([]string(nil), res.MainFields...),
			EmptyModules: append([]string(nil), res.EmptyModules...),
			Symlinks:     false,
		},
		ModuleRules:    rules,
		AssetCopyRules: BlocksMediaRules(),
		Provide:        provide,
		TemplateMeta: plan.TemplateMeta{
			Root:    cfg.RootPrefix,
			Meta:    maps.Clone(cfg.ExtraMeta),
			AppName: appName,
		},
		DevServer: &plan.DevServer{
			ContentBase:     filepath.Join(opts.ProjectDir, "build"),
			Host:            "0.0.0.0",
			Port:            cfg.Port,
			Compress:        true,
			DisableHost:     true,
			HistoryFallback: "/index.html",
		},
		SourceMap: cfg.SourceMap,
		Progress:  !cfg.CI,
	}
}

// Filename returns the output filename pattern: content-hashed under the
// cache epoch in production, stable in development.
func Filename(cfg *envcfg.Config) string {
	if cfg.IsProduction() {
		return fmt.Sprintf("js/%s/[name].[contenthash].js", cfg.CacheEpoch)
	}
	return "js/[name].js"
}

// StyleRule is the CSS chain: import resolution, variable substitution and
// vendor prefixing, with class names namespaced per file.
func StyleRule() plan.ModuleRule {
	return plan.ModuleRule{
		Name:   "style",
		Test:   []string{".css"},
		Loader: plan.LoaderStyle,
		Style: &plan.StyleChain{
			Processors:     []string{ProcessorImport, ProcessorSimpleVars, ProcessorPrefixer},
			Modules:        true,
			LocalIdentName: LocalIdentName,
			CamelCase:      true,
			InjectStyle:    true,
		},
	}
}

const blocksMedia = "node_modules/scratch-blocks/media"

// BlocksMediaRules copy block media for both visual themes. The high
// contrast theme's own media is forced over the defaults.
func BlocksMediaRules() []plan.AssetCopyRule {
	return []plan.AssetCopyRule{
		{From: blocksMedia, To: "static/blocks-media/default"},
		{From: blocksMedia, To: "static/blocks-media/high-contrast"},
		{
			From:  "src/lib/themes/blocks/high-contrast-media/blocks-media",
			To:    "static/blocks-media/high-contrast",
			Force: true,
		},
	}
}
