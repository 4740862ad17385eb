package esbuildplan

import (
	"path/filepath"
	"testing"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendarcade/alphapack/pack/internal/compose"
	"github.com/sendarcade/alphapack/pack/internal/envcfg"
	"github.com/sendarcade/alphapack/pack/internal/plan"
	"github.com/sendarcade/alphapack/pack/internal/resolution"
	"github.com/sendarcade/alphapack/pack/internal/selection"
	"github.com/sendarcade/alphapack/pack/internal/targets"
)

const dir = "/work/gui"

func derive(t *testing.T, env envcfg.Env) []plan.Descriptor {
	t.Helper()
	cfg, err := envcfg.Resolve(env)
	require.NoError(t, err)
	base := compose.Base(cfg, resolution.NewPolicy(dir), selection.NewPolicy(dir), compose.Options{ProjectDir: dir})
	list, err := targets.Derive(cfg, base, dir)
	require.NoError(t, err)
	return list
}

func pluginNames(opts esbuild.BuildOptions) []string {
	out := make([]string, len(opts.Plugins))
	for i, p := range opts.Plugins {
		out[i] = p.Name
	}
	return out
}

func TestOptionsPlayground(t *testing.T) {
	list := derive(t, envcfg.Env{})
	opts, err := Options(Input{Target: list[0], ProjectDir: dir, Selection: selection.NewPolicy(dir)})
	require.NoError(t, err)

	assert.Equal(t, []esbuild.EntryPoint{{
		InputPath:  filepath.Join(dir, "src", "playground", "embed.jsx"),
		OutputPath: "embed",
	}}, opts.EntryPointsAdvanced)
	assert.Equal(t, filepath.Join(dir, "build"), opts.Outdir)
	assert.Equal(t, "js/[name]", opts.EntryNames)
	assert.Equal(t, esbuild.FormatESModule, opts.Format)
	assert.True(t, opts.Splitting)
	assert.Equal(t, esbuild.SourceMapLinked, opts.Sourcemap)
	assert.False(t, opts.MinifySyntax)
	assert.True(t, opts.PreserveSymlinks)
	assert.Equal(t, []string{"browser", "module", "main"}, opts.MainFields)
	assert.Equal(t, `"development"`, opts.Define["process.env.NODE_ENV"])
	assert.Equal(t, esbuild.LoaderFile, opts.Loader[".png"])
	assert.Equal(t, esbuild.LoaderJSX, opts.Loader[".js"])
	assert.Empty(t, opts.External)
	assert.Equal(t, []string{"alias", "empty-modules", "transform-selection", "provide", "style", "asset"}, pluginNames(opts))
	assert.Equal(t, []string{provideModule}, opts.Inject)
}

func TestOptionsLibrary(t *testing.T) {
	list := derive(t, envcfg.Env{"NODE_ENV": "production"})
	require.Len(t, list, 2)

	opts, err := Options(Input{Target: list[1], ProjectDir: dir, Selection: selection.NewPolicy(dir)})
	require.NoError(t, err)

	assert.Equal(t, "alpha-gui", opts.EntryPointsAdvanced[0].OutputPath)
	assert.Equal(t, filepath.Join(dir, "dist"), opts.Outdir)
	assert.Equal(t, esbuild.FormatCommonJS, opts.Format)
	assert.Empty(t, opts.GlobalName)
	assert.Contains(t, opts.Banner["js"], "define.amd")
	assert.Contains(t, opts.Banner["js"], `root["GUI"]`)
	assert.Equal(t, "return module.exports;\n});", opts.Footer["js"])
	assert.Equal(t, []string{"react", "react-dom"}, opts.External)
	assert.False(t, opts.Splitting)
	assert.Equal(t, "js/[name]", opts.EntryNames)
	assert.Equal(t, esbuild.SourceMapNone, opts.Sourcemap)
	assert.True(t, opts.MinifyWhitespace)
	assert.Equal(t, "/static/", opts.PublicPath)
	assert.NotContains(t, pluginNames(opts), "external-globals")
	assert.Equal(t, []string{provideModule}, opts.Inject)
}

func TestOptionsUMDNeedsLibraryName(t *testing.T) {
	d := plan.Descriptor{
		Name:   "lib",
		Entry:  map[string]string{"a": "./a.js"},
		Output: plan.Output{Path: "/out", LibraryTarget: "umd"},
	}
	_, err := Options(Input{Target: d, ProjectDir: dir, Selection: selection.NewPolicy(dir)})
	assert.ErrorContains(t, err, "library name")
}

func TestOptionsGlobalVariableTarget(t *testing.T) {
	d := plan.Descriptor{
		Name:      "lib",
		Entry:     map[string]string{"a": "./a.js"},
		Output:    plan.Output{Path: "/out", Library: "GUI", LibraryTarget: "var"},
		Externals: map[string]string{"react": "React"},
	}
	opts, err := Options(Input{Target: d, ProjectDir: dir, Selection: selection.NewPolicy(dir)})
	require.NoError(t, err)
	assert.Equal(t, esbuild.FormatIIFE, opts.Format)
	assert.Equal(t, "GUI", opts.GlobalName)
	assert.Empty(t, opts.External)
	assert.Contains(t, pluginNames(opts), "external-globals")
	assert.Empty(t, opts.Inject)
}

func TestOptionsProductionPlaygroundHashesNames(t *testing.T) {
	list := derive(t, envcfg.Env{"NODE_ENV": "production"})
	opts, err := Options(Input{Target: list[0], ProjectDir: dir, Selection: selection.NewPolicy(dir)})
	require.NoError(t, err)

	assert.Equal(t, "js/pentapod/[name].[hash]", opts.EntryNames)
	assert.Equal(t, "js/pentapod/[name].[hash]", opts.ChunkNames)
}

func TestOptionsErrors(t *testing.T) {
	list := derive(t, envcfg.Env{})
	sel := selection.NewPolicy(dir)

	tests := []struct {
		name string
		in   Input
	}{
		{"RelativeProjectDir", Input{Target: list[0], ProjectDir: "gui", Selection: sel}},
		{"NilSelection", Input{Target: list[0], ProjectDir: dir}},
		{"NoEntries", Input{Target: plan.Descriptor{Name: "x", Output: plan.Output{Path: "/out"}}, ProjectDir: dir, Selection: sel}},
		{"NoOutputPath", Input{Target: plan.Descriptor{Name: "x", Entry: map[string]string{"a": "./a.js"}}, ProjectDir: dir, Selection: sel}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Options(tt.in)
			assert.Error(t, err)
		})
	}
}

func TestExternalsWithoutGlobalFormat(t *testing.T) {
	d := plan.Descriptor{
		Name:         "x",
		Entry:        map[string]string{"a": "./a.js"},
		Output:       plan.Output{Path: "/out"},
		Optimization: &plan.Optimization{SplitChunks: &plan.SplitChunks{Chunks: "all"}},
		Externals:    map[string]string{"react-dom": "react-dom", "react": "react"},
	}
	opts, err := Options(Input{Target: d, ProjectDir: dir, Selection: selection.NewPolicy(dir)})
	require.NoError(t, err)
	assert.Equal(t, []string{"react", "react-dom"}, opts.External)
	assert.NotContains(t, pluginNames(opts), "external-globals")
}

func TestNamePattern(t *testing.T) {
	tests := []struct{ in, want string }{
		{"js/[name].js", "js/[name]"},
		{"js/pentapod/[name].[contenthash].js", "js/pentapod/[name].[hash]"},
		{"[name].[chunkhash].js", "[name].[hash]"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, namePattern(tt.in))
		})
	}
}

func TestSourceMap(t *testing.T) {
	tests := []struct {
		in   string
		want esbuild.SourceMap
	}{
		{"", esbuild.SourceMapNone},
		{"false", esbuild.SourceMapNone},
		{"cheap-module-source-map", esbuild.SourceMapLinked},
		{"source-map", esbuild.SourceMapLinked},
		{"eval-source-map", esbuild.SourceMapInline},
		{"inline-source-map", esbuild.SourceMapInline},
		{"hidden-source-map", esbuild.SourceMapExternal},
		{"nosources-source-map", esbuild.SourceMapExternal},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SourceMap(tt.in))
		})
	}
}
