package targets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sendarcade/alphapack/pack/internal/compose"
	"github.com/sendarcade/alphapack/pack/internal/envcfg"
	"github.com/sendarcade/alphapack/pack/internal/plan"
	"github.com/sendarcade/alphapack/pack/internal/resolution"
	"github.com/sendarcade/alphapack/pack/internal/selection"
)

const dir = "/work/gui"

func derive(t *testing.T, env envcfg.Env) (plan.Descriptor, []plan.Descriptor) {
	t.Helper()
	cfg, err := envcfg.Resolve(env)
	require.NoError(t, err)
	base := compose.Base(cfg, resolution.NewPolicy(dir), selection.NewPolicy(dir), compose.Options{ProjectDir: dir})
	list, err := Derive(cfg, base, dir)
	require.NoError(t, err)
	return base, list
}

func names(list []plan.Descriptor) []string {
	out := make([]string, len(list))
	for i, d := range list {
		out[i] = d.Name
	}
	return out
}

func TestLibraryPresence(t *testing.T) {
	tests := []struct {
		name string
		env  envcfg.Env
		want []string
	}{
		{"Development", envcfg.Env{}, []string{Playground}},
		{"ExplicitDevelopment", envcfg.Env{"NODE_ENV": "development"}, []string{Playground}},
		{"OtherBuildMode", envcfg.Env{"BUILD_MODE": "standalone"}, []string{Playground}},
		{"Production", envcfg.Env{"NODE_ENV": "production"}, []string{Playground, Library}},
		{"Dist", envcfg.Env{"BUILD_MODE": "dist"}, []string{Playground, Library}},
		{"ProductionDist", envcfg.Env{"NODE_ENV": "production", "BUILD_MODE": "dist"}, []string{Playground, Library}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, list := derive(t, tt.env)
			assert.Equal(t, tt.want, names(list))
		})
	}
}

func TestPlaygroundTarget(t *testing.T) {
	_, list := derive(t, envcfg.Env{"ROOT": "/gui/", "DEBUG": "1", "ROUTING_STYLE": "hash"})
	pg := list[0]

	assert.Equal(t, map[string]string{"embed": "./src/playground/embed.jsx"}, pg.Entry)
	assert.Equal(t, "/work/gui/build", pg.Output.Path)
	assert.Equal(t, "js/[name].js", pg.Output.Filename)
	assert.Equal(t, "/gui/", pg.Output.PublicPath)

	require.NotNil(t, pg.Optimization)
	assert.Equal(t, &plan.SplitChunks{Chunks: "all", MinChunks: 2, MinSize: 50000, MaxInitialRequests: 5}, pg.Optimization.SplitChunks)

	assert.Equal(t, map[string]string{
		"process.env.NODE_ENV":              `"development"`,
		"process.env.DEBUG":                 "true",
		"process.env.ENABLE_SERVICE_WORKER": `""`,
		"process.env.ROOT":                  `"/gui/"`,
		"process.env.ROUTING_STYLE":         `"hash"`,
	}, pg.Define)

	require.Len(t, pg.HTMLPages, 1)
	assert.Equal(t, "index.html", pg.HTMLPages[0].Filename)
	assert.Equal(t, []string{"embed"}, pg.HTMLPages[0].Chunks)
	assert.Empty(t, pg.Externals)
}

func TestNodeEnvDefineKeepsRawValue(t *testing.T) {
	tests := []struct {
		name     string
		env      envcfg.Env
		want     string
		wantMode string
	}{
		{"Unset", envcfg.Env{}, `"development"`, "development"},
		{"Test", envcfg.Env{"NODE_ENV": "test"}, `"test"`, "development"},
		{"Production", envcfg.Env{"NODE_ENV": "production"}, `"production"`, "production"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, list := derive(t, tt.env)
			assert.Equal(t, tt.want, list[0].Define["process.env.NODE_ENV"])
			assert.Equal(t, tt.wantMode, list[0].Mode)
		})
	}
}

func TestRuleListsConcatenateBaseFirst(t *testing.T) {
	base, list := derive(t, envcfg.Env{"NODE_ENV": "production"})

	for _, target := range list {
		t.Run(target.Name, func(t *testing.T) {
			require.Len(t, target.ModuleRules, len(base.ModuleRules)+1)
			for i, r := range base.ModuleRules {
				assert.Equal(t, r.Name, target.ModuleRules[i].Name)
			}
			last := target.ModuleRules[len(target.ModuleRules)-1]
			assert.Equal(t, "asset", last.Name)
			assert.Equal(t, InlineLimit, last.Asset.Limit)

			require.GreaterOrEqual(t, len(target.AssetCopyRules), len(base.AssetCopyRules))
			assert.Equal(t, base.AssetCopyRules, target.AssetCopyRules[:len(base.AssetCopyRules)])
		})
	}
}

func TestPlaygroundCopyRules(t *testing.T) {
	_, list := derive(t, envcfg.Env{})
	rules := list[0].AssetCopyRules
	require.Len(t, rules, 5)
	assert.Equal(t, plan.AssetCopyRule{From: "static", To: ""}, rules[3])
	assert.Equal(t, plan.AssetCopyRule{From: "extensions/**", To: "static", Context: "src/examples"}, rules[4])
}

func TestLibraryTarget(t *testing.T) {
	_, list := derive(t, envcfg.Env{"NODE_ENV": "production", "STATIC_PATH": "/cdn"})
	require.Len(t, list, 2)
	lib := list[1]

	assert.Equal(t, "web", lib.Platform)
	assert.Equal(t, map[string]string{"alpha-gui": "./src/index.js"}, lib.Entry)
	assert.Equal(t, "umd", lib.Output.LibraryTarget)
	assert.Equal(t, "GUI", lib.Output.Library)
	assert.Equal(t, "js/[name].js", lib.Output.Filename)
	assert.Equal(t, "js/[name].js", lib.Output.ChunkFilename)
	assert.Equal(t, "/work/gui/dist", lib.Output.Path)
	assert.Equal(t, "/cdn/", lib.Output.PublicPath)
	assert.Equal(t, map[string]string{"react": "react", "react-dom": "react-dom"}, lib.Externals)
	assert.Nil(t, lib.Optimization)
	assert.Empty(t, lib.Define)

	asset := lib.ModuleRules[len(lib.ModuleRules)-1]
	assert.Equal(t, "/cdn/assets/", asset.Asset.PublicPath)

	rules := lib.AssetCopyRules
	require.Len(t, rules, 5)
	assert.True(t, rules[3].NoErrorOnMissing)
	assert.Equal(t, "node_modules/alpha-vm/dist/web", rules[3].Context)
	assert.True(t, rules[4].Flatten)
	assert.Equal(t, "libraries", rules[4].To)
}

func TestProductionFilenames(t *testing.T) {
	_, list := derive(t, envcfg.Env{"NODE_ENV": "production"})
	pg := list[0]
	assert.Contains(t, pg.Output.Filename, "[contenthash]")
	assert.Contains(t, pg.Output.Filename, envcfg.CacheEpoch)
	assert.Contains(t, pg.Output.ChunkFilename, "[contenthash]")
	assert.Contains(t, pg.Output.ChunkFilename, envcfg.CacheEpoch)
}

func TestDeriveLeavesBaseUntouched(t *testing.T) {
	cfg, err := envcfg.Resolve(envcfg.Env{"NODE_ENV": "production"})
	require.NoError(t, err)
	base := compose.Base(cfg, resolution.NewPolicy(dir), selection.NewPolicy(dir), compose.Options{ProjectDir: dir})
	snapshot := base.Clone()

	list, err := Derive(cfg, base, dir)
	require.NoError(t, err)
	list[0].ModuleRules[0].Name = "mutated"
	list[1].TemplateMeta.Meta["x"] = "y"

	assert.Equal(t, snapshot, base)
	assert.NotEqual(t, "mutated", list[1].ModuleRules[0].Name)
}
