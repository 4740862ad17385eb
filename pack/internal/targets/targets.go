// Package targets derives the ordered build target list from the base
// descriptor. Each target is base, then its category defaults, then its own
// entry and output overrides.
package targets

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/sendarcade/alphapack/internal/brand"
	"github.com/sendarcade/alphapack/pack/internal/envcfg"
	"github.com/sendarcade/alphapack/pack/internal/plan"
)

// Target names
const (
	Playground = "playground"
	Library    = "library"
)

// AssetExtensions are inlined or emitted by the asset rule.
var AssetExtensions = []string{".svg", ".png", ".wav", ".mp3", ".gif", ".jpg", ".woff2", ".hex"}

// InlineLimit is the largest asset, in bytes, inlined as a data URI.
const InlineLimit = 2048

const assetOutputPath = "static/assets/"

// Derive returns the playground target, followed by the library target when
// cfg is production or a dist build. base is not modified.
func Derive(cfg *envcfg.Config, base plan.Descriptor, projectDir string) ([]plan.Descriptor, error) {
	pg, err := plan.Derive(base, applicationDefaults(cfg), playgroundTarget(projectDir))
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", Playground, err)
	}
	out := []plan.Descriptor{pg}

	if !cfg.WantsLibrary() {
		return out, nil
	}

	lib, err := plan.Derive(base, libraryDefaults(cfg), libraryTarget(cfg, projectDir))
	if err != nil {
		return nil, fmt.Errorf("derive %s: %w", Library, err)
	}
	return append(out, lib), nil
}

func assetRule(publicPath string) plan.ModuleRule {
	return plan.ModuleRule{
		Name:   "asset",
		Test:   append([]string(nil), AssetExtensions...),
		Loader: plan.LoaderAsset,
		Asset: &plan.AssetOptions{
			Limit:      InlineLimit,
			OutputPath: assetOutputPath,
			PublicPath: publicPath,
			ESModule:   false,
		},
	}
}

// applicationDefaults is the category fragment for standalone apps.
func applicationDefaults(cfg *envcfg.Config) plan.Descriptor {
	return plan.Descriptor{
		Platform:    "browser",
		ModuleRules: []plan.ModuleRule{assetRule("")},
		Optimization: &plan.Optimization{
			SplitChunks: &plan.SplitChunks{
				Chunks:             "all",
				MinChunks:          2,
				MinSize:            50000,
				MaxInitialRequests: 5,
			},
		},
		Define: map[string]string{
			"process.env.NODE_ENV":              jsonString(cfg.NodeEnv),
			"process.env.DEBUG":                 strconv.FormatBool(cfg.Debug),
			"process.env.ENABLE_SERVICE_WORKER": jsonString(cfg.EnableServiceWorker),
			"process.env.ROOT":                  jsonString(cfg.RootPrefix),
			"process.env.ROUTING_STYLE":         jsonString(cfg.RoutingStyle),
		},
		AssetCopyRules: []plan.AssetCopyRule{
			{From: "static", To: ""},
			{From: "extensions/**", To: "static", Context: "src/examples"},
		},
	}
}

func playgroundTarget(projectDir string) plan.Descriptor {
	return plan.Descriptor{
		Name:  Playground,
		Entry: map[string]string{"embed": "./src/playground/embed.jsx"},
		Output: plan.Output{
			Path: filepath.Join(projectDir, "build"),
		},
		HTMLPages: []plan.HTMLPage{{
			Template: "src/playground/embed.ejs",
			Filename: "index.html",
			Title:    brand.PlaygroundTitle,
			Chunks:   []string{"embed"},
		}},
	}
}

// libraryDefaults is the category fragment for embeddable exports.
func libraryDefaults(cfg *envcfg.Config) plan.Descriptor {
	return plan.Descriptor{
		Platform: "web",
		Output: plan.Output{
			LibraryTarget: "umd",
			Filename:      "js/[name].js",
			ChunkFilename: "js/[name].js",
		},
		Externals: map[string]string{
			"react":     "react",
			"react-dom": "react-dom",
		},
		ModuleRules: []plan.ModuleRule{assetRule(cfg.StaticPath + "/assets/")},
		AssetCopyRules: []plan.AssetCopyRule{
			{
				From:             "extension-worker.{js,js.map}",
				Context:          "node_modules/alpha-vm/dist/web",
				NoErrorOnMissing: true,
			},
			// Library definitions are downloaded by desktop hosts.
			{From: "src/lib/libraries/*.json", To: "libraries", Flatten: true},
		},
	}
}

func libraryTarget(cfg *envcfg.Config, projectDir string) plan.Descriptor {
	return plan.Descriptor{
		Name:  Library,
		Entry: map[string]string{"alpha-gui": "./src/index.js"},
		Output: plan.Output{
			Path:       filepath.Join(projectDir, "dist"),
			PublicPath: cfg.StaticPath + "/",
		},
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
