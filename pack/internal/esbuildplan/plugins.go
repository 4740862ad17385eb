package esbuildplan

import (
	"encoding/json"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/sendarcade/alphapack/kit/esbuildutil"
	"github.com/sendarcade/alphapack/pack/internal/plan"
	"github.com/sendarcade/alphapack/pack/internal/selection"
	"github.com/sendarcade/alphapack/pack/internal/stylevars"
)

const (
	emptyNamespace    = "alphapack-empty"
	externalNamespace = "alphapack-external"
	provideNamespace  = "alphapack-provide"

	// provideModule is injected into every file. It re-exports the
	// provided names, so free uses of them bind to those exports.
	provideModule = "alphapack:provide"
)

// exactFilter builds an esbuild filter matching any of specs exactly.
func exactFilter(specs []string) string {
	quoted := make([]string, len(specs))
	for i, s := range specs {
		quoted[i] = regexp.QuoteMeta(s)
	}
	return "^(" + strings.Join(quoted, "|") + ")$"
}

// aliasPass marks resolutions issued by the alias plugin itself, so an
// alias whose replacement equals its specifier does not recurse.
type aliasPass struct{}

func aliasPlugin(alias map[string]string, projectDir string) esbuild.Plugin {
	return esbuild.Plugin{
		Name: "alias",
		Setup: func(build esbuild.PluginBuild) {
			if len(alias) == 0 {
				return
			}
			specs := make([]string, 0, len(alias))
			for k := range alias {
				specs = append(specs, k)
			}
			slices.Sort(specs)

			build.OnResolve(esbuild.OnResolveOptions{Filter: exactFilter(specs)},
				func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
					if _, ok := args.PluginData.(aliasPass); ok || args.Kind == esbuild.ResolveEntryPoint {
						return esbuild.OnResolveResult{}, nil
					}
					target, ok := alias[args.Path]
					if !ok {
						return esbuild.OnResolveResult{}, nil
					}

					res := build.Resolve(target, esbuild.ResolveOptions{
						Importer:   args.Importer,
						ResolveDir: projectDir,
						Kind:       args.Kind,
						PluginData: aliasPass{},
					})
					if len(res.Errors) > 0 {
						return esbuild.OnResolveResult{}, fmt.Errorf("alias %q -> %q: %s",
							args.Path, target, esbuildutil.FormatMessage(res.Errors[0]))
					}
					return esbuild.OnResolveResult{
						Path:      res.Path,
						Namespace: res.Namespace,
						Suffix:    res.Suffix,
						External:  res.External,
					}, nil
				},
			)
		},
	}
}

// emptyModulesPlugin resolves each named core module to an empty object.
func emptyModulesPlugin(names []string) esbuild.Plugin {
	return esbuild.Plugin{
		Name: "empty-modules",
		Setup: func(build esbuild.PluginBuild) {
			if len(names) == 0 {
				return
			}
			build.OnResolve(esbuild.OnResolveOptions{Filter: exactFilter(names)},
				func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
					return esbuild.OnResolveResult{Path: args.Path, Namespace: emptyNamespace}, nil
				},
			)
			build.OnLoad(esbuild.OnLoadOptions{Filter: ".*", Namespace: emptyNamespace},
				func(esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
					contents := "module.exports = {};"
					return esbuild.OnLoadResult{Contents: &contents, Loader: esbuild.LoaderJS}, nil
				},
			)
		},
	}
}

// externalGlobalsPlugin replaces each external specifier with the host
// global of the same mapping, for formats without native imports.
func externalGlobalsPlugin(externals map[string]string) esbuild.Plugin {
	return esbuild.Plugin{
		Name: "external-globals",
		Setup: func(build esbuild.PluginBuild) {
			specs := make([]string, 0, len(externals))
			for k := range externals {
				specs = append(specs, k)
			}
			slices.Sort(specs)

			build.OnResolve(esbuild.OnResolveOptions{Filter: exactFilter(specs)},
				func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
					return esbuild.OnResolveResult{Path: args.Path, Namespace: externalNamespace}, nil
				},
			)
			build.OnLoad(esbuild.OnLoadOptions{Filter: ".*", Namespace: externalNamespace},
				func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
					contents, err := globalShim(externals[args.Path])
					if err != nil {
						return esbuild.OnLoadResult{}, err
					}
					return esbuild.OnLoadResult{Contents: &contents, Loader: esbuild.LoaderJS}, nil
				},
			)
		},
	}
}

func globalShim(global string) (string, error) {
	name, err := json.Marshal(global)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("module.exports = globalThis[%s];", name), nil
}

func providePlugin(provide map[string]plan.ProvidedName, projectDir string) esbuild.Plugin {
	return esbuild.Plugin{
		Name: "provide",
		Setup: func(build esbuild.PluginBuild) {
			build.OnResolve(esbuild.OnResolveOptions{Filter: exactFilter([]string{provideModule})},
				func(args esbuild.OnResolveArgs) (esbuild.OnResolveResult, error) {
					return esbuild.OnResolveResult{Path: args.Path, Namespace: provideNamespace}, nil
				},
			)
			build.OnLoad(esbuild.OnLoadOptions{Filter: ".*", Namespace: provideNamespace},
				func(esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
					contents, err := provideSource(provide)
					if err != nil {
						return esbuild.OnLoadResult{}, err
					}
					return esbuild.OnLoadResult{
						Contents:   &contents,
						Loader:     esbuild.LoaderJS,
						ResolveDir: projectDir,
					}, nil
				},
			)
		},
	}
}

var identifier = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

// provideSource renders one re-export per provided name, in name order.
func provideSource(provide map[string]plan.ProvidedName) (string, error) {
	var b strings.Builder
	for _, name := range slices.Sorted(maps.Keys(provide)) {
		p := provide[name]
		export := p.Export
		if export == "" {
			export = "default"
		}
		if !identifier.MatchString(name) || (export != "default" && !identifier.MatchString(export)) {
			return "", fmt.Errorf("provide %q: %q is not an identifier", name, export)
		}
		module, err := json.Marshal(p.Module)
		if err != nil {
			return "", err
		}
		if export == name {
			fmt.Fprintf(&b, "export { %s } from %s;\n", name, module)
		} else {
			fmt.Fprintf(&b, "export { %s as %s } from %s;\n", export, name, module)
		}
	}
	return b.String(), nil
}

// selectionPlugin applies the transform selection policy. Files whose
// decision forces classic module output are converted to CommonJS before
// bundling; every other file keeps esbuild's default handling.
func selectionPlugin(policy *selection.Policy) esbuild.Plugin {
	return esbuild.Plugin{
		Name: "transform-selection",
		Setup: func(build esbuild.PluginBuild) {
			build.OnLoad(esbuild.OnLoadOptions{Filter: `\.(js|jsx|mjs|cjs)$`, Namespace: "file"},
				func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
					decision := policy.Decide(args.Path)
					if decision.Kind != selection.Transform || decision.ModuleMode != plan.ModulesCommonJS {
						return esbuild.OnLoadResult{}, nil
					}
					src, err := os.ReadFile(args.Path)
					if err != nil {
						return esbuild.OnLoadResult{}, err
					}
					code, err := toCommonJS(src, args.Path)
					if err != nil {
						return esbuild.OnLoadResult{}, err
					}
					return esbuild.OnLoadResult{
						Contents:   &code,
						Loader:     esbuild.LoaderJS,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				},
			)
		},
	}
}

func toCommonJS(src []byte, sourcefile string) (string, error) {
	// Same loaders as the build itself: .js may carry JSX.
	loader := esbuild.LoaderJS
	switch filepath.Ext(sourcefile) {
	case ".js", ".jsx":
		loader = esbuild.LoaderJSX
	}
	result := esbuild.Transform(string(src), esbuild.TransformOptions{
		Loader:     loader,
		Format:     esbuild.FormatCommonJS,
		Target:     Target,
		Sourcefile: sourcefile,
		LogLevel:   esbuild.LogLevelSilent,
	})
	if err := esbuildutil.CollectTransformErrors(result); err != nil {
		return "", err
	}
	return string(result.Code), nil
}

// stylePlugin runs variable substitution ahead of esbuild's CSS handling.
// Import resolution and prefixing are left to esbuild.
func stylePlugin(rule plan.ModuleRule) esbuild.Plugin {
	loader := esbuild.LoaderCSS
	if rule.Style.Modules {
		loader = esbuild.LoaderLocalCSS
	}
	resolver := stylevars.NewResolver()

	return esbuild.Plugin{
		Name: "style",
		Setup: func(build esbuild.PluginBuild) {
			build.OnLoad(esbuild.OnLoadOptions{Filter: extFilter(rule.Test), Namespace: "file"},
				func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
					out, err := resolver.File(args.Path)
					if err != nil {
						return esbuild.OnLoadResult{}, err
					}
					contents := string(out)
					return esbuild.OnLoadResult{
						Contents:   &contents,
						Loader:     loader,
						ResolveDir: filepath.Dir(args.Path),
					}, nil
				},
			)
		},
	}
}

// extFilter matches paths ending in any of exts.
func extFilter(exts []string) string {
	quoted := make([]string, len(exts))
	for i, e := range exts {
		quoted[i] = regexp.QuoteMeta(e)
	}
	return "(" + strings.Join(quoted, "|") + ")$"
}
