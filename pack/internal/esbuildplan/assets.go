package esbuildplan

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/sendarcade/alphapack/kit/fsutil"
	"github.com/sendarcade/alphapack/pack/internal/plan"
)

// assetPlugin inlines files smaller than the rule's limit as data URIs.
// Larger files are emitted under OutputPath with a content-addressed name
// and the module exports their public URL.
func assetPlugin(rule plan.ModuleRule, out plan.Output) esbuild.Plugin {
	opts := *rule.Asset
	emitDir := filepath.Join(out.Path, filepath.FromSlash(opts.OutputPath))
	publicBase := opts.PublicPath
	if publicBase == "" {
		publicBase = out.PublicPath + opts.OutputPath
	}

	return esbuild.Plugin{
		Name: "asset",
		Setup: func(build esbuild.PluginBuild) {
			build.OnLoad(esbuild.OnLoadOptions{Filter: extFilter(rule.Test), Namespace: "file"},
				func(args esbuild.OnLoadArgs) (esbuild.OnLoadResult, error) {
					content, err := os.ReadFile(args.Path)
					if err != nil {
						return esbuild.OnLoadResult{}, err
					}
					if inline(len(content), opts.Limit) {
						contents := string(content)
						return esbuild.OnLoadResult{Contents: &contents, Loader: esbuild.LoaderDataURL}, nil
					}

					name := hashedName(content, filepath.Base(args.Path))
					if err := fsutil.WriteFileAtomicBytes(filepath.Join(emitDir, name), content); err != nil {
						return esbuild.OnLoadResult{}, fmt.Errorf("emit asset %s: %w", args.Path, err)
					}
					contents, err := urlModule(publicBase+name, opts.ESModule)
					if err != nil {
						return esbuild.OnLoadResult{}, err
					}
					return esbuild.OnLoadResult{Contents: &contents, Loader: esbuild.LoaderJS}, nil
				},
			)
		},
	}
}

func inline(size, limit int) bool {
	return limit > 0 && size < limit
}

// hashedName returns "name.<hash>.ext", hashing the original name together
// with the content so equal files under different names never collide.
func hashedName(content []byte, originalName string) string {
	h := sha256.New()
	h.Write([]byte(originalName))
	h.Write(content)
	hashStr := fmt.Sprintf("%x", h.Sum(nil))[:12]
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(originalName, ext)
	return fmt.Sprintf("%s.%s%s", base, hashStr, ext)
}

func urlModule(url string, esModule bool) (string, error) {
	lit, err := json.Marshal(url)
	if err != nil {
		return "", err
	}
	if esModule {
		return fmt.Sprintf("export default %s;", lit), nil
	}
	return fmt.Sprintf("module.exports = %s;", lit), nil
}
