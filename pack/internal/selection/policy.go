// Package selection decides which files go through the syntax transform
// stage and with which transform chain.
package selection

import (
	"path"
	"path/filepath"
	"slices"

	"github.com/sendarcade/alphapack/pack/internal/plan"
)

// Kind classifies a file for the transform stage.
type Kind int

const (
	// Skip means the file is not routed through the syntax transform.
	Skip Kind = iota
	// Transform means the file goes through the general chain.
	Transform
	// Passthrough means the file is already in a standard module format
	// and is parsed with module auto-detection, untransformed.
	Passthrough
)

func (k Kind) String() string {
	switch k {
	case Transform:
		return "transform"
	case Passthrough:
		return "passthrough"
	default:
		return "skip"
	}
}

// Decision is the outcome of Policy.Decide for one path.
type Decision struct {
	Kind Kind
	// Chain is set for Transform decisions.
	Chain *plan.TransformChain
	// ModuleType is set for Passthrough decisions.
	ModuleType string
	// ModuleMode is the module output mode the engine must produce.
	ModuleMode string
}

// PassthroughRule routes files with Extension under Match around the chain.
type PassthroughRule struct {
	Name      string
	Extension string
	Match     Matcher
}

// Override forces the env preset module mode for matching paths.
type Override struct {
	Name    string
	Match   Matcher
	Modules string
}

// Policy is the self-contained transform selection policy.
type Policy struct {
	Extensions  []string
	Include     []Matcher
	Passthrough []PassthroughRule
	Overrides   []Override
	MessagesDir string
}

// MessagesDir receives user-facing strings extracted during transform.
const MessagesDir = "./translations/messages/"

// CommonJSOverride is the nested vendored dependency whose consumer needs
// classic module semantics.
var CommonJSOverride = Override{
	Name:    "alpha-vm-nested-solana",
	Match:   PathPattern{Glob: "**/node_modules/alpha-vm/node_modules/@solana/**"},
	Modules: plan.ModulesCommonJS,
}

// NewPolicy returns the policy for a project rooted at projectDir.
func NewPolicy(projectDir string) *Policy {
	abs := func(rel string) string { return filepath.ToSlash(filepath.Join(projectDir, rel)) }

	return &Policy{
		Extensions: []string{".js", ".jsx", ".mjs", ".cjs"},
		Include: []Matcher{
			PathPrefix{Dir: abs("src")},
			PathPrefix{Dir: abs("../alpha-vm/src")},
			PackageName{Name: "alpha-vm", Subdir: "src"},
			PathPattern{Glob: "**/node_modules/scratch-*/src/**"},
			PackageName{Name: "pify"},
			PackageName{Name: "@vernier/godirect"},
			PackageName{Name: "@solana/web3.js"},
			PackageName{Name: "@solana/spl-token"},
			PackageName{Name: "@solana/codecs-core"},
			PackageName{Name: "@solana/codecs-strings"},
			PackageName{Name: "@solana/codecs-numbers"},
			PackageName{Name: "@solana/options"},
			PackageName{Name: "@solana/codecs-data-structures"},
			PackageName{Name: "@solana/errors"},
			PackageName{Name: "@noble/curves"},
			PackageName{Name: "superstruct"},
			PackageName{Name: "rpc-websockets"},
			PathPattern{Glob: "**/node_modules/alpha-vm/node_modules/@solana/**"},
		},
		Passthrough: []PassthroughRule{
			{Name: "solana-mjs", Extension: ".mjs", Match: PathPattern{Glob: "**/node_modules/@solana/**"}},
			{Name: "rpc-websockets-mjs", Extension: ".mjs", Match: PackageName{Name: "rpc-websockets"}},
		},
		Overrides:   []Override{CommonJSOverride},
		MessagesDir: MessagesDir,
	}
}

// Decide classifies p. Pass-through rules are checked before the general
// inclusion set; overrides layer on top of the general chain.
func (p *Policy) Decide(filePath string) Decision {
	np := normPath(filePath)
	ext := path.Ext(np)

	for _, pt := range p.Passthrough {
		if ext == pt.Extension && pt.Match.Matches(np) {
			return Decision{
				Kind:       Passthrough,
				ModuleType: plan.ModuleTypeAuto,
				ModuleMode: plan.ModulesCommonJS,
			}
		}
	}

	if !slices.Contains(p.Extensions, ext) || !AnyOf(p.Include, np) {
		return Decision{Kind: Skip}
	}

	chain := p.Chain()
	for _, ov := range p.Overrides {
		if ov.Match.Matches(np) {
			chain = withModules(chain, ov.Modules)
		}
	}
	return Decision{Kind: Transform, Chain: chain, ModuleMode: chain.ModuleMode()}
}

// Chain returns a fresh copy of the general transform chain.
func (p *Policy) Chain() *plan.TransformChain {
	return &plan.TransformChain{
		Babelrc: false,
		Presets: []plan.Preset{
			{Name: plan.PresetEnv},
			{Name: plan.PresetReact},
		},
		Plugins: []plan.Plugin{
			{Name: "react-intl", Options: map[string]string{"messagesDir": p.MessagesDir}},
			{Name: "@babel/plugin-proposal-logical-assignment-operators"},
			{Name: "@babel/plugin-proposal-optional-chaining"},
			{Name: "@babel/plugin-proposal-nullish-coalescing-operator"},
			{Name: "@babel/plugin-proposal-class-properties"},
		},
	}
}

func withModules(chain *plan.TransformChain, modules string) *plan.TransformChain {
	out := chain.Clone()
	for i := range out.Presets {
		if out.Presets[i].Name == plan.PresetEnv {
			out.Presets[i].Modules = modules
		}
	}
	return out
}

// Rules renders the policy as ordered module rules: pass-through rules
// first, then the general transform rule carrying its overrides.
func (p *Policy) Rules() []plan.ModuleRule {
	rules := make([]plan.ModuleRule, 0, len(p.Passthrough)+1)
	for _, pt := range p.Passthrough {
		rules = append(rules, plan.ModuleRule{
			Name:    pt.Name,
			Test:    []string{pt.Extension},
			Include: []string{pt.Match.String()},
			Type:    plan.ModuleTypeAuto,
		})
	}

	chain := p.Chain()
	for _, ov := range p.Overrides {
		chain.Overrides = append(chain.Overrides, plan.ChainOverride{
			Test:    ov.Match.String(),
			Presets: []plan.Preset{{Name: plan.PresetEnv, Modules: ov.Modules}},
		})
	}
	rules = append(rules, plan.ModuleRule{
		Name:      "script",
		Test:      slices.Clone(p.Extensions),
		Include:   Strings(p.Include),
		Loader:    plan.LoaderTransform,
		Transform: chain,
	})
	return rules
}
