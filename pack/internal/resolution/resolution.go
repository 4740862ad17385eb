// Package resolution holds the module resolution policy: exact-match
// aliases that swap runtime-only modules for browser implementations, and
// the package.json field precedence used for third-party packages.
package resolution

import (
	"path/filepath"
	"sort"
)

// AliasTable maps an exact module specifier to its replacement. Keys are
// never patterns.
type AliasTable map[string]string

// Lookup returns the replacement for spec. Repeated lookups always agree.
func (t AliasTable) Lookup(spec string) (string, bool) {
	r, ok := t[spec]
	return r, ok
}

// Specifiers returns the aliased specifiers in sorted order.
func (t AliasTable) Specifiers() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (t AliasTable) Clone() AliasTable {
	if t == nil {
		return nil
	}
	out := make(AliasTable, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Main fields, in precedence order.
const (
	FieldBrowser = "browser"
	FieldModule  = "module"
	FieldMain    = "main"
)

// Policy is the complete resolution policy shared by every target.
type Policy struct {
	Aliases    AliasTable
	MainFields []string
	// EmptyModules resolve to an empty module; they have no browser equivalent.
	EmptyModules []string
	// Provide injects a free identifier from a module export.
	Provide map[string]ProvidedExport
}

type ProvidedExport struct {
	Module string `json:"module" yaml:"module"`
	Export string `json:"export" yaml:"export"`
}

// Shim locations, relative to the project directory.
const (
	TextEncoderShim = "src/lib/tw-text-encoder"
	RenderFontsShim = "src/lib/tw-scratch-render-fonts"
)

// NewPolicy builds the policy for a project rooted at projectDir.
func NewPolicy(projectDir string) Policy {
	return Policy{
		Aliases:      NewAliasTable(projectDir),
		MainFields:   []string{FieldBrowser, FieldModule, FieldMain},
		EmptyModules: []string{"fs"},
		Provide: map[string]ProvidedExport{
			"Buffer": {Module: "buffer", Export: "Buffer"},
		},
	}
}

// NewAliasTable returns first-party shims followed by node built-in polyfills.
func NewAliasTable(projectDir string) AliasTable {
	return AliasTable{
		"text-encoding":        filepath.Join(projectDir, TextEncoderShim),
		"scratch-render-fonts": filepath.Join(projectDir, RenderFontsShim),

		"path":   "path-browserify",
		"crypto": "crypto-browserify",
		"stream": "stream-browserify",
		"buffer": "buffer",
		"util":   "util/",
		"assert": "assert/",
	}
}
