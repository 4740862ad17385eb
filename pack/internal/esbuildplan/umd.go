package esbuildplan

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// umdWrapper returns the banner and footer that turn a CommonJS bundle into
// a universal module. The bundle runs inside a factory that receives each
// external, in specifier order, and sees them through a local require. The
// factory result is exported through CommonJS, AMD, or a global on root.
func umdWrapper(name string, externals map[string]string) (banner, footer string, err error) {
	if name == "" {
		return "", "", fmt.Errorf("esbuildplan: umd output needs a library name")
	}
	qname, err := json.Marshal(name)
	if err != nil {
		return "", "", err
	}

	specs := slices.Sorted(maps.Keys(externals))
	var (
		required []string
		amdDeps  []string
		globals  []string
		params   []string
		cases    strings.Builder
	)
	for i, spec := range specs {
		qspec, err := json.Marshal(spec)
		if err != nil {
			return "", "", err
		}
		qglobal, err := json.Marshal(externals[spec])
		if err != nil {
			return "", "", err
		}
		param := fmt.Sprintf("__umd_ext%d", i)
		required = append(required, fmt.Sprintf("require(%s)", qspec))
		amdDeps = append(amdDeps, string(qspec))
		globals = append(globals, fmt.Sprintf("root[%s]", qglobal))
		params = append(params, param)
		fmt.Fprintf(&cases, "case %s: return %s; ", qspec, param)
	}

	req := strings.Join(required, ", ")
	var b strings.Builder
	b.WriteString("(function (root, factory) {\n")
	fmt.Fprintf(&b, "if (typeof exports === \"object\" && typeof module === \"object\") module.exports = factory(%s);\n", req)
	fmt.Fprintf(&b, "else if (typeof define === \"function\" && define.amd) define([%s], factory);\n", strings.Join(amdDeps, ", "))
	fmt.Fprintf(&b, "else if (typeof exports === \"object\") exports[%s] = factory(%s);\n", qname, req)
	fmt.Fprintf(&b, "else root[%s] = factory(%s);\n", qname, strings.Join(globals, ", "))
	fmt.Fprintf(&b, "})(typeof self !== \"undefined\" ? self : this, function (%s) {\n", strings.Join(params, ", "))
	b.WriteString("var module = { exports: {} }, exports = module.exports;\n")
	fmt.Fprintf(&b, "var require = function (id) { switch (id) { %s} throw new Error(\"Cannot find module '\" + id + \"'\"); };", cases.String())

	return b.String(), "return module.exports;\n});", nil
}
