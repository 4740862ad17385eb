// Package esbuildutil holds small helpers shared by esbuild callers.
package esbuildutil

import (
	"errors"
	"fmt"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"
)

// ESBuildMetafileSubset is the part of an esbuild metafile we read.
type ESBuildMetafileSubset struct {
	Inputs  map[string]struct{} `json:"inputs"`
	Outputs map[string]struct {
		EntryPoint string `json:"entryPoint,omitempty"`
		Bytes      int    `json:"bytes"`
		Imports    []struct {
			Path string `json:"path"`
		} `json:"imports"`
	} `json:"outputs"`
}

// CollectErrors folds esbuild error messages into one error, or nil.
func CollectErrors(result esbuild.BuildResult) error {
	return collect(result.Errors)
}

// CollectTransformErrors is CollectErrors for api.Transform results.
func CollectTransformErrors(result esbuild.TransformResult) error {
	return collect(result.Errors)
}

func collect(msgs []esbuild.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	errs := make([]error, 0, len(msgs))
	for _, m := range msgs {
		errs = append(errs, errors.New(FormatMessage(m)))
	}
	return fmt.Errorf("esbuild: %d error(s): %w", len(msgs), errors.Join(errs...))
}

// FormatMessage renders a message as "file:line:col: text".
func FormatMessage(m esbuild.Message) string {
	var b strings.Builder
	if m.Location != nil {
		fmt.Fprintf(&b, "%s:%d:%d: ", m.Location.File, m.Location.Line, m.Location.Column)
	}
	if m.PluginName != "" {
		fmt.Fprintf(&b, "[%s] ", m.PluginName)
	}
	b.WriteString(m.Text)
	return b.String()
}
