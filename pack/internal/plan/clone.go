package plan

import "maps"

// Clone returns a deep copy sharing no maps, slices or pointers with d.
func (d Descriptor) Clone() Descriptor {
	out := d
	out.Entry = maps.Clone(d.Entry)
	out.Resolve = d.Resolve.clone()
	out.ModuleRules = cloneRules(d.ModuleRules)
	out.AssetCopyRules = cloneSlice(d.AssetCopyRules)
	if d.Optimization != nil {
		opt := *d.Optimization
		if opt.SplitChunks != nil {
			sc := *opt.SplitChunks
			opt.SplitChunks = &sc
		}
		out.Optimization = &opt
	}
	out.Externals = maps.Clone(d.Externals)
	out.Define = maps.Clone(d.Define)
	out.Provide = maps.Clone(d.Provide)
	if d.HTMLPages != nil {
		out.HTMLPages = make([]HTMLPage, len(d.HTMLPages))
		for i, p := range d.HTMLPages {
			p.Chunks = cloneSlice(p.Chunks)
			out.HTMLPages[i] = p
		}
	}
	out.TemplateMeta.Meta = maps.Clone(d.TemplateMeta.Meta)
	if d.DevServer != nil {
		ds := *d.DevServer
		out.DevServer = &ds
	}
	return out
}

func (r Resolve) clone() Resolve {
	r.Alias = maps.Clone(r.Alias)
	r.MainFields = cloneSlice(r.MainFields)
	r.EmptyModules = cloneSlice(r.EmptyModules)
	return r
}

func cloneRules(rules []ModuleRule) []ModuleRule {
	if rules == nil {
		return nil
	}
	out := make([]ModuleRule, len(rules))
	for i, r := range rules {
		r.Test = cloneSlice(r.Test)
		r.Include = cloneSlice(r.Include)
		r.Transform = r.Transform.Clone()
		if r.Style != nil {
			s := *r.Style
			s.Processors = cloneSlice(s.Processors)
			r.Style = &s
		}
		if r.Asset != nil {
			a := *r.Asset
			r.Asset = &a
		}
		out[i] = r
	}
	return out
}

// Clone returns a deep copy of c.
func (c *TransformChain) Clone() *TransformChain {
	if c == nil {
		return nil
	}
	out := &TransformChain{
		Babelrc: c.Babelrc,
		Presets: cloneSlice(c.Presets),
	}
	if c.Plugins != nil {
		out.Plugins = make([]Plugin, len(c.Plugins))
		for i, p := range c.Plugins {
			p.Options = maps.Clone(p.Options)
			out.Plugins[i] = p
		}
	}
	if c.Overrides != nil {
		out.Overrides = make([]ChainOverride, len(c.Overrides))
		for i, o := range c.Overrides {
			o.Presets = cloneSlice(o.Presets)
			out.Overrides[i] = o
		}
	}
	return out
}

func cloneSlice[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}
