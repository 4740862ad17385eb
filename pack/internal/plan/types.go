// Package plan defines the build target descriptor emitted by the planner
// and the merge law used to derive targets from a shared base.
package plan

// Descriptor fully specifies one artifact set. It is plain data: safe to
// serialize, and never mutated once returned by Derive.
type Descriptor struct {
	Name     string `json:"name" yaml:"name"`
	Mode     string `json:"mode" yaml:"mode"`
	Platform string `json:"platform,omitempty" yaml:"platform,omitempty"`

	// Entry maps a logical chunk name to its source file.
	Entry  map[string]string `json:"entry,omitempty" yaml:"entry,omitempty"`
	Output Output            `json:"output" yaml:"output"`

	Resolve Resolve `json:"resolve" yaml:"resolve"`

	// ModuleRules apply in order; later rules may transform output of earlier ones.
	ModuleRules    []ModuleRule    `json:"moduleRules,omitempty" yaml:"moduleRules,omitempty"`
	AssetCopyRules []AssetCopyRule `json:"assetCopyRules,omitempty" yaml:"assetCopyRules,omitempty"`
	Optimization   *Optimization   `json:"optimization,omitempty" yaml:"optimization,omitempty"`

	// Externals maps a specifier to the host-provided global that replaces it.
	Externals map[string]string `json:"externals,omitempty" yaml:"externals,omitempty"`
	// Define maps an expression to the JSON-encoded value substituted for it.
	Define    map[string]string       `json:"define,omitempty" yaml:"define,omitempty"`
	Provide   map[string]ProvidedName `json:"provide,omitempty" yaml:"provide,omitempty"`
	HTMLPages []HTMLPage              `json:"htmlPages,omitempty" yaml:"htmlPages,omitempty"`

	TemplateMeta TemplateMeta `json:"templateMeta" yaml:"templateMeta"`
	DevServer    *DevServer   `json:"devServer,omitempty" yaml:"devServer,omitempty"`
	SourceMap    string       `json:"sourceMap,omitempty" yaml:"sourceMap,omitempty"`
	Progress     bool         `json:"progress,omitempty" yaml:"progress,omitempty"`
}

type Output struct {
	Path          string `json:"path,omitempty" yaml:"path,omitempty"`
	Filename      string `json:"filename,omitempty" yaml:"filename,omitempty"`
	ChunkFilename string `json:"chunkFilename,omitempty" yaml:"chunkFilename,omitempty"`
	PublicPath    string `json:"publicPath,omitempty" yaml:"publicPath,omitempty"`
	Library       string `json:"library,omitempty" yaml:"library,omitempty"`
	LibraryTarget string `json:"libraryTarget,omitempty" yaml:"libraryTarget,omitempty"`
}

type Resolve struct {
	Alias        map[string]string `json:"alias,omitempty" yaml:"alias,omitempty"`
	MainFields   []string          `json:"mainFields,omitempty" yaml:"mainFields,omitempty"`
	EmptyModules []string          `json:"emptyModules,omitempty" yaml:"emptyModules,omitempty"`
	Symlinks     bool              `json:"symlinks" yaml:"symlinks"`
}

// Loader names understood by the downstream engines.
const (
	LoaderTransform = "transform"
	LoaderStyle     = "style"
	LoaderAsset     = "asset"
)

// ModuleTypeAuto marks files parsed with classic module auto-detection and
// no syntax transform.
const ModuleTypeAuto = "javascript/auto"

type ModuleRule struct {
	Name string `json:"name" yaml:"name"`
	// Test lists the file extensions the rule applies to.
	Test []string `json:"test" yaml:"test"`
	// Include lists path matchers in their string form. Empty means any path.
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`
	Loader  string   `json:"loader,omitempty" yaml:"loader,omitempty"`
	Type    string   `json:"type,omitempty" yaml:"type,omitempty"`

	Transform *TransformChain `json:"transform,omitempty" yaml:"transform,omitempty"`
	Style     *StyleChain     `json:"style,omitempty" yaml:"style,omitempty"`
	Asset     *AssetOptions   `json:"asset,omitempty" yaml:"asset,omitempty"`
}

// Module output modes for the environment-target preset.
const (
	ModulesAuto     = "auto"
	ModulesCommonJS = "commonjs"
)

// Preset names
const (
	PresetEnv   = "@babel/preset-env"
	PresetReact = "@babel/preset-react"
)

type TransformChain struct {
	// Babelrc is always false: nested package configuration is never read.
	Babelrc   bool            `json:"babelrc" yaml:"babelrc"`
	Presets   []Preset        `json:"presets" yaml:"presets"`
	Plugins   []Plugin        `json:"plugins" yaml:"plugins"`
	Overrides []ChainOverride `json:"overrides,omitempty" yaml:"overrides,omitempty"`
}

type Preset struct {
	Name    string `json:"name" yaml:"name"`
	Modules string `json:"modules,omitempty" yaml:"modules,omitempty"`
}

type Plugin struct {
	Name    string            `json:"name" yaml:"name"`
	Options map[string]string `json:"options,omitempty" yaml:"options,omitempty"`
}

// ChainOverride replaces presets for paths matching Test.
type ChainOverride struct {
	Test    string   `json:"test" yaml:"test"`
	Presets []Preset `json:"presets" yaml:"presets"`
}

// ModuleMode returns the effective module output mode of the env preset.
func (c *TransformChain) ModuleMode() string {
	if c == nil {
		return ModulesAuto
	}
	for _, p := range c.Presets {
		if p.Name == PresetEnv && p.Modules != "" {
			return p.Modules
		}
	}
	return ModulesAuto
}

// StyleChain describes the ordered CSS processor chain.
type StyleChain struct {
	Processors     []string `json:"processors" yaml:"processors"`
	Modules        bool     `json:"modules" yaml:"modules"`
	LocalIdentName string   `json:"localIdentName,omitempty" yaml:"localIdentName,omitempty"`
	CamelCase      bool     `json:"camelCase" yaml:"camelCase"`
	InjectStyle    bool     `json:"injectStyle" yaml:"injectStyle"`
}

// AssetOptions inline assets up to Limit bytes as data URIs and emit larger
// ones under OutputPath.
type AssetOptions struct {
	Limit      int    `json:"limit" yaml:"limit"`
	OutputPath string `json:"outputPath" yaml:"outputPath"`
	PublicPath string `json:"publicPath,omitempty" yaml:"publicPath,omitempty"`
	ESModule   bool   `json:"esModule" yaml:"esModule"`
}

type AssetCopyRule struct {
	From    string `json:"from" yaml:"from"`
	To      string `json:"to" yaml:"to"`
	Context string `json:"context,omitempty" yaml:"context,omitempty"`
	// Force overwrites files already written by an earlier rule.
	Force            bool `json:"force,omitempty" yaml:"force,omitempty"`
	Flatten          bool `json:"flatten,omitempty" yaml:"flatten,omitempty"`
	NoErrorOnMissing bool `json:"noErrorOnMissing,omitempty" yaml:"noErrorOnMissing,omitempty"`
}

type Optimization struct {
	SplitChunks *SplitChunks `json:"splitChunks,omitempty" yaml:"splitChunks,omitempty"`
}

type SplitChunks struct {
	Chunks             string `json:"chunks" yaml:"chunks"`
	MinChunks          int    `json:"minChunks" yaml:"minChunks"`
	MinSize            int    `json:"minSize" yaml:"minSize"`
	MaxInitialRequests int    `json:"maxInitialRequests" yaml:"maxInitialRequests"`
}

type ProvidedName struct {
	Module string `json:"module" yaml:"module"`
	Export string `json:"export" yaml:"export"`
}

type HTMLPage struct {
	Template string   `json:"template" yaml:"template"`
	Filename string   `json:"filename" yaml:"filename"`
	Title    string   `json:"title" yaml:"title"`
	Chunks   []string `json:"chunks" yaml:"chunks"`
}

// TemplateMeta is passed to every HTML template the targets render.
type TemplateMeta struct {
	Root    string            `json:"root" yaml:"root"`
	Meta    map[string]string `json:"meta" yaml:"meta"`
	AppName string            `json:"appName" yaml:"appName"`
}

type DevServer struct {
	ContentBase     string `json:"contentBase" yaml:"contentBase"`
	Host            string `json:"host" yaml:"host"`
	Port            int    `json:"port" yaml:"port"`
	Compress        bool   `json:"compress" yaml:"compress"`
	DisableHost     bool   `json:"disableHostCheck" yaml:"disableHostCheck"`
	HistoryFallback string `json:"historyApiFallback" yaml:"historyApiFallback"`
}
