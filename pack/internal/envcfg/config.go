// Package envcfg resolves the build environment into an immutable Config.
// Every other planning package depends on Config rather than on the
// process environment.
package envcfg

import (
	"encoding/json"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeDevelopment Mode = "development"
	ModeProduction  Mode = "production"
)

// CacheEpoch is embedded in production filenames. Changing it produces new
// filenames for every chunk, bypassing any HTTP cache.
const CacheEpoch = "pentapod"

// Defaults
const (
	DefaultStaticPath   = "/static"
	DefaultRoutingStyle = "filehash"
	DefaultPort         = 8601
	DevSourceMap        = "cheap-module-source-map"
	BuildModeDist       = "dist"
)

// Config is the normalized build environment. Treat it as read-only.
type Config struct {
	Mode Mode `json:"mode" yaml:"mode"`
	// NodeEnv is NODE_ENV as given, or Mode when unset. Bundles see this
	// value, so "test" stays "test" while Mode is development.
	NodeEnv             string            `json:"nodeEnv" yaml:"nodeEnv"`
	RootPrefix          string            `json:"rootPrefix" yaml:"rootPrefix"`
	StaticPath          string            `json:"staticPath" yaml:"staticPath"`
	CacheEpoch          string            `json:"cacheEpoch" yaml:"cacheEpoch"`
	SourceMap           string            `json:"sourceMap" yaml:"sourceMap"`
	ExtraMeta           map[string]string `json:"extraMeta" yaml:"extraMeta"`
	RoutingStyle        string            `json:"routingStyle" yaml:"routingStyle"`
	EnableServiceWorker string            `json:"enableServiceWorker" yaml:"enableServiceWorker"`
	BuildMode           string            `json:"buildMode" yaml:"buildMode"`
	Port                int               `json:"port" yaml:"port"`
	Debug               bool              `json:"debug" yaml:"debug"`
	CI                  bool              `json:"ci" yaml:"ci"`
}

func (c *Config) IsProduction() bool { return c.Mode == ModeProduction }

// WantsLibrary reports whether the embeddable library target is built.
func (c *Config) WantsLibrary() bool {
	return c.IsProduction() || c.BuildMode == BuildModeDist
}

// Resolve derives a Config from env. It never reads the process environment.
func Resolve(env Env) (*Config, error) {
	root := env.Get(envRoot)
	if root != "" && !strings.HasSuffix(root, "/") {
		return nil, &ConfigValidationError{
			Key:    envRoot,
			Value:  root,
			Reason: "must have a trailing slash when set",
		}
	}

	meta, err := parseExtraMeta(env.Get(envExtraMeta))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Mode:                ModeDevelopment,
		RootPrefix:          root,
		StaticPath:          orDefault(env.Get(envStaticPath), DefaultStaticPath),
		CacheEpoch:          CacheEpoch,
		ExtraMeta:           meta,
		RoutingStyle:        orDefault(env.Get(envRoutingStyle), DefaultRoutingStyle),
		EnableServiceWorker: env.Get(envEnableServiceWorker),
		BuildMode:           env.Get(envBuildMode),
		Port:                parsePort(env.Get(envPort)),
		Debug:               env.Get(envDebug) != "",
		CI:                  env.Get(envCI) != "",
	}
	nodeEnv, ok := env.Lookup(envNodeEnv)
	if nodeEnv == string(ModeProduction) {
		cfg.Mode = ModeProduction
	}
	cfg.NodeEnv = string(cfg.Mode)
	if ok {
		cfg.NodeEnv = nodeEnv
	}

	if sm := env.Get(envSourceMap); sm != "" {
		cfg.SourceMap = sm
	} else if !cfg.IsProduction() {
		cfg.SourceMap = DevSourceMap
	}

	return cfg, nil
}

func parseExtraMeta(raw string) (map[string]string, error) {
	if raw == "" {
		raw = "{}"
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, &ConfigValidationError{
			Key:    envExtraMeta,
			Value:  raw,
			Reason: "must be a JSON object of strings",
			Err:    err,
		}
	}
	if meta == nil {
		meta = map[string]string{}
	}
	return meta, nil
}

func parsePort(raw string) int {
	p, err := strconv.Atoi(raw)
	if err != nil || p <= 0 {
		return DefaultPort
	}
	return p
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
