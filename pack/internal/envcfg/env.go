package envcfg

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variable keys
const (
	envNodeEnv             = "NODE_ENV"
	envStaticPath          = "STATIC_PATH"
	envRoot                = "ROOT"
	envExtraMeta           = "EXTRA_META"
	envSourceMap           = "SOURCEMAP"
	envPort                = "PORT"
	envDebug               = "DEBUG"
	envEnableServiceWorker = "ENABLE_SERVICE_WORKER"
	envRoutingStyle        = "ROUTING_STYLE"
	envBuildMode           = "BUILD_MODE"
	envCI                  = "CI"
)

// Env is an opaque snapshot of environment variables.
type Env map[string]string

// Get returns the value for key, or "" when unset.
func (e Env) Get(key string) string {
	return e[key]
}

// Lookup reports whether key is present, even if empty.
func (e Env) Lookup(key string) (string, bool) {
	v, ok := e[key]
	return v, ok
}

// FromOS snapshots the current process environment.
func FromOS() Env {
	env := make(Env)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}
		env[k] = v
	}
	return env
}

// LoadDotenv reads a .env file. A missing file yields an empty Env.
func LoadDotenv(path string) (Env, error) {
	if path == "" {
		return Env{}, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Env{}, nil
	}
	vals, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}
	return Env(vals), nil
}

// Overlay returns a new Env holding base with every key of top applied over it.
func Overlay(base, top Env) Env {
	out := make(Env, len(base)+len(top))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range top {
		out[k] = v
	}
	return out
}
