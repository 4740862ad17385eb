package commands

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sendarcade/alphapack/kit/colorlog"
	"github.com/sendarcade/alphapack/pack"
)

type Globals struct {
	Debug   bool
	Dir     string
	EnvFile string
	Version string

	// Stdout receives command output. Nil means os.Stdout.
	Stdout io.Writer
	// LogOutput receives log lines. Nil means os.Stderr.
	LogOutput io.Writer
}

func (g *Globals) stdout() io.Writer {
	if g.Stdout == nil {
		return os.Stdout
	}
	return g.Stdout
}

func (g *Globals) logger() *slog.Logger {
	out := g.LogOutput
	if out == nil {
		out = os.Stderr
	}
	return colorlog.New("alphapack", colorlog.Options{
		Output: out,
		Level:  colorlog.LevelFor(g.Debug),
	})
}

func (g *Globals) projectDir() (string, error) {
	dir := g.Dir
	if dir == "" {
		dir = "."
	}
	return filepath.Abs(dir)
}

// plan loads the environment and derives the targets.
func (g *Globals) plan() (string, []pack.Target, error) {
	dir, err := g.projectDir()
	if err != nil {
		return "", nil, err
	}

	envFile := g.EnvFile
	if envFile != "" && !filepath.IsAbs(envFile) {
		envFile = filepath.Join(dir, envFile)
	}
	env, err := pack.LoadEnv(envFile)
	if err != nil {
		return "", nil, err
	}

	targets, err := pack.Plan(env, pack.Options{ProjectDir: dir})
	if err != nil {
		return "", nil, err
	}
	return dir, targets, nil
}
