package main

import (
	"context"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/sendarcade/alphapack/cmd/alphapack/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Plan    commands.PlanCmd  `cmd:"" help:"Print the derived build targets"`
		Build   commands.BuildCmd `cmd:"" help:"Build every derived target"`
		Watch   commands.WatchCmd `cmd:"" help:"Build, then rebuild on source changes"`
		Debug   bool              `help:"Enable debug logging."`
		Dir     string            `help:"Project directory." default:"." type:"path"`
		EnvFile string            `help:"Dotenv file, relative to the project directory. Process variables win." default:".env"`
		Version kong.VersionFlag
	}
)

func shutdownSignals() []os.Signal {
	if runtime.GOOS == "windows" {
		return []os.Signal{os.Interrupt}
	}
	return []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), shutdownSignals()...)
	defer stop()

	cmd := kong.Parse(&cli,
		kong.Name("alphapack"),
		kong.Description("Derive and build the playground and library targets."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{
		Debug:   cli.Debug,
		Dir:     cli.Dir,
		EnvFile: cli.EnvFile,
		Version: version,
	})
	cmd.FatalIfErrorf(err)
}
