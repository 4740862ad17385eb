package commands

import (
	"context"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/sendarcade/alphapack/pack"
)

type PlanCmd struct {
	Format string `help:"Output format." enum:"json,yaml" default:"json"`
	Target string `help:"Only print the named target." default:""`
}

func (p *PlanCmd) Run(ctx context.Context, globals *Globals) error {
	_, targets, err := globals.plan()
	if err != nil {
		return err
	}

	if p.Target != "" {
		targets, err = selectTarget(targets, p.Target)
		if err != nil {
			return err
		}
	}

	out := globals.stdout()
	switch p.Format {
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(targets); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(targets); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	}
}

func selectTarget(targets []pack.Target, name string) ([]pack.Target, error) {
	for _, t := range targets {
		if t.Name == name {
			return []pack.Target{t}, nil
		}
	}
	return nil, fmt.Errorf("no target %q in this environment", name)
}
