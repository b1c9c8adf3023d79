package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/urfave/cli/v3"

	"github.com/Faultbox/bullyae-tools/internal/config"
)

func (a *app) configCmd() *cli.Command {
	return &cli.Command{
		Name:      "config",
		Usage:     "write the effective configuration to a YAML file",
		ArgsUsage: "[path]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := filepath.Join(config.ConfigDir(), config.FileName)
			var err error
			if cmd.NArg() > 0 {
				path = cmd.Args().First()
				err = a.cfg.SaveTo(path)
			} else {
				err = a.cfg.Save()
			}
			if err != nil {
				return fmt.Errorf("saving config: %w", err)
			}
			fmt.Fprintf(stdout(cmd), "Wrote: %s\n", path)
			return nil
		},
	}
}
