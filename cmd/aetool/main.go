// aetool inspects and converts Bully: Anniversary Edition asset files.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/urfave/cli/v3"

	"github.com/Faultbox/bullyae-tools/internal/config"
	"github.com/Faultbox/bullyae-tools/internal/logger"
)

// app carries the merged configuration into every command.
type app struct {
	cfg        *config.Config
	configPath string
}

func main() {
	err := newApp().Run(context.Background(), os.Args)
	logger.Sync()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	a := &app{cfg: config.Default()}

	return &cli.Command{
		Name:  "aetool",
		Usage: "Bully: Anniversary Edition asset utility",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to config file",
				Destination: &a.configPath,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "also write logs to this file",
			},
		},
		Before: a.setup,
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			a.infoCmd(),
			a.extractCmd(),
			a.decryptCmd(),
			a.encryptCmd(),
			a.meshCmd(),
			a.configCmd(),
		},
	}
}

// setup loads the config and starts logging before any command runs.
func (a *app) setup(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	var ov config.Overrides
	if cmd.IsSet("log-level") {
		v := cmd.String("log-level")
		ov.LogLevel = &v
	}
	if cmd.IsSet("log-file") {
		v := cmd.String("log-file")
		ov.LogFile = &v
	}

	cfg, err := config.Load(a.configPath, ov)
	if err != nil {
		return ctx, err
	}
	a.cfg = cfg

	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		return ctx, fmt.Errorf("init logger: %w", err)
	}
	return ctx, nil
}

// stdout returns the writer command output goes to.
func stdout(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
