// dds2tex rebuilds a Bully: Anniversary Edition texture container from a DDS
// image, keeping the metadata of the container it replaces.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Faultbox/bullyae-tools/internal/config"
	"github.com/Faultbox/bullyae-tools/internal/logger"
)

func main() {
	var opts options

	app := &cli.Command{
		Name:      "dds2tex",
		Usage:     "replace the image inside a .tex container with a DDS",
		UsageText: "dds2tex -i texture.dds -o texture.tex [-c]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "input",
				Aliases:     []string{"i"},
				Usage:       "input file (DDS)",
				Destination: &opts.input,
			},
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "output file (TEX), rewritten in place",
				Destination: &opts.output,
			},
			&cli.BoolFlag{
				Name:    "compress",
				Aliases: []string{"c"},
				Usage:   "compress the texture data",
			},
			&cli.IntFlag{
				Name:  "level",
				Usage: "zlib compression level (-2..9)",
			},
			&cli.StringFlag{
				Name:        "config",
				Usage:       "path to config file",
				Destination: &opts.configPath,
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level (debug, info, warn, error)",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			var ov config.Overrides
			if cmd.IsSet("compress") {
				v := cmd.Bool("compress")
				ov.Compress = &v
			}
			if cmd.IsSet("level") {
				v := int(cmd.Int("level"))
				ov.Level = &v
			}
			if cmd.IsSet("log-level") {
				v := cmd.String("log-level")
				ov.LogLevel = &v
			}
			opts.overrides = ov
			return convert(opts, os.Stdout)
		},
	}

	err := app.Run(context.Background(), os.Args)
	logger.Sync()
	if err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
