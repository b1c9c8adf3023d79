package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/Faultbox/bullyae-tools/pkg/encoding"
	"github.com/Faultbox/bullyae-tools/pkg/formats"
	"github.com/Faultbox/bullyae-tools/pkg/metatext"
)

func (a *app) decryptCmd() *cli.Command {
	return &cli.Command{
		Name:      "decrypt",
		Usage:     "print the text of a .mtl material sidecar",
		ArgsUsage: "<file.mtl>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the parsed value tree as JSON"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return errors.New("usage: aetool decrypt <file.mtl>")
			}
			path := cmd.Args().First()

			if cmd.Bool("json") {
				mat, err := formats.ParseMaterialFile(path)
				if err != nil {
					return err
				}
				return writeJSON(stdout(cmd), mat.Info.Interface())
			}

			data, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			if !strings.HasPrefix(string(data), formats.MaterialMagic) {
				return fmt.Errorf("%w: %s has no %q magic", formats.ErrInvalidFormat, filepath.Base(path), formats.MaterialMagic)
			}
			fmt.Fprintln(stdout(cmd), encoding.Deobfuscate(data[len(formats.MaterialMagic):]))
			return nil
		},
	}
}

func (a *app) encryptCmd() *cli.Command {
	return &cli.Command{
		Name:      "encrypt",
		Usage:     "build a .mtl material sidecar from plain text",
		ArgsUsage: "<plain.txt> <out.mtl>",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 2 {
				return errors.New("usage: aetool encrypt <plain.txt> <out.mtl>")
			}
			plain, err := os.ReadFile(cmd.Args().Get(0))
			if err != nil {
				return err
			}
			text := strings.TrimRight(string(plain), "\r\n")
			if _, err := metatext.Parse(text); err != nil {
				return fmt.Errorf("refusing to encode: %w", err)
			}

			out := cmd.Args().Get(1)
			if err := os.WriteFile(out, formats.EncodeMaterial(text), 0644); err != nil {
				return err
			}
			fmt.Fprintf(stdout(cmd), "Wrote: %s\n", out)
			return nil
		},
	}
}
