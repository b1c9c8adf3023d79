package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/Faultbox/bullyae-tools/internal/config"
	"github.com/Faultbox/bullyae-tools/internal/export"
	"github.com/Faultbox/bullyae-tools/internal/logger"
	"github.com/Faultbox/bullyae-tools/pkg/formats"
)

func (a *app) extractCmd() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Aliases:   []string{"x"},
		Usage:     "write every entry of a .tex file as PNG or DDS",
		ArgsUsage: "<file.tex> [output_dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "format", Aliases: []string{"f"}, Usage: "png or dds (default from config)"},
			&cli.IntFlag{Name: "max-size", Usage: "downscale PNGs so no side exceeds this"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return errors.New("usage: aetool extract <file.tex> [output_dir]")
			}
			outDir := "."
			if cmd.NArg() > 1 {
				outDir = cmd.Args().Get(1)
			}

			format := a.cfg.Export.Format
			if cmd.IsSet("format") {
				format = cmd.String("format")
			}
			format = strings.ToLower(format)
			if format != config.ExportPNG && format != config.ExportDDS {
				return fmt.Errorf("unknown format %q (want png or dds)", format)
			}

			tex, err := formats.ParseTEXFile(cmd.Args().First())
			if err != nil {
				return err
			}
			written, err := extractTEX(tex, outDir, format, int(cmd.Int("max-size")))
			for _, path := range written {
				fmt.Fprintf(stdout(cmd), "Extracted: %s\n", path)
			}
			return err
		},
	}
}

// extractTEX writes each entry into dir and returns the written paths.
// PNG export falls back to DDS for entries without raster pixels.
func extractTEX(tex *formats.TEX, dir, format string, maxSide int) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	var written []string
	for i := range tex.Entries {
		e := &tex.Entries[i]
		base := filepath.Join(dir, fileSafe(e.Name))

		if format == config.ExportPNG {
			path := base + ".png"
			err := writePNGFile(path, e, maxSide)
			if err == nil {
				written = append(written, path)
				continue
			}
			if !errors.Is(err, export.ErrNotImage) {
				return written, fmt.Errorf("entry %q: %w", e.Name, err)
			}
			logger.Warn("no raster pixels, writing DDS instead",
				zap.String("entry", e.Name),
				zap.Stringer("layout", e.Layout))
		}

		data, err := formats.WriteDDS(e)
		if err != nil {
			return written, fmt.Errorf("entry %q: %w", e.Name, err)
		}
		path := base + ".dds"
		if err := os.WriteFile(path, data, 0644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}

func writePNGFile(path string, e *formats.TEXEntry, maxSide int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WritePNG(f, e, maxSide); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// fileSafe maps an entry name to a file name.
func fileSafe(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, name)
	if name == "" || name == "." || name == ".." {
		return "texture"
	}
	return name
}
