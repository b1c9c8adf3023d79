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

	"github.com/Faultbox/bullyae-tools/internal/export"
	"github.com/Faultbox/bullyae-tools/internal/logger"
	"github.com/Faultbox/bullyae-tools/pkg/formats"
)

func (a *app) meshCmd() *cli.Command {
	return &cli.Command{
		Name:      "mesh",
		Usage:     "convert a .msh file to Wavefront OBJ",
		ArgsUsage: "<file.msh> [out.obj]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "textures", Aliases: []string{"t"}, Usage: "also write a material library and the bound textures"},
			&cli.BoolFlag{Name: "flip-v", Usage: "write texture coordinates as 1-v"},
			searchFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return errors.New("usage: aetool mesh <file.msh> [out.obj]")
			}
			in := cmd.Args().First()
			out := strings.TrimSuffix(filepath.Base(in), filepath.Ext(in)) + ".obj"
			if cmd.NArg() > 1 {
				out = cmd.Args().Get(1)
			}

			msh, err := a.parseMesh(in, cmd.StringSlice("search"))
			if err != nil {
				return err
			}
			if err := a.exportMesh(msh, out, cmd.Bool("textures"), cmd.Bool("flip-v")); err != nil {
				return err
			}

			vertices := 0
			for _, m := range msh.Meshes {
				vertices += int(m.VertexCount)
			}
			fmt.Fprintf(stdout(cmd), "Wrote: %s (%d meshes, %d vertices)\n", out, len(msh.Meshes), vertices)
			if n := len(msh.SidecarErrors); n > 0 {
				fmt.Fprintf(stdout(cmd), "%d sidecar file(s) could not be used, see log\n", n)
			}
			return nil
		},
	}
}

// exportMesh writes out as OBJ. With textures it also writes out+".mtl"
// and one image per bound texture next to it.
func (a *app) exportMesh(msh *formats.MSH, out string, textures, flipV bool) error {
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	opts := export.OBJOptions{FlipV: flipV}
	if textures {
		lib := out + ".mtl"
		opts.MaterialLib = filepath.Base(lib)
		if err := a.writeMaterialLib(msh, lib); err != nil {
			return err
		}
	}

	f, err := os.Create(out)
	if err != nil {
		return err
	}
	if err := export.WriteOBJ(f, msh, opts); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func (a *app) writeMaterialLib(msh *formats.MSH, path string) error {
	dir := filepath.Dir(path)
	names := make(map[*formats.TEX]string)

	namer := func(tex *formats.TEX) string {
		if name, ok := names[tex]; ok {
			return name
		}
		names[tex] = ""
		if len(tex.Entries) == 0 {
			return ""
		}
		format := a.cfg.Export.Format
		written, err := extractTEX(&formats.TEX{Entries: tex.Entries[:1]}, dir, format, 0)
		if err != nil || len(written) == 0 {
			logger.Warn("texture not exported", zap.String("texture", tex.Name), zap.Error(err))
			return ""
		}
		names[tex] = filepath.Base(written[0])
		return names[tex]
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.WriteMTL(f, msh, namer); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
