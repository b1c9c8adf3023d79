package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/Faultbox/bullyae-tools/internal/assets"
	"github.com/Faultbox/bullyae-tools/internal/logger"
	"github.com/Faultbox/bullyae-tools/pkg/formats"
)

// Asset kinds reported by info.
const (
	kindTexture  = "texture"
	kindMesh     = "mesh"
	kindMaterial = "material"
)

// report is the structured result of inspecting one file.
type report interface {
	print(w io.Writer)
}

type texReport struct {
	Kind         string           `json:"kind"`
	Name         string           `json:"name"`
	Version      uint32           `json:"version"`
	InternalPath string           `json:"internal_path,omitempty"`
	Info         any              `json:"info"`
	Entries      []texEntryReport `json:"entries"`
}

type texEntryReport struct {
	Name       string `json:"name"`
	Format     string `json:"format"`
	Width      uint32 `json:"width"`
	Height     uint32 `json:"height"`
	Mips       uint32 `json:"mips"`
	Compressed bool   `json:"compressed"`
	Layout     string `json:"layout"`
	Bytes      int    `json:"bytes"`
}

type mshReport struct {
	Kind          string        `json:"kind"`
	Name          string        `json:"name"`
	Version       uint32        `json:"version"`
	Materials     []materialRef `json:"materials"`
	Bones         []boneReport  `json:"bones"`
	Meshes        []meshReport  `json:"meshes"`
	SidecarErrors []string      `json:"sidecar_errors,omitempty"`
}

type materialRef struct {
	Index    int    `json:"index"`
	Name     string `json:"name"`
	Resolved bool   `json:"resolved"`
	Effect   string `json:"effect,omitempty"`
	Base     string `json:"base,omitempty"`
	Normal   string `json:"normal,omitempty"`
	Specular string `json:"specular,omitempty"`
}

type boneReport struct {
	Index       int32      `json:"index"`
	Name        string     `json:"name"`
	Translation [3]float32 `json:"translation"`
}

type meshReport struct {
	Name      string          `json:"name"`
	Vertices  uint32          `json:"vertices"`
	Indices   int             `json:"indices"`
	Layout    []string        `json:"layout"`
	Submeshes []submeshReport `json:"submeshes"`
}

type submeshReport struct {
	Start    uint32 `json:"start"`
	Count    uint32 `json:"count"`
	Material uint32 `json:"material"`
}

type mtlReport struct {
	Kind        string   `json:"kind"`
	Name        string   `json:"name"`
	Effect      string   `json:"effect"`
	Textures    []string `json:"textures"`
	DoubleSided bool     `json:"double_sided"`
	AlphaTest   bool     `json:"alpha_test"`
	Info        any      `json:"info"`
}

func (a *app) infoCmd() *cli.Command {
	return &cli.Command{
		Name:      "info",
		Usage:     "show the structure of a .tex, .msh or .mtl file",
		ArgsUsage: "<file>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "print the report as JSON"},
			searchFlag(),
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() < 1 {
				return errors.New("usage: aetool info <file>")
			}
			path := cmd.Args().First()

			rep, err := a.inspect(path, cmd.StringSlice("search"))
			if err != nil {
				return err
			}
			if cmd.Bool("json") {
				return writeJSON(stdout(cmd), rep)
			}
			rep.print(stdout(cmd))
			return nil
		},
	}
}

// detectKind uses the extension and falls back to the file's leading bytes.
func detectKind(path string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tex":
		return kindTexture, nil
	case ".msh":
		return kindMesh, nil
	case ".mtl":
		return kindMaterial, nil
	}
	switch {
	case bytes.HasPrefix(data, []byte(formats.MaterialMagic)):
		return kindMaterial, nil
	case formats.IsTEX(data):
		return kindTexture, nil
	case formats.IsMSH(data):
		return kindMesh, nil
	}
	return "", fmt.Errorf("%w: cannot tell what %s is", formats.ErrInvalidFormat, filepath.Base(path))
}

func (a *app) inspect(path string, search []string) (report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	kind, err := detectKind(path, data)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	switch kind {
	case kindTexture:
		tex, err := formats.ParseTEX(data, name)
		if err != nil {
			return nil, err
		}
		return newTexReport(tex), nil
	case kindMaterial:
		mat, err := formats.ParseMaterial(data, name)
		if err != nil {
			return nil, err
		}
		return newMtlReport(mat), nil
	default:
		msh, err := a.parseMesh(path, search)
		if err != nil {
			return nil, err
		}
		return newMshReport(name, msh), nil
	}
}

// searchFlag adds sidecar directories on top of mesh.search_paths.
func searchFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "search",
		Aliases: []string{"s"},
		Usage:   "extra directory to look for .mtl and .tex sidecars in",
	}
}

// parseMesh parses a mesh, resolving sidecars from the configured search
// paths, then the extra directories, then the mesh's own directory, which
// wins.
func (a *app) parseMesh(meshPath string, extra []string) (*formats.MSH, error) {
	resolver := assets.NewManager()
	defer resolver.Close()

	for _, dir := range append(append([]string(nil), a.cfg.Mesh.SearchPaths...), extra...) {
		if err := resolver.AddDir(dir); err != nil {
			return nil, err
		}
	}
	if err := resolver.AddDir(filepath.Dir(meshPath)); err != nil {
		return nil, err
	}

	msh, err := formats.ParseMSHFile(meshPath,
		formats.WithResolver(resolver),
		formats.WithLogger(logger.Named("formats")),
		formats.WithTextureCache(a.cfg.Mesh.CacheTextures),
		formats.WithSidecarExtensions(a.cfg.Mesh.TextureExt, a.cfg.Mesh.MaterialExt),
	)
	if err != nil {
		return nil, err
	}

	hits, misses := resolver.Stats()
	logger.Debug("sidecar lookups",
		zap.String("mesh", meshPath),
		zap.Strings("dirs", resolver.Dirs()),
		zap.Int("hits", hits),
		zap.Int("misses", misses))
	return msh, nil
}

func newTexReport(tex *formats.TEX) *texReport {
	rep := &texReport{
		Kind:         kindTexture,
		Name:         tex.Name,
		Version:      tex.Header.Version,
		InternalPath: tex.InternalPath,
		Info:         tex.Info.Interface(),
	}
	for _, e := range tex.Entries {
		rep.Entries = append(rep.Entries, texEntryReport{
			Name:       e.Name,
			Format:     e.Format.String(),
			Width:      e.Width,
			Height:     e.Height,
			Mips:       e.MipCount,
			Compressed: e.CompressedOnDisk,
			Layout:     e.Layout.String(),
			Bytes:      len(e.Data),
		})
	}
	return rep
}

func (r *texReport) print(w io.Writer) {
	fmt.Fprintf(w, "Texture: %s\n", r.Name)
	fmt.Fprintf(w, "Version: %d\n", r.Version)
	if r.InternalPath != "" {
		fmt.Fprintf(w, "Source:  %s\n", r.InternalPath)
	}
	fmt.Fprintf(w, "Entries: %d\n", len(r.Entries))
	for i, e := range r.Entries {
		compressed := ""
		if e.Compressed {
			compressed = ", zlib"
		}
		fmt.Fprintf(w, "  [%d] %s %dx%d %s, %d mips%s -> %s (%d bytes)\n",
			i, e.Name, e.Width, e.Height, e.Format, e.Mips, compressed, e.Layout, e.Bytes)
	}
}

func newMshReport(name string, msh *formats.MSH) *mshReport {
	rep := &mshReport{
		Kind:    kindMesh,
		Name:    name,
		Version: msh.Header.Version,
	}
	for i, matName := range msh.MaterialNames {
		ref := materialRef{Index: i, Name: matName}
		if b := msh.Materials[uint32(i)]; b != nil {
			ref.Resolved = true
			if b.Material != nil {
				ref.Effect = b.Material.Effect
			}
			ref.Base = texName(b.Base)
			ref.Normal = texName(b.Normal)
			ref.Specular = texName(b.Specular)
		}
		rep.Materials = append(rep.Materials, ref)
	}
	for _, b := range msh.Bones {
		t := b.Matrix.Row(3)
		rep.Bones = append(rep.Bones, boneReport{Index: b.Index, Name: b.Name, Translation: [3]float32(t)})
	}
	for _, m := range msh.Meshes {
		mr := meshReport{Name: m.Name, Vertices: m.VertexCount, Indices: len(m.Indices)}
		for _, attr := range m.Layout {
			mr.Layout = append(mr.Layout, attributeName(attr))
		}
		for _, s := range m.Submeshes {
			mr.Submeshes = append(mr.Submeshes, submeshReport{Start: s.IndexStart, Count: s.IndexCount, Material: s.MaterialIndex})
		}
		rep.Meshes = append(rep.Meshes, mr)
	}
	for _, err := range msh.SidecarErrors {
		rep.SidecarErrors = append(rep.SidecarErrors, err.Error())
	}
	return rep
}

func texName(t *formats.TEX) string {
	if t == nil {
		return ""
	}
	return t.Name
}

func attributeName(attr formats.MSHAttribute) string {
	var role string
	switch attr.Assignment {
	case formats.AssignPosition:
		role = "position"
	case formats.AssignUV:
		role = "uv"
	case formats.AssignNormal:
		role = "normal"
	default:
		role = fmt.Sprintf("slot%d", attr.Assignment)
	}
	s := fmt.Sprintf("%s:type%d", role, attr.DataType)
	if !attr.Interpreted() {
		s += " (skipped)"
	}
	return s
}

func (r *mshReport) print(w io.Writer) {
	fmt.Fprintf(w, "Mesh:    %s\n", r.Name)
	fmt.Fprintf(w, "Version: %d\n", r.Version)

	fmt.Fprintf(w, "Materials: %d\n", len(r.Materials))
	for _, m := range r.Materials {
		status := "unresolved"
		if m.Resolved {
			status = fmt.Sprintf("effect=%s base=%s normal=%s specular=%s", m.Effect, m.Base, m.Normal, m.Specular)
		}
		fmt.Fprintf(w, "  [%d] %-24s %s\n", m.Index, m.Name, status)
	}

	fmt.Fprintf(w, "Bones: %d\n", len(r.Bones))
	for _, b := range r.Bones {
		fmt.Fprintf(w, "  [%d] %-24s at %v\n", b.Index, b.Name, b.Translation)
	}

	fmt.Fprintf(w, "Meshes: %d\n", len(r.Meshes))
	for _, m := range r.Meshes {
		fmt.Fprintf(w, "  %s: %d vertices, %d indices, layout %s\n",
			m.Name, m.Vertices, m.Indices, strings.Join(m.Layout, ", "))
		for _, s := range m.Submeshes {
			fmt.Fprintf(w, "    submesh %d+%d material %d\n", s.Start, s.Count, s.Material)
		}
	}

	if len(r.SidecarErrors) > 0 {
		fmt.Fprintf(w, "Sidecar problems: %d\n", len(r.SidecarErrors))
		for _, e := range r.SidecarErrors {
			fmt.Fprintf(w, "  %s\n", e)
		}
	}
}

func newMtlReport(m *formats.Material) *mtlReport {
	return &mtlReport{
		Kind:        kindMaterial,
		Name:        m.Name,
		Effect:      m.Effect,
		Textures:    m.Textures,
		DoubleSided: m.DoubleSided,
		AlphaTest:   m.AlphaTest,
		Info:        m.Info.Interface(),
	}
}

func (r *mtlReport) print(w io.Writer) {
	fmt.Fprintf(w, "Material:     %s\n", r.Name)
	fmt.Fprintf(w, "Effect:       %s\n", r.Effect)
	fmt.Fprintf(w, "Textures:     %s\n", strings.Join(r.Textures, ", "))
	fmt.Fprintf(w, "Double sided: %v\n", r.DoubleSided)
	fmt.Fprintf(w, "Alpha test:   %v\n", r.AlphaTest)
}
