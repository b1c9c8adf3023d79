package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/Faultbox/bullyae-tools/pkg/formats"
)

// OBJOptions controls WriteOBJ.
type OBJOptions struct {
	MaterialLib string // emitted as mtllib when set
	FlipV       bool   // write 1-v for texture coordinates
}

// WriteOBJ writes every mesh of m as a Wavefront OBJ object. Submeshes become
// usemtl groups named after their material.
func WriteOBJ(w io.Writer, m *formats.MSH, opts OBJOptions) error {
	bw := bufio.NewWriter(w)

	if opts.MaterialLib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", opts.MaterialLib)
	}

	// OBJ indices are global and 1-based.
	var vBase, vtBase, vnBase int
	for i := range m.Meshes {
		mesh := &m.Meshes[i]

		name := mesh.Name
		if name == "" {
			name = fmt.Sprintf("mesh_%d", i)
		}
		fmt.Fprintf(bw, "o %s\n", objName(name))

		positions := mesh.PositionVec3()
		for _, p := range positions {
			fmt.Fprintf(bw, "v %g %g %g\n", p.X(), p.Y(), p.Z())
		}
		uvs := mesh.UVVec2()
		for _, uv := range uvs {
			v := uv.Y()
			if opts.FlipV {
				v = 1 - v
			}
			fmt.Fprintf(bw, "vt %g %g\n", uv.X(), v)
		}
		normals := normalVec3(mesh)
		for _, n := range normals {
			fmt.Fprintf(bw, "vn %g %g %g\n", n.X(), n.Y(), n.Z())
		}

		groups := mesh.Submeshes
		if len(groups) == 0 {
			groups = []formats.MSHSubmesh{{IndexCount: uint32(len(mesh.Indices)), Indices: mesh.Indices}}
		}
		for _, sub := range groups {
			if len(mesh.Submeshes) > 0 {
				fmt.Fprintf(bw, "usemtl %s\n", objName(materialName(m, sub.MaterialIndex)))
			}
			for t := 0; t+3 <= len(sub.Indices); t += 3 {
				bw.WriteString("f")
				for _, idx := range sub.Indices[t : t+3] {
					if int(idx) >= len(positions) {
						return fmt.Errorf("%w: mesh %q index %d outside %d vertices",
							formats.ErrInvalidFormat, name, idx, len(positions))
					}
					bw.WriteString(faceVertex(int(idx), vBase, vtBase, vnBase, len(uvs) > 0, len(normals) > 0))
				}
				bw.WriteString("\n")
			}
		}

		vBase += len(positions)
		vtBase += len(uvs)
		vnBase += len(normals)
	}
	return bw.Flush()
}

func faceVertex(idx, vBase, vtBase, vnBase int, hasUV, hasNormal bool) string {
	v := vBase + idx + 1
	switch {
	case hasUV && hasNormal:
		return fmt.Sprintf(" %d/%d/%d", v, vtBase+idx+1, vnBase+idx+1)
	case hasUV:
		return fmt.Sprintf(" %d/%d", v, vtBase+idx+1)
	case hasNormal:
		return fmt.Sprintf(" %d//%d", v, vnBase+idx+1)
	}
	return fmt.Sprintf(" %d", v)
}

// normalVec3 returns unit normals, or nil unless the mesh has three
// components per vertex.
func normalVec3(mesh *formats.MSHMesh) []mgl32.Vec3 {
	if mesh.VertexCount == 0 || len(mesh.Normals) < int(mesh.VertexCount)*3 {
		return nil
	}
	n := len(mesh.Normals) / int(mesh.VertexCount)
	out := make([]mgl32.Vec3, mesh.VertexCount)
	for i := range out {
		v := mgl32.Vec3{mesh.Normals[i*n], mesh.Normals[i*n+1], mesh.Normals[i*n+2]}
		if v.Len() > 0 {
			v = v.Normalize()
		}
		out[i] = v
	}
	return out
}

func materialName(m *formats.MSH, idx uint32) string {
	if int(idx) < len(m.MaterialNames) && m.MaterialNames[idx] != "" {
		return m.MaterialNames[idx]
	}
	return fmt.Sprintf("material_%d", idx)
}

// objName replaces whitespace, which OBJ statements cannot carry.
func objName(s string) string {
	return strings.Join(strings.Fields(s), "_")
}

// TextureNamer maps a resolved sidecar texture to the file name written next
// to the OBJ. An empty result omits the map.
type TextureNamer func(tex *formats.TEX) string

// WriteMTL writes a Wavefront material library for the materials of m.
// Unresolved materials get a plain white entry.
func WriteMTL(w io.Writer, m *formats.MSH, name TextureNamer) error {
	bw := bufio.NewWriter(w)
	for i := range m.MaterialNames {
		fmt.Fprintf(bw, "newmtl %s\n", objName(materialName(m, uint32(i))))
		bw.WriteString("Kd 1 1 1\n")

		b := m.Materials[uint32(i)]
		if b == nil {
			bw.WriteString("\n")
			continue
		}
		maps := []struct {
			stmt string
			tex  *formats.TEX
		}{
			{"map_Kd", b.Base},
			{"map_Bump", b.Normal},
			{"map_Ks", b.Specular},
		}
		for _, mp := range maps {
			if mp.tex == nil || name == nil {
				continue
			}
			if file := name(mp.tex); file != "" {
				fmt.Fprintf(bw, "%s %s\n", mp.stmt, file)
			}
		}
		if b.Material != nil && b.Material.AlphaTest && b.Base != nil && name != nil {
			if file := name(b.Base); file != "" {
				fmt.Fprintf(bw, "map_d %s\n", file)
			}
		}
		bw.WriteString("\n")
	}
	return bw.Flush()
}
