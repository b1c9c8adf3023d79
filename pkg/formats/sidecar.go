package formats

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// SidecarResolver loads files referenced by name from a mesh container.
type SidecarResolver interface {
	Open(name string) ([]byte, error)
}

// DirResolver resolves sidecars relative to a directory.
type DirResolver string

// Open reads name from the directory.
func (d DirResolver) Open(name string) ([]byte, error) {
	return os.ReadFile(filepath.Join(string(d), name))
}

// MapResolver serves sidecars from memory.
type MapResolver map[string][]byte

// Open returns the bytes stored under name.
func (m MapResolver) Open(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, &os.PathError{Op: "open", Path: name, Err: os.ErrNotExist}
	}
	return data, nil
}

// material resolves the binding for a material table index. Each index is
// resolved once per parse; failures are remembered as nil.
func (d *mshDecoder) material(idx uint32) *MaterialBinding {
	if b, ok := d.bindings[idx]; ok {
		return b
	}
	d.bindings[idx] = nil
	if d.opts.resolver == nil {
		return nil
	}

	if idx >= uint32(len(d.msh.MaterialNames)) {
		d.sidecarFailed(fmt.Sprintf("material #%d", idx),
			fmt.Errorf("index outside table of %d materials", len(d.msh.MaterialNames)))
		return nil
	}
	name := d.msh.MaterialNames[idx]
	file := name + d.opts.materialExt

	data, err := d.opts.resolver.Open(file)
	if err != nil {
		d.sidecarFailed(file, err)
		return nil
	}
	mat, err := ParseMaterial(data, name)
	if err != nil {
		d.sidecarFailed(file, err)
		return nil
	}
	d.opts.logger.Debug("loaded material",
		zap.String("file", file),
		zap.String("effect", mat.Effect),
		zap.Strings("textures", mat.Textures))

	b := &MaterialBinding{
		Name:     name,
		Material: mat,
		TwoSided: mat.DoubleSided,
	}
	b.Base = d.texture(mat, 0)
	next := 1
	if mat.HasNormalMap() {
		b.Normal = d.texture(mat, next)
		next++
	}
	if mat.HasSpecularMap() {
		b.Specular = d.texture(mat, next)
	}

	d.bindings[idx] = b
	d.msh.Materials[idx] = b
	return b
}

// texture loads the i-th texture a material references.
func (d *mshDecoder) texture(mat *Material, i int) *TEX {
	if i >= len(mat.Textures) {
		d.sidecarFailed(mat.Name+d.opts.materialExt,
			fmt.Errorf("texture slot %d not listed (%d textures)", i, len(mat.Textures)))
		return nil
	}
	name := mat.Textures[i]
	file := name + d.opts.textureExt

	if d.opts.cache {
		if tex, ok := d.textures[file]; ok {
			return tex
		}
	}

	data, err := d.opts.resolver.Open(file)
	if err != nil {
		d.sidecarFailed(file, err)
		return nil
	}
	tex, err := ParseTEX(data, name, d.opts.texOpts...)
	if err != nil {
		d.sidecarFailed(file, err)
		return nil
	}
	d.opts.logger.Debug("loaded texture",
		zap.String("file", file),
		zap.String("name", tex.Name),
		zap.Int("entries", len(tex.Entries)))

	if d.opts.cache {
		d.textures[file] = tex
	}
	return tex
}

// sidecarFailed records and logs a non-fatal sidecar error.
func (d *mshDecoder) sidecarFailed(file string, cause error) {
	err := fmt.Errorf("%w: %s: %w", ErrSidecarResolution, file, cause)
	d.msh.SidecarErrors = append(d.msh.SidecarErrors, err)
	d.opts.logger.Warn("sidecar unavailable",
		zap.String("file", file),
		zap.Error(cause))
}
