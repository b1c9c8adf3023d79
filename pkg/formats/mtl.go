package formats

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Faultbox/bullyae-tools/pkg/encoding"
	"github.com/Faultbox/bullyae-tools/pkg/metatext"
)

// MaterialMagic prefixes every material sidecar.
const MaterialMagic = "Wx"

// Material info keys.
const (
	materialKeyEffect      = "effect(effect)"
	materialKeyTextures    = "textures(orderedarray<texture2d>)"
	materialKeyDoubleSided = "doublesided(bool)"
	materialKeyAlphaTest   = "alphatest(bool)"
)

// Material is a decoded material sidecar.
type Material struct {
	Name        string
	Info        metatext.Value
	Effect      string
	Textures    []string
	DoubleSided bool
	AlphaTest   bool
}

// HasNormalMap reports whether the effect samples a normal map.
func (m *Material) HasNormalMap() bool {
	return strings.Contains(m.Effect, "normal")
}

// HasSpecularMap reports whether the effect samples a specular map.
func (m *Material) HasSpecularMap() bool {
	return strings.Contains(m.Effect, "spec")
}

// ParseMaterial decodes a material sidecar: the magic, then the obfuscated
// info text.
func ParseMaterial(data []byte, name string) (*Material, error) {
	if len(data) < len(MaterialMagic) {
		return nil, fmt.Errorf("%w: material shorter than its magic", ErrTruncatedHeader)
	}
	if !bytes.HasPrefix(data, []byte(MaterialMagic)) {
		return nil, fmt.Errorf("%w: material magic %q, want %q", ErrInvalidFormat, data[:2], MaterialMagic)
	}

	info, err := metatext.Parse(encoding.Deobfuscate(data[len(MaterialMagic):]))
	if err != nil {
		return nil, fmt.Errorf("parsing material %s: %w", name, err)
	}

	m := &Material{Name: name, Info: info}
	if v, ok := info.Get(materialKeyEffect); ok && !v.IsNone() {
		m.Effect = v.String()
	}
	if v, ok := info.Get(materialKeyTextures); ok {
		m.Textures = valueStrings(v)
	}
	if v, ok := info.Get(materialKeyDoubleSided); ok {
		m.DoubleSided = v.Truthy()
	}
	if v, ok := info.Get(materialKeyAlphaTest); ok {
		m.AlphaTest = v.Truthy()
	}
	return m, nil
}

// ParseMaterialFile decodes a material sidecar from disk.
func ParseMaterialFile(path string) (*Material, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading MTL file: %w", err)
	}
	return ParseMaterial(data, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// EncodeMaterial builds a material sidecar from plain info text.
func EncodeMaterial(text string) []byte {
	return append([]byte(MaterialMagic), encoding.Obfuscate(encoding.EncodeText(text))...)
}

// valueStrings flattens a list (or a single scalar) into strings.
func valueStrings(v metatext.Value) []string {
	switch v.Kind() {
	case metatext.KindNone:
		return nil
	case metatext.KindList:
		items, _ := v.AsList()
		out := make([]string, 0, len(items))
		for _, item := range items {
			out = append(out, item.String())
		}
		return out
	}
	return []string{v.String()}
}
