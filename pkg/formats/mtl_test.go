package formats

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Faultbox/bullyae-tools/pkg/metatext"
)

const wallMaterial = "{\n\teffect(effect)=normalspec,\n\ttextures(orderedarray<texture2d>)=[3,wall_d,wall_n,wall_s],\n" +
	"\tdoublesided(bool)=true,\n\talphatest(bool)=False\n}"

func TestParseMaterial(t *testing.T) {
	m, err := ParseMaterial(EncodeMaterial(wallMaterial), "mat_wall")
	if err != nil {
		t.Fatalf("ParseMaterial failed: %v", err)
	}

	if m.Name != "mat_wall" || m.Effect != "normalspec" {
		t.Errorf("name %q effect %q", m.Name, m.Effect)
	}
	want := []string{"wall_d", "wall_n", "wall_s"}
	if len(m.Textures) != len(want) {
		t.Fatalf("textures = %v, want %v", m.Textures, want)
	}
	for i := range want {
		if m.Textures[i] != want[i] {
			t.Errorf("texture %d = %q, want %q", i, m.Textures[i], want[i])
		}
	}
	if !m.DoubleSided || m.AlphaTest {
		t.Errorf("doublesided=%v alphatest=%v", m.DoubleSided, m.AlphaTest)
	}
	if !m.HasNormalMap() || !m.HasSpecularMap() {
		t.Error("normalspec should report normal and specular maps")
	}
}

func TestParseMaterial_SingleTexture(t *testing.T) {
	m, err := ParseMaterial(EncodeMaterial("{effect(effect)=diffuse,textures(orderedarray<texture2d>)=[1,grass]}"), "mat_grass")
	if err != nil {
		t.Fatalf("ParseMaterial failed: %v", err)
	}
	if len(m.Textures) != 1 || m.Textures[0] != "grass" {
		t.Errorf("textures = %v", m.Textures)
	}
	if m.HasNormalMap() || m.HasSpecularMap() || m.DoubleSided {
		t.Error("diffuse material has no extra maps")
	}
}

func TestParseMaterial_Errors(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"empty", nil, ErrTruncatedHeader},
		{"bad magic", append([]byte("Xw"), EncodeMaterial(wallMaterial)[2:]...), ErrInvalidFormat},
		{"bad text", EncodeMaterial("{a=[1,2}"), metatext.ErrMetadataParse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseMaterial(tt.data, "m")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseMaterialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mat_wall.mtl")
	if err := os.WriteFile(path, EncodeMaterial(wallMaterial), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := ParseMaterialFile(path)
	if err != nil {
		t.Fatalf("ParseMaterialFile failed: %v", err)
	}
	if m.Name != "mat_wall" {
		t.Errorf("Name = %q", m.Name)
	}
}
