package formats

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

const testTEXInfo = `{importfilepath=C:\art\textures\Wall01.tga,mode=tm_raw32,width=2,height=2,nomips=true,compressondisk=false}`

func TestParseTEX_SingleEntry(t *testing.T) {
	pixels := []byte{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}
	data := makeTEX(testTEXInfo, texSpec{format: 0, width: 2, height: 2, mips: 1, data: pixels})

	tex, err := ParseTEX(data, "Wall01")
	if err != nil {
		t.Fatalf("ParseTEX failed: %v", err)
	}

	if tex.InternalPath != `C:\art\textures\Wall01.tga` {
		t.Errorf("InternalPath = %q", tex.InternalPath)
	}
	if tex.Name != "Wall01" {
		t.Errorf("Name = %q", tex.Name)
	}
	if len(tex.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(tex.Entries))
	}

	e := tex.Entries[0]
	if e.Width != 2 || e.Height != 2 || e.MipCount != 1 {
		t.Errorf("dimensions = %dx%d mips %d", e.Width, e.Height, e.MipCount)
	}
	if e.Format != TEXFormatRGBA32 || e.Layout != LayoutRGBA32 {
		t.Errorf("format %s layout %s", e.Format, e.Layout)
	}
	if !bytes.Equal(e.Pixels, pixels) {
		t.Errorf("pixels = %v", e.Pixels)
	}
	if e.Name != "Wall01" {
		t.Errorf("entry name = %q", e.Name)
	}
	if e.CompressedOnDisk {
		t.Error("entry should not be compressed")
	}
}

func TestParseTEX_MultiEntryNames(t *testing.T) {
	data := makeTEX(`{importfilepath=/art/sky.tga}`,
		texSpec{format: 5, width: 4, height: 4, mips: 1, data: make([]byte, 8)},
		texSpec{format: 8, width: 1, height: 1, mips: 1, data: []byte{0x40}},
	)

	tex, err := ParseTEX(data, "sky_lod")
	if err != nil {
		t.Fatalf("ParseTEX failed: %v", err)
	}
	if tex.Name != "sky_lod (sky)" {
		t.Errorf("Name = %q", tex.Name)
	}
	want := []string{"sky_lod (sky) (Texture 1)", "sky_lod (sky) (Texture 2)"}
	for i, e := range tex.Entries {
		if e.Name != want[i] {
			t.Errorf("entry %d name = %q, want %q", i, e.Name, want[i])
		}
	}
	if tex.Entries[0].Layout != LayoutBC1 {
		t.Errorf("entry 0 layout = %s", tex.Entries[0].Layout)
	}
	if !bytes.Equal(tex.Entries[1].Pixels, []byte{0, 0, 0, 0x40}) {
		t.Errorf("entry 1 pixels = %v", tex.Entries[1].Pixels)
	}
}

func TestParseTEX_HintFormatKept(t *testing.T) {
	var b builder
	info := "{}"
	b.u32(TEXVersion, 2, 0, 0x18)
	b.u32(7, uint32(0x1C+len(info)))
	b.str(info)
	b.u32(0, 1, 1, 1, 4).raw([]byte{1, 2, 3, 4})

	tex, err := ParseTEX(b.bytes(), "x")
	if err != nil {
		t.Fatalf("ParseTEX failed: %v", err)
	}
	e := tex.Entries[0]
	if e.Format != TEXFormatRGBA32 || e.HintFormat != 7 {
		t.Errorf("format %s hint %d", e.Format, e.HintFormat)
	}
}

func TestParseTEX_Compressed(t *testing.T) {
	raw := bytes.Repeat([]byte{9, 8, 7, 6}, 16)
	stored, err := packCompressed(raw, DefaultCompressionLevel)
	if err != nil {
		t.Fatal(err)
	}
	data := makeTEX(`{compressondisk=True}`, texSpec{format: 0, width: 4, height: 4, mips: 1, data: stored})

	tex, err := ParseTEX(data, "packed")
	if err != nil {
		t.Fatalf("ParseTEX failed: %v", err)
	}
	e := tex.Entries[0]
	if !e.CompressedOnDisk {
		t.Error("entry should be marked compressed")
	}
	if !bytes.Equal(e.Data, raw) {
		t.Error("inflated data mismatch")
	}
}

func TestParseTEX_Errors(t *testing.T) {
	valid := makeTEX(testTEXInfo, texSpec{format: 0, width: 2, height: 2, mips: 1, data: make([]byte, 16)})

	badVersion := append([]byte(nil), valid...)
	badVersion[0] = 8

	truncated := valid[:len(valid)-4]

	unsupported := makeTEX(`{}`, texSpec{format: 42, width: 1, height: 1, mips: 1, data: make([]byte, 4)})

	badInfo := makeTEX(`{a=[1,2}`, texSpec{format: 0, width: 1, height: 1, mips: 1, data: make([]byte, 4)})

	tests := []struct {
		name    string
		data    []byte
		wantErr error
	}{
		{"too short", []byte{7, 0}, ErrTruncatedHeader},
		{"wrong version", badVersion, ErrInvalidFormat},
		{"truncated pixels", truncated, ErrTruncatedData},
		{"unsupported format", unsupported, ErrUnsupportedPixelFormat},
		{"bad info", badInfo, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTEX(tt.data, "x")
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseTEXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wall01.tex")
	data := makeTEX(testTEXInfo, texSpec{format: 1, width: 1, height: 1, mips: 1, data: []byte{1, 2, 3}})
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	tex, err := ParseTEXFile(path)
	if err != nil {
		t.Fatalf("ParseTEXFile failed: %v", err)
	}
	// Differs from the internal name only by case.
	if tex.Name != "Wall01" {
		t.Errorf("Name = %q", tex.Name)
	}
	if tex.Entries[0].Layout != LayoutRGB24 {
		t.Errorf("layout = %s", tex.Entries[0].Layout)
	}

	if _, err := ParseTEXFile(filepath.Join(t.TempDir(), "missing.tex")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveTextureName(t *testing.T) {
	tests := []struct {
		external, internal, want string
	}{
		{"Wall01", "Wall01", "Wall01"},
		{"wall01", "Wall01", "Wall01"},
		{"brick", "Wall01", "brick (Wall01)"},
		{"brick", "", "brick"},
		{"", "Wall01", "Wall01"},
	}
	for _, tt := range tests {
		if got := resolveTextureName(tt.external, tt.internal); got != tt.want {
			t.Errorf("resolveTextureName(%q, %q) = %q, want %q", tt.external, tt.internal, got, tt.want)
		}
	}
}

func TestBaseNameNoExt(t *testing.T) {
	tests := map[string]string{
		`C:\art\Wall01.tga`:  "Wall01",
		"art/sky.tga":        "sky",
		"noext":              "noext",
		"":                   "",
		`dir\archive.tar.gz`: "archive.tar",
	}
	for in, want := range tests {
		if got := baseNameNoExt(in); got != want {
			t.Errorf("baseNameNoExt(%q) = %q, want %q", in, got, want)
		}
	}
}
