package main

import (
	"bytes"
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Faultbox/bullyae-tools/internal/config"
	"github.com/Faultbox/bullyae-tools/pkg/formats"
)

const existingInfo = "{importfilepath=C:\\art\\wall.tga,mode=tm_raw32,width=1,height=1,nomips=true,compressondisk=false}"

// buildTEX lays out a one-entry RGBA32 texture container.
func buildTEX(t *testing.T, info string, width, height uint32, pixels []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	words := []uint32{
		formats.TEXVersion, 2, 0, 0x18,
		uint32(formats.TEXFormatRGBA32), uint32(0x1C + len(info)),
		uint32(len(info)),
	}
	if err := binary.Write(&buf, binary.LittleEndian, words); err != nil {
		t.Fatal(err)
	}
	buf.WriteString(info)
	sub := []uint32{uint32(formats.TEXFormatRGBA32), width, height, 1, uint32(len(pixels))}
	if err := binary.Write(&buf, binary.LittleEndian, sub); err != nil {
		t.Fatal(err)
	}
	buf.Write(pixels)
	return buf.Bytes()
}

func buildDDS(t *testing.T, width, height uint32, pixels []byte) []byte {
	t.Helper()
	data, err := formats.WriteDDS(&formats.TEXEntry{
		Format:   formats.TEXFormatRGBA32,
		Width:    width,
		Height:   height,
		MipCount: 1,
		Data:     pixels,
	})
	if err != nil {
		t.Fatalf("WriteDDS: %v", err)
	}
	return data
}

// workspace writes an input DDS and an existing TEX into an isolated
// directory and returns their paths.
func workspace(t *testing.T) (ddsPath, texPath string) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	dir := t.TempDir()
	t.Chdir(dir)

	ddsPath = filepath.Join(dir, "wall.dds")
	texPath = filepath.Join(dir, "wall.tex")
	pixels := bytes.Repeat([]byte{0x10, 0x20, 0x30, 0xFF}, 4)
	if err := os.WriteFile(ddsPath, buildDDS(t, 2, 2, pixels), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(texPath, buildTEX(t, existingInfo, 1, 1, []byte{1, 2, 3, 4}), 0644); err != nil {
		t.Fatal(err)
	}
	return ddsPath, texPath
}

func TestConvert(t *testing.T) {
	tests := []struct {
		name     string
		compress bool
	}{
		{"stored", false},
		{"compressed", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ddsPath, texPath := workspace(t)
			opts := options{input: ddsPath, output: texPath}
			opts.overrides.Compress = &tt.compress

			var out bytes.Buffer
			if err := convert(opts, &out); err != nil {
				t.Fatalf("convert: %v", err)
			}
			if !strings.Contains(out.String(), "wall.tex has been successfully updated!") {
				t.Errorf("unexpected output %q", out.String())
			}

			tex, err := formats.ParseTEXFile(texPath)
			if err != nil {
				t.Fatalf("ParseTEXFile: %v", err)
			}
			if len(tex.Entries) != 1 {
				t.Fatalf("expected 1 entry, got %d", len(tex.Entries))
			}
			e := tex.Entries[0]
			if e.Width != 2 || e.Height != 2 {
				t.Errorf("size = %dx%d, want 2x2", e.Width, e.Height)
			}
			if e.CompressedOnDisk != tt.compress {
				t.Errorf("CompressedOnDisk = %v, want %v", e.CompressedOnDisk, tt.compress)
			}
			if len(e.Pixels) != 16 || e.Pixels[0] != 0x10 {
				t.Errorf("pixels = %v", e.Pixels)
			}

			matches, _ := filepath.Glob(filepath.Join(filepath.Dir(texPath), "*.tmp"))
			if len(matches) != 0 {
				t.Errorf("temp files left behind: %v", matches)
			}
		})
	}
}

func TestConvertValidationFailures(t *testing.T) {
	tests := []struct {
		name    string
		prepare func(t *testing.T, ddsPath, texPath string) options
		want    string
	}{
		{
			name: "missing arguments",
			prepare: func(t *testing.T, ddsPath, texPath string) options {
				return options{input: ddsPath}
			},
			want: usageHint,
		},
		{
			name: "missing input",
			prepare: func(t *testing.T, ddsPath, texPath string) options {
				return options{input: ddsPath + ".missing", output: texPath}
			},
			want: "couldn't be found",
		},
		{
			name: "input is not a DDS",
			prepare: func(t *testing.T, ddsPath, texPath string) options {
				if err := os.WriteFile(ddsPath, []byte("not a dds image at all"), 0644); err != nil {
					t.Fatal(err)
				}
				return options{input: ddsPath, output: texPath}
			},
			want: "Unsupported DDS input",
		},
		{
			name: "output is not a TEX",
			prepare: func(t *testing.T, ddsPath, texPath string) options {
				if err := os.WriteFile(texPath, []byte{9, 0, 0, 0, 2, 0, 0, 0}, 0644); err != nil {
					t.Fatal(err)
				}
				return options{input: ddsPath, output: texPath}
			},
			want: "Not a valid TEX format",
		},
		{
			name: "bad config override",
			prepare: func(t *testing.T, ddsPath, texPath string) options {
				level := 42
				return options{input: ddsPath, output: texPath, overrides: config.Overrides{Level: &level}}
			},
			want: "convert.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ddsPath, texPath := workspace(t)
			opts := tt.prepare(t, ddsPath, texPath)
			before, _ := os.ReadFile(texPath)

			var out bytes.Buffer
			if err := convert(opts, &out); err != nil {
				t.Fatalf("validation failures must not be errors, got %v", err)
			}
			if lines := strings.Count(out.String(), "\n"); lines != 1 {
				t.Errorf("expected one diagnostic line, got %q", out.String())
			}
			if !strings.Contains(out.String(), tt.want) {
				t.Errorf("output %q does not mention %q", out.String(), tt.want)
			}

			after, _ := os.ReadFile(texPath)
			if !bytes.Equal(before, after) {
				t.Error("output file was modified")
			}
		})
	}
}

func TestWriteFileAtomicKeepsMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keep.tex")
	if err := os.WriteFile(path, []byte("old"), 0600); err != nil {
		t.Fatal(err)
	}
	if err := writeFileAtomic(path, []byte("new")); err != nil {
		t.Fatalf("writeFileAtomic: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v, want 0600", info.Mode().Perm())
	}
	if data, _ := os.ReadFile(path); string(data) != "new" {
		t.Errorf("content = %q", data)
	}
}
