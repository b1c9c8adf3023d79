package formats

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/Faultbox/bullyae-tools/pkg/metatext"
)

// TEXEntry is one decoded texture of a container.
type TEXEntry struct {
	Format           TEXFormat // from the entry sub-header
	HintFormat       uint32    // format recorded in the header's entry table
	Width            uint32
	Height           uint32
	MipCount         uint32
	CompressedOnDisk bool
	Data             []byte // stored pixel bytes, inflated when compressed
	Pixels           []byte
	Layout           PixelLayout
	Name             string
}

// TEX is a parsed texture container.
type TEX struct {
	Header       Header
	Info         metatext.Value
	InternalPath string
	Name         string
	Entries      []TEXEntry
}

// TEXOption configures ParseTEX.
type TEXOption func(*texOptions)

type texOptions struct {
	pvrtc PVRTCDecoder
}

// WithPVRTCDecoder enables decoding of PVRTC2 entries into RGBA32.
func WithPVRTCDecoder(d PVRTCDecoder) TEXOption {
	return func(o *texOptions) { o.pvrtc = d }
}

// ParseTEX parses a texture container. name is the external name of the
// file (usually its base name) and is combined with the name recorded in
// the info block.
func ParseTEX(data []byte, name string, opts ...TEXOption) (*TEX, error) {
	var o texOptions
	for _, opt := range opts {
		opt(&o)
	}

	if len(data) < 4 {
		return nil, ErrTruncatedHeader
	}
	if !IsTEX(data) {
		v, _ := leadingVersion(data)
		return nil, fmt.Errorf("%w: texture version %d, want %d", ErrInvalidFormat, v, TEXVersion)
	}

	r := bytes.NewReader(data)
	hdr, err := ReadHeader(r)
	if err != nil {
		return nil, err
	}

	if err := seekTo(r, hdr.InfoOffset, "info block"); err != nil {
		return nil, err
	}
	text, err := readSizedString(r, "info block")
	if err != nil {
		return nil, err
	}
	info, err := metatext.Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing info block: %w", err)
	}

	tex := &TEX{
		Header:  hdr,
		Info:    info,
		Entries: make([]TEXEntry, 0, len(hdr.Entries)),
	}
	if p, ok := info.Get("importfilepath"); ok && p.Kind() == metatext.KindString {
		tex.InternalPath, _ = p.AsString()
	}
	tex.Name = resolveTextureName(name, baseNameNoExt(tex.InternalPath))

	compressed := false
	if v, ok := info.Get("compressondisk"); ok {
		compressed = v.Truthy()
	}

	for i, e := range hdr.Entries {
		entry, err := parseTEXEntry(r, e, compressed, o)
		if err != nil {
			return nil, fmt.Errorf("texture entry %d: %w", i, err)
		}
		entry.Name = tex.Name
		if len(hdr.Entries) > 1 {
			entry.Name = fmt.Sprintf("%s (Texture %d)", tex.Name, i+1)
		}
		tex.Entries = append(tex.Entries, entry)
	}

	return tex, nil
}

func parseTEXEntry(r *bytes.Reader, e Entry, compressed bool, o texOptions) (TEXEntry, error) {
	if err := seekTo(r, e.Offset, "entry"); err != nil {
		return TEXEntry{}, err
	}

	var fields [5]uint32
	for i, what := range [...]string{"format", "width", "height", "mip count", "data size"} {
		v, err := readUint32(r, what)
		if err != nil {
			return TEXEntry{}, err
		}
		fields[i] = v
	}

	entry := TEXEntry{
		Format:           TEXFormat(fields[0]),
		HintFormat:       e.Format,
		Width:            fields[1],
		Height:           fields[2],
		MipCount:         fields[3],
		CompressedOnDisk: compressed,
	}

	stored, err := readBytes(r, int(fields[4]), "pixel data")
	if err != nil {
		return TEXEntry{}, err
	}
	if compressed {
		if stored, err = unpackCompressed(stored); err != nil {
			return TEXEntry{}, err
		}
	}
	entry.Data = stored

	entry.Pixels, entry.Layout, err = decodePixels(entry.Format, stored, entry.Width, entry.Height, o.pvrtc)
	if err != nil {
		return TEXEntry{}, err
	}
	return entry, nil
}

// ParseTEXFile parses a texture container from disk, using the file's base
// name as the external name.
func ParseTEXFile(path string, opts ...TEXOption) (*TEX, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading TEX file: %w", err)
	}
	return ParseTEX(data, baseNameNoExt(filepath.ToSlash(path)), opts...)
}

// resolveTextureName picks the display name from the external file name
// and the internal name recorded at import time.
func resolveTextureName(external, internal string) string {
	switch {
	case internal == "" || external == internal:
		return external
	case external == "":
		return internal
	case strings.EqualFold(external, internal):
		return internal
	}
	return fmt.Sprintf("%s (%s)", external, internal)
}

// baseNameNoExt strips directories (either separator) and the extension.
func baseNameNoExt(p string) string {
	if p == "" {
		return ""
	}
	base := path.Base(strings.ReplaceAll(p, `\`, "/"))
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, path.Ext(base))
}
