package formats

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// DDS constants used by the converter subset.
const (
	DDSMagic      = 0x20534444 // "DDS "
	ddsHeaderSize = 0x80

	ddsFlagCaps        = 0x00000001
	ddsFlagHeight      = 0x00000002
	ddsFlagWidth       = 0x00000004
	ddsFlagPitch       = 0x00000008
	ddsFlagPixelFormat = 0x00001000
	ddsFlagMipMapCount = 0x00020000
	ddsFlagLinearSize  = 0x00080000

	ddpfAlphaPixels = 0x00000001
	ddpfFourCC      = 0x00000004
	ddpfRGB         = 0x00000040

	ddsCapsComplex = 0x00000008
	ddsCapsTexture = 0x00001000
	ddsCapsMipMap  = 0x00400000
)

// DDSHeader is the 128-byte DDS header, magic included.
type DDSHeader struct {
	Magic             uint32
	Size              uint32
	Flags             uint32
	Height            uint32
	Width             uint32
	PitchOrLinearSize uint32
	Depth             uint32
	MipMapCount       uint32
	Reserved1         [11]uint32
	PixelFormat       DDSPixelFormat
	Caps              uint32
	Caps2             uint32
	Caps3             uint32
	Caps4             uint32
	Reserved2         uint32
}

// DDSPixelFormat describes the pixel format of a DDS image.
type DDSPixelFormat struct {
	Size        uint32
	Flags       uint32
	FourCC      [4]byte
	RGBBitCount uint32
	RBitMask    uint32
	GBitMask    uint32
	BBitMask    uint32
	ABitMask    uint32
}

// DDS is a parsed DDS image. Data runs from the end of the header to EOF.
type DDS struct {
	Header DDSHeader
	Data   []byte
}

// ParseDDS parses the DDS header and keeps the payload as-is.
func ParseDDS(data []byte) (*DDS, error) {
	if len(data) < 4 || binary.LittleEndian.Uint32(data) != DDSMagic {
		return nil, fmt.Errorf("%w: not a DDS image", ErrUnsupportedSourceFormat)
	}
	if len(data) < ddsHeaderSize {
		return nil, fmt.Errorf("%w: DDS header needs %d bytes, have %d", ErrTruncatedHeader, ddsHeaderSize, len(data))
	}

	d := &DDS{Data: data[ddsHeaderSize:]}
	if err := binary.Read(bytes.NewReader(data), binary.LittleEndian, &d.Header); err != nil {
		return nil, fmt.Errorf("%w: DDS header", ErrTruncatedHeader)
	}
	return d, nil
}

// ddsMask identifies an uncompressed DDS pixel format by bit depth and
// little-endian channel masks.
type ddsMask struct {
	bits       uint32
	r, g, b, a uint32
}

func (m ddsMask) String() string {
	return fmt.Sprintf("%d-bit R=%08X G=%08X B=%08X A=%08X", m.bits, m.r, m.g, m.b, m.a)
}

// ddsConversion maps a DDS mask to a texture format and repacks the pixels.
type ddsConversion struct {
	mask    ddsMask
	format  TEXFormat
	convert func([]byte) []byte // nil for passthrough
}

var (
	maskR8       = ddsMask{8, 0xFF, 0, 0, 0}
	maskA4R4G4B4 = ddsMask{16, 0x0F00, 0x00F0, 0x000F, 0xF000}
	maskR5G6B5   = ddsMask{16, 0xF800, 0x07E0, 0x001F, 0}
	maskB8G8R8   = ddsMask{24, 0xFF0000, 0xFF00, 0xFF, 0}
	maskR8G8B8A8 = ddsMask{32, 0xFF, 0xFF00, 0xFF0000, 0xFF000000}
	maskB8G8R8A8 = ddsMask{32, 0xFF0000, 0xFF00, 0xFF, 0xFF000000}
	maskB8G8R8X8 = ddsMask{32, 0xFF0000, 0xFF00, 0xFF, 0}
	maskR8G8B8X8 = ddsMask{32, 0xFF, 0xFF00, 0xFF0000, 0}
)

var ddsConversions = []ddsConversion{
	{maskR8, TEXFormatA8, nil},
	{maskA4R4G4B4, TEXFormatABGR4444, argb4444ToABGR4444},
	{maskR5G6B5, TEXFormatBGR565, nil},
	{maskB8G8R8, TEXFormatRGB24, reverseTriplets},
	{maskR8G8B8A8, TEXFormatRGBA32, nil},
	{maskB8G8R8A8, TEXFormatRGBA32, bgraToRGBA},
	{maskB8G8R8X8, TEXFormatRGB24, bgrxToRGB},
	{maskR8G8B8X8, TEXFormatRGB24, rgbxToRGB},
}

var ddsFourCCFormats = map[[4]byte]TEXFormat{
	{'D', 'X', 'T', '1'}: TEXFormatBC1,
	{'D', 'X', 'T', '3'}: TEXFormatBC2,
	{'D', 'X', 'T', '5'}: TEXFormatBC3,
}

// TEXPayload converts the DDS payload into a texture format and the pixel
// bytes that format stores.
func (d *DDS) TEXPayload() (TEXFormat, []byte, error) {
	pf := d.Header.PixelFormat
	if pf.FourCC != [4]byte{} {
		format, ok := ddsFourCCFormats[pf.FourCC]
		if !ok {
			return 0, nil, fmt.Errorf("%w: DDS format %q", ErrUnsupportedSourceFormat, pf.FourCC[:])
		}
		return format, d.Data, nil
	}

	mask := ddsMask{pf.RGBBitCount, pf.RBitMask, pf.GBitMask, pf.BBitMask, pf.ABitMask}
	for _, c := range ddsConversions {
		if c.mask != mask {
			continue
		}
		if c.convert == nil {
			return c.format, d.Data, nil
		}
		return c.format, c.convert(d.Data), nil
	}
	return 0, nil, fmt.Errorf("%w: DDS bit-mask %s", ErrUnsupportedSourceFormat, mask)
}

// argb4444ToABGR4444 moves alpha from the high nibble to the low nibble.
func argb4444ToABGR4444(data []byte) []byte {
	out := make([]byte, len(data)/2*2)
	for i := 0; i+1 < len(data); i += 2 {
		v := binary.LittleEndian.Uint16(data[i:])
		binary.LittleEndian.PutUint16(out[i:], (v&0x0FFF)<<4|(v&0xF000)>>12)
	}
	return out
}

// abgr4444ToARGB4444 is the inverse of argb4444ToABGR4444.
func abgr4444ToARGB4444(data []byte) []byte {
	out := make([]byte, len(data)/2*2)
	for i := 0; i+1 < len(data); i += 2 {
		v := binary.LittleEndian.Uint16(data[i:])
		binary.LittleEndian.PutUint16(out[i:], (v&0xFFF0)>>4|(v&0x000F)<<12)
	}
	return out
}

func reverseTriplets(data []byte) []byte {
	out := make([]byte, len(data)/3*3)
	for i := 0; i+2 < len(data); i += 3 {
		out[i], out[i+1], out[i+2] = data[i+2], data[i+1], data[i]
	}
	return out
}

func bgraToRGBA(data []byte) []byte {
	out := make([]byte, len(data)/4*4)
	for i := 0; i+3 < len(data); i += 4 {
		out[i], out[i+1], out[i+2], out[i+3] = data[i+2], data[i+1], data[i], data[i+3]
	}
	return out
}

func bgrxToRGB(data []byte) []byte {
	n := len(data) / 4
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		out[i*3], out[i*3+1], out[i*3+2] = data[i*4+2], data[i*4+1], data[i*4]
	}
	return out
}

func rgbxToRGB(data []byte) []byte {
	n := len(data) / 4
	out := make([]byte, n*3)
	for i := 0; i < n; i++ {
		copy(out[i*3:i*3+3], data[i*4:i*4+3])
	}
	return out
}

// WriteDDS exports a texture entry as a DDS image in a layout ParseDDS and
// EncodeTEX accept.
func WriteDDS(entry *TEXEntry) ([]byte, error) {
	h := DDSHeader{
		Magic:       DDSMagic,
		Size:        124,
		Flags:       ddsFlagCaps | ddsFlagHeight | ddsFlagWidth | ddsFlagPixelFormat,
		Height:      entry.Height,
		Width:       entry.Width,
		MipMapCount: entry.MipCount,
		PixelFormat: DDSPixelFormat{Size: 32},
		Caps:        ddsCapsTexture,
	}
	if entry.MipCount > 1 {
		h.Flags |= ddsFlagMipMapCount
		h.Caps |= ddsCapsComplex | ddsCapsMipMap
	}

	var (
		mask    ddsMask
		payload = entry.Data
	)
	switch entry.Format {
	case TEXFormatRGBA32:
		mask = maskR8G8B8A8
	case TEXFormatRGB24:
		mask, payload = maskB8G8R8, reverseTriplets(entry.Data)
	case TEXFormatBGR565:
		mask = maskR5G6B5
	case TEXFormatABGR4444:
		mask, payload = maskA4R4G4B4, abgr4444ToARGB4444(entry.Data)
	case TEXFormatA8:
		mask = maskR8
	case TEXFormatBC1, TEXFormatBC2, TEXFormatBC3:
		digit := byte('1')
		if entry.Format == TEXFormatBC2 {
			digit = '3'
		} else if entry.Format == TEXFormatBC3 {
			digit = '5'
		}
		h.PixelFormat.Flags = ddpfFourCC
		h.PixelFormat.FourCC = [4]byte{'D', 'X', 'T', digit}
		h.Flags |= ddsFlagLinearSize
		h.PitchOrLinearSize = blockLinearSize(entry.Format, entry.Width, entry.Height)
	case TEXFormatPVRTC2:
		if entry.Layout != LayoutRGBA32 {
			return nil, fmt.Errorf("%w: PVRTC2 entry was not decoded", ErrUnsupportedPixelFormat)
		}
		mask, payload = maskR8G8B8A8, entry.Pixels
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedPixelFormat, uint32(entry.Format))
	}

	if h.PixelFormat.Flags == 0 {
		h.PixelFormat.Flags = ddpfRGB
		if mask.a != 0 {
			h.PixelFormat.Flags |= ddpfAlphaPixels
		}
		h.PixelFormat.RGBBitCount = mask.bits
		h.PixelFormat.RBitMask = mask.r
		h.PixelFormat.GBitMask = mask.g
		h.PixelFormat.BBitMask = mask.b
		h.PixelFormat.ABitMask = mask.a
		h.Flags |= ddsFlagPitch
		h.PitchOrLinearSize = (entry.Width*mask.bits + 7) / 8
	}

	var buf bytes.Buffer
	buf.Grow(ddsHeaderSize + len(payload))
	if err := binary.Write(&buf, binary.LittleEndian, &h); err != nil {
		return nil, err
	}
	buf.Write(payload)
	return buf.Bytes(), nil
}

func blockLinearSize(format TEXFormat, width, height uint32) uint32 {
	blockBytes := uint32(16)
	if format == TEXFormatBC1 {
		blockBytes = 8
	}
	return max(1, (width+3)/4) * max(1, (height+3)/4) * blockBytes
}
