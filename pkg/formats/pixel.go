package formats

import (
	"encoding/binary"
	"fmt"
)

// TEXFormat is the pixel format code stored in a texture entry.
type TEXFormat uint32

// Texture pixel formats.
const (
	TEXFormatRGBA32   TEXFormat = 0
	TEXFormatRGB24    TEXFormat = 1
	TEXFormatBGR565   TEXFormat = 3
	TEXFormatABGR4444 TEXFormat = 4
	TEXFormatBC1      TEXFormat = 5
	TEXFormatBC2      TEXFormat = 6
	TEXFormatBC3      TEXFormat = 7
	TEXFormatA8       TEXFormat = 8
	TEXFormatPVRTC2   TEXFormat = 9
)

// String returns a human-readable format name.
func (f TEXFormat) String() string {
	switch f {
	case TEXFormatRGBA32:
		return "RGBA32"
	case TEXFormatRGB24:
		return "RGB24"
	case TEXFormatBGR565:
		return "BGR565"
	case TEXFormatABGR4444:
		return "ABGR4444"
	case TEXFormatBC1:
		return "BC1"
	case TEXFormatBC2:
		return "BC2"
	case TEXFormatBC3:
		return "BC3"
	case TEXFormatA8:
		return "A8"
	case TEXFormatPVRTC2:
		return "PVRTC2"
	default:
		return fmt.Sprintf("Unknown(%d)", uint32(f))
	}
}

// Mode returns the value of the info block's "mode" key for this format,
// or "" when the format has none.
func (f TEXFormat) Mode() string {
	switch f {
	case TEXFormatRGBA32:
		return "tm_raw32"
	case TEXFormatRGB24:
		return "tm_standard"
	case TEXFormatBGR565, TEXFormatABGR4444:
		return "tm_raw16"
	case TEXFormatBC1, TEXFormatBC2, TEXFormatBC3:
		return "tm_nopvr"
	case TEXFormatA8:
		return "tm_singlechannel"
	}
	return ""
}

// PixelLayout describes how decoded pixel bytes are arranged.
type PixelLayout uint8

// Pixel layouts.
const (
	LayoutRGBA32 PixelLayout = iota
	LayoutRGB24
	LayoutBGR565
	LayoutABGR4444
	LayoutBC1
	LayoutBC2
	LayoutBC3
	LayoutA8
	LayoutPVRTC2
)

// String returns the layout name.
func (l PixelLayout) String() string {
	names := [...]string{"RGBA32", "RGB24", "BGR565", "ABGR4444", "BC1", "BC2", "BC3", "A8", "PVRTC2"}
	if int(l) < len(names) {
		return names[l]
	}
	return fmt.Sprintf("Unknown(%d)", uint8(l))
}

// BlockCompressed reports whether the layout is an opaque 4x4 block format.
func (l PixelLayout) BlockCompressed() bool {
	return l == LayoutBC1 || l == LayoutBC2 || l == LayoutBC3 || l == LayoutPVRTC2
}

// PVRTCDecoder expands PVRTC2 4bpp payloads into RGBA32 pixels.
type PVRTCDecoder interface {
	DecodePVRTC(data []byte, width, height int) ([]byte, error)
}

// decodePixels converts stored entry bytes into the interchange layout.
// Converted formats are expanded over the whole buffer, mip levels included;
// the top level must be present.
func decodePixels(format TEXFormat, data []byte, width, height uint32, pvrtc PVRTCDecoder) ([]byte, PixelLayout, error) {
	pixels := int(width) * int(height)

	switch format {
	case TEXFormatRGBA32:
		return data, LayoutRGBA32, nil
	case TEXFormatRGB24:
		return data, LayoutRGB24, nil
	case TEXFormatBGR565:
		if len(data) < pixels*2 {
			return nil, 0, truncatedPixels(format, len(data), pixels*2)
		}
		return expandBGR565(data), LayoutRGBA32, nil
	case TEXFormatABGR4444:
		if len(data) < pixels*2 {
			return nil, 0, truncatedPixels(format, len(data), pixels*2)
		}
		return expandABGR4444(data), LayoutRGBA32, nil
	case TEXFormatBC1:
		return data, LayoutBC1, nil
	case TEXFormatBC2:
		return data, LayoutBC2, nil
	case TEXFormatBC3:
		return data, LayoutBC3, nil
	case TEXFormatA8:
		if len(data) < pixels {
			return nil, 0, truncatedPixels(format, len(data), pixels)
		}
		return expandA8(data), LayoutRGBA32, nil
	case TEXFormatPVRTC2:
		if pvrtc == nil {
			return data, LayoutPVRTC2, nil
		}
		out, err := pvrtc.DecodePVRTC(data, int(width), int(height))
		if err != nil {
			return nil, 0, fmt.Errorf("decoding PVRTC2: %w", err)
		}
		return out, LayoutRGBA32, nil
	}
	return nil, 0, fmt.Errorf("%w: %d", ErrUnsupportedPixelFormat, uint32(format))
}

func truncatedPixels(format TEXFormat, have, want int) error {
	return fmt.Errorf("%w: %s pixels need %d bytes, have %d", ErrTruncatedData, format, want, have)
}

// expandBGR565 converts 16-bit pixels with red in the high five bits.
func expandBGR565(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := binary.LittleEndian.Uint16(data[i*2:])
		r := byte(v>>11) & 0x1F
		g := byte(v>>5) & 0x3F
		b := byte(v) & 0x1F
		out[i*4+0] = r<<3 | r>>2
		out[i*4+1] = g<<2 | g>>4
		out[i*4+2] = b<<3 | b>>2
		out[i*4+3] = 0xFF
	}
	return out
}

// expandABGR4444 converts 16-bit pixels with alpha in the low nibble and
// red in the high nibble.
func expandABGR4444(data []byte) []byte {
	n := len(data) / 2
	out := make([]byte, n*4)
	for i := 0; i < n; i++ {
		v := binary.LittleEndian.Uint16(data[i*2:])
		out[i*4+0] = byte(v>>12&0xF) * 17
		out[i*4+1] = byte(v>>8&0xF) * 17
		out[i*4+2] = byte(v>>4&0xF) * 17
		out[i*4+3] = byte(v&0xF) * 17
	}
	return out
}

// expandA8 places each alpha byte over black.
func expandA8(data []byte) []byte {
	out := make([]byte, len(data)*4)
	for i, a := range data {
		out[i*4+3] = a
	}
	return out
}
