// Package export writes decoded assets in common interchange formats.
package export

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"

	"github.com/Faultbox/bullyae-tools/pkg/formats"
)

// ErrNotImage is returned for entries whose pixels are still block compressed.
var ErrNotImage = errors.New("export: entry has no raster pixels")

// Image builds the top mip level of a decoded texture entry. The pixel data
// is checked against the declared size before anything is allocated.
func Image(e *formats.TEXEntry) (*image.NRGBA, error) {
	if e.Width == 0 || e.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrNotImage, e.Width, e.Height)
	}

	var bpp uint64
	switch e.Layout {
	case formats.LayoutRGBA32:
		bpp = 4
	case formats.LayoutRGB24:
		bpp = 3
	default:
		return nil, fmt.Errorf("%w: layout %s", ErrNotImage, e.Layout)
	}
	// Divide instead of multiplying so 32-bit dimensions cannot overflow.
	if uint64(len(e.Pixels))/bpp/uint64(e.Width) < uint64(e.Height) {
		return nil, fmt.Errorf("%w: %dx%d %s, have %d bytes",
			formats.ErrTruncatedData, e.Width, e.Height, e.Layout, len(e.Pixels))
	}

	w, h := int(e.Width), int(e.Height)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	if bpp == 4 {
		copy(img.Pix, e.Pixels[:w*h*4])
		return img, nil
	}
	for i := 0; i < w*h; i++ {
		copy(img.Pix[i*4:i*4+3], e.Pixels[i*3:i*3+3])
		img.Pix[i*4+3] = 0xFF
	}
	return img, nil
}

// Thumbnail scales img down so neither side exceeds maxSide. Images that
// already fit, and maxSide <= 0, are returned unchanged.
func Thumbnail(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}

	dw, dh := maxSide, maxSide
	if w > h {
		dh = max(1, h*maxSide/w)
	} else {
		dw = max(1, w*maxSide/h)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, dw, dh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}

// WritePNG encodes the top mip level of e as PNG. maxSide > 0 downscales.
func WritePNG(w io.Writer, e *formats.TEXEntry, maxSide int) error {
	img, err := Image(e)
	if err != nil {
		return err
	}
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	return enc.Encode(w, Thumbnail(img, maxSide))
}
