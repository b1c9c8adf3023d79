// Package formats provides parsers and writers for the game's packaged asset
// formats: texture containers (.tex), mesh containers (.msh) and their
// material sidecars (.mtl).
package formats

import "errors"

// Format errors shared by every container type.
var (
	ErrInvalidFormat              = errors.New("invalid container format")
	ErrTruncatedHeader            = errors.New("truncated container header")
	ErrTruncatedData              = errors.New("truncated container data")
	ErrUnsupportedPixelFormat     = errors.New("unsupported pixel format")
	ErrUnsupportedSourceFormat    = errors.New("unsupported source image format")
	ErrUnsupportedVertexAttribute = errors.New("unsupported vertex attribute")
	ErrSidecarResolution          = errors.New("sidecar resolution failed")
)
