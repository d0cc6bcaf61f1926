// Package nifti provides a pure Go implementation for reading NIfTI-1 files.
package nifti

import "errors"

// Common errors
var (
	ErrUnknownFormat       = errors.New("not a NIfTI-1 file")
	ErrMissingVolume       = errors.New("volume file not found")
	ErrInvalidHeader       = errors.New("invalid NIfTI-1 header")
	ErrUnsupportedDatatype = errors.New("unsupported datatype")
	ErrTruncated           = errors.New("voxel data shorter than declared extents")
	ErrOutOfBounds         = errors.New("coordinates out of volume bounds")
)
