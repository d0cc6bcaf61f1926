package nifti

import (
	stdbinary "encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-nifti/internal/binary"
)

// Streamed is a NIfTI object whose voxel data is read slice by slice from
// its source instead of being decoded up front, keeping memory proportional
// to one slice. Since volumes are persisted with the first axis fastest,
// each slice covers the leading axes and successive slices traverse the
// trailing ones.
type Streamed struct {
	src        io.Closer
	r          *binary.Reader
	header     *Header
	extensions ExtensionSequence
	affine     Affine

	sliceDims  []int
	sliceBytes int
	slicesLeft int
}

// ReadStreamed opens a NIfTI object for streamed reading. Layout and
// compression handling match ReadFile. The slice rank defaults to the
// volume's rank minus one and can be set with WithSliceRank.
func ReadStreamed(path string, opts ...ReadOption) (*Streamed, error) {
	o := defaultReadOptions()
	for _, opt := range opts {
		opt(o)
	}

	src, err := openMaybeGz(path)
	if err != nil {
		return nil, err
	}

	r := binary.NewReader(src, stdbinary.LittleEndian)
	h, err := decodeHeader(r)
	if err != nil {
		src.Close()
		return nil, err
	}
	if _, err := readExtender(r); err != nil {
		src.Close()
		return nil, err
	}

	if !h.singleFile() {
		// Voxel data continues in the companion image file.
		img, err := openCompanion(path)
		src.Close()
		if err != nil {
			return nil, err
		}
		src = img
		r = binary.NewReader(img, h.Order)
	}

	ext, err := readExtensions(r, h.extensionBudget(), !o.discardExtensions)
	if err != nil {
		src.Close()
		return nil, err
	}

	s, err := newStreamed(src, r, h, ext, o.sliceRank)
	if err != nil {
		src.Close()
		return nil, err
	}
	return s, nil
}

func newStreamed(src io.Closer, r *binary.Reader, h *Header, ext ExtensionSequence, sliceRank int) (*Streamed, error) {
	if !h.Datatype.Supported() {
		return nil, fmt.Errorf("%w: code %d (%s)", ErrUnsupportedDatatype, int16(h.Datatype), h.Datatype)
	}
	dims := h.Dims()
	// The whole grid must be addressable before any slice size is derived.
	if _, err := dataSize(dims, h.Datatype.Size()); err != nil {
		return nil, err
	}
	if sliceRank == 0 {
		sliceRank = len(dims) - 1
		if sliceRank == 0 {
			sliceRank = 1
		}
	}
	if sliceRank < 1 || sliceRank > len(dims) {
		return nil, fmt.Errorf("%w: slice rank %d for a %d-dimensional volume",
			ErrOutOfBounds, sliceRank, len(dims))
	}

	sliceDims := dims[:sliceRank]
	sliceElems := 1
	for _, d := range sliceDims {
		sliceElems *= d
	}
	slices := 1
	for _, d := range dims[sliceRank:] {
		slices *= d
	}

	return &Streamed{
		src:        src,
		r:          r,
		header:     h,
		extensions: ext,
		affine:     newAffine(h),
		sliceDims:  sliceDims,
		sliceBytes: sliceElems * h.Datatype.Size(),
		slicesLeft: slices,
	}, nil
}

// Header returns the parsed header record.
func (s *Streamed) Header() *Header {
	return s.header
}

// Extensions returns the extension chain, which may be empty.
func (s *Streamed) Extensions() ExtensionSequence {
	return s.extensions
}

// Affine returns the voxel-to-space transform.
func (s *Streamed) Affine() Affine {
	return s.affine
}

// SliceDims returns the extents of each produced slice.
func (s *Streamed) SliceDims() []int {
	dims := make([]int, len(s.sliceDims))
	copy(dims, s.sliceDims)
	return dims
}

// SlicesLeft returns how many slices remain to be read.
func (s *Streamed) SlicesLeft() int {
	return s.slicesLeft
}

// NextSlice reads and decodes the next slice as an in-memory volume.
// It returns io.EOF once all slices have been produced.
func (s *Streamed) NextSlice() (*Volume, error) {
	if s.slicesLeft == 0 {
		return nil, io.EOF
	}
	raw, err := s.r.ReadBytes(s.sliceBytes)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: voxel stream ended early", ErrTruncated)
		}
		return nil, fmt.Errorf("reading slice: %w", err)
	}
	s.slicesLeft--

	v := &Volume{
		dims:     s.SliceDims(),
		datatype: s.header.Datatype,
		slope:    s.header.SclSlope,
		inter:    s.header.SclInter,
		order:    s.header.Order,
		raw:      raw,
		elemSize: s.header.Datatype.Size(),
	}
	if s.header.Datatype.scalar() {
		v.dec = scalarDecoder(s.header.Datatype, s.header.Order)
	}
	return v, nil
}

// Close releases the underlying source.
func (s *Streamed) Close() error {
	return s.src.Close()
}
