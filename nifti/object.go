package nifti

import (
	stdbinary "encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/robert-malhotra/go-nifti/internal/binary"
)

// ReadOption configures how NIfTI objects are read.
type ReadOption func(*readOptions)

type readOptions struct {
	discardExtensions bool
	sliceRank         int
}

func defaultReadOptions() *readOptions {
	return &readOptions{}
}

// WithDiscardExtensions drops extension payload bytes while parsing the
// chain. Record sizes and codes are still validated and retained.
func WithDiscardExtensions() ReadOption {
	return func(o *readOptions) {
		o.discardExtensions = true
	}
}

// WithSliceRank sets the dimensionality of the slices produced by streamed
// reading. The default is the volume's rank minus one.
func WithSliceRank(rank int) ReadOption {
	return func(o *readOptions) {
		if rank > 0 {
			o.sliceRank = rank
		}
	}
}

// Nifti is a fully read NIfTI object: header, extension chain, in-memory
// voxel volume and the derived spatial transform. Construction is
// all-or-nothing; a Nifti value never holds partial data.
type Nifti struct {
	header     *Header
	extensions ExtensionSequence
	volume     *Volume
	affine     Affine
}

// Header returns the parsed header record.
func (n *Nifti) Header() *Header {
	return n.header
}

// Extensions returns the extension chain, which may be empty.
func (n *Nifti) Extensions() ExtensionSequence {
	return n.extensions
}

// Volume returns the decoded voxel volume.
func (n *Nifti) Volume() *Volume {
	return n.volume
}

// Affine returns the voxel-to-space transform.
func (n *Nifti) Affine() Affine {
	return n.affine
}

// ReadFile reads a complete NIfTI object from path. Both storage layouts
// are handled uniformly: a combined ".nii[.gz]" file, or a ".hdr[.gz]"
// file whose companion ".img[.gz]" is resolved next to it. Compression is
// detected from stream content.
func ReadFile(path string, opts ...ReadOption) (*Nifti, error) {
	o := defaultReadOptions()
	for _, opt := range opts {
		opt(o)
	}

	src, err := openMaybeGz(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	r := binary.NewReader(src, stdbinary.LittleEndian)
	h, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}

	if h.singleFile() {
		if _, err := readExtender(r); err != nil {
			return nil, err
		}
		return finishRead(r, h, o)
	}

	// Header-only file: the extender is optional, then extensions and
	// voxel data continue in the companion image file.
	if _, err := readExtender(r); err != nil {
		return nil, err
	}
	img, err := openCompanion(path)
	if err != nil {
		return nil, err
	}
	defer img.Close()
	return finishRead(binary.NewReader(img, h.Order), h, o)
}

// ReadPair reads a NIfTI object from an explicitly named header/image file
// pair, for when the file names do not follow the ".hdr"/".img"
// convention.
func ReadPair(hdrPath, imgPath string, opts ...ReadOption) (*Nifti, error) {
	o := defaultReadOptions()
	for _, opt := range opts {
		opt(o)
	}

	hdrSrc, err := openMaybeGz(hdrPath)
	if err != nil {
		return nil, err
	}
	defer hdrSrc.Close()

	r := binary.NewReader(hdrSrc, stdbinary.LittleEndian)
	h, err := decodeHeader(r)
	if err != nil {
		return nil, err
	}
	if _, err := readExtender(r); err != nil {
		return nil, err
	}

	img, err := openMaybeGz(imgPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrMissingVolume, imgPath)
		}
		return nil, err
	}
	defer img.Close()
	return finishRead(binary.NewReader(img, h.Order), h, o)
}

// finishRead consumes the extension chain and voxel data from r, which is
// positioned right after the header record and extender flag (single file)
// or at the start of the image stream (file pair).
func finishRead(r *binary.Reader, h *Header, o *readOptions) (*Nifti, error) {
	ext, err := readExtensions(r, h.extensionBudget(), !o.discardExtensions)
	if err != nil {
		return nil, err
	}

	raw, err := readVoxelData(r, h)
	if err != nil {
		return nil, err
	}
	vol, err := NewVolume(h, raw)
	if err != nil {
		return nil, err
	}

	return &Nifti{
		header:     h,
		extensions: ext,
		volume:     vol,
		affine:     newAffine(h),
	}, nil
}

// readVoxelData reads the whole declared voxel grid from the stream.
func readVoxelData(r *binary.Reader, h *Header) ([]byte, error) {
	if !h.Datatype.Supported() {
		return nil, fmt.Errorf("%w: code %d (%s)", ErrUnsupportedDatatype, int16(h.Datatype), h.Datatype)
	}
	need, err := dataSize(h.Dims(), h.Datatype.Size())
	if err != nil {
		return nil, err
	}
	raw, err := r.ReadBytes(need)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("%w: voxel stream ended early", ErrTruncated)
		}
		return nil, fmt.Errorf("reading voxel data: %w", err)
	}
	return raw, nil
}
