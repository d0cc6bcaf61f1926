package nifti

import (
	stdbinary "encoding/binary"
	"fmt"
	"math/bits"
	"strings"

	"github.com/robert-malhotra/go-nifti/internal/binary"
)

const (
	// headerSize is the fixed size of the NIfTI-1 header record.
	headerSize = 348
	// extendedHeaderSize is the header record plus the 4-byte extender flag.
	// In a single-file NIfTI, vox_offset is at least this value.
	extendedHeaderSize = 352
	// extensionAlign is the required alignment of extension record sizes.
	extensionAlign = 16
)

// Magic codes distinguishing the two NIfTI-1 storage layouts.
var (
	// magicSingle identifies a combined header+image file (".nii[.gz]").
	magicSingle = [4]byte{'n', '+', '1', 0}
	// magicPair identifies a header-only file (".hdr[.gz]") whose image
	// data lives in a companion ".img[.gz]" file.
	magicPair = [4]byte{'n', 'i', '1', 0}
)

// Header is the NIfTI-1 header record. Fields are named after the format
// specification. The unused Analyze-7.5 compatibility fields (data_type,
// db_name, extents, session_error, regular, glmax, glmin) are consumed
// during parsing but not retained.
type Header struct {
	// SizeOfHdr must be 348. Its value under both byte orders is how the
	// file's endianness is detected.
	SizeOfHdr int32
	// DimInfo encodes MRI slice ordering.
	DimInfo uint8
	// Dim holds the data array dimensions; Dim[0] is the dimensionality
	// (1 to 7) and Dim[1..Dim[0]] the per-axis extents.
	Dim [8]int16
	// IntentP1, IntentP2, IntentP3 are intent parameters.
	IntentP1 float32
	IntentP2 float32
	IntentP3 float32
	// IntentCode is a NIFTI_INTENT_* code.
	IntentCode int16
	// Datatype defines the voxel data type.
	Datatype Datatype
	// Bitpix is the number of bits per voxel.
	Bitpix int16
	// SliceStart is the first slice index.
	SliceStart int16
	// Pixdim holds the grid spacings. Pixdim[0] is qfac, the quaternion
	// handedness flag (1 or -1).
	Pixdim [8]float32
	// VoxOffset is the byte offset to the voxel data. At least 352 in a
	// single-file NIfTI.
	VoxOffset float32
	// SclSlope and SclInter define the linear value scaling
	// real = stored*slope + inter, applied when slope is nonzero.
	SclSlope float32
	SclInter float32
	// SliceEnd is the last slice index.
	SliceEnd int16
	// SliceCode is the slice timing order.
	SliceCode int8
	// XyztUnits encodes the units of Pixdim[1..4].
	XyztUnits int8
	// CalMax and CalMin are the display intensity range.
	CalMax float32
	CalMin float32
	// SliceDuration is the acquisition time of one slice.
	SliceDuration float32
	// Toffset is the time axis shift.
	Toffset float32
	// Descrip is free text.
	Descrip [80]byte
	// AuxFile is an auxiliary filename.
	AuxFile [24]byte
	// QformCode and SformCode are NIFTI_XFORM_* codes declaring which
	// orientation fields are valid.
	QformCode int16
	SformCode int16
	// QuaternB, QuaternC, QuaternD are the quaternion parameters; the
	// first component is implicit.
	QuaternB float32
	QuaternC float32
	QuaternD float32
	// QoffsetX, QoffsetY, QoffsetZ are the quaternion translation.
	QoffsetX float32
	QoffsetY float32
	QoffsetZ float32
	// SrowX, SrowY, SrowZ are the sform affine rows.
	SrowX [4]float32
	SrowY [4]float32
	SrowZ [4]float32
	// IntentName is the name or meaning of the data.
	IntentName [16]byte
	// Magic must be "n+1\0" (single file) or "ni1\0" (file pair).
	Magic [4]byte

	// Order is the byte order the record was stored in, detected from
	// SizeOfHdr. Voxel data shares this order.
	Order stdbinary.ByteOrder
}

// ReadHeader reads only the header record from a NIfTI file, which may be
// a ".nii[.gz]" or ".hdr[.gz]" file. Compression is detected from the
// stream content, not the file name.
func ReadHeader(path string) (*Header, error) {
	src, err := openMaybeGz(path)
	if err != nil {
		return nil, err
	}
	defer src.Close()

	return decodeHeader(binary.NewReader(src, stdbinary.LittleEndian))
}

// decodeHeader reads the fixed 348-byte record, detecting endianness from
// the sizeof_hdr field. The reader's byte order is corrected in place so
// subsequent extension and voxel reads use the detected order.
func decodeHeader(r *binary.Reader) (*Header, error) {
	h := &Header{}

	size, err := r.ReadInt32()
	if err != nil {
		return nil, fmt.Errorf("reading header size: %w", err)
	}
	switch {
	case size == headerSize:
		h.Order = r.ByteOrder()
	case int32(bits.ReverseBytes32(uint32(size))) == headerSize:
		if r.ByteOrder() == stdbinary.LittleEndian {
			h.Order = stdbinary.BigEndian
		} else {
			h.Order = stdbinary.LittleEndian
		}
		r.SetOrder(h.Order)
	default:
		return nil, fmt.Errorf("%w: header size %d under either byte order", ErrInvalidHeader, size)
	}
	h.SizeOfHdr = headerSize

	// data_type[10], db_name[18], extents, session_error and regular are
	// unused in NIfTI-1.
	if err := r.Skip(10 + 18 + 4 + 2 + 1); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if h.DimInfo, err = r.ReadUint8(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range h.Dim {
		if h.Dim[i], err = r.ReadInt16(); err != nil {
			return nil, fmt.Errorf("reading dim: %w", err)
		}
	}

	fields32 := []*float32{&h.IntentP1, &h.IntentP2, &h.IntentP3}
	for _, f := range fields32 {
		if *f, err = r.ReadFloat32(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}
	if h.IntentCode, err = r.ReadInt16(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	dt, err := r.ReadInt16()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	h.Datatype = Datatype(dt)
	if h.Bitpix, err = r.ReadInt16(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if h.SliceStart, err = r.ReadInt16(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i := range h.Pixdim {
		if h.Pixdim[i], err = r.ReadFloat32(); err != nil {
			return nil, fmt.Errorf("reading pixdim: %w", err)
		}
	}

	fields32 = []*float32{&h.VoxOffset, &h.SclSlope, &h.SclInter}
	for _, f := range fields32 {
		if *f, err = r.ReadFloat32(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}
	if h.SliceEnd, err = r.ReadInt16(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if h.SliceCode, err = r.ReadInt8(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if h.XyztUnits, err = r.ReadInt8(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	fields32 = []*float32{&h.CalMax, &h.CalMin, &h.SliceDuration, &h.Toffset}
	for _, f := range fields32 {
		if *f, err = r.ReadFloat32(); err != nil {
			return nil, fmt.Errorf("reading header: %w", err)
		}
	}
	// glmax and glmin are unused in NIfTI-1.
	if err := r.Skip(8); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if err := r.ReadFull(h.Descrip[:]); err != nil {
		return nil, fmt.Errorf("reading descrip: %w", err)
	}
	if err := r.ReadFull(h.AuxFile[:]); err != nil {
		return nil, fmt.Errorf("reading aux_file: %w", err)
	}
	if h.QformCode, err = r.ReadInt16(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if h.SformCode, err = r.ReadInt16(); err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	fields32 = []*float32{
		&h.QuaternB, &h.QuaternC, &h.QuaternD,
		&h.QoffsetX, &h.QoffsetY, &h.QoffsetZ,
	}
	for _, f := range fields32 {
		if *f, err = r.ReadFloat32(); err != nil {
			return nil, fmt.Errorf("reading quaternion: %w", err)
		}
	}
	for _, row := range []*[4]float32{&h.SrowX, &h.SrowY, &h.SrowZ} {
		for i := range row {
			if row[i], err = r.ReadFloat32(); err != nil {
				return nil, fmt.Errorf("reading srow: %w", err)
			}
		}
	}
	if err := r.ReadFull(h.IntentName[:]); err != nil {
		return nil, fmt.Errorf("reading intent_name: %w", err)
	}
	if err := r.ReadFull(h.Magic[:]); err != nil {
		return nil, fmt.Errorf("reading magic: %w", err)
	}

	if h.Magic != magicSingle && h.Magic != magicPair {
		return nil, fmt.Errorf("%w: magic %q", ErrUnknownFormat, h.Magic[:])
	}
	if err := h.validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// validate checks the structural well-formedness of the declared grid.
func (h *Header) validate() error {
	nd := h.Dim[0]
	if nd < 1 || nd > 7 {
		return fmt.Errorf("%w: dimensionality %d", ErrInvalidHeader, nd)
	}
	for i := int16(1); i <= nd; i++ {
		if h.Dim[i] <= 0 {
			return fmt.Errorf("%w: dim[%d] = %d", ErrInvalidHeader, i, h.Dim[i])
		}
	}
	if h.singleFile() && h.VoxOffset < extendedHeaderSize {
		return fmt.Errorf("%w: vox_offset %v inside header record", ErrInvalidHeader, h.VoxOffset)
	}
	return nil
}

// singleFile reports whether the header belongs to a combined header+image
// file, as opposed to a header/image pair.
func (h *Header) singleFile() bool {
	return h.Magic == magicSingle
}

// Dims returns the effective per-axis extents, clipped to the declared
// dimensionality.
func (h *Header) Dims() []int {
	nd := int(h.Dim[0])
	dims := make([]int, nd)
	for i := 0; i < nd; i++ {
		dims[i] = int(h.Dim[i+1])
	}
	return dims
}

// Description returns the descrip field as a string, trimmed of NUL padding.
func (h *Header) Description() string {
	return strings.TrimRight(string(h.Descrip[:]), "\x00")
}

// extensionBudget returns the number of bytes between the extender flag and
// the voxel data, which the extension chain must fill exactly.
func (h *Header) extensionBudget() int64 {
	off := int64(h.VoxOffset)
	if off < extendedHeaderSize {
		return 0
	}
	return off - extendedHeaderSize
}
