package nifti

import (
	stdbinary "encoding/binary"
	"fmt"
	"math"
)

// decodeFunc decodes one element's bytes into a float64. One function is
// selected per volume so the per-voxel path stays branch-free.
type decodeFunc func(b []byte) float64

// Volume is an in-memory NIfTI voxel volume. It owns the raw voxel buffer
// in its on-disk byte order and decodes elements on access. Volumes are
// immutable once constructed and safe for concurrent reads.
type Volume struct {
	dims     []int
	datatype Datatype
	slope    float32
	inter    float32
	order    stdbinary.ByteOrder
	raw      []byte
	elemSize int
	dec      decodeFunc // nil for complex and color datatypes
}

// dataSize returns the byte size of a voxel grid with the given extents.
// The product is accumulated with overflow checking so a hostile header
// cannot wrap the size to a small value.
func dataSize(dims []int, elemSize int) (int, error) {
	n := elemSize
	for _, d := range dims {
		if d <= 0 || n > math.MaxInt/d {
			return 0, fmt.Errorf("%w: voxel grid of %v exceeds addressable size", ErrInvalidHeader, dims)
		}
		n *= d
	}
	return n, nil
}

// NewVolume constructs a volume over raw voxel bytes described by the given
// header. The buffer must hold at least one element per declared grid cell.
func NewVolume(h *Header, raw []byte) (*Volume, error) {
	if !h.Datatype.Supported() {
		return nil, fmt.Errorf("%w: code %d (%s)", ErrUnsupportedDatatype, int16(h.Datatype), h.Datatype)
	}
	dims := h.Dims()
	size := h.Datatype.Size()
	need, err := dataSize(dims, size)
	if err != nil {
		return nil, err
	}
	if len(raw) < need {
		return nil, fmt.Errorf("%w: have %d bytes, need %d", ErrTruncated, len(raw), need)
	}

	v := &Volume{
		dims:     dims,
		datatype: h.Datatype,
		slope:    h.SclSlope,
		inter:    h.SclInter,
		order:    h.Order,
		raw:      raw,
		elemSize: size,
	}
	if h.Datatype.scalar() {
		v.dec = scalarDecoder(h.Datatype, h.Order)
	}
	return v, nil
}

// scalarDecoder returns the element decoder for a scalar datatype.
func scalarDecoder(dt Datatype, order stdbinary.ByteOrder) decodeFunc {
	switch dt {
	case Uint8:
		return func(b []byte) float64 { return float64(b[0]) }
	case Int8:
		return func(b []byte) float64 { return float64(int8(b[0])) }
	case Int16:
		return func(b []byte) float64 { return float64(int16(order.Uint16(b))) }
	case Uint16:
		return func(b []byte) float64 { return float64(order.Uint16(b)) }
	case Int32:
		return func(b []byte) float64 { return float64(int32(order.Uint32(b))) }
	case Uint32:
		return func(b []byte) float64 { return float64(order.Uint32(b)) }
	case Int64:
		return func(b []byte) float64 { return float64(int64(order.Uint64(b))) }
	case Uint64:
		return func(b []byte) float64 { return float64(order.Uint64(b)) }
	case Float32:
		return func(b []byte) float64 { return float64(math.Float32frombits(order.Uint32(b))) }
	case Float64:
		return func(b []byte) float64 { return math.Float64frombits(order.Uint64(b)) }
	default:
		return nil
	}
}

// Dims returns the per-axis extents.
func (v *Volume) Dims() []int {
	dims := make([]int, len(v.dims))
	copy(dims, v.dims)
	return dims
}

// Rank returns the number of dimensions.
func (v *Volume) Rank() int {
	return len(v.dims)
}

// Datatype returns the voxel datatype.
func (v *Volume) Datatype() Datatype {
	return v.datatype
}

// Len returns the total number of elements.
func (v *Volume) Len() int {
	n := 1
	for _, d := range v.dims {
		n *= d
	}
	return n
}

// RawData returns the underlying voxel buffer in on-disk byte order.
// Callers must not modify it.
func (v *Volume) RawData() []byte {
	return v.raw
}

// index maps an N-dimensional coordinate to a flat element index. Voxels
// are stored with the first axis fastest, matching the on-disk ordering.
func (v *Volume) index(coords []int) (int, error) {
	if len(coords) != len(v.dims) {
		return 0, fmt.Errorf("%w: got %d coordinates for a %d-dimensional volume",
			ErrOutOfBounds, len(coords), len(v.dims))
	}
	for i, c := range coords {
		if c < 0 || c >= v.dims[i] {
			return 0, fmt.Errorf("%w: coordinate %d on axis %d (extent %d)",
				ErrOutOfBounds, c, i, v.dims[i])
		}
	}
	idx := 0
	for i := len(coords) - 1; i >= 0; i-- {
		idx = idx*v.dims[i] + coords[i]
	}
	return idx, nil
}

// scale applies the header's linear scaling. A zero slope means no scaling
// was declared.
func (v *Volume) scale(x float64) float64 {
	if v.slope == 0 {
		return x
	}
	return x*float64(v.slope) + float64(v.inter)
}

// At returns the scaled value of the voxel at the given coordinates, one
// per declared dimension. Only scalar datatypes can be read this way; use
// ComplexAt, RGBAt or RGBAAt for structured element types.
func (v *Volume) At(coords ...int) (float64, error) {
	raw, err := v.RawAt(coords...)
	if err != nil {
		return 0, err
	}
	return v.scale(raw), nil
}

// RawAt returns the stored value of a scalar voxel without scaling.
func (v *Volume) RawAt(coords ...int) (float64, error) {
	if v.dec == nil {
		return 0, fmt.Errorf("%w: %s elements are not scalar", ErrUnsupportedDatatype, v.datatype)
	}
	idx, err := v.index(coords)
	if err != nil {
		return 0, err
	}
	off := idx * v.elemSize
	return v.dec(v.raw[off : off+v.elemSize]), nil
}

// ComplexAt returns the complex voxel at the given coordinates. Complex
// elements are never scaled.
func (v *Volume) ComplexAt(coords ...int) (complex128, error) {
	if v.datatype != Complex64 && v.datatype != Complex128 {
		return 0, fmt.Errorf("%w: %s elements are not complex", ErrUnsupportedDatatype, v.datatype)
	}
	idx, err := v.index(coords)
	if err != nil {
		return 0, err
	}
	off := idx * v.elemSize
	b := v.raw[off : off+v.elemSize]
	if v.datatype == Complex64 {
		re := math.Float32frombits(v.order.Uint32(b))
		im := math.Float32frombits(v.order.Uint32(b[4:]))
		return complex(float64(re), float64(im)), nil
	}
	re := math.Float64frombits(v.order.Uint64(b))
	im := math.Float64frombits(v.order.Uint64(b[8:]))
	return complex(re, im), nil
}

// RGBAt returns the RGB voxel at the given coordinates. Color elements are
// never scaled.
func (v *Volume) RGBAt(coords ...int) ([3]uint8, error) {
	if v.datatype != RGB24 {
		return [3]uint8{}, fmt.Errorf("%w: %s elements are not RGB", ErrUnsupportedDatatype, v.datatype)
	}
	idx, err := v.index(coords)
	if err != nil {
		return [3]uint8{}, err
	}
	off := idx * 3
	return [3]uint8{v.raw[off], v.raw[off+1], v.raw[off+2]}, nil
}

// RGBAAt returns the RGBA voxel at the given coordinates.
func (v *Volume) RGBAAt(coords ...int) ([4]uint8, error) {
	if v.datatype != RGBA32 {
		return [4]uint8{}, fmt.Errorf("%w: %s elements are not RGBA", ErrUnsupportedDatatype, v.datatype)
	}
	idx, err := v.index(coords)
	if err != nil {
		return [4]uint8{}, err
	}
	off := idx * 4
	return [4]uint8{v.raw[off], v.raw[off+1], v.raw[off+2], v.raw[off+3]}, nil
}

// Float64s decodes the whole volume into scaled float64 values in storage
// order (first axis fastest).
func (v *Volume) Float64s() ([]float64, error) {
	if v.dec == nil {
		return nil, fmt.Errorf("%w: %s elements are not scalar", ErrUnsupportedDatatype, v.datatype)
	}
	n := v.Len()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		off := i * v.elemSize
		out[i] = v.scale(v.dec(v.raw[off : off+v.elemSize]))
	}
	return out, nil
}

// Line is a cursor over the voxels along one axis, with the remaining
// coordinates held fixed. It carries no state beyond its own position, so
// independent lines over the same volume may be advanced concurrently.
type Line struct {
	v      *Volume
	offset int // flat element index at axis position 0
	stride int // elements between consecutive axis positions
	n      int
	i      int
}

// Line returns a fresh cursor over the axis'th dimension, with the other
// coordinates taken from origin. The origin's entry for the iterated axis
// is ignored; iteration always starts at zero. Only scalar datatypes can
// be iterated.
func (v *Volume) Line(axis int, origin []int) (*Line, error) {
	if v.dec == nil {
		return nil, fmt.Errorf("%w: %s elements are not scalar", ErrUnsupportedDatatype, v.datatype)
	}
	if axis < 0 || axis >= len(v.dims) {
		return nil, fmt.Errorf("%w: axis %d of a %d-dimensional volume", ErrOutOfBounds, axis, len(v.dims))
	}
	if len(origin) != len(v.dims) {
		return nil, fmt.Errorf("%w: got %d coordinates for a %d-dimensional volume",
			ErrOutOfBounds, len(origin), len(v.dims))
	}
	start := make([]int, len(v.dims))
	copy(start, origin)
	start[axis] = 0
	offset, err := v.index(start)
	if err != nil {
		return nil, err
	}
	stride := 1
	for i := 0; i < axis; i++ {
		stride *= v.dims[i]
	}
	return &Line{v: v, offset: offset, stride: stride, n: v.dims[axis]}, nil
}

// Len returns the number of values the line yields in total.
func (l *Line) Len() int {
	return l.n
}

// Next returns the next scaled value along the axis. The second result is
// false once the line is exhausted.
func (l *Line) Next() (float64, bool) {
	if l.i >= l.n {
		return 0, false
	}
	off := (l.offset + l.i*l.stride) * l.v.elemSize
	l.i++
	return l.v.scale(l.v.dec(l.v.raw[off : off+l.v.elemSize])), true
}
