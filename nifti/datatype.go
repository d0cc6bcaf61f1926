package nifti

import "fmt"

// Datatype is a NIfTI-1 datatype code, as stored in the header's datatype
// field. The codes are defined by the format specification (nifti1.h).
type Datatype int16

// Datatype codes recognized by the format.
const (
	Uint8      Datatype = 2
	Int16      Datatype = 4
	Int32      Datatype = 8
	Float32    Datatype = 16
	Complex64  Datatype = 32
	Float64    Datatype = 64
	RGB24      Datatype = 128
	Int8       Datatype = 256
	Uint16     Datatype = 512
	Uint32     Datatype = 768
	Int64      Datatype = 1024
	Uint64     Datatype = 1280
	Float128   Datatype = 1536
	Complex128 Datatype = 1792
	Complex256 Datatype = 2048
	RGBA32     Datatype = 2304
)

var datatypeNames = map[Datatype]string{
	Uint8:      "uint8",
	Int16:      "int16",
	Int32:      "int32",
	Float32:    "float32",
	Complex64:  "complex64",
	Float64:    "float64",
	RGB24:      "rgb24",
	Int8:       "int8",
	Uint16:     "uint16",
	Uint32:     "uint32",
	Int64:      "int64",
	Uint64:     "uint64",
	Float128:   "float128",
	Complex128: "complex128",
	Complex256: "complex256",
	RGBA32:     "rgba32",
}

var datatypeSizes = map[Datatype]int{
	Uint8:      1,
	Int16:      2,
	Int32:      4,
	Float32:    4,
	Complex64:  8,
	Float64:    8,
	RGB24:      3,
	Int8:       1,
	Uint16:     2,
	Uint32:     4,
	Int64:      8,
	Uint64:     8,
	Float128:   16,
	Complex128: 16,
	Complex256: 32,
	RGBA32:     4,
}

func (dt Datatype) String() string {
	if name, ok := datatypeNames[dt]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int16(dt))
}

// Size returns the width of one element in bytes, or 0 for unknown codes.
func (dt Datatype) Size() int {
	return datatypeSizes[dt]
}

// Supported reports whether this implementation can decode elements of the
// datatype. Float128 and Complex256 are valid codes but have no Go
// representation.
func (dt Datatype) Supported() bool {
	switch dt {
	case Uint8, Int16, Int32, Float32, Complex64, Float64, RGB24,
		Int8, Uint16, Uint32, Int64, Uint64, Complex128, RGBA32:
		return true
	}
	return false
}

// scalar reports whether elements are single numeric values, as opposed to
// complex or color tuples.
func (dt Datatype) scalar() bool {
	switch dt {
	case Uint8, Int16, Int32, Float32, Float64, Int8, Uint16, Uint32, Int64, Uint64:
		return true
	}
	return false
}
