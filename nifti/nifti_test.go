package nifti

import (
	"bytes"
	stdbinary "encoding/binary"
	"testing"
)

// testHeader returns a minimal valid single-file header for the given grid.
func testHeader(dims []int, dt Datatype) *Header {
	h := &Header{
		SizeOfHdr: headerSize,
		Datatype:  dt,
		Bitpix:    int16(dt.Size() * 8),
		VoxOffset: extendedHeaderSize,
		Magic:     magicSingle,
		Order:     stdbinary.LittleEndian,
	}
	h.Dim[0] = int16(len(dims))
	for i, d := range dims {
		h.Dim[i+1] = int16(d)
	}
	for i := range h.Pixdim {
		h.Pixdim[i] = 1
	}
	return h
}

// encodeHeader serializes h into the fixed 348-byte record under order.
func encodeHeader(t *testing.T, h *Header, order stdbinary.ByteOrder) []byte {
	t.Helper()

	buf := &bytes.Buffer{}
	write := func(v interface{}) {
		if err := stdbinary.Write(buf, order, v); err != nil {
			t.Fatalf("encoding header: %v", err)
		}
	}

	write(h.SizeOfHdr)
	write(make([]byte, 35)) // data_type, db_name, extents, session_error, regular
	write(h.DimInfo)
	write(h.Dim)
	write(h.IntentP1)
	write(h.IntentP2)
	write(h.IntentP3)
	write(h.IntentCode)
	write(int16(h.Datatype))
	write(h.Bitpix)
	write(h.SliceStart)
	write(h.Pixdim)
	write(h.VoxOffset)
	write(h.SclSlope)
	write(h.SclInter)
	write(h.SliceEnd)
	write(h.SliceCode)
	write(h.XyztUnits)
	write(h.CalMax)
	write(h.CalMin)
	write(h.SliceDuration)
	write(h.Toffset)
	write(int32(0)) // glmax
	write(int32(0)) // glmin
	write(h.Descrip)
	write(h.AuxFile)
	write(h.QformCode)
	write(h.SformCode)
	write(h.QuaternB)
	write(h.QuaternC)
	write(h.QuaternD)
	write(h.QoffsetX)
	write(h.QoffsetY)
	write(h.QoffsetZ)
	write(h.SrowX)
	write(h.SrowY)
	write(h.SrowZ)
	write(h.IntentName)
	write(h.Magic)

	if buf.Len() != headerSize {
		t.Fatalf("encoded header is %d bytes, want %d", buf.Len(), headerSize)
	}
	return buf.Bytes()
}

// encodeValues serializes typed voxel values under order.
func encodeValues(t *testing.T, order stdbinary.ByteOrder, values interface{}) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := stdbinary.Write(buf, order, values); err != nil {
		t.Fatalf("encoding values: %v", err)
	}
	return buf.Bytes()
}
