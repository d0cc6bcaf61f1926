package nifti

import (
	"bytes"
	stdbinary "encoding/binary"
	"errors"
	"testing"

	"github.com/robert-malhotra/go-nifti/internal/binary"
)

// encodeExtension produces one (esize, ecode, payload) record. The payload
// is padded to esize-8 bytes.
func encodeExtension(t *testing.T, order stdbinary.ByteOrder, esize, ecode int32, payload []byte) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	stdbinary.Write(buf, order, esize)
	stdbinary.Write(buf, order, ecode)
	data := make([]byte, int(esize)-8)
	copy(data, payload)
	buf.Write(data)
	return buf.Bytes()
}

func TestExtensionChainExact(t *testing.T) {
	var chain []byte
	chain = append(chain, encodeExtension(t, stdbinary.LittleEndian, 16, 4, []byte("dicom"))...)
	chain = append(chain, encodeExtension(t, stdbinary.LittleEndian, 32, 6, []byte("comment"))...)

	r := binary.NewReader(bytes.NewReader(chain), stdbinary.LittleEndian)
	seq, err := readExtensions(r, int64(len(chain)), true)
	if err != nil {
		t.Fatalf("readExtensions failed: %v", err)
	}

	if len(seq) != 2 {
		t.Fatalf("got %d extensions, want 2", len(seq))
	}
	if seq[0].Size != 16 || seq[0].Code != 4 {
		t.Errorf("first record = (%d, %d), want (16, 4)", seq[0].Size, seq[0].Code)
	}
	if string(seq[0].Data[:5]) != "dicom" {
		t.Errorf("first payload = %q", seq[0].Data)
	}
	if seq[1].Size != 32 || seq[1].Code != 6 {
		t.Errorf("second record = (%d, %d), want (32, 6)", seq[1].Size, seq[1].Code)
	}
	if len(seq[1].Data) != 24 {
		t.Errorf("second payload is %d bytes, want 24", len(seq[1].Data))
	}
}

func TestExtensionChainOvershoot(t *testing.T) {
	// One record claiming 48 bytes in a 32-byte gap.
	chain := encodeExtension(t, stdbinary.LittleEndian, 48, 0, nil)

	r := binary.NewReader(bytes.NewReader(chain), stdbinary.LittleEndian)
	_, err := readExtensions(r, 32, true)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestExtensionChainMisaligned(t *testing.T) {
	tests := []struct {
		name  string
		esize int32
	}{
		{"not a multiple of 16", 20},
		{"zero", 0},
		{"negative", -16},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			stdbinary.Write(buf, stdbinary.LittleEndian, tt.esize)
			stdbinary.Write(buf, stdbinary.LittleEndian, int32(0))
			buf.Write(make([]byte, 40))

			r := binary.NewReader(buf, stdbinary.LittleEndian)
			_, err := readExtensions(r, 48, true)
			if !errors.Is(err, ErrInvalidHeader) {
				t.Errorf("expected ErrInvalidHeader, got %v", err)
			}
		})
	}
}

func TestExtensionChainStrayBytes(t *testing.T) {
	r := binary.NewReader(bytes.NewReader(make([]byte, 4)), stdbinary.LittleEndian)
	_, err := readExtensions(r, 4, true)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Errorf("expected ErrInvalidHeader, got %v", err)
	}
}

func TestExtensionChainDiscard(t *testing.T) {
	chain := encodeExtension(t, stdbinary.LittleEndian, 16, 4, []byte("dropme"))

	r := binary.NewReader(bytes.NewReader(chain), stdbinary.LittleEndian)
	seq, err := readExtensions(r, int64(len(chain)), false)
	if err != nil {
		t.Fatalf("readExtensions failed: %v", err)
	}
	if len(seq) != 1 {
		t.Fatalf("got %d extensions, want 1", len(seq))
	}
	if seq[0].Data != nil {
		t.Errorf("payload retained despite discard: %q", seq[0].Data)
	}
	if seq[0].Size != 16 || seq[0].Code != 4 {
		t.Errorf("record metadata lost: (%d, %d)", seq[0].Size, seq[0].Code)
	}
	// The reader must have consumed the full chain regardless.
	if r.Pos() != int64(len(chain)) {
		t.Errorf("consumed %d bytes, want %d", r.Pos(), len(chain))
	}
}

func TestExtenderFlag(t *testing.T) {
	if (Extender{}).HasExtensions() {
		t.Error("zero extender should announce no extensions")
	}
	if !(Extender{1, 0, 0, 0}).HasExtensions() {
		t.Error("extender with nonzero first byte should announce extensions")
	}
}
