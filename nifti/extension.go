package nifti

import (
	"errors"
	"fmt"
	"io"

	"github.com/robert-malhotra/go-nifti/internal/binary"
)

// Extender is the 4-byte flag that follows the fixed header record. A
// nonzero first byte signals that extension records follow.
type Extender [4]byte

// HasExtensions reports whether the extender announces extension records.
func (e Extender) HasExtensions() bool {
	return e[0] != 0
}

// Extension is one record of the extension chain. The payload format is
// identified by Code and is opaque to this package.
type Extension struct {
	// Size is the declared esize, including the 8-byte record header.
	// Always a positive multiple of 16.
	Size int32
	// Code is the ecode identifying the payload's content type.
	Code int32
	// Data holds the Size-8 payload bytes. Nil when payloads were
	// discarded at read time.
	Data []byte
}

// ExtensionSequence is the ordered chain of extension records between the
// header and the voxel data.
type ExtensionSequence []Extension

// readExtender reads the 4-byte extender flag. In header-only files the
// extender is optional; a clean EOF yields a zero extender.
func readExtender(r *binary.Reader) (Extender, error) {
	var e Extender
	err := r.ReadFull(e[:])
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return Extender{}, nil
	}
	if err != nil {
		return Extender{}, fmt.Errorf("reading extender: %w", err)
	}
	return e, nil
}

// readExtensions reads extension records until exactly budget bytes have
// been consumed. A record whose size is not a positive multiple of 16, or
// a chain that does not terminate exactly on the budget, is malformed.
// When keep is false the payload bytes are skipped instead of stored.
func readExtensions(r *binary.Reader, budget int64, keep bool) (ExtensionSequence, error) {
	var seq ExtensionSequence
	for budget > 0 {
		if budget < 8 {
			return nil, fmt.Errorf("%w: %d stray bytes in extension chain", ErrInvalidHeader, budget)
		}
		esize, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading extension size: %w", err)
		}
		ecode, err := r.ReadInt32()
		if err != nil {
			return nil, fmt.Errorf("reading extension code: %w", err)
		}
		if esize <= 0 || esize%extensionAlign != 0 {
			return nil, fmt.Errorf("%w: extension size %d is not a positive multiple of %d",
				ErrInvalidHeader, esize, extensionAlign)
		}
		if int64(esize) > budget {
			return nil, fmt.Errorf("%w: extension size %d overruns voxel data offset",
				ErrInvalidHeader, esize)
		}

		ext := Extension{Size: esize, Code: ecode}
		if keep {
			if ext.Data, err = r.ReadBytes(int(esize - 8)); err != nil {
				return nil, fmt.Errorf("reading extension payload: %w", err)
			}
		} else {
			if err := r.Skip(int64(esize - 8)); err != nil {
				return nil, fmt.Errorf("skipping extension payload: %w", err)
			}
		}
		seq = append(seq, ext)
		budget -= int64(esize)
	}
	return seq, nil
}
