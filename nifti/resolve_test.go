package nifti

import (
	"io"
	"path/filepath"
	"testing"
)

func TestFileSourceCloseReportsGzipError(t *testing.T) {
	dir := t.TempDir()
	payload := make([]byte, 4096)
	for i := range payload {
		payload[i] = byte(i * 7)
	}
	data := gzipBytes(t, payload)
	path := filepath.Join(dir, "trunc.nii.gz")
	// Cut into the deflate stream so the decompressor ends in an error state.
	writeFixture(t, path, data[:len(data)/2])

	src, err := openMaybeGz(path)
	if err != nil {
		t.Fatalf("openMaybeGz failed: %v", err)
	}
	if _, err := io.Copy(io.Discard, src); err == nil {
		t.Fatal("expected a read error on the truncated stream")
	}
	if err := src.Close(); err == nil {
		t.Error("Close dropped the decompressor error")
	}
}
