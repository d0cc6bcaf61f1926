package nifti

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"
)

// gzipMagic is the two-byte signature at the start of every gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// fileSource is a possibly-decompressed view over an open file. Closing it
// releases the decompressor (when present) and the underlying file.
type fileSource struct {
	io.Reader
	file *os.File
	gz   *gzip.Reader
}

func (s *fileSource) Close() error {
	if s.gz != nil {
		if err := s.gz.Close(); err != nil {
			s.file.Close()
			return err
		}
	}
	return s.file.Close()
}

// openMaybeGz opens the file at path, sniffing the leading bytes for the
// gzip signature and transparently wrapping the stream in a decompressor
// when it matches. Detection is by content only; the file name's suffix is
// never consulted.
func openMaybeGz(path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}

	br := bufio.NewReader(f)
	head, err := br.Peek(2)
	if err == nil && bytes.Equal(head, gzipMagic) {
		gz, err := gzip.NewReader(br)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return &fileSource{Reader: gz, file: f, gz: gz}, nil
	}
	// Too-short files surface their read error at header parse time.
	return &fileSource{Reader: br, file: f}, nil
}

// imgCandidates returns the companion image paths for a header file path,
// in preference order: the compressed variant first, then the plain one.
func imgCandidates(hdrPath string) []string {
	base := strings.TrimSuffix(hdrPath, ".gz")
	base = strings.TrimSuffix(base, ".hdr")
	return []string{base + ".img.gz", base + ".img"}
}

// openCompanion resolves and opens the image file paired with a header-only
// file.
func openCompanion(hdrPath string) (*fileSource, error) {
	for _, candidate := range imgCandidates(hdrPath) {
		src, err := openMaybeGz(candidate)
		if err == nil {
			return src, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: no companion image for %s", ErrMissingVolume, hdrPath)
}
