// Diagnostic tool for inspecting NIfTI-1 files.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"math"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/robert-malhotra/go-nifti/nifti"
)

func main() {
	headerOnly := flag.Bool("header", false, "print the header only, without reading voxel data")
	stats := flag.Bool("stats", false, "stream the voxel data and print value statistics")
	verbose := flag.Bool("v", false, "verbose logging")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: niftidump [flags] <file.nii[.gz] | file.hdr[.gz]>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	if *verbose {
		log.SetLevel(log.DebugLevel)
	}
	path := flag.Arg(0)

	h, err := nifti.ReadHeader(path)
	if err != nil {
		log.WithError(err).Fatal("reading header")
	}
	printHeader(h)

	if *headerOnly {
		return
	}

	obj, err := nifti.ReadFile(path)
	if err != nil {
		log.WithError(err).Fatal("reading object")
	}
	printExtensions(obj.Extensions())
	printAffine(obj.Affine())

	if *stats {
		printStats(path)
	}
}

func printHeader(h *nifti.Header) {
	fmt.Printf("magic:       %q\n", h.Magic[:3])
	fmt.Printf("byte order:  %v\n", h.Order)
	fmt.Printf("dims:        %v\n", h.Dims())
	fmt.Printf("datatype:    %s (bitpix %d)\n", h.Datatype, h.Bitpix)
	fmt.Printf("pixdim:      %v\n", h.Pixdim[1:1+int(h.Dim[0])])
	fmt.Printf("vox_offset:  %v\n", h.VoxOffset)
	fmt.Printf("scaling:     slope=%v inter=%v\n", h.SclSlope, h.SclInter)
	fmt.Printf("qform/sform: %d/%d\n", h.QformCode, h.SformCode)
	if desc := h.Description(); desc != "" {
		fmt.Printf("descrip:     %s\n", desc)
	}
}

func printExtensions(exts nifti.ExtensionSequence) {
	fmt.Printf("extensions:  %d\n", len(exts))
	for i, e := range exts {
		fmt.Printf("  [%d] code=%d size=%d\n", i, e.Code, e.Size)
	}
}

func printAffine(a nifti.Affine) {
	fmt.Println("affine:")
	for _, row := range a {
		fmt.Printf("  [%9.4f %9.4f %9.4f %9.4f]\n", row[0], row[1], row[2], row[3])
	}
}

// printStats re-reads the file slice by slice so arbitrarily large volumes
// never have to fit in memory at once.
func printStats(path string) {
	s, err := nifti.ReadStreamed(path)
	if err != nil {
		log.WithError(err).Fatal("opening streamed volume")
	}
	defer s.Close()

	minV, maxV := math.Inf(1), math.Inf(-1)
	var sum float64
	var count int

	for {
		slice, err := s.NextSlice()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			log.WithError(err).Fatal("reading slice")
		}
		log.WithField("left", s.SlicesLeft()).Debug("slice read")

		values, err := slice.Float64s()
		if err != nil {
			log.WithError(err).Fatal("decoding slice")
		}
		for _, v := range values {
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
			sum += v
			count++
		}
	}

	if count == 0 {
		return
	}
	fmt.Printf("voxels:      %d\n", count)
	fmt.Printf("min/max:     %v / %v\n", minV, maxV)
	fmt.Printf("mean:        %v\n", sum/float64(count))
}
