// Package ndarray converts decoded NIfTI volumes into dense gonum
// containers. It sits outside the reading core: it only drains the
// volume accessor, never touches the file layer.
package ndarray

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/robert-malhotra/go-nifti/nifti"
)

// Floats drains the volume into scaled float64 values in storage order
// (first axis fastest) and returns them with the volume's shape.
func Floats(v *nifti.Volume) ([]float64, []int, error) {
	data, err := v.Float64s()
	if err != nil {
		return nil, nil, err
	}
	return data, v.Dims(), nil
}

// Plane extracts the 2-D plane spanned by the volume's first two axes,
// with the remaining coordinates held at fixed, as a dense matrix whose
// rows follow the first axis.
func Plane(v *nifti.Volume, fixed ...int) (*mat.Dense, error) {
	dims := v.Dims()
	if len(dims) < 2 {
		return nil, fmt.Errorf("%w: plane extraction needs at least 2 dimensions", nifti.ErrOutOfBounds)
	}
	if len(fixed) != len(dims)-2 {
		return nil, fmt.Errorf("%w: got %d fixed coordinates for a %d-dimensional volume",
			nifti.ErrOutOfBounds, len(fixed), len(dims))
	}

	coords := make([]int, len(dims))
	copy(coords[2:], fixed)

	rows, cols := dims[0], dims[1]
	m := mat.NewDense(rows, cols, nil)
	for j := 0; j < cols; j++ {
		for i := 0; i < rows; i++ {
			coords[0], coords[1] = i, j
			val, err := v.At(coords...)
			if err != nil {
				return nil, err
			}
			m.Set(i, j, val)
		}
	}
	return m, nil
}
