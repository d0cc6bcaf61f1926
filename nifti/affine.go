package nifti

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// Affine is a 4x4 transform mapping voxel index coordinates to spatial
// (scanner) coordinates, in row-major order with a homogeneous bottom row.
// It is immutable once built.
type Affine [4][4]float64

// Matrix returns the transform as a gonum dense matrix.
func (a Affine) Matrix() *mat.Dense {
	m := mat.NewDense(4, 4, nil)
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m.Set(i, j, a[i][j])
		}
	}
	return m
}

// newAffine derives the spatial transform from the header's orientation
// fields. The format's priority rule applies: a valid sform wins over a
// valid qform, and a plain pixdim diagonal is the last resort, so every
// structurally valid header yields a transform.
func newAffine(h *Header) Affine {
	switch {
	case h.SformCode > 0:
		return sformAffine(h)
	case h.QformCode > 0:
		return qformAffine(h)
	default:
		return pixdimAffine(h)
	}
}

// sformAffine builds the transform directly from the three srow vectors.
func sformAffine(h *Header) Affine {
	var a Affine
	for j, row := range [3][4]float32{h.SrowX, h.SrowY, h.SrowZ} {
		for i, x := range row {
			a[j][i] = float64(x)
		}
	}
	a[3] = [4]float64{0, 0, 0, 1}
	return a
}

// qformAffine reconstructs the transform from the quaternion fields. The
// implicit first quaternion component is sqrt(max(0, 1-b²-c²-d²)). The
// rotation's columns are scaled by pixdim, with qfac (pixdim[0]) negating
// the third spacing when -1.
func qformAffine(h *Header) Affine {
	b := float64(h.QuaternB)
	c := float64(h.QuaternC)
	d := float64(h.QuaternD)
	w := 1 - b*b - c*c - d*d
	if w < 0 {
		w = 0
	}
	r := quaternionRotation(math.Sqrt(w), b, c, d)

	qfac := 1.0
	if h.Pixdim[0] == -1 {
		qfac = -1
	}
	s := mat.NewDiagDense(3, []float64{
		float64(h.Pixdim[1]),
		float64(h.Pixdim[2]),
		float64(h.Pixdim[3]) * qfac,
	})

	var m mat.Dense
	m.Mul(r, s)

	var a Affine
	for j := 0; j < 3; j++ {
		for i := 0; i < 3; i++ {
			a[j][i] = m.At(j, i)
		}
	}
	a[0][3] = float64(h.QoffsetX)
	a[1][3] = float64(h.QoffsetY)
	a[2][3] = float64(h.QoffsetZ)
	a[3] = [4]float64{0, 0, 0, 1}
	return a
}

// quaternionRotation converts a quaternion to a 3x3 rotation matrix. The
// computation tolerates non-unit quaternions; a near-zero norm yields the
// identity.
func quaternionRotation(w, x, y, z float64) *mat.Dense {
	nq := w*w + x*x + y*y + z*z
	if nq < 1e-15 {
		return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	}
	s := 2.0 / nq
	xs, ys, zs := x*s, y*s, z*s
	wx, wy, wz := w*xs, w*ys, w*zs
	xx, xy, xz := x*xs, x*ys, x*zs
	yy, yz, zz := y*ys, y*zs, z*zs
	return mat.NewDense(3, 3, []float64{
		1 - (yy + zz), xy - wz, xz + wy,
		xy + wz, 1 - (xx + zz), yz - wx,
		xz - wy, yz + wx, 1 - (xx + yy),
	})
}

// pixdimAffine is the fallback transform when neither orientation form is
// declared: a plain diagonal of the grid spacings with zero offset.
func pixdimAffine(h *Header) Affine {
	var a Affine
	a[0][0] = float64(h.Pixdim[1])
	a[1][1] = float64(h.Pixdim[2])
	a[2][2] = float64(h.Pixdim[3])
	a[3][3] = 1
	return a
}
