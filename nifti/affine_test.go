package nifti

import (
	"math"
	"testing"
)

func affinesClose(a, b Affine, tol float64) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math.Abs(a[i][j]-b[i][j]) > tol {
				return false
			}
		}
	}
	return true
}

func TestAffineSformPriority(t *testing.T) {
	h := testHeader([]int{2, 2, 2}, Uint8)
	h.SformCode = 1
	h.SrowX = [4]float32{2, 0, 0, -90}
	h.SrowY = [4]float32{0, 2, 0, -126}
	h.SrowZ = [4]float32{0, 0, 2, -72}
	// A conflicting qform must lose to the sform.
	h.QformCode = 1
	h.QuaternB = 1
	h.QoffsetX = 500

	got := newAffine(h)
	want := Affine{
		{2, 0, 0, -90},
		{0, 2, 0, -126},
		{0, 0, 2, -72},
		{0, 0, 0, 1},
	}
	if !affinesClose(got, want, 0) {
		t.Errorf("affine = %v, want %v", got, want)
	}
}

func TestAffineQformIdentity(t *testing.T) {
	// Zero quaternion components give the identity rotation, so the
	// transform is a pixdim diagonal plus the q offsets.
	h := testHeader([]int{2, 2, 2}, Uint8)
	h.QformCode = 1
	h.Pixdim = [8]float32{1, 2, 3, 4, 1, 1, 1, 1}
	h.QoffsetX = -10
	h.QoffsetY = 20
	h.QoffsetZ = -30

	got := newAffine(h)
	want := Affine{
		{2, 0, 0, -10},
		{0, 3, 0, 20},
		{0, 0, 4, -30},
		{0, 0, 0, 1},
	}
	if !affinesClose(got, want, 1e-9) {
		t.Errorf("affine = %v, want %v", got, want)
	}
}

func TestAffineQformHalfTurn(t *testing.T) {
	// b=1 (so w=0) is a half turn about x: y and z flip sign.
	h := testHeader([]int{2, 2, 2}, Uint8)
	h.QformCode = 1
	h.QuaternB = 1

	got := newAffine(h)
	want := Affine{
		{1, 0, 0, 0},
		{0, -1, 0, 0},
		{0, 0, -1, 0},
		{0, 0, 0, 1},
	}
	if !affinesClose(got, want, 1e-9) {
		t.Errorf("affine = %v, want %v", got, want)
	}
}

func TestAffineQformQfac(t *testing.T) {
	// pixdim[0] == -1 flips the third spacing's sign.
	h := testHeader([]int{2, 2, 2}, Uint8)
	h.QformCode = 1
	h.Pixdim = [8]float32{-1, 1, 1, 2, 1, 1, 1, 1}

	got := newAffine(h)
	want := Affine{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, -2, 0},
		{0, 0, 0, 1},
	}
	if !affinesClose(got, want, 1e-9) {
		t.Errorf("affine = %v, want %v", got, want)
	}
}

func TestAffinePixdimFallback(t *testing.T) {
	h := testHeader([]int{2, 2, 2}, Uint8)
	h.Pixdim = [8]float32{1, 1.5, 2.5, 3.5, 1, 1, 1, 1}

	got := newAffine(h)
	want := Affine{
		{1.5, 0, 0, 0},
		{0, 2.5, 0, 0},
		{0, 0, 3.5, 0},
		{0, 0, 0, 1},
	}
	if !affinesClose(got, want, 0) {
		t.Errorf("affine = %v, want %v", got, want)
	}
}

func TestAffineMatrix(t *testing.T) {
	a := Affine{
		{1, 2, 3, 4},
		{5, 6, 7, 8},
		{9, 10, 11, 12},
		{0, 0, 0, 1},
	}
	m := a.Matrix()
	r, c := m.Dims()
	if r != 4 || c != 4 {
		t.Fatalf("Dims() = %dx%d, want 4x4", r, c)
	}
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if m.At(i, j) != a[i][j] {
				t.Errorf("m[%d][%d] = %v, want %v", i, j, m.At(i, j), a[i][j])
			}
		}
	}
}
