package builtins

import (
	"errors"
	"fmt"
	"math"
	"math/cmplx"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/value"
)

var errSingular = errors.New("matrix is singular")

// elementwise combines a and b position by position. A 1x1 operand is
// broadcast over the other one.
func elementwise(a, b *value.Matrix, op func(x, y complex128) complex128) (*value.Matrix, error) {
	if s, ok := b.Scalar(); ok {
		return a.Map(func(x complex128) complex128 { return op(x, s) }), nil
	}
	if s, ok := a.Scalar(); ok {
		return b.Map(func(y complex128) complex128 { return op(s, y) }), nil
	}
	if a.Rows != b.Rows || a.Cols != b.Cols {
		return nil, fmt.Errorf("dimension mismatch: %dx%d and %dx%d", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	out := value.NewMatrix(a.Rows, a.Cols)
	for r := 0; r < a.Rows; r++ {
		for c := 0; c < a.Cols; c++ {
			out.Set(r, c, op(a.At(r, c), b.At(r, c)))
		}
	}
	return out, nil
}

// matmul is the matrix product. A 1x1 operand scales the other one.
func matmul(a, b *value.Matrix) (*value.Matrix, error) {
	if a.Len() == 1 || b.Len() == 1 {
		return elementwise(a, b, func(x, y complex128) complex128 { return x * y })
	}
	if a.Cols != b.Rows {
		return nil, fmt.Errorf("dimension mismatch: cannot multiply %dx%d by %dx%d", a.Rows, a.Cols, b.Rows, b.Cols)
	}
	out := value.NewMatrix(a.Rows, b.Cols)
	for r := 0; r < a.Rows; r++ {
		for c := 0; c < b.Cols; c++ {
			var acc complex128
			for k := 0; k < a.Cols; k++ {
				acc += a.At(r, k) * b.At(k, c)
			}
			out.Set(r, c, acc)
		}
	}
	return out, nil
}

// identity builds an n x m matrix with ones on the diagonal
func identity(n, m int) *value.Matrix {
	out := value.NewMatrix(n, m)
	for i := 0; i < min(n, m); i++ {
		out.Re[i*m+i] = 1
	}
	return out
}

// matpow raises a square matrix to a non-negative integer power by
// repeated squaring. Negative powers invert first.
func matpow(a *value.Matrix, p float64) (*value.Matrix, error) {
	if a.Len() == 1 {
		return a.Map(func(x complex128) complex128 { return cmplx.Pow(x, complex(p, 0)) }), nil
	}
	if a.Rows != a.Cols {
		return nil, fmt.Errorf("matrix power needs a square matrix, got %dx%d", a.Rows, a.Cols)
	}
	if p != math.Trunc(p) {
		return nil, fmt.Errorf("matrix power needs an integer exponent, got %s", value.FormatNumber(p))
	}
	base := a
	if p < 0 {
		inv, err := inverse(a)
		if err != nil {
			return nil, err
		}
		base, p = inv, -p
	}
	result := identity(a.Rows, a.Cols)
	for n := int64(p); n > 0; n >>= 1 {
		if n&1 == 1 {
			result, _ = matmul(result, base)
		}
		base, _ = matmul(base, base)
	}
	return result, nil
}

// inverse computes the inverse by Gauss-Jordan elimination with partial
// pivoting.
func inverse(a *value.Matrix) (*value.Matrix, error) {
	if a.Rows != a.Cols {
		return nil, fmt.Errorf("cannot invert a %dx%d matrix", a.Rows, a.Cols)
	}
	n := a.Rows
	work := a.Clone()
	out := identity(n, n)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if cmplx.Abs(work.At(r, col)) > cmplx.Abs(work.At(pivot, col)) {
				pivot = r
			}
		}
		if cmplx.Abs(work.At(pivot, col)) < 1e-12 {
			return nil, errSingular
		}
		swapRows(work, pivot, col)
		swapRows(out, pivot, col)

		d := work.At(col, col)
		for c := 0; c < n; c++ {
			work.Set(col, c, work.At(col, c)/d)
			out.Set(col, c, out.At(col, c)/d)
		}
		for r := 0; r < n; r++ {
			if r == col {
				continue
			}
			f := work.At(r, col)
			if f == 0 {
				continue
			}
			for c := 0; c < n; c++ {
				work.Set(r, c, work.At(r, c)-f*work.At(col, c))
				out.Set(r, c, out.At(r, c)-f*out.At(col, c))
			}
		}
	}
	return out, nil
}

// determinant by LU elimination
func determinant(a *value.Matrix) (complex128, error) {
	if a.Rows != a.Cols {
		return 0, fmt.Errorf("determinant needs a square matrix, got %dx%d", a.Rows, a.Cols)
	}
	n := a.Rows
	work := a.Clone()
	det := complex(1, 0)
	for col := 0; col < n; col++ {
		pivot := col
		for r := col + 1; r < n; r++ {
			if cmplx.Abs(work.At(r, col)) > cmplx.Abs(work.At(pivot, col)) {
				pivot = r
			}
		}
		if work.At(pivot, col) == 0 {
			return 0, nil
		}
		if pivot != col {
			swapRows(work, pivot, col)
			det = -det
		}
		d := work.At(col, col)
		det *= d
		for r := col + 1; r < n; r++ {
			f := work.At(r, col) / d
			for c := col; c < n; c++ {
				work.Set(r, c, work.At(r, c)-f*work.At(col, c))
			}
		}
	}
	return det, nil
}

func swapRows(m *value.Matrix, i, j int) {
	if i == j {
		return
	}
	for c := 0; c < m.Cols; c++ {
		x, y := m.At(i, c), m.At(j, c)
		m.Set(i, c, y)
		m.Set(j, c, x)
	}
}

// filled creates a rows x cols matrix with every element set to x
func filled(rows, cols int, x float64) (*value.Matrix, error) {
	if rows < 0 || cols < 0 {
		return nil, fmt.Errorf("invalid size %dx%d", rows, cols)
	}
	if rows*cols > config.MaxMatrixCells {
		return nil, fmt.Errorf("matrix of %dx%d exceeds the size limit", rows, cols)
	}
	out := value.NewMatrix(rows, cols)
	if x != 0 {
		for i := range out.Re {
			out.Re[i] = x
		}
	}
	return out, nil
}

// scalar wraps z as a number when it has no imaginary part
func scalar(z complex128) value.Value {
	if imag(z) == 0 {
		return value.Number(real(z))
	}
	return value.Complex(z)
}

// flatten collects the numeric elements of the arguments. Matrices
// contribute all their elements.
func flatten(args []value.Value) []complex128 {
	var out []complex128
	for _, a := range args {
		if m, ok := a.AsMatrix(); ok {
			for r := 0; r < m.Rows; r++ {
				for c := 0; c < m.Cols; c++ {
					out = append(out, m.At(r, c))
				}
			}
			continue
		}
		out = append(out, value.ToComplex(a))
	}
	return out
}

func bool2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
