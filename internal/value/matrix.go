package value

import (
	"fmt"
	"math"
	"strings"
)

// Matrix is a rectangular numeric matrix stored row-major.
// Im is nil for real matrices.
type Matrix struct {
	Rows int
	Cols int
	Re   []float64
	Im   []float64
}

// NewMatrix creates a zero-filled real matrix
func NewMatrix(rows, cols int) *Matrix {
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return &Matrix{Rows: rows, Cols: cols, Re: make([]float64, rows*cols)}
}

// NewComplexMatrix creates a zero-filled complex matrix
func NewComplexMatrix(rows, cols int) *Matrix {
	m := NewMatrix(rows, cols)
	m.Im = make([]float64, len(m.Re))
	return m
}

// RowVector builds a 1xN real matrix from values
func RowVector(vals ...float64) *Matrix {
	m := NewMatrix(1, len(vals))
	copy(m.Re, vals)
	return m
}

// FromRows builds a real matrix from a slice of equally sized rows.
// Short rows are zero-padded.
func FromRows(rows [][]float64) *Matrix {
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	m := NewMatrix(len(rows), cols)
	for i, r := range rows {
		copy(m.Re[i*cols:], r)
	}
	return m
}

func (m *Matrix) IsComplex() bool { return m.Im != nil }

func (m *Matrix) Len() int { return m.Rows * m.Cols }

// At returns the element at a 0-based position
func (m *Matrix) At(r, c int) complex128 {
	i := r*m.Cols + c
	if m.Im == nil {
		return complex(m.Re[i], 0)
	}
	return complex(m.Re[i], m.Im[i])
}

// Set stores v at a 0-based position, promoting to complex if needed
func (m *Matrix) Set(r, c int, v complex128) {
	i := r*m.Cols + c
	if imag(v) != 0 && m.Im == nil {
		m.Im = make([]float64, len(m.Re))
	}
	m.Re[i] = real(v)
	if m.Im != nil {
		m.Im[i] = imag(v)
	}
}

// InBounds reports whether a 0-based position is inside the matrix
func (m *Matrix) InBounds(r, c int) bool {
	return r >= 0 && c >= 0 && r < m.Rows && c < m.Cols
}

// Grow enlarges the matrix in place to at least rows x cols, keeping
// existing elements at their positions and zero-filling the rest.
func (m *Matrix) Grow(rows, cols int) {
	if rows <= m.Rows && cols <= m.Cols {
		return
	}
	if rows < m.Rows {
		rows = m.Rows
	}
	if cols < m.Cols {
		cols = m.Cols
	}
	re := make([]float64, rows*cols)
	var im []float64
	if m.Im != nil {
		im = make([]float64, rows*cols)
	}
	for r := 0; r < m.Rows; r++ {
		copy(re[r*cols:r*cols+m.Cols], m.Re[r*m.Cols:(r+1)*m.Cols])
		if im != nil {
			copy(im[r*cols:r*cols+m.Cols], m.Im[r*m.Cols:(r+1)*m.Cols])
		}
	}
	m.Rows, m.Cols, m.Re, m.Im = rows, cols, re, im
}

// Scalar returns the single element of a 1x1 matrix
func (m *Matrix) Scalar() (complex128, bool) {
	if m.Rows == 1 && m.Cols == 1 {
		return m.At(0, 0), true
	}
	return 0, false
}

func (m *Matrix) Clone() *Matrix {
	out := &Matrix{Rows: m.Rows, Cols: m.Cols, Re: append([]float64(nil), m.Re...)}
	if m.Im != nil {
		out.Im = append([]float64(nil), m.Im...)
	}
	return out
}

func (m *Matrix) Transpose() *Matrix {
	out := NewMatrix(m.Cols, m.Rows)
	if m.Im != nil {
		out.Im = make([]float64, len(out.Re))
	}
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			out.Set(c, r, m.At(r, c))
		}
	}
	return out
}

// Map applies fn element-wise into a new matrix
func (m *Matrix) Map(fn func(complex128) complex128) *Matrix {
	out := NewMatrix(m.Rows, m.Cols)
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			out.Set(r, c, fn(m.At(r, c)))
		}
	}
	return out
}

// Truthy reports whether any element is non-zero
func (m *Matrix) Truthy() bool {
	for i, re := range m.Re {
		if re != 0 && !math.IsNaN(re) {
			return true
		}
		if m.Im != nil && m.Im[i] != 0 {
			return true
		}
	}
	return false
}

func (m *Matrix) Equal(o *Matrix) bool {
	if m == o {
		return true
	}
	if o == nil || m.Rows != o.Rows || m.Cols != o.Cols {
		return false
	}
	for r := 0; r < m.Rows; r++ {
		for c := 0; c < m.Cols; c++ {
			if m.At(r, c) != o.At(r, c) {
				return false
			}
		}
	}
	return true
}

// RowsOf returns the real parts as a slice of rows
func (m *Matrix) RowsOf() [][]float64 {
	out := make([][]float64, m.Rows)
	for r := range out {
		out[r] = append([]float64(nil), m.Re[r*m.Cols:(r+1)*m.Cols]...)
	}
	return out
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for r := 0; r < m.Rows; r++ {
		if r > 0 {
			sb.WriteString("; ")
		}
		for c := 0; c < m.Cols; c++ {
			if c > 0 {
				sb.WriteString(", ")
			}
			z := m.At(r, c)
			if imag(z) == 0 {
				sb.WriteString(FormatNumber(real(z)))
			} else {
				sb.WriteString(FormatComplex(z))
			}
		}
	}
	sb.WriteByte(']')
	return sb.String()
}

func (m *Matrix) GoString() string {
	return fmt.Sprintf("Matrix(%dx%d)%s", m.Rows, m.Cols, m.String())
}
