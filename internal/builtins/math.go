package builtins

import (
	"math"
	"math/cmplx"
	"unicode/utf8"

	"github.com/funvibe/numen/internal/value"
)

func (l *Library) registerMath() {
	l.elementFunc("abs", math.Abs, func(z complex128) complex128 { return complex(cmplx.Abs(z), 0) })
	l.elementFunc("exp", math.Exp, cmplx.Exp)
	l.elementFunc("sin", math.Sin, cmplx.Sin)
	l.elementFunc("cos", math.Cos, cmplx.Cos)
	l.elementFunc("tan", math.Tan, cmplx.Tan)
	l.elementFunc("floor", math.Floor, parts(math.Floor))
	l.elementFunc("ceil", math.Ceil, parts(math.Ceil))
	l.elementFunc("round", math.Round, parts(math.Round))
	l.elementFunc("re", func(x float64) float64 { return x }, func(z complex128) complex128 { return complex(real(z), 0) })
	l.elementFunc("im", func(float64) float64 { return 0 }, func(z complex128) complex128 { return complex(imag(z), 0) })
	l.elementFunc("conj", func(x float64) float64 { return x }, cmplx.Conj)

	// Negative inputs leave the reals
	l.overload("sqrt", []any{
		func(x float64) value.Value {
			if x < 0 {
				return scalar(cmplx.Sqrt(complex(x, 0)))
			}
			return value.Number(math.Sqrt(x))
		},
		func(z complex128) value.Value { return scalar(cmplx.Sqrt(z)) },
		func(m *value.Matrix) *value.Matrix { return m.Map(cmplx.Sqrt) },
	}, "x")
	l.overload("log", []any{
		func(x float64) value.Value {
			if x < 0 {
				return scalar(cmplx.Log(complex(x, 0)))
			}
			return value.Number(math.Log(x))
		},
		func(z complex128) value.Value { return scalar(cmplx.Log(z)) },
		func(m *value.Matrix) *value.Matrix { return m.Map(cmplx.Log) },
	}, "x")

	l.raw("min", []string{"values"}, true, func(args []value.Value) (value.Value, error) {
		return extreme(args, func(a, b float64) bool { return a < b }), nil
	})
	l.raw("max", []string{"values"}, true, func(args []value.Value) (value.Value, error) {
		return extreme(args, func(a, b float64) bool { return a > b }), nil
	})
	l.raw("sum", []string{"values"}, true, func(args []value.Value) (value.Value, error) {
		var acc complex128
		for _, z := range flatten(args) {
			acc += z
		}
		return scalar(acc), nil
	})

	l.raw("size", []string{"x"}, false, func(args []value.Value) (value.Value, error) {
		x := arg(args, 0)
		switch x.Kind() {
		case value.KindMatrix:
			m, _ := x.AsMatrix()
			return value.MatrixValue(value.RowVector(float64(m.Rows), float64(m.Cols))), nil
		case value.KindString:
			s, _ := x.AsString()
			return value.MatrixValue(value.RowVector(1, float64(utf8.RuneCountInString(s)))), nil
		case value.KindNumber, value.KindComplex, value.KindBoolean:
			return value.MatrixValue(value.RowVector(1, 1)), nil
		}
		return value.MatrixValue(value.RowVector(0, 0)), nil
	})
	l.raw("length", []string{"x"}, false, func(args []value.Value) (value.Value, error) {
		x := arg(args, 0)
		switch x.Kind() {
		case value.KindMatrix:
			m, _ := x.AsMatrix()
			if m.Len() == 0 {
				return value.Number(0), nil
			}
			return value.Number(float64(max(m.Rows, m.Cols))), nil
		case value.KindString:
			s, _ := x.AsString()
			return value.Number(float64(utf8.RuneCountInString(s))), nil
		case value.KindMap:
			m, _ := x.AsMap()
			return value.Number(float64(m.Len())), nil
		case value.KindUndefined:
			return value.Number(0), nil
		}
		return value.Number(1), nil
	})

	l.overload("zeros", []any{
		func(n int) (*value.Matrix, error) { return filled(n, n, 0) },
		func(r, c int) (*value.Matrix, error) { return filled(r, c, 0) },
	}, "rows", "cols")
	l.overload("ones", []any{
		func(n int) (*value.Matrix, error) { return filled(n, n, 1) },
		func(r, c int) (*value.Matrix, error) { return filled(r, c, 1) },
	}, "rows", "cols")
	l.overload("eye", []any{
		func(n int) (*value.Matrix, error) { return eye(n, n) },
		func(r, c int) (*value.Matrix, error) { return eye(r, c) },
	}, "rows", "cols")

	l.wrap("inv", func(m *value.Matrix) (*value.Matrix, error) { return inverse(m) }, "m")
	l.wrap("det", func(m *value.Matrix) (value.Value, error) {
		d, err := determinant(m)
		if err != nil {
			return value.Undefined, err
		}
		return scalar(d), nil
	}, "m")
}

// elementFunc registers a function applied to numbers, complex numbers and
// element-wise to matrices. Complex results with no imaginary part
// collapse to numbers.
func (l *Library) elementFunc(name string, f func(float64) float64, c func(complex128) complex128) {
	l.overload(name, []any{
		f,
		func(z complex128) value.Value { return scalar(c(z)) },
		func(m *value.Matrix) *value.Matrix {
			if !m.IsComplex() {
				return m.Map(func(z complex128) complex128 { return complex(f(real(z)), 0) })
			}
			return m.Map(c)
		},
	}, "x")
}

// parts applies f to the real and imaginary parts separately
func parts(f func(float64) float64) func(complex128) complex128 {
	return func(z complex128) complex128 { return complex(f(real(z)), f(imag(z))) }
}

func extreme(args []value.Value, better func(a, b float64) bool) value.Value {
	vals := flatten(args)
	if len(vals) == 0 {
		return value.Undefined
	}
	best := real(vals[0])
	for _, z := range vals[1:] {
		x := real(z)
		if math.IsNaN(x) {
			return value.Number(math.NaN())
		}
		if better(x, best) {
			best = x
		}
	}
	return value.Number(best)
}

func eye(r, c int) (*value.Matrix, error) {
	out, err := filled(r, c, 0)
	if err != nil {
		return nil, err
	}
	for i := 0; i < min(r, c); i++ {
		out.Re[i*c+i] = 1
	}
	return out, nil
}
