package builtins

import (
	"math"
	"math/cmplx"
	"strings"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/value"
)

// Operators are overload sets. The coercion registry picks the overload
// the operands convert to best: number pairs stay real, a complex operand
// widens the other, a matrix operand lifts scalars to 1x1 matrices and
// strings concatenate under add. The value fallback applies numeric
// conversion to whatever is left.

func (l *Library) registerOperators() {
	l.arithmetic(config.AddFuncName,
		func(a, b float64) float64 { return a + b },
		func(a, b complex128) complex128 { return a + b },
		func(a, b *value.Matrix) (*value.Matrix, error) {
			return elementwise(a, b, func(x, y complex128) complex128 { return x + y })
		},
		func(a, b string) string { return a + b },
	)
	l.arithmetic(config.SubtractFuncName,
		func(a, b float64) float64 { return a - b },
		func(a, b complex128) complex128 { return a - b },
		func(a, b *value.Matrix) (*value.Matrix, error) {
			return elementwise(a, b, func(x, y complex128) complex128 { return x - y })
		},
	)
	l.arithmetic(config.MultiplyFuncName,
		func(a, b float64) float64 { return a * b },
		func(a, b complex128) complex128 { return a * b },
		matmul,
	)
	l.arithmetic(config.DivideFuncName,
		func(a, b float64) float64 { return a / b },
		func(a, b complex128) complex128 { return a / b },
		func(a, b *value.Matrix) (*value.Matrix, error) {
			if b.Len() == 1 {
				return elementwise(a, b, func(x, y complex128) complex128 { return x / y })
			}
			inv, err := inverse(b)
			if err != nil {
				return nil, err
			}
			return matmul(a, inv)
		},
	)
	l.arithmetic(config.ModuloFuncName,
		mod,
		func(a, b *value.Matrix) (*value.Matrix, error) {
			return elementwise(a, b, func(x, y complex128) complex128 { return complex(mod(real(x), real(y)), 0) })
		},
	)
	l.arithmetic(config.PowerFuncName,
		pow,
		func(a, b complex128) complex128 { return cmplx.Pow(a, b) },
		func(a *value.Matrix, p float64) (*value.Matrix, error) { return matpow(a, p) },
	)

	l.arithmetic(config.DotMultiplyFuncName,
		func(a, b float64) float64 { return a * b },
		func(a, b complex128) complex128 { return a * b },
		func(a, b *value.Matrix) (*value.Matrix, error) {
			return elementwise(a, b, func(x, y complex128) complex128 { return x * y })
		},
	)
	l.arithmetic(config.DotDivideFuncName,
		func(a, b float64) float64 { return a / b },
		func(a, b complex128) complex128 { return a / b },
		func(a, b *value.Matrix) (*value.Matrix, error) {
			return elementwise(a, b, func(x, y complex128) complex128 { return x / y })
		},
	)
	l.arithmetic(config.DotPowerFuncName,
		pow,
		func(a, b complex128) complex128 { return cmplx.Pow(a, b) },
		func(a, b *value.Matrix) (*value.Matrix, error) {
			return elementwise(a, b, func(x, y complex128) complex128 {
				if imag(x) == 0 && imag(y) == 0 && (real(x) >= 0 || real(y) == math.Trunc(real(y))) {
					return complex(math.Pow(real(x), real(y)), 0)
				}
				return cmplx.Pow(x, y)
			})
		},
	)

	l.overload(config.NegateFuncName, []any{
		func(x float64) float64 { return -x },
		func(z complex128) complex128 { return -z },
		func(m *value.Matrix) *value.Matrix { return m.Map(func(z complex128) complex128 { return -z }) },
		func(v value.Value) float64 { return -value.ToNumber(v) },
	}, "x")
	l.overload(config.PlusFuncName, []any{
		func(x float64) float64 { return x },
		func(z complex128) complex128 { return z },
		func(m *value.Matrix) *value.Matrix { return m },
		func(v value.Value) float64 { return value.ToNumber(v) },
	}, "x")
	l.overload(config.TransposeFuncName, []any{
		func(x float64) float64 { return x },
		func(z complex128) complex128 { return z },
		func(m *value.Matrix) *value.Matrix { return m.Transpose() },
		func(v value.Value) value.Value { return v },
	}, "x")

	// Logical operators see truthiness only, so they skip adaptation
	l.wrap(config.NotFuncName, func(v value.Value) bool { return !value.ToBoolean(v) }, "x")
	l.wrap(config.AndFuncName, func(a, b value.Value) bool { return value.ToBoolean(a) && value.ToBoolean(b) }, "x", "y")
	l.wrap(config.OrFuncName, func(a, b value.Value) bool { return value.ToBoolean(a) || value.ToBoolean(b) }, "x", "y")

	l.wrap(config.EqualFuncName, func(a, b value.Value) bool { return value.Equals(a, b) }, "x", "y")
	l.wrap(config.UnequalFuncName, func(a, b value.Value) bool { return !value.Equals(a, b) }, "x", "y")

	l.comparison(config.SmallerFuncName, func(c int) bool { return c < 0 })
	l.comparison(config.SmallerEqFuncName, func(c int) bool { return c <= 0 })
	l.comparison(config.LargerFuncName, func(c int) bool { return c > 0 })
	l.comparison(config.LargerEqFuncName, func(c int) bool { return c >= 0 })
}

// arithmetic registers a binary operator with a numeric fallback that
// converts both operands to numbers. NaN results from the fallback mark
// operands that have no arithmetic meaning.
func (l *Library) arithmetic(name string, fns ...any) {
	switch f := fns[0].(type) {
	case func(a, b float64) float64:
		fns = append(fns, func(a, b value.Value) float64 {
			return f(value.ToNumber(a), value.ToNumber(b))
		})
	case func(a, b float64) value.Value:
		fns = append(fns, func(a, b value.Value) value.Value {
			return f(value.ToNumber(a), value.ToNumber(b))
		})
	}
	l.overload(name, fns, "x", "y")
}

// comparison registers an ordering operator. Strings compare
// lexicographically, matrices element-wise into 0/1 matrices, everything
// else numerically; NaN compares false.
func (l *Library) comparison(name string, test func(c int) bool) {
	l.wrap(name, func(a, b value.Value) (value.Value, error) {
		if sa, ok := a.AsString(); ok {
			if sb, ok := b.AsString(); ok {
				return value.Bool(test(strings.Compare(sa, sb))), nil
			}
		}
		if a.Kind() == value.KindMatrix || b.Kind() == value.KindMatrix {
			m, err := elementwise(value.ToMatrix(a), value.ToMatrix(b), func(x, y complex128) complex128 {
				return complex(bool2f(ordered(real(x), real(y), test)), 0)
			})
			if err != nil {
				return value.Undefined, err
			}
			return value.MatrixValue(m), nil
		}
		return value.Bool(ordered(value.ToNumber(a), value.ToNumber(b), test)), nil
	}, "x", "y")
}

func ordered(x, y float64, test func(c int) bool) bool {
	switch {
	case math.IsNaN(x) || math.IsNaN(y):
		return false
	case x < y:
		return test(-1)
	case x > y:
		return test(1)
	}
	return test(0)
}

// mod is the floored modulo: the result takes the sign of the divisor.
// A zero divisor returns the dividend.
func mod(a, b float64) float64 {
	if b == 0 {
		return a
	}
	return a - b*math.Floor(a/b)
}

// pow stays real unless a negative base meets a fractional exponent
func pow(a, b float64) value.Value {
	if a < 0 && b != math.Trunc(b) {
		return scalar(cmplx.Pow(complex(a, 0), complex(b, 0)))
	}
	return value.Number(math.Pow(a, b))
}
