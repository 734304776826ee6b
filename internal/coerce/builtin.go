package coerce

import (
	"math"
	"reflect"

	"github.com/funvibe/numen/internal/value"
)

func conv[F, T any](rating int, fn func(F) T) Converter {
	return Converter{
		From:    reflect.TypeFor[F](),
		To:      reflect.TypeFor[T](),
		Rating:  rating,
		Convert: func(x any) any { return fn(x.(F)) },
	}
}

func builtinConverters() []Converter {
	return []Converter{
		// widening
		conv(RatingWiden, func(x int) float64 { return float64(x) }),
		conv(RatingWiden, func(x int64) float64 { return float64(x) }),
		conv(RatingWiden, func(x int32) float64 { return float64(x) }),
		conv(RatingWiden, func(x float32) float64 { return float64(x) }),
		conv(RatingWiden, func(x uint8) float64 { return float64(x) }),
		conv(RatingWiden, func(x float64) complex128 { return complex(x, 0) }),
		conv(RatingWiden, func(x complex64) complex128 { return complex128(x) }),
		conv(RatingWiden, func(x []float64) *value.Matrix { return value.RowVector(x...) }),
		conv(RatingWiden, value.FromRows),
		conv(RatingWiden, func(x map[string]any) *value.Map { return value.ToObject(FromHost(x)) }),
		conv(RatingWiden, func(x []byte) string { return string(x) }),

		conv(RatingNarrow, func(x float64) float32 { return float32(x) }),
		conv(RatingNarrow, func(x complex128) complex64 { return complex64(x) }),

		// scalars lifted to 1x1 matrices
		conv(RatingLift, func(x float64) *value.Matrix { return value.RowVector(x) }),
		conv(RatingLift, func(x complex128) *value.Matrix { return value.ToMatrix(value.Complex(x)) }),

		conv(RatingFlatten, func(x bool) float64 { return b2f(x) }),
		conv(RatingFlatten, func(m *value.Matrix) []float64 { return append([]float64(nil), m.Re...) }),
		conv(RatingFlatten, func(m *value.Matrix) [][]float64 { return m.RowsOf() }),
		conv(RatingFlatten, func(m *value.Map) map[string]any { return ToHostMap(m) }),

		conv(RatingTruncate, func(x float64) int { return int(truncate(x)) }),
		conv(RatingTruncate, func(x float64) int64 { return int64(truncate(x)) }),
		conv(RatingTruncate, func(x float64) int32 { return int32(truncate(x)) }),

		conv(RatingScalar, func(m *value.Matrix) float64 { return value.ToNumber(value.MatrixValue(m)) }),
		conv(RatingScalar, func(m *value.Matrix) complex128 { return value.ToComplex(value.MatrixValue(m)) }),

		conv(RatingTruthy, func(x float64) bool { return value.ToBoolean(value.Number(x)) }),
		conv(RatingTruthy, func(m *value.Matrix) bool { return m.Truthy() }),
		conv(RatingTruthy, func(m *value.Map) bool { return m.Len() > 0 }),
		conv(RatingTruthy, func(x string) bool { return x != "" }),

		conv(RatingLossy, func(x complex128) float64 { return real(x) }),

		conv(RatingClamp, func(x float64) uint8 {
			switch {
			case math.IsNaN(x) || x < 0:
				return 0
			case x > 255:
				return 255
			}
			return uint8(x)
		}),

		conv(RatingFormat, func(x float64) string { return value.FormatNumber(x) }),
		conv(RatingFormat, func(x complex128) string { return value.FormatComplex(x) }),
		conv(RatingFormat, func(x bool) string { return value.ToString(value.Bool(x)) }),
		conv(RatingFormat, func(m *value.Matrix) string { return m.String() }),
		conv(RatingFormat, func(m *value.Map) string { return m.String() }),

		conv(RatingParse, func(x string) float64 { return value.ToNumber(value.String(x)) }),
		conv(RatingParse, func(x string) complex128 { return value.ToComplex(value.String(x)) }),
	}
}

func b2f(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func truncate(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return math.Trunc(x)
}
