package value

import (
	"math"
	"math/cmplx"
	"strconv"
	"strings"
)

// Conversions never fail. Out-of-domain inputs degrade to NaN, the empty
// string, false, or an empty matrix.

func ToNumber(v Value) float64 {
	switch v.kind {
	case KindNumber, KindBoolean:
		return v.num
	case KindComplex:
		if imag(v.cpx) == 0 {
			return real(v.cpx)
		}
	case KindString:
		s := strings.TrimSpace(v.str)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case KindMatrix:
		if z, ok := v.obj.(*Matrix).Scalar(); ok && imag(z) == 0 {
			return real(z)
		}
	}
	return math.NaN()
}

func ToBoolean(v Value) bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0 && !math.IsNaN(v.num)
	case KindBoolean:
		return v.num != 0
	case KindComplex:
		return v.cpx != 0 && !cmplx.IsNaN(v.cpx)
	case KindString:
		return v.str != ""
	case KindMatrix:
		return v.obj.(*Matrix).Truthy()
	case KindMap:
		return v.obj.(*Map).Len() > 0
	case KindFunction:
		return true
	}
	return false
}

// ToString renders v for string contexts. Undefined becomes "".
func ToString(v Value) string {
	switch v.kind {
	case KindUndefined:
		return ""
	case KindString:
		return v.str
	}
	return Inspect(v)
}

func ToComplex(v Value) complex128 {
	switch v.kind {
	case KindComplex:
		return v.cpx
	case KindNumber, KindBoolean:
		return complex(v.num, 0)
	case KindString:
		s := strings.TrimSpace(v.str)
		if z, err := strconv.ParseComplex(s, 128); err == nil {
			return z
		}
	case KindMatrix:
		if z, ok := v.obj.(*Matrix).Scalar(); ok {
			return z
		}
	}
	return cmplx.NaN()
}

// ToMatrix lifts scalars to 1x1 matrices. Other values give an empty matrix.
func ToMatrix(v Value) *Matrix {
	switch v.kind {
	case KindMatrix:
		return v.obj.(*Matrix)
	case KindNumber, KindBoolean:
		return RowVector(v.num)
	case KindComplex:
		m := NewComplexMatrix(1, 1)
		m.Set(0, 0, v.cpx)
		return m
	}
	return NewMatrix(0, 0)
}

// ToObject returns the map behind an object-shaped value, or nil
func ToObject(v Value) *Map {
	if m, ok := v.AsMap(); ok {
		return m
	}
	return nil
}

// GetProperty reads a named entry. Missing keys and non-map values give
// Undefined.
func GetProperty(v Value, name string) Value {
	if m := ToObject(v); m != nil {
		got, _ := m.Get(name)
		return got
	}
	return Undefined
}

// SetProperty writes a named entry and reports whether v was a map
func SetProperty(v Value, name string, x Value) bool {
	if m := ToObject(v); m != nil {
		m.Set(name, x)
		return true
	}
	return false
}

// FormatNumber prints integral values without a fraction
func FormatNumber(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "Infinity"
	case math.IsInf(f, -1):
		return "-Infinity"
	case f == math.Trunc(f) && math.Abs(f) < 1e21:
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func FormatComplex(z complex128) string {
	re, im := real(z), imag(z)
	if re == 0 {
		return FormatNumber(im) + "i"
	}
	sign := "+"
	if im < 0 || math.IsInf(im, -1) {
		sign = "-"
		im = -im
	}
	return FormatNumber(re) + sign + FormatNumber(im) + "i"
}

// Inspect renders v for display, quoting strings and naming undefined
func Inspect(v Value) string {
	switch v.kind {
	case KindUndefined:
		return "undefined"
	case KindNumber:
		return FormatNumber(v.num)
	case KindComplex:
		return FormatComplex(v.cpx)
	case KindBoolean:
		if v.num != 0 {
			return "true"
		}
		return "false"
	case KindString:
		return strconv.Quote(v.str)
	case KindMatrix:
		return v.obj.(*Matrix).String()
	case KindMap:
		return v.obj.(*Map).String()
	case KindFunction:
		return v.obj.(*Function).String()
	}
	return "?"
}

// Display renders v for printing: like Inspect, but strings are unquoted
func Display(v Value) string {
	if s, ok := v.AsString(); ok {
		return s
	}
	return Inspect(v)
}

func (v Value) String() string { return Inspect(v) }
