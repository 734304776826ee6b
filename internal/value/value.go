// Package value implements the dynamically typed runtime value domain.
package value

import (
	"math"
	"math/cmplx"
)

// Kind identifies the representation stored in a Value
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNumber
	KindComplex
	KindBoolean
	KindString
	KindMatrix
	KindMap
	KindFunction
)

var kindNames = [...]string{
	KindUndefined: "undefined",
	KindNumber:    "number",
	KindComplex:   "complex",
	KindBoolean:   "boolean",
	KindString:    "string",
	KindMatrix:    "matrix",
	KindMap:       "map",
	KindFunction:  "function",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Category is the value-model tag seen by operators and native functions.
// It differs from Kind only in splitting matrices into real and complex.
type Category uint8

const (
	CategoryUndefined Category = iota
	CategoryNumber
	CategoryComplex
	CategoryString
	CategoryBoolean
	CategoryMatrix
	CategoryComplexMatrix
	CategoryFunction
	CategoryMap
)

var categoryNames = [...]string{
	CategoryUndefined:     "undefined",
	CategoryNumber:        "number",
	CategoryComplex:       "complex",
	CategoryString:        "string",
	CategoryBoolean:       "boolean",
	CategoryMatrix:        "matrix",
	CategoryComplexMatrix: "complexMatrix",
	CategoryFunction:      "function",
	CategoryMap:           "map",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return "unknown"
}

// Value is a tagged union over the runtime categories.
// The zero Value is Undefined.
type Value struct {
	kind Kind
	num  float64    // number, boolean (0/1)
	cpx  complex128 // complex
	str  string
	obj  any // *Matrix, *Map, *Function
}

// Undefined is the distinguished "no value" marker.
var Undefined = Value{}

// Constructors

func Number(v float64) Value { return Value{kind: KindNumber, num: v} }

func Complex(v complex128) Value { return Value{kind: KindComplex, cpx: v} }

func Bool(v bool) Value {
	var n float64
	if v {
		n = 1
	}
	return Value{kind: KindBoolean, num: n}
}

func String(v string) Value { return Value{kind: KindString, str: v} }

func MatrixValue(m *Matrix) Value {
	if m == nil {
		return Undefined
	}
	return Value{kind: KindMatrix, obj: m}
}

func MapValue(m *Map) Value {
	if m == nil {
		return Undefined
	}
	return Value{kind: KindMap, obj: m}
}

func FunctionValue(f *Function) Value {
	if f == nil {
		return Undefined
	}
	return Value{kind: KindFunction, obj: f}
}

// Accessors

func (v Value) Kind() Kind { return v.kind }

func (v Value) IsUndefined() bool { return v.kind == KindUndefined }

// Category classifies the value, telling real and complex matrices apart
func (v Value) Category() Category {
	switch v.kind {
	case KindNumber:
		return CategoryNumber
	case KindComplex:
		return CategoryComplex
	case KindBoolean:
		return CategoryBoolean
	case KindString:
		return CategoryString
	case KindMatrix:
		if v.obj.(*Matrix).IsComplex() {
			return CategoryComplexMatrix
		}
		return CategoryMatrix
	case KindMap:
		return CategoryMap
	case KindFunction:
		return CategoryFunction
	default:
		return CategoryUndefined
	}
}

// AsNumber returns the raw float of a number or boolean value
func (v Value) AsNumber() (float64, bool) {
	if v.kind == KindNumber || v.kind == KindBoolean {
		return v.num, true
	}
	return 0, false
}

func (v Value) AsComplex() (complex128, bool) {
	if v.kind == KindComplex {
		return v.cpx, true
	}
	return 0, false
}

func (v Value) AsBool() (bool, bool) {
	if v.kind == KindBoolean {
		return v.num != 0, true
	}
	return false, false
}

func (v Value) AsString() (string, bool) {
	if v.kind == KindString {
		return v.str, true
	}
	return "", false
}

func (v Value) AsMatrix() (*Matrix, bool) {
	if v.kind == KindMatrix {
		return v.obj.(*Matrix), true
	}
	return nil, false
}

func (v Value) AsMap() (*Map, bool) {
	if v.kind == KindMap {
		return v.obj.(*Map), true
	}
	return nil, false
}

func (v Value) AsFunction() (*Function, bool) {
	if v.kind == KindFunction {
		return v.obj.(*Function), true
	}
	return nil, false
}

// Equals compares two values. Numbers and complex numbers compare
// numerically, matrices element-wise, maps and functions by reference.
// Undefined equals only itself.
func Equals(a, b Value) bool {
	switch a.kind {
	case KindUndefined:
		return b.kind == KindUndefined
	case KindNumber:
		switch b.kind {
		case KindNumber:
			return a.num == b.num
		case KindComplex:
			return imag(b.cpx) == 0 && real(b.cpx) == a.num
		}
		return false
	case KindComplex:
		switch b.kind {
		case KindComplex:
			return a.cpx == b.cpx
		case KindNumber:
			return imag(a.cpx) == 0 && real(a.cpx) == b.num
		}
		return false
	case KindBoolean:
		return b.kind == KindBoolean && a.num == b.num
	case KindString:
		return b.kind == KindString && a.str == b.str
	case KindMatrix:
		bm, ok := b.AsMatrix()
		return ok && a.obj.(*Matrix).Equal(bm)
	default:
		return a.kind == b.kind && a.obj == b.obj
	}
}

// IsNaN reports whether v is the NaN number or a complex with a NaN part
func IsNaN(v Value) bool {
	switch v.kind {
	case KindNumber:
		return math.IsNaN(v.num)
	case KindComplex:
		return cmplx.IsNaN(v.cpx)
	}
	return false
}
