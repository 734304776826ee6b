package coerce

import (
	"maps"
	"reflect"
	"slices"
	"strconv"
	"time"

	"github.com/funvibe/numen/internal/value"
)

// HostOf returns the primitive host representation of v. Undefined stays a
// value.Value, which only "any"-typed parameters accept.
func HostOf(v value.Value) any {
	switch v.Kind() {
	case value.KindNumber:
		n, _ := v.AsNumber()
		return n
	case value.KindComplex:
		z, _ := v.AsComplex()
		return z
	case value.KindBoolean:
		b, _ := v.AsBool()
		return b
	case value.KindString:
		s, _ := v.AsString()
		return s
	case value.KindMatrix:
		m, _ := v.AsMatrix()
		return m
	case value.KindMap:
		m, _ := v.AsMap()
		return m
	case value.KindFunction:
		f, _ := v.AsFunction()
		return f
	}
	return v
}

// HostType is the reflect type of HostOf(v)
func HostType(v value.Value) reflect.Type {
	return reflect.TypeOf(HostOf(v))
}

// FromHost wraps a host value. Slices of numbers become row matrices, string
// maps become maps, nil becomes Undefined.
func FromHost(x any) value.Value {
	switch t := x.(type) {
	case nil:
		return value.Undefined
	case value.Value:
		return t
	case float64:
		return value.Number(t)
	case float32:
		return value.Number(float64(t))
	case int:
		return value.Number(float64(t))
	case int8:
		return value.Number(float64(t))
	case int16:
		return value.Number(float64(t))
	case int32:
		return value.Number(float64(t))
	case int64:
		return value.Number(float64(t))
	case uint:
		return value.Number(float64(t))
	case uint8:
		return value.Number(float64(t))
	case uint16:
		return value.Number(float64(t))
	case uint32:
		return value.Number(float64(t))
	case uint64:
		return value.Number(float64(t))
	case complex128:
		return value.Complex(t)
	case complex64:
		return value.Complex(complex128(t))
	case bool:
		return value.Bool(t)
	case string:
		return value.String(t)
	case []byte:
		return value.String(string(t))
	case time.Time:
		return value.String(t.Format(time.RFC3339Nano))
	case *value.Matrix:
		return value.MatrixValue(t)
	case *value.Map:
		return value.MapValue(t)
	case *value.Function:
		return value.FunctionValue(t)
	case []float64:
		return value.MatrixValue(value.RowVector(t...))
	case [][]float64:
		return value.MatrixValue(value.FromRows(t))
	case map[string]any:
		m := value.NewMap()
		for _, k := range slices.Sorted(maps.Keys(t)) {
			m.Set(k, FromHost(t[k]))
		}
		return value.MapValue(m)
	case []any:
		m := value.NewMap()
		for i, e := range t {
			m.Set(strconv.Itoa(i), FromHost(e))
		}
		return value.MapValue(m)
	case error:
		return value.String(t.Error())
	}
	return value.Undefined
}

// ToHostMap converts a map to plain Go values, recursively
func ToHostMap(m *value.Map) map[string]any {
	out := make(map[string]any, m.Len())
	m.Range(func(k string, v value.Value) bool {
		out[k] = ToHostPlain(v)
		return true
	})
	return out
}

// ToHostPlain converts v to plain Go data: numbers, strings, bools, nested
// maps and slices. Functions and undefined become nil.
func ToHostPlain(v value.Value) any {
	switch v.Kind() {
	case value.KindMap:
		m, _ := v.AsMap()
		return ToHostMap(m)
	case value.KindMatrix:
		m, _ := v.AsMatrix()
		if m.IsComplex() {
			return m.String()
		}
		if m.Rows == 1 {
			return append([]float64(nil), m.Re...)
		}
		return m.RowsOf()
	case value.KindComplex:
		return value.ToString(v)
	case value.KindFunction, value.KindUndefined:
		return nil
	}
	return HostOf(v)
}
