package vm

import (
	"unicode/utf8"

	"github.com/funvibe/numen/internal/value"
)

// Closure pairs a compiled function with the scope it was created in.
// The scope is captured by reference.
type Closure struct {
	Function *CompiledFunction
	Scope    *Scope
}

// ClosureOf returns the VM closure behind a compiled function value
func ClosureOf(fn *value.Function) (*Closure, bool) {
	if fn == nil {
		return nil, false
	}
	cl, ok := fn.Closure.(*Closure)
	return cl, ok
}

// iterator walks the elements of a for-in iterable
type iterator struct {
	items []value.Value
	pos   int
}

func (it *iterator) next() (value.Value, bool) {
	if it.pos >= len(it.items) {
		return value.Undefined, false
	}
	v := it.items[it.pos]
	it.pos++
	return v, true
}

// newIterator snapshots the iterable. Matrices yield their elements in
// row-major order, maps their keys, strings their characters, undefined
// nothing and any other value itself once.
func newIterator(v value.Value) *iterator {
	it := &iterator{}
	switch v.Kind() {
	case value.KindUndefined:
	case value.KindMatrix:
		m, _ := v.AsMatrix()
		it.items = make([]value.Value, 0, m.Len())
		for r := 0; r < m.Rows; r++ {
			for c := 0; c < m.Cols; c++ {
				it.items = append(it.items, scalarValue(m.At(r, c)))
			}
		}
	case value.KindMap:
		m, _ := v.AsMap()
		for _, k := range m.Keys() {
			it.items = append(it.items, value.String(k))
		}
	case value.KindString:
		s, _ := v.AsString()
		it.items = make([]value.Value, 0, utf8.RuneCountInString(s))
		for _, r := range s {
			it.items = append(it.items, value.String(string(r)))
		}
	default:
		it.items = []value.Value{v}
	}
	return it
}

// scalarValue turns a matrix element back into a number when it is real
func scalarValue(z complex128) value.Value {
	if imag(z) == 0 {
		return value.Number(real(z))
	}
	return value.Complex(z)
}
