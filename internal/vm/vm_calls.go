package vm

import (
	"errors"
	"fmt"
	"math"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/value"
)

// makeClosure creates the function value for fn over scope. The function
// refers to itself so that invocations can bind the self name.
func (vm *VM) makeClosure(fn *CompiledFunction, scope *Scope) *value.Function {
	cl := &Closure{Function: fn, Scope: scope}
	var self *value.Function
	self = value.NewCompiled(fn.Name, fn.Params, cl, func(args []value.Value) (value.Value, error) {
		return vm.callClosure(cl, self, args)
	})
	self.Variadic = fn.Variadic
	return self
}

// callClosure runs a compiled function in a nested context over a child
// of its captured scope. If the body suspends, the caller receives the
// context's completion future.
func (vm *VM) callClosure(cl *Closure, self *value.Function, args []value.Value) (value.Value, error) {
	fn := cl.Function
	if vm.currying && !fn.Variadic && len(args) > 0 && len(args) < len(fn.Params) {
		return value.FunctionValue(value.Partial(self, args)), nil
	}

	if d := vm.depth.Add(1); d > int64(vm.maxDepth) {
		vm.depth.Add(-1)
		return value.Undefined, fmt.Errorf("%w: call depth exceeds %d in %s", ErrStackOverflow, vm.maxDepth, fn.Signature())
	}
	defer vm.depth.Add(-1)

	scope := NewScope(cl.Scope)
	scope.Declare(config.SelfName, value.FunctionValue(self))
	if fn.Name != "" {
		scope.Declare(fn.Name, value.FunctionValue(self))
	}

	ctx := vm.NewContext(fn, scope, args)
	res, err := ctx.Run()
	if errors.Is(err, ErrSuspended) {
		return value.MapValue(ctx.Future()), nil
	}
	return res, err
}

// call dispatches OP_CALL. Matrices, maps and strings called with
// arguments are indexed; anything else that is not a function yields
// undefined.
func (vm *VM) call(callee value.Value, args []value.Value) (value.Value, error) {
	switch callee.Kind() {
	case value.KindFunction:
		fn, _ := callee.AsFunction()
		return fn.Invoke(args)
	case value.KindMatrix, value.KindMap, value.KindString:
		return indexGet(callee, args), nil
	}
	return value.Undefined, nil
}

// Indexing is 1-based. A single index into a matrix is linear in
// row-major order.

// indexGet reads obj[indices]. Out of range positions read as undefined.
func indexGet(obj value.Value, indices []value.Value) value.Value {
	if len(indices) == 0 {
		return obj
	}
	switch obj.Kind() {
	case value.KindMap:
		m, _ := obj.AsMap()
		v, _ := m.Get(value.ToString(indices[0]))
		return v
	case value.KindString:
		s, _ := obj.AsString()
		i, ok := position(indices[0])
		if !ok {
			return value.Undefined
		}
		runes := []rune(s)
		if i > len(runes) {
			return value.Undefined
		}
		return value.String(string(runes[i-1]))
	case value.KindMatrix:
		m, _ := obj.AsMatrix()
		return matrixGet(m, indices)
	}
	return value.Undefined
}

func matrixGet(m *value.Matrix, indices []value.Value) value.Value {
	if len(indices) == 1 {
		if sel, ok := indices[0].AsMatrix(); ok && sel.Len() != 1 {
			// Select elements by a vector of linear positions
			out := value.NewMatrix(1, sel.Len())
			for k, re := range sel.Re {
				i, ok := position(value.Number(re))
				if !ok || i > m.Len() {
					return value.Undefined
				}
				out.Set(0, k, m.At((i-1)/m.Cols, (i-1)%m.Cols))
			}
			return value.MatrixValue(out)
		}
		i, ok := position(indices[0])
		if !ok || i > m.Len() {
			return value.Undefined
		}
		return scalarValue(m.At((i-1)/m.Cols, (i-1)%m.Cols))
	}

	rows, okR := positions(indices[0])
	cols, okC := positions(indices[1])
	if !okR || !okC {
		return value.Undefined
	}
	for _, r := range rows {
		if r > m.Rows {
			return value.Undefined
		}
	}
	for _, c := range cols {
		if c > m.Cols {
			return value.Undefined
		}
	}
	_, rowScalar := indices[0].AsNumber()
	_, colScalar := indices[1].AsNumber()
	if rowScalar && colScalar {
		return scalarValue(m.At(rows[0]-1, cols[0]-1))
	}
	out := value.NewMatrix(len(rows), len(cols))
	for i, r := range rows {
		for j, c := range cols {
			out.Set(i, j, m.At(r-1, c-1))
		}
	}
	return value.MatrixValue(out)
}

// indexSet writes obj[indices] = v. Matrices grow to fit the position.
func indexSet(obj value.Value, indices []value.Value, v value.Value) error {
	if len(indices) == 0 {
		return errors.New("missing index")
	}
	switch obj.Kind() {
	case value.KindMap:
		m, _ := obj.AsMap()
		m.Set(value.ToString(indices[0]), v)
		return nil
	case value.KindMatrix:
		m, _ := obj.AsMatrix()
		return matrixSet(m, indices, v)
	}
	return fmt.Errorf("cannot assign to an index of %s", obj.Kind())
}

func matrixSet(m *value.Matrix, indices []value.Value, v value.Value) error {
	z := value.ToComplex(v)
	if inner, ok := v.AsMatrix(); ok {
		s, ok := inner.Scalar()
		if !ok {
			return fmt.Errorf("cannot assign a %dx%d matrix to a single element", inner.Rows, inner.Cols)
		}
		z = s
	}

	var r, c int
	if len(indices) == 1 {
		i, ok := position(indices[0])
		if !ok {
			return fmt.Errorf("invalid index %s", value.Inspect(indices[0]))
		}
		switch {
		case i <= m.Len():
			r, c = (i-1)/m.Cols+1, (i-1)%m.Cols+1
		case m.Rows <= 1:
			r, c = 1, i
		case m.Cols == 1:
			r, c = i, 1
		default:
			return fmt.Errorf("index %d out of range for a %dx%d matrix", i, m.Rows, m.Cols)
		}
	} else {
		var okR, okC bool
		r, okR = position(indices[0])
		c, okC = position(indices[1])
		if !okR || !okC {
			return fmt.Errorf("invalid index (%s, %s)", value.Inspect(indices[0]), value.Inspect(indices[1]))
		}
	}

	if r > m.Rows || c > m.Cols {
		rows, cols := max(r, m.Rows), max(c, m.Cols)
		if rows*cols > config.MaxMatrixCells {
			return fmt.Errorf("matrix of %dx%d exceeds the size limit", rows, cols)
		}
		m.Grow(rows, cols)
	}
	m.Set(r-1, c-1, z)
	return nil
}

// position converts a 1-based index value to an int
func position(v value.Value) (int, bool) {
	f := value.ToNumber(v)
	if math.IsNaN(f) || f < 1 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, false
	}
	return int(f), true
}

// positions accepts a scalar index or a vector of them
func positions(v value.Value) ([]int, bool) {
	if m, ok := v.AsMatrix(); ok && m.Len() != 1 {
		out := make([]int, 0, m.Len())
		for k := 0; k < m.Len(); k++ {
			i, ok := position(value.Number(m.Re[k]))
			if !ok {
				return nil, false
			}
			out = append(out, i)
		}
		return out, true
	}
	i, ok := position(v)
	if !ok {
		return nil, false
	}
	return []int{i}, true
}

// makeRange materializes from..to..step as a row vector. Both ends are
// inclusive; a zero step or a step pointing away from to gives an empty
// vector.
func makeRange(from, to, step float64) (*value.Matrix, error) {
	if math.IsNaN(from) || math.IsNaN(to) || math.IsNaN(step) || step == 0 {
		return value.NewMatrix(1, 0), nil
	}
	span := (to - from) / step
	if span < 0 {
		return value.NewMatrix(1, 0), nil
	}
	if math.IsInf(span, 0) || span+1 > config.MaxMatrixCells {
		return nil, fmt.Errorf("range %s..%s..%s is too large", value.FormatNumber(from), value.FormatNumber(to), value.FormatNumber(step))
	}
	n := int(math.Floor(span+1e-9)) + 1
	out := value.NewMatrix(1, n)
	for i := 0; i < n; i++ {
		out.Re[i] = from + float64(i)*step
	}
	return out, nil
}
