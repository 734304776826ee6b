package builtins

import (
	"fmt"

	"github.com/funvibe/numen/internal/value"
)

func (l *Library) registerFunctional() {
	// map(fn, xs): matrices map element-wise and must yield numbers, maps
	// keep their keys and call fn(value) or fn(value, key) by arity.
	l.raw("map", []string{"fn", "xs"}, false, func(args []value.Value) (value.Value, error) {
		fn, ok := arg(args, 0).AsFunction()
		if !ok {
			return value.Undefined, fmt.Errorf("map: expected a function, got %s", arg(args, 0).Category())
		}
		switch xs := arg(args, 1); xs.Kind() {
		case value.KindMatrix:
			m, _ := xs.AsMatrix()
			out := value.NewMatrix(m.Rows, m.Cols)
			for r := 0; r < m.Rows; r++ {
				for c := 0; c < m.Cols; c++ {
					res, err := fn.Invoke([]value.Value{scalar(m.At(r, c))})
					if err != nil {
						return value.Undefined, err
					}
					out.Set(r, c, value.ToComplex(res))
				}
			}
			return value.MatrixValue(out), nil
		case value.KindMap:
			m, _ := xs.AsMap()
			out := value.NewMap()
			withKey := fn.Variadic || fn.Arity() >= 2
			var err error
			m.Range(func(k string, v value.Value) bool {
				callArgs := []value.Value{v}
				if withKey {
					callArgs = append(callArgs, value.String(k))
				}
				var res value.Value
				res, err = fn.Invoke(callArgs)
				out.Set(k, res)
				return err == nil
			})
			if err != nil {
				return value.Undefined, err
			}
			return value.MapValue(out), nil
		case value.KindUndefined:
			return value.Undefined, nil
		default:
			return fn.Invoke([]value.Value{xs})
		}
	})

	// apply(fn, args) spreads a map or a vector into the argument list
	l.raw("apply", []string{"fn", "args"}, false, func(args []value.Value) (value.Value, error) {
		fn, ok := arg(args, 0).AsFunction()
		if !ok {
			return value.Undefined, fmt.Errorf("apply: expected a function, got %s", arg(args, 0).Category())
		}
		var spread []value.Value
		switch xs := arg(args, 1); xs.Kind() {
		case value.KindMap:
			m, _ := xs.AsMap()
			m.Range(func(_ string, v value.Value) bool {
				spread = append(spread, v)
				return true
			})
		case value.KindMatrix:
			for _, z := range flatten([]value.Value{xs}) {
				spread = append(spread, scalar(z))
			}
		case value.KindUndefined:
		default:
			spread = append(spread, xs)
		}
		return fn.Invoke(spread)
	})
}
