package value

import "strings"

// Origin tells how a Function is backed
type Origin uint8

const (
	OriginNative Origin = iota
	OriginCompiled
)

func (o Origin) String() string {
	if o == OriginCompiled {
		return "compiled"
	}
	return "native"
}

// Function is the uniform callable. Native functions wrap a host routine,
// compiled ones carry a VM closure in Closure. Both are invoked the same way.
type Function struct {
	Name     string
	Params   []string
	Variadic bool
	Origin   Origin

	// Closure is the VM closure backing a compiled function
	Closure any

	fn func(args []Value) (Value, error)
}

// NewNative wraps a host routine as a Function
func NewNative(name string, params []string, fn func(args []Value) (Value, error)) *Function {
	return &Function{Name: name, Params: params, Origin: OriginNative, fn: fn}
}

// NewCompiled creates a Function backed by a VM closure. The invoke routine
// is supplied by the VM.
func NewCompiled(name string, params []string, closure any, fn func(args []Value) (Value, error)) *Function {
	return &Function{Name: name, Params: params, Origin: OriginCompiled, Closure: closure, fn: fn}
}

// Invoke calls the function with the arguments unmodified
func (f *Function) Invoke(args []Value) (Value, error) {
	if f == nil || f.fn == nil {
		return Undefined, nil
	}
	return f.fn(args)
}

// Arity is the number of declared parameters, the spread one excluded
func (f *Function) Arity() int {
	if f.Variadic && len(f.Params) > 0 {
		return len(f.Params) - 1
	}
	return len(f.Params)
}

// ParameterNames returns the declared names. A variadic last parameter is
// rendered with a spread prefix.
func (f *Function) ParameterNames() []string {
	out := append([]string(nil), f.Params...)
	if f.Variadic && len(out) > 0 {
		last := len(out) - 1
		if !strings.HasPrefix(out[last], "...") {
			out[last] = "..." + out[last]
		}
	}
	return out
}

func (f *Function) String() string {
	name := f.Name
	if name == "" {
		name = "anonymous"
	}
	return name + "(" + strings.Join(f.ParameterNames(), ", ") + ")"
}

// Partial binds the leading arguments of fn. The result takes the remaining
// parameters and calls fn with the bound arguments prepended. It has no
// Closure, so callers always go through Invoke.
func Partial(fn *Function, bound []Value) *Function {
	bound = append([]Value(nil), bound...)
	var rest []string
	if len(bound) < len(fn.Params) {
		rest = append(rest, fn.Params[len(bound):]...)
	}
	p := &Function{
		Name:     fn.Name,
		Params:   rest,
		Variadic: fn.Variadic && len(rest) > 0,
		Origin:   fn.Origin,
	}
	p.fn = func(args []Value) (Value, error) {
		all := make([]Value, 0, len(bound)+len(args))
		all = append(all, bound...)
		all = append(all, args...)
		return fn.Invoke(all)
	}
	return p
}
