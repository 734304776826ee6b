// Package native exposes Go functions as language functions. Each host
// function gets an overload table built once with reflection; calls pick the
// overload whose parameters the arguments convert to best.
package native

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/funvibe/numen/internal/coerce"
	"github.com/funvibe/numen/internal/value"
)

// ErrInvalidCast is returned by CallForced when the result has the wrong
// category.
var ErrInvalidCast = errors.New("invalid cast")

var errorType = reflect.TypeFor[error]()

type options struct {
	params   []string
	currying bool
	registry *coerce.Registry
}

type Option func(*options)

// WithParams sets the parameter names reported for introspection
func WithParams(names ...string) Option {
	return func(o *options) { o.params = names }
}

// WithCurrying controls whether under-applied calls return a partial
func WithCurrying(on bool) Option {
	return func(o *options) { o.currying = on }
}

func WithRegistry(r *coerce.Registry) Option {
	return func(o *options) { o.registry = r }
}

type overload struct {
	fn       reflect.Value
	in       []reflect.Type
	variadic bool
	errOut   bool
	nOut     int
}

func (o *overload) arity() int {
	if o.variadic {
		return len(o.in) - 1
	}
	return len(o.in)
}

func (o *overload) paramType(i int) reflect.Type {
	if o.variadic && i >= len(o.in)-1 {
		return o.in[len(o.in)-1].Elem()
	}
	return o.in[i]
}

type binding struct {
	name      string
	overloads []*overload
	opts      options
}

// Wrap exposes a single Go function
func Wrap(name string, fn any, opts ...Option) *value.Function {
	return Overloaded(name, []any{fn}, opts...)
}

// Overloaded exposes several Go functions under one name. On a call the
// overload with the highest summed argument rating wins; ties go to the
// earlier one.
func Overloaded(name string, fns []any, opts ...Option) *value.Function {
	b := &binding{name: name, opts: options{currying: true, registry: coerce.Default()}}
	for _, opt := range opts {
		opt(&b.opts)
	}
	for _, fn := range fns {
		b.overloads = append(b.overloads, newOverload(name, fn))
	}
	if len(b.overloads) == 0 {
		panic(fmt.Sprintf("native %s: no functions given", name))
	}

	first := b.overloads[0]
	params := b.opts.params
	if params == nil {
		for i := 0; i < first.arity(); i++ {
			params = append(params, fmt.Sprintf("arg%d", i))
		}
		if first.variadic {
			params = append(params, "args")
		}
	}

	var self *value.Function
	self = value.NewNative(name, params, func(args []value.Value) (value.Value, error) {
		return b.call(self, args)
	})
	self.Variadic = first.variadic
	return self
}

func newOverload(name string, fn any) *overload {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		panic(fmt.Sprintf("native %s: expected a function, got %T", name, fn))
	}
	t := v.Type()
	o := &overload{fn: v, variadic: t.IsVariadic(), nOut: t.NumOut()}
	for i := 0; i < t.NumIn(); i++ {
		o.in = append(o.in, t.In(i))
	}
	if o.nOut > 0 && t.Out(o.nOut-1) == errorType {
		o.errOut = true
	}
	if o.nOut > 2 || (o.nOut == 2 && !o.errOut) {
		panic(fmt.Sprintf("native %s: unsupported result shape %s", name, t))
	}
	return o
}

type resolved struct {
	ov    *overload
	paths []coerce.Path
	score int
}

func (b *binding) resolve(args []value.Value) (resolved, bool) {
	var best resolved
	found := false
	for _, ov := range b.overloads {
		if len(args) < ov.arity() || (!ov.variadic && len(args) > ov.arity()) {
			continue
		}
		r := resolved{ov: ov, paths: make([]coerce.Path, len(args))}
		ok := true
		for i, arg := range args {
			p, applicable := b.opts.registry.Resolve(coerce.HostType(arg), ov.paramType(i))
			if !applicable {
				ok = false
				break
			}
			r.paths[i] = p
			r.score += p.Rating
		}
		if ok && (!found || r.score > best.score) {
			best, found = r, true
		}
	}
	return best, found
}

func (b *binding) call(self *value.Function, args []value.Value) (value.Value, error) {
	r, ok := b.resolve(args)
	if !ok {
		if b.opts.currying && len(args) > 0 && len(args) < b.overloads[0].arity() {
			return value.FunctionValue(value.Partial(self, args)), nil
		}
		return value.Undefined, nil
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		x := r.paths[i].Apply(coerce.HostOf(arg))
		target := r.ov.paramType(i)
		if x == nil {
			in[i] = reflect.Zero(target)
			continue
		}
		rv := reflect.ValueOf(x)
		if rv.Type() != target && rv.Type().ConvertibleTo(target) {
			rv = rv.Convert(target)
		}
		in[i] = rv
	}

	out := r.ov.fn.Call(in)
	if r.ov.errOut {
		if err, _ := out[len(out)-1].Interface().(error); err != nil {
			return value.Undefined, fmt.Errorf("%s: %w", b.name, err)
		}
		out = out[:len(out)-1]
	}
	if len(out) == 0 {
		return value.Undefined, nil
	}
	return coerce.FromHost(out[0].Interface()), nil
}

// Call invokes fn with Go arguments converted to values
func Call(fn *value.Function, args ...any) (value.Value, error) {
	vals := make([]value.Value, len(args))
	for i, a := range args {
		vals[i] = coerce.FromHost(a)
	}
	return fn.Invoke(vals)
}

// CallForced invokes fn and fails with ErrInvalidCast unless the result
// belongs to the wanted category.
func CallForced(fn *value.Function, args []value.Value, want value.Category) (value.Value, error) {
	res, err := fn.Invoke(args)
	if err != nil {
		return value.Undefined, err
	}
	if got := res.Category(); got != want {
		return value.Undefined, fmt.Errorf("%w: %s returned %s, expected %s", ErrInvalidCast, fn.Name, got, want)
	}
	return res, nil
}

// ParameterNames reports the declared parameter names of fn
func ParameterNames(fn *value.Function) []string {
	return fn.ParameterNames()
}
