// Package coerce holds the ranked conversion registry used for operator
// dispatch and native argument adaptation.
package coerce

import (
	"math"
	"reflect"
	"sync"

	"github.com/funvibe/numen/internal/value"
)

// Ratings for built-in conversions. Higher preserves more information.
const (
	RatingExact    = 100
	RatingWiden    = 95
	RatingNarrow   = 90
	RatingLift     = 80
	RatingFlatten  = 70
	RatingTruncate = 60
	RatingAny      = 50
	RatingScalar   = 50
	RatingTruthy   = 40
	RatingLossy    = 30
	RatingClamp    = 20
	RatingFormat   = 15
	RatingParse    = 10
)

// Representation types known to the registry
var (
	TypeNumber   = reflect.TypeFor[float64]()
	TypeComplex  = reflect.TypeFor[complex128]()
	TypeBool     = reflect.TypeFor[bool]()
	TypeString   = reflect.TypeFor[string]()
	TypeMatrix   = reflect.TypeFor[*value.Matrix]()
	TypeMap      = reflect.TypeFor[*value.Map]()
	TypeFunction = reflect.TypeFor[*value.Function]()
	TypeValue    = reflect.TypeFor[value.Value]()
	TypeAny      = reflect.TypeFor[any]()
)

// Converter is one ranked conversion between two representations
type Converter struct {
	From    reflect.Type
	To      reflect.Type
	Rating  int
	Convert func(any) any
}

type category struct {
	cat     value.Category
	prim    reflect.Type
	accepts []reflect.Type
}

// categoryTable lists each primitive category with the representations it
// accepts. Order matters: the first match wins.
var categoryTable = []category{
	{value.CategoryNumber, TypeNumber, []reflect.Type{
		TypeNumber, reflect.TypeFor[float32](),
		reflect.TypeFor[int](), reflect.TypeFor[int8](), reflect.TypeFor[int16](),
		reflect.TypeFor[int32](), reflect.TypeFor[int64](),
		reflect.TypeFor[uint](), reflect.TypeFor[uint8](), reflect.TypeFor[uint16](),
		reflect.TypeFor[uint32](), reflect.TypeFor[uint64](),
	}},
	{value.CategoryComplex, TypeComplex, []reflect.Type{TypeComplex, reflect.TypeFor[complex64]()}},
	{value.CategoryBoolean, TypeBool, []reflect.Type{TypeBool}},
	{value.CategoryString, TypeString, []reflect.Type{TypeString, reflect.TypeFor[[]byte]()}},
	{value.CategoryMatrix, TypeMatrix, []reflect.Type{TypeMatrix, reflect.TypeFor[[]float64](), reflect.TypeFor[[][]float64]()}},
	{value.CategoryMap, TypeMap, []reflect.Type{TypeMap, reflect.TypeFor[map[string]any]()}},
	{value.CategoryFunction, TypeFunction, []reflect.Type{TypeFunction}},
}

// Registry is an append-only list of converters. It is immutable once built
// and safe for concurrent reads.
type Registry struct {
	converters []Converter
	index      map[[2]reflect.Type][]int
}

// New builds a registry from converters in registration order
func New(converters ...Converter) *Registry {
	r := &Registry{
		converters: append([]Converter(nil), converters...),
		index:      make(map[[2]reflect.Type][]int),
	}
	for i, c := range r.converters {
		key := [2]reflect.Type{c.From, c.To}
		r.index[key] = append(r.index[key], i)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry { return New(builtinConverters()...) })

// Default returns the process-wide registry of built-in conversions
func Default() *Registry { return defaultRegistry() }

// Converters returns a copy of the registered conversions
func (r *Registry) Converters() []Converter {
	return append([]Converter(nil), r.converters...)
}

// PrimitiveOf returns the primitive representation of t's category.
// Unknown representations map to themselves.
func PrimitiveOf(t reflect.Type) reflect.Type {
	for _, c := range categoryTable {
		if acceptsType(c, t) {
			return c.prim
		}
	}
	return t
}

// CategoryOf classifies a concrete representation
func CategoryOf(t reflect.Type) (value.Category, bool) {
	for _, c := range categoryTable {
		if acceptsType(c, t) {
			return c.cat, true
		}
	}
	return value.CategoryUndefined, false
}

func acceptsType(c category, t reflect.Type) bool {
	for _, a := range c.accepts {
		if t == a || (a.Kind() == reflect.Interface && t.Implements(a)) {
			return true
		}
	}
	return false
}

// Find returns the highest rated converter for the exact (from, to) pair.
// Among equal ratings the first registered wins.
func (r *Registry) Find(from, to reflect.Type) (Converter, bool) {
	idx, ok := r.index[[2]reflect.Type{from, to}]
	if !ok {
		return Converter{}, false
	}
	best := r.converters[idx[0]]
	for _, i := range idx[1:] {
		if r.converters[i].Rating > best.Rating {
			best = r.converters[i]
		}
	}
	return best, true
}

// Convert applies the best conversion for x to the target representation.
// With no conversion registered x is returned unchanged.
func (r *Registry) Convert(x any, to reflect.Type) any {
	if x == nil {
		return x
	}
	c, ok := r.Find(reflect.TypeOf(x), to)
	if !ok {
		return x
	}
	return c.Convert(x)
}

// Path is a resolved conversion, possibly through a primitive
type Path struct {
	Rating int
	steps  []func(any) any
}

func (p Path) Apply(x any) any {
	for _, s := range p.steps {
		x = s(x)
	}
	return x
}

// Resolve finds how to turn a from-representation into a to-representation.
// Paths through the target's primitive take the lower of the two ratings.
func (r *Registry) Resolve(from, to reflect.Type) (Path, bool) {
	if from == to {
		return Path{Rating: RatingExact}, true
	}
	if to == TypeValue {
		return Path{Rating: RatingAny, steps: []func(any) any{func(x any) any { return FromHost(x) }}}, true
	}
	if to.Kind() == reflect.Interface && from.Implements(to) {
		if to == TypeAny {
			return Path{Rating: RatingAny}, true
		}
		return Path{Rating: RatingExact}, true
	}
	if c, ok := r.Find(from, to); ok {
		return Path{Rating: c.Rating, steps: []func(any) any{c.Convert}}, true
	}

	prim := PrimitiveOf(to)
	if prim == to {
		return Path{}, false
	}
	first, ok := r.Resolve(from, prim)
	if !ok {
		return Path{}, false
	}
	second, ok := r.Find(prim, to)
	var step func(any) any
	rating := 0
	switch {
	case ok:
		step, rating = second.Convert, second.Rating
	case isNumeric(prim) && isNumeric(to):
		step, rating = reflectConvert(to), RatingTruncate
	default:
		return Path{}, false
	}
	return Path{
		Rating: min(first.Rating, rating),
		steps:  append(append([]func(any) any(nil), first.steps...), step),
	}, true
}

// Rate reports the rating of the best path, or -1 if there is none
func (r *Registry) Rate(from, to reflect.Type) int {
	if p, ok := r.Resolve(from, to); ok {
		return p.Rating
	}
	return -1
}

func isNumeric(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return true
	}
	return false
}

func reflectConvert(to reflect.Type) func(any) any {
	return func(x any) any {
		v := reflect.ValueOf(x)
		if f, ok := x.(float64); ok && to.Kind() >= reflect.Int && to.Kind() <= reflect.Uint64 {
			if math.IsNaN(f) {
				return reflect.Zero(to).Interface()
			}
		}
		if !v.CanConvert(to) {
			return reflect.Zero(to).Interface()
		}
		return v.Convert(to).Interface()
	}
}
