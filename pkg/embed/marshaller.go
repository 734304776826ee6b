package numen

import (
	"errors"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strconv"

	"github.com/funvibe/numen/internal/coerce"
	"github.com/funvibe/numen/internal/native"
	"github.com/funvibe/numen/internal/value"
)

// ErrUnsupported is returned for Go values that have no script form
var ErrUnsupported = errors.New("unsupported host value")

// Marshaller handles conversion between Go and script values.
type Marshaller struct {
	registry *coerce.Registry
	currying bool
}

func NewMarshaller(registry *coerce.Registry, currying bool) *Marshaller {
	if registry == nil {
		registry = coerce.Default()
	}
	return &Marshaller{registry: registry, currying: currying}
}

// ToValue converts a Go value. Numeric slices become row vectors, other
// slices and structs become maps, Go functions become natives.
func (m *Marshaller) ToValue(val any) (value.Value, error) {
	return m.toValue("host", val)
}

func (m *Marshaller) toValue(name string, val any) (value.Value, error) {
	switch t := val.(type) {
	case nil:
		return value.Undefined, nil
	case value.Value:
		return t, nil
	case *value.Function, *value.Map, *value.Matrix, []float64, [][]float64, error:
		return coerce.FromHost(t), nil
	}

	v := reflect.ValueOf(val)
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return value.Number(float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return value.Number(float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return value.Number(v.Float()), nil
	case reflect.Complex64, reflect.Complex128:
		return value.Complex(v.Complex()), nil
	case reflect.Bool:
		return value.Bool(v.Bool()), nil
	case reflect.String:
		return value.String(v.String()), nil
	case reflect.Slice, reflect.Array:
		if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Uint8 {
			return value.String(string(v.Bytes())), nil
		}
		return m.sliceToValue(v)
	case reflect.Map:
		return m.mapToValue(v)
	case reflect.Struct:
		return m.structToMap(v)
	case reflect.Pointer, reflect.Interface:
		if v.IsNil() {
			return value.Undefined, nil
		}
		return m.toValue(name, v.Elem().Interface())
	case reflect.Func:
		return value.FunctionValue(native.Wrap(name, val,
			native.WithRegistry(m.registry), native.WithCurrying(m.currying))), nil
	}
	return value.Undefined, fmt.Errorf("%w: %T", ErrUnsupported, val)
}

func isNumericKind(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

func (m *Marshaller) sliceToValue(v reflect.Value) (value.Value, error) {
	if isNumericKind(v.Type().Elem().Kind()) {
		row := value.NewMatrix(1, v.Len())
		for i := 0; i < v.Len(); i++ {
			x, _ := m.toValue("", v.Index(i).Interface())
			row.Re[i] = value.ToNumber(x)
		}
		return value.MatrixValue(row), nil
	}
	out := value.NewMap()
	for i := 0; i < v.Len(); i++ {
		el, err := m.toValue("", v.Index(i).Interface())
		if err != nil {
			return value.Undefined, fmt.Errorf("element %d: %w", i, err)
		}
		out.Set(strconv.Itoa(i), el)
	}
	return value.MapValue(out), nil
}

// mapToValue converts maps with keys of any printable kind. Keys are
// sorted so the resulting map has a stable order.
func (m *Marshaller) mapToValue(v reflect.Value) (value.Value, error) {
	keys := make(map[string]reflect.Value, v.Len())
	iter := v.MapRange()
	for iter.Next() {
		keys[fmt.Sprint(iter.Key().Interface())] = iter.Value()
	}
	out := value.NewMap()
	for _, k := range slices.Sorted(maps.Keys(keys)) {
		el, err := m.toValue(k, keys[k].Interface())
		if err != nil {
			return value.Undefined, fmt.Errorf("map value %q: %w", k, err)
		}
		out.Set(k, el)
	}
	return value.MapValue(out), nil
}

// fieldName is the script name of a struct field: its numen tag, or the
// Go name. A tag of "-" skips the field.
func fieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	switch tag := f.Tag.Get("numen"); tag {
	case "-":
		return "", false
	case "":
		return f.Name, true
	default:
		return tag, true
	}
}

func (m *Marshaller) structToMap(v reflect.Value) (value.Value, error) {
	out := value.NewMap()
	t := v.Type()
	for i := 0; i < v.NumField(); i++ {
		name, ok := fieldName(t.Field(i))
		if !ok {
			continue
		}
		el, err := m.toValue(name, v.Field(i).Interface())
		if err != nil {
			return value.Undefined, fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
		out.Set(name, el)
	}
	return value.MapValue(out), nil
}

// FromValue converts a script value to a Go value. targetType is
// optional; without it the plain Go form (float64, string, bool,
// []float64, map[string]any...) is returned.
func (m *Marshaller) FromValue(v value.Value, targetType reflect.Type) (any, error) {
	if targetType == nil || targetType == coerce.TypeAny {
		return coerce.ToHostPlain(v), nil
	}
	if targetType == coerce.TypeValue {
		return v, nil
	}

	switch targetType.Kind() {
	case reflect.Struct:
		if mp, ok := v.AsMap(); ok {
			return m.mapToStruct(mp, targetType)
		}
	case reflect.Slice:
		if targetType.Elem().Kind() != reflect.Uint8 {
			return m.toSlice(v, targetType)
		}
	case reflect.Map:
		if mp, ok := v.AsMap(); ok && targetType.Key().Kind() == reflect.String {
			return m.toGoMap(mp, targetType)
		}
	case reflect.Pointer:
		if targetType.Elem().Kind() == reflect.Struct {
			x, err := m.FromValue(v, targetType.Elem())
			if err != nil {
				return nil, err
			}
			p := reflect.New(targetType.Elem())
			p.Elem().Set(reflect.ValueOf(x))
			return p.Interface(), nil
		}
	}

	from := coerce.HostType(v)
	path, ok := m.registry.Resolve(from, targetType)
	if !ok {
		return nil, fmt.Errorf("%w: %s to %s", native.ErrInvalidCast, v.Category(), targetType)
	}
	x := path.Apply(coerce.HostOf(v))
	rv := reflect.ValueOf(x)
	if !rv.IsValid() {
		return reflect.Zero(targetType).Interface(), nil
	}
	if rv.Type() != targetType && rv.Type().ConvertibleTo(targetType) {
		rv = rv.Convert(targetType)
	}
	return rv.Interface(), nil
}

// assign converts v into a reflect value of type t
func (m *Marshaller) assign(v value.Value, t reflect.Type) (reflect.Value, error) {
	x, err := m.FromValue(v, t)
	if err != nil {
		return reflect.Value{}, err
	}
	if x == nil {
		return reflect.Zero(t), nil
	}
	rv := reflect.ValueOf(x)
	if !rv.Type().AssignableTo(t) {
		if !rv.Type().ConvertibleTo(t) {
			return reflect.Value{}, fmt.Errorf("%w: %s to %s", native.ErrInvalidCast, rv.Type(), t)
		}
		rv = rv.Convert(t)
	}
	return rv, nil
}

func (m *Marshaller) mapToStruct(mp *value.Map, t reflect.Type) (any, error) {
	out := reflect.New(t).Elem()
	for i := 0; i < t.NumField(); i++ {
		name, ok := fieldName(t.Field(i))
		if !ok {
			continue
		}
		el, ok := mp.Get(name)
		if !ok || el.IsUndefined() {
			continue
		}
		rv, err := m.assign(el, t.Field(i).Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", t.Field(i).Name, err)
		}
		out.Field(i).Set(rv)
	}
	return out.Interface(), nil
}

// toSlice converts the elements of a matrix or the values of a map
func (m *Marshaller) toSlice(v value.Value, t reflect.Type) (any, error) {
	var elems []value.Value
	switch v.Kind() {
	case value.KindMap:
		mp, _ := v.AsMap()
		mp.Range(func(_ string, el value.Value) bool {
			elems = append(elems, el)
			return true
		})
	case value.KindMatrix:
		mt, _ := v.AsMatrix()
		for r := 0; r < mt.Rows; r++ {
			for c := 0; c < mt.Cols; c++ {
				z := mt.At(r, c)
				if imag(z) == 0 {
					elems = append(elems, value.Number(real(z)))
				} else {
					elems = append(elems, value.Complex(z))
				}
			}
		}
	case value.KindUndefined:
	default:
		elems = []value.Value{v}
	}

	out := reflect.MakeSlice(t, 0, len(elems))
	for i, el := range elems {
		rv, err := m.assign(el, t.Elem())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		out = reflect.Append(out, rv)
	}
	return out.Interface(), nil
}

func (m *Marshaller) toGoMap(mp *value.Map, t reflect.Type) (any, error) {
	out := reflect.MakeMapWithSize(t, mp.Len())
	var err error
	mp.Range(func(k string, el value.Value) bool {
		var rv reflect.Value
		rv, err = m.assign(el, t.Elem())
		if err != nil {
			err = fmt.Errorf("map value %q: %w", k, err)
			return false
		}
		out.SetMapIndex(reflect.ValueOf(k).Convert(t.Key()), rv)
		return true
	})
	if err != nil {
		return nil, err
	}
	return out.Interface(), nil
}
