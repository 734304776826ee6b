package coerce

import (
	"math"
	"reflect"
	"testing"

	"github.com/funvibe/numen/internal/value"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		typ  reflect.Type
		want value.Category
		ok   bool
	}{
		{reflect.TypeFor[int](), value.CategoryNumber, true},
		{reflect.TypeFor[float32](), value.CategoryNumber, true},
		{reflect.TypeFor[complex64](), value.CategoryComplex, true},
		{reflect.TypeFor[[]float64](), value.CategoryMatrix, true},
		{reflect.TypeFor[map[string]any](), value.CategoryMap, true},
		{reflect.TypeFor[*value.Function](), value.CategoryFunction, true},
		{reflect.TypeFor[struct{}](), value.CategoryUndefined, false},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String(), func(t *testing.T) {
			got, ok := CategoryOf(tt.typ)
			if got != tt.want || ok != tt.ok {
				t.Errorf("CategoryOf = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
	opaque := reflect.TypeFor[struct{ A int }]()
	if PrimitiveOf(opaque) != opaque {
		t.Error("unknown representation should map to itself")
	}
	if PrimitiveOf(reflect.TypeFor[int64]()) != TypeNumber {
		t.Error("int64 should map to the number primitive")
	}
}

func TestConvertIdentityOnMiss(t *testing.T) {
	r := Default()
	type opaque struct{ n int }
	in := opaque{3}
	if got := r.Convert(in, TypeNumber); got != in {
		t.Errorf("Convert = %v, want identity", got)
	}
	if got := r.Convert(3.7, reflect.TypeFor[int]()); got != 3 {
		t.Errorf("Convert(3.7, int) = %v", got)
	}
	if got := r.Convert(300.0, reflect.TypeFor[uint8]()); got != uint8(255) {
		t.Errorf("clamp = %v", got)
	}
}

func TestResolveRatings(t *testing.T) {
	r := Default()
	tests := []struct {
		name     string
		from, to reflect.Type
		want     int
	}{
		{"exact", TypeNumber, TypeNumber, RatingExact},
		{"widen", TypeNumber, TypeComplex, RatingWiden},
		{"lift", TypeNumber, TypeMatrix, RatingLift},
		{"clamp", TypeNumber, reflect.TypeFor[uint8](), RatingClamp},
		{"value param", TypeNumber, TypeValue, RatingAny},
		{"parse", TypeString, TypeNumber, RatingParse},
		{"via primitive", TypeBool, reflect.TypeFor[int](), RatingTruncate},
		{"none", TypeFunction, TypeNumber, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Rate(tt.from, tt.to); got != tt.want {
				t.Errorf("Rate = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestResolveThroughPrimitive(t *testing.T) {
	p, ok := Default().Resolve(TypeBool, reflect.TypeFor[int16]())
	if !ok {
		t.Fatal("expected a path")
	}
	if got := p.Apply(true); got != int16(1) {
		t.Errorf("Apply = %#v", got)
	}
}

func TestMatrixScalarConversion(t *testing.T) {
	r := Default()
	one := value.RowVector(9)
	if got := r.Convert(one, TypeNumber); got != 9.0 {
		t.Errorf("1x1 matrix = %v", got)
	}
	got := r.Convert(value.FromRows([][]float64{{1, 2}, {3, 4}}), TypeNumber)
	if f, ok := got.(float64); !ok || !math.IsNaN(f) {
		t.Errorf("2x2 matrix = %v, want NaN", got)
	}
}

func TestHostRoundTrip(t *testing.T) {
	m := value.NewMap()
	m.Set("x", value.Number(1))
	vals := []value.Value{
		value.Number(2), value.Complex(1i), value.Bool(true), value.String("s"),
		value.MatrixValue(value.RowVector(1, 2)), value.MapValue(m),
	}
	for _, v := range vals {
		if got := FromHost(HostOf(v)); !value.Equals(got, v) {
			t.Errorf("round trip %v -> %v", v, got)
		}
	}
	if !FromHost(HostOf(value.Undefined)).IsUndefined() {
		t.Error("undefined lost")
	}
	plain := FromHost(map[string]any{"b": 2, "a": []any{"x"}})
	mp, _ := plain.AsMap()
	if keys := mp.Keys(); keys[0] != "a" || keys[1] != "b" {
		t.Errorf("keys = %v", keys)
	}
}

func TestFindTieKeepsFirstRegistered(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("equal ratings resolve to the first registration", prop.ForAll(
		func(rating int, n int) bool {
			var convs []Converter
			for i := 0; i < n; i++ {
				tag := float64(i)
				convs = append(convs, Converter{
					From: TypeString, To: TypeNumber, Rating: rating,
					Convert: func(any) any { return tag },
				})
			}
			r := New(convs...)
			for i := 0; i < 3; i++ {
				c, ok := r.Find(TypeString, TypeNumber)
				if !ok || c.Convert("") != 0.0 {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, 100),
		gen.IntRange(1, 8),
	))

	properties.Property("a strictly higher rating wins regardless of position", prop.ForAll(
		func(pos int) bool {
			convs := make([]Converter, 5)
			for i := range convs {
				rating := 10
				if i == pos {
					rating = 11
				}
				tag := float64(i)
				convs[i] = Converter{From: TypeString, To: TypeNumber, Rating: rating, Convert: func(any) any { return tag }}
			}
			c, _ := New(convs...).Find(TypeString, TypeNumber)
			return c.Convert("") == float64(pos)
		},
		gen.IntRange(0, 4),
	))

	properties.TestingRun(t)
}
