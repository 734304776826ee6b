package value

import (
	"math"
	"testing"
)

func TestToNumber(t *testing.T) {
	tests := []struct {
		name string
		in   Value
		want float64
		nan  bool
	}{
		{"number", Number(2.5), 2.5, false},
		{"true", Bool(true), 1, false},
		{"numeric string", String(" 42 "), 42, false},
		{"bad string", String("abc"), 0, true},
		{"real complex", Complex(3), 3, false},
		{"complex", Complex(1 + 2i), 0, true},
		{"1x1 matrix", MatrixValue(RowVector(7)), 7, false},
		{"row matrix", MatrixValue(RowVector(1, 2)), 0, true},
		{"undefined", Undefined, 0, true},
		{"map", MapValue(NewMap()), 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ToNumber(tt.in)
			if tt.nan {
				if !math.IsNaN(got) {
					t.Errorf("ToNumber = %v, want NaN", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ToNumber = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToBoolean(t *testing.T) {
	full := NewMap()
	full.Set("a", Number(1))
	tests := []struct {
		name string
		in   Value
		want bool
	}{
		{"zero", Number(0), false},
		{"nan", Number(math.NaN()), false},
		{"one", Number(1), true},
		{"empty string", String(""), false},
		{"string", String("x"), true},
		{"empty map", MapValue(NewMap()), false},
		{"map", MapValue(full), true},
		{"zero matrix", MatrixValue(NewMatrix(2, 2)), false},
		{"matrix with one", MatrixValue(RowVector(0, 0, 1)), true},
		{"undefined", Undefined, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToBoolean(tt.in); got != tt.want {
				t.Errorf("ToBoolean = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestToStringAndInspect(t *testing.T) {
	if ToString(Undefined) != "" {
		t.Error("undefined should convert to empty string")
	}
	if Inspect(Undefined) != "undefined" {
		t.Error("undefined should inspect as undefined")
	}
	if got := ToString(Number(18)); got != "18" {
		t.Errorf("ToString(18) = %q", got)
	}
	if got := ToString(Complex(1 - 2i)); got != "1-2i" {
		t.Errorf("ToString(1-2i) = %q", got)
	}
	m := FromRows([][]float64{{1, 2}, {3, 4}})
	if got := ToString(MatrixValue(m)); got != "[1, 2; 3, 4]" {
		t.Errorf("matrix = %q", got)
	}
	mp := NewMap()
	mp.Set("b", Number(2))
	mp.Set("a", String("x"))
	if got := ToString(MapValue(mp)); got != `{b: 2, a: "x"}` {
		t.Errorf("map = %q", got)
	}
}

func TestEquals(t *testing.T) {
	if Equals(Undefined, Number(0)) || Equals(Number(0), Undefined) {
		t.Error("undefined must not equal other values")
	}
	if !Equals(Undefined, Undefined) {
		t.Error("undefined equals itself")
	}
	if !Equals(Number(2), Complex(2)) {
		t.Error("2 should equal 2+0i")
	}
	if !Equals(MatrixValue(RowVector(1, 2)), MatrixValue(RowVector(1, 2))) {
		t.Error("matrices compare element-wise")
	}
	a, b := NewMap(), NewMap()
	if Equals(MapValue(a), MapValue(b)) || !Equals(MapValue(a), MapValue(a)) {
		t.Error("maps compare by reference")
	}
}

func TestMatrixGrowAndTranspose(t *testing.T) {
	m := FromRows([][]float64{{1, 2}, {3, 4}})
	m.Grow(3, 3)
	if m.Rows != 3 || m.Cols != 3 {
		t.Fatalf("size = %dx%d", m.Rows, m.Cols)
	}
	if m.At(1, 0) != 3 || m.At(2, 2) != 0 {
		t.Errorf("grow moved elements: %s", m)
	}
	tr := FromRows([][]float64{{1, 2, 3}}).Transpose()
	if tr.Rows != 3 || tr.Cols != 1 || tr.At(2, 0) != 3 {
		t.Errorf("transpose = %s", tr)
	}
	m.Set(0, 0, 1i)
	if !m.IsComplex() || MatrixValue(m).Category() != CategoryComplexMatrix {
		t.Error("setting an imaginary element should promote the matrix")
	}
}

func TestMapOrder(t *testing.T) {
	m := NewMap()
	for _, k := range []string{"z", "a", "m"} {
		m.Set(k, String(k))
	}
	m.Set("a", Number(1))
	keys := m.Keys()
	if len(keys) != 3 || keys[0] != "z" || keys[1] != "a" || keys[2] != "m" {
		t.Errorf("keys = %v", keys)
	}
	if !m.Delete("a") || m.Has("a") || m.Len() != 2 {
		t.Error("delete failed")
	}
	if got, ok := m.Get("m"); !ok || ToString(got) != "m" {
		t.Error("index not rebuilt after delete")
	}
	if got := GetProperty(MapValue(m), "missing"); !got.IsUndefined() {
		t.Error("missing key should read as undefined")
	}
}

func TestFunctionPartial(t *testing.T) {
	add := NewNative("add", []string{"a", "b"}, func(args []Value) (Value, error) {
		return Number(ToNumber(args[0]) + ToNumber(args[1])), nil
	})
	inc := Partial(add, []Value{Number(1)})
	if len(inc.Params) != 1 || inc.Params[0] != "b" {
		t.Errorf("params = %v", inc.Params)
	}
	got, err := inc.Invoke([]Value{Number(41)})
	if err != nil || ToNumber(got) != 42 {
		t.Errorf("inc(41) = %v, %v", got, err)
	}
	spread := &Function{Params: []string{"fmt", "args"}, Variadic: true}
	names := spread.ParameterNames()
	if names[1] != "...args" {
		t.Errorf("names = %v", names)
	}
}

func TestFutureCompleteNotifiesOnce(t *testing.T) {
	f := NewFuture()
	if !IsFuture(MapValue(f)) {
		t.Fatal("new future not recognised")
	}
	calls := 0
	var got Value
	cont := NewNative("cont", nil, func(args []Value) (Value, error) {
		calls++
		got = args[0]
		return Undefined, nil
	})
	ready, _, _, _ := AwaitFuture(f, cont)
	if ready {
		t.Fatal("pending future reported ready")
	}
	if ok, err := CompleteFuture(f, Number(5), ""); !ok || err != nil {
		t.Fatalf("complete = %v, %v", ok, err)
	}
	if ok, _ := CompleteFuture(f, Number(6), ""); ok {
		t.Error("second completion must be rejected")
	}
	if calls != 1 || ToNumber(got) != 5 {
		t.Errorf("calls = %d, got = %v", calls, got)
	}
	ready, res, failed, _ := AwaitFuture(f, cont)
	if !ready || failed || ToNumber(res) != 5 {
		t.Errorf("await done = %v %v %v", ready, res, failed)
	}
}

func TestFutureError(t *testing.T) {
	f := NewFuture()
	CompleteFuture(f, Undefined, "boom")
	ready, _, failed, msg := AwaitFuture(f, nil)
	if !ready || !failed || msg != "boom" {
		t.Errorf("await = %v %v %q", ready, failed, msg)
	}
}

func TestAwaitChainsExistingNotify(t *testing.T) {
	f := NewFuture()
	var order []string
	first := NewNative("a", nil, func([]Value) (Value, error) { order = append(order, "a"); return Undefined, nil })
	second := NewNative("b", nil, func([]Value) (Value, error) { order = append(order, "b"); return Undefined, nil })
	f.Set(FutureNotify, FunctionValue(first))
	AwaitFuture(f, second)
	CompleteFuture(f, Number(1), "")
	if len(order) != 2 || order[0] != "a" || order[1] != "b" {
		t.Errorf("order = %v", order)
	}
}
