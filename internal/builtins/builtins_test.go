package builtins

import (
	"bytes"
	"io"
	"math"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/logger"
	"github.com/funvibe/numen/internal/value"
)

func newTestLibrary(t *testing.T) *Library {
	t.Helper()
	l := New(WithOutput(io.Discard), WithLogger(logger.Discard()))
	t.Cleanup(func() { _ = l.Close() })
	return l
}

func call(t *testing.T, l *Library, name string, args ...value.Value) value.Value {
	t.Helper()
	fn, ok := l.Native(name)
	if !ok {
		t.Fatalf("native %s is not registered", name)
	}
	res, err := fn.Invoke(args)
	if err != nil {
		t.Fatalf("%s: unexpected error: %v", name, err)
	}
	return res
}

func callErr(t *testing.T, l *Library, name string, args ...value.Value) error {
	t.Helper()
	fn, ok := l.Native(name)
	if !ok {
		t.Fatalf("native %s is not registered", name)
	}
	_, err := fn.Invoke(args)
	return err
}

// await blocks until the future completes and returns its result and error
// message.
func await(t *testing.T, v value.Value) (value.Value, string) {
	t.Helper()
	fut, ok := value.AsFuture(v)
	if !ok {
		t.Fatalf("expected a future, got %s", value.Inspect(v))
	}
	type outcome struct {
		res value.Value
		msg string
	}
	ch := make(chan outcome, 1)
	cont := value.NewNative("await", nil, func(args []value.Value) (value.Value, error) {
		ch <- outcome{arg(args, 0), value.ToString(arg(args, 1))}
		return value.Undefined, nil
	})
	if ready, res, failed, msg := value.AwaitFuture(fut, cont); ready {
		if !failed {
			msg = ""
		}
		return res, msg
	}
	select {
	case o := <-ch:
		return o.res, o.msg
	case <-time.After(5 * time.Second):
		t.Fatal("future did not complete")
	}
	return value.Undefined, ""
}

func num(f float64) value.Value { return value.Number(f) }
func str(s string) value.Value  { return value.String(s) }

func mat(rows ...[]float64) value.Value {
	return value.MatrixValue(value.FromRows(rows))
}

func expectNumber(t *testing.T, got value.Value, want float64) {
	t.Helper()
	n, ok := got.AsNumber()
	if !ok {
		t.Fatalf("expected number %v, got %s", want, value.Inspect(got))
	}
	if math.Abs(n-want) > 1e-9 {
		t.Errorf("expected %v, got %v", want, n)
	}
}

func expectMatrix(t *testing.T, got value.Value, want string) {
	t.Helper()
	if got.Kind() != value.KindMatrix {
		t.Fatalf("expected matrix %s, got %s", want, value.Inspect(got))
	}
	if s := value.Inspect(got); s != want {
		t.Errorf("expected %s, got %s", want, s)
	}
}

func TestOperatorNamesRegistered(t *testing.T) {
	l := newTestLibrary(t)
	for op, name := range config.BinaryOperators {
		if _, ok := l.Native(name); !ok {
			t.Errorf("operator %s: native %s missing", op, name)
		}
	}
	for op, name := range config.UnaryOperators {
		if _, ok := l.Native(name); !ok {
			t.Errorf("operator %s: native %s missing", op, name)
		}
	}
}

func TestAddDispatch(t *testing.T) {
	l := newTestLibrary(t)
	tests := []struct {
		name string
		a, b value.Value
		want string
	}{
		{"numbers", num(1), num(2), "3"},
		{"number and complex", num(1), value.Complex(2i), "1+2i"},
		{"string concatenation", str("a"), num(1), `"a1"`},
		{"booleans flatten", value.Bool(true), value.Bool(true), "2"},
		{"matrices", mat([]float64{1, 2}), mat([]float64{3, 4}), "[4, 6]"},
		{"scalar broadcast", mat([]float64{1, 2}), num(10), "[11, 12]"},
		{"undefined", value.Undefined, num(1), "NaN"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, l, config.AddFuncName, tt.a, tt.b)
			if s := value.Inspect(got); s != tt.want {
				t.Errorf("add(%s, %s) = %s, want %s", tt.a, tt.b, s, tt.want)
			}
		})
	}
}

func TestArithmetic(t *testing.T) {
	l := newTestLibrary(t)
	expectNumber(t, call(t, l, config.SubtractFuncName, num(1), num(2)), -1)
	expectNumber(t, call(t, l, config.MultiplyFuncName, str("2"), str("3")), 6)
	expectNumber(t, call(t, l, config.DivideFuncName, num(6), num(4)), 1.5)
	expectNumber(t, call(t, l, config.ModuloFuncName, num(-1), num(3)), 2)
	expectNumber(t, call(t, l, config.ModuloFuncName, num(5), num(0)), 5)
	expectNumber(t, call(t, l, config.PowerFuncName, num(2), num(10)), 1024)

	got := call(t, l, config.PowerFuncName, num(-8), num(1.0/3))
	if got.Kind() != value.KindComplex {
		t.Errorf("(-8)^(1/3) should be complex, got %s", value.Inspect(got))
	}

	expectNumber(t, call(t, l, config.NegateFuncName, str("4")), -4)
	expectNumber(t, call(t, l, config.PlusFuncName, value.Bool(true)), 1)
}

func TestMatrixOperators(t *testing.T) {
	l := newTestLibrary(t)
	a := mat([]float64{1, 2}, []float64{3, 4})
	b := mat([]float64{5, 6}, []float64{7, 8})

	expectMatrix(t, call(t, l, config.MultiplyFuncName, a, b), "[19, 22; 43, 50]")
	expectMatrix(t, call(t, l, config.MultiplyFuncName, num(2), a), "[2, 4; 6, 8]")
	expectMatrix(t, call(t, l, config.DotMultiplyFuncName, a, b), "[5, 12; 21, 32]")
	expectMatrix(t, call(t, l, config.DotPowerFuncName, a, num(2)), "[1, 4; 9, 16]")
	expectMatrix(t, call(t, l, config.DivideFuncName, a, num(2)), "[0.5, 1; 1.5, 2]")
	expectMatrix(t, call(t, l, config.TransposeFuncName, a), "[1, 3; 2, 4]")
	expectMatrix(t, call(t, l, config.NegateFuncName, a), "[-1, -2; -3, -4]")

	fib := mat([]float64{1, 1}, []float64{1, 0})
	expectMatrix(t, call(t, l, config.PowerFuncName, fib, num(5)), "[8, 5; 5, 3]")

	if err := callErr(t, l, config.AddFuncName, a, mat([]float64{1, 2, 3})); err == nil ||
		!strings.Contains(err.Error(), "dimension mismatch") {
		t.Errorf("expected a dimension mismatch, got %v", err)
	}
	if err := callErr(t, l, config.MultiplyFuncName, mat([]float64{1, 2}), mat([]float64{1, 2})); err == nil {
		t.Error("expected an error multiplying 1x2 by 1x2")
	}
}

func TestLogicAndComparison(t *testing.T) {
	l := newTestLibrary(t)
	tests := []struct {
		name string
		fn   string
		args []value.Value
		want string
	}{
		{"and", config.AndFuncName, []value.Value{num(1), str("")}, "false"},
		{"or", config.OrFuncName, []value.Value{num(0), str("x")}, "true"},
		{"not undefined", config.NotFuncName, []value.Value{value.Undefined}, "true"},
		{"equal numbers", config.EqualFuncName, []value.Value{num(2), value.Complex(2)}, "true"},
		{"equal undefined", config.EqualFuncName, []value.Value{value.Undefined, value.Undefined}, "true"},
		{"unequal", config.UnequalFuncName, []value.Value{num(1), str("1")}, "true"},
		{"smaller", config.SmallerFuncName, []value.Value{num(1), num(2)}, "true"},
		{"smaller strings", config.SmallerFuncName, []value.Value{str("abc"), str("abd")}, "true"},
		{"larger mixed", config.LargerFuncName, []value.Value{num(10), str("9")}, "true"},
		{"NaN compares false", config.LargerEqFuncName, []value.Value{value.Undefined, num(1)}, "false"},
		{"element-wise", config.SmallerEqFuncName, []value.Value{mat([]float64{1, 2, 3}), num(2)}, "[1, 1, 0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := value.Inspect(call(t, l, tt.fn, tt.args...)); got != tt.want {
				t.Errorf("%s = %s, want %s", tt.fn, got, tt.want)
			}
		})
	}
}

func TestOperatorCurrying(t *testing.T) {
	l := newTestLibrary(t)
	partial := call(t, l, config.AddFuncName, num(1))
	fn, ok := partial.AsFunction()
	if !ok {
		t.Fatalf("expected a partial function, got %s", value.Inspect(partial))
	}
	res, err := fn.Invoke([]value.Value{num(2)})
	if err != nil {
		t.Fatal(err)
	}
	expectNumber(t, res, 3)
}

func TestMath(t *testing.T) {
	l := newTestLibrary(t)
	expectNumber(t, call(t, l, "abs", num(-3)), 3)
	expectNumber(t, call(t, l, "abs", value.Complex(3+4i)), 5)
	expectNumber(t, call(t, l, "sqrt", num(16)), 4)
	if got := value.Inspect(call(t, l, "sqrt", num(-4))); got != "2i" {
		t.Errorf("sqrt(-4) = %s, want 2i", got)
	}
	expectNumber(t, call(t, l, "exp", num(0)), 1)
	expectNumber(t, call(t, l, "log", num(math.E)), 1)
	expectMatrix(t, call(t, l, "floor", mat([]float64{1.5, -1.5})), "[1, -2]")
	expectNumber(t, call(t, l, "round", num(2.5)), 3)
	expectNumber(t, call(t, l, "re", value.Complex(1+2i)), 1)
	expectNumber(t, call(t, l, "im", value.Complex(1+2i)), 2)
	if got := value.Inspect(call(t, l, "conj", value.Complex(1+2i))); got != "1-2i" {
		t.Errorf("conj = %s", got)
	}

	expectNumber(t, call(t, l, "sum", mat([]float64{1, 2, 3}), num(4)), 10)
	expectNumber(t, call(t, l, "min", num(3), mat([]float64{1, 2})), 1)
	expectNumber(t, call(t, l, "max", num(3), mat([]float64{1, 7})), 7)
	if got := call(t, l, "max"); !got.IsUndefined() {
		t.Errorf("max() = %s, want undefined", value.Inspect(got))
	}

	expectMatrix(t, call(t, l, "size", mat([]float64{1, 2, 3}, []float64{4, 5, 6})), "[2, 3]")
	expectNumber(t, call(t, l, "length", mat([]float64{1, 2, 3}, []float64{4, 5, 6})), 3)
	expectNumber(t, call(t, l, "length", str("héllo")), 5)
	expectMatrix(t, call(t, l, "zeros", num(2), num(3)), "[0, 0, 0; 0, 0, 0]")
	expectMatrix(t, call(t, l, "ones", num(2)), "[1, 1; 1, 1]")
	expectMatrix(t, call(t, l, "eye", num(2)), "[1, 0; 0, 1]")

	expectNumber(t, call(t, l, "det", mat([]float64{1, 2}, []float64{3, 4})), -2)
	expectMatrix(t, call(t, l, "inv", mat([]float64{2, 0}, []float64{0, 4})), "[0.5, 0; 0, 0.25]")
	if err := callErr(t, l, "inv", mat([]float64{1, 2}, []float64{2, 4})); err == nil {
		t.Error("expected an error inverting a singular matrix")
	}
	if err := callErr(t, l, "zeros", num(-1), num(2)); err == nil {
		t.Error("expected an error for a negative size")
	}
}

func TestStringsAndMaps(t *testing.T) {
	l := newTestLibrary(t)
	if got := call(t, l, "upper", str("hello")); value.Display(got) != "HELLO" {
		t.Errorf("upper = %s", value.Inspect(got))
	}
	if got := call(t, l, "title", str("hello world")); value.Display(got) != "Hello World" {
		t.Errorf("title = %s", value.Inspect(got))
	}
	if got := call(t, l, "lower", num(1)); value.Display(got) != "1" {
		t.Errorf("lower(1) = %s", value.Inspect(got))
	}
	if got := call(t, l, "string", mat([]float64{1, 2})); value.Display(got) != "[1, 2]" {
		t.Errorf("string = %s", value.Inspect(got))
	}
	expectNumber(t, call(t, l, "number", str(" 42 ")), 42)

	parts := call(t, l, "split", str("a,b,c"), str(","))
	if got := value.Display(call(t, l, "join", parts, str("-"))); got != "a-b-c" {
		t.Errorf("join(split) = %s", got)
	}

	m := value.NewMap()
	m.Set("x", num(1))
	m.Set("y", num(2))
	mv := value.MapValue(m)
	if got := value.Inspect(call(t, l, "keys", mv)); got != `{0: "x", 1: "y"}` {
		t.Errorf("keys = %s", got)
	}
	if got := value.Inspect(call(t, l, "values", mv)); got != "{0: 1, 1: 2}" {
		t.Errorf("values = %s", got)
	}
	if got := call(t, l, "has", mv, str("x")); !value.ToBoolean(got) {
		t.Error("has(m, x) should be true")
	}
	if got := call(t, l, "remove", mv, str("x")); !value.ToBoolean(got) || m.Has("x") {
		t.Error("remove(m, x) should delete x")
	}
}

func TestCore(t *testing.T) {
	var out bytes.Buffer
	l := New(WithOutput(&out), WithLogger(logger.Discard()))
	defer l.Close()

	call(t, l, config.PrintFuncName, str("a"), num(1), mat([]float64{1, 2}))
	if got := out.String(); got != "a 1 [1, 2]\n" {
		t.Errorf("print wrote %q", got)
	}

	tests := map[string]value.Value{
		"number":        num(1),
		"complex":       value.Complex(1i),
		"string":        str(""),
		"boolean":       value.Bool(false),
		"matrix":        mat([]float64{1}),
		"map":           value.MapValue(value.NewMap()),
		"undefined":     value.Undefined,
		"complexMatrix": value.MatrixValue(value.ToMatrix(value.Complex(1i))),
	}
	for want, v := range tests {
		if got := value.Display(call(t, l, config.TypeOfFuncName, v)); got != want {
			t.Errorf("typeof(%s) = %s, want %s", value.Inspect(v), got, want)
		}
	}

	fn := value.NewNative("f", []string{"a", "rest"}, nil)
	fn.Variadic = true
	if got := value.Inspect(call(t, l, config.ParamsFuncName, value.FunctionValue(fn))); got != `{0: "a", 1: "...rest"}` {
		t.Errorf("params = %s", got)
	}

	id := value.Display(call(t, l, config.UUIDFuncName))
	if len(id) != 36 {
		t.Errorf("uuid() = %q", id)
	}
}

func TestFunctional(t *testing.T) {
	l := newTestLibrary(t)
	neg, _ := l.Native(config.NegateFuncName)
	expectMatrix(t, call(t, l, "map", value.FunctionValue(neg), mat([]float64{1, -2})), "[-1, 2]")

	m := value.NewMap()
	m.Set("a", num(1))
	got := call(t, l, "map", value.FunctionValue(neg), value.MapValue(m))
	if s := value.Inspect(got); s != "{a: -1}" {
		t.Errorf("map over map = %s", s)
	}

	add, _ := l.Native(config.AddFuncName)
	expectNumber(t, call(t, l, "apply", value.FunctionValue(add), mat([]float64{2, 3})), 5)

	if err := callErr(t, l, "map", num(1), num(2)); err == nil {
		t.Error("map with a non-function should fail")
	}
}

func TestFutures(t *testing.T) {
	l := newTestLibrary(t)

	fut := call(t, l, config.FutureFuncName)
	if !value.IsFuture(fut) {
		t.Fatalf("future() = %s", value.Inspect(fut))
	}
	if got := call(t, l, config.CompleteFuncName, fut, num(7)); !value.ToBoolean(got) {
		t.Error("first complete should succeed")
	}
	if got := call(t, l, config.CompleteFuncName, fut, num(8)); value.ToBoolean(got) {
		t.Error("second complete should be ignored")
	}
	res, msg := await(t, fut)
	expectNumber(t, res, 7)
	if msg != "" {
		t.Errorf("unexpected error %q", msg)
	}

	failed := call(t, l, config.FutureFuncName)
	call(t, l, config.FailFuncName, failed, str("boom"))
	if _, msg := await(t, failed); msg != "boom" {
		t.Errorf("fail message = %q", msg)
	}

	if err := callErr(t, l, config.CompleteFuncName, num(1), num(2)); err == nil {
		t.Error("complete on a non-future should fail")
	}
}

func TestDelayAndAsync(t *testing.T) {
	l := newTestLibrary(t)
	res, _ := await(t, call(t, l, config.DelayFuncName, num(5), str("late")))
	if value.Display(res) != "late" {
		t.Errorf("delay result = %s", value.Inspect(res))
	}

	add, _ := l.Native(config.AddFuncName)
	res, _ = await(t, call(t, l, config.AsyncFuncName, value.FunctionValue(add), num(2), num(3)))
	expectNumber(t, res, 5)

	// A function returning a future is chained
	delay, _ := l.Native(config.DelayFuncName)
	res, _ = await(t, call(t, l, config.AsyncFuncName, value.FunctionValue(delay), num(1), num(9)))
	expectNumber(t, res, 9)

	boom := value.NewNative("boom", nil, func([]value.Value) (value.Value, error) {
		return value.Undefined, io.ErrUnexpectedEOF
	})
	if _, msg := await(t, call(t, l, config.AsyncFuncName, value.FunctionValue(boom))); msg != io.ErrUnexpectedEOF.Error() {
		t.Errorf("async error = %q", msg)
	}
}

func TestYAML(t *testing.T) {
	l := newTestLibrary(t)
	src := "name: demo\nweights: [1, 2.5, 3]\ngrid:\n  - [1, 2]\n  - [3, 4]\ntags: [a, b]\nmissing: null\n"
	got := call(t, l, "yamlDecode", str(src))
	m, ok := got.AsMap()
	if !ok {
		t.Fatalf("yamlDecode = %s", value.Inspect(got))
	}
	if keys := strings.Join(m.Keys(), ","); keys != "name,weights,grid,tags,missing" {
		t.Errorf("key order = %s", keys)
	}
	if s := value.Inspect(value.GetProperty(got, "weights")); s != "[1, 2.5, 3]" {
		t.Errorf("weights = %s", s)
	}
	if s := value.Inspect(value.GetProperty(got, "grid")); s != "[1, 2; 3, 4]" {
		t.Errorf("grid = %s", s)
	}
	if s := value.Inspect(value.GetProperty(got, "tags")); s != `{0: "a", 1: "b"}` {
		t.Errorf("tags = %s", s)
	}
	if !value.GetProperty(got, "missing").IsUndefined() {
		t.Error("null should decode to undefined")
	}

	enc := value.Display(call(t, l, "yamlEncode", value.GetProperty(got, "weights")))
	back := call(t, l, "yamlDecode", str(enc))
	if !value.Equals(back, value.GetProperty(got, "weights")) {
		t.Errorf("round trip gave %s from %q", value.Inspect(back), enc)
	}

	if err := callErr(t, l, "yamlDecode", str("a: [1, 2")); err == nil {
		t.Error("expected a parse error")
	}
}

func TestSQL(t *testing.T) {
	l := newTestLibrary(t)
	path := filepath.Join(t.TempDir(), "test.db")
	db := call(t, l, "sqlOpen", str(path))

	if _, msg := await(t, call(t, l, "sqlExec", db, str("CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT, price REAL)"))); msg != "" {
		t.Fatalf("create table: %s", msg)
	}
	res, msg := await(t, call(t, l, "sqlExec", db, str("INSERT INTO items (name, price) VALUES (?, ?)"), str("pen"), num(1.5)))
	if msg != "" {
		t.Fatalf("insert: %s", msg)
	}
	expectNumber(t, value.GetProperty(res, "rowsAffected"), 1)
	await(t, call(t, l, "sqlExec", db, str("INSERT INTO items (name, price) VALUES (?, ?)"), str("ink"), num(4)))

	rows, msg := await(t, call(t, l, "sqlQuery", db, str("SELECT name, price FROM items WHERE price > ? ORDER BY id"), num(1)))
	if msg != "" {
		t.Fatalf("query: %s", msg)
	}
	if s := value.Inspect(rows); s != `{0: {name: "pen", price: 1.5}, 1: {name: "ink", price: 4}}` {
		t.Errorf("rows = %s", s)
	}

	if _, msg := await(t, call(t, l, "sqlQuery", db, str("SELECT * FROM nope"))); msg == "" {
		t.Error("expected an error for a missing table")
	}

	if got := call(t, l, "sqlClose", db); !value.ToBoolean(got) {
		t.Error("sqlClose should report true")
	}
	if err := callErr(t, l, "sqlExec", db, str("SELECT 1")); err == nil {
		t.Error("expected an error after close")
	}
}
