package vm

import (
	"errors"
	"testing"

	"github.com/funvibe/numen/internal/value"
)

func TestBundleRoundTrip(t *testing.T) {
	env := newEnv(t)
	src := `
f = (a, ...rest) => a + 2i
A = [1, 2; 3, 4]
m = {k: "v", t: true, u: undefined}
n = 0
for x in 1..3 { n++ }
[re(f(1)), n, A(2, 2)] + -1`
	fn := compileSource(t, env.lib, src)

	data, err := (&Bundle{Main: fn, SourceFile: "test.nm", SourceHash: "abc"}).Serialize()
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	b, err := Deserialize(data, env.lib)
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if b.SourceFile != "test.nm" || b.SourceHash != "abc" {
		t.Errorf("metadata = %q, %q", b.SourceFile, b.SourceHash)
	}
	if Disassemble(b.Main) != Disassemble(fn) {
		t.Errorf("listing changed:\n%s\nvs\n%s", Disassemble(b.Main), Disassemble(fn))
	}

	want := value.Inspect(env.run(t, src))
	got, _, err := env.vm.Run(b.Main, NewScope(env.scope))
	if err != nil {
		t.Fatal(err)
	}
	if value.Inspect(got) != want || want != "[0, 2, 3]" {
		t.Errorf("got %s, want %s", value.Inspect(got), want)
	}
}

func TestBundleRejectsBadInput(t *testing.T) {
	env := newEnv(t)
	good, err := (&Bundle{Main: compileSource(t, env.lib, "1 + 1")}).Serialize()
	if err != nil {
		t.Fatal(err)
	}

	badVersion := append([]byte(nil), good...)
	badVersion[len(bundleMagic)] = 0x7F

	tests := []struct {
		name    string
		data    []byte
		natives Natives
	}{
		{"empty", nil, env.lib},
		{"bad magic", append([]byte("XXXX"), good[4:]...), env.lib},
		{"bad version", badVersion, env.lib},
		{"truncated payload", good[:len(good)-3], env.lib},
		{"unknown native", good, NativeMap{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Deserialize(tt.data, tt.natives); !errors.Is(err, ErrInvalidBundle) {
				t.Errorf("got %v, want ErrInvalidBundle", err)
			}
		})
	}
}

func TestBundleRejectsCompiledConstants(t *testing.T) {
	env := newEnv(t)
	fn := &CompiledFunction{Name: "<script>", Chunk: NewChunk()}
	closure := env.run(t, "x => x")
	fn.Chunk.Write(Instruction{Op: OP_CONST, Value: closure, Line: 1})
	if _, err := (&Bundle{Main: fn}).Serialize(); err == nil {
		t.Error("serialized a compiled function constant")
	}
}

func TestBundleRejectsBadOperands(t *testing.T) {
	one := Instruction{Op: OP_CONST, Value: value.Number(1), Line: 1}
	tests := []struct {
		name string
		ins  Instruction
	}{
		{"jump before start", Instruction{Op: OP_JUMP, N: -3}},
		{"jump past end", Instruction{Op: OP_JUMP_IF_FALSE, N: 9}},
		{"loop exit past end", Instruction{Op: OP_ITER_NEXT, Name: "x", N: 7}},
		{"negative call arity", Instruction{Op: OP_CALL, N: -1}},
		{"negative index count", Instruction{Op: OP_GET_INDEX, N: -2}},
		{"negative store index count", Instruction{Op: OP_SET_INDEX, N: -2}},
		{"negative param", Instruction{Op: OP_PARAM, Name: "a", N: -1}},
		{"negative rest", Instruction{Op: OP_REST, Name: "r", N: -1}},
		{"one-operand range", Instruction{Op: OP_RANGE, N: 1}},
		{"negative matrix", Instruction{Op: OP_NEW_MATRIX, N: -1, M: 2}},
		{"oversized matrix", Instruction{Op: OP_NEW_MATRIX, N: 1 << 20, M: 1 << 20}},
		{"negative cell", Instruction{Op: OP_INIT_CELL, N: 0, M: -1}},
		{"unknown increment target", Instruction{Op: OP_INCREMENT, Value: value.Number(1), Target: Target(9)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fn := &CompiledFunction{Name: "<script>", Chunk: NewChunk()}
			fn.Chunk.Write(one)
			fn.Chunk.Write(tt.ins)
			data, err := (&Bundle{Main: fn}).Serialize()
			if err != nil {
				t.Fatalf("serialize: %v", err)
			}
			if _, err := Deserialize(data, NativeMap{}); !errors.Is(err, ErrInvalidBundle) {
				t.Errorf("got %v, want ErrInvalidBundle", err)
			}
		})
	}

	t.Run("nested function", func(t *testing.T) {
		inner := &CompiledFunction{Name: "f", Chunk: NewChunk()}
		inner.Chunk.Write(Instruction{Op: OP_JUMP, N: -1})
		fn := &CompiledFunction{Name: "<script>", Chunk: NewChunk()}
		fn.Chunk.Write(Instruction{Op: OP_CLOSURE, Fn: inner})
		data, err := (&Bundle{Main: fn}).Serialize()
		if err != nil {
			t.Fatalf("serialize: %v", err)
		}
		if _, err := Deserialize(data, NativeMap{}); !errors.Is(err, ErrInvalidBundle) {
			t.Errorf("got %v, want ErrInvalidBundle", err)
		}
	})
}

func TestBundleAcceptsJumpToEnd(t *testing.T) {
	fn := &CompiledFunction{Name: "<script>", Chunk: NewChunk()}
	fn.Chunk.Write(Instruction{Op: OP_JUMP, N: 2})
	fn.Chunk.Write(Instruction{Op: OP_CONST, Value: value.Number(1)})
	data, err := (&Bundle{Main: fn}).Serialize()
	if err != nil {
		t.Fatal(err)
	}
	b, err := Deserialize(data, NativeMap{})
	if err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if got, _, err := New().Run(b.Main, nil); err != nil || !got.IsUndefined() {
		t.Errorf("got %s, %v", value.Inspect(got), err)
	}
}
