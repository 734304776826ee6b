package vm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/funvibe/numen/internal/value"
)

// Bundle is a compiled program in its persistent form
type Bundle struct {
	Main *CompiledFunction

	// SourceFile is the original source file path (for error messages)
	SourceFile string

	// SourceHash identifies the source the bundle was compiled from
	SourceHash string
}

// bundleMagic starts every serialized bundle: "NMNB"
var bundleMagic = []byte{0x4E, 0x4D, 0x4E, 0x42}

const bundleVersion byte = 0x01

var ErrInvalidBundle = errors.New("invalid bundle")

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("vm: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Wire structs. Native function constants are stored by name and resolved
// again when the bundle is loaded.

type wireBundle struct {
	Main       *wireFunction `cbor:"1,keyasint"`
	SourceFile string        `cbor:"2,keyasint,omitempty"`
	SourceHash string        `cbor:"3,keyasint,omitempty"`
}

type wireFunction struct {
	Name     string            `cbor:"1,keyasint,omitempty"`
	Params   []string          `cbor:"2,keyasint,omitempty"`
	Variadic bool              `cbor:"3,keyasint,omitempty"`
	File     string            `cbor:"4,keyasint,omitempty"`
	Code     []wireInstruction `cbor:"5,keyasint"`
}

type wireInstruction struct {
	Op     Opcode        `cbor:"1,keyasint"`
	Name   string        `cbor:"2,keyasint,omitempty"`
	N      int           `cbor:"3,keyasint,omitempty"`
	M      int           `cbor:"4,keyasint,omitempty"`
	Value  *wireValue    `cbor:"5,keyasint,omitempty"`
	Fn     *wireFunction `cbor:"6,keyasint,omitempty"`
	Prefix bool          `cbor:"7,keyasint,omitempty"`
	Target Target        `cbor:"8,keyasint,omitempty"`
	Line   int           `cbor:"9,keyasint,omitempty"`
}

type wireValue struct {
	Kind   value.Kind `cbor:"1,keyasint"`
	Num    float64    `cbor:"2,keyasint,omitempty"`
	Im     float64    `cbor:"3,keyasint,omitempty"`
	Str    string     `cbor:"4,keyasint,omitempty"`
	Native string     `cbor:"5,keyasint,omitempty"`
}

// Serialize encodes the bundle.
// Format:
// - Magic number (4 bytes): "NMNB"
// - Version (1 byte): 0x01
// - CBOR-encoded bundle data
func (b *Bundle) Serialize() ([]byte, error) {
	main, err := encodeFunction(b.Main)
	if err != nil {
		return nil, err
	}
	data, err := cborEncMode.Marshal(&wireBundle{Main: main, SourceFile: b.SourceFile, SourceHash: b.SourceHash})
	if err != nil {
		return nil, fmt.Errorf("bundle cbor encoding failed: %w", err)
	}

	buf := new(bytes.Buffer)
	buf.Write(bundleMagic)
	buf.WriteByte(bundleVersion)
	buf.Write(data)
	return buf.Bytes(), nil
}

// Deserialize decodes a bundle, resolving operator functions by name
func Deserialize(data []byte, natives Natives) (*Bundle, error) {
	if len(data) < len(bundleMagic)+1 {
		return nil, fmt.Errorf("%w: data too short", ErrInvalidBundle)
	}
	if !bytes.Equal(data[:len(bundleMagic)], bundleMagic) {
		return nil, fmt.Errorf("%w: bad magic number", ErrInvalidBundle)
	}
	if v := data[len(bundleMagic)]; v != bundleVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidBundle, v)
	}

	var wb wireBundle
	if err := cbor.Unmarshal(data[len(bundleMagic)+1:], &wb); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBundle, err)
	}
	if wb.Main == nil {
		return nil, fmt.Errorf("%w: no main function", ErrInvalidBundle)
	}
	main, err := decodeFunction(wb.Main, natives)
	if err != nil {
		return nil, err
	}
	return &Bundle{Main: main, SourceFile: wb.SourceFile, SourceHash: wb.SourceHash}, nil
}

func encodeFunction(fn *CompiledFunction) (*wireFunction, error) {
	if fn == nil {
		return nil, nil
	}
	wf := &wireFunction{
		Name:     fn.Name,
		Params:   fn.Params,
		Variadic: fn.Variadic,
		File:     fn.Chunk.File,
		Code:     make([]wireInstruction, len(fn.Chunk.Code)),
	}
	for i, ins := range fn.Chunk.Code {
		wi := wireInstruction{
			Op:     ins.Op,
			Name:   ins.Name,
			N:      ins.N,
			M:      ins.M,
			Prefix: ins.Prefix,
			Target: ins.Target,
			Line:   ins.Line,
		}
		if ins.Op == OP_CONST || ins.Op == OP_INCREMENT {
			wv, err := encodeValue(ins.Value)
			if err != nil {
				return nil, fmt.Errorf("%s at %04d: %w", fn.Name, i, err)
			}
			wi.Value = wv
		}
		if ins.Fn != nil {
			nested, err := encodeFunction(ins.Fn)
			if err != nil {
				return nil, err
			}
			wi.Fn = nested
		}
		wf.Code[i] = wi
	}
	return wf, nil
}

func encodeValue(v value.Value) (*wireValue, error) {
	wv := &wireValue{Kind: v.Kind()}
	switch v.Kind() {
	case value.KindUndefined:
	case value.KindNumber:
		wv.Num, _ = v.AsNumber()
	case value.KindBoolean:
		b, _ := v.AsBool()
		if b {
			wv.Num = 1
		}
	case value.KindComplex:
		z, _ := v.AsComplex()
		wv.Num, wv.Im = real(z), imag(z)
	case value.KindString:
		wv.Str, _ = v.AsString()
	case value.KindFunction:
		fn, _ := v.AsFunction()
		if fn.Origin != value.OriginNative {
			return nil, fmt.Errorf("cannot serialize compiled function constant %s", fn)
		}
		wv.Native = fn.Name
	default:
		return nil, fmt.Errorf("cannot serialize %s constant", v.Kind())
	}
	return wv, nil
}

func decodeFunction(wf *wireFunction, natives Natives) (*CompiledFunction, error) {
	chunk := &Chunk{Code: make([]Instruction, len(wf.Code)), File: wf.File}
	fn := &CompiledFunction{Name: wf.Name, Params: wf.Params, Variadic: wf.Variadic, Chunk: chunk}
	for i, wi := range wf.Code {
		if _, ok := OpcodeNames[wi.Op]; !ok {
			return nil, fmt.Errorf("%w: unknown opcode %d at %04d", ErrInvalidBundle, wi.Op, i)
		}
		if err := checkOperands(wi, len(wf.Code)); err != nil {
			return nil, fmt.Errorf("%w: %s at %04d: %v", ErrInvalidBundle, wi.Op, i, err)
		}
		ins := Instruction{
			Op:     wi.Op,
			Name:   wi.Name,
			N:      wi.N,
			M:      wi.M,
			Prefix: wi.Prefix,
			Target: wi.Target,
			Line:   wi.Line,
		}
		if wi.Value != nil {
			v, err := decodeValue(wi.Value, natives)
			if err != nil {
				return nil, err
			}
			ins.Value = v
		}
		if wi.Fn != nil {
			nested, err := decodeFunction(wi.Fn, natives)
			if err != nil {
				return nil, err
			}
			ins.Fn = nested
		}
		if ins.Op == OP_CLOSURE && ins.Fn == nil {
			return nil, fmt.Errorf("%w: closure without a function at %04d", ErrInvalidBundle, i)
		}
		chunk.Code[i] = ins
	}
	return fn, nil
}

// checkOperands rejects operands the loop would trip over: jumps leaving
// the chunk [0, size], negative counts and malformed ranges or targets.
// Matrix literals cannot be larger than the code that fills them.
func checkOperands(wi wireInstruction, size int) error {
	switch wi.Op {
	case OP_JUMP, OP_JUMP_IF_FALSE, OP_ITER_NEXT:
		if wi.N < 0 || wi.N > size {
			return fmt.Errorf("jump target %d outside the chunk", wi.N)
		}
	case OP_CALL, OP_GET_INDEX, OP_SET_INDEX, OP_PARAM, OP_REST:
		if wi.N < 0 {
			return fmt.Errorf("negative operand %d", wi.N)
		}
	case OP_RANGE:
		if wi.N != 2 && wi.N != 3 {
			return fmt.Errorf("range takes 2 or 3 operands, not %d", wi.N)
		}
	case OP_NEW_MATRIX:
		if wi.N < 0 || wi.M < 0 || wi.N > size || wi.M > size {
			return fmt.Errorf("bad matrix size %dx%d", wi.N, wi.M)
		}
	case OP_INIT_CELL:
		if wi.N < 0 || wi.M < 0 {
			return fmt.Errorf("bad cell (%d, %d)", wi.N, wi.M)
		}
	case OP_INCREMENT:
		if wi.Target > TargetIndex {
			return fmt.Errorf("unknown target %d", wi.Target)
		}
		if wi.N < 0 {
			return fmt.Errorf("negative operand %d", wi.N)
		}
	}
	return nil
}

func decodeValue(wv *wireValue, natives Natives) (value.Value, error) {
	switch wv.Kind {
	case value.KindUndefined:
		return value.Undefined, nil
	case value.KindNumber:
		return value.Number(wv.Num), nil
	case value.KindBoolean:
		return value.Bool(wv.Num != 0), nil
	case value.KindComplex:
		return value.Complex(complex(wv.Num, wv.Im)), nil
	case value.KindString:
		return value.String(wv.Str), nil
	case value.KindFunction:
		if natives != nil {
			if fn, ok := natives.Native(wv.Native); ok && fn != nil {
				return value.FunctionValue(fn), nil
			}
		}
		return value.Undefined, fmt.Errorf("%w: native function %q is not registered", ErrInvalidBundle, wv.Native)
	}
	return value.Undefined, fmt.Errorf("%w: unsupported constant kind %d", ErrInvalidBundle, wv.Kind)
}
