package vm

import (
	"fmt"
	"strings"

	"github.com/funvibe/numen/internal/value"
)

// Instruction is one immutable VM operation. Only the operand fields its
// opcode uses are set.
type Instruction struct {
	Op Opcode

	// Name is a variable, property or parameter name
	Name string

	// N is an operand count, jump target, argument index or row
	N int
	// M is a column (OP_NEW_MATRIX, OP_INIT_CELL)
	M int

	// Value is the embedded constant (OP_CONST) or the delta of OP_INCREMENT
	Value value.Value

	// Fn is the nested function of OP_CLOSURE
	Fn *CompiledFunction

	// Prefix selects the new value as the result of OP_INCREMENT
	Prefix bool
	Target Target

	Line int
}

func (ins Instruction) String() string {
	name := ins.Op.String()
	switch ins.Op {
	case OP_CONST:
		return name + " " + value.Inspect(ins.Value)
	case OP_LOAD, OP_STORE, OP_DECLARE, OP_INIT_PROPERTY:
		return name + " " + ins.Name
	case OP_PARAM, OP_REST:
		return fmt.Sprintf("%s %s #%d", name, ins.Name, ins.N)
	case OP_GET_INDEX, OP_SET_INDEX, OP_CALL, OP_RANGE, OP_JUMP, OP_JUMP_IF_FALSE:
		return fmt.Sprintf("%s %d", name, ins.N)
	case OP_NEW_MATRIX:
		return fmt.Sprintf("%s %dx%d", name, ins.N, ins.M)
	case OP_INIT_CELL:
		return fmt.Sprintf("%s (%d, %d)", name, ins.N, ins.M)
	case OP_ITER_NEXT:
		return fmt.Sprintf("%s %s -> %d", name, ins.Name, ins.N)
	case OP_CLOSURE:
		if ins.Fn == nil {
			return name
		}
		return name + " " + ins.Fn.Signature()
	case OP_INCREMENT:
		form := "post"
		if ins.Prefix {
			form = "pre"
		}
		target := ins.Name
		switch ins.Target {
		case TargetMember:
			target = "<member>"
		case TargetIndex:
			target = fmt.Sprintf("<index %d>", ins.N)
		}
		return fmt.Sprintf("%s %s %s %s", name, target, value.Inspect(ins.Value), form)
	}
	return name
}

// Chunk is a compiled operation sequence
type Chunk struct {
	Code []Instruction

	// File is the source file name
	File string
}

// NewChunk creates a new empty chunk
func NewChunk() *Chunk {
	return &Chunk{Code: make([]Instruction, 0, 64)}
}

// Write appends an instruction and returns its offset
func (c *Chunk) Write(ins Instruction) int {
	c.Code = append(c.Code, ins)
	return len(c.Code) - 1
}

// Len returns the number of instructions in the chunk
func (c *Chunk) Len() int {
	return len(c.Code)
}

// CompiledFunction is a function body or a top-level program compiled to
// instructions
type CompiledFunction struct {
	Name     string
	Params   []string
	Variadic bool
	Chunk    *Chunk
}

// Signature renders name(params) for listings
func (f *CompiledFunction) Signature() string {
	params := append([]string(nil), f.Params...)
	if f.Variadic && len(params) > 0 {
		params[len(params)-1] = "..." + params[len(params)-1]
	}
	name := f.Name
	if name == "" {
		name = "<lambda>"
	}
	return name + "(" + strings.Join(params, ", ") + ")"
}
