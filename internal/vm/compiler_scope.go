package vm

import (
	"fmt"

	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/value"
)

// currentChunk returns the chunk being compiled
func (c *Compiler) currentChunk() *Chunk {
	return c.function.Chunk
}

// emit helpers

func (c *Compiler) emit(op Opcode, line int) int {
	return c.currentChunk().Write(Instruction{Op: op, Line: line})
}

func (c *Compiler) emitName(op Opcode, name string, line int) int {
	return c.currentChunk().Write(Instruction{Op: op, Name: name, Line: line})
}

func (c *Compiler) emitN(op Opcode, n int, line int) int {
	return c.currentChunk().Write(Instruction{Op: op, N: n, Line: line})
}

func (c *Compiler) emitConstant(v value.Value, line int) int {
	return c.currentChunk().Write(Instruction{Op: OP_CONST, Value: v, Line: line})
}

// emitNative pushes the native function implementing an operator
func (c *Compiler) emitNative(node ast.Node, op string, table map[string]string, line int) error {
	name, ok := table[op]
	if !ok {
		// The parser only produces operators present in the tables
		panic(fmt.Sprintf("vm: no native mapped for operator %q", op))
	}
	var fn *value.Function
	if c.natives != nil {
		fn, ok = c.natives.Native(name)
	}
	if !ok || fn == nil {
		return c.errorAt(diagnostics.ErrC001, node, "operator %s: native function %s is not registered", op, name)
	}
	c.emitConstant(value.FunctionValue(fn), line)
	return nil
}

// emitJump emits a forward jump with a placeholder target
func (c *Compiler) emitJump(op Opcode, line int) int {
	return c.emitN(op, -1, line)
}

// patchJump points the jump at offset to the next instruction
func (c *Compiler) patchJump(offset int) {
	c.currentChunk().Code[offset].N = c.currentChunk().Len()
}

// emitLoop emits a backward jump to loopStart
func (c *Compiler) emitLoop(loopStart int, line int) {
	c.emitN(OP_JUMP, loopStart, line)
}

func (c *Compiler) pushLoop(start int) {
	c.loopStack = append(c.loopStack, LoopContext{loopStart: start})
}

// popLoop patches the innermost loop's breaks to the next instruction
func (c *Compiler) popLoop() {
	loopCtx := c.loopStack[len(c.loopStack)-1]
	for _, breakJump := range loopCtx.breakJumps {
		c.patchJump(breakJump)
	}
	c.loopStack = c.loopStack[:len(c.loopStack)-1]
}

// withTarget compiles fn with the assignment flags set, restoring them after
func (c *Compiler) withTarget(declaring bool, fn func() error) error {
	oldAssigning, oldDeclaring := c.assigning, c.declaring
	c.assigning, c.declaring = true, declaring
	err := fn()
	c.assigning, c.declaring = oldAssigning, oldDeclaring
	return err
}

// asValue compiles expr as a read, whatever the surrounding flags
func (c *Compiler) asValue(expr ast.Expression) error {
	oldAssigning, oldDeclaring := c.assigning, c.declaring
	c.assigning, c.declaring = false, false
	err := c.compileExpression(expr)
	c.assigning, c.declaring = oldAssigning, oldDeclaring
	return err
}
