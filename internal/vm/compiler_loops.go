package vm

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/value"
)

// Loop bodies never leave values on the stack, so break and continue are
// plain jumps. A kept loop evaluates to undefined.

// compileWhileStatement compiles: while cond { body }
func (c *Compiler) compileWhileStatement(stmt *ast.WhileStatement, keep bool) error {
	line := stmt.Token.Line

	loopStart := c.currentChunk().Len()
	c.pushLoop(loopStart)

	if err := c.asValue(stmt.Condition); err != nil {
		return err
	}
	exitJump := c.emitJump(OP_JUMP_IF_FALSE, line)

	if err := c.compileBlockStatement(stmt.Body, false); err != nil {
		return err
	}
	c.emitLoop(loopStart, line)

	c.patchJump(exitJump)
	c.popLoop()

	if keep {
		c.emitConstant(value.Undefined, line)
	}
	return nil
}

// compileForStatement compiles: for item in iterable { body }
//
//	iterable; ITER
//	loop: ITER_NEXT item -> exit
//	body; JUMP loop
//	exit: ITER_END
func (c *Compiler) compileForStatement(stmt *ast.ForStatement, keep bool) error {
	line := stmt.Token.Line

	if err := c.asValue(stmt.Iterable); err != nil {
		return err
	}
	c.emit(OP_ITER, line)

	loopStart := c.currentChunk().Len()
	c.pushLoop(loopStart)
	next := c.currentChunk().Write(Instruction{Op: OP_ITER_NEXT, Name: stmt.Variable.Value, N: -1, Line: line})

	if err := c.compileBlockStatement(stmt.Body, false); err != nil {
		return err
	}
	c.emitLoop(loopStart, line)

	c.patchJump(next)
	c.popLoop()
	c.emit(OP_ITER_END, line)

	if keep {
		c.emitConstant(value.Undefined, line)
	}
	return nil
}

// compileBreakStatement jumps past the innermost loop
func (c *Compiler) compileBreakStatement(stmt *ast.BreakStatement) error {
	if len(c.loopStack) == 0 {
		return c.errorAt(diagnostics.ErrC002, stmt, "break outside of loop")
	}
	loopCtx := &c.loopStack[len(c.loopStack)-1]
	jump := c.emitJump(OP_JUMP, stmt.Token.Line)
	loopCtx.breakJumps = append(loopCtx.breakJumps, jump)
	return nil
}

// compileContinueStatement jumps back to the loop head
func (c *Compiler) compileContinueStatement(stmt *ast.ContinueStatement) error {
	if len(c.loopStack) == 0 {
		return c.errorAt(diagnostics.ErrC002, stmt, "continue outside of loop")
	}
	c.emitLoop(c.loopStack[len(c.loopStack)-1].loopStart, stmt.Token.Line)
	return nil
}
