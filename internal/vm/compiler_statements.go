package vm

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/value"
)

// compileStatement compiles a statement. With keep set the statement
// leaves exactly one value on the stack, otherwise none.
func (c *Compiler) compileStatement(stmt ast.Statement, keep bool) error {
	switch s := stmt.(type) {
	case *ast.ExpressionStatement:
		if err := c.asValue(s.Expression); err != nil {
			return err
		}
		c.popUnlessKept(keep, s.Token.Line)
		return nil

	case *ast.LetStatement:
		return c.compileLetStatement(s, keep)

	case *ast.FunctionStatement:
		return c.compileFunctionStatement(s, keep)

	case *ast.ReturnStatement:
		return c.compileReturnStatement(s)

	case *ast.BlockStatement:
		return c.compileBlockStatement(s, keep)

	case *ast.IfStatement:
		return c.compileIfStatement(s, keep)

	case *ast.WhileStatement:
		return c.compileWhileStatement(s, keep)

	case *ast.ForStatement:
		return c.compileForStatement(s, keep)

	case *ast.BreakStatement:
		return c.compileBreakStatement(s)

	case *ast.ContinueStatement:
		return c.compileContinueStatement(s)

	default:
		return c.errorAt(diagnostics.ErrC001, stmt, "unsupported statement %T", stmt)
	}
}

func (c *Compiler) popUnlessKept(keep bool, line int) {
	if !keep {
		c.emit(OP_POP, line)
	}
}

// compileLetStatement binds a fresh name in the innermost scope
func (c *Compiler) compileLetStatement(stmt *ast.LetStatement, keep bool) error {
	line := stmt.Token.Line
	if stmt.Value != nil {
		if err := c.asValue(stmt.Value); err != nil {
			return err
		}
	} else {
		c.emitConstant(value.Undefined, line)
	}
	if err := c.withTarget(true, func() error {
		return c.compileIdentifier(stmt.Name)
	}); err != nil {
		return err
	}
	c.popUnlessKept(keep, line)
	return nil
}

// compileFunctionStatement declares the function under its name
func (c *Compiler) compileFunctionStatement(stmt *ast.FunctionStatement, keep bool) error {
	if err := c.compileFunctionLiteral(stmt.Function); err != nil {
		return err
	}
	if err := c.withTarget(true, func() error {
		return c.compileIdentifier(stmt.Name)
	}); err != nil {
		return err
	}
	c.popUnlessKept(keep, stmt.Token.Line)
	return nil
}

// compileReturnStatement halts the unit with the value on top
func (c *Compiler) compileReturnStatement(stmt *ast.ReturnStatement) error {
	line := stmt.Token.Line
	if stmt.Value != nil {
		if err := c.asValue(stmt.Value); err != nil {
			return err
		}
	} else {
		c.emitConstant(value.Undefined, line)
	}
	c.emit(OP_RETURN, line)
	return nil
}

// compileBlockStatement compiles a block in the enclosing scope
func (c *Compiler) compileBlockStatement(block *ast.BlockStatement, keep bool) error {
	if block == nil || len(block.Statements) == 0 {
		if keep {
			line := 0
			if block != nil {
				line = block.Token.Line
			}
			c.emitConstant(value.Undefined, line)
		}
		return nil
	}
	return c.compileUnit(block.Statements, keep)
}

// compileIfStatement lays out cond, JUMP_IF_FALSE else, then, JUMP end, else
func (c *Compiler) compileIfStatement(stmt *ast.IfStatement, keep bool) error {
	line := stmt.Token.Line
	if err := c.asValue(stmt.Condition); err != nil {
		return err
	}
	elseJump := c.emitJump(OP_JUMP_IF_FALSE, line)

	if err := c.compileBlockStatement(stmt.Consequence, keep); err != nil {
		return err
	}
	endJump := c.emitJump(OP_JUMP, line)

	c.patchJump(elseJump)
	if stmt.Alternative != nil {
		if err := c.compileStatement(stmt.Alternative, keep); err != nil {
			return err
		}
	} else if keep {
		c.emitConstant(value.Undefined, line)
	}
	c.patchJump(endJump)
	return nil
}
