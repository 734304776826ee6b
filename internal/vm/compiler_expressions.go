package vm

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/value"
)

func (c *Compiler) compileExpression(expr ast.Expression) error {
	switch e := expr.(type) {
	case *ast.NumberLiteral:
		c.emitConstant(value.Number(e.Value), e.Token.Line)
		return nil

	case *ast.ImaginaryLiteral:
		c.emitConstant(value.Complex(complex(0, e.Value)), e.Token.Line)
		return nil

	case *ast.StringLiteral:
		c.emitConstant(value.String(e.Value), e.Token.Line)
		return nil

	case *ast.BooleanLiteral:
		c.emitConstant(value.Bool(e.Value), e.Token.Line)
		return nil

	case *ast.UndefinedLiteral:
		c.emitConstant(value.Undefined, e.Token.Line)
		return nil

	case *ast.Identifier:
		return c.compileIdentifier(e)

	case *ast.PrefixExpression:
		return c.compileUnary(e, e.Operator, e.Right, e.Token.Line)

	case *ast.PostfixExpression:
		return c.compileUnary(e, e.Operator, e.Left, e.Token.Line)

	case *ast.InfixExpression:
		return c.compileInfixExpression(e)

	case *ast.ConditionalExpression:
		return c.compileConditionalExpression(e)

	case *ast.RangeExpression:
		return c.compileRangeExpression(e)

	case *ast.MatrixLiteral:
		return c.compileMatrixLiteral(e)

	case *ast.MapLiteral:
		return c.compileMapLiteral(e)

	case *ast.MemberExpression:
		return c.compileMemberExpression(e)

	case *ast.IndexExpression:
		return c.compileIndexExpression(e)

	case *ast.CallExpression:
		return c.compileCallExpression(e)

	case *ast.AssignExpression:
		return c.compileAssignExpression(e)

	case *ast.UpdateExpression:
		return c.compileUpdateExpression(e)

	case *ast.FunctionLiteral:
		return c.compileFunctionLiteral(e)

	case *ast.AwaitExpression:
		if err := c.asValue(e.Value); err != nil {
			return err
		}
		c.emit(OP_AWAIT, e.Token.Line)
		return nil

	case nil:
		return c.errorAt(diagnostics.ErrC001, nil, "missing expression")

	default:
		return c.errorAt(diagnostics.ErrC001, expr, "unsupported expression %T", expr)
	}
}

// compileIdentifier emits a read, or the store selected by the
// assignment flags
func (c *Compiler) compileIdentifier(id *ast.Identifier) error {
	switch {
	case !c.assigning:
		c.emitName(OP_LOAD, id.Value, id.Token.Line)
	case c.declaring:
		c.emitName(OP_DECLARE, id.Value, id.Token.Line)
	default:
		c.emitName(OP_STORE, id.Value, id.Token.Line)
	}
	return nil
}

// compileUnary compiles prefix operators and the postfix transpose:
// operand, native, CALL 1
func (c *Compiler) compileUnary(node ast.Expression, op string, operand ast.Expression, line int) error {
	if err := c.asValue(operand); err != nil {
		return err
	}
	if err := c.emitNative(node, op, config.UnaryOperators, line); err != nil {
		return err
	}
	c.emitN(OP_CALL, 1, line)
	return nil
}

// compileInfixExpression emits the right operand before the left one.
// The native still receives (left, right).
func (c *Compiler) compileInfixExpression(e *ast.InfixExpression) error {
	line := e.Token.Line
	if err := c.asValue(e.Right); err != nil {
		return err
	}
	if err := c.asValue(e.Left); err != nil {
		return err
	}
	if err := c.emitNative(e, e.Operator, config.BinaryOperators, line); err != nil {
		return err
	}
	c.emitN(OP_CALL, 2, line)
	return nil
}

// compileConditionalExpression evaluates both branches, then the
// condition, and selects
func (c *Compiler) compileConditionalExpression(e *ast.ConditionalExpression) error {
	if err := c.asValue(e.Secondary); err != nil {
		return err
	}
	if err := c.asValue(e.Primary); err != nil {
		return err
	}
	if err := c.asValue(e.Condition); err != nil {
		return err
	}
	c.emit(OP_SELECT, e.Token.Line)
	return nil
}

func (c *Compiler) compileRangeExpression(e *ast.RangeExpression) error {
	n := 2
	if err := c.asValue(e.From); err != nil {
		return err
	}
	if err := c.asValue(e.To); err != nil {
		return err
	}
	if e.Step != nil {
		if err := c.asValue(e.Step); err != nil {
			return err
		}
		n = 3
	}
	c.emitN(OP_RANGE, n, e.Token.Line)
	return nil
}

func (c *Compiler) compileMatrixLiteral(e *ast.MatrixLiteral) error {
	line := e.Token.Line
	cols := 0
	if len(e.Rows) > 0 {
		cols = len(e.Rows[0])
	}
	c.currentChunk().Write(Instruction{Op: OP_NEW_MATRIX, N: len(e.Rows), M: cols, Line: line})
	for r, row := range e.Rows {
		for col, el := range row {
			if err := c.asValue(el); err != nil {
				return err
			}
			c.currentChunk().Write(Instruction{Op: OP_INIT_CELL, N: r, M: col, Line: line})
		}
	}
	return nil
}

func (c *Compiler) compileMapLiteral(e *ast.MapLiteral) error {
	c.emit(OP_NEW_OBJECT, e.Token.Line)
	for i, key := range e.Keys {
		if err := c.asValue(e.Values[i]); err != nil {
			return err
		}
		c.emitName(OP_INIT_PROPERTY, key, e.Token.Line)
	}
	return nil
}

// compileMemberExpression emits the name before the object
func (c *Compiler) compileMemberExpression(e *ast.MemberExpression) error {
	line := e.Token.Line
	c.emitConstant(value.String(e.Property), line)
	if err := c.asValue(e.Object); err != nil {
		return err
	}
	if c.assigning {
		c.emit(OP_SET_MEMBER, line)
	} else {
		c.emit(OP_GET_MEMBER, line)
	}
	return nil
}

// compileIndices emits index expressions last to first
func (c *Compiler) compileIndices(indices []ast.Expression) error {
	for i := len(indices) - 1; i >= 0; i-- {
		if err := c.asValue(indices[i]); err != nil {
			return err
		}
	}
	return nil
}

func (c *Compiler) compileIndexExpression(e *ast.IndexExpression) error {
	line := e.Token.Line
	if err := c.compileIndices(e.Indices); err != nil {
		return err
	}
	if err := c.asValue(e.Object); err != nil {
		return err
	}
	if c.assigning {
		c.emitN(OP_SET_INDEX, len(e.Indices), line)
	} else {
		c.emitN(OP_GET_INDEX, len(e.Indices), line)
	}
	return nil
}

// compileCallExpression emits arguments last to first, then the callee
func (c *Compiler) compileCallExpression(e *ast.CallExpression) error {
	for i := len(e.Arguments) - 1; i >= 0; i-- {
		if err := c.asValue(e.Arguments[i]); err != nil {
			return err
		}
	}
	if err := c.asValue(e.Function); err != nil {
		return err
	}
	c.emitN(OP_CALL, len(e.Arguments), e.Token.Line)
	return nil
}

// compileAssignExpression emits the value, then the target with the
// store instruction for its kind
func (c *Compiler) compileAssignExpression(e *ast.AssignExpression) error {
	if err := c.asValue(e.Value); err != nil {
		return err
	}
	switch e.Target.(type) {
	case *ast.Identifier, *ast.MemberExpression, *ast.IndexExpression:
	default:
		return c.errorAt(diagnostics.ErrC001, e, "invalid assignment target %s", e.Target.TokenLiteral())
	}
	return c.withTarget(false, func() error {
		return c.compileExpression(e.Target)
	})
}

// compileUpdateExpression reads the target, emits its write operands and
// lets OP_INCREMENT do the store
func (c *Compiler) compileUpdateExpression(e *ast.UpdateExpression) error {
	line := e.Token.Line
	delta := 1.0
	if e.Operator == "--" {
		delta = -1
	}
	ins := Instruction{Op: OP_INCREMENT, Value: value.Number(delta), Prefix: e.Prefix, Line: line}

	if err := c.asValue(e.Target); err != nil {
		return err
	}
	switch t := e.Target.(type) {
	case *ast.Identifier:
		ins.Target = TargetName
		ins.Name = t.Value
	case *ast.MemberExpression:
		ins.Target = TargetMember
		c.emitConstant(value.String(t.Property), line)
		if err := c.asValue(t.Object); err != nil {
			return err
		}
	case *ast.IndexExpression:
		ins.Target = TargetIndex
		ins.N = len(t.Indices)
		if err := c.compileIndices(t.Indices); err != nil {
			return err
		}
		if err := c.asValue(t.Object); err != nil {
			return err
		}
	default:
		return c.errorAt(diagnostics.ErrC001, e, "invalid %s target %s", e.Operator, e.Target.TokenLiteral())
	}
	c.currentChunk().Write(ins)
	return nil
}

// compileFunctionLiteral compiles the body with a nested compiler and
// wraps it in OP_CLOSURE
func (c *Compiler) compileFunctionLiteral(lit *ast.FunctionLiteral) error {
	fc := newFunctionCompiler(c, lit.Name)
	fn := fc.function
	line := lit.Token.Line

	for i, param := range lit.Parameters {
		fn.Params = append(fn.Params, param.Value)
		op := OP_PARAM
		if lit.Variadic && i == len(lit.Parameters)-1 {
			op = OP_REST
			fn.Variadic = true
		}
		fc.currentChunk().Write(Instruction{Op: op, Name: param.Value, N: i, Line: param.Token.Line})
	}

	if lit.Body != nil {
		if err := fc.compileUnit(lit.Body.Statements, true); err != nil {
			return err
		}
	}
	fc.emit(OP_RETURN, line)

	c.currentChunk().Write(Instruction{Op: OP_CLOSURE, Fn: fn, Line: line})
	return nil
}
