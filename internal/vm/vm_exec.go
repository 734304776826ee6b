package vm

import (
	"fmt"

	"github.com/funvibe/numen/internal/value"
)

// execute runs a single instruction. Jumps and OP_RETURN rewrite pc;
// every other instruction falls through to the next one.
func (c *Context) execute(ins *Instruction) error {
	switch ins.Op {
	case OP_CONST:
		c.push(ins.Value)

	case OP_POP:
		c.pop()

	case OP_LOAD:
		v, _ := c.scope.Lookup(ins.Name)
		c.push(v)

	case OP_STORE:
		c.scope.Assign(ins.Name, c.peek())

	case OP_DECLARE:
		c.scope.Declare(ins.Name, c.peek())

	case OP_GET_MEMBER:
		obj := c.pop()
		name := c.pop()
		c.push(value.GetProperty(obj, value.ToString(name)))

	case OP_SET_MEMBER:
		obj := c.pop()
		name := value.ToString(c.pop())
		v := c.peek()
		if !value.SetProperty(obj, name, v) {
			return fmt.Errorf("cannot set property %s of %s", name, obj.Kind())
		}

	case OP_GET_INDEX:
		obj := c.pop()
		indices := c.popN(ins.N)
		c.push(indexGet(obj, indices))

	case OP_SET_INDEX:
		obj := c.pop()
		indices := c.popN(ins.N)
		if err := indexSet(obj, indices, c.peek()); err != nil {
			return err
		}

	case OP_NEW_MATRIX:
		c.push(value.MatrixValue(value.NewMatrix(ins.N, ins.M)))

	case OP_INIT_CELL:
		return c.initCell(ins)

	case OP_NEW_OBJECT:
		c.push(value.MapValue(value.NewMap()))

	case OP_INIT_PROPERTY:
		v := c.pop()
		m, ok := c.peek().AsMap()
		if !ok {
			return fmt.Errorf("%s: accumulator is not a map", ins.Op)
		}
		m.Set(ins.Name, v)

	case OP_RANGE:
		operands := c.popN(ins.N)
		// popped right to left: [to, from] or [step, to, from]
		step := value.Number(1)
		if ins.N == 3 {
			step = operands[0]
			operands = operands[1:]
		}
		r, err := makeRange(value.ToNumber(operands[1]), value.ToNumber(operands[0]), value.ToNumber(step))
		if err != nil {
			return err
		}
		c.push(value.MatrixValue(r))

	case OP_CALL:
		callee := c.pop()
		args := c.popN(ins.N)
		res, err := c.vm.call(callee, args)
		if err != nil {
			return err
		}
		c.push(res)

	case OP_SELECT:
		cond := c.pop()
		primary := c.pop()
		secondary := c.pop()
		if value.ToBoolean(cond) {
			c.push(primary)
		} else {
			c.push(secondary)
		}

	case OP_INCREMENT:
		return c.increment(ins)

	case OP_AWAIT:
		return c.await()

	case OP_CLOSURE:
		c.push(value.FunctionValue(c.vm.makeClosure(ins.Fn, c.scope)))

	case OP_PARAM:
		c.scope.Declare(ins.Name, c.arg(ins.N))

	case OP_REST:
		rest := value.NewMap()
		for i := ins.N; i < len(c.args); i++ {
			rest.Set(fmt.Sprint(i-ins.N), c.args[i])
		}
		c.scope.Declare(ins.Name, value.MapValue(rest))

	case OP_RETURN:
		c.pc = halted

	case OP_JUMP:
		c.pc = ins.N

	case OP_JUMP_IF_FALSE:
		if !value.ToBoolean(c.pop()) {
			c.pc = ins.N
		}

	case OP_ITER:
		c.iters = append(c.iters, newIterator(c.pop()))

	case OP_ITER_NEXT:
		if len(c.iters) == 0 {
			return fmt.Errorf("%s without an iterator", ins.Op)
		}
		v, ok := c.iters[len(c.iters)-1].next()
		if !ok {
			c.pc = ins.N
			return nil
		}
		c.scope.Declare(ins.Name, v)

	case OP_ITER_END:
		if len(c.iters) > 0 {
			c.iters = c.iters[:len(c.iters)-1]
		}

	default:
		return fmt.Errorf("unknown opcode %d", ins.Op)
	}
	return nil
}

// initCell stores the popped element into the matrix accumulator. A lone
// matrix element of a 1x1 literal stands for itself.
func (c *Context) initCell(ins *Instruction) error {
	v := c.pop()
	m, ok := c.peek().AsMatrix()
	if !ok {
		return fmt.Errorf("%s: accumulator is not a matrix", ins.Op)
	}
	if !m.InBounds(ins.N, ins.M) {
		return fmt.Errorf("matrix element (%d, %d) outside %dx%d literal", ins.N+1, ins.M+1, m.Rows, m.Cols)
	}
	if inner, ok := v.AsMatrix(); ok {
		if m.Rows == 1 && m.Cols == 1 {
			c.stack[len(c.stack)-1] = value.MatrixValue(inner.Clone())
			return nil
		}
		z, ok := inner.Scalar()
		if !ok {
			return fmt.Errorf("matrix element (%d, %d) must be a scalar, got a %dx%d matrix", ins.N+1, ins.M+1, inner.Rows, inner.Cols)
		}
		m.Set(ins.N, ins.M, z)
		return nil
	}
	m.Set(ins.N, ins.M, value.ToComplex(v))
	return nil
}

// increment implements ++ and --: it pops the old value and the target's
// write operands, stores old+delta and pushes the old or the new value
func (c *Context) increment(ins *Instruction) error {
	delta := value.ToNumber(ins.Value)
	var old, updated value.Value

	switch ins.Target {
	case TargetName:
		old = c.pop()
		updated = addDelta(old, delta)
		c.scope.Assign(ins.Name, updated)

	case TargetMember:
		obj := c.pop()
		name := value.ToString(c.pop())
		old = c.pop()
		updated = addDelta(old, delta)
		if !value.SetProperty(obj, name, updated) {
			return fmt.Errorf("cannot set property %s of %s", name, obj.Kind())
		}

	case TargetIndex:
		obj := c.pop()
		indices := c.popN(ins.N)
		old = c.pop()
		updated = addDelta(old, delta)
		if err := indexSet(obj, indices, updated); err != nil {
			return err
		}

	default:
		return fmt.Errorf("%s: unknown target %d", ins.Op, ins.Target)
	}

	if ins.Prefix {
		c.push(updated)
	} else {
		c.push(old)
	}
	return nil
}

// addDelta adds a real delta to a number, a complex number or every
// element of a matrix. Other values go through number conversion.
func addDelta(v value.Value, delta float64) value.Value {
	switch v.Kind() {
	case value.KindMatrix:
		m, _ := v.AsMatrix()
		d := complex(delta, 0)
		return value.MatrixValue(m.Map(func(z complex128) complex128 { return z + d }))
	case value.KindComplex:
		z, _ := v.AsComplex()
		return value.Complex(z + complex(delta, 0))
	}
	return value.Number(value.ToNumber(v) + delta)
}
