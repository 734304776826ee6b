package vm

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/logger"
	"github.com/funvibe/numen/internal/value"
)

var errStackUnderflow = errors.New("stack underflow")

var (
	// ErrStackOverflow is returned when nested calls exceed the depth limit
	ErrStackOverflow = errors.New("stack overflow")

	// ErrSuspended is returned by Run when the context stopped at an await
	// on a pending future. Context.Future completes when it finishes.
	ErrSuspended = errors.New("execution suspended")

	// ErrAwaitFailed wraps the error message of a failed awaited future
	ErrAwaitFailed = errors.New("awaited future failed")
)

// formatFilePath formats a file path for display in error messages
func formatFilePath(file string) string {
	if filepath.IsAbs(file) {
		if wd, err := os.Getwd(); err == nil {
			if rel, err := filepath.Rel(wd, file); err == nil {
				file = rel
			}
		}
	}
	return config.TrimSourceExt(file)
}

// RuntimeError is a failure raised while executing a unit
type RuntimeError struct {
	Unit string
	File string
	PC   int
	Line int
	Err  error
}

func (e *RuntimeError) Error() string {
	loc := fmt.Sprintf("line %d", e.Line)
	if e.File != "" {
		loc = fmt.Sprintf("%s:%d", formatFilePath(e.File), e.Line)
	}
	return fmt.Sprintf("runtime error in %s at %s: %v", e.Unit, loc, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// VM holds what all execution contexts of one engine share
type VM struct {
	maxDepth int
	depth    atomic.Int64
	currying bool
	logger   *slog.Logger
	debugger *Debugger
}

type Option func(*VM)

// WithMaxCallDepth limits nested compiled-function calls
func WithMaxCallDepth(n int) Option {
	return func(vm *VM) {
		if n > 0 {
			vm.maxDepth = n
		}
	}
}

// WithCurrying makes under-applied compiled functions return partials
func WithCurrying(on bool) Option {
	return func(vm *VM) { vm.currying = on }
}

func WithLogger(l *slog.Logger) Option {
	return func(vm *VM) {
		if l != nil {
			vm.logger = l
		}
	}
}

// WithDebugger attaches a debugger consulted before every instruction
func WithDebugger(d *Debugger) Option {
	return func(vm *VM) { vm.debugger = d }
}

// New creates a VM
func New(opts ...Option) *VM {
	vm := &VM{
		maxDepth: config.DefaultMaxCallDepth,
		currying: true,
		logger:   logger.GetLogger(),
	}
	for _, opt := range opts {
		opt(vm)
	}
	return vm
}

// halted is the program counter of a context that must not run further
const halted = math.MaxInt

type contextState uint8

const (
	stateReady contextState = iota
	stateRunning
	stateSuspended
	stateHalted
)

// Context is one run of a compiled unit: a program or a single function
// invocation. It owns its operand stack and program counter; the scope is
// shared with the closures created during the run.
type Context struct {
	vm    *VM
	fn    *CompiledFunction
	code  []Instruction
	stack []value.Value
	pc    int
	scope *Scope
	args  []value.Value
	iters []*iterator

	// mu serializes runs of the loop: the initial Run and every resumption
	mu       sync.Mutex
	state    contextState
	resumePC int
	seq      uint64

	// pending is the seq of the await a continuation may still claim,
	// zero once claimed. Claiming does not take mu, so a notify made by
	// the running context itself is dropped instead of blocking.
	pending atomic.Uint64

	// done is created on the first suspension and completed when the
	// context finally halts
	done *value.Map
}

// NewContext prepares fn to run in scope with the given call arguments
func (vm *VM) NewContext(fn *CompiledFunction, scope *Scope, args []value.Value) *Context {
	if scope == nil {
		scope = NewScope(nil)
	}
	return &Context{
		vm:    vm,
		fn:    fn,
		code:  fn.Chunk.Code,
		stack: make([]value.Value, 0, 16),
		scope: scope,
		args:  args,
	}
}

// Run executes the program in a fresh context over scope. A suspended
// program reports ErrSuspended; the returned context's Future then yields
// the final value.
func (vm *VM) Run(fn *CompiledFunction, scope *Scope) (value.Value, *Context, error) {
	ctx := vm.NewContext(fn, scope, nil)
	res, err := ctx.Run()
	return res, ctx, err
}

// Call invokes a callable value the way OP_CALL does
func (vm *VM) Call(callee value.Value, args []value.Value) (value.Value, error) {
	return vm.call(callee, args)
}

func (c *Context) Scope() *Scope { return c.scope }

// Future is the completion future of a suspended context, nil if the
// context never suspended
func (c *Context) Future() *value.Map {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.done
}

// Run executes the unit until it halts or suspends
func (c *Context) Run() (value.Value, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != stateReady {
		return value.Undefined, fmt.Errorf("context for %s already started", c.fn.Name)
	}
	c.state = stateRunning
	return c.loop()
}

// loop dispatches instructions until the program counter leaves the code.
// Callers hold mu.
func (c *Context) loop() (value.Value, error) {
	for c.pc < len(c.code) {
		if c.vm.debugger.ShouldBreak(c) {
			if err := c.vm.debugger.stop(c); err != nil {
				c.state = stateHalted
				c.pc = halted
				return value.Undefined, err
			}
		}
		ins := &c.code[c.pc]
		c.pc++
		if err := c.step(ins); err != nil {
			c.state = stateHalted
			c.pc = halted
			return value.Undefined, c.wrapError(err, ins)
		}
	}
	if c.state == stateSuspended {
		return value.Undefined, ErrSuspended
	}
	c.state = stateHalted
	return c.result(), nil
}

// step executes one instruction, turning stack underflow into an error
func (c *Context) step(ins *Instruction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if r == errStackUnderflow {
				err = errStackUnderflow
				return
			}
			panic(r)
		}
	}()
	return c.execute(ins)
}

func (c *Context) wrapError(err error, ins *Instruction) error {
	var rt *RuntimeError
	if errors.As(err, &rt) {
		return err
	}
	return &RuntimeError{
		Unit: c.fn.Name,
		File: c.fn.Chunk.File,
		PC:   c.pc - 1,
		Line: ins.Line,
		Err:  err,
	}
}

// result is the top of the stack, or undefined when it is empty
func (c *Context) result() value.Value {
	if len(c.stack) == 0 {
		return value.Undefined
	}
	return c.stack[len(c.stack)-1]
}

// Stack operations

func (c *Context) push(v value.Value) {
	c.stack = append(c.stack, v)
}

func (c *Context) pop() value.Value {
	n := len(c.stack)
	if n == 0 {
		panic(errStackUnderflow)
	}
	v := c.stack[n-1]
	c.stack = c.stack[:n-1]
	return v
}

func (c *Context) peek() value.Value {
	n := len(c.stack)
	if n == 0 {
		panic(errStackUnderflow)
	}
	return c.stack[n-1]
}

// popN pops n values; the first popped lands at index 0
func (c *Context) popN(n int) []value.Value {
	if n < 0 || len(c.stack) < n {
		panic(errStackUnderflow)
	}
	out := make([]value.Value, n)
	for i := 0; i < n; i++ {
		out[i] = c.pop()
	}
	return out
}

// arg returns call argument i, undefined when missing
func (c *Context) arg(i int) value.Value {
	if i < len(c.args) {
		return c.args[i]
	}
	return value.Undefined
}
