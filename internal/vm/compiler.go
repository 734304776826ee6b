package vm

import (
	"fmt"

	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/token"
	"github.com/funvibe/numen/internal/value"
)

// Natives resolves the native functions that implement operators
type Natives interface {
	Native(name string) (*value.Function, bool)
}

// NativeMap is a Natives backed by a plain map
type NativeMap map[string]*value.Function

func (m NativeMap) Native(name string) (*value.Function, bool) {
	fn, ok := m[name]
	return fn, ok
}

// LoopContext tracks loop information for break/continue
type LoopContext struct {
	loopStart  int   // Offset continue jumps to
	breakJumps []int // Offsets of break jumps to patch
}

// Compiler compiles an AST unit to instructions. Function literals get a
// nested compiler whose result is embedded in an OP_CLOSURE.
type Compiler struct {
	// Current function being compiled
	function *CompiledFunction

	natives Natives

	// Enclosing compiler (for nested functions)
	enclosing *Compiler

	// Loop context stack for break/continue
	loopStack []LoopContext

	// assigning is set while the expression being compiled is a store
	// target, declaring when that store binds a fresh name
	assigning bool
	declaring bool
}

// NewCompiler creates a new compiler for top-level code
func NewCompiler(natives Natives) *Compiler {
	return &Compiler{
		function: &CompiledFunction{
			Chunk: NewChunk(),
			Name:  "<script>",
		},
		natives: natives,
	}
}

// newFunctionCompiler creates a compiler for a function body
func newFunctionCompiler(enclosing *Compiler, name string) *Compiler {
	chunk := NewChunk()
	chunk.File = enclosing.function.Chunk.File
	return &Compiler{
		function: &CompiledFunction{
			Chunk: chunk,
			Name:  name,
		},
		natives:   enclosing.natives,
		enclosing: enclosing,
	}
}

// Compile compiles a program. The unit's result is the value of its last
// statement.
func (c *Compiler) Compile(program *ast.Program) (*CompiledFunction, error) {
	c.function.Chunk.File = program.File
	if err := c.compileUnit(program.Statements, true); err != nil {
		return nil, err
	}
	return c.function, nil
}

// compileUnit compiles a statement list. With keep set, the last statement
// leaves its value on the stack and every other statement leaves nothing.
func (c *Compiler) compileUnit(stmts []ast.Statement, keep bool) error {
	for i, stmt := range stmts {
		last := keep && i == len(stmts)-1
		if err := c.compileStatement(stmt, last); err != nil {
			return err
		}
	}
	return nil
}

// errorAt builds a compile diagnostic positioned at node
func (c *Compiler) errorAt(code string, node ast.Node, format string, args ...any) error {
	var tok token.Token
	if tp, ok := node.(ast.TokenProvider); ok {
		tok = tp.GetToken()
	}
	err := diagnostics.NewError(code, tok, fmt.Sprintf(format, args...))
	err.File = c.function.Chunk.File
	return err
}
