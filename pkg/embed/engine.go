// Package numen embeds the numen expression language in Go programs.
//
//	eng := numen.New()
//	defer eng.Close()
//	eng.Bind("double", func(x float64) float64 { return x * 2 })
//	res, err := eng.Interpret(ctx, "double(21)")
package numen

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"

	"github.com/funvibe/numen/internal/builtins"
	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/lexer"
	"github.com/funvibe/numen/internal/logger"
	"github.com/funvibe/numen/internal/parser"
	"github.com/funvibe/numen/internal/pipeline"
	"github.com/funvibe/numen/internal/prettyprinter"
	"github.com/funvibe/numen/internal/value"
	"github.com/funvibe/numen/internal/vm"
)

// Engine compiles and runs scripts against one global scope
type Engine struct {
	cfg        config.Config
	logger     *slog.Logger
	out        io.Writer
	lib        *builtins.Library
	machine    *vm.VM
	globals    *vm.Scope
	cache      *Cache
	marshaller *Marshaller
	debugger   *vm.Debugger
}

type Option func(*Engine)

// WithConfig replaces the default configuration
func WithConfig(cfg config.Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithScope makes vars the global scope. Builtins are added to it.
func WithScope(vars *value.Map) Option {
	return func(e *Engine) { e.globals = vm.ScopeOf(vars) }
}

// WithOutput redirects print
func WithOutput(w io.Writer) Option {
	return func(e *Engine) { e.out = w }
}

// WithDebugger runs every program under d
func WithDebugger(d *vm.Debugger) Option {
	return func(e *Engine) { e.debugger = d }
}

// New creates an engine with the builtin library bound in its globals
func New(opts ...Option) *Engine {
	e := &Engine{
		cfg:    config.Default(),
		logger: logger.GetLogger(),
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.globals == nil {
		e.globals = vm.NewScope(nil)
	}

	e.lib = builtins.New(
		builtins.WithOutput(e.out),
		builtins.WithLogger(e.logger),
		builtins.WithCurrying(e.cfg.Currying),
		builtins.WithSQLDriver(e.cfg.SQLDriver),
	)
	e.lib.Bind(e.globals.Vars())

	vmOpts := []vm.Option{
		vm.WithLogger(e.logger),
		vm.WithCurrying(e.cfg.Currying),
		vm.WithMaxCallDepth(e.cfg.MaxCallDepth),
	}
	if e.debugger != nil {
		vmOpts = append(vmOpts, vm.WithDebugger(e.debugger))
	}
	e.machine = vm.New(vmOpts...)
	e.cache = NewCache(e.cfg.CacheDir, e.cfg.CacheSize, e.lib, e.logger)
	e.marshaller = NewMarshaller(nil, e.cfg.Currying)
	return e
}

// Close releases resources held by builtins, such as open databases
func (e *Engine) Close() error {
	return e.lib.Close()
}

// Config returns the engine configuration
func (e *Engine) Config() config.Config { return e.cfg }

// Scope is the global scope programs run in by default
func (e *Engine) Scope() *vm.Scope { return e.globals }

// Natives resolves operator and builtin functions by name
func (e *Engine) Natives() vm.Natives { return e.lib }

// Library is the builtin function library
func (e *Engine) Library() *builtins.Library { return e.lib }

// Machine is the underlying VM
func (e *Engine) Machine() *vm.VM { return e.machine }

// Cache is the compiled-unit cache
func (e *Engine) Cache() *Cache { return e.cache }

// Marshaller converts between Go and script values
func (e *Engine) Marshaller() *Marshaller { return e.marshaller }

// Program is a compiled unit ready to run
type Program struct {
	Main   *vm.CompiledFunction
	File   string
	Hash   string
	engine *Engine
}

// Compile compiles source, reusing a cached unit when the same source
// was compiled before
func (e *Engine) Compile(source string) (*Program, error) {
	return e.CompileNamed(source, "")
}

// CompileNamed compiles source reported under the given file name
func (e *Engine) CompileNamed(source, file string) (*Program, error) {
	key := Key(source, file)
	if fn, ok := e.cache.Lookup(key); ok {
		return &Program{Main: fn, File: file, Hash: key, engine: e}, nil
	}

	fn, err := e.compile(source, file)
	if err != nil {
		return nil, err
	}
	e.cache.Store(key, file, fn)
	return &Program{Main: fn, File: file, Hash: key, engine: e}, nil
}

// CompileFile reads and compiles a source file
func (e *Engine) CompileFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return e.CompileNamed(string(data), path)
}

func (e *Engine) compile(source, file string) (*vm.CompiledFunction, error) {
	ctx := pipeline.NewPipelineContext(source)
	ctx.FilePath = file
	ctx = pipeline.New(
		&lexer.LexerProcessor{},
		&parser.ParserProcessor{},
		&vm.CompilerProcessor{Natives: e.lib},
	).Run(ctx)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	fn, ok := ctx.Unit.(*vm.CompiledFunction)
	if !ok {
		return nil, errors.New("compiler produced no unit")
	}
	return fn, nil
}

// LoadBundle decodes a serialized program, as written by Program.Bundle
func (e *Engine) LoadBundle(data []byte) (*Program, error) {
	b, err := vm.Deserialize(data, e.lib)
	if err != nil {
		return nil, err
	}
	return &Program{Main: b.Main, File: b.SourceFile, Hash: b.SourceHash, engine: e}, nil
}

// LoadBundleFile reads a compiled program file
func (e *Engine) LoadBundleFile(path string) (*Program, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	p, err := e.LoadBundle(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// Format parses source and prints it back in canonical layout. Comments
// are not kept.
func (e *Engine) Format(source string) (string, error) {
	ctx := pipeline.NewPipelineContext(source)
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}).Run(ctx)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return prettyprinter.Print(ctx.AstRoot), nil
}

// Bundle serializes the program
func (p *Program) Bundle() ([]byte, error) {
	return (&vm.Bundle{Main: p.Main, SourceFile: p.File, SourceHash: p.Hash}).Serialize()
}

// Disassemble lists the program's instructions
func (p *Program) Disassemble() string {
	return vm.Disassemble(p.Main)
}

// Run executes the program in scope, the engine's globals when scope is
// nil. If the program suspends on a pending future, Run waits for its
// completion or for ctx to end.
func (p *Program) Run(ctx context.Context, scope *vm.Scope) (value.Value, error) {
	if scope == nil {
		scope = p.engine.globals
	}
	res, c, err := p.engine.machine.Run(p.Main, scope)
	if errors.Is(err, vm.ErrSuspended) {
		p.engine.logger.Debug("waiting for suspended program", "file", p.File)
		return vm.Wait(ctx, c.Future())
	}
	return res, err
}

// Interpret compiles and runs source in the global scope
func (e *Engine) Interpret(ctx context.Context, source string) (value.Value, error) {
	p, err := e.Compile(source)
	if err != nil {
		return value.Undefined, err
	}
	return p.Run(ctx, nil)
}

// Exec is Interpret without the cache, for one-off input such as REPL
// lines
func (e *Engine) Exec(ctx context.Context, source string) (value.Value, error) {
	fn, err := e.compile(source, "")
	if err != nil {
		return value.Undefined, err
	}
	p := &Program{Main: fn, engine: e}
	return p.Run(ctx, nil)
}

// Eval interprets code and returns the result as plain Go data
func (e *Engine) Eval(code string) (any, error) {
	res, err := e.Interpret(context.Background(), code)
	if err != nil {
		return nil, err
	}
	return e.marshaller.FromValue(res, nil)
}

// LoadFile runs a script file for its definitions
func (e *Engine) LoadFile(path string) error {
	_, err := e.RunFile(context.Background(), path)
	return err
}

// RunFile compiles and runs a source file, or a compiled one when the
// path has the compiled extension
func (e *Engine) RunFile(ctx context.Context, path string) (value.Value, error) {
	var p *Program
	var err error
	if config.IsCompiledFile(path) {
		p, err = e.LoadBundleFile(path)
	} else {
		p, err = e.CompileFile(path)
	}
	if err != nil {
		return value.Undefined, err
	}
	return p.Run(ctx, nil)
}

// Disassemble compiles source and lists its instructions
func (e *Engine) Disassemble(source string) (string, error) {
	p, err := e.Compile(source)
	if err != nil {
		return "", err
	}
	return p.Disassemble(), nil
}

// Bind registers a Go function or value as a global. Functions are
// wrapped as natives whose arguments are converted with the engine's
// coercion rules.
func (e *Engine) Bind(name string, val any) error {
	v, err := e.marshaller.toValue(name, val)
	if err != nil {
		return fmt.Errorf("bind %s: %w", name, err)
	}
	e.globals.Declare(name, v)
	return nil
}

// Set assigns a global from a Go value
func (e *Engine) Set(name string, val any) error {
	v, err := e.marshaller.ToValue(val)
	if err != nil {
		return fmt.Errorf("set %s: %w", name, err)
	}
	e.globals.Declare(name, v)
	return nil
}

// Get returns a global, undefined and false when it is not bound
func (e *Engine) Get(name string) (value.Value, bool) {
	return e.globals.Lookup(name)
}

// GetAs converts a global to the type of out, which must be a pointer
func (e *Engine) GetAs(name string, out any) error {
	v, ok := e.Get(name)
	if !ok {
		return fmt.Errorf("variable '%s' not found", name)
	}
	return e.Decode(v, out)
}

// Decode stores the Go form of v in the value out points to
func (e *Engine) Decode(v value.Value, out any) error {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", out)
	}
	target, err := e.marshaller.assign(v, rv.Elem().Type())
	if err != nil {
		return err
	}
	rv.Elem().Set(target)
	return nil
}

// Call invokes a global function with Go arguments. A compiled function
// that suspends yields a future, which Call waits for.
func (e *Engine) Call(ctx context.Context, name string, args ...any) (value.Value, error) {
	fn, ok := e.Get(name)
	if !ok {
		return value.Undefined, fmt.Errorf("function '%s' not found", name)
	}
	if _, ok := fn.AsFunction(); !ok {
		return value.Undefined, fmt.Errorf("'%s' is a %s, not a function", name, fn.Category())
	}
	vals := make([]value.Value, len(args))
	for i, a := range args {
		v, err := e.marshaller.ToValue(a)
		if err != nil {
			return value.Undefined, fmt.Errorf("argument %d: %w", i, err)
		}
		vals[i] = v
	}
	res, err := e.machine.Call(fn, vals)
	if err != nil {
		return value.Undefined, err
	}
	if fut, ok := value.AsFuture(res); ok {
		return vm.Wait(ctx, fut)
	}
	return res, nil
}
