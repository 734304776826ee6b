// Package builtins holds the native function library: the operator
// implementations the compiler references by name, plus math, string,
// data, async and sql helpers.
package builtins

import (
	"io"
	"log/slog"
	"os"
	"slices"
	"sync"

	"github.com/funvibe/numen/internal/coerce"
	"github.com/funvibe/numen/internal/logger"
	"github.com/funvibe/numen/internal/native"
	"github.com/funvibe/numen/internal/value"
)

// Library is a named set of native functions. It is safe for concurrent
// use once built.
type Library struct {
	mu    sync.RWMutex
	fns   map[string]*value.Function
	order []string

	out       io.Writer
	outMu     sync.Mutex
	logger    *slog.Logger
	registry  *coerce.Registry
	currying  bool
	sqlDriver string
	sql       *sqlHandles
}

type Option func(*Library)

// WithOutput redirects print
func WithOutput(w io.Writer) Option {
	return func(l *Library) { l.out = w }
}

func WithLogger(lg *slog.Logger) Option {
	return func(l *Library) { l.logger = lg }
}

// WithRegistry sets the conversion registry used for argument adaptation
func WithRegistry(r *coerce.Registry) Option {
	return func(l *Library) { l.registry = r }
}

// WithCurrying controls partial application of under-applied natives
func WithCurrying(on bool) Option {
	return func(l *Library) { l.currying = on }
}

// WithSQLDriver names the database/sql driver behind sqlOpen
func WithSQLDriver(name string) Option {
	return func(l *Library) { l.sqlDriver = name }
}

// New builds the full library
func New(opts ...Option) *Library {
	l := &Library{
		fns:       make(map[string]*value.Function),
		out:       os.Stdout,
		logger:    logger.GetLogger(),
		registry:  coerce.Default(),
		currying:  true,
		sqlDriver: "sqlite",
	}
	for _, opt := range opts {
		opt(l)
	}
	l.sql = newSQLHandles()

	l.registerOperators()
	l.registerMath()
	l.registerStrings()
	l.registerCore()
	l.registerFunctional()
	l.registerAsync()
	l.registerYAML()
	l.registerSQL()
	return l
}

// Native looks a function up by name
func (l *Library) Native(name string) (*value.Function, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fn, ok := l.fns[name]
	return fn, ok
}

// Register adds or replaces a function
func (l *Library) Register(name string, fn *value.Function) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.fns[name]; !ok {
		l.order = append(l.order, name)
	}
	l.fns[name] = fn
}

// Names lists the registered functions in sorted order
func (l *Library) Names() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return slices.Sorted(slices.Values(l.order))
}

// Each calls fn for every registered function in registration order
func (l *Library) Each(fn func(name string, f *value.Function)) {
	l.mu.RLock()
	names := append([]string(nil), l.order...)
	l.mu.RUnlock()
	for _, name := range names {
		f, _ := l.Native(name)
		fn(name, f)
	}
}

// Bind installs every function as a global in vars
func (l *Library) Bind(vars *value.Map) {
	l.Each(func(name string, f *value.Function) {
		vars.Set(name, value.FunctionValue(f))
	})
}

// Close releases resources held by the library, such as open databases
func (l *Library) Close() error {
	return l.sql.closeAll()
}

// wrap registers a single host function
func (l *Library) wrap(name string, fn any, params ...string) {
	l.overload(name, []any{fn}, params...)
}

// overload registers a ranked overload set
func (l *Library) overload(name string, fns []any, params ...string) {
	opts := []native.Option{native.WithRegistry(l.registry), native.WithCurrying(l.currying)}
	if len(params) > 0 {
		opts = append(opts, native.WithParams(params...))
	}
	l.Register(name, native.Overloaded(name, fns, opts...))
}

// raw registers a function that takes the argument values unadapted
func (l *Library) raw(name string, params []string, variadic bool, fn func(args []value.Value) (value.Value, error)) {
	f := value.NewNative(name, params, fn)
	f.Variadic = variadic
	l.Register(name, f)
}

func arg(args []value.Value, i int) value.Value {
	if i < len(args) {
		return args[i]
	}
	return value.Undefined
}
