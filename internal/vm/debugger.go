package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/funvibe/numen/internal/value"
)

// ErrDebuggerQuit ends a run the user quit from the debugger
var ErrDebuggerQuit = errors.New("debugger: quit")

// DebuggerMode represents the current debugging mode
type DebuggerMode int

const (
	// ModeRun - normal execution, stop at breakpoints only
	ModeRun DebuggerMode = iota
	// ModeStep - stop at every new line
	ModeStep
	// ModeStepOver - stop at the next line of the same or an outer call
	ModeStepOver
	// ModeStepOut - stop once the current call returns
	ModeStepOut
	// ModeContinue - run to the next breakpoint
	ModeContinue
)

// Breakpoint represents a breakpoint location. An empty File matches
// every unit.
type Breakpoint struct {
	File string
	Line int
}

// Location is where a context is about to execute
type Location struct {
	Unit  string
	File  string
	Line  int
	PC    int
	Depth int
}

// Debugger stops execution at breakpoints or line steps and hands the
// stopped context to OnStop. It is attached with WithDebugger.
type Debugger struct {
	mu sync.Mutex

	// Enabled flag
	Enabled bool

	quit bool

	mode DebuggerMode

	// Breakpoints map: file -> line -> Breakpoint
	breakpoints map[string]map[int]*Breakpoint

	// Call depth and line where a step over/out started
	stepDepth int
	stepLine  int

	// Last stopped location, so a line with several instructions stops once
	lastFile  string
	lastLine  int
	lastDepth int

	Output io.Writer

	// OnStop is called synchronously when execution stops. It may change
	// the mode (Step, Continue...) before returning.
	OnStop func(*Debugger, *Context)
}

// NewDebugger creates an enabled debugger in run mode
func NewDebugger() *Debugger {
	return &Debugger{
		Enabled:     true,
		mode:        ModeRun,
		breakpoints: make(map[string]map[int]*Breakpoint),
		Output:      os.Stdout,
		lastDepth:   -1,
	}
}

// normalizePath makes breakpoint files and unit files comparable
func normalizePath(path string) string {
	if path == "" {
		return ""
	}
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return path
}

// SetBreakpoint sets a breakpoint at the given file and line
func (d *Debugger) SetBreakpoint(file string, line int) *Breakpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	file = normalizePath(file)
	if d.breakpoints[file] == nil {
		d.breakpoints[file] = make(map[int]*Breakpoint)
	}
	bp := &Breakpoint{File: file, Line: line}
	d.breakpoints[file][line] = bp
	return bp
}

// RemoveBreakpoint removes a breakpoint at the given file and line
func (d *Debugger) RemoveBreakpoint(file string, line int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	file = normalizePath(file)
	if d.breakpoints[file] != nil {
		delete(d.breakpoints[file], line)
		if len(d.breakpoints[file]) == 0 {
			delete(d.breakpoints, file)
		}
	}
}

// ClearBreakpoints removes all breakpoints
func (d *Debugger) ClearBreakpoints() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.breakpoints = make(map[string]map[int]*Breakpoint)
}

// Breakpoints returns all breakpoints ordered by file and line
func (d *Debugger) Breakpoints() []*Breakpoint {
	d.mu.Lock()
	defer d.mu.Unlock()
	var result []*Breakpoint
	for _, lines := range d.breakpoints {
		for _, bp := range lines {
			result = append(result, bp)
		}
	}
	slices.SortFunc(result, func(a, b *Breakpoint) int {
		if c := strings.Compare(a.File, b.File); c != 0 {
			return c
		}
		return a.Line - b.Line
	})
	return result
}

func (d *Debugger) hasBreakpoint(file string, line int) bool {
	if bp := d.breakpoints[""]; bp != nil && bp[line] != nil {
		return true
	}
	if file == "" {
		return false
	}
	lines := d.breakpoints[file]
	return lines != nil && lines[line] != nil
}

// Step stops at the next line
func (d *Debugger) Step() { d.setMode(ModeStep, nil) }

// StepOver stops at the next line without entering calls made from c
func (d *Debugger) StepOver(c *Context) { d.setMode(ModeStepOver, c) }

// StepOut stops once the call running c has returned
func (d *Debugger) StepOut(c *Context) { d.setMode(ModeStepOut, c) }

// Continue runs to the next breakpoint
func (d *Debugger) Continue() { d.setMode(ModeContinue, nil) }

// Run runs to the next breakpoint, forgetting the last stop
func (d *Debugger) Run() {
	d.setMode(ModeRun, nil)
	d.mu.Lock()
	d.lastFile, d.lastLine, d.lastDepth = "", 0, -1
	d.mu.Unlock()
}

func (d *Debugger) setMode(mode DebuggerMode, c *Context) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mode = mode
	d.stepDepth, d.stepLine = 0, 0
	if c != nil {
		loc := d.location(c)
		d.stepDepth, d.stepLine = loc.Depth, loc.Line
	}
}

// Mode reports the current mode
func (d *Debugger) Mode() DebuggerMode {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.mode
}

// Location returns where c is about to execute
func (d *Debugger) Location(c *Context) Location {
	return d.location(c)
}

func (d *Debugger) location(c *Context) Location {
	loc := Location{Unit: c.fn.Name, File: c.fn.Chunk.File, PC: c.pc, Depth: int(c.vm.depth.Load())}
	if c.pc < len(c.code) {
		loc.Line = c.code[c.pc].Line
	}
	return loc
}

// ShouldBreak checks if execution should stop before the instruction at
// c's program counter
func (d *Debugger) ShouldBreak(c *Context) bool {
	if d == nil || !d.Enabled {
		return false
	}
	loc := d.location(c)
	if loc.Line == 0 {
		return false
	}
	file := normalizePath(loc.File)

	d.mu.Lock()
	defer d.mu.Unlock()

	sameAsLast := d.lastFile == file && d.lastLine == loc.Line && d.lastDepth == loc.Depth
	if !sameAsLast {
		d.lastFile, d.lastLine, d.lastDepth = "", 0, -1
	}

	stop := false
	switch d.mode {
	case ModeStep:
		stop = !sameAsLast
	case ModeStepOver:
		stop = loc.Depth < d.stepDepth || (loc.Depth == d.stepDepth && loc.Line != d.stepLine)
	case ModeStepOut:
		stop = loc.Depth < d.stepDepth
	case ModeRun, ModeContinue:
		stop = !sameAsLast && d.hasBreakpoint(file, loc.Line)
	}
	if stop {
		if d.mode == ModeStepOver || d.mode == ModeStepOut {
			d.mode = ModeRun
		}
		d.lastFile, d.lastLine, d.lastDepth = file, loc.Line, loc.Depth
	}
	return stop
}

// Quit makes the stopped run end with ErrDebuggerQuit
func (d *Debugger) Quit() {
	d.mu.Lock()
	d.quit = true
	d.mu.Unlock()
}

// stop hands the context to OnStop
func (d *Debugger) stop(c *Context) error {
	if d.OnStop != nil {
		d.OnStop(d, c)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.quit {
		d.Enabled = false
		return ErrDebuggerQuit
	}
	return nil
}

// Locals returns the variables of the innermost scope of c
func (d *Debugger) Locals(c *Context) *value.Map {
	return c.scope.Vars()
}

// Globals returns the variables of the outermost scope of c, leaving out
// native functions
func (d *Debugger) Globals(c *Context) *value.Map {
	s := c.scope
	for s.Parent() != nil {
		s = s.Parent()
	}
	out := value.NewMap()
	s.Vars().Range(func(name string, v value.Value) bool {
		if fn, ok := v.AsFunction(); ok && fn.Origin == value.OriginNative {
			return true
		}
		out.Set(name, v)
		return true
	})
	return out
}

// Stack returns a copy of the operand stack, bottom first
func (d *Debugger) Stack(c *Context) []value.Value {
	return append([]value.Value(nil), c.stack...)
}

// Lookup resolves a name through the scope chain of c
func (d *Debugger) Lookup(c *Context, name string) (value.Value, bool) {
	return c.scope.Lookup(name)
}

// FormatLocation formats a file:line location string, preferring paths
// relative to the working directory
func (d *Debugger) FormatLocation(file string, line int) string {
	displayFile := file
	if displayFile == "" {
		displayFile = "<script>"
	} else if wd, err := os.Getwd(); err == nil {
		if abs, err := filepath.Abs(file); err == nil {
			if rel, err := filepath.Rel(wd, abs); err == nil && !strings.HasPrefix(rel, "..") {
				displayFile = rel
			}
		}
	}
	if line > 0 {
		return fmt.Sprintf("%s:%d", displayFile, line)
	}
	return displayFile
}

// PrintLocation prints the current location
func (d *Debugger) PrintLocation(c *Context) {
	loc := d.location(c)
	where := d.FormatLocation(loc.File, loc.Line)
	if loc.PC == 0 && loc.Depth == 0 {
		fmt.Fprintf(d.Output, "Stopped at %s (program start)\n", where)
		return
	}
	fmt.Fprintf(d.Output, "Stopped at %s in %s (depth %d)\n", where, loc.Unit, loc.Depth)
}

// PrintLocals prints the innermost scope
func (d *Debugger) PrintLocals(c *Context) {
	printVars(d.Output, d.Locals(c), "No local variables in current scope.", "Local variables:")
}

// PrintGlobals prints the user-defined globals
func (d *Debugger) PrintGlobals(c *Context) {
	printVars(d.Output, d.Globals(c), "No user-defined global variables.", "Global variables:")
}

func printVars(w io.Writer, vars *value.Map, empty, header string) {
	if vars.Len() == 0 {
		fmt.Fprintln(w, empty)
		return
	}
	fmt.Fprintln(w, header)
	for _, name := range slices.Sorted(slices.Values(vars.Keys())) {
		v, _ := vars.Get(name)
		fmt.Fprintf(w, "  %s = %s\n", name, value.Inspect(v))
	}
}

// PrintStack prints the stack
func (d *Debugger) PrintStack(c *Context) {
	stack := d.Stack(c)
	fmt.Fprintf(d.Output, "Stack (top to bottom):\n")
	for i := len(stack) - 1; i >= 0; i-- {
		fmt.Fprintf(d.Output, "  [%d] %s\n", i, value.Inspect(stack[i]))
	}
}
