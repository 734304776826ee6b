package vm

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/funvibe/numen/internal/value"
)

type stop struct {
	line, depth int
}

// debugRun runs source under d, recording every stop. onStop picks the
// next mode.
func debugRun(t *testing.T, d *Debugger, source string, onStop func(*Debugger, *Context, Location)) ([]stop, value.Value, *testEnv, error) {
	t.Helper()
	env := newEnv(t, WithDebugger(d))
	var stops []stop
	d.OnStop = func(d *Debugger, c *Context) {
		loc := d.Location(c)
		stops = append(stops, stop{loc.Line, loc.Depth})
		onStop(d, c, loc)
	}
	res, _, err := env.vm.Run(compileSource(t, env.lib, source), env.scope)
	return stops, res, env, err
}

func TestDebuggerBreakpoints(t *testing.T) {
	source := "x = 10\ny = 20\nresult = x + y\n"

	d := NewDebugger()
	d.Output = &bytes.Buffer{}
	d.SetBreakpoint("test.nm", 3)

	var seenY value.Value
	var resultBound bool
	stops, res, _, err := debugRun(t, d, source, func(d *Debugger, c *Context, _ Location) {
		seenY, _ = d.Lookup(c, "y")
		_, resultBound = d.Lookup(c, "result")
		d.Continue()
	})
	if err != nil {
		t.Fatal(err)
	}
	if value.Inspect(res) != "30" {
		t.Errorf("result = %s", value.Inspect(res))
	}
	if len(stops) != 1 || stops[0] != (stop{3, 0}) {
		t.Fatalf("stops = %v, want a single stop at line 3", stops)
	}
	if value.Inspect(seenY) != "20" || resultBound {
		t.Errorf("at the breakpoint y = %s, result bound = %v", value.Inspect(seenY), resultBound)
	}
}

func TestDebuggerBreakpointManagement(t *testing.T) {
	d := NewDebugger()
	d.SetBreakpoint("b.nm", 7)
	d.SetBreakpoint("a.nm", 3)
	d.SetBreakpoint("a.nm", 1)
	d.SetBreakpoint("", 2)

	bps := d.Breakpoints()
	if len(bps) != 4 {
		t.Fatalf("got %d breakpoints", len(bps))
	}
	if bps[0].File != "" || bps[0].Line != 2 {
		t.Errorf("wildcard breakpoint not first: %+v", bps[0])
	}
	if !strings.HasSuffix(bps[1].File, "a.nm") || bps[1].Line != 1 || bps[2].Line != 3 {
		t.Errorf("breakpoints not ordered: %+v %+v", bps[1], bps[2])
	}

	d.RemoveBreakpoint("a.nm", 1)
	if len(d.Breakpoints()) != 3 {
		t.Errorf("remove failed: %v", d.Breakpoints())
	}
	d.ClearBreakpoints()
	if len(d.Breakpoints()) != 0 {
		t.Errorf("clear failed: %v", d.Breakpoints())
	}
}

func TestDebuggerWildcardBreakpoint(t *testing.T) {
	d := NewDebugger()
	d.Output = &bytes.Buffer{}
	d.SetBreakpoint("", 2)
	stops, _, _, err := debugRun(t, d, "a = 1\nb = 2\n", func(d *Debugger, _ *Context, _ Location) {
		d.Continue()
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(stops) != 1 || stops[0].line != 2 {
		t.Errorf("stops = %v", stops)
	}
}

func TestDebuggerStep(t *testing.T) {
	d := NewDebugger()
	d.Output = &bytes.Buffer{}
	d.Step()
	stops, _, _, err := debugRun(t, d, "x = 10\ny = 20\nresult = x + y\n", func(d *Debugger, _ *Context, _ Location) {
		d.Step()
	})
	if err != nil {
		t.Fatal(err)
	}
	want := []stop{{1, 0}, {2, 0}, {3, 0}}
	if len(stops) != len(want) {
		t.Fatalf("stops = %v, want %v", stops, want)
	}
	for i := range want {
		if stops[i] != want[i] {
			t.Errorf("stop %d = %v, want %v", i, stops[i], want[i])
		}
	}
}

const callSource = `f = n => {
  n * 2
}
y = f(4)
z = y + 1
`

func TestDebuggerStepOver(t *testing.T) {
	d := NewDebugger()
	d.Output = &bytes.Buffer{}
	d.Step()
	stops, res, _, err := debugRun(t, d, callSource, func(d *Debugger, c *Context, loc Location) {
		if loc.Line == 4 {
			d.StepOver(c)
			return
		}
		d.Step()
	})
	if err != nil {
		t.Fatal(err)
	}
	if value.Inspect(res) != "9" {
		t.Errorf("result = %s", value.Inspect(res))
	}
	want := []stop{{1, 0}, {4, 0}, {5, 0}}
	if len(stops) != len(want) {
		t.Fatalf("stops = %v, want %v", stops, want)
	}
	for i := range want {
		if stops[i] != want[i] {
			t.Errorf("stop %d = %v, want %v", i, stops[i], want[i])
		}
	}
}

func TestDebuggerStepIntoAndOut(t *testing.T) {
	d := NewDebugger()
	d.Output = &bytes.Buffer{}
	d.Step()
	stops, _, _, err := debugRun(t, d, callSource, func(d *Debugger, c *Context, loc Location) {
		if loc.Line == 2 && loc.Depth == 1 {
			d.StepOut(c)
			return
		}
		d.Step()
	})
	if err != nil {
		t.Fatal(err)
	}

	body := -1
	for i, s := range stops {
		if s == (stop{2, 1}) {
			body = i
			break
		}
	}
	if body < 0 {
		t.Fatalf("never stopped in the function body: %v", stops)
	}
	if body+1 >= len(stops) || stops[body+1] != (stop{4, 0}) {
		t.Errorf("step out did not return to the caller: %v", stops)
	}
	if last := stops[len(stops)-1]; last != (stop{5, 0}) {
		t.Errorf("last stop = %v", last)
	}
}

func TestDebuggerQuit(t *testing.T) {
	d := NewDebugger()
	d.Output = &bytes.Buffer{}
	d.SetBreakpoint("test.nm", 2)
	_, _, env, err := debugRun(t, d, "x = 1\ny = 2\nz = 3\n", func(d *Debugger, _ *Context, _ Location) {
		d.Quit()
	})
	if !errors.Is(err, ErrDebuggerQuit) {
		t.Fatalf("got %v, want ErrDebuggerQuit", err)
	}
	if _, ok := env.scope.Lookup("y"); ok {
		t.Error("line 2 ran after quitting")
	}
	if d.Enabled {
		t.Error("debugger still enabled after quit")
	}
}

func TestDebuggerQuitInsideCall(t *testing.T) {
	d := NewDebugger()
	d.Output = &bytes.Buffer{}
	d.SetBreakpoint("test.nm", 2)
	_, _, _, err := debugRun(t, d, callSource, func(d *Debugger, _ *Context, _ Location) {
		d.Quit()
	})
	if !errors.Is(err, ErrDebuggerQuit) {
		t.Fatalf("got %v, want ErrDebuggerQuit", err)
	}
}

func TestDebuggerCLI(t *testing.T) {
	env := newEnv(t)
	d := NewDebugger()
	d.SetBreakpoint("test.nm", 2)
	env.vm = New(WithDebugger(d))

	var out bytes.Buffer
	cli := NewDebuggerCLI(d, env.vm, env.lib)
	cli.SetInput(strings.NewReader("p x + 1\np x\nb 3\nl\nbogus\nc\nglobals\nstack\nc\n"))
	cli.SetOutput(&out)
	cli.Run()

	res, _, err := env.vm.Run(compileSource(t, env.lib, "x = 10\ny = 20\nresult = x + y\n"), env.scope)
	if err != nil {
		t.Fatal(err)
	}
	if value.Inspect(res) != "30" {
		t.Errorf("result = %s", value.Inspect(res))
	}

	output := out.String()
	for _, want := range []string{
		"Debugger started",
		"Stopped at test.nm:2",
		"11\n",
		"10\n",
		"Breakpoint set at test.nm:3",
		"  1. test.nm:2",
		"  2. test.nm:3",
		"Unknown command: bogus",
		"Stopped at test.nm:3",
		"  x = 10\n  y = 20\n",
		"Stack (top to bottom):",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
	if strings.Contains(output, "log =") {
		t.Errorf("globals listed native functions:\n%s", output)
	}
}

func TestDebuggerCLIQuitOnEOF(t *testing.T) {
	env := newEnv(t)
	d := NewDebugger()
	d.Step()
	env.vm = New(WithDebugger(d))

	var out bytes.Buffer
	cli := NewDebuggerCLI(d, env.vm, env.lib)
	cli.SetInput(strings.NewReader("s\n"))
	cli.SetOutput(&out)
	cli.Run()

	_, _, err := env.vm.Run(compileSource(t, env.lib, "a = 1\nb = 2\nc = 3\n"), env.scope)
	if !errors.Is(err, ErrDebuggerQuit) {
		t.Fatalf("got %v, want ErrDebuggerQuit", err)
	}
	if !strings.Contains(out.String(), "Exiting debugger (EOF).") {
		t.Errorf("output:\n%s", out.String())
	}
	if _, ok := env.scope.Lookup("b"); ok {
		t.Error("line 2 ran after EOF")
	}
}
