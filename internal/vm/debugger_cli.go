package vm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/funvibe/numen/internal/lexer"
	"github.com/funvibe/numen/internal/parser"
	"github.com/funvibe/numen/internal/pipeline"
	"github.com/funvibe/numen/internal/value"
)

// DebuggerCLI provides a command-line interface for the debugger
type DebuggerCLI struct {
	debugger *Debugger
	vm       *VM
	natives  Natives
	scanner  *bufio.Scanner
	input    io.Reader
	output   io.Writer
}

// NewDebuggerCLI creates a new CLI debugger. natives are used to compile
// expressions for the print command.
func NewDebuggerCLI(debugger *Debugger, vm *VM, natives Natives) *DebuggerCLI {
	return &DebuggerCLI{
		debugger: debugger,
		vm:       vm,
		natives:  natives,
		input:    os.Stdin,
		output:   os.Stdout,
	}
}

// SetInput sets the input reader
func (cli *DebuggerCLI) SetInput(r io.Reader) {
	cli.input = r
	cli.scanner = bufio.NewScanner(r)
}

// SetOutput sets the output writer
func (cli *DebuggerCLI) SetOutput(w io.Writer) {
	cli.output = w
}

// Run installs the command loop as the debugger's stop handler
func (cli *DebuggerCLI) Run() {
	if cli.scanner == nil {
		cli.scanner = bufio.NewScanner(cli.input)
	}
	cli.debugger.Output = cli.output
	cli.debugger.OnStop = cli.onStop
	fmt.Fprintf(cli.output, "Debugger started. Type 'help' for commands.\n")
}

// onStop reads commands until one resumes execution
func (cli *DebuggerCLI) onStop(dbg *Debugger, c *Context) {
	dbg.PrintLocation(c)

	for {
		fmt.Fprintf(cli.output, "(numen) ")
		if !cli.scanner.Scan() {
			if err := cli.scanner.Err(); err != nil {
				fmt.Fprintf(cli.output, "\nDebugger error: %v\n", err)
			} else {
				fmt.Fprintf(cli.output, "\nExiting debugger (EOF).\n")
			}
			dbg.Quit()
			return
		}

		parts := strings.Fields(cli.scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help", "h":
			printHelp(cli.output)
		case "continue", "c":
			dbg.Continue()
			return
		case "step", "s":
			dbg.Step()
			return
		case "next", "n":
			dbg.StepOver(c)
			return
		case "out", "finish":
			dbg.StepOut(c)
			return
		case "break", "b":
			cli.handleBreakpoint(args, c, true)
		case "delete", "d":
			cli.handleBreakpoint(args, c, false)
		case "list", "l":
			cli.handleListBreakpoints()
		case "locals", "vars":
			dbg.PrintLocals(c)
		case "globals":
			dbg.PrintGlobals(c)
		case "stack":
			dbg.PrintStack(c)
		case "where", "w":
			dbg.PrintLocation(c)
		case "print", "p":
			cli.handlePrint(args, c)
		case "quit", "q", "exit":
			dbg.Quit()
			return
		default:
			fmt.Fprintf(cli.output, "Unknown command: %s. Type 'help' for help.\n", cmd)
		}
	}
}

// PrintHelp prints help information
func (cli *DebuggerCLI) PrintHelp() {
	printHelp(cli.output)
}

func printHelp(output io.Writer) {
	help := `Debugger commands:
  help, h                   - Show this help
  continue, c               - Continue execution until next breakpoint
  step, s                   - Step to the next line, entering calls
  next, n                   - Step over function calls
  out, finish               - Step out of current function
  break, b [<file>:]<line>  - Set breakpoint
  delete, d [<file>:]<line> - Delete breakpoint
  list, l                   - List all breakpoints
  locals, vars              - Show variables of the current scope
  globals                   - Show global variables
  stack                     - Show stack contents
  where, w                  - Show the current location
  print, p <expr>           - Evaluate an expression in the current scope
  quit, q, exit             - Stop the program
`
	fmt.Fprint(output, help)
}

// handleBreakpoint sets or deletes a breakpoint. A bare line refers to
// the unit being debugged.
func (cli *DebuggerCLI) handleBreakpoint(args []string, c *Context, set bool) {
	usage := "Usage: break [<file>:]<line>"
	if !set {
		usage = "Usage: delete [<file>:]<line>"
	}
	if len(args) == 0 {
		fmt.Fprintln(cli.output, usage)
		return
	}

	file, lineStr := c.fn.Chunk.File, args[0]
	if i := strings.LastIndex(args[0], ":"); i >= 0 {
		file, lineStr = args[0][:i], args[0][i+1:]
	}
	line, err := strconv.Atoi(lineStr)
	if err != nil || line <= 0 {
		fmt.Fprintf(cli.output, "Invalid line number: %s\n", lineStr)
		return
	}

	where := cli.debugger.FormatLocation(file, line)
	if set {
		cli.debugger.SetBreakpoint(file, line)
		fmt.Fprintf(cli.output, "Breakpoint set at %s\n", where)
		return
	}
	cli.debugger.RemoveBreakpoint(file, line)
	fmt.Fprintf(cli.output, "Breakpoint removed at %s\n", where)
}

func (cli *DebuggerCLI) handleListBreakpoints() {
	bps := cli.debugger.Breakpoints()
	if len(bps) == 0 {
		fmt.Fprintf(cli.output, "No breakpoints set.\n")
		return
	}
	fmt.Fprintf(cli.output, "Breakpoints:\n")
	for i, bp := range bps {
		fmt.Fprintf(cli.output, "  %d. %s\n", i+1, cli.debugger.FormatLocation(bp.File, bp.Line))
	}
}

// handlePrint evaluates an expression over the stopped context's scope.
// The debugger is disabled meanwhile so the evaluation does not stop.
func (cli *DebuggerCLI) handlePrint(args []string, c *Context) {
	if len(args) == 0 {
		fmt.Fprintf(cli.output, "Usage: print <expression>\n")
		return
	}

	if len(args) == 1 {
		if v, ok := cli.debugger.Lookup(c, args[0]); ok {
			fmt.Fprintln(cli.output, value.Inspect(v))
			return
		}
	}

	ctx := pipeline.NewPipelineContext(strings.Join(args, " "))
	ctx.FilePath = "<debug>"
	ctx = pipeline.New(&lexer.LexerProcessor{}, &parser.ParserProcessor{}, &CompilerProcessor{Natives: cli.natives}).Run(ctx)
	if err := ctx.Err(); err != nil {
		fmt.Fprintf(cli.output, "Error: %v\n", err)
		return
	}
	fn, ok := ctx.Unit.(*CompiledFunction)
	if !ok {
		fmt.Fprintf(cli.output, "Error: nothing to evaluate\n")
		return
	}

	cli.debugger.Enabled = false
	defer func() { cli.debugger.Enabled = true }()
	res, _, err := cli.vm.Run(fn, NewScope(c.scope))
	switch {
	case errors.Is(err, ErrSuspended):
		fmt.Fprintf(cli.output, "Error: expression suspended on a pending future\n")
	case err != nil:
		fmt.Fprintf(cli.output, "Error: %v\n", err)
	default:
		fmt.Fprintln(cli.output, value.Inspect(res))
	}
}
