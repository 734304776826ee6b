// Package cli implements the numen command.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/mattn/go-isatty"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/logger"
	"github.com/funvibe/numen/internal/value"
	"github.com/funvibe/numen/internal/vm"
	numen "github.com/funvibe/numen/pkg/embed"
)

const usageText = `Usage:
  numen [options] <file>           Run a source or compiled file
  numen [options] -e <expression>  Evaluate an expression
  numen [options] -d <file>        Print the bytecode of a file
  numen [options] -f <file>        Print a source file in canonical layout
  numen [options] -c <file> [-o <out>]
                                   Compile a file to a cbor unit
  numen [options] -r <file>        Run a compiled unit
  numen                            Start the REPL (reads stdin when piped)

Options:
  --config <path>     Load settings from a YAML or TOML file
  --log-level <level> debug, info, warn or error
  -g, --debug         Run under the interactive debugger
  -h, --help          Show this help
`

// App is one invocation of the command
type App struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	cfg    config.Config
	debug  bool
	output string
	color  bool
}

// options are the host flags, removed from the argument list before the
// mode is chosen
type options struct {
	configPath string
	logLevel   string
	debug      bool
	output     string
	help       bool
}

// parseOptions extracts host flags. Flags taking a value accept both
// "--flag value" and "--flag=value".
func parseOptions(args []string) (options, []string, error) {
	var opts options
	var rest []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		name, val, hasVal := strings.Cut(arg, "=")
		takeValue := func() (string, error) {
			if hasVal {
				return val, nil
			}
			if i+1 >= len(args) {
				return "", fmt.Errorf("flag %s needs a value", name)
			}
			i++
			return args[i], nil
		}

		var err error
		switch name {
		case "--config":
			opts.configPath, err = takeValue()
		case "--log-level":
			opts.logLevel, err = takeValue()
		case "-o", "--output":
			opts.output, err = takeValue()
		case "-g", "--debug":
			opts.debug = true
		case "-h", "-help", "--help", "help":
			opts.help = true
		default:
			rest = append(rest, arg)
		}
		if err != nil {
			return opts, nil, err
		}
	}
	return opts, rest, nil
}

// Run executes the command with the process arguments and exits
func Run() {
	os.Exit(Main(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// Main runs the command and returns its exit code
func Main(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	opts, rest, err := parseOptions(args)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}
	if opts.help {
		fmt.Fprint(stdout, usageText)
		return 0
	}

	cfg := config.Default()
	if opts.configPath != "" {
		if cfg, err = config.Load(opts.configPath); err != nil {
			fmt.Fprintf(stderr, "Error: %s\n", err)
			return 1
		}
	}
	level := cfg.LogLevel
	if opts.logLevel != "" {
		level = opts.logLevel
	}
	if err := logger.InitLoggerTo(stderr, level); err != nil {
		fmt.Fprintf(stderr, "Error: %s\n", err)
		return 2
	}

	app := &App{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
		cfg:    cfg,
		debug:  opts.debug,
		output: opts.output,
		color:  isTerminal(stdout),
	}
	return app.dispatch(rest)
}

func (a *App) dispatch(args []string) int {
	if len(args) == 0 {
		if isTerminal(a.Stdin) {
			return a.handleRepl()
		}
		return a.handleStdin()
	}

	mode, operand := args[0], ""
	if len(args) > 1 {
		operand = args[1]
	}
	switch mode {
	case "-e", "--eval":
		if operand == "" {
			return a.usageError("-e needs an expression")
		}
		return a.handleEval(strings.Join(args[1:], " "))
	case "-d", "--disassemble":
		if operand == "" {
			return a.usageError("-d needs a file")
		}
		return a.handleDisassemble(operand)
	case "-f", "--format":
		if operand == "" {
			return a.usageError("-f needs a source file")
		}
		return a.handleFormat(operand)
	case "-c", "--compile":
		if operand == "" {
			return a.usageError("-c needs a source file")
		}
		return a.handleCompile(operand)
	case "-r", "--run":
		if operand == "" {
			return a.usageError("-r needs a compiled file")
		}
		return a.handleRunFile(operand)
	}
	if strings.HasPrefix(mode, "-") {
		return a.usageError(fmt.Sprintf("unknown flag %s", mode))
	}
	return a.handleRunFile(mode)
}

func (a *App) usageError(msg string) int {
	fmt.Fprintf(a.Stderr, "Error: %s\n\n%s", msg, usageText)
	return 2
}

// newEngine builds an engine writing to the app's output. With the debug
// flag the engine runs under a debugger driven from stdin.
func (a *App) newEngine() *numen.Engine {
	opts := []numen.Option{
		numen.WithConfig(a.cfg),
		numen.WithLogger(logger.GetLogger()),
		numen.WithOutput(a.Stdout),
	}
	var d *vm.Debugger
	if a.debug {
		d = vm.NewDebugger()
		d.Step()
		opts = append(opts, numen.WithDebugger(d))
	}
	eng := numen.New(opts...)
	if d != nil {
		dcli := vm.NewDebuggerCLI(d, eng.Machine(), eng.Natives())
		dcli.SetInput(a.Stdin)
		dcli.SetOutput(a.Stdout)
		dcli.Run()
	}
	return eng
}

// runContext is cancelled on interrupt, ending a wait on a pending future
func runContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func (a *App) handleEval(source string) int {
	eng := a.newEngine()
	defer eng.Close()
	ctx, cancel := runContext()
	defer cancel()

	res, err := eng.Interpret(ctx, source)
	return a.report(res, err)
}

func (a *App) handleStdin() int {
	data, err := io.ReadAll(a.Stdin)
	if err != nil {
		fmt.Fprintf(a.Stderr, "Error reading input: %s\n", err)
		return 1
	}
	if strings.TrimSpace(string(data)) == "" {
		return 0
	}
	return a.handleEval(string(data))
}

func (a *App) handleRunFile(path string) int {
	eng := a.newEngine()
	defer eng.Close()
	ctx, cancel := runContext()
	defer cancel()

	res, err := eng.RunFile(ctx, path)
	return a.report(res, err)
}

// report prints a defined result, or the error
func (a *App) report(res value.Value, err error) int {
	if err != nil {
		if errors.Is(err, vm.ErrDebuggerQuit) {
			return 0
		}
		a.printError(err)
		return 1
	}
	if !res.IsUndefined() {
		fmt.Fprintln(a.Stdout, a.paint(value.Inspect(res), colorResult))
	}
	return 0
}

func (a *App) printError(err error) {
	fmt.Fprintln(a.Stderr, a.paint("Error: "+err.Error(), colorError))
}

func (a *App) handleDisassemble(path string) int {
	eng := a.newEngine()
	defer eng.Close()

	var p *numen.Program
	var err error
	if config.IsCompiledFile(path) {
		p, err = eng.LoadBundleFile(path)
	} else {
		p, err = eng.CompileFile(path)
	}
	if err != nil {
		a.printError(err)
		return 1
	}
	fmt.Fprint(a.Stdout, p.Disassemble())
	return 0
}

// handleFormat prints the file reformatted. Comments are not kept, so the
// file itself is left alone.
func (a *App) handleFormat(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		a.printError(err)
		return 1
	}
	eng := a.newEngine()
	defer eng.Close()
	out, err := eng.Format(string(data))
	if err != nil {
		a.printError(err)
		return 1
	}
	fmt.Fprint(a.Stdout, out)
	return 0
}

func (a *App) handleCompile(path string) int {
	eng := a.newEngine()
	defer eng.Close()

	p, err := eng.CompileFile(path)
	if err != nil {
		a.printError(err)
		return 1
	}
	data, err := p.Bundle()
	if err != nil {
		fmt.Fprintf(a.Stderr, "Serialization error: %s\n", err)
		return 1
	}

	out := a.output
	if out == "" {
		out = config.TrimSourceExt(path) + config.CompiledFileExt
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		fmt.Fprintf(a.Stderr, "Error writing compiled file: %s\n", err)
		return 1
	}
	fmt.Fprintf(a.Stdout, "Compiled %s -> %s (%d bytes)\n", path, out, len(data))
	return 0
}

type color string

const (
	colorError  color = "\x1b[31m"
	colorResult color = "\x1b[94m"
	colorInfo   color = "\x1b[32m"
)

func (a *App) paint(s string, c color) string {
	if !a.color {
		return s
	}
	return string(c) + s + "\x1b[0m"
}

// isTerminal reports whether the stream is an interactive terminal
func isTerminal(stream any) bool {
	f, ok := stream.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
