package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/peterh/liner"

	"github.com/funvibe/numen/internal/value"
	numen "github.com/funvibe/numen/pkg/embed"
)

const (
	historyFile = ".numen_history"
	promptMain  = "> "
	promptCont  = "... "
)

const replHelp = `REPL commands:
  :help          Show this help
  :quit          Exit the REPL
  :dis <expr>    Print the bytecode of an expression
  :fmt <code>    Print code in canonical layout
  :vars          List user-defined globals
Ctrl+C cancels input or a running evaluation, Ctrl+D exits.
`

// lineReader is the part of liner.State the REPL uses
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// repl evaluates input statements against one engine. Each evaluation
// runs under a fresh context from newContext.
type repl struct {
	app        *App
	eng        *numen.Engine
	in         lineReader
	history    func(string)
	newContext func() (context.Context, context.CancelFunc)
}

func (a *App) handleRepl() int {
	fmt.Fprintln(a.Stdout, a.paint("Numen REPL. Type :help for commands.", colorInfo))

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		ln.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			ln.WriteHistory(f)
			f.Close()
		}
	}()

	eng := a.newEngine()
	defer eng.Close()
	r := &repl{app: a, eng: eng, in: ln, history: ln.AppendHistory, newContext: runContext}
	r.loop()
	return 0
}

func (r *repl) loop() {
	out := r.app.Stdout
	for {
		src, ok := r.read()
		if !ok {
			fmt.Fprintln(out)
			return
		}
		line := strings.TrimSpace(src)
		if line == "" {
			continue
		}
		if r.history != nil {
			r.history(strings.ReplaceAll(src, "\n", " "))
		}

		if strings.HasPrefix(line, ":") {
			if !r.command(line) {
				return
			}
			continue
		}

		res, err := r.eval(src)
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(r.app.Stderr, r.app.paint("Interrupted.", colorError))
			continue
		}
		if err != nil {
			r.app.printError(err)
			continue
		}
		if !res.IsUndefined() {
			fmt.Fprintln(out, r.app.paint(value.Inspect(res), colorResult))
		}
	}
}

// eval runs one input without caching its unit
func (r *repl) eval(src string) (value.Value, error) {
	newContext := r.newContext
	if newContext == nil {
		newContext = runContext
	}
	ctx, cancel := newContext()
	defer cancel()
	return r.eng.Exec(ctx, src)
}

// read collects lines until brackets balance. It reports false at end of
// input.
func (r *repl) read() (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := r.in.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", true
		}
		if err != nil {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

// command runs a REPL command; it returns false when the REPL should exit
func (r *repl) command(line string) bool {
	out := r.app.Stdout
	name, arg, _ := strings.Cut(line, " ")
	switch name {
	case ":quit", ":q", ":exit":
		return false
	case ":help", ":h":
		fmt.Fprint(out, replHelp)
	case ":dis":
		if strings.TrimSpace(arg) == "" {
			fmt.Fprintln(out, "usage: :dis <expr>")
			return true
		}
		listing, err := r.eng.Disassemble(arg)
		if err != nil {
			r.app.printError(err)
			return true
		}
		fmt.Fprint(out, listing)
	case ":fmt":
		formatted, err := r.eng.Format(arg)
		if err != nil {
			r.app.printError(err)
			return true
		}
		fmt.Fprint(out, formatted)
	case ":vars":
		r.printVars()
	default:
		fmt.Fprintf(out, "Unknown command %s. Type :help for commands.\n", name)
	}
	return true
}

func (r *repl) printVars() {
	vars := r.eng.Scope().Vars()
	var names []string
	vars.Range(func(name string, v value.Value) bool {
		if fn, ok := v.AsFunction(); ok && fn.Origin == value.OriginNative {
			return true
		}
		names = append(names, name)
		return true
	})
	if len(names) == 0 {
		fmt.Fprintln(r.app.Stdout, "No variables defined.")
		return
	}
	slices.Sort(names)
	for _, name := range names {
		v, _ := vars.Get(name)
		fmt.Fprintf(r.app.Stdout, "  %s = %s\n", name, value.Inspect(v))
	}
}

// incomplete reports whether src has unclosed brackets or an unterminated
// block comment, ignoring brackets inside strings and comments
func incomplete(src string) bool {
	depth := 0
	var quote byte
	for i := 0; i < len(src); i++ {
		c := src[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			// A quote after an operand is the transpose operator
			if c == '\'' && i > 0 && isOperandEnd(src[i-1]) {
				continue
			}
			quote = c
		case '/':
			if i+1 < len(src) && src[i+1] == '/' {
				for i < len(src) && src[i] != '\n' {
					i++
				}
			} else if i+1 < len(src) && src[i+1] == '*' {
				end := strings.Index(src[i+2:], "*/")
				if end < 0 {
					return true
				}
				i += end + 3
			}
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		}
	}
	return depth > 0
}

func isOperandEnd(c byte) bool {
	return c == ')' || c == ']' || c == '_' || c == '\'' ||
		('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') || ('0' <= c && c <= '9')
}
