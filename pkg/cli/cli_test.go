package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/numen/internal/config"
	"github.com/funvibe/numen/internal/logger"
	numen "github.com/funvibe/numen/pkg/embed"
)

func runMain(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := Main(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestEval(t *testing.T) {
	code, out, errOut := runMain(t, "", "-e", "[1, 2] * 3")
	if code != 0 || out != "[3, 6]\n" {
		t.Errorf("code %d, out %q, stderr %q", code, out, errOut)
	}

	code, out, _ = runMain(t, "", "-e", `print("hi")`)
	if code != 0 || out != "hi\n" {
		t.Errorf("print: code %d, out %q", code, out)
	}

	code, _, errOut = runMain(t, "", "-e", "m = 1; m.a = 2")
	if code != 1 || !strings.Contains(errOut, "cannot set property a") {
		t.Errorf("runtime error: code %d, stderr %q", code, errOut)
	}

	code, _, errOut = runMain(t, "", "-e", "(1 +")
	if code != 1 || !strings.HasPrefix(errOut, "Error: ") {
		t.Errorf("syntax error: code %d, stderr %q", code, errOut)
	}
}

func TestStdin(t *testing.T) {
	code, out, _ := runMain(t, "x = 4\nx ^ 2\n")
	if code != 0 || out != "16\n" {
		t.Errorf("code %d, out %q", code, out)
	}
	if code, out, _ := runMain(t, "  \n"); code != 0 || out != "" {
		t.Errorf("empty input: code %d, out %q", code, out)
	}
}

func TestRunAndCompileFiles(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "prog.nm", "total = 0\nfor i in 1..4 { total += i }\ntotal\n")

	code, out, errOut := runMain(t, "", src)
	if code != 0 || out != "10\n" {
		t.Fatalf("run: code %d, out %q, stderr %q", code, out, errOut)
	}

	code, out, errOut = runMain(t, "", "-c", src)
	if code != 0 || !strings.Contains(out, "prog"+config.CompiledFileExt) {
		t.Fatalf("compile: code %d, out %q, stderr %q", code, out, errOut)
	}
	compiled := filepath.Join(dir, "prog"+config.CompiledFileExt)

	code, out, _ = runMain(t, "", "-r", compiled)
	if code != 0 || out != "10\n" {
		t.Errorf("run compiled: code %d, out %q", code, out)
	}

	custom := filepath.Join(dir, "custom.bin")
	if code, _, errOut := runMain(t, "", "-c", src, "-o", custom); code != 0 {
		t.Fatalf("compile -o: %s", errOut)
	}
	if _, err := os.Stat(custom); err != nil {
		t.Errorf("output not written: %v", err)
	}

	code, out, _ = runMain(t, "", "-d", compiled)
	if code != 0 || !strings.Contains(out, "ITER_NEXT") {
		t.Errorf("disassemble: code %d, out %q", code, out)
	}

	code, _, errOut = runMain(t, "", filepath.Join(dir, "missing.nm"))
	if code != 1 || !strings.Contains(errOut, "missing.nm") {
		t.Errorf("missing file: code %d, stderr %q", code, errOut)
	}
}

func TestFormatFile(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "messy.nm", "x=1+2*3\ny=[1,2;3,4]\n")
	code, out, errOut := runMain(t, "", "-f", src)
	if code != 0 || out != "x = 1 + 2 * 3\ny = [1, 2; 3, 4]\n" {
		t.Errorf("code %d, out %q, stderr %q", code, out, errOut)
	}
	bad := writeFile(t, dir, "bad.nm", "(1 +")
	if code, _, _ := runMain(t, "", "-f", bad); code != 1 {
		t.Errorf("syntax error: code %d", code)
	}
	if code, _, _ := runMain(t, "", "-f"); code != 2 {
		t.Errorf("missing operand: code %d", code)
	}
}

func TestOptions(t *testing.T) {
	code, out, _ := runMain(t, "", "--help")
	if code != 0 || !strings.Contains(out, "Usage:") {
		t.Errorf("help: code %d, out %q", code, out)
	}

	if code, _, errOut := runMain(t, "", "--bogus"); code != 2 || !strings.Contains(errOut, "unknown flag --bogus") {
		t.Errorf("unknown flag: code %d, stderr %q", code, errOut)
	}
	if code, _, _ := runMain(t, "", "--log-level"); code != 2 {
		t.Errorf("missing flag value: code %d", code)
	}
	if code, _, _ := runMain(t, "", "--log-level=loud", "-e", "1"); code != 2 {
		t.Errorf("bad level: code %d", code)
	}

	dir := t.TempDir()
	cfg := writeFile(t, dir, "numen.toml", "currying = false\nlog_level = \"error\"\n")
	code, out, errOut := runMain(t, "", "--config", cfg, "-e", "f = (a, b) => a; typeof(f(1))")
	if code != 0 || out != "\"number\"\n" {
		t.Errorf("config: code %d, out %q, stderr %q", code, out, errOut)
	}
	bad := writeFile(t, dir, "bad.yaml", "max_call_depth: -1\n")
	if code, _, errOut := runMain(t, "", "--config="+bad, "-e", "1"); code != 1 || !strings.Contains(errOut, "max_call_depth") {
		t.Errorf("bad config: code %d, stderr %q", code, errOut)
	}
}

func TestDebugFlag(t *testing.T) {
	dir := t.TempDir()
	src := writeFile(t, dir, "dbg.nm", "a = 1\nb = a + 1\nb * 10\n")

	code, out, errOut := runMain(t, "n\np a\nc\n", "-g", src)
	if code != 0 {
		t.Fatalf("code %d, stderr %q", code, errOut)
	}
	for _, want := range []string{"Debugger started", "dbg.nm:1", "dbg.nm:2", "1\n", "20\n"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	code, _, _ = runMain(t, "q\n", "-g", src)
	if code != 0 {
		t.Errorf("quit: code %d", code)
	}
}

// scriptedLines feeds prepared lines to the REPL
type scriptedLines struct {
	lines   []string
	prompts []string
}

func (s *scriptedLines) Prompt(prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	if len(s.lines) == 0 {
		return "", io.EOF
	}
	line := s.lines[0]
	s.lines = s.lines[1:]
	return line, nil
}

func newTestRepl(t *testing.T, lines ...string) (*repl, *scriptedLines, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := &App{Stdout: &stdout, Stderr: &stderr, cfg: config.Default()}
	eng := numen.New(numen.WithLogger(logger.Discard()), numen.WithOutput(&stdout))
	t.Cleanup(func() { eng.Close() })
	in := &scriptedLines{lines: lines}
	var history []string
	r := &repl{app: app, eng: eng, in: in, history: func(s string) { history = append(history, s) }}
	return r, in, &stdout, &stderr
}

func TestRepl(t *testing.T) {
	r, in, stdout, stderr := newTestRepl(t,
		"x = 2",
		"f = n => {",
		"  n * x",
		"}",
		"f(21)",
		":vars",
		":dis 1 + 2",
		":fmt g=(a,b)=>a+b",
		":bogus",
		"nothing.a = 1",
		":help",
		":quit",
		"never read",
	)
	r.loop()

	out := stdout.String()
	for _, want := range []string{
		"2\n",
		"42\n",
		"  x = 2\n",
		"CALL",
		"g = (a, b) => a + b\n",
		"Unknown command :bogus",
		"REPL commands:",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "print =") {
		t.Errorf(":vars listed builtins:\n%s", out)
	}
	if stderr.Len() == 0 {
		t.Error("runtime error not reported")
	}
	if len(in.lines) != 1 {
		t.Errorf(":quit did not stop the loop, %d lines left", len(in.lines))
	}
	if in.prompts[2] != promptCont || in.prompts[3] != promptCont {
		t.Errorf("continuation prompts = %q", in.prompts)
	}
	if n := r.eng.Cache().Len(); n != 0 {
		t.Errorf("REPL lines were cached: %d units", n)
	}
}

func TestReplCancelledEvaluation(t *testing.T) {
	r, _, stdout, stderr := newTestRepl(t, "await future()", "1 + 1")
	r.newContext = func() (context.Context, context.CancelFunc) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx, cancel
	}
	r.loop()
	if !strings.Contains(stderr.String(), "Interrupted.") {
		t.Errorf("stderr = %q", stderr.String())
	}
	if !strings.Contains(stdout.String(), "2\n") {
		t.Errorf("REPL stopped after the interrupted line: %q", stdout.String())
	}
}

func TestReplEOF(t *testing.T) {
	r, _, stdout, _ := newTestRepl(t, ":vars")
	r.loop()
	if !strings.Contains(stdout.String(), "No variables defined.") {
		t.Errorf("output %q", stdout.String())
	}
}

func TestIncomplete(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{"1 + 2", false},
		{"f = n => {", true},
		{"f = n => {\n n }", false},
		{"[1, 2;", true},
		{`s = "(("`, false},
		{`s = '[' `, false},
		{"A' * (B", true},
		{"x = 1 // (", false},
		{"x = 1 /* {", true},
		{"x = 1 /* { */", false},
		{"}", false},
	}
	for _, tt := range tests {
		if got := incomplete(tt.src); got != tt.want {
			t.Errorf("incomplete(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}
