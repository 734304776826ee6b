package parser_test

import (
	"strings"
	"testing"

	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/lexer"
	"github.com/funvibe/numen/internal/parser"
	"github.com/funvibe/numen/internal/pipeline"
)

// parseWithErrors runs the lexer+parser and returns all diagnostic errors.
func parseWithErrors(input string) []*diagnostics.DiagnosticError {
	ctx := &pipeline.PipelineContext{SourceCode: input}
	lp := &lexer.LexerProcessor{}
	ctx = lp.Process(ctx)
	pp := &parser.ParserProcessor{}
	ctx = pp.Process(ctx)
	return ctx.Errors
}

// expectError asserts an error with the given code was reported.
func expectError(t *testing.T, input string, code string) *diagnostics.DiagnosticError {
	t.Helper()
	errs := parseWithErrors(input)
	if len(errs) == 0 {
		t.Fatalf("expected error %s, but got none\ninput: %s", code, input)
	}
	for _, e := range errs {
		if e.Code == code {
			return e
		}
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, e.Error())
	}
	t.Fatalf("expected error %s, got:\n%s\ninput: %s", code, strings.Join(msgs, "\n"), input)
	return nil
}

func TestL001_IllegalCharacter(t *testing.T) {
	errs := parseWithErrors("a = 1 # 2")
	if len(errs) == 0 || errs[0].Code != diagnostics.ErrL001 {
		t.Fatalf("expected L001 first, got %v", errs)
	}
	for _, e := range errs {
		if e.Code == diagnostics.ErrP002 {
			t.Errorf("illegal token reported twice: %s", e)
		}
	}
}

func TestP001_MissingSeparator(t *testing.T) {
	expectError(t, "a b", diagnostics.ErrP001)
}

func TestP001_VariadicNotLast(t *testing.T) {
	expectError(t, "(...a, b) => a", diagnostics.ErrP001)
}

func TestP002_NoPrefix(t *testing.T) {
	e := expectError(t, "x = )", diagnostics.ErrP002)
	if e.Token.Line != 1 || e.Token.Column != 5 {
		t.Errorf("expected position 1:5, got %d:%d", e.Token.Line, e.Token.Column)
	}
}

func TestP003_UnclosedGroup(t *testing.T) {
	expectError(t, "(1 + 2", diagnostics.ErrP003)
}

func TestP003_UnclosedBlock(t *testing.T) {
	expectError(t, "while true {\n x = 1\n", diagnostics.ErrP003)
}

func TestP003_MissingColon(t *testing.T) {
	expectError(t, "c ? 1 2", diagnostics.ErrP003)
}

func TestP004_RaggedMatrix(t *testing.T) {
	e := expectError(t, "[1, 2; 3]", diagnostics.ErrP004)
	if !strings.Contains(e.Message, "row 2") {
		t.Errorf("message should name the row: %s", e.Message)
	}
}

func TestP005_InvalidTarget(t *testing.T) {
	expectError(t, "1 = 2", diagnostics.ErrP005)
	expectError(t, "f(x) = 2", diagnostics.ErrP005)
	expectError(t, "(a + b) += 1", diagnostics.ErrP005)
	expectError(t, "3++", diagnostics.ErrP005)
}

func TestP006_TooDeep(t *testing.T) {
	src := strings.Repeat("(", 600) + "1" + strings.Repeat(")", 600)
	expectError(t, src, diagnostics.ErrP006)
}

func TestRecovery_ContinuesAfterError(t *testing.T) {
	errs := parseWithErrors("a = )\nb = ]\nc = 1")
	if len(errs) != 2 {
		var msgs []string
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		t.Fatalf("expected 2 errors, got %d:\n%s", len(errs), strings.Join(msgs, "\n"))
	}
	if errs[1].Token.Line != 2 {
		t.Errorf("second error should be on line 2, got %d", errs[1].Token.Line)
	}
}
