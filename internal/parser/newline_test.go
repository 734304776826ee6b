package parser_test

import (
	"testing"

	"github.com/funvibe/numen/internal/ast"
)

func TestNewline_AssignAfterEq(t *testing.T) {
	prog := parse(t, "x =\n    5 + 3")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
	assign, ok := stmtExpr(t, prog, 0).(*ast.AssignExpression)
	if !ok {
		t.Fatalf("expected AssignExpression, got %T", stmtExpr(t, prog, 0))
	}
	if _, ok := assign.Value.(*ast.InfixExpression); !ok {
		t.Errorf("expected infix value, got %T", assign.Value)
	}
}

func TestNewline_CompoundAssign(t *testing.T) {
	prog := parse(t, "x +=\n    10")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
}

func TestNewline_AfterOperator(t *testing.T) {
	prog := parse(t, "a = 1 +\n  2")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
}

func TestNewline_ElseNewline(t *testing.T) {
	prog := parse(t, "if true { 1 }\nelse\n{ 2 }")
	is, ok := prog.Statements[0].(*ast.IfStatement)
	if !ok {
		t.Fatalf("expected IfStatement, got %T", prog.Statements[0])
	}
	if is.Alternative == nil {
		t.Error("expected else branch")
	}
}

func TestNewline_ElseIfNewline(t *testing.T) {
	prog := parse(t, "if true { 1 }\nelse\nif false { 2 } else { 3 }")
	is := prog.Statements[0].(*ast.IfStatement)
	if _, ok := is.Alternative.(*ast.IfStatement); !ok {
		t.Errorf("expected else-if, got %T", is.Alternative)
	}
}

func TestNewline_IfWithoutElse(t *testing.T) {
	prog := parse(t, "if true { 1 }\n\nx = 2")
	if len(prog.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(prog.Statements))
	}
}

func TestNewline_ForInNewline(t *testing.T) {
	prog := parse(t, "for x in\n    [1, 2, 3] {\n    print(x)\n}")
	if _, ok := prog.Statements[0].(*ast.ForStatement); !ok {
		t.Fatalf("expected ForStatement, got %T", prog.Statements[0])
	}
}

func TestNewline_LambdaArrowNewline(t *testing.T) {
	prog := parse(t, "f = (x) =>\n    x + 1")
	assign := stmtExpr(t, prog, 0).(*ast.AssignExpression)
	if _, ok := assign.Value.(*ast.FunctionLiteral); !ok {
		t.Fatalf("expected lambda, got %T", assign.Value)
	}
}

func TestNewline_IndexNewline(t *testing.T) {
	prog := parse(t, "x[\n    1\n]")
	if _, ok := stmtExpr(t, prog, 0).(*ast.IndexExpression); !ok {
		t.Fatalf("expected IndexExpression, got %T", stmtExpr(t, prog, 0))
	}
}

func TestNewline_CallArgsNewline(t *testing.T) {
	prog := parse(t, "f(1,\n  2,\n  3)")
	call := stmtExpr(t, prog, 0).(*ast.CallExpression)
	if len(call.Arguments) != 3 {
		t.Errorf("expected 3 args, got %d", len(call.Arguments))
	}
}

func TestNewline_MatrixLiteralNewline(t *testing.T) {
	prog := parse(t, "A = [1, 2;\n     3, 4]")
	assign := stmtExpr(t, prog, 0).(*ast.AssignExpression)
	m := assign.Value.(*ast.MatrixLiteral)
	if len(m.Rows) != 2 || len(m.Rows[1]) != 2 {
		t.Errorf("expected 2x2 literal, got %d rows", len(m.Rows))
	}
}

func TestNewline_MapLiteralNewline(t *testing.T) {
	prog := parse(t, "m = {\n  a: 1,\n  b: 2,\n}")
	assign := stmtExpr(t, prog, 0).(*ast.AssignExpression)
	m := assign.Value.(*ast.MapLiteral)
	if len(m.Keys) != 2 || m.Keys[1] != "b" {
		t.Errorf("unexpected keys %v", m.Keys)
	}
}

func TestNewline_TernaryNewline(t *testing.T) {
	prog := parse(t, "x = c ?\n  1 :\n  2")
	if len(prog.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(prog.Statements))
	}
}
