package prettyprinter

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/value"
)

// --- Code Printer (Output looks like source code) ---

// Operator precedence (higher = binds tighter)
var operatorPrecedence = map[string]int{
	"||": 1,
	"&&": 2,
	"==": 3,
	"!=": 3,
	"<":  4,
	">":  4,
	"<=": 4,
	">=": 4,
	"..": 5,
	"+":  6,
	"-":  6,
	"*":  7,
	"/":  7,
	"%":  7,
	".*": 7,
	"./": 7,
	"^":  9, // right-assoc
	".^": 9,
}

// prefixPrecedence sits below power: -x^2 is -(x^2)
const prefixPrecedence = 8

func getPrecedence(op string) int {
	if p, ok := operatorPrecedence[op]; ok {
		return p
	}
	return 10 // Default high precedence for unknown ops
}

// Right-associative operators
var rightAssoc = map[string]bool{
	"^":  true,
	".^": true,
}

type CodePrinter struct {
	buf    bytes.Buffer
	indent int

	// explicit wraps every compound expression in parentheses
	explicit bool
}

func NewCodePrinter() *CodePrinter {
	return &CodePrinter{}
}

// NewExplicitPrinter prints the grouping the parser chose, e.g. (1 + (2 * 3))
func NewExplicitPrinter() *CodePrinter {
	return &CodePrinter{explicit: true}
}

// Print renders node as source code
func Print(node ast.Node) string {
	p := NewCodePrinter()
	node.Accept(p)
	return p.String()
}

// PrintExplicit renders node fully parenthesized
func PrintExplicit(node ast.Node) string {
	p := NewExplicitPrinter()
	node.Accept(p)
	return p.String()
}

func (p *CodePrinter) writeIndent() {
	for i := 0; i < p.indent; i++ {
		p.buf.WriteString("    ")
	}
}

// printExpr prints an expression, adding parentheses only if needed
func (p *CodePrinter) printExpr(expr ast.Expression, parentPrec int, isRight bool) {
	if expr == nil {
		p.write("<???>")
		return
	}
	switch e := expr.(type) {
	case *ast.InfixExpression:
		prec := getPrecedence(e.Operator)
		needParens := p.explicit || prec < parentPrec
		// For same precedence, check associativity
		if prec == parentPrec {
			if isRight && !rightAssoc[e.Operator] {
				needParens = true
			} else if !isRight && rightAssoc[e.Operator] {
				needParens = true
			}
		}
		if needParens {
			p.write("(")
		}
		p.printExpr(e.Left, prec, false)
		p.write(" " + e.Operator + " ")
		p.printExpr(e.Right, prec, true)
		if needParens {
			p.write(")")
		}
	case *ast.PrefixExpression:
		if p.explicit || parentPrec > prefixPrecedence {
			p.write("(")
			defer p.write(")")
		}
		p.write(e.Operator)
		p.printExpr(e.Right, prefixPrecedence, false)
	case *ast.AssignExpression, *ast.ConditionalExpression, *ast.RangeExpression, *ast.FunctionLiteral:
		if p.explicit || parentPrec > 0 {
			p.write("(")
			defer p.write(")")
		}
		expr.Accept(p)
	default:
		// For non-infix expressions, just use visitor
		expr.Accept(p)
	}
}

// printOperand prints the receiver of a call, index, member or postfix
func (p *CodePrinter) printOperand(expr ast.Expression) {
	p.printExpr(expr, 100, false)
}

func (p *CodePrinter) String() string {
	return p.buf.String()
}

func (p *CodePrinter) write(s string) {
	p.buf.WriteString(s)
}

func (p *CodePrinter) VisitProgram(n *ast.Program) {
	for _, stmt := range n.Statements {
		if stmt != nil {
			stmt.Accept(p)
		} else {
			p.write("<???>")
		}
		p.write("\n")
	}
}

func (p *CodePrinter) VisitExpressionStatement(n *ast.ExpressionStatement) {
	p.printExpr(n.Expression, 0, false)
}

func (p *CodePrinter) VisitLetStatement(n *ast.LetStatement) {
	p.write("let " + n.Name.Value)
	if n.Value != nil {
		p.write(" = ")
		p.printExpr(n.Value, 0, false)
	}
}

func (p *CodePrinter) VisitFunctionStatement(n *ast.FunctionStatement) {
	n.Function.Accept(p)
}

func (p *CodePrinter) VisitReturnStatement(n *ast.ReturnStatement) {
	p.write("return")
	if n.Value != nil {
		p.write(" ")
		p.printExpr(n.Value, 0, false)
	}
}

func (p *CodePrinter) VisitBlockStatement(n *ast.BlockStatement) {
	if len(n.Statements) == 0 {
		p.write("{}")
		return
	}
	p.write("{\n")
	p.indent++
	for _, stmt := range n.Statements {
		p.writeIndent()
		stmt.Accept(p)
		p.write("\n")
	}
	p.indent--
	p.writeIndent()
	p.write("}")
}

func (p *CodePrinter) VisitIfStatement(n *ast.IfStatement) {
	p.write("if ")
	p.printExpr(n.Condition, 0, false)
	p.write(" ")
	n.Consequence.Accept(p)
	if n.Alternative != nil {
		p.write(" else ")
		n.Alternative.Accept(p)
	}
}

func (p *CodePrinter) VisitWhileStatement(n *ast.WhileStatement) {
	p.write("while ")
	p.printExpr(n.Condition, 0, false)
	p.write(" ")
	n.Body.Accept(p)
}

func (p *CodePrinter) VisitForStatement(n *ast.ForStatement) {
	p.write("for " + n.Variable.Value + " in ")
	p.printExpr(n.Iterable, 0, false)
	p.write(" ")
	n.Body.Accept(p)
}

func (p *CodePrinter) VisitBreakStatement(n *ast.BreakStatement)       { p.write("break") }
func (p *CodePrinter) VisitContinueStatement(n *ast.ContinueStatement) { p.write("continue") }

func (p *CodePrinter) VisitIdentifier(n *ast.Identifier) { p.write(n.Value) }

func (p *CodePrinter) VisitNumberLiteral(n *ast.NumberLiteral) {
	p.write(value.FormatNumber(n.Value))
}

func (p *CodePrinter) VisitImaginaryLiteral(n *ast.ImaginaryLiteral) {
	p.write(value.FormatNumber(n.Value) + "i")
}

func (p *CodePrinter) VisitStringLiteral(n *ast.StringLiteral) {
	p.write(strconv.Quote(n.Value))
}

func (p *CodePrinter) VisitBooleanLiteral(n *ast.BooleanLiteral) {
	p.write(strconv.FormatBool(n.Value))
}

func (p *CodePrinter) VisitUndefinedLiteral(n *ast.UndefinedLiteral) { p.write("undefined") }

func (p *CodePrinter) VisitMatrixLiteral(n *ast.MatrixLiteral) {
	p.write("[")
	for i, row := range n.Rows {
		if i > 0 {
			p.write("; ")
		}
		for j, el := range row {
			if j > 0 {
				p.write(", ")
			}
			p.printExpr(el, 0, false)
		}
	}
	p.write("]")
}

func (p *CodePrinter) VisitMapLiteral(n *ast.MapLiteral) {
	if len(n.Keys) == 0 {
		p.write("{}")
		return
	}
	p.write("{")
	for i, k := range n.Keys {
		if i > 0 {
			p.write(", ")
		}
		if isPlainKey(k) {
			p.write(k)
		} else {
			p.write(strconv.Quote(k))
		}
		p.write(": ")
		p.printExpr(n.Values[i], 0, false)
	}
	p.write("}")
}

func isPlainKey(k string) bool {
	if k == "" {
		return false
	}
	for i, r := range k {
		if r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (i > 0 && r >= '0' && r <= '9') {
			continue
		}
		return false
	}
	return true
}

func (p *CodePrinter) VisitRangeExpression(n *ast.RangeExpression) {
	prec := getPrecedence("..")
	p.printExpr(n.From, prec+1, false)
	p.write("..")
	p.printExpr(n.To, prec+1, false)
	if n.Step != nil {
		p.write("..")
		p.printExpr(n.Step, prec+1, false)
	}
}

func (p *CodePrinter) VisitPrefixExpression(n *ast.PrefixExpression) {
	p.printExpr(n, 0, false)
}

func (p *CodePrinter) VisitInfixExpression(n *ast.InfixExpression) {
	// When called directly (not via printExpr), use lowest precedence context
	p.printExpr(n, 0, false)
}

func (p *CodePrinter) VisitPostfixExpression(n *ast.PostfixExpression) {
	p.printOperand(n.Left)
	p.write(n.Operator)
}

func (p *CodePrinter) VisitConditionalExpression(n *ast.ConditionalExpression) {
	p.printExpr(n.Condition, 1, false)
	p.write(" ? ")
	p.printExpr(n.Primary, 0, false)
	p.write(" : ")
	p.printExpr(n.Secondary, 0, false)
}

func (p *CodePrinter) VisitAssignExpression(n *ast.AssignExpression) {
	p.printOperand(n.Target)
	p.write(" = ")
	p.printExpr(n.Value, 0, false)
}

func (p *CodePrinter) VisitUpdateExpression(n *ast.UpdateExpression) {
	if n.Prefix {
		p.write(n.Operator)
		p.printOperand(n.Target)
		return
	}
	p.printOperand(n.Target)
	p.write(n.Operator)
}

func (p *CodePrinter) VisitMemberExpression(n *ast.MemberExpression) {
	p.printOperand(n.Object)
	p.write("." + n.Property)
}

func (p *CodePrinter) VisitIndexExpression(n *ast.IndexExpression) {
	p.printOperand(n.Object)
	p.write("[")
	p.printList(n.Indices)
	p.write("]")
}

func (p *CodePrinter) VisitCallExpression(n *ast.CallExpression) {
	p.printOperand(n.Function)
	p.write("(")
	p.printList(n.Arguments)
	p.write(")")
}

func (p *CodePrinter) printList(list []ast.Expression) {
	for i, e := range list {
		if i > 0 {
			p.write(", ")
		}
		p.printExpr(e, 0, false)
	}
}

func (p *CodePrinter) VisitFunctionLiteral(n *ast.FunctionLiteral) {
	names := make([]string, len(n.Parameters))
	for i, param := range n.Parameters {
		names[i] = param.Value
	}
	if n.Variadic && len(names) > 0 {
		names[len(names)-1] = "..." + names[len(names)-1]
	}
	params := "(" + strings.Join(names, ", ") + ")"

	// Expression-bodied lambdas print back as lambdas
	if n.Name == "" && len(n.Body.Statements) == 1 {
		if es, ok := n.Body.Statements[0].(*ast.ExpressionStatement); ok {
			p.write(params + " => ")
			p.printExpr(es.Expression, 0, false)
			return
		}
	}
	p.write("function")
	if n.Name != "" {
		p.write(" " + n.Name)
	}
	p.write(params + " ")
	n.Body.Accept(p)
}

func (p *CodePrinter) VisitAwaitExpression(n *ast.AwaitExpression) {
	p.write("await ")
	p.printOperand(n.Value)
}
