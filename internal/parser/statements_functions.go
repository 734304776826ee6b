package parser

import (
	"github.com/funvibe/numen/internal/ast"
)

// parseFunctionStatement parses function name(params) { body }. It binds
// name in the current scope like let name = function name(...) {...}.
func (p *Parser) parseFunctionStatement() ast.Statement {
	tok := p.curToken
	lit, ok := p.parseFunctionLiteral().(*ast.FunctionLiteral)
	if !ok || lit == nil {
		return nil
	}
	name := &ast.Identifier{Token: tok, Value: lit.Name}
	return &ast.FunctionStatement{Token: tok, Name: name, Function: lit}
}
