package parser

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/token"
)

// parseIndexExpression parses obj[i] and obj[i, j]
func (p *Parser) parseIndexExpression(left ast.Expression) ast.Expression {
	exp := &ast.IndexExpression{Token: p.curToken, Object: left}
	exp.Indices = p.parseExpressionList(token.RBRACKET)
	if exp.Indices == nil {
		return nil
	}
	if len(exp.Indices) == 0 {
		p.addError(diagnostics.ErrP001, exp.Token, "empty index")
		return nil
	}
	return exp
}

// parseMemberExpression parses obj.name. Keywords are allowed as names.
func (p *Parser) parseMemberExpression(left ast.Expression) ast.Expression {
	exp := &ast.MemberExpression{Token: p.curToken, Object: left}
	p.nextToken()
	if !p.curTokenIs(token.IDENT) && !token.IsKeyword(p.curToken.Lexeme) {
		p.addError(diagnostics.ErrP003, p.curToken, "expected member name after '.', got %s", describe(p.curToken))
		return nil
	}
	exp.Property = p.curToken.Lexeme
	return exp
}
