package parser

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/token"
)

func (p *Parser) parseCallExpression(function ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Function: function}
	exp.Arguments = p.parseExpressionList(token.RPAREN)
	if exp.Arguments == nil {
		return nil
	}
	return exp
}

// parseExpressionList parses comma separated expressions up to end.
// curToken is the opening delimiter. It returns nil on error and an empty
// slice for an empty list.
func (p *Parser) parseExpressionList(end token.TokenType) []ast.Expression {
	list := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return list
	}

	for {
		p.nextToken()
		// Check if we hit end (trailing comma case)
		if p.curTokenIs(end) {
			return list
		}
		exp := p.parseExpression(LOWEST)
		if exp == nil {
			return nil
		}
		list = append(list, exp)
		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(end) {
		return nil
	}
	return list
}
