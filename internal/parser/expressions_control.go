package parser

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/token"
)

// parseConditionalExpression parses c ? primary : secondary
func (p *Parser) parseConditionalExpression(condition ast.Expression) ast.Expression {
	exp := &ast.ConditionalExpression{Token: p.curToken, Condition: condition}
	p.nextToken()
	p.skipNewlines()
	exp.Primary = p.parseExpression(LOWEST)
	if exp.Primary == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek(token.COLON) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()
	exp.Secondary = p.parseExpression(TERNARY - 1)
	if exp.Secondary == nil {
		return nil
	}
	return exp
}

// parseRangeExpression parses from..to and from..to..step
func (p *Parser) parseRangeExpression(from ast.Expression) ast.Expression {
	exp := &ast.RangeExpression{Token: p.curToken, From: from}
	p.nextToken()
	exp.To = p.parseExpression(RANGE)
	if exp.To == nil {
		return nil
	}
	if p.peekTokenIs(token.DOT_DOT) {
		p.nextToken()
		p.nextToken()
		exp.Step = p.parseExpression(RANGE)
		if exp.Step == nil {
			return nil
		}
	}
	return exp
}
