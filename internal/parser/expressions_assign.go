package parser

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/token"
)

// compoundOperators maps x op= y to the binary operator it desugars into
var compoundOperators = map[token.TokenType]token.TokenType{
	token.PLUS_ASSIGN:     token.PLUS,
	token.MINUS_ASSIGN:    token.MINUS,
	token.ASTERISK_ASSIGN: token.ASTERISK,
	token.SLASH_ASSIGN:    token.SLASH,
	token.PERCENT_ASSIGN:  token.PERCENT,
	token.CARET_ASSIGN:    token.CARET,
}

// validateTarget reports whether e can be stored into
func (p *Parser) validateTarget(e ast.Expression, tok token.Token) bool {
	switch e.(type) {
	case *ast.Identifier, *ast.MemberExpression, *ast.IndexExpression:
		return true
	}
	p.addError(diagnostics.ErrP005, tok, "invalid assignment target %s", e.TokenLiteral())
	return false
}

// parseAssignExpression is right associative: a = b = c stores c in both.
func (p *Parser) parseAssignExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.validateTarget(left, tok) {
		return nil
	}
	p.nextToken() // consume '='
	p.skipNewlines()
	value := p.parseExpression(ASSIGN - 1)
	if value == nil {
		return nil
	}
	return &ast.AssignExpression{Token: tok, Target: left, Value: value}
}

// parseCompoundAssignExpression desugars x += y into x = x + y
func (p *Parser) parseCompoundAssignExpression(left ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.validateTarget(left, tok) {
		return nil
	}
	opType := compoundOperators[tok.Type]
	opToken := token.Token{Type: opType, Lexeme: string(opType), Line: tok.Line, Column: tok.Column}

	p.nextToken()
	p.skipNewlines()
	right := p.parseExpression(ASSIGN - 1)
	if right == nil {
		return nil
	}
	return &ast.AssignExpression{
		Token:  tok,
		Target: left,
		Value: &ast.InfixExpression{
			Token:    opToken,
			Operator: opToken.Lexeme,
			Left:     left,
			Right:    right,
		},
	}
}

// ++x and --x
func (p *Parser) parsePrefixUpdate() ast.Expression {
	tok := p.curToken
	p.nextToken()
	target := p.parseExpression(PREFIX)
	if target == nil || !p.validateTarget(target, tok) {
		return nil
	}
	return &ast.UpdateExpression{Token: tok, Operator: tok.Lexeme, Prefix: true, Target: target}
}

// x++ and x--
func (p *Parser) parsePostfixUpdate(left ast.Expression) ast.Expression {
	tok := p.curToken
	if !p.validateTarget(left, tok) {
		return nil
	}
	return &ast.UpdateExpression{Token: tok, Operator: tok.Lexeme, Target: left}
}
