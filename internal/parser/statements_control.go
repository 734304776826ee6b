package parser

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/token"
)

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}
	switch p.peekToken.Type {
	case token.NEWLINE, token.SEMICOLON, token.RBRACE, token.EOF:
		return stmt
	}
	p.nextToken()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

// parseIfStatement parses if c { } else if c { } else { }. The else may
// start on the line after the closing brace.
func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Consequence = p.parseBlockStatement()
	if stmt.Consequence == nil {
		return nil
	}

	if !p.elseAhead() {
		return stmt
	}
	p.skipPeekNewlines()
	p.nextToken() // else

	switch {
	case p.peekTokenIs(token.IF):
		p.nextToken()
		alt := p.parseIfStatement()
		if alt == nil {
			return nil
		}
		stmt.Alternative = alt
	default:
		p.skipPeekNewlines()
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		alt := p.parseBlockStatement()
		if alt == nil {
			return nil
		}
		stmt.Alternative = alt
	}
	return stmt
}

// elseAhead reports whether the next non-newline token is 'else'
func (p *Parser) elseAhead() bool {
	for i := 0; ; i++ {
		switch p.lookahead(i).Type {
		case token.NEWLINE:
			continue
		case token.ELSE:
			return true
		default:
			return false
		}
	}
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}
	p.nextToken()
	stmt.Condition = p.parseExpression(LOWEST)
	if stmt.Condition == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}

// parseForStatement parses for x in expr { }
func (p *Parser) parseForStatement() ast.Statement {
	stmt := &ast.ForStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Variable = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}
	if !p.expectPeek(token.IN) {
		return nil
	}
	p.nextToken()
	stmt.Iterable = p.parseExpression(LOWEST)
	if stmt.Iterable == nil {
		return nil
	}
	p.skipPeekNewlines()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Body = p.parseBlockStatement()
	if stmt.Body == nil {
		return nil
	}
	return stmt
}
