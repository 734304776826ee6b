package parser

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/token"
)

// ParseProgram parses the whole token stream. Errors are collected on the
// pipeline context; the returned program holds every statement that parsed.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{Statements: []ast.Statement{}}
	program.Statements = p.parseStatementList(token.EOF)
	return program
}

// parseStatementList parses statements until curToken is end. Statements
// are separated by newlines or semicolons.
func (p *Parser) parseStatementList(end token.TokenType) []ast.Statement {
	stmts := []ast.Statement{}
	for !p.curTokenIs(end) {
		if p.curTokenIs(token.EOF) {
			p.addError(diagnostics.ErrP003, p.curToken, "expected %s, got %s", end, describe(p.curToken))
			return nil
		}
		if p.curTokenIs(token.NEWLINE) || p.curTokenIs(token.SEMICOLON) {
			p.nextToken()
			continue
		}

		stmt := p.parseStatement()
		if stmt != nil {
			stmts = append(stmts, stmt)
		} else {
			p.skipToStatementBoundary()
		}
		p.nextToken()

		switch p.curToken.Type {
		case token.NEWLINE, token.SEMICOLON, token.EOF, end:
		default:
			if stmt != nil {
				p.addError(diagnostics.ErrP001, p.curToken, "unexpected %s after statement", describe(p.curToken))
			}
			p.skipToStatementBoundary()
			p.nextToken()
		}
	}
	return stmts
}

func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.LET:
		return p.parseLetStatement()
	case token.FUNCTION:
		if p.peekTokenIs(token.IDENT) {
			return p.parseFunctionStatement()
		}
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	case token.BREAK:
		return &ast.BreakStatement{Token: p.curToken}
	case token.CONTINUE:
		return &ast.ContinueStatement{Token: p.curToken}
	}
	return p.parseExpressionStatement()
}

// parseLetStatement parses let x = e and let x
func (p *Parser) parseLetStatement() ast.Statement {
	stmt := &ast.LetStatement{Token: p.curToken}
	if !p.expectPeek(token.IDENT) {
		return nil
	}
	stmt.Name = &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme}

	if !p.peekTokenIs(token.ASSIGN) {
		return stmt
	}
	p.nextToken()
	p.nextToken()
	p.skipNewlines()
	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}
	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

// parseBlockStatement parses { stmts }. curToken is '{' and is left on '}'.
func (p *Parser) parseBlockStatement() *ast.BlockStatement {
	block := &ast.BlockStatement{Token: p.curToken}
	p.nextToken()
	block.Statements = p.parseStatementList(token.RBRACE)
	if block.Statements == nil {
		return nil
	}
	return block
}
