package parser

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/token"
	"github.com/funvibe/numen/internal/value"
)

// parseMatrixLiteral parses [a, b; c, d]. Commas separate elements and
// semicolons separate rows.
func (p *Parser) parseMatrixLiteral() ast.Expression {
	lit := &ast.MatrixLiteral{Token: p.curToken}
	if p.peekTokenIs(token.RBRACKET) {
		p.nextToken()
		return lit
	}

	var row []ast.Expression
	for {
		p.nextToken()
		el := p.parseExpression(LOWEST)
		if el == nil {
			return nil
		}
		row = append(row, el)

		switch {
		case p.peekTokenIs(token.COMMA):
			p.nextToken()
		case p.peekTokenIs(token.SEMICOLON):
			p.nextToken()
			lit.Rows = append(lit.Rows, row)
			row = nil
			if p.peekTokenIs(token.RBRACKET) {
				p.nextToken()
				return p.checkRectangular(lit)
			}
		case p.peekTokenIs(token.RBRACKET):
			p.nextToken()
			lit.Rows = append(lit.Rows, row)
			return p.checkRectangular(lit)
		default:
			p.peekError(token.RBRACKET)
			return nil
		}
	}
}

func (p *Parser) checkRectangular(lit *ast.MatrixLiteral) ast.Expression {
	want := len(lit.Rows[0])
	for i, row := range lit.Rows[1:] {
		if len(row) != want {
			p.addError(diagnostics.ErrP004, lit.Token,
				"matrix rows must have the same length: row %d has %d elements, expected %d", i+2, len(row), want)
			return nil
		}
	}
	return lit
}

// parseMapLiteral parses {key: value, ...}. Keys are identifiers, strings
// or numbers.
func (p *Parser) parseMapLiteral() ast.Expression {
	lit := &ast.MapLiteral{Token: p.curToken}
	p.skipPeekNewlines()
	if p.peekTokenIs(token.RBRACE) {
		p.nextToken()
		return lit
	}

	for {
		p.nextToken()
		p.skipNewlines()

		var key string
		switch p.curToken.Type {
		case token.IDENT:
			key = p.curToken.Lexeme
		case token.STRING:
			key = p.curToken.Literal.(string)
		case token.NUMBER:
			key = value.FormatNumber(p.curToken.Literal.(float64))
		default:
			if token.IsKeyword(p.curToken.Lexeme) {
				key = p.curToken.Lexeme
				break
			}
			p.addError(diagnostics.ErrP001, p.curToken, "invalid map key %s", describe(p.curToken))
			return nil
		}
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		p.skipNewlines()
		val := p.parseExpression(LOWEST)
		if val == nil {
			return nil
		}
		lit.Keys = append(lit.Keys, key)
		lit.Values = append(lit.Values, val)

		p.skipPeekNewlines()
		switch {
		case p.peekTokenIs(token.COMMA):
			p.nextToken()
			p.skipPeekNewlines()
			if p.peekTokenIs(token.RBRACE) {
				p.nextToken()
				return lit
			}
		case p.peekTokenIs(token.RBRACE):
			p.nextToken()
			return lit
		default:
			p.peekError(token.RBRACE)
			return nil
		}
	}
}
