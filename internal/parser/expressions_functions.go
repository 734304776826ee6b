package parser

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/token"
)

// isLambdaAhead reports whether the '(' at curToken opens a lambda
// parameter list: (a, b) =>, (...xs) => or () =>.
func (p *Parser) isLambdaAhead() bool {
	for i := 0; ; i++ {
		switch p.lookahead(i).Type {
		case token.IDENT, token.COMMA, token.ELLIPSIS:
			continue
		case token.RPAREN:
			return p.lookahead(i+1).Type == token.ARROW
		default:
			return false
		}
	}
}

// parseLambdaExpression parses x => body and (params) => body.
// curToken is the lone parameter or the opening '('.
func (p *Parser) parseLambdaExpression() ast.Expression {
	lit := &ast.FunctionLiteral{Token: p.curToken}

	if p.curTokenIs(token.IDENT) {
		lit.Parameters = []*ast.Identifier{{Token: p.curToken, Value: p.curToken.Lexeme}}
	} else {
		params, variadic, ok := p.parseFunctionParameters()
		if !ok {
			return nil
		}
		lit.Parameters, lit.Variadic = params, variadic
	}

	if !p.expectPeek(token.ARROW) {
		return nil
	}
	p.nextToken()
	p.skipNewlines()

	if p.curTokenIs(token.LBRACE) {
		lit.Body = p.parseBlockStatement()
	} else {
		tok := p.curToken
		body := p.parseExpression(LOWEST)
		if body == nil {
			return nil
		}
		lit.Body = &ast.BlockStatement{
			Token:      tok,
			Statements: []ast.Statement{&ast.ExpressionStatement{Token: tok, Expression: body}},
		}
	}
	if lit.Body == nil {
		return nil
	}
	return lit
}

// parseFunctionLiteral parses function [name](params) { body }
func (p *Parser) parseFunctionLiteral() ast.Expression {
	lit := &ast.FunctionLiteral{Token: p.curToken}

	if p.peekTokenIs(token.IDENT) {
		p.nextToken()
		lit.Name = p.curToken.Lexeme
	}
	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	params, variadic, ok := p.parseFunctionParameters()
	if !ok {
		return nil
	}
	lit.Parameters, lit.Variadic = params, variadic

	p.skipPeekNewlines()
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	lit.Body = p.parseBlockStatement()
	if lit.Body == nil {
		return nil
	}
	return lit
}

// parseFunctionParameters parses (a, b, ...rest). curToken is '(' and
// is left on ')'. Only the last parameter may be variadic.
func (p *Parser) parseFunctionParameters() ([]*ast.Identifier, bool, bool) {
	params := []*ast.Identifier{}
	variadic := false

	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
		return params, false, true
	}

	for {
		p.nextToken()
		if variadic {
			p.addError(diagnostics.ErrP001, p.curToken, "variadic parameter must be last")
			return nil, false, false
		}
		if p.curTokenIs(token.ELLIPSIS) {
			variadic = true
			p.nextToken()
		}
		if !p.curTokenIs(token.IDENT) {
			p.addError(diagnostics.ErrP003, p.curToken, "expected parameter name, got %s", describe(p.curToken))
			return nil, false, false
		}
		params = append(params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Lexeme})

		if !p.peekTokenIs(token.COMMA) {
			break
		}
		p.nextToken()
	}

	if !p.expectPeek(token.RPAREN) {
		return nil, false, false
	}
	return params, variadic, true
}
