package parser

import (
	"fmt"

	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/pipeline"
	"github.com/funvibe/numen/internal/token"
)

// MaxRecursionDepth bounds expression nesting
const MaxRecursionDepth = 512

const (
	_ int = iota
	LOWEST
	ASSIGN      // = += -=
	TERNARY     // c ? a : b
	LOGICAL_OR  // ||
	LOGICAL_AND // &&
	EQUALS      // == !=
	LESSGREATER // < <= > >=
	RANGE       // a..b
	SUM         // + -
	PRODUCT     // * / % .* ./
	PREFIX      // -x !x
	POWER       // ^ .^
	POSTFIX     // x' x++
	CALL        // f(x) a[i] a.b
)

var precedences = map[token.TokenType]int{
	token.ASSIGN:          ASSIGN,
	token.PLUS_ASSIGN:     ASSIGN,
	token.MINUS_ASSIGN:    ASSIGN,
	token.ASTERISK_ASSIGN: ASSIGN,
	token.SLASH_ASSIGN:    ASSIGN,
	token.PERCENT_ASSIGN:  ASSIGN,
	token.CARET_ASSIGN:    ASSIGN,
	token.QUESTION:        TERNARY,
	token.OR:              LOGICAL_OR,
	token.AND:             LOGICAL_AND,
	token.EQ:              EQUALS,
	token.NOT_EQ:          EQUALS,
	token.LT:              LESSGREATER,
	token.LTE:             LESSGREATER,
	token.GT:              LESSGREATER,
	token.GTE:             LESSGREATER,
	token.DOT_DOT:         RANGE,
	token.PLUS:            SUM,
	token.MINUS:           SUM,
	token.ASTERISK:        PRODUCT,
	token.SLASH:           PRODUCT,
	token.PERCENT:         PRODUCT,
	token.DOT_ASTERISK:    PRODUCT,
	token.DOT_SLASH:       PRODUCT,
	token.CARET:           POWER,
	token.DOT_CARET:       POWER,
	token.APOSTROPHE:      POSTFIX,
	token.INCREMENT:       POSTFIX,
	token.DECREMENT:       POSTFIX,
	token.LPAREN:          CALL,
	token.LBRACKET:        CALL,
	token.DOT:             CALL,
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

type Parser struct {
	stream pipeline.TokenStream
	ctx    *pipeline.PipelineContext

	curToken  token.Token
	peekToken token.Token

	prefixParseFns map[token.TokenType]prefixParseFn
	infixParseFns  map[token.TokenType]infixParseFn

	depth int
}

func New(stream pipeline.TokenStream, ctx *pipeline.PipelineContext) *Parser {
	p := &Parser{
		stream:         stream,
		ctx:            ctx,
		prefixParseFns: make(map[token.TokenType]prefixParseFn),
		infixParseFns:  make(map[token.TokenType]infixParseFn),
	}

	p.registerPrefix(token.IDENT, p.parseIdentifier)
	p.registerPrefix(token.NUMBER, p.parseNumberLiteral)
	p.registerPrefix(token.IMAGINARY, p.parseImaginaryLiteral)
	p.registerPrefix(token.STRING, p.parseStringLiteral)
	p.registerPrefix(token.TRUE, p.parseBoolean)
	p.registerPrefix(token.FALSE, p.parseBoolean)
	p.registerPrefix(token.UNDEFINED, p.parseUndefined)
	p.registerPrefix(token.MINUS, p.parsePrefixExpression)
	p.registerPrefix(token.PLUS, p.parsePrefixExpression)
	p.registerPrefix(token.BANG, p.parsePrefixExpression)
	p.registerPrefix(token.INCREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.DECREMENT, p.parsePrefixUpdate)
	p.registerPrefix(token.LPAREN, p.parseGroupedExpression)
	p.registerPrefix(token.LBRACKET, p.parseMatrixLiteral)
	p.registerPrefix(token.LBRACE, p.parseMapLiteral)
	p.registerPrefix(token.FUNCTION, p.parseFunctionLiteral)
	p.registerPrefix(token.AWAIT, p.parseAwaitExpression)

	for _, t := range []token.TokenType{
		token.PLUS, token.MINUS, token.ASTERISK, token.SLASH, token.PERCENT,
		token.DOT_ASTERISK, token.DOT_SLASH,
		token.EQ, token.NOT_EQ, token.LT, token.LTE, token.GT, token.GTE,
		token.AND, token.OR,
	} {
		p.registerInfix(t, p.parseInfixExpression)
	}
	p.registerInfix(token.CARET, p.parseRightAssocInfixExpression)
	p.registerInfix(token.DOT_CARET, p.parseRightAssocInfixExpression)
	p.registerInfix(token.APOSTROPHE, p.parsePostfixExpression)
	p.registerInfix(token.INCREMENT, p.parsePostfixUpdate)
	p.registerInfix(token.DECREMENT, p.parsePostfixUpdate)
	p.registerInfix(token.DOT_DOT, p.parseRangeExpression)
	p.registerInfix(token.QUESTION, p.parseConditionalExpression)
	p.registerInfix(token.LPAREN, p.parseCallExpression)
	p.registerInfix(token.LBRACKET, p.parseIndexExpression)
	p.registerInfix(token.DOT, p.parseMemberExpression)
	p.registerInfix(token.ASSIGN, p.parseAssignExpression)
	for t := range compoundOperators {
		p.registerInfix(t, p.parseCompoundAssignExpression)
	}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()
	return p
}

func (p *Parser) registerPrefix(t token.TokenType, fn prefixParseFn) { p.prefixParseFns[t] = fn }

func (p *Parser) registerInfix(t token.TokenType, fn infixParseFn) { p.infixParseFns[t] = fn }

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.stream.Next()
}

// lookahead returns the i-th token after curToken; 0 is peekToken
func (p *Parser) lookahead(i int) token.Token {
	if i == 0 {
		return p.peekToken
	}
	toks := p.stream.Peek(i)
	if len(toks) < i {
		return token.Token{Type: token.EOF}
	}
	return toks[i-1]
}

func (p *Parser) curTokenIs(t token.TokenType) bool  { return p.curToken.Type == t }
func (p *Parser) peekTokenIs(t token.TokenType) bool { return p.peekToken.Type == t }

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) skipNewlines() {
	for p.curTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}

func (p *Parser) skipPeekNewlines() {
	for p.peekTokenIs(token.NEWLINE) {
		p.nextToken()
	}
}

func (p *Parser) addError(code string, tok token.Token, format string, args ...any) {
	err := diagnostics.NewError(code, tok, fmt.Sprintf(format, args...))
	err.File = p.ctx.FilePath
	p.ctx.Errors = append(p.ctx.Errors, err)
}

func (p *Parser) peekError(t token.TokenType) {
	p.addError(diagnostics.ErrP003, p.peekToken, "expected %s, got %s", t, describe(p.peekToken))
}

func (p *Parser) noPrefixParseFnError(tok token.Token) {
	if tok.Type == token.ILLEGAL {
		// already reported by the lexer
		return
	}
	p.addError(diagnostics.ErrP002, tok, "unexpected %s", describe(tok))
}

func describe(tok token.Token) string {
	switch tok.Type {
	case token.EOF:
		return "end of input"
	case token.NEWLINE:
		return "newline"
	case token.IDENT, token.NUMBER, token.STRING:
		return fmt.Sprintf("%s %s", tok.Type, tok.Lexeme)
	}
	return fmt.Sprintf("'%s'", tok.Lexeme)
}

// skipToStatementBoundary drops tokens up to the next separator
func (p *Parser) skipToStatementBoundary() {
	for !p.peekTokenIs(token.NEWLINE) && !p.peekTokenIs(token.SEMICOLON) &&
		!p.peekTokenIs(token.RBRACE) && !p.peekTokenIs(token.EOF) {
		p.nextToken()
	}
}
