package ast

import (
	"github.com/funvibe/numen/internal/token"
)

// TokenProvider is an interface for any AST node that can provide its primary token.
// This is useful for error reporting.
type TokenProvider interface {
	GetToken() token.Token
}

// Node is the base interface for all AST nodes.
type Node interface {
	TokenLiteral() string
	Accept(v Visitor)
}

// Statement is a Node that represents a statement.
type Statement interface {
	Node
	statementNode()
	GetToken() token.Token
}

// Expression is a Node that represents an expression.
type Expression interface {
	Node
	expressionNode()
	GetToken() token.Token
}

// Program is the root node of every AST our parser produces.
type Program struct {
	File       string // Source file path
	Statements []Statement
}

func (p *Program) Accept(v Visitor) { v.VisitProgram(p) }
func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

// ExpressionStatement wraps an expression used as a statement.
type ExpressionStatement struct {
	Token      token.Token
	Expression Expression
}

func (es *ExpressionStatement) Accept(v Visitor)      { v.VisitExpressionStatement(es) }
func (es *ExpressionStatement) statementNode()        {}
func (es *ExpressionStatement) TokenLiteral() string  { return es.Token.Lexeme }
func (es *ExpressionStatement) GetToken() token.Token { return es.Token }

// LetStatement declares a fresh binding in the current scope.
// let x = 1
type LetStatement struct {
	Token token.Token // the 'let' token
	Name  *Identifier
	Value Expression // nil declares undefined
}

func (ls *LetStatement) Accept(v Visitor)      { v.VisitLetStatement(ls) }
func (ls *LetStatement) statementNode()        {}
func (ls *LetStatement) TokenLiteral() string  { return ls.Token.Lexeme }
func (ls *LetStatement) GetToken() token.Token { return ls.Token }

// FunctionStatement declares a named function.
// function f(a, b) { ... }
type FunctionStatement struct {
	Token    token.Token
	Name     *Identifier
	Function *FunctionLiteral
}

func (fs *FunctionStatement) Accept(v Visitor)      { v.VisitFunctionStatement(fs) }
func (fs *FunctionStatement) statementNode()        {}
func (fs *FunctionStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *FunctionStatement) GetToken() token.Token { return fs.Token }

type ReturnStatement struct {
	Token token.Token
	Value Expression // may be nil
}

func (rs *ReturnStatement) Accept(v Visitor)      { v.VisitReturnStatement(rs) }
func (rs *ReturnStatement) statementNode()        {}
func (rs *ReturnStatement) TokenLiteral() string  { return rs.Token.Lexeme }
func (rs *ReturnStatement) GetToken() token.Token { return rs.Token }

// BlockStatement is a braced statement list. It shares the enclosing scope.
type BlockStatement struct {
	Token      token.Token
	Statements []Statement
}

func (bs *BlockStatement) Accept(v Visitor)      { v.VisitBlockStatement(bs) }
func (bs *BlockStatement) statementNode()        {}
func (bs *BlockStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BlockStatement) GetToken() token.Token { return bs.Token }

type IfStatement struct {
	Token       token.Token
	Condition   Expression
	Consequence *BlockStatement
	Alternative Statement // *BlockStatement, *IfStatement or nil
}

func (is *IfStatement) Accept(v Visitor)      { v.VisitIfStatement(is) }
func (is *IfStatement) statementNode()        {}
func (is *IfStatement) TokenLiteral() string  { return is.Token.Lexeme }
func (is *IfStatement) GetToken() token.Token { return is.Token }

type WhileStatement struct {
	Token     token.Token
	Condition Expression
	Body      *BlockStatement
}

func (ws *WhileStatement) Accept(v Visitor)      { v.VisitWhileStatement(ws) }
func (ws *WhileStatement) statementNode()        {}
func (ws *WhileStatement) TokenLiteral() string  { return ws.Token.Lexeme }
func (ws *WhileStatement) GetToken() token.Token { return ws.Token }

// ForStatement iterates matrix elements or map keys.
// for x in expr { ... }
type ForStatement struct {
	Token    token.Token
	Variable *Identifier
	Iterable Expression
	Body     *BlockStatement
}

func (fs *ForStatement) Accept(v Visitor)      { v.VisitForStatement(fs) }
func (fs *ForStatement) statementNode()        {}
func (fs *ForStatement) TokenLiteral() string  { return fs.Token.Lexeme }
func (fs *ForStatement) GetToken() token.Token { return fs.Token }

type BreakStatement struct {
	Token token.Token
}

func (bs *BreakStatement) Accept(v Visitor)      { v.VisitBreakStatement(bs) }
func (bs *BreakStatement) statementNode()        {}
func (bs *BreakStatement) TokenLiteral() string  { return bs.Token.Lexeme }
func (bs *BreakStatement) GetToken() token.Token { return bs.Token }

type ContinueStatement struct {
	Token token.Token
}

func (cs *ContinueStatement) Accept(v Visitor)      { v.VisitContinueStatement(cs) }
func (cs *ContinueStatement) statementNode()        {}
func (cs *ContinueStatement) TokenLiteral() string  { return cs.Token.Lexeme }
func (cs *ContinueStatement) GetToken() token.Token { return cs.Token }
