package ast

import (
	"github.com/funvibe/numen/internal/token"
)

type Identifier struct {
	Token token.Token
	Value string
}

func (i *Identifier) Accept(v Visitor)      { v.VisitIdentifier(i) }
func (i *Identifier) expressionNode()       {}
func (i *Identifier) TokenLiteral() string  { return i.Token.Lexeme }
func (i *Identifier) GetToken() token.Token { return i.Token }

type NumberLiteral struct {
	Token token.Token
	Value float64
}

func (nl *NumberLiteral) Accept(v Visitor)      { v.VisitNumberLiteral(nl) }
func (nl *NumberLiteral) expressionNode()       {}
func (nl *NumberLiteral) TokenLiteral() string  { return nl.Token.Lexeme }
func (nl *NumberLiteral) GetToken() token.Token { return nl.Token }

// ImaginaryLiteral is a pure imaginary number such as 2i
type ImaginaryLiteral struct {
	Token token.Token
	Value float64
}

func (il *ImaginaryLiteral) Accept(v Visitor)      { v.VisitImaginaryLiteral(il) }
func (il *ImaginaryLiteral) expressionNode()       {}
func (il *ImaginaryLiteral) TokenLiteral() string  { return il.Token.Lexeme }
func (il *ImaginaryLiteral) GetToken() token.Token { return il.Token }

type StringLiteral struct {
	Token token.Token
	Value string
}

func (sl *StringLiteral) Accept(v Visitor)      { v.VisitStringLiteral(sl) }
func (sl *StringLiteral) expressionNode()       {}
func (sl *StringLiteral) TokenLiteral() string  { return sl.Token.Lexeme }
func (sl *StringLiteral) GetToken() token.Token { return sl.Token }

type BooleanLiteral struct {
	Token token.Token
	Value bool
}

func (b *BooleanLiteral) Accept(v Visitor)      { v.VisitBooleanLiteral(b) }
func (b *BooleanLiteral) expressionNode()       {}
func (b *BooleanLiteral) TokenLiteral() string  { return b.Token.Lexeme }
func (b *BooleanLiteral) GetToken() token.Token { return b.Token }

type UndefinedLiteral struct {
	Token token.Token
}

func (u *UndefinedLiteral) Accept(v Visitor)      { v.VisitUndefinedLiteral(u) }
func (u *UndefinedLiteral) expressionNode()       {}
func (u *UndefinedLiteral) TokenLiteral() string  { return u.Token.Lexeme }
func (u *UndefinedLiteral) GetToken() token.Token { return u.Token }

// MatrixLiteral is [a, b; c, d]. All rows have the same length.
type MatrixLiteral struct {
	Token token.Token
	Rows  [][]Expression
}

func (ml *MatrixLiteral) Accept(v Visitor)      { v.VisitMatrixLiteral(ml) }
func (ml *MatrixLiteral) expressionNode()       {}
func (ml *MatrixLiteral) TokenLiteral() string  { return ml.Token.Lexeme }
func (ml *MatrixLiteral) GetToken() token.Token { return ml.Token }

// MapLiteral is {a: 1, "b": 2}. Keys keep source order.
type MapLiteral struct {
	Token  token.Token
	Keys   []string
	Values []Expression
}

func (ml *MapLiteral) Accept(v Visitor)      { v.VisitMapLiteral(ml) }
func (ml *MapLiteral) expressionNode()       {}
func (ml *MapLiteral) TokenLiteral() string  { return ml.Token.Lexeme }
func (ml *MapLiteral) GetToken() token.Token { return ml.Token }

// RangeExpression is from..to or from..to..step
type RangeExpression struct {
	Token token.Token
	From  Expression
	To    Expression
	Step  Expression // may be nil
}

func (re *RangeExpression) Accept(v Visitor)      { v.VisitRangeExpression(re) }
func (re *RangeExpression) expressionNode()       {}
func (re *RangeExpression) TokenLiteral() string  { return re.Token.Lexeme }
func (re *RangeExpression) GetToken() token.Token { return re.Token }

type PrefixExpression struct {
	Token    token.Token
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) Accept(v Visitor)      { v.VisitPrefixExpression(pe) }
func (pe *PrefixExpression) expressionNode()       {}
func (pe *PrefixExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PrefixExpression) GetToken() token.Token { return pe.Token }

type InfixExpression struct {
	Token    token.Token
	Left     Expression
	Operator string
	Right    Expression
}

func (ie *InfixExpression) Accept(v Visitor)      { v.VisitInfixExpression(ie) }
func (ie *InfixExpression) expressionNode()       {}
func (ie *InfixExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *InfixExpression) GetToken() token.Token { return ie.Token }

// PostfixExpression is the transpose A'
type PostfixExpression struct {
	Token    token.Token
	Operator string
	Left     Expression
}

func (pe *PostfixExpression) Accept(v Visitor)      { v.VisitPostfixExpression(pe) }
func (pe *PostfixExpression) expressionNode()       {}
func (pe *PostfixExpression) TokenLiteral() string  { return pe.Token.Lexeme }
func (pe *PostfixExpression) GetToken() token.Token { return pe.Token }

// ConditionalExpression is c ? primary : secondary
type ConditionalExpression struct {
	Token     token.Token
	Condition Expression
	Primary   Expression
	Secondary Expression
}

func (ce *ConditionalExpression) Accept(v Visitor)      { v.VisitConditionalExpression(ce) }
func (ce *ConditionalExpression) expressionNode()       {}
func (ce *ConditionalExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *ConditionalExpression) GetToken() token.Token { return ce.Token }

// AssignExpression stores Value into Target. Target is an Identifier,
// MemberExpression or IndexExpression.
type AssignExpression struct {
	Token  token.Token
	Target Expression
	Value  Expression
}

func (ae *AssignExpression) Accept(v Visitor)      { v.VisitAssignExpression(ae) }
func (ae *AssignExpression) expressionNode()       {}
func (ae *AssignExpression) TokenLiteral() string  { return ae.Token.Lexeme }
func (ae *AssignExpression) GetToken() token.Token { return ae.Token }

// UpdateExpression is ++x, x++, --x or x--
type UpdateExpression struct {
	Token    token.Token
	Operator string
	Prefix   bool
	Target   Expression
}

func (ue *UpdateExpression) Accept(v Visitor)      { v.VisitUpdateExpression(ue) }
func (ue *UpdateExpression) expressionNode()       {}
func (ue *UpdateExpression) TokenLiteral() string  { return ue.Token.Lexeme }
func (ue *UpdateExpression) GetToken() token.Token { return ue.Token }

// MemberExpression is obj.name
type MemberExpression struct {
	Token    token.Token
	Object   Expression
	Property string
}

func (me *MemberExpression) Accept(v Visitor)      { v.VisitMemberExpression(me) }
func (me *MemberExpression) expressionNode()       {}
func (me *MemberExpression) TokenLiteral() string  { return me.Token.Lexeme }
func (me *MemberExpression) GetToken() token.Token { return me.Token }

// IndexExpression is obj[i] or obj[i, j]
type IndexExpression struct {
	Token   token.Token
	Object  Expression
	Indices []Expression
}

func (ie *IndexExpression) Accept(v Visitor)      { v.VisitIndexExpression(ie) }
func (ie *IndexExpression) expressionNode()       {}
func (ie *IndexExpression) TokenLiteral() string  { return ie.Token.Lexeme }
func (ie *IndexExpression) GetToken() token.Token { return ie.Token }

type CallExpression struct {
	Token     token.Token
	Function  Expression
	Arguments []Expression
}

func (ce *CallExpression) Accept(v Visitor)      { v.VisitCallExpression(ce) }
func (ce *CallExpression) expressionNode()       {}
func (ce *CallExpression) TokenLiteral() string  { return ce.Token.Lexeme }
func (ce *CallExpression) GetToken() token.Token { return ce.Token }

// FunctionLiteral is a lambda or function body. Expression bodies are
// wrapped in a one-statement block.
type FunctionLiteral struct {
	Token      token.Token
	Name       string
	Parameters []*Identifier
	Variadic   bool // last parameter collects the remaining arguments
	Body       *BlockStatement
}

func (fl *FunctionLiteral) Accept(v Visitor)      { v.VisitFunctionLiteral(fl) }
func (fl *FunctionLiteral) expressionNode()       {}
func (fl *FunctionLiteral) TokenLiteral() string  { return fl.Token.Lexeme }
func (fl *FunctionLiteral) GetToken() token.Token { return fl.Token }

type AwaitExpression struct {
	Token token.Token
	Value Expression
}

func (ae *AwaitExpression) Accept(v Visitor)      { v.VisitAwaitExpression(ae) }
func (ae *AwaitExpression) expressionNode()       {}
func (ae *AwaitExpression) TokenLiteral() string  { return ae.Token.Lexeme }
func (ae *AwaitExpression) GetToken() token.Token { return ae.Token }
