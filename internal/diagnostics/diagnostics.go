package diagnostics

import (
	"fmt"

	"github.com/funvibe/numen/internal/token"
)

// Error codes
const (
	ErrL001 = "L001" // illegal character or malformed literal

	ErrP001 = "P001" // unexpected token
	ErrP002 = "P002" // no expression starts with this token
	ErrP003 = "P003" // expected token missing
	ErrP004 = "P004" // matrix rows of different length
	ErrP005 = "P005" // invalid assignment target
	ErrP006 = "P006" // nesting too deep

	ErrC001 = "C001" // compilation failure
	ErrC002 = "C002" // break or continue outside a loop
)

// DiagnosticError is a front-end error tied to a source position
type DiagnosticError struct {
	Code    string
	Token   token.Token
	Message string
	File    string
}

func NewError(code string, tok token.Token, message string) *DiagnosticError {
	return &DiagnosticError{Code: code, Token: tok, Message: message}
}

func (e *DiagnosticError) Error() string {
	pos := fmt.Sprintf("%d:%d", e.Token.Line, e.Token.Column)
	if e.File != "" {
		pos = e.File + ":" + pos
	}
	return fmt.Sprintf("%s: [%s] %s", pos, e.Code, e.Message)
}
