package pipeline

import (
	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/token"
)

// Processor is one stage of the front end
type Processor interface {
	Process(ctx *PipelineContext) *PipelineContext
}

// TokenStream is the lexer output consumed by the parser
type TokenStream interface {
	Next() token.Token
	// Peek returns up to n upcoming tokens without consuming them
	Peek(n int) []token.Token
}

// PipelineContext carries a compilation unit through the stages
type PipelineContext struct {
	SourceCode  string
	FilePath    string
	TokenStream TokenStream
	AstRoot     ast.Node

	// Unit is the compiled form, set by the compiler stage
	Unit any

	Errors []*diagnostics.DiagnosticError
}

func NewPipelineContext(source string) *PipelineContext {
	return &PipelineContext{SourceCode: source}
}

// Err joins collected diagnostics into one error, or returns nil
func (c *PipelineContext) Err() error {
	if len(c.Errors) == 0 {
		return nil
	}
	return &ErrorList{Errors: c.Errors}
}

type ErrorList struct {
	Errors []*diagnostics.DiagnosticError
}

func (e *ErrorList) Error() string {
	msg := e.Errors[0].Error()
	for _, d := range e.Errors[1:] {
		msg += "\n" + d.Error()
	}
	return msg
}

func (e *ErrorList) Unwrap() []error {
	out := make([]error, len(e.Errors))
	for i, d := range e.Errors {
		out[i] = d
	}
	return out
}
