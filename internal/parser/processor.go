package parser

import (
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/pipeline"
	"github.com/funvibe/numen/internal/token"
)

// ParserProcessor is the pipeline stage that builds ctx.AstRoot from the
// lexer's token stream
type ParserProcessor struct{}

func (pp *ParserProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	if ctx.TokenStream == nil {
		err := diagnostics.NewError(diagnostics.ErrP001, token.Token{}, "parser: no token stream")
		err.File = ctx.FilePath
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	prog := New(ctx.TokenStream, ctx).ParseProgram()
	prog.File = ctx.FilePath
	ctx.AstRoot = prog

	for _, err := range ctx.Errors {
		if err.File == "" {
			err.File = ctx.FilePath
		}
	}
	return ctx
}
