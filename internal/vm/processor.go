package vm

import (
	"errors"

	"github.com/funvibe/numen/internal/ast"
	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/pipeline"
	"github.com/funvibe/numen/internal/token"
)

// CompilerProcessor is the pipeline stage that compiles the parsed program.
// It stores the *CompiledFunction in ctx.Unit.
type CompilerProcessor struct {
	Natives Natives
}

func (cp *CompilerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	// Front-end errors mean the AST is not trustworthy
	if len(ctx.Errors) > 0 {
		return ctx
	}
	prog, ok := ctx.AstRoot.(*ast.Program)
	if !ok {
		err := diagnostics.NewError(diagnostics.ErrC001, token.Token{}, "compiler: no program to compile")
		err.File = ctx.FilePath
		ctx.Errors = append(ctx.Errors, err)
		return ctx
	}

	fn, err := NewCompiler(cp.Natives).Compile(prog)
	if err != nil {
		var diag *diagnostics.DiagnosticError
		if !errors.As(err, &diag) {
			diag = diagnostics.NewError(diagnostics.ErrC001, token.Token{}, err.Error())
		}
		if diag.File == "" {
			diag.File = ctx.FilePath
		}
		ctx.Errors = append(ctx.Errors, diag)
		return ctx
	}
	ctx.Unit = fn
	return ctx
}
