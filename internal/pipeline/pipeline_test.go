package pipeline

import (
	"errors"
	"testing"

	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/token"
)

type stageFunc func(*PipelineContext) *PipelineContext

func (f stageFunc) Process(ctx *PipelineContext) *PipelineContext { return f(ctx) }

func TestRunStopsAtFailingStage(t *testing.T) {
	var ran []string
	stage := func(name string, fail bool) Processor {
		return stageFunc(func(ctx *PipelineContext) *PipelineContext {
			ran = append(ran, name)
			if fail {
				ctx.Errors = append(ctx.Errors, diagnostics.NewError(diagnostics.ErrP001, token.Token{}, name+" failed"))
			}
			return ctx
		})
	}

	ctx := New(stage("lex", false), stage("parse", true), stage("compile", false)).Run(NewPipelineContext("x"))
	if len(ran) != 2 || ran[1] != "parse" {
		t.Fatalf("stages run = %v", ran)
	}
	err := ctx.Err()
	if err == nil {
		t.Fatal("expected an error")
	}
	var diag *diagnostics.DiagnosticError
	if !errors.As(err, &diag) {
		t.Errorf("Err() does not unwrap to a diagnostic: %v", err)
	}
}

func TestErrNilWithoutDiagnostics(t *testing.T) {
	if err := New().Run(NewPipelineContext("")).Err(); err != nil {
		t.Errorf("Err() = %v", err)
	}
}
