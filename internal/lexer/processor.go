package lexer

import (
	"fmt"

	"github.com/funvibe/numen/internal/diagnostics"
	"github.com/funvibe/numen/internal/pipeline"
	"github.com/funvibe/numen/internal/token"
)

// Stream is a buffered token stream over the whole input
type Stream struct {
	tokens []token.Token
	pos    int
}

// Tokenize scans input to EOF. ILLEGAL tokens are kept in the stream.
func Tokenize(input string) *Stream {
	l := New(input)
	s := &Stream{}
	for {
		tok := l.NextToken()
		s.tokens = append(s.tokens, tok)
		if tok.Type == token.EOF {
			return s
		}
	}
}

func (s *Stream) Next() token.Token {
	tok := s.tokens[s.pos]
	if s.pos < len(s.tokens)-1 {
		s.pos++
	}
	return tok
}

func (s *Stream) Peek(n int) []token.Token {
	end := min(s.pos+n, len(s.tokens))
	return s.tokens[s.pos:end]
}

// Tokens returns every scanned token, EOF included
func (s *Stream) Tokens() []token.Token { return s.tokens }

type LexerProcessor struct{}

func (lp *LexerProcessor) Process(ctx *pipeline.PipelineContext) *pipeline.PipelineContext {
	stream := Tokenize(ctx.SourceCode)
	for _, tok := range stream.tokens {
		if tok.Type == token.ILLEGAL {
			err := diagnostics.NewError(diagnostics.ErrL001, tok, fmt.Sprint(tok.Literal))
			err.File = ctx.FilePath
			ctx.Errors = append(ctx.Errors, err)
		}
	}
	ctx.TokenStream = stream
	return ctx
}
