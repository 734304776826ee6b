package lexer

import (
	"testing"

	"github.com/funvibe/numen/internal/token"
)

func types(input string) []token.TokenType {
	var out []token.TokenType
	for _, tok := range Tokenize(input).Tokens() {
		out = append(out, tok.Type)
	}
	return out
}

func TestNextToken(t *testing.T) {
	tests := []struct {
		input string
		want  []token.TokenType
	}{
		{"a = 3; b += 1", []token.TokenType{token.IDENT, token.ASSIGN, token.NUMBER, token.SEMICOLON, token.IDENT, token.PLUS_ASSIGN, token.NUMBER, token.EOF}},
		{"A .* B ./ 2 .^ 3", []token.TokenType{token.IDENT, token.DOT_ASTERISK, token.IDENT, token.DOT_SLASH, token.NUMBER, token.DOT_CARET, token.NUMBER, token.EOF}},
		{"1..10..2", []token.TokenType{token.NUMBER, token.DOT_DOT, token.NUMBER, token.DOT_DOT, token.NUMBER, token.EOF}},
		{"(x, y) => x", []token.TokenType{token.LPAREN, token.IDENT, token.COMMA, token.IDENT, token.RPAREN, token.ARROW, token.IDENT, token.EOF}},
		{"i++ --j", []token.TokenType{token.IDENT, token.INCREMENT, token.DECREMENT, token.IDENT, token.EOF}},
		{"c ? a : b", []token.TokenType{token.IDENT, token.QUESTION, token.IDENT, token.COLON, token.IDENT, token.EOF}},
		{"let f = function", []token.TokenType{token.LET, token.IDENT, token.ASSIGN, token.FUNCTION, token.EOF}},
		{"a && b || !c", []token.TokenType{token.IDENT, token.AND, token.IDENT, token.OR, token.BANG, token.IDENT, token.EOF}},
		{"x // note\ny", []token.TokenType{token.IDENT, token.NEWLINE, token.IDENT, token.EOF}},
		{"a /* block */ b", []token.TokenType{token.IDENT, token.IDENT, token.EOF}},
		{"&", []token.TokenType{token.ILLEGAL, token.EOF}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := types(tt.input)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("token %d = %s, want %s", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNumbers(t *testing.T) {
	toks := Tokenize("2.5 1e-3 3i .5").Tokens()
	wantVals := []float64{2.5, 1e-3, 3, 0.5}
	wantTypes := []token.TokenType{token.NUMBER, token.NUMBER, token.IMAGINARY, token.NUMBER}
	for i, want := range wantVals {
		if toks[i].Type != wantTypes[i] || toks[i].Literal.(float64) != want {
			t.Errorf("token %d = %s %v", i, toks[i].Type, toks[i].Literal)
		}
	}
}

func TestQuoteIsTransposeAfterOperand(t *testing.T) {
	got := types("A' + f('s') + [1 2]'")
	want := []token.TokenType{
		token.IDENT, token.APOSTROPHE, token.PLUS, token.IDENT, token.LPAREN, token.STRING, token.RPAREN,
		token.PLUS, token.LBRACKET, token.NUMBER, token.NUMBER, token.RBRACKET, token.APOSTROPHE, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestStringEscapes(t *testing.T) {
	tok := Tokenize(`"a\n\"b\" A"`).Tokens()[0]
	if tok.Type != token.STRING || tok.Literal != "a\n\"b\" A" {
		t.Errorf("got %s %q", tok.Type, tok.Literal)
	}
	if bad := Tokenize(`"open`).Tokens()[0]; bad.Type != token.ILLEGAL {
		t.Errorf("unterminated string = %s", bad.Type)
	}
}

func TestNewlinesInsideGroupsAreSkipped(t *testing.T) {
	got := types("f(1,\n2)\n{\n}")
	want := []token.TokenType{
		token.IDENT, token.LPAREN, token.NUMBER, token.COMMA, token.NUMBER, token.RPAREN, token.NEWLINE,
		token.LBRACE, token.NEWLINE, token.RBRACE, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %s, want %s", i, got[i], want[i])
		}
	}
}
