package lexer

import (
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/funvibe/numen/internal/token"
)

type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           rune // current char under examination
	line         int
	column       int

	// newlines inside (...) and [...] are not statement separators
	nesting []rune

	prevType    token.TokenType
	spaceBefore bool
}

func New(input string) *Lexer {
	l := &Lexer{input: input, line: 1, column: 0}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.column = 0
	}

	if l.readPosition >= len(l.input) {
		l.ch = 0
		l.position = len(l.input)
		l.readPosition = len(l.input) + 1
		l.column++
		return
	}
	r, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = r
	l.position = l.readPosition
	l.readPosition += w
	l.column++
}

// NextToken scans the next token
func (l *Lexer) NextToken() token.Token {
	tok := l.scan()
	l.prevType = tok.Type
	return tok
}

func (l *Lexer) scan() token.Token {
	l.spaceBefore = l.skipWhitespace()
	if l.ch == '\n' && l.inGroup() {
		l.readChar()
		return l.scan()
	}

	line, col := l.line, l.column
	op := func(t token.TokenType, width int) token.Token {
		lexeme := string(t)
		for i := 1; i < width; i++ {
			l.readChar()
		}
		l.readChar()
		return token.Token{Type: t, Lexeme: lexeme, Literal: lexeme, Line: line, Column: col}
	}
	peek := l.peekChar()

	switch l.ch {
	case 0:
		return token.Token{Type: token.EOF, Line: line, Column: col}
	case '\n':
		return op(token.NEWLINE, 1)
	case '=':
		switch peek {
		case '=':
			return op(token.EQ, 2)
		case '>':
			return op(token.ARROW, 2)
		}
		return op(token.ASSIGN, 1)
	case '+':
		switch peek {
		case '+':
			return op(token.INCREMENT, 2)
		case '=':
			return op(token.PLUS_ASSIGN, 2)
		}
		return op(token.PLUS, 1)
	case '-':
		switch peek {
		case '-':
			return op(token.DECREMENT, 2)
		case '=':
			return op(token.MINUS_ASSIGN, 2)
		}
		return op(token.MINUS, 1)
	case '*':
		if peek == '=' {
			return op(token.ASTERISK_ASSIGN, 2)
		}
		return op(token.ASTERISK, 1)
	case '/':
		if peek == '=' {
			return op(token.SLASH_ASSIGN, 2)
		}
		return op(token.SLASH, 1)
	case '%':
		if peek == '=' {
			return op(token.PERCENT_ASSIGN, 2)
		}
		return op(token.PERCENT, 1)
	case '^':
		if peek == '=' {
			return op(token.CARET_ASSIGN, 2)
		}
		return op(token.CARET, 1)
	case '!':
		if peek == '=' {
			return op(token.NOT_EQ, 2)
		}
		return op(token.BANG, 1)
	case '<':
		if peek == '=' {
			return op(token.LTE, 2)
		}
		return op(token.LT, 1)
	case '>':
		if peek == '=' {
			return op(token.GTE, 2)
		}
		return op(token.GT, 1)
	case '&':
		if peek == '&' {
			return op(token.AND, 2)
		}
	case '|':
		if peek == '|' {
			return op(token.OR, 2)
		}
	case '.':
		switch {
		case peek == '.' && l.peekChar2() == '.':
			return op(token.ELLIPSIS, 3)
		case peek == '.':
			return op(token.DOT_DOT, 2)
		case peek == '*':
			return op(token.DOT_ASTERISK, 2)
		case peek == '/':
			return op(token.DOT_SLASH, 2)
		case peek == '^':
			return op(token.DOT_CARET, 2)
		case isDigit(peek) && (l.spaceBefore || !l.endsOperand()):
			return l.readNumber()
		}
		return op(token.DOT, 1)
	case '?':
		return op(token.QUESTION, 1)
	case ':':
		return op(token.COLON, 1)
	case ',':
		return op(token.COMMA, 1)
	case ';':
		return op(token.SEMICOLON, 1)
	case '(':
		l.nesting = append(l.nesting, ')')
		return op(token.LPAREN, 1)
	case '[':
		l.nesting = append(l.nesting, ']')
		return op(token.LBRACKET, 1)
	case '{':
		l.nesting = append(l.nesting, '}')
		return op(token.LBRACE, 1)
	case ')', ']', '}':
		if n := len(l.nesting); n > 0 && l.nesting[n-1] == l.ch {
			l.nesting = l.nesting[:n-1]
		}
		switch l.ch {
		case ')':
			return op(token.RPAREN, 1)
		case ']':
			return op(token.RBRACKET, 1)
		}
		return op(token.RBRACE, 1)
	case '\'':
		if !l.spaceBefore && l.endsOperand() {
			return op(token.APOSTROPHE, 1)
		}
		return l.readString('\'')
	case '"':
		return l.readString('"')
	default:
		if isLetter(l.ch) {
			ident := l.readIdentifier()
			return token.Token{Type: token.LookupIdent(ident), Lexeme: ident, Literal: ident, Line: line, Column: col}
		}
		if isDigit(l.ch) {
			return l.readNumber()
		}
	}

	ch := l.ch
	l.readChar()
	return token.Token{Type: token.ILLEGAL, Lexeme: string(ch), Literal: "unexpected character " + strconv.QuoteRune(ch), Line: line, Column: col}
}

// endsOperand reports whether the previous token can end an operand, which
// makes a following quote a transpose rather than a string.
func (l *Lexer) endsOperand() bool {
	switch l.prevType {
	case token.IDENT, token.NUMBER, token.IMAGINARY, token.RPAREN, token.RBRACKET,
		token.RBRACE, token.APOSTROPHE, token.TRUE, token.FALSE:
		return true
	}
	return false
}

func (l *Lexer) inGroup() bool {
	n := len(l.nesting)
	return n > 0 && l.nesting[n-1] != '}'
}

func (l *Lexer) readString(quote rune) token.Token {
	line, col := l.line, l.column
	start := l.position
	var sb strings.Builder
	for {
		l.readChar()
		switch l.ch {
		case 0, '\n':
			return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:l.position], Literal: "unterminated string literal", Line: line, Column: col}
		case quote:
			l.readChar()
			return token.Token{Type: token.STRING, Lexeme: l.input[start:l.position], Literal: sb.String(), Line: line, Column: col}
		case '\\':
			l.readChar()
			switch l.ch {
			case 'n':
				sb.WriteByte('\n')
			case 't':
				sb.WriteByte('\t')
			case 'r':
				sb.WriteByte('\r')
			case '0':
				sb.WriteByte(0)
			case 'u':
				if r, ok := l.readHexEscape(4); ok {
					sb.WriteRune(r)
				} else {
					return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:l.position], Literal: "invalid unicode escape", Line: line, Column: col}
				}
			case 0:
				return token.Token{Type: token.ILLEGAL, Lexeme: l.input[start:l.position], Literal: "unterminated string literal", Line: line, Column: col}
			default:
				sb.WriteRune(l.ch)
			}
		default:
			sb.WriteRune(l.ch)
		}
	}
}

func (l *Lexer) readHexEscape(n int) (rune, bool) {
	var r rune
	for i := 0; i < n; i++ {
		if !isHexDigit(l.peekChar()) {
			return 0, false
		}
		l.readChar()
		d, _ := strconv.ParseUint(string(l.ch), 16, 8)
		r = r<<4 | rune(d)
	}
	return r, true
}

func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetter(l.ch) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

func (l *Lexer) readNumber() token.Token {
	line, col := l.line, l.column
	position := l.position

	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if l.ch == 'e' || l.ch == 'E' {
		p := l.peekChar()
		if isDigit(p) || ((p == '+' || p == '-') && isDigit(l.peekChar2())) {
			l.readChar()
			if l.ch == '+' || l.ch == '-' {
				l.readChar()
			}
			for isDigit(l.ch) {
				l.readChar()
			}
		}
	}

	text := l.input[position:l.position]
	typ := token.NUMBER
	if (l.ch == 'i' || l.ch == 'j') && !isLetter(l.peekChar()) && !isDigit(l.peekChar()) {
		typ = token.IMAGINARY
		l.readChar()
	}

	val, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return token.Token{Type: token.ILLEGAL, Lexeme: l.input[position:l.position], Literal: err.Error(), Line: line, Column: col}
	}
	return token.Token{Type: typ, Lexeme: l.input[position:l.position], Literal: val, Line: line, Column: col}
}

func isHexDigit(ch rune) bool {
	return isDigit(ch) || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

func isLetter(ch rune) bool {
	return 'a' <= ch && ch <= 'z' || 'A' <= ch && ch <= 'Z' || ch == '_' || (ch >= 0x80 && unicode.IsLetter(ch))
}

func isDigit(ch rune) bool {
	return '0' <= ch && ch <= '9'
}

func (l *Lexer) peekChar() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.readPosition:])
	return r
}

func (l *Lexer) peekChar2() rune {
	if l.readPosition >= len(l.input) {
		return 0
	}
	_, w := utf8.DecodeRuneInString(l.input[l.readPosition:])
	pos2 := l.readPosition + w
	if pos2 >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[pos2:])
	return r
}

// skipWhitespace skips blanks and comments and reports whether it moved
func (l *Lexer) skipWhitespace() bool {
	start := l.position
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' {
			l.readChar()
		}
		if l.ch == '/' {
			if l.peekChar() == '/' {
				l.readChar() // consume first /
				l.readChar() // consume second /
				for l.ch != '\n' && l.ch != 0 {
					l.readChar()
				}
				continue
			} else if l.peekChar() == '*' {
				l.readChar() // consume /
				l.readChar() // consume *
				for l.ch != 0 {
					if l.ch == '*' && l.peekChar() == '/' {
						l.readChar() // consume *
						l.readChar() // consume /
						break
					}
					l.readChar()
				}
				continue
			}
		}
		break
	}
	return l.position != start
}
