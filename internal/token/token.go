package token

type TokenType string

const (
	ILLEGAL TokenType = "ILLEGAL"
	EOF     TokenType = "EOF"
	NEWLINE TokenType = "NEWLINE"

	// Identifiers + literals
	IDENT     TokenType = "IDENT"
	NUMBER    TokenType = "NUMBER"    // 3, 2.5, 1e-3
	IMAGINARY TokenType = "IMAGINARY" // 2i
	STRING    TokenType = "STRING"

	// Assignment
	ASSIGN          TokenType = "="
	PLUS_ASSIGN     TokenType = "+="
	MINUS_ASSIGN    TokenType = "-="
	ASTERISK_ASSIGN TokenType = "*="
	SLASH_ASSIGN    TokenType = "/="
	PERCENT_ASSIGN  TokenType = "%="
	CARET_ASSIGN    TokenType = "^="

	// Arithmetic
	PLUS         TokenType = "+"
	MINUS        TokenType = "-"
	ASTERISK     TokenType = "*"
	SLASH        TokenType = "/"
	PERCENT      TokenType = "%"
	CARET        TokenType = "^"
	DOT_ASTERISK TokenType = ".*"
	DOT_SLASH    TokenType = "./"
	DOT_CARET    TokenType = ".^"
	APOSTROPHE   TokenType = "'" // postfix transpose
	INCREMENT    TokenType = "++"
	DECREMENT    TokenType = "--"

	// Comparison and logic
	EQ     TokenType = "=="
	NOT_EQ TokenType = "!="
	LT     TokenType = "<"
	LTE    TokenType = "<="
	GT     TokenType = ">"
	GTE    TokenType = ">="
	AND    TokenType = "&&"
	OR     TokenType = "||"
	BANG   TokenType = "!"

	// Delimiters
	ARROW     TokenType = "=>"
	QUESTION  TokenType = "?"
	COLON     TokenType = ":"
	DOT_DOT   TokenType = ".."
	DOT       TokenType = "."
	COMMA     TokenType = ","
	SEMICOLON TokenType = ";"
	ELLIPSIS  TokenType = "..."

	LPAREN   TokenType = "("
	RPAREN   TokenType = ")"
	LBRACE   TokenType = "{"
	RBRACE   TokenType = "}"
	LBRACKET TokenType = "["
	RBRACKET TokenType = "]"

	// Keywords
	LET       TokenType = "LET"
	FUNCTION  TokenType = "FUNCTION"
	RETURN    TokenType = "RETURN"
	IF        TokenType = "IF"
	ELSE      TokenType = "ELSE"
	WHILE     TokenType = "WHILE"
	FOR       TokenType = "FOR"
	IN        TokenType = "IN"
	BREAK     TokenType = "BREAK"
	CONTINUE  TokenType = "CONTINUE"
	AWAIT     TokenType = "AWAIT"
	TRUE      TokenType = "TRUE"
	FALSE     TokenType = "FALSE"
	UNDEFINED TokenType = "UNDEFINED"
)

// Token is a lexical unit. Literal holds the decoded value: float64 for
// numbers, the unescaped text for strings, the lexeme otherwise.
type Token struct {
	Type    TokenType
	Lexeme  string
	Literal any
	Line    int
	Column  int
}

var keywords = map[string]TokenType{
	"let":       LET,
	"function":  FUNCTION,
	"return":    RETURN,
	"if":        IF,
	"else":      ELSE,
	"while":     WHILE,
	"for":       FOR,
	"in":        IN,
	"break":     BREAK,
	"continue":  CONTINUE,
	"await":     AWAIT,
	"true":      TRUE,
	"false":     FALSE,
	"undefined": UNDEFINED,
}

// LookupIdent returns the keyword type for ident, or IDENT
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// IsKeyword reports whether ident is reserved
func IsKeyword(ident string) bool {
	_, ok := keywords[ident]
	return ok
}
