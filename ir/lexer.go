package ir

import (
	"strings"
	"unicode"
)

// TokenKind classifies a lexical token
type TokenKind int

const (
	TokenEOF TokenKind = iota
	TokenWord
	TokenQuotedIdent
	TokenString
	TokenNumber
	TokenPunct
)

// Token is a significant piece of SQL text. Whitespace and comments never
// produce tokens.
type Token struct {
	Kind TokenKind
	// Text is the raw source text of the token
	Text string
	// Value is the unescaped content for strings and quoted identifiers,
	// otherwise equal to Text
	Value string
	Pos   Position
	End   int // byte offset just past the token
}

// IsWord reports whether the token is an unquoted word matching one of words, ignoring case
func (t Token) IsWord(words ...string) bool {
	if t.Kind != TokenWord {
		return false
	}
	for _, w := range words {
		if strings.EqualFold(t.Text, w) {
			return true
		}
	}
	return false
}

// IsPunct reports whether the token is the given punctuation
func (t Token) IsPunct(p string) bool {
	return t.Kind == TokenPunct && t.Text == p
}

// IsIdent reports whether the token can name an object
func (t Token) IsIdent() bool {
	return t.Kind == TokenWord || t.Kind == TokenQuotedIdent
}

// Ident returns the normalized identifier for word and quoted identifier tokens
func (t Token) Ident() string {
	return NormalizeIdentifier(t.Value, t.Kind == TokenQuotedIdent)
}

// multi-character operators, longest first
var operators = []string{"=>", "::", "<=", ">=", "<>", "!=", "||", "->"}

// Lexer tokenizes Snowflake SQL text
type Lexer struct {
	input   string
	pos     int  // current position in input
	readPos int  // reading position (after current char)
	ch      byte // current char under examination
	line    int
	col     int
	err     *ParseError
}

// NewLexer creates a new Lexer for the given input
func NewLexer(input string) *Lexer {
	l := &Lexer{
		input: input,
		line:  1,
	}
	l.readChar()
	return l
}

func (l *Lexer) readChar() {
	if l.ch == '\n' {
		l.line++
		l.col = 0
	}
	if l.readPos >= len(l.input) {
		l.ch = 0
		l.pos = len(l.input)
	} else {
		l.ch = l.input[l.readPos]
		l.pos = l.readPos
	}
	l.readPos++
	l.col++
}

func (l *Lexer) peekChar() byte {
	if l.readPos >= len(l.input) {
		return 0
	}
	return l.input[l.readPos]
}

func (l *Lexer) atEOF() bool {
	return l.pos >= len(l.input)
}

func (l *Lexer) currentPos() Position {
	return Position{Line: l.line, Column: l.col, Offset: l.pos}
}

func (l *Lexer) fail(pos Position, clause, detail string) {
	if l.err == nil {
		l.err = &ParseError{Kind: ErrUnterminatedStatement, Pos: pos, Clause: clause, Detail: detail}
	}
}

// Err returns the first lexical error encountered, if any
func (l *Lexer) Err() error {
	if l.err == nil {
		return nil
	}
	return l.err
}

// NextToken returns the next token, or a TokenEOF token at the end of input
func (l *Lexer) NextToken() Token {
	l.skipWhitespaceAndComments()

	pos := l.currentPos()
	if l.atEOF() {
		return Token{Kind: TokenEOF, Pos: pos, End: pos.Offset}
	}

	switch {
	case l.ch == '\'':
		value, ok := l.readQuoted('\'', true)
		if !ok {
			l.fail(pos, "'", "string literal is never closed")
		}
		return l.token(TokenString, pos, value)
	case l.ch == '"':
		value, ok := l.readQuoted('"', false)
		if !ok {
			l.fail(pos, `"`, "quoted identifier is never closed")
		}
		return l.token(TokenQuotedIdent, pos, value)
	case l.ch == '$' && l.peekChar() == '$':
		value, ok := l.readDollarQuoted()
		if !ok {
			l.fail(pos, "$$", "dollar-quoted string is never closed")
		}
		return l.token(TokenString, pos, value)
	case isIdentStart(l.ch) || l.ch == '$' && isIdentPart(l.peekChar()):
		l.readChar()
		for isIdentPart(l.ch) {
			l.readChar()
		}
		return l.token(TokenWord, pos, "")
	case isDigit(l.ch) || l.ch == '.' && isDigit(l.peekChar()):
		l.readNumber()
		return l.token(TokenNumber, pos, "")
	}

	for _, op := range operators {
		if strings.HasPrefix(l.input[l.pos:], op) {
			for range op {
				l.readChar()
			}
			return l.token(TokenPunct, pos, "")
		}
	}
	l.readChar()
	return l.token(TokenPunct, pos, "")
}

func (l *Lexer) token(kind TokenKind, pos Position, value string) Token {
	text := l.input[pos.Offset:l.pos]
	if kind != TokenString && kind != TokenQuotedIdent {
		value = text
	}
	return Token{Kind: kind, Text: text, Value: value, Pos: pos, End: l.pos}
}

func (l *Lexer) skipWhitespaceAndComments() {
	for {
		for l.ch == ' ' || l.ch == '\t' || l.ch == '\n' || l.ch == '\r' || l.ch == '\f' {
			l.readChar()
		}

		if (l.ch == '-' && l.peekChar() == '-') || (l.ch == '/' && l.peekChar() == '/') {
			for l.ch != '\n' && !l.atEOF() {
				l.readChar()
			}
			continue
		}

		if l.ch == '/' && l.peekChar() == '*' {
			pos := l.currentPos()
			l.readChar()
			l.readChar()
			closed := false
			for !l.atEOF() {
				if l.ch == '*' && l.peekChar() == '/' {
					l.readChar()
					l.readChar()
					closed = true
					break
				}
				l.readChar()
			}
			if !closed {
				l.fail(pos, "/*", "block comment is never closed")
			}
			continue
		}

		break
	}
}

// readQuoted reads a literal delimited by quote. A doubled quote is an escaped
// quote; backslash escapes apply to string literals only.
func (l *Lexer) readQuoted(quote byte, backslash bool) (string, bool) {
	l.readChar() // skip opening quote

	var result strings.Builder
	for !l.atEOF() {
		switch {
		case l.ch == quote && l.peekChar() == quote:
			result.WriteByte(quote)
			l.readChar()
			l.readChar()
		case l.ch == quote:
			l.readChar()
			return result.String(), true
		case backslash && l.ch == '\\' && l.readPos < len(l.input):
			result.WriteByte(l.ch)
			l.readChar()
			result.WriteByte(l.ch)
			l.readChar()
		default:
			result.WriteByte(l.ch)
			l.readChar()
		}
	}
	return result.String(), false
}

func (l *Lexer) readDollarQuoted() (string, bool) {
	l.readChar()
	l.readChar()
	start := l.pos
	for !l.atEOF() {
		if l.ch == '$' && l.peekChar() == '$' {
			value := l.input[start:l.pos]
			l.readChar()
			l.readChar()
			return value, true
		}
		l.readChar()
	}
	return l.input[start:], false
}

func (l *Lexer) readNumber() {
	for isDigit(l.ch) {
		l.readChar()
	}
	if l.ch == '.' {
		l.readChar()
		for isDigit(l.ch) {
			l.readChar()
		}
	}
	if (l.ch == 'e' || l.ch == 'E') && (isDigit(l.peekChar()) || l.peekChar() == '+' || l.peekChar() == '-') {
		l.readChar()
		if l.ch == '+' || l.ch == '-' {
			l.readChar()
		}
		for isDigit(l.ch) {
			l.readChar()
		}
	}
}

func isIdentStart(ch byte) bool {
	return ch == '_' || ch >= 0x80 || unicode.IsLetter(rune(ch))
}

func isIdentPart(ch byte) bool {
	return isIdentStart(ch) || isDigit(ch) || ch == '$'
}

func isDigit(ch byte) bool {
	return ch >= '0' && ch <= '9'
}

// Tokenize returns all significant tokens of input, without the trailing EOF
// token. The error reports unterminated strings, identifiers and comments.
func Tokenize(input string) ([]Token, error) {
	l := NewLexer(input)
	var tokens []Token
	for {
		tok := l.NextToken()
		if tok.Kind == TokenEOF {
			break
		}
		tokens = append(tokens, tok)
	}
	return tokens, l.Err()
}
