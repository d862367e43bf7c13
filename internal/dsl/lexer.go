package dsl

import (
	"strings"
	"unicode"
)

// TokenKind discriminates lexer output.
type TokenKind int

const (
	TokenLParen TokenKind = iota
	TokenRParen
	TokenLBracket
	TokenRBracket
	TokenLBrace
	TokenRBrace
	TokenString
	TokenInteger
	TokenFloat
	TokenKeyword
	TokenSymbol
)

// Token is one lexeme with its rune offset in the source. For TokenString
// the lexeme is the raw inner text, escapes intact; the parser un-escapes.
type Token struct {
	Kind   TokenKind
	Lexeme string
	Pos    int
}

type lexer struct {
	input []rune
	pos   int
}

// Tokenize converts source text into an ordered token stream. Whitespace,
// commas, and ;-prefixed line comments are discarded. Fails with a
// positioned ParseError on any unrecognized character or an unterminated
// string.
func Tokenize(source string) ([]Token, error) {
	l := &lexer{input: []rune(source)}

	var tokens []Token
	for {
		l.skipIgnored()
		if l.pos >= len(l.input) {
			return tokens, nil
		}

		start := l.pos
		ch := l.input[l.pos]
		switch {
		case ch == '(':
			l.pos++
			tokens = append(tokens, Token{TokenLParen, "(", start})
		case ch == ')':
			l.pos++
			tokens = append(tokens, Token{TokenRParen, ")", start})
		case ch == '[':
			l.pos++
			tokens = append(tokens, Token{TokenLBracket, "[", start})
		case ch == ']':
			l.pos++
			tokens = append(tokens, Token{TokenRBracket, "]", start})
		case ch == '{':
			l.pos++
			tokens = append(tokens, Token{TokenLBrace, "{", start})
		case ch == '}':
			l.pos++
			tokens = append(tokens, Token{TokenRBrace, "}", start})
		case ch == '"':
			tok, err := l.scanString()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case ch == ':':
			tok, err := l.scanKeyword()
			if err != nil {
				return nil, err
			}
			tokens = append(tokens, tok)
		case isDigit(ch) || (ch == '-' && l.peekIsDigit()):
			tokens = append(tokens, l.scanNumber())
		case isSymbolRune(ch):
			tokens = append(tokens, l.scanSymbol())
		default:
			return nil, newParseError(start, "unexpected character %q", string(ch))
		}
	}
}

func (l *lexer) skipIgnored() {
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		switch {
		case unicode.IsSpace(ch) || ch == ',':
			l.pos++
		case ch == ';':
			for l.pos < len(l.input) && l.input[l.pos] != '\n' {
				l.pos++
			}
		default:
			return
		}
	}
}

// scanString scans char-by-char so backslash-escaped quotes never terminate
// the string early. The closing quote must appear before end of input.
func (l *lexer) scanString() (Token, error) {
	start := l.pos
	l.pos++ // opening quote

	var sb strings.Builder
	for l.pos < len(l.input) {
		ch := l.input[l.pos]
		if ch == '\\' && l.pos+1 < len(l.input) {
			sb.WriteRune(ch)
			sb.WriteRune(l.input[l.pos+1])
			l.pos += 2
			continue
		}
		if ch == '"' {
			l.pos++
			return Token{TokenString, sb.String(), start}, nil
		}
		sb.WriteRune(ch)
		l.pos++
	}
	return Token{}, newParseError(start, "unterminated string")
}

func (l *lexer) scanKeyword() (Token, error) {
	start := l.pos
	l.pos++ // ':'
	if l.pos >= len(l.input) || !isSymbolRune(l.input[l.pos]) {
		return Token{}, newParseError(start, "invalid keyword")
	}
	for l.pos < len(l.input) && isSymbolRune(l.input[l.pos]) {
		l.pos++
	}
	return Token{TokenKeyword, string(l.input[start:l.pos]), start}, nil
}

func (l *lexer) scanNumber() Token {
	start := l.pos
	if l.input[l.pos] == '-' {
		l.pos++
	}
	kind := TokenInteger
	for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
		l.pos++
	}
	if l.pos+1 < len(l.input) && l.input[l.pos] == '.' && isDigit(l.input[l.pos+1]) {
		kind = TokenFloat
		l.pos++
		for l.pos < len(l.input) && isDigit(l.input[l.pos]) {
			l.pos++
		}
	}
	return Token{kind, string(l.input[start:l.pos]), start}
}

func (l *lexer) scanSymbol() Token {
	start := l.pos
	for l.pos < len(l.input) && isSymbolRune(l.input[l.pos]) {
		l.pos++
	}
	return Token{TokenSymbol, string(l.input[start:l.pos]), start}
}

func (l *lexer) peekIsDigit() bool {
	return l.pos+1 < len(l.input) && isDigit(l.input[l.pos+1])
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

// isSymbolRune covers identifiers and operator-glyph symbols (> < >= <= = + - * /).
func isSymbolRune(ch rune) bool {
	if unicode.IsLetter(ch) || isDigit(ch) {
		return true
	}
	return strings.ContainsRune("+-*/<>=!?._&$%#'", ch)
}
