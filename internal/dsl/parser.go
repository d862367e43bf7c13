package dsl

import (
	"strings"

	"github.com/shopspring/decimal"
)

type parser struct {
	tokens []Token
	pos    int
}

// Parse tokenizes and parses source text into a single AST. The grammar
// accepts exactly one top-level form per file; remaining tokens after that
// form are an error.
func Parse(source string) (*Node, error) {
	tokens, err := Tokenize(source)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, newParseError(-1, "empty input")
	}

	p := &parser{tokens: tokens}
	node, err := p.parseExpression()
	if err != nil {
		return nil, err
	}
	if p.pos < len(p.tokens) {
		return nil, newParseError(p.tokens[p.pos].Pos, "unexpected tokens after expression")
	}
	return node, nil
}

func (p *parser) parseExpression() (*Node, error) {
	if p.pos >= len(p.tokens) {
		return nil, newParseError(-1, "unexpected end of input")
	}

	tok := p.tokens[p.pos]
	switch tok.Kind {
	case TokenLParen:
		return p.parseList(TokenRParen, ")")
	case TokenLBracket:
		return p.parseList(TokenRBracket, "]")
	case TokenLBrace:
		return p.parseMap()
	case TokenString:
		p.pos++
		return &Node{Kind: NodeString, Str: unescape(tok.Lexeme)}, nil
	case TokenInteger, TokenFloat:
		p.pos++
		num, err := decimal.NewFromString(tok.Lexeme)
		if err != nil {
			return nil, newParseError(tok.Pos, "invalid number %q", tok.Lexeme)
		}
		return &Node{Kind: NodeNumber, Num: num}, nil
	case TokenSymbol, TokenKeyword:
		p.pos++
		return &Node{Kind: NodeSymbol, Str: tok.Lexeme}, nil
	case TokenRParen, TokenRBracket, TokenRBrace:
		return nil, newParseError(tok.Pos, "unexpected %q", tok.Lexeme)
	default:
		return nil, newParseError(tok.Pos, "unexpected token %q", tok.Lexeme)
	}
}

// parseList consumes expressions until the matching close delimiter.
// Lists () and vectors [] both yield NodeList.
func (p *parser) parseList(closeKind TokenKind, closeLexeme string) (*Node, error) {
	open := p.tokens[p.pos]
	p.pos++

	node := &Node{Kind: NodeList}
	for {
		if p.pos >= len(p.tokens) {
			return nil, newParseError(open.Pos, "unclosed delimiter, expected %q", closeLexeme)
		}
		if p.tokens[p.pos].Kind == closeKind {
			p.pos++
			return node, nil
		}
		child, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, child)
	}
}

// parseMap consumes key/value pairs until the closing brace. Each key must
// be followed by a value expression.
func (p *parser) parseMap() (*Node, error) {
	open := p.tokens[p.pos]
	p.pos++

	node := &Node{Kind: NodeMap}
	for {
		if p.pos >= len(p.tokens) {
			return nil, newParseError(open.Pos, "unclosed delimiter, expected \"}\"")
		}
		if p.tokens[p.pos].Kind == TokenRBrace {
			p.pos++
			return node, nil
		}

		key, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		if p.pos >= len(p.tokens) || p.tokens[p.pos].Kind == TokenRBrace {
			return nil, newParseError(open.Pos, "missing value in map")
		}
		value, err := p.parseExpression()
		if err != nil {
			return nil, err
		}
		node.Children = append(node.Children, key, value)
	}
}

// unescape resolves \" \\ \n \t \r in a raw string lexeme.
func unescape(raw string) string {
	if !strings.ContainsRune(raw, '\\') {
		return raw
	}

	var sb strings.Builder
	runes := []rune(raw)
	for i := 0; i < len(runes); i++ {
		if runes[i] != '\\' || i+1 >= len(runes) {
			sb.WriteRune(runes[i])
			continue
		}
		i++
		switch runes[i] {
		case 'n':
			sb.WriteRune('\n')
		case 't':
			sb.WriteRune('\t')
		case 'r':
			sb.WriteRune('\r')
		case '"', '\\':
			sb.WriteRune(runes[i])
		default:
			sb.WriteRune('\\')
			sb.WriteRune(runes[i])
		}
	}
	return sb.String()
}
