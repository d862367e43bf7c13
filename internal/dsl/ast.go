// Package dsl implements the symphony strategy language: a rune-level
// lexer, a recursive-descent parser producing an AST, a whitelisted
// operator dispatcher, and a tree-walking evaluator that composes
// portfolio weight fragments from technical indicators.
package dsl

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NodeKind discriminates AST node variants.
type NodeKind int

const (
	NodeNumber NodeKind = iota
	NodeString
	NodeSymbol
	NodeList
	NodeMap // brace literal: children alternate key, value
)

// Node is an immutable AST node. Numbers are exact decimals so weight
// arithmetic and threshold comparisons carry no binary-float drift.
// A NodeMap always has an even number of children.
type Node struct {
	Kind     NodeKind
	Num      decimal.Decimal
	Str      string // string atom, or symbol name (keywords keep their leading ':')
	Children []*Node
}

// IsSymbol reports whether the node is the named symbol.
func (n *Node) IsSymbol(name string) bool {
	return n.Kind == NodeSymbol && n.Str == name
}

// String re-serializes the node to source form. Parsing the output yields a
// structurally identical AST.
func (n *Node) String() string {
	switch n.Kind {
	case NodeNumber:
		return n.Num.String()
	case NodeString:
		return quoteString(n.Str)
	case NodeSymbol:
		return n.Str
	case NodeList:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return "(" + strings.Join(parts, " ") + ")"
	case NodeMap:
		parts := make([]string, len(n.Children))
		for i, c := range n.Children {
			parts[i] = c.String()
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return "<unknown>"
	}
}

func quoteString(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			sb.WriteString(`\"`)
		case '\\':
			sb.WriteString(`\\`)
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\r':
			sb.WriteString(`\r`)
		default:
			sb.WriteRune(r)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}
