// Package token turns a raw command line into classified tokens and
// rejects malformed pipe/redirection sequences before anything is spawned.
package token

import "strings"

// Kind classifies a single token.
type Kind int

const (
	Word Kind = iota
	Pipe
	RedirectIn
	RedirectOut
	Background
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Pipe:
		return "pipe"
	case RedirectIn:
		return "redirect-in"
	case RedirectOut:
		return "redirect-out"
	case Background:
		return "background"
	default:
		return "invalid"
	}
}

// Token is an atomic unit of a command line.
type Token struct {
	Kind Kind
	Text string
}

func classify(text string) Token {
	switch text {
	case "|":
		return Token{Kind: Pipe, Text: text}
	case "<":
		return Token{Kind: RedirectIn, Text: text}
	case ">":
		return Token{Kind: RedirectOut, Text: text}
	case "&":
		return Token{Kind: Background, Text: text}
	default:
		return Token{Kind: Word, Text: text}
	}
}

// isOperator reports whether c is one of the single-character shell
// operators that must be isolated by whitespace.
func isOperator(c byte) bool {
	return c == '|' || c == '<' || c == '>' || c == '&'
}

// normalize inserts spaces around operator characters wherever they touch
// neighboring text so that "a|b" and "a | b" split identically.
func normalize(line string) string {
	var b strings.Builder
	b.Grow(len(line) + 8)

	for i := 0; i < len(line); i++ {
		c := line[i]
		if !isOperator(c) {
			b.WriteByte(c)
			continue
		}
		if i > 0 && !isSpace(line[i-1]) {
			b.WriteByte(' ')
		}
		b.WriteByte(c)
		if i+1 < len(line) && !isSpace(line[i+1]) {
			b.WriteByte(' ')
		}
	}

	return b.String()
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// Split normalizes operator adjacency in line, splits it on whitespace and
// classifies each field. An empty or blank line yields no tokens.
func Split(line string) []Token {
	fields := strings.Fields(normalize(line))
	if len(fields) == 0 {
		return nil
	}

	tokens := make([]Token, 0, len(fields))
	for _, f := range fields {
		tokens = append(tokens, classify(f))
	}
	return tokens
}

// Join renders tokens back into a canonical single-spaced command line.
func Join(tokens []Token) string {
	parts := make([]string, 0, len(tokens))
	for _, t := range tokens {
		parts = append(parts, t.Text)
	}
	return strings.Join(parts, " ")
}
