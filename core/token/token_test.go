package token

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func ExampleSplit() {
	for _, tok := range Split("cat<in.txt | wc -l") {
		fmt.Printf("%s %q\n", tok.Kind, tok.Text)
	}

	// Output: word "cat"
	// redirect-in "<"
	// word "in.txt"
	// pipe "|"
	// word "wc"
	// word "-l"
}

func TestSplitNormalization(t *testing.T) {
	// Operator adjacency never changes the token sequence.
	cases := []struct {
		compact string
		spaced  string
	}{
		{"a|b", "a | b"},
		{"a>b", "a > b"},
		{"a<b", "a < b"},
		{"a&", "a &"},
		{"sort<in|uniq>out", "sort < in | uniq > out"},
		{"a |b", "a | b"},
		{"a| b", "a | b"},
		{"  a   |  b ", "a | b"},
	}

	for _, tc := range cases {
		t.Run(tc.compact, func(t *testing.T) {
			assert.Equal(t, Split(tc.spaced), Split(tc.compact))
		})
	}
}

func TestSplitClassifies(t *testing.T) {
	tokens := Split("grep -v foo < in.txt > out.txt &")

	kinds := make([]Kind, 0, len(tokens))
	for _, tok := range tokens {
		kinds = append(kinds, tok.Kind)
	}

	assert.Equal(t, []Kind{Word, Word, Word, RedirectIn, Word, RedirectOut, Word, Background}, kinds)
}

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split(""))
	assert.Nil(t, Split("   \t  "))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "cat < in.txt | wc -l", Join(Split("cat<in.txt|wc -l")))
}
