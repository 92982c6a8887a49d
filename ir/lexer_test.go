package ir

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func tokenTexts(tokens []Token) []string {
	texts := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		texts = append(texts, tok.Text)
	}
	return texts
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "words and punctuation",
			input:    "select a.b, c from s.t;",
			expected: []string{"select", "a", ".", "b", ",", "c", "from", "s", ".", "t", ";"},
		},
		{
			name:     "line and block comments are skipped",
			input:    "-- from nowhere\nselect /* from x */ 1 // trailing",
			expected: []string{"select", "1"},
		},
		{
			name:     "string with doubled quote",
			input:    "select 'it''s from here'",
			expected: []string{"select", "'it''s from here'"},
		},
		{
			name:     "string with backslash escape",
			input:    `select 'a\'b' x`,
			expected: []string{"select", `'a\'b'`, "x"},
		},
		{
			name:     "quoted identifier",
			input:    `from "My ""Table"""`,
			expected: []string{"from", `"My ""Table"""`},
		},
		{
			name:     "dollar quoted block",
			input:    "comment = $$ a; b $$",
			expected: []string{"comment", "=", "$$ a; b $$"},
		},
		{
			name:     "operators",
			input:    "a::int => b >= c <> d || e",
			expected: []string{"a", "::", "int", "=>", "b", ">=", "c", "<>", "d", "||", "e"},
		},
		{
			name:     "numbers",
			input:    "1 2.5 .5 1e10",
			expected: []string{"1", "2.5", ".5", "1e10"},
		},
		{
			name:     "dollar identifiers",
			input:    "select $1, v$x from @stage",
			expected: []string{"select", "$1", ",", "v$x", "from", "@", "stage"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tokens, err := Tokenize(tt.input)
			if err != nil {
				t.Fatalf("Tokenize(%q) error: %v", tt.input, err)
			}
			if diff := cmp.Diff(tt.expected, tokenTexts(tokens)); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestTokenValues(t *testing.T) {
	tokens, err := Tokenize(`"My ""Table""" 'it''s' $$x$$ orders`)
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}

	want := []struct {
		kind  TokenKind
		value string
		ident string
	}{
		{TokenQuotedIdent, `My "Table"`, `My "Table"`},
		{TokenString, "it's", ""},
		{TokenString, "x", ""},
		{TokenWord, "orders", "ORDERS"},
	}
	if len(tokens) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(tokens), len(want))
	}
	for i, w := range want {
		if tokens[i].Kind != w.kind || tokens[i].Value != w.value {
			t.Errorf("token %d = (%v, %q); want (%v, %q)", i, tokens[i].Kind, tokens[i].Value, w.kind, w.value)
		}
		if w.ident != "" && tokens[i].Ident() != w.ident {
			t.Errorf("token %d Ident() = %q; want %q", i, tokens[i].Ident(), w.ident)
		}
	}
}

func TestTokenPositions(t *testing.T) {
	input := "create view\n  v as\nselect 1"
	tokens, err := Tokenize(input)
	if err != nil {
		t.Fatalf("Tokenize error: %v", err)
	}

	v := tokens[2]
	if v.Text != "v" || v.Pos.Line != 2 || v.Pos.Column != 3 {
		t.Errorf("token v at %s (%q); want 2:3", v.Pos, v.Text)
	}
	if got := input[v.Pos.Offset:v.End]; got != "v" {
		t.Errorf("offsets of v cover %q", got)
	}
	sel := tokens[4]
	if sel.Pos.Line != 3 || sel.Pos.Column != 1 {
		t.Errorf("token select at %s; want 3:1", sel.Pos)
	}
}

func TestTokenizeUnterminated(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		clause string
	}{
		{"string", "select 'abc", "'"},
		{"quoted identifier", `select "abc`, `"`},
		{"block comment", "select /* abc", "/*"},
		{"dollar block", "select $$ abc", "$$"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Tokenize(tt.input)
			if !errors.Is(err, ErrUnterminatedStatement) {
				t.Fatalf("Tokenize(%q) error = %v; want ErrUnterminatedStatement", tt.input, err)
			}
			var parseErr *ParseError
			if !errors.As(err, &parseErr) || parseErr.Clause != tt.clause {
				t.Errorf("Tokenize(%q) clause = %v; want %q", tt.input, err, tt.clause)
			}
		})
	}
}
