package lexer

import "testing"

func TestNextTokenCoreGrammar(t *testing.T) {
	input := `let id : {A : U} -> A -> A = \{A} x. x in id {U} U`

	tests := []struct {
		typ     TokenType
		literal string
	}{
		{LET, "let"},
		{IDENT, "id"},
		{COLON, ":"},
		{LBRACE, "{"},
		{IDENT, "A"},
		{COLON, ":"},
		{U, "U"},
		{RBRACE, "}"},
		{ARROW, "->"},
		{IDENT, "A"},
		{ARROW, "->"},
		{IDENT, "A"},
		{ASSIGN, "="},
		{BACKSLASH, `\`},
		{LBRACE, "{"},
		{IDENT, "A"},
		{RBRACE, "}"},
		{IDENT, "x"},
		{DOT, "."},
		{IDENT, "x"},
		{IN, "in"},
		{IDENT, "id"},
		{LBRACE, "{"},
		{U, "U"},
		{RBRACE, "}"},
		{U, "U"},
		{EOF, ""},
	}

	l := New(input, "test")
	for i, want := range tests {
		got := l.NextToken()
		if got.Type != want.typ || got.Literal != want.literal {
			t.Fatalf("token %d: got %s %q, want %s %q", i, got.Type, got.Literal, want.typ, want.literal)
		}
	}
}

func TestNextTokenSkipsLineComments(t *testing.T) {
	l := New("-- a comment\nU", "test")
	tok := l.NextToken()
	if tok.Type != U {
		t.Fatalf("got %s, want U", tok.Type)
	}
}

func TestNextTokenUnderscoreIsHole(t *testing.T) {
	l := New("_", "test")
	tok := l.NextToken()
	if tok.Type != UNDERSCORE {
		t.Fatalf("got %s, want UNDERSCORE", tok.Type)
	}
}

func TestNextTokenUnderscorePrefixedIdentifier(t *testing.T) {
	l := New("_foo", "test")
	tok := l.NextToken()
	if tok.Type != IDENT || tok.Literal != "_foo" {
		t.Fatalf("got %s %q, want IDENT _foo", tok.Type, tok.Literal)
	}
}

func TestNextTokenTracksLineAndColumn(t *testing.T) {
	l := New("U\nU", "test")
	first := l.NextToken()
	second := l.NextToken()
	if first.Line != 1 {
		t.Fatalf("first.Line = %d, want 1", first.Line)
	}
	if second.Line != 2 {
		t.Fatalf("second.Line = %d, want 2", second.Line)
	}
	if first.Column != 1 {
		t.Fatalf("first.Column = %d, want 1", first.Column)
	}
	if second.Column != 1 {
		t.Fatalf("second.Column = %d, want 1", second.Column)
	}
}
