package lexer

import (
	"testing"

	"unitrt/token"
)

func typesOf(toks []token.Token) []token.TokenType {
	out := make([]token.TokenType, 0, len(toks))
	for _, t := range toks {
		out = append(out, t.Type)
	}
	return out
}

func TestScanBasicUnit(t *testing.T) {
	src := `unit Main { on Start -> () Print("hi"); end }`
	toks, err := New(src).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []token.TokenType{
		token.UNIT, token.IDENTIFIER, token.LBRACE,
		token.ON, token.IDENTIFIER, token.ARROW, token.LPAREN, token.RPAREN,
		token.IDENTIFIER, token.LPAREN, token.STRING, token.RPAREN, token.SEMICOLON,
		token.END, token.RBRACE, token.EOF,
	}
	got := typesOf(toks)
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanDottedIdentifier(t *testing.T) {
	toks, err := New(`io.print`).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(toks) != 2 || toks[0].Type != token.IDENTIFIER || toks[0].Lexeme != "io.print" {
		t.Fatalf("expected single dotted identifier, got %v", toks)
	}
}

func TestScanTwoCharOperatorsMaximalMunch(t *testing.T) {
	toks, err := New(`<= >= == != ++ -- ->`).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	want := []token.TokenType{
		token.LESS_EQUAL, token.GREATER_EQUAL, token.EQUAL_EQUAL, token.NOT_EQUAL,
		token.PLUS_PLUS, token.MINUS_MINUS, token.ARROW, token.EOF,
	}
	got := typesOf(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestScanComment(t *testing.T) {
	toks, err := New("local x; # trailing comment\nlocal y;").Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	got := typesOf(toks)
	want := []token.TokenType{
		token.LOCAL, token.IDENTIFIER, token.SEMICOLON,
		token.LOCAL, token.IDENTIFIER, token.SEMICOLON, token.EOF,
	}
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d (%v)", len(got), len(want), got)
	}
}

func TestScanNumber(t *testing.T) {
	toks, err := New(`42 3.14`).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if toks[0].Lexeme != "42" || toks[1].Lexeme != "3.14" {
		t.Fatalf("unexpected lexemes: %v", toks)
	}
}

// TestScanColumnsAdvancePerCharacter exercises spec.md §4.1's 1-based
// (line, column) contract: two tokens on the same line must carry
// distinct columns that reflect their actual offsets.
func TestScanColumnsAdvancePerCharacter(t *testing.T) {
	toks, err := New(`foo bar`).Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(toks) < 2 || toks[0].Lexeme != "foo" || toks[1].Lexeme != "bar" {
		t.Fatalf("unexpected tokens: %v", toks)
	}
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Fatalf("foo: got line=%d column=%d, want line=1 column=1", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 1 || toks[1].Column != 5 {
		t.Fatalf("bar: got line=%d column=%d, want line=1 column=5", toks[1].Line, toks[1].Column)
	}
	if toks[0].Column == toks[1].Column {
		t.Fatal("expected distinct columns for two tokens on the same line")
	}
}

// TestScanColumnResetsAfterNewline checks that column restarts at 1 on a
// new line rather than continuing to climb (spec.md §4.1).
func TestScanColumnResetsAfterNewline(t *testing.T) {
	toks, err := New("foo\nbar").Scan()
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(toks) < 2 || toks[0].Lexeme != "foo" || toks[1].Lexeme != "bar" {
		t.Fatalf("unexpected tokens: %v", toks)
	}
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Fatalf("foo: got line=%d column=%d, want line=1 column=1", toks[0].Line, toks[0].Column)
	}
	if toks[1].Line != 2 || toks[1].Column != 1 {
		t.Fatalf("bar: got line=%d column=%d, want line=2 column=1", toks[1].Line, toks[1].Column)
	}
}

func TestScanUnterminatedString(t *testing.T) {
	_, err := New(`"oops`).Scan()
	if err == nil {
		t.Fatal("expected lex error for unterminated string")
	}
}

func TestScanUnknownByte(t *testing.T) {
	_, err := New("@").Scan()
	if err == nil {
		t.Fatal("expected lex error for unknown byte")
	}
}
