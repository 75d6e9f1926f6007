package lexer

import (
	"testing"

	"cinterp/pkg/token"
)

func typesOf(toks []token.Token) []token.Type {
	out := make([]token.Type, len(toks))
	for i, t := range toks {
		out[i] = t.Type
	}
	return out
}

func TestLexBasicTokens(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []token.Type
	}{
		{
			name:  "empty",
			input: "",
			want:  []token.Type{token.EOF},
		},
		{
			name:  "punctuators",
			input: "+ - * / % & | ^ ~ = == != < <= > >= << >>",
			want: []token.Type{
				token.PLUS, token.MINUS, token.STAR, token.SLASH, token.PERCENT,
				token.AMP, token.PIPE, token.CARET, token.TILDE, token.ASSIGN,
				token.EQ, token.NOT_EQ, token.LESS, token.LESS_EQ, token.GREATER,
				token.GREATER_EQ, token.SHL, token.SHR, token.EOF,
			},
		},
		{
			name:  "compound assignment and increment",
			input: "+= -= *= /= %= ++ --",
			want: []token.Type{
				token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.STAR_ASSIGN,
				token.SLASH_ASSIGN, token.PERCENT_ASSIGN, token.PLUS_PLUS,
				token.MINUS_MINUS, token.EOF,
			},
		},
		{
			name:  "keywords vs identifiers",
			input: "int float char void if else for while do return break continue sizeof switch case default x",
			want: []token.Type{
				token.INT, token.FLOAT, token.CHAR, token.VOID, token.IF, token.ELSE,
				token.FOR, token.WHILE, token.DO, token.RETURN, token.BREAK,
				token.CONTINUE, token.SIZEOF, token.SWITCH, token.CASE, token.DEFAULT,
				token.IDENTIFIER, token.EOF,
			},
		},
		{
			name:  "numbers decimal hex octal float",
			input: "123 0x1F 010 3.14 2.5e10 1e-3",
			want: []token.Type{
				token.INT_LIT, token.INT_LIT, token.INT_LIT, token.FLOAT_LIT,
				token.FLOAT_LIT, token.FLOAT_LIT, token.EOF,
			},
		},
		{
			name:  "char and string literals",
			input: `'a' '\n' "hello\tworld"`,
			want:  []token.Type{token.CHAR_LIT, token.CHAR_LIT, token.STRING_LIT, token.EOF},
		},
		{
			name:  "comments skipped",
			input: "1 // trailing comment\n2 /* block\ncomment */ 3",
			want:  []token.Type{token.INT_LIT, token.INT_LIT, token.INT_LIT, token.EOF},
		},
		{
			name:  "ternary and question/colon",
			input: "a ? b : c",
			want:  []token.Type{token.IDENTIFIER, token.QUESTION, token.IDENTIFIER, token.COLON, token.IDENTIFIER, token.EOF},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			toks, err := Lex(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			got := typesOf(toks)
			if len(got) != len(tt.want) {
				t.Fatalf("got %d tokens %v, want %d %v", len(got), got, len(tt.want), tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("token %d: got %v, want %v (full: %v)", i, got[i], tt.want[i], got)
				}
			}
		})
	}
}

func TestLexPositions(t *testing.T) {
	toks, err := Lex("int x\n  y")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if toks[0].Line != 1 || toks[0].Column != 1 {
		t.Fatalf("int token pos = %d:%d, want 1:1", toks[0].Line, toks[0].Column)
	}
	// "y" is on line 2, column 3 (two leading spaces).
	var yTok token.Token
	for _, tk := range toks {
		if tk.Lexeme == "y" {
			yTok = tk
		}
	}
	if yTok.Line != 2 || yTok.Column != 3 {
		t.Fatalf("y token pos = %d:%d, want 2:3", yTok.Line, yTok.Column)
	}
}

func TestLexEscapesInCharAndString(t *testing.T) {
	toks, err := Lex(`'\0' '\\' '\'' "a\"b"`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wantLexemes := []string{"0", "92", "39"}
	for i, want := range wantLexemes {
		if toks[i].Lexeme != want {
			t.Fatalf("char literal %d lexeme = %q, want %q", i, toks[i].Lexeme, want)
		}
	}
	if toks[3].Lexeme != `a"b` {
		t.Fatalf("string literal = %q, want %q", toks[3].Lexeme, `a"b`)
	}
}

func TestLexErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"unterminated string", `"abc`},
		{"unterminated block comment", `/* never closes`},
		{"unterminated char literal", `'a`},
		{"empty char literal", `''`},
		{"unknown escape", `'\q'`},
		{"unexpected character", `@`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Lex(tt.input); err == nil {
				t.Fatalf("expected an error for input %q", tt.input)
			}
		})
	}
}

func TestLexEOFAlwaysTerminatesStream(t *testing.T) {
	toks, err := Lex("int main() { return 0; }")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if last := toks[len(toks)-1]; last.Type != token.EOF {
		t.Fatalf("last token = %v, want EOF", last.Type)
	}
}
