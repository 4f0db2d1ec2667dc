package lex

import (
	"testing"

	"github.com/limec/limec/internal/common"
	"github.com/limec/limec/internal/token"
)

func scanAll(t *testing.T, src string) ([]Tok, *common.ErrorList) {
	t.Helper()
	errs := &common.ErrorList{}
	l := New(&token.File{Filename: "test.lm", Src: []byte(src)}, errs)
	var toks []Tok
	for {
		tok := l.Current()
		toks = append(toks, tok)
		if tok.Kind == token.EOF {
			break
		}
		l.Next()
	}
	return toks, errs
}

func kinds(toks []Tok) []token.Token {
	out := make([]token.Token, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func assertKinds(t *testing.T, src string, want ...token.Token) {
	t.Helper()
	toks, errs := scanAll(t, src)
	if errs.IsError() {
		t.Fatalf("unexpected lex errors for %q: %v", src, errs.Errors)
	}
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("%q: got %d tokens %v, want %d %v", src, len(got), got, len(want), want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d = %s, want %s", src, i, got[i], want[i])
		}
	}
}

func TestLexOperators(t *testing.T) {
	assertKinds(t, "+ - * / += -= *= /= ++ -- == != < <= > >= = ! & -> : :: :=",
		token.Add, token.Sub, token.Mul, token.Div,
		token.AddAssign, token.SubAssign, token.MulAssign, token.DivAssign,
		token.Inc, token.Dec,
		token.Eq, token.Neq, token.Lt, token.LtEq, token.Gt, token.GtEq,
		token.Assign, token.Not, token.And, token.Arrow,
		token.Colon, token.ColonColon, token.Define,
		token.EOF)
}

func TestLexGreedyMultiCharOperators(t *testing.T) {
	// <= must beat <, :: must beat :, := must beat :, -> must beat -.
	assertKinds(t, "<=", token.LtEq, token.EOF)
	assertKinds(t, "::", token.ColonColon, token.EOF)
	assertKinds(t, ":=", token.Define, token.EOF)
	assertKinds(t, "->", token.Arrow, token.EOF)
}

func TestLexKeywordsAndIdentifiers(t *testing.T) {
	assertKinds(t, "if else return true false const struct import null foo _bar1",
		token.If, token.Else, token.Return, token.True, token.False,
		token.Const, token.Struct, token.Import, token.Null,
		token.Ident, token.Ident, token.EOF)
}

func TestLexNumbers(t *testing.T) {
	toks, errs := scanAll(t, "42 3.14 7f")
	if errs.IsError() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	want := []string{"42", "3.14", "7f"}
	for i, w := range want {
		if toks[i].Kind != token.Number {
			t.Fatalf("token %d: kind = %s, want Number", i, toks[i].Kind)
		}
		if toks[i].Literal != w {
			t.Fatalf("token %d: literal = %q, want %q", i, toks[i].Literal, w)
		}
	}
}

func TestLexString(t *testing.T) {
	toks, errs := scanAll(t, `"hello world"`)
	if errs.IsError() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	if toks[0].Kind != token.String || toks[0].Literal != "hello world" {
		t.Fatalf("got %+v, want String %q", toks[0], "hello world")
	}
}

func TestLexUnterminatedString(t *testing.T) {
	_, errs := scanAll(t, `"hello`)
	if !errs.IsError() {
		t.Fatalf("expected a lex error for an unterminated string")
	}
}

func TestLexLineComment(t *testing.T) {
	assertKinds(t, "a := 1; // a comment\nb := 2;",
		token.Ident, token.Define, token.Number, token.Semicolon,
		token.Ident, token.Define, token.Number, token.Semicolon,
		token.EOF)
}

func TestLexLineNumbers(t *testing.T) {
	toks, errs := scanAll(t, "a\nb\n\nc")
	if errs.IsError() {
		t.Fatalf("unexpected errors: %v", errs.Errors)
	}
	wantLines := []int{1, 2, 4, 4}
	for i, want := range wantLines {
		if toks[i].Pos.Line != want {
			t.Fatalf("token %d (%q): line = %d, want %d", i, toks[i].Literal, toks[i].Pos.Line, want)
		}
	}
}

func TestLexUnknownByte(t *testing.T) {
	_, errs := scanAll(t, "a ~ b")
	if !errs.IsError() {
		t.Fatalf("expected a lex error for an unrecognized byte")
	}
}

func TestLexLookAroundWindow(t *testing.T) {
	errs := &common.ErrorList{}
	l := New(&token.File{Filename: "t.lm", Src: []byte("a + b")}, errs)

	if l.Current().Kind != token.Ident {
		t.Fatalf("Current = %s, want Ident", l.Current().Kind)
	}
	if l.Peek().Kind != token.Add {
		t.Fatalf("Peek = %s, want Add", l.Peek().Kind)
	}
	l.Next()
	if l.Previous().Kind != token.Ident {
		t.Fatalf("Previous = %s, want Ident", l.Previous().Kind)
	}
	if l.Current().Kind != token.Add {
		t.Fatalf("Current = %s, want Add", l.Current().Kind)
	}
	if l.Peek().Kind != token.Ident {
		t.Fatalf("Peek = %s, want Ident", l.Peek().Kind)
	}
}

func TestLexIdempotence(t *testing.T) {
	src := "f :: (x: int32) -> int64 { return x; }"
	toks1, _ := scanAll(t, src)
	toks2, _ := scanAll(t, src)
	if len(toks1) != len(toks2) {
		t.Fatalf("lexing twice produced different lengths: %d vs %d", len(toks1), len(toks2))
	}
	for i := range toks1 {
		if toks1[i].Kind != toks2[i].Kind || toks1[i].Literal != toks2[i].Literal {
			t.Fatalf("token %d differs: %+v vs %+v", i, toks1[i], toks2[i])
		}
	}
}
