package driver

import "testing"

func TestCompileSucceeds(t *testing.T) {
	res := Compile("ok.lm", []byte(`f :: (x: int32) -> int32 { return x + 1; }`))
	if !res.Succeeded {
		t.Fatalf("expected success, errors: %v", res.Errors.Errors)
	}
	if res.IR == "" {
		t.Fatalf("expected non-empty IR text")
	}
}

func TestCompileReportsLexerFailure(t *testing.T) {
	res := Compile("bad.lm", []byte("f :: (x: int32) -> int32 { return `; }"))
	if res.Succeeded {
		t.Fatalf("expected failure on an unterminated/invalid token")
	}
	if !res.Errors.IsError() {
		t.Fatalf("expected a recorded error")
	}
}

func TestCompileReportsGenFailure(t *testing.T) {
	res := Compile("missing-return.lm", []byte(`f :: (x: int32) -> int32 { y := 1; }`))
	if res.Succeeded {
		t.Fatalf("expected failure: non-void function falls through without a return")
	}
	if !res.Errors.IsError() {
		t.Fatalf("expected a recorded error")
	}
}

func TestCompileIsolatedAcrossCalls(t *testing.T) {
	first := Compile("a.lm", []byte(`a := 1;`))
	second := Compile("b.lm", []byte(`a := 2;`))
	if !first.Succeeded || !second.Succeeded {
		t.Fatalf("expected both independent compilations to succeed")
	}
}
