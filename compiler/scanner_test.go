package compiler

import "testing"

func scanAll(src string) []Token {
	s := NewScanner([]byte(src))
	var toks []Token
	for {
		t := s.Next()
		toks = append(toks, t)
		if t.Type == TokenEOF {
			break
		}
	}
	return toks
}

func TestScannerIntegers(t *testing.T) {
	toks := scanAll("42 0x2a -7")
	if toks[0].Type != TokenInteger || toks[0].I != 42 {
		t.Fatalf("toks[0] = %+v, want Integer 42", toks[0])
	}
	if toks[1].Type != TokenInteger || toks[1].I != 42 {
		t.Fatalf("toks[1] = %+v, want Integer 42 (hex)", toks[1])
	}
	// scanNumber does not consume a leading '-'; that is unary minus.
	if toks[2].Type != TokenPunct || toks[2].Ch != '-' {
		t.Fatalf("toks[2] = %+v, want Punct '-'", toks[2])
	}
	if toks[3].Type != TokenInteger || toks[3].I != 7 {
		t.Fatalf("toks[3] = %+v, want Integer 7", toks[3])
	}
}

func TestScannerFloats(t *testing.T) {
	toks := scanAll("1.5 2e3 0.25e-1")
	for i, want := range []float32{1.5, 2000, 0.025} {
		if toks[i].Type != TokenFloat {
			t.Fatalf("toks[%d].Type = %v, want Float", i, toks[i].Type)
		}
		if toks[i].F != want {
			t.Fatalf("toks[%d].F = %v, want %v", i, toks[i].F, want)
		}
	}
}

func TestScannerString(t *testing.T) {
	toks := scanAll(`"hi\n%i"`)
	if toks[0].Type != TokenString {
		t.Fatalf("Type = %v, want String", toks[0].Type)
	}
	if toks[0].Text != "hi\n%i" {
		t.Fatalf("Text = %q, want %q", toks[0].Text, "hi\n%i")
	}
}

func TestScannerStringEscapes(t *testing.T) {
	toks := scanAll(`"\t\r\\\'\""`)
	want := "\t\r\\'\""
	if toks[0].Text != want {
		t.Fatalf("Text = %q, want %q", toks[0].Text, want)
	}
}

func TestScannerUnterminatedString(t *testing.T) {
	toks := scanAll(`"abc`)
	if toks[0].Type != TokenString || toks[0].Text != "abc" {
		t.Fatalf("toks[0] = %+v, want partial String \"abc\"", toks[0])
	}
	if toks[1].Type != TokenEOF {
		t.Fatalf("toks[1].Type = %v, want EOF", toks[1].Type)
	}
}

func TestScannerLineComment(t *testing.T) {
	toks := scanAll("1 // trailing comment\n2")
	if toks[0].I != 1 || toks[1].Type != TokenNewline || toks[2].I != 2 {
		t.Fatalf("toks = %+v, want [1, Newline, 2] around a line comment", toks)
	}
}

func TestScannerBlockComment(t *testing.T) {
	toks := scanAll("1 /* skip\nthis */ 2")
	if toks[0].I != 1 || toks[1].I != 2 {
		t.Fatalf("toks = %+v, want [1, 2] around a block comment", toks)
	}
}

func TestScannerMultiCharPunct(t *testing.T) {
	toks := scanAll("== != <= >= ++ -- += -= && ||")
	want := []TokenType{
		TokenEq, TokenNe, TokenLe, TokenGe, TokenIncr, TokenDecr,
		TokenAddEq, TokenSubEq, TokenLAnd, TokenLOr,
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Fatalf("toks[%d].Type = %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestScannerReservedWords(t *testing.T) {
	toks := scanAll("function command struct if else for while loop return break continue log int float")
	want := []TokenType{
		TokenFunction, TokenCommand, TokenStruct, TokenIf, TokenElse,
		TokenFor, TokenWhile, TokenLoop, TokenReturn, TokenBreak,
		TokenContinue, TokenLog, TokenIntType, TokenFloatType,
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Fatalf("toks[%d].Type = %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestScannerIdentifierNotReserved(t *testing.T) {
	toks := scanAll("loopCounter")
	if toks[0].Type != TokenIdentifier || toks[0].Text != "loopCounter" {
		t.Fatalf("toks[0] = %+v, want Identifier loopCounter", toks[0])
	}
}

func TestScannerPeekDoesNotConsume(t *testing.T) {
	s := NewScanner([]byte("1 2"))
	a := s.Peek()
	b := s.Peek()
	if a != b {
		t.Fatalf("Peek() not idempotent: %+v != %+v", a, b)
	}
	c := s.Next()
	if c != a {
		t.Fatalf("Next() after Peek() = %+v, want %+v", c, a)
	}
	d := s.Next()
	if d.I != 2 {
		t.Fatalf("second Next() = %+v, want Integer 2", d)
	}
}

func TestScannerIgnoreNewlines(t *testing.T) {
	s := NewScanner([]byte("1\n2"))
	s.IgnoreNewlines = true
	first := s.Next()
	second := s.Next()
	if first.Type != TokenInteger || second.Type != TokenInteger {
		t.Fatalf("got %+v, %+v, want newline elided between two integers", first, second)
	}
}

func TestScannerAnnotations(t *testing.T) {
	s := NewScanner([]byte("x"))
	s.RecordAnnotation(0)
	s.RecordAnnotation(3)
	got := s.Annotations()
	if len(got) != 2 || got[0].Offset != 0 || got[1].Offset != 3 {
		t.Fatalf("Annotations() = %+v, unexpected", got)
	}
}
