package lexer

import (
	"bytes"
	"testing"

	"golang.org/x/text/unicode/norm"
)

func TestNormalizeStripsBOM(t *testing.T) {
	got := Normalize(append(append([]byte{}, bomUTF8...), []byte("U")...))
	if !bytes.Equal(got, []byte("U")) {
		t.Fatalf("Normalize = %q, want %q", got, "U")
	}
}

func TestNormalizeAppliesNFC(t *testing.T) {
	nfd := []byte("café") // e + combining acute, NFD
	got := string(Normalize(nfd))
	if got != "café" {
		t.Fatalf("Normalize = %q, want %q", got, "café")
	}
	if !norm.NFC.IsNormalString(got) {
		t.Fatalf("result is not NFC: %q", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"U", "café", "café", "﻿U"}
	for _, in := range inputs {
		first := Normalize([]byte(in))
		second := Normalize(first)
		if !bytes.Equal(first, second) {
			t.Fatalf("Normalize(%q) not idempotent: %q vs %q", in, first, second)
		}
	}
}

func TestNormalizeProducesIdenticalTokensAcrossForms(t *testing.T) {
	nfc := Normalize([]byte("let café = U in café"))
	nfd := Normalize([]byte("let café = U in café"))

	tokensOf := func(src []byte) []TokenType {
		l := New(string(src), "test")
		var out []TokenType
		for {
			tok := l.NextToken()
			out = append(out, tok.Type)
			if tok.Type == EOF {
				break
			}
		}
		return out
	}

	a, b := tokensOf(nfc), tokensOf(nfd)
	if len(a) != len(b) {
		t.Fatalf("token count mismatch: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("token %d type mismatch: %v vs %v", i, a[i], b[i])
		}
	}
}
