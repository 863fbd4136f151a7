package services

import (
	"strings"
	"testing"
)

func TestNewSecureToken(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok := NewSecureToken()
		if len(tok) != 32 {
			t.Fatalf("length %d", len(tok))
		}
		for _, r := range tok {
			if !strings.ContainsRune(tokenAlphabet, r) {
				t.Fatalf("unexpected rune %q in %s", r, tok)
			}
		}
		if seen[tok] {
			t.Fatalf("duplicate token %s", tok)
		}
		seen[tok] = true
	}
}

func TestNewPaperToken(t *testing.T) {
	tok := NewPaperToken()
	if len(tok) != 8 {
		t.Fatalf("length %d", len(tok))
	}
}
