package kda

import (
	"bytes"
	"testing"
)

func TestParsePatternOrderPreserved(t *testing.T) {
	elems, err := ParsePattern("uPartyInfo||vPartyInfo||label")
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	want := []PatternToken{PatternUPartyInfo, PatternVPartyInfo, PatternLabel}
	if len(elems) != len(want) {
		t.Fatalf("got %d elements, want %d", len(elems), len(want))
	}
	for i, w := range want {
		if elems[i].Token != w {
			t.Errorf("element %d = %v, want %v", i, elems[i].Token, w)
		}
	}
}

func TestParsePatternLiteralPayload(t *testing.T) {
	elems, err := ParsePattern("uPartyInfo||vPartyInfo||literal[0a0b]||label")
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	if len(elems) != 4 {
		t.Fatalf("got %d elements, want 4", len(elems))
	}
	lit := elems[2]
	if lit.Token != PatternLiteral {
		t.Fatalf("element 2 = %v, want literal", lit.Token)
	}
	if !bytes.Equal(lit.Literal, []byte{0x0a, 0x0b}) {
		t.Errorf("literal payload = %x, want 0a0b", lit.Literal)
	}
}

func TestParsePatternAllTokens(t *testing.T) {
	elems, err := ParsePattern("l||uPartyInfo||vPartyInfo||context||algorithmId||label||t")
	if err != nil {
		t.Fatalf("ParsePattern: %v", err)
	}
	want := []PatternToken{PatternL, PatternUPartyInfo, PatternVPartyInfo,
		PatternContext, PatternAlgorithmID, PatternLabel, PatternT}
	for i, w := range want {
		if elems[i].Token != w {
			t.Errorf("element %d = %v, want %v", i, elems[i].Token, w)
		}
	}
}

func TestParsePatternErrors(t *testing.T) {
	cases := []struct {
		name    string
		pattern string
	}{
		{"empty", ""},
		{"unknown token", "uPartyInfo||vPartyInfo||bogus"},
		{"missing uPartyInfo", "vPartyInfo||label"},
		{"missing vPartyInfo", "uPartyInfo||label"},
		{"odd literal hex", "uPartyInfo||vPartyInfo||literal[abc]"},
		{"empty literal", "uPartyInfo||vPartyInfo||literal[]"},
		{"unterminated literal", "uPartyInfo||vPartyInfo||literal[0a0b"},
		{"non-hex literal", "uPartyInfo||vPartyInfo||literal[zzzz]"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParsePattern(tc.pattern); err == nil {
				t.Errorf("ParsePattern(%q) succeeded, want error", tc.pattern)
			}
		})
	}
}
