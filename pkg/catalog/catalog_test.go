package catalog

import "testing"

func TestParseAlgorithmIDKnown(t *testing.T) {
	id, err := ParseAlgorithmID("ACVP-AES-GCM", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != AESGCM {
		t.Errorf("got %v, want AESGCM", id)
	}
	if FamilyOf(id) != FamilyAEAD {
		t.Errorf("FamilyOf(AESGCM) = %v, want FamilyAEAD", FamilyOf(id))
	}
}

func TestParseAlgorithmIDWithMode(t *testing.T) {
	id, err := ParseAlgorithmID("ACVP-AES-CBC-CS1", "CS1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != AESCBCCS1 {
		t.Errorf("got %v, want AESCBCCS1", id)
	}
}

func TestParseAlgorithmIDUnknown(t *testing.T) {
	if _, err := ParseAlgorithmID("NOT-AN-ALGORITHM", ""); err == nil {
		t.Fatal("expected error for unknown algorithm")
	}
}

func TestAlgorithmIDNameRoundTrip(t *testing.T) {
	for id, name := range idNames {
		if id == Unknown {
			continue
		}
		if _, ok := modeNamesToID[name]; ok {
			continue // disambiguated by mode, not a 1:1 round trip
		}
		got, err := ParseAlgorithmID(name, "")
		if err != nil {
			t.Errorf("ParseAlgorithmID(%q) failed: %v", name, err)
		}
		if got != id {
			t.Errorf("ParseAlgorithmID(%q) = %v, want %v", name, got, id)
		}
	}
}

func TestParseHashAlg(t *testing.T) {
	h, err := ParseHashAlg("SHA2-256")
	if err != nil || h != SHA2_256 {
		t.Fatalf("got (%v, %v), want (SHA2_256, nil)", h, err)
	}
	if _, err := ParseHashAlg("SHA-bogus"); err == nil {
		t.Fatal("expected error for unknown hash")
	}
}

func TestParseCurve(t *testing.T) {
	c, err := ParseCurve("P-256")
	if err != nil || c != P256 {
		t.Fatalf("got (%v, %v), want (P256, nil)", c, err)
	}
	if _, err := ParseCurve("P-999"); err == nil {
		t.Fatal("expected error for unknown curve")
	}
}

func TestParseRandPQ(t *testing.T) {
	r, err := ParseRandPQ("B.3.3")
	if err != nil || r != B333 {
		t.Fatalf("got (%v, %v), want (B333, nil)", r, err)
	}
}

func TestParseKDF108Mode(t *testing.T) {
	m, err := ParseKDF108Mode("counter")
	if err != nil || m != KDF108Counter {
		t.Fatalf("got (%v, %v), want (KDF108Counter, nil)", m, err)
	}
}

func TestParseSaltMethod(t *testing.T) {
	s, err := ParseSaltMethod("random")
	if err != nil || s != SaltRandom {
		t.Fatalf("got (%v, %v), want (SaltRandom, nil)", s, err)
	}
}

func TestParseEncoding(t *testing.T) {
	e, err := ParseEncoding("concatenation")
	if err != nil || e != EncodingConcatenation {
		t.Fatalf("got (%v, %v), want (EncodingConcatenation, nil)", e, err)
	}
}

func TestParseMacMode(t *testing.T) {
	m, err := ParseMacMode("HMAC-SHA2-256")
	if err != nil || m != MacHMACSHA2_256 {
		t.Fatalf("got (%v, %v), want (MacHMACSHA2_256, nil)", m, err)
	}
}

func TestParsePrimeTest(t *testing.T) {
	p, err := ParsePrimeTest("tblC2")
	if err != nil || p != PrimeTestTblC2 {
		t.Fatalf("got (%v, %v), want (PrimeTestTblC2, nil)", p, err)
	}
	if _, err := ParsePrimeTest("tblC9"); err == nil {
		t.Fatal("expected an error for an unknown primeTest")
	}
}

func TestParseAuxFunction(t *testing.T) {
	a, err := ParseAuxFunction("HMAC-SHA2-256")
	if err != nil || a != AuxHMACSHA2_256 {
		t.Fatalf("got (%v, %v), want (AuxHMACSHA2_256, nil)", a, err)
	}
	if !a.IsMACBased() {
		t.Error("HMAC-SHA2-256 should be MAC-based")
	}
	h, err := ParseAuxFunction("SHA2-512")
	if err != nil || h.IsMACBased() {
		t.Errorf("SHA2-512 should parse as a non-MAC aux function, got (%v, %v)", h, err)
	}
}

func TestParseSafePrimeGroup(t *testing.T) {
	g, err := ParseSafePrimeGroup("ffdhe2048")
	if err != nil || g != FFDHE2048 {
		t.Fatalf("got (%v, %v), want (FFDHE2048, nil)", g, err)
	}
	if _, err := ParseSafePrimeGroup("modp-1024"); err == nil {
		t.Fatal("expected an error for an unlisted group")
	}
}
