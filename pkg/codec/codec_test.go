package codec

import "testing"

func TestHexToBytesRoundTrip(t *testing.T) {
	cases := []string{"", "00", "48656c6c6f", "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b"}
	for _, s := range cases {
		b, err := HexToBytes(s, 0)
		if err != nil {
			t.Fatalf("HexToBytes(%q): %v", s, err)
		}
		if got := BytesToHex(b); got != s {
			t.Errorf("BytesToHex(HexToBytes(%q)) = %q, want %q", s, got, s)
		}
	}
}

func TestHexToBytesUppercase(t *testing.T) {
	b, err := HexToBytes("4A6F", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := BytesToHex(b); got != "4a6f" {
		t.Errorf("got %q, want %q", got, "4a6f")
	}
}

func TestHexToBytesOddLength(t *testing.T) {
	if _, err := HexToBytes("abc", 0); err == nil {
		t.Fatal("expected error for odd-length hex")
	}
}

func TestHexToBytesInvalidChar(t *testing.T) {
	if _, err := HexToBytes("zz", 0); err == nil {
		t.Fatal("expected error for non-hex chars")
	}
}

func TestHexToBytesTooLong(t *testing.T) {
	if _, err := HexToBytes("aabbccdd", 3); err == nil {
		t.Fatal("expected TooLong error")
	}
}

func TestLenWithinMax(t *testing.T) {
	if !LenWithinMax(10, 16) {
		t.Error("expected 10 within max 16")
	}
	if LenWithinMax(17, 16) {
		t.Error("expected 17 to exceed max 16")
	}
	if !LenWithinMax(1<<20, 0) {
		t.Error("expected unbounded when maxLen <= 0")
	}
}

func TestConstantTimeCompare(t *testing.T) {
	a := []byte{1, 2, 3, 4}
	b := []byte{1, 2, 3, 4}
	c := []byte{1, 2, 3, 5}
	d := []byte{1, 2, 3}

	if !ConstantTimeCompare(a, b) {
		t.Error("expected equal slices to compare equal")
	}
	if ConstantTimeCompare(a, c) {
		t.Error("expected differing content to compare unequal")
	}
	if ConstantTimeCompare(a, d) {
		t.Error("expected differing lengths to compare unequal")
	}
}

func TestBitsToBytes(t *testing.T) {
	n, err := BitsToBytes(256)
	if err != nil || n != 32 {
		t.Fatalf("BitsToBytes(256) = (%d, %v), want (32, nil)", n, err)
	}
	if _, err := BitsToBytes(255); err == nil {
		t.Fatal("expected error for non-byte-aligned bit length")
	}
	if _, err := BitsToBytes(-8); err == nil {
		t.Fatal("expected error for negative bit length")
	}
}
