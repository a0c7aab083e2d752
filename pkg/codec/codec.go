// Package codec implements the hex conversions, length checks and
// constant-time comparison that every vector-set handler relies on.
//
// Every AMVP test-case field arrives as a JSON string holding lowercase
// (occasionally mixed-case) hex. Handlers never call encoding/hex directly:
// they go through HexToBytes so the "hex length must be even, output must
// fit the family's buffer ceiling" contract is enforced in exactly one
// place.
package codec

import (
	"encoding/hex"
	"fmt"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
)

// HexToBytes decodes hex into a new byte slice, rejecting any input whose
// decoded length would exceed maxLen. maxLen <= 0 means unbounded.
//
// An odd-length string is always invalid; there is no implicit leading
// zero nibble.
func HexToBytes(s string, maxLen int) ([]byte, error) {
	if len(s)%2 != 0 {
		return nil, amvperrors.New("codec.HexToBytes", amvperrors.KindInvalidArg,
			fmt.Errorf("odd-length hex string (%d chars)", len(s)))
	}
	decodedLen := len(s) / 2
	if maxLen > 0 && decodedLen > maxLen {
		return nil, amvperrors.New("codec.HexToBytes", amvperrors.KindInvalidArg,
			fmt.Errorf("hex decodes to %d bytes, exceeds limit of %d", decodedLen, maxLen))
	}
	out, err := hex.DecodeString(s)
	if err != nil {
		return nil, amvperrors.New("codec.HexToBytes", amvperrors.KindInvalidArg, err)
	}
	return out, nil
}

// BytesToHex renders b as lowercase hex. The "out_cap" parameter of the
// source ABI has no equivalent here: Go slices grow as needed, so the only
// remaining failure mode (TooLong against a fixed caller buffer) cannot
// occur — callers that need a ceiling check call LenWithinMax first.
func BytesToHex(b []byte) string {
	return hex.EncodeToString(b)
}

// LenWithinMax reports whether n is within [0, maxLen]. maxLen <= 0 means
// unbounded. Handlers call this before decoding a length field taken
// directly from JSON (e.g. a declared "keyLen" in bits) rather than from an
// already-decoded byte slice.
func LenWithinMax(n, maxLen int) bool {
	if maxLen <= 0 {
		return n >= 0
	}
	return n >= 0 && n <= maxLen
}

// ConstantTimeCompare reports whether a and b hold identical content. It
// always walks both slices to completion regardless of where they first
// differ, and treats differing lengths as outright inequality without an
// early return on the length check alone, since a VAL test-type comparison
// must not leak timing information about how much of a server-supplied
// secret matched.
func ConstantTimeCompare(a, b []byte) bool {
	var v byte
	if len(a) != len(b) {
		v = 1
	}
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		v |= a[i] ^ b[i]
	}
	return v == 0
}

// BitsToBytes converts a bit-length to a byte-length, rejecting lengths
// that are not a whole number of bytes. Several AMVP families (KDA's `l`,
// HMAC's `macLen`) declare lengths in bits but require byte alignment.
func BitsToBytes(bits int) (int, error) {
	if bits < 0 || bits%8 != 0 {
		return 0, amvperrors.New("codec.BitsToBytes", amvperrors.KindMalformedJSON,
			fmt.Errorf("length %d bits is not a multiple of 8", bits))
	}
	return bits / 8, nil
}
