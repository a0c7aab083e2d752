package main

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/subtle"
	"encoding/binary"
	"fmt"

	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/handlers/keywrap"
)

// aesKeyWrap implements keywrap.Callback: RFC 3394 AES-KW and RFC 5649
// AES-KWP over crypto/aes. The inverse flag runs the wrapping function
// with the block cipher's decrypt primitive, the "KW with AES-1" variant
// some modules certify.
type aesKeyWrap struct{}

func newKeyWrap() *aesKeyWrap { return &aesKeyWrap{} }

var _ keywrap.Callback = (*aesKeyWrap)(nil)

const kwDefaultIV = 0xa6a6a6a6a6a6a6a6

func (w *aesKeyWrap) Wrap(alg catalog.AlgorithmID, key, pt []byte, inverse bool) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	switch alg {
	case catalog.AESKW:
		if len(pt) < 16 || len(pt)%8 != 0 {
			return nil, fmt.Errorf("kw: payload must be >= 16 bytes and 8-byte aligned, got %d", len(pt))
		}
		return kwWrap(block, kwDefaultIV, pt, inverse), nil
	case catalog.AESKWP:
		return kwpWrap(block, pt, inverse)
	default:
		return nil, fmt.Errorf("reference module does not implement %s", alg)
	}
}

func (w *aesKeyWrap) Unwrap(alg catalog.AlgorithmID, key, ct []byte, inverse bool) ([]byte, bool, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, false, err
	}
	switch alg {
	case catalog.AESKW:
		if len(ct) < 24 || len(ct)%8 != 0 {
			return nil, false, fmt.Errorf("kw: wrapped payload must be >= 24 bytes and 8-byte aligned, got %d", len(ct))
		}
		pt, a := kwUnwrap(block, ct, inverse)
		if a != kwDefaultIV {
			return nil, false, nil
		}
		return pt, true, nil
	case catalog.AESKWP:
		return kwpUnwrap(block, ct, inverse)
	default:
		return nil, false, fmt.Errorf("reference module does not implement %s", alg)
	}
}

// encBlock runs the 128-bit wrapping primitive forward, or backward when
// inverse is set.
func encBlock(block cipher.Block, dst, src []byte, inverse bool) {
	if inverse {
		block.Decrypt(dst, src)
	} else {
		block.Encrypt(dst, src)
	}
}

func decBlock(block cipher.Block, dst, src []byte, inverse bool) {
	if inverse {
		block.Encrypt(dst, src)
	} else {
		block.Decrypt(dst, src)
	}
}

// kwWrap is the W transformation of RFC 3394 2.2.1 with an explicit
// initial value.
func kwWrap(block cipher.Block, iv uint64, pt []byte, inverse bool) []byte {
	n := len(pt) / 8
	r := make([][]byte, n+1)
	for i := 1; i <= n; i++ {
		r[i] = append([]byte(nil), pt[(i-1)*8:i*8]...)
	}
	a := iv

	buf := make([]byte, 16)
	out := make([]byte, 16)
	for j := 0; j < 6; j++ {
		for i := 1; i <= n; i++ {
			binary.BigEndian.PutUint64(buf[:8], a)
			copy(buf[8:], r[i])
			encBlock(block, out, buf, inverse)
			a = binary.BigEndian.Uint64(out[:8]) ^ uint64(n*j+i)
			copy(r[i], out[8:])
		}
	}

	wrapped := make([]byte, 8+n*8)
	binary.BigEndian.PutUint64(wrapped[:8], a)
	for i := 1; i <= n; i++ {
		copy(wrapped[i*8:], r[i])
	}
	return wrapped
}

// kwUnwrap is the inverse W transformation, returning the recovered
// payload and the final integrity value for the caller to check.
func kwUnwrap(block cipher.Block, ct []byte, inverse bool) ([]byte, uint64) {
	n := len(ct)/8 - 1
	a := binary.BigEndian.Uint64(ct[:8])
	r := make([][]byte, n+1)
	for i := 1; i <= n; i++ {
		r[i] = append([]byte(nil), ct[i*8:(i+1)*8]...)
	}

	buf := make([]byte, 16)
	out := make([]byte, 16)
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			binary.BigEndian.PutUint64(buf[:8], a^uint64(n*j+i))
			copy(buf[8:], r[i])
			decBlock(block, out, buf, inverse)
			a = binary.BigEndian.Uint64(out[:8])
			copy(r[i], out[8:])
		}
	}

	pt := make([]byte, n*8)
	for i := 1; i <= n; i++ {
		copy(pt[(i-1)*8:], r[i])
	}
	return pt, a
}

// kwpWrap applies RFC 5649 padding before the W transformation: the
// alternative initial value commits the unpadded length.
func kwpWrap(block cipher.Block, pt []byte, inverse bool) ([]byte, error) {
	if len(pt) == 0 {
		return nil, fmt.Errorf("kwp: empty payload")
	}
	aiv := uint64(0xa65959a6)<<32 | uint64(len(pt))

	padded := append([]byte(nil), pt...)
	for len(padded)%8 != 0 {
		padded = append(padded, 0)
	}

	// A single semiblock wraps with one raw block operation.
	if len(padded) == 8 {
		buf := make([]byte, 16)
		binary.BigEndian.PutUint64(buf[:8], aiv)
		copy(buf[8:], padded)
		out := make([]byte, 16)
		encBlock(block, out, buf, inverse)
		return out, nil
	}
	return kwWrap(block, aiv, padded, inverse), nil
}

func kwpUnwrap(block cipher.Block, ct []byte, inverse bool) ([]byte, bool, error) {
	if len(ct) < 16 || len(ct)%8 != 0 {
		return nil, false, fmt.Errorf("kwp: wrapped payload must be >= 16 bytes and 8-byte aligned, got %d", len(ct))
	}

	var padded []byte
	var a uint64
	if len(ct) == 16 {
		out := make([]byte, 16)
		decBlock(block, out, ct, inverse)
		a = binary.BigEndian.Uint64(out[:8])
		padded = out[8:]
	} else {
		padded, a = kwUnwrap(block, ct, inverse)
	}

	if a>>32 != 0xa65959a6 {
		return nil, false, nil
	}
	ptLen := int(a & 0xffffffff)
	if ptLen <= 0 || ptLen > len(padded) || len(padded)-ptLen >= 8 {
		return nil, false, nil
	}
	// Padding must be all zero.
	var pad byte
	for _, b := range padded[ptLen:] {
		pad |= b
	}
	if subtle.ConstantTimeByteEq(pad, 0) != 1 {
		return nil, false, nil
	}
	return padded[:ptLen], true, nil
}
