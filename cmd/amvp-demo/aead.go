package main

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/handlers/aead"
)

// gcmCCM implements aead.Callback: AES-GCM over the standard library's
// cipher.NewGCM, AES-CCM as the RFC 3610 CBC-MAC+CTR construction over
// crypto/aes (no CCM mode ships in the standard library).
type gcmCCM struct{}

func newAEAD() *gcmCCM { return &gcmCCM{} }

var _ aead.Callback = (*gcmCCM)(nil)

func (g *gcmCCM) Encrypt(alg catalog.AlgorithmID, key, iv, pt, aadData []byte, tagLen int) ([]byte, []byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, nil, err
	}
	switch alg {
	case catalog.AESGCM:
		gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
		if err != nil {
			return nil, nil, err
		}
		sealed := gcm.Seal(nil, iv, pt, aadData)
		ct := sealed[:len(pt)]
		tag := sealed[len(pt) : len(pt)+tagLen]
		return ct, tag, nil
	case catalog.AESCCM:
		return ccmSeal(block, iv, pt, aadData, tagLen)
	default:
		return nil, nil, fmt.Errorf("reference module does not implement %s", alg)
	}
}

func (g *gcmCCM) Decrypt(alg catalog.AlgorithmID, key, iv, ct, tag, aadData []byte) ([]byte, bool, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, false, err
	}
	switch alg {
	case catalog.AESGCM:
		gcm, err := cipher.NewGCMWithNonceSize(block, len(iv))
		if err != nil {
			return nil, false, err
		}
		// Tags may be truncated below the 16 bytes Open insists on, so
		// recover the plaintext via the keystream and verify the truncated
		// tag against a recomputed full one.
		pt, full := gcmRecover(gcm, iv, ct, aadData)
		if subtle.ConstantTimeCompare(full[:len(tag)], tag) != 1 {
			return nil, false, nil
		}
		return pt, true, nil
	case catalog.AESCCM:
		return ccmOpen(block, iv, ct, tag, aadData)
	default:
		return nil, false, fmt.Errorf("reference module does not implement %s", alg)
	}
}

// gcmRecover decrypts ct and derives the full 16-byte tag for
// (iv, ct, aad). GCM's CTR half is an involution: sealing a zero buffer
// exposes the keystream, XOR recovers the plaintext, and re-sealing that
// plaintext reproduces the tag the encryptor computed.
func gcmRecover(gcm cipher.AEAD, iv, ct, aadData []byte) (pt, fullTag []byte) {
	zeros := make([]byte, len(ct))
	sealedZeros := gcm.Seal(nil, iv, zeros, nil)
	pt = make([]byte, len(ct))
	for i := range ct {
		pt[i] = ct[i] ^ sealedZeros[i]
	}
	sealed := gcm.Seal(nil, iv, pt, aadData)
	return pt, sealed[len(sealed)-16:]
}

func (g *gcmCCM) GenerateIV(alg catalog.AlgorithmID, key []byte, ivLenBits int) ([]byte, error) {
	iv := make([]byte, ivLenBits/8)
	if _, err := rand.Read(iv); err != nil {
		return nil, err
	}
	return iv, nil
}

// --- AES-CCM (RFC 3610 / SP 800-38C) ---

func ccmSeal(block cipher.Block, nonce, pt, aadData []byte, tagLen int) ([]byte, []byte, error) {
	tag, err := ccmMAC(block, nonce, pt, aadData, tagLen)
	if err != nil {
		return nil, nil, err
	}
	ct := make([]byte, len(pt))
	ctr := cipher.NewCTR(block, ccmCounterBlock(nonce, 1))
	ctr.XORKeyStream(ct, pt)

	// The MAC is encrypted with counter block 0.
	s0 := make([]byte, 16)
	cipher.NewCTR(block, ccmCounterBlock(nonce, 0)).XORKeyStream(s0, make([]byte, 16))
	for i := range tag {
		tag[i] ^= s0[i]
	}
	return ct, tag, nil
}

func ccmOpen(block cipher.Block, nonce, ct, tag, aadData []byte) ([]byte, bool, error) {
	pt := make([]byte, len(ct))
	ctr := cipher.NewCTR(block, ccmCounterBlock(nonce, 1))
	ctr.XORKeyStream(pt, ct)

	expected, err := ccmMAC(block, nonce, pt, aadData, len(tag))
	if err != nil {
		return nil, false, err
	}
	s0 := make([]byte, 16)
	cipher.NewCTR(block, ccmCounterBlock(nonce, 0)).XORKeyStream(s0, make([]byte, 16))
	for i := range expected {
		expected[i] ^= s0[i]
	}
	if subtle.ConstantTimeCompare(expected, tag) != 1 {
		return nil, false, nil
	}
	return pt, true, nil
}

// ccmMAC computes the raw (unencrypted) CBC-MAC over the B blocks: the
// flags/nonce/length header, the encoded AAD, and the plaintext. The total
// plaintext length is committed in B0 before any AAD or message bytes are
// processed, per the mode's ordering rule.
func ccmMAC(block cipher.Block, nonce, pt, aadData []byte, tagLen int) ([]byte, error) {
	n := len(nonce)
	if n < 7 || n > 13 {
		return nil, fmt.Errorf("ccm: nonce length %d outside [7, 13]", n)
	}
	q := 15 - n
	maxLen := uint64(1)<<(8*q) - 1
	if uint64(len(pt)) > maxLen {
		return nil, fmt.Errorf("ccm: payload too long for a %d-byte nonce", n)
	}

	b0 := make([]byte, 16)
	b0[0] = byte(q - 1)
	b0[0] |= byte(((tagLen - 2) / 2) << 3)
	if len(aadData) > 0 {
		b0[0] |= 1 << 6
	}
	copy(b0[1:], nonce)
	for i, l := 15, uint64(len(pt)); l > 0; i, l = i-1, l>>8 {
		b0[i] = byte(l)
	}

	mac := make([]byte, 16)
	block.Encrypt(mac, b0)

	xorBlock := func(chunk []byte) {
		for i := range chunk {
			mac[i] ^= chunk[i]
		}
		block.Encrypt(mac, mac)
	}

	if len(aadData) > 0 {
		var hdr []byte
		if len(aadData) < 0xff00 {
			hdr = []byte{byte(len(aadData) >> 8), byte(len(aadData))}
		} else {
			hdr = []byte{0xff, 0xfe,
				byte(len(aadData) >> 24), byte(len(aadData) >> 16),
				byte(len(aadData) >> 8), byte(len(aadData))}
		}
		buf := append(hdr, aadData...)
		for len(buf)%16 != 0 {
			buf = append(buf, 0)
		}
		for i := 0; i < len(buf); i += 16 {
			xorBlock(buf[i : i+16])
		}
	}

	buf := append([]byte(nil), pt...)
	for len(buf)%16 != 0 {
		buf = append(buf, 0)
	}
	for i := 0; i < len(buf); i += 16 {
		xorBlock(buf[i : i+16])
	}

	return mac[:tagLen], nil
}

// ccmCounterBlock builds the A_i counter block for the CTR half.
func ccmCounterBlock(nonce []byte, i uint64) []byte {
	q := 15 - len(nonce)
	a := make([]byte, 16)
	a[0] = byte(q - 1)
	copy(a[1:], nonce)
	for j := 15; j > 15-q; j-- {
		a[j] = byte(i)
		i >>= 8
	}
	return a
}
