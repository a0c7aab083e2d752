package main

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"

	"golang.org/x/crypto/sha3"

	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/handlers/mac"
)

// hmacImpl implements mac.Callback for the HMAC family over crypto/hmac
// with SHA-1/SHA-2 from the standard library and SHA-3 from x/crypto.
type hmacImpl struct{}

func newHMAC() *hmacImpl { return &hmacImpl{} }

var _ mac.Callback = (*hmacImpl)(nil)

func hashFor(alg catalog.AlgorithmID) (func() hash.Hash, error) {
	switch alg {
	case catalog.HMACSHA1:
		return sha1.New, nil
	case catalog.HMACSHA2_224:
		return sha256.New224, nil
	case catalog.HMACSHA2_256:
		return sha256.New, nil
	case catalog.HMACSHA2_384:
		return sha512.New384, nil
	case catalog.HMACSHA2_512:
		return sha512.New, nil
	case catalog.HMACSHA3_224:
		return sha3.New224, nil
	case catalog.HMACSHA3_256:
		return sha3.New256, nil
	case catalog.HMACSHA3_384:
		return sha3.New384, nil
	case catalog.HMACSHA3_512:
		return sha3.New512, nil
	default:
		return nil, fmt.Errorf("no hash for %s", alg)
	}
}

func (h *hmacImpl) Mac(alg catalog.AlgorithmID, key, msg []byte) ([]byte, error) {
	newHash, err := hashFor(alg)
	if err != nil {
		return nil, err
	}
	m := hmac.New(newHash, key)
	m.Write(msg)
	return m.Sum(nil), nil
}

// cmacImpl implements mac.Callback for CMAC-AES as the SP 800-38B
// construction over crypto/aes (no CMAC ships in the standard library).
type cmacImpl struct{}

func newCMAC() *cmacImpl { return &cmacImpl{} }

var _ mac.Callback = (*cmacImpl)(nil)

func (c *cmacImpl) Mac(alg catalog.AlgorithmID, key, msg []byte) ([]byte, error) {
	if alg != catalog.CMACAES {
		return nil, fmt.Errorf("reference module does not implement %s", alg)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	k1, k2 := cmacSubkeys(block)

	mac := make([]byte, 16)
	n := len(msg)
	full := n / 16
	rem := n % 16
	complete := rem == 0 && n > 0
	if complete {
		full--
		rem = 16
	}

	buf := make([]byte, 16)
	for i := 0; i < full; i++ {
		for j := 0; j < 16; j++ {
			mac[j] ^= msg[i*16+j]
		}
		block.Encrypt(mac, mac)
	}

	// Last block: XOR with K1 when complete, pad and XOR with K2 otherwise.
	copy(buf, msg[full*16:])
	if complete {
		for j := 0; j < 16; j++ {
			mac[j] ^= buf[j] ^ k1[j]
		}
	} else {
		buf[rem] = 0x80
		for j := rem + 1; j < 16; j++ {
			buf[j] = 0
		}
		for j := 0; j < 16; j++ {
			mac[j] ^= buf[j] ^ k2[j]
		}
	}
	block.Encrypt(mac, mac)
	return mac, nil
}

// cmacSubkeys derives K1 and K2 by doubling L = E_K(0^128) in GF(2^128).
func cmacSubkeys(block cipher.Block) (k1, k2 [16]byte) {
	var l [16]byte
	block.Encrypt(l[:], l[:])
	k1 = gfDouble(l)
	k2 = gfDouble(k1)
	return
}

func gfDouble(in [16]byte) (out [16]byte) {
	var carry byte
	for i := 15; i >= 0; i-- {
		out[i] = in[i]<<1 | carry
		carry = in[i] >> 7
	}
	if carry != 0 {
		out[15] ^= 0x87
	}
	return
}
