package main

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/binary"
	"fmt"
	"hash"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"

	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/handlers/kda"
)

// kdaImpl implements kda.Callback: HKDF through x/crypto/hkdf, OneStep as
// the SP 800-56C counter-hash (or counter-HMAC) construction, TwoStep as
// HMAC extract followed by a counter-mode expand.
type kdaImpl struct{}

func newKDA() *kdaImpl { return &kdaImpl{} }

var _ kda.Callback = (*kdaImpl)(nil)

func (k *kdaImpl) Derive(p *kda.DeriveParams) ([]byte, error) {
	fixedInfo := buildFixedInfo(p)
	outLen := p.LBits / 8

	// The hybrid addendum, when present, extends the shared secret.
	secret := append(append([]byte(nil), p.Z...), p.T...)

	switch p.Alg {
	case catalog.KDAHKDF:
		newHash, err := kdaHash(p.HashAlg)
		if err != nil {
			return nil, err
		}
		out := make([]byte, outLen)
		if _, err := io.ReadFull(hkdf.New(newHash, secret, p.Salt, fixedInfo), out); err != nil {
			return nil, err
		}
		return out, nil

	case catalog.KDAOneStep:
		return oneStepDerive(p.AuxFunction, secret, p.Salt, fixedInfo, outLen)

	case catalog.KDATwoStep:
		newHash, err := macHash(p.MacMode)
		if err != nil {
			return nil, err
		}
		// Extract, then counter-mode expand over the pseudorandom key.
		ext := hmac.New(newHash, p.Salt)
		ext.Write(secret)
		prk := ext.Sum(nil)
		return counterExpand(newHash, prk, fixedInfo, p.IV, outLen), nil

	default:
		return nil, fmt.Errorf("reference module does not implement %s", p.Alg)
	}
}

// buildFixedInfo concatenates the pattern's elements in order, the only
// encoding the module registers.
func buildFixedInfo(p *kda.DeriveParams) []byte {
	var out []byte
	for _, elem := range p.Pattern {
		switch elem.Token {
		case kda.PatternUPartyInfo:
			out = append(out, p.UPartyID...)
			out = append(out, p.UEphemeral...)
		case kda.PatternVPartyInfo:
			out = append(out, p.VPartyID...)
			out = append(out, p.VEphemeral...)
		case kda.PatternContext:
			out = append(out, p.Context...)
		case kda.PatternAlgorithmID:
			out = append(out, p.AlgorithmID...)
		case kda.PatternLabel:
			out = append(out, p.Label...)
		case kda.PatternL:
			var l [4]byte
			binary.BigEndian.PutUint32(l[:], uint32(p.LBits))
			out = append(out, l[:]...)
		case kda.PatternT:
			out = append(out, p.T...)
		case kda.PatternLiteral:
			out = append(out, elem.Literal...)
		}
	}
	return out
}

func kdaHash(h catalog.HashAlg) (func() hash.Hash, error) {
	switch h {
	case catalog.SHA2_224:
		return sha256.New224, nil
	case catalog.SHA2_256:
		return sha256.New, nil
	case catalog.SHA2_384:
		return sha512.New384, nil
	case catalog.SHA2_512:
		return sha512.New, nil
	case catalog.SHA3_256:
		return sha3.New256, nil
	case catalog.SHA3_384:
		return sha3.New384, nil
	case catalog.SHA3_512:
		return sha3.New512, nil
	default:
		return nil, fmt.Errorf("no hash for %s", h)
	}
}

func macHash(m catalog.MacMode) (func() hash.Hash, error) {
	switch m {
	case catalog.MacHMACSHA2_256:
		return sha256.New, nil
	case catalog.MacHMACSHA2_384:
		return sha512.New384, nil
	case catalog.MacHMACSHA2_512:
		return sha512.New, nil
	default:
		return nil, fmt.Errorf("no HMAC hash for %s", m)
	}
}

func auxHash(a catalog.AuxFunction) (func() hash.Hash, error) {
	switch a {
	case catalog.AuxSHA2_224, catalog.AuxHMACSHA2_224:
		return sha256.New224, nil
	case catalog.AuxSHA2_256, catalog.AuxHMACSHA2_256:
		return sha256.New, nil
	case catalog.AuxSHA2_384, catalog.AuxHMACSHA2_384:
		return sha512.New384, nil
	case catalog.AuxSHA2_512, catalog.AuxHMACSHA2_512:
		return sha512.New, nil
	case catalog.AuxSHA3_256, catalog.AuxHMACSHA3_256:
		return sha3.New256, nil
	case catalog.AuxSHA3_384:
		return sha3.New384, nil
	case catalog.AuxSHA3_512:
		return sha3.New512, nil
	default:
		return nil, fmt.Errorf("no hash for %s", a)
	}
}

// oneStepDerive is the SP 800-56C one-step KDF: H(counter || Z ||
// fixedInfo) iterated, where H is the plain hash or HMAC keyed by the
// salt, depending on the registered auxiliary function.
func oneStepDerive(aux catalog.AuxFunction, secret, salt, fixedInfo []byte, outLen int) ([]byte, error) {
	newHash, err := auxHash(aux)
	if err != nil {
		return nil, err
	}

	var out []byte
	var counter uint32
	for len(out) < outLen {
		counter++
		var h hash.Hash
		if aux.IsMACBased() {
			h = hmac.New(newHash, salt)
		} else {
			h = newHash()
		}
		var c [4]byte
		binary.BigEndian.PutUint32(c[:], counter)
		h.Write(c[:])
		h.Write(secret)
		h.Write(fixedInfo)
		out = h.Sum(out)
	}
	return out[:outLen], nil
}

// counterExpand is the SP 800-108 counter-mode expansion used as the
// TwoStep KDF's second half.
func counterExpand(newHash func() hash.Hash, key, fixedInfo, iv []byte, outLen int) []byte {
	var out []byte
	var counter uint32
	for len(out) < outLen {
		counter++
		h := hmac.New(newHash, key)
		var c [4]byte
		binary.BigEndian.PutUint32(c[:], counter)
		h.Write(iv)
		h.Write(c[:])
		h.Write(fixedInfo)
		out = h.Sum(out)
	}
	return out[:outLen]
}
