// Package aead implements the AEAD family handler for AES-GCM and
// AES-CCM, including internal IV generation for encrypt and tag
// verification for decrypt.
package aead

import (
	"encoding/json"
	"fmt"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/internal/constants"
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/codec"
	"github.com/abkarcher/libamvp/pkg/response"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// Callback is the operator-supplied AEAD crypto context. The ordering of
// AAD against ciphertext, and any length announcements GCM/CCM require
// internally, belong to whatever cipher.AEAD (or hand-rolled CCM state
// machine) the operator's Encrypt/Decrypt wraps; this handler only
// supplies the fields each direction needs in a single call.
type Callback interface {
	// Encrypt seals pt under key/iv/aad and returns ciphertext and a
	// tagLen-byte authentication tag.
	Encrypt(alg catalog.AlgorithmID, key, iv, pt, aad []byte, tagLen int) (ct, tag []byte, err error)
	// Decrypt opens ct/tag under key/iv/aad. valid is false (err nil) when
	// the tag fails to verify, a normal test-case outcome rather than an
	// aborted set.
	Decrypt(alg catalog.AlgorithmID, key, iv, ct, tag, aad []byte) (pt []byte, valid bool, err error)
	// GenerateIV produces an ivLen-bit IV for internal ivGen encrypt cases.
	GenerateIV(alg catalog.AlgorithmID, key []byte, ivLenBits int) (iv []byte, err error)
}

// Handler implements vectorset.Handler for AES-GCM/CCM.
type Handler struct{}

// New returns a ready-to-use AEAD Handler.
func New() *Handler { return &Handler{} }

var _ vectorset.Handler = (*Handler)(nil)

type groupParams struct {
	Direction string `json:"direction"`
	KeyLen    int    `json:"keyLen"`
	IVLen     int    `json:"ivLen"`
	TagLen    int    `json:"tagLen"`
	IVGen     string `json:"ivGen"`
}

type testParams struct {
	TcID int    `json:"tcId"`
	Key  string `json:"key"`
	IV   string `json:"iv"`
	PT   string `json:"pt"`
	CT   string `json:"ct"`
	AAD  string `json:"aad"`
	Tag  string `json:"tag"`
}

// Process implements vectorset.Handler.
func (h *Handler) Process(c *capability.Capability, groups []vectorset.RawGroup) ([]response.Group, error) {
	cb, ok := c.Callback.(Callback)
	if !ok {
		return nil, amvperrors.New("aead.Process", amvperrors.KindUnsupportedOp,
			fmt.Errorf("capability %s has no aead.Callback registered", c.ID))
	}

	out := make([]response.Group, 0, len(groups))
	for _, g := range groups {
		var gp groupParams
		if err := json.Unmarshal(g.Raw, &gp); err != nil {
			return nil, amvperrors.New("aead.Process", amvperrors.KindMalformedJSON, err)
		}
		direction, ok := constants.ParseDirection(gp.Direction)
		if !ok {
			return nil, amvperrors.New("aead.Process", amvperrors.KindMissingArg,
				fmt.Errorf("group %d: missing or invalid \"direction\"", g.TgID))
		}
		if !c.AllowsInt(capability.ParamKeyLen, gp.KeyLen) {
			return nil, amvperrors.New("aead.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: keyLen %d not registered", g.TgID, gp.KeyLen))
		}
		if !c.AllowsInt(capability.ParamTagLen, gp.TagLen) {
			return nil, amvperrors.New("aead.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: tagLen %d not registered", g.TgID, gp.TagLen))
		}

		cases := make([]response.Case, 0, len(g.Tests))
		for _, t := range g.Tests {
			var tp testParams
			if err := json.Unmarshal(t.Raw, &tp); err != nil {
				return nil, amvperrors.New("aead.Process", amvperrors.KindMalformedJSON, err)
			}

			tagLenBytes := gp.TagLen / 8
			var aad []byte
			var err error
			if tp.AAD != "" {
				if aad, err = codec.HexToBytes(tp.AAD, constants.MaxAADBytes); err != nil {
					return nil, err
				}
				if !c.AllowsInt(capability.ParamAADLen, len(aad)*8) {
					return nil, amvperrors.New("aead.Process", amvperrors.KindTCInvalidData,
						fmt.Errorf("group %d: aad length %d bits not registered", g.TgID, len(aad)*8))
				}
			}
			key, err := codec.HexToBytes(tp.Key, constants.MaxKeyBytes)
			if err != nil {
				return nil, err
			}

			var fields map[string]interface{}
			if direction == constants.DirectionEncrypt {
				fields, err = h.encrypt(cb, c.ID, gp, tp, key, aad, tagLenBytes)
			} else {
				fields, err = h.decrypt(cb, c.ID, tp, key, aad, tagLenBytes)
			}
			if err != nil {
				return nil, err
			}
			cases = append(cases, response.Case{TcID: tp.TcID, Fields: fields})
		}
		out = append(out, response.Group{TgID: g.TgID, Tests: cases})
	}
	return out, nil
}

func (h *Handler) encrypt(cb Callback, id catalog.AlgorithmID, gp groupParams, tp testParams, key, aad []byte, tagLenBytes int) (map[string]interface{}, error) {
	var iv []byte
	var err error
	if gp.IVGen == "internal" {
		if iv, err = cb.GenerateIV(id, key, gp.IVLen); err != nil {
			return nil, amvperrors.New("aead.encrypt", amvperrors.KindCryptoModuleFail, err)
		}
	} else {
		if tp.IV == "" {
			return nil, amvperrors.New("aead.encrypt", amvperrors.KindMissingArg,
				fmt.Errorf("tcId %d: external ivGen requires an \"iv\" field", tp.TcID))
		}
		if iv, err = codec.HexToBytes(tp.IV, constants.MaxIVBytes); err != nil {
			return nil, err
		}
	}

	pt, err := codec.HexToBytes(tp.PT, constants.MaxPlaintextBytes)
	if err != nil {
		return nil, err
	}

	ct, tag, err := cb.Encrypt(id, key, iv, pt, aad, tagLenBytes)
	if err != nil {
		return nil, amvperrors.New("aead.encrypt", amvperrors.KindCryptoModuleFail, err)
	}

	fields := map[string]interface{}{
		"ct":  codec.BytesToHex(ct),
		"tag": codec.BytesToHex(tag),
	}
	if gp.IVGen == "internal" {
		fields["iv"] = codec.BytesToHex(iv)
	}
	return fields, nil
}

func (h *Handler) decrypt(cb Callback, id catalog.AlgorithmID, tp testParams, key, aad []byte, tagLenBytes int) (map[string]interface{}, error) {
	iv, err := codec.HexToBytes(tp.IV, constants.MaxIVBytes)
	if err != nil {
		return nil, err
	}
	ct, err := codec.HexToBytes(tp.CT, constants.MaxPlaintextBytes)
	if err != nil {
		return nil, err
	}
	tag, err := codec.HexToBytes(tp.Tag, tagLenBytes)
	if err != nil {
		return nil, err
	}

	pt, valid, err := cb.Decrypt(id, key, iv, ct, tag, aad)
	if err != nil {
		return nil, amvperrors.New("aead.decrypt", amvperrors.KindCryptoModuleFail, err)
	}
	if !valid {
		return map[string]interface{}{"testPassed": false}, nil
	}
	return map[string]interface{}{
		"testPassed": true,
		"pt":         codec.BytesToHex(pt),
	}, nil
}
