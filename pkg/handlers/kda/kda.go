// Package kda implements the key-derivation-agreement family handler:
// KDA-HKDF, KDA-OneStep and KDA-TwoStep, including the fixedInfoPattern
// tokenizer those families share.
//
// Salt semantics follow one canonical rule: an absent salt field means
// "use the construction's default all-zero salt"; a salt field that is
// present but empty is rejected as an invalid argument, surfacing a
// malformed upstream message instead of silently behaving like absent.
package kda

import (
	"encoding/json"
	"fmt"

	"github.com/abkarcher/libamvp/internal/constants"
	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/codec"
	"github.com/abkarcher/libamvp/pkg/response"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// DeriveParams carries everything one derivation needs. Which of the
// mode-specific fields are meaningful depends on Alg: HashAlg for HKDF,
// AuxFunction for OneStep, the MacMode/KDFMode/counter set for TwoStep.
type DeriveParams struct {
	Alg catalog.AlgorithmID

	HashAlg         catalog.HashAlg
	AuxFunction     catalog.AuxFunction
	MacMode         catalog.MacMode
	KDFMode         catalog.KDF108Mode
	CounterLocation catalog.CounterLocation
	CounterLen      int
	IV              []byte

	// LBits is the requested derived-keying-material length in bits.
	LBits int

	// Salt is nil when the vector carried no salt and the construction's
	// default applies.
	Salt []byte

	// Z is the shared secret; T the optional hybrid-secret addendum.
	Z, T []byte

	// Pattern is the parsed fixedInfoPattern driving fixedInfo assembly.
	Pattern []PatternElement

	UPartyID, UEphemeral []byte
	VPartyID, VEphemeral []byte

	AlgorithmID, Label, Context []byte
}

// Callback is the operator-supplied KDF context: one call derives LBits/8
// bytes of keying material from p.
type Callback interface {
	Derive(p *DeriveParams) (dkm []byte, err error)
}

// Handler implements vectorset.Handler for the KDA families.
type Handler struct{}

// New returns a ready-to-use KDA Handler.
func New() *Handler { return &Handler{} }

var _ vectorset.Handler = (*Handler)(nil)

type groupParams struct {
	L                int     `json:"l"`
	HmacAlg          string  `json:"hmacAlg"`
	AuxFunction      string  `json:"auxFunction"`
	MacMode          string  `json:"macMode"`
	KDFMode          string  `json:"kdfMode"`
	CounterLocation  string  `json:"counterLocation"`
	CounterLen       int     `json:"counterLen"`
	SaltMethod       string  `json:"saltMethod"`
	Encoding         string  `json:"fixedInfoEncoding"`
	FixedInfoPattern string  `json:"fixedInfoPattern"`
	RequiresEmptyIV  bool    `json:"requiresEmptyIv"`
}

type testParams struct {
	TcID           int     `json:"tcId"`
	Z              string  `json:"z"`
	T              string  `json:"t"`
	Salt           *string `json:"salt"`
	IV             string  `json:"iv"`
	UPartyID       string  `json:"uPartyId"`
	UEphemeralData string  `json:"uEphemeralData"`
	VPartyID       string  `json:"vPartyId"`
	VEphemeralData string  `json:"vEphemeralData"`
	AlgorithmID    string  `json:"algorithmId"`
	Label          string  `json:"label"`
	Context        string  `json:"context"`
	DKM            string  `json:"dkm"`
}

// maxZBytes bounds the shared secret input.
const maxZBytes = 1024

// Process implements vectorset.Handler.
func (h *Handler) Process(c *capability.Capability, groups []vectorset.RawGroup) ([]response.Group, error) {
	cb, ok := c.Callback.(Callback)
	if !ok {
		return nil, amvperrors.New("kda.Process", amvperrors.KindUnsupportedOp,
			fmt.Errorf("capability %s has no kda.Callback registered", c.ID))
	}

	out := make([]response.Group, 0, len(groups))
	for _, g := range groups {
		var gp groupParams
		if err := json.Unmarshal(g.Raw, &gp); err != nil {
			return nil, amvperrors.New("kda.Process", amvperrors.KindMalformedJSON, err)
		}

		if gp.L <= 0 || gp.L%8 != 0 {
			return nil, amvperrors.New("kda.Process", amvperrors.KindMalformedJSON,
				fmt.Errorf("group %d: l %d is not a positive multiple of 8", g.TgID, gp.L))
		}
		if gp.L > constants.MaxFixedInfoBytes*8 {
			return nil, amvperrors.New("kda.Process", amvperrors.KindInvalidArg,
				fmt.Errorf("group %d: l %d exceeds maximum", g.TgID, gp.L))
		}
		if !c.AllowsInt(capability.ParamLLen, gp.L) {
			return nil, amvperrors.New("kda.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: l %d not registered for %s", g.TgID, gp.L, c.ID))
		}
		if gp.Encoding != "" {
			if _, err := catalog.ParseEncoding(gp.Encoding); err != nil {
				return nil, err
			}
		}
		if gp.SaltMethod != "" {
			if _, err := catalog.ParseSaltMethod(gp.SaltMethod); err != nil {
				return nil, err
			}
		}
		pattern, err := ParsePattern(gp.FixedInfoPattern)
		if err != nil {
			return nil, err
		}

		base := DeriveParams{Alg: c.ID, LBits: gp.L, Pattern: pattern}
		if err := h.fillModeParams(&base, c.ID, g.TgID, gp); err != nil {
			return nil, err
		}

		cases := make([]response.Case, 0, len(g.Tests))
		for _, t := range g.Tests {
			var tp testParams
			if err := json.Unmarshal(t.Raw, &tp); err != nil {
				return nil, amvperrors.New("kda.Process", amvperrors.KindMalformedJSON, err)
			}

			params := base
			if err := h.fillTestParams(&params, c.ID, gp, tp); err != nil {
				return nil, err
			}

			dkm, err := cb.Derive(&params)
			if err != nil {
				return nil, amvperrors.New("kda.Process", amvperrors.KindCryptoModuleFail, err)
			}
			if len(dkm) != gp.L/8 {
				return nil, amvperrors.New("kda.Process", amvperrors.KindCryptoModuleFail,
					fmt.Errorf("tcId %d: callback produced %d bytes, l wants %d", tp.TcID, len(dkm), gp.L/8))
			}

			if g.TestType == vectorset.VAL {
				expected, err := codec.HexToBytes(tp.DKM, gp.L/8)
				if err != nil {
					return nil, err
				}
				cases = append(cases, response.Case{TcID: tp.TcID, Fields: map[string]interface{}{
					"testPassed": codec.ConstantTimeCompare(dkm, expected),
				}})
				continue
			}
			cases = append(cases, response.Case{TcID: tp.TcID, Fields: map[string]interface{}{
				"dkm": codec.BytesToHex(dkm),
			}})
		}
		out = append(out, response.Group{TgID: g.TgID, Tests: cases})
	}
	return out, nil
}

// fillModeParams resolves the family-specific group tokens: hmacAlg for
// HKDF, auxFunction for OneStep, the macMode/kdfMode/counter trio for
// TwoStep.
func (h *Handler) fillModeParams(p *DeriveParams, id catalog.AlgorithmID, tgID int, gp groupParams) error {
	var err error
	switch id {
	case catalog.KDAHKDF:
		if gp.HmacAlg == "" {
			return amvperrors.New("kda.fillModeParams", amvperrors.KindMissingArg,
				fmt.Errorf("group %d: KDA-HKDF requires \"hmacAlg\"", tgID))
		}
		if p.HashAlg, err = catalog.ParseHashAlg(gp.HmacAlg); err != nil {
			return err
		}
	case catalog.KDAOneStep:
		if gp.AuxFunction == "" {
			return amvperrors.New("kda.fillModeParams", amvperrors.KindMissingArg,
				fmt.Errorf("group %d: KDA-OneStep requires \"auxFunction\"", tgID))
		}
		if p.AuxFunction, err = catalog.ParseAuxFunction(gp.AuxFunction); err != nil {
			return err
		}
	case catalog.KDATwoStep:
		if gp.MacMode == "" || gp.KDFMode == "" {
			return amvperrors.New("kda.fillModeParams", amvperrors.KindMissingArg,
				fmt.Errorf("group %d: KDA-TwoStep requires \"macMode\" and \"kdfMode\"", tgID))
		}
		if p.MacMode, err = catalog.ParseMacMode(gp.MacMode); err != nil {
			return err
		}
		if p.KDFMode, err = catalog.ParseKDF108Mode(gp.KDFMode); err != nil {
			return err
		}
		if p.KDFMode == catalog.KDF108Counter {
			if p.CounterLocation, err = catalog.ParseCounterLocation(gp.CounterLocation); err != nil {
				return err
			}
			p.CounterLen = gp.CounterLen
		}
	default:
		return amvperrors.New("kda.fillModeParams", amvperrors.KindUnsupportedOp,
			fmt.Errorf("group %d: %s is not a KDA algorithm", tgID, id))
	}
	return nil
}

// fillTestParams decodes the per-case hex fields into p, enforcing the
// family's salt and iv rules.
func (h *Handler) fillTestParams(p *DeriveParams, id catalog.AlgorithmID, gp groupParams, tp testParams) error {
	var err error
	if tp.Z == "" {
		return amvperrors.New("kda.fillTestParams", amvperrors.KindMissingArg,
			fmt.Errorf("tcId %d: missing shared secret \"z\"", tp.TcID))
	}
	if p.Z, err = codec.HexToBytes(tp.Z, maxZBytes); err != nil {
		return err
	}
	if tp.T != "" {
		if p.T, err = codec.HexToBytes(tp.T, maxZBytes); err != nil {
			return err
		}
	}

	if tp.Salt != nil {
		if id == catalog.KDAOneStep && !p.AuxFunction.IsMACBased() {
			return amvperrors.New("kda.fillTestParams", amvperrors.KindInvalidArg,
				fmt.Errorf("tcId %d: salt given but auxFunction %s takes none", tp.TcID, p.AuxFunction))
		}
		if p.Salt, err = codec.HexToBytes(*tp.Salt, maxZBytes); err != nil {
			return err
		}
		if len(p.Salt) == 0 {
			return amvperrors.New("kda.fillTestParams", amvperrors.KindInvalidArg,
				fmt.Errorf("tcId %d: salt present but empty", tp.TcID))
		}
	}

	if id == catalog.KDATwoStep {
		if gp.RequiresEmptyIV && tp.IV != "" {
			return amvperrors.New("kda.fillTestParams", amvperrors.KindInvalidArg,
				fmt.Errorf("tcId %d: iv given but capability requires an empty iv", tp.TcID))
		}
		if tp.IV != "" {
			if p.IV, err = codec.HexToBytes(tp.IV, maxZBytes); err != nil {
				return err
			}
		}
	}

	for _, f := range []struct {
		hex string
		dst *[]byte
		max int
	}{
		{tp.UPartyID, &p.UPartyID, maxZBytes},
		{tp.UEphemeralData, &p.UEphemeral, maxZBytes},
		{tp.VPartyID, &p.VPartyID, maxZBytes},
		{tp.VEphemeralData, &p.VEphemeral, maxZBytes},
		{tp.AlgorithmID, &p.AlgorithmID, constants.MaxFixedInfoBytes},
		{tp.Label, &p.Label, constants.MaxFixedInfoBytes},
		{tp.Context, &p.Context, constants.MaxFixedInfoBytes},
	} {
		if f.hex == "" {
			continue
		}
		if *f.dst, err = codec.HexToBytes(f.hex, f.max); err != nil {
			return err
		}
	}

	if len(p.UPartyID) == 0 || len(p.VPartyID) == 0 {
		return amvperrors.New("kda.fillTestParams", amvperrors.KindMissingArg,
			fmt.Errorf("tcId %d: both uPartyId and vPartyId are required", tp.TcID))
	}
	return nil
}
