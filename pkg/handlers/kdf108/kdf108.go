// Package kdf108 implements the SP 800-108 key-based KDF family handler:
// counter, feedback and double-pipeline iteration modes over an HMAC or
// CMAC PRF. The module chooses its own fixedData per derivation and
// reports it back alongside the derived key, so the authority can verify
// the derivation independently.
package kdf108

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

// Params carries one derivation's inputs.
type Params struct {
	Mode            catalog.KDF108Mode
	MacMode         catalog.MacMode
	CounterLocation catalog.CounterLocation
	CounterLen      int
	KeyIn           []byte
	IV              []byte
	KeyOutBits      int
}

// Result is one derivation's outputs: the derived key and the fixedData
// string the module composed for it. BreakLocation is meaningful only for
// the middle-fixed-data counter location.
type Result struct {
	KeyOut        []byte
	FixedData     []byte
	BreakLocation int
}

// Callback is the operator-supplied KBKDF context.
type Callback interface {
	Derive(p *Params) (*Result, error)
}

// Handler implements vectorset.Handler for KDF108.
type Handler struct{}

// New returns a ready-to-use KDF108 Handler.
func New() *Handler { return &Handler{} }

var _ vectorset.Handler = (*Handler)(nil)

type groupParams struct {
	KDFMode         string `json:"kdfMode"`
	MacMode         string `json:"macMode"`
	CounterLocation string `json:"counterLocation"`
	CounterLen      int    `json:"counterLength"`
	KeyOutLen       int    `json:"keyOutLength"`
	RequiresEmptyIV bool   `json:"requiresEmptyIv"`
}

type testParams struct {
	TcID   int    `json:"tcId"`
	KeyIn  string `json:"keyIn"`
	IV     string `json:"iv"`
	KeyOut string `json:"keyOut"`
}

// Process implements vectorset.Handler.
func (h *Handler) Process(c *capability.Capability, groups []vectorset.RawGroup) ([]response.Group, error) {
	cb, ok := c.Callback.(Callback)
	if !ok {
		return nil, amvperrors.New("kdf108.Process", amvperrors.KindUnsupportedOp,
			fmt.Errorf("capability %s has no kdf108.Callback registered", c.ID))
	}

	out := make([]response.Group, 0, len(groups))
	for _, g := range groups {
		var gp groupParams
		if err := json.Unmarshal(g.Raw, &gp); err != nil {
			return nil, amvperrors.New("kdf108.Process", amvperrors.KindMalformedJSON, err)
		}

		mode, err := catalog.ParseKDF108Mode(gp.KDFMode)
		if err != nil {
			return nil, err
		}
		if !c.AllowsEnum(capability.ParamKDFMode, gp.KDFMode) {
			return nil, amvperrors.New("kdf108.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: kdfMode %q not registered", g.TgID, gp.KDFMode))
		}
		macMode, err := catalog.ParseMacMode(gp.MacMode)
		if err != nil {
			return nil, err
		}
		if !c.AllowsEnum(capability.ParamMacMode, gp.MacMode) {
			return nil, amvperrors.New("kdf108.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: macMode %q not registered", g.TgID, gp.MacMode))
		}

		var counterLocation catalog.CounterLocation
		if mode == catalog.KDF108Counter || gp.CounterLocation != "" {
			if counterLocation, err = catalog.ParseCounterLocation(gp.CounterLocation); err != nil {
				return nil, err
			}
		}
		if mode == catalog.KDF108Counter && !c.AllowsInt(capability.ParamCounterLen, gp.CounterLen) {
			return nil, amvperrors.New("kdf108.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: counterLength %d not registered", g.TgID, gp.CounterLen))
		}

		if gp.KeyOutLen <= 0 || gp.KeyOutLen%8 != 0 {
			return nil, amvperrors.New("kdf108.Process", amvperrors.KindMalformedJSON,
				fmt.Errorf("group %d: keyOutLength %d is not a positive multiple of 8", g.TgID, gp.KeyOutLen))
		}

		cases := make([]response.Case, 0, len(g.Tests))
		for _, t := range g.Tests {
			var tp testParams
			if err := json.Unmarshal(t.Raw, &tp); err != nil {
				return nil, amvperrors.New("kdf108.Process", amvperrors.KindMalformedJSON, err)
			}
			if tp.KeyIn == "" {
				return nil, amvperrors.New("kdf108.Process", amvperrors.KindMissingArg,
					fmt.Errorf("tcId %d: missing \"keyIn\"", tp.TcID))
			}
			keyIn, err := codec.HexToBytes(tp.KeyIn, constants.MaxPlaintextBytes)
			if err != nil {
				return nil, err
			}
			var iv []byte
			if tp.IV != "" {
				if gp.RequiresEmptyIV {
					return nil, amvperrors.New("kdf108.Process", amvperrors.KindInvalidArg,
						fmt.Errorf("tcId %d: iv given but group requires an empty iv", tp.TcID))
				}
				if iv, err = codec.HexToBytes(tp.IV, constants.MaxPlaintextBytes); err != nil {
					return nil, err
				}
			}

			res, err := cb.Derive(&Params{
				Mode:            mode,
				MacMode:         macMode,
				CounterLocation: counterLocation,
				CounterLen:      gp.CounterLen,
				KeyIn:           keyIn,
				IV:              iv,
				KeyOutBits:      gp.KeyOutLen,
			})
			if err != nil {
				return nil, amvperrors.New("kdf108.Process", amvperrors.KindCryptoModuleFail, err)
			}
			if len(res.KeyOut) != gp.KeyOutLen/8 {
				return nil, amvperrors.New("kdf108.Process", amvperrors.KindCryptoModuleFail,
					fmt.Errorf("tcId %d: callback produced %d bytes, keyOutLength wants %d",
						tp.TcID, len(res.KeyOut), gp.KeyOutLen/8))
			}

			if g.TestType == vectorset.VAL {
				expected, err := codec.HexToBytes(tp.KeyOut, gp.KeyOutLen/8)
				if err != nil {
					return nil, err
				}
				cases = append(cases, response.Case{TcID: tp.TcID, Fields: map[string]interface{}{
					"testPassed": codec.ConstantTimeCompare(res.KeyOut, expected),
				}})
				continue
			}

			fields := map[string]interface{}{
				"keyOut":    codec.BytesToHex(res.KeyOut),
				"fixedData": codec.BytesToHex(res.FixedData),
			}
			if counterLocation == catalog.CounterMiddleFixedData {
				fields["breakLocation"] = res.BreakLocation
			}
			cases = append(cases, response.Case{TcID: tp.TcID, Fields: fields})
		}
		out = append(out, response.Group{TgID: g.TgID, Tests: cases})
	}
	return out, nil
}
