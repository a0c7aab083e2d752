// Package mac implements the MAC family handler: HMAC over the SHA-1/
// SHA-2/SHA-3 set and CMAC over AES/TDES. The group declares keyLen,
// msgLen, and macLen; all three are required, and a macLen exceeding the
// underlying primitive's output size is rejected outright rather than
// clamped.
package mac

import (
	"encoding/json"
	"fmt"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/codec"
	"github.com/abkarcher/libamvp/pkg/response"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// Callback is the operator-supplied MAC context: one call produces the
// full-length MAC over msg with key; truncation to macLen is the
// handler's job so every module sees the same contract.
type Callback interface {
	Mac(alg catalog.AlgorithmID, key, msg []byte) (mac []byte, err error)
}

// Handler implements vectorset.Handler for HMAC-* and CMAC-*.
type Handler struct{}

// New returns a ready-to-use MAC Handler.
func New() *Handler { return &Handler{} }

var _ vectorset.Handler = (*Handler)(nil)

// macOutputBits is the full MAC width of each algorithm, the ceiling a
// group's macLen must not exceed.
var macOutputBits = map[catalog.AlgorithmID]int{
	catalog.HMACSHA1:     160,
	catalog.HMACSHA2_224: 224,
	catalog.HMACSHA2_256: 256,
	catalog.HMACSHA2_384: 384,
	catalog.HMACSHA2_512: 512,
	catalog.HMACSHA3_224: 224,
	catalog.HMACSHA3_256: 256,
	catalog.HMACSHA3_384: 384,
	catalog.HMACSHA3_512: 512,
	catalog.CMACAES:      128,
	catalog.CMACTDES:     64,
}

// hasMacLenSlot reports whether the operator registered any macLen values
// or domain for c. MAC capabilities reuse the tagLen parameter slot, the
// schema's name for a truncated authenticator length.
func hasMacLenSlot(c *capability.Capability) bool {
	if _, ok := c.Domain(capability.ParamTagLen); ok {
		return true
	}
	return len(c.IntValues(capability.ParamTagLen)) > 0
}

type groupParams struct {
	KeyLen *int `json:"keyLen"`
	MsgLen *int `json:"msgLen"`
	MacLen *int `json:"macLen"`
}

type testParams struct {
	TcID int    `json:"tcId"`
	Key  string `json:"key"`
	Msg  string `json:"msg"`
	Mac  string `json:"mac"`
}

// Process implements vectorset.Handler.
func (h *Handler) Process(c *capability.Capability, groups []vectorset.RawGroup) ([]response.Group, error) {
	cb, ok := c.Callback.(Callback)
	if !ok {
		return nil, amvperrors.New("mac.Process", amvperrors.KindUnsupportedOp,
			fmt.Errorf("capability %s has no mac.Callback registered", c.ID))
	}

	out := make([]response.Group, 0, len(groups))
	for _, g := range groups {
		var gp groupParams
		if err := json.Unmarshal(g.Raw, &gp); err != nil {
			return nil, amvperrors.New("mac.Process", amvperrors.KindMalformedJSON, err)
		}
		if gp.KeyLen == nil || gp.MsgLen == nil || gp.MacLen == nil {
			return nil, amvperrors.New("mac.Process", amvperrors.KindMissingArg,
				fmt.Errorf("group %d: keyLen, msgLen and macLen are all required", g.TgID))
		}
		maxBits, known := macOutputBits[c.ID]
		if !known {
			return nil, amvperrors.New("mac.Process", amvperrors.KindUnsupportedOp,
				fmt.Errorf("group %d: %s is not a MAC algorithm", g.TgID, c.ID))
		}
		if *gp.MacLen <= 0 || *gp.MacLen > maxBits {
			return nil, amvperrors.New("mac.Process", amvperrors.KindInvalidArg,
				fmt.Errorf("group %d: macLen %d outside (0, %d] for %s", g.TgID, *gp.MacLen, maxBits, c.ID))
		}
		if !c.AllowsInt(capability.ParamKeyLen, *gp.KeyLen) {
			return nil, amvperrors.New("mac.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: keyLen %d not registered for %s", g.TgID, *gp.KeyLen, c.ID))
		}
		if !c.AllowsInt(capability.ParamMsgLen, *gp.MsgLen) {
			return nil, amvperrors.New("mac.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: msgLen %d not registered for %s", g.TgID, *gp.MsgLen, c.ID))
		}
		// macLen is checked against the capability only when the operator
		// registered a macLen slot; the bound against the primitive's full
		// output width above always applies.
		if hasMacLenSlot(c) && !c.AllowsInt(capability.ParamTagLen, *gp.MacLen) {
			return nil, amvperrors.New("mac.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: macLen %d not registered for %s", g.TgID, *gp.MacLen, c.ID))
		}
		macLenBytes, err := codec.BitsToBytes(*gp.MacLen)
		if err != nil {
			return nil, err
		}
		keyLenBytes, err := codec.BitsToBytes(*gp.KeyLen)
		if err != nil {
			return nil, err
		}
		msgLenBytes, err := codec.BitsToBytes(*gp.MsgLen)
		if err != nil {
			return nil, err
		}

		cases := make([]response.Case, 0, len(g.Tests))
		for _, t := range g.Tests {
			var tp testParams
			if err := json.Unmarshal(t.Raw, &tp); err != nil {
				return nil, amvperrors.New("mac.Process", amvperrors.KindMalformedJSON, err)
			}
			key, err := codec.HexToBytes(tp.Key, keyLenBytes)
			if err != nil {
				return nil, err
			}
			if len(key) != keyLenBytes {
				return nil, amvperrors.New("mac.Process", amvperrors.KindTCInvalidData,
					fmt.Errorf("tcId %d: key is %d bytes, group keyLen declares %d", tp.TcID, len(key), keyLenBytes))
			}
			msg, err := codec.HexToBytes(tp.Msg, msgLenBytes)
			if err != nil {
				return nil, err
			}
			if len(msg) != msgLenBytes {
				return nil, amvperrors.New("mac.Process", amvperrors.KindTCInvalidData,
					fmt.Errorf("tcId %d: msg is %d bytes, group msgLen declares %d", tp.TcID, len(msg), msgLenBytes))
			}

			full, err := cb.Mac(c.ID, key, msg)
			if err != nil {
				return nil, amvperrors.New("mac.Process", amvperrors.KindCryptoModuleFail, err)
			}
			if len(full) < macLenBytes {
				return nil, amvperrors.New("mac.Process", amvperrors.KindCryptoModuleFail,
					fmt.Errorf("tcId %d: callback produced %d bytes, macLen wants %d", tp.TcID, len(full), macLenBytes))
			}
			produced := full[:macLenBytes]

			if g.TestType == vectorset.VAL {
				expected, err := codec.HexToBytes(tp.Mac, macLenBytes)
				if err != nil {
					return nil, err
				}
				cases = append(cases, response.Case{TcID: tp.TcID, Fields: map[string]interface{}{
					"testPassed": codec.ConstantTimeCompare(produced, expected),
				}})
				continue
			}
			cases = append(cases, response.Case{TcID: tp.TcID, Fields: map[string]interface{}{
				"mac": codec.BytesToHex(produced),
			}})
		}
		out = append(out, response.Group{TgID: g.TgID, Tests: cases})
	}
	return out, nil
}
