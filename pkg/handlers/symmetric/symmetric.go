// Package symmetric implements the block-cipher family handler: AES and
// TDES across ECB/CBC(-CS1/2/3)/CFB1/CFB8/CFB128/OFB/CTR/XTS, for AFT/VAL
// generate-and-check vectors, plus the stateful Monte-Carlo driver.
//
// The package performs no cryptography itself. Every block operation is
// delegated to an operator-supplied Callback; symmetric's job is parsing
// group/test JSON, validating requested parameters against the registered
// Capability, driving the MCT state machine, and formatting the response.
package symmetric

import (
	"encoding/json"
	"fmt"
	"sync"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/internal/constants"
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/codec"
	"github.com/abkarcher/libamvp/pkg/response"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// Callback is the operator-supplied crypto context for one block-cipher
// operation. Init/Update/Finalize/Cleanup make cipher state transitions
// explicit rather than relying on a global crypto context: Init
// establishes key/iv state, Update processes one chunk of
// input using (and advancing) that state, Finalize drains anything the
// cipher buffers internally, and Cleanup always runs, releasing the
// context whether or not the operation succeeded.
type Callback interface {
	Init(direction constants.Direction, alg catalog.AlgorithmID, key, iv []byte) error
	Update(input []byte) (output []byte, err error)
	Finalize() (output []byte, err error)
	Cleanup()
}

// Handler implements vectorset.Handler for the symmetric block-cipher
// family. It additionally tracks the one live Monte-Carlo cipher context a
// chain keeps across inner iterations, so an abort mid-chain can still be
// cleaned up through MCTCleanup.
type Handler struct {
	mu        sync.Mutex
	activeMCT Callback
}

// New returns a ready-to-use symmetric Handler.
func New() *Handler { return &Handler{} }

// MCTCleanup releases the Monte-Carlo cipher context if a chain left one
// live (a transport-level cancellation discarding the in-flight response
// is the expected caller). Safe to call at any time, including when no
// chain is active.
func (h *Handler) MCTCleanup() {
	h.mu.Lock()
	cb := h.activeMCT
	h.activeMCT = nil
	h.mu.Unlock()
	if cb != nil {
		cb.Cleanup()
	}
}

func (h *Handler) setActiveMCT(cb Callback) {
	h.mu.Lock()
	h.activeMCT = cb
	h.mu.Unlock()
}

// clearActiveMCT detaches the live context from the handler and reports
// whether one was still attached: the chain's own deferred cleanup uses
// this to avoid a double Cleanup when MCTCleanup already ran.
func (h *Handler) clearActiveMCT() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.activeMCT == nil {
		return false
	}
	h.activeMCT = nil
	return true
}

var _ vectorset.Handler = (*Handler)(nil)

type groupParams struct {
	Direction string `json:"direction"`
	KeyLen    int    `json:"keyLen"`
	IVLen     int    `json:"ivLen"`
}

type testParams struct {
	TcID       int    `json:"tcId"`
	Key        string `json:"key"`
	IV         string `json:"iv"`
	PT         string `json:"pt"`
	CT         string `json:"ct"`
	Tweak      string `json:"tweakValue"`
}

// Process implements vectorset.Handler.
func (h *Handler) Process(c *capability.Capability, groups []vectorset.RawGroup) ([]response.Group, error) {
	cb, ok := c.Callback.(Callback)
	if !ok {
		return nil, amvperrors.New("symmetric.Process", amvperrors.KindUnsupportedOp,
			fmt.Errorf("capability %s has no symmetric.Callback registered", c.ID))
	}

	out := make([]response.Group, 0, len(groups))
	for _, g := range groups {
		var gp groupParams
		if err := json.Unmarshal(g.Raw, &gp); err != nil {
			return nil, amvperrors.New("symmetric.Process", amvperrors.KindMalformedJSON, err)
		}
		direction, ok := constants.ParseDirection(gp.Direction)
		if !ok {
			return nil, amvperrors.New("symmetric.Process", amvperrors.KindMissingArg,
				fmt.Errorf("group %d: missing or invalid \"direction\"", g.TgID))
		}
		if !c.AllowsInt(capability.ParamKeyLen, gp.KeyLen) {
			return nil, amvperrors.New("symmetric.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: keyLen %d not registered for %s", g.TgID, gp.KeyLen, c.ID))
		}

		var cases []response.Case
		var err error
		if g.TestType == vectorset.MCT {
			cases, err = h.processMCT(cb, c, g, direction, gp)
		} else {
			cases, err = h.processAFT(cb, c, g, direction, gp)
		}
		if err != nil {
			return nil, err
		}
		out = append(out, response.Group{TgID: g.TgID, Tests: cases})
	}
	return out, nil
}

func (h *Handler) processAFT(cb Callback, c *capability.Capability, g vectorset.RawGroup, direction constants.Direction, gp groupParams) ([]response.Case, error) {
	cases := make([]response.Case, 0, len(g.Tests))
	for _, t := range g.Tests {
		var tp testParams
		if err := json.Unmarshal(t.Raw, &tp); err != nil {
			return nil, amvperrors.New("symmetric.processAFT", amvperrors.KindMalformedJSON, err)
		}

		key, err := codec.HexToBytes(tp.Key, constants.MaxKeyBytes)
		if err != nil {
			return nil, err
		}
		var iv []byte
		if tp.IV != "" {
			if iv, err = codec.HexToBytes(tp.IV, constants.MaxIVBytes); err != nil {
				return nil, err
			}
		}

		inputHex := tp.PT
		if direction == constants.DirectionDecrypt {
			inputHex = tp.CT
		}
		input, err := codec.HexToBytes(inputHex, constants.MaxPlaintextBytes)
		if err != nil {
			return nil, err
		}

		output, err := runOneShot(cb, direction, c.ID, key, iv, input)
		if err != nil {
			return nil, amvperrors.New("symmetric.processAFT", amvperrors.KindCryptoModuleFail, err)
		}

		outKey := "ct"
		if direction == constants.DirectionDecrypt {
			outKey = "pt"
		}

		if g.TestType == vectorset.VAL {
			expectedHex := tp.CT
			if direction == constants.DirectionDecrypt {
				expectedHex = tp.PT
			}
			expected, err := codec.HexToBytes(expectedHex, constants.MaxPlaintextBytes)
			if err != nil {
				return nil, err
			}
			cases = append(cases, response.Case{TcID: tp.TcID, Fields: map[string]interface{}{
				"testPassed": codec.ConstantTimeCompare(output, expected),
			}})
			continue
		}

		cases = append(cases, response.Case{TcID: tp.TcID, Fields: map[string]interface{}{
			outKey: codec.BytesToHex(output),
		}})
	}
	return cases, nil
}

// runOneShot drives one complete AFT/VAL/GDT operation through the Init/
// Update/Finalize/Cleanup lifecycle, always releasing the context before
// returning, the same discipline the Monte-Carlo driver applies to the
// context it keeps alive across chained calls.
func runOneShot(cb Callback, direction constants.Direction, alg catalog.AlgorithmID, key, iv, input []byte) ([]byte, error) {
	defer cb.Cleanup()
	if err := cb.Init(direction, alg, key, iv); err != nil {
		return nil, err
	}
	updated, err := cb.Update(input)
	if err != nil {
		return nil, err
	}
	final, err := cb.Finalize()
	if err != nil {
		return nil, err
	}
	return append(updated, final...), nil
}
