package symmetric

import (
	"encoding/json"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/internal/constants"
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/codec"
	"github.com/abkarcher/libamvp/pkg/response"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// mctRecord is one outer-iteration's reported {key, iv, pt, ct} triple, the
// shape the authority's "resultsArray" expects for a Monte-Carlo test case.
type mctRecord struct {
	Key string
	IV  string
	PT  string
	CT  string
}

func (r mctRecord) fields() map[string]interface{} {
	f := map[string]interface{}{"key": r.Key, "pt": r.PT, "ct": r.CT}
	if r.IV != "" {
		f["iv"] = r.IV
	}
	return f
}

// processMCT implements the Monte-Carlo driver: the group carries a single
// seed test case; this driver runs SymmetricMCTOuterIterations outer rounds of
// SymmetricMCTInnerIterations chained inner calls each, preserving exactly
// one live Callback context per outer round, and returns one response.Case
// per input test case carrying a "resultsArray" of the outer records.
//
// Key-feedback between outer rounds follows the classic CAVP Monte-Carlo
// construction: the round's new key is the previous key XORed against the
// tail of its last two produced outputs, and the new seed input is the
// second-to-last output of the previous round (the last becomes the new
// IV). This orchestration is cipher-agnostic — the actual block operation,
// and any mode-specific internal chaining (CBC's running IV, CTR's
// counter, ...), is the operator Callback's responsibility; symmetric only
// supplies what the standard feeds forward between calls.
func (h *Handler) processMCT(cb Callback, c *capability.Capability, g vectorset.RawGroup, direction constants.Direction, gp groupParams) ([]response.Case, error) {
	cases := make([]response.Case, 0, len(g.Tests))
	for _, t := range g.Tests {
		var tp testParams
		if err := json.Unmarshal(t.Raw, &tp); err != nil {
			return nil, amvperrors.New("symmetric.processMCT", amvperrors.KindMalformedJSON, err)
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
		seed, err := codec.HexToBytes(inputHex, constants.MaxPlaintextBytes)
		if err != nil {
			return nil, err
		}

		records, err := h.runMCTChain(cb, direction, c.ID, key, iv, seed)
		if err != nil {
			return nil, amvperrors.New("symmetric.processMCT", amvperrors.KindCryptoModuleFail, err)
		}

		resultsArray := make([]map[string]interface{}, len(records))
		for i, r := range records {
			resultsArray[i] = r.fields()
		}
		cases = append(cases, response.Case{TcID: tp.TcID, Fields: map[string]interface{}{
			"resultsArray": resultsArray,
		}})
	}
	return cases, nil
}

// runMCTChain runs the outer/inner loop described above. On any error the
// live Callback context is always released via Cleanup before returning,
// protecting against a context leak on every error path.
func (h *Handler) runMCTChain(cb Callback, direction constants.Direction, alg catalog.AlgorithmID, key, iv, seed []byte) ([]mctRecord, error) {
	records := make([]mctRecord, 0, constants.SymmetricMCTOuterIterations)
	curKey := append([]byte(nil), key...)
	curIV := append([]byte(nil), iv...)
	curInput := append([]byte(nil), seed...)

	for outer := 0; outer < constants.SymmetricMCTOuterIterations; outer++ {
		rec, lastTwo, err := h.runInnerChain(cb, direction, alg, curKey, curIV, curInput)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)

		curKey = feedbackKey(curKey, lastTwo)
		if len(lastTwo[1]) > 0 {
			curIV = append([]byte(nil), lastTwo[1]...)
		}
		if len(lastTwo[0]) > 0 {
			curInput = append([]byte(nil), lastTwo[0]...)
		} else {
			curInput = append([]byte(nil), lastTwo[1]...)
		}
	}
	return records, nil
}

// runInnerChain preserves one Callback context across
// SymmetricMCTInnerIterations chained Update calls, feeding each call's
// output back in as the next call's input, and finalizing on the last
// iteration. The context is registered with the handler for the duration
// of the chain so MCTCleanup can release it after an abort, and is
// released exactly once on every return path, success or error.
func (h *Handler) runInnerChain(cb Callback, direction constants.Direction, alg catalog.AlgorithmID, key, iv, seedInput []byte) (mctRecord, [2][]byte, error) {
	var lastTwo [2][]byte
	h.setActiveMCT(cb)
	defer func() {
		if h.clearActiveMCT() {
			cb.Cleanup()
		}
	}()

	if err := cb.Init(direction, alg, key, iv); err != nil {
		return mctRecord{}, lastTwo, err
	}

	input := seedInput
	var lastOutput []byte
	for j := 0; j < constants.SymmetricMCTInnerIterations; j++ {
		output, err := cb.Update(input)
		if err != nil {
			return mctRecord{}, lastTwo, err
		}
		if j == constants.SymmetricMCTInnerIterations-1 {
			final, err := cb.Finalize()
			if err != nil {
				return mctRecord{}, lastTwo, err
			}
			output = append(output, final...)
		}
		lastTwo[0] = lastTwo[1]
		lastTwo[1] = output
		lastOutput = output
		input = output
	}

	rec := mctRecord{
		Key: codec.BytesToHex(key),
		IV:  codec.BytesToHex(iv),
	}
	if direction == constants.DirectionDecrypt {
		rec.CT = codec.BytesToHex(seedInput)
		rec.PT = codec.BytesToHex(lastOutput)
	} else {
		rec.PT = codec.BytesToHex(seedInput)
		rec.CT = codec.BytesToHex(lastOutput)
	}
	return rec, lastTwo, nil
}

// feedbackKey XORs oldKey against the tail bytes assembled from the last
// two produced outputs, per the classic CAVP Monte-Carlo key-update rule.
func feedbackKey(oldKey []byte, lastTwo [2][]byte) []byte {
	tail := append(append([]byte(nil), lastTwo[0]...), lastTwo[1]...)
	if len(tail) == 0 {
		return oldKey
	}
	newKey := append([]byte(nil), oldKey...)
	for i := range newKey {
		newKey[i] ^= tail[((len(tail)-len(newKey))%len(tail)+i+len(tail))%len(tail)]
	}
	return newKey
}
