// Package rsakeygen implements the RSA KeyGen family handler: the B.3.2
// through B.3.6 random-prime-generation methods, fixed or random public
// exponents, standard or CRT key format, and the KAT prime-verification
// subtype that reports only a testPassed verdict.
package rsakeygen

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

// Params carries everything one key-generation invocation needs. Seed and
// BitLens are populated only when the server supplied them
// (infoGeneratedByServer); XP/XQ and the aux primes only for B.3.6.
type Params struct {
	RandPQ     catalog.RandPQ
	Modulo     int
	HashAlg    catalog.HashAlg
	PrimeTest  catalog.PrimeTest
	KeyFormat  string
	PubExp     []byte // fixed public exponent, nil when pubExpMode is random
	Seed       []byte
	BitLens    [4]int
	HasBitLens bool
	XP, XP1, XP2, XQ, XQ1, XQ2 []byte
}

// Result is the generated key material. CRT fields are populated only when
// the capability's key format is CRT; Seed/BitLens only when the module
// generated them itself.
type Result struct {
	P, Q, N, D, E []byte
	Seed          []byte
	BitLens       [4]int
	HasBitLens    bool
	XP, XP1, XP2  []byte
	XQ, XQ1, XQ2  []byte
}

// Callback is the operator-supplied RSA key-generation context.
type Callback interface {
	// GenerateKey produces a key pair per p's method and modulus.
	GenerateKey(p *Params) (*Result, error)
	// VerifyPrimes checks a server-supplied (p, q) candidate pair for the
	// KAT subtype. valid is false (err nil) when the pair is rejected.
	VerifyPrimes(modulo int, p, q []byte) (valid bool, err error)
}

// Handler implements vectorset.Handler for RSA-KeyGen.
type Handler struct{}

// New returns a ready-to-use RSA KeyGen Handler.
func New() *Handler { return &Handler{} }

var _ vectorset.Handler = (*Handler)(nil)

type groupParams struct {
	Modulo                int    `json:"modulo"`
	RandPQ                string `json:"randPQ"`
	PubExpMode            string `json:"pubExpMode"`
	FixedPubExp           string `json:"fixedPubExp"`
	KeyFormat             string `json:"keyFormat"`
	PrimeTest             string `json:"primeTest"`
	HashAlg               string `json:"hashAlg"`
	InfoGeneratedByServer bool   `json:"infoGeneratedByServer"`
}

type testParams struct {
	TcID    int    `json:"tcId"`
	Seed    string `json:"seed"`
	BitLens []int  `json:"bitlens"`
	E       string `json:"e"`
	P       string `json:"p"`
	Q       string `json:"q"`
	XP      string `json:"xP"`
	XP1     string `json:"xP1"`
	XP2     string `json:"xP2"`
	XQ      string `json:"xQ"`
	XQ1     string `json:"xQ1"`
	XQ2     string `json:"xQ2"`
}

// maxModulusBytes bounds every hex field a key-generation vector carries.
const maxModulusBytes = constants.MaxRSAModulusBits / 8

// seedRequired reports whether the B.3.x method consumes a server seed
// when infoGeneratedByServer is set (B.3.2, B.3.4 and B.3.5 do; the
// probable-prime-only methods do not).
func seedRequired(r catalog.RandPQ) bool {
	return r == catalog.B332 || r == catalog.B334 || r == catalog.B335
}

// primeTestApplies reports whether the method runs a Miller-Rabin table
// test (the probable-prime methods B.3.3, B.3.5 and B.3.6).
func primeTestApplies(r catalog.RandPQ) bool {
	return r == catalog.B333 || r == catalog.B335 || r == catalog.B336
}

// Process implements vectorset.Handler.
func (h *Handler) Process(c *capability.Capability, groups []vectorset.RawGroup) ([]response.Group, error) {
	cb, ok := c.Callback.(Callback)
	if !ok {
		return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindUnsupportedOp,
			fmt.Errorf("capability %s has no rsakeygen.Callback registered", c.ID))
	}

	out := make([]response.Group, 0, len(groups))
	for _, g := range groups {
		var gp groupParams
		if err := json.Unmarshal(g.Raw, &gp); err != nil {
			return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindMalformedJSON, err)
		}

		if gp.Modulo < constants.MinRSAModulusBits || gp.Modulo > constants.MaxRSAModulusBits {
			return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindInvalidArg,
				fmt.Errorf("group %d: modulo %d outside [%d, %d]", g.TgID, gp.Modulo,
					constants.MinRSAModulusBits, constants.MaxRSAModulusBits))
		}
		if !c.AllowsInt(capability.ParamModulo, gp.Modulo) {
			return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: modulo %d not registered", g.TgID, gp.Modulo))
		}
		randPQ, err := catalog.ParseRandPQ(gp.RandPQ)
		if err != nil {
			return nil, err
		}
		if !c.AllowsEnum(capability.ParamRandPQ, gp.RandPQ) {
			return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindTCInvalidData,
				fmt.Errorf("group %d: randPQ %s not registered", g.TgID, gp.RandPQ))
		}

		var primeTest catalog.PrimeTest
		if primeTestApplies(randPQ) {
			if primeTest, err = catalog.ParsePrimeTest(gp.PrimeTest); err != nil {
				return nil, err
			}
		} else if gp.PrimeTest != "" {
			return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindInvalidArg,
				fmt.Errorf("group %d: primeTest given for %s, which takes none", g.TgID, randPQ))
		}

		var hashAlg catalog.HashAlg
		if gp.HashAlg != "" {
			if hashAlg, err = catalog.ParseHashAlg(gp.HashAlg); err != nil {
				return nil, err
			}
		}

		var fixedPubExp []byte
		switch gp.PubExpMode {
		case "fixed":
			if fixedPubExp, err = codec.HexToBytes(gp.FixedPubExp, maxModulusBytes); err != nil {
				return nil, err
			}
			if len(fixedPubExp) == 0 {
				return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindMissingArg,
					fmt.Errorf("group %d: fixed pubExpMode requires \"fixedPubExp\"", g.TgID))
			}
		case "", "random":
		default:
			return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindInvalidArg,
				fmt.Errorf("group %d: unknown pubExpMode %q", g.TgID, gp.PubExpMode))
		}

		crt := gp.KeyFormat == "crt"

		cases := make([]response.Case, 0, len(g.Tests))
		for _, t := range g.Tests {
			var tp testParams
			if err := json.Unmarshal(t.Raw, &tp); err != nil {
				return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindMalformedJSON, err)
			}

			// The KAT subtype verifies a server-supplied (p, q) pair and
			// reports only a verdict.
			if g.TestType == vectorset.KAT || g.TestType == vectorset.VAL {
				fields, err := h.verify(cb, gp.Modulo, tp)
				if err != nil {
					return nil, err
				}
				cases = append(cases, response.Case{TcID: tp.TcID, Fields: fields})
				continue
			}

			params := &Params{
				RandPQ:    randPQ,
				Modulo:    gp.Modulo,
				HashAlg:   hashAlg,
				PrimeTest: primeTest,
				KeyFormat: gp.KeyFormat,
				PubExp:    fixedPubExp,
			}
			if err := h.fillServerInfo(params, gp, randPQ, tp); err != nil {
				return nil, err
			}

			res, err := cb.GenerateKey(params)
			if err != nil {
				return nil, amvperrors.New("rsakeygen.Process", amvperrors.KindCryptoModuleFail, err)
			}

			fields := map[string]interface{}{
				"p": codec.BytesToHex(res.P),
				"q": codec.BytesToHex(res.Q),
				"n": codec.BytesToHex(res.N),
				"d": codec.BytesToHex(res.D),
				"e": codec.BytesToHex(res.E),
			}
			if crt {
				fields["xP"] = codec.BytesToHex(res.XP)
				fields["xP1"] = codec.BytesToHex(res.XP1)
				fields["xP2"] = codec.BytesToHex(res.XP2)
				fields["xQ"] = codec.BytesToHex(res.XQ)
				fields["xQ1"] = codec.BytesToHex(res.XQ1)
				fields["xQ2"] = codec.BytesToHex(res.XQ2)
			}
			// When the server did not hand us the generation inputs, the
			// module's own choices travel back in the response.
			if !gp.InfoGeneratedByServer {
				if len(res.Seed) > 0 {
					fields["seed"] = codec.BytesToHex(res.Seed)
				}
				if res.HasBitLens {
					fields["bitlens"] = []int{res.BitLens[0], res.BitLens[1], res.BitLens[2], res.BitLens[3]}
				}
			}
			cases = append(cases, response.Case{TcID: tp.TcID, Fields: fields})
		}
		out = append(out, response.Group{TgID: g.TgID, Tests: cases})
	}
	return out, nil
}

func (h *Handler) verify(cb Callback, modulo int, tp testParams) (map[string]interface{}, error) {
	if tp.P == "" || tp.Q == "" {
		return nil, amvperrors.New("rsakeygen.verify", amvperrors.KindMissingArg,
			fmt.Errorf("tcId %d: KAT subtype requires \"p\" and \"q\"", tp.TcID))
	}
	p, err := codec.HexToBytes(tp.P, maxModulusBytes)
	if err != nil {
		return nil, err
	}
	q, err := codec.HexToBytes(tp.Q, maxModulusBytes)
	if err != nil {
		return nil, err
	}
	valid, err := cb.VerifyPrimes(modulo, p, q)
	if err != nil {
		return nil, amvperrors.New("rsakeygen.verify", amvperrors.KindCryptoModuleFail, err)
	}
	return map[string]interface{}{"testPassed": valid}, nil
}

// fillServerInfo populates the server-provided generation inputs on params:
// bit lengths and seed when infoGeneratedByServer, the xP/xQ candidate set
// for B.3.6.
func (h *Handler) fillServerInfo(params *Params, gp groupParams, randPQ catalog.RandPQ, tp testParams) error {
	var err error
	if gp.InfoGeneratedByServer {
		if len(tp.BitLens) != 4 {
			return amvperrors.New("rsakeygen.fillServerInfo", amvperrors.KindMissingArg,
				fmt.Errorf("tcId %d: expected 4 bitlens, got %d", tp.TcID, len(tp.BitLens)))
		}
		copy(params.BitLens[:], tp.BitLens)
		params.HasBitLens = true

		if seedRequired(randPQ) {
			if tp.Seed == "" {
				return amvperrors.New("rsakeygen.fillServerInfo", amvperrors.KindMissingArg,
					fmt.Errorf("tcId %d: %s with server info requires \"seed\"", tp.TcID, randPQ))
			}
			if params.Seed, err = codec.HexToBytes(tp.Seed, maxModulusBytes); err != nil {
				return err
			}
		}
	}

	if randPQ == catalog.B336 {
		for _, f := range []struct {
			name string
			hex  string
			dst  *[]byte
		}{
			{"xP", tp.XP, &params.XP}, {"xP1", tp.XP1, &params.XP1}, {"xP2", tp.XP2, &params.XP2},
			{"xQ", tp.XQ, &params.XQ}, {"xQ1", tp.XQ1, &params.XQ1}, {"xQ2", tp.XQ2, &params.XQ2},
		} {
			if f.hex == "" {
				return amvperrors.New("rsakeygen.fillServerInfo", amvperrors.KindMissingArg,
					fmt.Errorf("tcId %d: B.3.6 requires %q", tp.TcID, f.name))
			}
			if *f.dst, err = codec.HexToBytes(f.hex, maxModulusBytes); err != nil {
				return err
			}
		}
	}
	return nil
}
