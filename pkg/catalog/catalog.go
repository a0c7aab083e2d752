// Package catalog is the static lookup table layer of the engine: it maps
// the authority's registration/vector-set strings onto closed Go
// enumerations, and back again for the registration serializer.
//
// Every sub-table here is a plain map initialized once at package load and
// never mutated afterward, mirroring the teacher's CipherSuite string
// tables in internal/constants — generalized from one fixed cipher-suite
// set to the dozens of algorithm, mode, curve, hash, and encoding
// vocabularies AMVP test vectors use.
package catalog

import (
	"fmt"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
)

// AlgorithmID identifies a registered (algorithm, mode) pair. The set is
// closed: every handler and capability variant is keyed by one of these
// values. Go itself does not check a switch over AlgorithmID for
// exhaustiveness.
type AlgorithmID int

const (
	Unknown AlgorithmID = iota

	// Symmetric block ciphers
	AESECB
	AESCBC
	AESCBCCS1
	AESCBCCS2
	AESCBCCS3
	AESCFB1
	AESCFB8
	AESCFB128
	AESOFB
	AESCTR
	AESXTS
	TDESECB
	TDESCBC
	TDESCFB1
	TDESCFB8
	TDESCFB64
	TDESOFB

	// AEAD
	AESGCM
	AESGCMSIV
	AESCCM

	// Key-wrap
	AESKW
	AESKWP
	TDESKW

	// MAC
	HMACSHA1
	HMACSHA2_224
	HMACSHA2_256
	HMACSHA2_384
	HMACSHA2_512
	HMACSHA3_224
	HMACSHA3_256
	HMACSHA3_384
	HMACSHA3_512
	CMACAES
	CMACTDES

	// RSA KeyGen
	RSAKeyGen
	RSASigGen
	RSASigVer

	// ECDSA
	ECDSAKeyGen
	ECDSASigGen
	ECDSASigVer

	// KDA
	KDAHKDF
	KDAOneStep
	KDATwoStep

	// KAS
	KASFFCSSC
	KASECCSSC

	// KDF108 (SP 800-108)
	KDF108
)

var idNames = map[AlgorithmID]string{
	Unknown:      "unknown",
	AESECB:       "ACVP-AES-ECB",
	AESCBC:       "ACVP-AES-CBC",
	AESCBCCS1:    "ACVP-AES-CBC-CS1",
	AESCBCCS2:    "ACVP-AES-CBC-CS2",
	AESCBCCS3:    "ACVP-AES-CBC-CS3",
	AESCFB1:      "ACVP-AES-CFB1",
	AESCFB8:      "ACVP-AES-CFB8",
	AESCFB128:    "ACVP-AES-CFB128",
	AESOFB:       "ACVP-AES-OFB",
	AESCTR:       "ACVP-AES-CTR",
	AESXTS:       "ACVP-AES-XTS",
	TDESECB:      "ACVP-TDES-ECB",
	TDESCBC:      "ACVP-TDES-CBC",
	TDESCFB1:     "ACVP-TDES-CFB1",
	TDESCFB8:     "ACVP-TDES-CFB8",
	TDESCFB64:    "ACVP-TDES-CFB64",
	TDESOFB:      "ACVP-TDES-OFB",
	AESGCM:       "ACVP-AES-GCM",
	AESGCMSIV:    "ACVP-AES-GCM-SIV",
	AESCCM:       "ACVP-AES-CCM",
	AESKW:        "ACVP-AES-KW",
	AESKWP:       "ACVP-AES-KWP",
	TDESKW:       "ACVP-TDES-KW",
	HMACSHA1:     "HMAC-SHA-1",
	HMACSHA2_224: "HMAC-SHA2-224",
	HMACSHA2_256: "HMAC-SHA2-256",
	HMACSHA2_384: "HMAC-SHA2-384",
	HMACSHA2_512: "HMAC-SHA2-512",
	HMACSHA3_224: "HMAC-SHA3-224",
	HMACSHA3_256: "HMAC-SHA3-256",
	HMACSHA3_384: "HMAC-SHA3-384",
	HMACSHA3_512: "HMAC-SHA3-512",
	CMACAES:      "CMAC-AES",
	CMACTDES:     "CMAC-TDES",
	RSAKeyGen:    "RSA-KeyGen",
	RSASigGen:    "RSA-SigGen",
	RSASigVer:    "RSA-SigVer",
	ECDSAKeyGen:  "ECDSA-KeyGen",
	ECDSASigGen:  "ECDSA-SigGen",
	ECDSASigVer:  "ECDSA-SigVer",
	KDAHKDF:      "KDA-HKDF",
	KDAOneStep:   "KDA-OneStep",
	KDATwoStep:   "KDA-TwoStep",
	KASFFCSSC:    "KAS-FFC-SSC",
	KASECCSSC:    "KAS-ECC-SSC",
	KDF108:       "KDF108",
}

var namesToID = func() map[string]AlgorithmID {
	m := make(map[string]AlgorithmID, len(idNames))
	for id, name := range idNames {
		m[name] = id
	}
	return m
}()

// Algorithms whose registration entries also carry a `mode` token. Each has
// its own `algorithm` string, so ParseAlgorithmID resolves them through
// namesToID before this table is consulted.
var modeNamesToID = map[string]map[string]AlgorithmID{
	"ACVP-AES-CBC-CS1": {"CS1": AESCBCCS1},
	"ACVP-AES-CBC-CS2": {"CS2": AESCBCCS2},
	"ACVP-AES-CBC-CS3": {"CS3": AESCBCCS3},
}

// Name returns id's registration/vector-set string, or "" if id is not a
// member of the closed enumeration.
func (id AlgorithmID) Name() string {
	return idNames[id]
}

func (id AlgorithmID) String() string {
	if name, ok := idNames[id]; ok {
		return name
	}
	return fmt.Sprintf("AlgorithmID(%d)", int(id))
}

// ParseAlgorithmID resolves the `algorithm` (and optional `mode`) fields of
// an incoming vector set into an AlgorithmID. Unknown strings are reported
// as KindMalformedJSON.
func ParseAlgorithmID(algorithm, mode string) (AlgorithmID, error) {
	if id, ok := namesToID[algorithm]; ok {
		return id, nil
	}
	if byMode, ok := modeNamesToID[algorithm]; ok {
		if id, ok := byMode[mode]; ok {
			return id, nil
		}
	}
	return Unknown, amvperrors.New("catalog.ParseAlgorithmID", amvperrors.KindMalformedJSON,
		fmt.Errorf("unknown algorithm/mode %q/%q", algorithm, mode))
}

// RegistrationName returns the (algorithm, mode) string pair the
// registration serializer (pkg/registration) emits for id — the inverse of
// ParseAlgorithmID. Most AlgorithmIDs have an empty mode; the AES-CBC
// ciphertext-stealing variants also report their `mode` token (CS1, CS2
// or CS3).
func (id AlgorithmID) RegistrationName() (algorithm, mode string) {
	for alg, byMode := range modeNamesToID {
		for m, modeID := range byMode {
			if modeID == id {
				return alg, m
			}
		}
	}
	return idNames[id], ""
}

// Family groups AlgorithmIDs by which handler package processes them. The
// dispatcher uses this to route a resolved AlgorithmID to the right
// package without a second switch duplicating the enum membership.
type Family int

const (
	FamilyUnknown Family = iota
	FamilySymmetric
	FamilyAEAD
	FamilyKeyWrap
	FamilyMAC
	FamilyRSAKeyGen
	FamilyKDA
	FamilyKDF108
)

var familyOf = map[AlgorithmID]Family{
	AESECB: FamilySymmetric, AESCBC: FamilySymmetric, AESCBCCS1: FamilySymmetric,
	AESCBCCS2: FamilySymmetric, AESCBCCS3: FamilySymmetric, AESCFB1: FamilySymmetric,
	AESCFB8: FamilySymmetric, AESCFB128: FamilySymmetric, AESOFB: FamilySymmetric,
	AESCTR: FamilySymmetric, AESXTS: FamilySymmetric,
	TDESECB: FamilySymmetric, TDESCBC: FamilySymmetric, TDESCFB1: FamilySymmetric,
	TDESCFB8: FamilySymmetric, TDESCFB64: FamilySymmetric, TDESOFB: FamilySymmetric,

	AESGCM: FamilyAEAD, AESGCMSIV: FamilyAEAD, AESCCM: FamilyAEAD,

	AESKW: FamilyKeyWrap, AESKWP: FamilyKeyWrap, TDESKW: FamilyKeyWrap,

	HMACSHA1: FamilyMAC, HMACSHA2_224: FamilyMAC, HMACSHA2_256: FamilyMAC,
	HMACSHA2_384: FamilyMAC, HMACSHA2_512: FamilyMAC, HMACSHA3_224: FamilyMAC,
	HMACSHA3_256: FamilyMAC, HMACSHA3_384: FamilyMAC, HMACSHA3_512: FamilyMAC,
	CMACAES: FamilyMAC, CMACTDES: FamilyMAC,

	RSAKeyGen: FamilyRSAKeyGen,

	KDAHKDF: FamilyKDA, KDAOneStep: FamilyKDA, KDATwoStep: FamilyKDA,

	KDF108: FamilyKDF108,
}

// FamilyOf returns the handler family responsible for id, or FamilyUnknown
// for enum members no handler is wired for (RSA-SigGen/SigVer, ECDSA and
// KAS are catalog-only; see DESIGN.md's recorded decisions).
func FamilyOf(id AlgorithmID) Family {
	return familyOf[id]
}

// HashAlg is the closed set of hash functions referenced by HMAC, KDA, and
// RSA signature families.
type HashAlg int

const (
	HashUnknown HashAlg = iota
	SHA1
	SHA2_224
	SHA2_256
	SHA2_384
	SHA2_512
	SHA3_224
	SHA3_256
	SHA3_384
	SHA3_512
)

var hashNames = map[HashAlg]string{
	SHA1: "SHA-1", SHA2_224: "SHA2-224", SHA2_256: "SHA2-256", SHA2_384: "SHA2-384",
	SHA2_512: "SHA2-512", SHA3_224: "SHA3-224", SHA3_256: "SHA3-256",
	SHA3_384: "SHA3-384", SHA3_512: "SHA3-512",
}

var namesToHash = func() map[string]HashAlg {
	m := make(map[string]HashAlg, len(hashNames))
	for id, name := range hashNames {
		m[name] = id
	}
	return m
}()

func (h HashAlg) String() string {
	if name, ok := hashNames[h]; ok {
		return name
	}
	return "unknown"
}

// ParseHashAlg resolves an ACVP hash-algorithm name (e.g. "SHA2-256").
func ParseHashAlg(s string) (HashAlg, error) {
	if h, ok := namesToHash[s]; ok {
		return h, nil
	}
	return HashUnknown, amvperrors.New("catalog.ParseHashAlg", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown hash algorithm %q", s))
}

// Curve is the closed set of elliptic curves ECDSA/KAS-ECC capabilities
// may register against.
type Curve int

const (
	CurveUnknown Curve = iota
	P224
	P256
	P384
	P521
)

var curveNames = map[Curve]string{P224: "P-224", P256: "P-256", P384: "P-384", P521: "P-521"}

var namesToCurve = func() map[string]Curve {
	m := make(map[string]Curve, len(curveNames))
	for id, name := range curveNames {
		m[name] = id
	}
	return m
}()

func (c Curve) String() string {
	if name, ok := curveNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCurve resolves an ACVP curve name (e.g. "P-256").
func ParseCurve(s string) (Curve, error) {
	if c, ok := namesToCurve[s]; ok {
		return c, nil
	}
	return CurveUnknown, amvperrors.New("catalog.ParseCurve", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown curve %q", s))
}

// RandPQ is the closed set of B.3.2-B.3.6 random-prime-generation methods
// an RSA-KeyGen capability may register.
type RandPQ int

const (
	RandPQUnknown RandPQ = iota
	B332
	B333
	B334
	B335
	B336
)

var randPQNames = map[RandPQ]string{
	B332: "B.3.2", B333: "B.3.3", B334: "B.3.4", B335: "B.3.5", B336: "B.3.6",
}

var namesToRandPQ = func() map[string]RandPQ {
	m := make(map[string]RandPQ, len(randPQNames))
	for id, name := range randPQNames {
		m[name] = id
	}
	return m
}()

func (r RandPQ) String() string {
	if name, ok := randPQNames[r]; ok {
		return name
	}
	return "unknown"
}

// ParseRandPQ resolves an ACVP randPQ token (e.g. "B.3.3").
func ParseRandPQ(s string) (RandPQ, error) {
	if r, ok := namesToRandPQ[s]; ok {
		return r, nil
	}
	return RandPQUnknown, amvperrors.New("catalog.ParseRandPQ", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown randPQ %q", s))
}

// KDF108Mode is the closed set of SP 800-108 construction modes a KDF108
// capability may register.
type KDF108Mode int

const (
	KDF108ModeUnknown KDF108Mode = iota
	KDF108Counter
	KDF108Feedback
	KDF108DoublePipeline
)

var kdf108ModeNames = map[KDF108Mode]string{
	KDF108Counter: "counter", KDF108Feedback: "feedback", KDF108DoublePipeline: "double pipeline iteration",
}

var namesToKDF108Mode = func() map[string]KDF108Mode {
	m := make(map[string]KDF108Mode, len(kdf108ModeNames))
	for id, name := range kdf108ModeNames {
		m[name] = id
	}
	return m
}()

func (m KDF108Mode) String() string {
	if name, ok := kdf108ModeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseKDF108Mode resolves an ACVP KDF108 "kdfMode" token.
func ParseKDF108Mode(s string) (KDF108Mode, error) {
	if m, ok := namesToKDF108Mode[s]; ok {
		return m, nil
	}
	return KDF108ModeUnknown, amvperrors.New("catalog.ParseKDF108Mode", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown KDF108 mode %q", s))
}

// CounterLocation is the closed set of positions SP 800-108 counter-mode
// may place its counter octet(s) relative to fixedInfo.
type CounterLocation int

const (
	CounterLocationUnknown CounterLocation = iota
	CounterBeforeFixedData
	CounterAfterFixedData
	CounterMiddleFixedData
)

var counterLocationNames = map[CounterLocation]string{
	CounterBeforeFixedData: "before fixed data", CounterAfterFixedData: "after fixed data",
	CounterMiddleFixedData: "middle fixed data",
}

var namesToCounterLocation = func() map[string]CounterLocation {
	m := make(map[string]CounterLocation, len(counterLocationNames))
	for id, name := range counterLocationNames {
		m[name] = id
	}
	return m
}()

func (c CounterLocation) String() string {
	if name, ok := counterLocationNames[c]; ok {
		return name
	}
	return "unknown"
}

// ParseCounterLocation resolves an ACVP "counterLocation" token.
func ParseCounterLocation(s string) (CounterLocation, error) {
	if c, ok := namesToCounterLocation[s]; ok {
		return c, nil
	}
	return CounterLocationUnknown, amvperrors.New("catalog.ParseCounterLocation", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown counterLocation %q", s))
}

// SaltMethod is the closed set of KDA salt-sourcing strategies.
type SaltMethod int

const (
	SaltMethodUnknown SaltMethod = iota
	SaltDefault
	SaltRandom
)

var saltMethodNames = map[SaltMethod]string{SaltDefault: "default", SaltRandom: "random"}

var namesToSaltMethod = func() map[string]SaltMethod {
	m := make(map[string]SaltMethod, len(saltMethodNames))
	for id, name := range saltMethodNames {
		m[name] = id
	}
	return m
}()

func (s SaltMethod) String() string {
	if name, ok := saltMethodNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseSaltMethod resolves an ACVP KDA "saltMethod" token.
func ParseSaltMethod(s string) (SaltMethod, error) {
	if m, ok := namesToSaltMethod[s]; ok {
		return m, nil
	}
	return SaltMethodUnknown, amvperrors.New("catalog.ParseSaltMethod", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown saltMethod %q", s))
}

// Encoding is the closed set of KDA fixedInfo encodings. Only "concatenation"
// is defined today; the enum leaves room for future encodings without
// widening the string-matching surface elsewhere.
type Encoding int

const (
	EncodingUnknown Encoding = iota
	EncodingConcatenation
)

var encodingNames = map[Encoding]string{EncodingConcatenation: "concatenation"}

var namesToEncoding = func() map[string]Encoding {
	m := make(map[string]Encoding, len(encodingNames))
	for id, name := range encodingNames {
		m[name] = id
	}
	return m
}()

func (e Encoding) String() string {
	if name, ok := encodingNames[e]; ok {
		return name
	}
	return "unknown"
}

// ParseEncoding resolves an ACVP KDA "encoding" token.
func ParseEncoding(s string) (Encoding, error) {
	if e, ok := namesToEncoding[s]; ok {
		return e, nil
	}
	return EncodingUnknown, amvperrors.New("catalog.ParseEncoding", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown encoding %q", s))
}

// PrimeTest is the closed set of Miller-Rabin table selections an
// RSA-KeyGen capability may register for its probable-prime methods
// (B.3.3/B.3.5/B.3.6).
type PrimeTest int

const (
	PrimeTestUnknown PrimeTest = iota
	PrimeTestTblC2
	PrimeTestTblC3
)

var primeTestNames = map[PrimeTest]string{
	PrimeTestTblC2: "tblC2", PrimeTestTblC3: "tblC3",
}

var namesToPrimeTest = func() map[string]PrimeTest {
	m := make(map[string]PrimeTest, len(primeTestNames))
	for id, name := range primeTestNames {
		m[name] = id
	}
	return m
}()

func (p PrimeTest) String() string {
	if name, ok := primeTestNames[p]; ok {
		return name
	}
	return "unknown"
}

// ParsePrimeTest resolves an ACVP RSA-KeyGen "primeTest" token.
func ParsePrimeTest(s string) (PrimeTest, error) {
	if p, ok := namesToPrimeTest[s]; ok {
		return p, nil
	}
	return PrimeTestUnknown, amvperrors.New("catalog.ParsePrimeTest", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown primeTest %q", s))
}

// AuxFunction is the closed set of auxiliary functions a KDA-OneStep
// capability may register: a plain hash, or an HMAC keyed by the salt.
// Whether a salt field is legal for a given test depends on which half of
// this set the group's auxFunction falls into, so the table records that
// alongside the name.
type AuxFunction int

const (
	AuxFunctionUnknown AuxFunction = iota
	AuxSHA2_224
	AuxSHA2_256
	AuxSHA2_384
	AuxSHA2_512
	AuxSHA3_256
	AuxSHA3_384
	AuxSHA3_512
	AuxHMACSHA2_224
	AuxHMACSHA2_256
	AuxHMACSHA2_384
	AuxHMACSHA2_512
	AuxHMACSHA3_256
)

var auxFunctionNames = map[AuxFunction]string{
	AuxSHA2_224: "SHA2-224", AuxSHA2_256: "SHA2-256", AuxSHA2_384: "SHA2-384",
	AuxSHA2_512: "SHA2-512", AuxSHA3_256: "SHA3-256", AuxSHA3_384: "SHA3-384",
	AuxSHA3_512: "SHA3-512",
	AuxHMACSHA2_224: "HMAC-SHA2-224", AuxHMACSHA2_256: "HMAC-SHA2-256",
	AuxHMACSHA2_384: "HMAC-SHA2-384", AuxHMACSHA2_512: "HMAC-SHA2-512",
	AuxHMACSHA3_256: "HMAC-SHA3-256",
}

var namesToAuxFunction = func() map[string]AuxFunction {
	m := make(map[string]AuxFunction, len(auxFunctionNames))
	for id, name := range auxFunctionNames {
		m[name] = id
	}
	return m
}()

func (a AuxFunction) String() string {
	if name, ok := auxFunctionNames[a]; ok {
		return name
	}
	return "unknown"
}

// IsMACBased reports whether a is an HMAC-family auxiliary function, the
// half of the set for which a OneStep test may carry a salt.
func (a AuxFunction) IsMACBased() bool {
	switch a {
	case AuxHMACSHA2_224, AuxHMACSHA2_256, AuxHMACSHA2_384, AuxHMACSHA2_512, AuxHMACSHA3_256:
		return true
	default:
		return false
	}
}

// ParseAuxFunction resolves a KDA-OneStep "auxFunction" token.
func ParseAuxFunction(s string) (AuxFunction, error) {
	if a, ok := namesToAuxFunction[s]; ok {
		return a, nil
	}
	return AuxFunctionUnknown, amvperrors.New("catalog.ParseAuxFunction", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown auxFunction %q", s))
}

// SafePrimeGroup is the closed set of named safe-prime groups a KAS-FFC
// domain-parameter registration may reference. The engine never holds the
// group's actual prime; only the name travels through registration JSON.
type SafePrimeGroup int

const (
	SafePrimeGroupUnknown SafePrimeGroup = iota
	FFDHE2048
	FFDHE3072
	FFDHE4096
	FFDHE6144
	FFDHE8192
	MODP2048
	MODP3072
	MODP4096
	MODP6144
	MODP8192
)

var safePrimeGroupNames = map[SafePrimeGroup]string{
	FFDHE2048: "ffdhe2048", FFDHE3072: "ffdhe3072", FFDHE4096: "ffdhe4096",
	FFDHE6144: "ffdhe6144", FFDHE8192: "ffdhe8192",
	MODP2048: "modp-2048", MODP3072: "modp-3072", MODP4096: "modp-4096",
	MODP6144: "modp-6144", MODP8192: "modp-8192",
}

var namesToSafePrimeGroup = func() map[string]SafePrimeGroup {
	m := make(map[string]SafePrimeGroup, len(safePrimeGroupNames))
	for id, name := range safePrimeGroupNames {
		m[name] = id
	}
	return m
}()

func (g SafePrimeGroup) String() string {
	if name, ok := safePrimeGroupNames[g]; ok {
		return name
	}
	return "unknown"
}

// ParseSafePrimeGroup resolves a KAS-FFC safe-prime group name
// (e.g. "ffdhe2048", "modp-3072").
func ParseSafePrimeGroup(s string) (SafePrimeGroup, error) {
	if g, ok := namesToSafePrimeGroup[s]; ok {
		return g, nil
	}
	return SafePrimeGroupUnknown, amvperrors.New("catalog.ParseSafePrimeGroup", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown safe-prime group %q", s))
}

// MacMode is the closed set of PRFs a KDA-TwoStep (SP 800-56C) or KDF108
// capability may use as its extraction/expansion MAC.
type MacMode int

const (
	MacModeUnknown MacMode = iota
	MacHMACSHA2_256
	MacHMACSHA2_384
	MacHMACSHA2_512
	MacCMACAES
)

var macModeNames = map[MacMode]string{
	MacHMACSHA2_256: "HMAC-SHA2-256", MacHMACSHA2_384: "HMAC-SHA2-384",
	MacHMACSHA2_512: "HMAC-SHA2-512", MacCMACAES: "CMAC-AES",
}

var namesToMacMode = func() map[string]MacMode {
	m := make(map[string]MacMode, len(macModeNames))
	for id, name := range macModeNames {
		m[name] = id
	}
	return m
}()

func (m MacMode) String() string {
	if name, ok := macModeNames[m]; ok {
		return name
	}
	return "unknown"
}

// ParseMacMode resolves a KDA-TwoStep/KDF108 "macMode" token.
func ParseMacMode(s string) (MacMode, error) {
	if m, ok := namesToMacMode[s]; ok {
		return m, nil
	}
	return MacModeUnknown, amvperrors.New("catalog.ParseMacMode", amvperrors.KindInvalidArg,
		fmt.Errorf("unknown macMode %q", s))
}
