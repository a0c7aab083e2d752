// Package constants defines protocol constants and domain maxima for
// libamvp's vector-set processing engine: buffer-size ceilings, Monte-Carlo
// iteration counts, and the registration/response JSON schema version.
package constants

// Registration schema identification.
const (
	// SchemaVersion is the "acvVersion"/vsId schema revision this engine's
	// registration and response JSON conforms to.
	SchemaVersion = "1.0"

	// RevisionValidation is the literal value of a capability's "revision"
	// field when no algorithm-specific revision applies.
	RevisionValidation = "1.0"
)

// Buffer-size ceilings. A TestCase's owned buffers are never allocated
// larger than these; a test case whose hex-decoded length would exceed one
// is rejected as invalid argument data rather than allocated.
const (
	// MaxKeyBytes bounds the key material of the symmetric, AEAD and
	// key-wrap handlers; MAC keys are bounded by their group's keyLen.
	MaxKeyBytes = 64

	// MaxBlockBytes is the largest block-cipher block size among the
	// cataloged ciphers (AES: 16, TDES: 8); no handler reads it.
	MaxBlockBytes = 16

	// MaxIVBytes bounds an initialization vector or AEAD nonce.
	MaxIVBytes = 16

	// MaxTagBytes bounds an AEAD or CMAC authentication tag.
	MaxTagBytes = 16

	// MaxAADBytes bounds AEAD additional authenticated data.
	MaxAADBytes = 1 << 16

	// MaxPlaintextBytes bounds a single test case's plaintext/ciphertext
	// payload for non-MCT tests.
	MaxPlaintextBytes = 1 << 16

	// MaxFixedInfoBytes bounds each KDA algorithmId, label and context
	// field, and (times 8) the group's derived-key length l in bits. The
	// assembled fixedInfo is not bounded as a whole.
	MaxFixedInfoBytes = 1 << 12

	// MaxRSAModulusBits is the largest RSA modulus size this engine's
	// RSA KeyGen handler will generate.
	MaxRSAModulusBits = 4096

	// MinRSAModulusBits is the smallest RSA modulus size accepted; anything
	// narrower is rejected as invalid argument data rather than generated.
	MinRSAModulusBits = 2048
)

// Monte-Carlo test parameters (NIST SP 800-38A/CAVP MCT conventions).
const (
	// SymmetricMCTOuterIterations is the number of (key, iv, pt) result
	// records a symmetric block-cipher Monte-Carlo test reports.
	SymmetricMCTOuterIterations = 100

	// SymmetricMCTInnerIterations is the number of encrypt/decrypt
	// operations chained between reported outer-loop records.
	SymmetricMCTInnerIterations = 1000

	// AEADMCTOuterIterations mirrors the symmetric MCT outer count for
	// AES-GCM/CCM Monte-Carlo vectors, which iterate 100 times without the
	// 1000-deep inner chain (key/iv/tag feed forward every iteration).
	AEADMCTOuterIterations = 100
)

// JSON message size limits for a single vector-set payload, mirroring the
// teacher's MaxMessageSize convention generalized from a framed wire
// message to a whole downloaded vector-set document.
const (
	// MaxVectorSetBytes is the largest vector-set JSON document this
	// engine will attempt to unmarshal.
	MaxVectorSetBytes = 64 << 20

	// MaxTestGroupsPerVectorSet bounds the number of testGroups array
	// elements processed from one vector set.
	MaxTestGroupsPerVectorSet = 4096
)

// Direction identifies which half of a cipher/MAC/KDA operation a test
// case exercises. It plays the role the teacher's CipherSuite type plays:
// a small closed enum with a String method, generalized from "which cipher
// suite negotiated" to "which direction does this test case run".
type Direction int

const (
	// DirectionEncrypt requests plaintext-to-ciphertext (or key-derivation
	// forward) processing.
	DirectionEncrypt Direction = iota
	// DirectionDecrypt requests ciphertext-to-plaintext processing.
	DirectionDecrypt
)

// String returns a human-readable name for the direction.
func (d Direction) String() string {
	switch d {
	case DirectionEncrypt:
		return "encrypt"
	case DirectionDecrypt:
		return "decrypt"
	default:
		return "unknown"
	}
}

// IsValid reports whether d is one of the two defined directions.
func (d Direction) IsValid() bool {
	return d == DirectionEncrypt || d == DirectionDecrypt
}

// ParseDirection parses an ACVP "direction" field value ("encrypt" or
// "decrypt") into a Direction. ok is false for any other string.
func ParseDirection(s string) (d Direction, ok bool) {
	switch s {
	case "encrypt":
		return DirectionEncrypt, true
	case "decrypt":
		return DirectionDecrypt, true
	default:
		return 0, false
	}
}
