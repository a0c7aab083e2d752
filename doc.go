// Package libamvp implements the client side of the Automated Module
// Validation Protocol (AMVP/ACVP): downloading a vector set, dispatching
// each test case to an operator-supplied crypto callback, and assembling
// the signed response.
//
// # Quick Start
//
// A minimal registration and processing cycle:
//
//	import "github.com/abkarcher/libamvp/pkg/engine"
//
//	ctx, _ := engine.NewContext(engine.Config{})
//	_ = ctx.Enable(catalog.AESGCM, myAEADCallback)
//	_ = ctx.SetIntParm(catalog.AESGCM, capability.ParamKeyLen, 128, 256)
//	reg, _ := ctx.BuildRegistration()
//	resp, _ := ctx.ProcessVectorSet(vectorSetJSON)
//	ctx.Close()
//
// # Package Structure
//
//   - internal/errors: the AMVP error taxonomy (§7)
//   - internal/constants: buffer ceilings, MCT iteration counts, schema version
//   - pkg/codec: hex helpers shared by every handler
//   - pkg/catalog: AlgorithmId and the algorithm/mode/parameter sub-tables
//   - pkg/capability: the capability registry an operator populates at startup
//   - pkg/registration: serializes a Registry into registration JSON
//   - pkg/vectorset: the vector-set document types and the dispatcher
//   - pkg/handlers/...: one package per algorithm family (symmetric, aead,
//     keywrap, mac, rsakeygen, kda, kdf108)
//   - pkg/response: assembles processed test groups into response JSON
//   - pkg/engine: ties the above into create/process/destroy lifecycle calls,
//     optionally running a pool of independent worker processors
//   - pkg/metrics: structured logging, tracing and Prometheus metrics
//
// # Scope
//
// This library performs no cryptography of its own. Every test case is
// dispatched to a crypto callback the operator registers; libamvp's job is
// parsing, validating, dispatching, and re-serializing — not implementing
// AES or RSA.
//
// # Testing
//
//	go test ./...                         # all tests
//	go test -fuzz=FuzzParseVectorSet ./test/fuzz/
//	go test -bench=. ./test/benchmark
package libamvp
