// Package engine ties the capability registry, registration serializer,
// dispatcher and family handlers into the library's public lifecycle: an
// operator creates a Context, enables capabilities, builds the
// registration message, processes vector sets one at a time, and destroys
// the Context when the session ends.
//
// For callers that want several vector sets in flight at once, Pool
// manages independent processor workers, each owning its own handler set
// and Monte-Carlo state.
package engine

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/handlers/aead"
	"github.com/abkarcher/libamvp/pkg/handlers/kda"
	"github.com/abkarcher/libamvp/pkg/handlers/kdf108"
	"github.com/abkarcher/libamvp/pkg/handlers/keywrap"
	"github.com/abkarcher/libamvp/pkg/handlers/mac"
	"github.com/abkarcher/libamvp/pkg/handlers/rsakeygen"
	"github.com/abkarcher/libamvp/pkg/handlers/symmetric"
	"github.com/abkarcher/libamvp/pkg/registration"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// ErrContextClosed is returned for any operation on a destroyed Context.
var ErrContextClosed = fmt.Errorf("amvp: context closed")

// Config configures a Context.
type Config struct {
	// Observer receives lifecycle events. Optional; nil means no events
	// are reported.
	Observer Observer
}

// Context is one registration-and-processing session: a capability
// registry, the wired family handlers, and the symmetric handler's
// Monte-Carlo state. A Context processes one vector set at a time; use
// Pool for concurrent sessions.
type Context struct {
	registry  *capability.Registry
	handlers  vectorset.Registry
	symmetric *symmetric.Handler
	observer  Observer
	closed    atomic.Bool
}

// NewContext creates a fresh Context with an empty capability registry
// and all family handlers wired.
func NewContext(cfg Config) (*Context, error) {
	obs := cfg.Observer
	if obs == nil {
		obs = NoOpObserver{}
	}
	sym := symmetric.New()
	return &Context{
		registry:  capability.New(),
		handlers:  newHandlerRegistry(sym),
		symmetric: sym,
		observer:  obs,
	}, nil
}

// newHandlerRegistry wires one handler instance per family. The symmetric
// handler is passed in because its owner also needs it for MCTCleanup.
func newHandlerRegistry(sym *symmetric.Handler) vectorset.Registry {
	return vectorset.Registry{
		catalog.FamilySymmetric: sym,
		catalog.FamilyAEAD:      aead.New(),
		catalog.FamilyKeyWrap:   keywrap.New(),
		catalog.FamilyMAC:       mac.New(),
		catalog.FamilyRSAKeyGen: rsakeygen.New(),
		catalog.FamilyKDA:       kda.New(),
		catalog.FamilyKDF108:    kdf108.New(),
	}
}

// Registry exposes the capability registry for direct manipulation. The
// Enable/SetIntParm/... wrappers below cover the common path; Registry is
// for callers composing their own registration helpers.
func (c *Context) Registry() *capability.Registry {
	return c.registry
}

// Enable registers an algorithm with its crypto callback.
func (c *Context) Enable(id catalog.AlgorithmID, callback interface{}) error {
	if c.closed.Load() {
		return ErrContextClosed
	}
	return c.registry.Enable(id, callback)
}

// SetIntParm registers allow-listed integer values for a parameter.
func (c *Context) SetIntParm(id catalog.AlgorithmID, param capability.ParamID, values ...int) error {
	if c.closed.Load() {
		return ErrContextClosed
	}
	return c.registry.SetIntParm(id, param, values...)
}

// SetEnumParm registers allow-listed enum string values for a parameter.
func (c *Context) SetEnumParm(id catalog.AlgorithmID, param capability.ParamID, values ...string) error {
	if c.closed.Load() {
		return ErrContextClosed
	}
	return c.registry.SetEnumParm(id, param, values...)
}

// SetDomain registers a min/max/step interval for a parameter.
func (c *Context) SetDomain(id catalog.AlgorithmID, param capability.ParamID, min, max, step int) error {
	if c.closed.Load() {
		return ErrContextClosed
	}
	return c.registry.SetDomain(id, param, min, max, step)
}

// SetPrereq registers a validated-prerequisite reference.
func (c *Context) SetPrereq(id, required catalog.AlgorithmID, value string) error {
	if c.closed.Load() {
		return ErrContextClosed
	}
	return c.registry.SetPrereq(id, required, value)
}

// BuildRegistration serializes the registry into registration JSON.
func (c *Context) BuildRegistration() ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrContextClosed
	}
	out, err := registration.Build(c.registry)
	if err != nil {
		return nil, err
	}
	c.observer.OnRegistrationBuilt(len(c.registry.All()))
	return out, nil
}

// ProcessVectorSet runs one vector-set document through parse, dispatch,
// handler processing and response assembly, returning the response JSON.
// Any error aborts the whole set; no partial response is returned.
func (c *Context) ProcessVectorSet(raw []byte) ([]byte, error) {
	if c.closed.Load() {
		return nil, ErrContextClosed
	}
	c.observer.OnVectorSetStart()
	start := time.Now()

	resp, err := vectorset.Dispatch(c.registry, c.handlers, raw)
	if err != nil {
		// A failed MCT chain cleans its own context up; the explicit
		// release here also frees any context a failed set left open.
		c.symmetric.MCTCleanup()
		c.observer.OnVectorSetFailed(err)
		return nil, err
	}

	algorithm := algorithmOf(raw)
	c.observer.OnVectorSetEnd(algorithm, time.Since(start))
	return resp, nil
}

// MCTCleanup releases the Monte-Carlo cipher context if one is live. The
// transport layer calls this when a session is cancelled mid-chain, and
// Close calls it unconditionally.
func (c *Context) MCTCleanup() {
	c.symmetric.MCTCleanup()
}

// Close destroys the Context: the Monte-Carlo context is released and all
// further operations fail with ErrContextClosed. Idempotent.
func (c *Context) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.symmetric.MCTCleanup()
	return nil
}

// algorithmOf extracts the algorithm string for observability without
// re-validating the document (Dispatch already did).
func algorithmOf(raw []byte) string {
	var hdr struct {
		Algorithm string `json:"algorithm"`
	}
	_ = json.Unmarshal(raw, &hdr)
	return hdr.Algorithm
}

// KindOf re-exports the error-kind extractor so transport callers can map
// a processing failure onto the protocol's result codes without importing
// the internal errors package.
func KindOf(err error) (amvperrors.Kind, bool) {
	return amvperrors.KindOf(err)
}
