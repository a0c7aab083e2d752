// Package capability implements the typed, append-only capability registry
// an operator populates at startup: which AlgorithmIDs the module
// supports, which parameter values and domains it accepts for each, and
// which other (already-validated) algorithms it depends on.
//
// The registry is read-only once a vector-set run begins; independent
// vector-set processors may run concurrently provided each owns its own
// registry snapshot, so Registry guards its internal state with a mutex
// even though the core's own call pattern is single-threaded per session.
package capability

import (
	"fmt"
	"sync"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/pkg/catalog"
)

// ParamID is the family-typed parameter enumeration used by SetIntParm,
// SetEnumParm, and SetDomain. Not every ParamID applies to every
// AlgorithmID; handlers validate relevance when they read a Capability,
// the registry itself only enforces "one domain/singleton slot per
// (AlgorithmID, ParamID)".
type ParamID int

const (
	ParamKeyLen ParamID = iota
	ParamIVLen
	ParamTagLen
	ParamAADLen
	ParamMsgLen
	ParamSaltLen
	ParamContextLen
	ParamLLen
	ParamPtLen
	ParamModulo
	ParamCounterLen
	ParamDirection
	ParamMode
	ParamHashAlg
	ParamCurve
	ParamMacMode
	ParamKDFMode
	ParamCounterLocation
	ParamSaltMethod
	ParamRandPQ
	ParamPubExpMode
	ParamKeyFormat
	ParamPrimeTest
	ParamAuxFunction
	ParamInverse
)

// Domain is a closed integer interval with a step, describing a range of
// supported lengths. Every value the registration serializer
// emits for a domain-backed parameter, and every value a vector-set
// handler reads against one, must satisfy Contains.
type Domain struct {
	Min, Max, Step int
}

// Validate checks the domain's own shape: min <= max, step >= 1, and step
// divides (max-min) (trivially true when step == 1, checked anyway).
func (d Domain) Validate() error {
	if d.Step < 1 {
		return fmt.Errorf("step must be >= 1, got %d", d.Step)
	}
	if d.Min > d.Max {
		return fmt.Errorf("min (%d) > max (%d)", d.Min, d.Max)
	}
	if (d.Max-d.Min)%d.Step != 0 {
		return fmt.Errorf("step %d does not divide max-min (%d)", d.Step, d.Max-d.Min)
	}
	return nil
}

// Contains reports whether v is a value this domain admits.
func (d Domain) Contains(v int) bool {
	if v < d.Min || v > d.Max {
		return false
	}
	return (v-d.Min)%d.Step == 0
}

// Prerequisite records that this capability's support for its AlgorithmID
// depends on a separately-validated implementation of RequiredAlg,
// identified by the authority's ValidationValue.
type Prerequisite struct {
	RequiredAlg     catalog.AlgorithmID
	ValidationValue string
}

// Capability is the registered record for one AlgorithmID. Rather than one
// Go type per algorithm family, a single Capability carries generic
// parameter/domain maps keyed by the family-typed
// ParamID, plus an opaque Callback the owning handler package type-asserts
// to its own Callback interface — the dispatcher in pkg/vectorset recovers
// the family via catalog.FamilyOf and hands the Capability to exactly one
// handler package, so the type assertion never crosses a family boundary.
type Capability struct {
	ID catalog.AlgorithmID

	// Callback is the operator-supplied crypto callback for this
	// capability. Its concrete type implements the Callback interface
	// declared by pkg/handlers/<family>; nil until Enable is called with one.
	Callback interface{}

	IntParams  map[ParamID][]int
	EnumParams map[ParamID][]string
	Domains    map[ParamID]Domain
	Prereqs    []Prerequisite
}

// IntValues returns the allow-listed integer values registered for param,
// or nil if none were set.
func (c *Capability) IntValues(param ParamID) []int {
	return c.IntParams[param]
}

// EnumValues returns the allow-listed enum strings registered for param,
// or nil if none were set.
func (c *Capability) EnumValues(param ParamID) []string {
	return c.EnumParams[param]
}

// Domain returns the domain registered for param and whether one exists.
func (c *Capability) Domain(param ParamID) (Domain, bool) {
	d, ok := c.Domains[param]
	return d, ok
}

// AllowsInt reports whether v is acceptable for param, either because it
// appears in the registered singleton/allow-list or falls within the
// registered domain. A param with neither a list nor a domain registered
// allows nothing.
func (c *Capability) AllowsInt(param ParamID, v int) bool {
	for _, allowed := range c.IntParams[param] {
		if allowed == v {
			return true
		}
	}
	if d, ok := c.Domains[param]; ok {
		return d.Contains(v)
	}
	return false
}

// AllowsEnum reports whether s appears in param's registered allow-list.
func (c *Capability) AllowsEnum(param ParamID, s string) bool {
	for _, allowed := range c.EnumParams[param] {
		if allowed == s {
			return true
		}
	}
	return false
}

// Registry is the append-only store of Capability records an operator
// builds at startup. Re-enabling an already-registered AlgorithmID fails
// with KindDuplicate; there is deliberately no remove API, which keeps
// the registration JSON deterministic.
type Registry struct {
	mu    sync.RWMutex
	caps  map[catalog.AlgorithmID]*Capability
	order []catalog.AlgorithmID
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{caps: make(map[catalog.AlgorithmID]*Capability)}
}

// Enable registers id with callback, creating an empty family-typed record.
// callback must be non-nil; re-enabling an id already present fails with
// KindDuplicate.
func (r *Registry) Enable(id catalog.AlgorithmID, callback interface{}) error {
	if callback == nil {
		return amvperrors.New("capability.Enable", amvperrors.KindInvalidArg,
			fmt.Errorf("nil callback for %s", id))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.caps[id]; exists {
		return amvperrors.New("capability.Enable", amvperrors.KindDuplicate,
			fmt.Errorf("algorithm %s already registered", id))
	}
	r.caps[id] = &Capability{
		ID:         id,
		Callback:   callback,
		IntParams:  make(map[ParamID][]int),
		EnumParams: make(map[ParamID][]string),
		Domains:    make(map[ParamID]Domain),
	}
	r.order = append(r.order, id)
	return nil
}

func (r *Registry) mustCap(id catalog.AlgorithmID) (*Capability, error) {
	entry, ok := r.caps[id]
	if !ok {
		return nil, amvperrors.New("capability", amvperrors.KindNoCap,
			fmt.Errorf("algorithm %s not registered", id))
	}
	return entry, nil
}

// SetIntParm registers an allow-listed set of integer values for param.
// Fails with KindInvalidArg if a domain was already set for the same
// (id, param) pair: setting a domain after a singleton value for the same
// parameter, or vice versa, fails.
func (r *Registry) SetIntParm(id catalog.AlgorithmID, param ParamID, values ...int) error {
	if len(values) == 0 {
		return amvperrors.New("capability.SetIntParm", amvperrors.KindInvalidArg,
			fmt.Errorf("no values given for %s/%v", id, param))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, err := r.mustCap(id)
	if err != nil {
		return err
	}
	if _, hasDomain := entry.Domains[param]; hasDomain {
		return amvperrors.New("capability.SetIntParm", amvperrors.KindInvalidArg,
			fmt.Errorf("%s/%v already has a domain registered", id, param))
	}
	entry.IntParams[param] = append(entry.IntParams[param], values...)
	return nil
}

// SetEnumParm registers an allow-listed set of enum string values for
// param (curve names, hash names, mode tokens, ...).
func (r *Registry) SetEnumParm(id catalog.AlgorithmID, param ParamID, values ...string) error {
	if len(values) == 0 {
		return amvperrors.New("capability.SetEnumParm", amvperrors.KindInvalidArg,
			fmt.Errorf("no values given for %s/%v", id, param))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, err := r.mustCap(id)
	if err != nil {
		return err
	}
	entry.EnumParams[param] = append(entry.EnumParams[param], values...)
	return nil
}

// SetDomain registers a min/max/step interval for param. Fails with
// KindInvalidArg if the domain shape is invalid, or if a singleton value
// list was already registered for the same (id, param) pair.
func (r *Registry) SetDomain(id catalog.AlgorithmID, param ParamID, min, max, step int) error {
	d := Domain{Min: min, Max: max, Step: step}
	if err := d.Validate(); err != nil {
		return amvperrors.New("capability.SetDomain", amvperrors.KindInvalidArg, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, err := r.mustCap(id)
	if err != nil {
		return err
	}
	if vals, hasInts := entry.IntParams[param]; hasInts && len(vals) > 0 {
		return amvperrors.New("capability.SetDomain", amvperrors.KindInvalidArg,
			fmt.Errorf("%s/%v already has singleton values registered", id, param))
	}
	entry.Domains[param] = d
	return nil
}

// SetPrereq registers that id depends on a separately-validated
// implementation of required, identified by value. An empty value is
// rejected with KindInvalidArg.
func (r *Registry) SetPrereq(id, required catalog.AlgorithmID, value string) error {
	if value == "" {
		return amvperrors.New("capability.SetPrereq", amvperrors.KindInvalidArg,
			fmt.Errorf("empty validation value for %s prereq %s", id, required))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, err := r.mustCap(id)
	if err != nil {
		return err
	}
	entry.Prereqs = append(entry.Prereqs, Prerequisite{RequiredAlg: required, ValidationValue: value})
	return nil
}

// Lookup returns the Capability registered for id, read-only.
func (r *Registry) Lookup(id catalog.AlgorithmID) (*Capability, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.caps[id]
	return entry, ok
}

// All returns every registered Capability in the order Enable was called,
// the order the registration serializer (pkg/registration) walks them in
// so the emitted JSON array is deterministic run to run.
func (r *Registry) All() []*Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Capability, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.caps[id])
	}
	return out
}
