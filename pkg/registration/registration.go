// Package registration serializes a capability.Registry into the
// authority's registration JSON: one object per registered capability,
// in Registry.All's deterministic enable-order, with
// singleton-valued parameters emitted as one-element arrays and domains
// emitted as {min, max, increment} objects.
package registration

import (
	"encoding/json"
	"sort"

	"github.com/abkarcher/libamvp/pkg/capability"
)

// paramKey is the JSON field name the schema uses for each ParamID. Not
// every family uses every key; a handler's capability only ever populates
// the subset relevant to its own family.
var paramKeys = map[capability.ParamID]string{
	capability.ParamKeyLen:          "keyLen",
	capability.ParamIVLen:           "ivLen",
	capability.ParamTagLen:          "tagLen",
	capability.ParamAADLen:          "aadLen",
	capability.ParamMsgLen:          "msgLen",
	capability.ParamSaltLen:         "saltLen",
	capability.ParamContextLen:      "contextLen",
	capability.ParamLLen:            "l",
	capability.ParamPtLen:           "payloadLen",
	capability.ParamModulo:          "modulo",
	capability.ParamCounterLen:      "counterLen",
	capability.ParamDirection:       "direction",
	capability.ParamMode:            "mode",
	capability.ParamHashAlg:         "hashAlg",
	capability.ParamCurve:           "curve",
	capability.ParamMacMode:         "macMode",
	capability.ParamKDFMode:         "kdfMode",
	capability.ParamCounterLocation: "counterLocation",
	capability.ParamSaltMethod:      "saltMethod",
	capability.ParamRandPQ:          "randPQ",
	capability.ParamPubExpMode:      "pubExpMode",
	capability.ParamKeyFormat:       "keyFormat",
	capability.ParamPrimeTest:       "primeTest",
	capability.ParamAuxFunction:     "auxFunction",
	capability.ParamInverse:         "inverse",
}

// domainObject is the schema's {min, max, increment} shape for a
// domain-backed parameter.
type domainObject struct {
	Min       int `json:"min"`
	Max       int `json:"max"`
	Increment int `json:"increment"`
}

// prereqObject is the schema's {algorithm, valValue} shape for one
// registered prerequisite.
type prereqObject struct {
	Algorithm string `json:"algorithm"`
	ValValue  string `json:"valValue"`
}

// Build walks every Capability in reg (in enable order) and returns the
// registration JSON array: one object per capability, carrying its
// algorithm/mode identity, every registered parameter (singleton arrays or
// domain objects), and its prerequisite list.
func Build(reg *capability.Registry) ([]byte, error) {
	caps := reg.All()
	entries := make([]map[string]interface{}, 0, len(caps))
	for _, c := range caps {
		entries = append(entries, buildEntry(c))
	}
	return json.Marshal(entries)
}

func buildEntry(c *capability.Capability) map[string]interface{} {
	algorithm, mode := c.ID.RegistrationName()
	entry := map[string]interface{}{"algorithm": algorithm}
	if mode != "" {
		entry["mode"] = mode
	}

	// Walk every possible ParamID in a stable order so the emitted JSON is
	// deterministic byte-for-byte across runs with the same registrations.
	ids := make([]capability.ParamID, 0, len(paramKeys))
	for id := range paramKeys {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, param := range ids {
		key := paramKeys[param]
		if d, ok := c.Domain(param); ok {
			entry[key] = domainObject{Min: d.Min, Max: d.Max, Increment: d.Step}
			continue
		}
		if ints := c.IntValues(param); len(ints) > 0 {
			sorted := append([]int(nil), ints...)
			sort.Ints(sorted)
			entry[key] = sorted
			continue
		}
		if enums := c.EnumValues(param); len(enums) > 0 {
			sorted := append([]string(nil), enums...)
			sort.Strings(sorted)
			entry[key] = sorted
		}
	}

	if len(c.Prereqs) > 0 {
		prereqs := make([]prereqObject, len(c.Prereqs))
		for i, p := range c.Prereqs {
			alg, _ := p.RequiredAlg.RegistrationName()
			prereqs[i] = prereqObject{Algorithm: alg, ValValue: p.ValidationValue}
		}
		entry["prereqVals"] = prereqs
	}

	return entry
}
