// Package response implements the response assembler: it aggregates the
// per-test-case payloads a family handler produces into the
// `{algorithm, mode, testGroups: [{tgId, tests: [{tcId, ...}]}]}` envelope
// the authority expects, preserving input order exactly.
package response

import "encoding/json"

// Case is one test case's response payload. Fields holds every key the
// handler wants to emit besides TcID (produced bytes as hex, or a single
// "testPassed" boolean for VAL test types, whose response carries
// {tcId, testPassed} and no other output payload).
type Case struct {
	TcID   int
	Fields map[string]interface{}
}

// MarshalJSON flattens TcID and Fields into one JSON object, matching the
// schema's `{"tcId": N, ...}` shape rather than a nested "fields" key.
func (c Case) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Fields)+1)
	for k, v := range c.Fields {
		out[k] = v
	}
	out["tcId"] = c.TcID
	return json.Marshal(out)
}

// Group is one test group's response: its tgId and the ordered list of its
// cases' outputs. A Group whose corresponding input group failed entirely
// is never constructed; its response is simply not appended.
type Group struct {
	TgID  int    `json:"tgId"`
	Tests []Case `json:"tests"`
}

// Envelope is the top-level response document for one vector set.
type Envelope struct {
	Algorithm  string  `json:"algorithm"`
	Mode       string  `json:"mode,omitempty"`
	TestGroups []Group `json:"testGroups"`
}

// Assemble builds the final response JSON for one vector set. groups must
// already be in the order the input vector set's testGroups array was
// processed; response order mirrors input order deterministically.
func Assemble(algorithm, mode string, groups []Group) ([]byte, error) {
	env := Envelope{Algorithm: algorithm, Mode: mode, TestGroups: groups}
	return json.Marshal(env)
}
