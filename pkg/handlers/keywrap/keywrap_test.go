package keywrap

import (
	"encoding/json"
	"testing"

	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// prefixWrap is a fake Callback: wrapping prepends the key's first byte,
// unwrapping checks and strips it. An unwrap whose first byte mismatches
// reports valid=false, mimicking an integrity-check failure.
type prefixWrap struct {
	wrapCalls   int
	unwrapCalls int
	sawInverse  bool
}

func (p *prefixWrap) Wrap(alg catalog.AlgorithmID, key, pt []byte, inverse bool) ([]byte, error) {
	p.wrapCalls++
	p.sawInverse = inverse
	return append([]byte{key[0]}, pt...), nil
}

func (p *prefixWrap) Unwrap(alg catalog.AlgorithmID, key, ct []byte, inverse bool) ([]byte, bool, error) {
	p.unwrapCalls++
	p.sawInverse = inverse
	if len(ct) == 0 || ct[0] != key[0] {
		return nil, false, nil
	}
	return append([]byte(nil), ct[1:]...), true, nil
}

func newKWCapability(t *testing.T, cb Callback, inverse bool) *capability.Capability {
	t.Helper()
	reg := capability.New()
	if err := reg.Enable(catalog.AESKW, cb); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetIntParm(catalog.AESKW, capability.ParamKeyLen, 128, 256); err != nil {
		t.Fatal(err)
	}
	if inverse {
		if err := reg.SetEnumParm(catalog.AESKW, capability.ParamInverse, "inverse"); err != nil {
			t.Fatal(err)
		}
	}
	c, _ := reg.Lookup(catalog.AESKW)
	return c
}

func rawGroup(t *testing.T, groupJSON string, testType vectorset.TestType, tgID int, tests ...string) vectorset.RawGroup {
	t.Helper()
	rawTests := make([]vectorset.RawTest, len(tests))
	for i, tj := range tests {
		var hdr struct {
			TcID int `json:"tcId"`
		}
		if err := json.Unmarshal([]byte(tj), &hdr); err != nil {
			t.Fatal(err)
		}
		rawTests[i] = vectorset.RawTest{TcID: hdr.TcID, Raw: json.RawMessage(tj)}
	}
	return vectorset.RawGroup{TgID: tgID, TestType: testType, Raw: json.RawMessage(groupJSON), Tests: rawTests}
}

func TestWrapAFT(t *testing.T) {
	cb := &prefixWrap{}
	c := newKWCapability(t, cb, false)
	h := New()

	group := rawGroup(t, `{"direction":"encrypt","keyLen":128}`, vectorset.AFT, 1,
		`{"tcId":1,"key":"00112233445566778899aabbccddeeff","pt":"cafebabe"}`)

	groups, err := h.Process(c, []vectorset.RawGroup{group})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	ct, _ := groups[0].Tests[0].Fields["ct"].(string)
	if ct != "00cafebabe" {
		t.Errorf("ct = %q, want 00cafebabe", ct)
	}
	if cb.sawInverse {
		t.Error("inverse flag set without kwCipher=inverse")
	}
}

func TestUnwrapFailureIsAnOutcome(t *testing.T) {
	cb := &prefixWrap{}
	c := newKWCapability(t, cb, false)
	h := New()

	// First ciphertext byte ff does not match the key's leading 00, so the
	// fake's integrity check fails; the set must still complete.
	group := rawGroup(t, `{"direction":"decrypt","keyLen":128}`, vectorset.AFT, 1,
		`{"tcId":2,"key":"00112233445566778899aabbccddeeff","ct":"ffcafebabe"}`,
		`{"tcId":3,"key":"00112233445566778899aabbccddeeff","ct":"00cafebabe"}`)

	groups, err := h.Process(c, []vectorset.RawGroup{group})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if len(groups[0].Tests) != 2 {
		t.Fatalf("got %d cases, want 2", len(groups[0].Tests))
	}
	if passed, _ := groups[0].Tests[0].Fields["testPassed"].(bool); passed {
		t.Error("corrupted wrap should report testPassed=false")
	}
	if passed, _ := groups[0].Tests[1].Fields["testPassed"].(bool); !passed {
		t.Error("intact wrap should report testPassed=true")
	}
	if pt, _ := groups[0].Tests[1].Fields["pt"].(string); pt != "cafebabe" {
		t.Errorf("pt = %q, want cafebabe", pt)
	}
}

func TestInverseCipherRequiresRegistration(t *testing.T) {
	cb := &prefixWrap{}
	h := New()

	group := rawGroup(t, `{"direction":"encrypt","keyLen":128,"kwCipher":"inverse"}`, vectorset.AFT, 1,
		`{"tcId":1,"key":"00112233445566778899aabbccddeeff","pt":"cafebabe"}`)

	if _, err := h.Process(newKWCapability(t, cb, false), []vectorset.RawGroup{group}); err == nil {
		t.Fatal("expected an error when inverse is not registered")
	}

	groups, err := h.Process(newKWCapability(t, cb, true), []vectorset.RawGroup{group})
	if err != nil {
		t.Fatalf("Process with inverse registered: %v", err)
	}
	if !cb.sawInverse {
		t.Error("inverse flag not passed to callback")
	}
	if len(groups[0].Tests) != 1 {
		t.Fatalf("got %d cases, want 1", len(groups[0].Tests))
	}
}

func TestWrapVALCompares(t *testing.T) {
	cb := &prefixWrap{}
	c := newKWCapability(t, cb, false)
	h := New()

	group := rawGroup(t, `{"direction":"encrypt","keyLen":128}`, vectorset.VAL, 1,
		`{"tcId":7,"key":"00112233445566778899aabbccddeeff","pt":"cafebabe","ct":"00cafebabe"}`,
		`{"tcId":8,"key":"00112233445566778899aabbccddeeff","pt":"cafebabe","ct":"99cafebabe"}`)

	groups, err := h.Process(c, []vectorset.RawGroup{group})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if passed, _ := groups[0].Tests[0].Fields["testPassed"].(bool); !passed {
		t.Error("matching ct should pass")
	}
	if passed, _ := groups[0].Tests[1].Fields["testPassed"].(bool); passed {
		t.Error("mismatched ct should fail")
	}
}
