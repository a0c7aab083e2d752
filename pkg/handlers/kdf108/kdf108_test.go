package kdf108

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// fillKDF is a fake Callback returning KeyOutBits/8 bytes of a fixed fill
// plus a canned fixedData.
type fillKDF struct {
	calls      int
	lastParams *Params
}

func (f *fillKDF) Derive(p *Params) (*Result, error) {
	f.calls++
	f.lastParams = p
	out := make([]byte, p.KeyOutBits/8)
	for i := range out {
		out[i] = 0x77
	}
	return &Result{KeyOut: out, FixedData: []byte{0xde, 0xad}, BreakLocation: 8}, nil
}

func newKDF108Capability(t *testing.T, cb Callback) *capability.Capability {
	t.Helper()
	reg := capability.New()
	if err := reg.Enable(catalog.KDF108, cb); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetEnumParm(catalog.KDF108, capability.ParamKDFMode, "counter", "feedback"); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetEnumParm(catalog.KDF108, capability.ParamMacMode, "HMAC-SHA2-256", "CMAC-AES"); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetIntParm(catalog.KDF108, capability.ParamCounterLen, 8, 16, 32); err != nil {
		t.Fatal(err)
	}
	c, _ := reg.Lookup(catalog.KDF108)
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

func TestCounterModeAFT(t *testing.T) {
	cb := &fillKDF{}
	c := newKDF108Capability(t, cb)
	h := New()

	group := rawGroup(t, `{"kdfMode":"counter","macMode":"HMAC-SHA2-256","counterLocation":"before fixed data","counterLength":8,"keyOutLength":256}`,
		vectorset.AFT, 1,
		`{"tcId":1,"keyIn":"00112233445566778899aabbccddeeff"}`)

	groups, err := h.Process(c, []vectorset.RawGroup{group})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	fields := groups[0].Tests[0].Fields
	if keyOut, _ := fields["keyOut"].(string); len(keyOut) != 64 {
		t.Errorf("keyOut hex length = %d, want 64", len(keyOut))
	}
	if fixedData, _ := fields["fixedData"].(string); fixedData != "dead" {
		t.Errorf("fixedData = %q, want dead", fixedData)
	}
	if _, hasBreak := fields["breakLocation"]; hasBreak {
		t.Error("breakLocation only applies to middle fixed data")
	}
	if cb.lastParams.Mode != catalog.KDF108Counter {
		t.Errorf("mode = %v, want counter", cb.lastParams.Mode)
	}
}

func TestMiddleFixedDataEmitsBreakLocation(t *testing.T) {
	cb := &fillKDF{}
	c := newKDF108Capability(t, cb)
	h := New()

	group := rawGroup(t, `{"kdfMode":"counter","macMode":"HMAC-SHA2-256","counterLocation":"middle fixed data","counterLength":8,"keyOutLength":128}`,
		vectorset.AFT, 1,
		`{"tcId":1,"keyIn":"00112233445566778899aabbccddeeff"}`)

	groups, err := h.Process(c, []vectorset.RawGroup{group})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if loc, _ := groups[0].Tests[0].Fields["breakLocation"].(int); loc != 8 {
		t.Errorf("breakLocation = %v, want 8", groups[0].Tests[0].Fields["breakLocation"])
	}
}

func TestVALComparesKeyOut(t *testing.T) {
	cb := &fillKDF{}
	c := newKDF108Capability(t, cb)
	h := New()

	group := rawGroup(t, `{"kdfMode":"feedback","macMode":"CMAC-AES","keyOutLength":128}`,
		vectorset.VAL, 1,
		`{"tcId":1,"keyIn":"0011","keyOut":"`+strings.Repeat("77", 16)+`"}`,
		`{"tcId":2,"keyIn":"0011","keyOut":"`+strings.Repeat("00", 16)+`"}`)

	groups, err := h.Process(c, []vectorset.RawGroup{group})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if passed, _ := groups[0].Tests[0].Fields["testPassed"].(bool); !passed {
		t.Error("matching keyOut should pass")
	}
	if passed, _ := groups[0].Tests[1].Fields["testPassed"].(bool); passed {
		t.Error("mismatched keyOut should fail")
	}
}

func TestUnregisteredModeRejected(t *testing.T) {
	cb := &fillKDF{}
	c := newKDF108Capability(t, cb)
	h := New()

	group := rawGroup(t, `{"kdfMode":"double pipeline iteration","macMode":"HMAC-SHA2-256","keyOutLength":128}`,
		vectorset.AFT, 1, `{"tcId":1,"keyIn":"0011"}`)

	if _, err := h.Process(c, []vectorset.RawGroup{group}); err == nil {
		t.Fatal("expected an error for an unregistered kdfMode")
	}
	if cb.calls != 0 {
		t.Error("callback must not run for an unregistered mode")
	}
}

func TestEmptyIVRule(t *testing.T) {
	cb := &fillKDF{}
	c := newKDF108Capability(t, cb)
	h := New()

	group := rawGroup(t, `{"kdfMode":"feedback","macMode":"HMAC-SHA2-256","keyOutLength":128,"requiresEmptyIv":true}`,
		vectorset.AFT, 1,
		`{"tcId":1,"keyIn":"0011","iv":"00000000"}`)

	if _, err := h.Process(c, []vectorset.RawGroup{group}); err == nil {
		t.Fatal("expected an error: iv given but requiresEmptyIv set")
	}
}

func TestMissingKeyInRejected(t *testing.T) {
	cb := &fillKDF{}
	c := newKDF108Capability(t, cb)
	h := New()

	group := rawGroup(t, `{"kdfMode":"feedback","macMode":"HMAC-SHA2-256","keyOutLength":128}`,
		vectorset.AFT, 1, `{"tcId":1}`)

	if _, err := h.Process(c, []vectorset.RawGroup{group}); err == nil {
		t.Fatal("expected an error for a missing keyIn")
	}
}
