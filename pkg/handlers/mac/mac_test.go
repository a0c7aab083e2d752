package mac

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"testing"

	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/vectorset"
)

// hmacSHA256 is a real HMAC-SHA256 Callback so the RFC 4231 test vector
// can be checked end to end without a fake.
type hmacSHA256 struct {
	calls int
}

func (h *hmacSHA256) Mac(alg catalog.AlgorithmID, key, msg []byte) ([]byte, error) {
	h.calls++
	m := hmac.New(sha256.New, key)
	m.Write(msg)
	return m.Sum(nil), nil
}

func newHMACCapability(t *testing.T, cb Callback) *capability.Capability {
	t.Helper()
	reg := capability.New()
	if err := reg.Enable(catalog.HMACSHA2_256, cb); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDomain(catalog.HMACSHA2_256, capability.ParamKeyLen, 8, 2048, 8); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDomain(catalog.HMACSHA2_256, capability.ParamMsgLen, 0, 65536, 8); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetIntParm(catalog.HMACSHA2_256, capability.ParamTagLen, 256); err != nil {
		t.Fatal(err)
	}
	c, _ := reg.Lookup(catalog.HMACSHA2_256)
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

// RFC 4231 test case 1: 20 bytes of 0x0b keying "Hi There".
const (
	rfc4231Key = "0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b0b"
	rfc4231Msg = "4869205468657265"
	rfc4231Mac = "b0344c61d8db38535ca8afceaf0bf12b881dc200c9833da726e9376c2e32cff7"
)

func TestHMACSHA256KnownAnswer(t *testing.T) {
	cb := &hmacSHA256{}
	c := newHMACCapability(t, cb)
	h := New()

	group := rawGroup(t, `{"keyLen":160,"msgLen":64,"macLen":256}`, vectorset.AFT, 1,
		`{"tcId":1,"key":"`+rfc4231Key+`","msg":"`+rfc4231Msg+`"}`)

	groups, err := h.Process(c, []vectorset.RawGroup{group})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	mac, _ := groups[0].Tests[0].Fields["mac"].(string)
	if len(mac) != 64 {
		t.Fatalf("mac hex length = %d, want 64", len(mac))
	}
	if mac != rfc4231Mac {
		t.Errorf("mac = %s, want %s", mac, rfc4231Mac)
	}
}

func TestMissingLengthFieldsAreFatal(t *testing.T) {
	cb := &hmacSHA256{}
	c := newHMACCapability(t, cb)
	h := New()

	for _, groupJSON := range []string{
		`{"msgLen":64,"macLen":256}`,
		`{"keyLen":160,"macLen":256}`,
		`{"keyLen":160,"msgLen":64}`,
	} {
		group := rawGroup(t, groupJSON, vectorset.AFT, 1,
			`{"tcId":1,"key":"`+rfc4231Key+`","msg":"`+rfc4231Msg+`"}`)
		if _, err := h.Process(c, []vectorset.RawGroup{group}); err == nil {
			t.Errorf("group %s: expected a missing-argument error", groupJSON)
		}
	}
	if cb.calls != 0 {
		t.Errorf("callback invoked %d times despite missing fields", cb.calls)
	}
}

func TestMacLenBeyondHashOutputRejected(t *testing.T) {
	cb := &hmacSHA256{}
	c := newHMACCapability(t, cb)
	h := New()

	group := rawGroup(t, `{"keyLen":160,"msgLen":64,"macLen":512}`, vectorset.AFT, 1,
		`{"tcId":1,"key":"`+rfc4231Key+`","msg":"`+rfc4231Msg+`"}`)

	if _, err := h.Process(c, []vectorset.RawGroup{group}); err == nil {
		t.Fatal("expected an error for macLen > hash output size")
	}
	if cb.calls != 0 {
		t.Error("callback must not run for an oversized macLen")
	}
}

func TestVALTruncatedComparison(t *testing.T) {
	cb := &hmacSHA256{}
	h := New()

	// Register a 128-bit macLen so the VAL comparison runs over the
	// truncated prefix.
	reg := capability.New()
	if err := reg.Enable(catalog.HMACSHA2_256, cb); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDomain(catalog.HMACSHA2_256, capability.ParamKeyLen, 8, 2048, 8); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetDomain(catalog.HMACSHA2_256, capability.ParamMsgLen, 0, 65536, 8); err != nil {
		t.Fatal(err)
	}
	if err := reg.SetIntParm(catalog.HMACSHA2_256, capability.ParamTagLen, 128); err != nil {
		t.Fatal(err)
	}
	c, _ := reg.Lookup(catalog.HMACSHA2_256)

	truncated := rfc4231Mac[:32]
	group := rawGroup(t, `{"keyLen":160,"msgLen":64,"macLen":128}`, vectorset.VAL, 1,
		`{"tcId":1,"key":"`+rfc4231Key+`","msg":"`+rfc4231Msg+`","mac":"`+truncated+`"}`,
		`{"tcId":2,"key":"`+rfc4231Key+`","msg":"`+rfc4231Msg+`","mac":"00000000000000000000000000000000"}`)

	groups, err := h.Process(c, []vectorset.RawGroup{group})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	if passed, _ := groups[0].Tests[0].Fields["testPassed"].(bool); !passed {
		t.Error("truncated match should pass")
	}
	if passed, _ := groups[0].Tests[1].Fields["testPassed"].(bool); passed {
		t.Error("mismatch should fail")
	}
	// VAL responses carry only the verdict.
	if _, hasMac := groups[0].Tests[0].Fields["mac"]; hasMac {
		t.Error("VAL response must not carry a mac field")
	}
}

func TestUnregisteredKeyLenRejected(t *testing.T) {
	cb := &hmacSHA256{}
	c := newHMACCapability(t, cb)
	h := New()

	longKey := make([]byte, 300)
	group := rawGroup(t, `{"keyLen":2400,"msgLen":64,"macLen":256}`, vectorset.AFT, 1,
		`{"tcId":1,"key":"`+hex.EncodeToString(longKey)+`","msg":"`+rfc4231Msg+`"}`)

	if _, err := h.Process(c, []vectorset.RawGroup{group}); err == nil {
		t.Fatal("expected an error for a keyLen outside the registered domain")
	}
}
