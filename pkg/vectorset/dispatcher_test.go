package vectorset

import (
	"encoding/json"
	"testing"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/response"
)

type stubHandler struct {
	result []response.Group
	err    error
}

func (s *stubHandler) Process(c *capability.Capability, groups []RawGroup) ([]response.Group, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func TestDispatchHappyPath(t *testing.T) {
	reg := capability.New()
	_ = reg.Enable(catalog.HMACSHA2_256, func() {})

	handlers := Registry{
		catalog.FamilyMAC: &stubHandler{result: []response.Group{
			{TgID: 1, Tests: []response.Case{{TcID: 1, Fields: map[string]interface{}{"mac": "aabb"}}}},
		}},
	}

	raw := []byte(`{"algorithm": "HMAC-SHA2-256", "testGroups": [{"tgId": 1, "testType": "AFT", "tests": [{"tcId": 1}]}]}`)
	out, err := Dispatch(reg, handlers, raw)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if parsed["algorithm"] != "HMAC-SHA2-256" {
		t.Errorf("algorithm = %v", parsed["algorithm"])
	}
}

func TestDispatchNoCapability(t *testing.T) {
	reg := capability.New()
	handlers := Registry{}
	raw := []byte(`{"algorithm": "HMAC-SHA2-256", "testGroups": []}`)
	_, err := Dispatch(reg, handlers, raw)
	if err == nil {
		t.Fatal("expected error")
	}
	if k, _ := amvperrors.KindOf(err); k != amvperrors.KindNoCap {
		t.Errorf("kind = %v, want KindNoCap", k)
	}
}

func TestDispatchNoHandlerWired(t *testing.T) {
	reg := capability.New()
	_ = reg.Enable(catalog.HMACSHA2_256, func() {})
	handlers := Registry{}
	raw := []byte(`{"algorithm": "HMAC-SHA2-256", "testGroups": []}`)
	_, err := Dispatch(reg, handlers, raw)
	if err == nil {
		t.Fatal("expected error")
	}
	if k, _ := amvperrors.KindOf(err); k != amvperrors.KindUnsupportedOp {
		t.Errorf("kind = %v, want KindUnsupportedOp", k)
	}
}

func TestDispatchHandlerError(t *testing.T) {
	reg := capability.New()
	_ = reg.Enable(catalog.HMACSHA2_256, func() {})
	handlers := Registry{
		catalog.FamilyMAC: &stubHandler{err: amvperrors.New("test", amvperrors.KindCryptoModuleFail, nil)},
	}
	raw := []byte(`{"algorithm": "HMAC-SHA2-256", "testGroups": [{"tgId": 1, "testType": "AFT", "tests": [{"tcId": 1}]}]}`)
	_, err := Dispatch(reg, handlers, raw)
	if k, _ := amvperrors.KindOf(err); k != amvperrors.KindCryptoModuleFail {
		t.Errorf("kind = %v, want KindCryptoModuleFail", k)
	}
}
