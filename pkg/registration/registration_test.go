package registration

import (
	"encoding/json"
	"testing"

	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
)

func TestBuildSingletonAndDomain(t *testing.T) {
	reg := capability.New()
	if err := reg.Enable(catalog.AESGCM, func() {}); err != nil {
		t.Fatal(err)
	}
	_ = reg.SetIntParm(catalog.AESGCM, capability.ParamKeyLen, 256, 128)
	_ = reg.SetDomain(catalog.AESGCM, capability.ParamAADLen, 0, 1024, 8)
	_ = reg.SetPrereq(catalog.AESGCM, catalog.AESECB, "1234")

	out, err := Build(reg)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	var parsed []map[string]interface{}
	if err := json.Unmarshal(out, &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed) != 1 {
		t.Fatalf("got %d entries, want 1", len(parsed))
	}
	entry := parsed[0]
	if entry["algorithm"] != "ACVP-AES-GCM" {
		t.Errorf("algorithm = %v, want ACVP-AES-GCM", entry["algorithm"])
	}
	keyLen, ok := entry["keyLen"].([]interface{})
	if !ok || len(keyLen) != 2 {
		t.Fatalf("keyLen = %v, want a 2-element array", entry["keyLen"])
	}
	if keyLen[0].(float64) != 128 || keyLen[1].(float64) != 256 {
		t.Errorf("keyLen = %v, want sorted [128, 256]", keyLen)
	}
	aadLen, ok := entry["aadLen"].(map[string]interface{})
	if !ok {
		t.Fatalf("aadLen = %v, want a domain object", entry["aadLen"])
	}
	if aadLen["min"].(float64) != 0 || aadLen["max"].(float64) != 1024 || aadLen["increment"].(float64) != 8 {
		t.Errorf("aadLen domain = %v", aadLen)
	}
	prereqs, ok := entry["prereqVals"].([]interface{})
	if !ok || len(prereqs) != 1 {
		t.Fatalf("prereqVals = %v, want a 1-element array", entry["prereqVals"])
	}
}

func TestBuildModeDisambiguatedAlgorithm(t *testing.T) {
	reg := capability.New()
	_ = reg.Enable(catalog.AESCBCCS1, func() {})

	out, _ := Build(reg)
	var parsed []map[string]interface{}
	_ = json.Unmarshal(out, &parsed)
	if parsed[0]["algorithm"] != "ACVP-AES-CBC-CS1" || parsed[0]["mode"] != "CS1" {
		t.Errorf("unexpected entry: %v", parsed[0])
	}
}

func TestBuildPreservesEnableOrder(t *testing.T) {
	reg := capability.New()
	_ = reg.Enable(catalog.HMACSHA2_256, func() {})
	_ = reg.Enable(catalog.AESGCM, func() {})

	out, _ := Build(reg)
	var parsed []map[string]interface{}
	_ = json.Unmarshal(out, &parsed)
	if parsed[0]["algorithm"] != "HMAC-SHA2-256" || parsed[1]["algorithm"] != "ACVP-AES-GCM" {
		t.Errorf("unexpected order: %v, %v", parsed[0]["algorithm"], parsed[1]["algorithm"])
	}
}
