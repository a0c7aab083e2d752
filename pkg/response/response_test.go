package response

import (
	"encoding/json"
	"testing"
)

func TestCaseMarshalJSON(t *testing.T) {
	c := Case{TcID: 7, Fields: map[string]interface{}{"mac": "deadbeef"}}
	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var parsed map[string]interface{}
	_ = json.Unmarshal(out, &parsed)
	if parsed["tcId"].(float64) != 7 || parsed["mac"] != "deadbeef" {
		t.Errorf("unexpected output: %s", out)
	}
}

func TestAssembleOrderAndShape(t *testing.T) {
	groups := []Group{
		{TgID: 1, Tests: []Case{{TcID: 1, Fields: map[string]interface{}{"testPassed": true}}}},
		{TgID: 2, Tests: []Case{{TcID: 2, Fields: map[string]interface{}{"ct": "aabb"}}}},
	}
	out, err := Assemble("ACVP-AES-GCM", "", groups)
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}

	var env struct {
		Algorithm  string `json:"algorithm"`
		TestGroups []struct {
			TgID  int `json:"tgId"`
			Tests []struct {
				TcID int `json:"tcId"`
			} `json:"tests"`
		} `json:"testGroups"`
	}
	if err := json.Unmarshal(out, &env); err != nil {
		t.Fatalf("output not valid JSON: %v", err)
	}
	if env.Algorithm != "ACVP-AES-GCM" {
		t.Errorf("algorithm = %q", env.Algorithm)
	}
	if len(env.TestGroups) != 2 || env.TestGroups[0].TgID != 1 || env.TestGroups[1].TgID != 2 {
		t.Fatalf("unexpected group order: %+v", env.TestGroups)
	}
}

func TestAssembleEmptyGroups(t *testing.T) {
	out, err := Assemble("HMAC-SHA2-256", "", []Group{})
	if err != nil {
		t.Fatalf("Assemble: %v", err)
	}
	var env map[string]interface{}
	_ = json.Unmarshal(out, &env)
	if _, ok := env["mode"]; ok {
		t.Error("expected empty mode to be omitted")
	}
}
