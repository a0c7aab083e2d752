// Package vectorset implements the vector-set document model and
// dispatcher: it resolves an incoming vector set's `algorithm`/`mode`
// pair to an AlgorithmID, finds its registered Capability, validates the
// structural wrapper fields every family shares (`tgId`, `tcId`), and
// hands the parsed groups to exactly one family handler.
package vectorset

import (
	"encoding/json"
	"fmt"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/internal/constants"
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/response"
)

// TestType is the closed set of ACVP test-case shapes.
type TestType string

const (
	AFT TestType = "AFT"
	VAL TestType = "VAL"
	MCT TestType = "MCT"
	GDT TestType = "GDT"
	KAT TestType = "KAT"
)

// RawTest is one test case, split into its common tcId and the raw JSON a
// family handler re-unmarshals for its own fields.
type RawTest struct {
	TcID int
	Raw  json.RawMessage
}

// RawGroup is one test group, split into its common tgId/testType and the
// raw JSON of both the group object and each of its test cases.
type RawGroup struct {
	TgID     int
	TestType TestType
	Raw      json.RawMessage
	Tests    []RawTest
}

// envelope mirrors the incoming vector-set document's wrapper fields.
// Algorithm and TestGroups are required; Mode and Revision are optional
// (Revision is accepted but never interpreted by the core).
type envelope struct {
	Algorithm  string            `json:"algorithm"`
	Mode       string            `json:"mode"`
	Revision   string            `json:"revision"`
	TestGroups []json.RawMessage `json:"testGroups"`
}

type groupHeader struct {
	TgID     int              `json:"tgId"`
	TestType TestType         `json:"testType"`
	Tests    []json.RawMessage `json:"tests"`
}

type testHeader struct {
	TcID int `json:"tcId"`
}

// Handler processes every test group of one vector set for one registered
// capability and returns the ordered response groups. A family package
// (pkg/handlers/...) implements exactly one Handler and type-asserts
// c.Callback to its own Callback interface.
type Handler interface {
	Process(c *capability.Capability, groups []RawGroup) ([]response.Group, error)
}

// Parse decodes raw into an AlgorithmID plus the validated, typed group/test
// headers every family handler is guaranteed to receive. It enforces the
// structural invariants common to every family: `algorithm` must resolve,
// every group must carry a positive `tgId`, and every test case a positive
// `tcId`.
func Parse(raw []byte) (catalog.AlgorithmID, string, []RawGroup, error) {
	if len(raw) > constants.MaxVectorSetBytes {
		return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON,
			fmt.Errorf("vector set of %d bytes exceeds limit of %d", len(raw), constants.MaxVectorSetBytes))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON, err)
	}
	if env.Algorithm == "" {
		return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON,
			fmt.Errorf("missing required field \"algorithm\""))
	}
	if env.TestGroups == nil {
		return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON,
			fmt.Errorf("missing required field \"testGroups\""))
	}
	if len(env.TestGroups) > constants.MaxTestGroupsPerVectorSet {
		return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON,
			fmt.Errorf("%d testGroups exceeds limit of %d", len(env.TestGroups), constants.MaxTestGroupsPerVectorSet))
	}

	id, err := catalog.ParseAlgorithmID(env.Algorithm, env.Mode)
	if err != nil {
		return catalog.Unknown, "", nil, err
	}

	groups := make([]RawGroup, 0, len(env.TestGroups))
	for _, rawGroup := range env.TestGroups {
		var hdr groupHeader
		if err := json.Unmarshal(rawGroup, &hdr); err != nil {
			return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON, err)
		}
		if hdr.TgID <= 0 {
			return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON,
				fmt.Errorf("missing or non-positive \"tgId\""))
		}
		if hdr.Tests == nil {
			return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON,
				fmt.Errorf("group %d missing required field \"tests\"", hdr.TgID))
		}

		tests := make([]RawTest, 0, len(hdr.Tests))
		for _, rawTest := range hdr.Tests {
			var tHdr testHeader
			if err := json.Unmarshal(rawTest, &tHdr); err != nil {
				return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON, err)
			}
			if tHdr.TcID <= 0 {
				return catalog.Unknown, "", nil, amvperrors.New("vectorset.Parse", amvperrors.KindMalformedJSON,
					fmt.Errorf("group %d: missing or non-positive \"tcId\"", hdr.TgID))
			}
			tests = append(tests, RawTest{TcID: tHdr.TcID, Raw: rawTest})
		}

		groups = append(groups, RawGroup{TgID: hdr.TgID, TestType: hdr.TestType, Raw: rawGroup, Tests: tests})
	}

	return id, env.Mode, groups, nil
}
