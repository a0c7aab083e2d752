package vectorset

import (
	"fmt"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/pkg/capability"
	"github.com/abkarcher/libamvp/pkg/catalog"
	"github.com/abkarcher/libamvp/pkg/response"
)

// Registry maps a catalog.Family to the Handler that processes its vector
// sets. pkg/engine builds one of these once at startup from the family
// handler packages it imports; Dispatch never constructs handlers itself.
type Registry map[catalog.Family]Handler

// Dispatch runs the full vector-set processing cycle: parse raw into an
// AlgorithmID and validated groups, look up the matching Capability,
// resolve its family's Handler, run it, and assemble the final response
// envelope. Any error aborts the whole set; no partial response is
// returned.
func Dispatch(reg *capability.Registry, handlers Registry, raw []byte) ([]byte, error) {
	id, mode, groups, err := Parse(raw)
	if err != nil {
		return nil, err
	}

	c, ok := reg.Lookup(id)
	if !ok {
		return nil, amvperrors.New("vectorset.Dispatch", amvperrors.KindNoCap,
			fmt.Errorf("algorithm %s has no registered capability", id))
	}

	family := catalog.FamilyOf(id)
	handler, ok := handlers[family]
	if !ok {
		return nil, amvperrors.New("vectorset.Dispatch", amvperrors.KindUnsupportedOp,
			fmt.Errorf("no handler wired for family of %s", id))
	}

	respGroups, err := handler.Process(c, groups)
	if err != nil {
		return nil, err
	}

	algorithm, _ := id.RegistrationName()
	return response.Assemble(algorithm, mode, respGroups)
}
