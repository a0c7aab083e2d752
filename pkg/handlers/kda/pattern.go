package kda

import (
	"fmt"
	"strings"

	amvperrors "github.com/abkarcher/libamvp/internal/errors"
	"github.com/abkarcher/libamvp/pkg/codec"
)

// PatternToken is one element kind of a fixedInfoPattern. The ordered
// token sequence drives how the operator callback concatenates the KDF's
// fixedInfo for each derivation.
type PatternToken int

const (
	PatternNone PatternToken = iota
	PatternUPartyInfo
	PatternVPartyInfo
	PatternContext
	PatternAlgorithmID
	PatternLabel
	PatternL
	PatternT
	PatternLiteral
)

func (t PatternToken) String() string {
	switch t {
	case PatternUPartyInfo:
		return "uPartyInfo"
	case PatternVPartyInfo:
		return "vPartyInfo"
	case PatternContext:
		return "context"
	case PatternAlgorithmID:
		return "algorithmId"
	case PatternLabel:
		return "label"
	case PatternL:
		return "l"
	case PatternT:
		return "t"
	case PatternLiteral:
		return "literal"
	default:
		return "none"
	}
}

// PatternElement is one parsed element: the token kind plus, for literal
// tokens, the decoded bracket payload.
type PatternElement struct {
	Token   PatternToken
	Literal []byte
}

// maxLiteralBytes bounds a literal[...] token's decoded payload.
const maxLiteralBytes = 64

const literalPrefix = "literal["

// ParsePattern tokenizes a fixedInfoPattern string such as
// "uPartyInfo||vPartyInfo||literal[0a0b]||label" into its ordered element
// list. Unknown tokens fail the parse, as does a pattern missing either
// party-info token.
func ParsePattern(s string) ([]PatternElement, error) {
	if s == "" {
		return nil, amvperrors.New("kda.ParsePattern", amvperrors.KindMissingArg,
			fmt.Errorf("empty fixedInfoPattern"))
	}

	parts := strings.Split(s, "||")
	elems := make([]PatternElement, 0, len(parts))
	var sawU, sawV bool
	for _, part := range parts {
		switch part {
		case "uPartyInfo":
			sawU = true
			elems = append(elems, PatternElement{Token: PatternUPartyInfo})
		case "vPartyInfo":
			sawV = true
			elems = append(elems, PatternElement{Token: PatternVPartyInfo})
		case "context":
			elems = append(elems, PatternElement{Token: PatternContext})
		case "algorithmId":
			elems = append(elems, PatternElement{Token: PatternAlgorithmID})
		case "label":
			elems = append(elems, PatternElement{Token: PatternLabel})
		case "l":
			elems = append(elems, PatternElement{Token: PatternL})
		case "t":
			elems = append(elems, PatternElement{Token: PatternT})
		default:
			if !strings.HasPrefix(part, literalPrefix) || !strings.HasSuffix(part, "]") {
				return nil, amvperrors.New("kda.ParsePattern", amvperrors.KindInvalidArg,
					fmt.Errorf("unknown pattern token %q", part))
			}
			payload, err := codec.HexToBytes(part[len(literalPrefix):len(part)-1], maxLiteralBytes)
			if err != nil {
				return nil, err
			}
			if len(payload) == 0 {
				return nil, amvperrors.New("kda.ParsePattern", amvperrors.KindInvalidArg,
					fmt.Errorf("empty literal payload in %q", part))
			}
			elems = append(elems, PatternElement{Token: PatternLiteral, Literal: payload})
		}
	}

	if !sawU || !sawV {
		return nil, amvperrors.New("kda.ParsePattern", amvperrors.KindInvalidArg,
			fmt.Errorf("fixedInfoPattern must include both uPartyInfo and vPartyInfo"))
	}
	return elems, nil
}
