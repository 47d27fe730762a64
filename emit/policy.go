package emit

import (
	"fmt"
	"strings"
)

// MissingDataPolicy decides what happens to an entity with incomplete attributes.
type MissingDataPolicy string

const (
	// MissingOmit emits the entity and leaves out what cannot be built.
	MissingOmit MissingDataPolicy = "omit"

	// MissingSkip drops the whole entity.
	MissingSkip MissingDataPolicy = "skip"

	// MissingFail stops the conversion.
	MissingFail MissingDataPolicy = "fail"
)

// ParseMissingDataPolicy resolves a policy name; "" means omit.
func ParseMissingDataPolicy(s string) (MissingDataPolicy, error) {
	switch p := MissingDataPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return MissingOmit, nil
	case MissingOmit, MissingSkip, MissingFail:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported missing data policy: %s (valid: omit, skip, fail)", s)
	}
}

// DanglingRefPolicy decides what happens to an edge whose endpoint was not emitted.
type DanglingRefPolicy string

const (
	// DanglingAllow emits the edge and its node references anyway.
	DanglingAllow DanglingRefPolicy = "allow"

	// DanglingSkip drops the edge.
	DanglingSkip DanglingRefPolicy = "skip"

	// DanglingFail stops the conversion.
	DanglingFail DanglingRefPolicy = "fail"
)

// ParseDanglingRefPolicy resolves a policy name; "" means allow.
func ParseDanglingRefPolicy(s string) (DanglingRefPolicy, error) {
	switch p := DanglingRefPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DanglingAllow, nil
	case DanglingAllow, DanglingSkip, DanglingFail:
		return p, nil
	default:
		return "", fmt.Errorf("unsupported dangling reference policy: %s (valid: allow, skip, fail)", s)
	}
}
