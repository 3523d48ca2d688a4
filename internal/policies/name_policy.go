package policies

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

const (
	// MaxSuffix bounds the random numeric suffix appended on a collision.
	MaxSuffix     = 9999999999
	nameMaxLength = 100
)

// NamePolicy regenerates a catalog name or id after a collision.
type NamePolicy struct {
	Rand func() int64
}

func NewNamePolicy() NamePolicy {
	return NamePolicy{Rand: func() int64 { return rand.Int64N(MaxSuffix + 1) }}
}

// WithSuffix appends "-<n>" to base, trimming base so the result stays a
// valid catalog name. An empty base becomes "dp".
func (p NamePolicy) WithSuffix(base string) string {
	base = strings.TrimSpace(base)
	if base == "" {
		base = "dp"
	}
	random := p.Rand
	if random == nil {
		random = NewNamePolicy().Rand
	}
	suffix := fmt.Sprintf("-%d", random())
	if len(base)+len(suffix) > nameMaxLength {
		base = strings.TrimRight(base[:nameMaxLength-len(suffix)], "-")
	}
	return base + suffix
}
