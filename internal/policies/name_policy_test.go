package policies

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func fixedRand(value int64) func() int64 {
	return func() int64 { return value }
}

func TestNamePolicyAppendsSuffix(t *testing.T) {
	policy := NamePolicy{Rand: fixedRand(42)}
	if diff := cmp.Diff("data_abc123-42", policy.WithSuffix("data_abc123")); diff != "" {
		t.Fatalf("unexpected name (-want +got):\n%s", diff)
	}
}

func TestNamePolicyEmptyBase(t *testing.T) {
	policy := NamePolicy{Rand: fixedRand(7)}
	assert.Equal(t, "dp-7", policy.WithSuffix("  "))
}

func TestNamePolicyKeepsNameWithinLimit(t *testing.T) {
	policy := NamePolicy{Rand: fixedRand(MaxSuffix)}
	name := policy.WithSuffix(strings.Repeat("a", 120))
	assert.LessOrEqual(t, len(name), nameMaxLength)
	assert.True(t, strings.HasSuffix(name, "-9999999999"))
}

func TestNewNamePolicyRandomWithinBounds(t *testing.T) {
	policy := NewNamePolicy()
	for i := 0; i < 100; i++ {
		value := policy.Rand()
		assert.GreaterOrEqual(t, value, int64(0))
		assert.LessOrEqual(t, value, int64(MaxSuffix))
	}
}
