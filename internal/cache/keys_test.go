package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidationKey_NormalizesEmail(t *testing.T) {
	opts := map[string]bool{"check_smtp": true}

	k1 := ValidationKey("A@B.com", opts)
	k2 := ValidationKey("  a@b.com  ", opts)
	assert.Equal(t, k1, k2, "case and whitespace must not change the key")
}

func TestValidationKey_OptionOrderIndependent(t *testing.T) {
	// Go maps have no ordering, so build two maps inserted in different
	// orders and check the serialized digest matches.
	a := map[string]bool{}
	a["check_smtp"] = true
	a["check_domain"] = false
	a["check_typos"] = true

	b := map[string]bool{}
	b["check_typos"] = true
	b["check_smtp"] = true
	b["check_domain"] = false

	assert.Equal(t, ValidationKey("a@b.com", a), ValidationKey("a@b.com", b))
}

func TestValidationKey_SensitiveToOptionValues(t *testing.T) {
	k1 := ValidationKey("a@b.com", map[string]bool{"check_smtp": true})
	k2 := ValidationKey("a@b.com", map[string]bool{"check_smtp": false})
	assert.NotEqual(t, k1, k2, "distinct option sets must not collide")
}

func TestValidationKey_NoOptions(t *testing.T) {
	assert.Equal(t, "validation:a@b.com", ValidationKey("A@B.COM", nil))
	assert.Equal(t, "validation:a@b.com", ValidationKey("a@b.com", map[string]bool{}))
}

func TestDomainKeys(t *testing.T) {
	assert.Equal(t, "domain:example.com", DomainKey(" Example.COM "))
	assert.Equal(t, "mx:example.com", MXKey("EXAMPLE.com"))
	assert.Equal(t, "reputation:example.com", ReputationKey("example.com"))
	assert.Equal(t, "disposable:example.com", DisposableKey("Example.com"))
}
