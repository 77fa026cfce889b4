package actor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewIdentityIsUniqueAndNotNil(t *testing.T) {
	a := NewIdentity()
	b := NewIdentity()
	assert.NotEqual(t, a, b)
	assert.False(t, a.IsNil())
	assert.True(t, NilIdentity.IsNil())
}

func TestIdentityStringIsCanonicalUUIDForm(t *testing.T) {
	id := NewIdentity()
	assert.NotEmpty(t, id.String())
	assert.Len(t, id.String(), 36) // canonical UUID form
}

func TestIdentityLessIsTotalOrder(t *testing.T) {
	a := Identity{1}
	b := Identity{2}
	assert.True(t, a.Less(b))
	assert.False(t, b.Less(a))
	assert.False(t, a.Less(a))
}
