package actor

import "github.com/google/uuid"

// Identity is an opaque, process-wide unique identifier for an actor cell.
// It is a fixed-size array so it is cheap to hash and compare, and usable
// directly as a map key.
type Identity [16]byte

// NilIdentity is the zero value, used to represent an absent identity
// (e.g. a Message with no source, or a lookup miss).
var NilIdentity Identity

// NewIdentity mints a fresh, globally unique identity.
func NewIdentity() Identity {
	return Identity(uuid.New())
}

// String renders the identity in canonical UUID form.
func (id Identity) String() string {
	return uuid.UUID(id).String()
}

// IsNil reports whether id is the zero value.
func (id Identity) IsNil() bool {
	return id == NilIdentity
}

// Less provides an arbitrary-but-total order over identities, used to pick
// a deterministic member out of an alias's identity set.
func (id Identity) Less(other Identity) bool {
	for i := range id {
		if id[i] != other[i] {
			return id[i] < other[i]
		}
	}
	return false
}
