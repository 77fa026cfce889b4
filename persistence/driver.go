// Package persistence defines the journaling collaborator the actor
// runtime core only ever sees through an interface (spec §6). Nothing in
// package actor depends on a concrete driver; ActorID exists purely so this
// package doesn't need to import actor.Identity to describe whose events
// it is storing.
package persistence

import (
	"context"
	"time"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/anypb"
)

// ActorID mirrors actor.Identity's layout without creating an import
// cycle back into the core.
type ActorID [16]byte

func (id ActorID) String() string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 32)
	for i, b := range id {
		buf[i*2] = hex[b>>4]
		buf[i*2+1] = hex[b&0xf]
	}
	return string(buf)
}

// Ack confirms a Persist call landed durably.
type Ack struct {
	Sequence int64
	StoredAt time.Time
}

// Event is one journaled entry. Payload is carried as a google.protobuf.Any
// so the driver never needs to know the concrete message type, and no
// on-disk format is owned by the core (spec §6) -- Any is schema carried by
// the event itself, not a format this module defines.
type Event struct {
	ActorID  ActorID
	Sequence int64
	Payload  *anypb.Any
	StoredAt time.Time
}

// EventStream replays an actor's journal in persisted order.
type EventStream <-chan Event

// Driver is the persistence collaborator interface from spec §6:
// persist(event, actorId) -> future<ack>; recover(actorId) -> stream<event>.
type Driver interface {
	Persist(ctx context.Context, actorID ActorID, event proto.Message) (Ack, error)
	Recover(ctx context.Context, actorID ActorID) (EventStream, error)
	Close() error
}
