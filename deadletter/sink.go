// Package deadletter defines the dead-letter collaborator a System hands
// every message whose destination has no registered cell (spec §4.4's
// DeliveryFailure policy). ActorMessage is a dependency-free mirror of
// actor.Message so this package never imports the core.
package deadletter

import "log"

// ActorMessage mirrors the fields of actor.Message that matter to a
// dead-letter sink, without importing package actor.
type ActorMessage struct {
	Value       any
	Tag         int32
	Source      [16]byte
	Dest        [16]byte
	Interaction [16]byte
	Protocol    string
	Domain      string
}

// Sink receives messages that could not be delivered.
type Sink interface {
	Offer(msg ActorMessage)
}

// LogSink is the spec's default: log and drop.
type LogSink struct{}

func (LogSink) Offer(msg ActorMessage) {
	log.Printf("deadletter: dropped message tag=%d dest=%x protocol=%q domain=%q", msg.Tag, msg.Dest, msg.Protocol, msg.Domain)
}
