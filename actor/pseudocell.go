package actor

import (
	"sync"
	"time"
)

// pseudoCell is a transient, single-use recipient for a synchronous
// request/reply round trip (spec §4's Ask pattern), modeled the same way
// the teacher's Actor.Ask built a buffered reply channel -- except here the
// "actor" side of the round trip is a full asynchronous send through the
// dispatcher rather than a direct channel handoff, since the real
// destination is an ordinary cell running on its own worker.
type pseudoCell struct {
	id       Identity
	resultCh chan Message
	once     sync.Once
}

func (p *pseudoCell) deliver(msg Message) {
	p.once.Do(func() { p.resultCh <- msg })
}

// Ask sends value to dest and blocks the calling goroutine (not any cell's
// worker) until a reply arrives or timeout elapses. The request's Source is
// the pseudo-cell's own throwaway identity, so the responder's reply must be
// addressed to that Source to be received; callers that want to correlate
// requests should set Interaction on the message they expect back.
//
// Unlike the fire-and-forget Send, Ask has a caller waiting on the result,
// so an undeliverable destination is reported immediately instead of only
// after the full timeout elapses.
func (s *System) Ask(dest Identity, value any, tag Tag, timeout time.Duration) (Message, error) {
	c := s.registry.lookup(dest)
	if c == nil && s.registry.lookupPseudo(dest) == nil {
		return Message{}, ErrUnknownDest
	}
	if c != nil && c.lifecycleState() == StateStopped {
		return Message{}, ErrActorStopped
	}

	p := &pseudoCell{id: NewIdentity(), resultCh: make(chan Message, 1)}
	s.registry.registerPseudo(p)
	defer s.registry.unregisterPseudo(p.id)

	s.send(Message{Value: value, Tag: tag, Source: p.id, Dest: dest})

	select {
	case msg := <-p.resultCh:
		return msg, nil
	case <-time.After(timeout):
		return Message{}, ErrAskTimeout
	}
}

// AskViaAlias resolves alias to an identity and performs an Ask against it,
// returning ErrUnknownAlias immediately if the alias is not bound.
func (s *System) AskViaAlias(alias string, value any, tag Tag, timeout time.Duration) (Message, error) {
	id, ok := s.registry.lookupByAlias(alias)
	if !ok {
		return Message{}, ErrUnknownAlias
	}
	return s.Ask(id, value, tag, timeout)
}
