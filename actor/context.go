package actor

import (
	"context"
	"time"

	"google.golang.org/protobuf/proto"

	"github.com/phuhao00/actorcore/persistence"
)

// Context is the façade a user Receive function uses to interact with its
// own cell and the rest of the system. Exactly one Context exists per
// cell and is reused across messages -- it is only ever touched from the
// cell's own worker, so no synchronization is needed inside it.
type Context interface {
	// Self returns this cell's identity.
	Self() Identity
	// Parent returns this cell's parent identity (NilIdentity for the
	// system root).
	Parent() Identity
	// Message returns the message currently being processed.
	Message() Message

	// Send addresses a fresh message to dest, sourced from Self().
	Send(dest Identity, value any, tag Tag)
	// SendMessage sends msg as-is, sourced from Self() if Source is unset.
	SendMessage(msg Message)
	// SendViaAlias resolves alias to an identity and sends; delivered to
	// the dead-letter sink if the alias is unbound.
	SendViaAlias(alias string, value any, tag Tag)
	// Priority enqueues msg in the destination's priority lane.
	Priority(msg Message)
	// Forward re-sends msg to dest, preserving the original Source.
	Forward(msg Message, dest Identity)

	// Become swaps (replace=true) or pushes (replace=false) the active
	// reception function.
	Become(r Receive, replace bool)
	// Unbecome pops the top reception function, revealing the prior one.
	Unbecome()
	// UnbecomeAll collapses the behavior stack back to the original.
	UnbecomeAll()

	// Await becomes a behavior that routes only messages matching filter
	// to action, buffering everything else until it resolves; action is
	// called with timedOut=true if timeout elapses first (timeout<=0
	// disables the timer).
	Await(filter func(Message) bool, action func(msg Message, timedOut bool), timeout time.Duration)

	// StashPush and StashPopOne are the actor's own, explicitly-managed
	// stash -- never touched by the dispatcher or by Await.
	StashPush(msg Message)
	StashPopOne() (Message, bool)

	// AddChild registers a single child under this cell.
	AddChild(factory Factory, opts ...ChildOption) (Identity, error)
	// AddChildren registers instances children under this cell, all built
	// from the same factory and options.
	AddChildren(factory Factory, instances int, opts ...ChildOption) ([]Identity, error)

	// Watch subscribes to dest's termination; Unwatch cancels it.
	Watch(dest Identity)
	Unwatch(dest Identity)

	// Stop begins stopping this cell. StopChild begins stopping dest.
	Stop()
	StopChild(dest Identity)

	// Persist/Recover forward to the persistence.Driver configured for
	// this cell at spawn time (WithPersistence), or ErrNoPersistenceDriver
	// if none was configured.
	Persist(ctx context.Context, event proto.Message) (persistence.Ack, error)
	Recover(ctx context.Context) (persistence.EventStream, error)

	// System returns the owning System handle.
	System() *System
}

// cellContext is the sole Context implementation, one per cell, reused
// across every message that cell processes.
type cellContext struct {
	cell *cell
	msg  Message
}

func (c *cellContext) Self() Identity   { return c.cell.id }
func (c *cellContext) Parent() Identity { return c.cell.parent }
func (c *cellContext) Message() Message { return c.msg }

func (c *cellContext) Send(dest Identity, value any, tag Tag) {
	c.cell.send(Message{Value: value, Tag: tag, Dest: dest})
}

func (c *cellContext) SendMessage(msg Message) {
	c.cell.send(msg)
}

func (c *cellContext) SendViaAlias(alias string, value any, tag Tag) {
	c.cell.sendViaAlias(Message{Value: value, Tag: tag}, alias)
}

func (c *cellContext) Priority(msg Message) {
	c.cell.priority(msg)
}

func (c *cellContext) Forward(msg Message, dest Identity) {
	c.cell.forward(msg, dest)
}

func (c *cellContext) Become(r Receive, replace bool) { c.cell.behaviors.become(r, replace) }
func (c *cellContext) Unbecome()                      { c.cell.behaviors.unbecome() }
func (c *cellContext) UnbecomeAll()                   { c.cell.behaviors.unbecomeAll() }

func (c *cellContext) Await(filter func(Message) bool, action func(Message, bool), timeout time.Duration) {
	c.cell.await(filter, action, timeout)
}

func (c *cellContext) StashPush(msg Message)        { c.cell.mailbox.stashPush(msg) }
func (c *cellContext) StashPopOne() (Message, bool) { return c.cell.mailbox.stashPopOne() }

func (c *cellContext) AddChild(factory Factory, opts ...ChildOption) (Identity, error) {
	return c.cell.system.spawnChild(c.cell, factory, opts...)
}

func (c *cellContext) AddChildren(factory Factory, instances int, opts ...ChildOption) ([]Identity, error) {
	ids := make([]Identity, 0, instances)
	for i := 0; i < instances; i++ {
		id, err := c.cell.system.spawnChild(c.cell, factory, opts...)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (c *cellContext) Watch(dest Identity)   { c.cell.watch(dest) }
func (c *cellContext) Unwatch(dest Identity) { c.cell.unwatch(dest) }

func (c *cellContext) Stop()                    { c.cell.system.stopCell(c.cell.id) }
func (c *cellContext) StopChild(dest Identity)  { c.cell.system.stopCell(dest) }

func (c *cellContext) Persist(ctx context.Context, event proto.Message) (persistence.Ack, error) {
	return c.cell.persist(ctx, event)
}

func (c *cellContext) Recover(ctx context.Context) (persistence.EventStream, error) {
	return c.cell.recoverEvents(ctx)
}

func (c *cellContext) System() *System { return c.cell.system }
