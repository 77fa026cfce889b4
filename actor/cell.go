package actor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"google.golang.org/protobuf/proto"

	"github.com/phuhao00/actorcore/persistence"
)

// Actor is the user-supplied reception logic for a cell. Receive is invoked
// with exactly one message at a time, never concurrently with another
// message addressed to the same cell.
type Actor interface {
	Receive(ctx Context, msg Message)
}

// Factory builds a fresh Actor, called once at spawn time and again on
// every restart.
type Factory func() Actor

// PreStarter is called once, synchronously, right after a cell's Actor is
// constructed, before it can receive any message.
type PreStarter interface {
	PreStart() error
}

// PostStopper is called once the cell's subtree has fully stopped, before
// the cell is unregistered.
type PostStopper interface {
	PostStop()
}

// PreRestarter is called on the failing Actor instance after every
// reception failure, before the supervision decision is made (and so
// before a restart begins tearing its children down). It is not called for
// a restart requested via the internal RESTART control message.
type PreRestarter interface {
	PreRestart(reason error)
}

// PostRestarter is called on the freshly constructed Actor instance after
// PreStart, once a restart completes. Both hooks are exposed (spec §9 open
// question) rather than folding PostRestart into PreStart.
type PostRestarter interface {
	PostRestart(reason error)
}

// tagEscalate is an implementation-internal addition to the reserved
// negative tag band, used to deliver an escalated failure to a parent cell
// through the ordinary dispatch path rather than a direct cross-goroutine
// method call. It is never exposed to user code.
const tagEscalate Tag = TagDeactivate - 1

// errManualRestart is the reason passed to PostRestart when a restart was
// requested directly via the internal RESTART control message, rather than
// as a supervision decision following a failure.
var errManualRestart = fmt.Errorf("actor: manual restart requested")

// cell is one actor's runtime state: mailbox, behavior stack, children,
// supervision bookkeeping. Every field except activation, state and the
// stopMu-guarded stop bookkeeping is touched only by the cell's own owning
// worker goroutine; activation and state are atomics specifically because
// other goroutines (producers, System.Shutdown) observe them, and
// stopWaiters is appended to by awaitStopped callers under stopMu.
type cell struct {
	id     Identity
	parent Identity
	name   string

	system *System

	factory  Factory
	actor    Actor
	strategy SupervisorStrategy
	restarts restartStatistics

	mailbox   *mailbox
	behaviors behaviorStack
	ctx       *cellContext

	watching map[Identity]struct{}

	children []Identity

	isResource   bool
	worker       *worker
	persistDriver persistence.Driver

	awaitBuffer []Message
	awaitHandle TimerHandle

	activation atomic.Int32
	state      atomic.Int32

	stopMu      sync.Mutex
	stopPending int
	stopWaiters []chan struct{}

	pendingRestartReason error
}

func newCell(system *System, id, parent Identity, cfg childConfig) *cell {
	c := &cell{
		id:           id,
		parent:       parent,
		name:         cfg.name,
		system:       system,
		factory:      cfg.factory,
		strategy:     cfg.strategy,
		isResource:   cfg.resource,
		persistDriver: cfg.persistDriver,
	}
	c.mailbox = newMailbox()
	c.ctx = &cellContext{cell: c}
	c.state.Store(int32(StateCreated))
	return c
}

func (c *cell) lifecycleState() LifecycleState { return LifecycleState(c.state.Load()) }
func (c *cell) setState(s LifecycleState)      { c.state.Store(int32(s)) }

// start constructs the Actor, runs PreStart, and makes the cell eligible to
// receive messages. Called once, synchronously, by System.spawnChild before
// the cell is registered.
func (c *cell) start() (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrInitializationFailed, toError(r))
		}
	}()
	c.actor = c.factory()
	if c.actor == nil {
		return ErrInitializationFailed
	}
	c.behaviors.reset(c.actor.Receive)
	if ps, ok := c.actor.(PreStarter); ok {
		if perr := ps.PreStart(); perr != nil {
			return fmt.Errorf("%w: %v", ErrInitializationFailed, perr)
		}
	}
	c.setState(StateRunning)
	return nil
}

// enqueue adds msg to the appropriate lane and, if the cell was idle,
// activates it onto its worker (or the resource executor). This is the
// only path by which a cell transitions idle -> active.
func (c *cell) enqueue(msg Message, priority bool) {
	if priority {
		c.mailbox.enqueuePriority(msg)
	} else {
		c.mailbox.enqueueNormal(msg)
	}
	c.activate()
}

func (c *cell) activate() {
	if c.activation.CompareAndSwap(idleActivation, activeActivation) {
		if c.isResource {
			c.system.resourceExec.submit(c)
		} else {
			c.worker.push(c)
		}
	}
}

// receive dispatches msg either to the internal control handler or to the
// active user behavior, recovering any panic as a supervised failure.
func (c *cell) receive(msg Message) {
	if msg.Tag.IsInternalControl() {
		c.handleInternal(msg)
		return
	}
	c.invokeUser(msg)
}

func (c *cell) invokeUser(msg Message) {
	defer func() {
		if r := recover(); r != nil {
			c.onFailure(toError(r), msg)
		}
	}()
	top := c.behaviors.top()
	if top == nil {
		return
	}
	c.ctx.msg = msg
	top(c.ctx, msg)
}

func (c *cell) handleInternal(msg Message) {
	switch msg.Tag {
	case TagStop:
		c.beginStop()
	case TagStopSuccess:
		c.onChildStopped(msg.Source)
	case TagKill:
		c.doKill()
	case TagRestart:
		c.beginRestart(errManualRestart)
	case TagHealthCheck:
		c.send(Message{Tag: TagUp, Dest: msg.Source})
	case TagActivate:
		c.setState(StateRunning)
	case TagDeactivate:
		c.setState(StateStarted)
	case tagEscalate:
		if err, ok := msg.Value.(error); ok {
			c.onFailure(err, msg)
		}
	}
}

func (c *cell) doKill() {
	c.system.failsafeReg.Report(ClassActor, c.id, ErrKilled)
	c.beginStop()
}

// onFailure runs the supervision decision for an error raised while
// processing offending on this cell's own worker. The parent's configured
// strategy for this cell -- stored on c itself at spawn time -- decides
// Resume, Restart, Stop, or Escalate.
func (c *cell) onFailure(err error, offending Message) {
	c.system.failsafeReg.Report(ClassActor, c.id, err)
	c.safePreRestart(err)

	decision := c.resolveStrategy()(err)
	switch decision {
	case DecisionResume:
		c.setState(StateRunning)
	case DecisionRestart:
		cfg := c.system.config
		if c.restarts.recordAndCheck(cfg.MaxRetries, cfg.WithinTimeRange) {
			c.beginRestart(err)
		} else {
			c.beginStop()
		}
	case DecisionStop:
		c.beginStop()
	case DecisionEscalate:
		if !c.parent.IsNil() {
			c.system.sendPriorityMessage(Message{Tag: tagEscalate, Source: c.id, Dest: c.parent, Value: err})
		} else {
			c.beginStop()
		}
	}
}

func (c *cell) resolveStrategy() SupervisorStrategy {
	if c.strategy != nil {
		return c.strategy
	}
	return RestartStrategy
}

func (c *cell) safePreRestart(reason error) {
	defer func() {
		if r := recover(); r != nil {
			c.system.failsafeReg.Report(ClassActor, c.id, toError(r))
		}
	}()
	if pr, ok := c.actor.(PreRestarter); ok {
		pr.PreRestart(reason)
	}
}

func (c *cell) safePostStop() {
	defer func() {
		if r := recover(); r != nil {
			c.system.failsafeReg.Report(ClassActor, c.id, toError(r))
		}
	}()
	if ps, ok := c.actor.(PostStopper); ok {
		ps.PostStop()
	}
}

// beginStop starts the stop cascade: children are asked to stop first, and
// finalizeStop only runs once every child has acknowledged via STOP_SUCCESS.
func (c *cell) beginStop() {
	prev := LifecycleState(c.state.Swap(int32(StateStopping)))
	if prev == StateStopping || prev == StateStopped {
		return
	}
	c.awaitHandle.Cancel()
	children := c.snapshotChildren()
	c.stopMu.Lock()
	c.stopPending = len(children)
	c.stopMu.Unlock()
	if len(children) == 0 {
		c.finalizeStop()
		return
	}
	for _, child := range children {
		c.system.sendPriorityMessage(Message{Tag: TagStop, Source: c.id, Dest: child})
	}
}

// beginRestart mirrors beginStop but recreates the Actor once every child
// has stopped, instead of unregistering the cell.
func (c *cell) beginRestart(reason error) {
	c.pendingRestartReason = reason
	c.setState(StateRestarting)
	c.awaitHandle.Cancel()
	children := c.snapshotChildren()
	c.stopMu.Lock()
	c.stopPending = len(children)
	c.stopMu.Unlock()
	if len(children) == 0 {
		c.finalizeRestart()
		return
	}
	for _, child := range children {
		c.system.sendPriorityMessage(Message{Tag: TagStop, Source: c.id, Dest: child})
	}
}

func (c *cell) onChildStopped(childID Identity) {
	c.removeChild(childID)
	c.stopMu.Lock()
	c.stopPending--
	remaining := c.stopPending
	c.stopMu.Unlock()
	if remaining > 0 {
		return
	}
	switch c.lifecycleState() {
	case StateStopping:
		c.finalizeStop()
	case StateRestarting:
		c.finalizeRestart()
	}
}

func (c *cell) finalizeStop() {
	c.safePostStop()
	c.system.notifyWatchers(c.id)
	c.system.registry.unregister(c.id)
	c.setState(StateStopped)
	if !c.parent.IsNil() {
		c.system.sendPriorityMessage(Message{Tag: TagStopSuccess, Source: c.id, Dest: c.parent})
	}
	c.signalStopWaiters()
}

func (c *cell) finalizeRestart() {
	reason := c.pendingRestartReason
	c.pendingRestartReason = nil
	c.children = c.children[:0]

	newActor := c.factory()
	if newActor == nil {
		c.system.failsafeReg.Report(ClassInitialization, c.id, ErrInitializationFailed)
		c.beginStop()
		return
	}
	c.actor = newActor
	c.behaviors.reset(newActor.Receive)

	if ps, ok := newActor.(PreStarter); ok {
		if err := ps.PreStart(); err != nil {
			c.system.failsafeReg.Report(ClassInitialization, c.id, err)
			c.beginStop()
			return
		}
	}
	if pr, ok := newActor.(PostRestarter); ok {
		pr.PostRestart(reason)
	}
	c.setState(StateRunning)
}

func (c *cell) snapshotChildren() []Identity {
	out := make([]Identity, len(c.children))
	copy(out, c.children)
	return out
}

func (c *cell) removeChild(id Identity) {
	for i, ch := range c.children {
		if ch == id {
			c.children = append(c.children[:i], c.children[i+1:]...)
			return
		}
	}
}

func (c *cell) addChildLocal(id Identity) {
	c.children = append(c.children, id)
}

// awaitStopped blocks the calling goroutine (not the cell's own worker)
// until the cell reaches STOPPED or timeout elapses, for System.Shutdown's
// synchronous wait path.
func (c *cell) awaitStopped(timeout time.Duration) bool {
	if c.lifecycleState() == StateStopped {
		return true
	}
	ch := make(chan struct{})
	c.stopMu.Lock()
	if c.lifecycleState() == StateStopped {
		c.stopMu.Unlock()
		return true
	}
	c.stopWaiters = append(c.stopWaiters, ch)
	c.stopMu.Unlock()
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (c *cell) signalStopWaiters() {
	c.stopMu.Lock()
	waiters := c.stopWaiters
	c.stopWaiters = nil
	c.stopMu.Unlock()
	for _, w := range waiters {
		close(w)
	}
}

func (c *cell) watch(dest Identity) {
	if c.watching == nil {
		c.watching = make(map[Identity]struct{})
	}
	if _, exists := c.watching[dest]; exists {
		return
	}
	c.watching[dest] = struct{}{}
	c.system.registry.addWatcher(dest, c.id)
}

func (c *cell) unwatch(dest Identity) {
	delete(c.watching, dest)
	c.system.registry.removeWatcher(dest, c.id)
}

func (c *cell) send(msg Message) {
	out := msg
	if out.Source.IsNil() {
		out.Source = c.id
	}
	c.system.send(out)
}

func (c *cell) sendViaAlias(msg Message, alias string) {
	out := msg
	if out.Source.IsNil() {
		out.Source = c.id
	}
	c.system.sendViaAlias(out, alias)
}

func (c *cell) priority(msg Message) {
	out := msg
	if out.Source.IsNil() {
		out.Source = c.id
	}
	c.system.sendPriorityMessage(out)
}

func (c *cell) forward(msg Message, dest Identity) {
	c.system.send(msg.ShallowCopyDest(dest))
}

// await implements Context.Await: it becomes a behavior that buffers every
// non-matching message until filter matches or timeout fires, then unbecomes
// and replays the buffer so later messages from the same sender still
// arrive in order.
func (c *cell) await(filter func(Message) bool, action func(Message, bool), timeout time.Duration) {
	resolved := false
	var wrapped Receive
	wrapped = func(_ Context, msg Message) {
		if resolved {
			return
		}
		matched := msg.Tag == TagTimeout || filter(msg)
		if !matched {
			c.awaitBuffer = append(c.awaitBuffer, msg)
			return
		}
		resolved = true
		c.awaitHandle.Cancel()
		c.behaviors.unbecome()
		c.flushAwaitBuffer()
		action(msg, msg.Tag == TagTimeout)
	}
	c.behaviors.become(wrapped, false)
	if timeout > 0 {
		c.awaitHandle = c.system.timers.ScheduleOnce(Message{Tag: TagTimeout, Dest: c.id}, c.id, "", timeout)
	} else {
		c.awaitHandle = TimerHandle{}
	}
}

func (c *cell) flushAwaitBuffer() {
	if len(c.awaitBuffer) == 0 {
		return
	}
	pending := c.awaitBuffer
	c.awaitBuffer = nil
	c.mailbox.normal.pushFront(pending)
}

func (c *cell) persist(ctx context.Context, event proto.Message) (persistence.Ack, error) {
	if c.persistDriver == nil {
		return persistence.Ack{}, ErrNoPersistenceDriver
	}
	return c.persistDriver.Persist(ctx, persistence.ActorID(c.id), event)
}

func (c *cell) recoverEvents(ctx context.Context) (persistence.EventStream, error) {
	if c.persistDriver == nil {
		return nil, ErrNoPersistenceDriver
	}
	return c.persistDriver.Recover(ctx, persistence.ActorID(c.id))
}

func toError(r any) error {
	if err, ok := r.(error); ok {
		return err
	}
	return fmt.Errorf("%v", r)
}
