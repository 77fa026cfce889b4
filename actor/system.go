package actor

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/phuhao00/actorcore/deadletter"
	"github.com/phuhao00/actorcore/persistence"
)

// System is the runtime handle: it owns the dispatcher, timer service,
// resource executor, optional watchdog, registry, and the collaborator
// interfaces (dead-letter sink, persistence driver, failsafe handlers).
// There is exactly one System per process in the common case, though
// nothing here prevents running more than one.
type System struct {
	config Config

	registry     *registry
	dispatcher   *dispatcher
	timers       *timerService
	resourceExec *resourceExecutor
	watchdog     *watchdogModule
	failsafeReg  *failsafe
	deadletters  deadletter.Sink
	persistDriver persistence.Driver

	nameSeq      atomic.Int64
	shuttingDown atomic.Bool
	modules      []Module
}

type systemOptions struct {
	deadletters      deadletter.Sink
	persistDriver    persistence.Driver
	failsafeHandlers []FailsafeHandler
}

// SystemOption configures NewSystem.
type SystemOption func(*systemOptions)

// WithDeadLetterSink overrides the default deadletter.LogSink.
func WithDeadLetterSink(sink deadletter.Sink) SystemOption {
	return func(o *systemOptions) { o.deadletters = sink }
}

// WithPersistenceDriver sets the system-wide default persistence.Driver,
// used by every child spawned without a driver of its own (no
// WithPersistence option, or WithPersistence(nil)).
func WithPersistenceDriver(driver persistence.Driver) SystemOption {
	return func(o *systemOptions) { o.persistDriver = driver }
}

// WithFailsafeHandler registers a FailsafeHandler at construction time.
// Handlers given this way replace DefaultFailsafeHandler; it is only
// installed when no WithFailsafeHandler option is passed.
func WithFailsafeHandler(h FailsafeHandler) SystemOption {
	return func(o *systemOptions) { o.failsafeHandlers = append(o.failsafeHandlers, h) }
}

// NewSystem builds and starts every internal Module (dispatcher, timer
// service, resource executor, and the watchdog if enabled).
func NewSystem(cfg Config, opts ...SystemOption) (*System, error) {
	cfg = cfg.normalized()
	var so systemOptions
	for _, opt := range opts {
		opt(&so)
	}

	s := &System{config: cfg}
	s.registry = newRegistry()
	s.dispatcher = newDispatcher(cfg.Parallelism, cfg.Throughput)
	s.timers = newTimerService(s)
	s.resourceExec = newResourceExecutor(s, cfg.Parallelism, cfg.MaxResourceThreads)
	s.failsafeReg = newFailsafe(so.failsafeHandlers...)
	s.persistDriver = so.persistDriver
	s.deadletters = so.deadletters
	if s.deadletters == nil {
		s.deadletters = deadletter.LogSink{}
	}

	s.modules = []Module{s.dispatcher, s.timers, s.resourceExec}
	if cfg.WatchdogEnabled {
		s.watchdog = newWatchdog(s, cfg.WatchdogSyncTime)
		s.modules = append(s.modules, s.watchdog)
	}
	for _, m := range s.modules {
		if err := m.Start(); err != nil {
			return nil, fmt.Errorf("actor: starting %s: %w", m.Name(), err)
		}
	}
	return s, nil
}

// AddActor spawns a top-level actor (no parent), returning its identity.
func (s *System) AddActor(factory Factory, opts ...ChildOption) (Identity, error) {
	return s.spawnChildWithWorker(nil, nil, factory, opts...)
}

// AddSystemActor spawns count instances of a system-actor group, placed
// across workers per the group's affinity (spec §4.4).
func (s *System) AddSystemActor(factory Factory, count int, opts ...ChildOption) ([]Identity, error) {
	cfg := newChildConfig(factory, opts...)
	ids := make([]Identity, 0, count)
	var anchor *worker
	for i := 0; i < count; i++ {
		w := s.dispatcher.assignGroup(i, cfg.group, anchor)
		if cfg.group == AffinityBalanced && anchor == nil {
			anchor = w
		}
		id, err := s.spawnChildWithWorker(nil, w, factory, opts...)
		if err != nil {
			return ids, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// spawnChild is the Context.AddChild path: parent is always non-nil here.
func (s *System) spawnChild(parent *cell, factory Factory, opts ...ChildOption) (Identity, error) {
	return s.spawnChildWithWorker(parent, nil, factory, opts...)
}

func (s *System) spawnChildWithWorker(parent *cell, w *worker, factory Factory, opts ...ChildOption) (Identity, error) {
	if s.shuttingDown.Load() {
		return NilIdentity, ErrSystemShuttingDown
	}
	cfg := newChildConfig(factory, opts...)
	if cfg.strategy == nil {
		cfg.strategy = RestartStrategy
	}
	if cfg.persistDriver == nil {
		cfg.persistDriver = s.persistDriver
	}

	id := NewIdentity()
	parentID := NilIdentity
	if parent != nil {
		parentID = parent.id
	}
	c := newCell(s, id, parentID, cfg)
	if !cfg.resource {
		if w != nil {
			c.worker = w
		} else {
			c.worker = s.dispatcher.assign(id)
		}
	}

	if err := c.start(); err != nil {
		s.failsafeReg.Report(ClassInitialization, id, err)
		return NilIdentity, err
	}

	if parent != nil {
		parent.addChildLocal(id)
	}
	path := s.buildPath(parent, cfg.name)
	s.registry.register(c, path)
	if cfg.alias != "" {
		s.registry.setAlias(id, cfg.alias)
	}
	return id, nil
}

func (s *System) buildPath(parent *cell, name string) string {
	if name == "" {
		name = fmt.Sprintf("actor-%d", s.nameSeq.Add(1))
	}
	if parent == nil {
		return "/" + name
	}
	parentPath := s.registry.pathOf(parent.id)
	if parentPath == "" {
		return "/" + name
	}
	return parentPath + "/" + name
}

// Send delivers msg to msg.Dest's normal lane, or to the dead-letter sink
// if no cell or pseudo-cell is registered under that identity.
func (s *System) Send(msg Message) { s.send(msg) }

// SendViaAlias resolves alias to an identity and sends msg to it.
func (s *System) SendViaAlias(msg Message, alias string) { s.sendViaAlias(msg, alias) }

// SetAlias binds id under alias; an alias may be bound to more than one
// identity (spec §9's deterministic-smallest-identity resolution applies).
func (s *System) SetAlias(id Identity, alias string) { s.registry.setAlias(id, alias) }

// GetActorFromPath looks up an identity by its hierarchical path.
func (s *System) GetActorFromPath(path string) (Identity, bool) {
	return s.registry.lookupByPath(path)
}

// RegisterFailsafeHandler adds h alongside any already-registered handlers.
func (s *System) RegisterFailsafeHandler(h FailsafeHandler) { s.failsafeReg.Register(h) }

func (s *System) send(msg Message)                 { s.deliver(msg, false) }
func (s *System) sendPriorityMessage(msg Message)   { s.deliver(msg, true) }

func (s *System) deliver(msg Message, priority bool) {
	if c := s.registry.lookup(msg.Dest); c != nil {
		c.enqueue(msg, priority)
		return
	}
	if p := s.registry.lookupPseudo(msg.Dest); p != nil {
		p.deliver(msg)
		return
	}
	s.deadletters.Offer(toDeadLetterMessage(msg))
}

func (s *System) sendViaAlias(msg Message, alias string) {
	id, ok := s.registry.lookupByAlias(alias)
	if !ok {
		s.deadletters.Offer(toDeadLetterMessage(msg))
		return
	}
	out := msg
	out.Dest = id
	s.send(out)
}

func (s *System) notifyWatchers(target Identity) {
	for _, w := range s.registry.watchersOfTarget(target) {
		s.sendPriorityMessage(Message{Tag: TagTerminated, Source: target, Dest: w})
	}
}

func (s *System) stopCell(id Identity) {
	s.sendPriorityMessage(Message{Tag: TagStop, Dest: id})
}

func toDeadLetterMessage(msg Message) deadletter.ActorMessage {
	return deadletter.ActorMessage{
		Value:       msg.Value,
		Tag:         int32(msg.Tag),
		Source:      [16]byte(msg.Source),
		Dest:        [16]byte(msg.Dest),
		Interaction: [16]byte(msg.Interaction),
		Protocol:    msg.Protocol,
		Domain:      msg.Domain,
	}
}

// Shutdown stops every top-level actor (which cascades to their entire
// subtrees), then stops the internal modules. If await is true, it blocks
// until every top-level actor has reached STOPPED or
// Config.AwaitTerminationTimeout elapses.
func (s *System) Shutdown(await bool) {
	if !s.shuttingDown.CompareAndSwap(false, true) {
		return
	}
	var roots []*cell
	for _, c := range s.registry.snapshotCells() {
		if c.parent.IsNil() {
			roots = append(roots, c)
		}
	}
	for _, c := range roots {
		s.stopCell(c.id)
	}
	if await {
		for _, c := range roots {
			c.awaitStopped(s.config.AwaitTerminationTimeout)
		}
	}
	s.stopModules()
}

// AwaitTermination is Shutdown(true): it requests a graceful stop and
// blocks until it completes or times out.
func (s *System) AwaitTermination() {
	s.Shutdown(true)
}

// stopModules stops every internal Module concurrently via errgroup,
// bounding total shutdown latency to the slowest module rather than their
// sum.
func (s *System) stopModules() {
	g, _ := errgroup.WithContext(context.Background())
	for _, m := range s.modules {
		m := m
		g.Go(func() error {
			m.Stop()
			return nil
		})
	}
	_ = g.Wait()
}
