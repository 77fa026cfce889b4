package actor

import (
	"hash/fnv"
	"sync"
)

// GroupAffinity hints how AddSystemActor should spread a group's instances
// across workers (spec §4.4).
type GroupAffinity int

const (
	// AffinityDistributed spreads the group's members across distinct
	// workers (one-probe-per-worker watchdog groups, for example).
	AffinityDistributed GroupAffinity = iota
	// AffinityBalanced co-locates the group's members on the same worker.
	AffinityBalanced
)

const (
	idleActivation int32 = iota
	activeActivation
)

// worker owns a disjoint partition of cells and runs their reception loops.
// Its scheduling queue is an MPSC structure: any goroutine may push an
// activated cell, but only this worker's own goroutine pops from it.
type worker struct {
	id        int
	dispatch  *dispatcher
	sched     cellQueue
	wake      chan struct{}
	stopCh    chan struct{}
	doneCh    chan struct{}
	throughput int
}

func newWorker(id int, d *dispatcher, throughput int) *worker {
	return &worker{
		id:         id,
		dispatch:   d,
		wake:       make(chan struct{}, 1),
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
		throughput: throughput,
	}
}

func (w *worker) start() {
	go w.run()
}

// push activates c on this worker, waking it if parked. No-lost-wakeup is
// guaranteed by activate()'s CAS happening before this call: by the time a
// cell reaches the scheduling queue it is guaranteed ACTIVE, and the worker
// only flips a cell back to IDLE after observing an empty mailbox.
func (w *worker) push(c *cell) {
	w.sched.push(c)
	select {
	case w.wake <- struct{}{}:
	default:
	}
}

func (w *worker) run() {
	defer close(w.doneCh)
	for {
		c, ok := w.sched.pop()
		if !ok {
			select {
			case <-w.wake:
				continue
			case <-w.stopCh:
				// Drain whatever is left in the scheduling queue before
				// exiting so System.Shutdown's mailbox drain can observe
				// empty mailboxes rather than stranded activations.
				for {
					c, ok := w.sched.pop()
					if !ok {
						return
					}
					w.processCell(c)
				}
			}
			continue
		}
		w.processCell(c)
	}
}

func (w *worker) stop() {
	close(w.stopCh)
	<-w.doneCh
}

// processCell runs c's reception loop for up to the per-cell batch budget,
// then either re-schedules it (more work pending) or flips its activation
// flag back to idle, re-activating itself if a producer raced the
// empty-check (spec §4.4's "no lost wake-up").
func (w *worker) processCell(c *cell) {
	processed := 0
	for processed < w.throughput {
		msg, ok := c.mailbox.dequeue()
		if !ok {
			break
		}
		c.receive(msg)
		processed++
		if c.lifecycleState() == StateStopped {
			return
		}
	}

	if !c.mailbox.empty() {
		w.push(c)
		return
	}

	if c.activation.CompareAndSwap(activeActivation, idleActivation) {
		if !c.mailbox.empty() && c.activation.CompareAndSwap(idleActivation, activeActivation) {
			w.push(c)
		}
	}
}

// dispatcher is the fixed worker pool: each worker owns a disjoint subset
// of cells, chosen at registration time by hashing the cell's identity
// (with affinity-group overrides for system-actor groups).
type dispatcher struct {
	workers []*worker

	mu         sync.Mutex
	nextRound  int // round-robin cursor for AffinityDistributed groups
}

func newDispatcher(count, throughput int) *dispatcher {
	d := &dispatcher{}
	d.workers = make([]*worker, count)
	for i := 0; i < count; i++ {
		d.workers[i] = newWorker(i, d, throughput)
	}
	return d
}

func (d *dispatcher) Start() error {
	for _, w := range d.workers {
		w.start()
	}
	return nil
}

func (d *dispatcher) Stop() {
	for _, w := range d.workers {
		w.stop()
	}
}

func (d *dispatcher) Name() string { return "dispatcher" }

func (d *dispatcher) workerCount() int {
	return len(d.workers)
}

// assign picks the owning worker for a freshly registered cell by hashing
// its identity, giving a stable distribution without any shared counter.
func (d *dispatcher) assign(id Identity) *worker {
	h := fnv.New32a()
	_, _ = h.Write(id[:])
	idx := int(h.Sum32()) % len(d.workers)
	if idx < 0 {
		idx += len(d.workers)
	}
	return d.workers[idx]
}

// assignGroup picks a worker for the i-th member of a system-actor group.
// AffinityDistributed spreads members round-robin across workers;
// AffinityBalanced pins every member of the group to the same worker,
// chosen once by the caller and passed in as anchor.
func (d *dispatcher) assignGroup(i int, affinity GroupAffinity, anchor *worker) *worker {
	switch affinity {
	case AffinityBalanced:
		if anchor != nil {
			return anchor
		}
		return d.workers[0]
	default:
		d.mu.Lock()
		idx := d.nextRound % len(d.workers)
		d.nextRound++
		d.mu.Unlock()
		return d.workers[idx]
	}
}
