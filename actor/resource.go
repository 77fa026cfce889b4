package actor

import (
	"fmt"
	"sync"
	"sync/atomic"
)

var errResourcePoolSaturated = fmt.Errorf("actor: resource executor pool at capacity")

// resourceExecutor is the dedicated thread pool for actors spawned with
// AsResourceActor (spec §4.7): cells that do blocking I/O run here instead
// of on a fixed dispatcher worker, so they can't starve the rest of the
// system. The pool starts at Config.Parallelism threads and grows, one at a
// time, up to Config.MaxResourceThreads as submissions observe saturation.
type resourceExecutor struct {
	system *System
	min    int
	max    int

	queue cellQueue
	wake  chan struct{}

	active atomic.Int32
	wg     sync.WaitGroup
	stopCh chan struct{}
}

func newResourceExecutor(s *System, min, max int) *resourceExecutor {
	if min < 1 {
		min = 1
	}
	if max < min {
		max = min
	}
	return &resourceExecutor{
		system: s,
		min:    min,
		max:    max,
		wake:   make(chan struct{}, 1),
		stopCh: make(chan struct{}),
	}
}

func (r *resourceExecutor) Name() string { return "resource-executor" }

func (r *resourceExecutor) Start() error {
	for i := 0; i < r.min; i++ {
		r.active.Add(1)
		r.wg.Add(1)
		go r.runLoop()
	}
	return nil
}

func (r *resourceExecutor) Stop() {
	close(r.stopCh)
	r.wg.Wait()
}

func (r *resourceExecutor) runLoop() {
	defer r.wg.Done()
	for {
		c, ok := r.queue.pop()
		if !ok {
			select {
			case <-r.wake:
				continue
			case <-r.stopCh:
				for {
					c, ok := r.queue.pop()
					if !ok {
						return
					}
					r.run(c)
				}
			}
			continue
		}
		r.run(c)
	}
}

// run mirrors worker.processCell's batch-budget and idle-CAS logic, just
// against this executor's shared queue instead of a single worker's.
func (r *resourceExecutor) run(c *cell) {
	processed := 0
	throughput := r.system.config.Throughput
	for processed < throughput {
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
		r.submit(c)
		return
	}

	if c.activation.CompareAndSwap(activeActivation, idleActivation) {
		if !c.mailbox.empty() && c.activation.CompareAndSwap(idleActivation, activeActivation) {
			r.submit(c)
		}
	}
}

// submit enqueues c and, if the queue was already non-empty (every current
// thread plausibly busy) and the pool hasn't reached max, grows the pool by
// exactly one thread. The CAS in tryGrow makes this single-flight: a burst
// of concurrent submits observing the same saturation only ever spins up
// one additional thread, not one per submit.
func (r *resourceExecutor) submit(c *cell) {
	saturated := r.queue.length() > 0
	r.queue.push(c)
	select {
	case r.wake <- struct{}{}:
	default:
	}
	if saturated {
		r.tryGrow(c.id)
	}
}

func (r *resourceExecutor) tryGrow(offending Identity) {
	cur := r.active.Load()
	if cur >= int32(r.max) {
		r.system.failsafeReg.Report(ClassExecuterResource, offending, errResourcePoolSaturated)
		return
	}
	if r.active.CompareAndSwap(cur, cur+1) {
		r.wg.Add(1)
		go r.runLoop()
	}
}
