package actor

import (
	"fmt"
	"time"
)

var errWorkerNotResponding = fmt.Errorf("actor: worker did not acknowledge health check within the sync interval")

// watchdogTick is the coordinator's private self-message; it never crosses
// a package boundary so an ordinary (non-reserved) Tag is fine for it.
type watchdogTick struct{}

// watchdogModule is observe-only (spec §4.8/§9): it reports unresponsive
// workers to the failsafe registry but never restarts or kills anything
// itself. One probe cell is placed on every worker (AffinityDistributed);
// a single coordinator cell broadcasts HEALTH_CHECK to all of them on
// every sync tick and checks which probes answered the previous round.
type watchdogModule struct {
	system   *System
	syncTime time.Duration

	coordinatorID Identity
	probeIDs      []Identity
	tickHandle    TimerHandle
}

func newWatchdog(s *System, syncTime time.Duration) *watchdogModule {
	return &watchdogModule{system: s, syncTime: syncTime}
}

func (w *watchdogModule) Name() string { return "watchdog" }

func (w *watchdogModule) Start() error {
	// ParallelismFactor multiplies the probe count per worker (spec §4.4/§6);
	// at the default factor of 1 this is exactly one probe per worker.
	factor := w.system.config.ParallelismFactor
	if factor < 1 {
		factor = 1
	}
	probeIDs, err := w.system.AddSystemActor(
		func() Actor { return watchdogProbe{} },
		w.system.dispatcher.workerCount()*factor,
		WithGroupAffinity(AffinityDistributed),
	)
	if err != nil {
		return err
	}
	w.probeIDs = probeIDs

	coordID, err := w.system.AddActor(func() Actor {
		return &watchdogCoordinator{wd: w, probes: probeIDs, pending: make(map[Identity]struct{}, len(probeIDs))}
	})
	if err != nil {
		return err
	}
	w.coordinatorID = coordID

	w.tickHandle = w.system.timers.ScheduleAtFixedRate(
		Message{Value: watchdogTick{}, Dest: coordID},
		coordID, "", w.syncTime, w.syncTime,
	)
	return nil
}

func (w *watchdogModule) Stop() {
	w.tickHandle.Cancel()
	if !w.coordinatorID.IsNil() {
		w.system.stopCell(w.coordinatorID)
	}
	for _, p := range w.probeIDs {
		w.system.stopCell(p)
	}
}

// watchdogProbe has nothing to do: TagHealthCheck is answered by every
// cell's internal handler before it ever reaches a user Receive, so the
// probe's own Receive only needs to exist.
type watchdogProbe struct{}

func (watchdogProbe) Receive(ctx Context, msg Message) {}

// watchdogCoordinator owns the broadcast/ack bookkeeping. Like any actor it
// runs single-threaded on its own worker, so pending needs no locking.
type watchdogCoordinator struct {
	wd      *watchdogModule
	probes  []Identity
	pending map[Identity]struct{}
}

func (w *watchdogCoordinator) Receive(ctx Context, msg Message) {
	if _, ok := msg.Value.(watchdogTick); ok {
		for missing := range w.pending {
			w.wd.system.failsafeReg.Report(ClassWatchdog, missing, errWorkerNotResponding)
		}
		w.pending = make(map[Identity]struct{}, len(w.probes))
		for _, p := range w.probes {
			w.pending[p] = struct{}{}
			ctx.Priority(Message{Tag: TagHealthCheck, Dest: p})
		}
		return
	}
	if msg.Tag == TagUp {
		delete(w.pending, msg.Source)
	}
}
