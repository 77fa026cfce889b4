package actor

import (
	"log"
	"sync"
)

// FailsafeClassification names the subsystem that caught an unhandled
// fault, per spec §4.5/§7.
type FailsafeClassification string

const (
	ClassActor            FailsafeClassification = "actor"
	ClassResource          FailsafeClassification = "resource"
	ClassInitialization    FailsafeClassification = "initialization"
	ClassWatchdog          FailsafeClassification = "watchdog"
	ClassReplication       FailsafeClassification = "replication"
	ClassExecuterResource  FailsafeClassification = "executer_resource"
	ClassExecuterClient    FailsafeClassification = "executer_client"
	ClassPseudo            FailsafeClassification = "pseudo"
)

// FailsafeHandler is notified of every unhandled fault caught by a core
// thread, along with a classification and the offending identity (the zero
// Identity when no single actor is responsible; a watchdog fault carries
// the identity of the probe that did not answer).
type FailsafeHandler func(class FailsafeClassification, id Identity, err error)

// DefaultFailsafeHandler logs and otherwise ignores the fault, matching the
// teacher's stdlib-log idiom for unexpected internal errors.
func DefaultFailsafeHandler(class FailsafeClassification, id Identity, err error) {
	if id.IsNil() {
		log.Printf("actor: unhandled %s fault: %v", class, err)
		return
	}
	log.Printf("actor: unhandled %s fault for %s: %v", class, id, err)
}

// failsafe is the registry of handlers invoked on unhandled faults. Multiple
// handlers may be registered; all are invoked for every fault.
type failsafe struct {
	mu       sync.RWMutex
	handlers []FailsafeHandler
}

func newFailsafe(initial ...FailsafeHandler) *failsafe {
	f := &failsafe{}
	if len(initial) == 0 {
		f.handlers = []FailsafeHandler{DefaultFailsafeHandler}
	} else {
		f.handlers = append(f.handlers, initial...)
	}
	return f
}

func (f *failsafe) Register(h FailsafeHandler) {
	f.mu.Lock()
	f.handlers = append(f.handlers, h)
	f.mu.Unlock()
}

func (f *failsafe) Report(class FailsafeClassification, id Identity, err error) {
	f.mu.RLock()
	handlers := f.handlers
	f.mu.RUnlock()
	for _, h := range handlers {
		h(class, id, err)
	}
}
