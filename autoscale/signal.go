// Package autoscale defines the pod-autoscaler collaborator (spec §6): a
// periodic callback with no direct core coupling. The System never reads
// from or writes to anything in this package directly; a caller wires a
// Signal in and polls it on its own schedule if
// horizontalPodAutoscalerEnabled is set.
package autoscale

// Desired is the scaling signal's report: how many resource-executor
// threads and, informationally, how many workers the operator currently
// wants. The core does not act on this by itself -- recovery/resizing
// policy is external, same as the watchdog (spec §4.8/§9).
type Desired struct {
	ResourceThreads int
	Workers         int
}

// Signal is polled periodically by whatever external loop the caller sets
// up; it has no reference to a System.
type Signal interface {
	Poll() (Desired, error)
}
