package actor

import (
	"runtime"
	"time"
)

// Config carries every knob named in spec §6. The config package loads
// these from YAML; tests and simple callers can also build a Config
// directly and pass it to NewSystem.
type Config struct {
	// Parallelism is the worker pool size; zero means runtime.NumCPU().
	Parallelism int
	// ParallelismFactor multiplies Parallelism when sizing a distributed
	// system-actor group (e.g. one watchdog probe per worker).
	ParallelismFactor int
	// MaxResourceThreads bounds the resource executor's cached pool.
	MaxResourceThreads int

	// PersistenceMode and PersistenceDriver select the optional
	// persistence.Driver collaborator; the core never interprets these
	// beyond handing them to whatever driver the caller wires in.
	PersistenceMode   string
	PersistenceDriver string

	WatchdogEnabled  bool
	WatchdogSyncTime time.Duration

	HorizontalPodAutoscalerEnabled  bool
	HorizontalPodAutoscalerSyncTime time.Duration

	// MaxRetries and WithinTimeRange bound the default supervision
	// restart budget (spec §4.5).
	MaxRetries      int
	WithinTimeRange time.Duration

	// AwaitTerminationTimeout bounds System.AwaitTermination / a graceful
	// Shutdown(await=true).
	AwaitTerminationTimeout time.Duration

	// Throughput is the per-cell batch budget (spec §4.3 step 5).
	Throughput int

	// QueueSize and BufferQueueSize are carried with the rest of the
	// configuration; the mailbox and scheduling queues do not read them
	// and grow unbounded.
	QueueSize       int
	BufferQueueSize int
}

// DefaultConfig returns the configuration the teacher's servers would ship
// with out of the box: hardware parallelism, a conservative restart
// budget, and the watchdog enabled.
func DefaultConfig() Config {
	return Config{
		Parallelism:                     runtime.NumCPU(),
		ParallelismFactor:               1,
		MaxResourceThreads:              64,
		WatchdogEnabled:                 true,
		WatchdogSyncTime:                5 * time.Second,
		HorizontalPodAutoscalerEnabled:  false,
		HorizontalPodAutoscalerSyncTime: 30 * time.Second,
		MaxRetries:                      3,
		WithinTimeRange:                 time.Second,
		AwaitTerminationTimeout:         10 * time.Second,
		Throughput:                      32,
		QueueSize:                       1024,
		BufferQueueSize:                 1024,
	}
}

func (c Config) normalized() Config {
	if c.Parallelism <= 0 {
		c.Parallelism = runtime.NumCPU()
	}
	if c.ParallelismFactor <= 0 {
		c.ParallelismFactor = 1
	}
	if c.MaxResourceThreads <= 0 {
		c.MaxResourceThreads = c.Parallelism
	}
	if c.MaxResourceThreads < c.Parallelism {
		c.MaxResourceThreads = c.Parallelism
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.WithinTimeRange <= 0 {
		c.WithinTimeRange = time.Second
	}
	if c.AwaitTerminationTimeout <= 0 {
		c.AwaitTerminationTimeout = 10 * time.Second
	}
	if c.Throughput <= 0 {
		c.Throughput = 32
	}
	if c.WatchdogSyncTime <= 0 {
		c.WatchdogSyncTime = 5 * time.Second
	}
	if c.HorizontalPodAutoscalerSyncTime <= 0 {
		c.HorizontalPodAutoscalerSyncTime = 30 * time.Second
	}
	return c
}
