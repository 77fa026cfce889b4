// Package config loads the actor runtime's configuration from YAML, the
// same loader shape the teacher used for its per-service ServerConfig:
// read the file, unmarshal, wrap read errors with their path.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/phuhao00/actorcore/actor"
)

// RedisConfig configures persistence/redisdriver's go-redis client.
type RedisConfig struct {
	Addr          string   `yaml:"addr"`
	Password      string   `yaml:"password,omitempty"`
	DB            int      `yaml:"db,omitempty"`
	MasterName    string   `yaml:"master_name,omitempty"`
	SentinelAddrs []string `yaml:"sentinel_addrs,omitempty"`
	Stream        string   `yaml:"stream,omitempty"`
}

// MongoConfig configures persistence/mongodriver's mongo-driver client.
type MongoConfig struct {
	URI              string `yaml:"uri"`
	Database         string `yaml:"database"`
	Collection       string `yaml:"collection"`
	ConnectTimeoutMS int64  `yaml:"connect_timeout_ms,omitempty"`
	MaxPoolSize      uint64 `yaml:"max_pool_size,omitempty"`
}

// ConsulConfig configures autoscale/consulsignal's consul/api client.
type ConsulConfig struct {
	Addr string `yaml:"addr"`
	Key  string `yaml:"key,omitempty"`
}

// NSQConfig configures deadletter/nsqsink's go-nsq producer.
type NSQConfig struct {
	NSQDAddr      string   `yaml:"nsqd_addr,omitempty"`
	NSQDAddresses []string `yaml:"nsqd_addresses,omitempty"`
	Topic         string   `yaml:"topic,omitempty"`
}

// RuntimeConfig mirrors actor.Config field-for-field, spelling durations
// out in milliseconds since that's the teacher's YAML idiom for anything
// duration-shaped (see ServerInfo's *Port fields being plain ints).
type RuntimeConfig struct {
	Parallelism        int    `yaml:"parallelism,omitempty"`
	ParallelismFactor   int    `yaml:"parallelism_factor,omitempty"`
	MaxResourceThreads int    `yaml:"max_resource_threads,omitempty"`
	PersistenceMode    string `yaml:"persistence_mode,omitempty"`
	PersistenceDriver  string `yaml:"persistence_driver,omitempty"`

	WatchdogEnabled    bool  `yaml:"watchdog_enabled"`
	WatchdogSyncTimeMS int64 `yaml:"watchdog_sync_time_ms,omitempty"`

	HorizontalPodAutoscalerEnabled    bool  `yaml:"horizontal_pod_autoscaler_enabled"`
	HorizontalPodAutoscalerSyncTimeMS int64 `yaml:"horizontal_pod_autoscaler_sync_time_ms,omitempty"`

	MaxRetries        int   `yaml:"max_retries,omitempty"`
	WithinTimeRangeMS int64 `yaml:"within_time_range_ms,omitempty"`

	AwaitTerminationTimeoutMS int64 `yaml:"await_termination_timeout_ms,omitempty"`

	Throughput      int `yaml:"throughput,omitempty"`
	QueueSize       int `yaml:"queue_size,omitempty"`
	BufferQueueSize int `yaml:"buffer_queue_size,omitempty"`
}

// ToActorConfig converts the YAML-shaped RuntimeConfig into an actor.Config,
// starting from actor.DefaultConfig so unset numeric and duration fields
// keep their defaults rather than zeroing out. The string fields and the
// two enabled flags are copied as-is, so an unset watchdog_enabled turns
// the watchdog off.
func (r RuntimeConfig) ToActorConfig() actor.Config {
	cfg := actor.DefaultConfig()
	if r.Parallelism > 0 {
		cfg.Parallelism = r.Parallelism
	}
	if r.ParallelismFactor > 0 {
		cfg.ParallelismFactor = r.ParallelismFactor
	}
	if r.MaxResourceThreads > 0 {
		cfg.MaxResourceThreads = r.MaxResourceThreads
	}
	cfg.PersistenceMode = r.PersistenceMode
	cfg.PersistenceDriver = r.PersistenceDriver
	cfg.WatchdogEnabled = r.WatchdogEnabled
	if r.WatchdogSyncTimeMS > 0 {
		cfg.WatchdogSyncTime = time.Duration(r.WatchdogSyncTimeMS) * time.Millisecond
	}
	cfg.HorizontalPodAutoscalerEnabled = r.HorizontalPodAutoscalerEnabled
	if r.HorizontalPodAutoscalerSyncTimeMS > 0 {
		cfg.HorizontalPodAutoscalerSyncTime = time.Duration(r.HorizontalPodAutoscalerSyncTimeMS) * time.Millisecond
	}
	if r.MaxRetries > 0 {
		cfg.MaxRetries = r.MaxRetries
	}
	if r.WithinTimeRangeMS > 0 {
		cfg.WithinTimeRange = time.Duration(r.WithinTimeRangeMS) * time.Millisecond
	}
	if r.AwaitTerminationTimeoutMS > 0 {
		cfg.AwaitTerminationTimeout = time.Duration(r.AwaitTerminationTimeoutMS) * time.Millisecond
	}
	if r.Throughput > 0 {
		cfg.Throughput = r.Throughput
	}
	if r.QueueSize > 0 {
		cfg.QueueSize = r.QueueSize
	}
	if r.BufferQueueSize > 0 {
		cfg.BufferQueueSize = r.BufferQueueSize
	}
	return cfg
}

// Config is the top-level actorsystem.yaml document.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime"`
	Redis   RedisConfig   `yaml:"redis"`
	Mongo   MongoConfig   `yaml:"mongo"`
	Consul  ConsulConfig  `yaml:"consul"`
	NSQ     NSQConfig     `yaml:"nsq"`
}

var instance *Config

// GetConfig loads config/actorsystem.yaml once and caches it, panicking on
// failure -- the same fail-fast startup behavior as the teacher's
// GetServerConfig.
func GetConfig() *Config {
	if instance == nil {
		var err error
		instance, err = LoadFrom("config/actorsystem.yaml")
		if err != nil {
			panic(fmt.Sprintf("failed to load actor system config: %v", err))
		}
	}
	return instance
}

// LoadFrom reads and unmarshals a Config from path without touching the
// package-level cache, for callers (tests, alternate entrypoints) that want
// their own instance.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}
	return &cfg, nil
}
