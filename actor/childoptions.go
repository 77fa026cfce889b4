package actor

import "github.com/phuhao00/actorcore/persistence"

// childConfig accumulates ChildOption values applied to a single AddChild
// or AddChildren call.
type childConfig struct {
	factory       Factory
	name          string
	alias         string
	strategy      SupervisorStrategy
	group         GroupAffinity
	resource      bool
	persistDriver persistence.Driver
}

// ChildOption configures a single spawn; AddChild/AddChildren/AddActor/
// AddSystemActor all take a variadic list of these.
type ChildOption func(*childConfig)

// WithName gives the spawned cell a stable name used to build its path
// (parent path + "/" + name). Unnamed children get a generated name.
func WithName(name string) ChildOption {
	return func(c *childConfig) { c.name = name }
}

// WithAlias additionally binds the spawned cell under alias, so
// System.SendViaAlias / Context.SendViaAlias can reach it without knowing
// its identity.
func WithAlias(alias string) ChildOption {
	return func(c *childConfig) { c.alias = alias }
}

// WithStrategy overrides the default RestartStrategy for this child.
func WithStrategy(s SupervisorStrategy) ChildOption {
	return func(c *childConfig) { c.strategy = s }
}

// WithGroupAffinity controls how AddSystemActor spreads a group's instances
// across workers. It has no effect on a single AddChild call.
func WithGroupAffinity(a GroupAffinity) ChildOption {
	return func(c *childConfig) { c.group = a }
}

// AsResourceActor routes this cell's activations through the resource
// executor (spec §4.7) instead of the fixed worker pool, for actors whose
// Receive does blocking I/O.
func AsResourceActor() ChildOption {
	return func(c *childConfig) { c.resource = true }
}

// WithPersistence attaches driver to the spawned cell, making
// Context.Persist/Recover available inside its Receive.
func WithPersistence(driver persistence.Driver) ChildOption {
	return func(c *childConfig) { c.persistDriver = driver }
}

func newChildConfig(factory Factory, opts ...ChildOption) childConfig {
	cfg := childConfig{factory: factory}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}
