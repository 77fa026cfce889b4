package actor

// Module is the uniform lifecycle every internal subsystem (dispatcher,
// timer service, resource executor, watchdog) exposes to the System, so
// startup and shutdown can be driven generically instead of one bespoke
// call per subsystem. Adapted from the teacher's IModule/IServer
// lifecycle interfaces.
type Module interface {
	Start() error
	Stop()
	Name() string
}
