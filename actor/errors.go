package actor

import "errors"

var (
	// ErrActorStopped is returned by System.Ask once the target cell has
	// already transitioned to STOPPED, instead of blocking until timeout.
	ErrActorStopped = errors.New("actor: cell is stopped")

	// ErrUnknownDest is the DeliveryFailure classification: the send's
	// destination has no registered cell. Fire-and-forget Send/SendViaAlias
	// route the message to the dead-letter sink instead; System.Ask, which
	// has a caller waiting on a reply, surfaces this error immediately
	// rather than waiting out the full timeout.
	ErrUnknownDest = errors.New("actor: destination not registered")

	// ErrUnknownAlias is returned when System.AskViaAlias resolves no
	// identity for the given alias.
	ErrUnknownAlias = errors.New("actor: alias not bound to any actor")

	// ErrInitializationFailed classifies a factory or PreStart failure; the
	// cell is never registered.
	ErrInitializationFailed = errors.New("actor: initialization failed")

	// ErrKilled marks a cell stopped via the internal Kill control message,
	// bypassing the normal supervision resume/restart decision.
	ErrKilled = errors.New("actor: killed")

	// ErrSystemShuttingDown is returned by actor spawning (AddActor,
	// AddSystemActor, Context.AddChild) attempted after System.Shutdown has
	// begun draining.
	ErrSystemShuttingDown = errors.New("actor: system is shutting down")

	// ErrNoPersistenceDriver is returned by Context.Persist/Recover when the
	// cell was not configured with a persistence.Driver.
	ErrNoPersistenceDriver = errors.New("actor: no persistence driver configured for this cell")

	// ErrAskTimeout is returned by System.Ask when no reply arrives within
	// the given timeout.
	ErrAskTimeout = errors.New("actor: ask timed out waiting for a reply")
)
