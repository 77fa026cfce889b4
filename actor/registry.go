package actor

import "sync"

// registry is the identity/alias/path/watcher lookup surface shared across
// workers. Reads take a read lock (cheap, concurrent); writes take a short
// critical section, per spec §5's "lock-free reads and short critical
// sections for writes".
type registry struct {
	cellsMu sync.RWMutex
	cells   map[Identity]*cell

	pseudoMu sync.RWMutex
	pseudos  map[Identity]*pseudoCell

	aliasMu sync.RWMutex
	aliases map[string]map[Identity]struct{}

	pathMu       sync.RWMutex
	pathToID     map[string]Identity
	idToPath     map[Identity]string

	watchMu    sync.Mutex
	watchersOf map[Identity]map[Identity]struct{}
}

func newRegistry() *registry {
	return &registry{
		cells:      make(map[Identity]*cell),
		pseudos:    make(map[Identity]*pseudoCell),
		aliases:    make(map[string]map[Identity]struct{}),
		pathToID:   make(map[string]Identity),
		idToPath:   make(map[Identity]string),
		watchersOf: make(map[Identity]map[Identity]struct{}),
	}
}

// register makes c visible to lookups. Callers must have already linked c
// into its parent's child set before calling this, so that a cell is never
// observable before its parent knows about it (spec §4.1).
func (r *registry) register(c *cell, path string) {
	r.cellsMu.Lock()
	r.cells[c.id] = c
	r.cellsMu.Unlock()

	if path != "" {
		r.pathMu.Lock()
		r.pathToID[path] = c.id
		r.idToPath[c.id] = path
		r.pathMu.Unlock()
	}
}

// unregister removes alias and path bindings before releasing the cell
// itself, per spec §4.1.
func (r *registry) unregister(id Identity) {
	r.aliasMu.Lock()
	for alias, set := range r.aliases {
		if _, ok := set[id]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(r.aliases, alias)
			}
		}
	}
	r.aliasMu.Unlock()

	r.pathMu.Lock()
	if p, ok := r.idToPath[id]; ok {
		delete(r.pathToID, p)
		delete(r.idToPath, id)
	}
	r.pathMu.Unlock()

	r.cellsMu.Lock()
	delete(r.cells, id)
	r.cellsMu.Unlock()

	r.watchMu.Lock()
	delete(r.watchersOf, id)
	r.watchMu.Unlock()
}

func (r *registry) lookup(id Identity) *cell {
	r.cellsMu.RLock()
	defer r.cellsMu.RUnlock()
	return r.cells[id]
}

// snapshotCells returns every currently registered cell, for shutdown
// enumeration of top-level actors.
func (r *registry) snapshotCells() []*cell {
	r.cellsMu.RLock()
	defer r.cellsMu.RUnlock()
	out := make([]*cell, 0, len(r.cells))
	for _, c := range r.cells {
		out = append(out, c)
	}
	return out
}

func (r *registry) registerPseudo(p *pseudoCell) {
	r.pseudoMu.Lock()
	r.pseudos[p.id] = p
	r.pseudoMu.Unlock()
}

func (r *registry) unregisterPseudo(id Identity) {
	r.pseudoMu.Lock()
	delete(r.pseudos, id)
	r.pseudoMu.Unlock()
}

func (r *registry) lookupPseudo(id Identity) *pseudoCell {
	r.pseudoMu.RLock()
	defer r.pseudoMu.RUnlock()
	return r.pseudos[id]
}

func (r *registry) setAlias(id Identity, alias string) {
	r.aliasMu.Lock()
	defer r.aliasMu.Unlock()
	set, ok := r.aliases[alias]
	if !ok {
		set = make(map[Identity]struct{})
		r.aliases[alias] = set
	}
	set[id] = struct{}{}
}

// lookupByAlias picks an identity out of the alias's bound set. Selection
// is arbitrary but deterministic given equal set contents: the
// lexicographically smallest identity wins (spec §9 open question).
func (r *registry) lookupByAlias(alias string) (Identity, bool) {
	r.aliasMu.RLock()
	defer r.aliasMu.RUnlock()
	set, ok := r.aliases[alias]
	if !ok || len(set) == 0 {
		return NilIdentity, false
	}
	var best Identity
	first := true
	for id := range set {
		if first || id.Less(best) {
			best = id
			first = false
		}
	}
	return best, true
}

func (r *registry) lookupByPath(path string) (Identity, bool) {
	r.pathMu.RLock()
	defer r.pathMu.RUnlock()
	id, ok := r.pathToID[path]
	return id, ok
}

func (r *registry) pathOf(id Identity) string {
	r.pathMu.RLock()
	defer r.pathMu.RUnlock()
	return r.idToPath[id]
}

func (r *registry) addWatcher(target, watcher Identity) {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	set, ok := r.watchersOf[target]
	if !ok {
		set = make(map[Identity]struct{})
		r.watchersOf[target] = set
	}
	set[watcher] = struct{}{}
}

func (r *registry) removeWatcher(target, watcher Identity) {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	if set, ok := r.watchersOf[target]; ok {
		delete(set, watcher)
		if len(set) == 0 {
			delete(r.watchersOf, target)
		}
	}
}

// watchersOfTarget snapshots the identities currently watching target. The
// caller owns unregistering target before or after notifying, since the
// watchersOf entry is dropped wholesale by unregister.
func (r *registry) watchersOfTarget(target Identity) []Identity {
	r.watchMu.Lock()
	defer r.watchMu.Unlock()
	set := r.watchersOf[target]
	out := make([]Identity, 0, len(set))
	for w := range set {
		out = append(out, w)
	}
	return out
}
