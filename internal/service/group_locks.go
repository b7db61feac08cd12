package service

import "sync"

// groupLocks serializes writers of the same group while letting different
// groups run in parallel. Engine runs and whole-map writers take the
// exclusive lock since they read every group's cells.
type groupLocks struct {
	all   sync.RWMutex
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newGroupLocks() *groupLocks {
	return &groupLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the group's writer lock and returns its release func.
func (g *groupLocks) lock(groupKey string) func() {
	g.all.RLock()
	g.mu.Lock()
	m, ok := g.locks[groupKey]
	if !ok {
		m = &sync.Mutex{}
		g.locks[groupKey] = m
	}
	g.mu.Unlock()
	m.Lock()
	return func() {
		m.Unlock()
		g.all.RUnlock()
	}
}

// lockAll excludes every group writer.
func (g *groupLocks) lockAll() func() {
	g.all.Lock()
	return g.all.Unlock
}
