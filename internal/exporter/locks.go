package exporter

import "sync"

// nameLocks serializes writers of the same display name within a target.
//
// A lock is held from Open until the sink commits or aborts, so two exports resolving to one file never
// interleave their replace, write and publish steps.
type nameLocks struct {
	mu    sync.Mutex
	locks map[string]*nameLock
}

type nameLock struct {
	mu   sync.Mutex
	refs int
}

// lock blocks until name is free and returns the function releasing it. The release is idempotent.
func (l *nameLocks) lock(name string) func() {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = make(map[string]*nameLock)
	}
	nl, ok := l.locks[name]
	if !ok {
		nl = &nameLock{}
		l.locks[name] = nl
	}
	nl.refs++
	l.mu.Unlock()

	nl.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			nl.mu.Unlock()

			l.mu.Lock()
			defer l.mu.Unlock()
			if nl.refs--; nl.refs == 0 {
				delete(l.locks, name)
			}
		})
	}
}

// held reports how many callers hold or wait for name.
func (l *nameLocks) held(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if nl, ok := l.locks[name]; ok {
		return nl.refs
	}
	return 0
}
