package sandbox

import "sync"

// The scope lock serializes scope lifetimes process-wide. It is created on
// first use and lives for the process lifetime. A goroutine that panics while
// holding the lock does not poison it: the deferred Release on the owning
// scope unlocks as usual.
var (
	scopeMuOnce sync.Once
	scopeMu     *sync.Mutex
)

func scopeLock() *sync.Mutex {
	scopeMuOnce.Do(func() {
		scopeMu = new(sync.Mutex)
	})
	return scopeMu
}

// lockToken represents sole possession of the scope lock. It is held by
// exactly one scope at a time and released when that scope's lifetime ends.
// Release is idempotent.
type lockToken struct {
	once sync.Once
	mu   *sync.Mutex
}

// acquireScopeLock blocks until the scope lock is free, then returns the
// owning token.
func acquireScopeLock() *lockToken {
	mu := scopeLock()
	mu.Lock()
	return &lockToken{mu: mu}
}

func (t *lockToken) Release() {
	t.once.Do(t.mu.Unlock)
}
