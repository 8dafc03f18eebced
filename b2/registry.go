package b2

import (
	"sync"
	"time"
)

// Registry coordinates server-instructed throttling and permanent account
// shutdown across every client that shares it. The server hands out one
// Retry-After delay at a time; the registry keeps the latest deadline per
// account so that all clients for that account back off together, and it
// remembers accounts the server has shut down so no further requests are
// sent for them.
//
// All methods hold the registry mutex only for a map lookup or update.
// Sleeping out a deadline is the caller's job and happens outside the
// lock, so waiting clients never block others from reading or raising the
// deadline.
type Registry struct {
	mu       sync.Mutex
	deadline map[string]time.Time
	shutdown map[string]struct{}
}

// NewRegistry creates an empty registry. Clients that should coordinate
// must share one registry value; see WithRegistry.
func NewRegistry() *Registry {
	return &Registry{
		deadline: make(map[string]time.Time),
		shutdown: make(map[string]struct{}),
	}
}

// defaultRegistry is shared by every client not handed its own registry,
// so independent clients for the same account still cooperate.
var defaultRegistry = NewRegistry()

// Shutdown permanently blocks the account for the rest of the process.
// There is no way to undo it.
func (r *Registry) Shutdown(accountID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdown[accountID] = struct{}{}
}

// IsShutdown reports whether the account has been shut down.
func (r *Registry) IsShutdown(accountID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.shutdown[accountID]
	return ok
}

// Raise moves the account's throttle deadline forward to until. The
// deadline never moves backward, so under concurrent writers the largest
// observed delay wins regardless of arrival order. Reports whether the
// stored value changed.
func (r *Registry) Raise(accountID string, until time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.deadline[accountID]
	if ok && !until.After(current) {
		return false
	}
	r.deadline[accountID] = until
	return true
}

// Deadline returns the account's current throttle deadline, if any.
func (r *Registry) Deadline(accountID string) (time.Time, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	until, ok := r.deadline[accountID]
	return until, ok
}

// ClearIf removes the account's deadline only if it still equals the
// value the caller originally observed. A newer deadline raised by
// another client while the caller was sleeping survives.
func (r *Registry) ClearIf(accountID string, observed time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.deadline[accountID]
	if !ok || !current.Equal(observed) {
		return false
	}
	delete(r.deadline, accountID)
	return true
}
