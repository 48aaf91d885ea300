// Package jobslot enforces one long-running background job (import,
// purge, penalty recalculation) per tenant at a time. It mirrors the
// mutex-map-with-TTL shape of internal/middleware's rate limiter, swapped
// from a token-bucket per tenant to a simple held/free slot per tenant.
package jobslot

import (
	"sync"
	"time"
)

const staleAfter = 2 * time.Hour

type slot struct {
	heldBy    string
	heldSince time.Time
}

// Registry tracks which tenants currently have a background job running.
type Registry struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{slots: make(map[string]*slot)}
}

// TryAcquire claims the slot for tenantID under the given job label,
// reporting false if another job already holds it. A slot older than
// staleAfter is treated as abandoned and reclaimed, guarding against a
// crashed job leaving a tenant permanently locked out.
func (r *Registry) TryAcquire(tenantID, job string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, held := r.slots[tenantID]
	if held && time.Since(existing.heldSince) < staleAfter {
		return false
	}

	r.slots[tenantID] = &slot{heldBy: job, heldSince: time.Now()}
	return true
}

// Release frees tenantID's slot if it is currently held by job.
func (r *Registry) Release(tenantID, job string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.slots[tenantID]; ok && existing.heldBy == job {
		delete(r.slots, tenantID)
	}
}

// Holder returns the job label currently holding tenantID's slot, if any.
func (r *Registry) Holder(tenantID string) (job string, held bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.slots[tenantID]
	if !ok {
		return "", false
	}
	return existing.heldBy, true
}
