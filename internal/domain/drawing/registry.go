package drawing

import (
	"sync"
	"time"
)

type entry struct {
	drawing Drawing
	removal *time.Timer
}

// Registry is the in-memory source of truth for every drawing currently
// eligible for display. It owns the auto-removal timers: a drawing has at
// most one pending timer, and removal through any path cancels it.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
	order   []string
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
	}
}

// Insert registers a freshly accepted drawing. Re-inserting an existing id
// is ignored.
func (r *Registry) Insert(d Drawing) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[d.ID]; ok {
		return
	}
	r.entries[d.ID] = &entry{drawing: d}
	r.order = append(r.order, d.ID)
}

// Get returns a copy of the drawing, if present.
func (r *Registry) Get(id string) (Drawing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Drawing{}, false
	}
	return e.drawing, true
}

// Flag marks a drawing as suspect with the accumulated reason text.
// Returns false when the drawing is no longer present.
func (r *Registry) Flag(id, reason string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.drawing.Flagged = true
	e.drawing.Reason = reason
	return true
}

// Pardon clears the flag and cancels any pending auto-removal timer,
// returning the drawing to its clean terminal state.
func (r *Registry) Pardon(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	e.drawing.Flagged = false
	e.drawing.Reason = ""
	if e.removal != nil {
		e.removal.Stop()
		e.removal = nil
	}
	return true
}

// Remove deletes the drawing and cancels its timer. Removal is the only
// destruction path; callers treat a false return as an idempotent no-op.
func (r *Registry) Remove(id string) (Drawing, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return Drawing{}, false
	}
	if e.removal != nil {
		e.removal.Stop()
		e.removal = nil
	}
	delete(r.entries, id)
	for i, oid := range r.order {
		if oid == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return e.drawing, true
}

// ScheduleRemoval arms the single auto-removal timer for a drawing. An
// existing timer is replaced. fire runs on its own goroutine once the
// delay elapses; the drawing may have been pardoned or removed by then,
// so fire must tolerate a missing id.
func (r *Registry) ScheduleRemoval(id string, delay time.Duration, fire func(id string)) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return false
	}
	if e.removal != nil {
		e.removal.Stop()
	}
	e.removal = time.AfterFunc(delay, func() {
		fire(id)
	})
	return true
}

// List returns copies of all live drawings in submission order.
func (r *Registry) List() []Drawing {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Drawing, 0, len(r.order))
	for _, id := range r.order {
		if e, ok := r.entries[id]; ok {
			out = append(out, e.drawing)
		}
	}
	return out
}

// Len reports the number of live drawings.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Shutdown stops every pending timer. Drawings stay in memory; the
// process is going away anyway.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		if e.removal != nil {
			e.removal.Stop()
			e.removal = nil
		}
	}
}
