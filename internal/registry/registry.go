// Package registry holds the in-memory canonical entity map and its
// durable JSON representation.
package registry

import (
	"sort"
	"sync"

	"github.com/insuremap/exclusion-registry/internal/model"
)

// Registry owns the id -> entity map for one pipeline run. It is passed
// explicitly through the stages; there is no package-level state. The
// mutex exists for the geocode stage, where a bounded worker pool applies
// results while the checkpointer snapshots.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*model.Entity
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{entities: make(map[string]*model.Entity)}
}

// Get returns the entity for id, or nil.
func (r *Registry) Get(id string) *model.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[id]
}

// Put inserts or replaces the entity for id.
func (r *Registry) Put(id string, e *model.Entity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities[id] = e
}

// Delete removes the entity for id.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entities, id)
}

// Len returns the number of entities.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entities)
}

// IDs returns all entity ids in unspecified order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.entities))
	for id := range r.entities {
		ids = append(ids, id)
	}
	return ids
}

// Update runs fn against the entity for id under the write lock.
// No-op if the id is absent (the entity may have been merged away).
func (r *Registry) Update(id string, fn func(*model.Entity)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entities[id]; ok {
		fn(e)
	}
}

// ResolutionQueue returns the ids of entities the geocoder must visit:
// anything flagged by ingestion, anything without coordinates, and
// anything whose last attempt ended in a retryable tier.
func (r *Registry) ResolutionQueue() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var ids []string
	for id, e := range r.entities {
		switch {
		case e.NeedsResolution,
			!e.HasLocation(),
			e.Accuracy == model.AccuracyPending,
			e.Accuracy == model.AccuracyNoKey,
			e.Accuracy == model.AccuracyFailed:
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// Sorted returns a deep-copied snapshot of all entities in the
// deterministic output order, with each copy's source list sorted.
// Copying under the lock matters: checkpoint marshaling runs after the
// lock is released, concurrently with geocode workers mutating the live
// entities, so the snapshot must not share memory with them.
func (r *Registry) Sorted() []model.Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Entity, 0, len(r.entities))
	for _, e := range r.entities {
		c := *e
		c.ExcludedBy = append([]string(nil), e.ExcludedBy...)
		sort.Strings(c.ExcludedBy)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return model.Less(&out[i], &out[j]) })
	return out
}

// Stats summarizes the registry for status reporting.
type Stats struct {
	Total      int            `json:"total"`
	ByAccuracy map[string]int `json:"by_accuracy"`
	BySource   map[string]int `json:"by_source"`
	Unresolved int            `json:"unresolved"`
}

// Summarize computes aggregate counts across the registry.
func (r *Registry) Summarize() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s := Stats{
		Total:      len(r.entities),
		ByAccuracy: make(map[string]int),
		BySource:   make(map[string]int),
	}
	for _, e := range r.entities {
		s.ByAccuracy[string(e.Accuracy)]++
		for _, src := range e.ExcludedBy {
			s.BySource[src]++
		}
		if !e.Accuracy.Resolved() {
			s.Unresolved++
		}
	}
	return s
}
