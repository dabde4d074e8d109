package ecs

import (
	"reflect"

	"go.uber.org/zap"
)

// Storage holds the owner index (entity → component refs) and the removal
// queue. Detaching a component from the index and destroying it in its pool
// are separate steps: the index is updated immediately, the pool is only
// asked to reclaim the slot at DestroyRemovedComponents.
type Storage struct {
	owners  map[EntityID][]ComponentRef
	removed []ComponentRef
}

func NewStorage(capacity int) *Storage {
	if capacity <= 0 {
		capacity = 1024
	}
	return &Storage{
		owners:  make(map[EntityID][]ComponentRef, capacity),
		removed: make([]ComponentRef, 0, 64),
	}
}

func (s *Storage) find(e EntityID, typ ComponentType) (ComponentRef, bool) {
	for _, ref := range s.owners[e] {
		if ref.Type == typ {
			return ref, true
		}
	}
	return ComponentRef{}, false
}

func (s *Storage) attach(e EntityID, ref ComponentRef) {
	s.owners[e] = append(s.owners[e], ref)
}

func (s *Storage) unlink(e EntityID, ref ComponentRef) {
	refs := s.owners[e]
	for i, r := range refs {
		if r == ref {
			refs = append(refs[:i], refs[i+1:]...)
			break
		}
	}
	if len(refs) == 0 {
		delete(s.owners, e)
		return
	}
	s.owners[e] = refs
}

// Components returns a copy of the refs owned by e, in attach order.
func (s *Storage) Components(e EntityID) []ComponentRef {
	refs := s.owners[e]
	out := make([]ComponentRef, len(refs))
	copy(out, refs)
	return out
}

// Count returns the number of components attached to e.
func (s *Storage) Count(e EntityID) int { return len(s.owners[e]) }

// PendingRemoval returns the number of components waiting for the flush.
func (s *Storage) PendingRemoval() int { return len(s.removed) }

// Add constructs v in T's pool and attaches it to e. It fails, returning nil,
// when e is not active or already owns a T.
func Add[T any](w *World, e EntityID, v T) *T {
	pool := PoolOf[T](w)
	if !w.entities.Alive(e) {
		w.log.Error("add component to missing entity",
			zap.Uint64("entity", uint64(e)),
			zap.String("component", pool.name))
		return nil
	}
	if _, exists := w.storage.find(e, pool.typ); exists {
		w.log.Error(ErrComponentExists.Error(),
			zap.Uint64("entity", uint64(e)),
			zap.String("component", pool.name))
		return nil
	}
	id, c := pool.create(e, v)
	w.storage.attach(e, ComponentRef{Type: pool.typ, ID: id})
	sendEvent(w, ComponentAdded[T]{Entity: e, Component: id})
	return c
}

// Get returns e's T, or nil (with an error log) when e has none.
func Get[T any](w *World, e EntityID) *T {
	c, ok := find[T](w, e)
	if !ok {
		w.log.Error(ErrComponentNotFound.Error(),
			zap.Uint64("entity", uint64(e)),
			zap.String("component", componentName[T](w)))
		return nil
	}
	return c
}

// Has reports whether e currently owns a T. Misses are not logged.
func Has[T any](w *World, e EntityID) bool {
	_, ok := find[T](w, e)
	return ok
}

func find[T any](w *World, e EntityID) (*T, bool) {
	pool, ok := lookupPool[T](w)
	if !ok {
		return nil, false
	}
	ref, ok := w.storage.find(e, pool.typ)
	if !ok {
		return nil, false
	}
	return pool.Get(ref.ID), true
}

// Lookup resolves a component by id rather than by owner. It keeps working
// for components removed this frame, exposing their final state until
// DestroyRemovedComponents runs.
func Lookup[T any](w *World, id ComponentID) *T {
	pool, ok := lookupPool[T](w)
	if !ok {
		return nil
	}
	return pool.Get(id)
}

// Remove detaches e's T. The removal notification is sent first, then the
// component becomes unreachable through e; its memory is reclaimed at flush.
func Remove[T any](w *World, e EntityID) bool {
	pool, ok := lookupPool[T](w)
	var ref ComponentRef
	if ok {
		ref, ok = w.storage.find(e, pool.typ)
	}
	if !ok {
		w.log.Error(ErrComponentNotFound.Error(),
			zap.Uint64("entity", uint64(e)),
			zap.String("component", componentName[T](w)))
		return false
	}
	pool.sendRemoved(w, e, ref.ID)
	w.storage.detach(w, e, ref)
	return true
}

func (s *Storage) detach(w *World, e EntityID, ref ComponentRef) {
	s.unlink(e, ref)
	w.registry.pools[ref.Type].detach(ref.ID)
	s.removed = append(s.removed, ref)
}

// RemoveAll detaches every component of e in one pass and queues them all
// for destruction. Used when e is destroyed.
func (s *Storage) RemoveAll(w *World, e EntityID) int {
	refs := s.owners[e]
	if len(refs) == 0 {
		return 0
	}
	for _, ref := range refs {
		w.registry.pools[ref.Type].sendRemoved(w, e, ref.ID)
	}
	for _, ref := range refs {
		w.registry.pools[ref.Type].detach(ref.ID)
		s.removed = append(s.removed, ref)
	}
	delete(s.owners, e)
	return len(refs)
}

// DestroyRemovedComponents asks each owning pool to reclaim the queued
// components. Safe to call repeatedly; an empty queue is a no-op.
func (s *Storage) DestroyRemovedComponents(r *Registry) int {
	n := 0
	for _, ref := range s.removed {
		if r.pools[ref.Type].DestroyComponent(ref.ID) {
			n++
		}
	}
	clear(s.removed)
	s.removed = s.removed[:0]
	return n
}

func componentName[T any](w *World) string {
	if pool, ok := lookupPool[T](w); ok {
		return pool.name
	}
	return reflect.TypeOf((*T)(nil)).Elem().String()
}
