package ecs

import (
	"math"
	"slices"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// EntityID is an opaque, monotonically assigned handle. Values are never
// handed out twice, so an id cannot alias a newer entity.
type EntityID uint64

// InvalidEntity is the "none" sentinel.
const InvalidEntity EntityID = math.MaxUint64

func (id EntityID) Valid() bool { return id != InvalidEntity && id != 0 }

// State is the lifecycle stage of an entity record.
type State uint8

const (
	StateActive         State = iota + 1 // created, mutable by systems
	StatePendingDestroy                  // destroy requested, reclaimed at flush
)

func (s State) String() string {
	switch s {
	case StateActive:
		return "active"
	case StatePendingDestroy:
		return "pending_destroy"
	default:
		return "free"
	}
}

// Entity is the registry's record for one entity. Records are recycled after
// the flush that reclaims them; do not keep a *Entity across frames.
type Entity struct {
	id       EntityID
	state    State
	parent   EntityID
	children []EntityID
	name     string
}

func (e *Entity) ID() EntityID      { return e.id }
func (e *Entity) State() State      { return e.state }
func (e *Entity) Parent() EntityID  { return e.parent }
func (e *Entity) Name() string      { return e.name }
func (e *Entity) NumChildren() int  { return len(e.children) }
func (e *Entity) Destroying() bool  { return e.state == StatePendingDestroy }
func (e *Entity) Children() []EntityID {
	out := make([]EntityID, len(e.children))
	copy(out, e.children)
	return out
}

func (e *Entity) removeChild(id EntityID) {
	for i, c := range e.children {
		if c == id {
			e.children = append(e.children[:i], e.children[i+1:]...)
			return
		}
	}
}

// EntityRegistry allocates identifiers, owns entity records and keeps the
// deferred destruction queue. Reclaimed records go to a free list.
type EntityRegistry struct {
	nextID  EntityID
	byID    map[EntityID]*Entity
	free    []*Entity
	pending []EntityID
	names   map[string]EntityID
	folder  cases.Caser
}

func NewEntityRegistry(capacity, destroyCapacity int) *EntityRegistry {
	if capacity <= 0 {
		capacity = 1024
	}
	if destroyCapacity <= 0 {
		destroyCapacity = 64
	}
	return &EntityRegistry{
		nextID:  1,
		byID:    make(map[EntityID]*Entity, capacity),
		free:    make([]*Entity, 0, 256),
		pending: make([]EntityID, 0, destroyCapacity),
		names:   make(map[string]EntityID, 64),
		folder:  cases.Fold(),
	}
}

func (r *EntityRegistry) create() *Entity {
	var ent *Entity
	if n := len(r.free); n > 0 {
		ent = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		ent = &Entity{children: make([]EntityID, 0, 4)}
	}
	ent.id = r.nextID
	ent.state = StateActive
	ent.parent = InvalidEntity
	r.nextID++
	r.byID[ent.id] = ent
	return ent
}

// Get returns the record for id, including entities pending destruction, or
// nil once the record has been reclaimed.
func (r *EntityRegistry) Get(id EntityID) *Entity {
	return r.byID[id]
}

// Alive reports whether id names an active entity.
func (r *EntityRegistry) Alive(id EntityID) bool {
	ent := r.byID[id]
	return ent != nil && ent.state == StateActive
}

// Active returns the ids of every active entity in creation order.
func (r *EntityRegistry) Active() []EntityID {
	ids := make([]EntityID, 0, len(r.byID))
	for id, ent := range r.byID {
		if ent.state == StateActive {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

// Len returns the number of records, pending ones included.
func (r *EntityRegistry) Len() int { return len(r.byID) }

// PendingDestroy returns the number of entities waiting for the flush.
func (r *EntityRegistry) PendingDestroy() int { return len(r.pending) }

func (r *EntityRegistry) markDestroyed(ent *Entity) {
	ent.state = StatePendingDestroy
	r.pending = append(r.pending, ent.id)
}

// flush reclaims every record queued by markDestroyed.
func (r *EntityRegistry) flush() int {
	n := len(r.pending)
	for _, id := range r.pending {
		ent := r.byID[id]
		if ent == nil {
			continue
		}
		if p := r.byID[ent.parent]; p != nil {
			p.removeChild(id)
		}
		if ent.name != "" {
			key := r.fold(ent.name)
			if r.names[key] == id {
				delete(r.names, key)
			}
		}
		delete(r.byID, id)

		ent.id = InvalidEntity
		ent.state = 0
		ent.parent = InvalidEntity
		ent.children = ent.children[:0]
		ent.name = ""
		r.free = append(r.free, ent)
	}
	r.pending = r.pending[:0]
	return n
}

func (r *EntityRegistry) fold(name string) string {
	return r.folder.String(norm.NFC.String(name))
}
