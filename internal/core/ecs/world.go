package ecs

import (
	"fmt"

	"github.com/l1jgo/engine/internal/core/event"
	"go.uber.org/zap"
)

// Options sizes the world's internal tables.
type Options struct {
	EntityCapacity       int
	DestroyQueueCapacity int
}

// World is the top-level ECS container. It owns the entity registry, the
// component pools and owner index, and borrows the event bus for lifecycle
// notifications. Structural changes are deferred: destroyed entities and
// removed components are reclaimed by Flush at the frame boundary.
type World struct {
	log      *zap.Logger
	bus      *event.Bus
	entities *EntityRegistry
	registry *Registry
	storage  *Storage
	codecs   *codecTable
}

func NewWorld(bus *event.Bus, log *zap.Logger, opts Options) *World {
	if log == nil {
		log = zap.NewNop()
	}
	return &World{
		log:      log,
		bus:      bus,
		entities: NewEntityRegistry(opts.EntityCapacity, opts.DestroyQueueCapacity),
		registry: NewRegistry(),
		storage:  NewStorage(opts.EntityCapacity),
		codecs:   newCodecTable(),
	}
}

func (w *World) Bus() *event.Bus           { return w.bus }
func (w *World) Entities() *EntityRegistry { return w.entities }
func (w *World) Registry() *Registry       { return w.registry }
func (w *World) Storage() *Storage         { return w.storage }
func (w *World) Logger() *zap.Logger       { return w.log }

// CreateEntity issues the next identifier and sends EntityCreated. The id is
// usable immediately.
func (w *World) CreateEntity() EntityID {
	ent := w.entities.create()
	sendEvent(w, EntityCreated{Entity: ent.id})
	return ent.id
}

// Alive reports whether id names an active entity (not pending destroy).
func (w *World) Alive(id EntityID) bool {
	return w.entities.Alive(id)
}

// Entity returns the record for id. Entities pending destruction are still
// returned so their last state can be inspected until the flush.
func (w *World) Entity(id EntityID) *Entity {
	ent := w.entities.Get(id)
	if ent == nil {
		w.log.Error(ErrEntityNotFound.Error(), zap.Uint64("entity", uint64(id)))
	}
	return ent
}

// DestroyEntity sends EntityDestroyed, detaches all of the entity's
// components and queues it for reclamation. Children are destroyed with it.
// Destroying an entity twice before the flush is a logged no-op.
func (w *World) DestroyEntity(id EntityID) bool {
	ent := w.entities.Get(id)
	if ent == nil {
		w.log.Error("destroy missing entity", zap.Uint64("entity", uint64(id)))
		return false
	}
	if ent.state != StateActive {
		w.log.Warn("entity already pending destroy", zap.Uint64("entity", uint64(id)))
		return false
	}
	sendEvent(w, EntityDestroyed{
		Entity:     id,
		Parent:     ent.parent,
		Components: uint32(w.storage.Count(id)),
	})
	w.storage.RemoveAll(w, id)
	w.entities.markDestroyed(ent)

	for _, child := range ent.Children() {
		if w.entities.Alive(child) {
			w.DestroyEntity(child)
		}
	}
	return true
}

// DestroyRemovedComponents reclaims every component removed since the last
// call. Idempotent.
func (w *World) DestroyRemovedComponents() int {
	return w.storage.DestroyRemovedComponents(w.registry)
}

// RemoveDestroyedEntities reclaims the records of destroyed entities.
// Idempotent.
func (w *World) RemoveDestroyedEntities() int {
	return w.entities.flush()
}

// Flush runs both frame-boundary reclamation passes, components first.
func (w *World) Flush() (components, entities int) {
	components = w.DestroyRemovedComponents()
	entities = w.RemoveDestroyedEntities()
	return components, entities
}

// Components returns the refs owned by id, for serializers and importers.
func (w *World) Components(id EntityID) []ComponentRef {
	return w.storage.Components(id)
}

// EachComponent calls fn with the pool and boxed *T of every component
// attached to id, in attach order.
func (w *World) EachComponent(id EntityID, fn func(pool ComponentPool, value any)) {
	for _, ref := range w.storage.Components(id) {
		pool := w.registry.pools[ref.Type]
		fn(pool, pool.Value(ref.ID))
	}
}

// SetParent attaches child under parent. InvalidEntity as parent detaches
// child to the root. Cycles and inactive entities are rejected.
func (w *World) SetParent(child, parent EntityID) error {
	c := w.entities.Get(child)
	if c == nil || c.state != StateActive {
		return fmt.Errorf("set parent of %d: %w", child, ErrEntityNotFound)
	}
	if parent != InvalidEntity {
		p := w.entities.Get(parent)
		if p == nil || p.state != StateActive {
			return fmt.Errorf("set parent of %d to %d: %w", child, parent, ErrEntityNotFound)
		}
		for a := parent; a != InvalidEntity; {
			if a == child {
				w.log.Error("entity hierarchy cycle rejected",
					zap.Uint64("child", uint64(child)),
					zap.Uint64("parent", uint64(parent)))
				return fmt.Errorf("set parent of %d to %d: %w", child, parent, ErrInvalidParent)
			}
			anc := w.entities.Get(a)
			if anc == nil {
				break
			}
			a = anc.parent
		}
	}
	if old := w.entities.Get(c.parent); old != nil {
		old.removeChild(child)
	}
	c.parent = parent
	if p := w.entities.Get(parent); p != nil {
		p.children = append(p.children, child)
	}
	return nil
}

// SetName registers a debug name for id. Names are compared after Unicode
// normalisation and case folding; a clash is rejected with an error log.
func (w *World) SetName(id EntityID, name string) error {
	ent := w.entities.Get(id)
	if ent == nil || ent.state != StateActive {
		return fmt.Errorf("set name %q: %w", name, ErrEntityNotFound)
	}
	key := w.entities.fold(name)
	if owner, taken := w.entities.names[key]; taken && owner != id {
		w.log.Error("entity name already registered",
			zap.String("name", name),
			zap.Uint64("entity", uint64(id)),
			zap.Uint64("owner", uint64(owner)))
		return fmt.Errorf("set name %q: %w", name, ErrNameTaken)
	}
	if ent.name != "" {
		delete(w.entities.names, w.entities.fold(ent.name))
	}
	ent.name = name
	if name != "" {
		w.entities.names[key] = id
	}
	return nil
}

// FindByName returns the entity registered under name, or InvalidEntity.
func (w *World) FindByName(name string) EntityID {
	if id, ok := w.entities.names[w.entities.fold(name)]; ok {
		return id
	}
	return InvalidEntity
}

func sendEvent[T any](w *World, ev T) {
	if w.bus == nil {
		return
	}
	event.Send(w.bus, ev)
}
