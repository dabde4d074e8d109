package ecs

import "reflect"

// ComponentType is the dense tag of a registered component type.
type ComponentType uint32

// ComponentID addresses one slot of a component pool: the lower 32 bits are
// the slot index, the upper 32 bits its generation. Generations start at 1 so
// the zero value never names a component.
type ComponentID uint64

func newComponentID(index, generation uint32) ComponentID {
	return ComponentID(uint64(generation)<<32 | uint64(index))
}

func (id ComponentID) Index() uint32      { return uint32(id) }
func (id ComponentID) Generation() uint32 { return uint32(id >> 32) }
func (id ComponentID) IsZero() bool       { return id == 0 }

// ComponentRef is an owner-index entry: which pool, which slot.
type ComponentRef struct {
	Type ComponentType
	ID   ComponentID
}

// ComponentPool is the type-erased view of a Pool[T]. Each pool is the sole
// authority for constructing and destroying components of its type.
type ComponentPool interface {
	Type() ComponentType
	Name() string
	GoType() reflect.Type
	Len() int
	Owner(id ComponentID) EntityID
	// Value returns a *T boxed in an interface, or nil when id is stale.
	Value(id ComponentID) any
	// DestroyComponent reclaims the slot. Stale ids are ignored.
	DestroyComponent(id ComponentID) bool

	detach(id ComponentID)
	sendRemoved(w *World, owner EntityID, id ComponentID)
}

const chunkSize = 256

type slotState uint8

const (
	slotFree slotState = iota
	slotLive
	slotDetached // removed from the owner index, awaiting destruction
)

type slot[T any] struct {
	value T
	owner EntityID
	gen   uint32
	state slotState
}

// Pool stores every component of type T in fixed-size chunks, so pointers to
// components stay valid while the pool grows.
type Pool[T any] struct {
	typ    ComponentType
	name   string
	rtype  reflect.Type
	chunks []*[chunkSize]slot[T]
	next   uint32
	free   []uint32
	live   int
}

func newPool[T any](typ ComponentType, name string) *Pool[T] {
	return &Pool[T]{
		typ:   typ,
		name:  name,
		rtype: reflect.TypeOf((*T)(nil)).Elem(),
		free:  make([]uint32, 0, 64),
	}
}

func (p *Pool[T]) Type() ComponentType  { return p.typ }
func (p *Pool[T]) Name() string         { return p.name }
func (p *Pool[T]) GoType() reflect.Type { return p.rtype }

// Len returns the number of attached components.
func (p *Pool[T]) Len() int { return p.live }

func (p *Pool[T]) slot(index uint32) *slot[T] {
	return &p.chunks[index/chunkSize][index%chunkSize]
}

func (p *Pool[T]) resolve(id ComponentID) *slot[T] {
	idx := id.Index()
	if id.IsZero() || idx >= p.next {
		return nil
	}
	s := p.slot(idx)
	if s.state == slotFree || s.gen != id.Generation() {
		return nil
	}
	return s
}

func (p *Pool[T]) create(owner EntityID, v T) (ComponentID, *T) {
	var idx uint32
	if n := len(p.free); n > 0 {
		idx = p.free[n-1]
		p.free = p.free[:n-1]
	} else {
		idx = p.next
		p.next++
		if int(idx/chunkSize) >= len(p.chunks) {
			p.chunks = append(p.chunks, new([chunkSize]slot[T]))
		}
	}
	s := p.slot(idx)
	s.gen++
	if s.gen == 0 {
		s.gen = 1 // zero id is reserved
	}
	s.value = v
	s.owner = owner
	s.state = slotLive
	p.live++
	return newComponentID(idx, s.gen), &s.value
}

// Get returns the component for id, including one detached this frame.
func (p *Pool[T]) Get(id ComponentID) *T {
	s := p.resolve(id)
	if s == nil {
		return nil
	}
	return &s.value
}

func (p *Pool[T]) Owner(id ComponentID) EntityID {
	s := p.resolve(id)
	if s == nil {
		return InvalidEntity
	}
	return s.owner
}

func (p *Pool[T]) Value(id ComponentID) any {
	s := p.resolve(id)
	if s == nil {
		return nil
	}
	return &s.value
}

func (p *Pool[T]) detach(id ComponentID) {
	s := p.resolve(id)
	if s == nil || s.state != slotLive {
		return
	}
	s.state = slotDetached
	p.live--
}

func (p *Pool[T]) DestroyComponent(id ComponentID) bool {
	s := p.resolve(id)
	if s == nil {
		return false
	}
	if s.state == slotLive {
		p.live--
	}
	var zero T
	s.value = zero
	s.owner = InvalidEntity
	s.state = slotFree
	p.free = append(p.free, id.Index())
	return true
}

func (p *Pool[T]) sendRemoved(w *World, owner EntityID, id ComponentID) {
	sendEvent(w, ComponentRemoved[T]{Entity: owner, Component: id})
}

// Each calls fn for every attached component. Components added by fn are not
// visited; components removed by fn are skipped once detached.
func (p *Pool[T]) Each(fn func(EntityID, *T)) {
	n := p.next
	for i := uint32(0); i < n; i++ {
		s := p.slot(i)
		if s.state != slotLive {
			continue
		}
		fn(s.owner, &s.value)
	}
}
