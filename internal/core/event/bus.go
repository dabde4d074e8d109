package event

import (
	"unsafe"

	"github.com/l1jgo/engine/internal/core/arena"
	"go.uber.org/zap"
)

// DefaultDispatchLimit caps deliveries per DispatchEvents call when the caller
// does not configure one.
const DefaultDispatchLimit = 1 << 16

type subscriber struct {
	recv    any
	code    uintptr
	call    func(unsafe.Pointer)
	removed bool
}

type pending struct {
	typ Type
	ptr unsafe.Pointer
}

// Bus is a single-threaded event bus. Events sent during a frame are copied
// into a fixed-capacity arena and delivered in enqueue order by
// DispatchEvents, which also delivers anything handlers send while it runs.
// The arena is reset once the queue drains.
type Bus struct {
	reg   *Registry
	arena *arena.Arena
	log   *zap.Logger

	subs  [][]*subscriber // indexed by Type
	queue []pending

	limit       int
	dispatching bool
	dirty       bool
	dropped     int
}

func NewBus(reg *Registry, a *arena.Arena, log *zap.Logger) *Bus {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bus{
		reg:   reg,
		arena: a,
		log:   log,
		subs:  make([][]*subscriber, 0, 32),
		queue: make([]pending, 0, 256),
		limit: DefaultDispatchLimit,
	}
}

// SetDispatchLimit bounds the number of events a single DispatchEvents call
// delivers. Events past the limit are dropped with a warning. n <= 0 removes
// the bound, leaving arena capacity as the only limit.
func (b *Bus) SetDispatchLimit(n int) { b.limit = n }

func (b *Bus) Registry() *Registry { return b.reg }

// Send copies ev into arena memory and queues it for the next dispatch.
// When the arena is exhausted the event is dropped, a warning is logged and
// false is returned. Delivery is best-effort under memory pressure.
func Send[T any](b *Bus, ev T) bool {
	t := Tag[T](b.reg)
	p := arena.Make[T](b.arena)
	if p == nil {
		b.dropped++
		b.log.Warn("event arena exhausted, dropping event",
			zap.String("event", b.reg.Name(t)),
			zap.Int("arena_bytes", b.arena.Cap()),
			zap.Int("pending", len(b.queue)))
		return false
	}
	*p = ev
	b.queue = append(b.queue, pending{typ: t, ptr: unsafe.Pointer(p)})
	return true
}

// Subscribe adds d to the subscribers of T. An equal delegate already
// subscribed is rejected with an error log.
func Subscribe[T any](b *Bus, d Delegate[T]) bool {
	if !d.valid() {
		b.log.Error("subscribe with empty delegate", zap.String("event", b.reg.Name(Tag[T](b.reg))))
		return false
	}
	t := Tag[T](b.reg)
	b.grow(t)
	for _, s := range b.subs[t] {
		if !s.removed && s.recv == d.recv && s.code == d.code {
			b.log.Error("duplicate event subscription", zap.String("event", b.reg.Name(t)))
			return false
		}
	}
	fn := d.fn
	b.subs[t] = append(b.subs[t], &subscriber{
		recv: d.recv,
		code: d.code,
		call: func(p unsafe.Pointer) { fn(*(*T)(p)) },
	})
	return true
}

// Unsubscribe removes the subscriber equal to d. Safe to call from a handler:
// the removed delegate is not invoked again, even for the event in flight.
func Unsubscribe[T any](b *Bus, d Delegate[T]) bool {
	t, ok := Lookup[T](b.reg)
	if !ok || int(t) >= len(b.subs) {
		return false
	}
	for _, s := range b.subs[t] {
		if !s.removed && s.recv == d.recv && s.code == d.code {
			b.remove(s)
			return true
		}
	}
	return false
}

// UnsubscribeAll removes every subscriber bound to recv across all types.
func (b *Bus) UnsubscribeAll(recv any) int {
	n := 0
	for _, list := range b.subs {
		for _, s := range list {
			if !s.removed && s.recv == recv {
				b.remove(s)
				n++
			}
		}
	}
	return n
}

// Subscribers returns the number of live subscribers for T.
func Subscribers[T any](b *Bus) int {
	t, ok := Lookup[T](b.reg)
	if !ok || int(t) >= len(b.subs) {
		return 0
	}
	n := 0
	for _, s := range b.subs[t] {
		if !s.removed {
			n++
		}
	}
	return n
}

// DispatchEvents delivers every pending event to its subscribers in enqueue
// order and returns how many events were processed. The loop bound is re-read
// on every iteration, so events sent by handlers are delivered in this same
// call. Afterwards the queue is emptied and the arena cleared.
func (b *Bus) DispatchEvents() int {
	if b.dispatching {
		b.log.Error("DispatchEvents called from an event handler, ignored")
		return 0
	}
	b.dispatching = true

	processed := 0
	for i := 0; i < len(b.queue); i++ {
		if b.limit > 0 && i >= b.limit {
			b.log.Warn("event dispatch limit reached, dropping remaining events",
				zap.Int("limit", b.limit),
				zap.Int("dropped", len(b.queue)-i))
			break
		}
		ev := b.queue[i]
		if int(ev.typ) < len(b.subs) {
			// Subscribers added by a handler only see later events.
			n := len(b.subs[ev.typ])
			for j := 0; j < n; j++ {
				s := b.subs[ev.typ][j]
				if s.removed {
					continue
				}
				s.call(ev.ptr)
			}
		}
		processed++
	}

	clear(b.queue)
	b.queue = b.queue[:0]
	b.arena.Clear()
	b.dropped = 0
	b.dispatching = false
	if b.dirty {
		b.compact()
	}
	return processed
}

// Pending returns the number of queued, undelivered events.
func (b *Bus) Pending() int { return len(b.queue) }

// Dropped returns how many sends failed for lack of arena space since the
// last dispatch.
func (b *Bus) Dropped() int { return b.dropped }

// Dispatching reports whether DispatchEvents is on the call stack.
func (b *Bus) Dispatching() bool { return b.dispatching }

func (b *Bus) grow(t Type) {
	for int(t) >= len(b.subs) {
		b.subs = append(b.subs, nil)
	}
}

func (b *Bus) remove(s *subscriber) {
	s.removed = true
	if b.dispatching {
		b.dirty = true
		return
	}
	b.compact()
}

func (b *Bus) compact() {
	for t, list := range b.subs {
		kept := list[:0]
		for _, s := range list {
			if !s.removed {
				kept = append(kept, s)
			}
		}
		clear(list[len(kept):])
		b.subs[t] = kept
	}
	b.dirty = false
}
