package event

import (
	"testing"

	"github.com/l1jgo/engine/internal/core/arena"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type hit struct {
	Target uint64
	Damage int32
}

type died struct {
	Target uint64
}

type tick struct {
	N uint64
}

type recorder struct {
	hits []hit
	dead []died
}

func (r *recorder) OnHit(ev hit)   { r.hits = append(r.hits, ev) }
func (r *recorder) OnDied(ev died) { r.dead = append(r.dead, ev) }

func newTestBus(t *testing.T, arenaBytes int) (*Bus, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	return NewBus(NewRegistry(), arena.New(arenaBytes), zap.New(core)), logs
}

func TestDispatchInEnqueueOrder(t *testing.T) {
	bus, _ := newTestBus(t, 1024)
	var order []uint64
	Subscribe(bus, Func(t, func(ev tick) { order = append(order, ev.N) }))

	for i := uint64(1); i <= 5; i++ {
		require.True(t, Send(bus, tick{N: i}))
	}
	assert.Equal(t, 5, bus.Pending())

	assert.Equal(t, 5, bus.DispatchEvents())
	assert.Equal(t, []uint64{1, 2, 3, 4, 5}, order)
	assert.Equal(t, 0, bus.Pending())
	assert.Equal(t, 0, bus.arena.Len())
}

func TestInterleavedTypesKeepGlobalOrder(t *testing.T) {
	bus, _ := newTestBus(t, 1024)
	var seen []string
	Subscribe(bus, Func(t, func(hit) { seen = append(seen, "hit") }))
	Subscribe(bus, Func(t, func(died) { seen = append(seen, "died") }))

	Send(bus, hit{Target: 1})
	Send(bus, died{Target: 1})
	Send(bus, hit{Target: 2})
	bus.DispatchEvents()

	assert.Equal(t, []string{"hit", "died", "hit"}, seen)
}

func TestReentrantDeliveryWithinSameDispatch(t *testing.T) {
	bus, _ := newTestBus(t, 1024)
	rec := &recorder{}

	// First handler converts lethal hits into a died event.
	Subscribe(bus, Func(t, func(ev hit) {
		if ev.Damage >= 100 {
			Send(bus, died{Target: ev.Target})
		}
	}))
	Subscribe(bus, Bind(rec, (*recorder).OnDied))

	Send(bus, hit{Target: 7, Damage: 150})
	processed := bus.DispatchEvents()

	assert.Equal(t, 2, processed)
	require.Len(t, rec.dead, 1)
	assert.Equal(t, uint64(7), rec.dead[0].Target)
	assert.Equal(t, 0, bus.Pending())
}

func TestArenaExhaustionDropsAndWarnsOnce(t *testing.T) {
	// tick is 8 bytes with 8-byte alignment: exactly three fit.
	bus, logs := newTestBus(t, 24)
	var got []uint64
	Subscribe(bus, Func(t, func(ev tick) { got = append(got, ev.N) }))

	for i := uint64(1); i <= 3; i++ {
		require.True(t, Send(bus, tick{N: i}))
	}
	used := bus.arena.Len()

	assert.False(t, Send(bus, tick{N: 4}))
	assert.Equal(t, used, bus.arena.Len())
	assert.Equal(t, 1, bus.Dropped())
	assert.Equal(t, 1, logs.FilterMessage("event arena exhausted, dropping event").Len())

	assert.Equal(t, 3, bus.DispatchEvents())
	assert.Equal(t, []uint64{1, 2, 3}, got)

	// The arena is usable again after the dispatch.
	assert.True(t, Send(bus, tick{N: 5}))
}

func TestUnsubscribeDuringDispatch(t *testing.T) {
	bus, _ := newTestBus(t, 1024)
	rec := &recorder{}
	victim := Bind(rec, (*recorder).OnHit)

	Subscribe(bus, Func(t, func(hit) { Unsubscribe(bus, victim) }))
	Subscribe(bus, victim)

	Send(bus, hit{Target: 1})
	Send(bus, hit{Target: 2})
	bus.DispatchEvents()

	assert.Empty(t, rec.hits)
	assert.Equal(t, 1, Subscribers[hit](bus))
}

func TestSubscribeDuringDispatchSeesLaterEvents(t *testing.T) {
	bus, _ := newTestBus(t, 1024)
	rec := &recorder{}
	late := Bind(rec, (*recorder).OnHit)

	Subscribe(bus, Func(t, func(ev hit) {
		if ev.Target == 1 {
			Subscribe(bus, late)
		}
	}))

	Send(bus, hit{Target: 1})
	Send(bus, hit{Target: 2})
	bus.DispatchEvents()

	require.Len(t, rec.hits, 1)
	assert.Equal(t, uint64(2), rec.hits[0].Target)
}

func TestDelegateEquality(t *testing.T) {
	a, b := &recorder{}, &recorder{}

	assert.True(t, Bind(a, (*recorder).OnHit).Equal(Bind(a, (*recorder).OnHit)))
	assert.False(t, Bind(a, (*recorder).OnHit).Equal(Bind(b, (*recorder).OnHit)))

	bus, logs := newTestBus(t, 64)
	require.True(t, Subscribe(bus, Bind(a, (*recorder).OnHit)))
	assert.False(t, Subscribe(bus, Bind(a, (*recorder).OnHit)))
	assert.Equal(t, 1, logs.FilterMessage("duplicate event subscription").Len())
	require.True(t, Subscribe(bus, Bind(b, (*recorder).OnHit)))

	assert.True(t, Unsubscribe(bus, Bind(a, (*recorder).OnHit)))
	assert.False(t, Unsubscribe(bus, Bind(a, (*recorder).OnHit)))

	Send(bus, hit{Target: 3})
	bus.DispatchEvents()
	assert.Empty(t, a.hits)
	assert.Len(t, b.hits, 1)
}

func TestUnsubscribeAll(t *testing.T) {
	bus, _ := newTestBus(t, 64)
	rec := &recorder{}
	Subscribe(bus, Bind(rec, (*recorder).OnHit))
	Subscribe(bus, Bind(rec, (*recorder).OnDied))

	assert.Equal(t, 2, bus.UnsubscribeAll(rec))
	assert.Equal(t, 0, Subscribers[hit](bus))
	assert.Equal(t, 0, Subscribers[died](bus))
}

func TestDispatchLimit(t *testing.T) {
	bus, logs := newTestBus(t, 1024)
	bus.SetDispatchLimit(4)

	// Every tick schedules another one: only the limit stops the chain.
	Subscribe(bus, Func(t, func(ev tick) { Send(bus, tick{N: ev.N + 1}) }))
	Send(bus, tick{N: 0})

	assert.Equal(t, 4, bus.DispatchEvents())
	assert.Equal(t, 1, logs.FilterMessage("event dispatch limit reached, dropping remaining events").Len())
	assert.Equal(t, 0, bus.Pending())
}

func TestUnboundedChainStopsAtArenaCapacity(t *testing.T) {
	bus, logs := newTestBus(t, 80)
	bus.SetDispatchLimit(0)

	Subscribe(bus, Func(t, func(ev tick) { Send(bus, tick{N: ev.N + 1}) }))
	Send(bus, tick{N: 0})

	assert.Equal(t, 10, bus.DispatchEvents())
	assert.Equal(t, 1, logs.FilterMessage("event arena exhausted, dropping event").Len())
}

func TestEmptyDispatchIsNoop(t *testing.T) {
	bus, _ := newTestBus(t, 16)
	assert.Equal(t, 0, bus.DispatchEvents())
	assert.Equal(t, 0, bus.DispatchEvents())
}

func TestPointerEventTypeRejected(t *testing.T) {
	reg := NewRegistry()
	_, err := Register[struct{ Name string }](reg)
	assert.ErrorIs(t, err, ErrPointerType)

	bus, _ := newTestBus(t, 64)
	assert.Panics(t, func() { Send(bus, struct{ P *int }{}) })
}

func TestRegistryTagsAreStable(t *testing.T) {
	reg := NewRegistry()
	h := Tag[hit](reg)
	d := Tag[died](reg)

	assert.NotEqual(t, h, d)
	assert.Equal(t, h, Tag[hit](reg))
	assert.Equal(t, 2, reg.Len())
	assert.Contains(t, reg.Name(h), "hit")

	_, ok := Lookup[tick](reg)
	assert.False(t, ok)
}
