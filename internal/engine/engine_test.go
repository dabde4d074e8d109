package engine

import (
	"testing"
	"time"

	"github.com/l1jgo/engine/internal/config"
	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/core/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type hp struct{ Value int }

type damage struct {
	Target ecs.EntityID
	Amount int
}

// combat applies damage events and destroys entities that drop to zero.
type combat struct {
	world *ecs.World
	order *[]string
}

func (c *combat) Name() string { return "combat" }

func (c *combat) Update(time.Duration) {
	*c.order = append(*c.order, "update")
}

func (c *combat) onDamage(ev damage) {
	*c.order = append(*c.order, "damage")
	h := ecs.Get[hp](c.world, ev.Target)
	if h == nil {
		return
	}
	h.Value -= ev.Amount
	if h.Value <= 0 {
		c.world.DestroyEntity(ev.Target)
	}
}

func newTestEngine(t *testing.T) (*Engine, *observer.ObservedLogs) {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	cfg := config.Defaults()
	cfg.Events.ArenaBytes = 4096
	return New(cfg, zap.New(core)), logs
}

func TestUpdateOrdersSystemsDispatchFlush(t *testing.T) {
	e, _ := newTestEngine(t)
	w := e.World()

	var order []string
	c := &combat{world: w, order: &order}
	require.NoError(t, e.Register(c, 0))
	event.Subscribe(e.Bus(), event.Func(c, c.onDamage))

	victim := w.CreateEntity()
	ecs.Add(w, victim, hp{Value: 5})

	var finalHP int
	event.Subscribe(e.Bus(), event.Func(t, func(ev ecs.ComponentRemoved[hp]) {
		order = append(order, "removed")
		finalHP = ecs.Lookup[hp](w, ev.Component).Value
	}))

	event.Send(e.Bus(), damage{Target: victim, Amount: 3})
	event.Send(e.Bus(), damage{Target: victim, Amount: 3})

	stats := e.Update(16 * time.Millisecond)

	assert.Equal(t, []string{"update", "damage", "damage", "removed"}, order)
	assert.Equal(t, -1, finalHP)
	assert.Equal(t, uint64(1), stats.Frame)
	assert.Equal(t, 1, stats.Components)
	assert.Equal(t, 1, stats.Entities)
	assert.Nil(t, w.Entities().Get(victim))
	assert.Zero(t, e.Bus().Pending())
	assert.Zero(t, e.Arena().Len())
}

func TestUpdateWithoutWorkIsQuiet(t *testing.T) {
	e, logs := newTestEngine(t)
	stats := e.Update(time.Millisecond)
	assert.Equal(t, FrameStats{Frame: 1}, stats)
	assert.Zero(t, logs.FilterMessage("frame flushed").Len())

	stats = e.Update(time.Millisecond)
	assert.Equal(t, uint64(2), stats.Frame)
	assert.Equal(t, uint64(2), e.Frame())
}

func TestUpdateLogsFlush(t *testing.T) {
	e, logs := newTestEngine(t)
	id := e.World().CreateEntity()
	e.World().DestroyEntity(id)

	stats := e.Update(time.Millisecond)
	assert.Equal(t, 1, stats.Entities)
	assert.Equal(t, 1, logs.FilterMessage("frame flushed").Len())
}
