package system

import (
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/ecs"
	"github.com/l1jgo/engine/internal/core/event"
)

// Expired is sent when a Lifetime runs out, just before the entity is
// destroyed.
type Expired struct {
	Entity ecs.EntityID
}

// LifetimeSystem counts down Lifetime components and destroys entities whose
// time is up. Destruction is deferred, so iteration stays valid.
type LifetimeSystem struct {
	world   *ecs.World
	expired []ecs.EntityID
}

func NewLifetimeSystem(world *ecs.World) *LifetimeSystem {
	return &LifetimeSystem{world: world, expired: make([]ecs.EntityID, 0, 32)}
}

func (s *LifetimeSystem) Name() string { return "lifetime" }

func (s *LifetimeSystem) Update(dt time.Duration) {
	s.expired = s.expired[:0]
	ecs.Each(s.world, func(id ecs.EntityID, l *component.Lifetime) {
		l.Remaining -= dt
		if l.Remaining <= 0 {
			s.expired = append(s.expired, id)
		}
	})
	for _, id := range s.expired {
		// An expired ancestor earlier in the list has already taken it down.
		if !s.world.Alive(id) {
			continue
		}
		event.Send(s.world.Bus(), Expired{Entity: id})
		s.world.DestroyEntity(id)
	}
}
