package system

import (
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/ecs"
)

// MovementSystem integrates Velocity into Transform at the fixed step.
type MovementSystem struct {
	world *ecs.World
}

func NewMovementSystem(world *ecs.World) *MovementSystem {
	return &MovementSystem{world: world}
}

func (s *MovementSystem) Name() string { return "movement" }

func (s *MovementSystem) FixedUpdate(dt time.Duration) {
	secs := dt.Seconds()
	ecs.Each2(s.world, func(_ ecs.EntityID, t *component.Transform, v *component.Velocity) {
		t.Position = t.Position.Add(v.Linear.Scale(secs))
	})
}
