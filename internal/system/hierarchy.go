package system

import (
	"time"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/ecs"
)

// HierarchySystem derives world-space placement from the parent chain.
// Runs in PostUpdate so it sees this frame's movement and spawns.
type HierarchySystem struct {
	world *ecs.World
	stack []frame
}

type frame struct {
	id    ecs.EntityID
	pos   component.Vec3
	scale component.Vec3
}

func NewHierarchySystem(world *ecs.World) *HierarchySystem {
	return &HierarchySystem{world: world, stack: make([]frame, 0, 64)}
}

func (s *HierarchySystem) Name() string { return "hierarchy" }

func (s *HierarchySystem) PostUpdate(_ time.Duration) {
	reg := s.world.Entities()
	ecs.Each(s.world, func(id ecs.EntityID, t *component.Transform) {
		ent := reg.Get(id)
		if ent == nil || reg.Alive(ent.Parent()) {
			return // not a root; reached from its ancestor
		}
		s.propagate(id, t)
	})
}

func (s *HierarchySystem) propagate(root ecs.EntityID, t *component.Transform) {
	t.WorldScale = t.Scale
	t.WorldPosition = t.Position
	s.stack = append(s.stack[:0], frame{id: root, pos: t.WorldPosition, scale: t.WorldScale})

	reg := s.world.Entities()
	for len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		s.stack = s.stack[:len(s.stack)-1]

		ent := reg.Get(top.id)
		if ent == nil {
			continue
		}
		for _, child := range ent.Children() {
			if !reg.Alive(child) {
				continue
			}
			pos, scale := top.pos, top.scale
			if ct := s.childTransform(child); ct != nil {
				ct.WorldScale = top.scale.Mul(ct.Scale)
				ct.WorldPosition = top.pos.Add(top.scale.Mul(ct.Position))
				pos, scale = ct.WorldPosition, ct.WorldScale
			}
			s.stack = append(s.stack, frame{id: child, pos: pos, scale: scale})
		}
	}
}

func (s *HierarchySystem) childTransform(id ecs.EntityID) *component.Transform {
	if !ecs.Has[component.Transform](s.world, id) {
		return nil
	}
	return ecs.Get[component.Transform](s.world, id)
}
