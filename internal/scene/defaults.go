package scene

import (
	"errors"

	"github.com/l1jgo/engine/internal/component"
	"github.com/l1jgo/engine/internal/core/ecs"
)

// RegisterDefaults binds codecs for the built-in components.
func RegisterDefaults(w *ecs.World) error {
	return errors.Join(
		ecs.RegisterCodec(w, "transform",
			func(t *component.Transform) (any, error) { return t, nil },
			func(u ecs.Unmarshal) (component.Transform, error) {
				t := component.NewTransform(component.Vec3{})
				if err := u(&t); err != nil {
					return t, err
				}
				t.WorldPosition, t.WorldScale = t.Position, t.Scale
				return t, nil
			}),
		ecs.RegisterPlainCodec[component.Velocity](w, "velocity"),
		ecs.RegisterPlainCodec[component.Lifetime](w, "lifetime"),
		ecs.RegisterPlainCodec[component.MeshRef](w, "mesh"),
		ecs.RegisterPlainCodec[component.Material](w, "material"),
		ecs.RegisterPlainCodec[component.Tag](w, "tag"),
	)
}
