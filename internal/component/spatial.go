package component

import "time"

// Transform stores an entity's local placement relative to its parent.
// World* fields are derived each frame by HierarchySystem and not persisted.
type Transform struct {
	Position Vec3 `yaml:"position"`
	Rotation Vec3 `yaml:"rotation"` // Euler angles, degrees
	Scale    Vec3 `yaml:"scale"`

	WorldPosition Vec3 `yaml:"-"`
	WorldScale    Vec3 `yaml:"-"`
}

// NewTransform returns a transform at pos with unit scale.
func NewTransform(pos Vec3) Transform {
	return Transform{Position: pos, Scale: One, WorldPosition: pos, WorldScale: One}
}

// Velocity is integrated into Transform.Position at the fixed step.
type Velocity struct {
	Linear Vec3 `yaml:"linear"`
}

// Lifetime destroys its entity once Remaining reaches zero.
type Lifetime struct {
	Remaining time.Duration `yaml:"remaining"`
}
