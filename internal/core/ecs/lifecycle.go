package ecs

// Structural lifecycle notifications. All payloads are pointer-free so they
// can live in the event arena; subscribers read final component state through
// Lookup with the carried ComponentID until the frame's flush.

type EntityCreated struct {
	Entity EntityID
}

type EntityDestroyed struct {
	Entity     EntityID
	Parent     EntityID
	Components uint32
}

type ComponentAdded[T any] struct {
	Entity    EntityID
	Component ComponentID
}

type ComponentRemoved[T any] struct {
	Entity    EntityID
	Component ComponentID
}
