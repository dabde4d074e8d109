package ecs

import (
	"fmt"
	"reflect"

	"go.uber.org/zap"
)

// Registry tracks every component pool. Types are tagged once, either
// explicitly at startup through RegisterComponent or on first use.
type Registry struct {
	pools  []ComponentPool
	byType map[reflect.Type]ComponentType
	byName map[string]ComponentType
}

func NewRegistry() *Registry {
	return &Registry{
		pools:  make([]ComponentPool, 0, 16),
		byType: make(map[reflect.Type]ComponentType, 16),
		byName: make(map[string]ComponentType, 16),
	}
}

// RegisterComponent creates the pool for T under name. Registering T again
// returns the existing tag; reusing a name for another type is rejected.
func RegisterComponent[T any](w *World, name string) (ComponentType, error) {
	r := w.registry
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if typ, ok := r.byType[rt]; ok {
		return typ, nil
	}
	if name == "" {
		name = rt.String()
	}
	if other, taken := r.byName[name]; taken {
		w.log.Error("component name already registered",
			zap.String("name", name),
			zap.String("type", rt.String()),
			zap.String("registered", r.pools[other].GoType().String()))
		return 0, fmt.Errorf("register component %s: %w", name, ErrNameTaken)
	}
	typ := ComponentType(len(r.pools))
	r.pools = append(r.pools, newPool[T](typ, name))
	r.byType[rt] = typ
	r.byName[name] = typ
	return typ, nil
}

// PoolOf returns the pool for T, registering T under its Go name if needed.
func PoolOf[T any](w *World) *Pool[T] {
	r := w.registry
	typ, ok := r.byType[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		var err error
		typ, err = RegisterComponent[T](w, "")
		if err != nil {
			// Only a name clash with another type can fail here.
			panic(err)
		}
	}
	return r.pools[typ].(*Pool[T])
}

func lookupPool[T any](w *World) (*Pool[T], bool) {
	typ, ok := w.registry.byType[reflect.TypeOf((*T)(nil)).Elem()]
	if !ok {
		return nil, false
	}
	return w.registry.pools[typ].(*Pool[T]), true
}

// ByName resolves a registered component name.
func (r *Registry) ByName(name string) (ComponentPool, bool) {
	typ, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return r.pools[typ], true
}
