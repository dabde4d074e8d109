package ecs

import (
	"fmt"

	"go.uber.org/zap"
)

// Unmarshal decodes a serialized component body into out. The scene format
// supplies it; the core never touches files or wire formats.
type Unmarshal func(out any) error

// EncodedComponent is one serialized component of an entity.
type EncodedComponent struct {
	Name string
	Data any
}

type codec struct {
	name   string
	typ    ComponentType
	encode func(value any) (any, error)
	decode func(w *World, e EntityID, u Unmarshal) error
}

type codecTable struct {
	byType map[ComponentType]*codec
	byName map[string]*codec
}

func newCodecTable() *codecTable {
	return &codecTable{
		byType: make(map[ComponentType]*codec, 16),
		byName: make(map[string]*codec, 16),
	}
}

// RegisterCodec binds a serialize function for T and a deserialize function
// for the type name. name defaults to the component's registered name.
func RegisterCodec[T any](w *World, name string, encode func(*T) (any, error), decode func(Unmarshal) (T, error)) error {
	pool := PoolOf[T](w)
	if name == "" {
		name = pool.name
	}
	if _, dup := w.codecs.byType[pool.typ]; dup {
		w.log.Error("codec already registered for component", zap.String("component", pool.name))
		return fmt.Errorf("register codec %s: %w", name, ErrNameTaken)
	}
	if _, dup := w.codecs.byName[name]; dup {
		w.log.Error("codec name already registered", zap.String("name", name))
		return fmt.Errorf("register codec %s: %w", name, ErrNameTaken)
	}
	c := &codec{
		name: name,
		typ:  pool.typ,
		encode: func(value any) (any, error) {
			return encode(value.(*T))
		},
		decode: func(w *World, e EntityID, u Unmarshal) error {
			v, err := decode(u)
			if err != nil {
				return fmt.Errorf("decode %s: %w", name, err)
			}
			if Add(w, e, v) == nil {
				return fmt.Errorf("decode %s: %w", name, ErrComponentExists)
			}
			return nil
		},
	}
	w.codecs.byType[pool.typ] = c
	w.codecs.byName[name] = c
	return nil
}

// RegisterPlainCodec binds a codec that hands T to the scene format as is and
// decodes straight into a T value. Field tags on T drive the layout.
func RegisterPlainCodec[T any](w *World, name string) error {
	return RegisterCodec[T](w, name,
		func(c *T) (any, error) { return c, nil },
		func(u Unmarshal) (T, error) {
			var v T
			err := u(&v)
			return v, err
		})
}

// EncodeComponents serializes every component of id that has a codec.
// Components without a binding, or whose encoder fails, are skipped with a
// warning.
func (w *World) EncodeComponents(id EntityID) []EncodedComponent {
	refs := w.storage.Components(id)
	out := make([]EncodedComponent, 0, len(refs))
	for _, ref := range refs {
		pool := w.registry.pools[ref.Type]
		c := w.codecs.byType[ref.Type]
		if c == nil {
			w.log.Warn("no serialize binding, component skipped",
				zap.Uint64("entity", uint64(id)),
				zap.String("component", pool.Name()))
			continue
		}
		data, err := c.encode(pool.Value(ref.ID))
		if err != nil {
			w.log.Warn("serialize component failed, skipped",
				zap.Uint64("entity", uint64(id)),
				zap.String("component", c.name),
				zap.Error(err))
			continue
		}
		out = append(out, EncodedComponent{Name: c.name, Data: data})
	}
	return out
}

// DecodeComponent deserializes one component body by type name and attaches
// it to id. A missing binding is logged and reported as ErrNoCodec.
func (w *World) DecodeComponent(id EntityID, name string, u Unmarshal) error {
	c := w.codecs.byName[name]
	if c == nil {
		w.log.Warn("no deserialize binding, component skipped",
			zap.Uint64("entity", uint64(id)),
			zap.String("component", name))
		return fmt.Errorf("decode %s: %w", name, ErrNoCodec)
	}
	return c.decode(w, id, u)
}
