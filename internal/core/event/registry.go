package event

import (
	"errors"
	"fmt"
	"reflect"
	"unsafe"
)

// MaxTypes bounds the number of distinct event types a Registry can tag.
const MaxTypes = 1 << 12

// Type is the dense integer tag assigned to an event type on first use.
type Type uint16

var (
	ErrTooManyTypes = errors.New("event: too many event types")
	ErrPointerType  = errors.New("event: event type contains pointers")
)

type typeInfo struct {
	rtype reflect.Type
	size  uintptr
}

// Registry assigns each event type a tag once. Built at process start and
// passed by reference to the bus; no package-level state.
type Registry struct {
	ids   map[reflect.Type]Type
	types []typeInfo
}

func NewRegistry() *Registry {
	return &Registry{
		ids:   make(map[reflect.Type]Type, 32),
		types: make([]typeInfo, 0, 32),
	}
}

// Register returns the tag for T, assigning one if T is new. Event values are
// constructed in arena memory that the collector does not scan, so T must be
// free of Go pointers (no strings, slices, maps, interfaces or pointers).
func Register[T any](r *Registry) (Type, error) {
	rt := reflect.TypeOf((*T)(nil)).Elem()
	if id, ok := r.ids[rt]; ok {
		return id, nil
	}
	if hasPointers(rt) {
		return 0, fmt.Errorf("%w: %s", ErrPointerType, rt)
	}
	if len(r.types) >= MaxTypes {
		return 0, fmt.Errorf("%w (max %d)", ErrTooManyTypes, MaxTypes)
	}
	id := Type(len(r.types))
	var zero T
	r.types = append(r.types, typeInfo{rtype: rt, size: unsafe.Sizeof(zero)})
	r.ids[rt] = id
	return id, nil
}

// Tag is Register for call sites where a bad event type is a programming error.
func Tag[T any](r *Registry) Type {
	id, err := Register[T](r)
	if err != nil {
		panic(err)
	}
	return id
}

// Lookup returns the tag of T without assigning one.
func Lookup[T any](r *Registry) (Type, bool) {
	id, ok := r.ids[reflect.TypeOf((*T)(nil)).Elem()]
	return id, ok
}

// Name returns the Go type name behind a tag, for logging.
func (r *Registry) Name(t Type) string {
	if int(t) >= len(r.types) {
		return fmt.Sprintf("event#%d", t)
	}
	return r.types[t].rtype.String()
}

// Size returns the in-arena size of events with the given tag.
func (r *Registry) Size(t Type) uintptr {
	if int(t) >= len(r.types) {
		return 0
	}
	return r.types[t].size
}

// Len returns the number of registered event types.
func (r *Registry) Len() int { return len(r.types) }

func hasPointers(t reflect.Type) bool {
	switch t.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return t.Len() > 0 && hasPointers(t.Elem())
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			if hasPointers(t.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
