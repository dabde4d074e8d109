package event

import (
	"fmt"
	"reflect"
)

// Delegate is a subscription callback bound to one event type. Two delegates
// are equal when they share the receiver identity and the callback code, which
// lets callers unsubscribe by value instead of keeping a token.
type Delegate[T any] struct {
	recv any
	code uintptr
	fn   func(T)
}

// Bind builds a delegate from a receiver and a method expression:
//
//	event.Bind(sys, (*RenderSystem).OnComponentAdded)
func Bind[R any, T any](recv *R, method func(*R, T)) Delegate[T] {
	return Delegate[T]{
		recv: recv,
		code: codePointer(method),
		fn:   func(ev T) { method(recv, ev) },
	}
}

// Func builds a delegate from a plain function. owner is the identity used for
// equality and must be comparable (typically a pointer). Closures created from
// the same literal for the same owner compare equal.
func Func[T any](owner any, fn func(T)) Delegate[T] {
	if owner != nil && !reflect.TypeOf(owner).Comparable() {
		panic(fmt.Sprintf("event: delegate owner %T is not comparable", owner))
	}
	return Delegate[T]{
		recv: owner,
		code: codePointer(fn),
		fn:   fn,
	}
}

// Equal reports whether d and o name the same receiver and callback.
func (d Delegate[T]) Equal(o Delegate[T]) bool {
	return d.recv == o.recv && d.code == o.code
}

// Receiver returns the identity the delegate was bound to.
func (d Delegate[T]) Receiver() any { return d.recv }

func (d Delegate[T]) valid() bool { return d.fn != nil }

func codePointer(fn any) uintptr {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return 0
	}
	return v.Pointer()
}
